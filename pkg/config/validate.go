package config

import (
	"fmt"
	"net/url"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
)

const (
	APIVersion     = "mapping-fixtures.io/v1alpha1"
	KindFixtureSet = "FixtureSet"
)

// ValidateSession validates the resolved connection settings of a run
func ValidateSession(s *Session) error {
	if s.URL == "" {
		return fmt.Errorf("mapping service URL is required")
	}
	u, err := url.Parse(s.URL)
	if err != nil {
		return fmt.Errorf("invalid mapping service URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid mapping service URL '%s' (scheme must be http or https)", s.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid mapping service URL '%s' (missing host)", s.URL)
	}
	if s.Username == "" {
		return fmt.Errorf("username is required")
	}
	if s.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}

// ValidateFixtureSet validates a fixture set document. All problems found
// are reported together.
func ValidateFixtureSet(set *FixtureSet) error {
	if set.APIVersion != APIVersion {
		return fmt.Errorf("unsupported apiVersion: %s (expected %s)", set.APIVersion, APIVersion)
	}

	if set.Kind != KindFixtureSet {
		return fmt.Errorf("unsupported kind: %s (expected %s)", set.Kind, KindFixtureSet)
	}

	if set.Metadata.Name == "" {
		return fmt.Errorf("metadata.name is required")
	}

	if len(set.Spec.Fixtures) == 0 {
		return fmt.Errorf("at least one fixture is required")
	}

	var errs []error
	names := make(map[string]bool, len(set.Spec.Fixtures))
	for i := range set.Spec.Fixtures {
		f := &set.Spec.Fixtures[i]
		if names[f.Name] && f.Name != "" {
			errs = append(errs, fmt.Errorf("fixture[%d]: duplicate fixture name '%s'", i, f.Name))
		}
		names[f.Name] = true

		if err := ValidateFixture(f); err != nil {
			errs = append(errs, fmt.Errorf("fixture[%d] (%s): %w", i, f.Name, err))
		}
	}
	return utilerrors.NewAggregate(errs)
}

// fixtureRefs tracks the refs declared inside one fixture
type fixtureRefs struct {
	nodes     map[string]bool
	endpoints map[string]bool
	errs      []error
}

// ValidateFixture validates one fixture: required fields, unique refs,
// resolvable twins and links, and well-formed properties
func ValidateFixture(f *Fixture) error {
	if f.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(f.Containers) == 0 {
		return fmt.Errorf("at least one container is required")
	}

	refs := &fixtureRefs{
		nodes:     make(map[string]bool),
		endpoints: make(map[string]bool),
	}

	containerRefs := make(map[string]bool)
	for i := range f.Containers {
		c := &f.Containers[i]
		path := fmt.Sprintf("container[%d]", i)
		if c.Ref != "" {
			if containerRefs[c.Ref] {
				refs.errs = append(refs.errs, fmt.Errorf("%s: duplicate container ref '%s'", path, c.Ref))
			}
			containerRefs[c.Ref] = true
		}
		if c.AdminGateURL == "" {
			refs.errs = append(refs.errs, fmt.Errorf("%s: adminGateURL is required", path))
		}
		// the graph renderer needs all three to display a container
		if c.Company == "" || c.Product == "" || c.Type == "" {
			refs.errs = append(refs.errs, fmt.Errorf("%s: company, product and type are required", path))
		}
		validateProperties(c.Properties, path, refs)
		for j := range c.Nodes {
			refs.collectNode(&c.Nodes[j], fmt.Sprintf("%s.node[%d]", path, j))
		}
	}

	// twins and links are checked once every ref is known
	for i := range f.Containers {
		for j := range f.Containers[i].Nodes {
			refs.checkTwins(&f.Containers[i].Nodes[j], fmt.Sprintf("container[%d].node[%d]", i, j))
		}
	}

	for i, l := range f.Links {
		path := fmt.Sprintf("link[%d]", i)
		if l.Transport == "" {
			refs.errs = append(refs.errs, fmt.Errorf("%s: transport is required", path))
		}
		if !refs.endpoints[l.Source] {
			refs.errs = append(refs.errs, fmt.Errorf("%s: unknown source endpoint '%s'", path, l.Source))
		}
		if !refs.endpoints[l.Target] {
			refs.errs = append(refs.errs, fmt.Errorf("%s: unknown target endpoint '%s'", path, l.Target))
		}
	}

	return utilerrors.NewAggregate(refs.errs)
}

func (r *fixtureRefs) collectNode(n *Node, path string) {
	if n.Name == "" {
		r.errs = append(r.errs, fmt.Errorf("%s: name is required", path))
	}
	if n.Ref != "" {
		if r.nodes[n.Ref] {
			r.errs = append(r.errs, fmt.Errorf("%s: duplicate node ref '%s'", path, n.Ref))
		}
		r.nodes[n.Ref] = true
	}
	validateProperties(n.Properties, path, r)

	for i := range n.Endpoints {
		e := &n.Endpoints[i]
		epath := fmt.Sprintf("%s.endpoint[%d]", path, i)
		if e.URL == "" {
			r.errs = append(r.errs, fmt.Errorf("%s: url is required", epath))
		}
		if e.Ref != "" {
			if r.endpoints[e.Ref] {
				r.errs = append(r.errs, fmt.Errorf("%s: duplicate endpoint ref '%s'", epath, e.Ref))
			}
			r.endpoints[e.Ref] = true
		}
		validateProperties(e.Properties, epath, r)
	}

	for i := range n.Nodes {
		r.collectNode(&n.Nodes[i], fmt.Sprintf("%s.node[%d]", path, i))
	}
}

func (r *fixtureRefs) checkTwins(n *Node, path string) {
	for _, twin := range n.Twins {
		if n.Ref != "" && twin == n.Ref {
			r.errs = append(r.errs, fmt.Errorf("%s: node cannot be its own twin", path))
		} else if !r.nodes[twin] {
			r.errs = append(r.errs, fmt.Errorf("%s: unknown twin node '%s'", path, twin))
		}
	}
	for i, e := range n.Endpoints {
		for _, twin := range e.Twins {
			if e.Ref != "" && twin == e.Ref {
				r.errs = append(r.errs, fmt.Errorf("%s.endpoint[%d]: endpoint cannot be its own twin", path, i))
			} else if !r.endpoints[twin] {
				r.errs = append(r.errs, fmt.Errorf("%s.endpoint[%d]: unknown twin endpoint '%s'", path, i, twin))
			}
		}
	}
	for i := range n.Nodes {
		r.checkTwins(&n.Nodes[i], fmt.Sprintf("%s.node[%d]", path, i))
	}
}

func validateProperties(props []Property, path string, r *fixtureRefs) {
	seen := make(map[string]bool, len(props))
	for i, p := range props {
		if p.Name == "" {
			r.errs = append(r.errs, fmt.Errorf("%s: property[%d]: name is required", path, i))
			continue
		}
		if seen[p.Name] {
			r.errs = append(r.errs, fmt.Errorf("%s: property[%d]: duplicate property '%s'", path, i, p.Name))
		}
		seen[p.Name] = true
		if _, err := p.Resolve(); err != nil {
			r.errs = append(r.errs, fmt.Errorf("%s: property[%d] (%s): %w", path, i, p.Name, err))
		}
	}
}
