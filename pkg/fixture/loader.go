package fixture

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/jhwagner/mapping-fixtures/pkg/config"
	"github.com/jhwagner/mapping-fixtures/pkg/mapping"
	"github.com/jhwagner/mapping-fixtures/pkg/property"
)

// Client is the part of the mapping service API the loader drives
type Client interface {
	CreateContainer(ctx context.Context, container *mapping.Container) (int64, error)
	UpdateContainerField(ctx context.Context, id int64, field mapping.ContainerField, value string) error
	AddContainerProperty(ctx context.Context, id int64, name string, value property.Value) error
	CreateNode(ctx context.Context, node *mapping.Node) (int64, error)
	AddNodeProperty(ctx context.Context, id int64, name string, value property.Value) error
	CreateEndpoint(ctx context.Context, endpoint *mapping.Endpoint) (int64, error)
	AddEndpointProperty(ctx context.Context, id int64, name string, value property.Value) error
	CreateTransport(ctx context.Context, name string) (int64, error)
	CreateLink(ctx context.Context, sourceEndpointID, targetEndpointID, transportID int64) (int64, error)
}

// Run loads fixtures one after another against one mapping service.
// Transports are created once per run and reused by id.
type Run struct {
	client     Client
	out        io.Writer
	log        *logrus.Entry
	transports map[string]int64
}

// Option configures a Run
type Option func(*Run)

// WithOutput sends progress lines to w
func WithOutput(w io.Writer) Option {
	return func(r *Run) {
		r.out = w
	}
}

// WithLogger sets the logger used for step traces
func WithLogger(log *logrus.Entry) Option {
	return func(r *Run) {
		r.log = log
	}
}

// NewRun creates a run bound to client
func NewRun(client Client, opts ...Option) *Run {
	r := &Run{
		client:     client,
		out:        io.Discard,
		log:        logrus.NewEntry(logrus.StandardLogger()),
		transports: make(map[string]int64),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load applies fixtures in order and stops at the first failure. Results of
// the fixtures that completed are returned alongside the error, followed by
// the partial result of the failed fixture when it created anything.
func (r *Run) Load(ctx context.Context, fixtures []config.Fixture) ([]*Result, error) {
	results := make([]*Result, 0, len(fixtures))
	for i := range fixtures {
		f := &fixtures[i]
		fmt.Fprintf(r.out, "Loading fixture '%s'...\n", f.Name)

		res, err := r.Apply(ctx, f)
		if err != nil {
			if res != nil && len(res.Entities) > 0 {
				results = append(results, res)
			}
			return results, err
		}
		results = append(results, res)

		fmt.Fprintf(r.out, "✓ Fixture '%s' loaded (%d containers, %d nodes, %d endpoints, %d links)\n",
			f.Name, res.Count(KindContainer), res.Count(KindNode), res.Count(KindEndpoint), res.Count(KindLink))
	}
	return results, nil
}

// Apply replays the create-or-update sequence of one fixture
func Apply(ctx context.Context, client Client, f *config.Fixture) (*Result, error) {
	return NewRun(client).Apply(ctx, f)
}

// entityKey identifies a node or endpoint within one fixture: by ref when it
// has one, by server id otherwise
type entityKey struct {
	ref string
	id  int64
}

func keyOf(ref string, id int64) entityKey {
	if ref != "" {
		return entityKey{ref: ref}
	}
	return entityKey{id: id}
}

// fixtureState threads server-assigned ids between the steps of one fixture
type fixtureState struct {
	result    *Result
	nodes     map[entityKey]*mapping.Node
	endpoints map[entityKey]*mapping.Endpoint
	// declaration order of entities that take part in a twin relation
	nodeOrder     []entityKey
	endpointOrder []entityKey
	nodeTwins     map[entityKey]sets.Set[entityKey]
	endpointTwins map[entityKey]sets.Set[entityKey]
}

// Apply replays the create-or-update sequence of one fixture:
// containers with their classification and properties, then node trees
// depth first with their endpoints, then twin declarations, then links.
// When a request fails, the entities created so far are returned in a
// result marked partial.
func (r *Run) Apply(ctx context.Context, f *config.Fixture) (*Result, error) {
	if err := config.ValidateFixture(f); err != nil {
		return nil, fmt.Errorf("fixture '%s' is invalid: %w", f.Name, err)
	}

	st := &fixtureState{
		result:        &Result{Fixture: f.Name},
		nodes:         make(map[entityKey]*mapping.Node),
		endpoints:     make(map[entityKey]*mapping.Endpoint),
		nodeTwins:     make(map[entityKey]sets.Set[entityKey]),
		endpointTwins: make(map[entityKey]sets.Set[entityKey]),
	}
	log := r.log.WithField("fixture", f.Name)
	fail := func(err error) (*Result, error) {
		st.result.Partial = true
		return st.result, err
	}

	for i := range f.Containers {
		c := &f.Containers[i]
		if err := r.loadContainer(ctx, st, c); err != nil {
			return fail(fmt.Errorf("fixture '%s': container[%d] (%s): %w", f.Name, i, c.AdminGateURL, err))
		}
		log.WithField("container", c.AdminGateURL).Debug("container loaded")
	}

	if err := r.declareNodeTwins(ctx, st); err != nil {
		return fail(fmt.Errorf("fixture '%s': %w", f.Name, err))
	}
	if err := r.declareEndpointTwins(ctx, st); err != nil {
		return fail(fmt.Errorf("fixture '%s': %w", f.Name, err))
	}

	for i, l := range f.Links {
		if err := r.loadLink(ctx, st, l); err != nil {
			return fail(fmt.Errorf("fixture '%s': link[%d] (%s -> %s): %w", f.Name, i, l.Source, l.Target, err))
		}
	}

	log.WithField("entities", len(st.result.Entities)).Debug("fixture loaded")
	return st.result, nil
}

func (r *Run) loadContainer(ctx context.Context, st *fixtureState, c *config.Container) error {
	id, err := r.client.CreateContainer(ctx, &mapping.Container{
		AdminGateURL:  c.AdminGateURL,
		AdminGateName: c.AdminGateName,
	})
	if err != nil {
		return err
	}
	st.result.add(KindContainer, c.AdminGateURL, id, 0)

	classification := []struct {
		field mapping.ContainerField
		value string
	}{
		{mapping.FieldCompany, c.Company},
		{mapping.FieldProduct, c.Product},
		{mapping.FieldType, c.Type},
	}
	for _, cl := range classification {
		if err := r.client.UpdateContainerField(ctx, id, cl.field, cl.value); err != nil {
			return err
		}
	}

	for _, p := range c.Properties {
		v, err := p.Resolve()
		if err != nil {
			return fmt.Errorf("property '%s': %w", p.Name, err)
		}
		if err := r.client.AddContainerProperty(ctx, id, p.Name, v); err != nil {
			return err
		}
	}

	for i := range c.Nodes {
		if err := r.loadNode(ctx, st, id, 0, &c.Nodes[i]); err != nil {
			return fmt.Errorf("node '%s': %w", c.Nodes[i].Name, err)
		}
	}
	return nil
}

func (r *Run) loadNode(ctx context.Context, st *fixtureState, containerID, parentID int64, n *config.Node) error {
	payload := &mapping.Node{
		Name:         n.Name,
		ContainerID:  containerID,
		ParentNodeID: parentID,
	}
	id, err := r.client.CreateNode(ctx, payload)
	if err != nil {
		return err
	}
	payload.ID = id
	st.result.add(KindNode, n.Name, id, parentID)

	key := keyOf(n.Ref, id)
	st.nodes[key] = payload
	for _, twin := range n.Twins {
		st.pairNodes(key, keyOf(twin, 0))
	}

	for _, p := range n.Properties {
		v, err := p.Resolve()
		if err != nil {
			return fmt.Errorf("property '%s': %w", p.Name, err)
		}
		if err := r.client.AddNodeProperty(ctx, id, p.Name, v); err != nil {
			return err
		}
	}

	for i := range n.Endpoints {
		if err := r.loadEndpoint(ctx, st, id, &n.Endpoints[i]); err != nil {
			return fmt.Errorf("endpoint %s: %w", n.Endpoints[i].URL, err)
		}
	}

	for i := range n.Nodes {
		if err := r.loadNode(ctx, st, containerID, id, &n.Nodes[i]); err != nil {
			return fmt.Errorf("node '%s': %w", n.Nodes[i].Name, err)
		}
	}
	return nil
}

func (r *Run) loadEndpoint(ctx context.Context, st *fixtureState, nodeID int64, e *config.Endpoint) error {
	payload := &mapping.Endpoint{
		URL:          e.URL,
		ParentNodeID: nodeID,
	}
	id, err := r.client.CreateEndpoint(ctx, payload)
	if err != nil {
		return err
	}
	payload.ID = id
	st.result.add(KindEndpoint, e.URL, id, nodeID)

	key := keyOf(e.Ref, id)
	st.endpoints[key] = payload
	for _, twin := range e.Twins {
		st.pairEndpoints(key, keyOf(twin, 0))
	}

	for _, p := range e.Properties {
		v, err := p.Resolve()
		if err != nil {
			return fmt.Errorf("property '%s': %w", p.Name, err)
		}
		if err := r.client.AddEndpointProperty(ctx, id, p.Name, v); err != nil {
			return err
		}
	}
	return nil
}

// pairNodes records a twin relation in both directions
func (st *fixtureState) pairNodes(a, b entityKey) {
	for _, pair := range [][2]entityKey{{a, b}, {b, a}} {
		if st.nodeTwins[pair[0]] == nil {
			st.nodeTwins[pair[0]] = sets.New[entityKey]()
			st.nodeOrder = append(st.nodeOrder, pair[0])
		}
		st.nodeTwins[pair[0]].Insert(pair[1])
	}
}

// pairEndpoints records a twin relation in both directions
func (st *fixtureState) pairEndpoints(a, b entityKey) {
	for _, pair := range [][2]entityKey{{a, b}, {b, a}} {
		if st.endpointTwins[pair[0]] == nil {
			st.endpointTwins[pair[0]] = sets.New[entityKey]()
			st.endpointOrder = append(st.endpointOrder, pair[0])
		}
		st.endpointTwins[pair[0]].Insert(pair[1])
	}
}

// declareNodeTwins re-posts every twinned node with the sorted ids of its twins
func (r *Run) declareNodeTwins(ctx context.Context, st *fixtureState) error {
	for _, key := range st.nodeOrder {
		node := *st.nodes[key]
		for twin := range st.nodeTwins[key] {
			node.TwinNodeIDs = append(node.TwinNodeIDs, st.nodes[twin].ID)
		}
		slices.Sort(node.TwinNodeIDs)
		if _, err := r.client.CreateNode(ctx, &node); err != nil {
			return fmt.Errorf("failed to declare twins of node '%s': %w", node.Name, err)
		}
	}
	return nil
}

// declareEndpointTwins re-posts every twinned endpoint with the sorted ids of its twins
func (r *Run) declareEndpointTwins(ctx context.Context, st *fixtureState) error {
	for _, key := range st.endpointOrder {
		endpoint := *st.endpoints[key]
		for twin := range st.endpointTwins[key] {
			endpoint.TwinEndpointIDs = append(endpoint.TwinEndpointIDs, st.endpoints[twin].ID)
		}
		slices.Sort(endpoint.TwinEndpointIDs)
		if _, err := r.client.CreateEndpoint(ctx, &endpoint); err != nil {
			return fmt.Errorf("failed to declare twins of endpoint %s: %w", endpoint.URL, err)
		}
	}
	return nil
}

func (r *Run) loadLink(ctx context.Context, st *fixtureState, l config.Link) error {
	transportID, err := r.transport(ctx, st, l.Transport)
	if err != nil {
		return err
	}

	source, target := st.endpoints[keyOf(l.Source, 0)], st.endpoints[keyOf(l.Target, 0)]
	id, err := r.client.CreateLink(ctx, source.ID, target.ID, transportID)
	if err != nil {
		return err
	}
	st.result.add(KindLink, fmt.Sprintf("%s -> %s", source.URL, target.URL), id, transportID)
	return nil
}

// transport returns the id of a named transport, creating it the first time
// the run needs it
func (r *Run) transport(ctx context.Context, st *fixtureState, name string) (int64, error) {
	if id, ok := r.transports[name]; ok {
		return id, nil
	}
	id, err := r.client.CreateTransport(ctx, name)
	if err != nil {
		return 0, err
	}
	r.transports[name] = id
	st.result.add(KindTransport, name, id, 0)
	return id, nil
}
