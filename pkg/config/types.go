package config

import (
	"fmt"
	"time"

	"github.com/jhwagner/mapping-fixtures/pkg/property"
)

// FixtureSet is a document declaring one or more fixture topologies
type FixtureSet struct {
	APIVersion string         `yaml:"apiVersion"`
	Kind       string         `yaml:"kind"`
	Metadata   Metadata       `yaml:"metadata"`
	Spec       FixtureSetSpec `yaml:"spec"`
}

// Metadata contains fixture set metadata
type Metadata struct {
	Name        string            `yaml:"name"`
	Annotations map[string]string `yaml:"annotations,omitempty"`
}

// FixtureSetSpec lists the fixtures of a set
type FixtureSetSpec struct {
	Fixtures []Fixture `yaml:"fixtures"`
}

// Fixture is one topology fragment, loaded as a fixed sequence of
// create-or-update calls
type Fixture struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Containers  []Container `yaml:"containers"`
	Links       []Link      `yaml:"links,omitempty"`
}

// Container declares a container and the node tree it hosts
type Container struct {
	Ref           string     `yaml:"ref,omitempty"`
	AdminGateURL  string     `yaml:"adminGateURL"`
	AdminGateName string     `yaml:"adminGateName,omitempty"`
	Company       string     `yaml:"company"`
	Product       string     `yaml:"product"`
	Type          string     `yaml:"type"`
	Properties    []Property `yaml:"properties,omitempty"`
	Nodes         []Node     `yaml:"nodes,omitempty"`
}

// Node declares a node, its endpoints and its children. Twins name other
// nodes of the same fixture by ref.
type Node struct {
	Ref        string     `yaml:"ref,omitempty"`
	Name       string     `yaml:"name"`
	Properties []Property `yaml:"properties,omitempty"`
	Endpoints  []Endpoint `yaml:"endpoints,omitempty"`
	Nodes      []Node     `yaml:"nodes,omitempty"`
	Twins      []string   `yaml:"twins,omitempty"`
}

// Endpoint declares an endpoint attached to its enclosing node
type Endpoint struct {
	Ref        string     `yaml:"ref,omitempty"`
	URL        string     `yaml:"url"`
	Properties []Property `yaml:"properties,omitempty"`
	Twins      []string   `yaml:"twins,omitempty"`
}

// Link declares a directed link between two endpoint refs over a named
// transport
type Link struct {
	Source    string `yaml:"source"`
	Target    string `yaml:"target"`
	Transport string `yaml:"transport"`
}

// Property is a named map or array property. Value is either a
// property.Value or a decoded YAML tree using the typed envelope, in which
// case Type is required.
type Property struct {
	Name  string `yaml:"name"`
	Type  string `yaml:"type,omitempty"` // map, array
	Value any    `yaml:"value"`
}

// Resolve returns the typed value of the property
func (p Property) Resolve() (property.Value, error) {
	if v, ok := p.Value.(property.Value); ok {
		if p.Type != "" && property.Type(p.Type) != v.Type() {
			return nil, fmt.Errorf("declared type '%s' does not match value type '%s'", p.Type, v.Type())
		}
		if _, err := property.Kind(v); err != nil {
			return nil, err
		}
		return v, nil
	}

	kind := property.Type(p.Type)
	if kind != property.TypeMap && kind != property.TypeArray {
		return nil, fmt.Errorf("invalid type '%s' (must be map or array)", p.Type)
	}
	return property.FromRaw(kind, p.Value)
}

// MarshalYAML writes typed values back in their envelope form so that the
// output parses again as a fixture document
func (p Property) MarshalYAML() (interface{}, error) {
	v, ok := p.Value.(property.Value)
	if !ok {
		type plain Property
		return plain(p), nil
	}
	raw, err := property.ToRaw(v)
	if err != nil {
		return nil, fmt.Errorf("property '%s': %w", p.Name, err)
	}
	return struct {
		Name  string `yaml:"name"`
		Type  string `yaml:"type"`
		Value any    `yaml:"value"`
	}{p.Name, string(v.Type()), raw}, nil
}

// Session is the resolved configuration for one loader run
type Session struct {
	URL      string        `mapstructure:"url"`
	Prefix   string        `mapstructure:"prefix"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Fixtures []string      `mapstructure:"fixtures"`
}
