package config

import (
	"strings"
	"testing"
	"time"

	"github.com/jhwagner/mapping-fixtures/pkg/property"
)

func validFixture() Fixture {
	return Fixture{
		Name: "broker",
		Containers: []Container{
			{
				AdminGateURL: "http://localhost:15672",
				Company:      "Pivotal",
				Product:      "RabbitMQ",
				Type:         "Message Broker",
				Properties: []Property{
					{Name: "Server", Value: property.Map{"version": property.String("3.5.0")}},
				},
				Nodes: []Node{
					{
						Ref:  "vhost",
						Name: "/ (vhost)",
						Nodes: []Node{
							{
								Ref:  "queue",
								Name: "queue A1",
								Endpoints: []Endpoint{
									{Ref: "queue-ep", URL: "amqp://localhost:5672/%2F/queueA1"},
								},
							},
							{
								Ref:  "exchange",
								Name: "exchange E1",
								Endpoints: []Endpoint{
									{Ref: "exchange-ep", URL: "amqp://localhost:5672/%2F/exchangeE1"},
								},
							},
						},
					},
				},
			},
		},
		Links: []Link{
			{Source: "exchange-ep", Target: "queue-ep", Transport: "amqp://"},
		},
	}
}

func TestValidateFixtureSet(t *testing.T) {
	tests := []struct {
		name    string
		set     *FixtureSet
		wantErr bool
	}{
		{
			name: "valid fixture set",
			set: &FixtureSet{
				APIVersion: "mapping-fixtures.io/v1alpha1",
				Kind:       "FixtureSet",
				Metadata:   Metadata{Name: "lab"},
				Spec:       FixtureSetSpec{Fixtures: []Fixture{validFixture()}},
			},
			wantErr: false,
		},
		{
			name: "invalid API version",
			set: &FixtureSet{
				APIVersion: "v1",
				Kind:       "FixtureSet",
				Metadata:   Metadata{Name: "lab"},
				Spec:       FixtureSetSpec{Fixtures: []Fixture{validFixture()}},
			},
			wantErr: true,
		},
		{
			name: "invalid kind",
			set: &FixtureSet{
				APIVersion: "mapping-fixtures.io/v1alpha1",
				Kind:       "Topology",
				Metadata:   Metadata{Name: "lab"},
				Spec:       FixtureSetSpec{Fixtures: []Fixture{validFixture()}},
			},
			wantErr: true,
		},
		{
			name: "missing name",
			set: &FixtureSet{
				APIVersion: "mapping-fixtures.io/v1alpha1",
				Kind:       "FixtureSet",
				Spec:       FixtureSetSpec{Fixtures: []Fixture{validFixture()}},
			},
			wantErr: true,
		},
		{
			name: "no fixtures",
			set: &FixtureSet{
				APIVersion: "mapping-fixtures.io/v1alpha1",
				Kind:       "FixtureSet",
				Metadata:   Metadata{Name: "lab"},
			},
			wantErr: true,
		},
		{
			name: "duplicate fixture names",
			set: &FixtureSet{
				APIVersion: "mapping-fixtures.io/v1alpha1",
				Kind:       "FixtureSet",
				Metadata:   Metadata{Name: "lab"},
				Spec:       FixtureSetSpec{Fixtures: []Fixture{validFixture(), validFixture()}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFixtureSet(tt.set)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFixtureSet() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateFixture(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(f *Fixture)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(f *Fixture) {},
		},
		{
			name:    "missing container classification",
			mutate:  func(f *Fixture) { f.Containers[0].Type = "" },
			wantErr: "company, product and type are required",
		},
		{
			name:    "missing admin gate URL",
			mutate:  func(f *Fixture) { f.Containers[0].AdminGateURL = "" },
			wantErr: "adminGateURL is required",
		},
		{
			name:    "unknown link target",
			mutate:  func(f *Fixture) { f.Links[0].Target = "nowhere" },
			wantErr: "unknown target endpoint 'nowhere'",
		},
		{
			name:    "missing transport",
			mutate:  func(f *Fixture) { f.Links[0].Transport = "" },
			wantErr: "transport is required",
		},
		{
			name: "duplicate endpoint ref",
			mutate: func(f *Fixture) {
				f.Containers[0].Nodes[0].Nodes[1].Endpoints[0].Ref = "queue-ep"
			},
			wantErr: "duplicate endpoint ref 'queue-ep'",
		},
		{
			name: "unknown twin node",
			mutate: func(f *Fixture) {
				f.Containers[0].Nodes[0].Twins = []string{"ghost"}
			},
			wantErr: "unknown twin node 'ghost'",
		},
		{
			name: "self twin endpoint",
			mutate: func(f *Fixture) {
				f.Containers[0].Nodes[0].Nodes[0].Endpoints[0].Twins = []string{"queue-ep"}
			},
			wantErr: "endpoint cannot be its own twin",
		},
		{
			name: "twin endpoints across nodes",
			mutate: func(f *Fixture) {
				f.Containers[0].Nodes[0].Nodes[0].Endpoints[0].Twins = []string{"exchange-ep"}
			},
		},
		{
			name: "scalar property",
			mutate: func(f *Fixture) {
				f.Containers[0].Properties[0].Value = property.String("alone")
			},
			wantErr: "must be a map or an array",
		},
		{
			name: "raw property without type",
			mutate: func(f *Fixture) {
				f.Containers[0].Properties[0] = Property{Name: "Server", Value: map[string]any{"v": []any{"String", "x"}}}
			},
			wantErr: "invalid type ''",
		},
		{
			name: "duplicate property",
			mutate: func(f *Fixture) {
				f.Containers[0].Properties = append(f.Containers[0].Properties, f.Containers[0].Properties[0])
			},
			wantErr: "duplicate property 'Server'",
		},
		{
			name:    "unnamed node",
			mutate:  func(f *Fixture) { f.Containers[0].Nodes[0].Nodes[0].Name = "" },
			wantErr: "container[0].node[0].node[0]: name is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validFixture()
			tt.mutate(&f)
			err := ValidateFixture(&f)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ValidateFixture() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ValidateFixture() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateFixture() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateSession(t *testing.T) {
	tests := []struct {
		name    string
		session Session
		wantErr bool
	}{
		{
			name:    "valid",
			session: Session{URL: "http://localhost:6969", Username: "yoda", Timeout: time.Second},
		},
		{
			name:    "missing URL",
			session: Session{Username: "yoda"},
			wantErr: true,
		},
		{
			name:    "bad scheme",
			session: Session{URL: "tcp://localhost:6969", Username: "yoda"},
			wantErr: true,
		},
		{
			name:    "missing host",
			session: Session{URL: "http://", Username: "yoda"},
			wantErr: true,
		},
		{
			name:    "missing username",
			session: Session{URL: "http://localhost:6969"},
			wantErr: true,
		},
		{
			name:    "negative timeout",
			session: Session{URL: "http://localhost:6969", Username: "yoda", Timeout: -time.Second},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSession(&tt.session)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSession() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
