package fixture

// Kind identifies the type of a created entity
type Kind string

const (
	KindContainer Kind = "container"
	KindNode      Kind = "node"
	KindEndpoint  Kind = "endpoint"
	KindTransport Kind = "transport"
	KindLink      Kind = "link"
)

// Entity records one entity a fixture created or updated
type Entity struct {
	Kind     Kind   `json:"kind"`
	Name     string `json:"name"`
	ID       int64  `json:"id"`
	ParentID int64  `json:"parentID,omitempty"`
}

// Result lists what a fixture created, in creation order. Partial is set
// when the fixture stopped at a failed request.
type Result struct {
	Fixture  string   `json:"fixture"`
	Partial  bool     `json:"partial,omitempty"`
	Entities []Entity `json:"entities"`
}

func (r *Result) add(kind Kind, name string, id, parentID int64) {
	r.Entities = append(r.Entities, Entity{Kind: kind, Name: name, ID: id, ParentID: parentID})
}

// ID returns the id of the first entity of the given kind and name
func (r *Result) ID(kind Kind, name string) (int64, bool) {
	for _, e := range r.Entities {
		if e.Kind == kind && e.Name == name {
			return e.ID, true
		}
	}
	return 0, false
}

// Count returns how many entities of a kind the fixture touched
func (r *Result) Count(kind Kind) int {
	n := 0
	for _, e := range r.Entities {
		if e.Kind == kind {
			n++
		}
	}
	return n
}
