// Package mappingtest provides an in-process mapping service for tests. It
// keeps the create-or-update semantics the fixture loader relies on: natural
// keys are deduplicated, parents and link ends must exist, and properties are
// decoded and re-encoded through the typed envelope.
package mappingtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/jhwagner/mapping-fixtures/pkg/mapping"
	"github.com/jhwagner/mapping-fixtures/pkg/property"
)

const (
	Username = "yoda"
	Password = "secure123"
)

// Counts is a snapshot of how many entities the server holds
type Counts struct {
	Containers int
	Nodes      int
	Endpoints  int
	Transports int
	Links      int
}

type container struct {
	mapping.Container
	props property.Map
}

type node struct {
	mapping.Node
	children  sets.Set[int64]
	twins     sets.Set[int64]
	endpoints sets.Set[int64]
	props     property.Map
}

type endpoint struct {
	mapping.Endpoint
	twins sets.Set[int64]
	props property.Map
}

type linkKey struct {
	source, target, transport int64
}

// Server is a fake mapping service
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	nextID     int64
	containers map[int64]*container
	nodes      map[int64]*node
	endpoints  map[int64]*endpoint
	transports map[string]int64
	links      map[int64]mapping.Link
	linkIDs    map[linkKey]int64
	requests   []string
	failures   map[string]int
}

// NewServer starts a fake mapping service serving under mapping.DefaultPrefix.
// It is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		containers: make(map[int64]*container),
		nodes:      make(map[int64]*node),
		endpoints:  make(map[int64]*endpoint),
		transports: make(map[string]int64),
		links:      make(map[int64]mapping.Link),
		linkIDs:    make(map[linkKey]int64),
		failures:   make(map[string]int),
	}

	router := mux.NewRouter()
	api := router.PathPrefix("/" + mapping.DefaultPrefix).Subrouter()
	api.Use(s.authenticate, s.record)

	api.HandleFunc("/domain/containers", s.postContainer).Methods(http.MethodPost)
	api.HandleFunc("/domain/containers/create", s.createContainer).Methods(http.MethodGet)
	api.HandleFunc("/domain/containers/get", s.getContainer).Methods(http.MethodGet)
	api.HandleFunc("/domain/containers/update/properties/add", s.addContainerProperty).Methods(http.MethodGet)
	api.HandleFunc("/domain/containers/update/{field}", s.updateContainer).Methods(http.MethodGet)

	api.HandleFunc("/domain/nodes", s.postNode).Methods(http.MethodPost)
	api.HandleFunc("/domain/nodes/create", s.createNode).Methods(http.MethodGet)
	api.HandleFunc("/domain/nodes/get", s.getNode).Methods(http.MethodGet)
	api.HandleFunc("/domain/nodes/update/properties/add", s.addNodeProperty).Methods(http.MethodGet)

	api.HandleFunc("/domain/endpoints", s.postEndpoint).Methods(http.MethodPost)
	api.HandleFunc("/domain/endpoints/create", s.createEndpoint).Methods(http.MethodGet)
	api.HandleFunc("/domain/endpoints/get", s.getEndpoint).Methods(http.MethodGet)
	api.HandleFunc("/domain/endpoints/update/properties/add", s.addEndpointProperty).Methods(http.MethodGet)

	api.HandleFunc("/domain/transports/create", s.createTransport).Methods(http.MethodGet)
	api.HandleFunc("/domain/links/create", s.createLink).Methods(http.MethodGet)
	api.HandleFunc("/domain/links/get", s.getLink).Methods(http.MethodGet)

	s.Server = httptest.NewServer(router)
	t.Cleanup(s.Close)
	return s
}

// FailOn makes every request to path (relative to the API prefix, e.g.
// "domain/nodes") answer with status
func (s *Server) FailOn(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures["/"+mapping.DefaultPrefix+"/"+path] = status
}

// Counts returns the number of stored entities
func (s *Server) Counts() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Counts{
		Containers: len(s.containers),
		Nodes:      len(s.nodes),
		Endpoints:  len(s.endpoints),
		Transports: len(s.transports),
		Links:      len(s.links),
	}
}

// Requests returns "METHOD path" for every request received, in order
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// ContainerByType returns the first container with the given type
func (s *Server) ContainerByType(containerType string) (mapping.Container, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range sets.List(sets.KeySet(s.containers)) {
		if c := s.containers[id]; c.Type == containerType {
			return c.Container, true
		}
	}
	return mapping.Container{}, false
}

// NodeByName returns the first node with the given name
func (s *Server) NodeByName(name string) (mapping.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range sets.List(sets.KeySet(s.nodes)) {
		if n := s.nodes[id]; n.Name == name {
			return n.snapshot(), true
		}
	}
	return mapping.Node{}, false
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != Username || pass != Password {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+r.URL.Path)
		status, fail := s.failures[r.URL.Path]
		s.mu.Unlock()

		if fail {
			http.Error(w, fmt.Sprintf("injected failure on %s", r.URL.Path), status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) newID() int64 {
	s.nextID++
	return s.nextID
}

func (n *node) snapshot() mapping.Node {
	out := n.Node
	out.ChildNodeIDs = sets.List(n.children)
	out.TwinNodeIDs = sets.List(n.twins)
	out.EndpointIDs = sets.List(n.endpoints)
	out.Properties = n.props
	return out
}

func (e *endpoint) snapshot() mapping.Endpoint {
	out := e.Endpoint
	out.TwinEndpointIDs = sets.List(e.twins)
	out.Properties = e.props
	return out
}

// writeEntity renders an entity with its properties under propKey
func writeEntity(w http.ResponseWriter, entity any, propKey string, props property.Map) {
	data, err := json.Marshal(entity)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(data, &out); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if propKey != "" && len(props) > 0 {
		encoded, err := property.Encode(props)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		out[propKey] = encoded
	}
	writeJSON(w, out)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, format string, args ...any) {
	http.Error(w, fmt.Sprintf(format, args...), http.StatusBadRequest)
}

func notFound(w http.ResponseWriter, format string, args ...any) {
	http.Error(w, fmt.Sprintf(format, args...), http.StatusNotFound)
}

func queryID(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("missing parameter %s", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid parameter %s: %w", name, err)
	}
	return id, nil
}

func decodePayload(r *http.Request, out any) error {
	if err := r.ParseForm(); err != nil {
		return err
	}
	payload := r.PostForm.Get("payload")
	if payload == "" {
		return fmt.Errorf("missing payload parameter")
	}
	return json.Unmarshal([]byte(payload), out)
}

// parseProperty decodes the property parameters of a properties/add request
func parseProperty(r *http.Request) (string, property.Value, error) {
	q := r.URL.Query()
	name := q.Get("propertyName")
	if name == "" {
		return "", nil, fmt.Errorf("missing parameter propertyName")
	}
	kind := property.Type(q.Get("propertyType"))
	if kind != property.TypeMap && kind != property.TypeArray {
		return "", nil, fmt.Errorf("unsupported propertyType '%s'", kind)
	}
	value, err := property.Decode(kind, []byte(q.Get("propertyValue")))
	if err != nil {
		return "", nil, err
	}
	return name, value, nil
}
