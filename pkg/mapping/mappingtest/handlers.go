package mappingtest

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/jhwagner/mapping-fixtures/pkg/mapping"
	"github.com/jhwagner/mapping-fixtures/pkg/property"
)

func (s *Server) postContainer(w http.ResponseWriter, r *http.Request) {
	var in mapping.Container
	if err := decodePayload(r, &in); err != nil {
		badRequest(w, "invalid container payload: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.upsertContainer(in)
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	writeEntity(w, c.Container, "containerProperties", c.props)
}

func (s *Server) createContainer(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := mapping.Container{
		AdminGateURL:  q.Get("primaryAdminURL"),
		AdminGateName: q.Get("primaryAdminGateName"),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.upsertContainer(in)
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	writeEntity(w, c.Container, "containerProperties", c.props)
}

// upsertContainer keys containers by admin gate URL
func (s *Server) upsertContainer(in mapping.Container) (*container, error) {
	if in.AdminGateURL == "" {
		return nil, errors.New("container admin gate URL is required")
	}

	var existing *container
	if in.ID != 0 {
		existing = s.containers[in.ID]
		if existing == nil {
			return nil, errors.New("unknown container id")
		}
	} else {
		for _, c := range s.containers {
			if c.AdminGateURL == in.AdminGateURL {
				existing = c
				break
			}
		}
	}

	if existing == nil {
		in.ID = s.newID()
		existing = &container{Container: in, props: property.Map{}}
		s.containers[in.ID] = existing
		return existing, nil
	}

	existing.AdminGateURL = in.AdminGateURL
	if in.AdminGateName != "" {
		existing.AdminGateName = in.AdminGateName
	}
	if in.Company != "" {
		existing.Company = in.Company
	}
	if in.Product != "" {
		existing.Product = in.Product
	}
	if in.Type != "" {
		existing.Type = in.Type
	}
	return existing, nil
}

func (s *Server) getContainer(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "ID")
	if err != nil {
		badRequest(w, "%v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.containers[id]
	if !ok {
		notFound(w, "container %d not found", id)
		return
	}
	writeEntity(w, c.Container, "containerProperties", c.props)
}

func (s *Server) updateContainer(w http.ResponseWriter, r *http.Request) {
	field := mapping.ContainerField(mux.Vars(r)["field"])
	id, err := queryID(r, "ID")
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	value := r.URL.Query().Get(string(field))

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.containers[id]
	if !ok {
		notFound(w, "container %d not found", id)
		return
	}
	switch field {
	case mapping.FieldCompany:
		c.Company = value
	case mapping.FieldProduct:
		c.Product = value
	case mapping.FieldType:
		c.Type = value
	default:
		badRequest(w, "unsupported container field '%s'", field)
		return
	}
	writeEntity(w, c.Container, "containerProperties", c.props)
}

func (s *Server) addContainerProperty(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "ID")
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	name, value, err := parseProperty(r)
	if err != nil {
		badRequest(w, "%v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.containers[id]
	if !ok {
		notFound(w, "container %d not found", id)
		return
	}
	c.props[name] = value
	writeEntity(w, c.Container, "containerProperties", c.props)
}

func (s *Server) postNode(w http.ResponseWriter, r *http.Request) {
	var in mapping.Node
	if err := decodePayload(r, &in); err != nil {
		badRequest(w, "invalid node payload: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.upsertNode(in)
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	writeEntity(w, n.snapshot(), "nodeProperties", n.props)
}

func (s *Server) createNode(w http.ResponseWriter, r *http.Request) {
	containerID, err := queryID(r, "containerID")
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	parentID, err := queryID(r, "parentNodeID")
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	in := mapping.Node{Name: r.URL.Query().Get("name"), ContainerID: containerID, ParentNodeID: parentID}

	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.upsertNode(in)
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	writeEntity(w, n.snapshot(), "nodeProperties", n.props)
}

// upsertNode keys nodes by container, parent and name. Twin ids accumulate.
func (s *Server) upsertNode(in mapping.Node) (*node, error) {
	if in.ID != 0 {
		existing, ok := s.nodes[in.ID]
		if !ok {
			return nil, errors.New("unknown node id")
		}
		if err := s.addNodeTwins(existing, in.TwinNodeIDs); err != nil {
			return nil, err
		}
		if in.Name != "" {
			existing.Name = in.Name
		}
		return existing, nil
	}

	if in.Name == "" {
		return nil, errors.New("node name is required")
	}
	if _, ok := s.containers[in.ContainerID]; !ok {
		return nil, errors.New("node container does not exist")
	}
	var parent *node
	if in.ParentNodeID != 0 {
		p, ok := s.nodes[in.ParentNodeID]
		if !ok {
			return nil, errors.New("node parent does not exist")
		}
		if p.ContainerID != in.ContainerID {
			return nil, errors.New("node parent belongs to another container")
		}
		parent = p
	}

	for _, n := range s.nodes {
		if n.ContainerID == in.ContainerID && n.ParentNodeID == in.ParentNodeID && n.Name == in.Name {
			if err := s.addNodeTwins(n, in.TwinNodeIDs); err != nil {
				return nil, err
			}
			return n, nil
		}
	}

	n := &node{
		Node: mapping.Node{
			ID:           s.newID(),
			Name:         in.Name,
			ContainerID:  in.ContainerID,
			ParentNodeID: in.ParentNodeID,
			Depth:        1,
		},
		children:  sets.New[int64](),
		twins:     sets.New[int64](),
		endpoints: sets.New[int64](),
		props:     property.Map{},
	}
	if parent != nil {
		n.Depth = parent.Depth + 1
		parent.children.Insert(n.ID)
	}
	if err := s.addNodeTwins(n, in.TwinNodeIDs); err != nil {
		return nil, err
	}
	s.nodes[n.ID] = n
	return n, nil
}

func (s *Server) addNodeTwins(n *node, twins []int64) error {
	for _, id := range twins {
		if _, ok := s.nodes[id]; !ok || id == n.ID {
			return errors.New("twin node does not exist")
		}
	}
	n.twins.Insert(twins...)
	return nil
}

func (s *Server) getNode(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "ID")
	if err != nil {
		badRequest(w, "%v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok {
		notFound(w, "node %d not found", id)
		return
	}
	writeEntity(w, n.snapshot(), "nodeProperties", n.props)
}

func (s *Server) addNodeProperty(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "ID")
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	name, value, err := parseProperty(r)
	if err != nil {
		badRequest(w, "%v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok {
		notFound(w, "node %d not found", id)
		return
	}
	n.props[name] = value
	writeEntity(w, n.snapshot(), "nodeProperties", n.props)
}

func (s *Server) postEndpoint(w http.ResponseWriter, r *http.Request) {
	var in mapping.Endpoint
	if err := decodePayload(r, &in); err != nil {
		badRequest(w, "invalid endpoint payload: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.upsertEndpoint(in)
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	writeEntity(w, e.snapshot(), "endpointProperties", e.props)
}

func (s *Server) createEndpoint(w http.ResponseWriter, r *http.Request) {
	parentID, err := queryID(r, "parentNodeID")
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	in := mapping.Endpoint{URL: r.URL.Query().Get("URL"), ParentNodeID: parentID}

	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.upsertEndpoint(in)
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	writeEntity(w, e.snapshot(), "endpointProperties", e.props)
}

// upsertEndpoint keys endpoints by URL. Twin ids accumulate.
func (s *Server) upsertEndpoint(in mapping.Endpoint) (*endpoint, error) {
	var existing *endpoint
	if in.ID != 0 {
		existing = s.endpoints[in.ID]
		if existing == nil {
			return nil, errors.New("unknown endpoint id")
		}
	} else {
		if in.URL == "" {
			return nil, errors.New("endpoint URL is required")
		}
		for _, e := range s.endpoints {
			if e.URL == in.URL {
				existing = e
				break
			}
		}
	}

	if existing == nil {
		parent, ok := s.nodes[in.ParentNodeID]
		if !ok {
			return nil, errors.New("endpoint parent node does not exist")
		}
		existing = &endpoint{
			Endpoint: mapping.Endpoint{ID: s.newID(), URL: in.URL, ParentNodeID: in.ParentNodeID},
			twins:    sets.New[int64](),
			props:    property.Map{},
		}
		parent.endpoints.Insert(existing.ID)
		if err := s.addEndpointTwins(existing, in.TwinEndpointIDs); err != nil {
			return nil, err
		}
		s.endpoints[existing.ID] = existing
		return existing, nil
	}

	if err := s.addEndpointTwins(existing, in.TwinEndpointIDs); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *Server) addEndpointTwins(e *endpoint, twins []int64) error {
	for _, id := range twins {
		if _, ok := s.endpoints[id]; !ok || id == e.ID {
			return errors.New("twin endpoint does not exist")
		}
	}
	e.twins.Insert(twins...)
	return nil
}

func (s *Server) getEndpoint(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "ID")
	if err != nil {
		badRequest(w, "%v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.endpoints[id]
	if !ok {
		notFound(w, "endpoint %d not found", id)
		return
	}
	writeEntity(w, e.snapshot(), "endpointProperties", e.props)
}

func (s *Server) addEndpointProperty(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "ID")
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	name, value, err := parseProperty(r)
	if err != nil {
		badRequest(w, "%v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.endpoints[id]
	if !ok {
		notFound(w, "endpoint %d not found", id)
		return
	}
	e.props[name] = value
	writeEntity(w, e.snapshot(), "endpointProperties", e.props)
}

func (s *Server) createTransport(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		badRequest(w, "missing parameter name")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.transports[name]
	if !ok {
		id = s.newID()
		s.transports[name] = id
	}
	writeJSON(w, mapping.Transport{ID: id, Name: name})
}

func (s *Server) createLink(w http.ResponseWriter, r *http.Request) {
	source, err := queryID(r, "SEPID")
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	target, err := queryID(r, "TEPID")
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	transport, err := queryID(r, "transportID")
	if err != nil {
		badRequest(w, "%v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.endpoints[source]; !ok {
		badRequest(w, "source endpoint %d does not exist", source)
		return
	}
	if _, ok := s.endpoints[target]; !ok {
		badRequest(w, "target endpoint %d does not exist", target)
		return
	}
	if !s.hasTransport(transport) {
		badRequest(w, "transport %d does not exist", transport)
		return
	}

	key := linkKey{source: source, target: target, transport: transport}
	id, ok := s.linkIDs[key]
	if !ok {
		id = s.newID()
		s.linkIDs[key] = id
		s.links[id] = mapping.Link{ID: id, SourceEndpointID: source, TargetEndpointID: target, TransportID: transport}
	}
	writeJSON(w, s.links[id])
}

func (s *Server) hasTransport(id int64) bool {
	for _, tid := range s.transports {
		if tid == id {
			return true
		}
	}
	return false
}

func (s *Server) getLink(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "ID")
	if err != nil {
		badRequest(w, "%v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.links[id]
	if !ok {
		notFound(w, "link %d not found", id)
		return
	}
	writeJSON(w, l)
}
