package mapping

import (
	"github.com/jhwagner/mapping-fixtures/pkg/property"
)

// Container is a managed endpoint-hosting unit as the mapping service sees it
type Container struct {
	ID            int64  `json:"containerID,omitempty"`
	AdminGateURL  string `json:"containerPrimaryAdminGateURL"`
	AdminGateName string `json:"containerPrimaryAdminGateName,omitempty"`
	Company       string `json:"containerCompany,omitempty"`
	Product       string `json:"containerProduct,omitempty"`
	Type          string `json:"containerType,omitempty"`

	// Properties are sent through the properties endpoints, never in payloads
	Properties property.Map `json:"-"`
}

// Node is a topology element inside a container. ParentNodeID is 0 for a
// root node.
type Node struct {
	ID           int64   `json:"nodeID,omitempty"`
	Name         string  `json:"nodeName"`
	ContainerID  int64   `json:"nodeContainerID"`
	ParentNodeID int64   `json:"nodeParentNodeID"`
	Depth        int64   `json:"nodeDepth,omitempty"`
	ChildNodeIDs []int64 `json:"nodeChildNodesID,omitempty"`
	TwinNodeIDs  []int64 `json:"nodeTwinNodesID,omitempty"`
	EndpointIDs  []int64 `json:"nodeEndpointsID,omitempty"`

	Properties property.Map `json:"-"`
}

// Endpoint is a connection point attached to a node
type Endpoint struct {
	ID              int64   `json:"endpointID,omitempty"`
	URL             string  `json:"endpointURL"`
	ParentNodeID    int64   `json:"endpointParentNodeID"`
	TwinEndpointIDs []int64 `json:"endpointTwinEndpointsID,omitempty"`

	Properties property.Map `json:"-"`
}

// Transport is a named link medium
type Transport struct {
	ID   int64  `json:"transportID,omitempty"`
	Name string `json:"transportName"`
}

// Link is a directed association between two endpoints over a transport
type Link struct {
	ID               int64 `json:"linkID,omitempty"`
	SourceEndpointID int64 `json:"linkSEPID"`
	TargetEndpointID int64 `json:"linkTEPID"`
	TransportID      int64 `json:"linkTRPID"`
}

// ContainerField names a container classification attribute
type ContainerField string

const (
	FieldCompany ContainerField = "company"
	FieldProduct ContainerField = "product"
	FieldType    ContainerField = "type"
)

// Wire names of the id fields read back from responses
const (
	ContainerIDField = "containerID"
	NodeIDField      = "nodeID"
	EndpointIDField  = "endpointID"
	TransportIDField = "transportID"
	LinkIDField      = "linkID"
)
