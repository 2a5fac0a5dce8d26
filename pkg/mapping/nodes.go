package mapping

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jhwagner/mapping-fixtures/pkg/property"
)

const (
	nodesPath             = "domain/nodes"
	nodesCreatePath       = "domain/nodes/create"
	nodesGetPath          = "domain/nodes/get"
	nodesAddPropertyPath  = "domain/nodes/update/properties/add"
	nodePropertiesWireKey = "nodeProperties"
)

// CreateNode creates or updates a node from a JSON payload and returns its id.
// A node with an id set is updated in place.
func (c *Client) CreateNode(ctx context.Context, node *Node) (int64, error) {
	resp, err := c.postPayload(ctx, nodesPath, node)
	if err != nil {
		return 0, fmt.Errorf("failed to create node '%s': %w", node.Name, err)
	}
	return c.readID(nodesPath, resp, NodeIDField)
}

// CreateNodeWithParams creates or updates a node from discrete query
// parameters and returns its id
func (c *Client) CreateNodeWithParams(ctx context.Context, name string, containerID, parentNodeID int64) (int64, error) {
	resp, err := c.get(ctx, nodesCreatePath, url.Values{
		"name":         {name},
		"containerID":  {idParam(containerID)},
		"parentNodeID": {idParam(parentNodeID)},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create node '%s': %w", name, err)
	}
	return c.readID(nodesCreatePath, resp, NodeIDField)
}

// GetNode reads a node back
func (c *Client) GetNode(ctx context.Context, id int64) (*Node, error) {
	resp, err := c.get(ctx, nodesGetPath, url.Values{"ID": {idParam(id)}})
	if err != nil {
		return nil, fmt.Errorf("failed to get node %d: %w", id, err)
	}

	var node Node
	if err := decodeInto(resp, &node); err != nil {
		return nil, fmt.Errorf("failed to decode node %d: %w", id, err)
	}
	if node.Properties, err = decodeProperties(resp, nodePropertiesWireKey); err != nil {
		return nil, fmt.Errorf("failed to decode properties of node %d: %w", id, err)
	}
	return &node, nil
}

// AddNodeProperty attaches a map or array property to a node
func (c *Client) AddNodeProperty(ctx context.Context, id int64, name string, value property.Value) error {
	if err := c.addProperty(ctx, nodesAddPropertyPath, id, name, value); err != nil {
		return fmt.Errorf("failed to add property '%s' to node %d: %w", name, id, err)
	}
	return nil
}
