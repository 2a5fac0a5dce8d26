package mapping

import (
	"context"
	"fmt"
	"net/url"
)

const (
	transportsCreatePath = "domain/transports/create"
	linksCreatePath      = "domain/links/create"
	linksGetPath         = "domain/links/get"
)

// CreateTransport creates or fetches a named transport and returns its id
func (c *Client) CreateTransport(ctx context.Context, name string) (int64, error) {
	resp, err := c.get(ctx, transportsCreatePath, url.Values{"name": {name}})
	if err != nil {
		return 0, fmt.Errorf("failed to create transport '%s': %w", name, err)
	}
	return c.readID(transportsCreatePath, resp, TransportIDField)
}

// CreateLink links a source endpoint to a target endpoint over a transport
// and returns the link id
func (c *Client) CreateLink(ctx context.Context, sourceEndpointID, targetEndpointID, transportID int64) (int64, error) {
	resp, err := c.get(ctx, linksCreatePath, url.Values{
		"SEPID":       {idParam(sourceEndpointID)},
		"TEPID":       {idParam(targetEndpointID)},
		"transportID": {idParam(transportID)},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to link endpoint %d to endpoint %d: %w", sourceEndpointID, targetEndpointID, err)
	}
	return c.readID(linksCreatePath, resp, LinkIDField)
}

// GetLink reads a link back
func (c *Client) GetLink(ctx context.Context, id int64) (*Link, error) {
	resp, err := c.get(ctx, linksGetPath, url.Values{"ID": {idParam(id)}})
	if err != nil {
		return nil, fmt.Errorf("failed to get link %d: %w", id, err)
	}

	var link Link
	if err := decodeInto(resp, &link); err != nil {
		return nil, fmt.Errorf("failed to decode link %d: %w", id, err)
	}
	return &link, nil
}
