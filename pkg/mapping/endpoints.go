package mapping

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jhwagner/mapping-fixtures/pkg/property"
)

const (
	endpointsPath             = "domain/endpoints"
	endpointsCreatePath       = "domain/endpoints/create"
	endpointsGetPath          = "domain/endpoints/get"
	endpointsAddPropertyPath  = "domain/endpoints/update/properties/add"
	endpointPropertiesWireKey = "endpointProperties"
)

// CreateEndpoint creates or updates an endpoint from a JSON payload and
// returns its id
func (c *Client) CreateEndpoint(ctx context.Context, endpoint *Endpoint) (int64, error) {
	resp, err := c.postPayload(ctx, endpointsPath, endpoint)
	if err != nil {
		return 0, fmt.Errorf("failed to create endpoint %s: %w", endpoint.URL, err)
	}
	return c.readID(endpointsPath, resp, EndpointIDField)
}

// CreateEndpointWithParams creates or updates an endpoint from discrete
// query parameters and returns its id
func (c *Client) CreateEndpointWithParams(ctx context.Context, endpointURL string, parentNodeID int64) (int64, error) {
	resp, err := c.get(ctx, endpointsCreatePath, url.Values{
		"URL":          {endpointURL},
		"parentNodeID": {idParam(parentNodeID)},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create endpoint %s: %w", endpointURL, err)
	}
	return c.readID(endpointsCreatePath, resp, EndpointIDField)
}

// GetEndpoint reads an endpoint back
func (c *Client) GetEndpoint(ctx context.Context, id int64) (*Endpoint, error) {
	resp, err := c.get(ctx, endpointsGetPath, url.Values{"ID": {idParam(id)}})
	if err != nil {
		return nil, fmt.Errorf("failed to get endpoint %d: %w", id, err)
	}

	var endpoint Endpoint
	if err := decodeInto(resp, &endpoint); err != nil {
		return nil, fmt.Errorf("failed to decode endpoint %d: %w", id, err)
	}
	if endpoint.Properties, err = decodeProperties(resp, endpointPropertiesWireKey); err != nil {
		return nil, fmt.Errorf("failed to decode properties of endpoint %d: %w", id, err)
	}
	return &endpoint, nil
}

// AddEndpointProperty attaches a map or array property to an endpoint
func (c *Client) AddEndpointProperty(ctx context.Context, id int64, name string, value property.Value) error {
	if err := c.addProperty(ctx, endpointsAddPropertyPath, id, name, value); err != nil {
		return fmt.Errorf("failed to add property '%s' to endpoint %d: %w", name, id, err)
	}
	return nil
}
