package mapping

import (
	"context"
	"fmt"
	"net/url"

	simplejson "github.com/bitly/go-simplejson"

	"github.com/jhwagner/mapping-fixtures/pkg/property"
)

const (
	containersPath             = "domain/containers"
	containersCreatePath       = "domain/containers/create"
	containersGetPath          = "domain/containers/get"
	containersUpdatePath       = "domain/containers/update"
	containersAddPropertyPath  = "domain/containers/update/properties/add"
	containerPropertiesWireKey = "containerProperties"
)

// CreateContainer creates or updates a container from a JSON payload and
// returns its id
func (c *Client) CreateContainer(ctx context.Context, container *Container) (int64, error) {
	resp, err := c.postPayload(ctx, containersPath, container)
	if err != nil {
		return 0, fmt.Errorf("failed to create container %s: %w", container.AdminGateURL, err)
	}
	return c.readID(containersPath, resp, ContainerIDField)
}

// CreateContainerWithParams creates or updates a container from discrete
// query parameters and returns its id
func (c *Client) CreateContainerWithParams(ctx context.Context, adminGateURL, adminGateName string) (int64, error) {
	resp, err := c.get(ctx, containersCreatePath, url.Values{
		"primaryAdminURL":      {adminGateURL},
		"primaryAdminGateName": {adminGateName},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create container %s: %w", adminGateURL, err)
	}
	return c.readID(containersCreatePath, resp, ContainerIDField)
}

// UpdateContainerField sets the company, product or type of a container
func (c *Client) UpdateContainerField(ctx context.Context, id int64, field ContainerField, value string) error {
	switch field {
	case FieldCompany, FieldProduct, FieldType:
	default:
		return fmt.Errorf("unsupported container field '%s'", field)
	}

	path := containersUpdatePath + "/" + string(field)
	if _, err := c.get(ctx, path, url.Values{
		"ID":          {idParam(id)},
		string(field): {value},
	}); err != nil {
		return fmt.Errorf("failed to update %s of container %d: %w", field, id, err)
	}
	return nil
}

// AddContainerProperty attaches a map or array property to a container
func (c *Client) AddContainerProperty(ctx context.Context, id int64, name string, value property.Value) error {
	if err := c.addProperty(ctx, containersAddPropertyPath, id, name, value); err != nil {
		return fmt.Errorf("failed to add property '%s' to container %d: %w", name, id, err)
	}
	return nil
}

// GetContainer reads a container back
func (c *Client) GetContainer(ctx context.Context, id int64) (*Container, error) {
	resp, err := c.get(ctx, containersGetPath, url.Values{"ID": {idParam(id)}})
	if err != nil {
		return nil, fmt.Errorf("failed to get container %d: %w", id, err)
	}

	var container Container
	if err := decodeInto(resp, &container); err != nil {
		return nil, fmt.Errorf("failed to decode container %d: %w", id, err)
	}
	if container.Properties, err = decodeProperties(resp, containerPropertiesWireKey); err != nil {
		return nil, fmt.Errorf("failed to decode properties of container %d: %w", id, err)
	}
	return &container, nil
}

// addProperty sends one typed property to a properties/add endpoint
func (c *Client) addProperty(ctx context.Context, path string, id int64, name string, value property.Value) error {
	kind, err := property.Kind(value)
	if err != nil {
		return err
	}
	encoded, err := property.Encode(value)
	if err != nil {
		return err
	}

	_, err = c.get(ctx, path, url.Values{
		"ID":            {idParam(id)},
		"propertyName":  {name},
		"propertyValue": {string(encoded)},
		"propertyType":  {string(kind)},
	})
	return err
}

// decodeProperties reads the enveloped property object stored under key, if any
func decodeProperties(resp *simplejson.Json, key string) (property.Map, error) {
	raw, ok := resp.CheckGet(key)
	if !ok {
		return nil, nil
	}
	data, err := raw.MarshalJSON()
	if err != nil {
		return nil, err
	}
	if string(data) == "null" {
		return nil, nil
	}
	return property.DecodeMap(data)
}
