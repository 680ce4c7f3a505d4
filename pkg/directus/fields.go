package directus

import (
	"context"
	"net/http"
)

// Field is a Directus field definition.
type Field struct {
	Collection string                 `json:"collection,omitempty" yaml:"collection,omitempty"`
	Field      string                 `json:"field" yaml:"field"`
	Type       string                 `json:"type,omitempty" yaml:"type,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty" yaml:"meta,omitempty"`
	Schema     map[string]interface{} `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// IsAlias reports whether the field has no database column (o2m, m2m,
// presentation fields).
func (f Field) IsAlias() bool {
	if f.Type == "alias" {
		return true
	}
	special, _ := f.Meta["special"].([]interface{})
	for _, s := range special {
		switch s {
		case "alias", "no-data", "o2m", "m2m", "m2a":
			return true
		}
	}
	return false
}

// ListFields returns the fields of a collection.
func (c *Client) ListFields(ctx context.Context, collection string) ([]Field, error) {
	var out []Field
	if err := c.doRequest(ctx, http.MethodGet, "/fields/"+escape(collection), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FieldNames returns the names of the fields of a collection.
func (c *Client) FieldNames(ctx context.Context, collection string) ([]string, error) {
	fields, err := c.ListFields(ctx, collection)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Field)
	}
	return names, nil
}

// GetField fetches a single field.
func (c *Client) GetField(ctx context.Context, collection, field string) (*Field, error) {
	var out Field
	if err := c.doRequest(ctx, http.MethodGet, "/fields/"+escape(collection)+"/"+escape(field), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateField adds a field to a collection.
func (c *Client) CreateField(ctx context.Context, collection string, f Field) (*Field, error) {
	f.Collection = ""
	var out Field
	if err := c.doRequest(ctx, http.MethodPost, "/fields/"+escape(collection), nil, f, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateField PATCHes a field. The patch usually carries "meta", "schema"
// or "type".
func (c *Client) UpdateField(ctx context.Context, collection, field string, patch map[string]interface{}) (*Field, error) {
	var out Field
	if err := c.doRequest(ctx, http.MethodPatch, "/fields/"+escape(collection)+"/"+escape(field), nil, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteField removes a field and its column.
func (c *Client) DeleteField(ctx context.Context, collection, field string) error {
	return c.doRequest(ctx, http.MethodDelete, "/fields/"+escape(collection)+"/"+escape(field), nil, nil, nil)
}
