package directus

import (
	"context"
	"net/http"
	"strings"
)

// SystemPrefix marks collections owned by Directus itself.
const SystemPrefix = "directus_"

// Collection is a Directus collection definition.
type Collection struct {
	Collection string                 `json:"collection"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
	Schema     map[string]interface{} `json:"schema"`
	Fields     []Field                `json:"fields,omitempty"`
}

// IsSystem reports whether the collection belongs to Directus.
func (c Collection) IsSystem() bool {
	return strings.HasPrefix(c.Collection, SystemPrefix)
}

// ListCollections returns every collection, including system ones.
func (c *Client) ListCollections(ctx context.Context) ([]Collection, error) {
	var out []Collection
	if err := c.doRequest(ctx, http.MethodGet, "/collections", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UserCollections returns the names of all non-system collections.
func (c *Client) UserCollections(ctx context.Context) ([]string, error) {
	all, err := c.ListCollections(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(all))
	for _, col := range all {
		if !col.IsSystem() {
			names = append(names, col.Collection)
		}
	}
	return names, nil
}

// GetCollection fetches a single collection.
func (c *Client) GetCollection(ctx context.Context, name string) (*Collection, error) {
	var out Collection
	if err := c.doRequest(ctx, http.MethodGet, "/collections/"+escape(name), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCollection creates a collection. A nil schema is sent as an empty
// object so Directus creates a database table.
func (c *Client) CreateCollection(ctx context.Context, col Collection) (*Collection, error) {
	if col.Schema == nil {
		col.Schema = map[string]interface{}{}
	}
	var out Collection
	if err := c.doRequest(ctx, http.MethodPost, "/collections", nil, col, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCollection PATCHes a collection. The patch may contain "meta" and,
// on instances that support it, "collection" to rename it.
func (c *Client) UpdateCollection(ctx context.Context, name string, patch map[string]interface{}) (*Collection, error) {
	var out Collection
	if err := c.doRequest(ctx, http.MethodPatch, "/collections/"+escape(name), nil, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCollection drops a collection and its table.
func (c *Client) DeleteCollection(ctx context.Context, name string) error {
	return c.doRequest(ctx, http.MethodDelete, "/collections/"+escape(name), nil, nil, nil)
}
