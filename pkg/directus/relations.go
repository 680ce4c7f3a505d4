package directus

import (
	"context"
	"net/http"
)

// Relation is a Directus relation. A nil Schema is serialized as null,
// which tells Directus not to create a foreign key constraint.
type Relation struct {
	Collection        string                 `json:"collection" yaml:"collection"`
	Field             string                 `json:"field" yaml:"field"`
	RelatedCollection string                 `json:"related_collection,omitempty" yaml:"related_collection,omitempty"`
	Meta              map[string]interface{} `json:"meta,omitempty" yaml:"meta,omitempty"`
	Schema            map[string]interface{} `json:"schema" yaml:"schema,omitempty"`
}

// Touches reports whether the relation starts from or points at collection.
func (r Relation) Touches(collection string) bool {
	return r.Collection == collection || r.RelatedCollection == collection
}

// ListRelations returns every relation.
func (c *Client) ListRelations(ctx context.Context) ([]Relation, error) {
	var out []Relation
	if err := c.doRequest(ctx, http.MethodGet, "/relations", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateRelation creates a relation.
func (c *Client) CreateRelation(ctx context.Context, r Relation) (*Relation, error) {
	var out Relation
	if err := c.doRequest(ctx, http.MethodPost, "/relations", nil, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateRelation PATCHes the relation defined on collection.field.
func (c *Client) UpdateRelation(ctx context.Context, collection, field string, patch map[string]interface{}) (*Relation, error) {
	var out Relation
	if err := c.doRequest(ctx, http.MethodPatch, "/relations/"+escape(collection)+"/"+escape(field), nil, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteRelation removes the relation defined on collection.field.
func (c *Client) DeleteRelation(ctx context.Context, collection, field string) error {
	return c.doRequest(ctx, http.MethodDelete, "/relations/"+escape(collection)+"/"+escape(field), nil, nil, nil)
}
