package directus

import (
	"context"
	"net/http"
)

// Role is a Directus role.
type Role struct {
	ID          string `json:"id,omitempty" yaml:"-"`
	Name        string `json:"name" yaml:"name,omitempty"`
	Icon        string `json:"icon,omitempty" yaml:"icon,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// ListRoles returns all roles.
func (c *Client) ListRoles(ctx context.Context) ([]Role, error) {
	var out []Role
	if err := c.doRequest(ctx, http.MethodGet, "/roles", Query{Limit: -1}.mustValues(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FindRole returns the role with the given name, or nil when none exists.
func (c *Client) FindRole(ctx context.Context, name string) (*Role, error) {
	roles, err := c.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	for i := range roles {
		if roles[i].Name == name {
			return &roles[i], nil
		}
	}
	return nil, nil
}

// CreateRole creates a role.
func (c *Client) CreateRole(ctx context.Context, r Role) (*Role, error) {
	var out Role
	if err := c.doRequest(ctx, http.MethodPost, "/roles", nil, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
