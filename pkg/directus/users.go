package directus

import (
	"context"
	"net/http"
)

// User is the subset of directus_users the tooling reads.
type User struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FirstName string  `json:"first_name,omitempty"`
	LastName  string  `json:"last_name,omitempty"`
	Role      *string `json:"role,omitempty"`
	Status    string  `json:"status,omitempty"`
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out User
	if err := c.doRequest(ctx, http.MethodGet, "/users/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateUser PATCHes a user.
func (c *Client) UpdateUser(ctx context.Context, id string, patch map[string]interface{}) (*User, error) {
	var out User
	if err := c.doRequest(ctx, http.MethodPatch, "/users/"+escape(id), nil, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
