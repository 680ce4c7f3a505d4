package directus

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// Permission grants an action on a collection to a role. A nil Role is the
// Public role.
type Permission struct {
	ID          int                    `json:"id,omitempty"`
	Role        *string                `json:"role"`
	Collection  string                 `json:"collection"`
	Action      string                 `json:"action"`
	Fields      []string               `json:"fields,omitempty"`
	Permissions map[string]interface{} `json:"permissions,omitempty"`
	Validation  map[string]interface{} `json:"validation,omitempty"`
	Presets     map[string]interface{} `json:"presets,omitempty"`
}

// IsPublic reports whether the permission applies to unauthenticated users.
func (p Permission) IsPublic() bool {
	return p.Role == nil || *p.Role == ""
}

// PermissionFilter narrows ListPermissions. Leave RoleID empty and set
// Public to match the Public role.
type PermissionFilter struct {
	RoleID     string
	Public     bool
	Collection string
	Action     string
}

func (f PermissionFilter) values() url.Values {
	v := url.Values{}
	switch {
	case f.Public:
		v.Set("filter[role][_null]", "true")
	case f.RoleID != "":
		v.Set("filter[role][_eq]", f.RoleID)
	}
	if f.Collection != "" {
		v.Set("filter[collection][_eq]", f.Collection)
	}
	if f.Action != "" {
		v.Set("filter[action][_eq]", f.Action)
	}
	v.Set("limit", "-1")
	return v
}

// ListPermissions returns permissions matching the filter.
func (c *Client) ListPermissions(ctx context.Context, f PermissionFilter) ([]Permission, error) {
	var out []Permission
	if err := c.doRequest(ctx, http.MethodGet, "/permissions", f.values(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreatePermission creates a permission.
func (c *Client) CreatePermission(ctx context.Context, p Permission) (*Permission, error) {
	var out Permission
	if err := c.doRequest(ctx, http.MethodPost, "/permissions", nil, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePermission PATCHes a permission.
func (c *Client) UpdatePermission(ctx context.Context, id int, patch map[string]interface{}) (*Permission, error) {
	var out Permission
	if err := c.doRequest(ctx, http.MethodPatch, "/permissions/"+strconv.Itoa(id), nil, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
