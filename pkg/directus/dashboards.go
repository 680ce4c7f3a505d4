package directus

import (
	"context"
	"net/http"
	"net/url"
)

// Dashboard is an Insights dashboard.
type Dashboard struct {
	ID    string `json:"id,omitempty" yaml:"-"`
	Name  string `json:"name" yaml:"name,omitempty"`
	Icon  string `json:"icon,omitempty" yaml:"icon,omitempty"`
	Color string `json:"color,omitempty" yaml:"color,omitempty"`
	Note  string `json:"note,omitempty" yaml:"note,omitempty"`
}

// Panel is a dashboard panel.
type Panel struct {
	ID         string                 `json:"id,omitempty" yaml:"-"`
	Dashboard  string                 `json:"dashboard" yaml:"dashboard,omitempty"`
	Name       string                 `json:"name,omitempty" yaml:"name,omitempty"`
	Icon       string                 `json:"icon,omitempty" yaml:"icon,omitempty"`
	Color      string                 `json:"color,omitempty" yaml:"color,omitempty"`
	Type       string                 `json:"type" yaml:"type,omitempty"`
	PositionX  int                    `json:"position_x" yaml:"position_x,omitempty"`
	PositionY  int                    `json:"position_y" yaml:"position_y,omitempty"`
	Width      int                    `json:"width" yaml:"width,omitempty"`
	Height     int                    `json:"height" yaml:"height,omitempty"`
	ShowHeader bool                   `json:"show_header" yaml:"show_header,omitempty"`
	Options    map[string]interface{} `json:"options,omitempty" yaml:"options,omitempty"`
}

// ListDashboards returns all dashboards.
func (c *Client) ListDashboards(ctx context.Context) ([]Dashboard, error) {
	var out []Dashboard
	if err := c.doRequest(ctx, http.MethodGet, "/dashboards", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateDashboard creates a dashboard.
func (c *Client) CreateDashboard(ctx context.Context, d Dashboard) (*Dashboard, error) {
	var out Dashboard
	if err := c.doRequest(ctx, http.MethodPost, "/dashboards", nil, d, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListPanels returns the panels of one dashboard.
func (c *Client) ListPanels(ctx context.Context, dashboard string) ([]Panel, error) {
	q := url.Values{}
	q.Set("filter[dashboard][_eq]", dashboard)
	var out []Panel
	if err := c.doRequest(ctx, http.MethodGet, "/panels", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreatePanel adds a panel to a dashboard.
func (c *Client) CreatePanel(ctx context.Context, p Panel) (*Panel, error) {
	var out Panel
	if err := c.doRequest(ctx, http.MethodPost, "/panels", nil, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
