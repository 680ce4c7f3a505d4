package directus

import (
	"context"
	"net/http"
	"net/url"
)

// Snapshot is the raw schema snapshot document. It is kept as a generic map
// so snapshots from any Directus version round-trip unchanged.
type Snapshot map[string]interface{}

// SchemaDiff is the result of /schema/diff. A nil *SchemaDiff means the
// snapshot already matches the instance.
type SchemaDiff map[string]interface{}

// Snapshot fetches the current schema snapshot.
func (c *Client) Snapshot(ctx context.Context) (Snapshot, error) {
	var out Snapshot
	if err := c.doRequest(ctx, http.MethodGet, "/schema/snapshot", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Diff compares a snapshot with the instance. force skips the version and
// vendor checks.
func (c *Client) Diff(ctx context.Context, snapshot Snapshot, force bool) (SchemaDiff, error) {
	var query url.Values
	if force {
		query = url.Values{"force": []string{"true"}}
	}
	var out SchemaDiff
	if err := c.doRequest(ctx, http.MethodPost, "/schema/diff", query, snapshot, &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// Apply applies a diff returned by Diff.
func (c *Client) Apply(ctx context.Context, diff SchemaDiff) error {
	return c.doRequest(ctx, http.MethodPost, "/schema/apply", nil, diff, nil)
}
