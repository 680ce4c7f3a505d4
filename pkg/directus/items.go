package directus

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Item is a single record of a user collection.
type Item map[string]interface{}

// ID returns the primary key of the item, assuming the default "id" field.
func (i Item) ID() interface{} {
	return i["id"]
}

// Query holds the list parameters understood by /items.
type Query struct {
	Filter map[string]interface{}
	Fields []string
	Sort   []string
	// Limit of 0 leaves the server default; -1 returns every item.
	Limit     int
	Offset    int
	Aggregate map[string]string
}

// Values encodes the query the way Directus expects it.
func (q Query) Values() (url.Values, error) {
	v := url.Values{}
	if len(q.Filter) > 0 {
		filter, err := json.Marshal(q.Filter)
		if err != nil {
			return nil, fmt.Errorf("failed to encode filter: %w", err)
		}
		v.Set("filter", string(filter))
	}
	if len(q.Fields) > 0 {
		v.Set("fields", strings.Join(q.Fields, ","))
	}
	if len(q.Sort) > 0 {
		v.Set("sort", strings.Join(q.Sort, ","))
	}
	if q.Limit != 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	for fn, field := range q.Aggregate {
		v.Set("aggregate["+fn+"]", field)
	}
	return v, nil
}

func (q Query) mustValues() url.Values {
	v, err := q.Values()
	if err != nil {
		return url.Values{}
	}
	return v
}

// All returns a query for every item of a collection.
func All() Query {
	return Query{Limit: -1}
}

func itemsPath(collection string) string {
	return "/items/" + escape(collection)
}

// ListItems returns the items matching q.
func (c *Client) ListItems(ctx context.Context, collection string, q Query) ([]Item, error) {
	values, err := q.Values()
	if err != nil {
		return nil, err
	}
	var out []Item
	if err := c.doRequest(ctx, http.MethodGet, itemsPath(collection), values, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetItem fetches one item by primary key.
func (c *Client) GetItem(ctx context.Context, collection string, id interface{}) (Item, error) {
	var out Item
	if err := c.doRequest(ctx, http.MethodGet, itemsPath(collection)+"/"+idSegment(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateItem creates one item and returns it as stored.
func (c *Client) CreateItem(ctx context.Context, collection string, item Item) (Item, error) {
	var out Item
	if err := c.doRequest(ctx, http.MethodPost, itemsPath(collection), nil, item, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateItems creates many items in a single request.
func (c *Client) CreateItems(ctx context.Context, collection string, items []Item) ([]Item, error) {
	if len(items) == 0 {
		return nil, nil
	}
	var out []Item
	if err := c.doRequest(ctx, http.MethodPost, itemsPath(collection), nil, items, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateItem PATCHes one item.
func (c *Client) UpdateItem(ctx context.Context, collection string, id interface{}, patch Item) (Item, error) {
	var out Item
	if err := c.doRequest(ctx, http.MethodPatch, itemsPath(collection)+"/"+idSegment(id), nil, patch, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteItem deletes one item.
func (c *Client) DeleteItem(ctx context.Context, collection string, id interface{}) error {
	return c.doRequest(ctx, http.MethodDelete, itemsPath(collection)+"/"+idSegment(id), nil, nil, nil)
}

// Count returns the number of items in a collection.
func (c *Client) Count(ctx context.Context, collection string) (int, error) {
	rows, err := c.ListItems(ctx, collection, Query{Aggregate: map[string]string{"count": "*"}})
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return countValue(rows[0]["count"])
}

// countValue handles the shapes Directus uses for aggregate results: a bare
// number, a numeric string, or {"*": n}.
func countValue(v interface{}) (int, error) {
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case string:
		return strconv.Atoi(n)
	case map[string]interface{}:
		return countValue(n["*"])
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("unexpected count value %v", v)
	}
}
