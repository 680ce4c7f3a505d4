// Package snapshot reads, writes and repairs Directus schema snapshots.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/directus-ops/cmsctl/pkg/directus"
)

// FieldRef names a collection field.
type FieldRef struct {
	Collection string `json:"collection"`
	Field      string `json:"field"`
}

func (r FieldRef) String() string {
	return r.Collection + "." + r.Field
}

// Read loads a snapshot document from path.
func Read(path string) (directus.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return Decode(data)
}

// Decode parses a snapshot. Both the bare document and the API's
// {"data": ...} envelope are accepted.
func Decode(data []byte) (directus.Snapshot, error) {
	var snap directus.Snapshot
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	if inner, ok := snap["data"].(map[string]interface{}); ok && len(snap) == 1 {
		snap = inner
	}
	return snap, nil
}

// Encode formats a snapshot with two-space indentation.
func Encode(snap directus.Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

// Write stores a snapshot at path.
func Write(path string, snap directus.Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// MissingRelationFields lists relations whose own field is absent from the
// snapshot's fields, in relation order without duplicates.
func MissingRelationFields(snap directus.Snapshot) []FieldRef {
	present := make(map[FieldRef]bool)
	for _, f := range objects(snap["fields"]) {
		present[ref(f)] = true
	}

	var missing []FieldRef
	for _, r := range objects(snap["relations"]) {
		rf := ref(r)
		if rf.Collection == "" || rf.Field == "" || present[rf] {
			continue
		}
		present[rf] = true
		missing = append(missing, rf)
	}
	return missing
}

// Patch adds a hidden integer field for every relation whose field is
// missing, so the snapshot applies cleanly. It returns the added fields.
func Patch(snap directus.Snapshot) []FieldRef {
	missing := MissingRelationFields(snap)
	if len(missing) == 0 {
		return nil
	}

	fields, _ := snap["fields"].([]interface{})
	for _, m := range missing {
		fields = append(fields, relationField(m))
	}
	snap["fields"] = fields
	return missing
}

func relationField(m FieldRef) map[string]interface{} {
	return map[string]interface{}{
		"collection": m.Collection,
		"field":      m.Field,
		"type":       "integer",
		"meta": map[string]interface{}{
			"collection": m.Collection,
			"field":      m.Field,
			"hidden":     true,
			"interface":  "select-dropdown-m2o",
			"special":    []interface{}{"m2o"},
			"readonly":   false,
			"required":   false,
			"sort":       99,
			"width":      "full",
		},
		"schema": map[string]interface{}{
			"name":               m.Field,
			"table":              m.Collection,
			"data_type":          "integer",
			"is_nullable":        true,
			"is_unique":          false,
			"is_indexed":         true,
			"is_primary_key":     false,
			"has_auto_increment": false,
		},
	}
}

// Summary counts the entries of each section of a snapshot or diff.
func Summary(doc map[string]interface{}) map[string]int {
	if inner, ok := doc["diff"].(map[string]interface{}); ok {
		doc = inner
	}
	out := make(map[string]int)
	for _, section := range []string{"collections", "fields", "relations"} {
		if items, ok := doc[section].([]interface{}); ok {
			out[section] = len(items)
		}
	}
	return out
}

// FormatSummary renders Summary as "collections=1 fields=3".
func FormatSummary(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var buf bytes.Buffer
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(' ')
		}
		fmt.Fprintf(&buf, "%s=%d", k, counts[k])
	}
	return buf.String()
}

func objects(v interface{}) []map[string]interface{} {
	list, _ := v.([]interface{})
	out := make([]map[string]interface{}, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}

func ref(m map[string]interface{}) FieldRef {
	c, _ := m["collection"].(string)
	f, _ := m["field"].(string)
	return FieldRef{Collection: c, Field: f}
}
