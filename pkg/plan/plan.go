package plan

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/directus-ops/cmsctl/pkg/directus"
)

// Plan is a named sequence of steps applied against one CMS.
type Plan struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Requires    []string `yaml:"requires,omitempty"`
	Once        bool     `yaml:"once,omitempty"`
	Steps       []Step   `yaml:"steps"`
}

// Step is a single unit of work. Which fields apply depends on Kind.
type Step struct {
	Kind     Kind   `yaml:"kind"`
	Title    string `yaml:"title,omitempty"`
	Required bool   `yaml:"required,omitempty"`

	Collection string                 `yaml:"collection,omitempty"`
	Field      string                 `yaml:"field,omitempty"`
	Type       string                 `yaml:"type,omitempty"`
	Meta       map[string]interface{} `yaml:"meta,omitempty"`
	Schema     map[string]interface{} `yaml:"schema,omitempty"`

	// create_collection, retype_field
	Fields   []directus.Field `yaml:"fields,omitempty"`
	Recreate bool             `yaml:"recreate,omitempty"`

	// create_field, update_collection, rename_field, retype_field
	PatchExisting bool          `yaml:"patch_existing,omitempty"`
	RenameTo      string        `yaml:"rename_to,omitempty"`
	FromTypes     []string      `yaml:"from_types,omitempty"`
	Relation      *RelationSpec `yaml:"relation,omitempty"`

	// create_relation, update_relation
	RelatedCollection string `yaml:"related_collection,omitempty"`

	// create_role, create_dashboard, note
	Name        string           `yaml:"name,omitempty"`
	Icon        string           `yaml:"icon,omitempty"`
	Color       string           `yaml:"color,omitempty"`
	Description string           `yaml:"description,omitempty"`
	Panels      []directus.Panel `yaml:"panels,omitempty"`
	Message     string           `yaml:"message,omitempty"`

	// grant_permission
	Role        string                 `yaml:"role,omitempty"`
	Collections []string               `yaml:"collections,omitempty"`
	Action      string                 `yaml:"action,omitempty"`
	AllowFields []string               `yaml:"allow_fields,omitempty"`
	Permissions map[string]interface{} `yaml:"permissions,omitempty"`
	Validation  map[string]interface{} `yaml:"validation,omitempty"`

	// create_items, update_items
	Items    []map[string]interface{} `yaml:"items,omitempty"`
	UniqueBy string                   `yaml:"unique_by,omitempty"`
	Capture  string                   `yaml:"capture,omitempty"`
	Batch    bool                     `yaml:"batch,omitempty"`
	Filter   map[string]interface{}   `yaml:"filter,omitempty"`
	Limit    int                      `yaml:"limit,omitempty"`
	Values   map[string]interface{}   `yaml:"values,omitempty"`
	Rules    []Rule                   `yaml:"rules,omitempty"`

	// copy_items, copy_fields
	From    string            `yaml:"from,omitempty"`
	To      string            `yaml:"to,omitempty"`
	Map     map[string]string `yaml:"map,omitempty"`
	Exclude []string          `yaml:"exclude,omitempty"`
}

// RelationSpec is the relation created together with a create_field step.
type RelationSpec struct {
	RelatedCollection string                 `yaml:"related_collection"`
	Meta              map[string]interface{} `yaml:"meta,omitempty"`
	Schema            map[string]interface{} `yaml:"schema,omitempty"`
}

// Rule selects a patch for the items matching When. The first matching rule
// wins.
type Rule struct {
	When   string                 `yaml:"when,omitempty"`
	Values map[string]interface{} `yaml:"values"`
}

// Target names what a step operates on, for logs and the journal.
func (s Step) Target() string {
	switch s.Kind {
	case KindCreateRole:
		return "role:" + s.Name
	case KindCreateDashboard:
		return "dashboard:" + s.Name
	case KindGrantPermission:
		return fmt.Sprintf("%s:%s:%v", s.roleLabel(), s.Action, s.TargetCollections())
	case KindCopyItems, KindCopyFields:
		return s.From + "->" + s.To
	case KindNote:
		return ""
	}
	if s.Field != "" {
		return s.Collection + "." + s.Field
	}
	return s.Collection
}

func (s Step) roleLabel() string {
	if s.Role == "" {
		return PublicRole
	}
	return s.Role
}

// TargetCollections returns Collections, or Collection when only one is named.
func (s Step) TargetCollections() []string {
	if len(s.Collections) > 0 {
		return s.Collections
	}
	if s.Collection != "" {
		return []string{s.Collection}
	}
	return nil
}

// PublicRole is the role name that grants to unauthenticated users.
const PublicRole = "public"

// Parse decodes a plan document. Unknown keys are rejected.
func Parse(data []byte) (*Plan, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var p Plan
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to parse plan: %w", err)
	}
	return &p, nil
}

// ParseString decodes a plan document held in a string.
func ParseString(text string) (*Plan, error) {
	return Parse([]byte(text))
}

// ParseFile reads and decodes a plan file. It also returns the raw text so
// callers can hash exactly what was applied.
func ParseFile(path string) (*Plan, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read plan file %s: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, data, nil
}

// SHA256 returns the hex digest of a plan document.
func SHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Marshal encodes a plan back to YAML.
func Marshal(p *Plan) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
