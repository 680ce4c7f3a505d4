package plan

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/expr-lang/expr/parser"
)

var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

var permissionActions = []string{"create", "read", "update", "delete", "share"}

// StepError reports an invalid step by position.
type StepError struct {
	Index int
	Kind  Kind
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Index+1, e.Kind, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Validate checks the document shape and the parameters each step needs.
// All problems are returned joined together.
func (p *Plan) Validate() error {
	var errs []error

	if p.Name == "" {
		errs = append(errs, errors.New("plan name is required"))
	} else if !namePattern.MatchString(p.Name) {
		errs = append(errs, fmt.Errorf("invalid plan name %q", p.Name))
	}
	for _, req := range p.Requires {
		if req == p.Name {
			errs = append(errs, fmt.Errorf("plan %q requires itself", p.Name))
		}
	}
	if len(p.Steps) == 0 {
		errs = append(errs, errors.New("plan has no steps"))
	}

	for i, step := range p.Steps {
		if err := step.validate(); err != nil {
			errs = append(errs, &StepError{Index: i, Kind: step.Kind, Err: err})
		}
	}
	return errors.Join(errs...)
}

func (s Step) validate() error {
	if s.Kind == 0 {
		return errors.New("kind is required")
	}
	if !s.Kind.IsAKind() {
		return fmt.Errorf("unknown kind %d", s.Kind)
	}

	var missing []string
	need := func(name, value string) {
		if value == "" {
			missing = append(missing, name)
		}
	}

	switch s.Kind {
	case KindCreateCollection:
		need("collection", s.Collection)
		for i, f := range s.Fields {
			if f.Field == "" {
				return fmt.Errorf("fields[%d]: field is required", i)
			}
		}
	case KindUpdateCollection:
		need("collection", s.Collection)
		if s.Meta == nil && s.RenameTo == "" {
			return errors.New("one of meta or rename_to is required")
		}
	case KindDeleteCollection:
		need("collection", s.Collection)
	case KindCreateField:
		need("collection", s.Collection)
		need("field", s.Field)
		if s.Type == "" && !s.PatchExisting {
			missing = append(missing, "type")
		}
		if s.Relation != nil && s.Relation.RelatedCollection == "" {
			missing = append(missing, "relation.related_collection")
		}
	case KindUpdateField:
		need("collection", s.Collection)
		need("field", s.Field)
		if s.Meta == nil && s.Schema == nil && s.Type == "" && s.RenameTo == "" {
			return errors.New("nothing to update")
		}
	case KindDeleteField:
		need("collection", s.Collection)
		need("field", s.Field)
	case KindRetypeField:
		need("collection", s.Collection)
		need("field", s.Field)
		need("type", s.Type)
	case KindRenameField:
		need("collection", s.Collection)
		need("field", s.Field)
		need("rename_to", s.RenameTo)
		if s.Field == s.RenameTo && s.Field != "" {
			return errors.New("rename_to must differ from field")
		}
	case KindCreateRelation, KindUpdateRelation:
		need("collection", s.Collection)
		need("field", s.Field)
		need("related_collection", s.RelatedCollection)
	case KindDeleteRelations:
		need("collection", s.Collection)
	case KindCreateRole:
		need("name", s.Name)
	case KindGrantPermission:
		need("action", s.Action)
		if len(s.TargetCollections()) == 0 {
			missing = append(missing, "collection")
		}
		if s.Action != "" && !contains(permissionActions, s.Action) {
			return fmt.Errorf("invalid action %q", s.Action)
		}
	case KindCreateItems:
		need("collection", s.Collection)
		if len(s.Items) == 0 {
			missing = append(missing, "items")
		}
		if s.Batch && s.UniqueBy != "" {
			return errors.New("batch and unique_by cannot be combined")
		}
	case KindUpdateItems:
		need("collection", s.Collection)
		if s.Values == nil && len(s.Rules) == 0 {
			return errors.New("one of values or rules is required")
		}
		if s.Values != nil && len(s.Rules) > 0 {
			return errors.New("values and rules cannot be combined")
		}
	case KindCopyItems, KindCopyFields:
		need("from", s.From)
		need("to", s.To)
	case KindCreateDashboard:
		need("name", s.Name)
	case KindNote:
		need("message", s.Message)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}
	return s.validateExpressions()
}

// validateExpressions parses every expression in the step so syntax errors
// surface before anything is applied.
func (s Step) validateExpressions() error {
	var exprs []string
	collect := func(v interface{}) {
		walk(v, func(code string) { exprs = append(exprs, code) })
	}
	for _, item := range s.Items {
		collect(item)
	}
	collect(s.Values)
	collect(s.Filter)
	for _, rule := range s.Rules {
		if rule.When != "" {
			exprs = append(exprs, rule.When)
		}
		collect(rule.Values)
	}

	for _, code := range exprs {
		if _, err := parser.Parse(code); err != nil {
			return fmt.Errorf("invalid expression %q: %w", code, err)
		}
	}
	return nil
}

// walk calls fn with the code of every expression string nested in v.
func walk(v interface{}, fn func(string)) {
	switch val := v.(type) {
	case string:
		if code, ok := expression(val); ok {
			fn(code)
		}
	case map[string]interface{}:
		for _, inner := range val {
			walk(inner, fn)
		}
	case []interface{}:
		for _, inner := range val {
			walk(inner, fn)
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
