package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/directus-ops/cmsctl/pkg/directus"
	"github.com/directus-ops/cmsctl/pkg/plan"
)

// systemFields are never copied between collections.
var systemFields = map[string]bool{
	"id":           true,
	"date_created": true,
	"date_updated": true,
	"user_created": true,
	"user_updated": true,
}

func (s *runState) collection(ctx context.Context, name string) (*directus.Collection, error) {
	return lookup(s.api.GetCollection(ctx, name))
}

func (s *runState) field(ctx context.Context, collection, field string) (*directus.Field, error) {
	return lookup(s.api.GetField(ctx, collection, field))
}

func (s *runState) createCollection(ctx context.Context, step plan.Step) (outcome, error) {
	existing, err := s.collection(ctx, step.Collection)
	if err != nil {
		return outcome{}, err
	}

	col := directus.Collection{
		Collection: step.Collection,
		Meta:       step.Meta,
		Schema:     step.Schema,
		Fields:     step.Fields,
	}

	if existing != nil && step.Recreate {
		return s.change(fmt.Sprintf("recreated with %d fields", len(step.Fields)), func() error {
			if err := s.api.DeleteCollection(ctx, step.Collection); err != nil {
				return err
			}
			_, err := s.api.CreateCollection(ctx, col)
			return err
		})
	}

	if existing == nil {
		return s.change(fmt.Sprintf("created with %d fields", len(step.Fields)), func() error {
			_, err := s.api.CreateCollection(ctx, col)
			return err
		})
	}

	var added []string
	for _, f := range step.Fields {
		current, err := s.field(ctx, step.Collection, f.Field)
		if err != nil {
			return outcome{}, err
		}
		if current != nil {
			continue
		}
		if !s.dryRun {
			if _, err := s.api.CreateField(ctx, step.Collection, f); err != nil {
				return outcome{}, fmt.Errorf("field %s: %w", f.Field, err)
			}
		}
		added = append(added, f.Field)
	}
	if len(added) == 0 {
		return skipped("already exists"), nil
	}
	return s.change("added fields "+strings.Join(added, ", "), func() error { return nil })
}

func (s *runState) updateCollection(ctx context.Context, step plan.Step) (outcome, error) {
	if step.RenameTo != "" {
		source, err := s.collection(ctx, step.Collection)
		if err != nil {
			return outcome{}, err
		}
		if source == nil {
			renamed, err := s.collection(ctx, step.RenameTo)
			if err != nil {
				return outcome{}, err
			}
			if renamed != nil {
				return skipped("already renamed to %s", step.RenameTo), nil
			}
		}
	}

	patch := map[string]interface{}{}
	var changes []string
	if step.Meta != nil {
		patch["meta"] = step.Meta
		changes = append(changes, "meta")
	}
	if step.RenameTo != "" {
		patch["collection"] = step.RenameTo
		changes = append(changes, "renamed to "+step.RenameTo)
	}
	return s.change("updated "+strings.Join(changes, ", "), func() error {
		_, err := s.api.UpdateCollection(ctx, step.Collection, patch)
		return err
	})
}

func (s *runState) deleteCollection(ctx context.Context, step plan.Step) (outcome, error) {
	existing, err := s.collection(ctx, step.Collection)
	if err != nil {
		return outcome{}, err
	}
	if existing == nil {
		return skipped("not found"), nil
	}
	return s.change("deleted", func() error {
		return s.api.DeleteCollection(ctx, step.Collection)
	})
}

func (s *runState) createField(ctx context.Context, step plan.Step) (outcome, error) {
	existing, err := s.field(ctx, step.Collection, step.Field)
	if err != nil {
		return outcome{}, err
	}

	var out outcome
	switch {
	case existing != nil && step.PatchExisting:
		out, err = s.change("patched existing field", func() error {
			_, err := s.api.UpdateField(ctx, step.Collection, step.Field, fieldPatch(step))
			return err
		})
	case existing != nil:
		out = skipped("already exists")
	default:
		out, err = s.change("created "+step.Type+" field", func() error {
			_, err := s.api.CreateField(ctx, step.Collection, directus.Field{
				Field:  step.Field,
				Type:   step.Type,
				Meta:   step.Meta,
				Schema: step.Schema,
			})
			return err
		})
	}
	if err != nil || step.Relation == nil {
		return out, err
	}

	rel := directus.Relation{
		Collection:        step.Collection,
		Field:             step.Field,
		RelatedCollection: step.Relation.RelatedCollection,
		Meta:              step.Relation.Meta,
		Schema:            step.Relation.Schema,
	}
	relOut, err := s.ensureRelation(ctx, rel)
	if err != nil {
		return outcome{}, fmt.Errorf("relation to %s: %w", rel.RelatedCollection, err)
	}
	if relOut.status == StatusSkipped {
		return out, nil
	}
	if out.status == StatusSkipped {
		return relOut, nil
	}
	out.message += " with " + relOut.message
	return out, nil
}

func fieldPatch(step plan.Step) map[string]interface{} {
	patch := map[string]interface{}{}
	if step.Type != "" {
		patch["type"] = step.Type
	}
	if step.Meta != nil {
		patch["meta"] = step.Meta
	}
	if step.Schema != nil {
		patch["schema"] = step.Schema
	}
	return patch
}

func (s *runState) updateField(ctx context.Context, step plan.Step) (outcome, error) {
	if step.RenameTo != "" {
		return s.renameField(ctx, step)
	}
	patch := fieldPatch(step)
	keys := make([]string, 0, len(patch))
	for _, k := range []string{"type", "meta", "schema"} {
		if _, ok := patch[k]; ok {
			keys = append(keys, k)
		}
	}
	return s.change("updated "+strings.Join(keys, ", "), func() error {
		_, err := s.api.UpdateField(ctx, step.Collection, step.Field, patch)
		return err
	})
}

func (s *runState) deleteField(ctx context.Context, step plan.Step) (outcome, error) {
	existing, err := s.field(ctx, step.Collection, step.Field)
	if err != nil {
		return outcome{}, err
	}
	if existing == nil {
		return skipped("not found"), nil
	}
	return s.change("deleted", func() error {
		return s.api.DeleteField(ctx, step.Collection, step.Field)
	})
}

func (s *runState) retypeField(ctx context.Context, step plan.Step) (outcome, error) {
	current, err := s.field(ctx, step.Collection, step.Field)
	if err != nil {
		return outcome{}, err
	}
	if current == nil {
		return outcome{}, fmt.Errorf("field %s.%s: %w", step.Collection, step.Field, errNotFound)
	}
	if current.Type == step.Type {
		return skipped("already %s", step.Type), nil
	}
	if len(step.FromTypes) > 0 && !containsString(step.FromTypes, current.Type) {
		return skipped("type %s is not one of %s", current.Type, strings.Join(step.FromTypes, ", ")), nil
	}

	message := fmt.Sprintf("%s -> %s", current.Type, step.Type)
	if !step.Recreate {
		return s.change(message, func() error {
			_, err := s.api.UpdateField(ctx, step.Collection, step.Field, fieldPatch(step))
			return err
		})
	}

	meta := step.Meta
	if meta == nil {
		meta = cleanMeta(current.Meta)
	}
	return s.change(message+" (recreated)", func() error {
		if err := s.api.DeleteField(ctx, step.Collection, step.Field); err != nil {
			return err
		}
		_, err := s.api.CreateField(ctx, step.Collection, directus.Field{
			Field:  step.Field,
			Type:   step.Type,
			Meta:   meta,
			Schema: step.Schema,
		})
		return err
	})
}

// renameField creates the new field from the old definition, copies every
// value across and then drops the old field.
func (s *runState) renameField(ctx context.Context, step plan.Step) (outcome, error) {
	source, err := s.field(ctx, step.Collection, step.Field)
	if err != nil {
		return outcome{}, err
	}
	target, err := s.field(ctx, step.Collection, step.RenameTo)
	if err != nil {
		return outcome{}, err
	}
	if source == nil {
		if target != nil {
			return skipped("already renamed to %s", step.RenameTo), nil
		}
		return outcome{}, fmt.Errorf("field %s.%s: %w", step.Collection, step.Field, errNotFound)
	}
	if source.IsAlias() {
		return outcome{}, fmt.Errorf("field %s.%s is an alias and holds no values", step.Collection, step.Field)
	}

	items, err := s.api.ListItems(ctx, step.Collection, directus.Query{Fields: []string{"id", step.Field}, Limit: -1})
	if err != nil {
		return outcome{}, err
	}
	var values []directus.Item
	for _, item := range items {
		if item[step.Field] != nil {
			values = append(values, item)
		}
	}

	message := fmt.Sprintf("renamed to %s, %d values copied", step.RenameTo, len(values))
	return s.change(message, func() error {
		if target == nil {
			meta := cleanMeta(source.Meta)
			for k, v := range step.Meta {
				meta[k] = v
			}
			_, err := s.api.CreateField(ctx, step.Collection, directus.Field{
				Field:  step.RenameTo,
				Type:   source.Type,
				Meta:   meta,
				Schema: cleanSchema(source.Schema),
			})
			if err != nil {
				return err
			}
		}
		for _, item := range values {
			patch := directus.Item{step.RenameTo: item[step.Field]}
			if _, err := s.api.UpdateItem(ctx, step.Collection, item.ID(), patch); err != nil {
				return fmt.Errorf("item %v: %w", item.ID(), err)
			}
		}
		return s.api.DeleteField(ctx, step.Collection, step.Field)
	})
}

func (s *runState) findRelation(ctx context.Context, collection, field string) (*directus.Relation, error) {
	relations, err := s.api.ListRelations(ctx)
	if err != nil {
		return nil, err
	}
	for i := range relations {
		if relations[i].Collection == collection && relations[i].Field == field {
			return &relations[i], nil
		}
	}
	return nil, nil
}

func (s *runState) ensureRelation(ctx context.Context, rel directus.Relation) (outcome, error) {
	existing, err := s.findRelation(ctx, rel.Collection, rel.Field)
	if err != nil {
		return outcome{}, err
	}
	if existing != nil {
		return skipped("relation already exists"), nil
	}
	out, err := s.change("relation to "+rel.RelatedCollection, func() error {
		_, err := s.api.CreateRelation(ctx, rel)
		return err
	})
	if err != nil && directus.IsAlreadyExists(err) {
		return skipped("relation already exists"), nil
	}
	return out, err
}

func (s *runState) createRelation(ctx context.Context, step plan.Step) (outcome, error) {
	return s.ensureRelation(ctx, directus.Relation{
		Collection:        step.Collection,
		Field:             step.Field,
		RelatedCollection: step.RelatedCollection,
		Meta:              step.Meta,
		Schema:            step.Schema,
	})
}

func (s *runState) updateRelation(ctx context.Context, step plan.Step) (outcome, error) {
	patch := map[string]interface{}{"related_collection": step.RelatedCollection}
	if step.Meta != nil {
		patch["meta"] = step.Meta
	}
	if step.Schema != nil {
		patch["schema"] = step.Schema
	}
	return s.change("relation now points at "+step.RelatedCollection, func() error {
		_, err := s.api.UpdateRelation(ctx, step.Collection, step.Field, patch)
		return err
	})
}

func (s *runState) deleteRelations(ctx context.Context, step plan.Step) (outcome, error) {
	relations, err := s.api.ListRelations(ctx)
	if err != nil {
		return outcome{}, err
	}
	var matched []directus.Relation
	for _, rel := range relations {
		if rel.Touches(step.Collection) {
			matched = append(matched, rel)
		}
	}
	if len(matched) == 0 {
		return skipped("no relations"), nil
	}

	names := make([]string, len(matched))
	for i, rel := range matched {
		names[i] = rel.Collection + "." + rel.Field
	}
	return s.change("deleted "+strings.Join(names, ", "), func() error {
		for _, rel := range matched {
			if err := s.api.DeleteRelation(ctx, rel.Collection, rel.Field); err != nil && !missing(err) {
				return fmt.Errorf("%s.%s: %w", rel.Collection, rel.Field, err)
			}
		}
		return nil
	})
}

// copyFields registers the fields of one collection on another.
func (s *runState) copyFields(ctx context.Context, step plan.Step) (outcome, error) {
	source, err := s.api.ListFields(ctx, step.From)
	if err != nil {
		if missing(err) {
			return skipped("source %s not found", step.From), nil
		}
		return outcome{}, err
	}
	present, err := s.fieldSet(ctx, step.To)
	if err != nil {
		return outcome{}, err
	}

	var create []directus.Field
	for _, f := range source {
		if systemFields[f.Field] || f.IsAlias() || containsString(step.Exclude, f.Field) {
			continue
		}
		name := f.Field
		if renamed, ok := step.Map[f.Field]; ok {
			name = renamed
		}
		if present[name] {
			continue
		}
		create = append(create, directus.Field{
			Field:  name,
			Type:   f.Type,
			Meta:   cleanMeta(f.Meta),
			Schema: cleanSchema(f.Schema),
		})
	}
	if len(create) == 0 {
		return skipped("all fields present"), nil
	}

	names := make([]string, len(create))
	for i, f := range create {
		names[i] = f.Field
	}
	return s.change("added "+strings.Join(names, ", "), func() error {
		for _, f := range create {
			if _, err := s.api.CreateField(ctx, step.To, f); err != nil && !directus.IsAlreadyExists(err) {
				return fmt.Errorf("field %s: %w", f.Field, err)
			}
		}
		return nil
	})
}

func (s *runState) fieldSet(ctx context.Context, collection string) (map[string]bool, error) {
	fields, err := s.api.ListFields(ctx, collection)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f.Field] = true
	}
	return set, nil
}

// cleanMeta drops the keys Directus derives from the field location.
func cleanMeta(meta map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{}
	for k, v := range meta {
		switch k {
		case "id", "collection", "field", "sort", "group":
			continue
		}
		out[k] = v
	}
	return out
}

// cleanSchema keeps only the column properties that can be set on create.
func cleanSchema(schema map[string]interface{}) map[string]interface{} {
	if schema == nil {
		return nil
	}
	out := map[string]interface{}{}
	for _, k := range []string{"default_value", "max_length", "numeric_precision", "numeric_scale", "is_nullable", "is_unique", "is_indexed"} {
		if v, ok := schema[k]; ok {
			out[k] = v
		}
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
