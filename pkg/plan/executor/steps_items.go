package executor

import (
	"context"
	"fmt"

	"github.com/directus-ops/cmsctl/pkg/directus"
	"github.com/directus-ops/cmsctl/pkg/plan"
)

// capture appends an id to the named variable.
func (s *runState) capture(name string, id interface{}) {
	if name == "" {
		return
	}
	ids, _ := s.vars[name].([]interface{})
	s.vars[name] = append(ids, id)
}

// placeholder stands in for an id a dry run did not create.
func placeholder(collection string, i int) string {
	return fmt.Sprintf("<new %s #%d>", collection, i+1)
}

func (s *runState) scope(item map[string]interface{}) plan.Scope {
	return plan.Scope{Vars: s.vars, Item: item}
}

func (s *runState) createItems(ctx context.Context, step plan.Step) (outcome, error) {
	resolved := make([]directus.Item, 0, len(step.Items))
	for i, raw := range step.Items {
		item, err := s.engine.ResolveMap(raw, s.scope(nil))
		if err != nil {
			return outcome{}, fmt.Errorf("items[%d]: %w", i, err)
		}
		resolved = append(resolved, directus.Item(item))
	}
	if step.Capture != "" {
		s.vars[step.Capture] = []interface{}{}
	}

	if step.Batch {
		if s.dryRun {
			for i := range resolved {
				s.capture(step.Capture, placeholder(step.Collection, i))
			}
			return outcome{status: StatusPlanned, message: fmt.Sprintf("%d items in one request", len(resolved))}, nil
		}
		created, err := s.api.CreateItems(ctx, step.Collection, resolved)
		if err != nil {
			return outcome{}, err
		}
		for _, item := range created {
			s.capture(step.Capture, item.ID())
		}
		return applied("created %d items", len(created)), nil
	}

	var added, existing int
	for i, item := range resolved {
		if step.UniqueBy != "" {
			found, err := s.findBy(ctx, step.Collection, step.UniqueBy, item[step.UniqueBy])
			if err != nil {
				return outcome{}, err
			}
			if found != nil {
				s.capture(step.Capture, found.ID())
				existing++
				continue
			}
		}
		if s.dryRun {
			s.capture(step.Capture, placeholder(step.Collection, i))
			added++
			continue
		}
		created, err := s.api.CreateItem(ctx, step.Collection, item)
		if err != nil {
			return outcome{}, fmt.Errorf("items[%d]: %w", i, err)
		}
		s.capture(step.Capture, created.ID())
		added++
	}

	if added == 0 {
		return skipped("all %d items exist", existing), nil
	}
	message := fmt.Sprintf("%d items", added)
	if existing > 0 {
		message += fmt.Sprintf(", %d already present", existing)
	}
	return s.change(message, func() error { return nil })
}

func (s *runState) findBy(ctx context.Context, collection, field string, value interface{}) (directus.Item, error) {
	items, err := s.api.ListItems(ctx, collection, directus.Query{
		Filter: map[string]interface{}{field: map[string]interface{}{"_eq": value}},
		Limit:  1,
	})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// updateItems patches the items matching the filter. With rules, the first
// rule whose condition holds decides the patch and items matching no rule
// are left alone.
func (s *runState) updateItems(ctx context.Context, step plan.Step) (outcome, error) {
	filter, err := s.engine.ResolveMap(step.Filter, s.scope(nil))
	if err != nil {
		return outcome{}, fmt.Errorf("filter: %w", err)
	}
	limit := step.Limit
	if limit == 0 {
		limit = -1
	}
	items, err := s.api.ListItems(ctx, step.Collection, directus.Query{Filter: filter, Limit: limit})
	if err != nil {
		return outcome{}, err
	}
	if len(items) == 0 {
		return skipped("no matching items"), nil
	}

	type update struct {
		id    interface{}
		patch directus.Item
	}
	var updates []update
	for _, item := range items {
		patch, err := s.patchFor(step, item)
		if err != nil {
			return outcome{}, fmt.Errorf("item %v: %w", item.ID(), err)
		}
		if len(patch) > 0 && changes(item, patch) {
			updates = append(updates, update{id: item.ID(), patch: patch})
		}
	}
	if len(updates) == 0 {
		return skipped("%d items already up to date", len(items)), nil
	}

	return s.change(fmt.Sprintf("%d of %d items", len(updates), len(items)), func() error {
		for _, u := range updates {
			if _, err := s.api.UpdateItem(ctx, step.Collection, u.id, u.patch); err != nil {
				return fmt.Errorf("item %v: %w", u.id, err)
			}
		}
		return nil
	})
}

func (s *runState) patchFor(step plan.Step, item directus.Item) (directus.Item, error) {
	scope := s.scope(item)
	if step.Values != nil {
		patch, err := s.engine.ResolveMap(step.Values, scope)
		return directus.Item(patch), err
	}
	for i, rule := range step.Rules {
		ok, err := s.engine.Match(rule.When, scope)
		if err != nil {
			return nil, fmt.Errorf("rules[%d]: %w", i, err)
		}
		if !ok {
			continue
		}
		patch, err := s.engine.ResolveMap(rule.Values, scope)
		if err != nil {
			return nil, fmt.Errorf("rules[%d]: %w", i, err)
		}
		return directus.Item(patch), nil
	}
	return nil, nil
}

// changes reports whether applying patch would alter item.
func changes(item, patch directus.Item) bool {
	for k, v := range patch {
		if fmt.Sprint(item[k]) != fmt.Sprint(v) {
			return true
		}
	}
	return false
}

// copyItems copies every item of From into To. Mapped fields are renamed,
// excluded fields and fields To does not have are dropped. Ids travel with
// the item unless excluded. Items already present are counted as skipped.
func (s *runState) copyItems(ctx context.Context, step plan.Step) (outcome, error) {
	items, err := s.api.ListItems(ctx, step.From, directus.All())
	if err != nil {
		if missing(err) {
			return skipped("source %s not found", step.From), nil
		}
		return outcome{}, err
	}
	if len(items) == 0 {
		return skipped("%s is empty", step.From), nil
	}
	targetFields, err := s.fieldSet(ctx, step.To)
	if err != nil {
		return outcome{}, err
	}

	copies := make([]directus.Item, 0, len(items))
	for _, item := range items {
		out := directus.Item{}
		for k, v := range item {
			if containsString(step.Exclude, k) {
				continue
			}
			name := k
			if renamed, ok := step.Map[k]; ok {
				name = renamed
			}
			if !targetFields[name] {
				continue
			}
			out[name] = v
		}
		copies = append(copies, out)
	}

	if s.dryRun {
		return outcome{status: StatusPlanned, message: fmt.Sprintf("%d items", len(copies))}, nil
	}

	var copied, present int
	var firstErr error
	failed := 0
	for _, item := range copies {
		if _, err := s.api.CreateItem(ctx, step.To, item); err != nil {
			if directus.IsAlreadyExists(err) {
				present++
				continue
			}
			failed++
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		copied++
	}
	if failed > 0 {
		return outcome{}, fmt.Errorf("failed to copy %d of %d items: %w", failed, len(copies), firstErr)
	}
	if copied == 0 {
		return skipped("all %d items present", present), nil
	}
	message := fmt.Sprintf("copied %d items", copied)
	if present > 0 {
		message += fmt.Sprintf(", %d already present", present)
	}
	return applied("%s", message), nil
}
