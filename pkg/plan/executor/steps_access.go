package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/directus-ops/cmsctl/pkg/directus"
	"github.com/directus-ops/cmsctl/pkg/plan"
)

func (s *runState) findRole(ctx context.Context, name string) (*directus.Role, error) {
	roles, err := s.api.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	for i := range roles {
		if roles[i].Name == name {
			return &roles[i], nil
		}
	}
	return nil, nil
}

func (s *runState) createRole(ctx context.Context, step plan.Step) (outcome, error) {
	existing, err := s.findRole(ctx, step.Name)
	if err != nil {
		return outcome{}, err
	}
	if existing != nil {
		s.capture(step.Capture, existing.ID)
		return skipped("already exists"), nil
	}

	var created *directus.Role
	out, err := s.change("created", func() error {
		var err error
		created, err = s.api.CreateRole(ctx, directus.Role{Name: step.Name, Icon: step.Icon, Description: step.Description})
		return err
	})
	if err != nil {
		if directus.IsAlreadyExists(err) {
			return skipped("already exists"), nil
		}
		return outcome{}, err
	}
	if created != nil {
		s.capture(step.Capture, created.ID)
	} else {
		s.capture(step.Capture, placeholder(step.Name, 0))
	}
	return out, nil
}

// grantee resolves the role a permission is granted to. Nil means the
// public role: either a role literally named public or the null role.
func (s *runState) grantee(ctx context.Context, name string) (*string, error) {
	roles, err := s.api.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	wantPublic := name == "" || strings.EqualFold(name, plan.PublicRole)
	for _, r := range roles {
		if r.Name == name || (wantPublic && strings.EqualFold(r.Name, plan.PublicRole)) {
			id := r.ID
			return &id, nil
		}
	}
	if wantPublic {
		return nil, nil
	}
	if s.dryRun {
		id := placeholder(name, 0)
		return &id, nil
	}
	return nil, fmt.Errorf("role %q: %w", name, errNotFound)
}

// grantPermission upserts one permission per collection.
func (s *runState) grantPermission(ctx context.Context, step plan.Step) (outcome, error) {
	role, err := s.grantee(ctx, step.Role)
	if err != nil {
		return outcome{}, err
	}
	fields := step.AllowFields
	if len(fields) == 0 {
		fields = []string{"*"}
	}

	var created, updated, current []string
	for _, collection := range step.TargetCollections() {
		filter := directus.PermissionFilter{Collection: collection, Action: step.Action}
		if role == nil {
			filter.Public = true
		} else {
			filter.RoleID = *role
		}
		var existing []directus.Permission
		if !s.dryRun || role == nil || !strings.HasPrefix(*role, "<") {
			existing, err = s.api.ListPermissions(ctx, filter)
			if err != nil {
				return outcome{}, fmt.Errorf("%s: %w", collection, err)
			}
		}

		if len(existing) > 0 && granted(existing[0], fields, step) {
			current = append(current, collection)
			continue
		}
		if len(existing) > 0 {
			patch := map[string]interface{}{"fields": fields}
			if step.Permissions != nil {
				patch["permissions"] = step.Permissions
			}
			if step.Validation != nil {
				patch["validation"] = step.Validation
			}
			if !s.dryRun {
				if _, err := s.api.UpdatePermission(ctx, existing[0].ID, patch); err != nil {
					return outcome{}, fmt.Errorf("%s: %w", collection, err)
				}
			}
			updated = append(updated, collection)
			continue
		}

		if !s.dryRun {
			_, err := s.api.CreatePermission(ctx, directus.Permission{
				Role:        role,
				Collection:  collection,
				Action:      step.Action,
				Fields:      fields,
				Permissions: step.Permissions,
				Validation:  step.Validation,
			})
			if err != nil {
				return outcome{}, fmt.Errorf("%s: %w", collection, err)
			}
		}
		created = append(created, collection)
	}

	if len(created) == 0 && len(updated) == 0 {
		return skipped("already granted on %s", strings.Join(current, ", ")), nil
	}

	var parts []string
	if len(created) > 0 {
		parts = append(parts, "created "+strings.Join(created, ", "))
	}
	if len(updated) > 0 {
		parts = append(parts, "updated "+strings.Join(updated, ", "))
	}
	return s.change(strings.Join(parts, "; "), func() error { return nil })
}

// granted reports whether p already carries what the step asks for.
func granted(p directus.Permission, fields []string, step plan.Step) bool {
	if strings.Join(p.Fields, ",") != strings.Join(fields, ",") {
		return false
	}
	if step.Permissions != nil && fmt.Sprint(p.Permissions) != fmt.Sprint(step.Permissions) {
		return false
	}
	if step.Validation != nil && fmt.Sprint(p.Validation) != fmt.Sprint(step.Validation) {
		return false
	}
	return true
}

func (s *runState) createDashboard(ctx context.Context, step plan.Step) (outcome, error) {
	dashboards, err := s.api.ListDashboards(ctx)
	if err != nil {
		return outcome{}, err
	}
	for _, d := range dashboards {
		if d.Name == step.Name {
			return s.completeDashboard(ctx, d, step)
		}
	}

	return s.change(fmt.Sprintf("created with %d panels", len(step.Panels)), func() error {
		d, err := s.api.CreateDashboard(ctx, directus.Dashboard{
			Name:  step.Name,
			Icon:  step.Icon,
			Color: step.Color,
			Note:  step.Description,
		})
		if err != nil {
			return err
		}
		return s.createPanels(ctx, d.ID, step.Panels)
	})
}

// completeDashboard adds the panels an earlier, interrupted run did not get
// to. Panels are matched by name, or by type and position when unnamed.
func (s *runState) completeDashboard(ctx context.Context, d directus.Dashboard, step plan.Step) (outcome, error) {
	existing, err := s.api.ListPanels(ctx, d.ID)
	if err != nil {
		return outcome{}, err
	}
	have := make(map[string]bool, len(existing))
	for _, p := range existing {
		have[panelKey(p)] = true
	}
	var missing []directus.Panel
	for _, p := range step.Panels {
		if !have[panelKey(p)] {
			missing = append(missing, p)
		}
	}
	if len(missing) == 0 {
		return skipped("already exists"), nil
	}
	return s.change(fmt.Sprintf("added %d missing panels", len(missing)), func() error {
		return s.createPanels(ctx, d.ID, missing)
	})
}

func (s *runState) createPanels(ctx context.Context, dashboard string, panels []directus.Panel) error {
	for i, p := range panels {
		p.Dashboard = dashboard
		if _, err := s.api.CreatePanel(ctx, p); err != nil {
			return fmt.Errorf("panel %d (%s): %w", i+1, p.Name, err)
		}
	}
	return nil
}

func panelKey(p directus.Panel) string {
	if p.Name != "" {
		return "name:" + p.Name
	}
	return fmt.Sprintf("%s@%d,%d", p.Type, p.PositionX, p.PositionY)
}
