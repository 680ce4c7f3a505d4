package executor_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/directus-ops/cmsctl/pkg/directus"
	"github.com/directus-ops/cmsctl/pkg/plan"
	"github.com/directus-ops/cmsctl/pkg/plan/executor"
)

func TestRetypeField(t *testing.T) {
	f := setup(t)
	f.cms.SeedCollection("projects",
		directus.Field{Field: "customer_id", Type: "uuid", Meta: map[string]interface{}{"interface": "input"}},
		directus.Field{Field: "budget", Type: "decimal"},
		directus.Field{Field: "owner", Type: "json"},
	)

	result := apply(t, f.executor(), `
name: retype
steps:
  - {kind: retype_field, collection: projects, field: customer_id, type: integer, from_types: [string, uuid], recreate: true}
  - {kind: retype_field, collection: projects, field: budget, type: decimal}
  - {kind: retype_field, collection: projects, field: owner, type: integer, from_types: [string, uuid]}
  - {kind: retype_field, collection: projects, field: missing, type: integer}
`)

	assert.Equal(t, []string{"applied", "skipped", "skipped", "failed"}, statuses(result))
	assert.Equal(t, "uuid -> integer (recreated)", result.Steps[0].Message)
	field, ok := f.cms.Field("projects", "customer_id")
	require.True(t, ok)
	assert.Equal(t, "integer", field.Type)
	assert.Equal(t, "input", field.Meta["interface"])
	assert.Contains(t, result.Steps[2].Message, "type json is not one of string, uuid")
}

func TestRetypeFieldPatch(t *testing.T) {
	f := setup(t)
	f.cms.SeedCollection("tasks", directus.Field{Field: "estimate", Type: "string"})

	result := apply(t, f.executor(), `
name: retype
steps:
  - {kind: retype_field, collection: tasks, field: estimate, type: integer}
`)
	assert.Equal(t, []string{"applied"}, statuses(result))
	field, _ := f.cms.Field("tasks", "estimate")
	assert.Equal(t, "integer", field.Type)
	assert.Equal(t, 1, f.cms.CountRequests("PATCH", "/fields/tasks/estimate"))
}

func TestRenameField(t *testing.T) {
	f := setup(t)
	f.cms.SeedCollection("time_logs", directus.Field{Field: "developer_id", Type: "integer", Meta: map[string]interface{}{"interface": "select-dropdown-m2o", "sort": 3}})
	f.cms.SeedItems("time_logs",
		directus.Item{"developer_id": float64(1)},
		directus.Item{"developer_id": float64(2)},
		directus.Item{"developer_id": nil},
	)

	text := `
name: rename
steps:
  - {kind: rename_field, collection: time_logs, field: developer_id, rename_to: employee_id, meta: {note: Employee}}
`
	result := apply(t, f.executor(), text)
	assert.Equal(t, []string{"applied"}, statuses(result))
	assert.Equal(t, "renamed to employee_id, 2 values copied", result.Steps[0].Message)

	assert.Equal(t, []string{"id", "employee_id"}, f.cms.FieldNames("time_logs"))
	field, _ := f.cms.Field("time_logs", "employee_id")
	assert.Equal(t, "integer", field.Type)
	assert.Equal(t, "Employee", field.Meta["note"])
	assert.Nil(t, field.Meta["sort"])

	items := f.cms.Items("time_logs")
	assert.Equal(t, float64(1), items[0]["employee_id"])
	assert.Equal(t, float64(2), items[1]["employee_id"])
	assert.NotContains(t, items[0], "developer_id")

	again := apply(t, f.executor(), text)
	assert.Equal(t, "already renamed to employee_id", again.Steps[0].Message)
}

func TestCollectionLifecycle(t *testing.T) {
	f := setup(t)
	f.cms.SeedCollection("job_roles", directus.Field{Field: "name", Type: "string"})

	result := apply(t, f.executor(), `
name: lifecycle
steps:
  - {kind: update_collection, collection: job_roles, meta: {icon: badge}}
  - {kind: update_field, collection: job_roles, field: name, meta: {label: Job Role}}
  - {kind: delete_field, collection: job_roles, field: nope}
  - {kind: create_collection, collection: job_roles, recreate: true, fields: [{field: title, type: string}]}
  - {kind: delete_collection, collection: legacy}
`)
	assert.Equal(t, []string{"applied", "applied", "skipped", "applied", "skipped"}, statuses(result))
	assert.Equal(t, []string{"id", "title"}, f.cms.FieldNames("job_roles"))
}

func TestCreateFieldPatchExisting(t *testing.T) {
	f := setup(t)
	f.cms.SeedCollection("projects", directus.Field{Field: "priority", Type: "string", Meta: map[string]interface{}{"interface": "input"}})

	result := apply(t, f.executor(), `
name: patch
steps:
  - kind: create_field
    collection: projects
    field: priority
    type: string
    patch_existing: true
    meta: {interface: select-dropdown}
`)
	assert.Equal(t, []string{"applied"}, statuses(result))
	field, _ := f.cms.Field("projects", "priority")
	assert.Equal(t, "select-dropdown", field.Meta["interface"])
}

func TestRelations(t *testing.T) {
	f := setup(t)
	f.cms.SeedCollection("developers")
	f.cms.SeedCollection("employees")
	f.cms.SeedCollection("time_logs", directus.Field{Field: "developer_id", Type: "integer"}, directus.Field{Field: "project_id", Type: "integer"})
	f.cms.SeedCollection("projects")
	f.cms.SeedRelation(directus.Relation{Collection: "time_logs", Field: "developer_id", RelatedCollection: "developers"})

	result := apply(t, f.executor(), `
name: relink
steps:
  - {kind: create_relation, collection: time_logs, field: developer_id, related_collection: developers}
  - {kind: update_relation, collection: time_logs, field: developer_id, related_collection: employees}
  - {kind: create_relation, collection: time_logs, field: project_id, related_collection: projects}
  - {kind: delete_relations, collection: employees}
  - {kind: delete_relations, collection: employees}
`)
	assert.Equal(t, []string{"skipped", "applied", "applied", "applied", "skipped"}, statuses(result))
	assert.Equal(t, "relation already exists", result.Steps[0].Message)
	assert.Equal(t, "deleted time_logs.developer_id", result.Steps[3].Message)

	rels := f.cms.Relations()
	require.Len(t, rels, 1)
	assert.Equal(t, "project_id", rels[0].Field)
}

func TestRolesAndPermissions(t *testing.T) {
	f := setup(t)
	f.cms.SeedCollection("projects")
	f.cms.SeedCollection("customers")
	f.cms.SeedRole("Administrator")

	text := `
name: access
steps:
  - {kind: create_role, name: Administrator}
  - {kind: create_role, name: Project Manager, icon: supervisor_account, capture: pm}
  - {kind: grant_permission, role: public, collections: [projects, customers], action: read}
  - {kind: grant_permission, role: Project Manager, collection: projects, action: update, allow_fields: [status]}
  - {kind: grant_permission, role: Ghost, collection: projects, action: read}
`
	result := apply(t, f.executor(), text)
	assert.Equal(t, []string{"skipped", "applied", "applied", "applied", "failed"}, statuses(result))
	assert.Equal(t, "created projects, customers", result.Steps[2].Message)

	perms := f.cms.Permissions()
	require.Len(t, perms, 3)
	assert.True(t, perms[0].IsPublic())
	assert.Equal(t, []string{"*"}, perms[0].Fields)
	require.NotNil(t, perms[2].Role)
	assert.Equal(t, []string{"status"}, perms[2].Fields)

	again := apply(t, f.executor(), text)
	assert.Equal(t, repeat("skipped", 4), statuses(again)[:4])
	assert.Len(t, f.cms.Permissions(), 3)
}

func repeat(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}

func TestGrantPermissionUpdatesFields(t *testing.T) {
	f := setup(t)
	f.cms.SeedCollection("projects")

	apply(t, f.executor(), `
name: a
steps:
  - {kind: grant_permission, collection: projects, action: read, allow_fields: [id]}
`)
	result := apply(t, f.executor(), `
name: b
steps:
  - {kind: grant_permission, collection: projects, action: read}
`)
	assert.Equal(t, "updated projects", result.Steps[0].Message)
	perms := f.cms.Permissions()
	require.Len(t, perms, 1)
	assert.Equal(t, []string{"*"}, perms[0].Fields)
}

func TestCreateItemsCaptureAndRules(t *testing.T) {
	f := setup(t)
	f.cms.SeedCollection("job_roles", directus.Field{Field: "name", Type: "string"})
	f.cms.SeedCollection("employees", directus.Field{Field: "employee_name"}, directus.Field{Field: "job_role"}, directus.Field{Field: "hired"})
	f.cms.SeedItems("job_roles", directus.Item{"name": "Developer"})
	f.cms.SeedItems("employees",
		directus.Item{"employee_name": "Dana Designer"},
		directus.Item{"employee_name": "Eve Engineer"},
	)

	clock := func() time.Time { return time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC) }
	e := f.executor().WithEngine(plan.NewEngine().WithClock(clock))

	result := apply(t, e, `
name: assign
steps:
  - kind: create_items
    collection: job_roles
    unique_by: name
    capture: roles
    items:
      - {name: Developer}
      - {name: Designer}
  - kind: update_items
    collection: employees
    rules:
      - when: lower(item.employee_name) contains "design"
        values: {job_role: "=vars.roles[1]"}
      - values: {job_role: "=vars.roles[0]", hired: "=daysAgo(30)"}
`)
	assert.Equal(t, []string{"applied", "applied"}, statuses(result))
	assert.Equal(t, "1 items, 1 already present", result.Steps[0].Message)

	roles := f.cms.Items("job_roles")
	require.Len(t, roles, 2)
	employees := f.cms.Items("employees")
	assert.Equal(t, roles[1]["id"], employees[0]["job_role"])
	assert.Equal(t, roles[0]["id"], employees[1]["job_role"])
	assert.Equal(t, "2024-04-10", employees[1]["hired"])
	assert.Nil(t, employees[0]["hired"])
}

func TestCreateItemsBatch(t *testing.T) {
	f := setup(t)
	f.cms.SeedCollection("services", directus.Field{Field: "service_name"})

	result := apply(t, f.executor(), `
name: seed
steps:
  - kind: create_items
    collection: services
    batch: true
    capture: services
    items:
      - {service_name: Hosting}
      - {service_name: "==literal"}
`)
	assert.Equal(t, "created 2 items", result.Steps[0].Message)
	assert.Equal(t, 1, f.cms.CountRequests("POST", "/items/services"))
	assert.Equal(t, "=literal", f.cms.Items("services")[1]["service_name"])
}

func TestCreateItemsDryRunPlaceholders(t *testing.T) {
	f := setup(t)
	f.cms.SeedCollection("customers", directus.Field{Field: "name"})
	f.cms.SeedCollection("projects", directus.Field{Field: "customer_id"})

	p := mustParsePlan(t, `
name: seed
steps:
  - {kind: create_items, collection: customers, capture: customers, items: [{name: Acme}]}
  - {kind: create_items, collection: projects, items: [{customer_id: "=vars.customers[0]"}]}
`)
	result, err := f.executor().WithDryRun(true).Apply(context.Background(), p, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"planned", "planned"}, statuses(result))
	assert.Empty(t, f.cms.Items("customers"))
}

func TestUpdateItemsFilterAndUnchanged(t *testing.T) {
	f := setup(t)
	f.cms.SeedCollection("tasks", directus.Field{Field: "status"}, directus.Field{Field: "icon"})
	f.cms.SeedItems("tasks",
		directus.Item{"status": "open", "icon": "task"},
		directus.Item{"status": "done", "icon": "task"},
	)

	text := `
name: close
steps:
  - {kind: update_items, collection: tasks, filter: {status: {_eq: open}}, values: {icon: pending}}
`
	result := apply(t, f.executor(), text)
	assert.Equal(t, "1 of 1 items", result.Steps[0].Message)
	assert.Equal(t, "task", f.cms.Items("tasks")[1]["icon"])

	again := apply(t, f.executor(), text)
	assert.Equal(t, "1 items already up to date", again.Steps[0].Message)
}

func TestCopyFieldsAndItems(t *testing.T) {
	f := setup(t)
	f.cms.SeedCollection("developers",
		directus.Field{Field: "developer_name", Type: "string", Meta: map[string]interface{}{"id": float64(7), "collection": "developers", "interface": "input"}},
		directus.Field{Field: "email", Type: "string"},
		directus.Field{Field: "date_created", Type: "timestamp"},
		directus.Field{Field: "time_logs", Type: "alias", Meta: map[string]interface{}{"special": []interface{}{"o2m"}}},
	)
	f.cms.SeedCollection("employees")
	f.cms.SeedItems("developers",
		directus.Item{"id": float64(3), "developer_name": "Ada", "email": "ada@example.com", "date_created": "2024-01-01"},
		directus.Item{"id": float64(5), "developer_name": "Linus", "email": "linus@example.com"},
	)

	text := `
name: move
steps:
  - {kind: copy_fields, from: developers, to: employees, map: {developer_name: employee_name}}
  - {kind: copy_items, from: developers, to: employees, map: {developer_name: employee_name}, exclude: [date_created]}
`
	result := apply(t, f.executor(), text)
	assert.Equal(t, []string{"applied", "applied"}, statuses(result))
	assert.Equal(t, "added employee_name, email", result.Steps[0].Message)
	assert.Equal(t, []string{"id", "employee_name", "email"}, f.cms.FieldNames("employees"))

	field, _ := f.cms.Field("employees", "employee_name")
	assert.Equal(t, "input", field.Meta["interface"])
	assert.NotContains(t, field.Meta, "collection")

	employees := f.cms.Items("employees")
	require.Len(t, employees, 2)
	assert.Equal(t, float64(3), employees[0]["id"])
	assert.Equal(t, "Ada", employees[0]["employee_name"])
	assert.NotContains(t, employees[0], "date_created")

	again := apply(t, f.executor(), text)
	assert.Equal(t, []string{"skipped", "skipped"}, statuses(again))
	assert.Equal(t, "all 2 items present", again.Steps[1].Message)
}

func TestCopyItemsMissingSource(t *testing.T) {
	f := setup(t)
	f.cms.SeedCollection("employees")

	result := apply(t, f.executor(), `
name: move
steps:
  - {kind: copy_items, from: developers, to: employees}
`)
	assert.Equal(t, "source developers not found", result.Steps[0].Message)
}

func TestCreateDashboard(t *testing.T) {
	f := setup(t)

	text := `
name: metrics
steps:
  - kind: create_dashboard
    name: Project Metrics
    icon: analytics
    panels:
      - {name: Total Projects, type: metric, position_x: 1, position_y: 1, width: 12, height: 6, options: {collection: projects, function: count}}
      - {name: Hours, type: time-series, position_x: 13, position_y: 1, width: 24, height: 12}
`
	result := apply(t, f.executor(), text)
	assert.Equal(t, "created with 2 panels", result.Steps[0].Message)

	dashboards := f.cms.Dashboards()
	require.Len(t, dashboards, 1)
	panels := f.cms.Panels()
	require.Len(t, panels, 2)
	assert.Equal(t, dashboards[0].ID, panels[1].Dashboard)

	again := apply(t, f.executor(), text)
	assert.Equal(t, []string{"skipped"}, statuses(again))
}

func TestCreateDashboardAddsMissingPanels(t *testing.T) {
	f := setup(t)

	text := `
name: metrics
steps:
  - kind: create_dashboard
    name: Project Metrics
    panels:
      - {name: Total Projects, type: metric, width: 12, height: 6}
      - {name: Hours, type: time-series, width: 24, height: 12}
      - {type: label, position_x: 1, position_y: 20}
`
	f.cms.Fail("POST", "/panels", 503, "SERVICE_UNAVAILABLE", "Service unavailable.")
	result := apply(t, f.executor(), text)
	assert.Equal(t, []string{"failed"}, statuses(result))
	require.Len(t, f.cms.Dashboards(), 1)
	assert.Empty(t, f.cms.Panels())

	result = apply(t, f.executor(), text)
	assert.Equal(t, []string{"applied"}, statuses(result))
	assert.Equal(t, "added 3 missing panels", result.Steps[0].Message)
	require.Len(t, f.cms.Panels(), 3)

	again := apply(t, f.executor(), text)
	assert.Equal(t, []string{"skipped"}, statuses(again))
	assert.Len(t, f.cms.Dashboards(), 1)
	assert.Len(t, f.cms.Panels(), 3)
}

func TestBuiltinPlans(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first := f.executor()
	for _, name := range plan.BuiltinNames() {
		bundled, err := plan.Builtin(name)
		require.NoError(t, err)
		result, err := first.Apply(ctx, bundled.Plan, bundled.Text)
		require.NoError(t, err, name)
		assert.Equal(t, 0, result.Failed, "%s: %+v", name, result.Steps)
	}
	assert.True(t, f.cms.HasCollection("employees"))
	assert.True(t, f.cms.HasCollection("projects_employees"))
	assert.True(t, f.cms.HasCollection("support_tickets_tasks"))
	assert.False(t, f.cms.HasCollection("developers"))
	assert.False(t, f.cms.HasCollection("projects_developers"))
	assert.Len(t, f.cms.Dashboards(), 1)
	items := len(f.cms.Items("time_logs"))
	assert.NotZero(t, items)

	creates := map[plan.Kind]bool{
		plan.KindCreateCollection: true,
		plan.KindCreateField:      true,
		plan.KindCreateRelation:   true,
		plan.KindCreateRole:       true,
		plan.KindCreateDashboard:  true,
	}
	second := f.executor()
	for _, name := range plan.BuiltinNames() {
		bundled, err := plan.Builtin(name)
		require.NoError(t, err)
		result, err := second.Apply(ctx, bundled.Plan, bundled.Text)
		if bundled.Plan.Once {
			require.ErrorIs(t, err, executor.ErrAlreadyApplied, name)
			continue
		}
		require.NoError(t, err, name)
		assert.Equal(t, 0, result.Failed, "%s: %+v", name, result.Steps)
		for _, step := range result.Steps {
			if creates[step.Kind] {
				assert.Equal(t, executor.StatusSkipped, step.Status, "%s step %d: %s", name, step.Index+1, step.Message)
			}
		}
	}
	assert.False(t, f.cms.HasCollection("developers"))
	assert.Len(t, f.cms.Items("time_logs"), items)
	assert.Len(t, f.cms.Dashboards(), 1)
}

func TestBuiltinSchemaSetup(t *testing.T) {
	f := setup(t)
	bundled, err := plan.Builtin("schema-setup")
	require.NoError(t, err)

	result, err := f.executor().Apply(context.Background(), bundled.Plan, bundled.Text)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Failed, "%+v", result.Steps)
	assert.True(t, f.cms.HasCollection("projects_developers"))

	_, err = f.executor().Apply(context.Background(), bundled.Plan, bundled.Text)
	require.ErrorIs(t, err, executor.ErrAlreadyApplied)

	again, err := f.executor().WithForce(true).Apply(context.Background(), bundled.Plan, bundled.Text)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Applied, "%+v", again.Steps)
}
