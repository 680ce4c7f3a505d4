package executor_test

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/directus-ops/cmsctl/internal/cmstest"
	"github.com/directus-ops/cmsctl/pkg/audit"
	"github.com/directus-ops/cmsctl/pkg/directus"
	"github.com/directus-ops/cmsctl/pkg/journal"
	"github.com/directus-ops/cmsctl/pkg/plan"
	"github.com/directus-ops/cmsctl/pkg/plan/executor"
)

// memStore is an in-memory journal.
type memStore struct {
	mu    sync.Mutex
	runs  []journal.Run
	steps []journal.Step
}

var _ journal.Store = (*memStore)(nil)

func (m *memStore) BeginRun(_ context.Context, run *journal.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run.ID = "run-" + string(rune('a'+len(m.runs)))
	run.Status = journal.StatusRunning
	run.StartedAt = time.Now()
	m.runs = append(m.runs, *run)
	return nil
}

func (m *memStore) RecordStep(_ context.Context, step *journal.Step) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, *step)
	return nil
}

func (m *memStore) FinishRun(_ context.Context, run *journal.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.runs {
		if m.runs[i].ID == run.ID {
			m.runs[i] = *run
		}
	}
	return nil
}

func (m *memStore) LastSucceeded(_ context.Context, name, target string) (*journal.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.runs) - 1; i >= 0; i-- {
		r := m.runs[i]
		if r.Plan == name && r.Target == target && r.Status == journal.StatusSucceeded {
			return &r, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListRuns(context.Context, int) ([]journal.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]journal.Run(nil), m.runs...), nil
}

func (m *memStore) Steps(context.Context, string) ([]journal.Step, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]journal.Step(nil), m.steps...), nil
}

// recorder collects reporter callbacks.
type recorder struct {
	started  int
	steps    []executor.StepResult
	finished *executor.Result
}

func (r *recorder) PlanStarted(*plan.Plan, bool)         { r.started++ }
func (r *recorder) StepFinished(sr executor.StepResult)  { r.steps = append(r.steps, sr) }
func (r *recorder) PlanFinished(result *executor.Result) { r.finished = result }

type fixture struct {
	cms      *cmstest.Server
	store    *memStore
	events   []audit.Event
	reporter *recorder
}

func setup(t *testing.T) *fixture {
	t.Helper()
	return &fixture{cms: cmstest.New(t), store: &memStore{}, reporter: &recorder{}}
}

func (f *fixture) executor() *executor.Executor {
	client := directus.New(f.cms.URL(), directus.WithToken(cmstest.AdminToken))
	return executor.NewExecutor(client, f.store).
		WithOperator(cmstest.AdminEmail).
		WithReporter(f.reporter).
		WithAuditLogger(audit.Func(func(e audit.Event) { f.events = append(f.events, e) }))
}

func mustParse(t *testing.T, text string) (*plan.Plan, []byte) {
	t.Helper()
	p, err := plan.ParseString(text)
	require.NoError(t, err)
	return p, []byte(text)
}

func apply(t *testing.T, e *executor.Executor, text string) *executor.Result {
	t.Helper()
	p, data := mustParse(t, text)
	result, err := e.Apply(context.Background(), p, data)
	require.NoError(t, err)
	return result
}

func statuses(result *executor.Result) []string {
	out := make([]string, len(result.Steps))
	for i, s := range result.Steps {
		out[i] = s.Status.String()
	}
	return out
}

func mutations(cms *cmstest.Server) int {
	n := 0
	for _, r := range cms.Requests() {
		if strings.HasPrefix(r, "GET ") || strings.HasPrefix(r, "POST /auth/") {
			continue
		}
		n++
	}
	return n
}

const schemaPlan = `
name: crm
steps:
  - kind: create_collection
    collection: customers
    meta: {icon: people}
    fields:
      - {field: customer_name, type: string}
      - {field: email, type: string, schema: {is_unique: true}}
  - kind: create_collection
    collection: projects
  - kind: create_field
    collection: projects
    field: customer_id
    type: integer
    relation:
      related_collection: customers
      meta: {one_field: null}
  - kind: note
    message: schema ready
`

func TestApplyCreatesSchema(t *testing.T) {
	f := setup(t)

	result := apply(t, f.executor(), schemaPlan)

	assert.Equal(t, []string{"applied", "applied", "applied", "skipped"}, statuses(result))
	assert.Equal(t, journal.StatusSucceeded, result.Status)
	assert.Equal(t, 3, result.Applied)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, []string{"id", "customer_name", "email"}, f.cms.FieldNames("customers"))
	assert.Equal(t, []string{"id", "customer_id"}, f.cms.FieldNames("projects"))

	rels := f.cms.Relations()
	require.Len(t, rels, 1)
	assert.Equal(t, "customers", rels[0].RelatedCollection)
	assert.Contains(t, result.Steps[2].Message, "with relation to customers")

	assert.Equal(t, 1, f.reporter.started)
	assert.Len(t, f.reporter.steps, 4)
	assert.Same(t, result, f.reporter.finished)

	require.Len(t, f.store.runs, 1)
	assert.Equal(t, journal.StatusSucceeded, f.store.runs[0].Status)
	assert.Equal(t, plan.SHA256([]byte(schemaPlan)), f.store.runs[0].PlanSHA256)
	assert.Len(t, f.store.steps, 4)

	require.Len(t, f.events, 5)
	assert.Equal(t, "run", f.events[4].MessageID())
}

func TestApplyIsIdempotent(t *testing.T) {
	f := setup(t)
	apply(t, f.executor(), schemaPlan)

	result := apply(t, f.executor(), schemaPlan)
	assert.Equal(t, []string{"skipped", "skipped", "skipped", "skipped"}, statuses(result))
	assert.Equal(t, "already exists", result.Steps[0].Message)
}

func TestApplyAddsMissingInlineFields(t *testing.T) {
	f := setup(t)
	f.cms.SeedCollection("customers", directus.Field{Field: "customer_name", Type: "string"})

	result := apply(t, f.executor(), schemaPlan)
	assert.Equal(t, executor.StatusApplied, result.Steps[0].Status)
	assert.Equal(t, "added fields email", result.Steps[0].Message)
}

func TestApplyDryRun(t *testing.T) {
	f := setup(t)
	f.cms.SeedCollection("customers", directus.Field{Field: "customer_name"}, directus.Field{Field: "email"})

	result, err := f.executor().WithDryRun(true).Apply(context.Background(), mustParsePlan(t, schemaPlan), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"skipped", "planned", "planned", "skipped"}, statuses(result))
	assert.True(t, result.DryRun)
	assert.Empty(t, result.RunID)
	assert.Equal(t, 0, mutations(f.cms))
	assert.Empty(t, f.store.runs)
	assert.Empty(t, f.store.steps)
	assert.False(t, f.cms.HasCollection("projects"))
}

func mustParsePlan(t *testing.T, text string) *plan.Plan {
	p, _ := mustParse(t, text)
	return p
}

func TestApplyContinuesAfterFailure(t *testing.T) {
	f := setup(t)
	f.cms.Fail(http.MethodPost, "/collections", http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "database is down")

	p := mustParsePlan(t, `
name: partial
steps:
  - {kind: create_collection, collection: customers}
  - {kind: create_collection, collection: projects}
`)
	result, err := f.executor().Apply(context.Background(), p, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"failed", "applied"}, statuses(result))
	assert.Equal(t, "database is down", result.Steps[0].Message)
	assert.Equal(t, journal.StatusPartial, result.Status)
	assert.Equal(t, journal.StatusPartial, f.store.runs[0].Status)
	assert.Equal(t, 1, f.store.runs[0].Failed)
	assert.True(t, f.cms.HasCollection("projects"))
}

func TestApplyRequiredStepAborts(t *testing.T) {
	f := setup(t)
	f.cms.Fail(http.MethodPost, "/collections", http.StatusBadRequest, "INVALID_PAYLOAD", "bad collection")

	p := mustParsePlan(t, `
name: required
steps:
  - {kind: create_collection, collection: customers, required: true}
  - {kind: create_collection, collection: projects}
`)
	result, err := f.executor().Apply(context.Background(), p, nil)
	require.ErrorIs(t, err, executor.ErrStepFailed)
	assert.Contains(t, err.Error(), "step 1 (create_collection customers): bad collection")

	require.NotNil(t, result)
	assert.Len(t, result.Steps, 1)
	assert.Equal(t, journal.StatusFailed, result.Status)
	assert.Equal(t, journal.StatusFailed, f.store.runs[0].Status)
	assert.NotEmpty(t, f.store.runs[0].Error)
	assert.False(t, f.cms.HasCollection("projects"))
}

func TestApplyUnauthorizedAborts(t *testing.T) {
	f := setup(t)
	client := directus.New(f.cms.URL(), directus.WithToken("expired"))

	p := mustParsePlan(t, `
name: denied
steps:
  - {kind: create_collection, collection: customers}
  - {kind: create_collection, collection: projects}
`)
	result, err := executor.NewExecutor(client, nil).
		WithAuditLogger(nil).
		Apply(context.Background(), p, nil)
	require.ErrorIs(t, err, executor.ErrAuthentication)
	assert.Len(t, result.Steps, 1)
}

func TestApplyRequires(t *testing.T) {
	f := setup(t)
	dependent := `
name: dependent
requires: [crm]
steps:
  - {kind: create_collection, collection: invoices}
`
	p, data := mustParse(t, dependent)

	_, err := f.executor().Apply(context.Background(), p, data)
	require.ErrorIs(t, err, executor.ErrRequirementNotMet)
	assert.Contains(t, err.Error(), "requires crm")
	assert.Empty(t, f.store.runs)

	dry, err := f.executor().WithDryRun(true).Apply(context.Background(), p, data)
	require.NoError(t, err)
	require.Len(t, dry.Warnings, 1)

	forced, err := f.executor().WithForce(true).Apply(context.Background(), p, data)
	require.NoError(t, err)
	assert.True(t, forced.Succeeded())

	apply(t, f.executor(), schemaPlan)
	again := apply(t, f.executor(), dependent)
	assert.Equal(t, journal.StatusSucceeded, again.Status)
}

func TestApplyRequiresWithoutJournal(t *testing.T) {
	f := setup(t)
	client := directus.New(f.cms.URL(), directus.WithToken(cmstest.AdminToken))
	e := executor.NewExecutor(client, journal.NopStore{})
	dependent := mustParsePlan(t, `
name: dependent
requires: [crm]
steps:
  - {kind: create_collection, collection: invoices}
`)

	_, err := e.Apply(context.Background(), dependent, nil)
	require.ErrorIs(t, err, executor.ErrRequirementNotMet)

	apply(t, e, schemaPlan)
	result, err := e.Apply(context.Background(), dependent, nil)
	require.NoError(t, err)
	assert.True(t, result.Succeeded())
	assert.True(t, f.cms.HasCollection("invoices"))

	other := executor.NewExecutor(client, journal.NopStore{})
	_, err = other.Apply(context.Background(), dependent, nil)
	assert.ErrorIs(t, err, executor.ErrRequirementNotMet)
}

func TestApplyOnceWithinOneExecutor(t *testing.T) {
	f := setup(t)
	client := directus.New(f.cms.URL(), directus.WithToken(cmstest.AdminToken))
	e := executor.NewExecutor(client, nil)
	once := mustParsePlan(t, `
name: migrate-once
once: true
steps:
  - {kind: note, message: hello}
`)

	_, err := e.Apply(context.Background(), once, nil)
	require.NoError(t, err)
	_, err = e.Apply(context.Background(), once, nil)
	require.ErrorIs(t, err, executor.ErrAlreadyApplied)
	assert.Contains(t, err.Error(), "earlier in this run")
}

func TestApplyOnce(t *testing.T) {
	f := setup(t)
	once := `
name: migrate-once
once: true
steps:
  - {kind: create_collection, collection: employees}
`
	apply(t, f.executor(), once)

	p, data := mustParse(t, once)
	_, err := f.executor().Apply(context.Background(), p, data)
	require.ErrorIs(t, err, executor.ErrAlreadyApplied)

	result, err := f.executor().WithForce(true).Apply(context.Background(), p, data)
	require.NoError(t, err)
	assert.Equal(t, []string{"skipped"}, statuses(result))
}

func TestApplyDifferentTargetsAreIndependent(t *testing.T) {
	f := setup(t)
	once := `
name: migrate-once
once: true
steps:
  - {kind: note, message: hello}
`
	apply(t, f.executor(), once)

	p, data := mustParse(t, once)
	_, err := f.executor().WithTarget("http://other.example").Apply(context.Background(), p, data)
	assert.NoError(t, err)
}

func TestApplyCancelled(t *testing.T) {
	f := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := f.executor().Apply(ctx, mustParsePlan(t, schemaPlan), nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, result.Steps)
	assert.Equal(t, journal.StatusFailed, f.store.runs[0].Status)
}

func TestApplyInvalidPlan(t *testing.T) {
	f := setup(t)
	p := &plan.Plan{Name: "broken", Steps: []plan.Step{{Kind: plan.KindCreateField, Collection: "x"}}}

	_, err := f.executor().Apply(context.Background(), p, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing field")
	assert.Empty(t, f.cms.Requests())
}
