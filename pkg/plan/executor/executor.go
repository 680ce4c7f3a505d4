package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/directus-ops/cmsctl/pkg/audit"
	"github.com/directus-ops/cmsctl/pkg/directus"
	"github.com/directus-ops/cmsctl/pkg/journal"
	"github.com/directus-ops/cmsctl/pkg/plan"
)

// Executor applies plans against one CMS.
type Executor struct {
	api      API
	journal  journal.Store
	engine   *plan.Engine
	reporter Reporter
	audit    audit.Sink
	operator string // Who is applying, for the journal and audit
	target   string // Journal key for the instance, defaults to the API base URL
	dryRun   bool   // Read only, send no mutations
	force    bool   // Ignore requires and once

	// Plans that succeeded through this executor, keyed by target and
	// name. They count like journal successes.
	succeeded map[string]bool
}

// NewExecutor creates an executor. A nil store disables the journal.
func NewExecutor(api API, store journal.Store) *Executor {
	if store == nil {
		store = journal.NopStore{}
	}
	return &Executor{
		api:      api,
		journal:  store,
		engine:   plan.NewEngine(),
		reporter: NopReporter{},
		audit:    audit.Default,
		target:   api.BaseURL(),

		succeeded: map[string]bool{},
	}
}

// WithDryRun sets whether to only report what would change.
func (e *Executor) WithDryRun(dryRun bool) *Executor {
	e.dryRun = dryRun
	return e
}

// WithForce sets whether requires and once are ignored.
func (e *Executor) WithForce(force bool) *Executor {
	e.force = force
	return e
}

// WithReporter sets where progress goes.
func (e *Executor) WithReporter(r Reporter) *Executor {
	if r == nil {
		r = NopReporter{}
	}
	e.reporter = r
	return e
}

// WithOperator sets who is applying the plan.
func (e *Executor) WithOperator(operator string) *Executor {
	e.operator = operator
	return e
}

// WithTarget overrides the instance key used in the journal.
func (e *Executor) WithTarget(target string) *Executor {
	if target != "" {
		e.target = target
	}
	return e
}

// WithAuditLogger sets the audit sink.
func (e *Executor) WithAuditLogger(sink audit.Sink) *Executor {
	if sink == nil {
		sink = audit.Func(func(audit.Event) {})
	}
	e.audit = sink
	return e
}

// WithEngine sets the expression engine.
func (e *Executor) WithEngine(engine *plan.Engine) *Executor {
	e.engine = engine
	return e
}

// Apply runs every step of p. text is the document the plan was parsed
// from; its hash is recorded with the run.
//
// The returned Result is non-nil whenever steps were attempted, including
// when the run was aborted.
func (e *Executor) Apply(ctx context.Context, p *plan.Plan, text []byte) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plan %s: %w", p.Name, err)
	}
	if text == nil {
		data, err := plan.Marshal(p)
		if err != nil {
			return nil, err
		}
		text = data
	}

	result := &Result{
		Plan:    p.Name,
		SHA256:  plan.SHA256(text),
		Target:  e.target,
		DryRun:  e.dryRun,
		Started: time.Now(),
	}

	if err := e.checkPrerequisites(ctx, p, result); err != nil {
		return nil, err
	}

	run := &journal.Run{
		Plan:       p.Name,
		PlanSHA256: result.SHA256,
		Operator:   e.operator,
		Target:     e.target,
	}
	if !e.dryRun {
		if err := e.journal.BeginRun(ctx, run); err != nil {
			return nil, err
		}
		result.RunID = run.ID
	}

	e.reporter.PlanStarted(p, e.dryRun)

	state := &runState{Executor: e, plan: p, vars: map[string]interface{}{}}
	var runErr error
	for i, step := range p.Steps {
		if err := ctx.Err(); err != nil {
			runErr = fmt.Errorf("plan %s interrupted before step %d: %w", p.Name, i+1, err)
			break
		}

		sr := state.execute(ctx, i, step)
		result.add(sr)
		e.recordStep(ctx, run, result, sr)

		if sr.Status != StatusFailed {
			continue
		}
		if directus.IsUnauthorized(sr.Err) {
			runErr = fmt.Errorf("%w: step %d: %s", ErrAuthentication, i+1, sr.Message)
			break
		}
		if step.Required {
			runErr = fmt.Errorf("%w: step %d (%s %s): %s", ErrStepFailed, i+1, step.Kind, step.Target(), sr.Message)
			break
		}
	}

	result.finish(runErr != nil)
	if result.Succeeded() {
		e.succeeded[e.target+" "+p.Name] = true
	}
	e.finishRun(ctx, run, result, runErr)
	e.reporter.PlanFinished(result)
	return result, runErr
}

func (e *Executor) checkPrerequisites(ctx context.Context, p *plan.Plan, result *Result) error {
	if e.force {
		return nil
	}

	for _, req := range p.Requires {
		if e.succeeded[e.target+" "+req] {
			continue
		}
		last, err := e.journal.LastSucceeded(ctx, req, e.target)
		if err != nil {
			return err
		}
		if last != nil {
			continue
		}
		if e.dryRun {
			result.Warnings = append(result.Warnings, fmt.Sprintf("plan %s has not been applied to %s", req, e.target))
			continue
		}
		return fmt.Errorf("%w: plan %s requires %s to be applied to %s first", ErrRequirementNotMet, p.Name, req, e.target)
	}

	if p.Once {
		if e.succeeded[e.target+" "+p.Name] {
			return fmt.Errorf("%w: %s was applied to %s earlier in this run; use --force to apply again",
				ErrAlreadyApplied, p.Name, e.target)
		}
		last, err := e.journal.LastSucceeded(ctx, p.Name, e.target)
		if err != nil {
			return err
		}
		if last != nil {
			return fmt.Errorf("%w: %s was applied to %s at %s (run %s); use --force to apply again",
				ErrAlreadyApplied, p.Name, e.target, last.StartedAt.Format(time.RFC3339), last.ID)
		}
	}
	return nil
}

func (e *Executor) recordStep(ctx context.Context, run *journal.Run, result *Result, sr StepResult) {
	e.reporter.StepFinished(sr)
	e.audit.Log(audit.StepEvent{
		Plan:   run.Plan,
		RunID:  run.ID,
		Index:  sr.Index,
		Kind:   sr.Kind.String(),
		Target: sr.Target,
		Status: sr.Status.String(),
		Detail: sr.Message,
	})
	if e.dryRun {
		return
	}
	err := e.journal.RecordStep(ctx, &journal.Step{
		RunID:   run.ID,
		Index:   sr.Index,
		Kind:    sr.Kind.String(),
		Target:  sr.Target,
		Status:  sr.Status.String(),
		Message: sr.Message,
	})
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
	}
}

func (e *Executor) finishRun(ctx context.Context, run *journal.Run, result *Result, runErr error) {
	run.Status = result.Status
	run.Applied = result.Applied
	run.Skipped = result.Skipped
	run.Failed = result.Failed
	if runErr != nil {
		run.Error = runErr.Error()
	}

	e.audit.Log(audit.RunEvent{
		Operator:     e.operator,
		Target:       e.target,
		Plan:         run.Plan,
		RunID:        run.ID,
		Status:       result.Status,
		Applied:      result.Applied,
		Skipped:      result.Skipped,
		Failed:       result.Failed,
		DryRun:       e.dryRun,
		Success:      runErr == nil,
		ErrorMessage: run.Error,
	})

	if e.dryRun {
		return
	}
	// The journal write must happen even when ctx was cancelled.
	if err := e.journal.FinishRun(context.WithoutCancel(ctx), run); err != nil {
		result.Warnings = append(result.Warnings, err.Error())
	}
}

// runState carries values captured by earlier steps of one run.
type runState struct {
	*Executor
	plan *plan.Plan
	vars map[string]interface{}
}

// outcome is what a step handler reports.
type outcome struct {
	status  Status
	message string
}

func applied(format string, args ...interface{}) outcome {
	return outcome{status: StatusApplied, message: fmt.Sprintf(format, args...)}
}

func skipped(format string, args ...interface{}) outcome {
	return outcome{status: StatusSkipped, message: fmt.Sprintf(format, args...)}
}

// change runs fn unless this is a dry run, and reports applied or planned.
func (s *runState) change(message string, fn func() error) (outcome, error) {
	if s.dryRun {
		return outcome{status: StatusPlanned, message: message}, nil
	}
	if err := fn(); err != nil {
		return outcome{}, err
	}
	return outcome{status: StatusApplied, message: message}, nil
}

func (s *runState) execute(ctx context.Context, index int, step plan.Step) StepResult {
	sr := StepResult{Index: index, Kind: step.Kind, Title: step.Title, Target: step.Target()}

	out, err := s.dispatch(ctx, step)
	if err != nil {
		if s.dryRun && missing(err) {
			sr.Status = StatusPlanned
			sr.Message = "depends on objects created earlier in the plan"
			return sr
		}
		sr.Status = StatusFailed
		sr.Message = directus.Message(err)
		sr.Err = err
		return sr
	}
	sr.Status = out.status
	sr.Message = out.message
	return sr
}

func (s *runState) dispatch(ctx context.Context, step plan.Step) (outcome, error) {
	switch step.Kind {
	case plan.KindCreateCollection:
		return s.createCollection(ctx, step)
	case plan.KindUpdateCollection:
		return s.updateCollection(ctx, step)
	case plan.KindDeleteCollection:
		return s.deleteCollection(ctx, step)
	case plan.KindCreateField:
		return s.createField(ctx, step)
	case plan.KindUpdateField:
		return s.updateField(ctx, step)
	case plan.KindDeleteField:
		return s.deleteField(ctx, step)
	case plan.KindRetypeField:
		return s.retypeField(ctx, step)
	case plan.KindRenameField:
		return s.renameField(ctx, step)
	case plan.KindCreateRelation:
		return s.createRelation(ctx, step)
	case plan.KindUpdateRelation:
		return s.updateRelation(ctx, step)
	case plan.KindDeleteRelations:
		return s.deleteRelations(ctx, step)
	case plan.KindCreateRole:
		return s.createRole(ctx, step)
	case plan.KindGrantPermission:
		return s.grantPermission(ctx, step)
	case plan.KindCreateItems:
		return s.createItems(ctx, step)
	case plan.KindUpdateItems:
		return s.updateItems(ctx, step)
	case plan.KindCopyItems:
		return s.copyItems(ctx, step)
	case plan.KindCopyFields:
		return s.copyFields(ctx, step)
	case plan.KindCreateDashboard:
		return s.createDashboard(ctx, step)
	case plan.KindNote:
		return skipped("%s", step.Message), nil
	}
	return outcome{}, fmt.Errorf("unsupported step kind %s", step.Kind)
}

// missing reports whether err means the object does not exist. Directus
// answers 403 for collections and fields it does not know.
func missing(err error) bool {
	return directus.IsForbidden(err) || directus.IsNotFound(err)
}

// lookup converts a "not found" error into a nil result.
func lookup[T any](v *T, err error) (*T, error) {
	if err != nil {
		if missing(err) {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}

var errNotFound = errors.New("not found")
