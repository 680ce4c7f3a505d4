package executor

import (
	"time"

	"github.com/directus-ops/cmsctl/pkg/journal"
	"github.com/directus-ops/cmsctl/pkg/plan"
)

// StepResult is the outcome of one step.
type StepResult struct {
	Index   int       `json:"index"`
	Kind    plan.Kind `json:"kind"`
	Title   string    `json:"title,omitempty"`
	Target  string    `json:"target"`
	Status  Status    `json:"status"`
	Message string    `json:"message,omitempty"`
	Err     error     `json:"-"`
}

// KindName is the step kind as written in plan documents.
func (r StepResult) KindName() string {
	return r.Kind.String()
}

// Result is the outcome of applying one plan.
type Result struct {
	Plan     string       `json:"plan"`
	RunID    string       `json:"run_id,omitempty"`
	SHA256   string       `json:"sha256"`
	Target   string       `json:"target"`
	DryRun   bool         `json:"dry_run"`
	Status   string       `json:"status"`
	Applied  int          `json:"applied"`
	Skipped  int          `json:"skipped"`
	Failed   int          `json:"failed"`
	Planned  int          `json:"planned"`
	Steps    []StepResult `json:"steps"`
	Warnings []string     `json:"warnings,omitempty"`
	Started  time.Time    `json:"started_at"`
	Duration string       `json:"duration"`
}

func (r *Result) add(step StepResult) {
	r.Steps = append(r.Steps, step)
	switch step.Status {
	case StatusApplied:
		r.Applied++
	case StatusSkipped:
		r.Skipped++
	case StatusFailed:
		r.Failed++
	case StatusPlanned:
		r.Planned++
	}
}

// finish sets the run status. aborted means the run stopped early.
func (r *Result) finish(aborted bool) {
	switch {
	case aborted:
		r.Status = journal.StatusFailed
	case r.Failed > 0:
		r.Status = journal.StatusPartial
	default:
		r.Status = journal.StatusSucceeded
	}
	r.Duration = time.Since(r.Started).Round(time.Millisecond).String()
}

// Succeeded reports whether every step applied, skipped or was planned.
func (r *Result) Succeeded() bool {
	return r.Status == journal.StatusSucceeded
}
