package executor

import "github.com/directus-ops/cmsctl/pkg/plan"

// Reporter receives progress while a plan runs.
type Reporter interface {
	PlanStarted(p *plan.Plan, dryRun bool)
	StepFinished(r StepResult)
	PlanFinished(r *Result)
}

// NopReporter discards progress.
type NopReporter struct{}

func (NopReporter) PlanStarted(*plan.Plan, bool) {}
func (NopReporter) StepFinished(StepResult)      {}
func (NopReporter) PlanFinished(*Result)         {}
