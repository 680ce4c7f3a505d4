package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Run statuses as stored in plan_runs.status.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusPartial   = "partial"
	StatusFailed    = "failed"
)

// Store is the journal used by the plan executor.
type Store interface {
	// BeginRun inserts a running Run and fills in its ID and StartedAt.
	BeginRun(ctx context.Context, run *Run) error
	// RecordStep appends a step outcome to a run.
	RecordStep(ctx context.Context, step *Step) error
	// FinishRun stores the final status and counts of a run.
	FinishRun(ctx context.Context, run *Run) error
	// LastSucceeded returns the latest succeeded run of a plan against
	// target, or nil when there is none.
	LastSucceeded(ctx context.Context, plan, target string) (*Run, error)
	// ListRuns returns the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	// Steps returns the steps of a run in order.
	Steps(ctx context.Context, runID string) ([]Step, error)
}

// Ensure GormStore implements Store
var _ Store = (*GormStore)(nil)

// GormStore implements Store using GORM.
type GormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormStore creates a new GormStore.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, now: time.Now}
}

// BeginRun inserts a running Run.
func (s *GormStore) BeginRun(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = s.now().UTC()
	}
	run.Status = StatusRunning
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to begin run: %w", err)
	}
	return nil
}

// RecordStep appends a step outcome.
func (s *GormStore) RecordStep(ctx context.Context, step *Step) error {
	if step.CreatedAt.IsZero() {
		step.CreatedAt = s.now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(step).Error; err != nil {
		return fmt.Errorf("failed to record step %d: %w", step.Index, err)
	}
	return nil
}

// FinishRun stores the final status of a run.
func (s *GormStore) FinishRun(ctx context.Context, run *Run) error {
	finished := s.now().UTC()
	run.FinishedAt = &finished

	err := s.db.WithContext(ctx).Model(&Run{}).Where("id = ?", run.ID).Updates(map[string]interface{}{
		"status":      run.Status,
		"applied":     run.Applied,
		"skipped":     run.Skipped,
		"failed":      run.Failed,
		"error":       run.Error,
		"finished_at": finished,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", run.ID, err)
	}
	return nil
}

// LastSucceeded returns the latest succeeded run of plan against target.
func (s *GormStore) LastSucceeded(ctx context.Context, plan, target string) (*Run, error) {
	var run Run
	err := s.db.WithContext(ctx).
		Where("plan = ? AND target = ? AND status = ?", plan, target, StatusSucceeded).
		Order("started_at DESC").
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up runs of %s: %w", plan, err)
	}
	return &run, nil
}

// ListRuns returns recent runs, newest first.
func (s *GormStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []Run
	if err := s.db.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// Steps returns the steps of a run in order.
func (s *GormStore) Steps(ctx context.Context, runID string) ([]Step, error) {
	var steps []Step
	if err := s.db.WithContext(ctx).Where("run_id = ?", runID).Order("step_index").Find(&steps).Error; err != nil {
		return nil, fmt.Errorf("failed to list steps of run %s: %w", runID, err)
	}
	return steps, nil
}

// NopStore records nothing. It never reports a prior success, so requires
// are only met by plans applied earlier through the same executor.
type NopStore struct{}

var _ Store = NopStore{}

func (NopStore) BeginRun(_ context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	run.Status = StatusRunning
	return nil
}

func (NopStore) RecordStep(context.Context, *Step) error { return nil }

func (NopStore) FinishRun(context.Context, *Run) error { return nil }

func (NopStore) LastSucceeded(context.Context, string, string) (*Run, error) { return nil, nil }

func (NopStore) ListRuns(context.Context, int) ([]Run, error) { return nil, nil }

func (NopStore) Steps(context.Context, string) ([]Step, error) { return nil, nil }
