package journal

import "time"

// Run is one application of a plan against a target CMS.
type Run struct {
	ID         string     `gorm:"column:id;type:uuid;primaryKey"`
	Plan       string     `gorm:"column:plan;not null"`
	PlanSHA256 string     `gorm:"column:plan_sha256;not null"`
	Operator   string     `gorm:"column:operator"`
	Target     string     `gorm:"column:target;not null"`
	Status     string     `gorm:"column:status;not null"`
	Applied    int        `gorm:"column:applied"`
	Skipped    int        `gorm:"column:skipped"`
	Failed     int        `gorm:"column:failed"`
	Error      string     `gorm:"column:error"`
	StartedAt  time.Time  `gorm:"column:started_at;not null"`
	FinishedAt *time.Time `gorm:"column:finished_at"`
}

func (Run) TableName() string {
	return "plan_runs"
}

// Step is the outcome of one step within a run.
type Step struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	RunID     string    `gorm:"column:run_id;type:uuid;not null"`
	Index     int       `gorm:"column:step_index;not null"`
	Kind      string    `gorm:"column:kind;not null"`
	Target    string    `gorm:"column:target"`
	Status    string    `gorm:"column:status;not null"`
	Message   string    `gorm:"column:message"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (Step) TableName() string {
	return "plan_steps"
}
