package executor

//go:generate go run github.com/dmarkham/enumer -type Status -trimprefix Status -transform snake -json -output status.gen.go

// Status is the outcome of one step.
type Status int

const (
	StatusApplied Status = iota
	StatusSkipped
	StatusFailed
	StatusPlanned
)
