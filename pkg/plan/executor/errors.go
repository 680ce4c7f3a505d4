package executor

import "errors"

var (
	// ErrRequirementNotMet is returned when a required plan has no
	// successful run against the target.
	ErrRequirementNotMet = errors.New("requirement not met")
	// ErrAlreadyApplied is returned for a once plan that already succeeded.
	ErrAlreadyApplied = errors.New("plan already applied")
	// ErrStepFailed is returned when a required step fails.
	ErrStepFailed = errors.New("required step failed")
	// ErrAuthentication is returned when the CMS rejects the token.
	ErrAuthentication = errors.New("authentication failed")
)
