package audit

import "fmt"

// RunEvent is emitted when a plan run finishes.
type RunEvent struct {
	Operator string
	Target   string
	Plan     string
	RunID    string
	Status   string
	Applied  int
	Skipped  int
	Failed   int
	DryRun   bool
	Success  bool
	// ErrorMessage is set when the run was aborted.
	ErrorMessage string
}

func (e RunEvent) MessageID() string {
	return "run"
}

func (e RunEvent) Message() string {
	mode := "applied"
	if e.DryRun {
		mode = "planned"
	}
	if e.Success {
		return fmt.Sprintf("%s %s plan %s on %s (%d applied, %d skipped, %d failed)",
			e.Operator, mode, e.Plan, e.Target, e.Applied, e.Skipped, e.Failed)
	}
	msg := fmt.Sprintf("%s failed to apply plan %s on %s", e.Operator, e.Plan, e.Target)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e RunEvent) Severity() Severity {
	switch {
	case !e.Success:
		return SeverityError
	case e.Failed > 0:
		return SeverityWarning
	}
	return SeverityNotice
}

func (e RunEvent) Facility() int {
	return FacilityUser
}

func (e RunEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDAuth: {
			"user": e.Operator,
		},
		SDIDPlan: {
			"name":    e.Plan,
			"status":  e.Status,
			"applied": fmt.Sprintf("%d", e.Applied),
			"skipped": fmt.Sprintf("%d", e.Skipped),
			"failed":  fmt.Sprintf("%d", e.Failed),
		},
		SDIDTarget: {
			"url": e.Target,
		},
		SDIDAction: {
			"operation": "apply",
			"result":    result(e.Success),
		},
	}
	if e.RunID != "" {
		sd[SDIDPlan]["run"] = e.RunID
	}
	if e.DryRun {
		sd[SDIDAction]["operation"] = "dry-run"
	}
	return sd
}

// StepEvent is emitted for every executed step.
type StepEvent struct {
	Plan   string
	RunID  string
	Index  int
	Kind   string
	Target string
	Status string
	Detail string
}

func (e StepEvent) MessageID() string {
	return "step"
}

func (e StepEvent) Message() string {
	msg := fmt.Sprintf("step %d of %s (%s %s) %s", e.Index+1, e.Plan, e.Kind, e.Target, e.Status)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e StepEvent) Severity() Severity {
	if e.Status == "failed" {
		return SeverityWarning
	}
	return SeverityInfo
}

func (e StepEvent) Facility() int {
	return FacilityUser
}

func (e StepEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDPlan: {
			"name": e.Plan,
		},
		SDIDStep: {
			"index":  fmt.Sprintf("%d", e.Index),
			"kind":   e.Kind,
			"target": e.Target,
			"status": e.Status,
		},
	}
	if e.RunID != "" {
		sd[SDIDPlan]["run"] = e.RunID
	}
	return sd
}

// LoginEvent is emitted for every /auth/login attempt.
type LoginEvent struct {
	Email        string
	Target       string
	Success      bool
	ErrorMessage string
}

func (e LoginEvent) MessageID() string {
	return "login"
}

func (e LoginEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s successfully authenticated with %s", e.Email, e.Target)
	}
	msg := fmt.Sprintf("%s failed to authenticate with %s", e.Email, e.Target)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e LoginEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e LoginEvent) Facility() int {
	return FacilityAuthPriv
}

func (e LoginEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth: {
			"user": e.Email,
		},
		SDIDTarget: {
			"url": e.Target,
		},
		SDIDAction: {
			"operation": "login",
			"result":    result(e.Success),
		},
	}
}

// TokenEvent is emitted when a static token is issued to a user.
type TokenEvent struct {
	Operator     string
	UserID       string
	Target       string
	Success      bool
	ErrorMessage string
}

func (e TokenEvent) MessageID() string {
	return "token"
}

func (e TokenEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s issued a static token for user %s on %s", e.Operator, e.UserID, e.Target)
	}
	msg := fmt.Sprintf("%s tried to issue a static token for user %s on %s", e.Operator, e.UserID, e.Target)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e TokenEvent) Severity() Severity {
	if e.Success {
		return SeverityNotice
	}
	return SeverityWarning
}

func (e TokenEvent) Facility() int {
	return FacilityAuthPriv
}

func (e TokenEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth: {
			"user": e.Operator,
		},
		SDIDTarget: {
			"url":  e.Target,
			"user": e.UserID,
		},
		SDIDAction: {
			"operation": "token",
			"result":    result(e.Success),
		},
	}
}
