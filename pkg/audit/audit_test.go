package audit

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedLogger(buf *bytes.Buffer) *Logger {
	logger := NewLogger()
	logger.SetWriter(buf)
	logger.hostname = "ops-host"
	logger.pid = 4242
	logger.now = func() time.Time { return time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC) }
	return logger
}

func TestLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := fixedLogger(&buf)

	logger.Log(LoginEvent{Email: "admin@example.com", Target: "http://cms.local", Success: true})

	want := `<86>1 2024-05-01T12:30:00.000Z ops-host cmsctl 4242 login ` +
		`[action@32473 operation="login" result="success"]` +
		`[auth@32473 user="admin@example.com"]` +
		`[target@32473 url="http://cms.local"] ` +
		"admin@example.com successfully authenticated with http://cms.local\n"
	assert.Equal(t, want, buf.String())
}

func TestLoggerEmptyHostname(t *testing.T) {
	var buf bytes.Buffer
	logger := fixedLogger(&buf)
	logger.hostname = ""

	logger.Log(StepEvent{Plan: "roles", Index: 0, Kind: "create_role", Target: "role:Admin", Status: "applied"})
	assert.Contains(t, buf.String(), "Z - cmsctl 4242 step ")
}

func TestEscapeSDValue(t *testing.T) {
	assert.Equal(t, `"a\"b\\c\]d"`, escapeSDValue(`a"b\c]d`))
}

func TestRunEvent(t *testing.T) {
	tests := []struct {
		name    string
		event   RunEvent
		wantMsg string
		wantSev Severity
		wantOp  string
	}{
		{
			name:    "succeeded",
			event:   RunEvent{Operator: "admin", Plan: "schema-setup", Target: "http://cms", Status: "succeeded", Applied: 4, Success: true},
			wantMsg: "admin applied plan schema-setup on http://cms (4 applied, 0 skipped, 0 failed)",
			wantSev: SeverityNotice,
			wantOp:  "apply",
		},
		{
			name:    "partial",
			event:   RunEvent{Operator: "admin", Plan: "seed-data", Target: "http://cms", Status: "partial", Applied: 2, Failed: 1, Success: true},
			wantMsg: "(2 applied, 0 skipped, 1 failed)",
			wantSev: SeverityWarning,
			wantOp:  "apply",
		},
		{
			name:    "dry run",
			event:   RunEvent{Operator: "admin", Plan: "roles", Target: "http://cms", Status: "succeeded", DryRun: true, Success: true},
			wantMsg: "admin planned plan roles",
			wantSev: SeverityNotice,
			wantOp:  "dry-run",
		},
		{
			name:    "aborted",
			event:   RunEvent{Operator: "admin", Plan: "employees", Target: "http://cms", Status: "failed", ErrorMessage: "step 3 failed"},
			wantMsg: "admin failed to apply plan employees on http://cms: step 3 failed",
			wantSev: SeverityError,
			wantOp:  "apply",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, tt.event.Message(), tt.wantMsg)
			assert.Equal(t, tt.wantSev, tt.event.Severity())
			assert.Equal(t, FacilityUser, tt.event.Facility())
			assert.Equal(t, "run", tt.event.MessageID())
			assert.Equal(t, tt.wantOp, tt.event.StructuredData()[SDIDAction]["operation"])
		})
	}
}

func TestStepEvent(t *testing.T) {
	event := StepEvent{Plan: "time-logs", RunID: "r1", Index: 2, Kind: "create_field", Target: "time_logs.minutes", Status: "failed", Detail: "boom"}

	assert.Equal(t, "step 3 of time-logs (create_field time_logs.minutes) failed: boom", event.Message())
	assert.Equal(t, SeverityWarning, event.Severity())
	sd := event.StructuredData()
	assert.Equal(t, "r1", sd[SDIDPlan]["run"])
	assert.Equal(t, "2", sd[SDIDStep]["index"])

	event.Status = "skipped"
	assert.Equal(t, SeverityInfo, event.Severity())
}

func TestLoginEvent(t *testing.T) {
	event := LoginEvent{Email: "admin@example.com", Target: "http://cms", ErrorMessage: "Invalid user credentials."}

	assert.Equal(t, "admin@example.com failed to authenticate with http://cms: Invalid user credentials.", event.Message())
	assert.Equal(t, SeverityWarning, event.Severity())
	assert.Equal(t, FacilityAuthPriv, event.Facility())
	assert.Equal(t, "failure", event.StructuredData()[SDIDAction]["result"])
}

func TestTokenEvent(t *testing.T) {
	event := TokenEvent{Operator: "admin@example.com", UserID: "u1", Target: "http://cms", Success: true}

	assert.True(t, strings.HasPrefix(event.Message(), "admin@example.com issued a static token"))
	assert.Equal(t, SeverityNotice, event.Severity())
	assert.Equal(t, "u1", event.StructuredData()[SDIDTarget]["user"])
}

func TestFuncSink(t *testing.T) {
	var got []Event
	var sink Sink = Func(func(e Event) { got = append(got, e) })

	sink.Log(LoginEvent{Email: "a"})
	require.Len(t, got, 1)
	assert.Equal(t, "login", got[0].MessageID())
}

func TestSetEnabled(t *testing.T) {
	SetEnabled(false)
	t.Cleanup(func() { SetEnabled(true) })

	var buf bytes.Buffer
	DefaultLogger.SetWriter(&buf)
	t.Cleanup(func() { DefaultLogger.SetWriter(&bytes.Buffer{}) })

	Log(LoginEvent{Email: "a", Success: true})
	assert.False(t, IsEnabled())
	assert.Empty(t, buf.String())
}
