package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinNames(t *testing.T) {
	assert.Equal(t, []string{
		"schema-setup",
		"time-logs",
		"support-tickets",
		"fix-relations",
		"employees",
		"job-roles",
		"billing-schema",
		"ticket-tasks",
		"roles",
		"public-permissions",
		"seed-data",
		"dashboard",
		"tasks-icon",
	}, BuiltinNames())
}

func TestBuiltinPlansAreValid(t *testing.T) {
	known := map[string]bool{}
	for _, name := range BuiltinNames() {
		b, err := Builtin(name)
		require.NoError(t, err)
		assert.NoError(t, b.Plan.Validate(), name)
		assert.NotEmpty(t, b.Text)

		for _, req := range b.Plan.Requires {
			assert.True(t, known[req], "%s requires %s, which must come earlier", name, req)
		}
		known[name] = true
	}
}

func TestBuiltinUnknown(t *testing.T) {
	_, err := Builtin("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema-setup")
}

func TestLoad(t *testing.T) {
	p, text, err := Load("roles")
	require.NoError(t, err)
	assert.Equal(t, "roles", p.Name)
	assert.Equal(t, SHA256(text), SHA256(text))

	_, _, err = Load("./does/not/exist.yml")
	assert.Error(t, err)
}
