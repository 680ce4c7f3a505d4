package plan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedEngine() *Engine {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	return NewEngine().
		WithClock(func() time.Time { return now }).
		WithLookup(func(name string) (string, bool) {
			if name == "REGION" {
				return "eu", true
			}
			return "", false
		})
}

func TestResolve(t *testing.T) {
	e := fixedEngine()
	scope := Scope{
		Vars: map[string]interface{}{"customers": []interface{}{float64(7), float64(9)}},
		Item: map[string]interface{}{"name": "Widget"},
	}

	in := map[string]interface{}{
		"customer_id": "=vars.customers[1]",
		"log_date":    "=daysAgo(2)",
		"created":     "=today",
		"region":      "=env(\"REGION\")",
		"label":       "=item.name + \"!\"",
		"literal":     "==not an expression",
		"plain":       "just text",
		"count":       3,
		"nested":      []interface{}{"=1 + 1", map[string]interface{}{"deep": "=now"}},
	}

	out, err := e.ResolveMap(in, scope)
	require.NoError(t, err)

	assert.Equal(t, float64(9), out["customer_id"])
	assert.Equal(t, "2025-03-08", out["log_date"])
	assert.Equal(t, "2025-03-10", out["created"])
	assert.Equal(t, "eu", out["region"])
	assert.Equal(t, "Widget!", out["label"])
	assert.Equal(t, "=not an expression", out["literal"])
	assert.Equal(t, "just text", out["plain"])
	assert.Equal(t, 3, out["count"])

	nested := out["nested"].([]interface{})
	assert.Equal(t, 2, nested[0])
	assert.Equal(t, "2025-03-10T12:00:00Z", nested[1].(map[string]interface{})["deep"])

	assert.Equal(t, "=vars.customers[1]", in["customer_id"], "input is not modified")
}

func TestResolveMapNil(t *testing.T) {
	out, err := NewEngine().ResolveMap(nil, Scope{})
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestResolveError(t *testing.T) {
	_, err := NewEngine().ResolveMap(map[string]interface{}{"x": "=nosuchfunc(1)"}, Scope{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "x:")
}

func TestRandomHex(t *testing.T) {
	out, err := NewEngine().Eval("randomHex(16)", Scope{})
	require.NoError(t, err)
	s, ok := out.(string)
	require.True(t, ok)
	assert.Len(t, s, 32)
}

func TestMatch(t *testing.T) {
	e := NewEngine()

	ok, err := e.Match("", Scope{})
	require.NoError(t, err)
	assert.True(t, ok)

	rule := `lower(item.employee_name ?? "") contains "design"`
	ok, err = e.Match(rule, Scope{Item: map[string]interface{}{"employee_name": "Lead Designer"}})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.Match(rule, Scope{Item: map[string]interface{}{"employee_name": "Backend"}})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = e.Match(rule, Scope{Item: map[string]interface{}{}})
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = e.Match("1 + 1", Scope{})
	assert.ErrorContains(t, err, "want bool")
}
