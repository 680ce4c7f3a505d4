package plan

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// expression reports whether s is an expression and returns its code.
// "==" escapes a literal leading "=".
func expression(s string) (string, bool) {
	if !strings.HasPrefix(s, "=") || strings.HasPrefix(s, "==") {
		return "", false
	}
	return strings.TrimSpace(s[1:]), true
}

// Scope is what an expression can see.
type Scope struct {
	// Vars holds values captured by earlier steps.
	Vars map[string]interface{}
	// Item is the item being updated or copied, if any.
	Item map[string]interface{}
}

// Engine evaluates step expressions. Compiled programs are cached by source.
type Engine struct {
	now    func() time.Time
	lookup func(string) (string, bool)

	mu       sync.RWMutex
	programs map[string]*vm.Program
}

// NewEngine returns an engine using the wall clock and process environment.
func NewEngine() *Engine {
	return &Engine{
		now:      time.Now,
		lookup:   os.LookupEnv,
		programs: make(map[string]*vm.Program),
	}
}

// WithClock returns the engine with a fixed clock, for tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// WithLookup returns the engine with a custom environment lookup.
func (e *Engine) WithLookup(lookup func(string) (string, bool)) *Engine {
	e.lookup = lookup
	return e
}

func (e *Engine) env(scope Scope) map[string]interface{} {
	vars := scope.Vars
	if vars == nil {
		vars = map[string]interface{}{}
	}
	item := scope.Item
	if item == nil {
		item = map[string]interface{}{}
	}
	now := e.now()
	return map[string]interface{}{
		"vars":  vars,
		"item":  item,
		"today": now.Format("2006-01-02"),
		"now":   now.UTC().Format(time.RFC3339),
		"daysAgo": func(n int) string {
			return now.AddDate(0, 0, -n).Format("2006-01-02")
		},
		"env": func(name string) string {
			v, _ := e.lookup(name)
			return v
		},
		"randomHex": func(n int) (string, error) {
			b := make([]byte, n)
			if _, err := rand.Read(b); err != nil {
				return "", err
			}
			return hex.EncodeToString(b), nil
		},
	}
}

func (e *Engine) program(code string, env map[string]interface{}) (*vm.Program, error) {
	e.mu.RLock()
	prog, ok := e.programs[code]
	e.mu.RUnlock()
	if ok {
		return prog, nil
	}

	prog, err := expr.Compile(code, expr.Env(env))
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.programs[code] = prog
	e.mu.Unlock()
	return prog, nil
}

// Eval runs a bare expression.
func (e *Engine) Eval(code string, scope Scope) (interface{}, error) {
	env := e.env(scope)
	prog, err := e.program(code, env)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", code, err)
	}
	out, err := expr.Run(prog, env)
	if err != nil {
		return nil, fmt.Errorf("eval %q: %w", code, err)
	}
	return out, nil
}

// Match evaluates a bare boolean expression. An empty expression matches.
func (e *Engine) Match(code string, scope Scope) (bool, error) {
	if strings.TrimSpace(code) == "" {
		return true, nil
	}
	out, err := e.Eval(code, scope)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("expression %q returned %T, want bool", code, out)
	}
	return b, nil
}

// Resolve returns a copy of v with every "=" expression replaced by its
// value and every "==" escape unwrapped.
func (e *Engine) Resolve(v interface{}, scope Scope) (interface{}, error) {
	switch val := v.(type) {
	case string:
		if strings.HasPrefix(val, "==") {
			return val[1:], nil
		}
		if code, ok := expression(val); ok {
			return e.Eval(code, scope)
		}
		return val, nil
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, inner := range val {
			r, err := e.Resolve(inner, scope)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = r
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, inner := range val {
			r, err := e.Resolve(inner, scope)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	default:
		return v, nil
	}
}

// ResolveMap is Resolve for the common map case.
func (e *Engine) ResolveMap(m map[string]interface{}, scope Scope) (map[string]interface{}, error) {
	if m == nil {
		return nil, nil
	}
	out, err := e.Resolve(m, scope)
	if err != nil {
		return nil, err
	}
	return out.(map[string]interface{}), nil
}
