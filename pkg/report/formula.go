package report

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Default formulas.
const (
	DefaultBillingFormula = "minutes / 60 * hourly_rate"
	DefaultPayrollFormula = "total_minutes / 60 * hourly_rate"
)

// Formula is a compiled amount expression over float64 variables.
type Formula struct {
	source  string
	program *vm.Program
}

// Compile checks source against the variables it may use.
func Compile(source string, vars ...string) (*Formula, error) {
	env := make(map[string]interface{}, len(vars))
	for _, v := range vars {
		env[v] = float64(0)
	}
	program, err := expr.Compile(source, expr.Env(env), expr.AsFloat64())
	if err != nil {
		return nil, fmt.Errorf("invalid formula %q: %w", source, err)
	}
	return &Formula{source: source, program: program}, nil
}

// String returns the formula source.
func (f *Formula) String() string {
	return f.source
}

// Eval runs the formula.
func (f *Formula) Eval(vars map[string]float64) (float64, error) {
	env := make(map[string]interface{}, len(vars))
	for k, v := range vars {
		env[k] = v
	}
	out, err := expr.Run(f.program, env)
	if err != nil {
		return 0, fmt.Errorf("formula %q: %w", f.source, err)
	}
	return out.(float64), nil
}
