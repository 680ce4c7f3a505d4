package report

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// PayrollLine is one employee's pay for a month.
type PayrollLine struct {
	EmployeeID   string
	Employee     string
	TotalMinutes float64
	HourlyRate   float64
	TotalAmount  float64
}

// Payroll is the payroll report for one month.
type Payroll struct {
	Month   int
	Year    int
	Formula string
	Lines   []PayrollLine
}

// Total sums every line.
func (p *Payroll) Total() float64 {
	var total float64
	for _, l := range p.Lines {
		total += l.TotalAmount
	}
	return total
}

// ComputePayroll totals the minutes each employee logged in month/year and
// prices them with formula. An empty formula uses DefaultPayrollFormula.
func ComputePayroll(ctx context.Context, src Source, schema Schema, month, year int, formula string) (*Payroll, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("invalid month: %d", month)
	}
	if year < 1 {
		return nil, fmt.Errorf("invalid year: %d", year)
	}
	if formula == "" {
		formula = DefaultPayrollFormula
	}
	f, err := Compile(formula, "total_minutes", "total_hours", "hourly_rate")
	if err != nil {
		return nil, err
	}
	ds, err := load(ctx, src, schema)
	if err != nil {
		return nil, err
	}

	prefix := fmt.Sprintf("%04d-%02d", year, month)
	minutes := make(map[string]float64)
	for _, l := range ds.logs {
		if !strings.HasPrefix(l.date, prefix) {
			continue
		}
		minutes[l.worker] += l.minutes
	}

	p := &Payroll{Month: month, Year: year, Formula: f.String()}
	for id, m := range minutes {
		w := ds.workers[id]
		amount, err := f.Eval(map[string]float64{"total_minutes": m, "total_hours": m / 60, "hourly_rate": w.rate})
		if err != nil {
			return nil, fmt.Errorf("employee %s: %w", id, err)
		}
		name := w.name
		if name == "" {
			name = "employee " + id
		}
		p.Lines = append(p.Lines, PayrollLine{EmployeeID: id, Employee: name, TotalMinutes: m, HourlyRate: w.rate, TotalAmount: amount})
	}
	sort.Slice(p.Lines, func(i, j int) bool { return p.Lines[i].Employee < p.Lines[j].Employee })
	return p, nil
}

// Table renders the report.
func (p *Payroll) Table() *Table {
	t := &Table{
		Title:   fmt.Sprintf("Payroll %04d-%02d", p.Year, p.Month),
		Caption: "Formula: " + p.Formula,
		Headers: []string{"Employee", "Total minutes", "Hourly rate", "Total amount"},
		Align:   []Align{AlignLeft, AlignRight, AlignRight, AlignRight},
	}
	for _, l := range p.Lines {
		t.Rows = append(t.Rows, []string{l.Employee, formatMinutes(l.TotalMinutes), formatMoney(l.HourlyRate), formatMoney(l.TotalAmount)})
	}
	t.Rows = append(t.Rows, []string{"**Total**", "", "", "**" + formatMoney(p.Total()) + "**"})
	return t
}
