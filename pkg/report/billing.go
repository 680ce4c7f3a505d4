package report

import (
	"context"
	"fmt"
	"sort"
)

// BillingLine is the billable amount of one project.
type BillingLine struct {
	ProjectID string
	Project   string
	Minutes   float64
	Amount    float64
}

// Hours is Minutes expressed in hours.
func (l BillingLine) Hours() float64 {
	return l.Minutes / 60
}

// Billing is the billing report.
type Billing struct {
	Formula string
	Lines   []BillingLine
}

// Total sums every line.
func (b *Billing) Total() float64 {
	var total float64
	for _, l := range b.Lines {
		total += l.Amount
	}
	return total
}

// ComputeBilling applies formula to every project and employee pair and
// sums the result per project. An empty formula uses
// DefaultBillingFormula.
func ComputeBilling(ctx context.Context, src Source, schema Schema, formula string) (*Billing, error) {
	if formula == "" {
		formula = DefaultBillingFormula
	}
	f, err := Compile(formula, "minutes", "hours", "hourly_rate")
	if err != nil {
		return nil, err
	}
	ds, err := load(ctx, src, schema)
	if err != nil {
		return nil, err
	}

	type pair struct{ project, worker string }
	minutes := make(map[pair]float64)
	for _, l := range ds.logs {
		minutes[pair{l.project, l.worker}] += l.minutes
	}

	lines := make(map[string]*BillingLine)
	for _, p := range sortedPairs(minutes, func(a, b pair) bool {
		if a.project != b.project {
			return a.project < b.project
		}
		return a.worker < b.worker
	}) {
		m := minutes[p]
		rate := ds.workers[p.worker].rate
		amount, err := f.Eval(map[string]float64{"minutes": m, "hours": m / 60, "hourly_rate": rate})
		if err != nil {
			return nil, fmt.Errorf("project %s: %w", p.project, err)
		}

		line, ok := lines[p.project]
		if !ok {
			line = &BillingLine{ProjectID: p.project, Project: projectName(ds, p.project)}
			lines[p.project] = line
		}
		line.Minutes += m
		line.Amount += amount
	}

	b := &Billing{Formula: f.String()}
	for _, line := range lines {
		b.Lines = append(b.Lines, *line)
	}
	sort.Slice(b.Lines, func(i, j int) bool { return b.Lines[i].Project < b.Lines[j].Project })
	return b, nil
}

func projectName(ds *dataset, id string) string {
	if name := ds.projects[id]; name != "" {
		return name
	}
	if id == "" {
		return "(no project)"
	}
	return "project " + id
}

func sortedPairs[K comparable, V any](m map[K]V, less func(a, b K) bool) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return less(keys[i], keys[j]) })
	return keys
}

// Table renders the report.
func (b *Billing) Table() *Table {
	t := &Table{
		Title:   "Billing",
		Caption: "Formula: " + b.Formula,
		Headers: []string{"Project", "Minutes", "Hours", "Amount"},
		Align:   []Align{AlignLeft, AlignRight, AlignRight, AlignRight},
	}
	var minutes float64
	for _, l := range b.Lines {
		minutes += l.Minutes
		t.Rows = append(t.Rows, []string{l.Project, formatMinutes(l.Minutes), formatHours(l.Hours()), formatMoney(l.Amount)})
	}
	t.Rows = append(t.Rows, []string{"**Total**", formatMinutes(minutes), formatHours(minutes / 60), "**" + formatMoney(b.Total()) + "**"})
	return t
}
