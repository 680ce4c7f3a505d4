package report

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/directus-ops/cmsctl/internal/cmstest"
	"github.com/directus-ops/cmsctl/pkg/directus"
)

type memSource map[string][]directus.Item

func (m memSource) ListItems(ctx context.Context, collection string, q directus.Query) ([]directus.Item, error) {
	items, ok := m[collection]
	if !ok {
		return nil, errors.New("forbidden")
	}
	return items, nil
}

func fixture() memSource {
	return memSource{
		"employees": {
			{"id": float64(1), "employee_name": "Ramki R", "hourly_rate": "75.00"},
			{"id": float64(2), "employee_name": "Priya S", "hourly_rate": float64(55)},
		},
		"projects": {
			{"id": float64(1), "project_name": "Client Portal"},
			{"id": float64(2), "project_name": "Shop Revamp"},
		},
		"time_logs": {
			{"project_id": float64(1), "employee_id": float64(1), "minutes": float64(120), "log_date": "2025-01-10"},
			{"project_id": float64(1), "employee_id": float64(1), "minutes": float64(180), "log_date": "2025-01-11"},
			{"project_id": float64(1), "employee_id": float64(2), "minutes": float64(60), "log_date": "2025-02-01"},
			{"project_id": float64(2), "employee_id": float64(2), "minutes": "90", "log_date": "2025-01-15"},
			{"project_id": map[string]interface{}{"id": float64(2)}, "employee_id": float64(1), "minutes": float64(30), "log_date": "2025-01-20T10:00:00"},
		},
	}
}

func TestComputeBilling(t *testing.T) {
	b, err := ComputeBilling(context.Background(), fixture(), DefaultSchema, "")
	require.NoError(t, err)

	require.Len(t, b.Lines, 2)
	assert.Equal(t, "Client Portal", b.Lines[0].Project)
	assert.Equal(t, float64(360), b.Lines[0].Minutes)
	assert.InDelta(t, 430.0, b.Lines[0].Amount, 0.001)
	assert.Equal(t, "Shop Revamp", b.Lines[1].Project)
	assert.InDelta(t, 120.0, b.Lines[1].Amount, 0.001)
	assert.InDelta(t, 550.0, b.Total(), 0.001)
	assert.Equal(t, DefaultBillingFormula, b.Formula)
}

func TestComputeBillingCustomFormula(t *testing.T) {
	b, err := ComputeBilling(context.Background(), fixture(), DefaultSchema, "hours * hourly_rate * 1.1")
	require.NoError(t, err)
	assert.InDelta(t, 473.0, b.Lines[0].Amount, 0.001)

	_, err = ComputeBilling(context.Background(), fixture(), DefaultSchema, "minutes * price")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid formula")
}

func TestComputeBillingMissingCollection(t *testing.T) {
	src := fixture()
	delete(src, "employees")

	_, err := ComputeBilling(context.Background(), src, DefaultSchema, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read employees")
}

func TestComputePayroll(t *testing.T) {
	p, err := ComputePayroll(context.Background(), fixture(), DefaultSchema, 1, 2025, "")
	require.NoError(t, err)

	require.Len(t, p.Lines, 2)
	assert.Equal(t, PayrollLine{EmployeeID: "2", Employee: "Priya S", TotalMinutes: 90, HourlyRate: 55, TotalAmount: 82.5}, p.Lines[0])
	assert.Equal(t, PayrollLine{EmployeeID: "1", Employee: "Ramki R", TotalMinutes: 330, HourlyRate: 75, TotalAmount: 412.5}, p.Lines[1])
	assert.InDelta(t, 495.0, p.Total(), 0.001)

	p, err = ComputePayroll(context.Background(), fixture(), DefaultSchema, 3, 2025, "")
	require.NoError(t, err)
	assert.Empty(t, p.Lines)
}

func TestComputePayrollInvalidPeriod(t *testing.T) {
	_, err := ComputePayroll(context.Background(), fixture(), DefaultSchema, 13, 2025, "")
	assert.Error(t, err)
	_, err = ComputePayroll(context.Background(), fixture(), DefaultSchema, 1, 0, "")
	assert.Error(t, err)
}

func TestReportAgainstCMS(t *testing.T) {
	cms := cmstest.New(t)
	cms.SeedCollection("developers")
	cms.SeedCollection("projects")
	cms.SeedCollection("time_logs")
	cms.SeedItems("developers", directus.Item{"developer_name": "Arjun K", "hourly_rate": "65.00"})
	cms.SeedItems("projects", directus.Item{"project_name": "ERP"})
	cms.SeedItems("time_logs", directus.Item{"project_id": float64(1), "developer_id": float64(1), "minutes": float64(300), "log_date": "2025-01-03"})

	client := directus.New(cms.URL(), directus.WithToken(cmstest.AdminToken))
	b, err := ComputeBilling(context.Background(), client, LegacySchema, "")
	require.NoError(t, err)
	require.Len(t, b.Lines, 1)
	assert.Equal(t, "ERP", b.Lines[0].Project)
	assert.InDelta(t, 325.0, b.Lines[0].Amount, 0.001)
}

func TestTableMarkdown(t *testing.T) {
	table := &Table{
		Title:   "Billing",
		Caption: "Formula: x",
		Headers: []string{"A", "B"},
		Align:   []Align{AlignLeft, AlignRight},
		Rows:    [][]string{{"a|b", "1"}},
	}

	var buf bytes.Buffer
	require.NoError(t, table.Markdown(&buf))
	assert.Equal(t, "## Billing\n\nFormula: x\n\n| A | B |\n| --- | ---: |\n| a\\|b | 1 |\n", buf.String())
}

func TestTableHTML(t *testing.T) {
	table := &Table{Title: "Payroll 2025-01", Headers: []string{"Employee", "Total"}, Rows: [][]string{{"Ramki R", "412.50"}}}

	var buf bytes.Buffer
	require.NoError(t, table.Write(&buf, FormatHTML))
	out := buf.String()
	assert.Contains(t, out, "<h2>Payroll 2025-01</h2>")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<th>Employee</th>")
	assert.Contains(t, out, "<td>Ramki R</td>")
}

func TestBillingTable(t *testing.T) {
	b := &Billing{Formula: DefaultBillingFormula, Lines: []BillingLine{{Project: "ERP", Minutes: 90, Amount: 97.5}}}

	var buf bytes.Buffer
	require.NoError(t, b.Table().Markdown(&buf))
	assert.Contains(t, buf.String(), "| ERP | 90 | 1.50 | 97.50 |")
	assert.Contains(t, buf.String(), "| **Total** | 90 | 1.50 | **97.50** |")
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatMarkdown, f)

	f, err = ParseFormat("HTML")
	require.NoError(t, err)
	assert.Equal(t, FormatHTML, f)

	_, err = ParseFormat("pdf")
	assert.Error(t, err)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "3", key(float64(3)))
	assert.Equal(t, "2.5", key(2.5))
	assert.Equal(t, "7", key(map[string]interface{}{"id": float64(7)}))
	assert.Equal(t, "abc", key("abc"))
	assert.Equal(t, "", key(nil))
}
