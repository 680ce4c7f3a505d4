package report

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/directus-ops/cmsctl/pkg/directus"
)

// Source lists items. *directus.Client satisfies it.
type Source interface {
	ListItems(ctx context.Context, collection string, q directus.Query) ([]directus.Item, error)
}

// Schema names the collections and fields the reports read.
type Schema struct {
	TimeLogs    string
	Minutes     string
	LogDate     string
	ProjectRef  string
	WorkerRef   string
	Projects    string
	ProjectName string
	Workers     string
	WorkerName  string
	HourlyRate  string
}

// DefaultSchema matches the employees layout.
var DefaultSchema = Schema{
	TimeLogs:    "time_logs",
	Minutes:     "minutes",
	LogDate:     "log_date",
	ProjectRef:  "project_id",
	WorkerRef:   "employee_id",
	Projects:    "projects",
	ProjectName: "project_name",
	Workers:     "employees",
	WorkerName:  "employee_name",
	HourlyRate:  "hourly_rate",
}

// LegacySchema matches instances that still track developers.
var LegacySchema = Schema{
	TimeLogs:    "time_logs",
	Minutes:     "minutes",
	LogDate:     "log_date",
	ProjectRef:  "project_id",
	WorkerRef:   "developer_id",
	Projects:    "projects",
	ProjectName: "project_name",
	Workers:     "developers",
	WorkerName:  "developer_name",
	HourlyRate:  "hourly_rate",
}

type timeLog struct {
	project string
	worker  string
	minutes float64
	date    string
}

type worker struct {
	name string
	rate float64
}

type dataset struct {
	logs     []timeLog
	projects map[string]string
	workers  map[string]worker
}

func load(ctx context.Context, src Source, s Schema) (*dataset, error) {
	logs, err := src.ListItems(ctx, s.TimeLogs, directus.Query{
		Fields: []string{s.Minutes, s.LogDate, s.ProjectRef, s.WorkerRef},
		Limit:  -1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.TimeLogs, err)
	}
	projects, err := src.ListItems(ctx, s.Projects, directus.Query{Fields: []string{"id", s.ProjectName}, Limit: -1})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.Projects, err)
	}
	workers, err := src.ListItems(ctx, s.Workers, directus.Query{Fields: []string{"id", s.WorkerName, s.HourlyRate}, Limit: -1})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.Workers, err)
	}

	ds := &dataset{projects: make(map[string]string), workers: make(map[string]worker)}
	for _, p := range projects {
		ds.projects[key(p.ID())] = str(p[s.ProjectName])
	}
	for _, w := range workers {
		rate, err := number(w[s.HourlyRate])
		if err != nil {
			return nil, fmt.Errorf("%s %v: %s: %w", s.Workers, w.ID(), s.HourlyRate, err)
		}
		ds.workers[key(w.ID())] = worker{name: str(w[s.WorkerName]), rate: rate}
	}
	for _, l := range logs {
		minutes, err := number(l[s.Minutes])
		if err != nil {
			return nil, fmt.Errorf("%s %v: %s: %w", s.TimeLogs, l.ID(), s.Minutes, err)
		}
		ds.logs = append(ds.logs, timeLog{
			project: key(l[s.ProjectRef]),
			worker:  key(l[s.WorkerRef]),
			minutes: minutes,
			date:    str(l[s.LogDate]),
		})
	}
	return ds, nil
}

// key normalises a reference. Expanded relations carry the id inside an
// object and JSON numbers decode as float64.
func key(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case map[string]interface{}:
		return key(val["id"])
	case directus.Item:
		return key(val["id"])
	case float64:
		if val == math.Trunc(val) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

func str(v interface{}) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// number accepts the shapes Directus uses for numeric columns. Decimals
// arrive as strings.
func number(v interface{}) (float64, error) {
	switch val := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return val, nil
	case int:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case json.Number:
		return val.Float64()
	case string:
		if strings.TrimSpace(val) == "" {
			return 0, nil
		}
		return strconv.ParseFloat(strings.TrimSpace(val), 64)
	default:
		return 0, fmt.Errorf("not a number: %T", v)
	}
}
