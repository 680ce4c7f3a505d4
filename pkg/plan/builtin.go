package plan

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
)

//go:embed builtin/*.yml
var builtinFS embed.FS

// Bundled is a plan that ships with cmsctl.
type Bundled struct {
	Plan *Plan
	Text []byte
	// Order is the position in the recommended apply sequence.
	Order int
}

var (
	builtinOnce  sync.Once
	builtinPlans map[string]Bundled
	builtinErr   error
)

func loadBuiltin() {
	builtinPlans = make(map[string]Bundled)
	entries, err := fs.ReadDir(builtinFS, "builtin")
	if err != nil {
		builtinErr = err
		return
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for i, entry := range entries {
		data, err := builtinFS.ReadFile(path.Join("builtin", entry.Name()))
		if err != nil {
			builtinErr = err
			return
		}
		p, err := Parse(data)
		if err != nil {
			builtinErr = fmt.Errorf("builtin %s: %w", entry.Name(), err)
			return
		}
		builtinPlans[p.Name] = Bundled{Plan: p, Text: data, Order: i + 1}
	}
}

// Builtin returns the bundled plan with the given name.
func Builtin(name string) (Bundled, error) {
	builtinOnce.Do(loadBuiltin)
	if builtinErr != nil {
		return Bundled{}, builtinErr
	}
	b, ok := builtinPlans[name]
	if !ok {
		return Bundled{}, fmt.Errorf("no bundled plan named %q (have %s)", name, strings.Join(BuiltinNames(), ", "))
	}
	return b, nil
}

// BuiltinNames lists the bundled plans in apply order.
func BuiltinNames() []string {
	builtinOnce.Do(loadBuiltin)
	names := make([]string, 0, len(builtinPlans))
	for name := range builtinPlans {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return builtinPlans[names[i]].Order < builtinPlans[names[j]].Order
	})
	return names
}

// Load resolves ref to a plan. A bare name refers to a bundled plan; paths
// and names ending in .yml or .yaml are read from disk.
func Load(ref string) (*Plan, []byte, error) {
	if !strings.ContainsAny(ref, "/\\") && !strings.HasSuffix(ref, ".yml") && !strings.HasSuffix(ref, ".yaml") {
		b, err := Builtin(ref)
		if err != nil {
			return nil, nil, err
		}
		return b.Plan, b.Text, nil
	}
	return ParseFile(ref)
}
