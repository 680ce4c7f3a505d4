package launcher

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/directus-ops/cmsctl/pkg/config"
)

const fakeCLI = `#!/bin/sh
case "$1" in
  start)
    echo "start port=$PORT host=$HOST url=$PUBLIC_URL extra=$EXTRA"
    exit 3
    ;;
  bootstrap)
    echo "bootstrapped"
    exit "${BOOTSTRAP_EXIT:-0}"
    ;;
  sleep)
    exec sleep 30
    ;;
esac
`

type fixture struct {
	cfg    *config.Config
	stdout bytes.Buffer
	logs   bytes.Buffer
}

func setup(t *testing.T) *fixture {
	t.Helper()
	script := filepath.Join(t.TempDir(), "cli.sh")
	require.NoError(t, os.WriteFile(script, []byte(fakeCLI), 0o755))

	return &fixture{cfg: &config.Config{
		Port:        9000,
		Host:        "0.0.0.0",
		PublicURL:   "http://localhost:9000",
		NodeEnv:     "production",
		DBHost:      "db.internal",
		NodeBinary:  "/bin/sh",
		DirectusCLI: script,
	}}
}

func (f *fixture) launcher(env ...string) *Launcher {
	return New(f.cfg).
		WithEnviron(env).
		WithOutput(&f.stdout, &f.stdout).
		WithLogger(log.New(&f.logs, "[Server] ", 0)).
		WithSignals()
}

func TestRunPropagatesExitCode(t *testing.T) {
	f := setup(t)

	code, err := f.launcher("EXTRA=yes", "PORT=1234").Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, code)

	assert.Contains(t, f.stdout.String(), "start port=9000 host=0.0.0.0 url=http://localhost:9000 extra=yes")
	assert.Contains(t, f.logs.String(), "[Server] Starting Directus on 0.0.0.0:9000...")
	assert.Contains(t, f.logs.String(), "[Server] Environment: NODE_ENV=production")
	assert.Contains(t, f.logs.String(), "[Server] Database Host: db.internal")
	assert.Contains(t, f.logs.String(), "[Server] Directus process exited with code 3")
}

func TestRunStartFailure(t *testing.T) {
	f := setup(t)
	f.cfg.NodeBinary = filepath.Join(t.TempDir(), "missing-node")

	code, err := f.launcher().Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, code)
	assert.Contains(t, f.logs.String(), "Failed to start Directus")
}

func TestRunCancelTerminatesChild(t *testing.T) {
	f := setup(t)
	l := f.launcher()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	code, err := l.run(ctx, "sleep")
	require.NoError(t, err)
	assert.Equal(t, 143, code)
}

func TestRunReadiness(t *testing.T) {
	f := setup(t)
	calls := 0
	l := f.launcher().WithReadiness(func(ctx context.Context) error {
		calls++
		return nil
	})

	_, err := l.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Contains(t, f.logs.String(), "[Server] Directus is ready at http://localhost:9000")
}

func TestBootstrap(t *testing.T) {
	f := setup(t)

	require.NoError(t, f.launcher().Bootstrap(context.Background()))
	assert.Contains(t, f.stdout.String(), "bootstrapped")

	err := f.launcher("BOOTSTRAP_EXIT=2").Bootstrap(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exited with code 2")
}

func TestExitCode(t *testing.T) {
	code, err := exitCode(nil)
	assert.NoError(t, err)
	assert.Equal(t, 0, code)

	code, err = exitCode(errors.New("broken pipe"))
	assert.Error(t, err)
	assert.Equal(t, 1, code)
}
