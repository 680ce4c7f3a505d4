package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"

	"github.com/directus-ops/cmsctl/pkg/config"
)

// ReadinessFunc blocks until the started CMS answers or gives up.
type ReadinessFunc func(ctx context.Context) error

// Launcher starts the CMS as a child process.
type Launcher struct {
	cfg     *config.Config
	environ []string
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	logger  *log.Logger
	signals []os.Signal
	ready   ReadinessFunc
}

// New creates a Launcher for cfg inheriting the current process' stdio and
// environment.
func New(cfg *config.Config) *Launcher {
	return &Launcher{
		cfg:     cfg,
		environ: os.Environ(),
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		logger:  log.New(os.Stdout, "[Server] ", 0),
		signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
	}
}

// WithEnviron replaces the base environment passed to the child.
func (l *Launcher) WithEnviron(env []string) *Launcher {
	l.environ = env
	return l
}

// WithOutput redirects the child's stdout and stderr.
func (l *Launcher) WithOutput(stdout, stderr io.Writer) *Launcher {
	l.stdout = stdout
	l.stderr = stderr
	return l
}

// WithLogger replaces the logger used for [Server] lines.
func (l *Launcher) WithLogger(logger *log.Logger) *Launcher {
	l.logger = logger
	return l
}

// WithSignals sets the signals forwarded to the child. An empty list
// disables forwarding.
func (l *Launcher) WithSignals(signals ...os.Signal) *Launcher {
	l.signals = signals
	return l
}

// WithReadiness runs fn once the child has started and logs its outcome.
func (l *Launcher) WithReadiness(fn ReadinessFunc) *Launcher {
	l.ready = fn
	return l
}

// Env returns the environment the child runs with.
func (l *Launcher) Env() []string {
	return l.cfg.LauncherEnv(l.environ)
}

// Command builds the child command: NODE_BINARY DIRECTUS_CLI args...
func (l *Launcher) Command(args ...string) *exec.Cmd {
	cmd := exec.Command(l.cfg.NodeBinary, append([]string{l.cfg.DirectusCLI}, args...)...)
	cmd.Env = l.Env()
	cmd.Stdin = l.stdin
	cmd.Stdout = l.stdout
	cmd.Stderr = l.stderr
	return cmd
}

// Bootstrap runs "directus bootstrap" to completion.
func (l *Launcher) Bootstrap(ctx context.Context) error {
	l.logger.Printf("Bootstrapping Directus...")
	code, err := l.run(ctx, "bootstrap")
	if err != nil {
		return err
	}
	if code != 0 {
		return fmt.Errorf("bootstrap exited with code %d", code)
	}
	return nil
}

// Run starts "directus start", forwards signals until it exits and returns
// its exit code. A child that cannot be started yields code 1 and an error.
func (l *Launcher) Run(ctx context.Context) (int, error) {
	l.logger.Printf("Starting Directus on %s:%d...", l.cfg.Host, l.cfg.Port)
	l.logger.Printf("Environment: NODE_ENV=%s", l.cfg.NodeEnv)
	l.logger.Printf("Database Host: %s", l.cfg.DBHost)
	l.logger.Printf("PUBLIC_URL: %s", l.cfg.PublicURL)
	l.logger.Printf("Using Directus CLI script at: %s", l.cfg.DirectusCLI)

	code, err := l.run(ctx, "start")
	if err != nil {
		l.logger.Printf("Failed to start Directus: %v", err)
		return code, err
	}
	l.logger.Printf("Directus process exited with code %d", code)
	return code, nil
}

func (l *Launcher) run(ctx context.Context, args ...string) (int, error) {
	cmd := l.Command(args...)
	if err := cmd.Start(); err != nil {
		return 1, fmt.Errorf("failed to start %s: %w", l.cfg.NodeBinary, err)
	}

	sigs := make(chan os.Signal, 1)
	if len(l.signals) > 0 {
		signal.Notify(sigs, l.signals...)
		defer signal.Stop(sigs)
	}

	done := make(chan struct{})
	defer close(done)

	var wg sync.WaitGroup
	readyCtx, cancelReady := context.WithCancel(ctx)
	if l.ready != nil && len(args) > 0 && args[0] == "start" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.ready(readyCtx); err != nil {
				if readyCtx.Err() == nil {
					l.logger.Printf("Directus did not become ready: %v", err)
				}
				return
			}
			l.logger.Printf("Directus is ready at %s", l.cfg.PublicURL)
		}()
	}
	defer func() {
		cancelReady()
		wg.Wait()
	}()

	go func() {
		for {
			select {
			case sig := <-sigs:
				_ = cmd.Process.Signal(sig)
			case <-ctx.Done():
				_ = cmd.Process.Signal(syscall.SIGTERM)
				return
			case <-done:
				return
			}
		}
	}()

	return exitCode(cmd.Wait())
}

func exitCode(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			return 128 + int(status.Signal()), nil
		}
		return exitErr.ExitCode(), nil
	}
	return 1, err
}
