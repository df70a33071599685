// Package executor runs external commands with output capture, bounded
// retries, and context-aware cancellation. It backs the artifact builder and
// the system stage's service instances, which need both run-to-completion and
// start/stop semantics.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// Result holds the output and exit status of a completed command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Output returns stdout and stderr concatenated, trimmed. Useful for error
// messages where the split does not matter.
func (r *Result) Output() string {
	return strings.TrimSpace(r.Stdout + "\n" + r.Stderr)
}

// Command describes one external command invocation.
type Command struct {
	Program string
	Args    []string

	// WorkingDir, when set, overrides the process working directory.
	WorkingDir string

	// Env is appended to the current environment.
	Env map[string]string

	// Retries is the number of additional attempts after a failure.
	// RetryDelay is the fixed wait between attempts.
	Retries    int
	RetryDelay time.Duration
}

// Process is a handle to a started, long-running command.
type Process interface {
	// Wait blocks until the process exits.
	Wait() error
	// Stop terminates the process: SIGTERM first, SIGKILL after the grace
	// period or when ctx expires. Safe to call more than once.
	Stop(ctx context.Context, grace time.Duration) error
}

// Runner executes external commands.
type Runner interface {
	// Run executes cmd to completion and captures its output. The returned
	// Result is non-nil whenever the command actually started, so callers can
	// report output even on failure.
	Run(ctx context.Context, cmd Command) (*Result, error)
	// Start launches cmd without waiting for it to exit.
	Start(ctx context.Context, cmd Command) (Process, error)
}

// Local runs commands on the local host via os/exec.
type Local struct{}

// NewLocal creates a Local runner.
func NewLocal() *Local {
	return &Local{}
}

var _ Runner = (*Local)(nil)

// Run implements Runner.
func (l *Local) Run(ctx context.Context, cmd Command) (*Result, error) {
	attempts := cmd.Retries + 1

	var lastResult *Result
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastResult, lastErr = l.runOnce(ctx, cmd)
		if lastErr == nil {
			return lastResult, nil
		}
		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return lastResult, fmt.Errorf("cancelled between attempts: %w", ctx.Err())
		case <-time.After(cmd.RetryDelay):
		}
	}

	return lastResult, lastErr
}

func (l *Local) runOnce(ctx context.Context, cmd Command) (*Result, error) {
	c := exec.CommandContext(ctx, cmd.Program, cmd.Args...)
	configure(c, cmd)

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode(err),
	}

	if err != nil {
		return result, fmt.Errorf("%s: %w", cmd.Program, err)
	}
	return result, nil
}

// Start implements Runner.
func (l *Local) Start(ctx context.Context, cmd Command) (Process, error) {
	c := exec.CommandContext(ctx, cmd.Program, cmd.Args...)
	configure(c, cmd)

	var output bytes.Buffer
	c.Stdout = &output
	c.Stderr = &output

	if err := c.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", cmd.Program, err)
	}

	p := &localProcess{cmd: c, output: &output, done: make(chan struct{})}
	go func() {
		p.waitErr = c.Wait()
		close(p.done)
	}()
	return p, nil
}

type localProcess struct {
	cmd     *exec.Cmd
	output  *bytes.Buffer
	done    chan struct{}
	waitErr error
}

func (p *localProcess) Wait() error {
	<-p.done
	return p.waitErr
}

func (p *localProcess) Stop(ctx context.Context, grace time.Duration) error {
	select {
	case <-p.done:
		return nil // already exited
	default:
	}

	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		// Process may have exited between the check and the signal.
		if errors.Is(err, os.ErrProcessDone) {
			return nil
		}
		return fmt.Errorf("signal: %w", err)
	}

	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-p.done:
		return nil
	case <-timer.C:
	case <-ctx.Done():
	}

	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill: %w", err)
	}
	<-p.done
	return nil
}

func configure(c *exec.Cmd, cmd Command) {
	if cmd.WorkingDir != "" {
		c.Dir = cmd.WorkingDir
	}
	if len(cmd.Env) > 0 {
		c.Env = os.Environ()
		for k, v := range cmd.Env {
			c.Env = append(c.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &exitErr):
		return exitErr.ExitCode()
	default:
		return -1
	}
}
