package execx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
)

// OSRunner implements Runner using real child processes
type OSRunner struct {
	ctx    context.Context
	stdout io.Writer
	logger *slog.Logger
}

// NewOSRunner creates a new OSRunner. Child stdout is forwarded to stdout
// (use io.Discard to hide it); stderr is captured for error messages.
func NewOSRunner(stdout io.Writer, logger *slog.Logger) *OSRunner {
	if stdout == nil {
		stdout = io.Discard
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &OSRunner{
		ctx:    context.Background(),
		stdout: stdout,
		logger: logger,
	}
}

// WithContext returns a new runner bound to ctx
func (r *OSRunner) WithContext(ctx context.Context) Runner {
	return &OSRunner{
		ctx:    ctx,
		stdout: r.stdout,
		logger: r.logger,
	}
}

// Run executes cmd and waits for it to exit
func (r *OSRunner) Run(cmd Command) error {
	execCmd := r.command(cmd)

	var stderr bytes.Buffer
	execCmd.Stdout = r.stdout
	execCmd.Stderr = &stderr

	r.logger.Debug("running command", "cmd", cmd.String(), "dir", cmd.Dir)
	if err := execCmd.Run(); err != nil {
		return failure(cmd, err, stderr.String())
	}
	return nil
}

// Output executes cmd and returns its trimmed stdout
func (r *OSRunner) Output(cmd Command) (string, error) {
	execCmd := r.command(cmd)

	var out, stderr bytes.Buffer
	execCmd.Stdout = &out
	execCmd.Stderr = &stderr

	r.logger.Debug("running command", "cmd", cmd.String(), "dir", cmd.Dir)
	if err := execCmd.Run(); err != nil {
		return "", failure(cmd, err, stderr.String())
	}
	return strings.TrimSpace(out.String()), nil
}

// LookPath resolves name against PATH
func (r *OSRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

func (r *OSRunner) command(cmd Command) *exec.Cmd {
	execCmd := exec.CommandContext(r.ctx, cmd.Name, cmd.Args...)
	execCmd.Dir = cmd.Dir
	return execCmd
}

func failure(cmd Command, err error, stderr string) error {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return fmt.Errorf("%w: %s: %w", ErrCommandFailed, cmd, err)
	}
	return fmt.Errorf("%w: %s: %w: %s", ErrCommandFailed, cmd, err, stderr)
}
