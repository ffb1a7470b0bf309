// Package process runs the downstream survey processor.
package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/aluiziolira/go-survey-build/logging"
)

// ErrNoCommand is returned when the runner has nothing to execute.
var ErrNoCommand = errors.New("process: no command configured")

// ExitError reports a downstream command that ran and exited non-zero.
type ExitError struct {
	Command string
	Code    int
	Err     error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Command, e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode extracts the downstream exit status from err.
func ExitCode(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}

// Runner executes one external command and waits for it.
type Runner struct {
	Command []string
	Dir     string
	Env     []string
	Stdout  io.Writer
	Stderr  io.Writer
}

// NewRunner returns a runner for command that streams to the job's own stdout and stderr.
func NewRunner(command []string) *Runner {
	return &Runner{
		Command: append([]string(nil), command...),
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// String returns the command line.
func (r *Runner) String() string {
	return strings.Join(r.Command, " ")
}

// Run starts the command and blocks until it exits.
func (r *Runner) Run(ctx context.Context) error {
	if len(r.Command) == 0 {
		return ErrNoCommand
	}
	logger := logging.NewLogger("process")

	cmd := exec.CommandContext(ctx, r.Command[0], r.Command[1:]...)
	cmd.Dir = r.Dir
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}

	logger.Info().Str("command", r.String()).Msg("Running downstream processor")
	err := cmd.Run()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		logger.Error().Str("command", r.String()).Int("exit_code", exitErr.ExitCode()).Msg("Downstream processor failed")
		return &ExitError{Command: r.String(), Code: exitErr.ExitCode(), Err: err}
	}
	if err != nil {
		return fmt.Errorf("run %s: %w", r.Command[0], err)
	}
	return nil
}
