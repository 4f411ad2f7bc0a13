package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// ExecRunner spawns local processes. Output streams pass straight through to
// Stdout/Stderr; the runner only observes the exit status.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
	Dir    string   // working directory, empty means inherit
	Env    []string // extra environment entries appended to the parent's
}

func NewExecRunner() *ExecRunner {
	return &ExecRunner{Stdout: os.Stdout, Stderr: os.Stderr}
}

func (r *ExecRunner) Run(ctx context.Context, program string, args []string) error {
	cmd := exec.CommandContext(ctx, program, args...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	cmd.Dir = r.Dir
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%s exited with status %d", program, exitErr.ExitCode())
		}
		return fmt.Errorf("failed to run %s: %w", program, err)
	}
	return nil
}
