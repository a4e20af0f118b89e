package feedback

import (
	"context"
	"errors"
	"os/exec"
)

// CommandRunner starts external renderer processes and waits for them.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) error
	LookPath(name string) (string, error)
}

// ExecRunner runs commands with os/exec, discarding their output.
type ExecRunner struct{}

var _ CommandRunner = ExecRunner{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.Run()
}

func (ExecRunner) LookPath(name string) (string, error) { return exec.LookPath(name) }

// classify maps a process error to a RenderResult.
func classify(err error) RenderResult {
	switch {
	case err == nil:
		return Rendered
	case errors.Is(err, exec.ErrNotFound):
		return RenderUnavailable
	default:
		return RenderFailed
	}
}
