package ffmpeg

import (
	"context"
	"io"
	"os/exec"
)

// CommandExecutor creates the commands running ffmpeg and ffprobe.
type CommandExecutor interface {
	Command(ctx context.Context, name string, args ...string) Commander
}

// Commander is the subset of exec.Cmd used by the backend.
type Commander interface {
	Start() error
	Wait() error
	Output() ([]byte, error)
	StdoutPipe() (io.ReadCloser, error)
	SetStderr(w io.Writer)
}

type DefaultCommandExecutor struct{}

func (DefaultCommandExecutor) Command(ctx context.Context, name string, args ...string) Commander {
	return &DefaultCommander{
		cmd: exec.CommandContext(ctx, name, args...),
	}
}

// DefaultCommander wraps a real exec.Cmd.
type DefaultCommander struct {
	cmd *exec.Cmd
}

func (c *DefaultCommander) Start() error {
	return c.cmd.Start()
}

func (c *DefaultCommander) Wait() error {
	return c.cmd.Wait()
}

func (c *DefaultCommander) Output() ([]byte, error) {
	return c.cmd.Output()
}

func (c *DefaultCommander) StdoutPipe() (io.ReadCloser, error) {
	return c.cmd.StdoutPipe()
}

func (c *DefaultCommander) SetStderr(w io.Writer) {
	c.cmd.Stderr = w
}

var DefaultExecutor CommandExecutor = DefaultCommandExecutor{}
