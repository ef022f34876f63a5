package ffmpeg

import (
	"bytes"
	"context"
	"io"
	"sync"
)

type fakeCommand struct {
	name   string
	args   []string
	output []byte
	err    error
	stderr string

	stderrWriter io.Writer
	started      bool
	waited       int
}

func (c *fakeCommand) Start() error {
	c.started = true
	return nil
}

func (c *fakeCommand) Wait() error {
	c.waited++
	if c.stderrWriter != nil {
		io.WriteString(c.stderrWriter, c.stderr)
	}
	return c.err
}

func (c *fakeCommand) Output() ([]byte, error) {
	if c.err != nil && c.stderrWriter != nil {
		io.WriteString(c.stderrWriter, c.stderr)
	}
	return c.output, c.err
}

func (c *fakeCommand) StdoutPipe() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(c.output)), nil
}

func (c *fakeCommand) SetStderr(w io.Writer) {
	c.stderrWriter = w
}

// fakeExecutor returns the prepared commands by binary name.
type fakeExecutor struct {
	locker   sync.Mutex
	prepared map[string]*fakeCommand
	issued   []*fakeCommand
}

func (e *fakeExecutor) Command(ctx context.Context, name string, args ...string) Commander {
	e.locker.Lock()
	defer e.locker.Unlock()
	tmpl := e.prepared[name]
	cmd := &fakeCommand{name: name, args: args}
	if tmpl != nil {
		cmd.output = tmpl.output
		cmd.err = tmpl.err
		cmd.stderr = tmpl.stderr
	}
	e.issued = append(e.issued, cmd)
	return cmd
}
