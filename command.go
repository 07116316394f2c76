package redis

import (
	"context"

	"github.com/pior/redis/resp"
)

// Command is one in-flight request: its encoded bytes and a
// single-assignment result slot.
//
// A Command is owned by the pipeline that carries it, from enqueue until the
// matching reply (or a connection failure) resolves it. The result slot is
// written exactly once, before the ready channel is closed, so any number of
// goroutines may read it after Wait returns without further synchronization.
type Command struct {
	args []string
	wire []byte // RESP request encoding, built at construction

	ready chan struct{} // closed once the result slot is assigned
	value resp.Value
	err   error
}

// NewCommand builds a command from its arguments, e.g.
// NewCommand("SET", "key", "value"). Encoding happens eagerly; an empty
// argument list yields a command that fails on enqueue.
func NewCommand(args ...string) *Command {
	c := &Command{
		args:  args,
		ready: make(chan struct{}),
	}
	if len(args) > 0 {
		c.wire = resp.AppendCommand(nil, args...)
	}
	return c
}

// Args returns the command's arguments.
func (c *Command) Args() []string {
	return c.args
}

// Name returns the command name (the first argument), or "" for an empty
// command.
func (c *Command) Name() string {
	if len(c.args) == 0 {
		return ""
	}
	return c.args[0]
}

// Wait blocks until the command is resolved or ctx is done.
//
// A ctx error abandons the wait only: the command stays in its pipeline's
// queue and is still matched against the next reply, since positional
// correlation cannot skip entries.
func (c *Command) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-c.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done returns a channel closed when the command is resolved.
func (c *Command) Done() <-chan struct{} {
	return c.ready
}

// Result returns the command's reply after Wait (or Done) reported
// resolution.
//
// Connection-level failures (parse errors, transport errors, close) are
// returned as the error. A server error reply (-ERR style) is returned both
// ways: as the Value and as a ServerError, so callers can treat command
// failures uniformly while still seeing the raw reply.
func (c *Command) Result() (resp.Value, error) {
	if c.err != nil {
		return resp.Value{}, c.err
	}
	if c.value.IsError() {
		return c.value, ServerError(c.value.Str())
	}
	return c.value, nil
}

// resolve assigns the reply to the result slot. Must be called at most once,
// and only by the owning pipeline.
func (c *Command) resolve(v resp.Value) {
	c.value = v
	close(c.ready)
}

// fail assigns a connection-level error to the result slot. Must be called
// at most once, and only by the owning pipeline.
func (c *Command) fail(err error) {
	c.err = err
	close(c.ready)
}
