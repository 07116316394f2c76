package redis

import (
	"io"
	"sync"

	"github.com/pior/redis/resp"
)

// Pipeline correlates a stream of RESP replies with a queue of outstanding
// commands.
//
// The server processes a connection's commands strictly in order and the
// wire format carries no request IDs, so the N-th reply always resolves the
// N-th command still awaiting one. The pipeline reproduces that contract
// with a FIFO queue: Enqueue appends and writes, Feed pops and resolves.
//
// Enqueue and Feed may be called from different goroutines (typically a
// caller and the connection's read loop); the queue is mutex-protected and
// each command's result slot is single-assignment.
//
// A pipeline is in one of three states: idle (no commands pending), pending,
// or closed. Closed is terminal: every pending command is failed in FIFO
// order and subsequent Enqueue calls fail immediately.
//
// The pipeline itself never blocks waiting for a reply; awaiting results is
// the caller's job via Command.Wait.
type Pipeline struct {
	w io.Writer // transport write side

	mu       sync.Mutex
	dec      resp.Decoder
	pending  []*Command
	closed   bool
	closeErr error
}

// NewPipeline returns a pipeline that writes encoded commands to w.
// Replies must be delivered to Feed by whoever owns the transport's read
// side.
func NewPipeline(w io.Writer) *Pipeline {
	return &Pipeline{w: w}
}

// Enqueue encodes a command, appends it to the pending queue and writes it
// to the transport. The returned command resolves once the matching reply
// arrives or the connection fails.
func (p *Pipeline) Enqueue(args ...string) (*Command, error) {
	cmd := NewCommand(args...)
	if err := p.EnqueueCommand(cmd); err != nil {
		return nil, err
	}
	return cmd, nil
}

// EnqueueCommand appends pre-built commands to the pending queue and writes
// their encoded bytes to the transport in a single call, preserving queue
// order on the wire. Queue append and transport write happen under the same
// lock: if two goroutines could append in one order and write in the other,
// positional correlation would silently ship replies to the wrong commands.
//
// On a write error the pipeline closes: the submitted commands and every
// other pending command fail with the transport error.
func (p *Pipeline) EnqueueCommand(cmds ...*Command) error {
	if len(cmds) == 0 {
		return nil
	}
	for _, cmd := range cmds {
		if len(cmd.wire) == 0 {
			return resp.ErrEmptyCommand
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return p.closeErr
	}

	var wire []byte
	if len(cmds) == 1 {
		wire = cmds[0].wire
	} else {
		size := 0
		for _, cmd := range cmds {
			size += len(cmd.wire)
		}
		wire = make([]byte, 0, size)
		for _, cmd := range cmds {
			wire = append(wire, cmd.wire...)
		}
	}

	p.pending = append(p.pending, cmds...)

	if _, err := p.w.Write(wire); err != nil {
		connErr := &ConnectionError{Op: "write", Err: err}
		p.closeLocked(connErr)
		return connErr
	}
	return nil
}

// Feed delivers bytes received from the transport. Every reply completed by
// this chunk resolves the head of the pending queue, in order.
//
// A parse error or a reply with nothing pending is fatal: the remaining
// pending commands fail, the pipeline closes, and the error is returned so
// the caller can tear down the transport.
func (p *Pipeline) Feed(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return p.closeErr
	}

	values, err := p.dec.Feed(data)
	for _, v := range values {
		if len(p.pending) == 0 {
			p.closeLocked(ErrUnsolicitedReply)
			return ErrUnsolicitedReply
		}
		head := p.pending[0]
		p.pending[0] = nil
		p.pending = p.pending[1:]
		head.resolve(v)
	}
	if err != nil {
		p.closeLocked(err)
		return err
	}
	return nil
}

// Pending returns the number of commands awaiting a reply.
func (p *Pipeline) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Closed reports whether the pipeline reached its terminal state.
func (p *Pipeline) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Close fails all pending commands with ErrClosed and makes the pipeline
// permanently unusable. Closing an already-closed pipeline is a no-op.
func (p *Pipeline) Close() {
	p.CloseWithError(ErrClosed)
}

// CloseWithError fails all pending commands with err, in enqueue order, and
// makes the pipeline permanently unusable. Used by transport owners to
// propagate read-side failures (EOF, resets) to every caller still waiting.
func (p *Pipeline) CloseWithError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closeLocked(err)
}

// closeLocked transitions to the terminal state. Callers hold p.mu.
func (p *Pipeline) closeLocked(err error) {
	if err == nil {
		err = ErrClosed
	}
	p.closed = true
	p.closeErr = err
	for i, cmd := range p.pending {
		cmd.fail(err)
		p.pending[i] = nil
	}
	p.pending = nil
}
