package resp

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

// frame is one decoded but not yet aggregate-reassembled protocol token:
// a scalar, a bulk string, or an array header.
type frame struct {
	typ  Type
	line []byte // simple string / error payload
	n    int64  // integer payload, or declared bulk length / array arity
	bulk []byte // bulk string payload
	null bool   // $-1 or *-1
}

// Decoder assembles a RESP reply stream into complete Values.
//
// The decoder is a resumable state machine: bytes can be fed in fragments of
// any size, split at any boundary, and the decoder retains whatever partial
// token or partially-collected array it is in the middle of until later
// feeds complete it. It performs no I/O and never blocks, so it can be
// driven from a blocking read loop or an event loop alike.
//
// A Decoder must not be used concurrently from multiple goroutines.
// The zero value is ready to use.
type Decoder struct {
	buf []byte // unconsumed tail of the stream
	off int    // consumed prefix of buf

	// stack of arrays still collecting their elements, outermost first
	stack []collecting

	err error // sticky fatal error
}

type collecting struct {
	remaining int
	elems     []Value
}

// Feed appends p to the decoder's buffer and returns every reply that is now
// complete, in wire order. A call may return zero values (nothing completed
// yet), several (a burst of small replies in one read), or values plus an
// error (replies that completed before the stream turned bad).
//
// Any returned error is a *ParseError and is permanent: the decoder keeps
// returning it and the connection must be closed.
func (d *Decoder) Feed(p []byte) ([]Value, error) {
	if d.err != nil {
		return nil, d.err
	}
	d.buf = append(d.buf, p...)

	var out []Value
	for {
		v, ok, err := d.next()
		if err != nil {
			d.err = err
			d.buf = nil
			d.off = 0
			d.stack = nil
			return out, err
		}
		if !ok {
			break
		}
		out = append(out, v)
	}
	d.compact()
	return out, nil
}

// Buffered returns the number of bytes received but not yet consumed by a
// complete frame.
func (d *Decoder) Buffered() int {
	return len(d.buf) - d.off
}

// Depth returns the number of arrays currently collecting elements.
func (d *Decoder) Depth() int {
	return len(d.stack)
}

// Reset discards all buffered bytes, open aggregates and any sticky error,
// returning the decoder to its initial state.
func (d *Decoder) Reset() {
	d.buf = d.buf[:0]
	d.off = 0
	d.stack = nil
	d.err = nil
}

// next decodes frames until one top-level value completes.
// ok is false when the buffer ran out mid-token; the partial state is kept
// for the following Feed.
func (d *Decoder) next() (Value, bool, error) {
	for {
		f, size, err := decodeFrame(d.buf[d.off:])
		if err == errIncomplete {
			return Value{}, false, nil
		}
		if err != nil {
			return Value{}, false, err
		}
		d.off += size

		var v Value
		switch f.typ {
		case TypeArray:
			switch {
			case f.null:
				v = NullArray()
			case f.n == 0:
				v = NewArray()
			default:
				// Header of a non-empty array: open a collecting frame and
				// keep decoding; its elements arrive as subsequent frames.
				if len(d.stack) >= MaxNestingDepth {
					return Value{}, false, &ParseError{Message: "array nesting exceeds " + strconv.Itoa(MaxNestingDepth)}
				}
				d.stack = append(d.stack, collecting{
					remaining: int(f.n),
					elems:     make([]Value, 0, min(int(f.n), 32)),
				})
				continue
			}
		case TypeSimpleString:
			v = Value{Type: TypeSimpleString, Text: f.line}
		case TypeError:
			v = Value{Type: TypeError, Text: f.line}
		case TypeInteger:
			v = Value{Type: TypeInteger, Int: f.n}
		case TypeBulkString:
			if f.null {
				v = NullBulkString()
			} else {
				v = Value{Type: TypeBulkString, Text: f.bulk}
			}
		}

		// Deliver v to the innermost open array, popping arrays as they
		// fill. A popped array is delivered exactly like a scalar, which
		// handles arbitrarily deep nesting without recursion.
		for {
			if len(d.stack) == 0 {
				return v, true, nil
			}
			top := &d.stack[len(d.stack)-1]
			top.elems = append(top.elems, v)
			top.remaining--
			if top.remaining > 0 {
				break
			}
			v = Value{Type: TypeArray, Elems: top.elems}
			d.stack = d.stack[:len(d.stack)-1]
		}
	}
}

// compact reclaims the consumed prefix of the buffer. Cheap cases first:
// fully consumed buffers reslice, large consumed prefixes shift the tail.
func (d *Decoder) compact() {
	if d.off == 0 {
		return
	}
	if d.off == len(d.buf) {
		d.buf = d.buf[:0]
		d.off = 0
		return
	}
	if d.off > 4096 {
		d.buf = append(d.buf[:0], d.buf[d.off:]...)
		d.off = 0
	}
}

// decodeFrame extracts exactly one frame from the head of b, returning the
// frame and the number of bytes it spans. errIncomplete means b does not yet
// hold a full frame and nothing was consumed; any other error is a
// *ParseError.
//
// Payload slices are copied out of b so callers may keep them after the
// buffer is reused.
func decodeFrame(b []byte) (frame, int, error) {
	if len(b) == 0 {
		return frame{}, 0, errIncomplete
	}

	tag := Type(b[0])
	switch tag {
	case TypeSimpleString, TypeError:
		line, size, err := readLine(b[1:])
		if err != nil {
			return frame{}, 0, err
		}
		return frame{typ: tag, line: bytes.Clone(line)}, 1 + size, nil

	case TypeInteger:
		line, size, err := readLine(b[1:])
		if err != nil {
			return frame{}, 0, err
		}
		n, err := parseInt(line)
		if err != nil {
			return frame{}, 0, &ParseError{Message: "invalid integer reply", Err: err}
		}
		return frame{typ: tag, n: n}, 1 + size, nil

	case TypeBulkString:
		line, size, err := readLine(b[1:])
		if err != nil {
			return frame{}, 0, err
		}
		n, err := parseInt(line)
		if err != nil {
			return frame{}, 0, &ParseError{Message: "invalid bulk string length", Err: err}
		}
		if n == -1 {
			return frame{typ: tag, null: true}, 1 + size, nil
		}
		if n < 0 || n > MaxBulkLength {
			return frame{}, 0, &ParseError{Message: "bulk string length out of range: " + strconv.FormatInt(n, 10)}
		}
		total := 1 + size + int(n) + len(CRLF)
		if len(b) < total {
			return frame{}, 0, errIncomplete
		}
		if b[total-2] != '\r' || b[total-1] != '\n' {
			return frame{}, 0, &ParseError{Message: "bulk string payload missing CRLF terminator"}
		}
		payload := b[1+size : 1+size+int(n)]
		return frame{typ: tag, bulk: bytes.Clone(payload)}, total, nil

	case TypeArray:
		line, size, err := readLine(b[1:])
		if err != nil {
			return frame{}, 0, err
		}
		n, err := parseInt(line)
		if err != nil {
			return frame{}, 0, &ParseError{Message: "invalid array length", Err: err}
		}
		if n == -1 {
			return frame{typ: tag, null: true}, 1 + size, nil
		}
		if n < 0 || n > MaxArrayLength {
			return frame{}, 0, &ParseError{Message: "array length out of range: " + strconv.FormatInt(n, 10)}
		}
		return frame{typ: tag, n: n}, 1 + size, nil

	default:
		return frame{}, 0, &ParseError{Message: fmt.Sprintf("unknown type tag %q", b[0])}
	}
}

// readLine returns the payload of the CRLF-terminated line at the head of b
// and the number of bytes it spans including the terminator. The returned
// slice aliases b.
func readLine(b []byte) ([]byte, int, error) {
	i := bytes.IndexByte(b, '\n')
	if i == -1 {
		return nil, 0, errIncomplete
	}
	if i == 0 || b[i-1] != '\r' {
		return nil, 0, &ParseError{Message: "line terminated by bare LF"}
	}
	return b[:i-1], i + 1, nil
}

// parseInt parses a RESP length or integer field: an optional leading minus
// followed by decimal digits. Leading plus signs and embedded whitespace are
// rejected, unlike strconv's defaults.
func parseInt(line []byte) (int64, error) {
	digits := line
	if len(digits) > 0 && digits[0] == '-' {
		digits = digits[1:]
	}
	if len(digits) == 0 {
		return 0, errors.New("empty number")
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("non-numeric byte %q", c)
		}
	}
	return strconv.ParseInt(string(line), 10, 64)
}
