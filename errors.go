package redis

import (
	"errors"
	"fmt"

	"github.com/pior/redis/resp"
)

var (
	// ErrClosed is returned when an operation is attempted on a closed
	// connection, pipeline or client. Closed is terminal: no operation
	// can revive the instance.
	ErrClosed = errors.New("redis: closed")

	// ErrNil is returned by typed operations when the server replies with
	// a null bulk string or null array, e.g. GET on a missing key.
	ErrNil = errors.New("redis: nil reply")

	// ErrUnsolicitedReply is returned when the server emits a reply while
	// no command is awaiting one. Replies correlate to commands purely by
	// position, so an unsolicited reply means the stream can no longer be
	// matched to anything and the connection must be closed.
	ErrUnsolicitedReply = errors.New("redis: unsolicited reply from server")
)

// ServerError is an error reply sent by the server (-ERR style). The
// connection protocol state is intact: the command failed, the stream did
// not.
type ServerError string

func (e ServerError) Error() string {
	return "redis: server error: " + string(e)
}

// ShouldCloseConnection returns false - server errors don't corrupt the
// stream.
func (e ServerError) ShouldCloseConnection() bool {
	return false
}

// ConnectionError wraps underlying I/O errors from transport operations.
// Used to distinguish network issues from protocol errors.
type ConnectionError struct {
	Op  string // operation that failed: dial, read, write
	Err error  // underlying error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("redis: connection error during %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chain inspection.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ShouldCloseConnection returns true - the connection is already broken.
func (e *ConnectionError) ShouldCloseConnection() bool {
	return true
}

// ErrorWithConnectionState is implemented by errors that know whether the
// connection they came from is still usable.
type ErrorWithConnectionState interface {
	error
	ShouldCloseConnection() bool
}

var _ ErrorWithConnectionState = (*resp.ParseError)(nil)
var _ ErrorWithConnectionState = (*ConnectionError)(nil)
var _ ErrorWithConnectionState = ServerError("")

// ShouldCloseConnection reports whether an error requires discarding the
// connection it occurred on.
//
// Returns false for nil, ErrNil and ServerError; true for ParseError,
// ConnectionError, ErrUnsolicitedReply and anything unknown (conservative
// default).
func ShouldCloseConnection(err error) bool {
	if err == nil || errors.Is(err, ErrNil) {
		return false
	}

	var e ErrorWithConnectionState
	if errors.As(err, &e) {
		return e.ShouldCloseConnection()
	}

	return true
}
