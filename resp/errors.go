package resp

import "errors"

// ParseError reports a malformed reply: an unknown type tag, a non-numeric
// length field, a missing CRLF terminator, or a violated decoder limit.
//
// A ParseError is fatal to the stream. Once a Decoder has returned one, its
// internal position is no longer trustworthy and every subsequent Feed
// returns the same error; the connection must be closed.
type ParseError struct {
	Message string
	Err     error // underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return "resp: " + e.Message + ": " + e.Err.Error()
	}
	return "resp: " + e.Message
}

// Unwrap returns the underlying error for error chain inspection.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// ShouldCloseConnection returns true - a parse error means the stream
// position is corrupted.
func (e *ParseError) ShouldCloseConnection() bool {
	return true
}

// errIncomplete signals that the buffered bytes do not yet contain a full
// frame. It is a retry signal internal to the Decoder and never escapes Feed.
var errIncomplete = errors.New("resp: incomplete frame")
