package resp

import (
	"bytes"
	"errors"
	"io"
	"strconv"
	"sync"
)

// ErrEmptyCommand is returned when a command with no arguments is encoded.
var ErrEmptyCommand = errors.New("resp: command has no arguments")

// Buffer pool for serializing commands.
var bufferPool = sync.Pool{
	New: func() any {
		// Typical command is well under 128 bytes
		return bytes.NewBuffer(make([]byte, 0, 256))
	},
}

func getBuffer() *bytes.Buffer {
	return bufferPool.Get().(*bytes.Buffer)
}

func putBuffer(buf *bytes.Buffer) {
	if buf.Cap() > 1<<16 {
		return // don't pool oversized buffers
	}
	buf.Reset()
	bufferPool.Put(buf)
}

// AppendCommand appends the RESP request encoding of a command to dst and
// returns the extended slice. The encoding is an array of bulk strings:
//
//	*<argc>\r\n ($<len>\r\n<bytes>\r\n)*
//
// Lengths count bytes, not runes, so arguments may carry arbitrary binary
// payloads. Encoding is pure: no I/O, no failure modes beyond the empty
// command.
func AppendCommand(dst []byte, args ...string) []byte {
	dst = append(dst, byte(TypeArray))
	dst = strconv.AppendInt(dst, int64(len(args)), 10)
	dst = append(dst, CRLF...)
	for _, arg := range args {
		dst = append(dst, byte(TypeBulkString))
		dst = strconv.AppendInt(dst, int64(len(arg)), 10)
		dst = append(dst, CRLF...)
		dst = append(dst, arg...)
		dst = append(dst, CRLF...)
	}
	return dst
}

// EncodeCommand returns the RESP request encoding of a command as a fresh
// slice. It returns ErrEmptyCommand for a command with no arguments, which
// has no valid request encoding.
func EncodeCommand(args ...string) ([]byte, error) {
	if len(args) == 0 {
		return nil, ErrEmptyCommand
	}
	return AppendCommand(make([]byte, 0, commandSize(args)), args...), nil
}

// WriteCommand serializes a command and writes it to w in a single Write
// call, so concurrent writers on the same transport cannot interleave
// partial commands.
func WriteCommand(w io.Writer, args ...string) error {
	if len(args) == 0 {
		return ErrEmptyCommand
	}

	buf := getBuffer()
	defer putBuffer(buf)

	buf.WriteByte(byte(TypeArray))
	buf.WriteString(strconv.Itoa(len(args)))
	buf.WriteString(CRLF)
	for _, arg := range args {
		buf.WriteByte(byte(TypeBulkString))
		buf.WriteString(strconv.Itoa(len(arg)))
		buf.WriteString(CRLF)
		buf.WriteString(arg)
		buf.WriteString(CRLF)
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// commandSize returns the exact encoded size of a command.
func commandSize(args []string) int {
	// *N\r\n plus $L\r\n<arg>\r\n per argument
	n := 1 + intLen(len(args)) + len(CRLF)
	for _, arg := range args {
		n += 1 + intLen(len(arg)) + len(CRLF) + len(arg) + len(CRLF)
	}
	return n
}

func intLen(n int) int {
	if n == 0 {
		return 1
	}
	l := 0
	for ; n > 0; n /= 10 {
		l++
	}
	return l
}
