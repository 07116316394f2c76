package resp

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is a single decoded RESP reply.
// This is a low-level container for reply data; fields map directly to
// protocol elements.
//
// A Value is immutable once constructed: the decoder never reuses the byte
// slices it hands out, and callers must not modify them.
//
// Null bulk strings ($-1) and null arrays (*-1) are first-class values,
// distinct from the empty bulk string ($0) and the empty array (*0).
// They carry Null=true.
type Value struct {
	// Type is the wire tag of the value: + - : $ *
	Type Type

	// Null marks a null bulk string or null array.
	Null bool

	// Text holds the payload of simple strings, errors and bulk strings.
	// Nil for null bulk strings; empty but non-nil for $0.
	Text []byte

	// Int holds the payload of integer replies.
	Int int64

	// Elems holds the elements of array replies, in wire order.
	// Nil for null arrays; empty but non-nil for *0.
	Elems []Value
}

// NewSimpleString returns a simple string value (+OK style).
func NewSimpleString(s string) Value {
	return Value{Type: TypeSimpleString, Text: []byte(s)}
}

// NewError returns an error value (-ERR style). The error is data, not a Go
// error: servers report command failures in-band as values of this type.
func NewError(s string) Value {
	return Value{Type: TypeError, Text: []byte(s)}
}

// NewInteger returns an integer value.
func NewInteger(n int64) Value {
	return Value{Type: TypeInteger, Int: n}
}

// NewBulkString returns a bulk string value. A nil slice is normalized to an
// empty (non-null) bulk string; use NullBulkString for the null value.
func NewBulkString(b []byte) Value {
	if b == nil {
		b = []byte{}
	}
	return Value{Type: TypeBulkString, Text: b}
}

// NullBulkString returns the null bulk string ($-1).
func NullBulkString() Value {
	return Value{Type: TypeBulkString, Null: true}
}

// NewArray returns an array value. A nil slice is normalized to an empty
// (non-null) array; use NullArray for the null value.
func NewArray(elems ...Value) Value {
	if elems == nil {
		elems = []Value{}
	}
	return Value{Type: TypeArray, Elems: elems}
}

// NullArray returns the null array (*-1).
func NullArray() Value {
	return Value{Type: TypeArray, Null: true}
}

// IsNull reports whether the value is a null bulk string or null array.
func (v Value) IsNull() bool {
	return v.Null
}

// IsError reports whether the value is an error reply.
func (v Value) IsError() bool {
	return v.Type == TypeError
}

// Str returns the textual payload of simple strings, errors and bulk
// strings. Empty for other types and for null values.
func (v Value) Str() string {
	return string(v.Text)
}

// String renders the value for logs and debugging. Not a wire format.
func (v Value) String() string {
	switch v.Type {
	case TypeSimpleString:
		return string(v.Text)
	case TypeError:
		return "(error) " + string(v.Text)
	case TypeInteger:
		return strconv.FormatInt(v.Int, 10)
	case TypeBulkString:
		if v.Null {
			return "(nil)"
		}
		return strconv.Quote(string(v.Text))
	case TypeArray:
		if v.Null {
			return "(nil array)"
		}
		parts := make([]string, len(v.Elems))
		for i, e := range v.Elems {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, " ") + "]"
	default:
		return fmt.Sprintf("(invalid type %q)", byte(v.Type))
	}
}
