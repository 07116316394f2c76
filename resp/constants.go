package resp

// Type identifies a RESP value by its wire tag byte.
type Type byte

// RESP2 type tags. The tag is the first byte of every reply token.
const (
	TypeSimpleString Type = '+'
	TypeError        Type = '-'
	TypeInteger      Type = ':'
	TypeBulkString   Type = '$'
	TypeArray        Type = '*'
)

func (t Type) String() string {
	switch t {
	case TypeSimpleString:
		return "simple string"
	case TypeError:
		return "error"
	case TypeInteger:
		return "integer"
	case TypeBulkString:
		return "bulk string"
	case TypeArray:
		return "array"
	default:
		return "invalid"
	}
}

// CRLF is the line terminator for the RESP protocol.
// A bare LF is never valid.
const CRLF = "\r\n"

// Decoder limits, enforced against a hostile or buggy peer.
//
// The Redis protocol itself imposes no nesting or element-count limit; real
// servers cap bulk payloads at 512MB (proto-max-bulk-len). The nesting and
// element caps below are a deliberate hardening choice; replies exceeding
// them fail with a ParseError.
const (
	// MaxBulkLength is the maximum declared length of a single bulk string.
	MaxBulkLength = 512 << 20

	// MaxArrayLength is the maximum declared element count of a single array.
	MaxArrayLength = 1 << 20

	// MaxNestingDepth is the maximum depth of nested arrays in a reply.
	MaxNestingDepth = 128
)
