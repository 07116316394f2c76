// Package resp provides a low-level wire protocol implementation for the
// Redis Serialization Protocol, version 2 (RESP2).
//
// This package serves as a foundation for building higher-level redis clients
// with different properties (pipelining, connection pooling, batching, etc.).
// It focuses on correctness and performance for serialization and parsing,
// without imposing architectural decisions on clients.
//
// # Core Types
//
// Value is a pure data container for one decoded reply:
//
//   - simple strings (+OK), errors (-ERR ...), integers (:42)
//   - bulk strings ($5hello), including the null bulk string ($-1)
//   - arrays (*2...), including the null array (*-1), nested to any depth
//
// # Decoding
//
// Decoder is a resumable push-style parser. Feed it bytes as they arrive
// from the transport, in fragments of any size:
//
//	var dec resp.Decoder
//	for {
//	    n, err := conn.Read(buf)
//	    if err != nil { ... }
//	    values, err := dec.Feed(buf[:n])
//	    if err != nil {
//	        conn.Close() // parse errors are fatal to the stream
//	        return err
//	    }
//	    for _, v := range values {
//	        ...
//	    }
//	}
//
// The decoder never blocks and performs no I/O of its own, so it can be
// driven from a blocking reader goroutine or from an event loop.
//
// # Encoding
//
// Requests are arrays of bulk strings. AppendCommand builds the exact wire
// encoding, WriteCommand sends it in a single write:
//
//	err := resp.WriteCommand(conn, "SET", "key", "value")
//
// # Error Handling
//
// A reply of type TypeError (e.g. -ERR unknown command) is data, not a Go
// error: the stream stays healthy and the connection can be reused. The only
// Go error produced by decoding is *ParseError, which means the stream
// position is corrupted and the connection must be closed.
//
// # Limits
//
// The decoder bounds bulk string length, array element counts and array
// nesting depth (see MaxBulkLength, MaxArrayLength, MaxNestingDepth) so a
// hostile or buggy peer cannot grow memory without bound. Replies exceeding
// a limit fail with a ParseError.
//
// # Thread Safety
//
// Values are immutable once constructed and safe to share. A Decoder is
// single-owner: it must be driven from one goroutine at a time.
package resp
