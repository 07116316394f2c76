package redis

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/pior/redis/resp"
)

// createListener starts a TCP server on a random port and runs handler for
// every accepted connection. Returns the server address.
func createListener(t testing.TB, handler func(conn net.Conn)) string {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to start test server: %v", err)
	}

	t.Cleanup(func() {
		listener.Close()
	})

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}

			go func(c net.Conn) {
				defer c.Close()

				if handler != nil {
					handler(c)
				}
			}(conn)
		}
	}()

	return listener.Addr().String()
}

// replyResponder answers every received command with the same canned reply.
func replyResponder(reply string) func(conn net.Conn) {
	return func(conn net.Conn) {
		var dec resp.Decoder
		buf := make([]byte, 4096)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				return
			}
			values, err := dec.Feed(buf[:n])
			if err != nil {
				return
			}
			for range values {
				if _, err := conn.Write([]byte(reply)); err != nil {
					return
				}
			}
		}
	}
}

// fakeServer is a minimal in-memory redis speaking just enough RESP2 for
// the typed operations under test.
type fakeServer struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeServer(t testing.TB) string {
	fs := &fakeServer{data: make(map[string]string)}
	return createListener(t, fs.handle)
}

func (s *fakeServer) handle(conn net.Conn) {
	var dec resp.Decoder
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		values, err := dec.Feed(buf[:n])
		if err != nil {
			return
		}
		for _, v := range values {
			if _, err := conn.Write(s.dispatch(v)); err != nil {
				return
			}
		}
	}
}

func (s *fakeServer) dispatch(v resp.Value) []byte {
	args := make([]string, len(v.Elems))
	for i, e := range v.Elems {
		args[i] = e.Str()
	}
	if len(args) == 0 {
		return []byte("-ERR protocol error: empty command\r\n")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch strings.ToUpper(args[0]) {
	case "PING":
		return []byte("+PONG\r\n")

	case "GET":
		val, ok := s.data[args[1]]
		if !ok {
			return []byte("$-1\r\n")
		}
		return fmt.Appendf(nil, "$%d\r\n%s\r\n", len(val), val)

	case "SET":
		if strings.Contains(strings.Join(args[3:], " "), "NX") {
			if _, exists := s.data[args[1]]; exists {
				return []byte("$-1\r\n")
			}
		}
		s.data[args[1]] = args[2]
		return []byte("+OK\r\n")

	case "DEL":
		if _, ok := s.data[args[1]]; ok {
			delete(s.data, args[1])
			return []byte(":1\r\n")
		}
		return []byte(":0\r\n")

	case "INCRBY":
		delta, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return []byte("-ERR value is not an integer or out of range\r\n")
		}
		cur, _ := strconv.ParseInt(s.data[args[1]], 10, 64)
		cur += delta
		s.data[args[1]] = strconv.FormatInt(cur, 10)
		return fmt.Appendf(nil, ":%d\r\n", cur)

	case "PEXPIRE":
		if _, ok := s.data[args[1]]; ok {
			return []byte(":1\r\n")
		}
		return []byte(":0\r\n")

	default:
		return fmt.Appendf(nil, "-ERR unknown command '%s'\r\n", args[0])
	}
}
