package redis

import (
	"github.com/pior/redis/internal"
	"github.com/zeebo/xxh3"
)

// ServerSelector picks which server handles a given key. It receives the key
// and the number of configured servers and returns an index into the server
// list.
//
// Keyless commands (PING, FLUSHALL, ...) are routed with an empty key.
type ServerSelector func(key string, serverCount int) int

// DefaultServerSelector hashes the key with xxh3 and maps it to a server
// with Jump consistent hashing, which moves few keys when servers are added
// or removed. A single server is returned directly.
func DefaultServerSelector(key string, serverCount int) int {
	if serverCount == 1 {
		return 0
	}
	return internal.JumpHash(xxh3.HashString(key), serverCount)
}

// staticSelector always selects the same server. Used in tests.
func staticSelector(index int) ServerSelector {
	return func(key string, serverCount int) int {
		return index % serverCount
	}
}
