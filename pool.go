package redis

import (
	"context"
	"time"
)

// Pool manages a set of connections to one server.
//
// Two implementations ship with the package: NewChannelPool (default, a
// simple channel-based pool) and NewPuddlePool (backed by
// github.com/jackc/puddle).
type Pool interface {
	// Acquire returns a connection resource, creating one if the pool is
	// under its size limit, or waiting for a release otherwise.
	Acquire(ctx context.Context) (Resource, error)

	// AcquireAllIdle removes and returns every idle resource, for health
	// checking. Each returned resource must be released or destroyed.
	AcquireAllIdle() []Resource

	// Close destroys all idle connections and marks the pool closed.
	Close()

	// Stats returns a snapshot of pool statistics.
	Stats() PoolStats
}

// Resource is one pooled connection with its lifecycle bookkeeping.
// Exactly one of Release, ReleaseUnused or Destroy must be called per
// acquisition.
type Resource interface {
	// Value returns the pooled connection.
	Value() *Connection

	// Release returns the connection to the pool and refreshes its
	// last-used time.
	Release()

	// ReleaseUnused returns the connection without refreshing last-used
	// time. Health checks use this so probing doesn't mask real idleness.
	ReleaseUnused()

	// Destroy closes the connection and removes it from the pool.
	Destroy()

	// CreationTime returns when the connection was established.
	CreationTime() time.Time

	// IdleDuration returns how long the connection has been idle.
	IdleDuration() time.Duration
}

// PoolFactory builds a Pool from a connection constructor and a size limit.
type PoolFactory func(constructor func(ctx context.Context) (*Connection, error), maxSize int32) (Pool, error)
