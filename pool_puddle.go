package redis

import (
	"context"

	"github.com/jackc/puddle/v2"
)

// NewPuddlePool creates a connection pool backed by github.com/jackc/puddle.
// Compared to the channel pool it queues waiters fairly and supports
// cancellation while constructing connections.
func NewPuddlePool(constructor func(ctx context.Context) (*Connection, error), maxSize int32) (Pool, error) {
	p := &puddlePool{}

	pool, err := puddle.NewPool(&puddle.Config[*Connection]{
		Constructor: func(ctx context.Context) (*Connection, error) {
			conn, err := constructor(ctx)
			if err == nil {
				p.stats.recordCreate()
			}
			return conn, err
		},
		Destructor: func(c *Connection) {
			p.stats.recordDestroy()
			_ = c.Close()
		},
		MaxSize: maxSize,
	})
	if err != nil {
		return nil, err
	}
	p.pool = pool
	return p, nil
}

// puddlePool adapts puddle.Pool to the Pool interface.
// puddle's Resource already satisfies Resource, so acquisitions pass
// through untouched.
type puddlePool struct {
	pool  *puddle.Pool[*Connection]
	stats poolStatsCollector
}

func (p *puddlePool) Acquire(ctx context.Context) (Resource, error) {
	p.stats.recordAcquire()
	res, err := p.pool.Acquire(ctx)
	if err != nil {
		p.stats.recordAcquireError()
		return nil, err
	}
	return res, nil
}

func (p *puddlePool) AcquireAllIdle() []Resource {
	puddleResources := p.pool.AcquireAllIdle()
	resources := make([]Resource, len(puddleResources))
	for i, res := range puddleResources {
		resources[i] = res
	}
	return resources
}

func (p *puddlePool) Close() {
	p.pool.Close()
}

func (p *puddlePool) Stats() PoolStats {
	puddleStats := p.pool.Stat()
	stats := p.stats.snapshot()
	stats.TotalConns = puddleStats.TotalResources()
	stats.IdleConns = puddleStats.IdleResources()
	stats.ActiveConns = puddleStats.AcquiredResources()
	stats.AcquireCount = uint64(puddleStats.AcquireCount())
	stats.AcquireWaitTimeNs = uint64(puddleStats.AcquireDuration().Nanoseconds())
	return stats
}
