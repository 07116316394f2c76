package redis

import (
	"sync/atomic"
	"time"
)

// PoolStats contains statistics about a connection pool.
// All fields are plain values in a snapshot; collection is atomic.
//
// For Prometheus integration, expose these as:
//   - Gauges: TotalConns, IdleConns, ActiveConns
//   - Counters: AcquireCount, AcquireWaitCount, CreatedConns, DestroyedConns, AcquireErrors
//   - Histogram source: AcquireWaitCount and AcquireWaitTimeNs
type PoolStats struct {
	AcquireCount      uint64 // total acquire attempts
	AcquireWaitCount  uint64 // acquires that had to wait
	CreatedConns      uint64 // total connections created
	DestroyedConns    uint64 // total connections destroyed
	AcquireErrors     uint64 // failed acquire attempts
	AcquireWaitTimeNs uint64 // total nanoseconds spent waiting

	TotalConns  int32 // connections in pool (active + idle)
	IdleConns   int32 // idle connections available
	ActiveConns int32 // connections currently in use
}

// ClientStats contains statistics about client operations.
//
// For Prometheus integration, expose these as counters (with an operation
// label), plus GetHits to derive the hit rate as GetHits/Gets.
type ClientStats struct {
	Gets       uint64 // total Get operations
	GetHits    uint64 // Get operations that found the key
	Sets       uint64 // total Set operations
	Dels       uint64 // total Del operations
	Incrs      uint64 // total Incr/Decr operations
	Errors     uint64 // total errors across all operations
}

// poolStatsCollector accumulates pool stats. The zero value is ready to use
// and safe for concurrent updates.
type poolStatsCollector struct {
	acquireCount      atomic.Uint64
	acquireWaitCount  atomic.Uint64
	createdConns      atomic.Uint64
	destroyedConns    atomic.Uint64
	acquireErrors     atomic.Uint64
	acquireWaitTimeNs atomic.Uint64

	totalConns  atomic.Int32
	idleConns   atomic.Int32
	activeConns atomic.Int32
}

func (c *poolStatsCollector) recordAcquire() {
	c.acquireCount.Add(1)
}

func (c *poolStatsCollector) recordAcquireWait(duration time.Duration) {
	c.acquireWaitCount.Add(1)
	c.acquireWaitTimeNs.Add(uint64(duration.Nanoseconds()))
}

func (c *poolStatsCollector) recordCreate() {
	c.createdConns.Add(1)
	c.totalConns.Add(1)
}

func (c *poolStatsCollector) recordDestroy() {
	c.destroyedConns.Add(1)
	c.totalConns.Add(-1)
}

func (c *poolStatsCollector) recordAcquireError() {
	c.acquireErrors.Add(1)
}

func (c *poolStatsCollector) recordAcquireFromIdle() {
	c.idleConns.Add(-1)
	c.activeConns.Add(1)
}

func (c *poolStatsCollector) recordActivate() {
	c.activeConns.Add(1)
}

func (c *poolStatsCollector) recordRelease() {
	c.idleConns.Add(1)
	c.activeConns.Add(-1)
}

func (c *poolStatsCollector) snapshot() PoolStats {
	return PoolStats{
		AcquireCount:      c.acquireCount.Load(),
		AcquireWaitCount:  c.acquireWaitCount.Load(),
		CreatedConns:      c.createdConns.Load(),
		DestroyedConns:    c.destroyedConns.Load(),
		AcquireErrors:     c.acquireErrors.Load(),
		AcquireWaitTimeNs: c.acquireWaitTimeNs.Load(),
		TotalConns:        c.totalConns.Load(),
		IdleConns:         c.idleConns.Load(),
		ActiveConns:       c.activeConns.Load(),
	}
}

// clientStatsCollector accumulates client operation stats.
type clientStatsCollector struct {
	gets    atomic.Uint64
	getHits atomic.Uint64
	sets    atomic.Uint64
	dels    atomic.Uint64
	incrs   atomic.Uint64
	errors  atomic.Uint64
}

func (c *clientStatsCollector) recordGet(hit bool) {
	c.gets.Add(1)
	if hit {
		c.getHits.Add(1)
	}
}

func (c *clientStatsCollector) recordSet() {
	c.sets.Add(1)
}

func (c *clientStatsCollector) recordDel() {
	c.dels.Add(1)
}

func (c *clientStatsCollector) recordIncr() {
	c.incrs.Add(1)
}

func (c *clientStatsCollector) recordError() {
	c.errors.Add(1)
}

func (c *clientStatsCollector) snapshot() ClientStats {
	return ClientStats{
		Gets:    c.gets.Load(),
		GetHits: c.getHits.Load(),
		Sets:    c.sets.Load(),
		Dels:    c.dels.Load(),
		Incrs:   c.incrs.Load(),
		Errors:  c.errors.Load(),
	}
}
