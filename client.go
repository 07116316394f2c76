package redis

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/pior/redis/resp"
)

// Config holds configuration for the redis client.
type Config struct {
	// Addrs is the list of server addresses ("host:port").
	// Required: must not be empty. Keys are distributed across servers
	// with SelectServer.
	Addrs []string

	// MaxSize is the maximum number of connections per server pool.
	// Required: must be > 0.
	MaxSize int32

	// MaxConnLifetime is the maximum duration a connection can be reused.
	// Zero means no limit.
	MaxConnLifetime time.Duration

	// MaxConnIdleTime is the maximum duration a connection can be idle
	// before being closed. Zero means no limit.
	MaxConnIdleTime time.Duration

	// HealthCheckInterval is how often idle connections are probed with
	// PING. Zero disables health checks.
	HealthCheckInterval time.Duration

	// Dialer is the net.Dialer used to create new connections.
	// If nil, the default net.Dialer is used.
	Dialer *net.Dialer

	// Pool is the connection pool factory.
	// If nil, the channel-based pool is used. For the puddle pool, set
	// Pool: redis.NewPuddlePool.
	Pool PoolFactory

	// SelectServer picks which server handles a key.
	// If nil, DefaultServerSelector (xxh3 + jump hash) is used.
	SelectServer ServerSelector

	// NewCircuitBreaker creates a circuit breaker for a server, called
	// once per address. If nil, no circuit breaker is used.
	NewCircuitBreaker func(serverAddr string) *gobreaker.CircuitBreaker[resp.Value]

	// for testing purposes only
	constructor func(ctx context.Context) (*Connection, error)
}

// serverPool is one server's pool plus its optional circuit breaker.
type serverPool struct {
	addr           string
	pool           Pool
	circuitBreaker *gobreaker.CircuitBreaker[resp.Value] // nil if not configured
}

// Client is a pooled, pipelined redis client. Keys are distributed across
// the configured servers; each server gets a lazily-created connection pool.
type Client struct {
	addrs        []string
	selectServer ServerSelector
	config       Config

	mu    sync.RWMutex
	pools map[string]*serverPool

	stopHealthCheck chan struct{}

	stats clientStatsCollector
}

// NewClient creates a client for the given configuration.
// For a single server: NewClient(Config{Addrs: []string{"localhost:6379"}, MaxSize: 10}).
func NewClient(config Config) (*Client, error) {
	if len(config.Addrs) == 0 {
		return nil, fmt.Errorf("redis: no servers provided")
	}
	if config.MaxSize <= 0 {
		return nil, fmt.Errorf("redis: Config.MaxSize must be > 0")
	}

	if config.SelectServer == nil {
		config.SelectServer = DefaultServerSelector
	}
	if config.Dialer == nil {
		config.Dialer = &net.Dialer{}
	}
	if config.Pool == nil {
		config.Pool = NewChannelPool
	}

	client := &Client{
		addrs:           config.Addrs,
		selectServer:    config.SelectServer,
		config:          config,
		pools:           make(map[string]*serverPool),
		stopHealthCheck: make(chan struct{}),
	}

	if config.HealthCheckInterval > 0 {
		go client.healthCheckLoop()
	}

	return client, nil
}

// Close closes the client and destroys all connections in all pools.
func (c *Client) Close() {
	if c.config.HealthCheckInterval > 0 {
		close(c.stopHealthCheck)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, sp := range c.pools {
		sp.pool.Close()
	}
}

// Do routes a command by key and returns its reply. The key is passed
// separately from the command arguments because server selection needs it
// before the command is sent; for keyless commands pass "".
//
// Server error replies are returned as ServerError; null replies pass
// through as values (typed helpers map them to ErrNil).
func (c *Client) Do(ctx context.Context, key string, args ...string) (resp.Value, error) {
	sp, err := c.getPoolForKey(key)
	if err != nil {
		c.stats.recordError()
		return resp.Value{}, err
	}
	return c.execute(ctx, sp, args...)
}

// getPoolForKey returns the pool for the server that handles key,
// creating it lazily.
func (c *Client) getPoolForKey(key string) (*serverPool, error) {
	addr := c.addrs[c.selectServer(key, len(c.addrs))]
	return c.getOrCreatePool(addr)
}

func (c *Client) getOrCreatePool(addr string) (*serverPool, error) {
	// Fast path: read lock
	c.mu.RLock()
	sp, exists := c.pools[addr]
	c.mu.RUnlock()
	if exists {
		return sp, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock
	if sp, exists := c.pools[addr]; exists {
		return sp, nil
	}

	pool, err := c.createPool(addr)
	if err != nil {
		return nil, err
	}

	sp = &serverPool{
		addr: addr,
		pool: pool,
	}
	if c.config.NewCircuitBreaker != nil {
		sp.circuitBreaker = c.config.NewCircuitBreaker(addr)
	}
	c.pools[addr] = sp
	return sp, nil
}

func (c *Client) createPool(addr string) (Pool, error) {
	constructor := c.config.constructor
	if constructor == nil {
		constructor = func(ctx context.Context) (*Connection, error) {
			netConn, err := c.config.Dialer.DialContext(ctx, "tcp", addr)
			if err != nil {
				return nil, &ConnectionError{Op: "dial", Err: err}
			}
			return NewConnection(netConn), nil
		}
	}

	return c.config.Pool(constructor, c.config.MaxSize)
}

// execute runs one command on the server pool, wrapped with the circuit
// breaker when configured. ServerError replies are reported to the breaker
// as success: the server is healthy, the command was just rejected.
func (c *Client) execute(ctx context.Context, sp *serverPool, args ...string) (resp.Value, error) {
	if sp.circuitBreaker == nil {
		return c.executeDirect(ctx, sp.pool, args...)
	}

	return sp.circuitBreaker.Execute(func() (resp.Value, error) {
		v, err := c.executeDirect(ctx, sp.pool, args...)
		if _, ok := err.(ServerError); ok {
			return v, nil
		}
		return v, err
	})
}

// executeDirect acquires a connection, runs the command and returns the
// connection to the pool, or destroys it when the error poisoned it.
func (c *Client) executeDirect(ctx context.Context, pool Pool, args ...string) (resp.Value, error) {
	resource, err := pool.Acquire(ctx)
	if err != nil {
		c.stats.recordError()
		return resp.Value{}, err
	}

	v, err := resource.Value().Do(ctx, args...)
	if err != nil && ShouldCloseConnection(err) {
		resource.Destroy()
		return resp.Value{}, err
	}

	resource.Release()
	return v, err
}

// executeBatch pipelines several commands on one connection of sp and waits
// for all replies. Commands fail individually; a transport failure fails
// them all via the shared pipeline.
func (c *Client) executeBatch(ctx context.Context, sp *serverPool, cmds []*Command) error {
	resource, err := sp.pool.Acquire(ctx)
	if err != nil {
		c.stats.recordError()
		return err
	}
	conn := resource.Value()

	if err := conn.Send(cmds...); err != nil {
		resource.Destroy()
		return err
	}

	for _, cmd := range cmds {
		if err := cmd.Wait(ctx); err != nil {
			// Abandoned waits leave the commands pending; the connection
			// keeps correlating replies after we hand it back.
			resource.Release()
			return err
		}
	}

	if conn.IsClosed() {
		resource.Destroy()
	} else {
		resource.Release()
	}
	return nil
}

// healthCheckLoop periodically checks idle connections for health and
// lifecycle limits.
func (c *Client) healthCheckLoop() {
	ticker := time.NewTicker(c.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopHealthCheck:
			return
		case <-ticker.C:
			c.checkAllPools()
		}
	}
}

func (c *Client) checkAllPools() {
	c.mu.RLock()
	pools := make([]*serverPool, 0, len(c.pools))
	for _, sp := range c.pools {
		pools = append(pools, sp)
	}
	c.mu.RUnlock()

	for _, sp := range pools {
		c.checkPoolConnections(sp.pool)
	}
}

// checkPoolConnections destroys idle connections that are stale, past their
// lifetime or failing PING.
func (c *Client) checkPoolConnections(pool Pool) {
	now := time.Now()

	for _, res := range pool.AcquireAllIdle() {
		if c.config.MaxConnLifetime > 0 && now.Sub(res.CreationTime()) > c.config.MaxConnLifetime {
			res.Destroy()
			continue
		}

		if c.config.MaxConnIdleTime > 0 && res.IdleDuration() > c.config.MaxConnIdleTime {
			res.Destroy()
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := res.Value().Ping(ctx)
		cancel()
		if err != nil {
			res.Destroy()
			continue
		}

		res.ReleaseUnused()
	}
}

// Stats returns a snapshot of client statistics.
func (c *Client) Stats() ClientStats {
	return c.stats.snapshot()
}

// ServerPoolStats contains stats for a single server pool.
type ServerPoolStats struct {
	Addr                 string
	PoolStats            PoolStats
	CircuitBreakerState  gobreaker.State
	CircuitBreakerCounts gobreaker.Counts
}

// AllPoolStats returns stats for every server pool created so far.
func (c *Client) AllPoolStats() []ServerPoolStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := make([]ServerPoolStats, 0, len(c.pools))
	for _, sp := range c.pools {
		s := ServerPoolStats{
			Addr:      sp.addr,
			PoolStats: sp.pool.Stats(),
		}
		if sp.circuitBreaker != nil {
			s.CircuitBreakerState = sp.circuitBreaker.State()
			s.CircuitBreakerCounts = sp.circuitBreaker.Counts()
		}
		stats = append(stats, s)
	}
	return stats
}
