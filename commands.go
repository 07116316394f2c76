package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/pior/redis/resp"
)

// Querier is the typed operation surface of Client.
type Querier interface {
	Get(ctx context.Context, key string) ([]byte, error)
	MGet(ctx context.Context, keys ...string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Del(ctx context.Context, key string) error
	Incr(ctx context.Context, key string) (int64, error)
	IncrBy(ctx context.Context, key string, delta int64) (int64, error)
	Decr(ctx context.Context, key string) (int64, error)
	DecrBy(ctx context.Context, key string, delta int64) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Ping(ctx context.Context) error
}

var _ Querier = (*Client)(nil)

// Get retrieves the value of a key. Returns ErrNil if the key does not
// exist.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := c.Do(ctx, key, "GET", key)
	if err != nil {
		c.stats.recordError()
		return nil, err
	}
	if v.IsNull() {
		c.stats.recordGet(false)
		return nil, ErrNil
	}

	c.stats.recordGet(true)
	return v.Text, nil
}

// Set stores a value under key. A ttl of zero stores without expiration;
// otherwise the server expires the key after ttl (millisecond resolution).
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := []string{"SET", key, string(value)}
	if ttl > 0 {
		args = append(args, "PX", strconv.FormatInt(ttl.Milliseconds(), 10))
	}

	v, err := c.Do(ctx, key, args...)
	if err != nil {
		c.stats.recordError()
		return err
	}
	if err := expectOK(v); err != nil {
		c.stats.recordError()
		return err
	}

	c.stats.recordSet()
	return nil
}

// SetNX stores a value only if the key does not already exist. Returns
// whether the value was stored.
func (c *Client) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	args := []string{"SET", key, string(value)}
	if ttl > 0 {
		args = append(args, "PX", strconv.FormatInt(ttl.Milliseconds(), 10))
	}
	args = append(args, "NX")

	v, err := c.Do(ctx, key, args...)
	if err != nil {
		c.stats.recordError()
		return false, err
	}

	// The server replies +OK when stored and a null bulk string when the
	// key already existed.
	if v.IsNull() {
		c.stats.recordSet()
		return false, nil
	}
	if err := expectOK(v); err != nil {
		c.stats.recordError()
		return false, err
	}

	c.stats.recordSet()
	return true, nil
}

// Del removes a key. Deleting a missing key is not an error.
func (c *Client) Del(ctx context.Context, key string) error {
	_, err := c.Do(ctx, key, "DEL", key)
	if err != nil {
		c.stats.recordError()
		return err
	}

	c.stats.recordDel()
	return nil
}

// Incr increments the integer value of key by one, creating it at 0 first
// if missing, and returns the new value.
func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	return c.IncrBy(ctx, key, 1)
}

// IncrBy increments the integer value of key by delta (which may be
// negative) and returns the new value.
func (c *Client) IncrBy(ctx context.Context, key string, delta int64) (int64, error) {
	v, err := c.Do(ctx, key, "INCRBY", key, strconv.FormatInt(delta, 10))
	if err != nil {
		c.stats.recordError()
		return 0, err
	}
	if v.Type != resp.TypeInteger {
		c.stats.recordError()
		return 0, fmt.Errorf("redis: unexpected INCRBY reply %s", v)
	}

	c.stats.recordIncr()
	return v.Int, nil
}

// Decr decrements the integer value of key by one and returns the new
// value.
func (c *Client) Decr(ctx context.Context, key string) (int64, error) {
	return c.IncrBy(ctx, key, -1)
}

// DecrBy decrements the integer value of key by delta and returns the new
// value.
func (c *Client) DecrBy(ctx context.Context, key string, delta int64) (int64, error) {
	return c.IncrBy(ctx, key, -delta)
}

// Expire sets a ttl on an existing key (millisecond resolution). Returns
// whether the key existed.
func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	v, err := c.Do(ctx, key, "PEXPIRE", key, strconv.FormatInt(ttl.Milliseconds(), 10))
	if err != nil {
		c.stats.recordError()
		return false, err
	}
	if v.Type != resp.TypeInteger {
		c.stats.recordError()
		return false, fmt.Errorf("redis: unexpected PEXPIRE reply %s", v)
	}
	return v.Int == 1, nil
}

// Ping checks connectivity to the server selected for the empty key.
func (c *Client) Ping(ctx context.Context) error {
	v, err := c.Do(ctx, "", "PING")
	if err != nil {
		c.stats.recordError()
		return err
	}
	if v.Type != resp.TypeSimpleString || v.Str() != "PONG" {
		c.stats.recordError()
		return fmt.Errorf("redis: unexpected PING reply %s", v)
	}
	return nil
}

// MGet retrieves multiple keys in one round trip per server: keys are
// grouped by owning server and each group is pipelined over a single
// connection.
//
// Results are returned in key order; missing keys yield nil entries.
func (c *Client) MGet(ctx context.Context, keys ...string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	// Group key positions by server.
	groups := make(map[string][]int)
	for i, key := range keys {
		addr := c.addrs[c.selectServer(key, len(c.addrs))]
		groups[addr] = append(groups[addr], i)
	}

	results := make([][]byte, len(keys))
	for addr, positions := range groups {
		sp, err := c.getOrCreatePool(addr)
		if err != nil {
			c.stats.recordError()
			return nil, err
		}

		cmds := make([]*Command, len(positions))
		for i, pos := range positions {
			cmds[i] = NewCommand("GET", keys[pos])
		}

		if err := c.executeBatch(ctx, sp, cmds); err != nil {
			return nil, err
		}

		for i, pos := range positions {
			v, err := cmds[i].Result()
			if err != nil {
				c.stats.recordError()
				return nil, err
			}
			if v.IsNull() {
				c.stats.recordGet(false)
				continue
			}
			c.stats.recordGet(true)
			results[pos] = v.Text
		}
	}

	return results, nil
}

// expectOK verifies a +OK status reply.
func expectOK(v resp.Value) error {
	if v.Type == resp.TypeSimpleString && v.Str() == "OK" {
		return nil
	}
	return fmt.Errorf("redis: unexpected reply %s", v)
}
