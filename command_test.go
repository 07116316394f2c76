package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pior/redis/resp"
)

func TestCommandNameAndArgs(t *testing.T) {
	cmd := NewCommand("SET", "key", "value")
	require.Equal(t, "SET", cmd.Name())
	require.Equal(t, []string{"SET", "key", "value"}, cmd.Args())

	empty := NewCommand()
	require.Equal(t, "", empty.Name())
}

func TestCommandWaitContextCancel(t *testing.T) {
	cmd := NewCommand("GET", "a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, cmd.Wait(ctx), context.Canceled)

	// An abandoned wait does not consume the result: the command can still
	// resolve and be read afterwards.
	cmd.resolve(resp.NewSimpleString("OK"))
	require.NoError(t, cmd.Wait(context.Background()))

	v, err := cmd.Result()
	require.NoError(t, err)
	require.Equal(t, "OK", v.Str())
}

func TestCommandWaitTimeout(t *testing.T) {
	cmd := NewCommand("GET", "a")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, cmd.Wait(ctx), context.DeadlineExceeded)
}

func TestCommandDone(t *testing.T) {
	cmd := NewCommand("PING")

	select {
	case <-cmd.Done():
		t.Fatal("command resolved before any reply")
	default:
	}

	cmd.resolve(resp.NewSimpleString("PONG"))
	select {
	case <-cmd.Done():
	case <-time.After(time.Second):
		t.Fatal("Done channel not closed after resolve")
	}
}

func TestCommandResultServerError(t *testing.T) {
	cmd := NewCommand("GET")
	cmd.resolve(resp.NewError("ERR wrong number of arguments for 'get' command"))

	v, err := cmd.Result()
	require.Equal(t, ServerError("ERR wrong number of arguments for 'get' command"), err)
	require.True(t, v.IsError())
	require.Equal(t, "ERR wrong number of arguments for 'get' command", v.Str())
}

func TestCommandResultConnectionError(t *testing.T) {
	cmd := NewCommand("GET", "a")
	connErr := &ConnectionError{Op: "read", Err: ErrClosed}
	cmd.fail(connErr)

	require.NoError(t, cmd.Wait(context.Background()))
	_, err := cmd.Result()
	require.Equal(t, connErr, err)
}
