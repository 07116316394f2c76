package redis

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultServerSelectorSingleServer(t *testing.T) {
	require.Zero(t, DefaultServerSelector("any-key", 1))
	require.Zero(t, DefaultServerSelector("", 1))
}

func TestDefaultServerSelectorRange(t *testing.T) {
	for _, serverCount := range []int{2, 3, 5, 16} {
		for i := 0; i < 1000; i++ {
			idx := DefaultServerSelector(fmt.Sprintf("key-%d", i), serverCount)
			require.GreaterOrEqual(t, idx, 0)
			require.Less(t, idx, serverCount)
		}
	}
}

func TestDefaultServerSelectorDeterministic(t *testing.T) {
	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("key-%d", i)
		require.Equal(t,
			DefaultServerSelector(key, 5),
			DefaultServerSelector(key, 5),
		)
	}
}

func TestDefaultServerSelectorSpreadsKeys(t *testing.T) {
	const serverCount = 4
	const keys = 4000

	counts := make([]int, serverCount)
	for i := 0; i < keys; i++ {
		counts[DefaultServerSelector(fmt.Sprintf("key-%d", i), serverCount)]++
	}

	// Jump hash is close to uniform; allow a generous margin.
	for i, n := range counts {
		require.Greater(t, n, keys/serverCount/2, "server %d starved: %v", i, counts)
	}
}

// Jump consistent hashing moves only ~1/n of keys when a server is added.
func TestDefaultServerSelectorStableOnGrowth(t *testing.T) {
	const keys = 2000

	moved := 0
	for i := 0; i < keys; i++ {
		key := fmt.Sprintf("key-%d", i)
		if DefaultServerSelector(key, 4) != DefaultServerSelector(key, 5) {
			moved++
		}
	}

	require.Less(t, moved, keys/2, "too many keys moved: %d", moved)
}

func TestStaticSelector(t *testing.T) {
	sel := staticSelector(2)
	require.Equal(t, 2, sel("a", 5))
	require.Equal(t, 2, sel("b", 5))
	require.Equal(t, 0, sel("a", 2))
}
