package shard_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/toybank/ledger/internal/ledger"
	"github.com/toybank/ledger/internal/ledger/shard"
)

func TestRouteIsDeterministic(t *testing.T) {
	for n := 2; n <= 16; n++ {
		for c := ledger.Client(0); c < 500; c++ {
			require.Equal(t, shard.Route(c, n), shard.Route(c, n))
		}
	}
}

func TestRouteSingleLaneAlwaysZero(t *testing.T) {
	require.Equal(t, 0, shard.Route(0, 1))
	require.Equal(t, 0, shard.Route(12345, 1))
	require.Equal(t, 0, shard.Route(1, 0))
}

func TestRouteStaysInRange(t *testing.T) {
	const n = 8
	for c := ledger.Client(0); c < 2000; c++ {
		idx := shard.Route(c, n)
		require.GreaterOrEqual(t, idx, 0)
		require.Less(t, idx, n)
	}
}

func TestRouteDistributesAcrossLanes(t *testing.T) {
	const n = 8
	counts := make(map[int]int, n)
	for c := ledger.Client(0); c < 4096; c++ {
		counts[shard.Route(c, n)]++
	}
	require.Len(t, counts, n, "every lane should receive at least one client across 4096 samples")
}
