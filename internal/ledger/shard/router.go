// Package shard implements the sharded execution pipeline: the Router that
// partitions clients across lanes, the Lane that serializes one shard's
// events, and the Dispatcher that feeds lanes the events submitted to it.
package shard

import "github.com/toybank/ledger/internal/ledger"

// Reference LCG mixing constants (Numerical Recipes multiplier/increment).
const (
	mixC1 = 1013904223
	mixC2 = 1664525
)

// Route maps a client to a lane index in [0, n). It is deterministic
// (identical clients always land in the same lane within one run) and
// distributes uniformly across small positive n for the 16-bit client
// space, via a multiplicative integer hash followed by a Lemire-style
// range reduction ((h * n) >> 32).
func Route(client ledger.Client, n int) int {
	if n <= 1 {
		return 0
	}
	h := uint32(client) + mixC1
	h *= mixC2
	return int((uint64(h) * uint64(n)) >> 32)
}
