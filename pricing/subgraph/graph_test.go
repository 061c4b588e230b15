package subgraph_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/malik672/brontes-go/pricing/subgraph"
	"github.com/malik672/brontes-go/types"
)

func flatTVL(types.Address) types.Rational { return types.One }

// TestBuildUnionsDirectAndTwoHopPaths is scenario 5's graph shape: direct
// A-C plus a two-hop A-B-C both exist; Build must union both into the
// subgraph (the oracle, not the subgraph, picks the cheaper one by TVL).
func TestBuildUnionsDirectAndTwoHopPaths(t *testing.T) {
	a, b, c := types.Address{1}, types.Address{2}, types.Address{3}
	universe := []subgraph.PoolInfo{
		{Pool: types.Address{0xA1}, Tokens: [2]types.Address{a, b}},
		{Pool: types.Address{0xA2}, Tokens: [2]types.Address{b, c}},
		{Pool: types.Address{0xA3}, Tokens: [2]types.Address{a, c}},
	}

	g := subgraph.Build(types.NewPair(a, c), universe, flatTVL, 5)

	direct, ok := g.BundleBetween(a, c)
	require.True(t, ok)
	require.Len(t, direct.Pools, 1)

	viaB, ok := g.BundleBetween(a, b)
	require.True(t, ok)
	require.Len(t, viaB.Pools, 1)
}

func TestAddPoolIgnoresUnhelpfulPool(t *testing.T) {
	a, b, c, d := types.Address{1}, types.Address{2}, types.Address{3}, types.Address{4}
	universe := []subgraph.PoolInfo{
		{Pool: types.Address{0xA1}, Tokens: [2]types.Address{a, b}},
	}
	g := subgraph.Build(types.NewPair(a, b), universe, flatTVL, 5)

	// d is disconnected from everything: neither endpoint is in the
	// subgraph, so AddPool must ignore it.
	g.AddPool(subgraph.PoolInfo{Pool: types.Address{0xFF}, Tokens: [2]types.Address{c, d}})
	_, ok := g.BundleBetween(c, d)
	require.False(t, ok)
}

func TestAddPoolJoinsParallelBundle(t *testing.T) {
	a, b := types.Address{1}, types.Address{2}
	universe := []subgraph.PoolInfo{
		{Pool: types.Address{0xA1}, Tokens: [2]types.Address{a, b}},
	}
	g := subgraph.Build(types.NewPair(a, b), universe, flatTVL, 5)

	g.AddPool(subgraph.PoolInfo{Pool: types.Address{0xA2}, Tokens: [2]types.Address{a, b}})

	bundle, ok := g.BundleBetween(a, b)
	require.True(t, ok)
	require.Len(t, bundle.Pools, 2)
}
