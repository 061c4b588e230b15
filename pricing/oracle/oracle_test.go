package oracle_test

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/malik672/brontes-go/poolstate"
	"github.com/malik672/brontes-go/pricing/oracle"
	"github.com/malik672/brontes-go/pricing/subgraph"
	"github.com/malik672/brontes-go/types"
)

func equalReservesState(tokenA, tokenB types.Address, reserve uint64) *poolstate.State {
	return &poolstate.State{
		Tokens:   []types.Address{tokenA, tokenB},
		Reserves: []*uint256.Int{uint256.NewInt(reserve), uint256.NewInt(reserve)},
	}
}

// TestPricingTriangleChoosesDeeperTwoHopPath is scenario 5 from spec.md §8:
// a direct A-C pool competes with a two-hop A-B-C route; the two-hop route
// has far more combined liquidity (TVL 100 and 10 against a direct pool's
// 2), so Dijkstra's cost (1/tvl) favors it even though it has
// more hops. All pools price 1:1, so the returned price is exactly 1
// regardless of which path wins.
func TestPricingTriangleChoosesDeeperTwoHopPath(t *testing.T) {
	a, b, c := types.Address{1}, types.Address{2}, types.Address{3}
	poolAB, poolBC, poolAC := types.Address{0xA1}, types.Address{0xA2}, types.Address{0xA3}

	universe := []subgraph.PoolInfo{
		{Pool: poolAB, Tokens: [2]types.Address{a, b}},
		{Pool: poolBC, Tokens: [2]types.Address{b, c}},
		{Pool: poolAC, Tokens: [2]types.Address{a, c}},
	}
	flatTVL := func(types.Address) types.Rational { return types.One }
	g := subgraph.Build(types.NewPair(a, c), universe, flatTVL, 5)

	states := map[types.Address]*poolstate.State{
		poolAB: equalReservesState(a, b, 50),  // tvl_u = 100
		poolBC: equalReservesState(b, c, 5),   // tvl_u = 10
		poolAC: equalReservesState(a, c, 1),   // tvl_u = 2, far shallower
	}

	price, ok := oracle.Price(g, states)
	require.True(t, ok)
	require.True(t, price.Equal(types.One), "got %s", price.String())
}

// TestParallelPoolsBundleMean is scenario 6 from spec.md §8: two parallel
// A-B pools with TVLs 100 and 300 and prices 1.0 and 1.04 bundle to an
// effective price of exactly (1*100 + 1.04*300)/400 = 1.03.
func TestParallelPoolsBundleMean(t *testing.T) {
	a, b := types.Address{1}, types.Address{2}
	pool1, pool2 := types.Address{0xB1}, types.Address{0xB2}

	universe := []subgraph.PoolInfo{
		{Pool: pool1, Tokens: [2]types.Address{a, b}},
	}
	flatTVL := func(types.Address) types.Rational { return types.One }
	g := subgraph.Build(types.NewPair(a, b), universe, flatTVL, 5)
	g.AddPool(subgraph.PoolInfo{Pool: pool2, Tokens: [2]types.Address{a, b}})

	// pool1: reserves(a=50, b=50) => price(a)=1, tvl_u=100
	// pool2: reserves(a=150, b=156) chosen so price(a)=b/a=1.04 and
	// t0+t1=150+150=300; exact integers used so the invariant check is exact
	// rational arithmetic, not a float approximation.
	states := map[types.Address]*poolstate.State{
		pool1: equalReservesState(a, b, 50),
		pool2: {
			Tokens:   []types.Address{a, b},
			Reserves: []*uint256.Int{uint256.NewInt(150), uint256.NewInt(156)}, // price(a) = 156/150 = 1.04
		},
	}

	price, ok := oracle.Price(g, states)
	require.True(t, ok)
	// (1*100 + 1.04*300) / 400 = 1.03 exactly.
	require.Equal(t, types.NewRational(103, 100).String(), price.String())
}

// TestPriceSymmetry checks spec.md §8's invariant: price(A,B)*price(B,A)==1
// exactly, for a direct single-pool subgraph in both directions.
func TestPriceSymmetry(t *testing.T) {
	a, b := types.Address{1}, types.Address{2}
	pool := types.Address{0xC1}
	universe := []subgraph.PoolInfo{{Pool: pool, Tokens: [2]types.Address{a, b}}}
	flatTVL := func(types.Address) types.Rational { return types.One }

	states := map[types.Address]*poolstate.State{
		pool: {Tokens: []types.Address{a, b}, Reserves: []*uint256.Int{uint256.NewInt(30), uint256.NewInt(90)}},
	}

	gAB := subgraph.Build(types.NewPair(a, b), universe, flatTVL, 5)
	priceAB, ok := oracle.Price(gAB, states)
	require.True(t, ok)

	gBA := subgraph.Build(types.NewPair(b, a), universe, flatTVL, 5)
	priceBA, ok := oracle.Price(gBA, states)
	require.True(t, ok)

	require.True(t, priceAB.Mul(priceBA).Equal(types.One))
}

func TestPriceUnreachableReturnsFalse(t *testing.T) {
	a, b, c := types.Address{1}, types.Address{2}, types.Address{3}
	universe := []subgraph.PoolInfo{{Pool: types.Address{0xD1}, Tokens: [2]types.Address{a, b}}}
	flatTVL := func(types.Address) types.Rational { return types.One }
	g := subgraph.Build(types.NewPair(a, c), universe, flatTVL, 5)

	_, ok := oracle.Price(g, map[types.Address]*poolstate.State{})
	require.False(t, ok)
}
