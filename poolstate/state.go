// Package poolstate holds the in-memory pool-address → current-state map
// (spec.md §3/§4.5's PoolState, C5): one writer per block (the orchestrator,
// applying DexPriceMsg events in trace order), many concurrent readers
// (inspectors and the pricing oracle) during that block.
package poolstate

import (
	"github.com/holiman/uint256"

	"github.com/malik672/brontes-go/external"
	"github.com/malik672/brontes-go/types"
)

// State is a pool's current snapshot: {protocol, tokens, reserves,
// last_updated_block}, plus the concentrated-liquidity and stable-pool
// fields a Uniswap-V3-family or stable-swap pool populates instead of
// Reserves.
type State struct {
	Protocol external.Protocol
	Tokens   []types.Address
	Reserves []*uint256.Int

	// Tick/SqrtPriceX96 are populated instead of Reserves for a
	// Uniswap-V3-family pool.
	Tick         int32
	SqrtPriceX96 *uint256.Int

	// Balances holds per-token balances for a stable/weighted pool (§4.8).
	// No decoder in this module populates it yet — see DESIGN.md — but the
	// field exists so a future stable-pool decoder's DexPriceMsg can be
	// applied without a PoolState shape change.
	Balances []*uint256.Int

	LastUpdatedBlock uint64
}

// indexOf returns the position of token in s.Tokens, or -1.
func (s *State) indexOf(token types.Address) int {
	for i, t := range s.Tokens {
		if t == token {
			return i
		}
	}
	return -1
}

// Price returns the spot price of token expressed in the pool's other
// token — "how many units of the other token one unit of token is worth" —
// for a two-token constant-product or concentrated-liquidity pool. Reports
// false if token is not one of the pool's two tokens, the pool has a
// reserve of zero, or the pool carries more than two tokens (a stable pool,
// not supported by this method — see DESIGN.md).
func (s *State) Price(token types.Address) (types.Rational, bool) {
	if len(s.Tokens) != 2 {
		return types.Zero, false
	}
	i := s.indexOf(token)
	if i < 0 {
		return types.Zero, false
	}
	other := 1 - i

	if s.Reserves != nil {
		if len(s.Reserves) != 2 || s.Reserves[i].IsZero() || s.Reserves[other].IsZero() {
			return types.Zero, false
		}
		num := types.FromBigInt(s.Reserves[other].ToBig())
		den := types.FromBigInt(s.Reserves[i].ToBig())
		return num.Quo(den), true
	}

	if s.SqrtPriceX96 != nil && s.SqrtPriceX96.Sign() > 0 {
		return s.priceFromSqrtPriceX96(i), true
	}
	return types.Zero, false
}

// priceFromSqrtPriceX96 derives token0's price in token1 (or its reciprocal
// for token1's price in token0) from the Q64.96 fixed-point sqrt price a
// Uniswap-V3-family Swap log carries: price(token0_in_token1) =
// (sqrtPriceX96 / 2^96)^2.
func (s *State) priceFromSqrtPriceX96(tokenIdx int) types.Rational {
	shift := new(uint256.Int).Lsh(uint256.NewInt(1), 96)
	num := types.FromBigInt(s.SqrtPriceX96.ToBig())
	den := types.FromBigInt(shift.ToBig())
	sqrtPrice := num.Quo(den)
	priceToken0InToken1 := sqrtPrice.Mul(sqrtPrice)
	if tokenIdx == 0 {
		return priceToken0InToken1
	}
	return priceToken0InToken1.Reciprocal()
}

// TVL returns both sides' liquidity, each priced in base units, per
// spec.md's `tvl(base) → (Rational, Rational)`. base must be one of the
// pool's two tokens.
func (s *State) TVL(base types.Address) (types.Rational, types.Rational, bool) {
	if len(s.Tokens) != 2 || len(s.Reserves) != 2 {
		return types.Zero, types.Zero, false
	}
	i := s.indexOf(base)
	if i < 0 {
		return types.Zero, types.Zero, false
	}
	other := 1 - i

	baseValue := types.FromBigInt(s.Reserves[i].ToBig())

	otherPrice, ok := s.Price(s.Tokens[other])
	if !ok {
		return types.Zero, types.Zero, false
	}
	otherValue := types.FromBigInt(s.Reserves[other].ToBig()).Mul(otherPrice)

	if i == 0 {
		return baseValue, otherValue, true
	}
	return otherValue, baseValue, true
}
