package protocols

import (
	"github.com/holiman/uint256"

	"github.com/malik672/brontes-go/actions"
	"github.com/malik672/brontes-go/classifier"
	"github.com/malik672/brontes-go/external"
	"github.com/malik672/brontes-go/pricing"
)

// ProtocolUniswapV3 is the protocol tag for concentrated-liquidity pools.
const ProtocolUniswapV3 external.Protocol = "uniswap_v3"

var (
	univ3SwapSelector = selector("swap(address,bool,int256,uint160,bytes)")

	univ3SwapSig = eventSig("Swap(address,address,int256,int256,uint160,uint128,int24)")
)

// RegisterUniswapV3 wires the Swap decoder for the concentrated-liquidity
// pattern. Unlike V2, a V3 pool has no separate Sync event: the Swap log
// itself carries the post-swap sqrtPriceX96 and tick, so the same log both
// decodes the action and prices the pool.
func RegisterUniswapV3(r *classifier.Registry) {
	r.Register(ProtocolUniswapV3, univ3SwapSelector, classifier.Decoder{
		Pattern: []classifier.LogMatcher{
			classifier.Exact(univ3SwapSig),
		},
		Decode: decodeUniswapV3Swap,
		Price:  priceUniswapV3Swap,
	})
}

// Swap(address indexed sender, address indexed recipient, int256 amount0,
// int256 amount1, uint160 sqrtPriceX96, uint128 liquidity, int24 tick)
func decodeUniswapV3Swap(f classifier.FrameInput, m classifier.MatchResult) (actions.Action, bool) {
	if len(m.Exacts) != 1 {
		return actions.Action{}, false
	}
	log := m.Exacts[0]
	if len(log.Topics) < 3 || len(log.Data) < 160 {
		return actions.Action{}, false
	}
	tokens, ok := f.Meta.TokensOf(f.To)
	if !ok || len(tokens) != 2 {
		return actions.Action{}, false
	}
	amount0 := word(log.Data, 0) // signed two's complement; sign read below
	amount1 := word(log.Data, 1)
	recipient := addrFromTopic(log.Topics[2])

	amount0Negative := isNegativeWord(log.Data, 0)
	amount1Negative := isNegativeWord(log.Data, 1)

	var tokenIn, tokenOut int
	var amountIn, amountOut *uint256.Int
	switch {
	case !amount0Negative && amount1Negative:
		tokenIn, tokenOut = 0, 1
		amountIn, amountOut = amount0, twosComplementAbs(amount1)
	case !amount1Negative && amount0Negative:
		tokenIn, tokenOut = 1, 0
		amountIn, amountOut = amount1, twosComplementAbs(amount0)
	default:
		return actions.Action{}, false
	}

	return actions.Action{
		Kind: actions.KindSwap,
		Swap: &actions.Swap{
			Pool:       f.To,
			From:       f.From,
			Recipient:  recipient,
			TokenIn:    tokens[tokenIn],
			TokenOut:   tokens[tokenOut],
			AmountIn:   amountIn,
			AmountOut:  amountOut,
			TraceIndex: f.TraceIndex,
		},
	}, true
}

func priceUniswapV3Swap(f classifier.FrameInput, m classifier.MatchResult, a actions.Action) (*pricing.DexPriceMsg, bool) {
	if len(m.Exacts) != 1 {
		return nil, false
	}
	log := m.Exacts[0]
	if len(log.Data) < 160 {
		return nil, false
	}
	tokens, ok := f.Meta.TokensOf(f.To)
	if !ok || len(tokens) != 2 {
		return nil, false
	}
	sqrtPriceX96 := word(log.Data, 2)
	tick := int32(word(log.Data, 4).Uint64())
	return &pricing.DexPriceMsg{
		Kind:         pricing.KindUpdate,
		Pool:         f.To,
		Protocol:     ProtocolUniswapV3,
		Tokens:       tokens,
		Tick:         tick,
		SqrtPriceX96: sqrtPriceX96,
	}, true
}

// isNegativeWord reports whether the ABI word at index i of data, read as a
// signed int256, is negative (top bit of its most significant byte set).
func isNegativeWord(data []byte, i int) bool {
	start := i * 32
	if start >= len(data) {
		return false
	}
	return data[start]&0x80 != 0
}

// twosComplementAbs returns the absolute value of w interpreted as a
// two's-complement negative int256.
func twosComplementAbs(w *uint256.Int) *uint256.Int {
	neg := new(uint256.Int).Not(w)
	return neg.AddUint64(neg, 1)
}
