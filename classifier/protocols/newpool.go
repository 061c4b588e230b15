package protocols

import (
	"github.com/malik672/brontes-go/actions"
	"github.com/malik672/brontes-go/classifier"
	"github.com/malik672/brontes-go/external"
	"github.com/malik672/brontes-go/pricing"
	"github.com/malik672/brontes-go/types"
)

// ProtocolFactory is the protocol tag assigned to a DEX factory contract
// (not a pool) — the thing a MetadataStore maps a factory address to so
// createPair/createPool calls on it can be recognized.
const ProtocolFactory external.Protocol = "factory"

var (
	univ2CreatePairSelector = selector("createPair(address,address)")
	univ2PairCreatedSig     = eventSig("PairCreated(address,address,address,uint256)")

	univ3CreatePoolSelector = selector("createPool(address,address,uint24)")
	univ3PoolCreatedSig     = eventSig("PoolCreated(address,address,uint24,int24,address)")
)

// RegisterFactories wires the NewPool decoders for the Uniswap-V2-style and
// Uniswap-V3-style factory creation calls. A NewPool action is never the
// final word on a pool's metadata by itself — the block tree builder
// (spec.md §4.3 step 4) registers it with the MetadataStore once the
// transaction's frames are all decoded, which is why these decoders never
// write to f.Meta. They do not read it either: the dispatcher has already
// resolved the factory's address to ProtocolFactory before choosing them.
func RegisterFactories(r *classifier.Registry) {
	r.Register(ProtocolFactory, univ2CreatePairSelector, classifier.Decoder{
		Pattern: []classifier.LogMatcher{
			classifier.Exact(univ2PairCreatedSig),
		},
		Decode: decodeUniswapV2NewPool,
		Price:  priceNewPool,
	})
	r.Register(ProtocolFactory, univ3CreatePoolSelector, classifier.Decoder{
		Pattern: []classifier.LogMatcher{
			classifier.Exact(univ3PoolCreatedSig),
		},
		Decode: decodeUniswapV3NewPool,
		Price:  priceNewPool,
	})
}

// PairCreated(address indexed token0, address indexed token1, address pair, uint256)
func decodeUniswapV2NewPool(f classifier.FrameInput, m classifier.MatchResult) (actions.Action, bool) {
	if len(m.Exacts) != 1 {
		return actions.Action{}, false
	}
	log := m.Exacts[0]
	if len(log.Topics) < 3 || len(log.Data) < 32 {
		return actions.Action{}, false
	}
	token0 := addrFromTopic(log.Topics[1])
	token1 := addrFromTopic(log.Topics[2])
	pair := addrFromWord(log.Data[:32])
	return actions.Action{
		Kind: actions.KindNewPool,
		NewPool: &actions.NewPool{
			Factory:    f.To,
			Pool:       pair,
			Tokens:     []types.Address{token0, token1},
			Protocol:   string(ProtocolUniswapV2),
			TraceIndex: f.TraceIndex,
		},
	}, true
}

// PoolCreated(address indexed token0, address indexed token1, uint24 indexed fee, int24 tickSpacing, address pool)
func decodeUniswapV3NewPool(f classifier.FrameInput, m classifier.MatchResult) (actions.Action, bool) {
	if len(m.Exacts) != 1 {
		return actions.Action{}, false
	}
	log := m.Exacts[0]
	if len(log.Topics) < 4 || len(log.Data) < 64 {
		return actions.Action{}, false
	}
	token0 := addrFromTopic(log.Topics[1])
	token1 := addrFromTopic(log.Topics[2])
	pool := addrFromWord(log.Data[32:64])
	return actions.Action{
		Kind: actions.KindNewPool,
		NewPool: &actions.NewPool{
			Factory:    f.To,
			Pool:       pool,
			Tokens:     []types.Address{token0, token1},
			Protocol:   string(ProtocolUniswapV3),
			TraceIndex: f.TraceIndex,
		},
	}, true
}

// priceNewPool turns a decoded NewPool action into the DexPriceMsg the pool-
// state store needs to learn the pool before any Update referencing it can
// be applied (pricing/msg.go's KindNewPool doc comment). The metadata-store
// registration itself is the block tree builder's job (spec.md §4.3 step
// 4), not this decoder's — a decoder only ever reads through f.Meta, never
// writes.
func priceNewPool(f classifier.FrameInput, m classifier.MatchResult, a actions.Action) (*pricing.DexPriceMsg, bool) {
	np := a.NewPool
	return &pricing.DexPriceMsg{
		Kind:     pricing.KindNewPool,
		Pool:     np.Pool,
		Protocol: external.Protocol(np.Protocol),
		Tokens:   np.Tokens,
	}, true
}
