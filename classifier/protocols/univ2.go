package protocols

import (
	"github.com/holiman/uint256"
	"github.com/malik672/brontes-go/actions"
	"github.com/malik672/brontes-go/classifier"
	"github.com/malik672/brontes-go/external"
	"github.com/malik672/brontes-go/pricing"
)

// ProtocolUniswapV2 is the protocol tag a MetadataStore assigns to
// Uniswap-V2-family pair contracts (SushiSwap, PancakeSwap V2, and other
// constant-product forks share this decoder set — only the factory that
// created the pool differs, which is recorded in NewPool, not here).
const ProtocolUniswapV2 external.Protocol = "uniswap_v2"

var (
	univ2SwapSelector = selector("swap(uint256,uint256,address,bytes)")
	univ2MintSelector = selector("mint(address)")
	univ2BurnSelector = selector("burn(address)")

	univ2SyncSig     = eventSig("Sync(uint112,uint112)")
	univ2SwapSig     = eventSig("Swap(address,uint256,uint256,uint256,uint256,address)")
	univ2MintSig     = eventSig("Mint(address,uint256,uint256)")
	univ2BurnSig     = eventSig("Burn(address,uint256,uint256,address)")
	univ2TransferSig = eventSig("Transfer(address,address,uint256)")
)

// RegisterUniswapV2 wires the Swap/Mint/Burn decoders for the
// constant-product AMM pattern: call the pair contract directly, find the
// matching event among the logs it emitted, and decode. Grounded in
// original_source/uniswap_v2.rs's action_impl! patterns:
// swap = [Ignore<Sync>, Swap], mint = [Possible<Ignore<Transfer>>,
// Ignore<Sync>, Mint], burn = [Ignore<Transfer>, Ignore<Sync>, Burn].
func RegisterUniswapV2(r *classifier.Registry) {
	r.Register(ProtocolUniswapV2, univ2SwapSelector, classifier.Decoder{
		Pattern: []classifier.LogMatcher{
			classifier.Ignore(univ2SyncSig),
			classifier.Exact(univ2SwapSig),
		},
		Decode: decodeUniswapV2Swap,
		Price:  priceUniswapV2Sync,
	})
	r.Register(ProtocolUniswapV2, univ2MintSelector, classifier.Decoder{
		Pattern: []classifier.LogMatcher{
			classifier.Possible(classifier.Ignore(univ2TransferSig)),
			classifier.Ignore(univ2SyncSig),
			classifier.Exact(univ2MintSig),
		},
		Decode: decodeUniswapV2Mint,
		Price:  priceUniswapV2Sync,
	})
	r.Register(ProtocolUniswapV2, univ2BurnSelector, classifier.Decoder{
		Pattern: []classifier.LogMatcher{
			classifier.Ignore(univ2TransferSig),
			classifier.Ignore(univ2SyncSig),
			classifier.Exact(univ2BurnSig),
		},
		Decode: decodeUniswapV2Burn,
		Price:  priceUniswapV2Sync,
	})
}

func decodeUniswapV2Swap(f classifier.FrameInput, m classifier.MatchResult) (actions.Action, bool) {
	if len(m.Exacts) != 1 {
		return actions.Action{}, false
	}
	log := m.Exacts[0]
	if len(log.Topics) < 3 || len(log.Data) < 128 {
		return actions.Action{}, false
	}
	amount0In := word(log.Data, 0)
	amount1In := word(log.Data, 1)
	amount0Out := word(log.Data, 2)
	amount1Out := word(log.Data, 3)

	tokens, ok := f.Meta.TokensOf(f.To)
	if !ok || len(tokens) != 2 {
		return actions.Action{}, false
	}
	recipient := addrFromTopic(log.Topics[2])

	var tokenIn, tokenOut int
	var amountIn, amountOut *uint256.Int
	switch {
	case amount0In.Sign() != 0:
		tokenIn, tokenOut = 0, 1
		amountIn, amountOut = amount0In, amount1Out
	case amount1In.Sign() != 0:
		tokenIn, tokenOut = 1, 0
		amountIn, amountOut = amount1In, amount0Out
	default:
		// both input legs zero: semantically empty, not a real swap.
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

func decodeUniswapV2Mint(f classifier.FrameInput, m classifier.MatchResult) (actions.Action, bool) {
	if len(m.Exacts) != 1 {
		return actions.Action{}, false
	}
	log := m.Exacts[0]
	if len(log.Topics) < 1 || len(log.Data) < 64 {
		return actions.Action{}, false
	}
	tokens, ok := f.Meta.TokensOf(f.To)
	if !ok || len(tokens) != 2 {
		return actions.Action{}, false
	}
	amount0, amount1 := word(log.Data, 0), word(log.Data, 1)
	return actions.Action{
		Kind: actions.KindMint,
		Mint: &actions.Mint{
			Pool:       f.To,
			From:       f.From,
			Recipient:  f.From,
			Tokens:     tokens,
			Amounts:    []*uint256.Int{amount0, amount1},
			TraceIndex: f.TraceIndex,
		},
	}, true
}

func decodeUniswapV2Burn(f classifier.FrameInput, m classifier.MatchResult) (actions.Action, bool) {
	if len(m.Exacts) != 1 {
		return actions.Action{}, false
	}
	log := m.Exacts[0]
	if len(log.Topics) < 3 || len(log.Data) < 64 {
		return actions.Action{}, false
	}
	tokens, ok := f.Meta.TokensOf(f.To)
	if !ok || len(tokens) != 2 {
		return actions.Action{}, false
	}
	amount0, amount1 := word(log.Data, 0), word(log.Data, 1)
	recipient := addrFromTopic(log.Topics[2])
	return actions.Action{
		Kind: actions.KindBurn,
		Burn: &actions.Burn{
			Pool:       f.To,
			From:       f.From,
			Recipient:  recipient,
			Tokens:     tokens,
			Amounts:    []*uint256.Int{amount0, amount1},
			TraceIndex: f.TraceIndex,
		},
	}, true
}

// priceUniswapV2Sync derives the pool's new reserves from the Sync log
// every state-changing V2 call emits, regardless of whether the call itself
// was a Swap, Mint, or Burn — Sync is always the freshest reserve snapshot.
func priceUniswapV2Sync(f classifier.FrameInput, m classifier.MatchResult, a actions.Action) (*pricing.DexPriceMsg, bool) {
	for _, entry := range f.Logs {
		if entry.Sig != univ2SyncSig {
			continue
		}
		if len(entry.Log.Data) < 64 {
			continue
		}
		tokens, ok := f.Meta.TokensOf(f.To)
		if !ok || len(tokens) != 2 {
			return nil, false
		}
		reserve0, reserve1 := word(entry.Log.Data, 0), word(entry.Log.Data, 1)
		return &pricing.DexPriceMsg{
			Kind:     pricing.KindUpdate,
			Pool:     f.To,
			Protocol: ProtocolUniswapV2,
			Tokens:   tokens,
			Reserves: []*uint256.Int{reserve0, reserve1},
		}, true
	}
	return nil, false
}
