package protocols

import (
	"testing"

	gethtypes "github.com/luxfi/geth/core/types"
	"github.com/stretchr/testify/require"

	"github.com/malik672/brontes-go/classifier"
	"github.com/malik672/brontes-go/external"
	"github.com/malik672/brontes-go/external/memstore"
	"github.com/malik672/brontes-go/types"
)

func word32(n uint64) []byte {
	out := make([]byte, 32)
	for i := 0; i < 8; i++ {
		out[31-i] = byte(n >> (8 * i))
	}
	return out
}

func addrTopic(a types.Address) types.Hash {
	var h types.Hash
	copy(h[12:], a[:])
	return h
}

func selectorInput(sel classifier.Selector) []byte {
	out := append([]byte{}, sel[:]...)
	return append(out, make([]byte, 32*4)...)
}

// TestEmptySwapLogsYieldsUnclassified is scenario 1: a frame whose selector
// is the V2 swap selector but whose only log is Sync (the Swap event never
// fired) must fall through to Unclassified, not a zero-amount Swap.
func TestEmptySwapLogsYieldsUnclassified(t *testing.T) {
	registry := classifier.NewRegistry()
	RegisterUniswapV2(registry)

	meta := memstore.New()
	pool := types.Address{0x42}
	token0, token1 := types.Address{1}, types.Address{2}
	require.NoError(t, meta.PutNewPool(pool, ProtocolUniswapV2, []types.Address{token0, token1}))

	dispatcher := classifier.NewDispatcher(registry, meta)
	frame := external.CallTrace{
		To:    pool,
		Input: selectorInput(univ2SwapSelector),
		Logs: []gethtypes.Log{
			{Topics: []types.Hash{univ2SyncSig}, Data: append(word32(100), word32(200)...)},
		},
	}

	action, msg := dispatcher.Dispatch(1, frame)
	require.True(t, action.IsUnclassified())
	require.Nil(t, msg)
}

// TestV2SwapToken0ToToken1 is scenario 2 from spec.md §8: a genuine swap of
// token0 in for token1 out decodes with the right direction and amounts, and
// the accompanying Sync log produces a DexPriceMsg with the new reserves.
func TestV2SwapToken0ToToken1(t *testing.T) {
	registry := classifier.NewRegistry()
	RegisterUniswapV2(registry)

	meta := memstore.New()
	pool := types.Address{0x42}
	token0, token1 := types.Address{1}, types.Address{2}
	require.NoError(t, meta.PutNewPool(pool, ProtocolUniswapV2, []types.Address{token0, token1}))

	trader := types.Address{0x99}
	recipient := types.Address{0x77}

	swapData := append([]byte{}, word32(1000)...) // amount0In
	swapData = append(swapData, word32(0)...)     // amount1In
	swapData = append(swapData, word32(0)...)     // amount0Out
	swapData = append(swapData, word32(990)...)   // amount1Out

	syncData := append([]byte{}, word32(51000)...)
	syncData = append(syncData, word32(49010)...)

	frame := external.CallTrace{
		TraceIndex: 3,
		From:       trader,
		To:         pool,
		Input:      selectorInput(univ2SwapSelector),
		Logs: []gethtypes.Log{
			{Topics: []types.Hash{univ2SyncSig}, Data: syncData},
			{Topics: []types.Hash{univ2SwapSig, addrTopic(trader), addrTopic(recipient)}, Data: swapData},
		},
	}

	dispatcher := classifier.NewDispatcher(registry, meta)
	action, msg := dispatcher.Dispatch(5, frame)

	require.True(t, action.IsSwap())
	require.Equal(t, token0, action.Swap.TokenIn)
	require.Equal(t, token1, action.Swap.TokenOut)
	require.Equal(t, recipient, action.Swap.Recipient)
	require.Equal(t, uint64(1000), action.Swap.AmountIn.Uint64())
	require.Equal(t, uint64(990), action.Swap.AmountOut.Uint64())
	require.Equal(t, uint64(3), action.TraceIndex())

	require.NotNil(t, msg)
	require.Equal(t, uint64(5), msg.Block)
	require.Equal(t, uint64(51000), msg.Reserves[0].Uint64())
	require.Equal(t, uint64(49010), msg.Reserves[1].Uint64())
}

// TestV2SwapToken1ToToken0 is scenario 3: the mirror direction.
func TestV2SwapToken1ToToken0(t *testing.T) {
	registry := classifier.NewRegistry()
	RegisterUniswapV2(registry)

	meta := memstore.New()
	pool := types.Address{0x42}
	token0, token1 := types.Address{1}, types.Address{2}
	require.NoError(t, meta.PutNewPool(pool, ProtocolUniswapV2, []types.Address{token0, token1}))

	swapData := append([]byte{}, word32(0)...)   // amount0In
	swapData = append(swapData, word32(500)...)  // amount1In
	swapData = append(swapData, word32(498)...)  // amount0Out
	swapData = append(swapData, word32(0)...)    // amount1Out

	frame := external.CallTrace{
		To:    pool,
		Input: selectorInput(univ2SwapSelector),
		Logs: []gethtypes.Log{
			{Topics: []types.Hash{univ2SyncSig}, Data: append(word32(10), word32(20)...)},
			{Topics: []types.Hash{univ2SwapSig, addrTopic(types.Address{3}), addrTopic(types.Address{4})}, Data: swapData},
		},
	}

	dispatcher := classifier.NewDispatcher(registry, meta)
	action, _ := dispatcher.Dispatch(1, frame)

	require.True(t, action.IsSwap())
	require.Equal(t, token1, action.Swap.TokenIn)
	require.Equal(t, token0, action.Swap.TokenOut)
	require.Equal(t, uint64(500), action.Swap.AmountIn.Uint64())
	require.Equal(t, uint64(498), action.Swap.AmountOut.Uint64())
}
