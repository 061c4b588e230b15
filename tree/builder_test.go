package tree_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/malik672/brontes-go/actions"
	"github.com/malik672/brontes-go/classifier"
	"github.com/malik672/brontes-go/external"
	"github.com/malik672/brontes-go/external/memstore"
	"github.com/malik672/brontes-go/pricing"
	"github.com/malik672/brontes-go/tree"
	"github.com/malik672/brontes-go/types"
)

const testProtocol external.Protocol = "test"

var swapSelector = classifier.Selector{1, 2, 3, 4}
var mintSelector = classifier.Selector{5, 6, 7, 8}

func registerFixedDecoders(t *testing.T) *classifier.Registry {
	t.Helper()
	r := classifier.NewRegistry()
	r.Register(testProtocol, swapSelector, classifier.Decoder{
		Decode: func(f classifier.FrameInput, m classifier.MatchResult) (actions.Action, bool) {
			return actions.Action{Kind: actions.KindSwap, Swap: &actions.Swap{Pool: f.To, TraceIndex: f.TraceIndex}}, true
		},
	})
	r.Register(testProtocol, mintSelector, classifier.Decoder{
		Decode: func(f classifier.FrameInput, m classifier.MatchResult) (actions.Action, bool) {
			return actions.Action{Kind: actions.KindMint, Mint: &actions.Mint{Pool: f.To, TraceIndex: f.TraceIndex}}, true
		},
	})
	return r
}

func registerPools(t *testing.T, meta *memstore.Store, frames []external.CallTrace) {
	t.Helper()
	for _, f := range frames {
		require.NoError(t, meta.PutNewPool(f.To, testProtocol, nil))
	}
}

func frame(txHash types.Hash, traceIndex uint64, selector classifier.Selector, children ...uint64) external.CallTrace {
	return external.CallTrace{
		TraceIndex:      traceIndex,
		TxHash:          txHash,
		To:              types.Address{byte(traceIndex + 1)},
		Input:           append(append([]byte{}, selector[:]...), 0, 0, 0, 0),
		SubtraceIndices: children,
	}
}

// TestSubactionsBubbling is scenario 4 from spec.md §8: root R -> [C1(Swap),
// C2 -> [C21(Mint)]] must yield R.subactions = [Swap, Mint] in trace order.
func TestSubactionsBubbling(t *testing.T) {
	registry := registerFixedDecoders(t)
	meta := memstore.New()
	dispatcher := classifier.NewDispatcher(registry, meta)

	var noopSelector classifier.Selector // unregistered -> Unclassified
	txHash := types.Hash{0xAA}

	frames := []external.CallTrace{
		frame(txHash, 0, noopSelector, 1, 2), // R
		frame(txHash, 1, swapSelector),       // C1
		frame(txHash, 2, noopSelector, 3),    // C2
		frame(txHash, 3, mintSelector),       // C21
	}
	registerPools(t, meta, frames)

	forest, err := tree.Build(1, frames, nil, dispatcher, nil)
	require.NoError(t, err)
	require.Len(t, forest.Trees, 1)

	bt := forest.Trees[0]
	root := bt.RootNode()
	require.True(t, root.Action.IsUnclassified())
	require.Len(t, root.Subactions, 2)
	require.True(t, root.Subactions[0].IsSwap())
	require.Equal(t, actions.KindMint, root.Subactions[1].Kind)
	require.Equal(t, uint64(1), root.Subactions[0].TraceIndex())
	require.Equal(t, uint64(3), root.Subactions[1].TraceIndex())
}

func TestBuildRejectsNonMonotonicTraceIndex(t *testing.T) {
	registry := classifier.NewRegistry()
	meta := memstore.New()
	dispatcher := classifier.NewDispatcher(registry, meta)

	txHash := types.Hash{0xBB}
	var sel classifier.Selector
	frames := []external.CallTrace{
		frame(txHash, 0, sel, 1),
		frame(txHash, 0, sel), // duplicate trace index
	}

	_, err := tree.Build(1, frames, nil, dispatcher, nil)
	require.Error(t, err)
}

var factorySelector = classifier.Selector{9, 9, 9, 9}

const testFactoryProtocol external.Protocol = "test_factory"

// TestResolveNewPoolRegistersPoolAndRecomputesParent is spec.md §4.3 step
// 4's scenario: a parent frame P targets a pool that does not exist in the
// metadata store yet, so its first dispatch pass demotes it to
// Unclassified; P's own child C calls the factory and decodes to a NewPool
// action naming that same pool address. The post-build resolution pass must
// register the pool and recompute P using the now-resolved protocol,
// without needing a second call to Build.
func TestResolveNewPoolRegistersPoolAndRecomputesParent(t *testing.T) {
	registry := registerFixedDecoders(t)
	registry.Register(testFactoryProtocol, factorySelector, classifier.Decoder{
		Decode: func(f classifier.FrameInput, m classifier.MatchResult) (actions.Action, bool) {
			return actions.Action{
				Kind: actions.KindNewPool,
				NewPool: &actions.NewPool{
					Factory:    f.To,
					Pool:       types.Address{1}, // same address the parent frame targets
					Tokens:     []types.Address{{0x10}, {0x11}},
					Protocol:   string(testProtocol),
					TraceIndex: f.TraceIndex,
				},
			}, true
		},
	})

	meta := memstore.New()
	// Only the factory itself is known up front; the pool it is about to
	// create is not.
	require.NoError(t, meta.PutNewPool(types.Address{2}, testFactoryProtocol, nil))
	dispatcher := classifier.NewDispatcher(registry, meta)

	txHash := types.Hash{0xDD}
	frames := []external.CallTrace{
		frame(txHash, 0, swapSelector, 1), // P: targets the not-yet-known pool
		frame(txHash, 1, factorySelector), // C: calls the factory, creates the pool
	}

	forest, err := tree.Build(1, frames, nil, dispatcher, nil)
	require.NoError(t, err)
	require.Len(t, forest.Trees, 1)

	root := forest.Trees[0].RootNode()
	require.Equal(t, actions.KindSwap, root.Action.Kind)
	require.Equal(t, types.Address{1}, root.Action.Swap.Pool)

	protocol, ok := meta.ProtocolOf(types.Address{1})
	require.True(t, ok)
	require.Equal(t, testProtocol, protocol)
}

func TestBuildPublishesPriceMessagesInTraceOrder(t *testing.T) {
	registry := classifier.NewRegistry()
	registry.Register(testProtocol, swapSelector, classifier.Decoder{
		Decode: func(f classifier.FrameInput, m classifier.MatchResult) (actions.Action, bool) {
			return actions.Action{Kind: actions.KindSwap, Swap: &actions.Swap{Pool: f.To, TraceIndex: f.TraceIndex}}, true
		},
		Price: func(f classifier.FrameInput, m classifier.MatchResult, a actions.Action) (*pricing.DexPriceMsg, bool) {
			return &pricing.DexPriceMsg{Kind: pricing.KindUpdate, Pool: f.To}, true
		},
	})
	meta := memstore.New()
	dispatcher := classifier.NewDispatcher(registry, meta)
	bus := pricing.NewBus(4)

	txHash := types.Hash{0xCC}
	frames := []external.CallTrace{
		frame(txHash, 0, swapSelector, 1),
		frame(txHash, 1, swapSelector),
	}
	registerPools(t, meta, frames)

	_, err := tree.Build(7, frames, nil, dispatcher, bus)
	require.NoError(t, err)
	bus.Close()

	var got []pricing.DexPriceMsg
	for msg := range bus.Messages() {
		got = append(got, msg)
	}
	require.Len(t, got, 2)
	for _, m := range got {
		require.Equal(t, uint64(7), m.Block)
	}
	require.Equal(t, frames[0].To, got[0].Pool)
	require.Equal(t, frames[1].To, got[1].Pool)
}
