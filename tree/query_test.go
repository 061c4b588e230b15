package tree_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/malik672/brontes-go/actions"
	"github.com/malik672/brontes-go/classifier"
	"github.com/malik672/brontes-go/external"
	"github.com/malik672/brontes-go/external/memstore"
	"github.com/malik672/brontes-go/tree"
	"github.com/malik672/brontes-go/types"
)

func isSwap(a actions.Action) bool { return a.IsSwap() }

// TestInspectAllStopsAtFirstMatchingAncestor builds R -> [C1(Swap), C2 ->
// [C21(Swap)]] and checks that InspectAll reports only R's match (since R's
// subactions already contain both swaps) and not C2's, per the "maximal"
// rule.
func TestInspectAllStopsAtFirstMatchingAncestor(t *testing.T) {
	registry := registerFixedDecoders(t)
	meta := memstore.New()
	dispatcher := classifier.NewDispatcher(registry, meta)

	var noopSelector classifier.Selector
	txHash := types.Hash{0xDD}
	frames := []external.CallTrace{
		frame(txHash, 0, noopSelector, 1, 2),
		frame(txHash, 1, swapSelector),
		frame(txHash, 2, noopSelector, 3),
		frame(txHash, 3, swapSelector),
	}
	registerPools(t, meta, frames)

	forest, err := tree.Build(1, frames, nil, dispatcher, nil)
	require.NoError(t, err)

	matches := forest.InspectAll(isSwap)
	require.Len(t, matches[txHash], 1)
	require.Equal(t, uint64(0), matches[txHash][0].TraceIndex)
	require.Len(t, matches[txHash][0].Subactions, 2)
}

func TestCollectFiltersByPredicate(t *testing.T) {
	registry := registerFixedDecoders(t)
	meta := memstore.New()
	dispatcher := classifier.NewDispatcher(registry, meta)

	var noopSelector classifier.Selector
	txHash := types.Hash{0xEE}
	frames := []external.CallTrace{
		frame(txHash, 0, noopSelector, 1, 2),
		frame(txHash, 1, swapSelector),
		frame(txHash, 2, mintSelector),
	}
	registerPools(t, meta, frames)

	forest, err := tree.Build(1, frames, nil, dispatcher, nil)
	require.NoError(t, err)

	swaps := forest.Trees[0].Collect(isSwap)
	require.Len(t, swaps, 1)
	require.True(t, swaps[0].IsSwap())
}
