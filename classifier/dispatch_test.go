package classifier_test

import (
	"testing"

	gethtypes "github.com/luxfi/geth/core/types"
	"github.com/stretchr/testify/require"

	"github.com/malik672/brontes-go/actions"
	"github.com/malik672/brontes-go/classifier"
	"github.com/malik672/brontes-go/external"
	"github.com/malik672/brontes-go/external/memstore"
	"github.com/malik672/brontes-go/types"
)

const testProtocol external.Protocol = "test_protocol"

var testSelector = classifier.Selector{0xaa, 0xbb, 0xcc, 0xdd}

func hashWithLastByte(b byte) types.Hash {
	var h types.Hash
	h[31] = b
	return h
}

func TestDispatchUnclassifiedWhenNoLogMatch(t *testing.T) {
	meta := memstore.New()
	pool := types.Address{1}
	require.NoError(t, meta.PutNewPool(pool, testProtocol, nil))

	registry := classifier.NewRegistry()
	registry.Register(testProtocol, testSelector, classifier.Decoder{
		Pattern: []classifier.LogMatcher{classifier.Exact(hashWithLastByte(9))},
		Decode: func(classifier.FrameInput, classifier.MatchResult) (actions.Action, bool) {
			t.Fatal("decode should not be invoked without a log match")
			return actions.Action{}, false
		},
	})

	dispatcher := classifier.NewDispatcher(registry, meta)
	frame := external.CallTrace{
		To:    pool,
		Input: append(append([]byte{}, testSelector[:]...), make([]byte, 4)...),
		Logs:  nil,
	}

	action, msg := dispatcher.Dispatch(1, frame)
	require.True(t, action.IsUnclassified())
	require.Nil(t, msg)
}

func TestDispatchFirstMatchingCandidateWins(t *testing.T) {
	meta := memstore.New()
	pool := types.Address{2}
	require.NoError(t, meta.PutNewPool(pool, testProtocol, nil))

	registry := classifier.NewRegistry()
	swapSig := hashWithLastByte(5)

	registry.Register(testProtocol, testSelector, classifier.Decoder{
		Pattern: []classifier.LogMatcher{classifier.Exact(swapSig)},
		Decode: func(f classifier.FrameInput, m classifier.MatchResult) (actions.Action, bool) {
			return actions.Action{
				Kind: actions.KindSwap,
				Swap: &actions.Swap{Pool: f.To, TraceIndex: f.TraceIndex},
			}, true
		},
	})
	// A second, never-reached candidate for the same key.
	registry.Register(testProtocol, testSelector, classifier.Decoder{
		Pattern: []classifier.LogMatcher{classifier.Exact(swapSig)},
		Decode: func(classifier.FrameInput, classifier.MatchResult) (actions.Action, bool) {
			t.Fatal("first candidate should have already won")
			return actions.Action{}, false
		},
	})

	dispatcher := classifier.NewDispatcher(registry, meta)
	frame := external.CallTrace{
		TraceIndex: 7,
		To:         pool,
		Input:      append(append([]byte{}, testSelector[:]...), make([]byte, 4)...),
		Logs:       []gethtypes.Log{{Topics: []types.Hash{swapSig}}},
	}

	action, _ := dispatcher.Dispatch(1, frame)
	require.True(t, action.IsSwap())
	require.Equal(t, uint64(7), action.TraceIndex())
}

func TestDispatchUnknownProtocolIsUnclassified(t *testing.T) {
	meta := memstore.New()
	registry := classifier.NewRegistry()
	dispatcher := classifier.NewDispatcher(registry, meta)

	frame := external.CallTrace{
		To:    types.Address{9},
		Input: []byte{1, 2, 3, 4},
	}
	action, msg := dispatcher.Dispatch(1, frame)
	require.True(t, action.IsUnclassified())
	require.Nil(t, msg)
}
