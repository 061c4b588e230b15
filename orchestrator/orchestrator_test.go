package orchestrator_test

import (
	"context"
	"sync"
	"testing"

	"github.com/holiman/uint256"
	gethtypes "github.com/luxfi/geth/core/types"
	"github.com/stretchr/testify/require"

	"github.com/malik672/brontes-go/actions"
	"github.com/malik672/brontes-go/classifier"
	"github.com/malik672/brontes-go/external"
	"github.com/malik672/brontes-go/external/fixtures"
	"github.com/malik672/brontes-go/external/memstore"
	"github.com/malik672/brontes-go/orchestrator"
	"github.com/malik672/brontes-go/poolstate"
	"github.com/malik672/brontes-go/tree"
	"github.com/malik672/brontes-go/types"
)

const testProtocol external.Protocol = "test_pool"

var swapSelector = classifier.Selector{0x11, 0x22, 0x33, 0x44}

// registerSwap wires a trivial decoder: any frame on a test_pool pool with
// this selector is a Swap of token0 for token1. It has no Price func, so
// it publishes no pricing message.
func registerSwap(r *classifier.Registry, token0, token1 types.Address) {
	r.Register(testProtocol, swapSelector, classifier.Decoder{
		Decode: func(f classifier.FrameInput, _ classifier.MatchResult) (actions.Action, bool) {
			return actions.Action{
				Kind: actions.KindSwap,
				Swap: &actions.Swap{
					Pool:       f.To,
					From:       f.From,
					TokenIn:    token0,
					TokenOut:   token1,
					AmountIn:   uint256.NewInt(100),
					AmountOut:  uint256.NewInt(90),
					TraceIndex: f.TraceIndex,
				},
			}, true
		},
	})
}

// fakeSink records every finding Emit receives.
type fakeSink struct {
	mu      sync.Mutex
	emitted []external.ClassifiedMev
}

func (s *fakeSink) Emit(_ context.Context, mev external.ClassifiedMev, _ any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emitted = append(s.emitted, mev)
	return nil
}

// countingInspector records every block it was asked to inspect, in the
// order it saw them, and emits one finding per swap action it finds.
type countingInspector struct {
	mu     sync.Mutex
	blocks []uint64
}

func (c *countingInspector) ID() string { return "counter" }

func (c *countingInspector) Inspect(_ context.Context, block uint64, forest *tree.Forest, pools map[types.Address]*poolstate.State, prices *orchestrator.PriceOracle) ([]orchestrator.Finding, error) {
	c.mu.Lock()
	c.blocks = append(c.blocks, block)
	c.mu.Unlock()

	var findings []orchestrator.Finding
	for _, t := range forest.Trees {
		for _, a := range t.Collect(func(a actions.Action) bool { return a.IsSwap() }) {
			findings = append(findings, orchestrator.Finding{
				Mev: external.ClassifiedMev{BlockNumber: block, TxHash: t.TxHash, MevContract: a.Swap.Pool},
			})
		}
	}
	return findings, nil
}

func mkTrace(txHash types.Hash, txIdx, traceIdx uint64, pool types.Address) external.CallTrace {
	input := append(append([]byte{}, swapSelector[:]...), make([]byte, 32)...)
	return external.CallTrace{
		TraceIndex: traceIdx,
		TxHash:     txHash,
		TxIndex:    txIdx,
		From:       types.Address{0x9},
		To:         pool,
		Input:      input,
		Logs:       []gethtypes.Log{},
	}
}

func TestOrchestratorProcessesBlocksInOrderAndEmitsFindings(t *testing.T) {
	pool := types.Address{0xAA}
	token0, token1 := types.Address{1}, types.Address{2}

	meta := memstore.New()
	require.NoError(t, meta.PutNewPool(pool, testProtocol, []types.Address{token0, token1}))

	registry := classifier.NewRegistry()
	registerSwap(registry, token0, token1)

	tx1 := types.Hash{0x1}
	tx2 := types.Hash{0x2}

	provider := &fixtures.Provider{
		Blocks: map[uint64][]external.CallTrace{
			10: {mkTrace(tx1, 0, 0, pool)},
			11: {mkTrace(tx2, 0, 0, pool)},
		},
	}

	sink := &fakeSink{}
	inspector := &countingInspector{}
	end := uint64(11)

	o := orchestrator.New(orchestrator.Config{
		StartBlock:    10,
		EndBlock:      &end,
		RunDexPricing: true,
	}, provider, meta, registry, sink, []orchestrator.Inspector{inspector})

	require.NoError(t, o.Run(context.Background()))

	require.Equal(t, []uint64{10, 11}, inspector.blocks)
	require.Len(t, sink.emitted, 2)
	require.Equal(t, uint64(10), sink.emitted[0].BlockNumber)
	require.Equal(t, uint64(11), sink.emitted[1].BlockNumber)
}

func TestOrchestratorRequiresEndBlockWhenDexPricingDisabled(t *testing.T) {
	meta := memstore.New()
	registry := classifier.NewRegistry()
	provider := &fixtures.Provider{}
	sink := &fakeSink{}

	o := orchestrator.New(orchestrator.Config{StartBlock: 1, RunDexPricing: false}, provider, meta, registry, sink, nil)
	err := o.Run(context.Background())
	require.Error(t, err)
}

func TestOrchestratorFatalOnUpstreamFailure(t *testing.T) {
	meta := memstore.New()
	registry := classifier.NewRegistry()
	provider := &fixtures.Provider{
		BlockTracesFn: func(ctx context.Context, number uint64) ([]external.CallTrace, map[types.Hash]external.GasDetails, error) {
			return nil, nil, context.DeadlineExceeded
		},
	}
	sink := &fakeSink{}
	end := uint64(1)

	o := orchestrator.New(orchestrator.Config{StartBlock: 1, EndBlock: &end, RunDexPricing: true}, provider, meta, registry, sink, nil)
	err := o.Run(context.Background())
	require.Error(t, err)
}
