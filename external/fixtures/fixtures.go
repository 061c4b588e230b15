// Package fixtures provides function-field test doubles for
// external.TracingProvider, following the teacher's own convention of
// satisfying an interface with a struct of func fields (see
// sync/handlers/test_providers.go's TestBlockProvider) instead of a mocking
// framework.
package fixtures

import (
	"context"
	"fmt"

	"github.com/malik672/brontes-go/external"
	"github.com/malik672/brontes-go/types"
)

// Provider is a TracingProvider whose behavior is entirely supplied by the
// embedding test: set BlockTracesFn/LatestBlockFn, or populate Blocks for
// the common "fixed set of canned blocks" case.
type Provider struct {
	BlockTracesFn func(ctx context.Context, number uint64) ([]external.CallTrace, map[types.Hash]external.GasDetails, error)
	LatestBlockFn func(ctx context.Context) (uint64, error)

	// Blocks/Gas are consulted by the default BlockTraces implementation
	// when BlockTracesFn is nil.
	Blocks map[uint64][]external.CallTrace
	Gas    map[uint64]map[types.Hash]external.GasDetails
	Tip    uint64
}

var _ external.TracingProvider = (*Provider)(nil)

// BlockTraces implements external.TracingProvider.
func (p *Provider) BlockTraces(ctx context.Context, number uint64) ([]external.CallTrace, map[types.Hash]external.GasDetails, error) {
	if p.BlockTracesFn != nil {
		return p.BlockTracesFn(ctx, number)
	}
	traces, ok := p.Blocks[number]
	if !ok {
		return nil, nil, fmt.Errorf("fixtures: no traces for block %d", number)
	}
	return traces, p.Gas[number], nil
}

// LatestBlock implements external.TracingProvider.
func (p *Provider) LatestBlock(ctx context.Context) (uint64, error) {
	if p.LatestBlockFn != nil {
		return p.LatestBlockFn(ctx)
	}
	return p.Tip, nil
}
