// Package pricing defines the message exchanged between the classifier and
// the pool-state/subgraph layer (spec.md §6.2's PricingMsgBus) and its
// channel-based realization.
package pricing

import (
	"github.com/holiman/uint256"

	"github.com/malik672/brontes-go/external"
	"github.com/malik672/brontes-go/types"
)

// Kind distinguishes the two shapes a DexPriceMsg carries.
type Kind uint8

const (
	// KindUpdate carries a pool's new on-chain state after a swap/mint/burn
	// touched its reserves, tick, or balances.
	KindUpdate Kind = iota
	// KindNewPool announces a pool the subgraph has not seen before; it
	// must be observed before any Update referencing the same pool.
	KindNewPool
)

// DexPriceMsg is one state transition of a pool, in trace order within a
// block. The orchestrator (§5) guarantees these are applied in the order
// produced before the next block's messages begin.
type DexPriceMsg struct {
	Kind     Kind
	Block    uint64
	Pool     types.Address
	Protocol external.Protocol
	Tokens   []types.Address

	// Reserves holds the constant-product reserves, one entry per Tokens
	// index, for a Uniswap-V2-family pool.
	Reserves []*uint256.Int

	// Tick and SqrtPriceX96 hold concentrated-liquidity state for a
	// Uniswap-V3-family pool; both are zero-value for other protocols.
	Tick         int32
	SqrtPriceX96 *uint256.Int

	// Balances holds per-token balances for a stable/weighted pool (§4.8);
	// nil for constant-product and concentrated-liquidity pools.
	Balances []*uint256.Int
}

// Bus is a channel-based realization of PricingMsgBus: classifiers publish,
// the pool-state store and subgraph consume. It is a thin wrapper rather
// than a bare channel so callers get a Close that is safe to call once from
// the producer side only, matching the orchestrator's single-producer
// shutdown sequence (§5).
type Bus struct {
	ch chan DexPriceMsg
}

// NewBus creates a Bus with the given buffer size.
func NewBus(buffer int) *Bus {
	return &Bus{ch: make(chan DexPriceMsg, buffer)}
}

// Publish sends msg, blocking if the bus is full.
func (b *Bus) Publish(msg DexPriceMsg) {
	b.ch <- msg
}

// Messages returns the receive side, for a consumer's range loop.
func (b *Bus) Messages() <-chan DexPriceMsg {
	return b.ch
}

// Close closes the bus. Must be called exactly once, by the producer, after
// its last Publish.
func (b *Bus) Close() {
	close(b.ch)
}
