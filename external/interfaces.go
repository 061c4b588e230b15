// Package external defines three of this module's four external
// collaborators (§6 of the specification): the tracing provider, the
// metadata store, and the inspector sink. The fourth, the pricing message
// bus, is pricing.Bus. Production-grade
// realizations of these (an RPC tracer, a persistent KV-backed metadata
// store, a real inspector pipeline) are out of scope; this package only
// defines the interfaces the core depends on, plus light in-memory/fixture
// realizations (packages memstore and fixtures) good enough for tests and
// the CLI's demo mode.
package external

import (
	"context"

	gethtypes "github.com/luxfi/geth/core/types"

	"github.com/malik672/brontes-go/types"
)

// Protocol identifies the DEX/lending protocol a pool belongs to, e.g.
// "uniswap_v2", "uniswap_v3", "aave_v2". It is an opaque string key rather
// than a closed enum so new protocols can be registered (classifier
// package) without touching this interface.
type Protocol string

// CallTrace is one call frame from a block's execution trace, as delivered
// by a TracingProvider. It mirrors spec.md §6.1's field list.
type CallTrace struct {
	TraceIndex      uint64
	TxHash          types.Hash
	TxIndex         uint64
	From            types.Address
	To              types.Address
	Input           []byte
	Output          []byte
	Value           []byte // big-endian wei value, empty if zero
	GasUsed         uint64
	Logs            []gethtypes.Log
	SubtraceIndices []uint64
}

// GasDetails carries the per-transaction gas accounting the block tree
// stores alongside each transaction's root.
type GasDetails struct {
	GasUsed           uint64
	EffectiveGasPrice uint64
	PriorityFee       uint64
}

// TracingProvider supplies raw execution traces for a block. Suspension
// (§5) happens inside implementations of this interface; callers must pass
// a context so a slow/backoffing fetch can be cancelled.
type TracingProvider interface {
	// BlockTraces returns every call frame for block number, grouped by
	// transaction and ordered by ascending trace index within each
	// transaction, along with each transaction's gas accounting.
	BlockTraces(ctx context.Context, number uint64) (traces []CallTrace, gas map[types.Hash]GasDetails, err error)
	// LatestBlock returns the chain tip known to the provider.
	LatestBlock(ctx context.Context) (uint64, error)
}

// MetadataStore is the read/write side of the pool/token metadata backend.
// Reads are many-reader/no-lock from the orchestrator's perspective. The
// single write, PutNewPool, is called by the block tree builder while it
// builds a block (so a pool created in one transaction is known to later
// transactions of that block) and again by the orchestrator when it
// applies that block's pricing messages.
type MetadataStore interface {
	ProtocolOf(addr types.Address) (Protocol, bool)
	TokensOf(pool types.Address) ([]types.Address, bool)
	Decimals(token types.Address) uint8
	PutNewPool(pool types.Address, protocol Protocol, tokens []types.Address) error
}

// ClassifiedMev is the minimal envelope an inspector attaches to a finding;
// the inspector implementations themselves are out of scope (§1
// Non-goals), so this is intentionally thin — just enough for InspectorSink
// to have a concrete type to accept.
type ClassifiedMev struct {
	BlockNumber uint64
	TxHash      types.Hash
	MevContract types.Address
	EOA         types.Address
	MevType     string
}

// InspectorSink accepts finished MEV findings from inspectors running
// against a BlockTree. The specific payload is left as `any` since its
// shape is inspector-defined and out of scope here.
type InspectorSink interface {
	Emit(ctx context.Context, mev ClassifiedMev, specific any) error
}
