// Package actions defines the normalized, protocol-agnostic description of
// what a single call frame did on-chain. A decoder (package classifier)
// produces one Action per recognized frame; everything downstream — the
// block tree, the pricing subgraph, inspectors — only ever sees this sum
// type, never raw calldata or logs again.
package actions

import (
	"github.com/holiman/uint256"

	"github.com/malik672/brontes-go/types"
)

// Kind tags which Action variant is populated. Switching on Kind is the
// idiomatic way to inspect an Action without a type assertion on every use
// site; the concrete struct is still reachable via the As* accessors below.
type Kind uint8

const (
	KindUnclassified Kind = iota
	KindSwap
	KindMint
	KindBurn
	KindTransfer
	KindLiquidation
	KindNewPool
)

func (k Kind) String() string {
	switch k {
	case KindSwap:
		return "swap"
	case KindMint:
		return "mint"
	case KindBurn:
		return "burn"
	case KindTransfer:
		return "transfer"
	case KindLiquidation:
		return "liquidation"
	case KindNewPool:
		return "new_pool"
	default:
		return "unclassified"
	}
}

// Action is the closed sum type every decoder produces. Exactly one of the
// typed fields is meaningful, selected by Kind; Unclassified carries the raw
// frame data verbatim so a frame that could not be decoded is never simply
// dropped.
type Action struct {
	Kind Kind

	Swap        *Swap
	Mint        *Mint
	Burn        *Burn
	Transfer    *Transfer
	Liquidation *Liquidation
	NewPool     *NewPool
	Unclassified *Unclassified
}

// TraceIndex returns the pre-order trace index of the frame that produced
// this action, the one field every variant (including Unclassified) has.
func (a Action) TraceIndex() uint64 {
	switch a.Kind {
	case KindSwap:
		return a.Swap.TraceIndex
	case KindMint:
		return a.Mint.TraceIndex
	case KindBurn:
		return a.Burn.TraceIndex
	case KindTransfer:
		return a.Transfer.TraceIndex
	case KindLiquidation:
		return a.Liquidation.TraceIndex
	case KindNewPool:
		return a.NewPool.TraceIndex
	default:
		return a.Unclassified.TraceIndex
	}
}

// IsUnclassified reports whether this frame carried no recognizable action.
func (a Action) IsUnclassified() bool { return a.Kind == KindUnclassified }

// IsSwap reports whether this action is a Swap.
func (a Action) IsSwap() bool { return a.Kind == KindSwap }

// IsLiquidation reports whether this action is a Liquidation.
func (a Action) IsLiquidation() bool { return a.Kind == KindLiquidation }

// Swap is a token-in/token-out exchange against one pool.
type Swap struct {
	Pool       types.Address
	From       types.Address
	Recipient  types.Address
	TokenIn    types.Address
	TokenOut   types.Address
	AmountIn   *uint256.Int
	AmountOut  *uint256.Int
	TraceIndex uint64
}

// Mint is a liquidity deposit into a pool, crediting the provider with LP
// shares (the shares themselves are out of scope; only the underlying token
// amounts supplied are recorded, per spec.md's Action shape).
type Mint struct {
	Pool       types.Address
	From       types.Address
	Recipient  types.Address
	Tokens     []types.Address
	Amounts    []*uint256.Int
	TraceIndex uint64
}

// Burn is a liquidity withdrawal from a pool.
type Burn struct {
	Pool       types.Address
	From       types.Address
	Recipient  types.Address
	Tokens     []types.Address
	Amounts    []*uint256.Int
	TraceIndex uint64
}

// Transfer is a plain ERC-20 token movement not already consumed as part of
// a Swap/Mint/Burn's log pattern.
type Transfer struct {
	Token      types.Address
	From       types.Address
	To         types.Address
	Amount     *uint256.Int
	TraceIndex uint64
}

// Liquidation is a lending-protocol seizure of collateral to repay a bad
// debt position.
type Liquidation struct {
	Pool             types.Address
	Liquidator       types.Address
	Debtor           types.Address
	CollateralToken  types.Address
	DebtToken        types.Address
	CollateralAmount *uint256.Int
	DebtAmount       *uint256.Int
	TraceIndex       uint64
}

// NewPool announces a freshly deployed pool, discovered via a factory's
// creation log. The metadata store must observe this before any later
// transaction referencing Pool can be classified.
type NewPool struct {
	Factory    types.Address
	Pool       types.Address
	Tokens     []types.Address
	Protocol   string
	TraceIndex uint64
}

// Unclassified carries the raw call/log data of a frame that was
// recognized by no decoder, or whose decoder returned "semantically
// empty". It is never discarded: downstream inspectors that scan for
// specific subsequences simply skip it.
type Unclassified struct {
	Target     types.Address
	Selector   [4]byte
	Input      []byte
	LogCount   int
	TraceIndex uint64
}
