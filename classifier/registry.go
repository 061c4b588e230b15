package classifier

import (
	"sync"

	"github.com/malik672/brontes-go/actions"
	"github.com/malik672/brontes-go/external"
	"github.com/malik672/brontes-go/pricing"
	"github.com/malik672/brontes-go/types"
)

// Selector is a 4-byte function selector (the first four bytes of a call's
// calldata, conventionally keccak256(signature)[:4]).
type Selector [4]byte

// FrameInput is what a decoder sees: a call frame reduced to the fields it
// needs, plus its logs pre-split into pattern-matchable entries and a
// read-only handle to the metadata store for resolving counterparty
// addresses (e.g. a factory decoder looking up token decimals is NOT
// permitted — decoders must stay pure functions of their frame input, per
// spec.md §4's decoder-purity property — but the Uniswap decoders read
// Meta.TokensOf to resolve a pool's two tokens).
type FrameInput struct {
	TraceIndex uint64
	From       types.Address
	To         types.Address
	Input      []byte
	Logs       []LogEntry
	Meta       external.MetadataStore
}

// DecodeFunc turns a matched frame into an Action. ok is false for a
// "recognized but semantically empty" frame (e.g. a swap call whose Swap
// log never fired) — the dispatcher then behaves exactly as if no decoder
// had matched at all.
type DecodeFunc func(f FrameInput, m MatchResult) (action actions.Action, ok bool)

// PriceFunc derives the pool-state update a successfully decoded action
// implies, if any. Most Transfer/Liquidation decoders have no PriceFunc.
type PriceFunc func(f FrameInput, m MatchResult, a actions.Action) (*pricing.DexPriceMsg, bool)

// Decoder is one registered (pattern, decode, price) candidate for a given
// (protocol, selector) key.
type Decoder struct {
	Pattern []LogMatcher
	Decode  DecodeFunc
	Price   PriceFunc
}

type registryKey struct {
	protocol external.Protocol
	selector Selector
}

// Registry is the declarative decoder table: (protocol, selector) -> an
// ordered list of candidates, tried in registration order. It is built once
// at startup (via Register calls from the protocols sub-packages' init-style
// constructors) and read concurrently thereafter, so the lock only guards
// the unusual case of registering after dispatch has begun (tests do this).
type Registry struct {
	mu         sync.RWMutex
	candidates map[registryKey][]Decoder
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{candidates: make(map[registryKey][]Decoder)}
}

// Register appends a decoder candidate for (protocol, selector). Order of
// registration is the order candidates are tried.
func (r *Registry) Register(protocol external.Protocol, selector Selector, d Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := registryKey{protocol: protocol, selector: selector}
	r.candidates[key] = append(r.candidates[key], d)
}

func (r *Registry) lookup(protocol external.Protocol, selector Selector) []Decoder {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.candidates[registryKey{protocol: protocol, selector: selector}]
}
