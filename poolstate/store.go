package poolstate

import (
	"sync"

	"github.com/malik672/brontes-go/pricing"
	"github.com/malik672/brontes-go/types"
)

// Store is the pool-address → State map. Apply is the single write path,
// called by the orchestrator once per DexPriceMsg in trace order (§5);
// Snapshot gives readers (inspectors, the pricing oracle) a point-in-time
// copy so a block's worth of concurrent reads never race with the next
// block's writes.
type Store struct {
	mu     sync.RWMutex
	states map[types.Address]*State
}

// New returns an empty Store.
func New() *Store {
	return &Store{states: make(map[types.Address]*State)}
}

// Apply updates the pool named in msg. A KindNewPool message seeds an empty
// State (protocol and tokens known, no reserves yet — it reports zero TVL
// until its first Update, per §4.6's "this component never removes edges;
// a stale pool... reports zero TVL" handling of freshly discovered pools
// too). A KindUpdate message overwrites whichever of
// Reserves/Tick+SqrtPriceX96/Balances the message carries.
func (s *Store) Apply(msg pricing.DexPriceMsg) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[msg.Pool]
	if !ok {
		state = &State{Protocol: msg.Protocol, Tokens: msg.Tokens}
		s.states[msg.Pool] = state
	}
	state.LastUpdatedBlock = msg.Block
	if len(msg.Tokens) > 0 {
		state.Tokens = msg.Tokens
	}
	if msg.Protocol != "" {
		state.Protocol = msg.Protocol
	}

	switch msg.Kind {
	case pricing.KindNewPool:
		// tokens/protocol already applied above; no reserve data yet.
	case pricing.KindUpdate:
		if msg.Reserves != nil {
			state.Reserves = msg.Reserves
			state.Tick, state.SqrtPriceX96 = 0, nil
		}
		if msg.SqrtPriceX96 != nil {
			state.SqrtPriceX96 = msg.SqrtPriceX96
			state.Tick = msg.Tick
			state.Reserves = nil
		}
		if msg.Balances != nil {
			state.Balances = msg.Balances
		}
	}
}

// Get returns the current State of pool, and whether it is known at all.
func (s *Store) Get(pool types.Address) (*State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[pool]
	return st, ok
}

// Snapshot returns a point-in-time copy of every known pool's State. Apply
// mutates states in place under the store's lock, so Snapshot copies each
// State by value (not just the map) — otherwise a reader holding a pointer
// from an earlier snapshot could see a later block's Apply land mid-read.
func (s *Store) Snapshot() map[types.Address]*State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[types.Address]*State, len(s.states))
	for k, v := range s.states {
		cp := *v
		out[k] = &cp
	}
	return out
}
