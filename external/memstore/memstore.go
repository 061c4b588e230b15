// Package memstore is a minimal in-memory external.MetadataStore, good
// enough for tests and the CLI's dry-run/demo mode. A production
// deployment would back this with a persistent KV store (out of scope,
// per spec.md's Non-goals on persistence).
package memstore

import (
	"sync"

	"github.com/malik672/brontes-go/external"
	"github.com/malik672/brontes-go/types"
)

// Store is a concurrency-safe, many-reader/single-writer metadata store.
type Store struct {
	mu       sync.RWMutex
	protocol map[types.Address]external.Protocol
	tokens   map[types.Address][]types.Address
	decimals map[types.Address]uint8
}

var _ external.MetadataStore = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{
		protocol: make(map[types.Address]external.Protocol),
		tokens:   make(map[types.Address][]types.Address),
		decimals: make(map[types.Address]uint8),
	}
}

// ProtocolOf implements external.MetadataStore.
func (s *Store) ProtocolOf(addr types.Address) (external.Protocol, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.protocol[addr]
	return p, ok
}

// TokensOf implements external.MetadataStore.
func (s *Store) TokensOf(pool types.Address) ([]types.Address, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tokens[pool]
	return t, ok
}

// Decimals implements external.MetadataStore. Unknown tokens default to 18,
// the ERC-20 convention, rather than erroring: decimals is advisory
// metadata for display, never used on the exact-rational pricing path.
func (s *Store) Decimals(token types.Address) uint8 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.decimals[token]; ok {
		return d
	}
	return 18
}

// PutNewPool implements external.MetadataStore. It is the single write
// path; it takes the write lock, so it is safe to call while other
// goroutines read.
func (s *Store) PutNewPool(pool types.Address, protocol external.Protocol, tokens []types.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.protocol[pool] = protocol
	s.tokens[pool] = tokens
	return nil
}

// SetDecimals seeds the decimals of a token, for tests and genesis setup.
func (s *Store) SetDecimals(token types.Address, decimals uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decimals[token] = decimals
}
