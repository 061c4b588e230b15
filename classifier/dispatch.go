package classifier

import (
	"sync"

	"github.com/luxfi/geth/log"

	"github.com/malik672/brontes-go/actions"
	"github.com/malik672/brontes-go/external"
	"github.com/malik672/brontes-go/pricing"
	"github.com/malik672/brontes-go/types"
)

// Dispatcher resolves a call frame's protocol and selector, then tries each
// registered decoder candidate in order until one both matches its log
// pattern and returns an action; otherwise the frame is Unclassified.
type Dispatcher struct {
	registry *Registry
	meta     external.MetadataStore

	warnMu       sync.Mutex
	warnedBlock  uint64
	warnedUnkown map[types.Address]bool
}

// NewDispatcher builds a Dispatcher over registry, resolving protocols
// through meta.
func NewDispatcher(registry *Registry, meta external.MetadataStore) *Dispatcher {
	return &Dispatcher{registry: registry, meta: meta}
}

// Meta returns the metadata store this dispatcher resolves protocols
// through. The block tree builder uses this to register a newly-decoded
// NewPool action (spec.md §4.3 step 4) before resolving any frame that
// references it.
func (d *Dispatcher) Meta() external.MetadataStore {
	return d.meta
}

// warnUnknownOnce logs a missing-metadata warning at most once per unknown
// address per block, per spec.md §7's "Missing metadata" error kind.
func (d *Dispatcher) warnUnknownOnce(block uint64, addr types.Address) {
	d.warnMu.Lock()
	defer d.warnMu.Unlock()
	if d.warnedBlock != block {
		d.warnedBlock = block
		d.warnedUnkown = make(map[types.Address]bool)
	}
	if d.warnedUnkown[addr] {
		return
	}
	d.warnedUnkown[addr] = true
	log.Warn("classifier: unknown pool/token, demoting frame to unclassified", "block", block, "address", addr)
}

// Dispatch classifies one call frame from the given block. It never errors:
// a frame this dispatcher cannot explain becomes an Unclassified action, per
// spec.md §4's "never drop a frame" invariant. The returned *pricing.DexPriceMsg
// is nil unless the winning decoder produced one.
func (d *Dispatcher) Dispatch(block uint64, frame external.CallTrace) (actions.Action, *pricing.DexPriceMsg) {
	unclassified := func() actions.Action {
		var selector [4]byte
		if len(frame.Input) >= 4 {
			copy(selector[:], frame.Input[:4])
		}
		return actions.Action{
			Kind: actions.KindUnclassified,
			Unclassified: &actions.Unclassified{
				Target:     frame.To,
				Selector:   selector,
				Input:      frame.Input,
				LogCount:   len(frame.Logs),
				TraceIndex: frame.TraceIndex,
			},
		}
	}

	if len(frame.Input) < 4 {
		return unclassified(), nil
	}
	protocol, ok := d.meta.ProtocolOf(frame.To)
	if !ok {
		d.warnUnknownOnce(block, frame.To)
		return unclassified(), nil
	}
	var selector Selector
	copy(selector[:], frame.Input[:4])

	candidates := d.registry.lookup(protocol, selector)
	if len(candidates) == 0 {
		return unclassified(), nil
	}

	input := FrameInput{
		TraceIndex: frame.TraceIndex,
		From:       frame.From,
		To:         frame.To,
		Input:      frame.Input,
		Logs:       LogsOf(frame.Logs),
		Meta:       d.meta,
	}

	for _, c := range candidates {
		match, ok := Match(c.Pattern, input.Logs)
		if !ok {
			continue
		}
		action, msg, matched := d.tryDecode(block, frame, c, input, match)
		if !matched {
			continue
		}
		return action, msg
	}
	return unclassified(), nil
}

// tryDecode invokes one candidate's Decode/Price functions with panic
// recovery: per spec.md §4.3/§7, a decoder that panics demotes its frame to
// Unclassified with a logged warning rather than crashing tree
// construction. matched is false both when the decoder legitimately
// returned "semantically empty" (ok=false) and when it panicked; either way
// the caller falls through to the next candidate or, if none remain, to
// Unclassified.
func (d *Dispatcher) tryDecode(block uint64, frame external.CallTrace, c Decoder, input FrameInput, match MatchResult) (action actions.Action, msg *pricing.DexPriceMsg, matched bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn("classifier: decoder panicked, demoting frame to unclassified",
				"block", block, "target", frame.To, "trace_index", frame.TraceIndex, "panic", r)
			matched = false
		}
	}()

	a, ok := c.Decode(input, match)
	if !ok {
		return actions.Action{}, nil, false
	}
	if c.Price != nil {
		if m, ok := c.Price(input, match, a); ok {
			m.Block = block
			msg = m
		}
	}
	return a, msg, true
}
