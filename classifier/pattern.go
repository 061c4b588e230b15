// Package classifier implements the declarative (protocol, selector) decoder
// registry and the log-pattern matcher described by spec.md §4: a call frame
// is classified by first resolving its target's protocol, then trying each
// registered decoder for (protocol, 4-byte selector) in registration order,
// and keeping the first one whose log pattern matches and whose decode
// function returns an action.
package classifier

import (
	gethtypes "github.com/luxfi/geth/core/types"

	"github.com/malik672/brontes-go/types"
)

// MatchKind distinguishes the three log-matcher shapes of the pattern DSL.
type MatchKind uint8

const (
	// matchExact requires the log at the current cursor position and
	// contributes its data to the decoder.
	matchExact MatchKind = iota
	// matchIgnore requires the log at the current cursor position but
	// discards it.
	matchIgnore
	// matchPossibleIgnore consumes the log at the current cursor position
	// only if it is present there; absence is not a failure.
	matchPossibleIgnore
)

// LogMatcher is one element of a decoder's log pattern.
type LogMatcher struct {
	kind MatchKind
	sig  types.Hash
}

// Exact matches a log with this signature and keeps it for the decoder.
func Exact(sig types.Hash) LogMatcher { return LogMatcher{kind: matchExact, sig: sig} }

// Ignore matches a log with this signature and discards it; unlike Exact it
// contributes no data, but like Exact its presence is required.
func Ignore(sig types.Hash) LogMatcher { return LogMatcher{kind: matchIgnore, sig: sig} }

// Possible wraps an Ignore matcher to make it optional: absent is a no-op,
// present is consumed and discarded exactly like Ignore. Only Ignore
// matchers are meaningfully optional — an optional Exact would mean a
// decoder sometimes has no data for a slot it must read, which is not a
// pattern this DSL expresses.
func Possible(inner LogMatcher) LogMatcher {
	return LogMatcher{kind: matchPossibleIgnore, sig: inner.sig}
}

// LogEntry is a decoded-enough view of a raw log for pattern matching: just
// its topic0 signature, plus the underlying log for the decode function to
// read further topics/data from.
type LogEntry struct {
	Sig types.Hash
	Log gethtypes.Log
}

// LogsOf turns a frame's raw logs into pattern-matchable entries. A log with
// no topics (malformed, or an anonymous event) never matches any matcher.
func LogsOf(logs []gethtypes.Log) []LogEntry {
	out := make([]LogEntry, len(logs))
	for i, l := range logs {
		var sig types.Hash
		if len(l.Topics) > 0 {
			sig = l.Topics[0]
		}
		out[i] = LogEntry{Sig: sig, Log: l}
	}
	return out
}

// MatchResult is the outcome of a successful pattern match: the logs that
// matched an Exact matcher, in pattern order.
type MatchResult struct {
	Exacts []gethtypes.Log
}

// Match runs the pattern against logs in a single left-to-right pass: a
// cursor advances over logs as each matcher consumes (or, for an absent
// Possible, skips) its slot. An Exact or Ignore matcher whose signature does
// not equal the log at the current cursor — including running out of logs —
// fails the whole match. Trailing logs beyond what the pattern consumes do
// not affect the result: the pattern describes a required prefix, not the
// whole sequence.
func Match(pattern []LogMatcher, logs []LogEntry) (MatchResult, bool) {
	i := 0
	var exacts []gethtypes.Log
	for _, m := range pattern {
		switch m.kind {
		case matchExact:
			if i >= len(logs) || logs[i].Sig != m.sig {
				return MatchResult{}, false
			}
			exacts = append(exacts, logs[i].Log)
			i++
		case matchIgnore:
			if i >= len(logs) || logs[i].Sig != m.sig {
				return MatchResult{}, false
			}
			i++
		case matchPossibleIgnore:
			if i < len(logs) && logs[i].Sig == m.sig {
				i++
			}
		}
	}
	return MatchResult{Exacts: exacts}, true
}
