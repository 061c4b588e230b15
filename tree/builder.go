package tree

import (
	"fmt"
	"sort"

	"github.com/luxfi/geth/log"

	"github.com/malik672/brontes-go/actions"
	"github.com/malik672/brontes-go/classifier"
	"github.com/malik672/brontes-go/external"
	"github.com/malik672/brontes-go/pricing"
	"github.com/malik672/brontes-go/types"
)

// Build classifies every call frame of block and assembles the per-
// transaction forest. frames must already be grouped by transaction (all
// frames of a transaction contiguous) and, within each transaction, ordered
// by strictly increasing trace index — the contract a TracingProvider makes
// per spec.md §6.1. Any DexPriceMsg a decoder produces is published to bus
// in the same pass, preserving trace order within the block as required by
// the orchestrator's ordering guarantee (§5).
//
// A malformed frame (non-monotonic trace index, a subtrace index with no
// matching frame, more than one rootless frame) is a fatal invariant
// violation per spec.md §7 and returns an error rather than silently
// dropping data — unlike decode failure, which degrades to Unclassified and
// never reaches here as an error.
func Build(block uint64, frames []external.CallTrace, gas map[types.Hash]external.GasDetails, dispatcher *classifier.Dispatcher, bus *pricing.Bus) (*Forest, error) {
	forest := &Forest{}
	for _, txFrames := range groupByTx(frames) {
		t, err := buildTx(block, txFrames, gas, dispatcher, bus)
		if err != nil {
			return nil, err
		}
		forest.Trees = append(forest.Trees, t)
	}
	return forest, nil
}

func groupByTx(frames []external.CallTrace) [][]external.CallTrace {
	var groups [][]external.CallTrace
	var current []external.CallTrace
	var currentHash types.Hash
	started := false
	for _, f := range frames {
		if !started || f.TxHash != currentHash {
			if started {
				groups = append(groups, current)
			}
			current = nil
			currentHash = f.TxHash
			started = true
		}
		current = append(current, f)
	}
	if started {
		groups = append(groups, current)
	}
	return groups
}

func buildTx(block uint64, frames []external.CallTrace, gas map[types.Hash]external.GasDetails, dispatcher *classifier.Dispatcher, bus *pricing.Bus) (*BlockTree, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("tree: empty frame group")
	}
	txHash := frames[0].TxHash

	nodes := make([]Node, len(frames))
	indexByTraceIndex := make(map[uint64]int, len(frames))
	for i, f := range frames {
		indexByTraceIndex[f.TraceIndex] = i
	}

	lastTrace := int64(-1)
	for i, f := range frames {
		if int64(f.TraceIndex) <= lastTrace {
			return nil, fmt.Errorf("tree: tx %s: trace_index not strictly increasing at position %d (got %d after %d)", txHash.Hex(), i, f.TraceIndex, lastTrace)
		}
		lastTrace = int64(f.TraceIndex)

		action, msg := dispatcher.Dispatch(block, f)
		nodes[i] = Node{Frame: f, Action: action, Parent: -1}
		if msg != nil && bus != nil {
			bus.Publish(*msg)
		}
	}

	for i, f := range frames {
		for _, childTraceIdx := range f.SubtraceIndices {
			childIdx, ok := indexByTraceIndex[childTraceIdx]
			if !ok {
				return nil, fmt.Errorf("tree: tx %s: subtrace index %d has no matching frame", txHash.Hex(), childTraceIdx)
			}
			nodes[i].Children = append(nodes[i].Children, childIdx)
			nodes[childIdx].Parent = i
		}
	}

	root := -1
	for i, n := range nodes {
		if n.IsRoot() {
			if root != -1 {
				return nil, fmt.Errorf("tree: tx %s: more than one root frame", txHash.Hex())
			}
			root = i
		}
	}
	if root == -1 {
		return nil, fmt.Errorf("tree: tx %s: no root frame found (cyclic subtrace references?)", txHash.Hex())
	}

	resolveNewPools(block, nodes, dispatcher, bus)
	fillSubactions(nodes, root)

	return &BlockTree{
		TxHash:  txHash,
		TxIndex: frames[0].TxIndex,
		Gas:     gas[txHash],
		Nodes:   nodes,
		Root:    root,
	}, nil
}

// resolveNewPools implements spec.md §4.3 step 4, the cross-frame
// resolution pass run once a transaction's frames are all dispatched and
// linked: every decoded NewPool action registers its pool in the metadata
// store immediately, so it is known before any later transaction in this
// block — built after this one by Build's sequential loop over
// groupByTx — can reference it. When the NewPool frame's own parent targets
// the pool directly (a router that calls the factory and then the fresh
// pool in the same top-level call), the parent was dispatched before the
// pool existed and so was classified with a stale or missing protocol;
// it is re-dispatched now that the pool is resolved.
func resolveNewPools(block uint64, nodes []Node, dispatcher *classifier.Dispatcher, bus *pricing.Bus) {
	meta := dispatcher.Meta()
	for i := range nodes {
		n := &nodes[i]
		if n.Action.Kind != actions.KindNewPool {
			continue
		}
		np := n.Action.NewPool
		if err := meta.PutNewPool(np.Pool, external.Protocol(np.Protocol), np.Tokens); err != nil {
			log.Warn("tree: registering new pool failed", "block", block, "pool", np.Pool, "err", err)
			continue
		}

		parent := n.Parent
		if parent < 0 || nodes[parent].Frame.To != np.Pool {
			continue
		}
		action, msg := dispatcher.Dispatch(block, nodes[parent].Frame)
		nodes[parent].Action = action
		if msg != nil && bus != nil {
			bus.Publish(*msg)
		}
	}
}

// fillSubactions walks bottom-up (post-order, via recursion) and, per
// spec.md §8's completeness property, sets each node's subactions to the
// trace-index-sorted union of every child's subactions plus that child's own
// action when it is classified. A node's own action is never part of its own
// subactions — only descendants contribute.
func fillSubactions(nodes []Node, i int) {
	var merged []actions.Action
	for _, c := range nodes[i].Children {
		fillSubactions(nodes, c)
		merged = append(merged, nodes[c].Subactions...)
		if !nodes[c].Action.IsUnclassified() {
			merged = append(merged, nodes[c].Action)
		}
	}
	sort.Slice(merged, func(a, b int) bool {
		return merged[a].TraceIndex() < merged[b].TraceIndex()
	})
	nodes[i].Subactions = merged
}
