package tree

import (
	"github.com/malik672/brontes-go/actions"
	"github.com/malik672/brontes-go/types"
)

// Match is one maximal matching sub-sequence returned by InspectAll: the
// subactions of the node whose subtree satisfied the predicate, identified
// by that node's trace index.
type Match struct {
	TraceIndex uint64
	Subactions []actions.Action
}

// InspectAll returns, for every transaction whose tree contains at least one
// node whose subactions satisfy predicate, the maximal matching
// sub-sequences per spec.md §4's inspect_all: a "sub-sequence" is one node's
// whole subactions slice; "maximal" means no ancestor's matching slice also
// contains it, which this implementation achieves by stopping the walk as
// soon as a node matches — everything below it is already folded into its
// subactions, so descending further could only produce a strict subset.
func (f *Forest) InspectAll(predicate func(actions.Action) bool) map[types.Hash][]Match {
	out := make(map[types.Hash][]Match)
	for _, t := range f.Trees {
		if matches := t.inspectAll(predicate); len(matches) > 0 {
			out[t.TxHash] = matches
		}
	}
	return out
}

func (t *BlockTree) inspectAll(predicate func(actions.Action) bool) []Match {
	var out []Match
	var walk func(i int)
	walk = func(i int) {
		n := &t.Nodes[i]
		for _, a := range n.Subactions {
			if predicate(a) {
				out = append(out, Match{TraceIndex: n.Frame.TraceIndex, Subactions: n.Subactions})
				return
			}
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(t.Root)
	return out
}

// Collect returns every action in the transaction — the root's own action
// (if classified) plus its full subactions — that satisfies predicate, in
// trace-index order.
func (t *BlockTree) Collect(predicate func(actions.Action) bool) []actions.Action {
	root := t.RootNode()
	all := make([]actions.Action, 0, len(root.Subactions)+1)
	if !root.Action.IsUnclassified() {
		all = append(all, root.Action)
	}
	all = append(all, root.Subactions...)

	out := make([]actions.Action, 0, len(all))
	for _, a := range all {
		if predicate(a) {
			out = append(out, a)
		}
	}
	return out
}
