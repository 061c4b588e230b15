package oracle

import (
	"container/heap"

	"github.com/malik672/brontes-go/types"
)

// scoredItem is one entry on Dijkstra's frontier: a node awaiting relaxation
// with its tentative cumulative cost. seq is a monotonically increasing
// insertion counter used to break exact cost ties by insertion order, per
// spec.md §4.5 — the role the original source's MinScored wrapper plays by
// inverting a max-heap BinaryHeap's ordering into a min-heap's; Go's
// container/heap takes an arbitrary Less directly, so the same min-first,
// tie-by-insertion-order semantics are expressed without needing a
// separate inversion wrapper.
type scoredItem struct {
	cost types.Rational
	seq  uint64
	node types.Address
}

// frontier is a container/heap.Interface min-heap over scoredItem.
type frontier []scoredItem

func (f frontier) Len() int { return len(f) }
func (f frontier) Less(i, j int) bool {
	c := f[i].cost.Cmp(f[j].cost)
	if c != 0 {
		return c < 0
	}
	return f[i].seq < f[j].seq
}
func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }

func (f *frontier) Push(x any) { *f = append(*f, x.(scoredItem)) }

func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	item := old[n-1]
	*f = old[:n-1]
	return item
}

var _ heap.Interface = (*frontier)(nil)
