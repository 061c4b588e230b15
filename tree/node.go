// Package tree builds the per-block forest of per-transaction call-frame
// trees described by spec.md §3/§4 (BlockTree, C4): one tree per
// transaction, nodes annotated with decoded Actions, children referenced by
// arena index rather than pointer so the read-only tree can be shared freely
// across inspector goroutines without any ownership cycle through
// subactions.
package tree

import (
	"github.com/malik672/brontes-go/actions"
	"github.com/malik672/brontes-go/external"
	"github.com/malik672/brontes-go/types"
)

// Node is one call frame in a transaction's tree. Children and Parent are
// indices into the owning BlockTree's Nodes slice; Parent is -1 for the
// tree's root.
type Node struct {
	Frame      external.CallTrace
	Action     actions.Action
	Children   []int
	Parent     int
	Subactions []actions.Action
}

// IsRoot reports whether this node has no parent.
func (n Node) IsRoot() bool { return n.Parent < 0 }

// BlockTree is the full call-frame tree of one transaction.
type BlockTree struct {
	TxHash  types.Hash
	TxIndex uint64
	Gas     external.GasDetails
	Nodes   []Node
	Root    int
}

// RootNode returns the transaction's top-level call frame.
func (t *BlockTree) RootNode() *Node {
	return &t.Nodes[t.Root]
}

// GasDetails returns the transaction's gas accounting.
func (t *BlockTree) GasDetails() external.GasDetails {
	return t.Gas
}

// Forest is the per-block collection of transaction trees, in the order
// their transactions appear in the block.
type Forest struct {
	Trees []*BlockTree
}

// ByTxHash returns the tree for txHash, or nil if the block had no such
// transaction.
func (f *Forest) ByTxHash(txHash types.Hash) *BlockTree {
	for _, t := range f.Trees {
		if t.TxHash == txHash {
			return t
		}
	}
	return nil
}
