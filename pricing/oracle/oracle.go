// Package oracle implements the weighted-Dijkstra price oracle of spec.md
// §4.5 (C7): given a PairSubGraph and a PoolState snapshot for every edge's
// pool, it answers "price of A in B at this block" by a TVL-weighted
// shortest path over the subgraph, composing prices multiplicatively along
// the path in exact rational arithmetic.
package oracle

import (
	"container/heap"

	"github.com/malik672/brontes-go/poolstate"
	"github.com/malik672/brontes-go/pricing/subgraph"
	"github.com/malik672/brontes-go/types"
)

// edgeWeight is one directed bundle's resolved weight: its effective
// liquidity-weighted local price (lwp), combined TVL priced in the edge's
// From token, and Dijkstra edge cost 1/tvl_u.
type edgeWeight struct {
	lwp  types.Rational
	tvlU types.Rational
	cost types.Rational
}

// weighEdge implements spec.md §4.5's per-bundle aggregation: for every pool
// in the bundle, price and TVL are read with the edge's From token as base,
// then combined into one local weighted price and one TVL-in-u-units value.
// Reports ok=false if every pool in the bundle had zero TVL (no state, or a
// stale/drained pool) — the edge contributes nothing and Dijkstra simply
// never relaxes through it.
func weighEdge(b *subgraph.Bundle, states map[types.Address]*poolstate.State) (edgeWeight, bool) {
	sumWeighted := types.Zero // Σ p·(t0+t1)
	sumTVL := types.Zero      // Σ (t0+t1)
	sumT0 := types.Zero
	sumT1 := types.Zero
	var pLast types.Rational
	havePrice := false

	for _, info := range b.Pools {
		state, ok := states[info.Pool]
		if !ok {
			continue
		}
		p, ok := state.Price(b.From)
		if !ok {
			continue
		}
		t0, t1, ok := state.TVL(b.From)
		if !ok {
			continue
		}
		total := t0.Add(t1)
		if total.IsZero() {
			continue
		}
		sumWeighted = sumWeighted.Add(p.Mul(total))
		sumTVL = sumTVL.Add(total)
		sumT0 = sumT0.Add(t0)
		sumT1 = sumT1.Add(t1)
		pLast = p
		havePrice = true
	}

	if !havePrice || sumTVL.IsZero() {
		return edgeWeight{}, false
	}

	lwp := sumWeighted.Quo(sumTVL)
	// tvl_u = (Σt0)*p_last + (Σt1)*p_last/lwp, per spec.md §4.5.
	tvlU := sumT0.Mul(pLast).Add(sumT1.Mul(pLast).Quo(lwp))
	if tvlU.IsZero() {
		return edgeWeight{}, false
	}
	return edgeWeight{lwp: lwp, tvlU: tvlU, cost: tvlU.Reciprocal()}, true
}

// Price answers "how many goal tokens for one start=pair.Base token" by
// running Dijkstra over g weighted by the pool states in states. It returns
// false if goal is unreachable from pair.Base, or every edge touching the
// frontier had no usable weight.
func Price(g *subgraph.PairSubGraph, states map[types.Address]*poolstate.State) (types.Rational, bool) {
	start, goal := g.Pair.Base, g.Pair.Quote
	if start == goal {
		return types.One, true
	}

	dist := map[types.Address]types.Rational{start: types.Zero}
	nodePrice := map[types.Address]types.Rational{start: types.One}
	visited := map[types.Address]bool{}

	var seq uint64
	pq := &frontier{{cost: types.Zero, seq: seq, node: start}}
	heap.Init(pq)

	for pq.Len() > 0 {
		top := heap.Pop(pq).(scoredItem)
		if visited[top.node] {
			continue
		}
		visited[top.node] = true
		if top.node == goal {
			price, ok := nodePrice[goal]
			if !ok {
				return types.Zero, false
			}
			return price.Reciprocal(), true
		}

		for _, b := range outgoing(g, top.node) {
			w, ok := weighEdge(b, states)
			if !ok {
				continue
			}
			newDist := dist[top.node].Add(w.cost)
			if existing, seen := dist[b.To]; seen && !newDist.Less(existing) {
				continue
			}
			dist[b.To] = newDist
			nodePrice[b.To] = nodePrice[top.node].Mul(w.lwp.Reciprocal())
			seq++
			heap.Push(pq, scoredItem{cost: newDist, seq: seq, node: b.To})
		}
	}
	return types.Zero, false
}

// outgoing returns every bundle directed away from node.
func outgoing(g *subgraph.PairSubGraph, node types.Address) []*subgraph.Bundle {
	var out []*subgraph.Bundle
	for _, b := range g.Bundles() {
		if b.From == node {
			out = append(out, b)
		}
	}
	return out
}
