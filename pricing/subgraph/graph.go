// Package subgraph builds and incrementally extends the per-pair directed
// pool graph spec.md §4.4 calls the Pair Subgraph (C6): the k-shortest
// simple paths (by hop count, ties broken by summed inverse-TVL) between a
// requested pair's two tokens, with parallel pools on the same adjacency
// bundled into one super-edge.
package subgraph

import (
	"sort"

	"github.com/malik672/brontes-go/types"
)

// DefaultK is the number of shortest paths unioned into a subgraph when the
// caller does not specify one.
const DefaultK = 5

// PoolInfo is the minimal description of a pool Build/AddPool needs: its
// address and the two tokens it holds. Every pool is bidirectional — it
// contributes an edge in both directions between its tokens.
type PoolInfo struct {
	Pool   types.Address
	Tokens [2]types.Address
}

func (p PoolInfo) other(token types.Address) types.Address {
	if p.Tokens[0] == token {
		return p.Tokens[1]
	}
	return p.Tokens[0]
}

// Bundle is the set of parallel pools forming one directed adjacency
// From -> To, plus the shortest hop distance (over every unioned path) from
// From back to the subgraph's start token and from To forward to goal —
// the distances add_pool needs to decide whether a new edge is still
// "close enough" to the shortest path to be worth adding.
type Bundle struct {
	From, To      types.Address
	Pools         []PoolInfo
	HopFromStart  int
	HopToGoal     int
}

// PairSubGraph is the directed multigraph for one requested (base, quote)
// pair, built by Build and thereafter only ever grown by AddPool — per
// spec.md §4.4, "this component never removes edges."
type PairSubGraph struct {
	Pair  types.Pair
	K     int
	edges map[types.Address]map[types.Address]*Bundle

	// shortestHopCount is the hop count of the shortest of the k paths
	// unioned at construction time, lowered by any AddPool whose edge lies on
	// a shorter path; AddPool compares a candidate edge's combined hop distance
	// against this.
	shortestHopCount int
}

// TVLFunc resolves a pool's total value locked for tie-breaking path
// candidates of equal hop count; the pricing oracle's PoolState store
// supplies this in production, a fixed map suffices in tests.
type TVLFunc func(pool types.Address) types.Rational

// Build computes the k-shortest simple paths (by hop count, ties broken by
// summed inverse-TVL of traversed pools) between pair.Base and pair.Quote
// over the given pool universe, and unions their edges into a subgraph.
func Build(pair types.Pair, universe []PoolInfo, tvl TVLFunc, k int) *PairSubGraph {
	if k <= 0 {
		k = DefaultK
	}
	g := &PairSubGraph{Pair: pair, K: k, edges: make(map[types.Address]map[types.Address]*Bundle)}
	adj := adjacencyOf(universe)
	paths := kShortestPaths(adj, pair.Base, pair.Quote, k, tvl)
	if len(paths) > 0 {
		g.shortestHopCount = len(paths[0].pools)
	}
	for _, p := range paths {
		g.unionPath(p)
	}
	return g
}

// Bundles returns every directed adjacency bundle currently in the
// subgraph, for the oracle to iterate.
func (g *PairSubGraph) Bundles() []*Bundle {
	out := make([]*Bundle, 0, len(g.edges))
	for _, byTo := range g.edges {
		for _, b := range byTo {
			out = append(out, b)
		}
	}
	return out
}

// BundleBetween returns the bundle directed from -> to, if any.
func (g *PairSubGraph) BundleBetween(from, to types.Address) (*Bundle, bool) {
	byTo, ok := g.edges[from]
	if !ok {
		return nil, false
	}
	b, ok := byTo[to]
	return b, ok
}

func (g *PairSubGraph) hasNode(token types.Address) bool {
	if _, ok := g.edges[token]; ok {
		return true
	}
	for _, byTo := range g.edges {
		if _, ok := byTo[token]; ok {
			return true
		}
	}
	return token == g.Pair.Base || token == g.Pair.Quote
}

// hopFromStart/hopToGoal return the best known hop distance recorded on any
// bundle touching token, or -1 if token is not yet in the subgraph.
func (g *PairSubGraph) hopFromStart(token types.Address) int {
	if token == g.Pair.Base {
		return 0
	}
	best := -1
	for _, b := range g.Bundles() {
		if b.To == token && (best == -1 || b.HopFromStart+1 < best) {
			best = b.HopFromStart + 1
		}
	}
	return best
}

func (g *PairSubGraph) hopToGoal(token types.Address) int {
	if token == g.Pair.Quote {
		return 0
	}
	best := -1
	for _, b := range g.Bundles() {
		if b.From == token && (best == -1 || b.HopToGoal+1 < best) {
			best = b.HopToGoal + 1
		}
	}
	return best
}

// AddPool incrementally extends the subgraph per spec.md §4.4: if both of
// the pool's tokens are already nodes and the resulting edge's combined hop
// distance to both endpoints is within the current shortest path's hop
// count, the edge joins the bundle, in each direction whose own combined
// distance is within that count; otherwise the pool is not helpful for this
// pair and is ignored. Never removes an edge.
func (g *PairSubGraph) AddPool(info PoolInfo) {
	a, b := info.Tokens[0], info.Tokens[1]
	if !g.hasNode(a) || !g.hasNode(b) {
		return
	}
	fromStartA, toGoalB := g.hopFromStart(a), g.hopToGoal(b)
	fromStartB, toGoalA := g.hopFromStart(b), g.hopToGoal(a)
	if fromStartA < 0 || toGoalB < 0 || fromStartB < 0 || toGoalA < 0 {
		return
	}
	combinedAB := fromStartA + 1 + toGoalB
	combinedBA := fromStartB + 1 + toGoalA
	if combinedAB > g.shortestHopCount && combinedBA > g.shortestHopCount {
		return
	}
	if combinedAB <= g.shortestHopCount {
		g.addDirectedEdge(a, b, info, fromStartA, toGoalB)
	}
	if combinedBA <= g.shortestHopCount {
		g.addDirectedEdge(b, a, info, fromStartB, toGoalA)
	}
	if combinedAB < g.shortestHopCount {
		g.shortestHopCount = combinedAB
	}
	if combinedBA < g.shortestHopCount {
		g.shortestHopCount = combinedBA
	}
}

func (g *PairSubGraph) addDirectedEdge(from, to types.Address, info PoolInfo, hopFromStart, hopToGoal int) {
	byTo, ok := g.edges[from]
	if !ok {
		byTo = make(map[types.Address]*Bundle)
		g.edges[from] = byTo
	}
	bundle, ok := byTo[to]
	if !ok {
		bundle = &Bundle{From: from, To: to, HopFromStart: hopFromStart, HopToGoal: hopToGoal}
		byTo[to] = bundle
	}
	for _, p := range bundle.Pools {
		if p.Pool == info.Pool {
			return
		}
	}
	bundle.Pools = append(bundle.Pools, info)
	if hopFromStart < bundle.HopFromStart {
		bundle.HopFromStart = hopFromStart
	}
	if hopToGoal < bundle.HopToGoal {
		bundle.HopToGoal = hopToGoal
	}
}

type path struct {
	tokens []types.Address
	pools  []PoolInfo
}

func (g *PairSubGraph) unionPath(p path) {
	for i, info := range p.pools {
		from, to := p.tokens[i], p.tokens[i+1]
		g.addDirectedEdge(from, to, info, i, len(p.pools)-1-i)
	}
}

func adjacencyOf(universe []PoolInfo) map[types.Address][]PoolInfo {
	adj := make(map[types.Address][]PoolInfo)
	for _, p := range universe {
		adj[p.Tokens[0]] = append(adj[p.Tokens[0]], p)
		adj[p.Tokens[1]] = append(adj[p.Tokens[1]], p)
	}
	return adj
}

// kShortestPaths enumerates simple paths from start to goal by depth-first
// search bounded to the shortest hop count found plus a small slack, ranks
// them by (hop count, summed inverse-TVL of traversed pools), and returns
// the best k. This is a practical approximation of Yen's algorithm rather
// than a full implementation: the pool universes a single pair's subgraph
// spans in practice are small enough that bounded DFS enumerates every
// candidate path worth ranking.
func kShortestPaths(adj map[types.Address][]PoolInfo, start, goal types.Address, k int, tvl TVLFunc) []path {
	shortest := shortestHopCount(adj, start, goal)
	if shortest < 0 {
		return nil
	}
	maxDepth := shortest + 3

	var found []path
	visited := map[types.Address]bool{start: true}
	var tokens = []types.Address{start}
	var pools []PoolInfo

	var dfs func(current types.Address)
	dfs = func(current types.Address) {
		if len(pools) > maxDepth {
			return
		}
		if current == goal && len(pools) > 0 {
			found = append(found, path{
				tokens: append([]types.Address{}, tokens...),
				pools:  append([]PoolInfo{}, pools...),
			})
			return
		}
		for _, p := range adj[current] {
			next := p.other(current)
			if visited[next] {
				continue
			}
			visited[next] = true
			tokens = append(tokens, next)
			pools = append(pools, p)

			dfs(next)

			tokens = tokens[:len(tokens)-1]
			pools = pools[:len(pools)-1]
			visited[next] = false
		}
	}
	dfs(start)

	sort.SliceStable(found, func(i, j int) bool {
		if len(found[i].pools) != len(found[j].pools) {
			return len(found[i].pools) < len(found[j].pools)
		}
		return pathInverseTVL(found[i], tvl).Less(pathInverseTVL(found[j], tvl))
	})
	if len(found) > k {
		found = found[:k]
	}
	return found
}

func pathInverseTVL(p path, tvl TVLFunc) types.Rational {
	sum := types.Zero
	for _, info := range p.pools {
		t := tvl(info.Pool)
		if t.IsZero() {
			continue
		}
		sum = sum.Add(t.Reciprocal())
	}
	return sum
}

func shortestHopCount(adj map[types.Address][]PoolInfo, start, goal types.Address) int {
	if start == goal {
		return 0
	}
	type item struct {
		token types.Address
		dist  int
	}
	visited := map[types.Address]bool{start: true}
	queue := []item{{start, 0}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, p := range adj[cur.token] {
			next := p.other(cur.token)
			if visited[next] {
				continue
			}
			if next == goal {
				return cur.dist + 1
			}
			visited[next] = true
			queue = append(queue, item{next, cur.dist + 1})
		}
	}
	return -1
}
