package orchestrator

import (
	"sync"
	"time"

	"github.com/luxfi/geth/metrics"

	"github.com/malik672/brontes-go/poolstate"
	"github.com/malik672/brontes-go/pricing/oracle"
	"github.com/malik672/brontes-go/pricing/subgraph"
	"github.com/malik672/brontes-go/types"
)

// PriceOracle is the orchestrator's C6/C7 wiring: it owns one PairSubGraph
// per requested pair, built lazily on first request and only ever extended
// as new pools are observed (spec.md §3's subgraph lifecycle, §4.4's
// "never rebuild, only add_pool"), and answers price queries against it
// with the weighted-Dijkstra oracle over a live PoolState snapshot.
type PriceOracle struct {
	pools *poolstate.Store

	mu       sync.Mutex
	graphs   map[types.Pair]*subgraph.PairSubGraph
	universe []subgraph.PoolInfo
	seen     map[types.Address]bool

	queryLatency *metrics.Timer
}

// NewPriceOracle returns a PriceOracle reading pool state from pools.
func NewPriceOracle(pools *poolstate.Store) *PriceOracle {
	return &PriceOracle{
		pools:        pools,
		graphs:       make(map[types.Pair]*subgraph.PairSubGraph),
		seen:         make(map[types.Address]bool),
		queryLatency: metrics.NewRegisteredTimer("brontes/oracle/query_latency", nil),
	}
}

// ObservePool registers a newly discovered two-token pool in the pool
// universe and extends every existing pair subgraph with it. Pools with a
// token count other than two (e.g. a stable pool), or whose two tokens are
// the same, are ignored and not recorded, matching poolstate.State.Price's
// two-token-only support.
func (o *PriceOracle) ObservePool(pool types.Address, tokens []types.Address) {
	if len(tokens) != 2 || tokens[0] == tokens[1] {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.seen[pool] {
		return
	}
	o.seen[pool] = true
	info := subgraph.PoolInfo{Pool: pool, Tokens: [2]types.Address{tokens[0], tokens[1]}}
	o.universe = append(o.universe, info)
	for _, g := range o.graphs {
		g.AddPool(info)
	}
}

// Price returns the price of pair.Base expressed in pair.Quote at the
// pool state currently held by o.pools, building the pair's subgraph on
// first request. It reports false if the pair has no populated subgraph
// path or the oracle found no usable weight along any path (spec.md
// §4.5/§7's "pricing gap").
func (o *PriceOracle) Price(pair types.Pair) (types.Rational, bool) {
	start := time.Now()
	defer func() { o.queryLatency.UpdateSince(start) }()

	g := o.subgraphFor(pair)
	states := o.pools.Snapshot()
	return oracle.Price(g, states)
}

func (o *PriceOracle) subgraphFor(pair types.Pair) *subgraph.PairSubGraph {
	o.mu.Lock()
	defer o.mu.Unlock()
	if g, ok := o.graphs[pair]; ok {
		return g
	}
	tvl := o.tvlFunc(pair.Base)
	g := subgraph.Build(pair, o.universe, tvl, subgraph.DefaultK)
	o.graphs[pair] = g
	return g
}

// tvlFunc returns a subgraph.TVLFunc pricing a pool's combined reserves in
// base units, used only to rank candidate paths at subgraph construction
// time (spec.md §4.4's tie-break); the oracle's own per-edge weighting
// (§4.5) re-derives TVL independently at query time from a fresh snapshot.
func (o *PriceOracle) tvlFunc(base types.Address) subgraph.TVLFunc {
	return func(pool types.Address) types.Rational {
		st, ok := o.pools.Get(pool)
		if !ok {
			return types.Zero
		}
		t0, t1, ok := st.TVL(base)
		if !ok {
			return types.Zero
		}
		return t0.Add(t1)
	}
}
