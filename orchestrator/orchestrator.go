// Package orchestrator drives blocks through classification, tree
// building, and pricing, then fans the result out to inspectors — spec.md
// §4.6's Orchestrator (C8). It is the one component that owns the full
// pipeline: everything else (classifier, tree, poolstate, pricing) is a
// pure function of its inputs, called here in the order and concurrency
// bounds spec.md §5 requires.
package orchestrator

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/luxfi/geth/log"
	"github.com/luxfi/geth/metrics"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/malik672/brontes-go/classifier"
	"github.com/malik672/brontes-go/external"
	"github.com/malik672/brontes-go/poolstate"
	"github.com/malik672/brontes-go/pricing"
	"github.com/malik672/brontes-go/tree"
	"github.com/malik672/brontes-go/types"
)

// Finding is one inspector's output for one transaction, handed to the
// InspectorSink.
type Finding struct {
	Mev      external.ClassifiedMev
	Specific any
}

// Inspector analyzes one block's tree against the pool state and price
// oracle available at that block and returns zero or more findings. The
// inspector implementations themselves (sandwich/arbitrage/liquidation
// detection logic) are out of scope per spec.md §1's Non-goals; this
// interface is only the seam the orchestrator calls through.
type Inspector interface {
	ID() string
	Inspect(ctx context.Context, block uint64, forest *tree.Forest, pools map[types.Address]*poolstate.State, prices *PriceOracle) ([]Finding, error)
}

// Config is the external configuration enumerated in spec.md §6.
type Config struct {
	StartBlock    uint64
	EndBlock      *uint64
	MaxTasks      int
	QuoteAsset    types.Address
	Inspectors    map[string]bool // nil means "all registered"
	RunDexPricing bool
}

// resolvedMaxTasks returns cfg.MaxTasks if set, otherwise 0.8 * NumCPU
// rounded down with a floor of 1, per spec.md §5's scheduling model.
func (c Config) resolvedMaxTasks() int {
	if c.MaxTasks > 0 {
		return c.MaxTasks
	}
	n := int(float64(runtime.NumCPU()) * 0.8)
	if n < 1 {
		n = 1
	}
	return n
}

func (c Config) wants(id string) bool {
	if c.Inspectors == nil {
		return true
	}
	return c.Inspectors[id]
}

// Orchestrator wires together one run's TracingProvider, MetadataStore,
// decoder registry, pool-state store, price oracle, and inspector set.
type Orchestrator struct {
	cfg        Config
	traces     external.TracingProvider
	meta       external.MetadataStore
	dispatcher *classifier.Dispatcher
	pools      *poolstate.Store
	prices     *PriceOracle
	inspectors []Inspector
	sink       external.InspectorSink

	blocksProcessed *metrics.Counter
	blockLatency    *metrics.Timer
}

// New builds an Orchestrator. registry must already hold every decoder
// this run needs to recognize (classifier/protocols' Register calls,
// typically run once at process startup).
func New(cfg Config, traces external.TracingProvider, meta external.MetadataStore, registry *classifier.Registry, sink external.InspectorSink, inspectors []Inspector) *Orchestrator {
	pools := poolstate.New()
	return &Orchestrator{
		cfg:        cfg,
		traces:     traces,
		meta:       meta,
		dispatcher: classifier.NewDispatcher(registry, meta),
		pools:      pools,
		prices:     NewPriceOracle(pools),
		inspectors: inspectors,
		sink:       sink,

		blocksProcessed: metrics.NewRegisteredCounter("brontes/orchestrator/blocks", nil),
		blockLatency:    metrics.NewRegisteredTimer("brontes/orchestrator/block_latency", nil),
	}
}

// blockOutcome is one fetched-and-built block, produced by the pipeline
// stage and consumed in block order by Run.
type blockOutcome struct {
	block  uint64
	forest *tree.Forest
	msgs   []pricing.DexPriceMsg
	err    error
}

// Run drives blocks from cfg.StartBlock to cfg.EndBlock (or the chain tip
// if unbounded), fetching and building one block ahead of the slowest
// inspector pass, bounded by cfg.resolvedMaxTasks() blocks in flight at
// once (spec.md §5's backpressure). It returns nil on a clean run to
// completion or a clean graceful shutdown, and a non-zero error on any
// fatal condition (spec.md §7): a missing block range, or upstream I/O
// exhausting its retry budget.
func (o *Orchestrator) Run(ctx context.Context) error {
	if !o.cfg.RunDexPricing && o.cfg.EndBlock == nil {
		return fmt.Errorf("orchestrator: end_block is required when run_dex_pricing is false")
	}

	maxTasks := o.cfg.resolvedMaxTasks()
	// slots carries one per-block result channel, in block order; fetch
	// and tree-build for up to maxTasks blocks run concurrently and fill
	// their slot whenever they finish, but the consumer below only ever
	// reads slots in order, so a fast block N+1 can finish building before
	// a slow block N without ever being applied out of order (spec.md §5:
	// "inspectors for block N see the pool state at block N").
	slots := make(chan chan blockOutcome, maxTasks)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(slots)
		return o.produce(gctx, maxTasks, slots)
	})

	var runErr error
	for resultCh := range slots {
		outcome := <-resultCh
		if outcome.err != nil {
			runErr = outcome.err
			break
		}
		if err := o.consume(ctx, outcome); err != nil {
			runErr = err
			break
		}
		o.blocksProcessed.Inc(1)
	}

	// Drain any remaining slots so the producer's goroutines never block
	// sending into a slot nobody reads (e.g. on fatal error).
	for resultCh := range slots {
		<-resultCh
	}

	if err := g.Wait(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		log.Error("orchestrator: run terminated", "err", runErr)
		return runErr
	}
	return nil
}

// produce fetches and builds blocks from cfg.StartBlock onward, one
// result-slot per block pushed to slots in order, bounded to maxTasks
// concurrent fetch/build pipelines in flight. It stops, without error,
// when ctx is cancelled (graceful shutdown — spec.md §5) or the configured
// range is exhausted.
func (o *Orchestrator) produce(ctx context.Context, maxTasks int, slots chan<- chan blockOutcome) error {
	sem := semaphore.NewWeighted(int64(maxTasks))
	g, gctx := errgroup.WithContext(ctx)

	block := o.cfg.StartBlock
	for {
		if o.cfg.EndBlock != nil && block > *o.cfg.EndBlock {
			break
		}
		if ctx.Err() != nil {
			break
		}
		if o.cfg.EndBlock == nil {
			tip, err := o.traces.LatestBlock(ctx)
			if err != nil {
				return fmt.Errorf("orchestrator: fetching latest block: %w", err)
			}
			if block > tip {
				break
			}
		}

		if err := sem.Acquire(gctx, 1); err != nil {
			break // context cancelled while waiting for a slot
		}
		b := block
		resultCh := make(chan blockOutcome, 1)
		select {
		case slots <- resultCh:
		case <-ctx.Done():
			sem.Release(1)
			return g.Wait()
		}
		g.Go(func() error {
			defer sem.Release(1)
			outcome := o.fetchAndBuild(gctx, b)
			resultCh <- outcome
			if outcome.err != nil {
				return outcome.err
			}
			return nil
		})
		block++
	}
	return g.Wait()
}

// fetchAndBuild retries the upstream trace fetch with backoff, then builds
// the block's forest and drains its pricing messages. It never returns a
// nil forest alongside a nil error.
func (o *Orchestrator) fetchAndBuild(ctx context.Context, block uint64) blockOutcome {
	start := time.Now()
	defer func() { o.blockLatency.UpdateSince(start) }()

	var traces []external.CallTrace
	var gas map[types.Hash]external.GasDetails
	err := withRetry(ctx, defaultRetry, func() error {
		var ferr error
		traces, gas, ferr = o.traces.BlockTraces(ctx, block)
		return ferr
	})
	if err != nil {
		return blockOutcome{block: block, err: fmt.Errorf("orchestrator: block %d: fetching traces: %w", block, err)}
	}
	if len(traces) == 0 {
		return blockOutcome{block: block, forest: &tree.Forest{}}
	}

	bus := pricing.NewBus(len(traces) + 1)
	forest, err := tree.Build(block, traces, gas, o.dispatcher, bus)
	bus.Close()
	if err != nil {
		return blockOutcome{block: block, err: fmt.Errorf("orchestrator: block %d: building tree: %w", block, err)}
	}

	var msgs []pricing.DexPriceMsg
	for msg := range bus.Messages() {
		msgs = append(msgs, msg)
	}
	return blockOutcome{block: block, forest: forest, msgs: msgs}
}

// consume applies one block's pricing messages in order, then runs every
// enabled inspector concurrently over the resulting snapshot and emits
// their findings to the sink — spec.md §5's per-block ordering and
// inspector fan-out.
func (o *Orchestrator) consume(ctx context.Context, outcome blockOutcome) error {
	if o.cfg.RunDexPricing {
		for _, msg := range outcome.msgs {
			if msg.Kind == pricing.KindNewPool {
				// The block tree builder (spec.md §4.3 step 4) already
				// registered this pool with o.meta synchronously, ahead of
				// any later transaction in the same block that references
				// it; this call is idempotent and just keeps the metadata
				// store's view consistent with the pricing-message stream
				// for pools whose NewPool frame had no live bus consumer.
				if err := o.meta.PutNewPool(msg.Pool, msg.Protocol, msg.Tokens); err != nil {
					log.Warn("orchestrator: registering new pool failed", "block", outcome.block, "pool", msg.Pool, "err", err)
				}
			}
			o.pools.Apply(msg)
			if len(msg.Tokens) == 2 {
				o.prices.ObservePool(msg.Pool, msg.Tokens)
			}
		}
	}

	states := o.pools.Snapshot()

	g, gctx := errgroup.WithContext(ctx)
	for _, insp := range o.inspectors {
		if !o.cfg.wants(insp.ID()) {
			continue
		}
		insp := insp
		g.Go(func() error {
			findings, err := insp.Inspect(gctx, outcome.block, outcome.forest, states, o.prices)
			if err != nil {
				return fmt.Errorf("inspector %s: %w", insp.ID(), err)
			}
			for _, f := range findings {
				if err := o.sink.Emit(gctx, f.Mev, f.Specific); err != nil {
					return fmt.Errorf("inspector %s: emitting finding: %w", insp.ID(), err)
				}
			}
			return nil
		})
	}
	return g.Wait()
}
