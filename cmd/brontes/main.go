// brontes drives the orchestrator end to end: parse flags, wire the
// classifier registry and external collaborators, and run blocks until the
// configured range is exhausted or a shutdown signal arrives. Following
// the teacher's cmd/evm-node convention, the CLI framework is
// github.com/urfave/cli/v2 layered on top of the pflag/viper config
// pipeline cmd/brontes/config builds.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/luxfi/geth/log"
	"github.com/luxfi/geth/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"github.com/urfave/cli/v2"

	"github.com/malik672/brontes-go/classifier"
	"github.com/malik672/brontes-go/classifier/protocols"
	cfgpkg "github.com/malik672/brontes-go/cmd/brontes/config"
	"github.com/malik672/brontes-go/external"
	"github.com/malik672/brontes-go/external/fixtures"
	metricsbridge "github.com/malik672/brontes-go/metrics/prometheus"
	"github.com/malik672/brontes-go/orchestrator"
)

var app = &cli.App{
	Name:    "brontes",
	Usage:   "reconstruct per-transaction on-chain activity and serve it to MEV inspectors",
	Version: cfgpkg.Version,
}

func init() {
	app.Action = run
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cliCtx *cli.Context) error {
	fs := cfgpkg.BuildFlagSet()
	v, err := cfgpkg.BuildViper(fs, cliCtx.Args().Slice())
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("couldn't build viper: %w", err)
	}
	if v.GetBool(cfgpkg.VersionKey) {
		fmt.Println(cfgpkg.Version)
		return nil
	}

	cfg, err := cfgpkg.BuildConfig(v)
	if err != nil {
		return err
	}

	log.SetDefault(log.NewLogger(log.NewTerminalHandler(os.Stderr, true)))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	registry := classifier.NewRegistry()
	protocols.RegisterAll(registry)

	meta, traces, err := buildCollaborators(cfg)
	if err != nil {
		return err
	}

	sink := loggingSink{}

	if cfg.MetricsAddr != "" {
		serveMetrics(cfg.MetricsAddr)
	}

	o := orchestrator.New(cfg.Orchestrator, traces, meta, registry, sink, nil)
	if err := o.Run(ctx); err != nil {
		log.Error("brontes: run failed", "err", err)
		return err
	}
	log.Info("brontes: finished running, shutting down")
	return nil
}

// buildCollaborators realizes spec.md §6's external interfaces. Only the
// in-memory/fixture realizations are provided by this repo (see
// DESIGN.md): a production RPC tracer and persistent metadata store are
// explicitly out of scope.
func buildCollaborators(cfg *cfgpkg.Config) (external.MetadataStore, external.TracingProvider, error) {
	if !cfg.FixtureMode {
		return nil, nil, fmt.Errorf("brontes: no production tracing provider is wired; pass --%s to run against bundled fixtures", cfgpkg.FixtureModeKey)
	}
	meta, traces := fixtures.DemoCollaborators()
	return meta, traces, nil
}

func serveMetrics(addr string) {
	gatherer := metricsbridge.NewGatherer(metrics.DefaultRegistry)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("brontes: metrics server stopped", "err", err)
		}
	}()
	log.Info("brontes: serving metrics", "addr", addr)
}

// loggingSink is the default external.InspectorSink: it has no real
// downstream to forward findings to (report formatting is out of scope
// per spec.md §1), so it just logs each one.
type loggingSink struct{}

func (loggingSink) Emit(_ context.Context, mev external.ClassifiedMev, _ any) error {
	log.Info("brontes: mev finding", "block", mev.BlockNumber, "tx", mev.TxHash, "type", mev.MevType, "contract", mev.MevContract)
	return nil
}
