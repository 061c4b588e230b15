// Package config builds the CLI's flag set and resolves it into an
// orchestrator.Config, following the teacher's cmd/simulator calling
// convention (BuildFlagSet -> BuildViper -> BuildConfig, pflag bound
// through viper) visible from cmd/simulator/main/main.go.
package config

import (
	"fmt"
	"strings"

	"github.com/luxfi/geth/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/malik672/brontes-go/orchestrator"
	"github.com/malik672/brontes-go/types"
)

// Version is the CLI's reported version string.
const Version = "0.1.0"

// Flag keys, also used as viper keys (pflag.FlagSet registers its flags
// into viper's own namespace via BindPFlags below).
const (
	VersionKey       = "version"
	StartBlockKey    = "start-block"
	EndBlockKey      = "end-block"
	MaxTasksKey      = "max-tasks"
	QuoteAssetKey    = "quote-asset"
	InspectorsKey    = "inspectors"
	RunDexPricingKey = "run-dex-pricing"
	LogLevelKey      = "log-level"
	MetricsAddrKey   = "metrics-addr"
	FixtureModeKey   = "fixture-mode"
)

// DefaultQuoteAsset is USDC's mainnet address, the teacher's own default
// quote asset per original_source's RunArgs.
var DefaultQuoteAsset = types.Address{0xA0, 0xb8, 0x69, 0x91, 0xc6, 0x21, 0x8b, 0x36, 0xc1, 0xd1, 0x9D, 0x4a, 0x2e, 0x9E, 0xb0, 0xcE, 0x36, 0x06, 0xeB, 0x48}

// BuildFlagSet declares every flag spec.md §6 enumerates, plus the ambient
// CLI flags (log level, metrics address, fixture mode for the demo run).
func BuildFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("brontes", pflag.ContinueOnError)
	fs.Bool(VersionKey, false, "print the version and exit")
	fs.Uint64(StartBlockKey, 0, "block number to start processing from (required)")
	fs.Int64(EndBlockKey, -1, "block number to stop after (inclusive); -1 means unbounded (chain tip)")
	fs.Uint64(MaxTasksKey, 0, "maximum number of blocks processed concurrently; 0 means 0.8 * physical cores")
	fs.String(QuoteAssetKey, DefaultQuoteAsset.Hex(), "default quote asset address for price queries")
	fs.StringSlice(InspectorsKey, nil, "comma-separated inspector IDs to run; empty means all registered")
	fs.Bool(RunDexPricingKey, true, "run live DEX pricing instead of requiring previously persisted prices")
	fs.String(LogLevelKey, "info", "log level: trace, debug, info, warn, error, crit")
	fs.String(MetricsAddrKey, "", "address to serve Prometheus metrics on, e.g. :9090; empty disables the server")
	fs.Bool(FixtureModeKey, false, "run against the bundled fixture traces instead of a live tracing provider")
	return fs
}

// BuildViper parses args against fs and returns a Viper bound to the
// result, with BRONTES_-prefixed environment variables also consulted.
func BuildViper(fs *pflag.FlagSet, args []string) (*viper.Viper, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetEnvPrefix("BRONTES")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("config: binding flags: %w", err)
	}
	return v, nil
}

// Config is the CLI-level configuration: spec.md §6's orchestrator Config
// plus the ambient flags (logging, metrics, fixture mode) that are this
// repo's own addition, not part of the core's external-interface contract.
type Config struct {
	Orchestrator orchestrator.Config
	LogLevel     string
	MetricsAddr  string
	FixtureMode  bool
}

// BuildConfig resolves v into a Config, validating spec.md §6's
// "run_dex_pricing=false requires end_block" constraint the same way
// original_source's RunArgs::execute does.
func BuildConfig(v *viper.Viper) (*Config, error) {
	var endBlock *uint64
	if eb := v.GetInt64(EndBlockKey); eb >= 0 {
		u := uint64(eb)
		endBlock = &u
	}

	runDexPricing := v.GetBool(RunDexPricingKey)
	if !runDexPricing && endBlock == nil {
		return nil, fmt.Errorf("config: need end-block if not running dex pricing")
	}

	quoteHex := v.GetString(QuoteAssetKey)
	quote, err := parseAddress(quoteHex)
	if err != nil {
		return nil, fmt.Errorf("config: quote-asset: %w", err)
	}

	var inspectors map[string]bool
	if ids := v.GetStringSlice(InspectorsKey); len(ids) > 0 {
		inspectors = make(map[string]bool, len(ids))
		for _, id := range ids {
			inspectors[strings.TrimSpace(id)] = true
		}
	}

	return &Config{
		Orchestrator: orchestrator.Config{
			StartBlock:    v.GetUint64(StartBlockKey),
			EndBlock:      endBlock,
			MaxTasks:      int(v.GetUint64(MaxTasksKey)),
			QuoteAsset:    quote,
			Inspectors:    inspectors,
			RunDexPricing: runDexPricing,
		},
		LogLevel:    v.GetString(LogLevelKey),
		MetricsAddr: v.GetString(MetricsAddrKey),
		FixtureMode: v.GetBool(FixtureModeKey),
	}, nil
}

func parseAddress(hex string) (types.Address, error) {
	if !common.IsHexAddress(hex) {
		return types.Address{}, fmt.Errorf("%q is not a valid address", hex)
	}
	return common.HexToAddress(hex), nil
}
