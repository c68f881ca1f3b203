// Package config assembles the process-wide configuration the server
// needs at startup: data directory, listen address, default
// per-request budget, soft deadline, log level, and background worker
// limit. It is built from flags bound directly to a config struct
// (FlagSet.StringVar, Int64Var, DurationVar), not from a config file
// or environment-variable framework.
package config

import (
	"flag"
	"fmt"
	"time"
)

// Config holds every flag-derived setting the server and evaluator
// need. Zero value is not valid; use Default() or Parse().
type Config struct {
	// DataDir is where the primitive store keeps its files. The
	// engine itself never writes here directly (pdb.Store is an
	// external collaborator, spec.md §6.1); cmd/graphd only logs it,
	// since it wires no concrete store.
	DataDir string

	// ListenAddr is the line-protocol listen address (host:port).
	ListenAddr string

	// DefaultBudget is the cost allowance a request gets when the
	// client does not request a larger one explicitly.
	DefaultBudget int64

	// SoftDeadline is the wall-clock goal for a single dispatch call.
	// It is advisory, not preemptive: the evaluator only checkpoints
	// at page/budget boundaries (spec.md §5), so a request that
	// overruns it is logged (server.Dispatcher), not interrupted
	// mid-drain.
	// The connection layer's hard timeout is out of scope (§1).
	SoftDeadline time.Duration

	// LogLevel is one of trace/debug/info/warn/error/crit.
	LogLevel string

	// BackgroundWorkers bounds how many housekeeping tasks (§5
	// "added" concurrency section) may run at once via
	// golang.org/x/sync/semaphore.Weighted.
	BackgroundWorkers int64
}

// Default returns the configuration a binary falls back to when a
// flag is left unset.
func Default() Config {
	return Config{
		DataDir:           "./data",
		ListenAddr:        ":8888",
		DefaultBudget:     100_000,
		SoftDeadline:      250 * time.Millisecond,
		LogLevel:          "info",
		BackgroundWorkers: 4,
	}
}

// Parse registers flags on fs (pass flag.CommandLine in production,
// a fresh flag.FlagSet in tests) bound to a Default()-seeded Config,
// then parses args.
func Parse(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Default()

	fs.StringVar(&cfg.DataDir, "datadir", cfg.DataDir, "primitive store data directory")
	fs.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "line-protocol listen address")
	fs.Int64Var(&cfg.DefaultBudget, "budget", cfg.DefaultBudget, "default per-request budget")
	fs.DurationVar(&cfg.SoftDeadline, "soft-deadline", cfg.SoftDeadline, "soft wall-clock deadline per request")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: trace|debug|info|warn|error|crit")
	fs.Int64Var(&cfg.BackgroundWorkers, "background-workers", cfg.BackgroundWorkers, "max concurrent background housekeeping tasks")

	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if cfg.DefaultBudget <= 0 {
		return Config{}, fmt.Errorf("config: budget must be positive, got %d", cfg.DefaultBudget)
	}
	if cfg.BackgroundWorkers <= 0 {
		return Config{}, fmt.Errorf("config: background-workers must be positive, got %d", cfg.BackgroundWorkers)
	}
	return cfg, nil
}
