// Command graphd starts the query-evaluation server: it parses flags
// into an internal/config.Config, configures logging, and wires a
// server.Dispatcher ready to serve read/verify traffic. Connection
// handling, the S-expression parser, and the concrete primitive store
// are external collaborators (spec.md §1/§6) and are not assembled
// here; this entrypoint only wires the in-scope pieces and reports
// what is still missing, the way a teacher binary's main() wires its
// db/aggregator before handing off to an RPC layer it doesn't itself
// implement.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ledgerwatch/log/v3"

	"github.com/ledgerwatch/graphd"
	"github.com/ledgerwatch/graphd/eval"
	"github.com/ledgerwatch/graphd/internal/config"
	"github.com/ledgerwatch/graphd/internal/glog"
	"github.com/ledgerwatch/graphd/internal/metrics"
	"github.com/ledgerwatch/graphd/server"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "graphd:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Parse(flag.NewFlagSet("graphd", flag.ExitOnError), args)
	if err != nil {
		return err
	}
	if err := glog.Setup(cfg.LogLevel); err != nil {
		return err
	}

	log.Info("[graphd] starting", "listen", cfg.ListenAddr, "datadir", cfg.DataDir, "default_budget", cfg.DefaultBudget)

	dispatcher := server.NewDispatcher(cfg.SoftDeadline)
	background := server.NewBackgroundRunner(cfg.BackgroundWorkers)

	// Confirm routing for the unwired, out-of-scope verbs surfaces the
	// expected error rather than silently no-op'ing, before any real
	// traffic is accepted.
	if _, err := dispatcher.Dispatch(server.Request{Verb: server.VerbStatus}, eval.Deps{}, graphd.NewBudget(1)); err != nil {
		log.Warn("[graphd] status verb not wired", "err", err)
	}

	background.Run(context.Background(), logMetricsSnapshot)

	log.Warn("[graphd] no connection layer wired: pdb.Store, the S-expression parser, and the session loop are external collaborators (spec.md §1) not assembled by this entrypoint")
	return nil
}

// logMetricsSnapshot is the one background housekeeping task this
// entrypoint schedules itself; a real deployment's replication
// catch-up and checkpoint compaction tasks (spec.md §1, out of scope)
// would be scheduled alongside it through the same BackgroundRunner.
func logMetricsSnapshot(_ context.Context) error {
	var buf bytes.Buffer
	metrics.WritePrometheus(&buf)
	log.Debug("[graphd] metrics snapshot", "bytes", buf.Len(), "at", time.Now().Format(time.RFC3339))
	return nil
}
