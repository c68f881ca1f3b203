// Package metrics registers process-wide VictoriaMetrics counters and
// exposes the write-out handler, following the same flat, package-level
// metric-var convention eval/metrics.go uses for its request- and
// evaluator-scoped counters; this package only holds the handful that
// are genuinely process-wide.
package metrics

import (
	"io"

	vm "github.com/VictoriaMetrics/metrics"
)

var (
	// ConnectionsAccepted counts every line-protocol connection the
	// server has accepted since start.
	ConnectionsAccepted = vm.NewCounter(`graphd_connections_accepted_total`)

	// ConnectionsActive tracks connections currently being served.
	ConnectionsActive = vm.NewCounter(`graphd_connections_active`)

	// BackgroundTasksRun counts background housekeeping tasks
	// (server.BackgroundRunner), added when a round of tasks is
	// launched, before any of them completes.
	BackgroundTasksRun = vm.NewCounter(`graphd_background_tasks_total`)

	// BackgroundTasksFailed counts background rounds in which at least
	// one task returned a non-nil error (once per round, not per task).
	BackgroundTasksFailed = vm.NewCounter(`graphd_background_tasks_failed_total`)
)

// WritePrometheus writes every registered metric (this package's and
// every other package's process-default-registered counters/summaries)
// in Prometheus text exposition format. cmd/graphd uses it for a logged
// metrics snapshot; no /metrics HTTP handler is wired.
func WritePrometheus(w io.Writer) {
	vm.WritePrometheus(w, true)
}
