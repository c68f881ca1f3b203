package eval

import "github.com/VictoriaMetrics/metrics"

// Metric names follow a flat snake_case convention, scoped under eval_*.
var (
	budgetExhausted  = metrics.NewCounter(`eval_budget_exhausted_total`)
	cursorFrozen     = metrics.NewCounter(`eval_cursor_frozen_total`)
	cursorThawed     = metrics.NewCounter(`eval_cursor_thawed_total`)
	requestDuration  = metrics.GetOrCreateSummary(`eval_request_duration_seconds`)
	compileDuration  = metrics.GetOrCreateSummary(`eval_compile_duration_seconds`)
	resultsEmitted   = metrics.NewCounter(`eval_results_emitted_total`)
	checkerRejected  = metrics.NewCounter(`eval_checker_rejected_total`)
	verifyMismatches = metrics.NewCounter(`eval_verify_mismatches_total`)
)
