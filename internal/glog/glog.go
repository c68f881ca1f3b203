// Package glog wires up process-wide structured logging on top of
// github.com/ledgerwatch/log/v3: configure a root handler once at
// startup, then every package logs through the package-level
// log.Info/log.Warn/log.Debug functions afterward.
package glog

import (
	"os"

	"github.com/ledgerwatch/log/v3"
)

// Setup installs a leveled, terminal-formatted handler on the root
// logger. lvl is one of "trace", "debug", "info", "warn", "error",
// "crit"; an unrecognized value falls back to info, matching the
// teacher's tolerant flag parsing elsewhere.
func Setup(lvl string) error {
	parsed, err := log.LvlFromString(lvl)
	if err != nil {
		parsed = log.LvlInfo
	}
	handler := log.LvlFilterHandler(parsed, log.StreamHandler(os.Stderr, log.TerminalFormat(false)))
	log.Root().SetHandler(handler)
	return nil
}
