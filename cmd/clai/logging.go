// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"io"

	"github.com/clai-dev/clai/internal/config"

	"github.com/charmbracelet/log"
)

// newLogger returns the CLI logger. Only warnings and errors are shown
// unless verbose is set.
func newLogger(w io.Writer, verbose bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Prefix: config.AppName,
		Level:  log.WarnLevel,
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
		logger.SetReportTimestamp(true)
	}
	return logger
}
