// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package hookenv

import (
	"context"
	"fmt"
	"os"

	"github.com/juju/loggo/v2"
)

// logWriter forwards log entries to the unit log through juju-log.
type logWriter struct {
	tools ToolRunner
}

// NewLogWriter returns a loggo writer sending every entry to juju-log at
// the entry's level.
func NewLogWriter(tools ToolRunner) loggo.Writer {
	return &logWriter{tools: tools}
}

// Write implements loggo.Writer.
func (w *logWriter) Write(entry loggo.Entry) {
	msg := entry.Message
	if entry.Module != "" {
		msg = fmt.Sprintf("%s: %s", entry.Module, entry.Message)
	}
	if _, err := w.tools.Run(context.Background(), "juju-log", "-l", entry.Level.String(), msg); err != nil {
		// Nothing else to log to; stderr ends up in the agent log.
		fmt.Fprintf(os.Stderr, "juju-log: %v\n%s\n", err, msg)
	}
}
