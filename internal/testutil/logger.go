// Package testutil provides small helpers shared across test packages.
package testutil

import (
	"log/slog"
	"testing"
)

type testLogWriter struct {
	t *testing.T
}

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

// NewLogger returns a slog.Logger that routes records through t.Log, so log
// output is attached to the test that produced it.
func NewLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(testLogWriter{t: t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}
