package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLevels(t *testing.T) {
	for _, tc := range []struct {
		format string
		debug  bool
		want   zapcore.Level
	}{
		{"console", false, zap.WarnLevel},
		{"console", true, zap.DebugLevel},
		{"json", false, zap.WarnLevel},
		{"JSON", true, zap.DebugLevel},
	} {
		l, err := New(tc.format, tc.debug)
		if err != nil {
			t.Fatalf("New(%q): %v", tc.format, err)
		}
		if !l.SugaredLogger.Desugar().Core().Enabled(tc.want) {
			t.Fatalf("New(%q, %v): level %v not enabled", tc.format, tc.debug, tc.want)
		}
		if tc.want > zap.DebugLevel && l.SugaredLogger.Desugar().Core().Enabled(zap.DebugLevel) {
			t.Fatalf("New(%q, %v): debug unexpectedly enabled", tc.format, tc.debug)
		}
	}
}

func TestWithFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}
	l.With("source", "claims.csv").Info("loaded", "rows", 3)
	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["source"] != "claims.csv" || ctx["rows"] != int64(3) {
		t.Fatalf("context = %v", ctx)
	}
	Nop().Warn("discarded")
}
