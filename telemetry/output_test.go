package telemetry

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewOutputManagerWithEmptyDirIsDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}
	if om != nil {
		t.Fatalf("expected nil OutputManager when dir is empty")
	}
	// Nil receiver methods must all be safe no-ops.
	if err := om.WritePerf(PerfStats{}, 0); err != nil {
		t.Fatalf("expected WritePerf on nil manager to be a no-op, got %v", err)
	}
	if err := om.WriteDiagnostics(DiagnosticsRecord{}); err != nil {
		t.Fatalf("expected WriteDiagnostics on nil manager to be a no-op, got %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("expected Close on nil manager to be a no-op, got %v", err)
	}
}

func TestOutputManagerWritesCSVFiles(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}
	defer om.Close()

	if err := om.WritePerf(PerfStats{AvgTickDuration: 0, PhasePct: map[string]float64{}}, 1); err != nil {
		t.Fatalf("WritePerf: %v", err)
	}
	if err := om.WriteDiagnostics(DiagnosticsRecord{Tick: 1, PathCacheHits: 9, PathCacheMisses: 1}); err != nil {
		t.Fatalf("WriteDiagnostics: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "perf.csv")); err != nil {
		t.Fatalf("expected perf.csv to exist: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "diagnostics.csv")); err != nil {
		t.Fatalf("expected diagnostics.csv to exist: %v", err)
	}
}
