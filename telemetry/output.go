package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// DiagnosticsRecord captures one tick's subsystem-level health metrics:
// path cache effectiveness, broadphase pair volume, and worker pool
// pressure, the figures most useful for spotting a degrading tick before
// it shows up as a frame-time spike.
type DiagnosticsRecord struct {
	Tick              int64   `csv:"tick"`
	PathCacheHits     int64   `csv:"path_cache_hits"`
	PathCacheMisses   int64   `csv:"path_cache_misses"`
	PathCacheHitRate  float64 `csv:"path_cache_hit_rate"`
	BroadphasePairs   int64   `csv:"broadphase_pairs"`
	ActiveEntityCount int64   `csv:"active_entity_count"`
	PoolPressure      float64 `csv:"pool_pressure_ratio"`
}

// OutputManager writes telemetry CSVs to an experiment output directory.
// A nil *OutputManager is valid and makes every method a no-op, so
// telemetry can be wired in unconditionally and only activates when a
// directory is configured.
type OutputManager struct {
	dir string

	perfFile        *os.File
	diagnosticsFile *os.File

	perfHeaderWritten        bool
	diagnosticsHeaderWritten bool
}

// NewOutputManager creates the output directory and opens its CSV files.
// Returns (nil, nil) if dir is empty (telemetry export disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	perfFile, err := os.Create(filepath.Join(dir, "perf.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating perf.csv: %w", err)
	}
	om.perfFile = perfFile

	diagFile, err := os.Create(filepath.Join(dir, "diagnostics.csv"))
	if err != nil {
		om.perfFile.Close()
		return nil, fmt.Errorf("creating diagnostics.csv: %w", err)
	}
	om.diagnosticsFile = diagFile

	return om, nil
}

// WritePerf appends a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int64) error {
	if om == nil {
		return nil
	}
	records := []PerfStatsCSV{stats.ToCSV(windowEnd)}
	if !om.perfHeaderWritten {
		om.perfHeaderWritten = true
		return gocsv.Marshal(records, om.perfFile)
	}
	return gocsv.MarshalWithoutHeaders(records, om.perfFile)
}

// WriteDiagnostics appends a diagnostics record to diagnostics.csv.
func (om *OutputManager) WriteDiagnostics(rec DiagnosticsRecord) error {
	if om == nil {
		return nil
	}
	if rec.PathCacheHits+rec.PathCacheMisses > 0 {
		rec.PathCacheHitRate = float64(rec.PathCacheHits) / float64(rec.PathCacheHits+rec.PathCacheMisses)
	}
	records := []DiagnosticsRecord{rec}
	if !om.diagnosticsHeaderWritten {
		om.diagnosticsHeaderWritten = true
		return gocsv.Marshal(records, om.diagnosticsFile)
	}
	return gocsv.MarshalWithoutHeaders(records, om.diagnosticsFile)
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	var firstErr error
	if om.perfFile != nil {
		if err := om.perfFile.Close(); err != nil {
			firstErr = err
		}
	}
	if om.diagnosticsFile != nil {
		if err := om.diagnosticsFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
