package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollectorTracksAveragesOverWindow(t *testing.T) {
	p := NewPerfCollector(4)

	for i := 0; i < 4; i++ {
		p.StartTick()
		p.StartPhase(PhaseCollision)
		time.Sleep(time.Millisecond)
		p.EndTick()
	}

	stats := p.Stats()
	if stats.AvgTickDuration <= 0 {
		t.Fatalf("expected positive average tick duration")
	}
	if pct := stats.PhasePct[PhaseCollision]; pct < 90 {
		t.Fatalf("expected collision phase to dominate tick time, got %f%%", pct)
	}
}

func TestStatsWithNoSamplesReturnsZeroValue(t *testing.T) {
	p := NewPerfCollector(8)
	stats := p.Stats()
	if stats.AvgTickDuration != 0 || stats.TicksPerSecond != 0 {
		t.Fatalf("expected zero-value stats before any tick, got %+v", stats)
	}
}

func TestToCSVMapsPhasePercentages(t *testing.T) {
	stats := PerfStats{
		AvgTickDuration: 10 * time.Millisecond,
		PhasePct:        map[string]float64{PhaseCollision: 42.5},
	}
	csv := stats.ToCSV(7)
	if csv.WindowEnd != 7 || csv.CollisionPct != 42.5 {
		t.Fatalf("unexpected CSV record: %+v", csv)
	}
}
