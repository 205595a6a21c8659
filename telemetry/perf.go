// Package telemetry collects per-tick performance and diagnostic data for
// the core simulation subsystem and exports it as CSV, the same way the
// teacher's experiment harness dumps run data for offline analysis.
package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for one simulation tick, matching the core's tick-order
// pipeline.
const (
	PhaseInput            = "input"
	PhaseAI               = "ai"
	PhasePathfindingBatch = "pathfinding_batch"
	PhaseBehaviorSteering = "behavior_steering"
	PhaseCollision        = "collision"
	PhaseTriggerDispatch  = "trigger_dispatch"
	PhaseDestructionCommit = "destruction_commit"
)

var allPhases = []string{
	PhaseInput, PhaseAI, PhasePathfindingBatch, PhaseBehaviorSteering,
	PhaseCollision, PhaseTriggerDispatch, PhaseDestructionCommit,
}

// PerfSample holds timing data for a single tick.
type PerfSample struct {
	TickDuration time.Duration
	Phases       map[string]time.Duration
}

// PerfCollector tracks tick performance over a rolling window, the same
// ring-buffer shape the teacher's collector uses.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	tickStart     time.Time
	phaseStart    time.Time
	lastPhase     string
}

// NewPerfCollector creates a collector averaging over windowSize ticks.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
	}
}

// StartTick begins timing a new tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase begins timing phase, closing out whichever phase was active.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndTick closes out the final phase and records the sample.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}

	p.samples[p.writeIndex] = PerfSample{
		TickDuration: now.Sub(p.tickStart),
		Phases:       p.currentPhases,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// PerfStats holds aggregated statistics over the collector's window.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	PhaseAvg        map[string]time.Duration
	PhasePct        map[string]float64
	TicksPerSecond  float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	if p.sampleCount == 0 {
		return PerfStats{PhaseAvg: make(map[string]time.Duration), PhasePct: make(map[string]float64)}
	}

	var totalTick, minTick, maxTick time.Duration
	phaseSum := make(map[string]time.Duration)

	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		totalTick += s.TickDuration
		if i == 0 || s.TickDuration < minTick {
			minTick = s.TickDuration
		}
		if s.TickDuration > maxTick {
			maxTick = s.TickDuration
		}
		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}

	avgTick := totalTick / time.Duration(p.sampleCount)

	phaseAvg := make(map[string]time.Duration)
	phasePct := make(map[string]float64)
	for phase, sum := range phaseSum {
		phaseAvg[phase] = sum / time.Duration(p.sampleCount)
		if avgTick > 0 {
			phasePct[phase] = float64(phaseAvg[phase]) / float64(avgTick) * 100
		}
	}

	var ticksPerSec float64
	if avgTick > 0 {
		ticksPerSec = float64(time.Second) / float64(avgTick)
	}

	return PerfStats{
		AvgTickDuration: avgTick,
		MinTickDuration: minTick,
		MaxTickDuration: maxTick,
		PhaseAvg:        phaseAvg,
		PhasePct:        phasePct,
		TicksPerSecond:  ticksPerSec,
	}
}

// LogStats logs a summary of s via slog.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_tick_us", s.AvgTickDuration.Microseconds(),
		"min_tick_us", s.MinTickDuration.Microseconds(),
		"max_tick_us", s.MaxTickDuration.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
	}
	for _, phase := range allPhases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", int(pct*10)/10.0)
		}
	}
	slog.Info("perf", attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd           int64   `csv:"window_end"`
	AvgTickUS           int64   `csv:"avg_tick_us"`
	MinTickUS           int64   `csv:"min_tick_us"`
	MaxTickUS           int64   `csv:"max_tick_us"`
	TicksPerSec         float64 `csv:"ticks_per_sec"`
	InputPct            float64 `csv:"input_pct"`
	AIPct               float64 `csv:"ai_pct"`
	PathfindingBatchPct float64 `csv:"pathfinding_batch_pct"`
	BehaviorSteeringPct float64 `csv:"behavior_steering_pct"`
	CollisionPct        float64 `csv:"collision_pct"`
	TriggerDispatchPct  float64 `csv:"trigger_dispatch_pct"`
	DestructionPct      float64 `csv:"destruction_commit_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly record.
func (s PerfStats) ToCSV(windowEnd int64) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:           windowEnd,
		AvgTickUS:           s.AvgTickDuration.Microseconds(),
		MinTickUS:           s.MinTickDuration.Microseconds(),
		MaxTickUS:           s.MaxTickDuration.Microseconds(),
		TicksPerSec:         s.TicksPerSecond,
		InputPct:            s.PhasePct[PhaseInput],
		AIPct:               s.PhasePct[PhaseAI],
		PathfindingBatchPct: s.PhasePct[PhasePathfindingBatch],
		BehaviorSteeringPct: s.PhasePct[PhaseBehaviorSteering],
		CollisionPct:        s.PhasePct[PhaseCollision],
		TriggerDispatchPct:  s.PhasePct[PhaseTriggerDispatch],
		DestructionPct:      s.PhasePct[PhaseDestructionCommit],
	}
}
