package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for one training episode.
const (
	PhaseRollout  = "rollout"  // env steps + forward passes
	PhaseBackward = "backward" // returns, standardization, gradients
	PhaseUpdate   = "update"   // RMSProp step
	PhaseOutput   = "output"   // checkpoints, observers
)

var phaseOrder = []string{PhaseRollout, PhaseBackward, PhaseUpdate, PhaseOutput}

// PerfSample holds timing data for a single episode.
type PerfSample struct {
	EpisodeDuration time.Duration
	Steps           int
	Phases          map[string]time.Duration
}

// PerfCollector tracks performance metrics over a rolling window of episodes.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	episodeStart  time.Time
	phaseStart    time.Time
	lastPhase     string
}

// NewPerfCollector creates a new performance collector.
// windowSize: number of episodes to average over.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 50
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
	}
}

// StartEpisode begins timing a new episode.
func (p *PerfCollector) StartEpisode() {
	if p == nil {
		return
	}
	p.episodeStart = time.Now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase begins timing a specific phase, closing the previous one.
func (p *PerfCollector) StartPhase(phase string) {
	if p == nil {
		return
	}
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndEpisode finishes timing the current episode and records the sample.
func (p *PerfCollector) EndEpisode(steps int) {
	if p == nil {
		return
	}
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}

	p.samples[p.writeIndex] = PerfSample{
		EpisodeDuration: now.Sub(p.episodeStart),
		Steps:           steps,
		Phases:          p.currentPhases,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
	p.lastPhase = ""
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgEpisodeDuration time.Duration
	MinEpisodeDuration time.Duration
	MaxEpisodeDuration time.Duration

	// Phase breakdown
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	// Throughput
	EpisodesPerSecond float64
	StepsPerSecond    float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	if p == nil || p.sampleCount == 0 {
		return PerfStats{
			PhaseAvg: make(map[string]time.Duration),
			PhasePct: make(map[string]float64),
		}
	}

	var total, minDur, maxDur time.Duration
	var steps int
	phaseSum := make(map[string]time.Duration)

	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.EpisodeDuration
		steps += s.Steps

		if i == 0 || s.EpisodeDuration < minDur {
			minDur = s.EpisodeDuration
		}
		if s.EpisodeDuration > maxDur {
			maxDur = s.EpisodeDuration
		}
		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}

	avg := total / time.Duration(p.sampleCount)

	phaseAvg := make(map[string]time.Duration)
	phasePct := make(map[string]float64)
	for phase, sum := range phaseSum {
		phaseAvg[phase] = sum / time.Duration(p.sampleCount)
		if avg > 0 {
			phasePct[phase] = float64(phaseAvg[phase]) / float64(avg) * 100
		}
	}

	var episodesPerSec, stepsPerSec float64
	if avg > 0 {
		episodesPerSec = float64(time.Second) / float64(avg)
	}
	if total > 0 {
		stepsPerSec = float64(steps) / total.Seconds()
	}

	return PerfStats{
		AvgEpisodeDuration: avg,
		MinEpisodeDuration: minDur,
		MaxEpisodeDuration: maxDur,
		PhaseAvg:           phaseAvg,
		PhasePct:           phasePct,
		EpisodesPerSecond:  episodesPerSec,
		StepsPerSecond:     stepsPerSec,
	}
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_episode_us", s.AvgEpisodeDuration.Microseconds(),
		"min_episode_us", s.MinEpisodeDuration.Microseconds(),
		"max_episode_us", s.MaxEpisodeDuration.Microseconds(),
		"episodes_per_sec", s.EpisodesPerSecond,
		"steps_per_sec", int(s.StepsPerSecond),
	}

	for _, phase := range phaseOrder {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", float64(int(pct*10))/10.0)
		}
	}

	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_episode_us", s.AvgEpisodeDuration.Microseconds()),
		slog.Int64("min_episode_us", s.MinEpisodeDuration.Microseconds()),
		slog.Int64("max_episode_us", s.MaxEpisodeDuration.Microseconds()),
		slog.Float64("episodes_per_sec", s.EpisodesPerSecond),
		slog.Float64("steps_per_sec", s.StepsPerSecond),
	}
	for _, phase := range phaseOrder {
		if pct, ok := s.PhasePct[phase]; ok {
			attrs = append(attrs, slog.Float64(phase+"_pct", pct))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd      int     `csv:"window_end"`
	AvgEpisodeUS   int64   `csv:"avg_episode_us"`
	MinEpisodeUS   int64   `csv:"min_episode_us"`
	MaxEpisodeUS   int64   `csv:"max_episode_us"`
	EpisodesPerSec float64 `csv:"episodes_per_sec"`
	StepsPerSec    float64 `csv:"steps_per_sec"`
	RolloutPct     float64 `csv:"rollout_pct"`
	BackwardPct    float64 `csv:"backward_pct"`
	UpdatePct      float64 `csv:"update_pct"`
	OutputPct      float64 `csv:"output_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd int) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:      windowEnd,
		AvgEpisodeUS:   s.AvgEpisodeDuration.Microseconds(),
		MinEpisodeUS:   s.MinEpisodeDuration.Microseconds(),
		MaxEpisodeUS:   s.MaxEpisodeDuration.Microseconds(),
		EpisodesPerSec: s.EpisodesPerSecond,
		StepsPerSec:    s.StepsPerSecond,
		RolloutPct:     s.PhasePct[PhaseRollout],
		BackwardPct:    s.PhasePct[PhaseBackward],
		UpdatePct:      s.PhasePct[PhaseUpdate],
		OutputPct:      s.PhasePct[PhaseOutput],
	}
}
