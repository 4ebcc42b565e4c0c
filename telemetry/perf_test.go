package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	// Simulate a few episodes
	for i := 0; i < 5; i++ {
		pc.StartEpisode()
		pc.StartPhase(PhaseRollout)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseBackward)
		time.Sleep(200 * time.Microsecond)
		pc.EndEpisode(20)
	}

	stats := pc.Stats()

	if stats.AvgEpisodeDuration <= 0 {
		t.Error("expected positive average episode duration")
	}
	if stats.StepsPerSecond <= 0 {
		t.Error("expected positive steps per second")
	}
	if _, ok := stats.PhaseAvg[PhaseRollout]; !ok {
		t.Error("expected rollout phase to be tracked")
	}
	if _, ok := stats.PhaseAvg[PhaseBackward]; !ok {
		t.Error("expected backward phase to be tracked")
	}
	if _, ok := stats.PhaseAvg[PhaseUpdate]; ok {
		t.Error("update phase was never started but is tracked")
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5) // Small window

	for i := 0; i < 10; i++ {
		pc.StartEpisode()
		pc.StartPhase(PhaseRollout)
		time.Sleep(10 * time.Microsecond)
		pc.EndEpisode(1)
	}

	stats := pc.Stats()
	if stats.AvgEpisodeDuration <= 0 {
		t.Error("expected positive average episode duration after window filled")
	}
	if stats.EpisodesPerSecond <= 0 {
		t.Error("expected positive episodes per second")
	}
	if stats.MinEpisodeDuration > stats.MaxEpisodeDuration {
		t.Errorf("min %v > max %v", stats.MinEpisodeDuration, stats.MaxEpisodeDuration)
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	// Simulate with uneven phase durations
	for i := 0; i < 5; i++ {
		pc.StartEpisode()
		pc.StartPhase(PhaseUpdate)
		time.Sleep(10 * time.Microsecond)
		pc.StartPhase(PhaseRollout)
		time.Sleep(500 * time.Microsecond)
		pc.EndEpisode(1)
	}

	stats := pc.Stats()
	csv := stats.ToCSV(5)

	if csv.RolloutPct <= csv.UpdatePct {
		t.Errorf("expected rollout (%v%%) > update (%v%%)", csv.RolloutPct, csv.UpdatePct)
	}
	if csv.WindowEnd != 5 {
		t.Errorf("window end = %d, want 5", csv.WindowEnd)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)

	stats := pc.Stats()

	// Empty collector should return zero values without panicking
	if stats.AvgEpisodeDuration != 0 {
		t.Error("expected zero avg episode duration for empty collector")
	}
	if stats.PhaseAvg == nil {
		t.Error("expected non-nil PhaseAvg map")
	}
	if stats.PhasePct == nil {
		t.Error("expected non-nil PhasePct map")
	}
}

func TestPerfCollector_NilIsNoop(t *testing.T) {
	var pc *PerfCollector
	pc.StartEpisode()
	pc.StartPhase(PhaseRollout)
	pc.EndEpisode(3)

	if stats := pc.Stats(); stats.AvgEpisodeDuration != 0 {
		t.Error("nil collector reported timing data")
	}
}
