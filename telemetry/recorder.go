package telemetry

import (
	"errors"
	"log/slog"

	"github.com/pthm-cable/cellpg/config"
)

// Recorder routes finished episodes to the window collector, the CSV
// outputs, the reward plot and the snapshot directory.
type Recorder struct {
	cfg       config.TelemetryConfig
	out       *OutputManager
	collector *Collector
	perf      *PerfCollector
	plot      *RewardPlot
	logStats  bool
}

// NewRecorder creates a recorder. out and perf may be nil.
// When logStats is set every flushed window is also logged.
func NewRecorder(cfg config.TelemetryConfig, out *OutputManager, perf *PerfCollector, logStats bool) *Recorder {
	return &Recorder{
		cfg:       cfg,
		out:       out,
		collector: NewCollector(cfg.LogInterval),
		perf:      perf,
		plot:      NewRewardPlot(),
		logStats:  logStats,
	}
}

// ObserveEpisode records one finished episode.
func (r *Recorder) ObserveEpisode(ep EpisodeStats) error {
	if err := r.out.WriteEpisode(ep); err != nil {
		return err
	}
	r.collector.Record(ep)
	r.plot.Add(ep)

	if r.collector.ShouldFlush() {
		if err := r.flush(); err != nil {
			return err
		}
	}

	if r.cfg.PlotInterval > 0 && ep.Episode%r.cfg.PlotInterval == 0 {
		if _, err := r.plot.Render(r.out.PlotPath()); err != nil {
			return err
		}
	}
	return nil
}

// WantSnapshot reports whether the world should be captured after episode.
func (r *Recorder) WantSnapshot(episode int) bool {
	return r.out != nil && r.cfg.SnapshotInterval > 0 && episode%r.cfg.SnapshotInterval == 0
}

// ObserveSnapshot writes a world snapshot.
func (r *Recorder) ObserveSnapshot(s *Snapshot) error {
	path, err := r.out.WriteSnapshot(s)
	if err != nil {
		return err
	}
	if path != "" {
		slog.Info("snapshot saved", "path", path, "episode", s.Episode)
	}
	return nil
}

func (r *Recorder) flush() error {
	stats := r.collector.Flush()
	if r.logStats {
		stats.LogStats()
	}
	if err := r.out.WriteTelemetry(stats); err != nil {
		return err
	}

	if r.perf == nil {
		return nil
	}
	perfStats := r.perf.Stats()
	if r.logStats {
		perfStats.LogStats()
	}
	return r.out.WritePerf(perfStats, stats.WindowEnd)
}

// Close flushes any partial window, renders the final plot and closes
// the output files.
func (r *Recorder) Close() error {
	var errs []error
	if r.collector.Pending() > 0 {
		errs = append(errs, r.flush())
	}
	if _, err := r.plot.Render(r.out.PlotPath()); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, r.out.Close())
	return errors.Join(errs...)
}
