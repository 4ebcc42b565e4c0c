package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/pthm-cable/cellpg/config"
)

// Output file names inside the output directory.
const (
	EpisodesFile  = "episodes.csv"
	TelemetryFile = "telemetry.csv"
	PerfFile      = "perf.csv"
	ConfigFile    = "config.yaml"
	PlotFile      = "reward.png"
	SnapshotDir   = "snapshots"
)

// csvLog appends records to a CSV file, writing the header on first use.
type csvLog struct {
	file          *os.File
	headerWritten bool
}

func openCSVLog(dir, name string) (*csvLog, error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &csvLog{file: f}, nil
}

func (l *csvLog) write(records any) error {
	if !l.headerWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, l.file); err != nil {
			return err
		}
		l.headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, l.file)
}

// OutputManager handles structured experiment output with CSV logging.
type OutputManager struct {
	dir       string
	episodes  *csvLog
	telemetry *csvLog
	perf      *csvLog
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	var err error
	if om.episodes, err = openCSVLog(dir, EpisodesFile); err != nil {
		return nil, err
	}
	if om.telemetry, err = openCSVLog(dir, TelemetryFile); err != nil {
		om.Close()
		return nil, err
	}
	if om.perf, err = openCSVLog(dir, PerfFile); err != nil {
		om.Close()
		return nil, err
	}

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, ConfigFile))
}

// WriteEpisode appends one episode record to episodes.csv.
func (om *OutputManager) WriteEpisode(ep EpisodeStats) error {
	if om == nil {
		return nil
	}
	if err := om.episodes.write([]EpisodeStats{ep}); err != nil {
		return fmt.Errorf("writing episode: %w", err)
	}
	return nil
}

// WriteTelemetry writes a window stats record to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}
	if err := om.telemetry.write([]WindowStats{stats}); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int) error {
	if om == nil {
		return nil
	}
	if err := om.perf.write([]PerfStatsCSV{stats.ToCSV(windowEnd)}); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteSnapshot saves a world snapshot under the snapshots directory.
// Returns the path written, or "" when output is disabled.
func (om *OutputManager) WriteSnapshot(s *Snapshot) (string, error) {
	if om == nil {
		return "", nil
	}
	return SaveSnapshot(s, filepath.Join(om.dir, SnapshotDir))
}

// PlotPath returns the reward plot location, or "" when output is disabled.
func (om *OutputManager) PlotPath() string {
	if om == nil {
		return ""
	}
	return filepath.Join(om.dir, PlotFile)
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
	for _, l := range []*csvLog{om.episodes, om.telemetry, om.perf} {
		if l == nil {
			continue
		}
		if err := l.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
