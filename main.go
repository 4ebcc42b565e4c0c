package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pthm-cable/cellpg/config"
	"github.com/pthm-cable/cellpg/telemetry"
	"github.com/pthm-cable/cellpg/train"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output window and perf stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, checkpoints, snapshots and plots")
	seed := flag.Int64("seed", 0, "RNG seed (0 = use config)")
	resume := flag.Bool("resume", false, "Resume from the checkpoint file (overrides config)")
	maxEpisodes := flag.Int("max-episodes", 0, "Stop after N episodes in total (0 = use config)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// CLI overrides
	if *seed != 0 {
		cfg.Training.Seed = *seed
	}
	if *resume {
		cfg.Training.Resume = true
	}
	if *maxEpisodes > 0 {
		cfg.Training.MaxEpisodes = *maxEpisodes
	}

	out, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}
	if err := out.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)
	recorder := telemetry.NewRecorder(cfg.Telemetry, out, perf, *logStats)

	opts := train.Options{
		Observer: recorder,
		Perf:     perf,
	}
	if cp := telemetry.NewCheckpointFile(out.Dir(), cfg.Training.CheckpointFile); cp != nil {
		opts.Sink = cp
		opts.Source = cp
	}

	trainer, err := train.New(cfg, opts)
	if err != nil {
		slog.Error("failed to create trainer", "error", err)
		recorder.Close()
		os.Exit(1)
	}

	slog.Info("starting training",
		"seed", trainer.Seed(),
		"max_episodes", cfg.Training.MaxEpisodes,
		"batch_size", cfg.Training.BatchSize,
		"output_dir", out.Dir(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := trainer.Run(ctx)
	if err := recorder.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		slog.Error("training failed", "error", runErr)
		os.Exit(1)
	}
}
