package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"world.width", float64(cfg.World.Width), 20},
		{"neural.hidden_size", float64(cfg.Neural.HiddenSize), 400},
		{"training.batch_size", float64(cfg.Training.BatchSize), 10},
		{"training.learning_rate", cfg.Training.LearningRate, 1e-4},
		{"training.gamma", cfg.Training.Gamma, 0.99},
		{"training.decay_rate", cfg.Training.DecayRate, 0.99},
		{"training.epsilon", cfg.Training.Epsilon, 1e-5},
		{"training.max_episodes", float64(cfg.Training.MaxEpisodes), 1500},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}

	if cfg.Training.Resume {
		t.Error("training.resume should default to false")
	}
	if cfg.Derived.NumInputs != 9 {
		t.Errorf("Derived.NumInputs = %d, want 9", cfg.Derived.NumInputs)
	}
	if cfg.Derived.NumActions != NumActions {
		t.Errorf("Derived.NumActions = %d, want %d", cfg.Derived.NumActions, NumActions)
	}
	if cfg.Derived.Center != 10 {
		t.Errorf("Derived.Center = %d, want 10", cfg.Derived.Center)
	}
}

func TestLoadMergesUserFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.yaml")
	data := []byte("world:\n  width: 12\ntraining:\n  resume: true\n  batch_size: 4\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("writing override: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.World.Width != 12 {
		t.Errorf("world.width = %d, want 12", cfg.World.Width)
	}
	if !cfg.Training.Resume {
		t.Error("training.resume = false, want true")
	}
	if cfg.Training.BatchSize != 4 {
		t.Errorf("training.batch_size = %d, want 4", cfg.Training.BatchSize)
	}
	// Untouched fields keep their defaults
	if cfg.Training.Gamma != 0.99 {
		t.Errorf("training.gamma = %v, want 0.99", cfg.Training.Gamma)
	}
	if cfg.Derived.Center != 6 {
		t.Errorf("Derived.Center = %d, want 6", cfg.Derived.Center)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	data := []byte("cell:\n  move_cost: 0\ntraining:\n  batch_size: 0\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("writing override: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected validation error for zero move_cost and batch_size")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Training.LearningRate = 3e-3

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Training.LearningRate != 3e-3 {
		t.Errorf("learning_rate = %v, want 3e-3", loaded.Training.LearningRate)
	}
}
