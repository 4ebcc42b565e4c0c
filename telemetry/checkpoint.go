package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pthm-cable/cellpg/neural"
)

// CheckpointFile persists policy checkpoints as indented JSON.
type CheckpointFile struct {
	Path string
}

// NewCheckpointFile resolves name against dir when name is relative and
// dir is set. An empty name disables checkpointing (returns nil).
func NewCheckpointFile(dir, name string) *CheckpointFile {
	if name == "" {
		return nil
	}
	if dir != "" && !filepath.IsAbs(name) {
		name = filepath.Join(dir, name)
	}
	return &CheckpointFile{Path: name}
}

// SaveCheckpoint writes cp, replacing any previous file atomically.
func (f *CheckpointFile) SaveCheckpoint(cp neural.Checkpoint) error {
	if f == nil {
		return nil
	}
	if dir := filepath.Dir(f.Path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create checkpoint dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		return fmt.Errorf("rename checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint reads the checkpoint at Path.
func (f *CheckpointFile) LoadCheckpoint() (neural.Checkpoint, error) {
	var cp neural.Checkpoint
	if f == nil {
		return cp, fmt.Errorf("read checkpoint: no checkpoint file configured")
	}

	data, err := os.ReadFile(f.Path)
	if err != nil {
		return cp, fmt.Errorf("read checkpoint: %w", err)
	}
	if err := json.Unmarshal(data, &cp); err != nil {
		return cp, fmt.Errorf("unmarshal checkpoint: %w", err)
	}
	return cp, nil
}
