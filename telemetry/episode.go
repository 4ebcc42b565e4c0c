package telemetry

import (
	"log/slog"

	"github.com/pthm-cable/cellpg/components"
)

// EpisodeStats describes one finished training episode.
type EpisodeStats struct {
	Episode       int               `csv:"episode"`
	Steps         int               `csv:"steps"`
	Reward        float64           `csv:"reward"`         // undiscounted episode total
	RunningReward float64           `csv:"running_reward"` // EMA after this episode
	Status        components.Status `csv:"status"`
	Births        int               `csv:"births"`
	Starved       int               `csv:"starved"` // passive cells that starved
	PassiveCells  int               `csv:"passive_cells"`
	FinalNutrient float64           `csv:"final_nutrient"`
	Updated       bool              `csv:"updated"` // parameters were updated after this episode
}

// LogValue implements slog.LogValuer for structured logging.
func (s EpisodeStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("episode", s.Episode),
		slog.Int("steps", s.Steps),
		slog.Float64("reward", s.Reward),
		slog.Float64("running_reward", s.RunningReward),
		slog.String("status", s.Status.String()),
		slog.Int("births", s.Births),
		slog.Int("starved", s.Starved),
		slog.Int("passive_cells", s.PassiveCells),
		slog.Float64("final_nutrient", s.FinalNutrient),
		slog.Bool("updated", s.Updated),
	)
}
