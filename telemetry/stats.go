package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a window of episodes.
type WindowStats struct {
	WindowStart int `csv:"window_start"` // first episode in the window
	WindowEnd   int `csv:"window_end"`   // last episode in the window
	Episodes    int `csv:"episodes"`

	// Outcomes
	Exits    int     `csv:"exits"`
	Deaths   int     `csv:"deaths"`
	ExitRate float64 `csv:"exit_rate"`

	// Episode length
	StepsMean float64 `csv:"steps_mean"`
	StepsP50  float64 `csv:"steps_p50"`
	StepsP90  float64 `csv:"steps_p90"`

	// Reward
	RewardMean    float64 `csv:"reward_mean"`
	RewardStd     float64 `csv:"reward_std"`
	RunningReward float64 `csv:"running_reward"` // EMA at window end

	// Colony
	Births            int     `csv:"births"`
	Starved           int     `csv:"starved"`
	FinalNutrientMean float64 `csv:"final_nutrient_mean"`

	Updates int `csv:"updates"` // parameter updates applied in the window
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeSpread returns the mean and the 50th/90th percentiles of values.
func ComputeSpread(values []float64) (mean, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}
	mean = stat.Mean(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return mean, Percentile(sorted, 0.50), Percentile(sorted, 0.90)
}

// ComputeMeanStd returns the population mean and standard deviation of values.
func ComputeMeanStd(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	return stat.PopMeanStdDev(values, nil)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStart),
		slog.Int("window_end", s.WindowEnd),
		slog.Int("episodes", s.Episodes),
		slog.Int("exits", s.Exits),
		slog.Int("deaths", s.Deaths),
		slog.Float64("exit_rate", s.ExitRate),
		slog.Float64("steps_mean", s.StepsMean),
		slog.Float64("steps_p50", s.StepsP50),
		slog.Float64("steps_p90", s.StepsP90),
		slog.Float64("reward_mean", s.RewardMean),
		slog.Float64("reward_std", s.RewardStd),
		slog.Float64("running_reward", s.RunningReward),
		slog.Int("births", s.Births),
		slog.Int("starved", s.Starved),
		slog.Float64("final_nutrient_mean", s.FinalNutrientMean),
		slog.Int("updates", s.Updates),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEnd,
		"episodes", s.Episodes,
		"exits", s.Exits,
		"deaths", s.Deaths,
		"exit_rate", s.ExitRate,
		"steps_mean", s.StepsMean,
		"steps_p90", s.StepsP90,
		"reward_mean", s.RewardMean,
		"reward_std", s.RewardStd,
		"running_reward", s.RunningReward,
		"births", s.Births,
		"starved", s.Starved,
		"final_nutrient_mean", s.FinalNutrientMean,
		"updates", s.Updates,
	)
}
