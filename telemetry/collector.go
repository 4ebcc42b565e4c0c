package telemetry

import "github.com/pthm-cable/cellpg/components"

// Collector accumulates finished episodes and produces WindowStats.
type Collector struct {
	windowEpisodes int

	// Current window tracking
	windowStart int
	count       int

	exits, deaths   int
	births, starved int
	updates         int
	runningReward   float64
	lastEpisode     int

	steps    []float64
	rewards  []float64
	nutrient []float64
}

// NewCollector creates a new stats collector.
// windowEpisodes: how many episodes each stats window covers.
func NewCollector(windowEpisodes int) *Collector {
	if windowEpisodes < 1 {
		windowEpisodes = 1
	}
	return &Collector{
		windowEpisodes: windowEpisodes,
		windowStart:    -1,
		steps:          make([]float64, 0, windowEpisodes),
		rewards:        make([]float64, 0, windowEpisodes),
		nutrient:       make([]float64, 0, windowEpisodes),
	}
}

// Record adds one finished episode to the current window.
func (c *Collector) Record(ep EpisodeStats) {
	if c.count == 0 {
		c.windowStart = ep.Episode
	}
	c.count++
	c.lastEpisode = ep.Episode
	c.runningReward = ep.RunningReward

	switch ep.Status {
	case components.StatusExited:
		c.exits++
	case components.StatusDead:
		c.deaths++
	}
	c.births += ep.Births
	c.starved += ep.Starved
	if ep.Updated {
		c.updates++
	}

	c.steps = append(c.steps, float64(ep.Steps))
	c.rewards = append(c.rewards, ep.Reward)
	c.nutrient = append(c.nutrient, ep.FinalNutrient)
}

// ShouldFlush returns true once the window holds enough episodes.
func (c *Collector) ShouldFlush() bool {
	return c.count >= c.windowEpisodes
}

// Pending returns the number of episodes recorded since the last flush.
func (c *Collector) Pending() int {
	return c.count
}

// Flush produces a WindowStats and resets counters for the next window.
// Flushing an empty window returns the zero value.
func (c *Collector) Flush() WindowStats {
	if c.count == 0 {
		return WindowStats{}
	}

	stepsMean, stepsP50, stepsP90 := ComputeSpread(c.steps)
	rewardMean, rewardStd := ComputeMeanStd(c.rewards)
	nutrientMean, _ := ComputeMeanStd(c.nutrient)

	stats := WindowStats{
		WindowStart: c.windowStart,
		WindowEnd:   c.lastEpisode,
		Episodes:    c.count,

		Exits:    c.exits,
		Deaths:   c.deaths,
		ExitRate: float64(c.exits) / float64(c.count),

		StepsMean: stepsMean,
		StepsP50:  stepsP50,
		StepsP90:  stepsP90,

		RewardMean:    rewardMean,
		RewardStd:     rewardStd,
		RunningReward: c.runningReward,

		Births:            c.births,
		Starved:           c.starved,
		FinalNutrientMean: nutrientMean,

		Updates: c.updates,
	}

	// Reset for next window
	c.count = 0
	c.windowStart = -1
	c.exits, c.deaths = 0, 0
	c.births, c.starved = 0, 0
	c.updates = 0
	c.steps = c.steps[:0]
	c.rewards = c.rewards[:0]
	c.nutrient = c.nutrient[:0]

	return stats
}

// WindowEpisodes returns the number of episodes per window.
func (c *Collector) WindowEpisodes() int {
	return c.windowEpisodes
}
