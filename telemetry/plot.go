package telemetry

import (
	"fmt"
	"math"
	"os"

	"github.com/wcharczuk/go-chart/v2"
	"gonum.org/v1/gonum/floats"
)

// RewardPlot accumulates per-episode rewards and renders a learning curve.
type RewardPlot struct {
	episodes []float64
	rewards  []float64
	running  []float64
}

// NewRewardPlot creates an empty plot.
func NewRewardPlot() *RewardPlot {
	return &RewardPlot{}
}

// Add appends one episode to the curve.
func (p *RewardPlot) Add(ep EpisodeStats) {
	p.episodes = append(p.episodes, float64(ep.Episode))
	p.rewards = append(p.rewards, ep.Reward)
	p.running = append(p.running, ep.RunningReward)
}

// Len returns the number of recorded episodes.
func (p *RewardPlot) Len() int {
	return len(p.episodes)
}

// Render writes the curve as a PNG. Curves with fewer than two points or
// a flat reward range cannot be scaled, so they are skipped and report false.
func (p *RewardPlot) Render(path string) (bool, error) {
	if path == "" || len(p.episodes) < 2 {
		return false, nil
	}
	lo := math.Min(floats.Min(p.rewards), floats.Min(p.running))
	hi := math.Max(floats.Max(p.rewards), floats.Max(p.running))
	if hi-lo == 0 {
		return false, nil
	}

	graph := chart.Chart{
		Width:  900,
		Height: 400,
		XAxis: chart.XAxis{
			Name:  "episode",
			Style: chart.Style{FontSize: 10.0},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%d", int(v.(float64)))
			},
		},
		YAxis: chart.YAxis{
			Name:  "reward",
			Style: chart.Style{FontSize: 10.0},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "episode reward",
				XValues: p.episodes,
				YValues: p.rewards,
				Style:   chart.Style{StrokeColor: chart.ColorBlue, StrokeWidth: 1.0},
			},
			chart.ContinuousSeries{
				Name:    "running reward",
				XValues: p.episodes,
				YValues: p.running,
				Style:   chart.Style{StrokeColor: chart.ColorRed, StrokeWidth: 3.0},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	f, err := os.Create(path)
	if err != nil {
		return false, fmt.Errorf("create plot: %w", err)
	}
	defer f.Close()

	if err := graph.Render(chart.PNG, f); err != nil {
		return false, fmt.Errorf("render plot: %w", err)
	}
	return true, nil
}
