package train

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pthm-cable/cellpg/config"
	"github.com/pthm-cable/cellpg/env"
	"github.com/pthm-cable/cellpg/neural"
	"github.com/pthm-cable/cellpg/telemetry"
)

// CheckpointSink receives periodic policy checkpoints.
type CheckpointSink interface {
	SaveCheckpoint(neural.Checkpoint) error
}

// CheckpointSource provides the checkpoint a resumed run starts from.
type CheckpointSource interface {
	LoadCheckpoint() (neural.Checkpoint, error)
}

// Observer receives finished episodes and periodic world snapshots.
type Observer interface {
	ObserveEpisode(telemetry.EpisodeStats) error
	WantSnapshot(episode int) bool
	ObserveSnapshot(*telemetry.Snapshot) error
}

// Options wires optional collaborators into a Trainer. All fields may be nil.
type Options struct {
	Sink     CheckpointSink
	Source   CheckpointSource
	Observer Observer
	Perf     *telemetry.PerfCollector
}

// Trainer runs episodes against the environment and updates the policy
// with REINFORCE, applying RMSProp once per batch of episodes.
type Trainer struct {
	cfg  *config.Config
	opts Options

	env    *env.Environment
	policy *neural.Policy
	rng    *rand.Rand
	seed   int64

	grads neural.Params
	opt   *RMSProp
	traj  Trajectory

	episode       int // completed episodes, including resumed ones
	pending       int // episodes accumulated in grads
	updates       int
	runningReward float64
	hasRunning    bool
}

// New creates a trainer. With training.resume set the policy is restored
// from opts.Source; a missing source or unreadable checkpoint is an error.
func New(cfg *config.Config, opts Options) (*Trainer, error) {
	seed := cfg.Training.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	policy := neural.NewPolicy(rng, cfg.Derived.NumInputs, cfg.Neural.HiddenSize, cfg.Derived.NumActions)

	t := &Trainer{
		cfg:    cfg,
		opts:   opts,
		env:    env.New(cfg),
		policy: policy,
		rng:    rng,
		seed:   seed,
		grads:  neural.ZerosLike(policy.Params),
		opt: NewRMSProp(cfg.Training.LearningRate, cfg.Training.DecayRate,
			cfg.Training.Epsilon, policy.Params),
	}

	if cfg.Training.Resume {
		if err := t.resume(); err != nil {
			return nil, err
		}
	}

	slog.Info("trainer ready",
		"seed", seed,
		"inputs", cfg.Derived.NumInputs,
		"hidden", cfg.Neural.HiddenSize,
		"actions", cfg.Derived.NumActions,
		"optimizer", t.opt.String(),
		"start_episode", t.episode,
	)
	return t, nil
}

func (t *Trainer) resume() error {
	if t.opts.Source == nil {
		return errors.New("resume requested without a checkpoint source")
	}
	cp, err := t.opts.Source.LoadCheckpoint()
	if err != nil {
		return fmt.Errorf("load checkpoint: %w", err)
	}
	if err := t.policy.UnmarshalWeights(cp); err != nil {
		return fmt.Errorf("restore checkpoint: %w", err)
	}
	t.episode = cp.Episode
	t.runningReward = cp.RunningReward
	t.hasRunning = true

	slog.Info("resumed from checkpoint", "episode", cp.Episode, "running_reward", cp.RunningReward)
	return nil
}

// RunEpisode plays one episode, accumulates its gradient and applies an
// update when the batch is full.
func (t *Trainer) RunEpisode() telemetry.EpisodeStats {
	t.opts.Perf.StartEpisode()
	stats := t.episodeStep()
	t.opts.Perf.EndEpisode(stats.Steps)
	return stats
}

func (t *Trainer) episodeStep() telemetry.EpisodeStats {
	perf := t.opts.Perf
	training := &t.cfg.Training

	perf.StartPhase(telemetry.PhaseRollout)
	t.traj.Reset()
	x := t.env.Reset()
	for {
		probs, h := t.policy.Forward(x)
		action := neural.Sample(probs, t.rng)
		t.traj.Record(x, h, probs, action)

		next, reward, done := t.env.Step(env.Action(action))
		t.traj.Reward(reward)
		x = next
		if done {
			break
		}
	}

	perf.StartPhase(telemetry.PhaseBackward)
	returns := DiscountRewards(t.traj.Rewards(), training.Gamma, t.cfg.Reward.SegmentOnReward)
	Standardize(returns)
	xs, hs, signal := t.traj.Matrices(returns)
	t.grads.Add(t.policy.Backward(xs, hs, signal))
	t.pending++
	t.episode++

	total := t.traj.Total()
	if t.hasRunning {
		d := training.RunningRewardDecay
		t.runningReward = d*t.runningReward + (1-d)*total
	} else {
		t.runningReward = total
		t.hasRunning = true
	}

	updated := false
	if t.pending >= training.BatchSize {
		perf.StartPhase(telemetry.PhaseUpdate)
		t.opt.Step(t.policy.Params, t.grads)
		t.grads.Zero()
		t.pending = 0
		t.updates++
		updated = true
	}

	return telemetry.EpisodeStats{
		Episode:       t.episode,
		Steps:         t.env.Steps(),
		Reward:        total,
		RunningReward: t.runningReward,
		Status:        t.env.Status(),
		Births:        t.env.Births(),
		Starved:       t.env.Starved(),
		PassiveCells:  t.env.Population().Passive(),
		FinalNutrient: t.env.Field().Total(),
		Updated:       updated,
	}
}

// Run trains until training.max_episodes episodes have completed or ctx
// is cancelled. A final checkpoint is written either way; gradients of a
// partial batch are discarded.
func (t *Trainer) Run(ctx context.Context) error {
	maxEpisodes := t.cfg.Training.MaxEpisodes
	interval := t.cfg.Training.CheckpointInterval

	for t.episode < maxEpisodes {
		if err := ctx.Err(); err != nil {
			slog.Info("training interrupted", "episode", t.episode)
			t.checkpoint()
			return err
		}

		t.opts.Perf.StartEpisode()
		stats := t.episodeStep()

		t.opts.Perf.StartPhase(telemetry.PhaseOutput)
		t.observe(stats)
		if interval > 0 && t.episode%interval == 0 {
			t.checkpoint()
		}
		t.opts.Perf.EndEpisode(stats.Steps)
	}

	t.checkpoint()
	slog.Info("training complete",
		"episodes", t.episode,
		"updates", t.updates,
		"running_reward", t.runningReward,
	)
	return nil
}

func (t *Trainer) observe(stats telemetry.EpisodeStats) {
	obs := t.opts.Observer
	if obs == nil {
		return
	}
	if err := obs.ObserveEpisode(stats); err != nil {
		slog.Error("failed to record episode", "episode", stats.Episode, "error", err)
	}
	if obs.WantSnapshot(stats.Episode) {
		snap := telemetry.NewSnapshot(stats.Episode, t.runningReward, t.env)
		if err := obs.ObserveSnapshot(snap); err != nil {
			slog.Error("failed to save snapshot", "episode", stats.Episode, "error", err)
		}
	}
}

// checkpoint pushes the current policy to the sink. Failures are logged
// and training continues.
func (t *Trainer) checkpoint() {
	if t.opts.Sink == nil {
		return
	}
	if err := t.opts.Sink.SaveCheckpoint(t.Checkpoint()); err != nil {
		slog.Warn("checkpoint save failed", "episode", t.episode, "error", err)
		return
	}
	slog.Info("checkpoint saved", "episode", t.episode, "running_reward", t.runningReward)
}

// Checkpoint returns the current policy with training progress.
func (t *Trainer) Checkpoint() neural.Checkpoint {
	cp := t.policy.MarshalWeights()
	cp.Episode = t.episode
	cp.RunningReward = t.runningReward
	return cp
}

// Episode returns the number of completed episodes.
func (t *Trainer) Episode() int { return t.episode }

// Updates returns the number of parameter updates applied.
func (t *Trainer) Updates() int { return t.updates }

// Pending returns the episodes accumulated since the last update.
func (t *Trainer) Pending() int { return t.pending }

// RunningReward returns the episode reward EMA.
func (t *Trainer) RunningReward() float64 { return t.runningReward }

// Seed returns the seed the trainer's RNG was created with.
func (t *Trainer) Seed() int64 { return t.seed }

// Policy returns the policy being trained.
func (t *Trainer) Policy() *neural.Policy { return t.policy }

// Environment returns the training environment.
func (t *Trainer) Environment() *env.Environment { return t.env }

// Optimizer returns the RMSProp state.
func (t *Trainer) Optimizer() *RMSProp { return t.opt }
