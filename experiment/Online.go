package experiment

import (
	"fmt"
	"io"

	"github.com/aunum/log"
	"github.com/samuelfneumann/deepq/agent/deepq"
	env "github.com/samuelfneumann/deepq/environment"
	"github.com/samuelfneumann/deepq/experiment/checkpointer"
	"github.com/samuelfneumann/deepq/experiment/trackers"
	ts "github.com/samuelfneumann/deepq/timestep"
	"github.com/samuelfneumann/deepq/utils/progressbar"
	"gonum.org/v1/gonum/stat"
)

const progressBarWidth = 40

var _ Experiment = &Online{}

// Online is an Experiment that trains a DeepQ agent online. Each
// environment step, the agent observes the transition, learns once
// enough experience has been stored, and periodically syncs its target
// network.
type Online struct {
	environment   env.Environment
	agent         *deepq.DeepQ
	config        Config
	trackers      []trackers.Tracker
	checkpointers []checkpointer.Checkpointer
	progress      *progressbar.ManualProgressBar

	episodes   int
	totalSteps int
	returns    []float64
}

// NewOnline creates and returns a new online experiment of agent a in
// environment e. The agent's epsilon is set to c.InitialEpsilon. The t
// parameter is a slice of trackers.Tracker which determine what data
// is saved, and check is a slice of Checkpointers called after every
// environment step.
func NewOnline(e env.Environment, a *deepq.DeepQ, c Config,
	t []trackers.Tracker, check []checkpointer.Checkpointer) (*Online,
	error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newOnline: %w", err)
	}

	if a.NumActions() != e.ActionSpace() {
		return nil, fmt.Errorf("newOnline: agent and environment action "+
			"spaces differ \n\twant(%v) \n\thave(%v)", e.ActionSpace(),
			a.NumActions())
	}
	if a.Online().InputSize() != e.ObservationSize() {
		return nil, fmt.Errorf("newOnline: network input width must equal "+
			"observation size \n\twant(%v) \n\thave(%v)",
			e.ObservationSize(), a.Online().InputSize())
	}

	a.Epsilon = c.InitialEpsilon
	return &Online{
		environment:   e,
		agent:         a,
		config:        c,
		trackers:      t,
		checkpointers: check,
	}, nil
}

// Register registers a Tracker with an Experiment so that data
// generated during the experiment can be tracked and saved
func (o *Online) Register(t trackers.Tracker) {
	o.trackers = append(o.trackers, t)
}

// RegisterCheckpointer registers a Checkpointer with an Experiment
func (o *Online) RegisterCheckpointer(c checkpointer.Checkpointer) {
	o.checkpointers = append(o.checkpointers, c)
}

// ShowProgress displays a progress bar over the training episodes on
// out while the experiment runs
func (o *Online) ShowProgress(out io.Writer) {
	o.progress = progressbar.NewManualProgressBar(out, progressBarWidth,
		o.config.Episodes)
}

// TotalSteps returns the number of environment steps taken during
// training so far
func (o *Online) TotalSteps() int {
	return o.totalSteps
}

// Episodes returns the number of training episodes finished so far
func (o *Online) Episodes() int {
	return o.episodes
}

// RunEpisode runs a single training episode. If the experiment's step
// budget runs out before the episode ends, the episode is abandoned
// and RunEpisode returns false.
func (o *Online) RunEpisode() (float64, bool, error) {
	step := o.environment.Reset()
	o.track(step)

	episodeReturn := 0.0
	for !step.Last() {
		if o.config.MaxSteps > 0 && o.totalSteps >= o.config.MaxSteps {
			return episodeReturn, false, nil
		}
		o.totalSteps++

		// Select action, step in environment
		action := o.agent.SelectAction(step.Observation)
		next, err := o.environment.Step(action)
		if err != nil {
			return episodeReturn, false, fmt.Errorf("runEpisode: %w", err)
		}
		episodeReturn += next.Reward
		o.track(next)

		o.agent.Observe(ts.NewTransition(step, action, next))
		if o.agent.ReplayLen() > o.config.LearningStarts {
			o.agent.Learn()

			if o.agent.Epsilon > o.config.FinalEpsilon {
				o.agent.Epsilon *= o.config.EpsilonDecay
			}
		}

		if o.totalSteps%o.config.TargetUpdateInterval == 0 {
			o.agent.UpdateTargetNetwork()
		}

		if err := o.checkpoint(next); err != nil {
			return episodeReturn, false, fmt.Errorf("runEpisode: %w", err)
		}
		step = next
	}

	o.returns = append(o.returns, episodeReturn)
	o.logProgress(episodeReturn)
	o.episodes++
	return episodeReturn, true, nil
}

// Run runs training episodes until the configured number of episodes
// have finished or the step budget is exhausted. The return of each
// finished episode is returned.
func (o *Online) Run() ([]float64, error) {
	for o.episodes < o.config.Episodes {
		_, finished, err := o.RunEpisode()
		if err != nil {
			return o.Returns(), fmt.Errorf("run: %w", err)
		}
		if !finished {
			log.Infof("step budget of %v steps exhausted after %v episodes",
				o.config.MaxSteps, o.episodes)
			break
		}

		if o.progress != nil {
			o.progress.Increment()
			o.progress.Display()
		}
	}

	if o.progress != nil {
		o.progress.Close()
	}
	return o.Returns(), nil
}

// Returns returns the return of each finished training episode
func (o *Online) Returns() []float64 {
	return append([]float64(nil), o.returns...)
}

// Evaluate runs episodes greedy episodes with respect to the agent's
// online network and returns their returns. Nothing is stored, learned,
// tracked, or counted towards the step budget.
func (o *Online) Evaluate(episodes int) ([]float64, error) {
	if episodes < 1 {
		return nil, fmt.Errorf("evaluate: episodes must be positive "+
			"\n\twant(>0) \n\thave(%v)", episodes)
	}

	epsilon := o.agent.Epsilon
	o.agent.Epsilon = 0
	defer func() { o.agent.Epsilon = epsilon }()

	returns := make([]float64, 0, episodes)
	for i := 0; i < episodes; i++ {
		step := o.environment.Reset()
		episodeReturn := 0.0

		for !step.Last() {
			var err error
			step, err = o.environment.Step(o.agent.SelectAction(step.Observation))
			if err != nil {
				return returns, fmt.Errorf("evaluate: %w", err)
			}
			episodeReturn += step.Reward
		}
		returns = append(returns, episodeReturn)
	}

	log.Infof("evaluation over %v episodes: mean return %.2f", episodes,
		stat.Mean(returns, nil))
	return returns, nil
}

// Save saves all the data cached by the Trackers to disk
func (o *Online) Save() error {
	for _, tracker := range o.trackers {
		if err := tracker.Save(); err != nil {
			return fmt.Errorf("save: %w", err)
		}
	}
	return nil
}

// track tracks the current timestep by caching its data in each
// Tracker
func (o *Online) track(t ts.TimeStep) {
	for _, tracker := range o.trackers {
		tracker.Track(t)
	}
}

// checkpoint calls each Checkpointer on the current timestep
func (o *Online) checkpoint(t ts.TimeStep) error {
	for _, c := range o.checkpointers {
		if err := c.Checkpoint(t); err != nil {
			return err
		}
	}
	return nil
}

// logProgress logs the progress of training every LogEvery episodes
func (o *Online) logProgress(episodeReturn float64) {
	if o.config.LogEvery == 0 || o.episodes%o.config.LogEvery != 0 {
		return
	}

	start := len(o.returns) - o.config.LogEvery
	if start < 0 {
		start = 0
	}
	log.Infof("episode: %v, return: %.2f, mean return: %.2f, epsilon: %.4f",
		o.episodes, episodeReturn, stat.Mean(o.returns[start:], nil),
		o.agent.Epsilon)
}
