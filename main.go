package main

import (
	"encoding/json"
	"flag"
	"os"
	"path/filepath"

	"github.com/aunum/log"
	"github.com/samuelfneumann/deepq/agent/deepq"
	"github.com/samuelfneumann/deepq/environment/cartpole"
	"github.com/samuelfneumann/deepq/experiment"
	"github.com/samuelfneumann/deepq/experiment/checkpointer"
	"github.com/samuelfneumann/deepq/experiment/trackers"
	"github.com/samuelfneumann/deepq/initwfn"
	"github.com/samuelfneumann/deepq/network"
)

// RunConfig configures a training run of a DeepQ agent on Cartpole
type RunConfig struct {
	Agent      deepq.Config
	Experiment experiment.Config
	Hidden     []int           // Hidden layer widths of the Q-network
	Init       initwfn.InitWFn // Q-network weight initialization
}

func defaultRunConfig() RunConfig {
	return RunConfig{
		Agent:      deepq.DefaultConfig(cartpole.Actions),
		Experiment: experiment.DefaultConfig(500),
		Hidden:     []int{64, 64},
	}
}

func main() {
	configFile := flag.String("config", "", "JSON run configuration")
	seed := flag.Uint64("seed", 192382, "random seed")
	out := flag.String("out", ".", "directory to save data and checkpoints in")
	checkpointEvery := flag.Int("checkpoint", 10_000, "steps between "+
		"network checkpoints, 0 to disable")
	evalEpisodes := flag.Int("eval", 5, "greedy evaluation episodes after "+
		"training")
	progress := flag.Bool("progress", false, "display a progress bar")
	flag.Parse()

	config := defaultRunConfig()
	if *configFile != "" {
		data, err := os.ReadFile(*configFile)
		if err != nil {
			log.Fatalf("could not read config file: %v", err)
		}
		if err := json.Unmarshal(data, &config); err != nil {
			log.Fatalf("could not parse config file: %v", err)
		}
	}
	config.Agent.Seed = *seed
	log.Infov("config", config)

	// Create the environment
	env, _ := cartpole.NewDefault(*seed)

	// Create the Q-network: hidden LeakyReLU layers, linear output
	sizes := append(append([]int{}, config.Hidden...), env.ActionSpace())
	activations := make([]network.Activation, len(sizes))
	for i := range activations {
		activations[i] = network.ReLU()
	}
	activations[len(activations)-1] = network.Identity()

	net, err := network.NewMLPInit(env.ObservationSize(), sizes,
		activations, config.Init, *seed)
	if err != nil {
		log.Fatalf("could not create network: %v", err)
	}

	agent, err := deepq.New(net, config.Agent)
	if err != nil {
		log.Fatalf("could not create agent: %v", err)
	}

	// Experiment
	returnsFile := filepath.Join(*out, "returns.bin")
	tracked := []trackers.Tracker{
		trackers.NewReturn(returnsFile),
		trackers.NewEpisodeLength(filepath.Join(*out, "lengths.bin")),
	}

	var checks []checkpointer.Checkpointer
	if *checkpointEvery > 0 {
		check, err := checkpointer.NewNStep(*checkpointEvery, agent.Online(),
			checkpointer.FilenameEnumerator(0,
				filepath.Join(*out, "checkpoint"), ".bin"))
		if err != nil {
			log.Fatalf("could not create checkpointer: %v", err)
		}
		checks = append(checks, check)
	}

	e, err := experiment.NewOnline(env, agent, config.Experiment, tracked,
		checks)
	if err != nil {
		log.Fatalf("could not create experiment: %v", err)
	}
	if *progress {
		e.ShowProgress(os.Stderr)
	}

	if _, err := e.Run(); err != nil {
		log.Fatalf("could not run experiment: %v", err)
	}
	if err := e.Save(); err != nil {
		log.Fatalf("could not save experiment data: %v", err)
	}
	if err := agent.Online().Save(filepath.Join(*out, "model.bin")); err != nil {
		log.Fatalf("could not save model: %v", err)
	}

	data, err := trackers.LoadData(returnsFile)
	if err != nil {
		log.Fatalf("could not load returns: %v", err)
	}
	if len(data) > 10 {
		data = data[len(data)-10:]
	}
	log.Infof("last returns: %v", data)

	if *evalEpisodes > 0 {
		if _, err := e.Evaluate(*evalEpisodes); err != nil {
			log.Fatalf("could not evaluate agent: %v", err)
		}
	}
}
