package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/docopt/docopt-go"
	"github.com/ethereum/go-ethereum/log"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/google/uuid"

	"github.com/deselmo/kademlia-simulator/internal/sim"
)

var usage = `
usage: simulator [options] <m> <n> <k> [<num>]

Builds <num> (default 1) synthetic Kademlia overlay networks of <n>
nodes over an <m>-bit identifier space with <k>-sized buckets, and
writes one GML connectivity graph per run.

options:
  -o, --output=DIR       Directory for the generated GML files
  -s, --seed=SEED        Base seed for the simulation PRNG
  -c, --config=FILE      YAML configuration file
  -v, --verbosity=LEVEL  Log verbosity, 0 (crit) to 5 (trace)
`[1:]

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "simulator: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts, err := docopt.ParseDoc(usage)
	if err != nil {
		return err
	}

	var params sim.Params
	if params.M, err = opts.Int("<m>"); err != nil {
		return fmt.Errorf("invalid m: %w", err)
	}
	if params.N, err = opts.Int("<n>"); err != nil {
		return fmt.Errorf("invalid n: %w", err)
	}
	if params.K, err = opts.Int("<k>"); err != nil {
		return fmt.Errorf("invalid k: %w", err)
	}
	params.Runs = 1
	if raw := opts["<num>"]; raw != nil {
		if params.Runs, err = opts.Int("<num>"); err != nil {
			return fmt.Errorf("invalid num: %w", err)
		}
	}

	cfg := sim.DefaultConfig()
	if path, _ := opts.String("--config"); path != "" {
		if cfg, err = sim.LoadConfig(path); err != nil {
			return err
		}
	}
	if dir, _ := opts.String("--output"); dir != "" {
		cfg.OutputDir = dir
	}
	if s, _ := opts.String("--seed"); s != "" {
		if cfg.Seed, err = strconv.ParseInt(s, 10, 64); err != nil {
			return fmt.Errorf("invalid seed: %w", err)
		}
	}
	if s, _ := opts.String("--verbosity"); s != "" {
		if cfg.Verbosity, err = strconv.Atoi(s); err != nil {
			return fmt.Errorf("invalid verbosity: %w", err)
		}
	}

	handler := log.NewTerminalHandlerWithLevel(os.Stderr, log.FromLegacyLevel(cfg.Verbosity), false)
	log.SetDefault(log.NewLogger(handler))
	logger := log.New("sim", uuid.NewString())

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory '%s': %w", cfg.OutputDir, err)
	}

	return sim.Run(params, cfg, osfs.New(cfg.OutputDir), logger)
}
