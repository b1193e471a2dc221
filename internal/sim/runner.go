package sim

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/go-git/go-billy/v5"

	"github.com/deselmo/kademlia-simulator/internal/gml"
	"github.com/deselmo/kademlia-simulator/internal/kademlia"
)

// Params are the protocol-level inputs of a batch of runs.
type Params struct {
	M    int // identifier width in bits
	N    int // number of nodes
	K    int // bucket size
	Runs int // number of independent simulations
}

// Run executes params.Runs independent simulations and writes one GML
// file per run into the root of fs. Run i is seeded with
// cfg.Seed + i - 1, so runs differ from one another while a whole
// batch stays reproducible from its base seed.
func Run(params Params, cfg Config, fs billy.Filesystem, logger log.Logger) error {
	if params.Runs < 1 {
		return fmt.Errorf("%w: run count %d, want at least 1", kademlia.ErrInvalidArgument, params.Runs)
	}

	for i := 1; i <= params.Runs; i++ {
		seed := cfg.Seed + int64(i) - 1
		coordinator, err := NewCoordinator(params.M, params.N, params.K, seed, logger.New("run", i))
		if err != nil {
			return err
		}

		start := time.Now()
		network, err := coordinator.Run()
		if err != nil {
			return err
		}

		name := fmt.Sprintf("m%d_n%d_k%d__%d.gml", params.M, params.N, params.K, i)
		if err := writeGraph(fs, name, network.Graph()); err != nil {
			return err
		}

		logger.Info("simulation complete",
			"run", i, "seed", seed, "nodes", network.Size(),
			"elapsed", time.Since(start),
			"output", filepath.Join(cfg.OutputDir, name))
	}
	return nil
}

func writeGraph(fs billy.Filesystem, name string, g *gml.Graph) error {
	f, err := fs.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create output file '%s': %w", name, err)
	}
	if err := gml.Encode(f, g); err != nil {
		f.Close()
		return fmt.Errorf("failed to write '%s': %w", name, err)
	}
	return f.Close()
}
