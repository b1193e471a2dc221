package sim

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/ethereum/go-ethereum/log"

	"github.com/deselmo/kademlia-simulator/internal/kademlia"
)

// maxJoinRetries bounds identifier collisions during the growth phase
// before the run is abandoned. Collisions are vanishingly rare for
// realistic widths; the bound exists so a tiny identifier space cannot
// spin forever.
const maxJoinRetries = 1_000_000

// progressEvery is the join interval between debug progress lines.
const progressEvery = 100

var ErrSpaceExhausted = errors.New("sim: identifier space exhausted while joining nodes")

// Coordinator grows a Kademlia network to n nodes, one join at a time,
// synthesizing bucket-refresh lookups for every newcomer so its
// routing table is warmed the way a real node self-refreshes after
// joining.
type Coordinator struct {
	m, n, k int
	rng     *rand.Rand
	network *Network
	logger  log.Logger
}

// NewCoordinator validates the simulation parameters and prepares an
// empty network driven by a PRNG seeded with seed. The identifier
// space must be able to hold all n nodes.
func NewCoordinator(m, n, k int, seed int64, logger log.Logger) (*Coordinator, error) {
	switch {
	case m < 1:
		return nil, fmt.Errorf("%w: identifier width m = %d, want at least 1", kademlia.ErrInvalidArgument, m)
	case m > kademlia.MaxBits:
		return nil, fmt.Errorf("%w: identifier width m = %d, want at most %d", kademlia.ErrInvalidArgument, m, kademlia.MaxBits)
	case n < 1:
		return nil, fmt.Errorf("%w: network size n = %d, want at least 1", kademlia.ErrInvalidArgument, n)
	case k < 1:
		return nil, fmt.Errorf("%w: bucket size k = %d, want at least 1", kademlia.ErrInvalidArgument, k)
	}
	if m < 63 && int64(n) > int64(1)<<uint(m) {
		return nil, fmt.Errorf("%w: identifier space 2^%d cannot hold %d nodes", kademlia.ErrInvalidArgument, m, n)
	}
	return &Coordinator{
		m:       m,
		n:       n,
		k:       k,
		rng:     rand.New(rand.NewSource(seed)),
		network: NewNetwork(),
		logger:  logger,
	}, nil
}

// Run builds the network from scratch and returns it. The first node
// joins without a bootstrap; every later node joins through a random
// already-joined peer and performs one warming lookup per refresh
// target. Nodes whose random identifier collides with a joined one are
// discarded and redrawn.
func (c *Coordinator) Run() (*Network, error) {
	c.network.Clear()

	first, err := c.newRandomNode()
	if err != nil {
		return nil, err
	}
	c.network.JoinAndRefresh(first, nil, c.rng)

	retries := 0
	for c.network.Size() < c.n {
		node, err := c.newRandomNode()
		if err != nil {
			return nil, err
		}
		targets, err := c.refreshTargets(node)
		if err != nil {
			return nil, err
		}
		joined, err := c.network.JoinAndRefresh(node, targets, c.rng)
		if err != nil {
			return nil, err
		}
		if !joined {
			retries++
			if retries > maxJoinRetries {
				return nil, fmt.Errorf("%w: %d identifier collisions", ErrSpaceExhausted, retries)
			}
			continue
		}
		if size := c.network.Size(); size%progressEvery == 0 {
			c.logger.Debug("nodes joined", "size", size, "of", c.n)
		}
	}

	findNode, ping := c.network.RPCStats()
	c.logger.Info("network constructed",
		"m", c.m, "n", c.n, "k", c.k,
		"findNodeRPCs", findNode, "pingRPCs", ping)
	return c.network, nil
}

func (c *Coordinator) newRandomNode() (*kademlia.Node, error) {
	id, err := kademlia.NewRandomID(c.m, c.rng)
	if err != nil {
		return nil, err
	}
	return kademlia.NewNode(id, c.k)
}

// refreshTargets synthesizes lookup targets for a joining node: for
// every bucket index it draws p = max(1, k/10) identifiers guaranteed
// to land in that bucket, so the lookups that follow tend to touch the
// whole table. Duplicates are dropped with the first occurrence
// winning, keeping the lookup order reproducible for a given seed.
func (c *Coordinator) refreshTargets(node *kademlia.Node) ([]kademlia.ID, error) {
	p := c.k / 10
	if p < 1 {
		p = 1
	}

	seen := make(map[kademlia.ID]struct{}, c.m*p)
	targets := make([]kademlia.ID, 0, c.m*p)
	for i := 0; i < c.m; i++ {
		for j := 0; j < p; j++ {
			target, err := node.ID().RandomInBucket(i, c.rng)
			if err != nil {
				return nil, err
			}
			if _, ok := seen[target]; ok {
				continue
			}
			seen[target] = struct{}{}
			targets = append(targets, target)
		}
	}
	return targets, nil
}
