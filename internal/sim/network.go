// Package sim drives the construction of a synthetic Kademlia overlay:
// a registry of joined nodes, a coordinator that grows the network one
// join at a time and a runner that turns finished networks into GML
// files.
package sim

import (
	"math/rand"

	"github.com/deselmo/kademlia-simulator/internal/kademlia"
)

// Network is the registry of joined nodes. It keeps an ordered slice
// for uniform random selection and an identifier-keyed map for
// membership; the two views always hold the same set.
type Network struct {
	nodes []*kademlia.Node
	byID  map[kademlia.ID]*kademlia.Node
}

// NewNetwork creates an empty network.
func NewNetwork() *Network {
	return &Network{byID: make(map[kademlia.ID]*kademlia.Node)}
}

// Join registers node. It reports false if a node with the same
// identifier has already joined.
func (net *Network) Join(node *kademlia.Node) bool {
	if _, ok := net.byID[node.ID()]; ok {
		return false
	}
	net.nodes = append(net.nodes, node)
	net.byID[node.ID()] = node
	return true
}

// JoinAndRefresh registers node and then drives one lookup per refresh
// target through a bootstrap peer chosen uniformly among the nodes
// already joined. The bootstrap is picked before registration so it is
// never the joining node itself; registration happens before the
// lookups. Peers contacted during the lookups learn the newcomer from
// the traversed peers it hands them. The very first node of a network
// has no bootstrap and its lookups are skipped.
func (net *Network) JoinAndRefresh(node *kademlia.Node, targets []kademlia.ID, rng *rand.Rand) (bool, error) {
	if _, ok := net.byID[node.ID()]; ok {
		return false, nil
	}
	bootstrap := net.RandomPeer(rng)
	net.Join(node)
	if bootstrap == nil {
		return true, nil
	}
	for _, target := range targets {
		if _, err := node.Lookup(bootstrap, target); err != nil {
			return true, err
		}
	}
	return true, nil
}

// RandomPeer returns a joined node chosen uniformly, or nil for an
// empty network.
func (net *Network) RandomPeer(rng *rand.Rand) *kademlia.Node {
	if len(net.nodes) == 0 {
		return nil
	}
	return net.nodes[rng.Intn(len(net.nodes))]
}

// Size returns the number of joined nodes.
func (net *Network) Size() int {
	return len(net.nodes)
}

// Contains reports whether a node with the same identifier has joined.
func (net *Network) Contains(node *kademlia.Node) bool {
	_, ok := net.byID[node.ID()]
	return ok
}

// Nodes returns a copy of the joined nodes in join order.
func (net *Network) Nodes() []*kademlia.Node {
	out := make([]*kademlia.Node, len(net.nodes))
	copy(out, net.nodes)
	return out
}

// RPCStats sums the simulated RPCs answered across the network.
func (net *Network) RPCStats() (findNode, ping int) {
	for _, n := range net.nodes {
		findNode += n.FindNodeCalls()
		ping += n.PingCalls()
	}
	return findNode, ping
}

// Clear empties both views.
func (net *Network) Clear() {
	net.nodes = nil
	net.byID = make(map[kademlia.ID]*kademlia.Node)
}
