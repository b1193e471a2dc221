package kademlia

import (
	"errors"
	"fmt"
)

// Alpha bounds how many peers a lookup queries per round. It stands in
// for the protocol's limit on concurrent in-flight RPCs, which this
// sequential simulation models as a per-round cap.
const Alpha = 5

var ErrTimeout = errors.New("kademlia: rpc timed out")

// Node is one simulated Kademlia participant: an identifier and the
// routing table built around it. RPCs between nodes are plain method
// calls; the Timeout outcome of the real protocol is preserved as an
// error return so bucket eviction and lookup skipping stay observable.
type Node struct {
	id    ID
	k     int
	table *RoutingTable

	// unreachable makes both RPCs time out. The simulator never sets
	// it; tests do, to reach the eviction and skip paths.
	unreachable bool

	findNodeCalls int
	pingCalls     int
}

// NewNode creates a node with the given identifier and bucket size k.
func NewNode(id ID, k int) (*Node, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: bucket size %d, want at least 1", ErrInvalidArgument, k)
	}
	n := &Node{id: id, k: k}
	table, err := NewRoutingTable(n)
	if err != nil {
		return nil, err
	}
	n.table = table
	return n, nil
}

// ID returns the node's identifier.
func (n *Node) ID() ID {
	return n.id
}

// K returns the node's bucket size.
func (n *Node) K() int {
	return n.k
}

// Table returns the node's routing table.
func (n *Node) Table() *RoutingTable {
	return n.table
}

// Ping answers a liveness probe. An unreachable peer times out.
func (n *Node) Ping() error {
	n.pingCalls++
	if n.unreachable {
		return ErrTimeout
	}
	return nil
}

// FindNode answers a FIND_NODE RPC. The callee first learns every peer
// on the path that reached it, then answers with the k closest peers
// it knows to target.
func (n *Node) FindNode(target ID, traversed []*Node) ([]*Node, error) {
	n.findNodeCalls++
	if n.unreachable {
		return nil, ErrTimeout
	}
	n.table.InsertAll(traversed)
	return n.table.KClosest(target), nil
}

// FindNodeCalls reports how many FIND_NODE RPCs this node has
// received.
func (n *Node) FindNodeCalls() int {
	return n.findNodeCalls
}

// PingCalls reports how many PING RPCs this node has received.
func (n *Node) PingCalls() int {
	return n.pingCalls
}

// Lookup runs the iterative FIND_NODE procedure from bootstrap toward
// target and returns up to k peers, closest first. Every peer returned
// by a queried peer is folded into the node's own routing table along
// the way, which is how a joining node builds its view of the network.
//
// Rounds proceed until the closest queued peer stops improving; one
// final pass then queries everything still unqueried without growing
// the queue, which is what guarantees termination.
func (n *Node) Lookup(bootstrap *Node, target ID) ([]*Node, error) {
	queue, err := NewKClosestQueue(bootstrap, target, n.k, n)
	if err != nil {
		return nil, err
	}

	queried := make(map[ID]struct{})
	inserted := make(map[ID]struct{})
	lastPass := false

	for {
		closestBefore := queue.Closest()

		newQueried, found := n.queryRound(queue, queried, target, lastPass)

		for _, queriedPeer := range newQueried {
			for _, foundPeer := range found[queriedPeer.ID()] {
				if _, ok := inserted[foundPeer.ID()]; ok {
					continue
				}
				n.table.Insert(foundPeer)
				if !lastPass {
					queue.TryAdd(foundPeer, queriedPeer)
				}
				inserted[foundPeer.ID()] = struct{}{}
			}
		}

		if lastPass {
			return queue.Peers(), nil
		}
		if queue.Closest().ID().Equals(closestBefore.ID()) {
			lastPass = true
		}
	}
}

// queryRound queries the not-yet-queried peers of the queue in
// ascending distance order and collects their answers. Unless this is
// the last pass, the round stops once more than Alpha peers have
// answered. Peers whose RPC times out stay marked as queried but
// contribute nothing.
func (n *Node) queryRound(queue *KClosestQueue, queried map[ID]struct{}, target ID, lastPass bool) ([]*Node, map[ID][]*Node) {
	var newQueried []*Node
	found := make(map[ID][]*Node)

	for _, peer := range queue.Peers() {
		if _, ok := queried[peer.ID()]; ok {
			continue
		}
		queried[peer.ID()] = struct{}{}

		peers, ok := tryFindNode(peer, target, queue.Provenance(peer))
		if !ok {
			continue
		}
		found[peer.ID()] = peers
		newQueried = append(newQueried, peer)

		if !lastPass && len(newQueried) > Alpha {
			break
		}
	}
	return newQueried, found
}

// tryFindNode converts the Timeout outcome of FindNode into a boolean;
// no other failure mode exists on the RPC surface.
func tryFindNode(peer *Node, target ID, traversed []*Node) ([]*Node, bool) {
	peers, err := peer.FindNode(target, traversed)
	if err != nil {
		return nil, false
	}
	return peers, true
}
