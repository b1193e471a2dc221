package kademlia

import (
	"fmt"
	"sort"
)

// KClosestQueue is the bounded working set of one lookup: the k
// closest peers to a fixed target seen so far, sorted by ascending
// distance, plus the provenance of every peer it has ever admitted.
// provenance[p] is the ordered set of peers traversed on the discovery
// path that surfaced p; when p is later queried those peers are handed
// to it so the callee learns the route that reached it.
type KClosestQueue struct {
	target  ID
	k       int
	entries []DistanceNode // ascending by distance
	member  map[ID]struct{}

	// provenance rows are insertion-ordered and deduplicated so that
	// downstream routing-table insertions replay identically across
	// runs with the same seed.
	provenance map[ID][]*Node
}

// NewKClosestQueue seeds the queue with the bootstrap peer, crediting
// its discovery to the origin of the lookup.
func NewKClosestQueue(bootstrap *Node, target ID, k int, origin *Node) (*KClosestQueue, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: queue bound %d, want at least 1", ErrInvalidArgument, k)
	}
	q := &KClosestQueue{
		target:     target,
		k:          k,
		member:     make(map[ID]struct{}),
		provenance: make(map[ID][]*Node),
	}
	q.entries = append(q.entries, NewDistanceNode(bootstrap, target))
	q.member[bootstrap.ID()] = struct{}{}
	q.provenance[bootstrap.ID()] = []*Node{origin}
	return q, nil
}

// TryAdd admits peer unless one with the same identifier is already
// queued, recording that it was discovered through queriedPeer. When
// the queue overflows k the farthest entry is dropped, but its
// provenance row is kept: the dropped peer may still need crediting if
// it is queried through a closer path later on.
func (q *KClosestQueue) TryAdd(peer, queriedPeer *Node) bool {
	if _, ok := q.member[peer.ID()]; ok {
		return false
	}

	entry := NewDistanceNode(peer, q.target)
	i := sort.Search(len(q.entries), func(i int) bool {
		return q.entries[i].Distance.Cmp(&entry.Distance) > 0
	})
	q.entries = append(q.entries, DistanceNode{})
	copy(q.entries[i+1:], q.entries[i:])
	q.entries[i] = entry
	q.member[peer.ID()] = struct{}{}

	row := q.provenance[queriedPeer.ID()]
	merged := make([]*Node, len(row), len(row)+1)
	copy(merged, row)
	if !containsID(merged, queriedPeer.ID()) {
		merged = append(merged, queriedPeer)
	}
	q.provenance[peer.ID()] = merged

	for len(q.entries) > q.k {
		last := q.entries[len(q.entries)-1]
		q.entries = q.entries[:len(q.entries)-1]
		delete(q.member, last.Peer.ID())
	}
	return true
}

// Closest returns the nearest queued peer.
func (q *KClosestQueue) Closest() *Node {
	return q.entries[0].Peer
}

// Peers returns the queued peers in ascending distance order. The
// returned slice is a copy; mutating the queue afterwards does not
// affect it.
func (q *KClosestQueue) Peers() []*Node {
	peers := make([]*Node, len(q.entries))
	for i, e := range q.entries {
		peers[i] = e.Peer
	}
	return peers
}

// Len returns the number of queued peers.
func (q *KClosestQueue) Len() int {
	return len(q.entries)
}

// Provenance returns the peers credited with surfacing peer, in
// discovery order.
func (q *KClosestQueue) Provenance(peer *Node) []*Node {
	row := q.provenance[peer.ID()]
	out := make([]*Node, len(row))
	copy(out, row)
	return out
}

func containsID(peers []*Node, id ID) bool {
	for _, p := range peers {
		if p.ID().Equals(id) {
			return true
		}
	}
	return false
}
