package kademlia

import (
	"errors"

	"github.com/holiman/uint256"
)

var ErrIncomparableTargets = errors.New("kademlia: distance nodes refer to different targets")

// DistanceNode pairs a peer with a lookup target and carries the
// precomputed XOR distance between the two. It is immutable; identity
// is the (peer, target) pair and ordering is by distance.
type DistanceNode struct {
	Peer     *Node
	Target   ID
	Distance uint256.Int
}

// NewDistanceNode computes the distance entry for peer relative to
// target.
func NewDistanceNode(peer *Node, target ID) DistanceNode {
	return DistanceNode{
		Peer:     peer,
		Target:   target,
		Distance: peer.ID().Distance(target),
	}
}

// Compare orders two distance nodes by ascending distance, returning
// -1, 0 or 1. Both must refer to the same target; comparing across
// targets is a programming error reported as ErrIncomparableTargets.
func (d DistanceNode) Compare(other DistanceNode) (int, error) {
	if !d.Target.Equals(other.Target) {
		return 0, ErrIncomparableTargets
	}
	return d.Distance.Cmp(&other.Distance), nil
}

// Equals is over the (peer, target) pair.
func (d DistanceNode) Equals(other DistanceNode) bool {
	return d.Peer.ID().Equals(other.Peer.ID()) && d.Target.Equals(other.Target)
}
