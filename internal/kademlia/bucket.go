package kademlia

import (
	"container/list"
	"fmt"
)

// Pinger probes a peer for liveness. The bucket consults it before
// deciding whether its least recently seen entry may be evicted.
type Pinger func(*Node) error

// Bucket is a k-bucket: an ordered set of at most k distinct peers.
// The front of the list holds the least recently seen peer and the
// back the most recently seen, so insertion order encodes recency.
type Bucket struct {
	k     int
	order *list.List // of *Node, front = least recently seen
	index map[ID]*list.Element
	ping  Pinger
}

// NewBucket creates an empty bucket holding at most k peers.
func NewBucket(k int, ping Pinger) (*Bucket, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: bucket size %d, want at least 1", ErrInvalidArgument, k)
	}
	return &Bucket{
		k:     k,
		order: list.New(),
		index: make(map[ID]*list.Element),
		ping:  ping,
	}, nil
}

// Insert applies the Kademlia bucket policy: a known peer moves to the
// most recently seen position; a new peer is appended while there is
// room. When the bucket is full the least recently seen peer is
// pinged: if it still answers, the newcomer is discarded; if the ping
// times out, it is evicted and the newcomer appended in its place.
func (b *Bucket) Insert(peer *Node) {
	if elem, ok := b.index[peer.ID()]; ok {
		b.order.MoveToBack(elem)
		return
	}
	if b.order.Len() < b.k {
		b.index[peer.ID()] = b.order.PushBack(peer)
		return
	}

	head := b.order.Front()
	oldest := head.Value.(*Node)
	if err := b.ping(oldest); err == nil {
		return
	}
	b.order.Remove(head)
	delete(b.index, oldest.ID())
	b.index[peer.ID()] = b.order.PushBack(peer)
}

// Len returns the number of peers in the bucket.
func (b *Bucket) Len() int {
	return b.order.Len()
}

// Contains reports whether a peer with the same identifier is present.
func (b *Bucket) Contains(peer *Node) bool {
	_, ok := b.index[peer.ID()]
	return ok
}

// Snapshot returns a copy of the peers from least to most recently
// seen.
func (b *Bucket) Snapshot() []*Node {
	peers := make([]*Node, 0, b.order.Len())
	for e := b.order.Front(); e != nil; e = e.Next() {
		peers = append(peers, e.Value.(*Node))
	}
	return peers
}
