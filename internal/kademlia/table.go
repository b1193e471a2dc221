package kademlia

import "sort"

// RoutingTable partitions the peers a node knows about into one bucket
// per identifier bit. A peer lands in the bucket addressed by the
// highest set bit of its XOR distance from the owner, so low buckets
// hold peers sharing a long identifier prefix with the owner and high
// buckets hold distant ones. The owner itself is never stored.
type RoutingTable struct {
	owner   *Node
	buckets []*Bucket
}

// NewRoutingTable creates the routing table owned by owner, with one
// bucket per bit of the owner's identifier.
func NewRoutingTable(owner *Node) (*RoutingTable, error) {
	rt := &RoutingTable{
		owner:   owner,
		buckets: make([]*Bucket, owner.ID().Bits()),
	}
	ping := func(peer *Node) error { return peer.Ping() }
	for i := range rt.buckets {
		b, err := NewBucket(owner.k, ping)
		if err != nil {
			return nil, err
		}
		rt.buckets[i] = b
	}
	return rt, nil
}

// Insert records peer in the bucket its distance selects. Inserting
// the owner is a no-op.
func (rt *RoutingTable) Insert(peer *Node) {
	i := rt.owner.ID().BucketIndex(peer.ID())
	if i < 0 {
		return
	}
	rt.buckets[i].Insert(peer)
}

// InsertAll inserts peers one by one, in order.
func (rt *RoutingTable) InsertAll(peers []*Node) {
	for _, peer := range peers {
		rt.Insert(peer)
	}
}

// KClosest returns up to k known peers ordered by ascending XOR
// distance to target.
//
// The walk exploits the bucket partition. The target's own bucket is
// the best candidate pool. Buckets below it hold peers that share a
// longer prefix with the owner than the target does, which implies
// nothing about their distance to the target, so they are pooled and
// sorted together. Buckets above it are monotonically farther from the
// target as the index grows, so they are consumed one by one in index
// order until the result is full.
func (rt *RoutingTable) KClosest(target ID) []*Node {
	k := rt.owner.k
	t := rt.owner.ID().BucketIndex(target)

	var result []*Node
	if t >= 0 {
		result = append(result, sortByDistance(rt.buckets[t].Snapshot(), target)...)
	}

	var nearer []*Node
	for i := 0; i < t; i++ {
		nearer = append(nearer, rt.buckets[i].Snapshot()...)
	}
	result = append(result, sortByDistance(nearer, target)...)

	for i := t + 1; i < len(rt.buckets) && len(result) < k; i++ {
		result = append(result, sortByDistance(rt.buckets[i].Snapshot(), target)...)
	}

	if len(result) > k {
		result = result[:k]
	}
	return result
}

// NumBuckets returns the number of buckets, one per identifier bit.
func (rt *RoutingTable) NumBuckets() int {
	return len(rt.buckets)
}

// BucketPeers returns the peers of bucket i from least to most
// recently seen.
func (rt *RoutingTable) BucketPeers(i int) []*Node {
	return rt.buckets[i].Snapshot()
}

// Peers returns every peer in the table, walking buckets in index
// order and each bucket from least to most recently seen.
func (rt *RoutingTable) Peers() []*Node {
	var peers []*Node
	for _, b := range rt.buckets {
		peers = append(peers, b.Snapshot()...)
	}
	return peers
}

// sortByDistance stably sorts peers in place by ascending XOR distance
// to target and returns the slice.
func sortByDistance(peers []*Node, target ID) []*Node {
	sort.SliceStable(peers, func(i, j int) bool {
		di := peers[i].ID().Distance(target)
		dj := peers[j].ID().Distance(target)
		return di.Cmp(&dj) < 0
	})
	return peers
}
