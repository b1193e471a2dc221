package kademlia

import (
	"errors"
	"fmt"
	"sort"
	"testing"
)

func TestPingTimeout(t *testing.T) {
	n := mustNode(t, "01", 8, 2)

	if err := n.Ping(); err != nil {
		t.Fatalf("unexpected ping failure: %v", err)
	}

	n.unreachable = true
	if err := n.Ping(); !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
	if _, err := n.FindNode(mustParseID(t, "00", 8), nil); !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout from FindNode, got %v", err)
	}
	if n.PingCalls() != 2 {
		t.Errorf("expected 2 ping calls, got %d", n.PingCalls())
	}
}

func TestFindNodeLearnsTraversedPeers(t *testing.T) {
	callee := mustNode(t, "10", 8, 3)
	x := mustNode(t, "01", 8, 3)
	y := mustNode(t, "02", 8, 3)

	got, err := callee.FindNode(mustParseID(t, "1", 8), []*Node{x, y})
	if err != nil {
		t.Fatalf("FindNode failed: %v", err)
	}

	if !sameIDs(got, []*Node{x, y}) {
		t.Errorf("expected [1 2], got %v", idStrings(got))
	}
	if len(callee.Table().Peers()) != 2 {
		t.Errorf("callee did not learn the traversed peers")
	}
	if callee.FindNodeCalls() != 1 {
		t.Errorf("expected 1 FIND_NODE call, got %d", callee.FindNodeCalls())
	}
}

func TestQueryRoundAlphaBound(t *testing.T) {
	target := mustParseID(t, "00", 8)
	self := mustNode(t, "f0", 8, 20)
	bootstrap := mustNode(t, "01", 8, 20)

	q, err := NewKClosestQueue(bootstrap, target, 20, self)
	if err != nil {
		t.Fatalf("NewKClosestQueue failed: %v", err)
	}
	for i := 2; i <= 20; i++ {
		q.TryAdd(mustNode(t, fmt.Sprintf("%x", i), 8, 20), bootstrap)
	}
	if q.Len() != 20 {
		t.Fatalf("expected 20 queued peers, got %d", q.Len())
	}

	newQueried, _ := self.queryRound(q, make(map[ID]struct{}), target, false)
	if len(newQueried) != Alpha+1 {
		t.Errorf("expected %d peers queried in a bounded round, got %d", Alpha+1, len(newQueried))
	}

	newQueried, _ = self.queryRound(q, make(map[ID]struct{}), target, true)
	if len(newQueried) != 20 {
		t.Errorf("expected all 20 peers queried in the last pass, got %d", len(newQueried))
	}
}

func TestLookupMatchesOracleOnFullMesh(t *testing.T) {
	hexes := []string{"01", "0f", "13", "2a", "3c", "47", "55", "68", "7e", "91", "a3", "ff"}

	var nodes []*Node
	for _, hex := range hexes {
		nodes = append(nodes, mustNode(t, hex, 8, 4))
	}
	for _, n := range nodes {
		for _, peer := range nodes {
			n.Table().Insert(peer)
		}
	}

	target := mustParseID(t, "50", 8)

	oracle := make([]*Node, len(nodes))
	copy(oracle, nodes)
	sort.SliceStable(oracle, func(i, j int) bool {
		di := oracle[i].ID().Distance(target)
		dj := oracle[j].ID().Distance(target)
		return di.Cmp(&dj) < 0
	})
	oracle = oracle[:4]

	got, err := nodes[0].Lookup(nodes[1], target)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !sameIDs(got, oracle) {
		t.Errorf("expected %v, got %v", idStrings(oracle), idStrings(got))
	}
}

func TestLookupSkipsTimedOutPeer(t *testing.T) {
	target := mustParseID(t, "00", 8)
	origin := mustNode(t, "f0", 8, 4)
	bootstrap := mustNode(t, "80", 8, 4)
	silent := mustNode(t, "01", 8, 4)
	chatty := mustNode(t, "02", 8, 4)

	bootstrap.Table().Insert(silent)
	bootstrap.Table().Insert(chatty)
	silent.unreachable = true

	got, err := origin.Lookup(bootstrap, target)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}

	if len(got) == 0 {
		t.Fatalf("lookup returned nothing")
	}
	if silent.FindNodeCalls() != 1 {
		t.Errorf("expected the timed-out peer to be tried once, got %d", silent.FindNodeCalls())
	}
	if len(silent.Table().Peers()) != 0 {
		t.Errorf("timed-out peer learned traversed peers")
	}
}

func TestLookupResultSortedAndBounded(t *testing.T) {
	rng := newRNG(11)

	var nodes []*Node
	for i := 0; i < 30; i++ {
		id, err := NewRandomID(8, rng)
		if err != nil {
			t.Fatalf("NewRandomID failed: %v", err)
		}
		n, err := NewNode(id, 5)
		if err != nil {
			t.Fatalf("NewNode failed: %v", err)
		}
		nodes = append(nodes, n)
	}
	// Sparse connectivity: everyone knows a few successors.
	for i, n := range nodes {
		for j := 1; j <= 3; j++ {
			n.Table().Insert(nodes[(i+j)%len(nodes)])
		}
	}

	target, _ := NewRandomID(8, rng)
	got, err := nodes[0].Lookup(nodes[1], target)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}

	if len(got) == 0 || len(got) > 5 {
		t.Fatalf("expected between 1 and 5 peers, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		di := got[i-1].ID().Distance(target)
		dj := got[i].ID().Distance(target)
		if di.Cmp(&dj) > 0 {
			t.Fatalf("result not sorted by distance: %v", idStrings(got))
		}
	}
}
