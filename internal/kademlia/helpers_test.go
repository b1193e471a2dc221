package kademlia

import (
	"math/rand"
	"testing"
)

func newRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func mustParseID(t *testing.T, hexStr string, bits int) ID {
	t.Helper()
	id, err := ParseID(hexStr, bits)
	if err != nil {
		t.Fatalf("ParseID(%q, %d) failed: %v", hexStr, bits, err)
	}
	return id
}

func mustNode(t *testing.T, hexStr string, bits, k int) *Node {
	t.Helper()
	node, err := NewNode(mustParseID(t, hexStr, bits), k)
	if err != nil {
		t.Fatalf("NewNode(%q) failed: %v", hexStr, err)
	}
	return node
}

func sameIDs(peers []*Node, want []*Node) bool {
	if len(peers) != len(want) {
		return false
	}
	for i := range peers {
		if !peers[i].ID().Equals(want[i].ID()) {
			return false
		}
	}
	return true
}

func idStrings(peers []*Node) []string {
	out := make([]string, len(peers))
	for i, p := range peers {
		out[i] = p.ID().String()
	}
	return out
}
