package sim

import (
	"fmt"

	"github.com/deselmo/kademlia-simulator/internal/gml"
	"github.com/deselmo/kademlia-simulator/internal/kademlia"
)

// Graph flattens the network into its GML form: one vertex per node,
// numbered in join order and annotated with the hex identifier, and
// one directed edge per routing-table entry. A node never references
// itself, so self-edges cannot occur.
func (net *Network) Graph() *gml.Graph {
	g := &gml.Graph{}
	index := make(map[kademlia.ID]int, len(net.nodes))

	for i, node := range net.nodes {
		index[node.ID()] = i
		g.Nodes = append(g.Nodes, gml.Node{ID: i, Comment: node.ID().Text(16)})
	}
	for i, node := range net.nodes {
		for _, peer := range node.Table().Peers() {
			g.Edges = append(g.Edges, gml.Edge{
				Source:  i,
				Target:  index[peer.ID()],
				Comment: fmt.Sprintf("%s -> %s", node.ID().Text(16), peer.ID().Text(16)),
			})
		}
	}
	return g
}
