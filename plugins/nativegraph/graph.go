// Package nativegraph is the in-memory reference Graph backend every
// other plugin translates to and from. It carries no third-party
// dependency, deliberately mirroring katalvlaran-lvlath's zero-dependency
// adjacency-list posture — this plugin is the hub of the translation
// multigraph other plugins attach to.
package nativegraph

import "sort"

// Graph is a directed or undirected weighted adjacency-list graph.
type Graph struct {
	Directed bool
	adj      map[int]map[int]float64
}

// NewGraph returns an empty Graph.
func NewGraph(directed bool) *Graph {
	return &Graph{Directed: directed, adj: make(map[int]map[int]float64)}
}

// AddNode ensures id is present even if it has no edges yet.
func (g *Graph) AddNode(id int) {
	if _, ok := g.adj[id]; !ok {
		g.adj[id] = make(map[int]float64)
	}
}

// AddEdge adds a weighted edge src->dst, and the reverse edge too when the
// graph is undirected.
func (g *Graph) AddEdge(src, dst int, weight float64) {
	g.AddNode(src)
	g.AddNode(dst)
	g.adj[src][dst] = weight
	if !g.Directed {
		g.adj[dst][src] = weight
	}
}

// AddDirectedEdge adds exactly one src->dst edge without mirroring the
// reverse direction, used by translators copying from a source that
// already stores both directions of an undirected graph explicitly.
func (g *Graph) AddDirectedEdge(src, dst int, weight float64) {
	g.AddNode(src)
	g.AddNode(dst)
	g.adj[src][dst] = weight
}

// Nodes returns every node id in ascending order.
func (g *Graph) Nodes() []int {
	out := make([]int, 0, len(g.adj))
	for id := range g.adj {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// Neighbors returns node id's outgoing edges, keyed by destination.
func (g *Graph) Neighbors(id int) map[int]float64 {
	return g.adj[id]
}

// NodeCount reports the number of nodes.
func (g *Graph) NodeCount() int { return len(g.adj) }

// EdgeCount reports the number of directed edges stored (an undirected
// graph's mutual pair counts as two).
func (g *Graph) EdgeCount() int {
	n := 0
	for _, edges := range g.adj {
		n += len(edges)
	}
	return n
}

// Equal reports strict structural equality: same directedness, same
// nodes, same edge weights.
func (g *Graph) Equal(other *Graph) bool {
	if other == nil || g.Directed != other.Directed || len(g.adj) != len(other.adj) {
		return false
	}
	for id, edges := range g.adj {
		oe, ok := other.adj[id]
		if !ok || len(oe) != len(edges) {
			return false
		}
		for dst, w := range edges {
			if ow, ok := oe[dst]; !ok || ow != w {
				return false
			}
		}
	}
	return true
}

// NodeMap is a per-node float64 value map, the native ConcreteType for
// the NodeMap AbstractType.
type NodeMap map[int]float64

// NodeSet is a set of node ids, the native ConcreteType for the NodeSet
// AbstractType.
type NodeSet map[int]struct{}
