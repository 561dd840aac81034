package nativegraph

import (
	"context"
	"errors"

	"github.com/vk/metagraph/plugins/uuidnodemap"
)

// bfs performs a breadth-first traversal from start, returning each
// reached node's distance (in hops) as a uuidnodemap.NodeMap — grounded
// on katalvlaran-lvlath/graph/bfs.go's queue-based layer-by-layer walk.
func bfs(g *Graph, start int) uuidnodemap.NodeMap {
	idx := uuidnodemap.NewIDIndex()
	dist := make(map[int]float64)
	dist[start] = 0
	queue := []int{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for next := range g.Neighbors(cur) {
			if _, seen := dist[next]; seen {
				continue
			}
			dist[next] = dist[cur] + 1
			queue = append(queue, next)
		}
	}
	out := make(uuidnodemap.NodeMap, len(dist))
	for node, d := range dist {
		out[idx.IDFor(node)] = d
	}
	return out
}

// pagerank is a fixed-iteration power-iteration PageRank, grounded on the
// same adjacency-list traversal shape lvlath's graph package uses for its
// own walks, adapted to an iterative numeric fixed point instead of a
// single pass.
func pagerank(g *Graph, damping float64, iterations int) NodeMap {
	nodes := g.Nodes()
	n := len(nodes)
	if n == 0 {
		return NodeMap{}
	}
	rank := make(map[int]float64, n)
	for _, id := range nodes {
		rank[id] = 1.0 / float64(n)
	}
	outDeg := make(map[int]int, n)
	for _, id := range nodes {
		outDeg[id] = len(g.Neighbors(id))
	}
	for iter := 0; iter < iterations; iter++ {
		next := make(map[int]float64, n)
		base := (1 - damping) / float64(n)
		for _, id := range nodes {
			next[id] = base
		}
		for _, id := range nodes {
			if outDeg[id] == 0 {
				continue
			}
			share := damping * rank[id] / float64(outDeg[id])
			for dst := range g.Neighbors(id) {
				next[dst] += share
			}
		}
		rank = next
	}
	out := make(NodeMap, n)
	for id, v := range rank {
		out[id] = v
	}
	return out
}

// connectedComponents labels each node with its connected-component id
// (the lowest node id in that component), grounded on
// katalvlaran-lvlath/graph/dfs.go's union-find-style component walk.
func connectedComponents(g *Graph) NodeMap {
	labels := make(map[int]int)
	for _, start := range g.Nodes() {
		if _, seen := labels[start]; seen {
			continue
		}
		stack := []int{start}
		labels[start] = start
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for next := range g.Neighbors(cur) {
				if _, seen := labels[next]; seen {
					continue
				}
				labels[next] = start
				stack = append(stack, next)
			}
		}
	}
	out := make(NodeMap, len(labels))
	for id, comp := range labels {
		out[id] = float64(comp)
	}
	return out
}

// normalize rescales m so its values sum to 1, leaving an empty map
// unchanged. Grounded on pagerank's own normalization step (PageRank scores
// are a probability distribution over nodes), pulled out as its own
// algorithm so a pagerank_native -> normalize_native placeholder chain
// gives internal/lazy.Optimize a real linear chain of same-tagged compute
// tasks to fuse.
func normalize(m NodeMap) NodeMap {
	var total float64
	for _, v := range m {
		total += v
	}
	out := make(NodeMap, len(m))
	if total == 0 {
		for k, v := range m {
			out[k] = v
		}
		return out
	}
	for k, v := range m {
		out[k] = v / total
	}
	return out
}

var errWrongArgs = errors.New("nativegraph: unexpected argument shape")

func bfsFn(ctx context.Context, args ...any) (any, error) {
	if len(args) != 2 {
		return nil, errWrongArgs
	}
	g, ok := args[0].(*Graph)
	if !ok {
		return nil, errWrongArgs
	}
	start, ok := args[1].(int)
	if !ok {
		return nil, errWrongArgs
	}
	return bfs(g, start), nil
}

func pagerankFn(ctx context.Context, args ...any) (any, error) {
	if len(args) != 1 {
		return nil, errWrongArgs
	}
	g, ok := args[0].(*Graph)
	if !ok {
		return nil, errWrongArgs
	}
	return pagerank(g, 0.85, 20), nil
}

func connectedFn(ctx context.Context, args ...any) (any, error) {
	if len(args) != 1 {
		return nil, errWrongArgs
	}
	g, ok := args[0].(*Graph)
	if !ok {
		return nil, errWrongArgs
	}
	return connectedComponents(g), nil
}

func normalizeFn(ctx context.Context, args ...any) (any, error) {
	if len(args) != 1 {
		return nil, errWrongArgs
	}
	m, ok := args[0].(NodeMap)
	if !ok {
		return nil, errWrongArgs
	}
	return normalize(m), nil
}
