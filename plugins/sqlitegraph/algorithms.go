package sqlitegraph

import (
	"context"
	"errors"

	"github.com/vk/metagraph/plugins/uuidnodemap"
)

var errWrongArgs = errors.New("sqlitegraph: unexpected argument shape")

// bfs performs a breadth-first traversal directly against the SQLite
// edges table, querying neighbors a layer at a time.
func bfs(g *Graph, start int) (uuidnodemap.NodeMap, error) {
	idx := uuidnodemap.NewIDIndex()
	dist := map[int]float64{start: 0}
	queue := []int{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		neighbors, err := g.Neighbors(cur)
		if err != nil {
			return nil, err
		}
		for next := range neighbors {
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
	return out, nil
}

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
	return bfs(g, start)
}
