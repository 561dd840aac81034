package badgergraph

import (
	"context"
	"fmt"

	"github.com/vk/metagraph/internal/typesys"
	"github.com/vk/metagraph/plugins/nativegraph"
	"github.com/vk/metagraph/plugins/sqlitegraph"
)

func sqliteToBadger(ctx context.Context, src any, target typesys.TypeSpec) (any, error) {
	sg, ok := src.(*sqlitegraph.Graph)
	if !ok {
		return nil, fmt.Errorf("badgergraph: sqlite_to_badger: not a *sqlitegraph.Graph")
	}
	g, err := Open(InMemoryConfig(sg.Directed))
	if err != nil {
		return nil, err
	}
	nodes, err := sg.Nodes()
	if err != nil {
		return nil, err
	}
	for _, id := range nodes {
		neighbors, err := sg.Neighbors(id)
		if err != nil {
			return nil, err
		}
		for dst, w := range neighbors {
			if err := g.addRawEdge(id, dst, w); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

func badgerToNative(ctx context.Context, src any, target typesys.TypeSpec) (any, error) {
	g, ok := src.(*Graph)
	if !ok {
		return nil, fmt.Errorf("badgergraph: badger_to_native: not a *Graph")
	}
	edges, err := g.Edges()
	if err != nil {
		return nil, err
	}
	ng := nativegraph.NewGraph(g.Directed)
	for _, e := range edges {
		ng.AddDirectedEdge(int(e[0]), int(e[1]), e[2])
	}
	return ng, nil
}
