package sqlitegraph

import (
	"context"
	"fmt"

	"github.com/vk/metagraph/internal/typesys"
	"github.com/vk/metagraph/plugins/nativegraph"
)

func nativeToSQLite(ctx context.Context, src any, target typesys.TypeSpec) (any, error) {
	ng, ok := src.(*nativegraph.Graph)
	if !ok {
		return nil, fmt.Errorf("sqlitegraph: native_to_sqlite: not a *nativegraph.Graph")
	}
	g, err := Open(ng.Directed, "")
	if err != nil {
		return nil, err
	}
	for _, id := range ng.Nodes() {
		if err := g.AddNode(id); err != nil {
			return nil, err
		}
		for dst, w := range ng.Neighbors(id) {
			if err := g.addRawEdge(id, dst, w); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

func sqliteToNative(ctx context.Context, src any, target typesys.TypeSpec) (any, error) {
	g, ok := src.(*Graph)
	if !ok {
		return nil, fmt.Errorf("sqlitegraph: sqlite_to_native: not a *sqlitegraph.Graph")
	}
	ng := nativegraph.NewGraph(g.Directed)
	nodes, err := g.Nodes()
	if err != nil {
		return nil, err
	}
	for _, id := range nodes {
		ng.AddNode(id)
		neighbors, err := g.Neighbors(id)
		if err != nil {
			return nil, err
		}
		for dst, w := range neighbors {
			ng.AddDirectedEdge(id, dst, w)
		}
	}
	return ng, nil
}
