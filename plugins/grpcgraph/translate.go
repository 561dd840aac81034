package grpcgraph

import (
	"context"
	"fmt"

	"github.com/vk/metagraph/internal/typesys"
	"github.com/vk/metagraph/plugins/nativegraph"
)

func nativeToGRPC(cc clientConnProvider) func(context.Context, any, typesys.TypeSpec) (any, error) {
	return func(ctx context.Context, src any, target typesys.TypeSpec) (any, error) {
		ng, ok := src.(*nativegraph.Graph)
		if !ok {
			return nil, fmt.Errorf("grpcgraph: native_to_grpc: not a *nativegraph.Graph")
		}
		g, err := NewGraph(ctx, cc.ClientConn(), ng.Directed)
		if err != nil {
			return nil, err
		}
		for _, id := range ng.Nodes() {
			for dst, w := range ng.Neighbors(id) {
				if err := g.AddEdge(ctx, id, dst, w); err != nil {
					return nil, err
				}
			}
		}
		return g, nil
	}
}

func grpcToNative(ctx context.Context, src any, target typesys.TypeSpec) (any, error) {
	g, ok := src.(*Graph)
	if !ok {
		return nil, fmt.Errorf("grpcgraph: grpc_to_native: not a *Graph")
	}
	edges, err := g.FetchEdges(ctx)
	if err != nil {
		return nil, err
	}
	ng := nativegraph.NewGraph(g.Directed)
	for _, e := range edges {
		ng.AddDirectedEdge(int(e[0]), int(e[1]), e[2])
	}
	return ng, nil
}
