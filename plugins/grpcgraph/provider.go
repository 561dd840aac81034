package grpcgraph

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"github.com/vk/metagraph/internal/registry"
	"github.com/vk/metagraph/internal/typesys"
	"github.com/vk/metagraph/plugins/nativegraph"
)

type clientConnProvider interface {
	ClientConn() *grpc.ClientConn
}

// Provider registers the GRPCGraph ConcreteType against the Graph
// AbstractType declared by plugins/nativegraph, its translators to/from
// NativeGraph, and a pagerank_grpc concrete algorithm that delegates the
// computation to the remote service.
type Provider struct {
	Conn *grpc.ClientConn
}

// ClientConn implements clientConnProvider.
func (p Provider) ClientConn() *grpc.ClientConn { return p.Conn }

// Entries implements registry.EntryProvider.
func (p Provider) Entries(ctx context.Context) ([]registry.Entry, error) {
	return []registry.Entry{
		registry.ConcreteTypeEntry{
			Name:         "GRPCGraph",
			AbstractName: "Graph",
			Predicate: func(v any) bool {
				_, ok := v.(*Graph)
				return ok
			},
			Extractor: func(v any) (typesys.TypeInfo, error) {
				g, ok := v.(*Graph)
				if !ok {
					return typesys.TypeInfo{}, fmt.Errorf("grpcgraph: not a *Graph")
				}
				return typesys.TypeInfo{
					AbstractProps: typesys.PropertyValues{"is_directed": g.Directed, "edge_dtype": "float"},
					ConcreteProps: typesys.PropertyValues{"impl": "grpc"},
				}, nil
			},
			ConcreteProps: typesys.NewPropertySpec().Add("impl", []any{"grpc"}, "grpc"),
			Equal: func(a, b any, opts ...typesys.EqualOption) error {
				ga, oka := a.(*Graph)
				gb, okb := b.(*Graph)
				if !oka || !okb {
					return fmt.Errorf("grpcgraph: not comparable")
				}
				if ga.Handle != gb.Handle {
					return fmt.Errorf("grpcgraph: different remote handles")
				}
				return nil
			},
			ConflictProbe: &Graph{},
		},

		registry.TranslatorEntry{
			Name:    "native_to_grpc",
			SrcName: "NativeGraph",
			DstName: "GRPCGraph",
			Cost:    2,
			Fn:      nativeToGRPC(p),
		},
		registry.TranslatorEntry{
			Name:    "grpc_to_native",
			SrcName: "GRPCGraph",
			DstName: "NativeGraph",
			Cost:    2,
			Fn:      grpcToNative,
		},

		registry.ConcreteAlgorithmEntry{
			Name:                  "pagerank_grpc",
			AbstractAlgorithmName: "centrality.pagerank",
			ParamConcreteNames:    []string{"GRPCGraph"},
			ReturnConcreteName:    "NativeNodeMap",
			Fn:                    p.pagerankFn,
		},
	}, nil
}

func (p Provider) pagerankFn(ctx context.Context, args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("grpcgraph: pagerank_grpc: unexpected argument shape")
	}
	g, ok := args[0].(*Graph)
	if !ok {
		return nil, fmt.Errorf("grpcgraph: pagerank_grpc: unexpected argument shape")
	}
	ranks, err := g.PageRank(ctx)
	if err != nil {
		return nil, err
	}
	out := make(nativegraph.NodeMap, len(ranks))
	for id, v := range ranks {
		out[id] = v
	}
	return out, nil
}
