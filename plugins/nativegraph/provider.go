package nativegraph

import (
	"context"
	"fmt"

	"github.com/vk/metagraph/internal/registry"
	"github.com/vk/metagraph/internal/typesys"
)

// Provider registers nativegraph's AbstractTypes (Graph, NodeMap,
// NodeSet), its ConcreteTypes, and the core traversal/centrality/
// components AbstractAlgorithms every other plugin's concrete algorithms
// implement. As the reference hub, nativegraph is where these abstract
// algorithm names live; sqlitegraph, badgergraph, and grpcgraph
// contribute only ConcreteAlgorithmEntry values against them.
type Provider struct{}

// Entries implements registry.EntryProvider.
func (Provider) Entries(ctx context.Context) ([]registry.Entry, error) {
	graphProps := typesys.NewPropertySpec().
		Add("is_directed", []any{true, false}, false).
		Add("edge_dtype", []any{"int", "float"}, "float")
	nodeMapProps := typesys.NewPropertySpec().
		Add("value_dtype", []any{"int", "float", "string"}, "float")
	nodeSetProps := typesys.NewPropertySpec()

	entries := []registry.Entry{
		registry.AbstractTypeEntry{Name: "Graph", Properties: graphProps},
		registry.AbstractTypeEntry{Name: "NodeMap", Properties: nodeMapProps},
		registry.AbstractTypeEntry{Name: "NodeSet", Properties: nodeSetProps},

		registry.ConcreteTypeEntry{
			Name:         "NativeGraph",
			AbstractName: "Graph",
			Predicate: func(v any) bool {
				_, ok := v.(*Graph)
				return ok
			},
			Extractor: func(v any) (typesys.TypeInfo, error) {
				g, ok := v.(*Graph)
				if !ok {
					return typesys.TypeInfo{}, fmt.Errorf("nativegraph: not a *Graph")
				}
				return typesys.TypeInfo{
					AbstractProps: typesys.PropertyValues{"is_directed": g.Directed, "edge_dtype": "float"},
					ConcreteProps: typesys.PropertyValues{"impl": "native"},
				}, nil
			},
			ConcreteProps: typesys.NewPropertySpec().Add("impl", []any{"native"}, "native"),
			Equal: func(a, b any, opts ...typesys.EqualOption) error {
				ga, oka := a.(*Graph)
				gb, okb := b.(*Graph)
				if !oka || !okb || !ga.Equal(gb) {
					return fmt.Errorf("nativegraph: graphs are not structurally equal")
				}
				return nil
			},
			ConflictProbe: NewGraph(false),
		},

		registry.ConcreteTypeEntry{
			Name:         "NativeNodeMap",
			AbstractName: "NodeMap",
			Predicate: func(v any) bool {
				_, ok := v.(NodeMap)
				return ok
			},
			Extractor: func(v any) (typesys.TypeInfo, error) {
				return typesys.TypeInfo{
					AbstractProps: typesys.PropertyValues{"value_dtype": "float"},
					ConcreteProps: typesys.PropertyValues{"impl": "native"},
				}, nil
			},
			ConcreteProps: typesys.NewPropertySpec().Add("impl", []any{"native"}, "native"),
			Equal: func(a, b any, opts ...typesys.EqualOption) error {
				opt := typesys.ResolveEqualOptions(opts...)
				am, oka := a.(NodeMap)
				bm, okb := b.(NodeMap)
				if !oka || !okb || len(am) != len(bm) {
					return fmt.Errorf("nativegraph: node maps are not equal")
				}
				for k, v := range am {
					diff := v - bm[k]
					if diff < 0 {
						diff = -diff
					}
					if diff > opt.Tolerance {
						return fmt.Errorf("nativegraph: node map value differs at %d", k)
					}
				}
				return nil
			},
			ConflictProbe: NodeMap{},
		},

		registry.ConcreteTypeEntry{
			Name:         "NativeNodeSet",
			AbstractName: "NodeSet",
			Predicate: func(v any) bool {
				_, ok := v.(NodeSet)
				return ok
			},
			Extractor: func(v any) (typesys.TypeInfo, error) {
				return typesys.TypeInfo{AbstractProps: typesys.PropertyValues{}, ConcreteProps: typesys.PropertyValues{"impl": "native"}}, nil
			},
			ConcreteProps: typesys.NewPropertySpec().Add("impl", []any{"native"}, "native"),
			Equal: func(a, b any, opts ...typesys.EqualOption) error {
				as, oka := a.(NodeSet)
				bs, okb := b.(NodeSet)
				if !oka || !okb || len(as) != len(bs) {
					return fmt.Errorf("nativegraph: node sets are not equal")
				}
				for k := range as {
					if _, ok := bs[k]; !ok {
						return fmt.Errorf("nativegraph: node sets differ at %d", k)
					}
				}
				return nil
			},
			ConflictProbe: NodeSet{},
		},

		registry.AbstractAlgorithmEntry{
			Name: "traversal.bfs",
			Params: []registry.ParamSpec{
				{Name: "g", AbstractName: "Graph"},
				{Name: "start", AbstractName: ""},
			},
			ReturnAbstractName: "NodeMap",
		},
		registry.AbstractAlgorithmEntry{
			Name: "centrality.pagerank",
			Params: []registry.ParamSpec{
				{Name: "g", AbstractName: "Graph"},
			},
			ReturnAbstractName: "NodeMap",
		},
		registry.AbstractAlgorithmEntry{
			Name: "components.connected",
			Params: []registry.ParamSpec{
				{Name: "g", AbstractName: "Graph"},
			},
			ReturnAbstractName: "NodeMap",
		},
		registry.AbstractAlgorithmEntry{
			Name: "centrality.normalize",
			Params: []registry.ParamSpec{
				{Name: "m", AbstractName: "NodeMap"},
			},
			ReturnAbstractName: "NodeMap",
		},

		registry.ConcreteAlgorithmEntry{
			Name:                  "bfs_native",
			AbstractAlgorithmName: "traversal.bfs",
			ParamConcreteNames:    []string{"NativeGraph", ""},
			ReturnConcreteName:    "UUIDNodeMap",
			Fn:                    bfsFn,
		},
		registry.ConcreteAlgorithmEntry{
			Name:                  "pagerank_native",
			AbstractAlgorithmName: "centrality.pagerank",
			ParamConcreteNames:    []string{"NativeGraph"},
			ReturnConcreteName:    "NativeNodeMap",
			Fn:                    pagerankFn,
			CompilerTag:           "native_numeric",
		},
		registry.ConcreteAlgorithmEntry{
			Name:                  "connected_native",
			AbstractAlgorithmName: "components.connected",
			ParamConcreteNames:    []string{"NativeGraph"},
			ReturnConcreteName:    "NativeNodeMap",
			Fn:                    connectedFn,
		},
		registry.ConcreteAlgorithmEntry{
			Name:                  "normalize_native",
			AbstractAlgorithmName: "centrality.normalize",
			ParamConcreteNames:    []string{"NativeNodeMap"},
			ReturnConcreteName:    "NativeNodeMap",
			Fn:                    normalizeFn,
			CompilerTag:           "native_numeric",
		},
	}

	return entries, nil
}
