package sqlitegraph

import (
	"context"
	"fmt"

	"github.com/vk/metagraph/internal/registry"
	"github.com/vk/metagraph/internal/typesys"
)

// Provider registers the SQLiteGraph ConcreteType against the Graph
// AbstractType declared by plugins/nativegraph, plus its translators
// to/from NativeGraph and its own bfs_sqlite concrete algorithm.
type Provider struct{}

// Entries implements registry.EntryProvider.
func (Provider) Entries(ctx context.Context) ([]registry.Entry, error) {
	return []registry.Entry{
		registry.ConcreteTypeEntry{
			Name:         "SQLiteGraph",
			AbstractName: "Graph",
			Predicate: func(v any) bool {
				_, ok := v.(*Graph)
				return ok
			},
			Extractor: func(v any) (typesys.TypeInfo, error) {
				g, ok := v.(*Graph)
				if !ok {
					return typesys.TypeInfo{}, fmt.Errorf("sqlitegraph: not a *Graph")
				}
				return typesys.TypeInfo{
					AbstractProps: typesys.PropertyValues{"is_directed": g.Directed, "edge_dtype": "float"},
					ConcreteProps: typesys.PropertyValues{"impl": "sqlite"},
				}, nil
			},
			ConcreteProps: typesys.NewPropertySpec().Add("impl", []any{"sqlite"}, "sqlite"),
			Equal: func(a, b any, opts ...typesys.EqualOption) error {
				ga, oka := a.(*Graph)
				gb, okb := b.(*Graph)
				if !oka || !okb {
					return fmt.Errorf("sqlitegraph: not comparable")
				}
				an, err := ga.Nodes()
				if err != nil {
					return err
				}
				bn, err := gb.Nodes()
				if err != nil {
					return err
				}
				if len(an) != len(bn) {
					return fmt.Errorf("sqlitegraph: node counts differ")
				}
				return nil
			},
			ConflictProbe: &Graph{},
		},

		registry.TranslatorEntry{
			Name:    "native_to_sqlite",
			SrcName: "NativeGraph",
			DstName: "SQLiteGraph",
			Cost:    1,
			Fn:      nativeToSQLite,
		},
		registry.TranslatorEntry{
			Name:     "sqlite_to_native",
			SrcName:  "SQLiteGraph",
			DstName:  "NativeGraph",
			Cost:     1,
			Fn:       sqliteToNative,
			Lossless: true,
		},

		registry.ConcreteAlgorithmEntry{
			Name:                  "bfs_sqlite",
			AbstractAlgorithmName: "traversal.bfs",
			ParamConcreteNames:    []string{"SQLiteGraph", ""},
			ReturnConcreteName:    "UUIDNodeMap",
			Fn:                    bfsFn,
		},
	}, nil
}
