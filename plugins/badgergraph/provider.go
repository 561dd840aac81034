package badgergraph

import (
	"context"
	"fmt"

	"github.com/vk/metagraph/internal/registry"
	"github.com/vk/metagraph/internal/typesys"
)

// Provider registers the BadgerGraph ConcreteType against the Graph
// AbstractType declared by plugins/nativegraph, plus its translators
// to/from SQLiteGraph and NativeGraph.
type Provider struct{}

// Entries implements registry.EntryProvider.
func (Provider) Entries(ctx context.Context) ([]registry.Entry, error) {
	return []registry.Entry{
		registry.ConcreteTypeEntry{
			Name:         "BadgerGraph",
			AbstractName: "Graph",
			Predicate: func(v any) bool {
				_, ok := v.(*Graph)
				return ok
			},
			Extractor: func(v any) (typesys.TypeInfo, error) {
				g, ok := v.(*Graph)
				if !ok {
					return typesys.TypeInfo{}, fmt.Errorf("badgergraph: not a *Graph")
				}
				return typesys.TypeInfo{
					AbstractProps: typesys.PropertyValues{"is_directed": g.Directed, "edge_dtype": "float"},
					ConcreteProps: typesys.PropertyValues{"impl": "badger"},
				}, nil
			},
			ConcreteProps: typesys.NewPropertySpec().Add("impl", []any{"badger"}, "badger"),
			Equal: func(a, b any, opts ...typesys.EqualOption) error {
				ga, oka := a.(*Graph)
				gb, okb := b.(*Graph)
				if !oka || !okb {
					return fmt.Errorf("badgergraph: not comparable")
				}
				ea, err := ga.Edges()
				if err != nil {
					return err
				}
				eb, err := gb.Edges()
				if err != nil {
					return err
				}
				if len(ea) != len(eb) {
					return fmt.Errorf("badgergraph: edge counts differ")
				}
				return nil
			},
			ConflictProbe: &Graph{},
		},

		registry.TranslatorEntry{
			Name:    "sqlite_to_badger",
			SrcName: "SQLiteGraph",
			DstName: "BadgerGraph",
			Cost:    1,
			Fn:      sqliteToBadger,
		},
		registry.TranslatorEntry{
			Name:     "badger_to_native",
			SrcName:  "BadgerGraph",
			DstName:  "NativeGraph",
			Cost:     1,
			Fn:       badgerToNative,
			Lossless: true,
		},
	}, nil
}
