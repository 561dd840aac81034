package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/metagraph/internal/lazy"
	"github.com/vk/metagraph/internal/registry"
	"github.com/vk/metagraph/internal/resolverconfig"
	"github.com/vk/metagraph/internal/typesys"
)

type sampleGraph struct{ edges int }
type otherGraph struct{ edges int }

type fixedProvider []registry.Entry

func (p fixedProvider) Entries(ctx context.Context) ([]registry.Entry, error) { return p, nil }

func buildSampleRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.NewRegistry()
	entries := []registry.Entry{
		registry.AbstractTypeEntry{Name: "Graph"},
		registry.ConcreteTypeEntry{
			Name: "Sample", AbstractName: "Graph",
			Predicate:     func(v any) bool { _, ok := v.(sampleGraph); return ok },
			Extractor:     func(v any) (typesys.TypeInfo, error) { return typesys.TypeInfo{}, nil },
			ConflictProbe: sampleGraph{},
		},
		registry.ConcreteTypeEntry{
			Name: "Other", AbstractName: "Graph",
			Predicate:     func(v any) bool { _, ok := v.(otherGraph); return ok },
			Extractor:     func(v any) (typesys.TypeInfo, error) { return typesys.TypeInfo{}, nil },
			ConflictProbe: otherGraph{},
		},
		registry.TranslatorEntry{
			Name: "other_to_sample", SrcName: "Other", DstName: "Sample", Cost: 1,
			Fn: func(ctx context.Context, src any, target typesys.TypeSpec) (any, error) {
				return sampleGraph{edges: src.(otherGraph).edges}, nil
			},
		},
		registry.AbstractAlgorithmEntry{
			Name:               "graph.edge_count",
			Params:             []registry.ParamSpec{{Name: "g", AbstractName: "Graph"}},
			ReturnAbstractName: "",
		},
		registry.ConcreteAlgorithmEntry{
			Name: "edge_count_sample", AbstractAlgorithmName: "graph.edge_count",
			ParamConcreteNames: []string{"Sample"},
			Fn: func(ctx context.Context, args ...any) (any, error) {
				return args[0].(sampleGraph).edges, nil
			},
		},
		registry.WrapperEntry{
			AbstractName: "Graph", Name: "from_int",
			Fn: func(raw any) (any, error) { return sampleGraph{edges: raw.(int)}, nil },
		},
	}
	require.NoError(t, reg.Ingest(context.Background(), fixedProvider(entries)))
	require.NoError(t, reg.Finalize(context.Background()))
	return reg
}

func TestEagerAlgoHandleCallReturnsMaterializedValue(t *testing.T) {
	reg := buildSampleRegistry(t)
	r := New(reg, resolverconfig.New())

	v, err := r.Algos("graph", "edge_count").Call(context.Background(), sampleGraph{edges: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestEagerAlgoHandleTranslatesArgumentFirst(t *testing.T) {
	reg := buildSampleRegistry(t)
	r := New(reg, resolverconfig.New())

	v, err := r.Algos("graph", "edge_count").Call(context.Background(), otherGraph{edges: 9})
	require.NoError(t, err)
	assert.Equal(t, 9, v)
}

func TestPlanHandleDoesNotExecute(t *testing.T) {
	reg := buildSampleRegistry(t)
	r := New(reg, resolverconfig.New())

	p, err := r.Plan("graph", "edge_count").Call(context.Background(), sampleGraph{edges: 3})
	require.NoError(t, err)
	assert.Equal(t, "edge_count_sample", p.ConcreteAlgorithm.Name)
}

func TestLazyAlgoHandleReturnsPlaceholder(t *testing.T) {
	reg := buildSampleRegistry(t)
	r := New(reg, resolverconfig.New(resolverconfig.WithLazy(true)))

	v, err := r.Algos("graph", "edge_count").Call(context.Background(), sampleGraph{edges: 3})
	require.NoError(t, err)
	ph, ok := v.(*lazy.Placeholder)
	require.True(t, ok, "lazy mode must return a *lazy.Placeholder, got %T", v)

	results, err := r.ComputeAll(context.Background(), ph)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 3, results[0])
}

func TestWrappersLooksUpNamedConstructor(t *testing.T) {
	reg := buildSampleRegistry(t)
	r := New(reg, resolverconfig.New())

	fn, err := r.Wrappers("Graph", "from_int")
	require.NoError(t, err)
	v, err := fn(7)
	require.NoError(t, err)
	assert.Equal(t, sampleGraph{edges: 7}, v)
}

func TestTranslateMaterializesValue(t *testing.T) {
	reg := buildSampleRegistry(t)
	r := New(reg, resolverconfig.New())

	sampleType, err := reg.Types.ConcreteTypeByName("Sample")
	require.NoError(t, err)

	v, err := r.Translate(context.Background(), otherGraph{edges: 4}, typesys.NewTypeSpec(sampleType, nil))
	require.NoError(t, err)
	assert.Equal(t, sampleGraph{edges: 4}, v)
}
