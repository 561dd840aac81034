package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/metagraph/internal/typesys"
)

type fixedProvider []Entry

func (p fixedProvider) Entries(ctx context.Context) ([]Entry, error) { return p, nil }

type widget struct{}

func basicAbstractAndConcrete() []Entry {
	return []Entry{
		AbstractTypeEntry{Name: "Widget"},
		ConcreteTypeEntry{
			Name: "BasicWidget", AbstractName: "Widget",
			Predicate:     func(v any) bool { _, ok := v.(widget); return ok },
			Extractor:     func(v any) (typesys.TypeInfo, error) { return typesys.TypeInfo{}, nil },
			ConflictProbe: widget{},
		},
	}
}

func TestFinalizeRejectsConcreteTypeWithUnknownAbstractName(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Ingest(context.Background(), fixedProvider{
		ConcreteTypeEntry{Name: "Orphan", AbstractName: "NoSuchAbstract"},
	}))
	err := reg.Finalize(context.Background())
	var regErr *RegistryError
	require.ErrorAs(t, err, &regErr)
	assert.Contains(t, regErr.Reason, "unknown abstract type")
}

func TestFinalizeRejectsTranslatorCrossingAbstractTypes(t *testing.T) {
	reg := NewRegistry()
	entries := basicAbstractAndConcrete()
	entries = append(entries,
		AbstractTypeEntry{Name: "Gadget"},
		ConcreteTypeEntry{
			Name: "BasicGadget", AbstractName: "Gadget",
			Predicate:     func(v any) bool { return false },
			Extractor:     func(v any) (typesys.TypeInfo, error) { return typesys.TypeInfo{}, nil },
			ConflictProbe: nil,
		},
		TranslatorEntry{Name: "cross", SrcName: "BasicWidget", DstName: "BasicGadget", Cost: 1},
	)
	require.NoError(t, reg.Ingest(context.Background(), fixedProvider(entries)))

	err := reg.Finalize(context.Background())
	var regErr *RegistryError
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, "translator crosses abstract types", regErr.Reason)
}

func TestFinalizeRejectsConcreteAlgorithmArityMismatch(t *testing.T) {
	reg := NewRegistry()
	entries := basicAbstractAndConcrete()
	entries = append(entries,
		AbstractAlgorithmEntry{Name: "widget.inspect", Params: []ParamSpec{{Name: "w", AbstractName: "Widget"}}},
		ConcreteAlgorithmEntry{
			Name: "inspect_basic", AbstractAlgorithmName: "widget.inspect",
			ParamConcreteNames: []string{"BasicWidget", "extra"},
		},
	)
	require.NoError(t, reg.Ingest(context.Background(), fixedProvider(entries)))

	err := reg.Finalize(context.Background())
	var regErr *RegistryError
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, "concrete algorithm arity mismatch", regErr.Reason)
}

func TestFinalizeRejectsUnrefinedTypedParameter(t *testing.T) {
	reg := NewRegistry()
	entries := basicAbstractAndConcrete()
	entries = append(entries,
		AbstractAlgorithmEntry{Name: "widget.inspect", Params: []ParamSpec{{Name: "w", AbstractName: "Widget"}}},
		ConcreteAlgorithmEntry{
			Name: "inspect_basic", AbstractAlgorithmName: "widget.inspect",
			ParamConcreteNames: []string{""}, // leaves a typed parameter unrefined
		},
	)
	require.NoError(t, reg.Ingest(context.Background(), fixedProvider(entries)))

	err := reg.Finalize(context.Background())
	var regErr *RegistryError
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, "concrete algorithm leaves a typed parameter unrefined", regErr.Reason)
}

func TestFinalizeRejectsAmbiguousConflictProbes(t *testing.T) {
	reg := NewRegistry()
	alwaysTrue := func(v any) bool { return true }
	entries := []Entry{
		AbstractTypeEntry{Name: "Widget"},
		ConcreteTypeEntry{
			Name: "First", AbstractName: "Widget", Predicate: alwaysTrue,
			Extractor:     func(v any) (typesys.TypeInfo, error) { return typesys.TypeInfo{}, nil },
			ConflictProbe: widget{},
		},
		ConcreteTypeEntry{
			Name: "Second", AbstractName: "Widget", Predicate: alwaysTrue,
			Extractor:     func(v any) (typesys.TypeInfo, error) { return typesys.TypeInfo{}, nil },
			ConflictProbe: widget{},
		},
	}
	require.NoError(t, reg.Ingest(context.Background(), fixedProvider(entries)))

	err := reg.Finalize(context.Background())
	require.Error(t, err)
}

func TestFinalizeBuildsTranslationMultigraphAndCandidateIndex(t *testing.T) {
	reg := NewRegistry()
	entries := basicAbstractAndConcrete()
	entries = append(entries,
		AbstractAlgorithmEntry{Name: "widget.inspect", Params: []ParamSpec{{Name: "w", AbstractName: "Widget"}}},
		ConcreteAlgorithmEntry{
			Name: "inspect_basic", AbstractAlgorithmName: "widget.inspect",
			ParamConcreteNames: []string{"BasicWidget"},
			Fn:                 func(ctx context.Context, args ...any) (any, error) { return true, nil },
		},
	)
	require.NoError(t, reg.Ingest(context.Background(), fixedProvider(entries)))
	require.NoError(t, reg.Finalize(context.Background()))

	cands := reg.CandidatesFor("widget.inspect")
	require.Len(t, cands, 1)
	assert.Equal(t, "inspect_basic", cands[0].Name)

	ct, err := reg.Types.ConcreteTypeByName("BasicWidget")
	require.NoError(t, err)
	assert.Empty(t, reg.EdgesFrom(ct))
}

func TestIngestAfterFinalizePanics(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Ingest(context.Background(), fixedProvider(basicAbstractAndConcrete())))
	require.NoError(t, reg.Finalize(context.Background()))
	assert.Panics(t, func() {
		_ = reg.Ingest(context.Background(), fixedProvider(nil))
	})
}

func TestFinalizeCalledTwicePanics(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Ingest(context.Background(), fixedProvider(basicAbstractAndConcrete())))
	require.NoError(t, reg.Finalize(context.Background()))
	assert.Panics(t, func() {
		_ = reg.Finalize(context.Background())
	})
}

func TestWrapperForRoundTrip(t *testing.T) {
	reg := NewRegistry()
	entries := basicAbstractAndConcrete()
	entries = append(entries, WrapperEntry{
		AbstractName: "Widget", Name: "from_raw",
		Fn: func(raw any) (any, error) { return widget{}, nil },
	})
	require.NoError(t, reg.Ingest(context.Background(), fixedProvider(entries)))
	require.NoError(t, reg.Finalize(context.Background()))

	w, err := reg.WrapperFor("Widget", "from_raw")
	require.NoError(t, err)
	v, err := w.Fn("anything")
	require.NoError(t, err)
	assert.Equal(t, widget{}, v)

	_, err = reg.WrapperFor("Widget", "no_such_wrapper")
	assert.Error(t, err)
}
