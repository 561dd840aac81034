package planner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/metagraph/internal/registry"
	"github.com/vk/metagraph/internal/typesys"
)

// fixtureEntries is a registry.EntryProvider declaring three sibling
// concrete types of one AbstractType (A, B, C) wired A->B (cost 1), B->C
// (cost 1), and a direct but pricier A->C (cost 5) hop, letting tests
// assert the planner prefers the cheaper multi-hop path, plus tie-break
// ordering among equal-cost alternatives.
type fixtureEntries struct{}

type shapeA struct{}
type shapeB struct{}
type shapeC struct{}

func (fixtureEntries) Entries(ctx context.Context) ([]registry.Entry, error) {
	return []registry.Entry{
		registry.AbstractTypeEntry{Name: "Thing"},
		registry.ConcreteTypeEntry{
			Name: "A", AbstractName: "Thing",
			Predicate: func(v any) bool { _, ok := v.(shapeA); return ok },
			Extractor: func(v any) (typesys.TypeInfo, error) { return typesys.TypeInfo{}, nil },
			ConflictProbe: shapeA{},
		},
		registry.ConcreteTypeEntry{
			Name: "B", AbstractName: "Thing",
			Predicate: func(v any) bool { _, ok := v.(shapeB); return ok },
			Extractor: func(v any) (typesys.TypeInfo, error) { return typesys.TypeInfo{}, nil },
			ConflictProbe: shapeB{},
		},
		registry.ConcreteTypeEntry{
			Name: "C", AbstractName: "Thing",
			Predicate: func(v any) bool { _, ok := v.(shapeC); return ok },
			Extractor: func(v any) (typesys.TypeInfo, error) { return typesys.TypeInfo{}, nil },
			ConflictProbe: shapeC{},
		},
		registry.TranslatorEntry{Name: "a_to_b", SrcName: "A", DstName: "B", Cost: 1, Fn: noopTranslate},
		registry.TranslatorEntry{Name: "b_to_c", SrcName: "B", DstName: "C", Cost: 1, Fn: noopTranslate},
		registry.TranslatorEntry{Name: "a_to_c_direct", SrcName: "A", DstName: "C", Cost: 5, Fn: noopTranslate},
	}, nil
}

func noopTranslate(ctx context.Context, src any, target typesys.TypeSpec) (any, error) {
	return src, nil
}

func buildFixtureRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.NewRegistry()
	require.NoError(t, reg.Ingest(context.Background(), fixtureEntries{}))
	require.NoError(t, reg.Finalize(context.Background()))
	return reg
}

func concreteType(t *testing.T, reg *registry.Registry, name string) *typesys.ConcreteType {
	t.Helper()
	ct, err := reg.Types.ConcreteTypeByName(name)
	require.NoError(t, err)
	return ct
}

func TestPlanTranslationZeroHop(t *testing.T) {
	reg := buildFixtureRegistry(t)
	a := concreteType(t, reg, "A")

	chain, err := PlanTranslation(context.Background(), reg, a, typesys.NewTypeSpec(a, nil), nil)
	require.NoError(t, err)
	assert.True(t, chain.Empty())
	assert.Equal(t, 0.0, chain.TotalCost)
}

func TestPlanTranslationPrefersCheaperMultiHop(t *testing.T) {
	reg := buildFixtureRegistry(t)
	a := concreteType(t, reg, "A")
	c := concreteType(t, reg, "C")

	chain, err := PlanTranslation(context.Background(), reg, a, typesys.NewTypeSpec(c, nil), nil)
	require.NoError(t, err)
	require.Len(t, chain.Hops, 2)
	assert.Equal(t, "a_to_b", chain.Hops[0].Name)
	assert.Equal(t, "b_to_c", chain.Hops[1].Name)
	assert.Equal(t, 2.0, chain.TotalCost)
}

func TestPlanTranslationNoPath(t *testing.T) {
	reg := registry.NewRegistry()
	require.NoError(t, reg.Ingest(context.Background(), fixtureEntries{}))
	require.NoError(t, reg.Finalize(context.Background()))
	a := concreteType(t, reg, "A")
	b := concreteType(t, reg, "B")

	// B has no outgoing edge back to A, so requesting A from a B source
	// must fail with NoTranslationPathError.
	_, err := PlanTranslation(context.Background(), reg, b, typesys.NewTypeSpec(a, nil), nil)
	var noPath *NoTranslationPathError
	require.ErrorAs(t, err, &noPath)
	assert.Equal(t, "B", noPath.Source)
	assert.Equal(t, "A", noPath.Target)
}

func TestPlanTranslationPropertyConstraintRejectsDestination(t *testing.T) {
	reg := buildFixtureRegistry(t)
	a := concreteType(t, reg, "A")
	c := concreteType(t, reg, "C")

	spec := typesys.NewTypeSpec(c, typesys.PropertyConstraints{"never_present": true})
	_, err := PlanTranslation(context.Background(), reg, a, spec, nil)
	assert.Error(t, err)
}

// taggedEntries declares a second fixture where the cheapest path to the
// target ConcreteType does NOT satisfy a property constraint, but a
// costlier multi-hop path does, because only one of its Translators'
// PropagateProps sets the constrained property. x_to_y_direct (cost 1)
// reaches Y first during the search but leaves "ready" unset; x_to_w
// (cost 1) then w_to_y_tagged (cost 1) reaches Y at cost 2 with
// "ready": true. PlanTranslation must keep searching past the first,
// non-satisfying pop of Y instead of treating Y as permanently resolved.
type taggedEntries struct{}

type shapeX struct{}
type shapeY struct{}
type shapeW struct{}

func (taggedEntries) Entries(ctx context.Context) ([]registry.Entry, error) {
	return []registry.Entry{
		registry.AbstractTypeEntry{Name: "Tagged"},
		registry.ConcreteTypeEntry{
			Name: "X", AbstractName: "Tagged",
			Predicate:     func(v any) bool { _, ok := v.(shapeX); return ok },
			Extractor:     func(v any) (typesys.TypeInfo, error) { return typesys.TypeInfo{}, nil },
			ConflictProbe: shapeX{},
		},
		registry.ConcreteTypeEntry{
			Name: "Y", AbstractName: "Tagged",
			Predicate:     func(v any) bool { _, ok := v.(shapeY); return ok },
			Extractor:     func(v any) (typesys.TypeInfo, error) { return typesys.TypeInfo{}, nil },
			ConflictProbe: shapeY{},
		},
		registry.ConcreteTypeEntry{
			Name: "W", AbstractName: "Tagged",
			Predicate:     func(v any) bool { _, ok := v.(shapeW); return ok },
			Extractor:     func(v any) (typesys.TypeInfo, error) { return typesys.TypeInfo{}, nil },
			ConflictProbe: shapeW{},
		},
		registry.TranslatorEntry{Name: "x_to_y_direct", SrcName: "X", DstName: "Y", Cost: 1, Fn: noopTranslate},
		registry.TranslatorEntry{Name: "x_to_w", SrcName: "X", DstName: "W", Cost: 1, Fn: noopTranslate},
		registry.TranslatorEntry{
			Name: "w_to_y_tagged", SrcName: "W", DstName: "Y", Cost: 1, Fn: noopTranslate,
			PropagateProps: func(in typesys.PropertyValues) typesys.PropertyValues {
				out := typesys.PassThroughProps(in)
				out["ready"] = true
				return out
			},
		},
	}, nil
}

func TestPlanTranslationContinuesPastNonSatisfyingPopOfSameNode(t *testing.T) {
	reg := registry.NewRegistry()
	require.NoError(t, reg.Ingest(context.Background(), taggedEntries{}))
	require.NoError(t, reg.Finalize(context.Background()))

	x := concreteType(t, reg, "X")
	y := concreteType(t, reg, "Y")

	spec := typesys.NewTypeSpec(y, typesys.PropertyConstraints{"ready": true})
	chain, err := PlanTranslation(context.Background(), reg, x, spec, nil)
	require.NoError(t, err)
	require.Len(t, chain.Hops, 2)
	assert.Equal(t, "x_to_w", chain.Hops[0].Name)
	assert.Equal(t, "w_to_y_tagged", chain.Hops[1].Name)
	assert.Equal(t, 2.0, chain.TotalCost)
	assert.Equal(t, true, chain.FinalProps["ready"])
}
