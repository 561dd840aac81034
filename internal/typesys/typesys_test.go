package typesys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertySpecRefines(t *testing.T) {
	t.Run("subset of allowed values refines", func(t *testing.T) {
		parent := NewPropertySpec().Add("is_directed", []any{true, false}, false)
		child := NewPropertySpec().Add("is_directed", []any{true}, true)
		assert.True(t, parent.Refines(child))
	})

	t.Run("value outside parent's domain does not refine", func(t *testing.T) {
		parent := NewPropertySpec().Add("is_directed", []any{true, false}, false)
		child := NewPropertySpec().Add("is_directed", []any{"yes"}, "yes")
		assert.False(t, parent.Refines(child))
	})

	t.Run("empty child always refines", func(t *testing.T) {
		parent := NewPropertySpec().Add("is_directed", []any{true, false}, false)
		assert.True(t, parent.Refines(NewPropertySpec()))
	})
}

func TestTypeSpecSatisfies(t *testing.T) {
	ct := &ConcreteType{Name: "Foo"}
	spec := NewTypeSpec(ct, PropertyConstraints{"impl": "native"})

	t.Run("matching property satisfies", func(t *testing.T) {
		info := TypeInfo{ConcreteProps: PropertyValues{"impl": "native"}}
		assert.True(t, spec.Satisfies(info))
	})

	t.Run("mismatched property does not satisfy", func(t *testing.T) {
		info := TypeInfo{ConcreteProps: PropertyValues{"impl": "sqlite"}}
		assert.False(t, spec.Satisfies(info))
	})

	t.Run("missing property does not satisfy", func(t *testing.T) {
		assert.False(t, spec.Satisfies(TypeInfo{}))
	})

	t.Run("unconstrained spec satisfies anything", func(t *testing.T) {
		free := NewTypeSpec(ct, nil)
		assert.True(t, free.Satisfies(TypeInfo{}))
	})
}

// fakeValue and otherValue are two disjoint runtime shapes used to exercise
// InferConcreteType without depending on any plugin package.
type fakeValue struct{ n int }
type otherValue struct{ s string }

func newTestRegistry(t *testing.T) (*Registry, *AbstractType) {
	t.Helper()
	r := NewRegistry()
	at, err := r.RegisterAbstractType("Widget", nil)
	require.NoError(t, err)
	return r, at
}

func TestInferConcreteType(t *testing.T) {
	t.Run("first matching predicate wins", func(t *testing.T) {
		r, at := newTestRegistry(t)
		_, err := r.RegisterConcreteType("Fake", at,
			func(v any) bool { _, ok := v.(fakeValue); return ok },
			func(v any) (TypeInfo, error) { return TypeInfo{}, nil },
			nil, nil, fakeValue{n: 1})
		require.NoError(t, err)

		ct, err := r.InferConcreteType(fakeValue{n: 42})
		require.NoError(t, err)
		assert.Equal(t, "Fake", ct.Name)
	})

	t.Run("no predicate matches", func(t *testing.T) {
		r, _ := newTestRegistry(t)
		_, err := r.InferConcreteType(otherValue{s: "x"})
		var notFound *NoMatchingTypeError
		require.ErrorAs(t, err, &notFound)
	})
}

func TestProbeConflicts(t *testing.T) {
	t.Run("disjoint predicates pass", func(t *testing.T) {
		r, at := newTestRegistry(t)
		_, err := r.RegisterConcreteType("Fake", at,
			func(v any) bool { _, ok := v.(fakeValue); return ok },
			func(v any) (TypeInfo, error) { return TypeInfo{}, nil },
			nil, nil, fakeValue{})
		require.NoError(t, err)
		_, err = r.RegisterConcreteType("Other", at,
			func(v any) bool { _, ok := v.(otherValue); return ok },
			func(v any) (TypeInfo, error) { return TypeInfo{}, nil },
			nil, nil, otherValue{})
		require.NoError(t, err)

		assert.NoError(t, r.ProbeConflicts())
	})

	t.Run("overlapping predicates are rejected", func(t *testing.T) {
		r, at := newTestRegistry(t)
		alwaysTrue := func(v any) bool { return true }
		_, err := r.RegisterConcreteType("First", at, alwaysTrue,
			func(v any) (TypeInfo, error) { return TypeInfo{}, nil }, nil, nil, fakeValue{})
		require.NoError(t, err)
		_, err = r.RegisterConcreteType("Second", at, alwaysTrue,
			func(v any) (TypeInfo, error) { return TypeInfo{}, nil }, nil, nil, otherValue{})
		require.NoError(t, err)

		err = r.ProbeConflicts()
		var ambiguous *AmbiguousTypeError
		require.ErrorAs(t, err, &ambiguous)
		assert.ElementsMatch(t, []string{"First", "Second"}, ambiguous.Candidates)
	})
}

func TestRegisterAfterFinalizePanics(t *testing.T) {
	r, at := newTestRegistry(t)
	r.Finalize()
	assert.Panics(t, func() {
		_, _ = r.RegisterConcreteType("TooLate", at, nil, nil, nil, nil, nil)
	})
}

func TestRegisterDuplicateAbstractTypePanics(t *testing.T) {
	r := NewRegistry()
	_, err := r.RegisterAbstractType("Widget", nil)
	require.NoError(t, err)
	assert.Panics(t, func() {
		_, _ = r.RegisterAbstractType("Widget", nil)
	})
}

func TestAssertEqualWithTolerance(t *testing.T) {
	ct := &ConcreteType{
		Name: "Measurement",
		EqualFunc: func(a, b any, opts ...EqualOption) error {
			af, bf := a.(float64), b.(float64)
			tol := ResolveEqualOptions(opts...).Tolerance
			diff := af - bf
			if diff < 0 {
				diff = -diff
			}
			if diff > tol {
				return assertErr
			}
			return nil
		},
	}

	assert.NoError(t, ct.AssertEqual(1.0, 1.0001, WithTolerance(0.001)))
	assert.Error(t, ct.AssertEqual(1.0, 1.1, WithTolerance(0.001)))
}

var assertErr = &PropertyMismatchError{TypeName: "Measurement", Property: "value"}
