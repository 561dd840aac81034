package yamlframe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/metagraph/internal/registry"
	"github.com/vk/metagraph/internal/typesys"
)

func TestNewDataFrameRejectsMismatchedColumnLengths(t *testing.T) {
	_, err := NewDataFrame([]string{"a", "b"}, map[string][]float64{
		"a": {1, 2, 3},
		"b": {1, 2},
	})
	assert.Error(t, err)
}

func TestNewDataFrameRejectsMissingColumn(t *testing.T) {
	_, err := NewDataFrame([]string{"a", "missing"}, map[string][]float64{"a": {1}})
	assert.Error(t, err)
}

func TestMarshalParseRoundTrip(t *testing.T) {
	df, err := NewDataFrame([]string{"x", "y"}, map[string][]float64{
		"x": {1, 2, 3},
		"y": {4, 5, 6},
	})
	require.NoError(t, err)

	raw, err := df.Marshal()
	require.NoError(t, err)

	parsed, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, df.Data, parsed.Data)
	assert.ElementsMatch(t, df.Columns, parsed.Columns)
}

func TestParsePreservesDocumentKeyOrder(t *testing.T) {
	raw := []byte("zeta: [1, 2]\nalpha: [3, 4]\n")
	df, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha"}, df.Columns)
}

func TestRowCountForEmptyFrame(t *testing.T) {
	df := &DataFrame{}
	assert.Equal(t, 0, df.RowCount())
}

func yamlFrameConcreteEntry(t *testing.T) registry.ConcreteTypeEntry {
	t.Helper()
	entries, err := Provider{}.Entries(context.Background())
	require.NoError(t, err)
	for _, e := range entries {
		if ct, ok := e.(registry.ConcreteTypeEntry); ok && ct.Name == "YAMLFrame" {
			return ct
		}
	}
	t.Fatal("YAMLFrame concrete type entry not found")
	return registry.ConcreteTypeEntry{}
}

func TestProviderEqualRespectsToleranceOption(t *testing.T) {
	e := yamlFrameConcreteEntry(t)

	a, err := NewDataFrame([]string{"x"}, map[string][]float64{"x": {1.0}})
	require.NoError(t, err)
	b, err := NewDataFrame([]string{"x"}, map[string][]float64{"x": {1.02}})
	require.NoError(t, err)

	assert.Error(t, e.Equal(a, b))
	assert.NoError(t, e.Equal(a, b, typesys.WithTolerance(0.05)))
}

func TestProviderConflictProbeMatchesOwnPredicateOnly(t *testing.T) {
	e := yamlFrameConcreteEntry(t)
	assert.True(t, e.Predicate(e.ConflictProbe))
	assert.False(t, e.Predicate("not a dataframe"))
}

func TestColumnMeanFnComputesAverage(t *testing.T) {
	df, err := NewDataFrame([]string{"x"}, map[string][]float64{"x": {1, 2, 3}})
	require.NoError(t, err)

	v, err := columnMeanFn(context.Background(), df, "x")
	require.NoError(t, err)
	assert.InDelta(t, 2.0, v.(float64), 1e-9)
}

func TestColumnMeanFnRejectsUnknownColumn(t *testing.T) {
	df, err := NewDataFrame([]string{"x"}, map[string][]float64{"x": {1, 2, 3}})
	require.NoError(t, err)

	_, err = columnMeanFn(context.Background(), df, "missing")
	assert.Error(t, err)
}
