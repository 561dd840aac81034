package sqlitegraph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/metagraph/internal/typesys"
	"github.com/vk/metagraph/plugins/nativegraph"
)

func openMemory(t *testing.T, directed bool) *Graph {
	t.Helper()
	g, err := Open(directed, "")
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })
	return g
}

func TestAddEdgeMirrorsUndirected(t *testing.T) {
	g := openMemory(t, false)
	require.NoError(t, g.AddEdge(1, 2, 1.5))

	n1, err := g.Neighbors(1)
	require.NoError(t, err)
	n2, err := g.Neighbors(2)
	require.NoError(t, err)
	assert.Equal(t, 1.5, n1[2])
	assert.Equal(t, 1.5, n2[1])
}

func TestAddEdgeDirectedDoesNotMirror(t *testing.T) {
	g := openMemory(t, true)
	require.NoError(t, g.AddEdge(1, 2, 1))

	n2, err := g.Neighbors(2)
	require.NoError(t, err)
	assert.Empty(t, n2)
}

func TestNodesSortedAscending(t *testing.T) {
	g := openMemory(t, false)
	require.NoError(t, g.AddNode(5))
	require.NoError(t, g.AddNode(1))
	require.NoError(t, g.AddNode(3))

	nodes, err := g.Nodes()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 5}, nodes)
}

func TestAddNodeIsIdempotent(t *testing.T) {
	g := openMemory(t, false)
	require.NoError(t, g.AddNode(1))
	require.NoError(t, g.AddNode(1))

	nodes, err := g.Nodes()
	require.NoError(t, err)
	assert.Equal(t, []int{1}, nodes)
}

func TestBFSOverSQLiteBackedGraph(t *testing.T) {
	g := openMemory(t, false)
	require.NoError(t, g.AddEdge(1, 2, 1))
	require.NoError(t, g.AddEdge(2, 3, 1))

	result, err := bfs(g, 1)
	require.NoError(t, err)
	assert.Len(t, result, 3)
}

func TestNativeToSQLiteRoundTripsEdges(t *testing.T) {
	ng := nativegraph.NewGraph(false)
	ng.AddEdge(1, 2, 3)
	ng.AddEdge(2, 3, 4)

	v, err := nativeToSQLite(context.Background(), ng, typesys.TypeSpec{})
	require.NoError(t, err)
	sg := v.(*Graph)
	defer sg.Close()

	nodes, err := sg.Nodes()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, nodes)

	back, err := sqliteToNative(context.Background(), sg, typesys.TypeSpec{})
	require.NoError(t, err)
	roundTripped := back.(*nativegraph.Graph)
	assert.True(t, ng.Equal(roundTripped), "sqlite_to_native is declared Lossless and must reproduce the original graph")
}

func TestNativeToSQLiteRejectsWrongSourceType(t *testing.T) {
	_, err := nativeToSQLite(context.Background(), "not a graph", typesys.TypeSpec{})
	assert.Error(t, err)
}
