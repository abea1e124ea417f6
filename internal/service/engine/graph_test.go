// internal/service/engine/graph_test.go

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chanscope/internal/domain/channel"
)

func TestBuildGraph(t *testing.T) {
	t.Run("builds undirected weighted edges", func(t *testing.T) {
		g := BuildGraph([]channel.Connection{
			{SourceID: 1, TargetID: 2, Strength: 0.9, ConnectionType: "content_similarity"},
			{SourceID: 2, TargetID: 3, Strength: 0.4, ConnectionType: "temporal_sync"},
		})

		assert.Equal(t, 3, g.NodeCount())
		assert.Equal(t, 2, g.EdgeCount())

		edge, ok := g.Edge(2, 1)
		require.True(t, ok)
		assert.InDelta(t, 0.9, edge.Weight, 1e-9)
		assert.Equal(t, "content_similarity", edge.ConnectionType)
	})

	t.Run("skips connections with missing endpoints", func(t *testing.T) {
		g := BuildGraph([]channel.Connection{
			{SourceID: 0, TargetID: 2, Strength: 0.9},
			{SourceID: 1, TargetID: 0, Strength: 0.9},
		})
		assert.Zero(t, g.NodeCount())
	})

	t.Run("neighbors are sorted", func(t *testing.T) {
		g := BuildGraph([]channel.Connection{
			{SourceID: 1, TargetID: 30, Strength: 0.5},
			{SourceID: 1, TargetID: 2, Strength: 0.5},
			{SourceID: 1, TargetID: 17, Strength: 0.5},
		})
		assert.Equal(t, []int64{2, 17, 30}, g.Neighbors(1))
	})
}

func TestGraphDensity(t *testing.T) {
	t.Run("triangle is fully dense", func(t *testing.T) {
		g := BuildGraph([]channel.Connection{
			{SourceID: 1, TargetID: 2, Strength: 0.5},
			{SourceID: 2, TargetID: 3, Strength: 0.5},
			{SourceID: 1, TargetID: 3, Strength: 0.5},
		})
		assert.InDelta(t, 1.0, g.Density(), 1e-9)
	})

	t.Run("empty graph has zero density", func(t *testing.T) {
		assert.Zero(t, NewGraph().Density())
	})
}

func TestGraphIsConnected(t *testing.T) {
	t.Run("path graph is connected", func(t *testing.T) {
		g := BuildGraph([]channel.Connection{
			{SourceID: 1, TargetID: 2, Strength: 0.5},
			{SourceID: 2, TargetID: 3, Strength: 0.5},
		})
		assert.True(t, g.IsConnected())
	})

	t.Run("two components are not connected", func(t *testing.T) {
		g := BuildGraph([]channel.Connection{
			{SourceID: 1, TargetID: 2, Strength: 0.5},
			{SourceID: 3, TargetID: 4, Strength: 0.5},
		})
		assert.False(t, g.IsConnected())
	})

	t.Run("empty graph is not connected", func(t *testing.T) {
		assert.False(t, NewGraph().IsConnected())
	})
}
