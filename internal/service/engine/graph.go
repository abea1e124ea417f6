// internal/service/engine/graph.go

package engine

import (
	"sort"

	"chanscope/internal/domain/channel"
)

// GraphEdge carries the attributes of one undirected channel-to-channel
// edge. Weight is the declared connection strength in [0,1].
type GraphEdge struct {
	Weight         float64
	ConnectionType string
	Attrs          map[string]any
}

// Graph is an undirected weighted graph over channel ids. At most one
// edge exists per unordered node pair; adding an edge for an existing
// pair overwrites it.
type Graph struct {
	adj map[int64]map[int64]*GraphEdge
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{adj: make(map[int64]map[int64]*GraphEdge)}
}

// BuildGraph constructs the channel graph from connection records.
// Records missing either endpoint are skipped; all connection fields
// travel on the edge as opaque attributes.
func BuildGraph(connections []channel.Connection) *Graph {
	g := NewGraph()
	for _, conn := range connections {
		if conn.SourceID == 0 || conn.TargetID == 0 {
			continue
		}
		g.AddEdge(conn.SourceID, conn.TargetID, GraphEdge{
			Weight:         conn.Strength,
			ConnectionType: conn.ConnectionType,
			Attrs: map[string]any{
				"confidence": conn.Confidence,
				"evidence":   conn.Evidence,
			},
		})
	}
	return g
}

// AddEdge inserts or overwrites the undirected edge between u and v.
func (g *Graph) AddEdge(u, v int64, edge GraphEdge) {
	if g.adj[u] == nil {
		g.adj[u] = make(map[int64]*GraphEdge)
	}
	if g.adj[v] == nil {
		g.adj[v] = make(map[int64]*GraphEdge)
	}
	shared := edge
	g.adj[u][v] = &shared
	g.adj[v][u] = &shared
}

// HasNode reports whether id exists in the graph.
func (g *Graph) HasNode(id int64) bool {
	_, ok := g.adj[id]
	return ok
}

// Nodes returns all node ids in ascending order.
func (g *Graph) Nodes() []int64 {
	nodes := make([]int64, 0, len(g.adj))
	for id := range g.adj {
		nodes = append(nodes, id)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })
	return nodes
}

// Neighbors returns the ids adjacent to id in ascending order.
func (g *Graph) Neighbors(id int64) []int64 {
	neighbors := make([]int64, 0, len(g.adj[id]))
	for n := range g.adj[id] {
		neighbors = append(neighbors, n)
	}
	sort.Slice(neighbors, func(i, j int) bool { return neighbors[i] < neighbors[j] })
	return neighbors
}

// Edge returns the edge between u and v if one exists.
func (g *Graph) Edge(u, v int64) (*GraphEdge, bool) {
	e, ok := g.adj[u][v]
	return e, ok
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.adj)
}

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int {
	total := 0
	for _, neighbors := range g.adj {
		total += len(neighbors)
	}
	return total / 2
}

// Density is 2m / n(n-1) for an undirected graph.
func (g *Graph) Density() float64 {
	n := g.NodeCount()
	if n <= 1 {
		return 0
	}
	return 2 * float64(g.EdgeCount()) / float64(n*(n-1))
}

// IsConnected reports whether every node is reachable from every other.
// The empty graph counts as disconnected.
func (g *Graph) IsConnected() bool {
	nodes := g.Nodes()
	if len(nodes) == 0 {
		return false
	}

	visited := map[int64]bool{nodes[0]: true}
	queue := []int64{nodes[0]}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for n := range g.adj[current] {
			if !visited[n] {
				visited[n] = true
				queue = append(queue, n)
			}
		}
	}

	return len(visited) == len(nodes)
}
