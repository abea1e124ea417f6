// internal/service/engine/network.go

package engine

import (
	"container/heap"
	"math"

	"go.uber.org/zap"

	"chanscope/internal/domain/analysis"
)

const (
	strongEdgeThreshold    = 0.7
	communityEdgeThreshold = 0.5
	powerIterationMax      = 100
	powerIterationTol      = 1e-6
	pagerankDamping        = 0.85
)

// NetworkAnalyzer computes structural metrics over the channel graph.
//
// Edge weight (connection strength) is used as the shortest-path cost
// for betweenness and closeness, so a stronger connection makes a path
// longer. That reading is kept deliberately for compatibility with the
// stored metrics; do not invert it here.
type NetworkAnalyzer struct {
	logger *zap.Logger
}

// NewNetworkAnalyzer creates a network analyzer.
func NewNetworkAnalyzer(logger *zap.Logger) *NetworkAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NetworkAnalyzer{logger: logger}
}

func emptyCentralityReport() analysis.CentralityReport {
	return analysis.CentralityReport{
		Neighbors:       []int64{},
		ConnectionTypes: map[string]int{},
	}
}

// NodeMetrics computes the full centrality report for one channel. An
// absent node yields an all-zero report.
func (na *NetworkAnalyzer) NodeMetrics(g *Graph, channelID int64) analysis.CentralityReport {
	if g == nil || !g.HasNode(channelID) {
		return emptyCentralityReport()
	}

	report := emptyCentralityReport()
	neighbors := g.Neighbors(channelID)
	report.Neighbors = neighbors
	report.Degree = len(neighbors)
	report.TotalConnections = len(neighbors)

	for _, n := range neighbors {
		edge, _ := g.Edge(channelID, n)
		report.WeightedDegree += edge.Weight
		report.ConnectionTypes[edge.ConnectionType]++
		if edge.Weight > strongEdgeThreshold {
			report.StrongConnections++
		}
	}

	n := g.NodeCount()
	if n > 1 {
		report.DegreeCentrality = float64(report.Degree) / float64(n-1)
		report.BetweennessCentrality = betweennessCentrality(g)[channelID]
		if g.IsConnected() {
			report.ClosenessCentrality = closenessCentrality(g, channelID)
		}
		report.EigenvectorCentrality = eigenvectorCentrality(g)[channelID]
		report.PageRank = pagerank(g)[channelID]
	}
	report.ClusteringCoefficient = clusteringCoefficient(g, channelID)

	return report
}

// DetectCommunities groups channels by breadth-first expansion that
// only traverses edges stronger than the community threshold. This is
// an explicit approximation, not a modularity-optimising algorithm;
// nodes reachable only through weak edges stay in separate communities.
func (na *NetworkAnalyzer) DetectCommunities(g *Graph) analysis.CommunityReport {
	report := analysis.CommunityReport{Communities: map[int]analysis.Community{}}
	if g == nil {
		return report
	}

	visited := make(map[int64]bool)
	communityID := 0
	totalEdges := g.EdgeCount()

	for _, node := range g.Nodes() {
		if visited[node] {
			continue
		}

		members := expandCommunity(g, node, visited)
		internal := internalEdges(g, members)

		size := len(members)
		density := 0.0
		if size > 1 {
			density = 2 * float64(internal) / float64(size*(size-1))
		}

		report.Communities[communityID] = analysis.Community{
			Members: members,
			Size:    size,
			Density: density,
		}
		if totalEdges > 0 {
			report.ModularityApprox += float64(internal) / float64(totalEdges)
		}
		communityID++
	}

	report.CommunityCount = len(report.Communities)
	return report
}

// expandCommunity grows a community from start, following only edges
// above the community threshold.
func expandCommunity(g *Graph, start int64, visited map[int64]bool) []int64 {
	members := []int64{start}
	visited[start] = true
	queue := []int64{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, neighbor := range g.Neighbors(current) {
			if visited[neighbor] {
				continue
			}
			edge, _ := g.Edge(current, neighbor)
			if edge.Weight <= communityEdgeThreshold {
				continue
			}
			visited[neighbor] = true
			members = append(members, neighbor)
			queue = append(queue, neighbor)
		}
	}

	return members
}

// internalEdges counts edges with both endpoints inside the member set,
// regardless of weight.
func internalEdges(g *Graph, members []int64) int {
	inside := make(map[int64]bool, len(members))
	for _, m := range members {
		inside[m] = true
	}

	count := 0
	for _, m := range members {
		for _, n := range g.Neighbors(m) {
			if inside[n] && m < n {
				count++
			}
		}
	}
	return count
}

// clusteringCoefficient is the unweighted local triangle density
// 2T / k(k-1).
func clusteringCoefficient(g *Graph, id int64) float64 {
	neighbors := g.Neighbors(id)
	k := len(neighbors)
	if k < 2 {
		return 0
	}

	triangles := 0
	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			if _, ok := g.Edge(neighbors[i], neighbors[j]); ok {
				triangles++
			}
		}
	}

	return 2 * float64(triangles) / float64(k*(k-1))
}

// distanceItem is a priority-queue entry for Dijkstra traversal.
type distanceItem struct {
	node int64
	dist float64
}

type distanceQueue []distanceItem

func (q distanceQueue) Len() int            { return len(q) }
func (q distanceQueue) Less(i, j int) bool  { return q[i].dist < q[j].dist }
func (q distanceQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *distanceQueue) Push(x interface{}) { *q = append(*q, x.(distanceItem)) }
func (q *distanceQueue) Pop() interface{} {
	old := *q
	item := old[len(old)-1]
	*q = old[:len(old)-1]
	return item
}

// shortestPaths runs Dijkstra from source using edge weight as cost.
func shortestPaths(g *Graph, source int64) map[int64]float64 {
	dist := map[int64]float64{source: 0}
	done := make(map[int64]bool)
	q := &distanceQueue{{node: source, dist: 0}}

	for q.Len() > 0 {
		item := heap.Pop(q).(distanceItem)
		if done[item.node] {
			continue
		}
		done[item.node] = true

		for _, neighbor := range g.Neighbors(item.node) {
			edge, _ := g.Edge(item.node, neighbor)
			next := item.dist + edge.Weight
			if current, seen := dist[neighbor]; !seen || next < current {
				dist[neighbor] = next
				heap.Push(q, distanceItem{node: neighbor, dist: next})
			}
		}
	}

	return dist
}

// closenessCentrality is (n-1) / Σ distance(id, v) over a connected
// graph with weight-as-cost distances.
func closenessCentrality(g *Graph, id int64) float64 {
	dist := shortestPaths(g, id)
	total := 0.0
	for _, d := range dist {
		total += d
	}
	if total == 0 {
		return 0
	}
	return float64(g.NodeCount()-1) / total
}

// betweennessCentrality implements Brandes' algorithm with Dijkstra
// traversal (weight as cost) and the standard 1/((n-1)(n-2))
// normalisation.
func betweennessCentrality(g *Graph) map[int64]float64 {
	nodes := g.Nodes()
	centrality := make(map[int64]float64, len(nodes))
	for _, v := range nodes {
		centrality[v] = 0
	}
	n := len(nodes)
	if n <= 2 {
		return centrality
	}

	for _, source := range nodes {
		// Single-source shortest paths with path counting.
		var stack []int64
		preds := make(map[int64][]int64)
		sigma := map[int64]float64{source: 1}
		dist := map[int64]float64{source: 0}
		done := make(map[int64]bool)

		q := &distanceQueue{{node: source, dist: 0}}
		for q.Len() > 0 {
			item := heap.Pop(q).(distanceItem)
			if done[item.node] {
				continue
			}
			done[item.node] = true
			stack = append(stack, item.node)

			for _, neighbor := range g.Neighbors(item.node) {
				edge, _ := g.Edge(item.node, neighbor)
				next := dist[item.node] + edge.Weight
				current, seen := dist[neighbor]

				switch {
				case !seen || next < current:
					dist[neighbor] = next
					sigma[neighbor] = sigma[item.node]
					preds[neighbor] = []int64{item.node}
					heap.Push(q, distanceItem{node: neighbor, dist: next})
				case next == current && !done[neighbor]:
					sigma[neighbor] += sigma[item.node]
					preds[neighbor] = append(preds[neighbor], item.node)
				}
			}
		}

		// Back-propagate pair dependencies.
		delta := make(map[int64]float64)
		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range preds[w] {
				delta[v] += sigma[v] / sigma[w] * (1 + delta[w])
			}
			if w != source {
				centrality[w] += delta[w]
			}
		}
	}

	scale := 1 / float64((n-1)*(n-2))
	for v := range centrality {
		centrality[v] *= scale
	}
	return centrality
}

// eigenvectorCentrality runs (A+I) power iteration over the weighted
// adjacency. Non-convergence yields zeros for every node.
func eigenvectorCentrality(g *Graph) map[int64]float64 {
	nodes := g.Nodes()
	n := len(nodes)
	zeros := make(map[int64]float64, n)
	if n == 0 {
		return zeros
	}

	x := make(map[int64]float64, n)
	for _, v := range nodes {
		x[v] = 1.0 / float64(n)
		zeros[v] = 0
	}

	for iter := 0; iter < powerIterationMax; iter++ {
		xlast := x
		x = make(map[int64]float64, n)
		for _, v := range nodes {
			x[v] = xlast[v]
		}
		for _, v := range nodes {
			for _, nbr := range g.Neighbors(v) {
				edge, _ := g.Edge(v, nbr)
				x[nbr] += xlast[v] * edge.Weight
			}
		}

		norm := 0.0
		for _, v := range nodes {
			norm += x[v] * x[v]
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			norm = 1
		}
		for _, v := range nodes {
			x[v] /= norm
		}

		err := 0.0
		for _, v := range nodes {
			err += math.Abs(x[v] - xlast[v])
		}
		if err < float64(n)*powerIterationTol {
			return x
		}
	}

	return zeros
}

// pagerank computes weighted PageRank with the usual damping factor.
// Non-convergence yields zeros, matching the centrality fallback
// contract.
func pagerank(g *Graph) map[int64]float64 {
	nodes := g.Nodes()
	n := len(nodes)
	result := make(map[int64]float64, n)
	if n == 0 {
		return result
	}

	outWeight := make(map[int64]float64, n)
	for _, v := range nodes {
		for _, nbr := range g.Neighbors(v) {
			edge, _ := g.Edge(v, nbr)
			outWeight[v] += edge.Weight
		}
	}

	x := make(map[int64]float64, n)
	for _, v := range nodes {
		x[v] = 1.0 / float64(n)
	}

	base := (1 - pagerankDamping) / float64(n)
	for iter := 0; iter < powerIterationMax; iter++ {
		next := make(map[int64]float64, n)
		dangling := 0.0
		for _, v := range nodes {
			if outWeight[v] == 0 {
				dangling += x[v]
			}
		}

		for _, v := range nodes {
			next[v] = base + pagerankDamping*dangling/float64(n)
		}
		for _, v := range nodes {
			if outWeight[v] == 0 {
				continue
			}
			for _, nbr := range g.Neighbors(v) {
				edge, _ := g.Edge(v, nbr)
				next[nbr] += pagerankDamping * x[v] * edge.Weight / outWeight[v]
			}
		}

		err := 0.0
		for _, v := range nodes {
			err += math.Abs(next[v] - x[v])
		}
		x = next
		if err < float64(n)*powerIterationTol {
			return x
		}
	}

	for _, v := range nodes {
		result[v] = 0
	}
	return result
}
