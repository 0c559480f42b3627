package spkcluster

import "sort"

// Binarize converts an affinity matrix into a symmetric k-nearest-neighbor
// graph: each row marks its p largest entries (including the unit
// diagonal) with 1, everything else with 0, and the marked matrix is
// symmetrized as 0.5·(X + Xᵀ). Entries of the result are 0, 0.5, or 1.
//
// p is clamped to [1, N]. Ties sort by lower column index first, so the
// result is deterministic.
func Binarize(aff [][]float64, p int) [][]float64 {
	n := len(aff)
	if p < 1 {
		p = 1
	}
	if p > n {
		p = n
	}

	marked := make([][]bool, n)
	order := make([]int, n)
	for i, row := range aff {
		for j := range order {
			order[j] = j
		}
		sort.Slice(order, func(a, b int) bool {
			if row[order[a]] != row[order[b]] {
				return row[order[a]] > row[order[b]]
			}
			return order[a] < order[b]
		})
		m := make([]bool, n)
		for _, j := range order[:p] {
			m[j] = true
		}
		marked[i] = m
	}

	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			var v float64
			if marked[i][j] {
				v += 0.5
			}
			if marked[j][i] {
				v += 0.5
			}
			out[i][j] = v
		}
	}
	return out
}

// IsFullyConnected reports whether every node is reachable from node 0,
// treating any nonzero entry as an edge.
func IsFullyConnected(graph [][]float64) bool {
	n := len(graph)
	if n == 0 {
		return true
	}
	visited := make([]bool, n)
	queue := []int{0}
	visited[0] = true
	reached := 1
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		for j, v := range graph[i] {
			if v != 0 && !visited[j] {
				visited[j] = true
				reached++
				queue = append(queue, j)
			}
		}
	}
	return reached == n
}

// RepairConnectivity walks the candidate neighbor counts in increasing
// order, rebinarizing each time, and stops at the first fully connected
// graph or once the candidate exceeds maxN. If no candidate connects the
// graph, the graph for the largest candidate tried is returned best-effort.
func RepairConnectivity(aff [][]float64, candidates []int, maxN int) ([][]float64, int) {
	if len(candidates) == 0 {
		candidates = []int{1}
	}
	var (
		graph [][]float64
		p     int
	)
	for _, p = range candidates {
		graph = Binarize(aff, p)
		if IsFullyConnected(graph) || p > maxN {
			break
		}
	}
	return graph, p
}
