package spkcluster

import (
	"math"
	"math/rand/v2"
	"sort"
)

const (
	// kmeansLocalTrials is the number of candidate points examined per
	// k-means++ seeding step.
	kmeansLocalTrials = 30

	// kmeansShiftThreshold stops Lloyd iteration once the squared total
	// center shift falls below it.
	kmeansShiftThreshold = 1e-4

	// kmeansIterLimit bounds Lloyd iterations per trial.
	kmeansIterLimit = 15
)

// newRNG derives a deterministic generator from a seed. Every stochastic
// step in the pipeline draws from a generator built here; there is no
// package-level random state.
func newRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
}

// KMeans clusters the rows of x into k groups and returns one label per
// row. Each trial runs k-means++ seeding followed by Lloyd refinement with
// its own generator (seeds seed, seed+1, …); with more than one trial the
// label sets are aligned by centroid matching and reconciled by
// elementwise majority vote. Identical inputs and seeds produce identical
// labels.
func KMeans(x [][]float64, k int, seed uint64, trials int) []int {
	n := len(x)
	labels := make([]int, n)
	if n <= 1 || k <= 1 {
		return labels
	}
	if trials < 1 {
		trials = 1
	}

	runs := make([][]int, trials)
	centers := make([][][]float64, trials)
	for t := 0; t < trials; t++ {
		rng := newRNG(seed + uint64(t))
		runs[t], centers[t] = lloyd(x, seedCenters(x, k, rng), rng)
	}
	if trials == 1 {
		return runs[0]
	}

	// Cluster indices are arbitrary per trial, so align every trial to
	// the first by nearest-centroid matching before voting.
	for t := 1; t < trials; t++ {
		perm := matchCentroids(centers[0], centers[t])
		for i, l := range runs[t] {
			runs[t][i] = perm[l]
		}
	}
	return vote(runs, k)
}

// seedCenters picks k initial centers with k-means++: the first uniformly
// at random, each following one chosen from kmeansLocalTrials candidates
// sampled proportionally to squared distance from the nearest existing
// center, committing the candidate that minimizes total potential.
func seedCenters(x [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(x)
	centers := make([][]float64, 0, k)
	centers = append(centers, cloneVec(x[rng.IntN(n)]))

	closest := make([]float64, n)
	var pot float64
	for i := range x {
		closest[i] = sqDist(x[i], centers[0])
		pot += closest[i]
	}

	cum := make([]float64, n)
	cand := make([]float64, n)
	best := make([]float64, n)
	for len(centers) < k {
		var sum float64
		for i, d := range closest {
			sum += d
			cum[i] = sum
		}

		bestPot := math.Inf(1)
		bestIdx := 0
		for t := 0; t < kmeansLocalTrials; t++ {
			c := sort.SearchFloat64s(cum, rng.Float64()*pot)
			if c >= n {
				c = n - 1
			}
			var candPot float64
			for i := range x {
				d := sqDist(x[i], x[c])
				if closest[i] < d {
					d = closest[i]
				}
				cand[i] = d
				candPot += d
			}
			if candPot < bestPot {
				bestPot = candPot
				bestIdx = c
				copy(best, cand)
			}
		}

		centers = append(centers, cloneVec(x[bestIdx]))
		copy(closest, best)
		pot = bestPot
	}
	return centers
}

// lloyd iteratively assigns points to their nearest center and recenters,
// until the squared total center shift drops below kmeansShiftThreshold
// or kmeansIterLimit is reached. A cluster left without points is
// reseeded to a uniformly random data point; that recovery is local and
// never an error. The returned labels correspond to the assignment at the
// top of the final iteration.
func lloyd(x [][]float64, centers [][]float64, rng *rand.Rand) ([]int, [][]float64) {
	n, k := len(x), len(centers)
	dim := len(x[0])
	labels := make([]int, n)
	counts := make([]int, k)
	sums := make([][]float64, k)
	prev := make([][]float64, k)
	for c := range sums {
		sums[c] = make([]float64, dim)
		prev[c] = make([]float64, dim)
	}

	for iter := 0; iter < kmeansIterLimit; iter++ {
		for i := range x {
			bestC := 0
			bestD := sqDist(x[i], centers[0])
			for c := 1; c < k; c++ {
				if d := sqDist(x[i], centers[c]); d < bestD {
					bestC, bestD = c, d
				}
			}
			labels[i] = bestC
		}

		for c := range centers {
			copy(prev[c], centers[c])
			counts[c] = 0
			for d := range sums[c] {
				sums[c][d] = 0
			}
		}
		for i, l := range labels {
			counts[l]++
			for d, v := range x[i] {
				sums[l][d] += v
			}
		}
		for c := range centers {
			if counts[c] == 0 {
				copy(centers[c], x[rng.IntN(n)])
				continue
			}
			for d := range centers[c] {
				centers[c][d] = sums[c][d] / float64(counts[c])
			}
		}

		var shift float64
		for c := range centers {
			shift += math.Sqrt(sqDist(centers[c], prev[c]))
		}
		if shift*shift < kmeansShiftThreshold {
			break
		}
	}
	return labels, centers
}

// matchCentroids greedily pairs each centroid of b with its nearest
// unmatched centroid of the reference a, closest pairs first, and returns
// the permutation perm where perm[bLabel] = aLabel.
func matchCentroids(a, b [][]float64) []int {
	k := len(a)
	perm := make([]int, k)
	usedA := make([]bool, k)
	usedB := make([]bool, k)
	for range perm {
		bestD := math.Inf(1)
		ai, bi := -1, -1
		for i := range a {
			if usedA[i] {
				continue
			}
			for j := range b {
				if usedB[j] {
					continue
				}
				if d := sqDist(a[i], b[j]); d < bestD {
					bestD, ai, bi = d, i, j
				}
			}
		}
		usedA[ai] = true
		usedB[bi] = true
		perm[bi] = ai
	}
	return perm
}

// vote returns the elementwise modal label across trials; ties resolve to
// the smallest label.
func vote(runs [][]int, k int) []int {
	n := len(runs[0])
	out := make([]int, n)
	counts := make([]int, k)
	for i := 0; i < n; i++ {
		for c := range counts {
			counts[c] = 0
		}
		for _, run := range runs {
			counts[run[i]]++
		}
		best := 0
		for c := 1; c < k; c++ {
			if counts[c] > counts[best] {
				best = c
			}
		}
		out[i] = best
	}
	return out
}

func sqDist(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func cloneVec(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
