package spkcluster

import (
	"fmt"
	"math"
)

// cosEps keeps cosine similarity finite for zero-norm embeddings.
const cosEps = 3.5e-4

// CosAffinity computes the pairwise cosine-similarity matrix of the given
// embeddings, forces the diagonal to 1, and min-max normalizes the result
// to [0, 1].
func CosAffinity(embeddings [][]float32) [][]float64 {
	n := len(embeddings)
	normed := make([][]float64, n)
	for i, e := range embeddings {
		var sum float64
		row := make([]float64, len(e))
		for d, v := range e {
			f := float64(v)
			row[d] = f
			sum += f * f
		}
		norm := math.Sqrt(sum) + cosEps
		for d := range row {
			row[d] /= norm
		}
		normed[i] = row
	}

	aff := make([][]float64, n)
	for i := range aff {
		aff[i] = make([]float64, n)
		for j := 0; j <= i; j++ {
			var dot float64
			for d := range normed[i] {
				dot += normed[i][d] * normed[j][d]
			}
			aff[i][j] = dot
		}
	}
	for i := range aff {
		for j := i + 1; j < n; j++ {
			aff[i][j] = aff[j][i]
		}
		aff[i][i] = 1
	}
	return minMaxScale(aff)
}

// minMaxScale rescales all entries to [0, 1] by the global minimum and
// maximum. A constant matrix maps to all ones, so a session of identical
// embeddings keeps a well-defined affinity.
func minMaxScale(m [][]float64) [][]float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, row := range m {
		for _, v := range row {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	span := hi - lo
	for _, row := range m {
		for j, v := range row {
			if span == 0 {
				row[j] = 1
			} else {
				row[j] = (v - lo) / span
			}
		}
	}
	return m
}

// FuseScales computes one affinity matrix per scale, replicates each to
// the base-scale resolution by nearest-midpoint mapping, and combines the
// replicated matrices by normalized fusion weight. It returns the fused
// N×N affinity matrix and the base scale, where N is the base-scale
// segment count.
//
// Inputs are not mutated; the fused matrix is freshly allocated.
func FuseScales(scales []Scale) ([][]float64, Scale, error) {
	if err := validateScales(scales); err != nil {
		return nil, Scale{}, err
	}
	ordered := sortedScales(scales)
	base := ordered[len(ordered)-1]

	baseMids, err := midpoints(base)
	if err != nil {
		return nil, Scale{}, fmt.Errorf("spkcluster: %w", err)
	}
	n := len(base.Embeddings)

	var totalWeight float64
	for _, s := range ordered {
		totalWeight += s.Weight
	}

	fused := make([][]float64, n)
	for i := range fused {
		fused[i] = make([]float64, n)
	}
	for _, s := range ordered {
		mids, err := midpoints(s)
		if err != nil {
			return nil, Scale{}, fmt.Errorf("spkcluster: %w", err)
		}
		mapping := nearestAnchors(baseMids, mids)
		aff := CosAffinity(s.Embeddings)
		w := s.Weight / totalWeight
		for i := 0; i < n; i++ {
			src := aff[mapping[i]]
			dst := fused[i]
			for j := 0; j < n; j++ {
				dst[j] += w * src[mapping[j]]
			}
		}
	}
	return fused, base, nil
}

// nearestAnchors maps each base-scale midpoint to the index of the
// nearest midpoint in mids. The first minimum wins on ties.
func nearestAnchors(baseMids, mids []float64) []int {
	mapping := make([]int, len(baseMids))
	for b, bm := range baseMids {
		best := 0
		bestDist := math.Abs(mids[0] - bm)
		for j := 1; j < len(mids); j++ {
			if d := math.Abs(mids[j] - bm); d < bestDist {
				best, bestDist = j, d
			}
		}
		mapping[b] = best
	}
	return mapping
}
