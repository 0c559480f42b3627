package spkcluster

import (
	"fmt"
	"math"

	"github.com/haivivi/diar/pkg/lina"
)

// Laplacian returns the unnormalized graph Laplacian L = D − A of an
// affinity matrix, where the diagonal of A is treated as zero and D is
// the diagonal matrix of row-wise absolute sums. The input is not
// mutated.
func Laplacian(aff [][]float64) [][]float64 {
	n := len(aff)
	lap := make([][]float64, n)
	for i := range lap {
		row := make([]float64, n)
		var d float64
		for j, v := range aff[i] {
			if i == j {
				continue
			}
			row[j] = -v
			d += math.Abs(v)
		}
		row[i] = d
		lap[i] = row
	}
	return lap
}

// SpectralEmbed computes the spectral embedding of an affinity matrix:
// the eigenvectors of its Laplacian for the k smallest eigenvalues, one
// coordinate per eigenvector. Columns are ordered largest retained
// eigenvalue first.
//
// k is clamped to [1, N]. The returned matrix is N×k, one row per
// segment.
func SpectralEmbed(aff [][]float64, k int, be lina.Backend) ([][]float64, error) {
	n := len(aff)
	if n == 0 {
		return nil, fmt.Errorf("spkcluster: empty affinity matrix")
	}
	for i, row := range aff {
		if len(row) != n {
			return nil, fmt.Errorf("%w: row %d has %d entries, want %d", ErrNotSquare, i, len(row), n)
		}
	}
	if be == nil {
		be = lina.Default()
	}
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}

	_, vectors, err := be.SymEig(Laplacian(aff))
	if err != nil {
		return nil, fmt.Errorf("spkcluster: spectral embedding (n=%d): %w", n, err)
	}

	emb := make([][]float64, n)
	for i := range emb {
		row := make([]float64, k)
		for c := 0; c < k; c++ {
			row[c] = vectors[i][k-1-c]
		}
		emb[i] = row
	}
	return emb, nil
}

// eigengaps returns the consecutive differences of ascending eigenvalues.
func eigengaps(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	gaps := make([]float64, len(values)-1)
	for i := range gaps {
		gaps[i] = values[i+1] - values[i]
	}
	return gaps
}
