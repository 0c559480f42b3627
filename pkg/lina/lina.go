// Package lina provides the dense linear-algebra primitives used by the
// clustering pipeline, behind a small backend interface.
//
// The only numerically delicate operation in the pipeline is the symmetric
// eigendecomposition of a graph Laplacian, so that is the whole surface:
// a [Backend] computes eigenvalues and eigenvectors of a dense symmetric
// matrix. The default backend runs on the CPU via gonum's EigenSym solver.
//
// An accelerated implementation (BLAS offload, GPU) can be swapped in
// without touching the clustering code; callers may inspect
// [Backend.Accelerated] when choosing subsampling budgets.
package lina

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrNoConvergence is returned when the eigensolver fails to converge.
var ErrNoConvergence = errors.New("lina: eigendecomposition did not converge")

// Backend computes dense symmetric eigendecompositions.
//
// Implementations must be safe for concurrent use; every call is
// independent and operates only on its arguments.
type Backend interface {
	// SymEig decomposes the symmetric matrix m (n rows of length n; only
	// the upper triangle is read). It returns all n eigenvalues in
	// ascending order and an n×n matrix whose column j is the unit
	// eigenvector for the j-th eigenvalue.
	SymEig(m [][]float64) (values []float64, vectors [][]float64, err error)

	// SymEigValues is SymEig without the eigenvectors. Eigenvalue-only
	// decompositions are substantially cheaper and dominate the NME
	// candidate search.
	SymEigValues(m [][]float64) (values []float64, err error)

	// Accelerated reports whether the backend offloads work to dedicated
	// hardware. The clustering pipeline treats this as a hint only.
	Accelerated() bool
}

// Default returns the CPU backend.
func Default() Backend { return cpuBackend{} }

type cpuBackend struct{}

func (cpuBackend) Accelerated() bool { return false }

func (cpuBackend) SymEig(m [][]float64) ([]float64, [][]float64, error) {
	eig, err := factorize(m, true)
	if err != nil {
		return nil, nil, err
	}

	n := len(m)
	var vec mat.Dense
	eig.VectorsTo(&vec)

	vectors := make([][]float64, n)
	for i := range vectors {
		row := make([]float64, n)
		for j := 0; j < n; j++ {
			row[j] = vec.At(i, j)
		}
		vectors[i] = row
	}
	return eig.Values(nil), vectors, nil
}

func (cpuBackend) SymEigValues(m [][]float64) ([]float64, error) {
	eig, err := factorize(m, false)
	if err != nil {
		return nil, err
	}
	return eig.Values(nil), nil
}

func factorize(m [][]float64, vectors bool) (*mat.EigenSym, error) {
	n := len(m)
	if n == 0 {
		return nil, fmt.Errorf("lina: empty matrix")
	}
	for i, row := range m {
		if len(row) != n {
			return nil, fmt.Errorf("lina: row %d has %d entries, want %d", i, len(row), n)
		}
	}

	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, m[i][j])
		}
	}

	var eig mat.EigenSym
	if !eig.Factorize(sym, vectors) {
		return nil, fmt.Errorf("%w (n=%d)", ErrNoConvergence, n)
	}
	return &eig, nil
}
