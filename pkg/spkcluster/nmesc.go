package spkcluster

import (
	"fmt"

	"github.com/haivivi/diar/pkg/lina"
)

// nmeEps guards the eigengap ratio against division by zero.
const nmeEps = 1e-10

// NMEConfig configures one Normalized Maximum Eigengap (NME) analysis.
// The zero value is usable; zero fields take the documented defaults.
// The record is passed by value and never mutated, so one config can be
// shared across calls.
type NMEConfig struct {
	// MaxSpeakers caps the speaker-count estimate. Default 10.
	MaxSpeakers int

	// MaxRPThreshold bounds the neighbor-count search range as a
	// fraction of the (possibly subsampled) matrix size. Default 0.15.
	MaxRPThreshold float64

	// SparseSearchVolume is the number of candidate neighbor counts
	// examined when the sparse search is active. Default 30; lower is
	// faster, below ~20 estimates degrade.
	SparseSearchVolume int

	// FullSearch examines every neighbor count in range instead of the
	// sparse subset.
	FullSearch bool

	// SubsampleTarget is the matrix size the affinity matrix is stride
	// subsampled down to before the eigendecompositions, the main lever
	// for bounding latency on long sessions. Default 512; negative
	// disables subsampling.
	SubsampleTarget int

	// FixedThreshold, when positive, skips the search entirely and
	// derives the single neighbor count floor(n·FixedThreshold). Tuning
	// it on a development set trades robustness for speed.
	FixedThreshold float64

	// Backend performs the eigendecompositions. Nil means lina.Default().
	Backend lina.Backend
}

func (c NMEConfig) withDefaults() NMEConfig {
	if c.MaxSpeakers <= 0 {
		c.MaxSpeakers = 10
	}
	if c.MaxRPThreshold <= 0 {
		c.MaxRPThreshold = 0.15
	}
	if c.SparseSearchVolume <= 0 {
		c.SparseSearchVolume = 30
	}
	if c.SubsampleTarget == 0 {
		c.SubsampleTarget = 512
	}
	if c.Backend == nil {
		c.Backend = lina.Default()
	}
	return c
}

// NMEResult is the outcome of one NME analysis.
type NMEResult struct {
	// Speakers is the estimated speaker count, in [1, MaxSpeakers].
	Speakers int

	// P is the chosen neighbor count, rescaled to the full matrix
	// dimension when subsampling was applied.
	P int

	// Score is g(p) for the chosen neighbor count; smaller means a
	// sparser graph with a sharper eigengap.
	Score float64
}

// RunNME searches candidate neighbor counts on the affinity matrix and
// returns the one minimizing the eigengap ratio
//
//	g(p) = (p/n) / (maxGap/(maxEig+ε) + ε)
//
// together with the speaker-count estimate at that neighbor count. The
// selected graph is checked for full connectivity and repaired over the
// candidate range when disconnected.
func RunNME(aff [][]float64, cfg NMEConfig) (NMEResult, error) {
	cfg = cfg.withDefaults()
	n := len(aff)
	if n < 2 {
		return NMEResult{}, fmt.Errorf("spkcluster: nme analysis needs at least 2 segments, got %d", n)
	}
	for i, row := range aff {
		if len(row) != n {
			return NMEResult{}, fmt.Errorf("%w: row %d has %d entries, want %d", ErrNotSquare, i, len(row), n)
		}
	}

	sub, ratio := subsample(aff, cfg.SubsampleTarget)
	m := len(sub)
	candidates, maxN := candidateList(m, cfg)

	scores := make(map[int]float64, len(candidates))
	speakers := make(map[int]int, len(candidates))
	bestP := candidates[0]
	for i, p := range candidates {
		est, g, err := eigRatio(sub, p, cfg.MaxSpeakers, cfg.Backend)
		if err != nil {
			return NMEResult{}, fmt.Errorf("spkcluster: nme candidate p=%d (n=%d): %w", p, m, err)
		}
		scores[p] = g
		speakers[p] = est
		if i == 0 || g < scores[bestP] {
			bestP = p
		}
	}

	if graph := Binarize(sub, bestP); !IsFullyConnected(graph) {
		_, bestP = RepairConnectivity(sub, candidates, maxN)
	}

	return NMEResult{
		Speakers: speakers[bestP],
		P:        ratio * bestP,
		Score:    scores[bestP],
	}, nil
}

// subsample strides the affinity matrix down to roughly target×target and
// returns the stride. Matrices at or under the target pass through
// unchanged with stride 1.
func subsample(aff [][]float64, target int) ([][]float64, int) {
	n := len(aff)
	if target <= 0 || n <= target {
		return aff, 1
	}
	r := n / target
	rows := (n + r - 1) / r
	out := make([][]float64, 0, rows)
	for i := 0; i < n; i += r {
		row := make([]float64, 0, rows)
		for j := 0; j < n; j += r {
			row = append(row, aff[i][j])
		}
		out = append(out, row)
	}
	return out, r
}

// candidateList builds the neighbor counts to examine for an n×n matrix,
// ascending and deduplicated, plus the search bound maxN. The list is
// never empty: p=1 is always a valid candidate.
func candidateList(n int, cfg NMEConfig) ([]int, int) {
	if cfg.FixedThreshold > 0 {
		p := int(float64(n) * cfg.FixedThreshold)
		if p < 1 {
			p = 1
		}
		if p > n {
			p = n
		}
		return []int{p}, p
	}

	maxN := int(float64(n) * cfg.MaxRPThreshold)
	if maxN < 1 {
		maxN = 1
	}
	if cfg.FullSearch {
		ps := make([]int, 0, maxN)
		for p := 1; p <= maxN; p++ {
			ps = append(ps, p)
		}
		return ps, maxN
	}

	steps := cfg.SparseSearchVolume
	if steps > maxN {
		steps = maxN
	}
	ps := make([]int, 0, steps)
	seen := make(map[int]bool, steps)
	for i := 0; i < steps; i++ {
		v := 1.0
		if steps > 1 {
			v = 1 + float64(i)*float64(maxN-1)/float64(steps-1)
		}
		if p := int(v); !seen[p] {
			seen[p] = true
			ps = append(ps, p)
		}
	}
	return ps, maxN
}

// eigRatio binarizes at neighbor count p and scores the resulting graph:
// the speaker-count estimate from the largest eigengap, and g(p), the
// ratio of relative neighbor density to relative spectral separation.
func eigRatio(aff [][]float64, p, maxSpeakers int, be lina.Backend) (est int, g float64, err error) {
	graph := Binarize(aff, p)
	est, values, gaps, err := estimateFromGraph(graph, maxSpeakers, be)
	if err != nil {
		return 0, 0, err
	}
	var maxGap float64
	if len(gaps) > 0 {
		maxGap = gaps[est-1] / (values[len(values)-1] + nmeEps)
	}
	g = (float64(p) / float64(len(aff))) / (maxGap + nmeEps)
	return est, g, nil
}

// estimateFromGraph eigendecomposes the graph Laplacian and derives the
// speaker-count estimate: the index of the largest of the first
// min(maxSpeakers, n−1) eigengaps, plus one. The first maximum wins on
// ties. The ascending eigenvalues and their gaps are returned for score
// computation.
func estimateFromGraph(graph [][]float64, maxSpeakers int, be lina.Backend) (int, []float64, []float64, error) {
	values, err := be.SymEigValues(Laplacian(graph))
	if err != nil {
		return 0, nil, nil, err
	}
	gaps := eigengaps(values)
	if len(gaps) == 0 {
		return 1, values, gaps, nil
	}
	limit := maxSpeakers
	if limit > len(gaps) {
		limit = len(gaps)
	}
	best := 0
	for i := 1; i < limit; i++ {
		if gaps[i] > gaps[best] {
			best = i
		}
	}
	return best + 1, values, gaps, nil
}
