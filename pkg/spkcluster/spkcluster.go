// Package spkcluster groups speech segments by speaker without knowing
// the speaker count in advance.
//
// # Pipeline
//
// A session arrives as one or more temporal scales, each an ordered list
// of segment embeddings with "start end" intervals and a fusion weight.
// Cluster runs four stages:
//
//  1. FuseScales: per-scale cosine affinities → one fused matrix over
//     the finest scale's segments
//  2. RunNME: normalized maximum eigengap search → speaker count and a
//     sparsification threshold
//  3. SpectralEmbed: binarized affinity → low-dimensional spectral
//     coordinates
//  4. KMeans: spectral coordinates → per-segment speaker labels
//
// Each stage is exported for callers that need only part of the
// pipeline, e.g. RunNME alone for speaker counting.
//
// # Short Sessions
//
// Eigengap analysis needs enough segments to be reliable. Sessions at or
// under EnhancedCountThreshold segments route through EnhancedCount,
// which injects synthetic anchor speakers before estimating; a single
// segment short-circuits to label 0.
//
// # Randomness
//
// Every stochastic step derives its generator from Params.Seed via
// math/rand/v2 PCG. Same session, same parameters, same seed: same
// labels. There is no package-level random state.
//
// # Reference
//
// The estimator follows Park et al., "Auto-Tuning Spectral Clustering
// for Speaker Diarization Using Normalized Maximum Eigengap"
// (https://arxiv.org/abs/2003.02405).
package spkcluster

import (
	"fmt"

	"github.com/haivivi/diar/pkg/lina"
)

// CountMethod identifies which path produced a speaker-count estimate.
type CountMethod int

const (
	// CountEigengap means the count came from the NME eigengap search.
	CountEigengap CountMethod = iota

	// CountOracle means a caller-supplied count overrode estimation.
	CountOracle

	// CountEnhanced means the anchor-augmented short-session estimator
	// produced the count.
	CountEnhanced

	// CountSingle means the session has one segment.
	CountSingle
)

func (m CountMethod) String() string {
	switch m {
	case CountEigengap:
		return "eigengap"
	case CountOracle:
		return "oracle"
	case CountEnhanced:
		return "enhanced"
	case CountSingle:
		return "single"
	default:
		return fmt.Sprintf("CountMethod(%d)", int(m))
	}
}

// Params tunes the full clustering pipeline. The zero value is usable;
// zero fields take the documented defaults.
type Params struct {
	// MaxSpeakers caps the estimated speaker count. Default 8. An
	// oracle count replaces the cap.
	MaxSpeakers int

	// OracleSpeakers, when positive, is the known speaker count;
	// estimation is skipped and the value only clamped to the segment
	// count. Zero means unknown.
	OracleSpeakers int

	// MinSamplesForNME is the segment count above which the eigengap
	// search and graph sparsification run; at or below it the raw fused
	// affinity is clustered directly. Default 6.
	MinSamplesForNME int

	// EnhancedCountThreshold is the segment count at or below which the
	// anchor-augmented estimator supplies the speaker count. Default 80.
	EnhancedCountThreshold int

	// MaxRPThreshold bounds the eigengap search range as a fraction of
	// the matrix size. Default 0.15.
	MaxRPThreshold float64

	// SparseSearchVolume is the number of candidate neighbor counts the
	// eigengap search examines. Default 30.
	SparseSearchVolume int

	// FullSearch examines every neighbor count in range instead of the
	// sparse subset.
	FullSearch bool

	// SubsampleTarget bounds the matrix size used by the eigengap
	// search. Default 300; negative disables subsampling.
	SubsampleTarget int

	// FixedThreshold, when positive, pins the binarization threshold
	// and skips the eigengap search over candidates.
	FixedThreshold float64

	// Trials is the number of k-means restarts reconciled by majority
	// vote. Default 1.
	Trials int

	// Seed is the base seed for every stochastic stage (enhanced
	// counting, k-means). Zero is a valid seed, not a request for
	// entropy.
	Seed uint64

	// Backend performs the eigendecompositions. Nil means
	// lina.Default().
	Backend lina.Backend
}

func (p Params) withDefaults() Params {
	if p.MaxSpeakers <= 0 {
		p.MaxSpeakers = 8
	}
	if p.MinSamplesForNME <= 0 {
		p.MinSamplesForNME = 6
	}
	if p.EnhancedCountThreshold <= 0 {
		p.EnhancedCountThreshold = 80
	}
	if p.MaxRPThreshold <= 0 {
		p.MaxRPThreshold = 0.15
	}
	if p.SparseSearchVolume <= 0 {
		p.SparseSearchVolume = 30
	}
	if p.SubsampleTarget == 0 {
		p.SubsampleTarget = 300
	}
	if p.Trials <= 0 {
		p.Trials = 1
	}
	if p.Backend == nil {
		p.Backend = lina.Default()
	}
	return p
}

// Estimate reports a speaker count and how it was derived.
type Estimate struct {
	// Speakers is the final count, in [1, segment count].
	Speakers int

	// P is the neighbor count the affinity graph was binarized at; zero
	// when no eigengap search ran.
	P int

	// Score is the eigengap ratio g(p) at P; zero when no search ran.
	Score float64

	// Method identifies the path that produced Speakers.
	Method CountMethod
}

// Cluster labels every base-scale segment of a session with a speaker
// index in [0, speakers). Labels are indices, not identities: they are
// stable for one call but carry no meaning across sessions.
func Cluster(scales []Scale, p Params) ([]int, error) {
	p = p.withDefaults()
	graph, est, err := analyze(scales, p)
	if err != nil {
		return nil, err
	}
	if est.Method == CountSingle {
		return []int{0}, nil
	}
	emb, err := SpectralEmbed(graph, est.Speakers, p.Backend)
	if err != nil {
		return nil, err
	}
	return KMeans(emb, est.Speakers, p.Seed, p.Trials), nil
}

// EstimateSpeakers runs the pipeline up to count resolution and returns
// the estimate without clustering.
func EstimateSpeakers(scales []Scale, p Params) (Estimate, error) {
	_, est, err := analyze(scales, p.withDefaults())
	return est, err
}

// analyze fuses the scales and resolves the speaker count, returning the
// affinity graph to cluster on. Priority: oracle, then enhanced count,
// then eigengap estimate. Expects defaulted params. The graph is nil
// only for single-segment sessions.
func analyze(scales []Scale, p Params) ([][]float64, Estimate, error) {
	if err := validateScales(scales); err != nil {
		return nil, Estimate{}, err
	}
	n := len(baseScale(scales).Embeddings)
	if n == 1 {
		return nil, Estimate{Speakers: 1, Method: CountSingle}, nil
	}

	enhanced := 0
	if p.OracleSpeakers == 0 && n <= max(p.EnhancedCountThreshold, p.MinSamplesForNME) {
		var err error
		enhanced, err = EnhancedCount(baseScale(scales).Embeddings, p.Seed, p.Backend)
		if err != nil {
			return nil, Estimate{}, err
		}
	}

	maxSpeakers := p.MaxSpeakers
	if p.OracleSpeakers > 0 {
		maxSpeakers = p.OracleSpeakers
	}

	fused, _, err := FuseScales(scales)
	if err != nil {
		return nil, Estimate{}, err
	}

	graph := fused
	est := Estimate{Method: CountEigengap}
	if n > p.MinSamplesForNME {
		res, err := RunNME(fused, NMEConfig{
			MaxSpeakers:        maxSpeakers,
			MaxRPThreshold:     p.MaxRPThreshold,
			SparseSearchVolume: p.SparseSearchVolume,
			FullSearch:         p.FullSearch,
			SubsampleTarget:    p.SubsampleTarget,
			FixedThreshold:     p.FixedThreshold,
			Backend:            p.Backend,
		})
		if err != nil {
			return nil, Estimate{}, err
		}
		graph = Binarize(fused, res.P)
		est = Estimate{Speakers: res.Speakers, P: res.P, Score: res.Score, Method: CountEigengap}
	}

	switch {
	case p.OracleSpeakers > 0:
		est.Speakers = p.OracleSpeakers
		est.Method = CountOracle
	case enhanced > 0:
		est.Speakers = enhanced
		est.Method = CountEnhanced
	}
	if est.Speakers < 1 {
		est.Speakers = 1
	}
	if est.Speakers > n {
		est.Speakers = n
	}
	return graph, est, nil
}
