package spkcluster

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/haivivi/diar/pkg/lina"
)

const (
	// anchorSpeakers is the number of synthetic speakers injected per
	// trial.
	anchorSpeakers = 3

	// anchorSamples is the number of embeddings generated per synthetic
	// speaker.
	anchorSamples = 10

	// anchorSigma scales the anchor noise against the per-dimension
	// spread of the real embeddings.
	anchorSigma = 50.0

	// anchorTrials randomized estimates are reconciled by majority vote.
	anchorTrials = 5

	anchorSearchVolume = 50
	anchorSubsample    = 300
)

// EnhancedCount estimates the speaker count of a short session. Plain
// eigengap analysis is unreliable when segments are few, so each of
// anchorTrials trials injects anchorSpeakers synthetic speakers before
// the analysis and the known injected count is subtracted from the modal
// estimate afterwards. The result is at least 1. Trials draw from
// generators seeded seed, seed+1, …, so identical inputs and seeds give
// identical counts.
func EnhancedCount(embeddings [][]float32, seed uint64, backend lina.Backend) (int, error) {
	if len(embeddings) == 0 {
		return 0, fmt.Errorf("spkcluster: enhanced count needs at least 1 embedding")
	}
	estimates := make([]int, 0, anchorTrials)
	for trial := 0; trial < anchorTrials; trial++ {
		rng := newRNG(seed + uint64(trial))
		res, err := RunNME(CosAffinity(addAnchors(embeddings, rng)), NMEConfig{
			MaxSpeakers:        len(embeddings),
			SparseSearchVolume: anchorSearchVolume,
			SubsampleTarget:    anchorSubsample,
			Backend:            backend,
		})
		if err != nil {
			return 0, fmt.Errorf("spkcluster: enhanced count trial %d: %w", trial, err)
		}
		estimates = append(estimates, res.Speakers)
	}
	count := modeFirst(estimates) - anchorSpeakers
	if count < 1 {
		count = 1
	}
	return count, nil
}

// addAnchors prepends anchorSpeakers synthetic speakers to the real
// embeddings. Each synthetic speaker is a random center repeated
// anchorSamples times plus per-sample noise, normalized to its largest
// component and scaled by anchorSigma times the per-dimension standard
// deviation of the real embeddings, so the anchors spread across the
// same region of the space.
func addAnchors(embeddings [][]float32, rng *rand.Rand) [][]float32 {
	n := len(embeddings)
	dim := len(embeddings[0])
	mean := make([]float64, dim)
	for _, e := range embeddings {
		for d, v := range e {
			mean[d] += float64(v)
		}
	}
	for d := range mean {
		mean[d] /= float64(n)
	}
	std := make([]float64, dim)
	for _, e := range embeddings {
		for d, v := range e {
			diff := float64(v) - mean[d]
			std[d] += diff * diff
		}
	}
	for d := range std {
		std[d] = math.Sqrt(std[d] / float64(n))
	}

	out := make([][]float32, 0, anchorSpeakers*anchorSamples+n)
	center := make([]float64, dim)
	noise := make([]float64, dim)
	for s := 0; s < anchorSpeakers; s++ {
		for d := range center {
			center[d] = rng.NormFloat64()
		}
		for i := 0; i < anchorSamples; i++ {
			var m float64
			for d := range noise {
				noise[d] = rng.NormFloat64()
				if a := math.Abs(noise[d]); a > m {
					m = a
				}
			}
			if m == 0 {
				m = 1
			}
			row := make([]float32, dim)
			for d := range row {
				row[d] = float32(center[d] + anchorSigma*std[d]*noise[d]/m)
			}
			out = append(out, row)
		}
	}
	return append(out, embeddings...)
}

// modeFirst returns the most frequent value; ties resolve to the value
// encountered first.
func modeFirst(values []int) int {
	counts := make(map[int]int, len(values))
	order := make([]int, 0, len(values))
	for _, v := range values {
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}
	best := order[0]
	for _, v := range order[1:] {
		if counts[v] > counts[best] {
			best = v
		}
	}
	return best
}
