package spkcluster

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Scale is one temporal resolution of a session: the embeddings extracted
// with one window length, their time intervals, and the weight this scale
// contributes to the fused affinity matrix.
//
// Scales are ordered by Index from coarsest to finest. The scale with the
// highest Index is the base scale; cluster labels are produced at its
// resolution.
type Scale struct {
	// Index is the resolution rank of the scale. Higher means finer.
	Index int

	// Weight is the fusion weight of this scale. Weights are normalized
	// across scales during fusion, so only their ratio matters.
	Weight float64

	// Embeddings holds one speaker embedding per segment, all of the
	// same dimension.
	Embeddings [][]float32

	// Intervals holds one "start end" time interval (in seconds) per
	// segment, aligned with Embeddings.
	Intervals []string
}

// sortedScales returns a copy of scales ordered by ascending Index.
func sortedScales(scales []Scale) []Scale {
	out := make([]Scale, len(scales))
	copy(out, scales)
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// baseScale returns the scale with the highest index.
func baseScale(scales []Scale) Scale {
	base := scales[0]
	for _, s := range scales[1:] {
		if s.Index > base.Index {
			base = s
		}
	}
	return base
}

// validateScales checks that every scale is internally consistent: at
// least one segment, intervals aligned with embeddings, and a single
// embedding dimension per scale.
func validateScales(scales []Scale) error {
	if len(scales) == 0 {
		return ErrNoScales
	}
	var totalWeight float64
	for _, s := range scales {
		if len(s.Embeddings) == 0 {
			return fmt.Errorf("spkcluster: scale %d has no embeddings", s.Index)
		}
		if len(s.Intervals) != len(s.Embeddings) {
			return fmt.Errorf("spkcluster: scale %d has %d embeddings but %d intervals",
				s.Index, len(s.Embeddings), len(s.Intervals))
		}
		dim := len(s.Embeddings[0])
		if dim == 0 {
			return fmt.Errorf("spkcluster: scale %d has zero-dimension embeddings", s.Index)
		}
		for i, e := range s.Embeddings {
			if len(e) != dim {
				return fmt.Errorf("spkcluster: scale %d segment %d has dimension %d, want %d",
					s.Index, i, len(e), dim)
			}
		}
		if s.Weight < 0 {
			return fmt.Errorf("spkcluster: scale %d has negative weight %v", s.Index, s.Weight)
		}
		totalWeight += s.Weight
	}
	if totalWeight <= 0 {
		return fmt.Errorf("spkcluster: scale weights sum to %v, want > 0", totalWeight)
	}
	seen := make(map[int]bool, len(scales))
	for _, s := range scales {
		if seen[s.Index] {
			return fmt.Errorf("spkcluster: duplicate scale index %d", s.Index)
		}
		seen[s.Index] = true
	}
	return nil
}

// ParseInterval parses a "start end" interval string into seconds.
// Extra fields after the first two are ignored.
func ParseInterval(s string) (start, end float64, err error) {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return 0, 0, fmt.Errorf("spkcluster: interval %q: want \"start end\"", s)
	}
	start, err = strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("spkcluster: interval %q: %w", s, err)
	}
	end, err = strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("spkcluster: interval %q: %w", s, err)
	}
	return start, end, nil
}

// midpoints returns the interval midpoints of a scale, used as anchors
// when mapping segments between scales.
func midpoints(s Scale) ([]float64, error) {
	mids := make([]float64, len(s.Intervals))
	for i, iv := range s.Intervals {
		start, end, err := ParseInterval(iv)
		if err != nil {
			return nil, fmt.Errorf("scale %d segment %d: %w", s.Index, i, err)
		}
		mids[i] = (start + end) / 2
	}
	return mids, nil
}
