package diarfmt

import (
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/haivivi/diar/pkg/spkcluster"
)

func countDistinct(labels []int) int {
	seen := make(map[int]bool)
	for _, l := range labels {
		seen[l] = true
	}
	return len(seen)
}

func TestSynthesizeDefaults(t *testing.T) {
	s, labels := Synthesize(SynthConfig{Seed: 42})
	if len(s.Scales) != 1 {
		t.Fatalf("got %d scales, want 1", len(s.Scales))
	}
	if s.Segments() != 90 {
		t.Errorf("Segments = %d, want 90", s.Segments())
	}
	if s.Dim() != 192 {
		t.Errorf("Dim = %d, want 192", s.Dim())
	}
	if len(labels) != 90 {
		t.Fatalf("got %d labels, want 90", len(labels))
	}
	for i, l := range labels {
		if l < 0 || l >= 3 {
			t.Fatalf("label %d = %d, out of range", i, l)
		}
	}
	if got := countDistinct(labels); got != 3 {
		t.Errorf("%d distinct speakers, want 3", got)
	}
	if !strings.HasPrefix(s.ID, "sess_") || len(s.ID) != len("sess_")+12 {
		t.Errorf("unexpected session ID %q", s.ID)
	}
	if s.Source != "synthetic" {
		t.Errorf("Source = %q, want synthetic", s.Source)
	}
	if s.CreatedAt == 0 {
		t.Errorf("CreatedAt not set")
	}
	if iv := s.BaseIntervals()[0]; iv != "0 1.5" {
		t.Errorf("first interval = %q, want \"0 1.5\"", iv)
	}
	d, err := s.Duration()
	if err != nil {
		t.Fatalf("Duration: %v", err)
	}
	if want := 89*0.75 + 1.5; d != want {
		t.Errorf("Duration = %v, want %v", d, want)
	}
}

func TestSynthesizeDeterministic(t *testing.T) {
	cfg := SynthConfig{Speakers: 2, Segments: 20, Dim: 8, Scales: 2, Seed: 9}
	a, aLabels := Synthesize(cfg)
	b, bLabels := Synthesize(cfg)
	if !slices.Equal(aLabels, bLabels) {
		t.Errorf("labels differ between identical configs")
	}
	if !reflect.DeepEqual(a.Scales, b.Scales) {
		t.Errorf("scales differ between identical configs")
	}
	if a.ID == b.ID {
		t.Errorf("session IDs collide: %q", a.ID)
	}

	cfg.Seed = 10
	c, _ := Synthesize(cfg)
	aBase := a.Scales[len(a.Scales)-1].Embeddings[0]
	cBase := c.Scales[len(c.Scales)-1].Embeddings[0]
	if slices.Equal(aBase, cBase) {
		t.Errorf("different seeds produced identical embeddings")
	}
}

func TestSynthesizeMultiscale(t *testing.T) {
	s, _ := Synthesize(SynthConfig{Speakers: 2, Segments: 10, Dim: 4, Scales: 3, Seed: 3})
	if len(s.Scales) != 3 {
		t.Fatalf("got %d scales, want 3", len(s.Scales))
	}
	wantCounts := []int{3, 5, 10}
	for i, sc := range s.Scales {
		if sc.Index != i {
			t.Errorf("scale %d has index %d", i, sc.Index)
		}
		if sc.Weight != 1 {
			t.Errorf("scale %d weight = %v, want 1", i, sc.Weight)
		}
		if len(sc.Embeddings) != wantCounts[i] {
			t.Errorf("scale %d has %d segments, want %d", i, len(sc.Embeddings), wantCounts[i])
		}
		if len(sc.Intervals) != len(sc.Embeddings) {
			t.Errorf("scale %d has %d intervals for %d segments", i, len(sc.Intervals), len(sc.Embeddings))
		}
	}

	wantCoarse := []string{"0 3.75", "3 6.75", "6 8.25"}
	if !slices.Equal(s.Scales[0].Intervals, wantCoarse) {
		t.Errorf("coarse intervals = %v, want %v", s.Scales[0].Intervals, wantCoarse)
	}
	if iv := s.Scales[1].Intervals[0]; iv != "0 2.25" {
		t.Errorf("mid interval = %q, want \"0 2.25\"", iv)
	}

	// Each mid-scale segment is the mean of two consecutive base ones.
	base := s.Scales[2].Embeddings
	for j, v := range s.Scales[1].Embeddings {
		lo := base[2*j]
		hi := lo
		if 2*j+1 < len(base) {
			hi = base[2*j+1]
		}
		for d := range v {
			mean := (lo[d] + hi[d]) / 2
			if diff := v[d] - mean; diff < -1e-6 || diff > 1e-6 {
				t.Fatalf("mid scale segment %d dim %d = %v, want %v", j, d, v[d], mean)
			}
		}
	}
}

func TestSynthesizeSingleSpeaker(t *testing.T) {
	_, labels := Synthesize(SynthConfig{Speakers: 1, Segments: 5, Dim: 3, Seed: 1})
	for i, l := range labels {
		if l != 0 {
			t.Errorf("label %d = %d, want 0", i, l)
		}
	}
}

func TestSynthesizeSpeakerClamp(t *testing.T) {
	_, labels := Synthesize(SynthConfig{Speakers: 9, Segments: 4, Dim: 3, Seed: 2})
	if len(labels) != 4 {
		t.Fatalf("got %d labels, want 4", len(labels))
	}
	for i, l := range labels {
		if l < 0 || l >= 4 {
			t.Errorf("label %d = %d, out of range", i, l)
		}
	}
}

func TestSynthesizePanicsNegative(t *testing.T) {
	tests := []struct {
		name string
		cfg  SynthConfig
	}{
		{"dim", SynthConfig{Dim: -1}},
		{"speakers", SynthConfig{Speakers: -2}},
		{"noise", SynthConfig{Noise: -0.1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("Synthesize(%+v) did not panic", tt.cfg)
				}
			}()
			Synthesize(tt.cfg)
		})
	}
}

func TestSynthesizeSeparation(t *testing.T) {
	s, labels := Synthesize(SynthConfig{Speakers: 3, Segments: 30, Dim: 64, Seed: 5})
	aff := spkcluster.CosAffinity(s.Scales[0].Embeddings)
	var within, cross float64
	var nw, nc int
	for i := range aff {
		for j := i + 1; j < len(aff); j++ {
			if labels[i] == labels[j] {
				within += aff[i][j]
				nw++
			} else {
				cross += aff[i][j]
				nc++
			}
		}
	}
	within /= float64(nw)
	cross /= float64(nc)
	t.Logf("mean affinity: within %.3f, cross %.3f", within, cross)
	if within <= cross {
		t.Errorf("within-speaker affinity %.3f not above cross-speaker %.3f", within, cross)
	}
}

func TestClusterSynthesized(t *testing.T) {
	s, _ := Synthesize(SynthConfig{Speakers: 2, Segments: 40, Dim: 64, Noise: 0.03, MeanTurn: 10, Seed: 11})
	labels, err := spkcluster.Cluster(s.ClusterScales(), spkcluster.Params{Seed: 1})
	if err != nil {
		t.Fatalf("Cluster: %v", err)
	}
	if len(labels) != s.Segments() {
		t.Fatalf("got %d labels for %d segments", len(labels), s.Segments())
	}
	for i, l := range labels {
		if l < 0 || l >= s.Segments() {
			t.Errorf("label %d = %d, out of range", i, l)
		}
	}
	t.Logf("%d distinct labels for 2 synthesized speakers", countDistinct(labels))
}
