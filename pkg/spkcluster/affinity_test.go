package spkcluster

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
)

func TestCosAffinityProperties(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 0))
	emb := threeSpeakerEmbeddings(10, rng)

	aff := CosAffinity(emb)
	n := len(emb)
	if len(aff) != n {
		t.Fatalf("got %d rows, want %d", len(aff), n)
	}
	for i := range aff {
		if len(aff[i]) != n {
			t.Fatalf("row %d has %d entries, want %d", i, len(aff[i]), n)
		}
		if aff[i][i] != 1 {
			t.Errorf("diagonal [%d][%d] = %v, want 1", i, i, aff[i][i])
		}
		for j := range aff[i] {
			if aff[i][j] != aff[j][i] {
				t.Errorf("asymmetric at [%d][%d]: %v vs %v", i, j, aff[i][j], aff[j][i])
			}
			if aff[i][j] < 0 || aff[i][j] > 1 {
				t.Errorf("entry [%d][%d] = %v outside [0, 1]", i, j, aff[i][j])
			}
		}
	}
}

func TestCosAffinitySeparation(t *testing.T) {
	rng := rand.New(rand.NewPCG(6, 0))
	var emb [][]float32
	emb = append(emb, makeCluster(basisVec(10, 0), 5, 0.05, rng)...)
	emb = append(emb, makeCluster(basisVec(10, 1), 5, 0.05, rng)...)

	aff := CosAffinity(emb)
	var minWithin, maxCross float64 = 1, 0
	for i := 0; i < 10; i++ {
		for j := 0; j < 10; j++ {
			if i == j {
				continue
			}
			within := (i < 5) == (j < 5)
			if within && aff[i][j] < minWithin {
				minWithin = aff[i][j]
			}
			if !within && aff[i][j] > maxCross {
				maxCross = aff[i][j]
			}
		}
	}
	t.Logf("min within-cluster %.3f, max cross-cluster %.3f", minWithin, maxCross)
	if minWithin <= maxCross {
		t.Errorf("want within-cluster affinity (%.3f) above cross-cluster (%.3f)", minWithin, maxCross)
	}
}

func TestCosAffinityIdentical(t *testing.T) {
	emb := [][]float32{basisVec(8, 1), basisVec(8, 1), basisVec(8, 1)}
	aff := CosAffinity(emb)
	for i := range aff {
		for j := range aff[i] {
			if aff[i][j] != 1 {
				t.Fatalf("entry [%d][%d] = %v, want 1 for identical embeddings", i, j, aff[i][j])
			}
		}
	}
}

func TestMinMaxScaleConstant(t *testing.T) {
	m := [][]float64{{0.4, 0.4}, {0.4, 0.4}}
	out := minMaxScale(m)
	for i := range out {
		for j := range out[i] {
			if out[i][j] != 1 {
				t.Errorf("entry [%d][%d] = %v, want 1", i, j, out[i][j])
			}
		}
	}
}

func TestFuseScalesSingleScale(t *testing.T) {
	rng := rand.New(rand.NewPCG(8, 0))
	emb := makeCluster(basisVec(6, 0), 8, 0.2, rng)
	scales := []Scale{{
		Index:      0,
		Weight:     2,
		Embeddings: emb,
		Intervals:  synthIntervals(8, 0.5, 1.0),
	}}

	fused, base, err := FuseScales(scales)
	if err != nil {
		t.Fatalf("FuseScales: %v", err)
	}
	if base.Index != 0 {
		t.Errorf("base index %d, want 0", base.Index)
	}

	// A single scale gets weight 1 after normalization, so fusion is the
	// plain cosine affinity.
	want := CosAffinity(emb)
	for i := range fused {
		for j := range fused[i] {
			if fused[i][j] != want[i][j] {
				t.Fatalf("fused[%d][%d] = %v, want %v", i, j, fused[i][j], want[i][j])
			}
		}
	}
}

func TestFuseScalesWeightNormalization(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 0))
	base := makeCluster(basisVec(6, 0), 8, 0.2, rng)
	coarse := makeCluster(basisVec(6, 1), 4, 0.2, rng)

	build := func(wCoarse, wBase float64) [][]float64 {
		fused, _, err := FuseScales([]Scale{
			{Index: 0, Weight: wCoarse, Embeddings: coarse, Intervals: synthIntervals(4, 1.0, 2.0)},
			{Index: 1, Weight: wBase, Embeddings: base, Intervals: synthIntervals(8, 0.5, 1.0)},
		})
		if err != nil {
			t.Fatalf("FuseScales: %v", err)
		}
		return fused
	}

	// Only the weight ratio matters.
	a := build(1, 3)
	b := build(0.25, 0.75)
	for i := range a {
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				t.Fatalf("weights (1,3) and (0.25,0.75) disagree at [%d][%d]: %v vs %v",
					i, j, a[i][j], b[i][j])
			}
		}
	}

	for i := range a {
		if d := math.Abs(a[i][i] - 1); d > 1e-12 {
			t.Errorf("fused diagonal [%d][%d] = %v, want 1", i, i, a[i][i])
		}
		for j := range a[i] {
			if a[i][j] != a[j][i] {
				t.Errorf("fused asymmetric at [%d][%d]", i, j)
			}
			if a[i][j] < -1e-12 || a[i][j] > 1+1e-12 {
				t.Errorf("fused entry [%d][%d] = %v outside [0, 1]", i, j, a[i][j])
			}
		}
	}
}

func TestFuseScalesBaseScale(t *testing.T) {
	rng := rand.New(rand.NewPCG(10, 0))
	fine := makeCluster(basisVec(6, 0), 6, 0.2, rng)
	coarse := makeCluster(basisVec(6, 0), 3, 0.2, rng)

	// Scale order in the slice must not matter; the highest index wins.
	fused, base, err := FuseScales([]Scale{
		{Index: 1, Weight: 1, Embeddings: fine, Intervals: synthIntervals(6, 0.5, 1.0)},
		{Index: 0, Weight: 1, Embeddings: coarse, Intervals: synthIntervals(3, 1.0, 2.0)},
	})
	if err != nil {
		t.Fatalf("FuseScales: %v", err)
	}
	if base.Index != 1 {
		t.Errorf("base index %d, want 1", base.Index)
	}
	if len(fused) != 6 {
		t.Errorf("fused size %d, want base-scale size 6", len(fused))
	}
}

func TestFuseScalesErrors(t *testing.T) {
	if _, _, err := FuseScales(nil); !errors.Is(err, ErrNoScales) {
		t.Errorf("no scales: got %v, want ErrNoScales", err)
	}

	tests := []struct {
		name   string
		scales []Scale
	}{
		{"no embeddings", []Scale{{Index: 0, Weight: 1}}},
		{"interval count mismatch", []Scale{{
			Index: 0, Weight: 1,
			Embeddings: [][]float32{basisVec(4, 0)},
			Intervals:  []string{"0 1", "1 2"},
		}}},
		{"bad interval", []Scale{{
			Index: 0, Weight: 1,
			Embeddings: [][]float32{basisVec(4, 0), basisVec(4, 1)},
			Intervals:  []string{"0 1", "one two"},
		}}},
		{"duplicate index", []Scale{
			{Index: 0, Weight: 1, Embeddings: [][]float32{basisVec(4, 0)}, Intervals: []string{"0 1"}},
			{Index: 0, Weight: 1, Embeddings: [][]float32{basisVec(4, 1)}, Intervals: []string{"0 1"}},
		}},
		{"zero weights", []Scale{{
			Index: 0, Weight: 0,
			Embeddings: [][]float32{basisVec(4, 0)},
			Intervals:  []string{"0 1"},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := FuseScales(tt.scales); err == nil {
				t.Error("want error")
			}
		})
	}
}
