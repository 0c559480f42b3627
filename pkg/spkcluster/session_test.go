package spkcluster

import (
	"errors"
	"testing"
)

func TestParseInterval(t *testing.T) {
	start, end, err := ParseInterval("1.5 3.25")
	if err != nil {
		t.Fatalf("ParseInterval: %v", err)
	}
	if start != 1.5 || end != 3.25 {
		t.Errorf("got (%v, %v), want (1.5, 3.25)", start, end)
	}

	// Trailing fields are tolerated.
	if start, end, err = ParseInterval("2 4 speech"); err != nil || start != 2 || end != 4 {
		t.Errorf("got (%v, %v, %v), want (2, 4, nil)", start, end, err)
	}

	for _, bad := range []string{"", "1", "one two", "1 two"} {
		if _, _, err := ParseInterval(bad); err == nil {
			t.Errorf("ParseInterval(%q): want error", bad)
		}
	}
}

func TestMidpoints(t *testing.T) {
	s := Scale{Index: 0, Intervals: []string{"0 2", "1 2", "2.5 3.5"}}
	mids, err := midpoints(s)
	if err != nil {
		t.Fatalf("midpoints: %v", err)
	}
	want := []float64{1, 1.5, 3}
	for i := range want {
		if mids[i] != want[i] {
			t.Errorf("mid[%d] = %v, want %v", i, mids[i], want[i])
		}
	}
}

func TestSortedScalesAndBase(t *testing.T) {
	scales := []Scale{{Index: 2}, {Index: 0}, {Index: 1}}

	ordered := sortedScales(scales)
	for i, s := range ordered {
		if s.Index != i {
			t.Errorf("position %d has index %d", i, s.Index)
		}
	}
	// Input order preserved.
	if scales[0].Index != 2 {
		t.Error("sortedScales mutated its input")
	}

	if base := baseScale(scales); base.Index != 2 {
		t.Errorf("base index %d, want 2", base.Index)
	}
}

func TestValidateScales(t *testing.T) {
	valid := func() []Scale {
		return []Scale{{
			Index:      0,
			Weight:     1,
			Embeddings: [][]float32{basisVec(4, 0), basisVec(4, 1)},
			Intervals:  []string{"0 1", "1 2"},
		}}
	}
	if err := validateScales(valid()); err != nil {
		t.Fatalf("valid scales rejected: %v", err)
	}

	if err := validateScales(nil); !errors.Is(err, ErrNoScales) {
		t.Errorf("got %v, want ErrNoScales", err)
	}

	tests := []struct {
		name   string
		mutate func([]Scale) []Scale
	}{
		{"no embeddings", func(s []Scale) []Scale {
			s[0].Embeddings = nil
			s[0].Intervals = nil
			return s
		}},
		{"interval count mismatch", func(s []Scale) []Scale {
			s[0].Intervals = s[0].Intervals[:1]
			return s
		}},
		{"zero-dimension embeddings", func(s []Scale) []Scale {
			s[0].Embeddings = [][]float32{{}, {}}
			return s
		}},
		{"ragged dimensions", func(s []Scale) []Scale {
			s[0].Embeddings[1] = basisVec(5, 0)
			return s
		}},
		{"negative weight", func(s []Scale) []Scale {
			s[0].Weight = -1
			return s
		}},
		{"zero total weight", func(s []Scale) []Scale {
			s[0].Weight = 0
			return s
		}},
		{"duplicate index", func(s []Scale) []Scale {
			return append(s, valid()[0])
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := validateScales(tt.mutate(valid())); err == nil {
				t.Error("want error")
			}
		})
	}
}
