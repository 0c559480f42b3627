package diarfmt

import (
	"reflect"
	"testing"
)

func TestTurnsMergesOverlap(t *testing.T) {
	labels := []int{0, 0, 1, 1, 0}
	intervals := []string{"0 1.5", "0.75 2.25", "1.5 3", "2.25 3.75", "3 4.5"}
	got, err := Turns(labels, intervals, 0)
	if err != nil {
		t.Fatalf("Turns: %v", err)
	}
	want := []Turn{
		{Speaker: 0, Start: 0, End: 2.25},
		{Speaker: 1, Start: 1.5, End: 3.75},
		{Speaker: 0, Start: 3, End: 4.5},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Turns = %+v, want %+v", got, want)
	}
}

func TestTurnsTolerance(t *testing.T) {
	labels := []int{0, 0}
	intervals := []string{"0 1", "1.5 2.5"}
	tests := []struct {
		name string
		tol  float64
		want int
	}{
		{"below gap", 0.25, 2},
		{"at gap", 0.5, 1},
		{"above gap", 10, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Turns(labels, intervals, tt.tol)
			if err != nil {
				t.Fatalf("Turns: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d turns, want %d", len(got), tt.want)
			}
		})
	}
}

func TestTurnsContainedSegment(t *testing.T) {
	got, err := Turns([]int{0, 0}, []string{"0 4", "1 2"}, 0)
	if err != nil {
		t.Fatalf("Turns: %v", err)
	}
	want := []Turn{{Speaker: 0, Start: 0, End: 4}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Turns = %+v, want %+v", got, want)
	}
}

func TestTurnsErrors(t *testing.T) {
	if _, err := Turns([]int{0, 1}, []string{"0 1"}, 0); err == nil {
		t.Errorf("length mismatch did not fail")
	}
	if _, err := Turns([]int{0}, []string{"zero one"}, 0); err == nil {
		t.Errorf("bad interval did not fail")
	}
	got, err := Turns(nil, nil, 0)
	if err != nil {
		t.Fatalf("Turns(nil, nil): %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Turns(nil, nil) = %+v, want none", got)
	}
}

func TestRTTM(t *testing.T) {
	turns := []Turn{
		{Speaker: 0, Start: 0, End: 2.25},
		{Speaker: 1, Start: 2.25, End: 3},
	}
	want := "SPEAKER rec 1 0.000 2.250 <NA> <NA> speaker_0 <NA> <NA>\n" +
		"SPEAKER rec 1 2.250 0.750 <NA> <NA> speaker_1 <NA> <NA>\n"
	if got := RTTM("rec", turns); got != want {
		t.Errorf("RTTM:\n%q\nwant:\n%q", got, want)
	}
	if got := RTTM("rec", nil); got != "" {
		t.Errorf("RTTM with no turns = %q, want empty", got)
	}
}
