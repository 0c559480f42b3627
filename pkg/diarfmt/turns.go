package diarfmt

import (
	"fmt"
	"strings"

	"github.com/haivivi/diar/pkg/spkcluster"
)

// Turn is one contiguous speech span attributed to a speaker.
type Turn struct {
	// Speaker is the cluster label.
	Speaker int `json:"speaker" msgpack:"speaker"`

	// Start and End bound the span in seconds.
	Start float64 `json:"start" msgpack:"start"`
	End   float64 `json:"end" msgpack:"end"`
}

// Turns merges per-segment labels into speaker turns. Segments must be
// time-ordered and aligned with intervals; consecutive segments with the
// same label merge when the silence between them is at most tolerance
// seconds. Overlapping segments always merge.
func Turns(labels []int, intervals []string, tolerance float64) ([]Turn, error) {
	if len(labels) != len(intervals) {
		return nil, fmt.Errorf("diarfmt: %d labels but %d intervals", len(labels), len(intervals))
	}
	var turns []Turn
	for i, iv := range intervals {
		start, end, err := spkcluster.ParseInterval(iv)
		if err != nil {
			return nil, fmt.Errorf("diarfmt: segment %d: %w", i, err)
		}
		if n := len(turns); n > 0 {
			last := &turns[n-1]
			if last.Speaker == labels[i] && start-last.End <= tolerance {
				if end > last.End {
					last.End = end
				}
				continue
			}
		}
		turns = append(turns, Turn{Speaker: labels[i], Start: start, End: end})
	}
	return turns, nil
}

// RTTM renders turns as NIST RTTM speaker lines for the named recording,
// one line per turn:
//
//	SPEAKER <recording> 1 <start> <duration> <NA> <NA> speaker_<label> <NA> <NA>
func RTTM(recording string, turns []Turn) string {
	var b strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&b, "SPEAKER %s 1 %.3f %.3f <NA> <NA> speaker_%d <NA> <NA>\n",
			recording, t.Start, t.End-t.Start, t.Speaker)
	}
	return b.String()
}
