// Package diarfmt defines the session file format carrying multiscale
// speaker embeddings into clustering, and the turn/RTTM output side
// mapping labels back to time.
//
// # Session Files
//
// A [Session] holds everything one recording needs for clustering: per
// scale an ordered list of segment embeddings, their "start end"
// intervals, and a fusion weight. Two encodings are supported:
//
//   - JSON, human-inspectable, extension .json
//   - msgpack, compact, extension .dsess
//
// [ReadFile] and [WriteFile] pick the codec from the extension.
//
// # Output
//
// [Turns] merges per-segment speaker labels into contiguous speaker
// turns; [RTTM] renders turns in the NIST RTTM line format consumed by
// diarization scoring tools.
package diarfmt

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/haivivi/diar/pkg/spkcluster"
)

// SessionScale is one temporal resolution of a session. Higher Index
// means finer resolution; the highest index is the base scale whose
// segments receive labels.
type SessionScale struct {
	// Index is the resolution rank of the scale.
	Index int `json:"index" msgpack:"index"`

	// Weight is the fusion weight; only ratios between scales matter.
	Weight float64 `json:"weight" msgpack:"weight"`

	// Embeddings holds one speaker embedding per segment.
	Embeddings [][]float32 `json:"embeddings" msgpack:"embeddings"`

	// Intervals holds one "start end" interval (seconds) per segment.
	Intervals []string `json:"intervals" msgpack:"intervals"`
}

// Session is the clustering input for one recording.
type Session struct {
	// ID identifies the session, e.g. in RTTM output.
	ID string `json:"id" msgpack:"id"`

	// Source optionally names where the embeddings came from, such as
	// an audio file path.
	Source string `json:"source,omitempty" msgpack:"source,omitempty"`

	// CreatedAt is the Unix timestamp in nanoseconds when the session
	// was assembled. Zero when unknown.
	CreatedAt int64 `json:"ts,omitempty" msgpack:"ts,omitempty"`

	// Scales holds the temporal resolutions, any order.
	Scales []SessionScale `json:"scales" msgpack:"scales"`
}

// NewSession wraps scales in a Session with a fresh random ID.
func NewSession(scales ...SessionScale) *Session {
	return &Session{
		ID:     "sess_" + uuid.New().String()[:12],
		Scales: scales,
	}
}

// ClusterScales converts the session into the clustering input form.
// The underlying embedding and interval slices are shared, not copied.
func (s *Session) ClusterScales() []spkcluster.Scale {
	out := make([]spkcluster.Scale, len(s.Scales))
	for i, sc := range s.Scales {
		out[i] = spkcluster.Scale{
			Index:      sc.Index,
			Weight:     sc.Weight,
			Embeddings: sc.Embeddings,
			Intervals:  sc.Intervals,
		}
	}
	return out
}

// base returns the scale with the highest index, or nil for an empty
// session.
func (s *Session) base() *SessionScale {
	if len(s.Scales) == 0 {
		return nil
	}
	b := &s.Scales[0]
	for i := range s.Scales[1:] {
		if s.Scales[i+1].Index > b.Index {
			b = &s.Scales[i+1]
		}
	}
	return b
}

// Segments returns the base-scale segment count.
func (s *Session) Segments() int {
	b := s.base()
	if b == nil {
		return 0
	}
	return len(b.Embeddings)
}

// Dim returns the embedding dimension of the base scale, 0 when empty.
func (s *Session) Dim() int {
	b := s.base()
	if b == nil || len(b.Embeddings) == 0 {
		return 0
	}
	return len(b.Embeddings[0])
}

// BaseIntervals returns the base-scale interval strings, aligned with
// the labels Cluster produces.
func (s *Session) BaseIntervals() []string {
	b := s.base()
	if b == nil {
		return nil
	}
	return b.Intervals
}

// Duration returns the span in seconds from the earliest interval start
// to the latest interval end across the base scale, or an error when an
// interval does not parse.
func (s *Session) Duration() (float64, error) {
	b := s.base()
	if b == nil || len(b.Intervals) == 0 {
		return 0, nil
	}
	first, _, err := spkcluster.ParseInterval(b.Intervals[0])
	if err != nil {
		return 0, fmt.Errorf("diarfmt: %w", err)
	}
	last := first
	for _, iv := range b.Intervals {
		start, end, err := spkcluster.ParseInterval(iv)
		if err != nil {
			return 0, fmt.Errorf("diarfmt: %w", err)
		}
		if start < first {
			first = start
		}
		if end > last {
			last = end
		}
	}
	return last - first, nil
}
