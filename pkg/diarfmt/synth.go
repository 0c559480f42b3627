package diarfmt

import (
	"math"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Segment timing of synthesized sessions, matching a 1.5s window with
// 0.75s hop.
const (
	synthHop    = 0.75
	synthWindow = 1.5
)

// SynthConfig configures Synthesize. The zero value is usable; zero
// fields take the documented defaults.
type SynthConfig struct {
	// Speakers is the number of synthetic speakers. Default 3; clamped
	// to Segments.
	Speakers int `json:"speakers,omitempty" yaml:"speakers,omitempty"`

	// Segments is the base-scale segment count. Default 90.
	Segments int `json:"segments,omitempty" yaml:"segments,omitempty"`

	// Dim is the embedding dimension. Default 192.
	Dim int `json:"dim,omitempty" yaml:"dim,omitempty"`

	// Scales is the number of temporal resolutions. Default 1; each
	// extra scale halves the segment rate by averaging neighbors.
	Scales int `json:"scales,omitempty" yaml:"scales,omitempty"`

	// Noise is the per-dimension standard deviation around each
	// speaker's centroid. Default 0.05.
	Noise float64 `json:"noise,omitempty" yaml:"noise,omitempty"`

	// MeanTurn is the mean number of consecutive segments per speaker
	// turn. Default 6.
	MeanTurn int `json:"mean_turn,omitempty" yaml:"mean_turn,omitempty"`

	// Seed drives all draws. Same config and seed give the same
	// embeddings and labels.
	Seed uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`
}

func (c SynthConfig) withDefaults() SynthConfig {
	if c.Speakers == 0 {
		c.Speakers = 3
	}
	if c.Segments == 0 {
		c.Segments = 90
	}
	if c.Dim == 0 {
		c.Dim = 192
	}
	if c.Scales == 0 {
		c.Scales = 1
	}
	if c.Noise == 0 {
		c.Noise = 0.05
	}
	if c.MeanTurn == 0 {
		c.MeanTurn = 6
	}
	return c
}

// Synthesize builds a session with known speaker turns, for tests,
// benchmarks and demos, and returns it with the ground-truth base-scale
// labels. Speakers take turns in shuffled round-robin order with
// uniformly random turn lengths averaging MeanTurn segments. Negative
// config values panic.
func Synthesize(cfg SynthConfig) (*Session, []int) {
	cfg = cfg.withDefaults()
	if cfg.Speakers < 0 || cfg.Segments < 0 || cfg.Dim < 0 ||
		cfg.Scales < 0 || cfg.MeanTurn < 0 || cfg.Noise < 0 {
		panic("diarfmt: negative synth config value")
	}
	if cfg.Speakers > cfg.Segments {
		cfg.Speakers = cfg.Segments
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0xdeadbeef))

	centroids := make([][]float64, cfg.Speakers)
	for s := range centroids {
		c := make([]float64, cfg.Dim)
		var norm float64
		for d := range c {
			c[d] = rng.NormFloat64()
			norm += c[d] * c[d]
		}
		norm = math.Sqrt(norm)
		for d := range c {
			c[d] /= norm
		}
		centroids[s] = c
	}

	// Shuffled round-robin keeps speaker time roughly balanced while
	// still alternating naturally.
	labels := make([]int, 0, cfg.Segments)
	order := rng.Perm(cfg.Speakers)
	pos := 0
	for len(labels) < cfg.Segments {
		if pos == len(order) {
			rng.Shuffle(len(order), func(i, j int) {
				order[i], order[j] = order[j], order[i]
			})
			pos = 0
		}
		spk := order[pos]
		pos++
		run := 1 + rng.IntN(2*cfg.MeanTurn-1)
		for range run {
			labels = append(labels, spk)
			if len(labels) == cfg.Segments {
				break
			}
		}
	}

	base := make([][]float32, cfg.Segments)
	intervals := make([]string, cfg.Segments)
	for i := range base {
		c := centroids[labels[i]]
		v := make([]float32, cfg.Dim)
		for d := range v {
			v[d] = float32(c[d] + rng.NormFloat64()*cfg.Noise)
		}
		base[i] = v
		start := float64(i) * synthHop
		intervals[i] = formatInterval(start, start+synthWindow)
	}

	scales := make([]SessionScale, 0, cfg.Scales)
	for s := 0; s < cfg.Scales; s++ {
		group := 1 << (cfg.Scales - 1 - s)
		if group == 1 {
			scales = append(scales, SessionScale{
				Index:      s,
				Weight:     1,
				Embeddings: base,
				Intervals:  intervals,
			})
			continue
		}
		var emb [][]float32
		var ivs []string
		for start := 0; start < len(base); start += group {
			end := min(start+group, len(base))
			v := make([]float32, cfg.Dim)
			for _, row := range base[start:end] {
				for d, x := range row {
					v[d] += x
				}
			}
			for d := range v {
				v[d] /= float32(end - start)
			}
			emb = append(emb, v)
			ivs = append(ivs, formatInterval(
				float64(start)*synthHop,
				float64(end-1)*synthHop+synthWindow,
			))
		}
		scales = append(scales, SessionScale{
			Index:      s,
			Weight:     1,
			Embeddings: emb,
			Intervals:  ivs,
		})
	}

	session := &Session{
		ID:        "sess_" + uuid.New().String()[:12],
		Source:    "synthetic",
		CreatedAt: time.Now().UnixNano(),
		Scales:    scales,
	}
	return session, labels
}

func formatInterval(start, end float64) string {
	return strconv.FormatFloat(start, 'g', -1, 64) + " " +
		strconv.FormatFloat(end, 'g', -1, 64)
}
