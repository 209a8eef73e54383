package audio

import (
	"math"
	"math/rand/v2"
	"sync/atomic"
)

// Tone is a synthetic microphone used by the simulator: a 440Hz sine
// with some noise whose loudness is set with SetLevel.
type Tone struct {
	level      atomic.Uint64
	phase      float64
	sampleRate float64
}

func NewTone(sampleRate float64) *Tone {
	return &Tone{sampleRate: sampleRate}
}

// SetLevel sets the loudness as a fraction of full scale, clipped to
// [0,1].
func (s *Tone) SetLevel(level float64) {
	level = math.Max(0, math.Min(1, level))
	s.level.Store(math.Float64bits(level))
}

func (s *Tone) Level() float64 {
	return math.Float64frombits(s.level.Load())
}

func (s *Tone) Read(block []int32) error {
	amplitude := s.Level() * math.MaxInt32
	step := 2 * math.Pi * 440 / s.sampleRate
	for i := range block {
		v := amplitude * (0.9*math.Sin(s.phase) + 0.1*(2*rand.Float64()-1))
		block[i] = int32(math.Max(math.MinInt32, math.Min(math.MaxInt32, v)))
		s.phase += step
	}
	s.phase = math.Mod(s.phase, 2*math.Pi)
	return nil
}
