// Package audio turns raw microphone sample blocks into the loudness
// signals the sound-reactive patterns render.
package audio

import (
	"errors"
	"log/slog"
	"math"
)

var ErrAudioUnavailable = errors.New("audio input unavailable")

// Source delivers blocks of signed 32 bit mono samples. Read fills the
// whole block and may block on the hardware, but only for a bounded
// time.
type Source interface {
	Read(block []int32) error
}

// Calibration holds the fixed constants that map raw amplitudes to
// brightness and pixel counts.
type Calibration struct {
	Gain                 float64
	PulsingDivisor       float64
	ClockwiseSensitivity float64
	SoundThreshold       float64
	// Smoothing is the weight of the new value in the exponential
	// filter, the old value keeps 1-Smoothing.
	Smoothing      float64
	BaseBrightness byte
}

func DefaultCalibration() Calibration {
	return Calibration{
		Gain:                 4.0,
		PulsingDivisor:       25000000,
		ClockwiseSensitivity: 50000000,
		SoundThreshold:       2000000,
		Smoothing:            0.8,
		BaseBrightness:       0,
	}
}

// Extractor reads one block per call and keeps the smoothed brightness
// between calls. The smoother is never reset; after a pause the first
// frame starts from the stale value.
type Extractor struct {
	source   Source
	block    []int32
	cal      Calibration
	mean     float64
	smoothed float64
	failing  bool
}

// NewExtractor creates an extractor reading blockSize samples per call.
// A nil source makes every block silent.
func NewExtractor(source Source, blockSize int, cal Calibration) *Extractor {
	return &Extractor{
		source: source,
		block:  make([]int32, blockSize),
		cal:    cal,
	}
}

func (e *Extractor) Available() bool {
	return e.source != nil
}

// SetSource replaces the sample source, nil disables audio.
func (e *Extractor) SetSource(source Source) {
	e.source = source
}

func (e *Extractor) Calibration() Calibration {
	return e.cal
}

// Sample reads a block and returns its mean absolute amplitude. When
// no source is attached or the read fails the block counts as silence.
func (e *Extractor) Sample() float64 {
	if e.source == nil {
		clear(e.block)
	} else if err := e.source.Read(e.block); err != nil {
		if !e.failing {
			slog.Warn("Audio read failed, treating input as silence", "error", err)
			e.failing = true
		}
		clear(e.block)
	} else if e.failing {
		slog.Info("Audio input recovered")
		e.failing = false
	}
	e.mean = MeanAbs(e.block)
	return e.mean
}

// Mean returns the amplitude computed by the last Sample call.
func (e *Extractor) Mean() float64 {
	return e.mean
}

// Smooth feeds an amplitude into the exponential filter and returns the
// new smoothed brightness in [0,1].
func (e *Extractor) Smooth(mean float64) float64 {
	normalized := Normalize(mean, e.cal.PulsingDivisor, e.cal.Gain)
	e.smoothed = e.cal.Smoothing*normalized + (1-e.cal.Smoothing)*e.smoothed
	return e.smoothed
}

func (e *Extractor) Smoothed() float64 {
	return e.smoothed
}

// Normalize scales an amplitude by gain/divisor and clips it to [0,1].
func Normalize(mean, divisor, gain float64) float64 {
	if divisor <= 0 {
		return 0
	}
	return math.Max(0, math.Min(1, mean/divisor*gain))
}

// MeanAbs returns the mean of the absolute sample values.
func MeanAbs(block []int32) float64 {
	if len(block) == 0 {
		return 0
	}
	var sum float64
	for _, s := range block {
		sum += math.Abs(float64(s))
	}
	return sum / float64(len(block))
}
