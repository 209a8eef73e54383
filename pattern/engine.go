package pattern

import (
	"log/slog"
	"math/rand/v2"
	"time"

	"lautenbacher.net/buttonleds/audio"
	"lautenbacher.net/buttonleds/pixel"
)

// Anchor pixels the clockwise arcs grow from.
const (
	anchorA = 1
	anchorB = 6
)

// ColorFunc returns the base color of the pixel at index.
type ColorFunc func(index int) pixel.Led

type Timing struct {
	// Interval gates every render call of the engine.
	Interval time.Duration
	Blink    time.Duration
	Chase    time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		Interval: 100 * time.Millisecond,
		Blink:    200 * time.Millisecond,
		Chase:    250 * time.Millisecond,
	}
}

type blinkState struct {
	on   bool
	last time.Time
}

type chaserState struct {
	position int
}

type multiChaserState struct {
	oddPhase bool
	last     time.Time
}

type randomBlinkState struct {
	previous int
	last     time.Time
}

type soundRandomState struct {
	previous int
}

// Engine owns the timing and position state of every pattern. It is
// driven by a single goroutine.
type Engine struct {
	timing     Timing
	extractor  *audio.Extractor
	rng        *rand.Rand
	lastUpdate time.Time

	blink       blinkState
	chaser      chaserState
	multi       multiChaserState
	randomBlink randomBlinkState
	soundRandom soundRandomState
}

// NewEngine creates an engine. A nil extractor renders the sound
// patterns as silence, a nil rng uses the global source.
func NewEngine(timing Timing, extractor *audio.Extractor, rng *rand.Rand) *Engine {
	if extractor == nil {
		extractor = audio.NewExtractor(nil, 1, audio.DefaultCalibration())
	}
	e := &Engine{timing: timing, extractor: extractor, rng: rng}
	e.Reset()
	return e
}

// Reset puts every pattern back to its initial state and opens the
// rate gate so the next Render draws immediately.
func (e *Engine) Reset() {
	e.lastUpdate = time.Time{}
	e.blink = blinkState{}
	e.chaser = chaserState{}
	e.multi = multiChaserState{oddPhase: true}
	e.randomBlink = randomBlinkState{previous: -1}
	e.soundRandom = soundRandomState{previous: -1}
}

func (e *Engine) Extractor() *audio.Extractor {
	return e.extractor
}

// Render draws one frame of p if the engine gate and the pattern's own
// cadence allow it. It reports whether the surface was committed.
func (e *Engine) Render(p Pattern, s pixel.Surface, color ColorFunc, ceiling byte, now time.Time) bool {
	if s.Len() == 0 {
		return false
	}
	if !e.lastUpdate.IsZero() && now.Sub(e.lastUpdate) < e.timing.Interval {
		return false
	}
	e.lastUpdate = now

	switch p {
	case UniformBlink:
		return e.uniformBlink(s, color, now)
	case Chaser:
		return e.chase(s, color)
	case MultipleChaser:
		return e.multipleChaser(s, color, now)
	case RandomBlink:
		return e.randomBlinkFrame(s, color, now)
	case SoundReactivePulsing:
		return e.pulsing(s, color, ceiling)
	case SoundReactiveClockwise:
		return e.clockwise(s, color)
	case SoundReactiveRandom:
		return e.soundRandomFrame(s, color)
	default:
		slog.Warn("Unknown pattern", "pattern", p)
		return false
	}
}

func due(last, now time.Time, every time.Duration) bool {
	return last.IsZero() || now.Sub(last) >= every
}

func (e *Engine) uniformBlink(s pixel.Surface, color ColorFunc, now time.Time) bool {
	if !due(e.blink.last, now, e.timing.Blink) {
		return false
	}
	e.blink.on = !e.blink.on
	if e.blink.on {
		for i := range s.Len() {
			s.SetPixel(i, color(i))
		}
	} else {
		s.Clear()
	}
	s.Commit()
	e.blink.last = now
	return true
}

func (e *Engine) chase(s pixel.Surface, color ColorFunc) bool {
	n := s.Len()
	s.Clear()
	for i := range 3 {
		idx := (e.chaser.position + i) % n
		s.SetPixel(idx, color(idx))
	}
	s.Commit()
	e.chaser.position = (e.chaser.position + 1) % n
	return true
}

func (e *Engine) multipleChaser(s pixel.Surface, color ColorFunc, now time.Time) bool {
	if !due(e.multi.last, now, e.timing.Chase) {
		return false
	}
	s.Clear()
	for i := range s.Len() {
		if (i%2 == 0) != e.multi.oddPhase {
			s.SetPixel(i, color(i))
		}
	}
	s.Commit()
	e.multi.oddPhase = !e.multi.oddPhase
	e.multi.last = now
	return true
}

func (e *Engine) randomBlinkFrame(s pixel.Surface, color ColorFunc, now time.Time) bool {
	if !due(e.randomBlink.last, now, e.timing.Blink) {
		return false
	}
	s.Clear()
	idx := e.pick(s.Len(), e.randomBlink.previous)
	s.SetPixel(idx, color(idx))
	s.Commit()
	e.randomBlink.previous = idx
	e.randomBlink.last = now
	return true
}

func (e *Engine) pulsing(s pixel.Surface, color ColorFunc, ceiling byte) bool {
	cal := e.extractor.Calibration()
	smoothed := e.extractor.Smooth(e.extractor.Sample())
	base := float64(cal.BaseBrightness)
	brightness := byte(base + smoothed*(float64(ceiling)-base))
	for i := range s.Len() {
		s.SetPixel(i, color(i).Scale(brightness))
	}
	s.Commit()
	return true
}

// LitCount maps an amplitude linearly onto [0, n].
func LitCount(mean, sensitivity float64, n int) int {
	if sensitivity <= 0 || mean <= 0 {
		return 0
	}
	count := int(int64(mean) * int64(n) / int64(sensitivity))
	return min(count, n)
}

func (e *Engine) clockwise(s pixel.Surface, color ColorFunc) bool {
	n := s.Len()
	count := LitCount(e.extractor.Sample(), e.extractor.Calibration().ClockwiseSensitivity, n)
	s.Clear()
	for _, anchor := range []int{anchorA, anchorB} {
		s.SetPixel(anchor%n, color(anchor))
	}
	for i := 0; i <= count; i++ {
		a, b := (anchorA+i)%n, (anchorB+i)%n
		s.SetPixel(a, color(a))
		s.SetPixel(b, color(b))
	}
	s.Commit()
	return true
}

func (e *Engine) soundRandomFrame(s pixel.Surface, color ColorFunc) bool {
	if e.extractor.Sample() > e.extractor.Calibration().SoundThreshold {
		idx := e.pick(s.Len(), e.soundRandom.previous)
		if e.soundRandom.previous != -1 {
			s.SetPixel(e.soundRandom.previous, pixel.Led{})
		}
		s.SetPixel(idx, color(idx))
		e.soundRandom.previous = idx
	}
	s.Commit()
	return true
}

// pick draws a pixel index other than previous. A single pixel strip
// can only ever pick index 0.
func (e *Engine) pick(n, previous int) int {
	if n <= 1 {
		return 0
	}
	for {
		idx := e.intN(n)
		if idx != previous {
			return idx
		}
	}
}

func (e *Engine) intN(n int) int {
	if e.rng != nil {
		return e.rng.IntN(n)
	}
	return rand.IntN(n)
}
