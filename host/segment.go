package host

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	c "lautenbacher.net/buttonleds/config"
	"lautenbacher.net/buttonleds/pixel"
)

type Effect int

const (
	Static Effect = iota
	Breathe
)

func (e Effect) String() string {
	switch e {
	case Static:
		return "static"
	case Breathe:
		return "breathe"
	default:
		return fmt.Sprintf("effect(%d)", int(e))
	}
}

func ParseEffect(name string) (Effect, error) {
	switch strings.ToLower(name) {
	case "static":
		return Static, nil
	case "breathe":
		return Breathe, nil
	default:
		return Static, fmt.Errorf("unknown effect %q", name)
	}
}

// SegmentState is the JSON view of a segment.
type SegmentState struct {
	FirstLed int    `json:"first_led"`
	LastLed  int    `json:"last_led"`
	Effect   string `json:"effect"`
	LedRGB   []int  `json:"led_rgb"`
	Engaged  bool   `json:"engaged"`
}

// Segment is the host's own animation engine. It draws on its range of
// the strip only while engaged.
type Segment struct {
	mu       sync.Mutex
	strip    pixel.Surface
	firstLed int
	lastLed  int
	effect   Effect
	color    pixel.Led
	period   time.Duration
	engaged  bool
	started  time.Time
}

func NewSegment(strip pixel.Surface, cfg c.SegmentConfig) *Segment {
	first, last := cfg.FirstLed, cfg.LastLed
	if first > last {
		slog.Warn("First led index is bigger than last led index, swapping", "first", first, "last", last)
		first, last = last, first
	}
	effect, err := ParseEffect(cfg.Effect)
	if err != nil {
		slog.Warn("Using static effect", "error", err)
	}
	period := cfg.BreathePeriod
	if period <= 0 {
		period = 4 * time.Second
	}
	return &Segment{
		strip:    strip,
		firstLed: clamp(first, strip.Len()),
		lastLed:  clamp(last, strip.Len()),
		effect:   effect,
		color:    rgb(cfg.LedRGB),
		period:   period,
	}
}

func rgb(v []float64) pixel.Led {
	if len(v) != 3 {
		return pixel.Led{}
	}
	return pixel.Led{Red: byte(v[0]), Green: byte(v[1]), Blue: byte(v[2])}
}

// clamp keeps the led index within the strip.
func clamp(led int, ledsTotal int) int {
	if led < 0 {
		slog.Warn("Led index smaller than 0, using 0", "index", led)
		return 0
	}
	if led > ledsTotal-1 {
		slog.Warn("Led index bigger than max index, using max", "index", led, "max", ledsTotal-1)
		return ledsTotal - 1
	}
	return led
}

// Engage lets the segment drive the strip from the next Render on.
func (s *Segment) Engage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engaged {
		return
	}
	s.engaged = true
	s.started = time.Time{}
	s.strip.Clear()
}

// Reclaim stops the segment, sets it back to static, clears the strip
// and commits right away.
func (s *Segment) Reclaim() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engaged = false
	s.effect = Static
	s.strip.Clear()
	s.strip.Commit()
}

func (s *Segment) Engaged() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engaged
}

func (s *Segment) SetEffect(effect Effect) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.effect = effect
}

func (s *Segment) SetColor(color pixel.Led) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.color = color
}

func (s *Segment) State() SegmentState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SegmentState{
		FirstLed: s.firstLed,
		LastLed:  s.lastLed,
		Effect:   s.effect.String(),
		LedRGB:   []int{int(s.color.Red), int(s.color.Green), int(s.color.Blue)},
		Engaged:  s.engaged,
	}
}

// Render draws one frame of the current effect. It does nothing while
// the segment is not engaged.
func (s *Segment) Render(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.engaged {
		return
	}
	if s.started.IsZero() {
		s.started = now
	}
	color := s.color
	if s.effect == Breathe {
		phase := float64(now.Sub(s.started)%s.period) / float64(s.period)
		color = color.Scale(byte(255 * (0.5 - 0.5*math.Cos(2*math.Pi*phase))))
	}
	for i := s.firstLed; i <= s.lastLed; i++ {
		s.strip.SetPixel(i, color)
	}
	s.strip.Commit()
}
