// Package controller implements the button driven state machine: it
// classifies presses, switches between color, pattern and brightness
// selection, puts the strip to sleep and hands it over to the host
// animation engine.
package controller

import (
	"fmt"
	"log/slog"
	"time"

	c "lautenbacher.net/buttonleds/config"
	"lautenbacher.net/buttonleds/gesture"
	"lautenbacher.net/buttonleds/palette"
	p "lautenbacher.net/buttonleds/pattern"
	"lautenbacher.net/buttonleds/pixel"
)

type Mode int

const (
	ColorSelect Mode = iota
	PatternSelect
	BrightnessSelect
)

func (m Mode) String() string {
	switch m {
	case ColorSelect:
		return "color"
	case PatternSelect:
		return "pattern"
	case BrightnessSelect:
		return "brightness"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Button reports the raw button level, true while pressed.
type Button interface {
	Pressed() bool
}

// HostControl hands the strip to the host's own animation engine and
// takes it back.
type HostControl interface {
	Engage()
	Reclaim()
}

// Snapshot is the state restored when waking up.
type Snapshot struct {
	Mode    Mode
	Color   palette.Color
	Pattern p.Pattern
}

// Controller must be driven from a single goroutine, callers serialize
// Tick, MergeState and the accessors.
type Controller struct {
	strip      pixel.Surface
	button     Button
	host       HostControl
	palette    palette.Palette
	engine     *p.Engine
	classifier *gesture.Classifier
	brightness brightnessSelect
	levels     [4]byte

	enabled            bool
	mode               Mode
	color              palette.Color
	pattern            p.Pattern
	active             bool
	tier               int
	ceiling            byte
	previewing         bool
	hostControlEnabled bool
	last               Snapshot
	boot               time.Time
	version            uint64
}

// New creates a controller in the boot state: asleep, color selection,
// white, first pattern. host may be nil.
func New(cfg c.ControllerConfig, strip pixel.Surface, button Button, host HostControl, engine *p.Engine) *Controller {
	th := gesture.Thresholds{
		Debounce: cfg.Debounce,
		Quick:    cfg.QuickPress,
		Long:     cfg.LongPress,
		VeryLong: cfg.SleepPress,
	}
	s := &Controller{
		strip:      strip,
		button:     button,
		host:       host,
		palette:    palette.New(cfg.CycleInterval),
		engine:     engine,
		classifier: gesture.NewClassifier(th),
		brightness: brightnessSelect{classifier: gesture.NewClassifier(th.WithoutSleep())},
		enabled:    cfg.Enabled,
		mode:       ColorSelect,
		color:      palette.White,
		pattern:    p.UniformBlink,
		tier:       cfg.BrightnessLevel,
	}
	for i := range s.levels {
		s.levels[i] = byte(cfg.BrightnessLevels[i])
	}
	s.ceiling = s.levels[s.tier]
	s.last = Snapshot{Mode: s.mode, Color: s.color, Pattern: s.pattern}
	return s
}

// Setup starts the controller with the strip dark.
func (s *Controller) Setup(now time.Time) {
	s.boot = now
	s.active = false
	s.strip.SetBrightness(0)
	s.strip.Clear()
	s.strip.Commit()
	s.classifier.Reset(false, now)
	slog.Info("Controller ready", "enabled", s.enabled, "ceiling", s.ceiling)
}

// Tick runs one scheduler pass: sample the button, act on a completed
// gesture and render the current mode.
func (s *Controller) Tick(now time.Time) {
	if !s.enabled {
		return
	}
	raw := s.button.Pressed()
	if s.mode == BrightnessSelect {
		s.brightnessTick(raw, now)
		return
	}
	if ev, ok := s.classifier.Update(raw, now); ok {
		s.handle(ev, now)
	}
	if s.active && !s.previewing && s.mode != BrightnessSelect {
		s.syncHostControl()
		s.render(now)
	}
}

// Exclusive reports whether only the button may act on the device.
// The host neither renders nor accepts state changes meanwhile.
func (s *Controller) Exclusive() bool {
	return s.enabled && s.mode == BrightnessSelect
}

// HostRendering reports whether the host engine owns the strip.
func (s *Controller) HostRendering() bool {
	return s.enabled && s.hostControlEnabled && s.active && !s.previewing && s.mode == ColorSelect
}

// Version increases with every externally visible state change.
func (s *Controller) Version() uint64 {
	return s.version
}

func (s *Controller) Ceiling() byte {
	return s.ceiling
}

func (s *Controller) LastKnown() Snapshot {
	return s.last
}

func (s *Controller) changed() {
	s.version++
}

func (s *Controller) handle(ev gesture.Event, now time.Time) {
	switch ev.Kind {
	case gesture.PressStart:
		s.previewing = false
	case gesture.HoldFeedback:
		if !s.previewing {
			slog.Debug("Hold preview", "active", s.active, "mode", s.mode)
		}
		s.previewing = true
		if !s.active {
			// asleep the strip is dark, the preview has to be visible
			s.strip.SetBrightness(255)
		}
		s.strip.Fill(palette.Warning(s.ceiling))
		s.strip.Commit()
	case gesture.SleepTrigger:
		s.sleep()
	case gesture.Release:
		s.previewing = false
		s.release(s.classifier.Thresholds().Classify(ev.Duration), now)
	}
}

func (s *Controller) release(bucket gesture.Bucket, now time.Time) {
	if !s.active {
		switch bucket {
		case gesture.Quick:
			s.wake(now)
		case gesture.Long, gesture.Sleep:
			s.enterBrightnessSelect(now)
		default:
			// drop any preview left on the dark strip
			s.strip.SetBrightness(0)
			s.strip.Clear()
			s.strip.Commit()
		}
		return
	}

	switch bucket {
	case gesture.Quick:
		if s.mode == ColorSelect {
			s.color = s.color.Next()
			slog.Info("Color selected", "color", s.color)
		} else {
			s.pattern = s.pattern.Next()
			s.engine.Reset()
			slog.Info("Pattern selected", "pattern", s.pattern)
		}
	case gesture.Long:
		if s.mode == ColorSelect {
			s.mode = PatternSelect
			s.pattern = p.UniformBlink
			s.engine.Reset()
		} else {
			s.mode = ColorSelect
		}
		slog.Info("Mode selected", "mode", s.mode)
	case gesture.Sleep:
		// released past the sleep threshold before the hold tick saw it
		s.sleep()
		return
	default:
		return
	}
	s.changed()
	s.syncHostControl()
	s.render(now)
}

// sleep snapshots the state and darkens the strip. Sleeping again
// while asleep only clears the strip.
func (s *Controller) sleep() {
	if s.active {
		s.last = Snapshot{Mode: s.mode, Color: s.color, Pattern: s.pattern}
		s.active = false
		s.changed()
		slog.Info("Going to sleep", "mode", s.last.Mode, "color", s.last.Color, "pattern", s.last.Pattern)
	}
	s.syncHostControl()
	s.strip.SetBrightness(0)
	s.strip.Clear()
	s.strip.Commit()
}

func (s *Controller) wake(now time.Time) {
	s.restore()
	s.strip.SetBrightness(255)
	slog.Info("Waking up", "mode", s.mode, "color", s.color, "pattern", s.pattern)
	s.syncHostControl()
	s.render(now)
}

func (s *Controller) restore() {
	s.active = true
	s.mode = s.last.Mode
	s.color = s.last.Color
	s.pattern = s.last.Pattern
	s.changed()
}

// syncHostControl engages or reclaims the host engine on the edge only.
func (s *Controller) syncHostControl() {
	want := s.active && s.mode == ColorSelect && s.color == palette.HostControlled
	if want == s.hostControlEnabled {
		return
	}
	s.hostControlEnabled = want
	if s.host == nil {
		return
	}
	if want {
		slog.Info("Handing strip over to host")
		s.host.Engage()
	} else {
		slog.Info("Reclaiming strip from host")
		s.host.Reclaim()
	}
}

// baseColor is the color the renderers draw with. Patterns fall back
// to white while the host color is selected.
func (s *Controller) baseColor(now time.Time) p.ColorFunc {
	color := s.color
	if color == palette.HostControlled {
		color = palette.White
	}
	elapsed := now.Sub(s.boot)
	ceiling := s.ceiling
	return func(index int) pixel.Led {
		return s.palette.Led(color, index, elapsed, ceiling)
	}
}

func (s *Controller) render(now time.Time) {
	if !s.active || s.mode == BrightnessSelect || s.hostControlEnabled {
		return
	}
	if s.mode == PatternSelect {
		s.engine.Render(s.pattern, s.strip, s.baseColor(now), s.ceiling, now)
		return
	}
	color := s.baseColor(now)
	for i := range s.strip.Len() {
		s.strip.SetPixel(i, color(i))
	}
	s.strip.Commit()
}
