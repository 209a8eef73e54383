package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lautenbacher.net/buttonleds/palette"
	p "lautenbacher.net/buttonleds/pattern"
)

var ErrMalformed = errors.New("malformed state")

// State is the live state exchanged with web clients.
type State struct {
	Enabled    bool          `json:"enabled"`
	Mode       Mode          `json:"mode"`
	Color      palette.Color `json:"color"`
	Pattern    p.Pattern     `json:"pattern"`
	Active     bool          `json:"active"`
	Brightness byte          `json:"brightness"`
}

// Info is the read only status summary.
type Info struct {
	Enabled        bool          `json:"enabled"`
	I2SInitialized bool          `json:"i2s_initialized"`
	CurrentMode    Mode          `json:"current_mode"`
	CurrentColor   palette.Color `json:"current_color"`
	CurrentPattern p.Pattern     `json:"current_pattern"`
	IsActive       bool          `json:"is_active"`
}

func (s *Controller) State() State {
	return State{
		Enabled:    s.enabled,
		Mode:       s.mode,
		Color:      s.color,
		Pattern:    s.pattern,
		Active:     s.active,
		Brightness: s.ceiling,
	}
}

func (s *Controller) Info() Info {
	return Info{
		Enabled:        s.enabled,
		I2SInitialized: s.engine.Extractor().Available(),
		CurrentMode:    s.mode,
		CurrentColor:   s.color,
		CurrentPattern: s.pattern,
		IsActive:       s.active,
	}
}

// SetEnabled switches the whole controller on or off.
func (s *Controller) SetEnabled(enabled bool) {
	if s.enabled != enabled {
		s.enabled = enabled
		s.changed()
	}
}

// MergeState applies the fields present in data, in the order enabled,
// mode, color, pattern, brightness, active. Fields with a wrong type
// or an out of range value keep their old value and are reported in
// the returned error; only a payload that is not a JSON object fails
// as a whole, wrapping ErrMalformed. Changing the state while in
// brightness selection is refused.
func (s *Controller) MergeState(data []byte, now time.Time) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if s.mode == BrightnessSelect {
		return errors.New("brightness selection in progress")
	}

	var errs []error
	decode := func(name string, v any) bool {
		raw, ok := fields[name]
		if !ok {
			return false
		}
		if err := json.Unmarshal(raw, v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			return false
		}
		return true
	}

	before := s.State()
	var enabled bool
	if decode("enabled", &enabled) {
		s.enabled = enabled
	}

	var mode Mode
	if decode("mode", &mode) {
		switch mode {
		case ColorSelect, PatternSelect:
			if mode != s.mode {
				s.mode = mode
				if mode == PatternSelect {
					s.engine.Reset()
				}
			}
		default:
			errs = append(errs, fmt.Errorf("mode: %d is not selectable", mode))
		}
	}

	var color palette.Color
	if decode("color", &color) {
		if color.Valid() {
			s.color = color
		} else {
			errs = append(errs, fmt.Errorf("color: %d out of range", color))
		}
	}

	var pattern p.Pattern
	if decode("pattern", &pattern) {
		if !pattern.Valid() {
			errs = append(errs, fmt.Errorf("pattern: %d out of range", pattern))
		} else if pattern != s.pattern {
			s.pattern = pattern
			s.engine.Reset()
		}
	}

	var brightness byte
	if decode("brightness", &brightness) {
		s.setCeiling(brightness)
	}

	var active bool
	if decode("active", &active) && active != s.active {
		if active {
			s.active = true
			s.strip.SetBrightness(255)
		} else {
			s.sleep()
		}
	}

	if s.State() != before {
		s.changed()
		if s.active && s.enabled {
			s.syncHostControl()
			s.render(now)
		}
	}
	return errors.Join(errs...)
}

// setCeiling sets an arbitrary ceiling and moves the level index to
// the lowest level not below it, so the next step gets brighter.
func (s *Controller) setCeiling(ceiling byte) {
	s.ceiling = ceiling
	s.tier = len(s.levels) - 1
	for i, level := range s.levels {
		if level >= ceiling {
			s.tier = i
			break
		}
	}
}
