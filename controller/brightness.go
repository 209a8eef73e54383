package controller

import (
	"log/slog"
	"time"

	"lautenbacher.net/buttonleds/gesture"
	"lautenbacher.net/buttonleds/palette"
	"lautenbacher.net/buttonleds/pixel"
)

// brightnessSelect runs on its own classifier. Holding the button never
// puts the device to sleep here, it only previews the exit.
type brightnessSelect struct {
	classifier *gesture.Classifier
	warned     bool
}

func (s *Controller) enterBrightnessSelect(now time.Time) {
	s.mode = BrightnessSelect
	s.brightness.classifier.Reset(false, now)
	s.brightness.warned = false
	s.changed()
	slog.Info("Brightness selection", "level", s.tier, "ceiling", s.ceiling)
	s.showLevel()
}

func (s *Controller) showLevel() {
	s.strip.SetBrightness(255)
	s.strip.Fill(pixel.Led{Red: s.ceiling, Green: s.ceiling, Blue: s.ceiling})
	s.strip.Commit()
}

func (s *Controller) brightnessTick(raw bool, now time.Time) {
	ev, ok := s.brightness.classifier.Update(raw, now)
	if !ok {
		return
	}
	switch ev.Kind {
	case gesture.PressStart:
		s.brightness.warned = false
	case gesture.HoldFeedback:
		if !s.brightness.warned {
			s.brightness.warned = true
			s.strip.Fill(palette.Warning(s.ceiling))
			s.strip.Commit()
		}
	case gesture.Release:
		switch s.brightness.classifier.Thresholds().Classify(ev.Duration) {
		case gesture.Quick:
			s.nextLevel()
			s.showLevel()
		case gesture.Long:
			s.exitBrightnessSelect(now)
		}
	}
}

// nextLevel advances the brightness ceiling cyclically.
func (s *Controller) nextLevel() {
	s.tier = (s.tier + 1) % len(s.levels)
	s.ceiling = s.levels[s.tier]
	s.changed()
	slog.Info("Brightness level", "level", s.tier, "ceiling", s.ceiling)
}

func (s *Controller) exitBrightnessSelect(now time.Time) {
	s.restore()
	s.classifier.Reset(false, now)
	slog.Info("Leaving brightness selection", "mode", s.mode, "color", s.color, "pattern", s.pattern)
	s.syncHostControl()
	s.render(now)
}
