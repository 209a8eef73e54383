package pixel

import (
	"sync"

	u "lautenbacher.net/buttonleds/util"
)

// Surface is the pixel output the renderers draw on. Writes become
// visible on Commit.
type Surface interface {
	Len() int
	SetPixel(index int, led Led)
	Fill(led Led)
	Clear()
	SetBrightness(brightness byte)
	Commit()
}

// Strip is the shared pixel buffer of the device. Only one writer is
// active per render call; the mutex makes a single call atomic with
// respect to readers on other goroutines (display driver, web API).
type Strip struct {
	mu         sync.Mutex
	leds       []Led
	brightness byte
	commits    int
	frames     *u.Latest[[]Led]
}

// NewStrip creates a cleared strip with full global brightness. Each
// Commit publishes the brightness-scaled frame to frames (may be nil).
func NewStrip(ledsTotal int, frames *u.Latest[[]Led]) *Strip {
	return &Strip{
		leds:       make([]Led, ledsTotal),
		brightness: 255,
		frames:     frames,
	}
}

func (s *Strip) Len() int {
	return len(s.leds)
}

// SetPixel ignores indices outside the strip.
func (s *Strip) SetPixel(index int, led Led) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.leds) {
		return
	}
	s.leds[index] = led
}

func (s *Strip) Fill(led Led) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.leds {
		s.leds[i] = led
	}
}

func (s *Strip) Clear() {
	s.Fill(Led{})
}

func (s *Strip) SetBrightness(brightness byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.brightness = brightness
}

// Commit publishes the current buffer scaled by the global brightness.
func (s *Strip) Commit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commits++
	if s.frames != nil {
		s.frames.Publish(s.frameLocked())
	}
}

// Leds returns a copy of the unscaled buffer.
func (s *Strip) Leds() []Led {
	s.mu.Lock()
	defer s.mu.Unlock()
	ret := make([]Led, len(s.leds))
	copy(ret, s.leds)
	return ret
}

// Frame returns a copy of the buffer as it is sent to the hardware.
func (s *Strip) Frame() []Led {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameLocked()
}

func (s *Strip) Brightness() byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.brightness
}

// Commits counts the calls to Commit since creation.
func (s *Strip) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

func (s *Strip) frameLocked() []Led {
	ret := make([]Led, len(s.leds))
	for i, led := range s.leds {
		ret[i] = led.Scale(s.brightness)
	}
	return ret
}
