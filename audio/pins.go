package audio

import (
	"fmt"
)

// MaxPin is the highest GPIO number accepted for the microphone bus.
const MaxPin = 48

// Pins is the I2S wiring of the microphone. MCLK is optional, -1
// disables it.
type Pins struct {
	SD   int
	WS   int
	SCK  int
	MCLK int
}

func DefaultPins() Pins {
	return Pins{SD: 5, WS: 4, SCK: 6, MCLK: -1}
}

// Allocator is the host's exclusive pin registry.
type Allocator interface {
	Allocate(pin int, output bool, owner string) error
	Release(owner string)
}

// Validate reports pins outside the accepted range and pins wired to
// more than one signal. An invalid pin set disables audio, it is not a
// configuration error.
func (p Pins) Validate() error {
	seen := make(map[int]string, 4)
	for _, pin := range []struct {
		name     string
		value    int
		optional bool
	}{
		{"sd", p.SD, false},
		{"ws", p.WS, false},
		{"sck", p.SCK, false},
		{"mclk", p.MCLK, true},
	} {
		if pin.optional && pin.value == -1 {
			continue
		}
		if pin.value < 0 || pin.value > MaxPin {
			return fmt.Errorf("i2s %s pin %d must be between 0 and %d", pin.name, pin.value, MaxPin)
		}
		if other, ok := seen[pin.value]; ok {
			return fmt.Errorf("i2s %s pin %d is already used by %s", pin.name, pin.value, other)
		}
		seen[pin.value] = pin.name
	}
	return nil
}

// Reserve allocates all microphone pins for owner. On any failure the
// pins already taken are given back and the error is returned.
func Reserve(p Pins, alloc Allocator, owner string) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrAudioUnavailable, err)
	}
	if alloc == nil {
		return fmt.Errorf("%w: no pin registry", ErrAudioUnavailable)
	}
	wanted := []struct {
		pin    int
		output bool
	}{
		{p.SD, false},
		{p.WS, true},
		{p.SCK, true},
	}
	if p.MCLK >= 0 {
		wanted = append(wanted, struct {
			pin    int
			output bool
		}{p.MCLK, true})
	}
	for _, w := range wanted {
		if err := alloc.Allocate(w.pin, w.output, owner); err != nil {
			alloc.Release(owner)
			return fmt.Errorf("%w: reserving pin %d: %w", ErrAudioUnavailable, w.pin, err)
		}
	}
	return nil
}
