// Package pattern renders the animated patterns onto a pixel surface.
package pattern

import "fmt"

type Pattern int

const (
	UniformBlink Pattern = iota
	Chaser
	MultipleChaser
	RandomBlink
	SoundReactivePulsing
	SoundReactiveClockwise
	SoundReactiveRandom
)

// Count is the number of patterns in the selection cycle.
const Count = int(SoundReactiveRandom) + 1

var names = [Count]string{
	"uniform-blink",
	"chaser",
	"multiple-chaser",
	"random-blink",
	"sound-pulsing",
	"sound-clockwise",
	"sound-random",
}

func (p Pattern) String() string {
	if !p.Valid() {
		return fmt.Sprintf("pattern(%d)", int(p))
	}
	return names[p]
}

func (p Pattern) Valid() bool {
	return p >= 0 && int(p) < Count
}

// Next returns the following pattern, wrapping after the last one.
func (p Pattern) Next() Pattern {
	return Pattern((int(p) + 1) % Count)
}

// SoundReactive reports whether the pattern reads the microphone.
func (p Pattern) SoundReactive() bool {
	switch p {
	case SoundReactivePulsing, SoundReactiveClockwise, SoundReactiveRandom:
		return true
	}
	return false
}
