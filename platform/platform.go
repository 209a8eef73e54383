package platform

import (
	"lautenbacher.net/buttonleds/audio"
	"lautenbacher.net/buttonleds/controller"
	"lautenbacher.net/buttonleds/pixel"
	u "lautenbacher.net/buttonleds/util"
)

// Platform abstracts the real hardware from the TUI simulation.
type Platform interface {
	// Start opens the hardware (or the TUI) and starts showing every
	// frame published to frames.
	Start(frames *u.Latest[[]pixel.Led]) error

	// Stop cleans up all platform resources.
	Stop()

	// DisplayLeds sends the complete state of all LEDs to the output device.
	DisplayLeds(leds []pixel.Led)

	// Button is the single push button.
	Button() controller.Button

	// AudioSource returns the microphone, nil if there is none.
	AudioSource() audio.Source

	// Ready is closed once the platform can show log output.
	Ready() <-chan bool
}
