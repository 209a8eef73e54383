package platform

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"
	"lautenbacher.net/buttonleds/audio"
	c "lautenbacher.net/buttonleds/config"
	"lautenbacher.net/buttonleds/controller"
	"lautenbacher.net/buttonleds/pixel"
	u "lautenbacher.net/buttonleds/util"
)

type RaspberryPiPlatform struct {
	*AbstractPlatform
	ledDriver ledDriver
	spiMutex  sync.Mutex
	button    *gpioButton
	mic       *audio.PortAudioSource
	readyChan chan bool
}

// gpioButton reads an active low push button with the internal pull-up
// enabled.
type gpioButton struct {
	pin rpio.Pin
}

func (b *gpioButton) Pressed() bool {
	return b.pin.Read() == rpio.Low
}

func NewRaspberryPiPlatform(conf *c.Config) *RaspberryPiPlatform {
	inst := &RaspberryPiPlatform{
		readyChan: make(chan bool),
	}
	inst.AbstractPlatform = newAbstractPlatform(conf, inst.rpiDisplayFunc)
	return inst
}

func (s *RaspberryPiPlatform) Ready() <-chan bool {
	return s.readyChan
}

func (s *RaspberryPiPlatform) Start(frames *u.Latest[[]pixel.Led]) error {
	hw := s.config.Hardware
	switch strings.ToUpper(hw.Display.LedType) {
	case "APA102":
		s.ledDriver = newApa102Driver(hw.Display)
	case "WS2801":
		s.ledDriver = newWs2801Driver(hw.Display)
	default:
		return fmt.Errorf("unknown LED type: %s", hw.Display.LedType)
	}

	slog.Info("Initialise GPIO and Spi...")
	if err := rpio.Open(); err != nil {
		return fmt.Errorf("failed to open rpio: %w", err)
	}
	if err := rpio.SpiBegin(rpio.Spi0); err != nil {
		rpio.Close()
		return fmt.Errorf("failed to begin spi: %w", err)
	}
	rpio.SpiSpeed(hw.SPIFrequency)

	pin := rpio.Pin(hw.ButtonPin)
	pin.Input()
	pin.PullUp()
	s.button = &gpioButton{pin: pin}

	a := s.config.Audio
	mic, err := audio.OpenPortAudio(a.Device, a.SampleRate, a.BlockSize)
	if err != nil {
		slog.Warn("Microphone not available", "error", err)
	} else {
		s.mic = mic
	}

	s.startDisplayDriver(frames)
	close(s.readyChan)
	return nil
}

func (s *RaspberryPiPlatform) Stop() {
	s.stopDisplayDriver()
	if s.mic != nil {
		if err := s.mic.Close(); err != nil {
			slog.Error("Error closing microphone", "error", err)
		}
	}
	// leave the strip dark
	if s.ledDriver != nil {
		s.rpiDisplayFunc(make([]pixel.Led, s.LedsTotal()))
	}
	rpio.SpiEnd(rpio.Spi0)
	if err := rpio.Close(); err != nil {
		slog.Error("Error closing rpio", "error", err)
	}
}

func (s *RaspberryPiPlatform) DisplayLeds(leds []pixel.Led) {
	s.show(leds)
}

func (s *RaspberryPiPlatform) Button() controller.Button {
	return s.button
}

func (s *RaspberryPiPlatform) AudioSource() audio.Source {
	if s.mic == nil {
		return nil
	}
	return s.mic
}

func (s *RaspberryPiPlatform) rpiDisplayFunc(leds []pixel.Led) {
	if err := s.ledDriver.write(leds, s.spiExchange); err != nil {
		slog.Error("Error writing to LED driver", "error", err)
	}
}

func (s *RaspberryPiPlatform) spiExchange(data []byte) {
	s.spiMutex.Lock()
	defer s.spiMutex.Unlock()
	rpio.SpiTransmit(data...)
}
