package platform

import (
	"math"

	c "lautenbacher.net/buttonleds/config"
	"lautenbacher.net/buttonleds/pixel"
)

// ledDriver encodes a frame into the bytes the strip expects on SPI.
type ledDriver interface {
	write(leds []pixel.Led, exchangeFunc func([]byte)) error
}

func corrected(v byte, factor float64) byte {
	return byte(math.Min(float64(v)*factor, 255))
}

type ws2801Driver struct {
	displayConfig c.DisplayConfig
}

func newWs2801Driver(displayConfig c.DisplayConfig) *ws2801Driver {
	return &ws2801Driver{displayConfig: displayConfig}
}

func (d *ws2801Driver) write(leds []pixel.Led, exchangeFunc func([]byte)) error {
	cc := d.displayConfig.ColorCorrection
	display := make([]byte, 3*len(leds))
	for idx, led := range leds {
		display[3*idx] = corrected(led.Red, cc[0])
		display[3*idx+1] = corrected(led.Green, cc[1])
		display[3*idx+2] = corrected(led.Blue, cc[2])
	}
	exchangeFunc(display)
	return nil
}

type apa102Driver struct {
	displayConfig c.DisplayConfig
}

func newApa102Driver(displayConfig c.DisplayConfig) *apa102Driver {
	return &apa102Driver{displayConfig: displayConfig}
}

func (d *apa102Driver) write(leds []pixel.Led, exchangeFunc func([]byte)) error {
	cc := d.displayConfig.ColorCorrection
	frameEndLength := len(leds)/16 + 1
	display := make([]byte, 0, 4+4*len(leds)+frameEndLength)

	// start frame
	display = append(display, 0x00, 0x00, 0x00, 0x00)

	brightness := d.displayConfig.APA102Brightness | 0xE0
	for _, led := range leds {
		display = append(display, brightness,
			corrected(led.Blue, cc[2]),
			corrected(led.Green, cc[1]),
			corrected(led.Red, cc[0]))
	}

	// end frame: at least len(leds)/2 bits of 0xFF, counted in bytes here
	for range frameEndLength {
		display = append(display, 0xFF)
	}
	exchangeFunc(display)
	return nil
}
