// Package palette maps a logical color selector to the pixel value
// shown on the strip. All colors are expressed at a brightness ceiling
// so that the brightness tier scales every palette entry alike.
package palette

import (
	"fmt"
	"time"

	"lautenbacher.net/buttonleds/pixel"
)

type Color int

const (
	White Color = iota
	Red
	Orange
	Yellow
	Green
	Blue
	Pink
	Purple
	Cycle
	Rainbow
	// HostControlled hands the strip to the host's own animation
	// engine. It has no pixel value.
	HostControlled
)

// ColorCount is the length of the quick-press color cycle.
const ColorCount = int(HostControlled) + 1

const DefaultCycleInterval = 2000 * time.Millisecond

var colorNames = [ColorCount]string{
	"white", "red", "orange", "yellow", "green", "blue", "pink", "purple",
	"cycle", "rainbow", "host",
}

func (c Color) String() string {
	if !c.Valid() {
		return fmt.Sprintf("color(%d)", int(c))
	}
	return colorNames[c]
}

func (c Color) Valid() bool {
	return c >= White && int(c) < ColorCount
}

// Next returns the following color of the quick-press cycle.
func (c Color) Next() Color {
	return Color((int(c) + 1) % ColorCount)
}

// Palette holds the timing of the Cycle color wash.
type Palette struct {
	CycleInterval time.Duration
}

func New(cycleInterval time.Duration) Palette {
	if cycleInterval <= 0 {
		cycleInterval = DefaultCycleInterval
	}
	return Palette{CycleInterval: cycleInterval}
}

// Led returns the value of pixel index for color c at the given time
// since start. ceiling is the brightness tier level. Calling it with
// HostControlled is a caller error and yields black.
func (p Palette) Led(c Color, index int, elapsed time.Duration, ceiling byte) pixel.Led {
	m := int(ceiling)
	switch c {
	case White:
		return rgb(m, m, m)
	case Red:
		return rgb(m, 0, 0)
	case Orange:
		return rgb(m, m*100/255, 0)
	case Yellow:
		return rgb(m, m*165/255, 0)
	case Green:
		return rgb(0, m, 0)
	case Blue:
		return rgb(0, 0, m)
	case Pink:
		return rgb(m, 0, m/2)
	case Purple:
		return rgb(m/2, 0, m/2)
	case Cycle:
		return p.cycle(elapsed, ceiling)
	case Rainbow:
		if index < 0 {
			index = -index
		}
		table := RainbowTable(ceiling)
		return table[index%len(table)]
	default:
		return pixel.Led{}
	}
}

// Warning is the amber shown while a long press is being held: red and
// green both at the ceiling.
func Warning(ceiling byte) pixel.Led {
	m := int(ceiling)
	return rgb(m, m, 0)
}

// cycle interpolates between two consecutive stops of the hue wheel.
// Every pixel gets the same value, so index is not needed.
func (p Palette) cycle(elapsed time.Duration, ceiling byte) pixel.Led {
	wheel := HueWheel(ceiling)
	interval := p.CycleInterval.Milliseconds()
	ms := elapsed.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	stop := int((ms / interval) % int64(len(wheel)))
	fraction := float64(ms%interval) / float64(interval)
	return wheel[stop].Lerp(wheel[(stop+1)%len(wheel)], fraction)
}

// HueWheel returns the 12 gradient stops of the Cycle color.
func HueWheel(ceiling byte) [12]pixel.Led {
	m := int(ceiling)
	return [12]pixel.Led{
		rgb(m, 0, 0),         // red
		rgb(m, m*100/255, 0), // orange
		rgb(m, m*165/255, 0), // yellow
		rgb(m/2, m, 0),       // lime
		rgb(0, m, 0),         // green
		rgb(0, m/2, m),       // azure
		rgb(0, m, m),         // cyan
		rgb(m/2, 0, m),       // violet
		rgb(0, 0, m),         // blue
		rgb(m, 0, m/2),       // rose
		rgb(m, 0, m),         // magenta
		rgb(m, 0, m/2),       // pink
	}
}

// RainbowTable returns the 10 colors laid out along the strip by the
// Rainbow color.
func RainbowTable(ceiling byte) [10]pixel.Led {
	m := int(ceiling)
	return [10]pixel.Led{
		rgb(m, 0, 0),
		rgb(m, m*100/255, 0),
		rgb(m, m*165/255, 0),
		rgb(m/2, m, 0),
		rgb(0, m, 0),
		rgb(0, m/2, m),
		rgb(0, m, m),
		rgb(0, 0, m),
		rgb(m/2, 0, m),
		rgb(m, 0, m/2),
	}
}

func rgb(r, g, b int) pixel.Led {
	return pixel.Led{Red: byte(r), Green: byte(g), Blue: byte(b)}
}
