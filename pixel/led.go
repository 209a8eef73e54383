package pixel

// Led is the color of a single pixel.
type Led struct {
	Red   byte
	Green byte
	Blue  byte
}

// True if all components are zero, false otherwise
func (s Led) IsEmpty() bool {
	return s.Red == 0 && s.Green == 0 && s.Blue == 0
}

// Scale multiplies every channel by brightness/255. Integer math,
// truncating.
func (s Led) Scale(brightness byte) Led {
	return Led{
		Red:   byte(int(s.Red) * int(brightness) / 255),
		Green: byte(int(s.Green) * int(brightness) / 255),
		Blue:  byte(int(s.Blue) * int(brightness) / 255),
	}
}

// Lerp interpolates linearly between s and to. A fraction of 0 returns
// s unmodified, the result is truncated per channel.
func (s Led) Lerp(to Led, fraction float64) Led {
	return Led{
		Red:   lerpChannel(s.Red, to.Red, fraction),
		Green: lerpChannel(s.Green, to.Green, fraction),
		Blue:  lerpChannel(s.Blue, to.Blue, fraction),
	}
}

func lerpChannel(from, to byte, fraction float64) byte {
	return byte(float64(from) + float64(int(to)-int(from))*fraction)
}
