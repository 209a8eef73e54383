package host

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	c "lautenbacher.net/buttonleds/config"
	"lautenbacher.net/buttonleds/pixel"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func segmentConfig(effect string) c.SegmentConfig {
	cfg := c.Default().Segment
	cfg.Effect = effect
	cfg.FirstLed = 2
	cfg.LastLed = 5
	cfg.LedRGB = []float64{10, 20, 30}
	return cfg
}

func TestNewSegmentSwapsAndClamps(t *testing.T) {
	strip := pixel.NewStrip(12, nil)
	cfg := segmentConfig("static")
	cfg.FirstLed = 20
	cfg.LastLed = -3
	s := NewSegment(strip, cfg)
	st := s.State()
	assert.Equal(t, 0, st.FirstLed)
	assert.Equal(t, 11, st.LastLed)
	assert.Equal(t, []int{10, 20, 30}, st.LedRGB)
}

func TestSegmentOnlyRendersWhileEngaged(t *testing.T) {
	strip := pixel.NewStrip(12, nil)
	s := NewSegment(strip, segmentConfig("static"))

	s.Render(epoch)
	assert.Equal(t, 0, strip.Commits())

	s.Engage()
	assert.True(t, s.Engaged())
	s.Render(epoch)
	leds := strip.Leds()
	want := pixel.Led{Red: 10, Green: 20, Blue: 30}
	for i, led := range leds {
		if i >= 2 && i <= 5 {
			assert.Equal(t, want, led, "led %d", i)
		} else {
			assert.True(t, led.IsEmpty(), "led %d", i)
		}
	}
	assert.Equal(t, 1, strip.Commits())
}

func TestSegmentBreathe(t *testing.T) {
	strip := pixel.NewStrip(12, nil)
	cfg := segmentConfig("breathe")
	cfg.LedRGB = []float64{0, 0, 255}
	cfg.BreathePeriod = 4 * time.Second
	s := NewSegment(strip, cfg)
	s.Engage()

	s.Render(epoch)
	assert.Equal(t, pixel.Led{}, strip.Leds()[2], "starts dark")

	s.Render(epoch.Add(2 * time.Second))
	assert.Equal(t, pixel.Led{Blue: 255}, strip.Leds()[2], "full at half period")

	s.Render(epoch.Add(4 * time.Second))
	assert.Equal(t, pixel.Led{}, strip.Leds()[2], "dark again after a period")
}

func TestSegmentReclaim(t *testing.T) {
	strip := pixel.NewStrip(12, nil)
	s := NewSegment(strip, segmentConfig("breathe"))
	s.Engage()
	s.Render(epoch.Add(time.Second))
	commits := strip.Commits()

	s.Reclaim()
	assert.False(t, s.Engaged())
	assert.Equal(t, "static", s.State().Effect)
	assert.Equal(t, commits+1, strip.Commits(), "reclaim commits immediately")
	for _, led := range strip.Leds() {
		assert.True(t, led.IsEmpty())
	}

	s.Render(epoch.Add(2 * time.Second))
	assert.Equal(t, commits+1, strip.Commits())
}

func TestParseEffect(t *testing.T) {
	e, err := ParseEffect("Breathe")
	assert.NoError(t, err)
	assert.Equal(t, Breathe, e)
	_, err = ParseEffect("fire")
	assert.Error(t, err)
}
