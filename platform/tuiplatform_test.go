package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	c "lautenbacher.net/buttonleds/config"
	"lautenbacher.net/buttonleds/gesture"
	"lautenbacher.net/buttonleds/pixel"
)

func TestScriptedPressesHitTheirBuckets(t *testing.T) {
	ctrl := c.Default().Controller
	th := gesture.Thresholds{
		Debounce: ctrl.Debounce,
		Quick:    ctrl.QuickPress,
		Long:     ctrl.LongPress,
		VeryLong: ctrl.SleepPress,
	}
	quick, long, sleep := scriptedPresses(ctrl)
	assert.Greater(t, quick, ctrl.Debounce)
	assert.Equal(t, gesture.Quick, th.Classify(quick))
	assert.Equal(t, gesture.Long, th.Classify(long))
	assert.Equal(t, gesture.Sleep, th.Classify(sleep))
}

func TestBarChars(t *testing.T) {
	tests := []struct {
		value       byte
		top, bottom string
	}{
		{0, " ", " "},
		{1, " ", "▁"},
		{127, " ", "█"},
		{128, "▁", "█"},
		{160, "▃", "█"},
		{255, "█", "█"},
	}
	for _, tt := range tests {
		top, bottom := barChars(tt.value)
		assert.Equal(t, tt.top, top, "value %d", tt.value)
		assert.Equal(t, tt.bottom, bottom, "value %d", tt.value)
	}
}

func TestScaledColor(t *testing.T) {
	assert.Equal(t, "[#000000]", scaledColor(pixel.Led{}))
	assert.Equal(t, "[#ff8000]", scaledColor(pixel.Led{Red: 64, Green: 32}))
	assert.Equal(t, "[#ffffff]", scaledColor(pixel.Led{Red: 3, Green: 3, Blue: 3}))
}

func TestSimulateLeds(t *testing.T) {
	top, bottom := simulateLeds([]pixel.Led{{}, {Red: 255}})
	assert.Equal(t, "  [#ff0000]██[-]", top)
	assert.Equal(t, "  [#ff0000]██[-]", bottom)
}
