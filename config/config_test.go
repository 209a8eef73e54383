package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfig = `
Controller:
  Enabled: true
  TickInterval: 5ms
  Debounce: 50ms
  QuickPress: 500ms
  LongPress: 1s
  SleepPress: 3s
  BrightnessLevels: [64, 128, 192, 255]
  BrightnessLevel: 2
Audio:
  Device: "usb"
  Pins:
    SD: 7
    WS: 8
    SCK: 9
    MCLK: -1
  Smoothing: 0.5
Hardware:
  Display:
    LedsTotal: 24
    LedType: "APA102"
    ColorCorrection: [1, 0.8, 0.7]
  ButtonPin: 27
Logging:
  TUI:
    Level: "DEBUG"
    Format: "text"
    File: "/tmp/buttonleds-tui.log"
  HW:
    Level: "WARN"
    Format: "json"
    File: "/var/log/buttonleds-hw.log"
`

func createConfigFile(t *testing.T, configData string) string {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "config.yml")
	if err := os.WriteFile(configFile, []byte(configData), 0o644); err != nil {
		t.Fatalf("Failed to write dummy config file: %v", err)
	}
	return configFile
}

func TestReadConfig(t *testing.T) {
	conf, err := ReadConfig(createConfigFile(t, validConfig))
	assert.NoError(t, err, "ReadConfig should not return an error")

	assert.True(t, conf.Controller.Enabled)
	assert.Equal(t, 50*time.Millisecond, conf.Controller.Debounce)
	assert.Equal(t, time.Second, conf.Controller.LongPress)
	assert.Equal(t, 3*time.Second, conf.Controller.SleepPress)
	assert.Equal(t, []int{64, 128, 192, 255}, conf.Controller.BrightnessLevels)
	assert.Equal(t, 2, conf.Controller.BrightnessLevel)

	assert.Equal(t, PinsConfig{SD: 7, WS: 8, SCK: 9, MCLK: -1}, conf.Audio.Pins)
	assert.Equal(t, "usb", conf.Audio.Device)
	assert.Equal(t, 0.5, conf.Audio.Smoothing)

	assert.Equal(t, 24, conf.Hardware.Display.LedsTotal)
	assert.Equal(t, []float64{1, 0.8, 0.7}, conf.Hardware.Display.ColorCorrection)
	assert.Equal(t, 27, conf.Hardware.ButtonPin)

	assert.Equal(t, "DEBUG", conf.Logging.TUI.Level)
	assert.Equal(t, "json", conf.Logging.HW.Format)
	assert.Equal(t, "/var/log/buttonleds-hw.log", conf.Logging.HW.File)
}

func TestReadConfig_Defaults(t *testing.T) {
	conf, err := ReadConfig(createConfigFile(t, ""))
	assert.NoError(t, err)

	def := Default()
	assert.Equal(t, def, *conf)
	assert.Equal(t, 500*time.Millisecond, conf.Controller.QuickPress)
	assert.Equal(t, 100*time.Millisecond, conf.Controller.PatternInterval)
	assert.Equal(t, 2*time.Second, conf.Controller.CycleInterval)
	assert.Equal(t, 0.8, conf.Audio.Smoothing)
	assert.Equal(t, 128, conf.Audio.BlockSize)
	assert.Equal(t, PinsConfig{SD: 5, WS: 4, SCK: 6, MCLK: -1}, conf.Audio.Pins)
}

func TestReadConfig_MissingFile(t *testing.T) {
	_, err := ReadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "can't find config file")
}

func TestReadConfig_BadYAML(t *testing.T) {
	_, err := ReadConfig(createConfigFile(t, "Controller: [1, 2"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "can't decode config file")
}

func TestReadConfig_InvalidPinsAreNotFatal(t *testing.T) {
	data := strings.Replace(validConfig, "SD: 7", "SD: 99", 1)
	conf, err := ReadConfig(createConfigFile(t, data))
	assert.NoError(t, err)
	assert.Equal(t, 99, conf.Audio.Pins.SD)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"unordered thresholds", func(c *Config) { c.Controller.LongPress = 4 * time.Second }, "press thresholds"},
		{"debounce above quick", func(c *Config) { c.Controller.Debounce = time.Second }, "press thresholds"},
		{"zero tick", func(c *Config) { c.Controller.TickInterval = 0 }, "Controller.TickInterval must be positive"},
		{"three levels", func(c *Config) { c.Controller.BrightnessLevels = []int{1, 2, 3} }, "exactly 4 values"},
		{"level too bright", func(c *Config) { c.Controller.BrightnessLevels[3] = 256 }, "must be between 1 and 255"},
		{"tier out of range", func(c *Config) { c.Controller.BrightnessLevel = 4 }, "BrightnessLevel must be between 0 and 3"},
		{"smoothing zero", func(c *Config) { c.Audio.Smoothing = 0 }, "Audio.Smoothing"},
		{"no leds", func(c *Config) { c.Hardware.Display.LedsTotal = 0 }, "LedsTotal must be positive"},
		{"unknown led type", func(c *Config) { c.Hardware.Display.LedType = "WS2812" }, "must be WS2801 or APA102"},
		{"lower case led type", func(c *Config) { c.Hardware.Display.LedType = "apa102" }, ""},
		{"two corrections", func(c *Config) { c.Hardware.Display.ColorCorrection = []float64{1, 1} }, "ColorCorrection must have 3 values"},
		{"apa102 brightness", func(c *Config) { c.Hardware.Display.APA102Brightness = 32 }, "APA102Brightness"},
		{"unknown effect", func(c *Config) { c.Segment.Effect = "rainbow" }, "Segment.Effect"},
		{"rgb above 255", func(c *Config) { c.Segment.LedRGB[1] = 256 }, "Segment.LedRGB[1] must be between 0 and 255"},
		{"zero breathe period", func(c *Config) { c.Segment.BreathePeriod = 0 }, "Segment.BreathePeriod"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidate_IntervalErrorsAreSorted(t *testing.T) {
	c := Default()
	c.Controller.TickInterval = 0
	c.Controller.ChaseInterval = 0
	c.Controller.BlinkInterval = 0

	err := c.Validate()
	require.Error(t, err)
	assert.Equal(t, "Controller.BlinkInterval must be positive\n"+
		"Controller.ChaseInterval must be positive\n"+
		"Controller.TickInterval must be positive", err.Error())
}
