package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	c "lautenbacher.net/buttonleds/config"
)

func TestRuntimeOnly(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*c.Config)
		want   bool
	}{
		{"unchanged", func(*c.Config) {}, true},
		{"disabled", func(conf *c.Config) { conf.Controller.Enabled = false }, true},
		{"new pins", func(conf *c.Config) { conf.Audio.Pins.SD = 12 }, true},
		{"log level", func(conf *c.Config) { conf.Logging.TUI.Level = "DEBUG" }, true},
		{"more leds", func(conf *c.Config) { conf.Hardware.Display.LedsTotal = 30 }, false},
		{"faster tick", func(conf *c.Config) { conf.Controller.TickInterval = time.Millisecond }, false},
		{"segment color", func(conf *c.Config) { conf.Segment.LedRGB = []float64{1, 1, 1} }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			old := c.Default()
			updated := c.Default()
			tt.modify(&updated)
			assert.Equal(t, tt.want, runtimeOnly(&old, &updated))
		})
	}
}

func TestCalibration(t *testing.T) {
	a := c.Default().Audio
	a.BaseBrightness = 12
	cal := calibration(a)
	assert.Equal(t, 4.0, cal.Gain)
	assert.Equal(t, 0.8, cal.Smoothing)
	assert.Equal(t, byte(12), cal.BaseBrightness)
}

func TestWatchConfigRequestsReload(t *testing.T) {
	cfile := filepath.Join(t.TempDir(), "config.yml")
	data, err := yaml.Marshal(c.Default())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfile, data, 0o644))

	app := NewApp(make(chan os.Signal, 1), cfile, false)
	watcher, err := app.watchConfig()
	require.NoError(t, err)
	defer watcher.Close()

	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(cfile), "other.yml"), data, 0o644))
	time.Sleep(2 * reloadSettle)
	assert.Empty(t, app.reload, "other files are ignored")

	for range 3 {
		require.NoError(t, os.WriteFile(cfile, data, 0o644))
	}
	select {
	case <-app.reload:
	case <-time.After(5 * time.Second):
		t.Fatal("no reload requested")
	}
	time.Sleep(2 * reloadSettle)
	assert.Empty(t, app.reload, "a burst of writes reloads once")
}
