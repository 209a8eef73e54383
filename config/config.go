package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"golang.org/x/exp/maps"
	"gopkg.in/yaml.v3"
)

const CONFILE = "config.yml"

// Brightness levels the selection mode cycles through.
var DefaultBrightnessLevels = []int{64, 128, 192, 255}

type Config struct {
	Controller ControllerConfig `yaml:"Controller"`
	Audio      AudioConfig      `yaml:"Audio"`
	Hardware   HardwareConfig   `yaml:"Hardware"`
	Segment    SegmentConfig    `yaml:"Segment"`
	Web        WebConfig        `yaml:"Web"`
	Logging    LoggingConfig    `yaml:"Logging"`
}

type ControllerConfig struct {
	Enabled         bool          `yaml:"Enabled" json:"enabled"`
	TickInterval    time.Duration `yaml:"TickInterval" json:"-"`
	Debounce        time.Duration `yaml:"Debounce" json:"-"`
	QuickPress      time.Duration `yaml:"QuickPress" json:"-"`
	LongPress       time.Duration `yaml:"LongPress" json:"-"`
	SleepPress      time.Duration `yaml:"SleepPress" json:"-"`
	PatternInterval time.Duration `yaml:"PatternInterval" json:"-"`
	BlinkInterval   time.Duration `yaml:"BlinkInterval" json:"-"`
	ChaseInterval   time.Duration `yaml:"ChaseInterval" json:"-"`
	CycleInterval   time.Duration `yaml:"CycleInterval" json:"-"`
	// BrightnessLevels are the four brightness ceilings, BrightnessLevel
	// indexes the one used at boot.
	BrightnessLevels []int `yaml:"BrightnessLevels" json:"-"`
	BrightnessLevel  int   `yaml:"BrightnessLevel" json:"-"`
}

type PinsConfig struct {
	SD   int `yaml:"SD" json:"i2s_sd_pin"`
	WS   int `yaml:"WS" json:"i2s_ws_pin"`
	SCK  int `yaml:"SCK" json:"i2s_sck_pin"`
	MCLK int `yaml:"MCLK" json:"i2s_mclk_pin"`
}

type AudioConfig struct {
	Device               string     `yaml:"Device"`
	SampleRate           float64    `yaml:"SampleRate"`
	BlockSize            int        `yaml:"BlockSize"`
	Pins                 PinsConfig `yaml:"Pins"`
	Gain                 float64    `yaml:"Gain"`
	PulsingDivisor       float64    `yaml:"PulsingDivisor"`
	ClockwiseSensitivity float64    `yaml:"ClockwiseSensitivity"`
	SoundThreshold       float64    `yaml:"SoundThreshold"`
	Smoothing            float64    `yaml:"Smoothing"`
	BaseBrightness       int        `yaml:"BaseBrightness"`
}

type DisplayConfig struct {
	LedsTotal        int           `yaml:"LedsTotal"`
	LedType          string        `yaml:"LedType"`
	ColorCorrection  []float64     `yaml:"ColorCorrection"`
	APA102Brightness byte          `yaml:"APA102Brightness"`
	ForceUpdateDelay time.Duration `yaml:"ForceUpdateDelay"`
}

type HardwareConfig struct {
	Display      DisplayConfig `yaml:"Display"`
	ButtonPin    int           `yaml:"ButtonPin"`
	SPIFrequency int           `yaml:"SPIFrequency"`
}

// SegmentConfig describes the part of the strip the native host
// effect draws on while it has control.
type SegmentConfig struct {
	FirstLed      int           `yaml:"FirstLed"`
	LastLed       int           `yaml:"LastLed"`
	Effect        string        `yaml:"Effect"`
	LedRGB        []float64     `yaml:"LedRGB"`
	BreathePeriod time.Duration `yaml:"BreathePeriod"`
}

type WebConfig struct {
	Enabled bool   `yaml:"Enabled"`
	Listen  string `yaml:"Listen"`
}

type LogConfig struct {
	Level  string `yaml:"Level"`
	Format string `yaml:"Format"`
	File   string `yaml:"File"`
}

type LoggingConfig struct {
	TUI LogConfig `yaml:"TUI"`
	HW  LogConfig `yaml:"HW"`
}

// Default returns the configuration used for every key the file
// leaves out.
func Default() Config {
	return Config{
		Controller: ControllerConfig{
			Enabled:          true,
			TickInterval:     5 * time.Millisecond,
			Debounce:         50 * time.Millisecond,
			QuickPress:       500 * time.Millisecond,
			LongPress:        1000 * time.Millisecond,
			SleepPress:       3000 * time.Millisecond,
			PatternInterval:  100 * time.Millisecond,
			BlinkInterval:    200 * time.Millisecond,
			ChaseInterval:    250 * time.Millisecond,
			CycleInterval:    2000 * time.Millisecond,
			BrightnessLevels: append([]int(nil), DefaultBrightnessLevels...),
			BrightnessLevel:  1,
		},
		Audio: AudioConfig{
			SampleRate:           44100,
			BlockSize:            128,
			Pins:                 PinsConfig{SD: 5, WS: 4, SCK: 6, MCLK: -1},
			Gain:                 4.0,
			PulsingDivisor:       25000000,
			ClockwiseSensitivity: 50000000,
			SoundThreshold:       2000000,
			Smoothing:            0.8,
		},
		Hardware: HardwareConfig{
			Display: DisplayConfig{
				LedsTotal:        12,
				LedType:          "WS2801",
				ColorCorrection:  []float64{1, 1, 1},
				APA102Brightness: 31,
				ForceUpdateDelay: time.Second,
			},
			ButtonPin:    17,
			SPIFrequency: 1000000,
		},
		Segment: SegmentConfig{
			FirstLed:      0,
			LastLed:       11,
			Effect:        "breathe",
			LedRGB:        []float64{0, 80, 255},
			BreathePeriod: 4 * time.Second,
		},
		Web: WebConfig{Enabled: true, Listen: ":8080"},
		Logging: LoggingConfig{
			TUI: LogConfig{Level: "INFO", Format: "text"},
			HW:  LogConfig{Level: "INFO", Format: "text"},
		},
	}
}

// ReadConfig reads the YAML file on top of the defaults and validates
// the result.
func ReadConfig(cfile string) (*Config, error) {
	f, err := os.Open(cfile)
	if err != nil {
		return nil, fmt.Errorf("can't find config file %s: %w", cfile, err)
	}
	defer f.Close()

	conf := Default()
	if err := yaml.NewDecoder(f).Decode(&conf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("can't decode config file %s: %w", cfile, err)
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", cfile, err)
	}
	return &conf, nil
}

// Validate checks the values that would make the controller misbehave.
// Microphone pins are not checked here, bad pins only disable audio.
func (c *Config) Validate() error {
	var errs []error
	ctrl := c.Controller
	intervals := map[string]time.Duration{
		"TickInterval":    ctrl.TickInterval,
		"Debounce":        ctrl.Debounce,
		"PatternInterval": ctrl.PatternInterval,
		"BlinkInterval":   ctrl.BlinkInterval,
		"ChaseInterval":   ctrl.ChaseInterval,
		"CycleInterval":   ctrl.CycleInterval,
	}
	names := maps.Keys(intervals)
	slices.Sort(names)
	for _, name := range names {
		if intervals[name] <= 0 {
			errs = append(errs, fmt.Errorf("Controller.%s must be positive", name))
		}
	}
	if !(ctrl.Debounce < ctrl.QuickPress && ctrl.QuickPress <= ctrl.LongPress && ctrl.LongPress < ctrl.SleepPress) {
		errs = append(errs, fmt.Errorf("Controller press thresholds must satisfy Debounce < QuickPress <= LongPress < SleepPress"))
	}
	if len(ctrl.BrightnessLevels) != 4 {
		errs = append(errs, fmt.Errorf("Controller.BrightnessLevels must have exactly 4 values"))
	}
	for i, level := range ctrl.BrightnessLevels {
		if level < 1 || level > 255 {
			errs = append(errs, fmt.Errorf("Controller.BrightnessLevels[%d] must be between 1 and 255", i))
		}
	}
	if ctrl.BrightnessLevel < 0 || ctrl.BrightnessLevel > 3 {
		errs = append(errs, fmt.Errorf("Controller.BrightnessLevel must be between 0 and 3"))
	}

	a := c.Audio
	if a.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("Audio.SampleRate must be positive"))
	}
	if a.BlockSize <= 0 {
		errs = append(errs, fmt.Errorf("Audio.BlockSize must be positive"))
	}
	if a.Smoothing <= 0 || a.Smoothing > 1 {
		errs = append(errs, fmt.Errorf("Audio.Smoothing must be in (0, 1]"))
	}
	if a.PulsingDivisor <= 0 || a.ClockwiseSensitivity <= 0 {
		errs = append(errs, fmt.Errorf("Audio.PulsingDivisor and Audio.ClockwiseSensitivity must be positive"))
	}
	if a.BaseBrightness < 0 || a.BaseBrightness > 255 {
		errs = append(errs, fmt.Errorf("Audio.BaseBrightness must be between 0 and 255"))
	}

	d := c.Hardware.Display
	if d.LedsTotal <= 0 {
		errs = append(errs, fmt.Errorf("Hardware.Display.LedsTotal must be positive"))
	}
	switch strings.ToUpper(d.LedType) {
	case "WS2801", "APA102":
	default:
		errs = append(errs, fmt.Errorf("Hardware.Display.LedType must be WS2801 or APA102, got %q", d.LedType))
	}
	if len(d.ColorCorrection) != 3 {
		errs = append(errs, fmt.Errorf("Hardware.Display.ColorCorrection must have 3 values"))
	}
	for i, v := range d.ColorCorrection {
		if v < 0 {
			errs = append(errs, fmt.Errorf("Hardware.Display.ColorCorrection[%d] must not be negative", i))
		}
	}
	if d.APA102Brightness > 31 {
		errs = append(errs, fmt.Errorf("Hardware.Display.APA102Brightness must be between 0 and 31"))
	}

	seg := c.Segment
	switch strings.ToLower(seg.Effect) {
	case "static", "breathe":
	default:
		errs = append(errs, fmt.Errorf("Segment.Effect must be static or breathe, got %q", seg.Effect))
	}
	if len(seg.LedRGB) != 3 {
		errs = append(errs, fmt.Errorf("Segment.LedRGB must have 3 values"))
	}
	for i, v := range seg.LedRGB {
		if v < 0 || v > 255 {
			errs = append(errs, fmt.Errorf("Segment.LedRGB[%d] must be between 0 and 255", i))
		}
	}
	if seg.BreathePeriod <= 0 {
		errs = append(errs, fmt.Errorf("Segment.BreathePeriod must be positive"))
	}
	return errors.Join(errs...)
}
