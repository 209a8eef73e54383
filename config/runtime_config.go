package config

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Valid range of a microphone pin number, -1 means unused.
const (
	PinMin = -1
	PinMax = 48
)

var ErrMalformed = errors.New("malformed payload")

// RuntimeConfig is the part of the configuration the web UI may change
// while the controller runs.
type RuntimeConfig struct {
	Enabled bool       `json:"enabled"`
	I2SPins PinsConfig `json:"i2s_pins"`
}

func (c *Config) Runtime() RuntimeConfig {
	return RuntimeConfig{
		Enabled: c.Controller.Enabled,
		I2SPins: c.Audio.Pins,
	}
}

// MergeRuntime applies the fields present in data and keeps all others.
// A field with the wrong type or a pin outside [PinMin, PinMax] keeps its
// old value and is reported in the returned error. Only a payload that
// is not a JSON object fails as a whole, wrapping ErrMalformed.
func (c *Config) MergeRuntime(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	var errs []error
	merged := c.Runtime()
	// Unmarshal skips fields of the wrong type and keeps decoding
	if err := json.Unmarshal(data, &merged); err != nil {
		errs = append(errs, err)
	}

	old := c.Audio.Pins
	pins := []struct {
		name     string
		value    *int
		previous int
	}{
		{"i2s_sd_pin", &merged.I2SPins.SD, old.SD},
		{"i2s_ws_pin", &merged.I2SPins.WS, old.WS},
		{"i2s_sck_pin", &merged.I2SPins.SCK, old.SCK},
		{"i2s_mclk_pin", &merged.I2SPins.MCLK, old.MCLK},
	}
	for _, pin := range pins {
		if *pin.value < PinMin || *pin.value > PinMax {
			errs = append(errs, fmt.Errorf("%s must be between %d and %d, keeping %d", pin.name, PinMin, PinMax, pin.previous))
			*pin.value = pin.previous
		}
	}

	c.Controller.Enabled = merged.Enabled
	c.Audio.Pins = merged.I2SPins
	return errors.Join(errs...)
}
