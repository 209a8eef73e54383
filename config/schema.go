package config

// SchemaProperty is one node of the JSON schema the web UI builds its
// settings form from.
type SchemaProperty struct {
	Type        string                    `json:"type"`
	Title       string                    `json:"title"`
	Description string                    `json:"description,omitempty"`
	Minimum     *int                      `json:"minimum,omitempty"`
	Maximum     *int                      `json:"maximum,omitempty"`
	Default     any                       `json:"default,omitempty"`
	Properties  map[string]SchemaProperty `json:"properties,omitempty"`
}

func pinProperty(title, description string, def int) SchemaProperty {
	lo, hi := PinMin, PinMax
	return SchemaProperty{
		Type:        "integer",
		Title:       title,
		Description: description,
		Minimum:     &lo,
		Maximum:     &hi,
		Default:     def,
	}
}

// Schema describes RuntimeConfig with the defaults of Default().
func Schema() SchemaProperty {
	def := Default()
	return SchemaProperty{
		Type:        "object",
		Title:       "Button LEDs",
		Description: "Single button LED controller with colors, patterns and sound reactivity",
		Properties: map[string]SchemaProperty{
			"enabled": {
				Type:        "boolean",
				Title:       "Enabled",
				Description: "Enable the button controller",
				Default:     def.Controller.Enabled,
			},
			"i2s_pins": {
				Type:        "object",
				Title:       "I2S Pin Configuration",
				Description: "Microphone pins for the sound reactive patterns",
				Properties: map[string]SchemaProperty{
					"i2s_sd_pin":   pinProperty("I2S SD Pin", "Data pin (SD/DOUT)", def.Audio.Pins.SD),
					"i2s_ws_pin":   pinProperty("I2S WS Pin", "Word select pin (WS/LRCK)", def.Audio.Pins.WS),
					"i2s_sck_pin":  pinProperty("I2S SCK Pin", "Clock pin (SCK/BCLK)", def.Audio.Pins.SCK),
					"i2s_mclk_pin": pinProperty("I2S MCLK Pin", "Master clock pin, -1 to disable", def.Audio.Pins.MCLK),
				},
			},
		},
	}
}
