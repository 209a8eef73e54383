package host

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"lautenbacher.net/buttonleds/audio"
	c "lautenbacher.net/buttonleds/config"
	"lautenbacher.net/buttonleds/controller"
)

const micOwner = "microphone"

// Host runs the controller. Ticks, web requests and reloads each take
// the host mutex, so a tick is one critical section.
type Host struct {
	mu       sync.Mutex
	ctl      *controller.Controller
	seg      *Segment
	reg      *PinRegistry
	mic      *audio.Extractor
	source   audio.Source
	pins     c.PinsConfig
	interval time.Duration
	hub      *Hub
	version  uint64
	cfile    string
}

// New wires a host around ctl. source is the opened microphone (may be
// nil); it only reaches mic once its pins could be reserved.
func New(cfile string, conf *c.Config, ctl *controller.Controller, seg *Segment, reg *PinRegistry, mic *audio.Extractor, source audio.Source) *Host {
	return &Host{
		ctl:      ctl,
		seg:      seg,
		reg:      reg,
		mic:      mic,
		source:   source,
		pins:     conf.Audio.Pins,
		interval: conf.Controller.TickInterval,
		hub:      NewHub(),
		cfile:    cfile,
	}
}

func (h *Host) Hub() *Hub {
	return h.hub
}

// Setup reserves the microphone pins and starts the controller.
func (h *Host) Setup(now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.attachAudio(h.pins)
	h.ctl.Setup(now)
	h.version = h.ctl.Version()
}

// Step runs one tick and pushes the state to web clients when it
// changed.
func (h *Host) Step(now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ctl.Tick(now)
	if h.ctl.HostRendering() {
		h.seg.Render(now)
	}
	h.publishLocked(now)
}

// Run ticks until stop is closed.
func (h *Host) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	slog.Info("Host loop started", "interval", h.interval)
	for {
		select {
		case <-stop:
			slog.Info("Host loop stopped")
			return
		case now := <-ticker.C:
			h.Step(now)
		}
	}
}

// Exclusive reports whether brightness selection has the device.
func (h *Host) Exclusive() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ctl.Exclusive()
}

// Reconfigure applies the runtime part of a reloaded config. Everything
// else needs a restart.
func (h *Host) Reconfigure(conf *c.Config) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ctl.SetEnabled(conf.Controller.Enabled)
	if conf.Audio.Pins != h.pins {
		slog.Info("Microphone pins changed", "old", h.pins, "new", conf.Audio.Pins)
		h.pins = conf.Audio.Pins
		h.attachAudio(h.pins)
	}
	h.publishLocked(time.Now())
}

func (h *Host) State() controller.State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ctl.State()
}

func (h *Host) Info() controller.Info {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ctl.Info()
}

func (h *Host) MergeState(data []byte, now time.Time) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	err := h.ctl.MergeState(data, now)
	h.publishLocked(now)
	return err
}

// attachAudio gives the extractor its source only if every microphone
// pin could be reserved.
func (h *Host) attachAudio(pins c.PinsConfig) {
	h.reg.Release(micOwner)
	p := audio.Pins{SD: pins.SD, WS: pins.WS, SCK: pins.SCK, MCLK: pins.MCLK}
	if h.source == nil {
		slog.Warn("No microphone available, sound patterns stay dark")
		h.mic.SetSource(nil)
		return
	}
	if err := audio.Reserve(p, h.reg, micOwner); err != nil {
		slog.Warn("Microphone disabled", "error", err)
		h.mic.SetSource(nil)
		return
	}
	h.mic.SetSource(h.source)
	slog.Info("Microphone attached", "pins", p)
}

type envelope struct {
	Type string `json:"type"`
	TS   int64  `json:"ts"`
	Data any    `json:"data"`
}

func stateMessage(state controller.State, now time.Time) []byte {
	msg, err := json.Marshal(envelope{Type: "state", TS: now.UnixMilli(), Data: state})
	if err != nil {
		slog.Error("Failed to encode state", "error", err)
		return nil
	}
	return msg
}

func (h *Host) publishLocked(now time.Time) {
	v := h.ctl.Version()
	if v == h.version {
		return
	}
	h.version = v
	if msg := stateMessage(h.ctl.State(), now); msg != nil {
		h.hub.Broadcast(msg)
	}
}
