package controller

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	c "lautenbacher.net/buttonleds/config"
	"lautenbacher.net/buttonleds/palette"
	p "lautenbacher.net/buttonleds/pattern"
	"lautenbacher.net/buttonleds/pixel"
)

const tick = 5 * time.Millisecond

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type fakeButton struct {
	pressed bool
}

func (b *fakeButton) Pressed() bool { return b.pressed }

type fakeHost struct {
	engaged   int
	reclaimed int
}

func (h *fakeHost) Engage()  { h.engaged++ }
func (h *fakeHost) Reclaim() { h.reclaimed++ }

type rig struct {
	ctl    *Controller
	strip  *pixel.Strip
	button *fakeButton
	host   *fakeHost
	now    time.Time
}

func newRig(t *testing.T, modify ...func(*c.ControllerConfig)) *rig {
	t.Helper()
	cfg := c.Default().Controller
	for _, m := range modify {
		m(&cfg)
	}
	r := &rig{
		strip:  pixel.NewStrip(12, nil),
		button: &fakeButton{},
		host:   &fakeHost{},
		now:    epoch,
	}
	engine := p.NewEngine(p.DefaultTiming(), nil, rand.New(rand.NewPCG(7, 11)))
	r.ctl = New(cfg, r.strip, r.button, r.host, engine)
	r.ctl.Setup(r.now)
	r.hold(false, 100*time.Millisecond)
	return r
}

func (r *rig) hold(pressed bool, d time.Duration) {
	r.button.pressed = pressed
	for end := r.now.Add(d); r.now.Before(end); r.now = r.now.Add(tick) {
		r.ctl.Tick(r.now)
	}
}

func (r *rig) press(d time.Duration) {
	r.hold(true, d)
	r.hold(false, 200*time.Millisecond)
}

func (r *rig) quick() { r.press(200 * time.Millisecond) }
func (r *rig) long()  { r.press(1200 * time.Millisecond) }
func (r *rig) sleep() { r.press(3500 * time.Millisecond) }

func uniform(leds []pixel.Led, want pixel.Led) bool {
	for _, led := range leds {
		if led != want {
			return false
		}
	}
	return true
}

func TestBootState(t *testing.T) {
	r := newRig(t)
	assert.Equal(t, State{
		Enabled:    true,
		Mode:       ColorSelect,
		Color:      palette.White,
		Pattern:    p.UniformBlink,
		Active:     false,
		Brightness: 128,
	}, r.ctl.State())
	assert.Equal(t, byte(0), r.strip.Brightness())
	assert.True(t, uniform(r.strip.Leds(), pixel.Led{}))
	assert.False(t, r.ctl.Exclusive())
}

func TestEndToEndScenario(t *testing.T) {
	r := newRig(t)
	white := pixel.Led{Red: 128, Green: 128, Blue: 128}

	r.quick()
	st := r.ctl.State()
	assert.True(t, st.Active)
	assert.Equal(t, ColorSelect, st.Mode)
	assert.Equal(t, palette.White, st.Color)
	assert.Equal(t, byte(255), r.strip.Brightness())
	assert.True(t, uniform(r.strip.Leds(), white))

	// long press shows the amber preview while held
	r.hold(true, 1100*time.Millisecond)
	assert.True(t, uniform(r.strip.Leds(), palette.Warning(128)))
	r.hold(true, 100*time.Millisecond)
	r.hold(false, 200*time.Millisecond)
	st = r.ctl.State()
	assert.Equal(t, PatternSelect, st.Mode)
	assert.Equal(t, p.UniformBlink, st.Pattern)
	assert.True(t, st.Active)

	r.sleep()
	st = r.ctl.State()
	assert.False(t, st.Active)
	assert.Equal(t, byte(0), r.strip.Brightness())
	assert.True(t, uniform(r.strip.Leds(), pixel.Led{}))
	assert.Equal(t, Snapshot{Mode: PatternSelect, Color: palette.White, Pattern: p.UniformBlink}, r.ctl.LastKnown())

	r.quick()
	st = r.ctl.State()
	assert.True(t, st.Active)
	assert.Equal(t, PatternSelect, st.Mode)
	assert.Equal(t, palette.White, st.Color)
	assert.Equal(t, p.UniformBlink, st.Pattern)
	assert.Equal(t, byte(255), r.strip.Brightness())
}

func TestWakeRestoresLastKnownState(t *testing.T) {
	r := newRig(t)
	r.quick()
	r.quick() // red
	r.long()  // pattern mode
	r.quick() // chaser
	assert.Equal(t, p.Chaser, r.ctl.State().Pattern)

	r.sleep()
	assert.Equal(t, Snapshot{Mode: PatternSelect, Color: palette.Red, Pattern: p.Chaser}, r.ctl.LastKnown())
	r.quick()
	st := r.ctl.State()
	assert.Equal(t, PatternSelect, st.Mode)
	assert.Equal(t, palette.Red, st.Color)
	assert.Equal(t, p.Chaser, st.Pattern)
}

func TestSleepAgainWhileAsleep(t *testing.T) {
	r := newRig(t)
	r.quick()
	r.quick() // red
	r.sleep()
	r.sleep()
	assert.False(t, r.ctl.State().Active)
	assert.True(t, uniform(r.strip.Leds(), pixel.Led{}))
	assert.Equal(t, byte(0), r.strip.Brightness())
	assert.Equal(t, palette.Red, r.ctl.LastKnown().Color)
}

func TestDeadBandDoesNothing(t *testing.T) {
	r := newRig(t)
	r.quick()
	before := r.ctl.State()
	r.press(750 * time.Millisecond)
	assert.Equal(t, before, r.ctl.State())
}

func TestDeadBandWhileAsleepStaysDark(t *testing.T) {
	r := newRig(t)
	r.press(750 * time.Millisecond)
	assert.False(t, r.ctl.State().Active)
	assert.Equal(t, ColorSelect, r.ctl.State().Mode)
	assert.True(t, uniform(r.strip.Leds(), pixel.Led{}))
	assert.Equal(t, byte(0), r.strip.Brightness())
}

func TestReleaseAroundSleepThresholdWhileAsleep(t *testing.T) {
	for d := 2900 * time.Millisecond; d <= 3100*time.Millisecond; d += 10 * time.Millisecond {
		t.Run(d.String(), func(t *testing.T) {
			r := newRig(t)
			r.press(d)
			st := r.ctl.State()
			if st.Mode == BrightnessSelect {
				assert.True(t, uniform(r.strip.Leds(), pixel.Led{Red: 128, Green: 128, Blue: 128}))
				return
			}
			assert.False(t, st.Active)
			assert.True(t, uniform(r.strip.Leds(), pixel.Led{}))
			assert.Equal(t, byte(0), r.strip.Brightness())
		})
	}
}

func TestReleaseAroundSleepThresholdWhileActive(t *testing.T) {
	for d := 2900 * time.Millisecond; d <= 3100*time.Millisecond; d += 10 * time.Millisecond {
		t.Run(d.String(), func(t *testing.T) {
			r := newRig(t)
			r.quick()
			r.press(d)
			st := r.ctl.State()
			if d < 3*time.Second {
				assert.True(t, st.Active)
				assert.Equal(t, PatternSelect, st.Mode)
				return
			}
			assert.False(t, st.Active)
			assert.True(t, uniform(r.strip.Leds(), pixel.Led{}))
			assert.Equal(t, byte(0), r.strip.Brightness())
			assert.Equal(t, ColorSelect, r.ctl.LastKnown().Mode)
		})
	}
}

func TestNoiseIsRejected(t *testing.T) {
	r := newRig(t)
	version := r.ctl.Version()
	for range 5 {
		r.hold(true, 10*time.Millisecond)
		r.hold(false, 100*time.Millisecond)
	}
	assert.False(t, r.ctl.State().Active)
	assert.Equal(t, version, r.ctl.Version())
}

func TestColorCycleAndHandoff(t *testing.T) {
	r := newRig(t)
	r.quick()
	for range palette.ColorCount - 1 {
		r.quick()
	}
	assert.Equal(t, palette.HostControlled, r.ctl.State().Color)
	assert.Equal(t, 1, r.host.engaged)
	assert.Equal(t, 0, r.host.reclaimed)
	assert.True(t, r.ctl.HostRendering())

	// many ticks without a mode change keep the flag untouched
	commits := r.strip.Commits()
	r.hold(false, 2*time.Second)
	assert.Equal(t, 1, r.host.engaged)
	assert.Equal(t, commits, r.strip.Commits())

	r.quick()
	assert.Equal(t, palette.White, r.ctl.State().Color)
	assert.Equal(t, 1, r.host.engaged)
	assert.Equal(t, 1, r.host.reclaimed)
	assert.False(t, r.ctl.HostRendering())
	r.hold(false, time.Second)
	assert.Equal(t, 1, r.host.reclaimed)
}

func TestLongPressReclaimsHost(t *testing.T) {
	r := newRig(t)
	r.ctl.last.Color = palette.Purple
	r.quick()
	for range 3 {
		r.quick()
	}
	assert.Equal(t, palette.HostControlled, r.ctl.State().Color)
	assert.Equal(t, 1, r.host.engaged)

	r.long()
	assert.Equal(t, PatternSelect, r.ctl.State().Mode)
	assert.Equal(t, 1, r.host.reclaimed)

	// patterns draw in white while the host color is selected
	commits := r.strip.Commits()
	r.hold(false, 500*time.Millisecond)
	assert.Greater(t, r.strip.Commits(), commits)
	assert.Equal(t, 1, r.host.engaged)
	for _, led := range r.strip.Leds() {
		if !led.IsEmpty() {
			assert.Equal(t, pixel.Led{Red: 128, Green: 128, Blue: 128}, led)
		}
	}
}

func TestSleepReclaimsHost(t *testing.T) {
	r := newRig(t)
	r.ctl.last.Color = palette.HostControlled
	r.quick()
	assert.Equal(t, 1, r.host.engaged)
	r.sleep()
	assert.Equal(t, 1, r.host.reclaimed)
	r.quick()
	assert.Equal(t, 2, r.host.engaged)
}

func TestPatternCycleResets(t *testing.T) {
	r := newRig(t)
	r.quick()
	r.long()
	for range p.Count {
		r.quick()
	}
	assert.Equal(t, p.UniformBlink, r.ctl.State().Pattern)
	r.long()
	assert.Equal(t, ColorSelect, r.ctl.State().Mode)
}

func TestDisabledIgnoresButton(t *testing.T) {
	r := newRig(t, func(cfg *c.ControllerConfig) { cfg.Enabled = false })
	r.quick()
	assert.False(t, r.ctl.State().Active)
	r.ctl.SetEnabled(true)
	r.quick()
	assert.True(t, r.ctl.State().Active)
}
