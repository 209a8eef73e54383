package audio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeAllocator struct {
	taken    map[int]string
	busy     int
	released []string
}

func (a *fakeAllocator) Allocate(pin int, output bool, owner string) error {
	if pin == a.busy {
		return errors.New("busy")
	}
	if a.taken == nil {
		a.taken = map[int]string{}
	}
	a.taken[pin] = owner
	return nil
}

func (a *fakeAllocator) Release(owner string) {
	a.released = append(a.released, owner)
	for pin, o := range a.taken {
		if o == owner {
			delete(a.taken, pin)
		}
	}
}

func TestPinsValidate(t *testing.T) {
	tests := []struct {
		name    string
		pins    Pins
		wantErr bool
	}{
		{"defaults", DefaultPins(), false},
		{"with mclk", Pins{SD: 1, WS: 2, SCK: 3, MCLK: 0}, false},
		{"upper bound", Pins{SD: 48, WS: 47, SCK: 46, MCLK: 45}, false},
		{"sd missing", Pins{SD: -1, WS: 4, SCK: 6, MCLK: -1}, true},
		{"ws out of range", Pins{SD: 5, WS: 49, SCK: 6, MCLK: -1}, true},
		{"mclk out of range", Pins{SD: 5, WS: 4, SCK: 6, MCLK: -2}, true},
		{"sd shares ws", Pins{SD: 4, WS: 4, SCK: 6, MCLK: -1}, true},
		{"mclk shares sck", Pins{SD: 5, WS: 4, SCK: 6, MCLK: 6}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.pins.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestReserve(t *testing.T) {
	alloc := &fakeAllocator{busy: -100}
	assert.NoError(t, Reserve(DefaultPins(), alloc, "mic"))
	assert.Equal(t, map[int]string{5: "mic", 4: "mic", 6: "mic"}, alloc.taken)
}

func TestReserveRollsBackOnConflict(t *testing.T) {
	alloc := &fakeAllocator{busy: 6}
	err := Reserve(DefaultPins(), alloc, "mic")
	assert.ErrorIs(t, err, ErrAudioUnavailable)
	assert.Empty(t, alloc.taken)
	assert.Equal(t, []string{"mic"}, alloc.released)
}

func TestReserveInvalidPins(t *testing.T) {
	alloc := &fakeAllocator{busy: -100}
	err := Reserve(Pins{SD: 99, WS: 4, SCK: 6, MCLK: -1}, alloc, "mic")
	assert.ErrorIs(t, err, ErrAudioUnavailable)
	assert.Empty(t, alloc.taken)
}

func TestReserveDuplicatePins(t *testing.T) {
	alloc := &fakeAllocator{busy: -100}
	err := Reserve(Pins{SD: 5, WS: 5, SCK: 6, MCLK: -1}, alloc, "mic")
	assert.ErrorIs(t, err, ErrAudioUnavailable)
	assert.ErrorContains(t, err, "already used by sd")
	assert.Empty(t, alloc.taken)
}

func TestToneLevel(t *testing.T) {
	tone := NewTone(44100)
	block := make([]int32, 128)
	assert.NoError(t, tone.Read(block))
	assert.Equal(t, 0.0, MeanAbs(block))

	tone.SetLevel(2)
	assert.Equal(t, 1.0, tone.Level())
	tone.SetLevel(0.5)
	assert.NoError(t, tone.Read(block))
	assert.Greater(t, MeanAbs(block), 1e8)
}
