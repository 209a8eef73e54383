// Package host provides the surroundings the controller runs in: the
// pin registry, the native animation segment, the scheduler loop and
// the web API.
package host

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	ErrPinInUse   = errors.New("pin already allocated")
	ErrPinInvalid = errors.New("invalid pin")
)

type pinOwner struct {
	owner  string
	output bool
}

// PinRegistry hands out GPIO pins exclusively to one owner each.
type PinRegistry struct {
	mu     sync.Mutex
	maxPin int
	pins   map[int]pinOwner
}

func NewPinRegistry(maxPin int) *PinRegistry {
	return &PinRegistry{maxPin: maxPin, pins: make(map[int]pinOwner)}
}

// Allocate reserves pin for owner. Allocating a pin the owner already
// holds succeeds, -1 is never allocatable.
func (r *PinRegistry) Allocate(pin int, output bool, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if pin < 0 || pin > r.maxPin {
		return fmt.Errorf("%w: %d", ErrPinInvalid, pin)
	}
	if cur, ok := r.pins[pin]; ok && cur.owner != owner {
		return fmt.Errorf("%w: pin %d owned by %s", ErrPinInUse, pin, cur.owner)
	}
	r.pins[pin] = pinOwner{owner: owner, output: output}
	slog.Debug("Pin allocated", "pin", pin, "owner", owner, "output", output)
	return nil
}

// Release frees every pin held by owner.
func (r *PinRegistry) Release(owner string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for pin, cur := range r.pins {
		if cur.owner == owner {
			delete(r.pins, pin)
		}
	}
}

// Owner returns the owner of pin, if any.
func (r *PinRegistry) Owner(pin int) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.pins[pin]
	return cur.owner, ok
}
