package platform

import (
	"fmt"
	"sync"
	"time"

	"github.com/gammazero/deque"
)

// VirtualButton is the push button of the simulation. It keeps a short
// history of its edges for display.
type VirtualButton struct {
	mu       sync.Mutex
	pressed  bool
	since    time.Time
	history  deque.Deque[string]
	size     int
	release  *time.Timer
	onChange func()
}

func NewVirtualButton(historySize int) *VirtualButton {
	return &VirtualButton{size: max(historySize, 1)}
}

func (b *VirtualButton) Pressed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pressed
}

// OnChange registers f to be called after every edge.
func (b *VirtualButton) OnChange(f func()) {
	b.mu.Lock()
	b.onChange = f
	b.mu.Unlock()
}

func (b *VirtualButton) Set(pressed bool, now time.Time) {
	b.mu.Lock()
	if b.pressed == pressed {
		b.mu.Unlock()
		return
	}
	b.pressed = pressed
	if pressed {
		b.record(now.Format("15:04:05.000") + " pressed")
	} else {
		b.record(fmt.Sprintf("%s released after %v", now.Format("15:04:05.000"), now.Sub(b.since).Round(time.Millisecond)))
	}
	b.since = now
	f := b.onChange
	b.mu.Unlock()
	if f != nil {
		f()
	}
}

func (b *VirtualButton) Toggle(now time.Time) {
	b.cancelRelease()
	b.Set(!b.Pressed(), now)
}

// PressFor presses the button and releases it after d.
func (b *VirtualButton) PressFor(d time.Duration) {
	b.cancelRelease()
	b.Set(true, time.Now())
	b.mu.Lock()
	b.release = time.AfterFunc(d, func() { b.Set(false, time.Now()) })
	b.mu.Unlock()
}

// History returns the recorded edges, oldest first.
func (b *VirtualButton) History() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	ret := make([]string, b.history.Len())
	for i := range ret {
		ret[i] = b.history.At(i)
	}
	return ret
}

func (b *VirtualButton) cancelRelease() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.release != nil {
		b.release.Stop()
		b.release = nil
	}
}

func (b *VirtualButton) record(line string) {
	b.history.PushBack(line)
	for b.history.Len() > b.size {
		b.history.PopFront()
	}
}
