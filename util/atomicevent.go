package util

import (
	"sync"
)

// Latest holds the most recent value published by a producer and a
// notification channel of capacity one. Publishing never blocks: a
// slow consumer only ever sees the newest value, intermediate values
// are dropped. Used to hand rendered frames to the display driver.
type Latest[T any] struct {
	mu     sync.Mutex
	value  T
	notify chan struct{}
}

// NewLatest creates an empty Latest.
func NewLatest[T any]() *Latest[T] {
	return &Latest[T]{
		notify: make(chan struct{}, 1),
	}
}

// Publish replaces the held value and signals the channel unless a
// signal is already pending.
func (l *Latest[T]) Publish(value T) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.value = value

	select {
	case l.notify <- struct{}{}:
	default:
	}
}

// Notify returns the channel to select on.
func (l *Latest[T]) Notify() <-chan struct{} {
	return l.notify
}

// Load returns the held value.
func (l *Latest[T]) Load() T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value
}

// Pending reports whether a signal is waiting to be consumed.
func (l *Latest[T]) Pending() bool {
	return len(l.notify) > 0
}
