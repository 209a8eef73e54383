package util

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLatest(t *testing.T) {
	l := NewLatest[[]byte]()
	assert.NotNil(t, l.notify, "notify channel should be initialized")
	assert.False(t, l.Pending())
	assert.Nil(t, l.Load())
}

func TestPublishAndLoad(t *testing.T) {
	frames := NewLatest[[]int]()
	frames.Publish([]int{1, 2, 3})
	assert.Equal(t, []int{1, 2, 3}, frames.Load())

	type state struct {
		Active bool
	}
	states := NewLatest[state]()
	states.Publish(state{Active: true})
	assert.Equal(t, state{Active: true}, states.Load())
}

func TestNotifyCoalesces(t *testing.T) {
	l := NewLatest[string]()

	l.Publish("frame1")
	l.Publish("frame2")
	l.Publish("frame3")
	assert.True(t, l.Pending())

	select {
	case <-l.Notify():
	default:
		t.Fatal("should have received a notification")
	}

	select {
	case <-l.Notify():
		t.Fatal("three publishes must produce a single pending notification")
	default:
	}

	assert.Equal(t, "frame3", l.Load(), "only the newest value is kept")
}

func TestConcurrentPublish(t *testing.T) {
	l := NewLatest[int]()
	done := make(chan struct{})

	go func() {
		for i := 0; i < 1000; i++ {
			l.Publish(i)
		}
		close(done)
	}()

	last := -1
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-l.Notify():
				v := l.Load()
				if v < last {
					t.Errorf("read a stale value: got %d, last was %d", v, last)
				}
				last = v
			case <-done:
				return
			}
		}
	}()

	wg.Wait()
	assert.Equal(t, 999, l.Load())
}
