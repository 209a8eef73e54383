package platform

import (
	"log/slog"
	"sync"
	"time"

	c "lautenbacher.net/buttonleds/config"
	"lautenbacher.net/buttonleds/pixel"
	u "lautenbacher.net/buttonleds/util"
)

type AbstractPlatform struct {
	config          *c.Config
	displayFunc     func([]pixel.Led)
	displayWg       sync.WaitGroup
	displayStopChan chan struct{}
	shutdownMutex   sync.RWMutex
	isShuttingDown  bool
}

func newAbstractPlatform(conf *c.Config, displayFunc func([]pixel.Led)) *AbstractPlatform {
	return &AbstractPlatform{
		config:          conf,
		displayFunc:     displayFunc,
		displayStopChan: make(chan struct{}),
	}
}

func (s *AbstractPlatform) LedsTotal() int {
	return s.config.Hardware.Display.LedsTotal
}

func (s *AbstractPlatform) ForceUpdateDelay() time.Duration {
	return s.config.Hardware.Display.ForceUpdateDelay
}

func (s *AbstractPlatform) setInShutdown() {
	s.shutdownMutex.Lock()
	s.isShuttingDown = true
	s.shutdownMutex.Unlock()
}

func (s *AbstractPlatform) startDisplayDriver(frames *u.Latest[[]pixel.Led]) {
	s.displayWg.Add(1)
	go s.displayDriver(frames)
}

// stopDisplayDriver waits until the driver goroutine has ended.
func (s *AbstractPlatform) stopDisplayDriver() {
	s.setInShutdown()
	close(s.displayStopChan)
	s.displayWg.Wait()
}

// displayDriver shows the newest frame. The last frame is sent again
// every ForceUpdateDelay so a glitched strip recovers.
func (s *AbstractPlatform) displayDriver(frames *u.Latest[[]pixel.Led]) {
	defer s.displayWg.Done()
	var force <-chan time.Time
	if delay := s.ForceUpdateDelay(); delay > 0 {
		ticker := time.NewTicker(delay)
		defer ticker.Stop()
		force = ticker.C
	}
	var last []pixel.Led
	for {
		select {
		case <-s.displayStopChan:
			slog.Info("Ending DisplayDriver go-routine...")
			return
		case <-frames.Notify():
			last = frames.Load()
			s.show(last)
		case <-force:
			if last != nil {
				s.show(last)
			}
		}
	}
}

func (s *AbstractPlatform) show(leds []pixel.Led) {
	s.shutdownMutex.RLock()
	defer s.shutdownMutex.RUnlock()
	if !s.isShuttingDown {
		s.displayFunc(leds)
	}
}
