package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"reflect"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"

	"lautenbacher.net/buttonleds/audio"
	c "lautenbacher.net/buttonleds/config"
	"lautenbacher.net/buttonleds/controller"
	"lautenbacher.net/buttonleds/host"
	"lautenbacher.net/buttonleds/logging"
	p "lautenbacher.net/buttonleds/pattern"
	"lautenbacher.net/buttonleds/pixel"
	pl "lautenbacher.net/buttonleds/platform"
	u "lautenbacher.net/buttonleds/util"
)

const (
	buttonOwner   = "button"
	readyTimeout  = 5 * time.Second
	reloadSettle  = 200 * time.Millisecond
	serverTimeout = 2 * time.Second
)

type App struct {
	ossignal   chan os.Signal
	reload     chan struct{}
	cfile      string
	realHW     bool
	conf       *c.Config
	platform   pl.Platform
	host       *host.Host
	server     *http.Server
	stopsignal chan struct{}
	shutdownWg sync.WaitGroup
}

func NewApp(ossignal chan os.Signal, cfile string, realHW bool) *App {
	return &App{
		ossignal: ossignal,
		reload:   make(chan struct{}, 1),
		cfile:    cfile,
		realHW:   realHW,
	}
}

func main() {
	cfile := pflag.StringP("config", "c", c.CONFILE, "path to the YAML config file")
	realHW := pflag.BoolP("real", "r", false, "drive the real hardware instead of the TUI simulation")
	pflag.Parse()

	ossignal := make(chan os.Signal, 1)
	signal.Notify(ossignal, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	app := NewApp(ossignal, *cfile, *realHW)
	if err := app.Run(); err != nil {
		slog.Error("Startup failed", "error", err)
		logging.Close()
		os.Exit(1)
	}
}

// Run starts everything and blocks until an interrupt arrives.
func (s *App) Run() error {
	conf, err := c.ReadConfig(s.cfile)
	if err != nil {
		return err
	}
	logcfg := conf.Logging.TUI
	if s.realHW {
		logcfg = conf.Logging.HW
	}
	if err := logging.Init(logcfg, !s.realHW); err != nil {
		return err
	}
	defer logging.Close()

	if err := s.initialise(conf); err != nil {
		return err
	}

	watcher, err := s.watchConfig()
	if err != nil {
		slog.Warn("Config file is not watched", "error", err)
	} else {
		defer watcher.Close()
	}

	for {
		select {
		case sig := <-s.ossignal:
			if sig == syscall.SIGHUP {
				slog.Info("Reload requested")
				s.reloadConfig()
				continue
			}
			slog.Info("Shutting down", "signal", sig)
			s.shutdown()
			return nil
		case <-s.reload:
			s.reloadConfig()
		}
	}
}

func calibration(a c.AudioConfig) audio.Calibration {
	return audio.Calibration{
		Gain:                 a.Gain,
		PulsingDivisor:       a.PulsingDivisor,
		ClockwiseSensitivity: a.ClockwiseSensitivity,
		SoundThreshold:       a.SoundThreshold,
		Smoothing:            a.Smoothing,
		BaseBrightness:       byte(a.BaseBrightness),
	}
}

func (s *App) initialise(conf *c.Config) error {
	s.conf = conf
	if s.realHW {
		s.platform = pl.NewRaspberryPiPlatform(conf)
	} else {
		s.platform = pl.NewTUIPlatform(conf, s.ossignal)
	}

	frames := u.NewLatest[[]pixel.Led]()
	if err := s.platform.Start(frames); err != nil {
		s.platform = nil
		return fmt.Errorf("can't start platform: %w", err)
	}
	select {
	case <-s.platform.Ready():
	case <-time.After(readyTimeout):
		slog.Warn("Platform not ready, continuing anyway")
	}

	reg := host.NewPinRegistry(audio.MaxPin)
	if err := reg.Allocate(conf.Hardware.ButtonPin, false, buttonOwner); err != nil {
		slog.Warn("Button pin not registered", "pin", conf.Hardware.ButtonPin, "error", err)
	}

	strip := pixel.NewStrip(conf.Hardware.Display.LedsTotal, frames)
	seg := host.NewSegment(strip, conf.Segment)
	mic := audio.NewExtractor(nil, conf.Audio.BlockSize, calibration(conf.Audio))
	ctrl := conf.Controller
	engine := p.NewEngine(p.Timing{
		Interval: ctrl.PatternInterval,
		Blink:    ctrl.BlinkInterval,
		Chase:    ctrl.ChaseInterval,
	}, mic, nil)
	ctl := controller.New(ctrl, strip, s.platform.Button(), seg, engine)

	s.host = host.New(s.cfile, conf, ctl, seg, reg, mic, s.platform.AudioSource())
	s.host.Setup(time.Now())

	s.stopsignal = make(chan struct{})
	s.shutdownWg.Add(1)
	go func() {
		defer s.shutdownWg.Done()
		s.host.Run(s.stopsignal)
	}()

	if conf.Web.Enabled {
		s.server = &http.Server{Addr: conf.Web.Listen, Handler: s.host.Handler()}
		go func(server *http.Server) {
			slog.Info("Web server listening", "address", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Web server failed", "error", err)
			}
		}(s.server)
	}
	slog.Info("Started", "leds", conf.Hardware.Display.LedsTotal, "real", s.realHW)
	return nil
}

func (s *App) shutdown() {
	if s.server != nil {
		if err := s.server.Close(); err != nil {
			slog.Warn("Closing web server", "error", err)
		}
		s.server = nil
	}
	if s.stopsignal != nil {
		close(s.stopsignal)
		s.shutdownWg.Wait()
		s.stopsignal = nil
	}
	if s.host != nil {
		s.host.Hub().Close()
		s.host = nil
	}
	if s.platform != nil {
		logging.BufferOutput()
		s.platform.Stop()
		s.platform = nil
	}
}

// runtimeOnly reports whether old and updated differ at most in the
// settings a running host can apply.
func runtimeOnly(old, updated *c.Config) bool {
	cmp := *updated
	cmp.Controller.Enabled = old.Controller.Enabled
	cmp.Audio.Pins = old.Audio.Pins
	cmp.Logging = old.Logging
	return reflect.DeepEqual(*old, cmp)
}

// reloadConfig applies runtime settings in place and restarts for
// everything else. A broken file keeps the running configuration.
func (s *App) reloadConfig() {
	if s.host == nil {
		return
	}
	conf, err := c.ReadConfig(s.cfile)
	if err != nil {
		slog.Error("Keeping current configuration", "error", err)
		return
	}
	logcfg := conf.Logging.TUI
	if s.realHW {
		logcfg = conf.Logging.HW
	}
	if err := logging.SetLevel(logcfg.Level); err != nil {
		slog.Warn("Keeping log level", "error", err)
	}
	if runtimeOnly(s.conf, conf) {
		s.conf = conf
		s.host.Reconfigure(conf)
		return
	}

	slog.Info("Configuration changed, restarting")
	s.shutdown()
	if err := s.initialise(conf); err != nil {
		slog.Error("Restart failed", "error", err)
		s.ossignal <- os.Interrupt
	}
}

// watchConfig requests a reload whenever the config file is written.
// The directory is watched because editors replace files on save.
func (s *App) watchConfig() (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("can't create file watcher: %w", err)
	}
	abs, err := filepath.Abs(s.cfile)
	if err != nil {
		watcher.Close()
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("can't watch %s: %w", filepath.Dir(abs), err)
	}
	go s.watchLoop(watcher, abs)
	return watcher, nil
}

func (s *App) watchLoop(watcher *fsnotify.Watcher, path string) {
	var settle *time.Timer
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			slog.Debug("Config file changed", "event", event.Op)
			// one reload per burst of writes
			if settle != nil {
				settle.Stop()
			}
			settle = time.AfterFunc(reloadSettle, s.requestReload)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("File watcher error", "error", err)
		}
	}
}

func (s *App) requestReload() {
	select {
	case s.reload <- struct{}{}:
	default:
	}
}
