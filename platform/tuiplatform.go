package platform

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"lautenbacher.net/buttonleds/audio"
	c "lautenbacher.net/buttonleds/config"
	"lautenbacher.net/buttonleds/controller"
	"lautenbacher.net/buttonleds/logging"
	"lautenbacher.net/buttonleds/pixel"
	u "lautenbacher.net/buttonleds/util"
)

const levelStep = 0.05

type TUIPlatform struct {
	*AbstractPlatform
	tviewapp     *tview.Application
	intro        *tview.TextView
	ledDisplay   *tview.TextView
	gestureView  *tview.TextView
	logView      *tview.TextView
	ossignalChan chan os.Signal
	button       *VirtualButton
	tone         *audio.Tone
	logFlushOnce sync.Once
	readyChan    chan bool
}

func NewTUIPlatform(conf *c.Config, ossignalchan chan os.Signal) *TUIPlatform {
	inst := &TUIPlatform{
		ossignalChan: ossignalchan,
		button:       NewVirtualButton(8),
		tone:         audio.NewTone(conf.Audio.SampleRate),
		readyChan:    make(chan bool),
	}
	inst.AbstractPlatform = newAbstractPlatform(conf, inst.DisplayLeds)
	return inst
}

func (s *TUIPlatform) Ready() <-chan bool {
	return s.readyChan
}

func (s *TUIPlatform) Button() controller.Button {
	return s.button
}

func (s *TUIPlatform) AudioSource() audio.Source {
	return s.tone
}

func (s *TUIPlatform) Start(frames *u.Latest[[]pixel.Led]) error {
	s.initSimulationTUI()
	s.startDisplayDriver(frames)
	return nil
}

func (s *TUIPlatform) Stop() {
	s.stopDisplayDriver()
	if s.tviewapp != nil {
		s.tviewapp.Stop()
	}
}

func (s *TUIPlatform) DisplayLeds(leds []pixel.Led) {
	top, bottom := simulateLeds(leds)
	s.tviewapp.QueueUpdateDraw(func() {
		s.ledDisplay.SetText(" " + top + "\n " + bottom)
	})
}

// scriptedPresses are the hold times of the q, l and s keys, each in
// the middle of its bucket.
func scriptedPresses(ctrl c.ControllerConfig) (quick, long, sleep time.Duration) {
	quick = (ctrl.Debounce + ctrl.QuickPress) / 2
	long = (ctrl.LongPress + ctrl.SleepPress) / 2
	sleep = ctrl.SleepPress + ctrl.QuickPress
	return
}

// getIntroText generates the dynamic text for the top info pane.
func (s *TUIPlatform) getIntroText() string {
	line1 := fmt.Sprintf("Microphone level: [#ffff00]%3.0f%%[white] | Hit [#ff0000]+[white]/[#ff0000]-[white] to change", 100*s.tone.Level())
	line2 := "Hit [blue]space[-] to press/release, [blue]q[-]/[blue]l[-]/[blue]s[-] for a quick/long/sleep press"
	line3 := "Hit [#ff0000]x[-] to exit, [#ff0000]r[-] to reload, [#ff0000]Up/Down[-] to scroll logs"
	return fmt.Sprintf("%s\n%s\n%s", line1, line2, line3)
}

func (s *TUIPlatform) updateGestures() {
	history := s.button.History()
	s.tviewapp.QueueUpdateDraw(func() {
		s.gestureView.SetText(strings.Join(history, "\n"))
	})
}

func (s *TUIPlatform) setLevel(level float64) {
	s.tone.SetLevel(level)
	s.intro.SetText(s.getIntroText())
}

func (s *TUIPlatform) initSimulationTUI() {
	s.tviewapp = tview.NewApplication()
	quick, long, sleep := scriptedPresses(s.config.Controller)

	s.intro = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	s.intro.SetText(s.getIntroText())
	s.intro.SetBorder(true).SetTitle(" BUTTONLEDS Simulation ").SetTitleColor(tcell.ColorLightBlue)
	s.intro.SetBackgroundColor(tcell.NewRGBColor(20, 20, 20))

	s.ledDisplay = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	s.ledDisplay.SetBorder(true)
	s.ledDisplay.SetBackgroundColor(tcell.NewRGBColor(30, 30, 30))

	s.gestureView = tview.NewTextView()
	s.gestureView.SetBorder(true).SetTitle(" Button ").SetTitleColor(tcell.ColorLightBlue)
	s.gestureView.SetBackgroundColor(tcell.NewRGBColor(30, 30, 30))
	s.button.OnChange(s.updateGestures)

	s.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetChangedFunc(func() {
			s.logView.ScrollToEnd()
			s.tviewapp.Draw()
		})
	s.logView.SetBorder(true).SetTitle(" Logs ").SetTitleColor(tcell.ColorLightBlue)
	s.logView.SetBackgroundColor(tcell.NewRGBColor(40, 40, 40))

	middle := tview.NewFlex().
		AddItem(s.ledDisplay, 0, 2, false).
		AddItem(s.gestureView, 0, 1, false)

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(s.intro, 5, 0, false).
		AddItem(middle, 10, 0, false).
		AddItem(s.logView, 0, 1, true)

	s.tviewapp.SetAfterDrawFunc(func(screen tcell.Screen) {
		s.logFlushOnce.Do(func() {
			if err := logging.SetOutput(tview.ANSIWriter(s.logView)); err != nil {
				slog.Error("Failed to flush log buffer", "error", err)
			}
			close(s.readyChan)
		})
	})

	s.tviewapp.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC:
			s.ossignalChan <- os.Interrupt
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case ' ':
				s.button.Toggle(time.Now())
			case 'q', 'Q':
				s.button.PressFor(quick)
			case 'l', 'L':
				s.button.PressFor(long)
			case 's', 'S':
				s.button.PressFor(sleep)
			case '+':
				s.setLevel(s.tone.Level() + levelStep)
			case '-':
				s.setLevel(s.tone.Level() - levelStep)
			case 'x', 'X':
				s.ossignalChan <- os.Interrupt
			case 'r', 'R':
				s.ossignalChan <- syscall.SIGHUP
			default:
				return event
			}
			return nil
		case tcell.KeyUp:
			row, col := s.logView.GetScrollOffset()
			s.logView.ScrollTo(row-1, col)
			return nil
		case tcell.KeyDown:
			row, col := s.logView.GetScrollOffset()
			s.logView.ScrollTo(row+1, col)
			return nil
		}
		return event
	})

	go func() {
		if err := s.tviewapp.SetRoot(layout, true).Run(); err != nil {
			slog.Error("Error running TUI", "error", err)
			s.ossignalChan <- os.Interrupt
		}
	}()
}

// simulateLeds renders the strip as two text rows, the height of the
// bar follows the brightness of each led.
func simulateLeds(leds []pixel.Led) (string, string) {
	var top, bottom strings.Builder
	for _, v := range leds {
		if v.IsEmpty() {
			top.WriteString("  ")
			bottom.WriteString("  ")
			continue
		}
		value := max(v.Red, v.Green, v.Blue)
		color := scaledColor(v)
		topChar, bottomChar := barChars(value)
		top.WriteString(color + topChar + topChar + "[-]")
		bottom.WriteString(color + bottomChar + bottomChar + "[-]")
	}
	return top.String(), bottom.String()
}

var bars = []string{"▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}

// barChars splits 0..255 over two rows of eighth blocks.
func barChars(value byte) (string, string) {
	step := int(math.Ceil(float64(value) * 16 / 255))
	switch {
	case step == 0:
		return " ", " "
	case step <= 8:
		return " ", bars[step-1]
	default:
		return bars[step-9], "█"
	}
}

// scaledColor returns the tview color tag of led at full brightness.
func scaledColor(led pixel.Led) string {
	maxColor := float64(max(led.Red, led.Green, led.Blue))
	if maxColor == 0 {
		return "[#000000]"
	}
	factor := 255 / maxColor
	scale := func(v byte) byte {
		return byte(math.Min(math.Round(float64(v)*factor), 255))
	}
	return fmt.Sprintf("[#%02x%02x%02x]", scale(led.Red), scale(led.Green), scale(led.Blue))
}
