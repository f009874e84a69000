package ui

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"

	"fyne.io/systray"
)

type trayIcon int

const (
	iconIdle trayIcon = iota
	iconRecording
	iconError
)

var (
	trayIcons     map[trayIcon][]byte
	trayIconsOnce sync.Once
)

func initTrayIcons() {
	trayIcons = map[trayIcon][]byte{
		iconIdle:      circleIcon(130, 130, 130),
		iconRecording: circleIcon(220, 50, 50),
		iconError:     circleIcon(255, 100, 0),
	}
}

// Tray shows the recorder in the system tray. The toggle menu item is the
// button, the tray title carries the elapsed time.
// NewTray must be called from the systray onReady callback.
type Tray struct {
	toggle *systray.MenuItem
	quit   *systray.MenuItem

	mutex  sync.Mutex
	status string
}

func NewTray(appName string) *Tray {
	trayIconsOnce.Do(initTrayIcons)

	systray.SetTooltip(appName)
	systray.SetIcon(trayIcons[iconIdle])

	t := &Tray{
		toggle: systray.AddMenuItem(LabelRecord, "Start or stop recording"),
	}
	systray.AddSeparator()
	t.quit = systray.AddMenuItem("Quit", "Stop recording and quit "+appName)
	return t
}

// Clicks delivers a value every time the toggle item is clicked
func (t *Tray) Clicks() <-chan struct{} {
	return t.toggle.ClickedCh
}

// QuitRequested delivers a value when Quit is clicked
func (t *Tray) QuitRequested() <-chan struct{} {
	return t.quit.ClickedCh
}

func (t *Tray) SetStatus(status string) {
	t.mutex.Lock()
	t.status = status
	t.mutex.Unlock()

	systray.SetTooltip(status)
	if status == StatusRecording {
		systray.SetIcon(trayIcons[iconRecording])
		return
	}
	systray.SetIcon(trayIcons[iconIdle])
	systray.SetTitle("")
}

func (t *Tray) SetButton(label string, enabled bool) {
	t.toggle.SetTitle(label)
	if enabled {
		t.toggle.Enable()
	} else {
		t.toggle.Disable()
	}
}

func (t *Tray) SetElapsed(elapsed string) {
	t.mutex.Lock()
	recording := t.status == StatusRecording
	t.mutex.Unlock()

	if recording {
		systray.SetTitle(elapsed)
	}
}

func (t *Tray) Notify(msg string, isErr bool) {
	systray.SetTooltip(msg)
	if isErr {
		systray.SetIcon(trayIcons[iconError])
	}
}

func circleIcon(r, g, b uint8) []byte {
	const size = 22
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	cx, cy := float64(size)/2, float64(size)/2
	outer := float64(size)/2 - 1
	inner := outer - 1.2

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x) + 0.5 - cx
			dy := float64(y) + 0.5 - cy
			dist := math.Sqrt(dx*dx + dy*dy)
			if dist <= inner {
				img.SetRGBA(x, y, color.RGBA{r, g, b, 255})
			} else if dist <= outer {
				alpha := uint8(255 * (outer - dist) / (outer - inner))
				img.SetRGBA(x, y, color.RGBA{r, g, b, alpha})
			}
		}
	}

	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
