package service

import (
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/audiolibrelab/vrec/internal/audio"
	"github.com/audiolibrelab/vrec/internal/recording"
	"github.com/audiolibrelab/vrec/internal/storage"
	"github.com/audiolibrelab/vrec/internal/ui"
)

type fakeDevice struct {
	beginErr    error
	finalizeErr error
	released    *int
}

func (d *fakeDevice) Configure(audio.Settings) error { return nil }
func (d *fakeDevice) Begin() error                   { return d.beginErr }
func (d *fakeDevice) Finalize() error                { return d.finalizeErr }
func (d *fakeDevice) Release() error {
	*d.released++
	return nil
}

// fakeAuthorizer answers requests with a fixed decision
type fakeAuthorizer struct {
	mutex      sync.Mutex
	authorized bool
	answer     bool
	requests   int
}

func (a *fakeAuthorizer) IsAuthorized() bool {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.authorized
}

func (a *fakeAuthorizer) RequestAuthorization(callback func(bool)) {
	a.mutex.Lock()
	a.requests++
	a.authorized = a.answer
	answer := a.answer
	a.mutex.Unlock()

	callback(answer)
}

type fakeRecordings struct {
	items []storage.RecordingInfo
}

func (f *fakeRecordings) Dir() (string, error) { return "/data/recordings", nil }

func (f *fakeRecordings) List() ([]storage.RecordingInfo, error) { return f.items, nil }

func (f *fakeRecordings) Latest() (*storage.RecordingInfo, error) {
	if len(f.items) == 0 {
		return nil, os.ErrNotExist
	}
	return &f.items[0], nil
}

type dirStorage string

func (d dirStorage) Path(name string) (string, error) { return string(d) + "/" + name, nil }

// manualTicker never fires on its own
type manualTicker struct{ ch chan time.Time }

func (m *manualTicker) C() <-chan time.Time { return m.ch }
func (m *manualTicker) Stop()               {}

type harness struct {
	svc      *RecorderService
	view     *ui.Recorder
	auth     *fakeAuthorizer
	device   *fakeDevice
	released int
	ticker   *manualTicker
}

func newHarness(t *testing.T, authorized bool) *harness {
	t.Helper()

	h := &harness{
		view:   ui.NewRecorder(0),
		auth:   &fakeAuthorizer{authorized: authorized, answer: authorized},
		ticker: &manualTicker{ch: make(chan time.Time)},
	}
	h.device = &fakeDevice{released: &h.released}

	clock := time.Date(2024, time.January, 2, 3, 14, 5, 0, time.Local)
	session := recording.New(recording.Options{
		NewDevice: func() (audio.CaptureDevice, error) { return h.device, nil },
		Storage:   dirStorage("/data/recordings"),
		Clock:     fixedClock(clock),
	})

	h.svc = New(Options{
		Session:    session,
		Authorizer: h.auth,
		View:       h.view,
		Recordings: &fakeRecordings{},
		NewTicker:  func(time.Duration) recording.Ticker { return h.ticker },
	})
	t.Cleanup(func() { h.svc.Close() })
	return h
}

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

func TestInit_Authorized(t *testing.T) {
	h := newHarness(t, true)
	h.svc.Init()

	state := h.view.Snapshot()
	if state.Status != ui.StatusIdle || state.Button != ui.LabelRecord || !state.ButtonEnabled {
		t.Errorf("Unexpected initial view: %+v", state)
	}
	if state.Elapsed != "00:00" {
		t.Errorf("Expected elapsed 00:00, got %s", state.Elapsed)
	}
	if h.auth.requests != 0 {
		t.Errorf("Expected no authorization request, got %d", h.auth.requests)
	}
}

func TestInit_RequestsAuthorization(t *testing.T) {
	t.Run("granted", func(t *testing.T) {
		h := newHarness(t, false)
		h.auth.answer = true
		h.svc.Init()

		state := h.view.Snapshot()
		if h.auth.requests != 1 {
			t.Errorf("Expected one request, got %d", h.auth.requests)
		}
		if state.Status != ui.StatusIdle || !state.ButtonEnabled {
			t.Errorf("Expected enabled idle view after grant, got %+v", state)
		}
	})

	t.Run("denied", func(t *testing.T) {
		h := newHarness(t, false)
		h.svc.Init()

		state := h.view.Snapshot()
		if state.Status != ui.StatusPermissionRequired || state.ButtonEnabled {
			t.Errorf("Expected disabled view after denial, got %+v", state)
		}
		if last, ok := h.view.LastNotification(); !ok || !last.IsError {
			t.Errorf("Expected an error message, got %+v", last)
		}
		if h.svc.GetLastError() == "" {
			t.Error("Expected last error to be set")
		}
	})
}

func TestToggle_RecordAndSave(t *testing.T) {
	h := newHarness(t, true)
	h.svc.Init()

	if err := h.svc.Toggle(); err != nil {
		t.Fatalf("Toggle (start) failed: %v", err)
	}

	state := h.view.Snapshot()
	if state.Status != ui.StatusRecording || state.Button != ui.LabelStop || !state.ButtonEnabled || state.Elapsed != "00:00" {
		t.Errorf("Unexpected view while recording: %+v", state)
	}

	status := h.svc.GetStatus()
	if status.State != recording.StateRecording || status.Session.ID == "" {
		t.Errorf("Unexpected status while recording: %+v", status)
	}
	if !strings.Contains(status.Message, "recording_20240102_031405.3gp") {
		t.Errorf("Expected file name in status message, got %q", status.Message)
	}

	if err := h.svc.Toggle(); err != nil {
		t.Fatalf("Toggle (stop) failed: %v", err)
	}

	state = h.view.Snapshot()
	if state.Status != "saved: recording_20240102_031405.3gp" {
		t.Errorf("Unexpected status after stop: %q", state.Status)
	}
	if state.Button != ui.LabelRecord || !state.ButtonEnabled || state.Elapsed != "00:00" {
		t.Errorf("Unexpected view after stop: %+v", state)
	}
	if h.released != 1 {
		t.Errorf("Expected device released once, got %d", h.released)
	}
	if h.svc.GetStatus().State != recording.StateIdle {
		t.Error("Expected idle after second toggle")
	}
}

func TestToggle_PermissionDenied(t *testing.T) {
	h := newHarness(t, false)

	err := h.svc.Toggle()
	if !errors.Is(err, recording.ErrPermissionDenied) {
		t.Fatalf("Expected ErrPermissionDenied, got: %v", err)
	}

	state := h.view.Snapshot()
	if state.ButtonEnabled {
		t.Error("Expected button disabled")
	}
	if h.auth.requests != 1 {
		t.Errorf("Expected authorization to be requested again, got %d", h.auth.requests)
	}
	if h.svc.GetStatus().State != recording.StateIdle {
		t.Error("Expected to stay idle")
	}
	if h.released != 0 {
		t.Error("Expected no device to be touched")
	}
}

func TestToggle_StartFailure(t *testing.T) {
	h := newHarness(t, true)
	h.device.beginErr = errors.New("device busy")
	h.svc.Init()

	err := h.svc.Toggle()
	if !errors.Is(err, recording.ErrDeviceConfiguration) {
		t.Fatalf("Expected ErrDeviceConfiguration, got: %v", err)
	}

	state := h.view.Snapshot()
	if state.Status != ui.StatusIdle || state.Button != ui.LabelRecord || !state.ButtonEnabled {
		t.Errorf("Expected idle view ready to retry, got %+v", state)
	}
	last, ok := h.view.LastNotification()
	if !ok || !last.IsError || !strings.Contains(last.Message, "device busy") {
		t.Errorf("Expected transient error message, got %+v", last)
	}
	if h.released != 1 {
		t.Errorf("Expected partially acquired device released, got %d", h.released)
	}
	if !strings.Contains(h.svc.GetStatus().LastError, "device busy") {
		t.Errorf("Expected last error in status, got %q", h.svc.GetStatus().LastError)
	}

	// Retrying after the cause is gone clears the error
	h.device.beginErr = nil
	if err := h.svc.Toggle(); err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if h.svc.GetLastError() != "" {
		t.Errorf("Expected last error cleared, got %q", h.svc.GetLastError())
	}
}

func TestToggle_FinalizeFailure(t *testing.T) {
	h := newHarness(t, true)
	h.svc.Init()

	if err := h.svc.Toggle(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	h.device.finalizeErr = audio.ErrTooShort
	err := h.svc.Toggle()
	if !errors.Is(err, recording.ErrFinalize) {
		t.Fatalf("Expected ErrFinalize, got: %v", err)
	}

	state := h.view.Snapshot()
	if state.Status != ui.StatusIdle || state.Button != ui.LabelRecord || !state.ButtonEnabled {
		t.Errorf("Expected idle view after failed stop, got %+v", state)
	}
	if h.released != 1 {
		t.Errorf("Expected unconditional release, got %d", h.released)
	}
}

func TestElapsedDisplayUpdates(t *testing.T) {
	h := newHarness(t, true)
	h.svc.Init()
	h.svc.Start()

	// The clock is fixed, so every tick shows 00:00; the point is that the
	// driver is running and reports through the view
	h.ticker.ch <- time.Now()
	h.ticker.ch <- time.Now()

	if got := h.view.Snapshot().Elapsed; got != "00:00" {
		t.Errorf("Elapsed = %q, want 00:00", got)
	}
}

func TestClose_StopsRecording(t *testing.T) {
	h := newHarness(t, true)
	h.svc.Init()
	h.svc.Start()

	if err := h.svc.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if h.released != 1 {
		t.Errorf("Expected device released on teardown, got %d", h.released)
	}
	if h.svc.GetStatus().State != recording.StateIdle {
		t.Error("Expected idle after Close")
	}
	if err := h.svc.Close(); err != nil {
		t.Errorf("Expected repeated Close to succeed, got %v", err)
	}
}

func TestStopWhileIdle(t *testing.T) {
	h := newHarness(t, true)

	path, err := h.svc.Stop()
	if err != nil || path != "" {
		t.Errorf("Expected no-op, got path=%q err=%v", path, err)
	}
}

func TestGenerateStatusMessage(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		want   string
	}{
		{"unauthorized", Status{State: recording.StateIdle}, "Microphone permission required"},
		{"fresh", Status{State: recording.StateIdle, Authorized: true}, ""},
		{"error", Status{State: recording.StateIdle, Authorized: true, LastError: "boom"}, "boom"},
		{
			"last",
			Status{State: recording.StateIdle, Authorized: true, Session: recording.Info{Path: "/d/recording_20240101_000000.3gp"}},
			"Last recording: recording_20240101_000000.3gp",
		},
		{
			"recording",
			Status{State: recording.StateRecording, Authorized: true, Elapsed: "01:05", Session: recording.Info{Path: "/d/recording_20240101_000000.3gp"}},
			"Recording in progress - recording_20240101_000000.3gp (01:05)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := generateStatusMessage(tt.status); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
