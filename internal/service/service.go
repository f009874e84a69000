package service

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/audiolibrelab/vrec/internal/permission"
	"github.com/audiolibrelab/vrec/internal/recording"
	"github.com/audiolibrelab/vrec/internal/storage"
	"github.com/audiolibrelab/vrec/internal/ui"
)

// Service represents the recorder controller the front ends talk to
type Service interface {
	// Init shows the initial view and asks for microphone access if needed
	Init()
	// Toggle starts a recording when idle and stops it when recording
	Toggle() error
	Start() error
	Stop() (string, error)

	GetStatus() Status
	GetLastError() string
	ListRecordings() ([]storage.RecordingInfo, error)
	LatestRecording() (*storage.RecordingInfo, error)
	// RecordingsDir is where new recordings are written
	RecordingsDir() (string, error)

	// Close stops a running recording and the elapsed display
	Close() error
}

// Recordings is the part of the store the controller reads
type Recordings interface {
	Dir() (string, error)
	List() ([]storage.RecordingInfo, error)
	Latest() (*storage.RecordingInfo, error)
}

// Status is the controller state reported to front ends
type Status struct {
	State      recording.State `json:"state"`
	Message    string          `json:"message,omitempty"`
	Session    recording.Info  `json:"session"`
	Elapsed    string          `json:"elapsed"`
	LastError  string          `json:"last_error,omitempty"`
	Authorized bool            `json:"authorized"`
}

// Options wires the controller to its collaborators
type Options struct {
	Session    *recording.Session
	Authorizer permission.Authorizer
	View       ui.View
	Recordings Recordings
	// Interval between elapsed display updates, one second when zero
	Interval  time.Duration
	NewTicker recording.TickerFactory
}

// RecorderService is the main service implementation
type RecorderService struct {
	session    *recording.Session
	authorizer permission.Authorizer
	view       ui.View
	recordings Recordings
	interval   time.Duration
	newTicker  recording.TickerFactory

	// Serializes user actions so view updates follow the state they describe
	actionMutex sync.Mutex

	ctx     context.Context
	cancel  context.CancelFunc
	drivers conc.WaitGroup

	// Error tracking
	lastError      string
	lastErrorMutex sync.RWMutex
}

// New creates a new recorder service instance
func New(opts Options) *RecorderService {
	interval := opts.Interval
	if interval <= 0 {
		interval = time.Second
	}
	newTicker := opts.NewTicker
	if newTicker == nil {
		newTicker = recording.NewTimeTicker
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &RecorderService{
		session:    opts.Session,
		authorizer: opts.Authorizer,
		view:       opts.View,
		recordings: opts.Recordings,
		interval:   interval,
		newTicker:  newTicker,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (s *RecorderService) Init() {
	s.view.SetElapsed(recording.FormatElapsed(0))

	if s.authorizer.IsAuthorized() {
		s.view.SetStatus(ui.StatusIdle)
		s.view.SetButton(ui.LabelRecord, true)
		return
	}

	s.view.SetStatus(ui.StatusPermissionRequired)
	s.view.SetButton(ui.LabelRecord, false)
	s.authorizer.RequestAuthorization(s.onAuthorization)
}

func (s *RecorderService) onAuthorization(granted bool) {
	if granted {
		slog.Info("Microphone access granted")
		s.clearLastError()
		if !s.session.IsRecording() {
			s.view.SetStatus(ui.StatusIdle)
			s.view.SetButton(ui.LabelRecord, true)
		}
		return
	}

	slog.Warn("Microphone access denied")
	s.setLastError(recording.ErrPermissionDenied.Error())
	s.view.SetStatus(ui.StatusPermissionRequired)
	s.view.SetButton(ui.LabelRecord, false)
	s.view.Notify("Microphone permission is required to record", true)
}

func (s *RecorderService) Toggle() error {
	if s.session.IsRecording() {
		_, err := s.Stop()
		return err
	}
	return s.Start()
}

// Start begins a recording. Authorization is checked first; when missing
// the button is disabled, access is requested again and ErrPermissionDenied
// is returned.
func (s *RecorderService) Start() error {
	s.actionMutex.Lock()
	defer s.actionMutex.Unlock()

	if s.session.IsRecording() {
		return nil
	}

	if !s.authorizer.IsAuthorized() {
		s.setLastError(recording.ErrPermissionDenied.Error())
		s.view.SetButton(ui.LabelRecord, false)
		s.view.Notify("Microphone permission is required to record", true)
		s.authorizer.RequestAuthorization(s.onAuthorization)
		return recording.ErrPermissionDenied
	}

	if err := s.session.Start(); err != nil {
		s.setLastError(fmt.Sprintf("Failed to start recording: %v", err))
		s.view.SetStatus(ui.StatusIdle)
		s.view.SetButton(ui.LabelRecord, true)
		s.view.Notify(fmt.Sprintf("Could not start recording: %v", err), true)
		return err
	}

	s.clearLastError()
	s.view.SetStatus(ui.StatusRecording)
	s.view.SetButton(ui.LabelStop, true)
	s.view.SetElapsed(recording.FormatElapsed(0))

	s.drivers.Go(func() {
		recording.RunElapsed(s.ctx, s.session, s.interval, s.newTicker, s.view.SetElapsed)
	})
	return nil
}

// Stop finishes the running recording and returns its path
func (s *RecorderService) Stop() (string, error) {
	s.actionMutex.Lock()
	defer s.actionMutex.Unlock()

	if !s.session.IsRecording() {
		return "", nil
	}

	path, err := s.session.Stop()
	s.view.SetElapsed(recording.FormatElapsed(0))
	s.view.SetButton(ui.LabelRecord, s.authorizer.IsAuthorized())

	if err != nil {
		s.setLastError(fmt.Sprintf("Failed to save recording: %v", err))
		s.view.SetStatus(ui.StatusIdle)
		s.view.Notify(fmt.Sprintf("Recording was not saved: %v", err), true)
		return "", err
	}

	s.clearLastError()
	s.view.SetStatus(ui.StatusSavedPrefix + filepath.Base(path))
	return path, nil
}

func (s *RecorderService) GetStatus() Status {
	info := s.session.Snapshot()
	status := Status{
		State:      info.State,
		Session:    info,
		Elapsed:    recording.FormatElapsed(s.session.Elapsed()),
		LastError:  s.GetLastError(),
		Authorized: s.authorizer.IsAuthorized(),
	}
	status.Message = generateStatusMessage(status)
	return status
}

func (s *RecorderService) ListRecordings() ([]storage.RecordingInfo, error) {
	return s.recordings.List()
}

func (s *RecorderService) LatestRecording() (*storage.RecordingInfo, error) {
	return s.recordings.Latest()
}

func (s *RecorderService) RecordingsDir() (string, error) {
	return s.recordings.Dir()
}

// Close tears the controller down. A running recording is finalized and
// its device released before the elapsed display is stopped.
func (s *RecorderService) Close() error {
	_, err := s.Stop()
	s.cancel()
	s.drivers.Wait()

	if err != nil {
		return fmt.Errorf("teardown: %w", err)
	}
	return nil
}

// GetLastError returns the last error message
func (s *RecorderService) GetLastError() string {
	s.lastErrorMutex.RLock()
	defer s.lastErrorMutex.RUnlock()
	return s.lastError
}

// setLastError sets the last error message
func (s *RecorderService) setLastError(err string) {
	s.lastErrorMutex.Lock()
	defer s.lastErrorMutex.Unlock()
	s.lastError = err
	slog.Error("Service error recorded", "error", err)
}

// clearLastError clears the last error message
func (s *RecorderService) clearLastError() {
	s.lastErrorMutex.Lock()
	defer s.lastErrorMutex.Unlock()
	s.lastError = ""
}

// generateStatusMessage creates the human readable line for a status
func generateStatusMessage(status Status) string {
	switch {
	case !status.Authorized && status.State == recording.StateIdle:
		return "Microphone permission required"
	case status.State == recording.StateRecording:
		return fmt.Sprintf("Recording in progress - %s (%s)", filepath.Base(status.Session.Path), status.Elapsed)
	case status.LastError != "":
		return status.LastError
	case status.Session.Path != "":
		return fmt.Sprintf("Last recording: %s", filepath.Base(status.Session.Path))
	default:
		return ""
	}
}
