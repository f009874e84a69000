package recording

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/audiolibrelab/vrec/internal/audio"
	"github.com/audiolibrelab/vrec/internal/naming"
)

// State of a recording session
type State string

const (
	StateIdle      State = "IDLE"
	StateRecording State = "RECORDING"
)

// Storage resolves a file name to its path in the recordings directory
type Storage interface {
	Path(name string) (string, error)
}

// Info is a snapshot of the session
type Info struct {
	ID        string    `json:"id,omitempty"`
	State     State     `json:"state"`
	Path      string    `json:"path,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`
}

// Options wires a session to its collaborators
type Options struct {
	NewDevice audio.DeviceFactory
	Storage   Storage
	Namer     *naming.Namer
	// Settings builds capture settings for an output path; defaults to audio.DefaultSettings
	Settings func(outputPath string) audio.Settings
	Clock    naming.Clock
}

// Session owns at most one capture device and moves between Idle and Recording
type Session struct {
	newDevice audio.DeviceFactory
	storage   Storage
	namer     *naming.Namer
	settings  func(outputPath string) audio.Settings
	clock     naming.Clock

	mutex       sync.Mutex
	state       State
	device      audio.CaptureDevice
	id          string
	currentPath string
	startedAt   time.Time
}

// New creates an idle session
func New(opts Options) *Session {
	s := &Session{
		newDevice: opts.NewDevice,
		storage:   opts.Storage,
		namer:     opts.Namer,
		settings:  opts.Settings,
		clock:     opts.Clock,
		state:     StateIdle,
	}
	if s.namer == nil {
		s.namer = &naming.Namer{}
	}
	if s.settings == nil {
		s.settings = audio.DefaultSettings
	}
	if s.clock == nil {
		s.clock = naming.SystemClock{}
	}
	return s
}

// Start acquires and starts a capture device writing to a freshly named file.
// It does nothing if a recording is already running. On failure any acquired
// device is released and the session stays idle.
func (s *Session) Start() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.state == StateRecording {
		slog.Debug("Start ignored, already recording", "session", s.id)
		return nil
	}

	device, err := s.newDevice()
	if err != nil {
		return &DeviceError{Kind: ErrDeviceConfiguration, Op: "acquire", Err: err}
	}

	now := s.clock.Now()
	path, err := s.storage.Path(s.namer.Generate(now))
	if err != nil {
		return s.abortStart(device, "resolve output path", err)
	}

	if err := device.Configure(s.settings(path)); err != nil {
		return s.abortStart(device, "configure", err)
	}
	if err := device.Begin(); err != nil {
		return s.abortStart(device, "begin", err)
	}

	s.device = device
	s.state = StateRecording
	s.id = uuid.NewString()
	s.currentPath = path
	s.startedAt = now

	slog.Info("Recording started", "session", s.id, "path", path)
	return nil
}

// Stop finalizes the file and releases the device. The device is released
// and the session returns to idle whether or not finalizing succeeded.
// It returns the output path, or "" when nothing was recording or on failure.
func (s *Session) Stop() (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.state != StateRecording {
		slog.Debug("Stop ignored, not recording")
		return "", nil
	}

	finalizeErr := s.device.Finalize()
	releaseErr := s.device.Release()

	s.device = nil
	s.state = StateIdle

	if finalizeErr != nil {
		slog.Error("Recording failed to finalize", "session", s.id, "path", s.currentPath, "error", finalizeErr)
		return "", &DeviceError{Kind: ErrFinalize, Op: "finalize", Err: multierr.Append(finalizeErr, releaseErr)}
	}
	if releaseErr != nil {
		// The file is complete; a failed release only leaks the process handle
		slog.Warn("Capture device release failed", "session", s.id, "error", releaseErr)
	}

	slog.Info("Recording saved", "session", s.id, "path", s.currentPath, "duration", s.clock.Now().Sub(s.startedAt).Round(time.Second))
	return s.currentPath, nil
}

// Close stops a running recording so the device is never leaked.
// It is safe to call in any state and more than once.
func (s *Session) Close() error {
	if _, err := s.Stop(); err != nil {
		return fmt.Errorf("teardown: %w", err)
	}
	return nil
}

// State returns the current state
func (s *Session) State() State {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.state
}

// IsRecording reports whether a device is currently writing
func (s *Session) IsRecording() bool {
	return s.State() == StateRecording
}

// CurrentPath is the file of the running or most recent recording
func (s *Session) CurrentPath() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.currentPath
}

// StartedAt is when the running recording began, zero when idle
func (s *Session) StartedAt() time.Time {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.state != StateRecording {
		return time.Time{}
	}
	return s.startedAt
}

// Elapsed is the time since the running recording began, zero when idle
func (s *Session) Elapsed() time.Duration {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.state != StateRecording {
		return 0
	}
	return s.clock.Now().Sub(s.startedAt)
}

// Snapshot returns a copy of the session state
func (s *Session) Snapshot() Info {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	info := Info{State: s.state, Path: s.currentPath}
	if s.state == StateRecording {
		info.ID = s.id
		info.StartedAt = s.startedAt
	}
	return info
}

func (s *Session) abortStart(device audio.CaptureDevice, op string, err error) error {
	if releaseErr := device.Release(); releaseErr != nil {
		err = multierr.Append(err, releaseErr)
	}
	slog.Error("Recording failed to start", "op", op, "error", err)
	return &DeviceError{Kind: ErrDeviceConfiguration, Op: op, Err: err}
}
