package audio

import (
	"errors"
	"fmt"
)

// Source identifies where audio is captured from
type Source string

const (
	// SourceMicrophone is the system default capture input
	SourceMicrophone Source = "default"
)

var (
	ErrNotConfigured = errors.New("capture device not configured")
	ErrNotStarted    = errors.New("capture device not started")
	ErrReleased      = errors.New("capture device already released")
	// ErrTooShort is returned by Finalize when the encoder produced no audio,
	// typically because the recording was stopped right after it began.
	ErrTooShort = errors.New("recording too short")
)

// Settings describes one capture: input, container, codec and destination
type Settings struct {
	Source     Source
	Format     string
	Codec      string
	OutputPath string
	SampleRate int
	Channels   int
}

// DefaultSettings mirrors a phone voice recorder: microphone, 3GP, AMR-NB, 8 kHz mono
func DefaultSettings(outputPath string) Settings {
	return Settings{
		Source:     SourceMicrophone,
		Format:     "3gp",
		Codec:      "libopencore_amrnb",
		OutputPath: outputPath,
		SampleRate: 8000,
		Channels:   1,
	}
}

// Validate reports the first missing or out of range field
func (s Settings) Validate() error {
	if s.Source == "" {
		return fmt.Errorf("source is required")
	}
	if s.Format == "" {
		return fmt.Errorf("format is required")
	}
	if s.Codec == "" {
		return fmt.Errorf("codec is required")
	}
	if s.OutputPath == "" {
		return fmt.Errorf("output path is required")
	}
	if s.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be > 0, got: %d", s.SampleRate)
	}
	if s.Channels != 1 && s.Channels != 2 {
		return fmt.Errorf("channels must be 1 or 2, got: %d", s.Channels)
	}
	return nil
}

// CaptureDevice is an exclusively owned audio encoder writing to a file.
// Every method may fail; Release must always be called once the device
// is no longer needed, whatever happened before.
type CaptureDevice interface {
	Configure(settings Settings) error
	Begin() error
	Finalize() error
	Release() error
}

// DeviceFactory acquires a fresh capture device
type DeviceFactory func() (CaptureDevice, error)
