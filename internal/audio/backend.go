package audio

import (
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/audiolibrelab/vrec/internal/config"
)

// BackendType represents the audio system ffmpeg captures from
type BackendType string

const (
	BackendTypePulse        BackendType = "pulse"
	BackendTypeALSA         BackendType = "alsa"
	BackendTypePipeWire     BackendType = "pipewire"
	BackendTypeAVFoundation BackendType = "avfoundation"
)

// ParseBackend validates a configured backend name
func ParseBackend(name string) (BackendType, error) {
	switch BackendType(strings.ToLower(name)) {
	case BackendTypePulse:
		return BackendTypePulse, nil
	case BackendTypeALSA:
		return BackendTypeALSA, nil
	case BackendTypePipeWire:
		return BackendTypePipeWire, nil
	case BackendTypeAVFoundation:
		return BackendTypeAVFoundation, nil
	}
	return "", fmt.Errorf("unsupported audio backend: %s", name)
}

// inputFormat is the ffmpeg demuxer used to read from the backend
func (b BackendType) inputFormat() string {
	switch b {
	case BackendTypePipeWire:
		return "jack"
	default:
		return string(b)
	}
}

// inputName maps a configured source to the ffmpeg -i argument
func (b BackendType) inputName(source Source) string {
	switch b {
	case BackendTypeAVFoundation:
		// audio-only capture: "none:<audio device>"
		return ":" + string(source)
	case BackendTypePipeWire:
		// ffmpeg registers a JACK client; the source is linked to it after start
		return jackClientName
	default:
		return string(source)
	}
}

// NewFactory returns a DeviceFactory producing ffmpeg devices for cfg
func NewFactory(cfg *config.Config, logWriter io.Writer) (DeviceFactory, error) {
	backend, err := ParseBackend(cfg.ResolveBackend())
	if err != nil {
		return nil, err
	}

	return func() (CaptureDevice, error) {
		return NewFFmpegDevice(backend, logWriter)
	}, nil
}

// CheckFFmpeg reports whether the encoder binary is installed
func CheckFFmpeg() error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}
	return nil
}

// SettingsFromConfig builds capture settings for outputPath using the audio section
func SettingsFromConfig(cfg *config.Config, outputPath string) Settings {
	return Settings{
		Source:     Source(cfg.Audio.Source),
		Format:     cfg.Audio.Format,
		Codec:      cfg.Audio.Codec,
		OutputPath: outputPath,
		SampleRate: cfg.Audio.SampleRate,
		Channels:   cfg.Audio.Channels,
	}
}
