package audio

import (
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// SourceLister enumerates capture sources for a backend
type SourceLister struct {
	backend BackendType
	run     func(name string, args ...string) ([]byte, error)
}

// NewSourceLister creates a lister that shells out to the backend's tools
func NewSourceLister(backend BackendType) *SourceLister {
	return &SourceLister{backend: backend, run: runCommand}
}

// ListSources returns the names accepted as audio.source for the backend
func (l *SourceLister) ListSources() ([]string, error) {
	switch l.backend {
	case BackendTypePipeWire:
		pw := &PipeWire{run: l.run}
		return pw.ListCapturePorts()

	case BackendTypePulse:
		output, err := l.run("pactl", "list", "short", "sources")
		if err != nil {
			return nil, fmt.Errorf("failed to list PulseAudio sources: %w", err)
		}
		return parsePactlSources(string(output)), nil

	case BackendTypeALSA:
		output, err := l.run("arecord", "-L")
		if err != nil {
			return nil, fmt.Errorf("failed to list ALSA devices: %w", err)
		}
		return parseArecordDevices(string(output)), nil

	case BackendTypeAVFoundation:
		// ffmpeg prints the device list on stderr and exits non-zero
		output, _ := exec.Command("ffmpeg", "-hide_banner", "-f", "avfoundation", "-list_devices", "true", "-i", "").CombinedOutput()
		return parseAVFoundationDevices(string(output)), nil
	}

	return nil, fmt.Errorf("unsupported audio backend: %s", l.backend)
}

// ValidateSource checks that source is listed exactly once
func (l *SourceLister) ValidateSource(source string) error {
	if source == "" || source == string(SourceMicrophone) {
		return nil
	}

	sources, err := l.ListSources()
	if err != nil {
		return err
	}
	return validateInList(source, sources)
}

// parsePactlSources reads the name column of `pactl list short sources`
func parsePactlSources(output string) []string {
	var sources []string
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		// Monitors capture playback, not a microphone
		if strings.HasSuffix(fields[1], ".monitor") {
			continue
		}
		sources = append(sources, fields[1])
	}
	return sources
}

// parseArecordDevices keeps the unindented PCM names of `arecord -L`
func parseArecordDevices(output string) []string {
	var devices []string
	for _, line := range strings.Split(output, "\n") {
		if line == "" || line[0] == ' ' || line[0] == '\t' {
			continue
		}
		name := strings.TrimSpace(line)
		if name == "null" {
			continue
		}
		devices = append(devices, name)
	}
	return devices
}

var avfDeviceLine = regexp.MustCompile(`\]\s*\[(\d+)\]\s*(.+)$`)

// parseAVFoundationDevices returns audio device names following the "audio devices" header
func parseAVFoundationDevices(output string) []string {
	var devices []string
	inAudio := false
	for _, line := range strings.Split(output, "\n") {
		switch {
		case strings.Contains(line, "AVFoundation audio devices"):
			inAudio = true
			continue
		case strings.Contains(line, "AVFoundation video devices"):
			inAudio = false
			continue
		}
		if !inAudio {
			continue
		}
		if m := avfDeviceLine.FindStringSubmatch(line); m != nil {
			devices = append(devices, strings.TrimSpace(m[2]))
		}
	}
	return devices
}
