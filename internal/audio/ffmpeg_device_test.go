package audio

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestSettingsValidate(t *testing.T) {
	valid := DefaultSettings("/tmp/out.3gp")
	if err := valid.Validate(); err != nil {
		t.Fatalf("Expected default settings to be valid, got: %v", err)
	}

	mutations := map[string]func(s *Settings){
		"no source":      func(s *Settings) { s.Source = "" },
		"no format":      func(s *Settings) { s.Format = "" },
		"no codec":       func(s *Settings) { s.Codec = "" },
		"no output":      func(s *Settings) { s.OutputPath = "" },
		"bad rate":       func(s *Settings) { s.SampleRate = -1 },
		"bad channels":   func(s *Settings) { s.Channels = 0 },
		"too many chans": func(s *Settings) { s.Channels = 6 },
	}

	for name, mutate := range mutations {
		s := valid
		mutate(&s)
		if err := s.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestBuildCommand(t *testing.T) {
	settings := DefaultSettings("/data/recording_20240102_031405.3gp")

	got := buildCommand(BackendTypePulse, settings)
	want := []string{
		"ffmpeg", "-hide_banner", "-nostdin", "-loglevel", "error",
		"-f", "pulse",
		"-i", "default",
		"-ac", "1",
		"-ar", "8000",
		"-c:a", "libopencore_amrnb",
		"-f", "3gp",
		"-y", "/data/recording_20240102_031405.3gp",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("buildCommand(pulse) =\n%v\nwant\n%v", got, want)
	}
}

func TestBuildCommand_BackendSpecifics(t *testing.T) {
	settings := DefaultSettings("/data/out.3gp")

	avf := buildCommand(BackendTypeAVFoundation, settings)
	if !containsPair(avf, "-i", ":default") {
		t.Errorf("Expected avfoundation audio-only input ':default', got %v", avf)
	}

	pw := buildCommand(BackendTypePipeWire, settings)
	if pw[0] != "pw-jack" || pw[1] != "ffmpeg" {
		t.Errorf("Expected pipewire capture to run under pw-jack, got %v", pw)
	}
	if !containsPair(pw, "-f", "jack") || !containsPair(pw, "-i", jackClientName) {
		t.Errorf("Expected JACK input named %s, got %v", jackClientName, pw)
	}
}

func TestParseBackend(t *testing.T) {
	for _, name := range []string{"pulse", "ALSA", "pipewire", "avfoundation"} {
		if _, err := ParseBackend(name); err != nil {
			t.Errorf("ParseBackend(%q) failed: %v", name, err)
		}
	}
	if _, err := ParseBackend("jack"); err == nil {
		t.Error("Expected error for unsupported backend")
	}
}

func TestFFmpegDevice_Lifecycle(t *testing.T) {
	d := &FFmpegDevice{backend: BackendTypeALSA, pipewire: NewPipeWire()}

	if err := d.Begin(); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Expected ErrNotConfigured before Configure, got: %v", err)
	}
	if err := d.Finalize(); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Expected ErrNotStarted before Begin, got: %v", err)
	}

	out := filepath.Join(t.TempDir(), "private", "recording_20240102_031405.3gp")
	if err := d.Configure(DefaultSettings(out)); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	if _, err := os.Stat(filepath.Dir(out)); err != nil {
		t.Errorf("Expected output directory to be created: %v", err)
	}
	if cmd := d.Command(); cmd[len(cmd)-1] != out {
		t.Errorf("Expected command to end with output path, got %v", cmd)
	}

	if err := d.Configure(Settings{}); err == nil {
		t.Error("Expected invalid settings to be rejected")
	}

	if err := d.Release(); err != nil {
		t.Errorf("Release failed: %v", err)
	}
	if err := d.Release(); err != nil {
		t.Errorf("Expected second Release to be a no-op, got: %v", err)
	}
	if err := d.Configure(DefaultSettings(out)); !errors.Is(err, ErrReleased) {
		t.Errorf("Expected ErrReleased after Release, got: %v", err)
	}
}

func TestValidateOutputFile(t *testing.T) {
	dir := t.TempDir()

	missing := filepath.Join(dir, "missing.3gp")
	if err := validateOutputFile(missing); !errors.Is(err, ErrTooShort) {
		t.Errorf("Expected ErrTooShort for missing file, got: %v", err)
	}

	empty := filepath.Join(dir, "empty.3gp")
	os.WriteFile(empty, nil, 0600)
	if err := validateOutputFile(empty); !errors.Is(err, ErrTooShort) {
		t.Errorf("Expected ErrTooShort for empty file, got: %v", err)
	}

	full := filepath.Join(dir, "full.3gp")
	os.WriteFile(full, []byte("#!AMR\n\x3c"), 0600)
	if err := validateOutputFile(full); err != nil {
		t.Errorf("Expected non-empty file to validate, got: %v", err)
	}
}

func containsPair(args []string, flag, value string) bool {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag && args[i+1] == value {
			return true
		}
	}
	return false
}
