package storage

import (
	"bytes"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/audiolibrelab/vrec/internal/naming"
)

func newTestStore(t *testing.T) (*Store, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	return New(fs, "/data/vrec/recordings", &naming.Namer{}), fs
}

func TestDir_CreatesPrivateDirectory(t *testing.T) {
	s, fs := newTestStore(t)

	dir, err := s.Dir()
	if err != nil {
		t.Fatalf("Dir failed: %v", err)
	}

	info, err := fs.Stat(dir)
	if err != nil {
		t.Fatalf("Expected directory to exist: %v", err)
	}
	if !info.IsDir() {
		t.Errorf("Expected %s to be a directory", dir)
	}
	if perm := info.Mode().Perm(); perm != 0700 {
		t.Errorf("Expected 0700 permissions, got %o", perm)
	}
}

func TestPath_JoinsName(t *testing.T) {
	s, _ := newTestStore(t)

	path, err := s.Path("recording_20240102_031405.3gp")
	if err != nil {
		t.Fatalf("Path failed: %v", err)
	}
	if path != "/data/vrec/recordings/recording_20240102_031405.3gp" {
		t.Errorf("Unexpected path: %s", path)
	}
}

func TestList_NewestFirstAndSkipsForeignFiles(t *testing.T) {
	s, fs := newTestStore(t)
	dir, _ := s.Dir()

	files := map[string]string{
		"recording_20240101_000000.3gp": "a",
		"recording_20241231_235959.3gp": "bbb",
		"recording_20240229_123045.3gp": "cc",
		"notes.txt":                     "ignored",
		"recording_20240229_123045.m4a": "other extension",
	}
	for name, content := range files {
		afero.WriteFile(fs, dir+"/"+name, []byte(content), 0600)
	}
	fs.MkdirAll(dir+"/recording_20230101_000000.3gp", 0700)

	recordings, err := s.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	want := []string{
		"recording_20241231_235959.3gp",
		"recording_20240229_123045.3gp",
		"recording_20240101_000000.3gp",
	}
	if len(recordings) != len(want) {
		t.Fatalf("Expected %d recordings, got %d: %+v", len(want), len(recordings), recordings)
	}
	for i, name := range want {
		if recordings[i].Name != name {
			t.Errorf("recordings[%d] = %s, want %s", i, recordings[i].Name, name)
		}
	}

	if recordings[0].Size != 3 || recordings[0].SizeHuman != "3 B" {
		t.Errorf("Unexpected size info: %d / %s", recordings[0].Size, recordings[0].SizeHuman)
	}
	wantAt := time.Date(2024, time.December, 31, 23, 59, 59, 0, time.Local)
	if !recordings[0].RecordedAt.Equal(wantAt) {
		t.Errorf("RecordedAt = %v, want %v", recordings[0].RecordedAt, wantAt)
	}
}

func TestLatest(t *testing.T) {
	s, fs := newTestStore(t)

	if _, err := s.Latest(); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected ErrNotExist for empty store, got: %v", err)
	}

	dir, _ := s.Dir()
	afero.WriteFile(fs, dir+"/recording_20240101_000000.3gp", []byte("x"), 0600)
	afero.WriteFile(fs, dir+"/recording_20240102_031405.3gp", []byte("y"), 0600)

	latest, err := s.Latest()
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if latest.Name != "recording_20240102_031405.3gp" {
		t.Errorf("Unexpected latest recording: %s", latest.Name)
	}
}

func TestOpenCopyRemove(t *testing.T) {
	s, fs := newTestStore(t)
	dir, _ := s.Dir()
	name := "recording_20240102_031405.3gp"
	afero.WriteFile(fs, dir+"/"+name, []byte("audio"), 0600)

	var buf bytes.Buffer
	n, err := s.Copy(name, &buf)
	if err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	if n != 5 || buf.String() != "audio" {
		t.Errorf("Unexpected copy result: %d %q", n, buf.String())
	}

	if err := s.Remove(name); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, _, err := s.Open(name); err == nil {
		t.Error("Expected open to fail after removal")
	}
}

func TestOpen_RejectsTraversal(t *testing.T) {
	s, _ := newTestStore(t)

	for _, name := range []string{"", "../etc/passwd", "sub/recording_20240102_031405.3gp", ".hidden", "notes.txt"} {
		if _, _, err := s.Open(name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Open(%q): expected ErrInvalidName, got %v", name, err)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[int64]string{
		0:               "0 B",
		1023:            "1023 B",
		1024:            "1.0 KB",
		1536:            "1.5 KB",
		5 * 1024 * 1024: "5.0 MB",
	}
	for in, want := range tests {
		if got := FormatBytes(in); got != want {
			t.Errorf("FormatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}
