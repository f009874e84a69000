package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/audiolibrelab/vrec/internal/naming"
)

var ErrInvalidName = errors.New("invalid recording name")

// RecordingInfo describes one recorded file
type RecordingInfo struct {
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	SizeHuman    string    `json:"size_human"`
	ModTime      time.Time `json:"mod_time"`
	ModTimeHuman string    `json:"mod_time_human"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// Store is the application-private directory recordings are written to
type Store struct {
	fs    afero.Fs
	dir   string
	namer *naming.Namer
}

// New creates a store rooted at dir on fs
func New(fs afero.Fs, dir string, namer *naming.Namer) *Store {
	return &Store{fs: fs, dir: filepath.Clean(dir), namer: namer}
}

// NewOS creates a store on the real filesystem
func NewOS(dir string, namer *naming.Namer) *Store {
	return New(afero.NewOsFs(), dir, namer)
}

// Dir returns the recordings directory, creating it owner-only on first use
func (s *Store) Dir() (string, error) {
	if err := s.fs.MkdirAll(s.dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create recordings directory: %w", err)
	}
	return s.dir, nil
}

// Path joins a file name onto the recordings directory
func (s *Store) Path(name string) (string, error) {
	dir, err := s.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// List returns recordings in the directory, newest first
func (s *Store) List() ([]RecordingInfo, error) {
	dir, err := s.Dir()
	if err != nil {
		return nil, err
	}

	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read recordings directory: %w", err)
	}

	var recordings []RecordingInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		recordedAt, err := s.namer.Parse(entry.Name())
		if err != nil {
			// Not ours
			continue
		}

		recordings = append(recordings, RecordingInfo{
			Name:         entry.Name(),
			Path:         filepath.Join(dir, entry.Name()),
			Size:         entry.Size(),
			SizeHuman:    FormatBytes(entry.Size()),
			ModTime:      entry.ModTime(),
			ModTimeHuman: entry.ModTime().Format("2006-01-02 15:04:05"),
			RecordedAt:   recordedAt,
		})
	}

	sort.Slice(recordings, func(i, j int) bool {
		return recordings[i].RecordedAt.After(recordings[j].RecordedAt)
	})

	return recordings, nil
}

// Latest returns the most recent recording
func (s *Store) Latest() (*RecordingInfo, error) {
	recordings, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(recordings) == 0 {
		return nil, os.ErrNotExist
	}
	return &recordings[0], nil
}

// Open opens a recording by bare file name for reading
func (s *Store) Open(name string) (afero.File, os.FileInfo, error) {
	if err := s.checkName(name); err != nil {
		return nil, nil, err
	}

	path := filepath.Join(s.dir, name)
	f, err := s.fs.Open(path)
	if err != nil {
		return nil, nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return f, info, nil
}

// Remove deletes a recording by bare file name
func (s *Store) Remove(name string) error {
	if err := s.checkName(name); err != nil {
		return err
	}
	return s.fs.Remove(filepath.Join(s.dir, name))
}

// Copy writes a recording to w
func (s *Store) Copy(name string, w io.Writer) (int64, error) {
	f, _, err := s.Open(name)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return io.Copy(w, f)
}

func (s *Store) checkName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if _, err := s.namer.Parse(name); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidName, err)
	}
	return nil
}

// FormatBytes renders a size with binary units
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
