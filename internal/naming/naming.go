package naming

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	Prefix          = "recording_"
	Extension       = ".3gp"
	TimestampLayout = "20060102_150405"
)

// Pattern matches names produced with the default extension.
var Pattern = regexp.MustCompile(`^recording_\d{8}_\d{6}\.3gp$`)

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a plain function to Clock
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// Namer builds recording file names from timestamps.
// The zero value uses the wall clock and the .3gp extension.
type Namer struct {
	Clock     Clock
	Extension string
}

// New creates a namer with the given clock and extension.
// Empty values fall back to the defaults.
func New(clock Clock, extension string) *Namer {
	return &Namer{Clock: clock, Extension: extension}
}

// Generate returns the file name for t in the caller's local time zone,
// e.g. recording_20240102_031405.3gp. Sub-second precision is dropped.
func (n *Namer) Generate(t time.Time) string {
	return Prefix + t.Local().Format(TimestampLayout) + n.extension()
}

// GenerateNow returns the file name for the namer's current time
func (n *Namer) GenerateNow() string {
	return n.Generate(n.clock().Now())
}

// Parse recovers the local timestamp encoded in a generated name
func (n *Namer) Parse(name string) (time.Time, error) {
	ext := n.extension()
	if !strings.HasPrefix(name, Prefix) || !strings.HasSuffix(name, ext) {
		return time.Time{}, fmt.Errorf("not a recording name: %s", name)
	}

	stamp := strings.TrimSuffix(strings.TrimPrefix(name, Prefix), ext)
	t, err := time.ParseInLocation(TimestampLayout, stamp, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp in %s: %w", name, err)
	}
	return t, nil
}

func (n *Namer) clock() Clock {
	if n == nil || n.Clock == nil {
		return SystemClock{}
	}
	return n.Clock
}

func (n *Namer) extension() string {
	if n == nil || n.Extension == "" {
		return Extension
	}
	if !strings.HasPrefix(n.Extension, ".") {
		return "." + n.Extension
	}
	return n.Extension
}

// Generate names t with the default namer
func Generate(t time.Time) string {
	return (*Namer)(nil).Generate(t)
}

// GenerateNow names the current wall-clock time with the default namer
func GenerateNow() string {
	return (*Namer)(nil).GenerateNow()
}
