package naming

import (
	"testing"
	"time"
)

func local(year int, month time.Month, day, hour, min, sec, nsec int) time.Time {
	return time.Date(year, month, day, hour, min, sec, nsec, time.Local)
}

func TestGenerate_ExactValues(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{"typical", local(2024, time.January, 2, 3, 14, 5, 0), "recording_20240102_031405.3gp"},
		{"midnight", local(2024, time.January, 1, 0, 0, 0, 0), "recording_20240101_000000.3gp"},
		{"end of day", local(2024, time.December, 31, 23, 59, 59, 0), "recording_20241231_235959.3gp"},
		{"leap day", local(2024, time.February, 29, 12, 30, 45, 0), "recording_20240229_123045.3gp"},
		{"year end", local(2023, time.December, 31, 23, 59, 59, 0), "recording_20231231_235959.3gp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Generate(tt.at); got != tt.want {
				t.Errorf("Generate(%v) = %q, want %q", tt.at, got, tt.want)
			}
		})
	}
}

func TestGenerate_IgnoresSubSecond(t *testing.T) {
	a := Generate(local(2024, time.January, 2, 3, 14, 5, 0))
	b := Generate(local(2024, time.January, 2, 3, 14, 5, 999_999_999))

	if a != b {
		t.Errorf("Expected identical names regardless of fractional seconds, got %q and %q", a, b)
	}
	if a != "recording_20240102_031405.3gp" {
		t.Errorf("Unexpected name: %s", a)
	}
}

func TestGenerate_UsesLocalZone(t *testing.T) {
	at := local(2024, time.March, 10, 8, 0, 0, 0)

	if Generate(at.UTC()) != Generate(at) {
		t.Errorf("Expected the same instant to name identically in any input zone")
	}
}

func TestGenerate_MatchesPattern(t *testing.T) {
	instants := []time.Time{
		time.Unix(0, 0),
		local(1999, time.December, 31, 23, 59, 59, 500),
		local(2038, time.January, 19, 3, 14, 8, 0),
		time.Now(),
	}

	for _, at := range instants {
		name := Generate(at)
		if !Pattern.MatchString(name) {
			t.Errorf("Generate(%v) = %q does not match %s", at, name, Pattern)
		}
	}
}

func TestGenerateNow_UsesInjectedClock(t *testing.T) {
	fixed := local(2024, time.February, 29, 12, 30, 45, 123)
	n := New(ClockFunc(func() time.Time { return fixed }), "")

	if got := n.GenerateNow(); got != "recording_20240229_123045.3gp" {
		t.Errorf("GenerateNow() = %q", got)
	}
}

func TestGenerateNow_DefaultClockProducesValidName(t *testing.T) {
	if name := GenerateNow(); !Pattern.MatchString(name) {
		t.Errorf("GenerateNow() = %q does not match %s", name, Pattern)
	}
}

func TestNamer_CustomExtension(t *testing.T) {
	at := local(2024, time.January, 2, 3, 14, 5, 0)

	for _, ext := range []string{".m4a", "m4a"} {
		n := New(nil, ext)
		if got := n.Generate(at); got != "recording_20240102_031405.m4a" {
			t.Errorf("extension %q: got %q", ext, got)
		}
	}
}

func TestParse_RoundTrip(t *testing.T) {
	n := &Namer{}
	at := local(2024, time.December, 31, 23, 59, 59, 0)

	parsed, err := n.Parse(n.Generate(at))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !parsed.Equal(at) {
		t.Errorf("Parse() = %v, want %v", parsed, at)
	}
}

func TestParse_Rejects(t *testing.T) {
	n := &Namer{}
	for _, name := range []string{"", "notes.txt", "recording_2024.3gp", "recording_20241331_000000.3gp", "recording_20240102_031405.m4a"} {
		if _, err := n.Parse(name); err == nil {
			t.Errorf("Expected error for %q", name)
		}
	}
}
