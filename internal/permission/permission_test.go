package permission

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestFileAuthorizer_DefaultsToDenied(t *testing.T) {
	a := NewFileAuthorizer(t.TempDir(), nil, nil)

	if a.IsAuthorized() {
		t.Error("Expected no authorization without a grant file")
	}
}

func TestFileAuthorizer_PromptGrant(t *testing.T) {
	tests := []struct {
		answer string
		want   bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"maybe\n", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.answer), func(t *testing.T) {
			var out bytes.Buffer
			a := NewFileAuthorizer(t.TempDir(), strings.NewReader(tt.answer), &out)

			var got *bool
			a.RequestAuthorization(func(granted bool) { got = &granted })

			if got == nil {
				t.Fatal("Expected callback to be invoked")
			}
			if *got != tt.want {
				t.Errorf("callback granted = %v, want %v", *got, tt.want)
			}
			if a.IsAuthorized() != tt.want {
				t.Errorf("IsAuthorized() = %v after answer %q", a.IsAuthorized(), tt.answer)
			}
			if !strings.Contains(out.String(), "microphone") {
				t.Errorf("Expected prompt to mention the microphone, got %q", out.String())
			}
		})
	}
}

func TestFileAuthorizer_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()

	if err := NewFileAuthorizer(dir, nil, nil).Set(true); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	a := NewFileAuthorizer(dir, nil, nil)
	if !a.IsAuthorized() {
		t.Error("Expected grant to be read back by a new instance")
	}

	info, err := os.Stat(a.Path())
	if err != nil {
		t.Fatalf("Expected grant file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("Expected 0600 grant file, got %o", perm)
	}

	if err := a.Revoke(); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if a.IsAuthorized() {
		t.Error("Expected authorization to be gone after Revoke")
	}
	if err := a.Revoke(); err != nil {
		t.Errorf("Expected second Revoke to succeed, got: %v", err)
	}
}

func TestFileAuthorizer_CorruptFileIsDenied(t *testing.T) {
	a := NewFileAuthorizer(t.TempDir(), nil, nil)
	os.WriteFile(a.Path(), []byte("microphone: [oops"), 0600)

	if a.IsAuthorized() {
		t.Error("Expected corrupt grant file to count as not authorized")
	}
}

func TestStatic(t *testing.T) {
	var granted bool
	Static(true).RequestAuthorization(func(g bool) { granted = g })

	if !granted || !Static(true).IsAuthorized() {
		t.Error("Expected Static(true) to grant")
	}
	if Static(false).IsAuthorized() {
		t.Error("Expected Static(false) to deny")
	}
}
