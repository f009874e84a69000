package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Terminal renders the view as status lines with an in-place elapsed counter
type Terminal struct {
	w io.Writer

	mutex   sync.Mutex
	inline  bool // elapsed counter is on the current line
	label   string
	enabled bool
}

func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

func (t *Terminal) SetStatus(status string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.breakLine()
	switch {
	case status == StatusRecording:
		fmt.Fprintf(t.w, "🔴 Recording...\n")
	case status == StatusIdle:
		fmt.Fprintf(t.w, "⏸️  Idle\n")
	case status == StatusPermissionRequired:
		fmt.Fprintf(t.w, "🔒 Microphone permission required\n")
	case strings.HasPrefix(status, StatusSavedPrefix):
		fmt.Fprintf(t.w, "✅ Saved: %s\n", strings.TrimPrefix(status, StatusSavedPrefix))
	default:
		fmt.Fprintf(t.w, "ℹ️  %s\n", status)
	}
}

func (t *Terminal) SetButton(label string, enabled bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if label == t.label && enabled == t.enabled {
		return
	}
	t.label, t.enabled = label, enabled

	t.breakLine()
	if !enabled {
		fmt.Fprintf(t.w, "   (%s unavailable)\n", strings.ToLower(label))
		return
	}
	fmt.Fprintf(t.w, "   Press Enter to %s, Ctrl+C to quit\n", strings.ToLower(label))
}

func (t *Terminal) SetElapsed(elapsed string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	fmt.Fprintf(t.w, "\r⏱️  %s", elapsed)
	t.inline = true
}

func (t *Terminal) Notify(msg string, isErr bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.breakLine()
	if isErr {
		fmt.Fprintf(t.w, "❌ %s\n", msg)
		return
	}
	fmt.Fprintf(t.w, "ℹ️  %s\n", msg)
}

func (t *Terminal) breakLine() {
	if t.inline {
		fmt.Fprintln(t.w)
		t.inline = false
	}
}
