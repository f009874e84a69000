package ui

import (
	"fmt"
	"strings"

	"github.com/koki-develop/go-fzf"

	"github.com/audiolibrelab/vrec/internal/storage"
)

// PickRecording presents an interactive fuzzy finder over recordings.
// It returns nil when the user cancels.
func PickRecording(recordings []storage.RecordingInfo) (*storage.RecordingInfo, error) {
	if len(recordings) == 0 {
		return nil, fmt.Errorf("no recordings found")
	}

	f, err := fzf.New(
		fzf.WithPrompt("Recordings > "),
		fzf.WithInputPosition(fzf.InputPositionTop),
		fzf.WithLimit(1),
	)
	if err != nil {
		return nil, err
	}

	idxs, err := f.Find(
		recordings,
		func(i int) string {
			return FormatRecordingLine(recordings[i])
		},
		fzf.WithPreviewWindow(func(i, w, h int) string {
			if i < 0 || i >= len(recordings) {
				return ""
			}
			return formatPreview(recordings[i])
		}),
	)
	if err != nil {
		return nil, err
	}
	if len(idxs) == 0 {
		return nil, nil
	}

	return &recordings[idxs[0]], nil
}

// FormatRecordingLine is the one-line summary used by list and the picker
func FormatRecordingLine(r storage.RecordingInfo) string {
	return fmt.Sprintf("%s  %9s  %s",
		r.RecordedAt.Format("2006-01-02 15:04:05"),
		r.SizeHuman,
		r.Name)
}

func formatPreview(r storage.RecordingInfo) string {
	var b strings.Builder

	b.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	b.WriteString(fmt.Sprintf("Recording: %s\n", r.Name))
	b.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")
	b.WriteString(fmt.Sprintf("Path: %s\n", r.Path))
	b.WriteString(fmt.Sprintf("Size: %s\n", r.SizeHuman))
	b.WriteString(fmt.Sprintf("Recorded: %s\n", r.RecordedAt.Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("Last modified: %s\n", r.ModTime.Format("2006-01-02 15:04:05")))

	return b.String()
}
