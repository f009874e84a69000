package ui

// View is what the recorder controller drives: a status line, one toggle
// button, the elapsed time and transient messages.
type View interface {
	SetStatus(status string)
	SetButton(label string, enabled bool)
	SetElapsed(elapsed string)
	Notify(msg string, isErr bool)
}

// Button labels
const (
	LabelRecord = "Record"
	LabelStop   = "Stop"
)

// Status lines
const (
	StatusIdle               = "idle"
	StatusRecording          = "recording"
	StatusPermissionRequired = "permission required"
	StatusSavedPrefix        = "saved: "
)
