package ui

import "sync"

// Notification is one message shown through Notify
type Notification struct {
	Message string `json:"message"`
	IsError bool   `json:"is_error"`
}

// ViewState is what a Recorder currently shows
type ViewState struct {
	Status        string        `json:"status"`
	Button        string        `json:"button"`
	ButtonEnabled bool          `json:"button_enabled"`
	Elapsed       string        `json:"elapsed"`
	Notifications []Notification `json:"notifications,omitempty"`
}

// Recorder keeps the view in memory. The HTTP server reports it and tests
// assert on it.
type Recorder struct {
	mutex sync.RWMutex
	state ViewState
	limit int
}

// NewRecorder keeps at most limit notifications, 0 keeps all of them
func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

func (r *Recorder) SetStatus(status string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.state.Status = status
}

func (r *Recorder) SetButton(label string, enabled bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.state.Button = label
	r.state.ButtonEnabled = enabled
}

func (r *Recorder) SetElapsed(elapsed string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.state.Elapsed = elapsed
}

func (r *Recorder) Notify(msg string, isErr bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.state.Notifications = append(r.state.Notifications, Notification{Message: msg, IsError: isErr})
	if r.limit > 0 && len(r.state.Notifications) > r.limit {
		r.state.Notifications = r.state.Notifications[len(r.state.Notifications)-r.limit:]
	}
}

// Snapshot returns a copy of the current state
func (r *Recorder) Snapshot() ViewState {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	state := r.state
	state.Notifications = append([]Notification(nil), r.state.Notifications...)
	return state
}

// LastNotification returns the most recent message, if any
func (r *Recorder) LastNotification() (Notification, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if len(r.state.Notifications) == 0 {
		return Notification{}, false
	}
	return r.state.Notifications[len(r.state.Notifications)-1], true
}

// Multi fans every call out to several views
type Multi []View

func (m Multi) SetStatus(status string) {
	for _, v := range m {
		v.SetStatus(status)
	}
}

func (m Multi) SetButton(label string, enabled bool) {
	for _, v := range m {
		v.SetButton(label, enabled)
	}
}

func (m Multi) SetElapsed(elapsed string) {
	for _, v := range m {
		v.SetElapsed(elapsed)
	}
}

func (m Multi) Notify(msg string, isErr bool) {
	for _, v := range m {
		v.Notify(msg, isErr)
	}
}
