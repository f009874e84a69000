package permission

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// StateFileName is the grant file kept in the state directory
const StateFileName = "permission.yaml"

// Authorizer answers whether the microphone may be used
type Authorizer interface {
	IsAuthorized() bool
	// RequestAuthorization asks the user and reports the answer through callback
	RequestAuthorization(callback func(granted bool))
}

// Grant is the persisted answer
type Grant struct {
	Microphone bool      `yaml:"microphone"`
	UpdatedAt  time.Time `yaml:"updated_at"`
}

// FileAuthorizer persists the user's answer as YAML and prompts on a terminal
type FileAuthorizer struct {
	path string
	in   io.Reader
	out  io.Writer

	mutex sync.Mutex
}

// NewFileAuthorizer stores its grant under stateDir and prompts via in/out
func NewFileAuthorizer(stateDir string, in io.Reader, out io.Writer) *FileAuthorizer {
	return &FileAuthorizer{
		path: filepath.Join(stateDir, StateFileName),
		in:   in,
		out:  out,
	}
}

// IsAuthorized reports a previously saved grant
func (a *FileAuthorizer) IsAuthorized() bool {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	grant, err := a.load()
	if err != nil {
		slog.Debug("No microphone grant", "path", a.path, "error", err)
		return false
	}
	return grant.Microphone
}

// RequestAuthorization prompts once and saves the answer before invoking callback
func (a *FileAuthorizer) RequestAuthorization(callback func(granted bool)) {
	granted := a.prompt()

	if err := a.Set(granted); err != nil {
		slog.Warn("Failed to save microphone grant", "error", err)
	}

	if callback != nil {
		callback(granted)
	}
}

// Set records an explicit answer without prompting
func (a *FileAuthorizer) Set(granted bool) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	return a.save(Grant{Microphone: granted, UpdatedAt: time.Now()})
}

// Revoke forgets any saved answer
func (a *FileAuthorizer) Revoke() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if err := os.Remove(a.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove grant file: %w", err)
	}
	return nil
}

// Path returns the grant file location
func (a *FileAuthorizer) Path() string {
	return a.path
}

func (a *FileAuthorizer) prompt() bool {
	if a.in == nil || a.out == nil {
		return false
	}

	fmt.Fprint(a.out, "Record from the microphone? [y/N] ")

	reader := bufio.NewReader(a.in)
	answer, err := reader.ReadString('\n')
	if err != nil && answer == "" {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

func (a *FileAuthorizer) load() (*Grant, error) {
	data, err := os.ReadFile(a.path)
	if err != nil {
		return nil, err
	}

	var grant Grant
	if err := yaml.Unmarshal(data, &grant); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", a.path, err)
	}
	return &grant, nil
}

func (a *FileAuthorizer) save(grant Grant) error {
	if err := os.MkdirAll(filepath.Dir(a.path), 0700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := yaml.Marshal(&grant)
	if err != nil {
		return fmt.Errorf("failed to marshal grant: %w", err)
	}

	if err := os.WriteFile(a.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write grant file: %w", err)
	}
	return nil
}

// Static always answers the same way; requests do not change it
type Static bool

func (s Static) IsAuthorized() bool { return bool(s) }

func (s Static) RequestAuthorization(callback func(granted bool)) {
	if callback != nil {
		callback(bool(s))
	}
}
