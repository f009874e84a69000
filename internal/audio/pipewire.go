package audio

import (
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// PipeWire manages PipeWire/JACK port operations
type PipeWire struct {
	// run executes a command and returns stdout; replaced in tests
	run func(name string, args ...string) ([]byte, error)
}

// NewPipeWire creates a new PipeWire instance
func NewPipeWire() *PipeWire {
	return &PipeWire{run: runCommand}
}

// ListPorts returns all available JACK ports via PipeWire
func (pw *PipeWire) ListPorts() ([]string, error) {
	output, err := pw.run("pw-link", "-io")
	if err != nil {
		return nil, fmt.Errorf("failed to list PipeWire ports: %w", err)
	}
	return parsePortList(string(output)), nil
}

// ListCapturePorts returns output ports, the ones audio can be recorded from
func (pw *PipeWire) ListCapturePorts() ([]string, error) {
	output, err := pw.run("pw-link", "-o")
	if err != nil {
		return nil, fmt.Errorf("failed to list PipeWire output ports: %w", err)
	}
	return parsePortList(string(output)), nil
}

// ValidatePort checks that a port exists exactly once
func (pw *PipeWire) ValidatePort(portName string) error {
	ports, err := pw.ListPorts()
	if err != nil {
		return err
	}
	return validateInList(portName, ports)
}

// WaitForPort polls until portName shows up or timeout elapses
func (pw *PipeWire) WaitForPort(portName string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		if err := pw.ValidatePort(portName); err == nil {
			slog.Debug("JACK port found", "port", portName)
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	return fmt.Errorf("timeout waiting for JACK port: %s", portName)
}

// ConnectPortsWithRetry links sourcePort to destPort, retrying while the source appears
func (pw *PipeWire) ConnectPortsWithRetry(sourcePort, destPort string) error {
	const maxRetries = 5
	const retryDelay = 500 * time.Millisecond

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err := pw.ValidatePort(sourcePort); err == nil {
			err := pw.connectPorts(sourcePort, destPort)
			if err == nil {
				slog.Debug("Successfully connected ports", "source", sourcePort, "dest", destPort, "attempt", attempt)
				return nil
			}
			slog.Debug("Connection attempt failed", "source", sourcePort, "dest", destPort, "attempt", attempt, "error", err)
		} else {
			slog.Debug("Source port not yet available", "source", sourcePort, "attempt", attempt, "error", err)
		}

		if attempt < maxRetries {
			time.Sleep(retryDelay)
		}
	}

	return fmt.Errorf("failed to connect %s to %s after %d attempts", sourcePort, destPort, maxRetries)
}

func (pw *PipeWire) connectPorts(sourcePort, destPort string) error {
	output, err := pw.run("pw-link", sourcePort, destPort)
	if err != nil {
		return fmt.Errorf("failed to connect ports: %w (output: %s)", err, string(output))
	}
	return nil
}

// parsePortList extracts port names from pw-link output
func parsePortList(output string) []string {
	var ports []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "Input ports:") || strings.HasPrefix(line, "Output ports:") {
			continue
		}
		ports = append(ports, line)
	}
	return ports
}

// findDuplicatesInList finds all entries named exactly like name
func findDuplicatesInList(name string, all []string) []string {
	var duplicates []string
	for _, candidate := range all {
		if candidate == name {
			duplicates = append(duplicates, candidate)
		}
	}
	return duplicates
}

// validateInList applies the existence and uniqueness checks to a known list
func validateInList(name string, all []string) error {
	if name == "" || name == string(SourceMicrophone) {
		return nil
	}

	duplicates := findDuplicatesInList(name, all)
	if len(duplicates) == 0 {
		return fmt.Errorf("source not found: %s", name)
	}
	if len(duplicates) > 1 {
		return fmt.Errorf("duplicate sources detected for '%s': %v. Please close conflicting applications", name, duplicates)
	}
	return nil
}

func runCommand(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}
