package audio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
)

const (
	jackClientName = "vrec"

	defaultStopTimeout = 5 * time.Second
)

// FFmpegDevice implements CaptureDevice by running an ffmpeg process
type FFmpegDevice struct {
	backend   BackendType
	logWriter io.Writer
	pipewire  *PipeWire

	// StopTimeout bounds how long Finalize waits for ffmpeg to flush
	StopTimeout time.Duration

	mutex    sync.Mutex
	settings *Settings
	command  []string
	cmd      *exec.Cmd
	readers  *conc.WaitGroup
	stderr   strings.Builder
	released bool
}

// NewFFmpegDevice acquires an ffmpeg-backed device for the given backend
func NewFFmpegDevice(backend BackendType, logWriter io.Writer) (*FFmpegDevice, error) {
	if err := CheckFFmpeg(); err != nil {
		return nil, err
	}
	if logWriter == nil {
		logWriter = io.Discard
	}

	return &FFmpegDevice{
		backend:     backend,
		logWriter:   logWriter,
		pipewire:    NewPipeWire(),
		StopTimeout: defaultStopTimeout,
	}, nil
}

// Configure validates settings, prepares the output directory and the command line
func (d *FFmpegDevice) Configure(settings Settings) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.released {
		return ErrReleased
	}
	if d.cmd != nil {
		return fmt.Errorf("cannot reconfigure a running capture device")
	}
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid capture settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(settings.OutputPath), 0700); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	d.settings = &settings
	d.command = buildCommand(d.backend, settings)
	return nil
}

// Begin starts ffmpeg and, on PipeWire, links the source to its JACK input
func (d *FFmpegDevice) Begin() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.released {
		return ErrReleased
	}
	if d.settings == nil {
		return ErrNotConfigured
	}
	if d.cmd != nil {
		return fmt.Errorf("capture device already started")
	}

	// Remove leftovers so the size check in Finalize only sees fresh output
	os.Remove(d.settings.OutputPath)

	slog.Info("Starting ffmpeg capture", "command", strings.Join(d.command, " "))

	cmd := exec.Command(d.command[0], d.command[1:]...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	d.cmd = cmd
	d.stderr.Reset()

	d.readers = conc.NewWaitGroup()
	d.readers.Go(func() { d.readOutput(stdout, nil, "stdout") })
	d.readers.Go(func() { d.readOutput(stderr, &d.stderr, "stderr") })

	if d.backend == BackendTypePipeWire {
		if err := d.linkPipeWireSource(); err != nil {
			return err
		}
	}

	return nil
}

// Finalize asks ffmpeg to flush and close the file, then checks the result
func (d *FFmpegDevice) Finalize() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.released {
		return ErrReleased
	}
	if d.cmd == nil {
		return ErrNotStarted
	}

	err := d.stopProcess()
	d.cmd = nil
	if err != nil {
		return err
	}

	return validateOutputFile(d.settings.OutputPath)
}

// Release kills a still running process. Safe to call more than once.
func (d *FFmpegDevice) Release() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.released {
		return nil
	}
	d.released = true

	if d.cmd == nil || d.cmd.Process == nil {
		return nil
	}

	slog.Debug("Releasing running ffmpeg process", "pid", d.cmd.Process.Pid)
	killErr := d.cmd.Process.Kill()
	d.readers.Wait()
	d.cmd.Wait()
	d.cmd = nil

	if killErr != nil && !errors.Is(killErr, os.ErrProcessDone) {
		return fmt.Errorf("failed to kill ffmpeg: %w", killErr)
	}
	return nil
}

// Command returns the configured ffmpeg command line
func (d *FFmpegDevice) Command() []string {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return append([]string(nil), d.command...)
}

// stopProcess sends SIGINT and waits, force killing after StopTimeout
func (d *FFmpegDevice) stopProcess() error {
	if d.cmd.Process != nil {
		slog.Debug("Sending SIGINT to ffmpeg process")
		if err := d.cmd.Process.Signal(os.Interrupt); err != nil {
			slog.Debug("Failed to send interrupt to ffmpeg, falling back to SIGKILL", "error", err)
			d.cmd.Process.Kill()
		}
	}

	// Pipes must be drained before Wait closes them
	cmd, readers := d.cmd, d.readers
	done := make(chan error, 1)
	go func() {
		readers.Wait()
		done <- cmd.Wait()
	}()

	timeout := d.StopTimeout
	if timeout <= 0 {
		timeout = defaultStopTimeout
	}

	select {
	case err := <-done:
		if err == nil || isInterruptExit(err) {
			slog.Debug("ffmpeg exited after interrupt")
			return nil
		}
		slog.Debug("ffmpeg stderr", "output", d.stderr.String())
		return fmt.Errorf("ffmpeg process failed: %w: %s", err, lastLine(d.stderr.String()))

	case <-time.After(timeout):
		slog.Warn("ffmpeg did not exit within timeout, force killing", "timeout", timeout)
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
		<-done
		return nil
	}
}

// readOutput copies a pipe line by line into the log writer and optional buffer
func (d *FFmpegDevice) readOutput(pipe io.ReadCloser, buffer *strings.Builder, label string) {
	scanner := bufio.NewScanner(pipe)
	for scanner.Scan() {
		line := scanner.Text()
		if buffer != nil {
			buffer.WriteString(line + "\n")
		}
		fmt.Fprintln(d.logWriter, line)
		slog.Debug("ffmpeg output", "stream", label, "line", line)
	}
}

func (d *FFmpegDevice) linkPipeWireSource() error {
	source := string(d.settings.Source)
	if source == "" || source == string(SourceMicrophone) {
		slog.Warn("PipeWire backend needs an explicit source port, recording may be silent", "source", source)
		return nil
	}

	for ch := 1; ch <= d.settings.Channels; ch++ {
		destPort := fmt.Sprintf("%s:input_%d", jackClientName, ch)
		if err := d.pipewire.WaitForPort(destPort, 5*time.Second); err != nil {
			return fmt.Errorf("ffmpeg JACK port did not appear: %w", err)
		}
		if err := d.pipewire.ConnectPortsWithRetry(source, destPort); err != nil {
			return err
		}
	}
	return nil
}

// buildCommand assembles the ffmpeg invocation for backend and settings
func buildCommand(backend BackendType, s Settings) []string {
	var args []string
	if backend == BackendTypePipeWire {
		args = append(args, "pw-jack")
	}

	args = append(args,
		"ffmpeg",
		"-hide_banner",
		"-nostdin",
		"-loglevel", ffmpegLogLevel(),
		"-f", backend.inputFormat(),
	)
	if backend == BackendTypePipeWire {
		args = append(args, "-channels", strconv.Itoa(s.Channels))
	}
	args = append(args,
		"-i", backend.inputName(s.Source),
		"-ac", strconv.Itoa(s.Channels),
		"-ar", strconv.Itoa(s.SampleRate),
		"-c:a", s.Codec,
		"-f", s.Format,
		"-y",
		s.OutputPath,
	)
	return args
}

// ffmpegLogLevel honours FFMPEG_LOGLEVEL, set by -v 3
func ffmpegLogLevel() string {
	if level := os.Getenv("FFMPEG_LOGLEVEL"); level != "" {
		return level
	}
	return "error"
}

// validateOutputFile checks the encoder left a non-empty file behind
func validateOutputFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: no output written to %s", ErrTooShort, path)
		}
		return fmt.Errorf("failed to stat recording: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: %s is empty", ErrTooShort, path)
	}

	slog.Debug("Output file validated", "path", path, "size", info.Size())
	return nil
}

// isInterruptExit recognizes the exit statuses ffmpeg uses after SIGINT
func isInterruptExit(err error) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	// 255 is ffmpeg's "interrupted by user" status
	if exitErr.ExitCode() == 255 {
		return true
	}
	if exitErr.ProcessState != nil {
		state := exitErr.ProcessState.String()
		return state == "signal: interrupt" || state == "signal: killed"
	}
	return false
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return lines[len(lines)-1]
}
