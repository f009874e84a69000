package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/audiolibrelab/vrec/internal/config"
	"github.com/audiolibrelab/vrec/internal/recording"
	"github.com/audiolibrelab/vrec/internal/service"
	"github.com/audiolibrelab/vrec/internal/storage"
	"github.com/audiolibrelab/vrec/internal/ui"
)

// Files opens recordings for streaming
type Files interface {
	Open(name string) (afero.File, os.FileInfo, error)
}

// Options configures a Server
type Options struct {
	Service service.Service
	// View is the in-memory view the service drives, reported by /status
	View  *ui.Recorder
	Files Files
	// Viper holds the loaded configuration; when set the config file is watched
	Viper *viper.Viper
	Port  string
	// OnConfigReload is called with every configuration that loads and validates
	OnConfigReload func(*config.Config)
	// Sources lists capture sources for /sources
	Sources func() ([]string, error)
	// ShutdownTimeout bounds graceful shutdown, 5s when zero
	ShutdownTimeout time.Duration
}

// Server represents the web server for controlling the recorder
type Server struct {
	service         service.Service
	view            *ui.Recorder
	files           Files
	v               *viper.Viper
	port            string
	onConfigReload  func(*config.Config)
	sources         func() ([]string, error)
	shutdownTimeout time.Duration

	cfgMutex sync.RWMutex
	cfg      *config.Config

	mux *http.ServeMux
}

// StatusResponse represents the JSON response for status endpoint
type StatusResponse struct {
	Status  service.Status  `json:"status"`
	View    *ui.ViewState   `json:"view,omitempty"`
	Config  *ResolvedConfig `json:"resolved_config,omitempty"`
	Message string          `json:"message,omitempty"`
}

// ResolvedConfig contains configuration information for the UI
type ResolvedConfig struct {
	Backend    string `json:"backend"`
	Source     string `json:"source"`
	Directory  string `json:"directory"`
	Format     string `json:"format"`
	Codec      string `json:"codec"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// FileInfo contains information about a recording and where to fetch it
type FileInfo struct {
	storage.RecordingInfo
	StreamURL string `json:"stream_url"`
}

// RecordingsResponse represents the JSON response for recordings endpoint
type RecordingsResponse struct {
	Recordings []FileInfo `json:"recordings"`
	TotalCount int        `json:"total_count"`
	Directory  string     `json:"directory"`
}

// LatestResponse represents the JSON response for the latest recording endpoint
type LatestResponse struct {
	Success   bool      `json:"success"`
	Recording *FileInfo `json:"recording,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// GenericResponse represents a generic API response
type GenericResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error,omitempty"`
	Status  *service.Status `json:"status,omitempty"`
}

// SourcesResponse represents the JSON response for sources endpoint
type SourcesResponse struct {
	Sources []string `json:"sources"`
}

// New creates a new web server instance
func New(opts Options) (*Server, error) {
	if opts.Service == nil {
		return nil, fmt.Errorf("service is required")
	}
	if opts.Port == "" {
		opts.Port = "8080"
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}

	s := &Server{
		service:         opts.Service,
		view:            opts.View,
		files:           opts.Files,
		v:               opts.Viper,
		port:            opts.Port,
		onConfigReload:  opts.OnConfigReload,
		sources:         opts.Sources,
		shutdownTimeout: opts.ShutdownTimeout,
	}

	if s.v != nil {
		cfg, err := config.LoadFrom(s.v)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		s.cfg = cfg
	}

	s.mux = http.NewServeMux()
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/toggle", s.handleToggle)
	s.mux.HandleFunc("/start", s.handleStart)
	s.mux.HandleFunc("/stop", s.handleStop)
	s.mux.HandleFunc("/status", s.handleStatus)
	s.mux.HandleFunc("/sources", s.handleSources)
	s.mux.HandleFunc("/api/recordings", s.handleRecordings)
	s.mux.HandleFunc("/api/recordings/latest", s.handleLatestRecording)
	s.mux.HandleFunc("/api/recordings/stream/{name}", s.handleRecordingStream)

	return s, nil
}

// Handler returns the HTTP handler serving every endpoint
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Config returns the most recently loaded configuration
func (s *Server) Config() *config.Config {
	s.cfgMutex.RLock()
	defer s.cfgMutex.RUnlock()
	return s.cfg
}

// Start serves until ctx is cancelled, then shuts down gracefully and tears
// the service down so a running recording is finalized.
func (s *Server) Start(ctx context.Context) error {
	s.watchConfig()

	httpServer := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	localIP := getLocalIP()
	slog.Info("Starting vrec web server",
		"port", s.port,
		"local_url", fmt.Sprintf("http://%s:%s", localIP, s.port),
		"localhost_url", fmt.Sprintf("http://localhost:%s", s.port))

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		closeErr := s.service.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return closeErr
		}
		return errors.Join(err, closeErr)
	case <-ctx.Done():
	}

	slog.Info("Shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	shutdownErr := httpServer.Shutdown(shutdownCtx)
	if err := s.service.Close(); err != nil {
		return errors.Join(shutdownErr, err)
	}
	return shutdownErr
}

// watchConfig reloads the configuration whenever the file changes
func (s *Server) watchConfig() {
	if s.v == nil || s.v.ConfigFileUsed() == "" {
		return
	}
	if _, err := os.Stat(s.v.ConfigFileUsed()); err != nil {
		slog.Debug("Config file not present, not watching", "file", s.v.ConfigFileUsed())
		return
	}

	s.v.OnConfigChange(s.reloadConfig)
	s.v.WatchConfig()
	slog.Debug("Watching config file", "file", s.v.ConfigFileUsed())
}

func (s *Server) reloadConfig(e fsnotify.Event) {
	if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
		return
	}

	cfg, err := config.LoadFrom(s.v)
	if err != nil {
		slog.Error("Ignoring invalid config change", "file", e.Name, "error", err)
		return
	}

	s.cfgMutex.Lock()
	s.cfg = cfg
	s.cfgMutex.Unlock()

	slog.Info("Config reloaded", "file", e.Name)
	if s.onConfigReload != nil {
		s.onConfigReload(cfg)
	}
}

// handleIndex serves the control page
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write([]byte(indexHTML))
}

// handleToggle starts a recording when idle and stops it otherwise
func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodPost) {
		return
	}

	wasRecording := s.service.GetStatus().State == recording.StateRecording
	if err := s.service.Toggle(); err != nil {
		s.sendActionError(w, err, "toggle")
		return
	}

	message := "Recording started"
	if wasRecording {
		message = "Recording saved"
	}
	s.sendActionResponse(w, message)
}

// handleStart starts a recording, doing nothing when one is running
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodPost) {
		return
	}

	if err := s.service.Start(); err != nil {
		s.sendActionError(w, err, "start")
		return
	}
	s.sendActionResponse(w, "Recording started")
}

// handleStop stops the running recording
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodPost) {
		return
	}

	path, err := s.service.Stop()
	if err != nil {
		s.sendActionError(w, err, "stop")
		return
	}

	message := "Not recording"
	if path != "" {
		message = fmt.Sprintf("Recording saved: %s", filepath.Base(path))
	}
	s.sendActionResponse(w, message)
}

// handleStatus returns the current status, view and configuration
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}

	status := s.service.GetStatus()
	response := StatusResponse{
		Status:  status,
		Message: status.Message,
		Config:  s.resolvedConfig(),
	}
	if s.view != nil {
		view := s.view.Snapshot()
		response.View = &view
	}

	s.sendJSON(w, http.StatusOK, response)
}

// handleSources lists capture sources of the configured backend
func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}
	if s.sources == nil {
		s.sendErrorResponse(w, http.StatusNotImplemented, "Source listing not available", "operation", "sources")
		return
	}

	sources, err := s.sources()
	if err != nil {
		s.sendErrorResponse(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to list sources: %v", err), "operation", "sources")
		return
	}
	if sources == nil {
		sources = []string{}
	}
	s.sendJSON(w, http.StatusOK, SourcesResponse{Sources: sources})
}

// handleRecordings lists recordings, newest first
func (s *Server) handleRecordings(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}

	recordings, err := s.service.ListRecordings()
	if err != nil {
		s.sendErrorResponse(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to list recordings: %v", err), "operation", "list_recordings")
		return
	}
	dir, _ := s.service.RecordingsDir()

	files := make([]FileInfo, 0, len(recordings))
	for _, rec := range recordings {
		files = append(files, newFileInfo(rec))
	}

	s.sendJSON(w, http.StatusOK, RecordingsResponse{
		Recordings: files,
		TotalCount: len(files),
		Directory:  dir,
	})
}

// handleLatestRecording describes the most recent recording
func (s *Server) handleLatestRecording(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}

	latest, err := s.service.LatestRecording()
	if errors.Is(err, os.ErrNotExist) {
		s.sendJSON(w, http.StatusNotFound, LatestResponse{Success: false, Error: "No recordings found"})
		return
	}
	if err != nil {
		s.sendErrorResponse(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to find latest recording: %v", err), "operation", "latest_recording")
		return
	}

	info := newFileInfo(*latest)
	s.sendJSON(w, http.StatusOK, LatestResponse{Success: true, Recording: &info})
}

// handleRecordingStream serves a recording with range support
func (s *Server) handleRecordingStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.files == nil {
		http.Error(w, "Streaming not available", http.StatusNotImplemented)
		return
	}

	name := r.PathValue("name")
	file, info, err := s.files.Open(name)
	switch {
	case errors.Is(err, storage.ErrInvalidName):
		http.Error(w, "Access denied", http.StatusForbidden)
		return
	case errors.Is(err, os.ErrNotExist):
		http.Error(w, "File not found", http.StatusNotFound)
		return
	case err != nil:
		slog.Error("Failed to open recording", "name", name, "error", err)
		http.Error(w, "Failed to open file", http.StatusInternalServerError)
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", contentType(name))
	w.Header().Set("Accept-Ranges", "bytes")
	http.ServeContent(w, r, name, info.ModTime(), file)
}

func (s *Server) resolvedConfig() *ResolvedConfig {
	cfg := s.Config()
	if cfg == nil {
		return nil
	}
	return &ResolvedConfig{
		Backend:    cfg.ResolveBackend(),
		Source:     cfg.Audio.Source,
		Directory:  cfg.Storage.Directory,
		Format:     cfg.Audio.Format,
		Codec:      cfg.Audio.Codec,
		SampleRate: cfg.Audio.SampleRate,
		Channels:   cfg.Audio.Channels,
	}
}

func (s *Server) requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	s.sendJSON(w, http.StatusMethodNotAllowed, GenericResponse{
		Success: false,
		Error:   "Method not allowed",
	})
	return false
}

func (s *Server) sendActionResponse(w http.ResponseWriter, message string) {
	status := s.service.GetStatus()
	s.sendJSON(w, http.StatusOK, GenericResponse{
		Success: true,
		Message: message,
		Status:  &status,
	})
}

// sendActionError maps recorder errors to HTTP status codes
func (s *Server) sendActionError(w http.ResponseWriter, err error, operation string) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, recording.ErrPermissionDenied):
		code = http.StatusForbidden
	case errors.Is(err, recording.ErrDeviceConfiguration):
		code = http.StatusServiceUnavailable
	}
	s.sendErrorResponse(w, code, err.Error(), "operation", operation)
}

// sendErrorResponse logs the error and sends a JSON error response to the client
func (s *Server) sendErrorResponse(w http.ResponseWriter, statusCode int, errorMsg string, logContext ...any) {
	logFields := []any{"error_message", errorMsg, "status_code", statusCode}
	if len(logContext) > 0 {
		logFields = append(logFields, logContext...)
	}
	slog.Error("Sending error response to client", logFields...)

	s.sendJSON(w, statusCode, GenericResponse{
		Success: false,
		Error:   errorMsg,
	})
}

func (s *Server) sendJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Debug("Failed to write response", "error", err)
	}
}

func newFileInfo(rec storage.RecordingInfo) FileInfo {
	return FileInfo{
		RecordingInfo: rec,
		StreamURL:     "/api/recordings/stream/" + rec.Name,
	}
}

func contentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".3gp":
		return "audio/3gpp"
	case ".m4a":
		return "audio/mp4"
	case ".wav":
		return "audio/wav"
	case ".flac":
		return "audio/flac"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

func getLocalIP() string {
	// Try to connect to a remote address to determine local IP
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "localhost"
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String()
}
