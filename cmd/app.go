package cmd

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/audiolibrelab/vrec/internal/audio"
	"github.com/audiolibrelab/vrec/internal/config"
	"github.com/audiolibrelab/vrec/internal/naming"
	"github.com/audiolibrelab/vrec/internal/permission"
	"github.com/audiolibrelab/vrec/internal/recording"
	"github.com/audiolibrelab/vrec/internal/service"
	"github.com/audiolibrelab/vrec/internal/storage"
	"github.com/audiolibrelab/vrec/internal/ui"
)

// recorder bundles what every front end needs
type recorder struct {
	store   *storage.Store
	session *recording.Session
	service *service.RecorderService
	// current is swapped by config reloads; devices and settings read it per recording
	current atomic.Pointer[config.Config]
}

// ffmpegLogWriter forwards encoder output at -v 2 and above
func ffmpegLogWriter() io.Writer {
	if verboseLevel >= 2 {
		return os.Stderr
	}
	return io.Discard
}

func newNamer() *naming.Namer {
	return naming.New(nil, cfg.Audio.Extension)
}

func newStore() *storage.Store {
	return storage.NewOS(cfg.Storage.Directory, newNamer())
}

// newAuthorizer prompts on in/out unless access is granted by flag or config
func newAuthorizer(in io.Reader, out io.Writer) permission.Authorizer {
	if assumeYes || cfg.Permission.AutoGrant {
		return permission.Static(true)
	}
	return permission.NewFileAuthorizer(cfg.Storage.StateDirectory, in, out)
}

// newRecorder wires session and controller to the ffmpeg capture device
func newRecorder(view ui.View, authorizer permission.Authorizer) (*recorder, error) {
	if err := audio.CheckFFmpeg(); err != nil {
		return nil, err
	}
	if _, err := audio.ParseBackend(cfg.ResolveBackend()); err != nil {
		return nil, err
	}

	r := &recorder{store: newStore()}
	r.current.Store(cfg)

	r.session = recording.New(recording.Options{
		NewDevice: r.newDevice,
		Storage:   r.store,
		Namer:     newNamer(),
		Settings: func(outputPath string) audio.Settings {
			return audio.SettingsFromConfig(r.current.Load(), outputPath)
		},
	})

	r.service = service.New(service.Options{
		Session:    r.session,
		Authorizer: authorizer,
		View:       view,
		Recordings: r.store,
		Interval:   cfg.Display.Interval,
	})
	return r, nil
}

func (r *recorder) newDevice() (audio.CaptureDevice, error) {
	factory, err := audio.NewFactory(r.current.Load(), ffmpegLogWriter())
	if err != nil {
		return nil, fmt.Errorf("invalid audio backend: %w", err)
	}
	return factory()
}

// reload makes the next recording use c
func (r *recorder) reload(c *config.Config) {
	r.current.Store(c)
}
