package cmd

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/audiolibrelab/vrec/internal/audio"
	"github.com/audiolibrelab/vrec/internal/config"
	"github.com/audiolibrelab/vrec/internal/server"
	"github.com/audiolibrelab/vrec/internal/ui"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server for remote control",
	Long: `Start the vrec web server to control recording via a web interface.
This allows you to start and stop recordings from your smartphone or any
device on the same network, and to listen to them afterwards.

The server will display the local network URL for easy access from mobile devices.
Changes to the config file apply to the next recording.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetString("port")
		if port == "" {
			port = cfg.Server.Port
		}

		// Keep the last few messages for /status
		view := ui.NewRecorder(20)
		r, err := newRecorder(view, newAuthorizer(bufio.NewReader(os.Stdin), os.Stderr))
		if err != nil {
			return err
		}
		r.service.Init()

		srv, err := server.New(server.Options{
			Service: r.service,
			View:    view,
			Files:   r.store,
			Viper:   v,
			Port:    port,
			OnConfigReload: func(c *config.Config) {
				r.reload(c)
			},
			Sources: func() ([]string, error) {
				backend, err := audio.ParseBackend(r.current.Load().ResolveBackend())
				if err != nil {
					return nil, err
				}
				return audio.NewSourceLister(backend).ListSources()
			},
		})
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		slog.Info("vrec web server starting", "port", port, "config", cfgFile)

		// Start server (this blocks until interrupted)
		if err := srv.Start(ctx); err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("port", "", "port for the web server (overrides config)")
}
