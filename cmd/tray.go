package cmd

import (
	"bufio"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"fyne.io/systray"
	"github.com/spf13/cobra"

	"github.com/audiolibrelab/vrec/internal/ui"
)

var trayCmd = &cobra.Command{
	Use:   "tray",
	Short: "Record from a system tray icon",
	Long: `Show a tray icon whose menu item starts and stops recordings.
The tray title shows the elapsed time while recording.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var runErr error

		onReady := func() {
			tray := ui.NewTray("vrec")
			view := ui.Multi{tray, ui.NewTerminal(os.Stderr)}

			r, err := newRecorder(view, newAuthorizer(bufio.NewReader(os.Stdin), os.Stderr))
			if err != nil {
				runErr = err
				systray.Quit()
				return
			}
			svc := r.service
			svc.Init()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			go func() {
				defer signal.Stop(sigChan)
				for {
					select {
					case <-tray.Clicks():
						toggle(svc.Toggle)
					case <-tray.QuitRequested():
						runErr = svc.Close()
						systray.Quit()
						return
					case <-sigChan:
						slog.Info("Stopping recorder...")
						runErr = svc.Close()
						systray.Quit()
						return
					}
				}
			}()
		}

		systray.Run(onReady, func() {})
		return runErr
	},
}
