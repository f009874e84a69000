package cmd

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/audiolibrelab/vrec/internal/ui"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record from the terminal",
	Long: `Record the microphone interactively. Press Enter to start a recording
and Enter again to stop and save it. Ctrl+C stops any running recording
before exiting.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		startNow, _ := cmd.Flags().GetBool("now")

		in := bufio.NewReader(os.Stdin)
		view := ui.NewTerminal(os.Stdout)

		r, err := newRecorder(view, newAuthorizer(in, os.Stdout))
		if err != nil {
			return err
		}
		svc := r.service

		dir, err := r.store.Dir()
		if err != nil {
			return fmt.Errorf("recordings directory unavailable: %w", err)
		}
		slog.Info("Recording to", "directory", dir)

		svc.Init()

		// Handle interruption
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		// Lines are read one at a time so a permission prompt during a toggle
		// owns stdin until it is answered
		lines := make(chan struct{})
		next := make(chan struct{}, 1)
		go func() {
			defer close(lines)
			for range next {
				if _, err := in.ReadString('\n'); err != nil {
					return
				}
				lines <- struct{}{}
			}
		}()

		if startNow {
			toggle(svc.Toggle)
		}
		next <- struct{}{}

		for {
			select {
			case _, ok := <-lines:
				if !ok {
					slog.Debug("Input closed")
					return svc.Close()
				}
				toggle(svc.Toggle)
				next <- struct{}{}
			case <-sigChan:
				fmt.Println()
				slog.Info("Stopping recorder...")
				return svc.Close()
			}
		}
	},
}

// toggle leaves reporting to the view; failures are never fatal
func toggle(fn func() error) {
	if err := fn(); err != nil {
		slog.Debug("Toggle failed", "error", err)
	}
}

func init() {
	recordCmd.Flags().Bool("now", false, "start recording immediately")
}
