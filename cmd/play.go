package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/audiolibrelab/vrec/internal/play"
	"github.com/audiolibrelab/vrec/internal/storage"
	"github.com/audiolibrelab/vrec/internal/ui"
)

var playCmd = &cobra.Command{
	Use:   "play [recording-name]",
	Short: "Play a recording",
	Long: `Play a recording with the first available player (mpv, ffplay, vlc).
Without a name the latest recording is played; --pick chooses one interactively.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pick, _ := cmd.Flags().GetBool("pick")

		rec, err := resolveRecording(newStore(), args, pick)
		if err != nil {
			return err
		}
		if rec == nil {
			return nil
		}

		fmt.Printf("▶️  Playing: %s\n", rec.Name)
		if err := play.New().Play(rec.Path); err != nil {
			return fmt.Errorf("playback failed: %w", err)
		}
		fmt.Println("⏹️  Playback completed")
		return nil
	},
}

// resolveRecording finds the recording named in args, picked, or the latest one
func resolveRecording(store *storage.Store, args []string, pick bool) (*storage.RecordingInfo, error) {
	recordings, err := store.List()
	if err != nil {
		return nil, err
	}

	switch {
	case len(args) == 1:
		for i := range recordings {
			if recordings[i].Name == args[0] {
				return &recordings[i], nil
			}
		}
		return nil, fmt.Errorf("recording not found: %s", args[0])
	case pick:
		return ui.PickRecording(recordings)
	}

	latest, err := store.Latest()
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("no recordings found")
	}
	return latest, err
}

func init() {
	playCmd.Flags().BoolP("pick", "p", false, "choose the recording interactively")
}
