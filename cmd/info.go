package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info [recording-name]",
	Short: "Show resolved configuration and recording details",
	Long: `Display where recordings go, how they are encoded and, for the given
recording (or the latest one), its path, size and recording time.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := newStore()
		dir, err := store.Dir()
		if err != nil {
			return err
		}

		fmt.Printf("=== RESOLVED CONFIGURATION ===\n")
		fmt.Printf("\n[Audio]\n")
		fmt.Printf("backend: %s (%s)\n", cfg.ResolveBackend(), cfg.Audio.Backend)
		fmt.Printf("source: %s\n", cfg.Audio.Source)
		fmt.Printf("format: %s\n", cfg.Audio.Format)
		fmt.Printf("codec: %s\n", cfg.Audio.Codec)
		fmt.Printf("sample_rate: %d\n", cfg.Audio.SampleRate)
		fmt.Printf("channels: %d\n", cfg.Audio.Channels)

		fmt.Printf("\n[Storage]\n")
		fmt.Printf("directory: %s\n", dir)
		fmt.Printf("state_directory: %s\n", cfg.Storage.StateDirectory)
		fmt.Printf("next_file: %s\n", newNamer().GenerateNow())

		rec, err := resolveRecording(store, args, false)
		if err != nil {
			if len(args) == 1 {
				return err
			}
			fmt.Printf("\n(no recordings yet)\n")
			return nil
		}

		fmt.Printf("\n=== RECORDING ===\n")
		fmt.Printf("name: %s\n", rec.Name)
		fmt.Printf("path: %s\n", rec.Path)
		fmt.Printf("size: %s\n", rec.SizeHuman)
		fmt.Printf("recorded_at: %s\n", rec.RecordedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("modified: %s\n", rec.ModTimeHuman)
		return nil
	},
}
