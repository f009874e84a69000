package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/audiolibrelab/vrec/internal/ui"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recordings, newest first",
	Long: `List the recordings in the recordings directory, newest first.
With --pick an interactive fuzzy finder selects one and prints its path.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pick, _ := cmd.Flags().GetBool("pick")

		store := newStore()
		recordings, err := store.List()
		if err != nil {
			return err
		}

		if pick {
			selected, err := ui.PickRecording(recordings)
			if err != nil {
				return err
			}
			if selected != nil {
				fmt.Fprintln(cmd.OutOrStdout(), selected.Path)
			}
			return nil
		}

		dir, _ := store.Dir()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "📁 Recordings in %s (%d):\n\n", dir, len(recordings))
		for _, r := range recordings {
			fmt.Fprintf(out, "  %s\n", ui.FormatRecordingLine(r))
		}
		return nil
	},
}

func init() {
	listCmd.Flags().BoolP("pick", "p", false, "choose a recording interactively and print its path")
}
