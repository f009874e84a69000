package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/audiolibrelab/vrec/internal/audio"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List available audio sources",
	Long: `List the capture sources of the configured backend that can be set
as audio.source. With --check the configured source is validated instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		check, _ := cmd.Flags().GetBool("check")

		backend, err := audio.ParseBackend(cfg.ResolveBackend())
		if err != nil {
			return err
		}
		lister := audio.NewSourceLister(backend)

		if check {
			if err := lister.ValidateSource(cfg.Audio.Source); err != nil {
				fmt.Printf("❌ %s: %v\n", cfg.Audio.Source, err)
				return err
			}
			fmt.Printf("✅ %s is available (%s)\n", cfg.Audio.Source, backend)
			return nil
		}

		return listAvailableSources(lister, backend)
	},
}

// listAvailableSources prints the sources of one backend
func listAvailableSources(lister *audio.SourceLister, backend audio.BackendType) error {
	sources, err := lister.ListSources()
	if err != nil {
		return fmt.Errorf("failed to get %s sources: %w", backend, err)
	}

	fmt.Printf("🎵 Audio Sources (%s)\n", runtime.GOOS)
	fmt.Printf("═══════════════════════════════════════\n\n")

	fmt.Printf("📋 %s SOURCES (%d found):\n", backend, len(sources))
	for i, source := range sources {
		fmt.Printf("  %d. %s\n", i+1, source)
	}

	fmt.Printf("\n💡 Usage:\n")
	fmt.Printf("  • \"default\" records from the system microphone\n")
	fmt.Printf("  • Configure with: vrec config set audio.source \"<source>\"\n\n")

	return nil
}

func init() {
	sourcesCmd.Flags().Bool("check", false, "validate the configured source")
}
