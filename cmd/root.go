package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/audiolibrelab/vrec/internal/config"
)

var (
	cfg          *config.Config
	v            *viper.Viper
	cfgFile      string
	verboseLevel int
	assumeYes    bool
)

var rootCmd = &cobra.Command{
	Use:   "vrec",
	Short: "Microphone voice recorder",
	Long: `vrec records the microphone to timestamped files with a single toggle.

Each recording is written to the recordings directory as
recording_YYYYMMDD_HHMMSS.3gp while the elapsed time is shown.
Recording can be driven from the terminal, the system tray or
a small web server reachable from a phone on the same network.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Configure slog based on verbose level
		setupLogging(verboseLevel)

		// Use default config path if not specified
		if cfgFile == "" {
			cfgFile = config.DefaultPath()
		}

		// config set edits the file directly and must work on a broken file
		if cmd == configSetCmd {
			return nil
		}

		v = config.New(cfgFile)
		var err error
		cfg, err = config.LoadFrom(v)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		slog.Debug("Config loaded", "file", cfgFile, "backend", cfg.ResolveBackend(), "directory", cfg.Storage.Directory)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/vrec.yaml)")
	rootCmd.PersistentFlags().IntVarP(&verboseLevel, "verbose", "v", 0, "verbose level: 0=info, 1=debug, 2=ffmpeg output, 3=max tracing")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "grant microphone access without asking")

	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(trayCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(nameCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(permissionCmd)
}

// setupLogging configures slog based on the verbose level
func setupLogging(level int) {
	var slogLevel slog.Level
	switch level {
	case 0:
		slogLevel = slog.LevelInfo
	case 1, 2, 3:
		// Level 2 additionally forwards ffmpeg output, level 3 raises ffmpeg's own log level
		slogLevel = slog.LevelDebug
	default:
		slogLevel = slog.LevelInfo
	}

	// Configure text handler for clean terminal output
	opts := &slog.HandlerOptions{
		Level: slogLevel,
	}
	handler := slog.NewTextHandler(os.Stderr, opts)
	logger := slog.New(handler)
	slog.SetDefault(logger)

	// Set environment variables for maximum tracing (level 3)
	if level >= 3 {
		os.Setenv("PIPEWIRE_DEBUG", "3")
		os.Setenv("FFMPEG_LOGLEVEL", "debug")
	}
}
