package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var nameCmd = &cobra.Command{
	Use:   "name",
	Short: "Print the file name a recording started now would get",
	Long: `Print the recording file name for the current local time, or for the
time given with --at (RFC 3339, or "2006-01-02 15:04:05" in local time).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		at, _ := cmd.Flags().GetString("at")

		namer := newNamer()
		if at == "" {
			fmt.Fprintln(cmd.OutOrStdout(), namer.GenerateNow())
			return nil
		}

		t, err := parseTime(at)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), namer.Generate(t))
		return nil
	},
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04:05", s, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q: use RFC 3339 or \"2006-01-02 15:04:05\"", s)
}

func init() {
	nameCmd.Flags().String("at", "", "time to name the recording for instead of now")
}
