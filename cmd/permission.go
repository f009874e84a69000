package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/audiolibrelab/vrec/internal/permission"
)

var permissionCmd = &cobra.Command{
	Use:   "permission",
	Short: "Manage microphone access",
	Long:  `Grant, revoke or show the saved microphone access decision.`,
}

var permissionGrantCmd = &cobra.Command{
	Use:   "grant",
	Short: "Allow recording from the microphone",
	RunE: func(cmd *cobra.Command, args []string) error {
		auth := fileAuthorizer()
		if err := auth.Set(true); err != nil {
			return err
		}
		fmt.Printf("✅ Microphone access granted (%s)\n", auth.Path())
		return nil
	},
}

var permissionRevokeCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Forget the saved decision",
	RunE: func(cmd *cobra.Command, args []string) error {
		auth := fileAuthorizer()
		if err := auth.Revoke(); err != nil {
			return err
		}
		fmt.Println("🔒 Microphone access revoked, you will be asked again")
		return nil
	},
}

var permissionStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether recording is allowed",
	RunE: func(cmd *cobra.Command, args []string) error {
		switch {
		case cfg.Permission.AutoGrant:
			fmt.Println("✅ Granted by permission.auto_grant")
		case fileAuthorizer().IsAuthorized():
			fmt.Println("✅ Granted")
		default:
			fmt.Println("🔒 Not granted")
		}
		return nil
	},
}

func fileAuthorizer() *permission.FileAuthorizer {
	return permission.NewFileAuthorizer(cfg.Storage.StateDirectory, os.Stdin, os.Stdout)
}

func init() {
	permissionCmd.AddCommand(permissionGrantCmd)
	permissionCmd.AddCommand(permissionRevokeCmd)
	permissionCmd.AddCommand(permissionStatusCmd)
}
