package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"e2ee/internal/domain"
)

// forget: drop a stored session, e.g. after verifying a peer's new
// fingerprint out of band.
func forgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forget <peer>",
		Short: "Delete the stored session with a peer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := appCtx.Stores.Sessions.DeleteSession(domain.Username(args[0])); err != nil {
				return err
			}
			fmt.Printf("forgot session with %s\n", args[0])
			return nil
		},
	}
}
