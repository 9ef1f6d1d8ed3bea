package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func prekeysCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "prekeys",
		Short: "Rotate the signed prekey and add one-time prekeys",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			spk, otks, err := appCtx.Prekeys.GenerateAndStorePreKeys(passphrase, count)
			if err != nil {
				return err
			}
			fmt.Printf("Signed prekey %d, %d one-time prekeys added.\n", spk, len(otks))
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 100, "one-time prekeys to generate")
	return cmd
}
