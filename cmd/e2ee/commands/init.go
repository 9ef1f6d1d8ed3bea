package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate identity keys and initial prekeys and store them securely",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			suite, err := appCtx.Suite()
			if err != nil {
				return err
			}
			_, fp, err := appCtx.Identity.GenerateIdentity(passphrase, suite)
			if err != nil {
				return err
			}
			spk, otks, err := appCtx.Prekeys.GenerateAndStorePreKeys(passphrase, appCtx.Config.OneTimePreKeys)
			if err != nil {
				return err
			}
			fmt.Printf("Identity created.\nSuite: %s\nFingerprint: %s\n", suite, fp)
			fmt.Printf("Signed prekey %d, %d one-time prekeys.\n", spk, len(otks))
			return nil
		},
	}
}
