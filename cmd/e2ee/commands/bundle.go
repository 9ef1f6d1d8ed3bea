package commands

import (
	"github.com/spf13/cobra"

	"e2ee/internal/domain"
)

// bundle: print the prekey bundle a peer needs to start a session with us.
func bundleCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "bundle",
		Short: "Export the public prekey bundle as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			if err := requireUsername(); err != nil {
				return err
			}
			b, err := appCtx.Prekeys.LoadPreKeyBundle(passphrase, domain.Username(username))
			if err != nil {
				return err
			}
			return writeJSONArg(out, b)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output file")
	return cmd
}
