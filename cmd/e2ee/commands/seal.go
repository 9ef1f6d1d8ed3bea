package commands

import (
	"github.com/spf13/cobra"

	"e2ee/internal/domain"
)

// seal <peer> <message>: encrypt a message for <peer> and write the envelope.
func sealCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "seal <peer> <message>",
		Short: "Encrypt a message for a peer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			if err := requireUsername(); err != nil {
				return err
			}
			env, err := appCtx.Messages.Seal(cmd.Context(), passphrase,
				domain.Username(username), domain.Username(args[0]), []byte(args[1]))
			if err != nil {
				return err
			}
			return writeJSONArg(out, env)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output file")
	return cmd
}
