package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"e2ee/internal/domain"
)

// open <envelope.json>: decrypt an envelope, accepting its handshake if new.
func openCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <envelope.json>",
		Short: "Decrypt a peer's envelope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			var env domain.Envelope
			if err := readJSONArg(args[0], &env); err != nil {
				return err
			}
			msg, err := appCtx.Messages.Open(cmd.Context(), passphrase, env)
			if err != nil {
				return err
			}
			ts := time.Unix(msg.Timestamp, 0).UTC().Format(time.RFC3339)
			fmt.Printf("[%s] %s: %s\n", ts, msg.From, msg.Plaintext)
			return nil
		},
	}
}
