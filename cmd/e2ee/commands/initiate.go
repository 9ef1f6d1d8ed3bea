package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"e2ee/internal/domain"
)

// initiate <bundle.json>: run X3DH against the peer's bundle.
func initiateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "initiate <bundle.json>",
		Short: "Start a session from a peer's prekey bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			var b domain.PreKeyBundle
			if err := readJSONArg(args[0], &b); err != nil {
				return err
			}
			if b.Username == "" {
				return fmt.Errorf("bundle carries no username")
			}
			rec, err := appCtx.Sessions.InitiateSession(cmd.Context(), passphrase, b.Username, b)
			if err != nil {
				return err
			}
			fmt.Printf("Session %s with %s.\nPeer fingerprint: %s\n", rec.ID, rec.Peer, rec.PeerFingerprint)
			return nil
		},
	}
}
