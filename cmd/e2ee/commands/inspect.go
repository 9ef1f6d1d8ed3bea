package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"e2ee/internal/crypto"
	"e2ee/internal/domain"
)

// inspect <envelope.json>: check the handshake carried by an envelope and
// print the sender's fingerprint. Nothing is stored and no prekey is used;
// open accepts the handshake for real.
func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <envelope.json>",
		Short: "Verify the session offered by a peer's first envelope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			var env domain.Envelope
			if err := readJSONArg(args[0], &env); err != nil {
				return err
			}
			if env.Initial == nil {
				return fmt.Errorf("envelope from %s carries no handshake", env.From)
			}
			p, err := appCtx.Sessions.PrepareSession(cmd.Context(), passphrase, env.From, *env.Initial)
			if err != nil {
				return err
			}
			pt, err := p.Tunnel.Open(env.Frame)
			if err != nil {
				return err
			}
			crypto.Wipe(pt)

			fmt.Printf("Handshake from %s authenticates.\nPeer fingerprint: %s\n", env.From, p.Record.PeerFingerprint)
			known, ok, err := appCtx.Sessions.GetSession(passphrase, env.From)
			if err != nil {
				return err
			}
			if ok && known.PeerFingerprint != p.Record.PeerFingerprint {
				fmt.Printf("WARNING: stored session has fingerprint %s; run forget %s after verifying.\n",
					known.PeerFingerprint, env.From)
			}
			return nil
		},
	}
}
