package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func sessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List stored sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			peers, err := appCtx.Stores.Sessions.ListPeers()
			if err != nil {
				return err
			}
			for _, p := range peers {
				rec, ok, err := appCtx.Sessions.GetSession(passphrase, p)
				if err != nil {
					return err
				}
				if !ok {
					continue
				}
				state := "confirmed"
				if !rec.Confirmed {
					state = "awaiting reply"
				}
				updated := time.Unix(rec.UpdatedUTC, 0).UTC().Format(time.RFC3339)
				fmt.Printf("%-16s %-9s %-14s %s  %s  %s\n", p, rec.Role, state, rec.PeerFingerprint, rec.Suite, updated)
			}
			return nil
		},
	}
}
