package commands

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"e2ee/internal/app"
	"e2ee/internal/domain"
	"e2ee/internal/store"
)

// as switches the package globals to user's home, the way a fresh process
// with -u and --home would see them.
func as(t *testing.T, user, home string) {
	t.Helper()
	if appCtx != nil {
		require.NoError(t, appCtx.Close())
	}
	cfg = app.DefaultConfig(home)
	cfg.KDF = store.KDFParams{Algorithm: store.KDFScrypt, N: 1 << 10, R: 8, P: 1}
	cfg.OneTimePreKeys = 3
	cfg.LogLevel = "error"
	username, passphrase = user, "Tr0ub4dor&3-horse"

	a, err := app.New(cfg)
	require.NoError(t, err)
	appCtx = a
	t.Cleanup(func() {
		if appCtx == a {
			_ = a.Close()
			appCtx = nil
		}
	})
}

func run(t *testing.T, c *cobra.Command, args ...string) {
	t.Helper()
	c.SetArgs(args)
	require.NoError(t, c.ExecuteContext(context.Background()))
}

func TestTwoUsersOverFiles(t *testing.T) {
	aliceHome, bobHome, tmp := t.TempDir(), t.TempDir(), t.TempDir()
	bundlePath := filepath.Join(tmp, "bob.bundle.json")
	envPath := filepath.Join(tmp, "env.json")

	as(t, "bob", bobHome)
	run(t, initCmd())
	run(t, bundleCmd(), "-o", bundlePath)
	var b domain.PreKeyBundle
	require.NoError(t, readJSONArg(bundlePath, &b))
	require.Equal(t, domain.Username("bob"), b.Username)
	require.True(t, b.HasOneTimePreKey())

	as(t, "alice", aliceHome)
	run(t, initCmd())
	run(t, initiateCmd(), bundlePath)
	run(t, sealCmd(), "-o", envPath, "bob", "hello bob")

	as(t, "bob", bobHome)
	run(t, inspectCmd(), envPath)
	n, err := appCtx.Stores.PreKeys.CountOneTimePreKeys()
	require.NoError(t, err)
	require.Equal(t, 3, n)
	_, ok, err := appCtx.Sessions.GetSession(passphrase, "alice")
	require.NoError(t, err)
	require.False(t, ok)

	run(t, openCmd(), envPath)
	_, ok, err = appCtx.Sessions.GetSession(passphrase, "alice")
	require.NoError(t, err)
	require.True(t, ok)
	run(t, sessionsCmd())

	run(t, forgetCmd(), "alice")
	peers, err := appCtx.Stores.Sessions.ListPeers()
	require.NoError(t, err)
	require.Empty(t, peers)
}
