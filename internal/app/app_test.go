package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"e2ee/internal/crypto"
	"e2ee/internal/domain"
	"e2ee/internal/store"
)

const testPassphrase = "Tr0ub4dor&3-horse"

func testConfig(t *testing.T, backend store.Backend) Config {
	t.Helper()
	cfg := DefaultConfig(t.TempDir())
	cfg.Storage = string(backend)
	cfg.KDF = store.KDFParams{Algorithm: store.KDFScrypt, N: 1 << 10, R: 8, P: 1}
	cfg.OneTimePreKeys = 2
	return cfg
}

func TestDefaultConfigValidates(t *testing.T) {
	require.NoError(t, DefaultConfig("/tmp/e2ee").Validate())
}

func TestConfigValidation(t *testing.T) {
	cases := map[string]func(*Config){
		"no home":          func(c *Config) { c.Home = "" },
		"no curves":        func(c *Config) { c.Curves = nil },
		"empty curve list": func(c *Config) { c.Curves = []string{} },
		"unknown curve":    func(c *Config) { c.Curves = []string{"curve41417"} },
		"unknown hash":     func(c *Config) { c.Hashes = []string{"md5"} },
		"blank kdf":        func(c *Config) { c.KDFs = []string{""} },
		"zero cache":       func(c *Config) { c.MaxSkippedKeys = 0 },
		"zero gens":        func(c *Config) { c.MaxSkippedGenerations = 0 },
		"zero skip":        func(c *Config) { c.MaxSkip = 0 },
		"negative opks":    func(c *Config) { c.OneTimePreKeys = -1 },
		"bad storage":      func(c *Config) { c.Storage = "tape" },
		"bad level":        func(c *Config) { c.LogLevel = "loud" },
		"bad mode":         func(c *Config) { c.Mode = "stream" },
		"bad kdf":          func(c *Config) { c.KDF.Algorithm = "pbkdf2" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig("/tmp/e2ee")
			mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestX3DHPreferences(t *testing.T) {
	cfg := DefaultConfig("/tmp/e2ee")
	cfg.Curves = []string{"p384", "x25519"}
	cfg.Signatures = []string{"ecdsa-p384-sha384"}
	cfg.KDFs = []string{"sha384"}
	cfg.Hashes = []string{"sha3-256"}

	x, err := cfg.X3DH(crypto.NewProvider())
	require.NoError(t, err)
	require.Equal(t, crypto.SuiteID{
		Curve:     crypto.CurveP384,
		Signature: crypto.SignatureECDSAP384SHA384,
		KDF:       crypto.HKDFSHA384,
		Hash:      crypto.HashSHA3_256,
	}, x.Preferred())
	require.Equal(t, []crypto.Curve{crypto.CurveP384, crypto.CurveX25519}, x.Curves)
}

func TestNewLogger(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "warn", "error"} {
		l, err := NewLogger(lvl)
		require.NoError(t, err, lvl)
		require.NotNil(t, l)
	}
	_, err := NewLogger("loud")
	require.Error(t, err)
}

func TestWireEndToEnd(t *testing.T) {
	for _, backend := range []store.Backend{store.BackendBolt, store.BackendFiles, store.BackendMemory} {
		t.Run(string(backend), func(t *testing.T) {
			ctx := context.Background()
			alice, err := NewWire(testConfig(t, backend), zap.NewNop())
			require.NoError(t, err)
			defer alice.Close()
			bob, err := NewWire(testConfig(t, backend), zap.NewNop())
			require.NoError(t, err)
			defer bob.Close()

			for _, w := range []*Wire{alice, bob} {
				_, _, err := w.Identity.GenerateIdentity(testPassphrase, crypto.DefaultSuiteID)
				require.NoError(t, err)
				_, _, err = w.Prekeys.GenerateAndStorePreKeys(testPassphrase, 2)
				require.NoError(t, err)
			}

			bundle, err := bob.Prekeys.LoadPreKeyBundle(testPassphrase, "bob")
			require.NoError(t, err)
			_, err = alice.Sessions.InitiateSession(ctx, testPassphrase, "bob", bundle)
			require.NoError(t, err)

			env, err := alice.Messages.Seal(ctx, testPassphrase, "alice", "bob", []byte("hello bob"))
			require.NoError(t, err)
			msg, err := bob.Messages.Open(ctx, testPassphrase, env)
			require.NoError(t, err)
			require.Equal(t, "hello bob", string(msg.Plaintext))

			reply, err := bob.Messages.Seal(ctx, testPassphrase, "bob", "alice", []byte("hello alice"))
			require.NoError(t, err)
			msg, err = alice.Messages.Open(ctx, testPassphrase, reply)
			require.NoError(t, err)
			require.Equal(t, domain.Username("bob"), msg.From)
			require.Equal(t, "hello alice", string(msg.Plaintext))
		})
	}
}

func TestAppSuite(t *testing.T) {
	cfg := testConfig(t, store.BackendMemory)
	cfg.LogLevel = "error"
	a, err := New(cfg)
	require.NoError(t, err)
	defer a.Close()

	suite, err := a.Suite()
	require.NoError(t, err)
	require.Equal(t, crypto.DefaultSuiteID, suite)
}
