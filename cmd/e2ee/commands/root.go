package commands

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"e2ee/internal/app"
)

const passphraseEnv = "E2EE_PASSPHRASE"

var (
	cfg        = app.DefaultConfig("")
	passphrase string
	username   string
	kdfName    = "scrypt"
	appCtx     *app.App
)

func Execute() error {
	root := &cobra.Command{
		Use:          "e2ee",
		Short:        "X3DH and Double Ratchet sessions between two peers",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				cfg.Home = filepath.Join(dir, ".e2ee")
			}
			if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
				return err
			}
			if passphrase == "" {
				passphrase = os.Getenv(passphraseEnv)
			}
			kdf, err := app.PassphraseKDF(kdfName)
			if err != nil {
				return err
			}
			cfg.KDF = kdf
			a, err := app.New(cfg)
			if err != nil {
				return err
			}
			appCtx = a
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if appCtx == nil {
				return nil
			}
			return appCtx.Close()
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&cfg.Home, "home", "", "data dir (default ~/.e2ee)")
	f.StringVarP(&passphrase, "passphrase", "p", "", "passphrase to protect keys (or $"+passphraseEnv+")")
	f.StringVarP(&username, "username", "u", "", "your username")
	f.StringVar(&cfg.Storage, "storage", cfg.Storage, "prekey storage backend: bolt, files or memory")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")
	f.StringVar(&kdfName, "kdf", kdfName, "passphrase KDF for records written: scrypt or argon2id")
	f.StringVar(&cfg.Mode, "mode", cfg.Mode, "tunnel mode for new sessions: ordered or datagram")
	f.StringSliceVar(&cfg.Curves, "curves", cfg.Curves, "accepted curves, most preferred first")
	f.StringSliceVar(&cfg.Signatures, "signatures", cfg.Signatures, "accepted signature schemes, most preferred first")
	f.StringSliceVar(&cfg.KDFs, "kdfs", cfg.KDFs, "accepted HKDF hashes, most preferred first")
	f.StringSliceVar(&cfg.Hashes, "hashes", cfg.Hashes, "accepted hash functions, most preferred first")
	f.IntVar(&cfg.MaxSkippedKeys, "max-skipped-keys", cfg.MaxSkippedKeys, "skipped message keys cached per session")
	f.IntVar(&cfg.MaxSkippedGenerations, "max-skipped-generations", cfg.MaxSkippedGenerations, "receiving chains that may hold cached keys")
	f.Uint32Var(&cfg.MaxSkip, "max-skip", cfg.MaxSkip, "message keys a single header may skip")

	root.AddCommand(
		initCmd(),
		fingerprintCmd(),
		prekeysCmd(),
		bundleCmd(),
		initiateCmd(),
		inspectCmd(),
		sealCmd(),
		openCmd(),
		sessionsCmd(),
		forgetCmd(),
	)
	return root.Execute()
}

func requirePassphrase() error {
	if passphrase == "" {
		return errors.Errorf("passphrase required (-p or $%s)", passphraseEnv)
	}
	return nil
}

func requireUsername() error {
	if username == "" {
		return errors.New("username required (-u)")
	}
	return nil
}
