package app

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"e2ee/internal/crypto"
	"e2ee/internal/protocol/ratchet"
	"e2ee/internal/protocol/x3dh"
	"e2ee/internal/store"
	"e2ee/internal/tunnel"
)

// Config holds runtime wiring options for building the app.
type Config struct {
	Home string `validate:"required"` // data directory, e.g. $HOME/.e2ee

	// Algorithm preference lists, most preferred first. The first entry of
	// each list forms the suite of a newly generated identity.
	Curves     []string `validate:"required,min=1,dive,required"`
	Signatures []string `validate:"required,min=1,dive,required"`
	KDFs       []string `validate:"required,min=1,dive,required"`
	Hashes     []string `validate:"required,min=1,dive,required"`

	MaxSkippedKeys        int    `validate:"gte=1"`
	MaxSkippedGenerations int    `validate:"gte=1"`
	MaxSkip               uint32 `validate:"gte=1"`

	OneTimePreKeys int    `validate:"gte=0,lte=10000"`
	Storage        string `validate:"oneof=bolt files memory"`
	LogLevel       string `validate:"oneof=debug info warn error"`
	Mode           string `validate:"oneof=ordered datagram"`

	// KDF protects the identity and session records at rest.
	KDF store.KDFParams
}

// DefaultConfig returns the defaults rooted at home.
func DefaultConfig(home string) Config {
	l := ratchet.DefaultLimits()
	return Config{
		Home:                  home,
		Curves:                []string{"x25519", "p256", "p384", "p521"},
		Signatures:            []string{"ed25519", "ecdsa-p256-sha256", "ecdsa-p384-sha384"},
		KDFs:                  []string{"hkdf-sha256", "hkdf-sha512", "hkdf-sha384"},
		Hashes:                []string{"sha256", "sha512", "sha384", "sha3-256", "sha3-512"},
		MaxSkippedKeys:        l.MaxSkippedKeys,
		MaxSkippedGenerations: l.MaxSkippedGenerations,
		MaxSkip:               l.MaxSkip,
		OneTimePreKeys:        100,
		Storage:               string(store.BackendBolt),
		LogLevel:              "info",
		Mode:                  tunnel.Ordered.String(),
		KDF:                   store.DefaultKDFParams(),
	}
}

// Validate checks field constraints and that every algorithm name is known.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	if _, err := c.algorithms(); err != nil {
		return err
	}
	if _, err := tunnel.ParseMode(c.Mode); err != nil {
		return err
	}
	if _, err := PassphraseKDF(c.KDF.Algorithm); err != nil {
		return err
	}
	return nil
}

// PassphraseKDF returns the default parameters for the named KDF.
func PassphraseKDF(name string) (store.KDFParams, error) {
	switch strings.ToLower(name) {
	case store.KDFScrypt:
		return store.DefaultKDFParams(), nil
	case store.KDFArgon2id:
		return store.Argon2idParams(), nil
	}
	return store.KDFParams{}, errors.Errorf("unknown passphrase kdf %q", name)
}

// Limits returns the ratchet limits.
func (c Config) Limits() ratchet.Limits {
	return ratchet.Limits{
		MaxSkippedKeys:        c.MaxSkippedKeys,
		MaxSkippedGenerations: c.MaxSkippedGenerations,
		MaxSkip:               c.MaxSkip,
	}
}

// X3DH builds the handshake configuration against p.
func (c Config) X3DH(p *crypto.Provider) (*x3dh.Config, error) {
	a, err := c.algorithms()
	if err != nil {
		return nil, err
	}
	return x3dh.NewConfigBuilder(p).
		WithCurves(a.curves...).
		WithSignatures(a.signatures...).
		WithHKDF(a.kdfs...).
		WithHashes(a.hashes...).
		Build()
}

type algorithms struct {
	curves     []crypto.Curve
	signatures []crypto.SignatureScheme
	kdfs       []crypto.KDFAlgorithm
	hashes     []crypto.HashFunc
}

func (c Config) algorithms() (algorithms, error) {
	var (
		a   algorithms
		err error
	)
	if a.curves, err = parseAll(c.Curves, crypto.ParseCurve); err != nil {
		return a, err
	}
	if a.signatures, err = parseAll(c.Signatures, crypto.ParseSignatureScheme); err != nil {
		return a, err
	}
	if a.kdfs, err = parseAll(c.KDFs, crypto.ParseKDF); err != nil {
		return a, err
	}
	a.hashes, err = parseAll(c.Hashes, crypto.ParseHashFunc)
	return a, err
}

func parseAll[T any](names []string, parse func(string) (T, error)) ([]T, error) {
	out := make([]T, 0, len(names))
	for _, n := range names {
		v, err := parse(strings.TrimSpace(n))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
