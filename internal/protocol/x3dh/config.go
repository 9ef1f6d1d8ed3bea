package x3dh

import (
	"github.com/pkg/errors"

	"e2ee/internal/crypto"
)

// Config lists the algorithms a peer accepts, each ordered by preference.
// Build one with NewConfigBuilder.
type Config struct {
	Curves     []crypto.Curve
	Signatures []crypto.SignatureScheme
	KDFs       []crypto.KDFAlgorithm
	Hashes     []crypto.HashFunc

	provider *crypto.Provider
}

// Provider returns the provider the config was built against.
func (c *Config) Provider() *crypto.Provider { return c.provider }

// Preferred returns the most preferred suite.
func (c *Config) Preferred() crypto.SuiteID {
	return crypto.SuiteID{
		Curve:     c.Curves[0],
		Signature: c.Signatures[0],
		KDF:       c.KDFs[0],
		Hash:      c.Hashes[0],
	}
}

// Accepts reports whether every algorithm of id is in the config.
func (c *Config) Accepts(id crypto.SuiteID) bool {
	return contains(c.Curves, id.Curve) &&
		contains(c.Signatures, id.Signature) &&
		contains(c.KDFs, id.KDF) &&
		contains(c.Hashes, id.Hash)
}

// Suite resolves id if the config accepts it.
func (c *Config) Suite(id crypto.SuiteID) (*crypto.Suite, error) {
	if !c.Accepts(id) {
		return nil, errors.Wrapf(crypto.ErrUnsupportedAlgorithm, "suite %s not accepted", id)
	}
	return c.provider.Suite(id)
}

func contains[T comparable](list []T, v T) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// ConfigBuilder assembles a Config. Every With call checks its algorithms
// against the provider; the first unsupported one is reported by Build.
type ConfigBuilder struct {
	provider *crypto.Provider
	cfg      Config
	err      error
}

// NewConfigBuilder starts a config for provider p.
func NewConfigBuilder(p *crypto.Provider) *ConfigBuilder {
	return &ConfigBuilder{provider: p}
}

// WithCurves sets the accepted agreement curves.
func (b *ConfigBuilder) WithCurves(curves ...crypto.Curve) *ConfigBuilder {
	for _, c := range curves {
		if !b.provider.SupportsCurve(c) {
			b.fail(errors.Wrapf(crypto.ErrUnsupportedAlgorithm, "%s not supported by provider", c))
		}
	}
	b.cfg.Curves = dedup(curves)
	return b
}

// WithSignatures sets the accepted signature schemes.
func (b *ConfigBuilder) WithSignatures(schemes ...crypto.SignatureScheme) *ConfigBuilder {
	for _, s := range schemes {
		if !b.provider.SupportsSignature(s) {
			b.fail(errors.Wrapf(crypto.ErrUnsupportedAlgorithm, "%s not supported by provider", s))
		}
	}
	b.cfg.Signatures = dedup(schemes)
	return b
}

// WithHKDF sets the accepted key derivation functions.
func (b *ConfigBuilder) WithHKDF(kdfs ...crypto.KDFAlgorithm) *ConfigBuilder {
	for _, k := range kdfs {
		if !b.provider.SupportsKDF(k) {
			b.fail(errors.Wrapf(crypto.ErrUnsupportedAlgorithm, "%s not supported by provider", k))
		}
	}
	b.cfg.KDFs = dedup(kdfs)
	return b
}

// WithHashes sets the accepted hash functions.
func (b *ConfigBuilder) WithHashes(hashes ...crypto.HashFunc) *ConfigBuilder {
	for _, h := range hashes {
		if !b.provider.SupportsHash(h) {
			b.fail(errors.Wrapf(crypto.ErrUnsupportedAlgorithm, "%s not supported by provider", h))
		}
	}
	b.cfg.Hashes = dedup(hashes)
	return b
}

// WithRecommendedAlgorithms sets every list to safe defaults.
func (b *ConfigBuilder) WithRecommendedAlgorithms() *ConfigBuilder {
	return b.
		WithCurves(crypto.CurveX25519, crypto.CurveP256, crypto.CurveP384, crypto.CurveP521).
		WithSignatures(crypto.SignatureEd25519, crypto.SignatureECDSAP256SHA256, crypto.SignatureECDSAP384SHA384).
		WithHKDF(crypto.HKDFSHA256, crypto.HKDFSHA512, crypto.HKDFSHA384).
		WithHashes(
			crypto.HashSHA256, crypto.HashSHA512, crypto.HashSHA224, crypto.HashSHA384,
			crypto.HashSHA3_256, crypto.HashSHA3_512, crypto.HashSHA3_384,
		)
}

// Build returns the config, or the first error recorded by a With call, or
// an error naming an empty list.
func (b *ConfigBuilder) Build() (*Config, error) {
	if b.err != nil {
		return nil, b.err
	}
	switch {
	case len(b.cfg.Curves) == 0:
		return nil, errors.Wrap(crypto.ErrUnsupportedAlgorithm, "no curve configured")
	case len(b.cfg.Signatures) == 0:
		return nil, errors.Wrap(crypto.ErrUnsupportedAlgorithm, "no signature scheme configured")
	case len(b.cfg.KDFs) == 0:
		return nil, errors.Wrap(crypto.ErrUnsupportedAlgorithm, "no key derivation function configured")
	case len(b.cfg.Hashes) == 0:
		return nil, errors.Wrap(crypto.ErrUnsupportedAlgorithm, "no hash function configured")
	}
	cfg := b.cfg
	cfg.provider = b.provider
	return &cfg, nil
}

func (b *ConfigBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func dedup[T comparable](in []T) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if !contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
