package crypto

import (
	"crypto/ecdh"
	"crypto/elliptic"
	"crypto/rand"
	"io"

	"github.com/pkg/errors"
)

// Provider maps algorithm identifiers to capabilities.
type Provider struct {
	rand       io.Reader
	agreements map[Curve]Agreement
	signers    map[SignatureScheme]Signer
	hashes     map[HashFunc]Hash
	kdfs       map[KDFAlgorithm]KDF
}

// Option configures a Provider.
type Option func(*Provider)

// WithRandom replaces crypto/rand as the entropy source. Tests use it for
// deterministic keys.
func WithRandom(r io.Reader) Option {
	return func(p *Provider) { p.rand = r }
}

// NewProvider returns a provider with every built-in backend registered.
func NewProvider(opts ...Option) *Provider {
	p := &Provider{
		rand:       rand.Reader,
		agreements: map[Curve]Agreement{},
		signers:    map[SignatureScheme]Signer{},
		hashes:     map[HashFunc]Hash{},
		kdfs:       map[KDFAlgorithm]KDF{},
	}
	for _, a := range []Agreement{
		x25519Agreement{},
		nistAgreement{id: CurveP256, curve: ecdh.P256(), size: 65},
		nistAgreement{id: CurveP384, curve: ecdh.P384(), size: 97},
		nistAgreement{id: CurveP521, curve: ecdh.P521(), size: 133},
	} {
		p.agreements[a.Curve()] = a
	}
	for _, s := range []Signer{
		ed25519Signer{},
		ecdsaSigner{id: SignatureECDSAP256SHA256, curve: elliptic.P256(), digest: sha256Digest},
		ecdsaSigner{id: SignatureECDSAP384SHA384, curve: elliptic.P384(), digest: sha384Digest},
	} {
		p.signers[s.Scheme()] = s
	}
	for _, h := range builtinHashes {
		p.hashes[h.id] = h
	}
	p.kdfs[HKDFSHA256] = KDF{id: HKDFSHA256, hash: p.hashes[HashSHA256]}
	p.kdfs[HKDFSHA384] = KDF{id: HKDFSHA384, hash: p.hashes[HashSHA384]}
	p.kdfs[HKDFSHA512] = KDF{id: HKDFSHA512, hash: p.hashes[HashSHA512]}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Rand returns the provider's entropy source.
func (p *Provider) Rand() io.Reader { return p.rand }

func (p *Provider) Agreement(c Curve) (Agreement, error) {
	a, ok := p.agreements[c]
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedCurve, "%s", c)
	}
	return a, nil
}

func (p *Provider) Signer(s SignatureScheme) (Signer, error) {
	sg, ok := p.signers[s]
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedAlgorithm, "%s", s)
	}
	return sg, nil
}

func (p *Provider) Hash(h HashFunc) (Hash, error) {
	hh, ok := p.hashes[h]
	if !ok {
		return Hash{}, errors.Wrapf(ErrUnsupportedAlgorithm, "%s", h)
	}
	return hh, nil
}

func (p *Provider) KDF(k KDFAlgorithm) (KDF, error) {
	kk, ok := p.kdfs[k]
	if !ok {
		return KDF{}, errors.Wrapf(ErrUnsupportedAlgorithm, "%s", k)
	}
	return kk, nil
}

func (p *Provider) SupportsCurve(c Curve) bool { _, ok := p.agreements[c]; return ok }
func (p *Provider) SupportsSignature(s SignatureScheme) bool {
	_, ok := p.signers[s]
	return ok
}
func (p *Provider) SupportsHash(h HashFunc) bool { _, ok := p.hashes[h]; return ok }
func (p *Provider) SupportsKDF(k KDFAlgorithm) bool {
	_, ok := p.kdfs[k]
	return ok
}

// SuiteID names the algorithms of a Suite. It is the serialisable half of a
// suite and travels in bundles and session state.
type SuiteID struct {
	Curve     Curve           `cbor:"1,keyasint" json:"curve"`
	Signature SignatureScheme `cbor:"2,keyasint" json:"signature"`
	KDF       KDFAlgorithm    `cbor:"3,keyasint" json:"kdf"`
	Hash      HashFunc        `cbor:"4,keyasint" json:"hash"`
}

// DefaultSuiteID is X25519, Ed25519, HKDF-SHA256 and SHA-256.
var DefaultSuiteID = SuiteID{
	Curve:     CurveX25519,
	Signature: SignatureEd25519,
	KDF:       HKDFSHA256,
	Hash:      HashSHA256,
}

func (id SuiteID) String() string {
	return id.Curve.String() + "/" + id.Signature.String() + "/" + id.KDF.String() + "/" + id.Hash.String()
}

// Suite is the fixed set of capabilities used for the lifetime of a session.
type Suite struct {
	ID        SuiteID
	Agreement Agreement
	Signer    Signer
	KDF       KDF
	Hash      Hash
	rand      io.Reader
}

// Suite resolves id against the provider.
func (p *Provider) Suite(id SuiteID) (*Suite, error) {
	a, err := p.Agreement(id.Curve)
	if err != nil {
		return nil, err
	}
	s, err := p.Signer(id.Signature)
	if err != nil {
		return nil, err
	}
	k, err := p.KDF(id.KDF)
	if err != nil {
		return nil, err
	}
	h, err := p.Hash(id.Hash)
	if err != nil {
		return nil, err
	}
	return &Suite{ID: id, Agreement: a, Signer: s, KDF: k, Hash: h, rand: p.rand}, nil
}

// GenerateKey returns a fresh agreement key pair on the suite's curve.
func (s *Suite) GenerateKey() (*PrivateKey, error) {
	return s.Agreement.Generate(s.rand)
}

// GenerateSigningKey returns a fresh signing key for the suite's scheme.
func (s *Suite) GenerateSigningKey() (*SigningKey, error) {
	return s.Signer.Generate(s.rand)
}

func (s *Suite) Agree(priv *PrivateKey, pub PublicKey) ([]byte, error) {
	return s.Agreement.Agree(priv, pub)
}

func (s *Suite) Sign(key *SigningKey, msg []byte) ([]byte, error) {
	return s.Signer.Sign(s.rand, key, msg)
}

func (s *Suite) Verify(pub VerifyingKey, msg, sig []byte) bool {
	return s.Signer.Verify(pub, msg, sig)
}

// PublicKey wraps raw bytes as an unparsed key on the suite's curve.
func (s *Suite) PublicKey(raw []byte) PublicKey {
	return UnparsedPublicKey(s.ID.Curve, raw)
}

// Fingerprint returns the short fingerprint of b under the suite's hash.
func (s *Suite) Fingerprint(b []byte) string {
	return fingerprint(s.Hash, b)
}
