package crypto

import (
	stdcrypto "crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
	"io"

	"github.com/pkg/errors"
)

// SigningKey is an identity signing private key.
type SigningKey struct {
	scheme SignatureScheme
	key    stdcrypto.Signer
}

// Scheme reports the signature scheme of the key.
func (k *SigningKey) Scheme() SignatureScheme { return k.scheme }

// Public returns the verifying half.
func (k *SigningKey) Public() VerifyingKey {
	switch pk := k.key.Public().(type) {
	case ed25519.PublicKey:
		return VerifyingKey{scheme: k.scheme, raw: append([]byte(nil), pk...)}
	default:
		der, _ := x509.MarshalPKIXPublicKey(pk)
		return VerifyingKey{scheme: k.scheme, raw: der}
	}
}

// VerifyingKey is an identity signing public key. Ed25519 keys are carried as
// their 32 raw bytes; ECDSA keys as PKIX DER.
type VerifyingKey struct {
	scheme SignatureScheme
	raw    []byte
}

// NewVerifyingKey wraps an encoded verifying key. Validation happens on
// Verify.
func NewVerifyingKey(s SignatureScheme, raw []byte) VerifyingKey {
	return VerifyingKey{scheme: s, raw: append([]byte(nil), raw...)}
}

func (k VerifyingKey) Scheme() SignatureScheme { return k.scheme }
func (k VerifyingKey) Bytes() []byte           { return append([]byte(nil), k.raw...) }
func (k VerifyingKey) IsZero() bool            { return len(k.raw) == 0 }

// Signer is a signature capability for one scheme.
type Signer interface {
	Scheme() SignatureScheme
	Generate(rand io.Reader) (*SigningKey, error)
	Sign(rand io.Reader, key *SigningKey, msg []byte) ([]byte, error)
	// Verify reports whether sig is a valid signature of msg under pub. A
	// malformed key or a key of another scheme never verifies.
	Verify(pub VerifyingKey, msg, sig []byte) bool
}

type ed25519Signer struct{}

func (ed25519Signer) Scheme() SignatureScheme { return SignatureEd25519 }

func (ed25519Signer) Generate(rand io.Reader) (*SigningKey, error) {
	_, priv, err := ed25519.GenerateKey(rand)
	if err != nil {
		return nil, errors.Wrap(err, "ed25519 generate")
	}
	return &SigningKey{scheme: SignatureEd25519, key: priv}, nil
}

func (ed25519Signer) Sign(_ io.Reader, key *SigningKey, msg []byte) ([]byte, error) {
	priv, ok := key.key.(ed25519.PrivateKey)
	if !ok || key.scheme != SignatureEd25519 {
		return nil, ErrKeyRejected
	}
	return ed25519.Sign(priv, msg), nil
}

func (ed25519Signer) Verify(pub VerifyingKey, msg, sig []byte) bool {
	if pub.scheme != SignatureEd25519 || len(pub.raw) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub.raw), msg, sig)
}

type ecdsaSigner struct {
	id     SignatureScheme
	curve  elliptic.Curve
	digest func([]byte) []byte
}

func (s ecdsaSigner) Scheme() SignatureScheme { return s.id }

func (s ecdsaSigner) Generate(rand io.Reader) (*SigningKey, error) {
	priv, err := ecdsa.GenerateKey(s.curve, rand)
	if err != nil {
		return nil, errors.Wrapf(err, "%s generate", s.id)
	}
	return &SigningKey{scheme: s.id, key: priv}, nil
}

func (s ecdsaSigner) Sign(rand io.Reader, key *SigningKey, msg []byte) ([]byte, error) {
	priv, ok := key.key.(*ecdsa.PrivateKey)
	if !ok || key.scheme != s.id {
		return nil, ErrKeyRejected
	}
	return ecdsa.SignASN1(rand, priv, s.digest(msg))
}

func (s ecdsaSigner) Verify(pub VerifyingKey, msg, sig []byte) bool {
	if pub.scheme != s.id {
		return false
	}
	parsed, err := x509.ParsePKIXPublicKey(pub.raw)
	if err != nil {
		return false
	}
	pk, ok := parsed.(*ecdsa.PublicKey)
	if !ok || pk.Curve != s.curve {
		return false
	}
	return ecdsa.VerifyASN1(pk, s.digest(msg), sig)
}

func sha256Digest(b []byte) []byte { d := sha256.Sum256(b); return d[:] }
func sha384Digest(b []byte) []byte { d := sha512.Sum384(b); return d[:] }
