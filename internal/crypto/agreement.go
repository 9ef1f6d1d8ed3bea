package crypto

import (
	"crypto/ecdh"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/curve25519"
)

// Agreement is a key agreement capability for one curve.
type Agreement interface {
	Curve() Curve
	// PublicKeySize is the length of a raw public key encoding.
	PublicKeySize() int
	Generate(rand io.Reader) (*PrivateKey, error)
	// NewPrivateKey imports a raw private scalar.
	NewPrivateKey(raw []byte) (*PrivateKey, error)
	// ParsePublicKey validates k for this curve. An already parsed key of the
	// same curve is returned unchanged.
	ParsePublicKey(k PublicKey) (PublicKey, error)
	// Agree computes the shared secret. ErrUnsupportedCurve is returned when
	// either key belongs to another curve and ErrKeyRejected when the peer key
	// is malformed or yields a degenerate secret.
	Agree(priv *PrivateKey, pub PublicKey) ([]byte, error)
}

// x25519Agreement generates and imports keys through crypto/ecdh so that
// public keys share one parsed handle type with the NIST curves, and computes
// the shared secret with curve25519.X25519, which rejects low-order points.
type x25519Agreement struct{}

func (x25519Agreement) Curve() Curve       { return CurveX25519 }
func (x25519Agreement) PublicKeySize() int { return curve25519.PointSize }

func (a x25519Agreement) Generate(rand io.Reader) (*PrivateKey, error) {
	var scalar [curve25519.ScalarSize]byte
	defer Wipe(scalar[:])
	if _, err := io.ReadFull(rand, scalar[:]); err != nil {
		return nil, errors.Wrap(err, "x25519 generate")
	}
	clamp(&scalar)
	return a.NewPrivateKey(scalar[:])
}

func (x25519Agreement) NewPrivateKey(raw []byte) (*PrivateKey, error) {
	k, err := ecdh.X25519().NewPrivateKey(raw)
	if err != nil {
		return nil, errors.Wrap(ErrKeyRejected, err.Error())
	}
	return &PrivateKey{curve: CurveX25519, key: k}, nil
}

func (x25519Agreement) ParsePublicKey(k PublicKey) (PublicKey, error) {
	return parseWith(ecdh.X25519(), CurveX25519, k)
}

func (a x25519Agreement) Agree(priv *PrivateKey, pub PublicKey) ([]byte, error) {
	if priv == nil || priv.curve != CurveX25519 || pub.curve != CurveX25519 {
		return nil, ErrUnsupportedCurve
	}
	pub, err := a.ParsePublicKey(pub)
	if err != nil {
		return nil, err
	}
	scalar := priv.key.Bytes()
	defer Wipe(scalar)
	out, err := curve25519.X25519(scalar, pub.raw)
	if err != nil {
		return nil, errors.Wrap(ErrKeyRejected, err.Error())
	}
	return out, nil
}

func clamp(k *[curve25519.ScalarSize]byte) {
	k[0] &= 248
	k[31] &= 127
	k[31] |= 64
}

// nistAgreement covers P-256, P-384 and P-521.
type nistAgreement struct {
	id    Curve
	curve ecdh.Curve
	size  int
}

func (a nistAgreement) Curve() Curve       { return a.id }
func (a nistAgreement) PublicKeySize() int { return a.size }

func (a nistAgreement) Generate(rand io.Reader) (*PrivateKey, error) {
	k, err := a.curve.GenerateKey(rand)
	if err != nil {
		return nil, errors.Wrapf(err, "%s generate", a.id)
	}
	return &PrivateKey{curve: a.id, key: k}, nil
}

func (a nistAgreement) NewPrivateKey(raw []byte) (*PrivateKey, error) {
	k, err := a.curve.NewPrivateKey(raw)
	if err != nil {
		return nil, errors.Wrap(ErrKeyRejected, err.Error())
	}
	return &PrivateKey{curve: a.id, key: k}, nil
}

func (a nistAgreement) ParsePublicKey(k PublicKey) (PublicKey, error) {
	return parseWith(a.curve, a.id, k)
}

func (a nistAgreement) Agree(priv *PrivateKey, pub PublicKey) ([]byte, error) {
	if priv == nil || priv.curve != a.id || pub.curve != a.id {
		return nil, ErrUnsupportedCurve
	}
	pub, err := a.ParsePublicKey(pub)
	if err != nil {
		return nil, err
	}
	out, err := priv.key.ECDH(pub.handle)
	if err != nil {
		return nil, errors.Wrap(ErrKeyRejected, err.Error())
	}
	return out, nil
}

func parseWith(curve ecdh.Curve, id Curve, k PublicKey) (PublicKey, error) {
	if k.curve != id {
		return PublicKey{}, ErrUnsupportedCurve
	}
	if k.handle != nil {
		return k, nil
	}
	h, err := curve.NewPublicKey(k.raw)
	if err != nil {
		return PublicKey{}, errors.Wrap(ErrKeyRejected, err.Error())
	}
	return parsedPublicKey(id, h), nil
}
