package crypto

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/x509"

	"github.com/pkg/errors"
)

var ecdhCurves = map[ecdh.Curve]Curve{
	ecdh.X25519(): CurveX25519,
	ecdh.P256():   CurveP256,
	ecdh.P384():   CurveP384,
	ecdh.P521():   CurveP521,
}

// MarshalPKIX encodes an agreement public key as SubjectPublicKeyInfo DER.
func MarshalPKIX(k PublicKey) ([]byte, error) {
	if k.handle == nil {
		return nil, errors.Wrap(ErrKeyRejected, "public key not parsed")
	}
	return x509.MarshalPKIXPublicKey(k.handle)
}

// ParsePKIX decodes SubjectPublicKeyInfo DER into a parsed agreement key.
func ParsePKIX(der []byte) (PublicKey, error) {
	v, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return PublicKey{}, errors.Wrap(ErrKeyRejected, err.Error())
	}
	var h *ecdh.PublicKey
	switch pk := v.(type) {
	case *ecdh.PublicKey:
		h = pk
	case *ecdsa.PublicKey:
		// NIST keys come back as ECDSA keys.
		if h, err = pk.ECDH(); err != nil {
			return PublicKey{}, errors.Wrap(ErrKeyRejected, err.Error())
		}
	default:
		return PublicKey{}, errors.Wrap(ErrUnsupportedCurve, "not an agreement key")
	}
	c, ok := ecdhCurves[h.Curve()]
	if !ok {
		return PublicKey{}, ErrUnsupportedCurve
	}
	return parsedPublicKey(c, h), nil
}

// MarshalPKCS8 encodes an agreement private key as PKCS #8 DER.
func MarshalPKCS8(k *PrivateKey) ([]byte, error) {
	return x509.MarshalPKCS8PrivateKey(k.key)
}

// ParsePKCS8 decodes PKCS #8 DER into an agreement private key.
func ParsePKCS8(der []byte) (*PrivateKey, error) {
	v, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, errors.Wrap(ErrKeyRejected, err.Error())
	}
	var k *ecdh.PrivateKey
	switch pk := v.(type) {
	case *ecdh.PrivateKey:
		k = pk
	case *ecdsa.PrivateKey:
		if k, err = pk.ECDH(); err != nil {
			return nil, errors.Wrap(ErrKeyRejected, err.Error())
		}
	default:
		return nil, errors.Wrap(ErrUnsupportedCurve, "not an agreement key")
	}
	c, ok := ecdhCurves[k.Curve()]
	if !ok {
		return nil, ErrUnsupportedCurve
	}
	return &PrivateKey{curve: c, key: k}, nil
}

// MarshalSigningKey encodes a signing key as PKCS #8 DER.
func MarshalSigningKey(k *SigningKey) ([]byte, error) {
	return x509.MarshalPKCS8PrivateKey(k.key)
}

// ParseSigningKey decodes PKCS #8 DER and checks it against scheme s.
func ParseSigningKey(s SignatureScheme, der []byte) (*SigningKey, error) {
	v, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, errors.Wrap(ErrKeyRejected, err.Error())
	}
	switch pk := v.(type) {
	case ed25519.PrivateKey:
		if s != SignatureEd25519 {
			return nil, errors.Wrapf(ErrKeyRejected, "ed25519 key for %s", s)
		}
		return &SigningKey{scheme: s, key: pk}, nil
	case *ecdsa.PrivateKey:
		want := map[SignatureScheme]string{
			SignatureECDSAP256SHA256: "P-256",
			SignatureECDSAP384SHA384: "P-384",
		}[s]
		if pk.Curve.Params().Name != want {
			return nil, errors.Wrapf(ErrKeyRejected, "%s key for %s", pk.Curve.Params().Name, s)
		}
		return &SigningKey{scheme: s, key: pk}, nil
	default:
		return nil, errors.Wrap(ErrUnsupportedAlgorithm, "not a signing key")
	}
}
