package crypto

import (
	"crypto/ecdh"
	"crypto/subtle"
)

// PublicKey is an agreement public key. It is either unparsed (raw bytes as
// received) or parsed (validated against its curve). The zero value is an
// empty unparsed key.
type PublicKey struct {
	curve  Curve
	raw    []byte
	handle *ecdh.PublicKey
}

// UnparsedPublicKey wraps raw bytes received for curve c. No validation is
// performed until the key is parsed or used in an agreement.
func UnparsedPublicKey(c Curve, raw []byte) PublicKey {
	return PublicKey{curve: c, raw: append([]byte(nil), raw...)}
}

func parsedPublicKey(c Curve, h *ecdh.PublicKey) PublicKey {
	return PublicKey{curve: c, raw: h.Bytes(), handle: h}
}

// Curve reports the curve the key claims to belong to.
func (k PublicKey) Curve() Curve { return k.curve }

// Parsed reports whether the key has been validated.
func (k PublicKey) Parsed() bool { return k.handle != nil }

// Bytes returns the raw encoding of the key. For X25519 this is the 32-byte
// u-coordinate; for the NIST curves it is the uncompressed point.
func (k PublicKey) Bytes() []byte { return append([]byte(nil), k.raw...) }

// IsZero reports whether the key carries no bytes.
func (k PublicKey) IsZero() bool { return len(k.raw) == 0 }

// Equal compares curve and encoding in constant time with respect to the
// encoding bytes.
func (k PublicKey) Equal(o PublicKey) bool {
	if k.curve != o.curve || len(k.raw) != len(o.raw) {
		return false
	}
	return subtle.ConstantTimeCompare(k.raw, o.raw) == 1
}

// PrivateKey is an agreement private key. It doubles as the key pair: the
// public half is always derivable.
type PrivateKey struct {
	curve Curve
	key   *ecdh.PrivateKey
}

// Curve reports the curve of the key.
func (k *PrivateKey) Curve() Curve { return k.curve }

// PublicKey returns the parsed public half.
func (k *PrivateKey) PublicKey() PublicKey {
	return parsedPublicKey(k.curve, k.key.PublicKey())
}

// Bytes returns the raw scalar encoding. Callers own the returned slice and
// should Wipe it when done.
func (k *PrivateKey) Bytes() []byte { return k.key.Bytes() }
