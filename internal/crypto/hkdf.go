package crypto

import (
	"crypto/hmac"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/hkdf"
)

// KDF is an HKDF capability bound to one hash.
type KDF struct {
	id   KDFAlgorithm
	hash Hash
}

func (k KDF) Algorithm() KDFAlgorithm { return k.id }

// Hash returns the underlying hash.
func (k KDF) Hash() Hash { return k.hash }

// Extract runs HKDF-Extract. A nil salt is treated as a string of zeros of
// the hash length.
func (k KDF) Extract(salt, secret []byte) []byte {
	return hkdf.Extract(k.hash.new, secret, salt)
}

// Expand runs HKDF-Expand. length must not exceed 255 times the hash size.
func (k KDF) Expand(prk, info []byte, length int) ([]byte, error) {
	if length < 0 || length > 255*k.hash.Size() {
		return nil, ErrHKDFLength
	}
	out := make([]byte, length)
	if _, err := io.ReadFull(hkdf.Expand(k.hash.new, prk, info), out); err != nil {
		return nil, errors.Wrap(err, "hkdf expand")
	}
	return out, nil
}

// Derive is Extract followed by Expand.
func (k KDF) Derive(salt, secret, info []byte, length int) ([]byte, error) {
	prk := k.Extract(salt, secret)
	defer Wipe(prk)
	return k.Expand(prk, info, length)
}

// MAC computes HMAC over data keyed by key with the KDF's hash.
func (k KDF) MAC(key, data []byte) []byte {
	m := hmac.New(k.hash.new, key)
	m.Write(data)
	return m.Sum(nil)
}
