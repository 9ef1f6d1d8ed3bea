package crypto

import (
	"crypto/sha256"
	"encoding/hex"
)

// fingerprintLen is the number of digest bytes kept (20 hex chars).
const fingerprintLen = 10

// Fingerprint returns a short hex fingerprint of b using SHA-256. It names
// public values such as frames in logs.
func Fingerprint(pub []byte) string {
	return fingerprint(Hash{id: HashSHA256, new: sha256.New}, pub)
}

func fingerprint(h Hash, b []byte) string {
	sum := h.Sum(b)
	if len(sum) > fingerprintLen {
		sum = sum[:fingerprintLen]
	}
	return hex.EncodeToString(sum)
}
