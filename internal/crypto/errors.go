package crypto

import "github.com/pkg/errors"

var (
	// ErrKeyRejected reports key material that is malformed or not valid for
	// the algorithm it claims.
	ErrKeyRejected = errors.New("crypto: key rejected")
	// ErrUnsupportedCurve reports an agreement between keys of different
	// curves or a curve with no backend.
	ErrUnsupportedCurve = errors.New("crypto: unsupported curve")
	// ErrUnsupportedAlgorithm reports an algorithm identifier that the
	// provider or configuration does not accept.
	ErrUnsupportedAlgorithm = errors.New("crypto: unsupported algorithm")
	// ErrHKDFLength reports an HKDF expand request longer than 255 hash
	// blocks.
	ErrHKDFLength = errors.New("crypto: hkdf output length too large")
)
