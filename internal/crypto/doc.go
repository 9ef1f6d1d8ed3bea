// Package crypto exposes the primitive capabilities used by the handshake and
// the ratchet.
//
// Contents
//
//   - Algorithm identifiers for key agreement curves, signature schemes, hash
//     functions and HKDF variants (Curve, SignatureScheme, HashFunc,
//     KDFAlgorithm)
//   - Agreement backends: X25519 (golang.org/x/crypto/curve25519) and the NIST
//     curves P-256, P-384 and P-521
//   - Signature backends: Ed25519 and ECDSA over P-256/SHA-256 and
//     P-384/SHA-384
//   - Hash functions from the SHA-2 and SHA-3 families and HKDF over
//     SHA-256/384/512
//   - A Provider that maps identifiers to capabilities, and a Suite: the one
//     set of capabilities negotiated for a session and used for its lifetime
//   - PKIX / PKCS #8 DER encodings, fingerprints and best-effort wiping
//
// # Public keys
//
// An agreement PublicKey is either unparsed (raw bytes received from a peer)
// or parsed (validated for its curve). Parsing happens once; agreement with an
// unparsed key parses it first and fails with ErrKeyRejected if the bytes are
// not a valid point.
//
// # Notes
//
// There is no process-wide default provider. Callers construct one with
// NewProvider and pass it down.
package crypto
