// Package store provides persistence for the engine's key material.
//
// Prekeys live in a KeyStorage: a flat id -> bytes map whose Take is an
// atomic get-and-delete. Three backends are provided:
//   - Bolt: a bucket in a bolt database; Take runs in one write transaction
//   - Files: a JSON file per namespace, rewritten atomically via temp file
//     and rename under a mutex
//   - Memory: a mutex-guarded map, for tests and ephemeral peers
//
// PreKeyStore layers typed signed / one-time prekey records (CBOR, keys in
// PKCS #8) over two KeyStorages.
//
// The identity and the per-peer session records are sealed with a
// passphrase: scrypt derives a key that encrypts the record with
// ChaCha20-Poly1305 (see envelope.go). IdentityFileStore and SessionFileStore
// keep them as files under the configured home directory.
//
// All types are safe for concurrent use.
package store
