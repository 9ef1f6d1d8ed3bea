// Package x3dh implements the X3DH key agreement used to bootstrap a Double
// Ratchet session between two parties.
//
// # Overview
//
// X3DH lets an initiator derive a shared 32-byte key with a responder who has
// published a prekey bundle. The bundle contains:
//   - Identity agreement key and identity signing key
//   - Signed prekey and its signature by the identity signing key
//   - Optionally one one-time prekey
//   - The algorithm suite the keys belong to
//
// # Flows
//
// Initiator (Initiate):
//  1. Check the bundle's suite against the Config.
//  2. Verify the signed prekey signature.
//  3. Generate an ephemeral key pair.
//  4. Compute DH1 = IKa·SPKb, DH2 = EKa·IKb, DH3 = EKa·SPKb[, DH4 = EKa·OPKb].
//  5. HKDF (zero salt, info "e2ee x3dh v1") over DH1‖DH2‖DH3[‖DH4].
//  6. Return the shared key, AD = IKa‖IKb and the InitialMessage.
//
// Responder (Respond):
//  1. Look up the signed prekey named by the InitialMessage.
//  2. Compute DH1..DH3, then atomically take the one-time prekey, if named,
//     and compute DH4.
//  3. HKDF the same transcript to the identical key.
//
// # Errors
//
// ErrSignatureInvalid when the bundle signature fails, ErrUnsupportedAlgorithm
// when the suite is not accepted, ErrOneTimePreKeyConsumed when the named
// one-time prekey is gone, and ErrKeyRejected / ErrUnsupportedCurve from key
// agreement. A failed handshake creates no state.
package x3dh
