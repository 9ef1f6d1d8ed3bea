// Package ratchet implements the Double Ratchet following Signal's design.
//
// A Session holds a root key, a sending chain and a receiving chain. Encrypt
// advances the sending chain and hands out one message key; Decrypt maps a
// header to its message key, performing a DH-ratchet step when the header
// carries a new ratchet public key. Sealing payloads with those keys is left
// to the caller (see the tunnel package).
//
// # Chains
//
//	KDF_RK(rk, dh) = HKDF(salt=rk, ikm=dh, info="e2ee ratchet v1", 64) -> (rk', ck)
//	KDF_CK(ck)     = HMAC(ck, 0x01) -> mk, HMAC(ck, 0x02) -> ck'
//
// # Skipped keys
//
// Keys for messages that have not arrived yet are cached per (ratchet key,
// counter) and deleted on use. The cache is bounded by Limits: once full, the
// oldest generation and then its oldest counter are evicted, and a later
// message needing an evicted key fails with ErrMessageKeyExpired. A single
// header may force at most Limits.MaxSkip derivations.
//
// # Persistence
//
// MarshalBinary and Unmarshal encode the whole session as versioned CBOR.
// Unmarshal validates the result and fails with ErrSessionStateCorrupt rather
// than returning a partially restored session.
//
// Concurrency: Session is NOT safe for concurrent use. Callers must serialise
// access per conversation.
package ratchet
