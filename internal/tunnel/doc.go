// Package tunnel seals application payloads with the per-message keys of a
// ratchet session and frames them for transport.
//
// # Frame format
//
//	u8 version | u16 keyLen | ratchet key | u32 PN | u32 N | ciphertext
//
// Integers are big-endian. The ciphertext is ChaCha20-Poly1305 under the
// message key, with associated data AD || ratchet key || PN || N, where AD is
// the handshake's associated data.
//
// # Delivery modes
//
// Ordered tunnels accept only the next expected message and reject anything
// else with ErrOutOfOrder without touching the session. Datagram tunnels
// accept messages in any order, within the session's skipped-key bounds.
//
// A Tunnel serialises its own calls; it should be the only user of its
// session.
package tunnel
