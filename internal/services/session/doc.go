// Package session establishes and tracks ratchet sessions.
//
// It performs the initiator/responder X3DH handshake, seeds a Double Ratchet
// from the shared key, persists the serialised tunnel in a session record,
// and exposes lookups for the message service.
package session
