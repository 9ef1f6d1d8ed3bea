// Package message seals and opens messages for a peer.
//
// Every call resumes the peer's tunnel from its session record, advances the
// ratchet by one message, and writes the new state back before returning.
package message
