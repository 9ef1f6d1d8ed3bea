package types

import "e2ee/internal/crypto"

// SignedPreKey is a medium-term agreement key pair signed by the identity
// signing key.
type SignedPreKey struct {
	ID         SignedPreKeyID
	Key        *crypto.PrivateKey
	Signature  []byte
	CreatedUTC int64
}

// OneTimePreKey is an agreement key pair consumed by at most one handshake.
type OneTimePreKey struct {
	ID  OneTimePreKeyID
	Key *crypto.PrivateKey
}

// PreKeyBundle is what a responder publishes so that initiators can start a
// handshake without the responder being online. Keys are raw encodings.
type PreKeyBundle struct {
	Username              Username        `json:"username,omitempty"`
	Suite                 crypto.SuiteID  `json:"suite"`
	IdentityKey           []byte          `json:"identity_key"`
	SigningKey            []byte          `json:"signing_key"`
	SignedPreKeyID        SignedPreKeyID  `json:"signed_pre_key_id"`
	SignedPreKey          []byte          `json:"signed_pre_key"`
	SignedPreKeySignature []byte          `json:"signed_pre_key_signature"`
	OneTimePreKeyID       OneTimePreKeyID `json:"one_time_pre_key_id,omitempty"`
	OneTimePreKey         []byte          `json:"one_time_pre_key,omitempty"`
}

// HasOneTimePreKey reports whether the bundle carries a one-time prekey.
func (b PreKeyBundle) HasOneTimePreKey() bool { return len(b.OneTimePreKey) > 0 }

// InitialMessage carries the initiator's handshake parameters to the
// responder, alongside the first ciphertext.
type InitialMessage struct {
	Suite           crypto.SuiteID  `json:"suite"`
	IdentityKey     []byte          `json:"identity_key"`
	SigningKey      []byte          `json:"signing_key,omitempty"`
	EphemeralKey    []byte          `json:"ephemeral_key"`
	SignedPreKeyID  SignedPreKeyID  `json:"signed_pre_key_id"`
	OneTimePreKeyID OneTimePreKeyID `json:"one_time_pre_key_id,omitempty"`
	HasOneTimeKey   bool            `json:"has_one_time_pre_key,omitempty"`
}
