package types

// Username names a local or remote peer.
type Username string

// String returns the string form of the username.
func (u Username) String() string { return string(u) }

// Fingerprint is a short identifier for public keys presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

// SignedPreKeyID identifies a signed prekey.
type SignedPreKeyID uint32

// OneTimePreKeyID identifies a one-time prekey.
type OneTimePreKeyID uint32

// SessionID identifies a stored session record (a UUID string).
type SessionID string

func (id SessionID) String() string { return string(id) }
