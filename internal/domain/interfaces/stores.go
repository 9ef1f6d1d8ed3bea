package interfaces

import domaintypes "e2ee/internal/domain/types"

// KeyStorage is a flat id -> value store for encoded prekey records.
// Implementations must make Take an atomic get-and-delete: two concurrent
// Takes of one id return the value to exactly one caller.
type KeyStorage interface {
	// Put stores value under id, replacing any existing value.
	Put(id uint32, value []byte) error
	// Get returns the value stored under id, or ok == false.
	Get(id uint32) (value []byte, ok bool, err error)
	// Take returns the value stored under id and deletes it.
	Take(id uint32) (value []byte, ok bool, err error)
	// IDs lists the stored ids in ascending order.
	IDs() ([]uint32, error)
}

// IdentityStore persists the long-term identity, sealed by a passphrase.
type IdentityStore interface {
	SaveIdentity(passphrase string, id domaintypes.Identity) error
	LoadIdentity(passphrase string) (domaintypes.Identity, error)
}

// PreKeyStore manages signed and one-time prekeys.
type PreKeyStore interface {
	SaveSignedPreKey(spk domaintypes.SignedPreKey) error
	LoadSignedPreKey(id domaintypes.SignedPreKeyID) (domaintypes.SignedPreKey, bool, error)
	// CurrentSignedPreKey returns the most recently saved signed prekey.
	CurrentSignedPreKey() (domaintypes.SignedPreKey, bool, error)

	SaveOneTimePreKeys(keys []domaintypes.OneTimePreKey) error
	// PeekOneTimePreKey returns the oldest stored one-time prekey without
	// consuming it.
	PeekOneTimePreKey() (domaintypes.OneTimePreKey, bool, error)
	// LoadOneTimePreKey returns a one-time prekey without consuming it.
	LoadOneTimePreKey(id domaintypes.OneTimePreKeyID) (domaintypes.OneTimePreKey, bool, error)
	// TakeOneTimePreKey atomically removes and returns a one-time prekey.
	TakeOneTimePreKey(id domaintypes.OneTimePreKeyID) (domaintypes.OneTimePreKey, bool, error)
	CountOneTimePreKeys() (int, error)
}

// SessionStore persists per-peer session records, sealed by a passphrase.
type SessionStore interface {
	SaveSession(passphrase string, rec domaintypes.SessionRecord) error
	LoadSession(passphrase string, peer domaintypes.Username) (domaintypes.SessionRecord, bool, error)
	ListPeers() ([]domaintypes.Username, error)
	// DeleteSession removes the session with peer, if any.
	DeleteSession(peer domaintypes.Username) error
}
