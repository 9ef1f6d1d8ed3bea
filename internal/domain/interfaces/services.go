package interfaces

import (
	"context"

	"e2ee/internal/crypto"
	domaintypes "e2ee/internal/domain/types"
)

// IdentityService creates, retrieves, and inspects the identity keys.
type IdentityService interface {
	GenerateIdentity(passphrase string, suite crypto.SuiteID) (
		domaintypes.Identity,
		domaintypes.Fingerprint,
		error,
	)
	LoadIdentity(passphrase string) (domaintypes.Identity, error)
	FingerprintIdentity(passphrase string) (domaintypes.Fingerprint, error)
}

// PreKeyService generates prekeys and assembles bundles.
type PreKeyService interface {
	GenerateAndStorePreKeys(passphrase string, count int) (
		domaintypes.SignedPreKeyID,
		[]domaintypes.OneTimePreKeyID,
		error,
	)
	LoadPreKeyBundle(passphrase string, username domaintypes.Username) (domaintypes.PreKeyBundle, error)
}

// SessionService establishes and loads ratchet sessions.
type SessionService interface {
	InitiateSession(
		ctx context.Context,
		passphrase string,
		peer domaintypes.Username,
		bundle domaintypes.PreKeyBundle,
	) (domaintypes.SessionRecord, error)
	AcceptSession(
		ctx context.Context,
		passphrase string,
		peer domaintypes.Username,
		msg domaintypes.InitialMessage,
	) (domaintypes.SessionRecord, error)
	GetSession(passphrase string, peer domaintypes.Username) (domaintypes.SessionRecord, bool, error)
}

// MessageService seals and opens messages over stored sessions.
type MessageService interface {
	Seal(
		ctx context.Context,
		passphrase string,
		from domaintypes.Username,
		to domaintypes.Username,
		plaintext []byte,
	) (domaintypes.Envelope, error)
	Open(
		ctx context.Context,
		passphrase string,
		env domaintypes.Envelope,
	) (domaintypes.DecryptedMessage, error)
}
