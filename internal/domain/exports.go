package domain

import (
	interfaces "e2ee/internal/domain/interfaces"
	types "e2ee/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	Username         = types.Username
	Fingerprint      = types.Fingerprint
	SignedPreKeyID   = types.SignedPreKeyID
	OneTimePreKeyID  = types.OneTimePreKeyID
	SessionID        = types.SessionID
	RootKey          = types.RootKey
	ChainKey         = types.ChainKey
	MessageKey       = types.MessageKey
	Identity         = types.Identity
	IdentityPublic   = types.IdentityPublic
	SignedPreKey     = types.SignedPreKey
	OneTimePreKey    = types.OneTimePreKey
	PreKeyBundle     = types.PreKeyBundle
	InitialMessage   = types.InitialMessage
	Envelope         = types.Envelope
	DecryptedMessage = types.DecryptedMessage
	Role             = types.Role
	SessionRecord    = types.SessionRecord
)

const (
	KeySize       = types.KeySize
	RoleInitiator = types.RoleInitiator
	RoleResponder = types.RoleResponder
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	KeyStorage      = interfaces.KeyStorage
	IdentityStore   = interfaces.IdentityStore
	PreKeyStore     = interfaces.PreKeyStore
	SessionStore    = interfaces.SessionStore
	IdentityService = interfaces.IdentityService
	PreKeyService   = interfaces.PreKeyService
	SessionService  = interfaces.SessionService
	MessageService  = interfaces.MessageService
)

// Error re-exports.
var (
	ErrKeyRejected            = types.ErrKeyRejected
	ErrUnsupportedCurve       = types.ErrUnsupportedCurve
	ErrUnsupportedAlgorithm   = types.ErrUnsupportedAlgorithm
	ErrHKDFLength             = types.ErrHKDFLength
	ErrSignatureInvalid       = types.ErrSignatureInvalid
	ErrOneTimePreKeyConsumed  = types.ErrOneTimePreKeyConsumed
	ErrSignedPreKeyNotFound   = types.ErrSignedPreKeyNotFound
	ErrDuplicateMessage       = types.ErrDuplicateMessage
	ErrMessageKeyExpired      = types.ErrMessageKeyExpired
	ErrTooManySkippedMessages = types.ErrTooManySkippedMessages
	ErrSendingChainNotReady   = types.ErrSendingChainNotReady
	ErrSessionStateCorrupt    = types.ErrSessionStateCorrupt
	ErrIdentityNotFound       = types.ErrIdentityNotFound
	ErrSessionNotFound        = types.ErrSessionNotFound
	ErrPeerIdentityChanged    = types.ErrPeerIdentityChanged
)
