package types

import (
	"github.com/pkg/errors"

	"e2ee/internal/crypto"
)

// Errors from the crypto layer, re-exported so callers can match on a single
// package.
var (
	ErrKeyRejected          = crypto.ErrKeyRejected
	ErrUnsupportedCurve     = crypto.ErrUnsupportedCurve
	ErrUnsupportedAlgorithm = crypto.ErrUnsupportedAlgorithm
	ErrHKDFLength           = crypto.ErrHKDFLength
)

var (
	// ErrSignatureInvalid reports a bundle whose signed prekey signature does
	// not verify under the bundle's identity signing key.
	ErrSignatureInvalid = errors.New("signed prekey signature invalid")

	// ErrOneTimePreKeyConsumed reports a handshake naming a one-time prekey
	// that is no longer stored.
	ErrOneTimePreKeyConsumed = errors.New("one-time prekey already consumed")

	// ErrSignedPreKeyNotFound reports a handshake naming an unknown signed
	// prekey.
	ErrSignedPreKeyNotFound = errors.New("signed prekey not found")

	// ErrDuplicateMessage reports a message whose key was already used.
	ErrDuplicateMessage = errors.New("duplicate message")

	// ErrMessageKeyExpired reports a message whose skipped key was evicted.
	ErrMessageKeyExpired = errors.New("message key expired")

	// ErrTooManySkippedMessages reports a header that would force deriving
	// more keys than allowed in one step.
	ErrTooManySkippedMessages = errors.New("too many skipped messages")

	// ErrSendingChainNotReady reports Encrypt on a responder that has not
	// received a message yet.
	ErrSendingChainNotReady = errors.New("sending chain not ready")

	// ErrSessionStateCorrupt reports a serialised session that failed the
	// consistency check on load.
	ErrSessionStateCorrupt = errors.New("session state corrupt")

	// ErrPeerIdentityChanged reports a handshake from a known peer under
	// different identity keys than the stored session.
	ErrPeerIdentityChanged = errors.New("peer identity changed")

	ErrIdentityNotFound = errors.New("identity not found")
	ErrSessionNotFound  = errors.New("session not found")
)
