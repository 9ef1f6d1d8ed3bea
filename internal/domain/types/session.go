package types

import "e2ee/internal/crypto"

// Role records which side of the handshake a session was created on.
type Role string

const (
	RoleInitiator Role = "initiator"
	RoleResponder Role = "responder"
)

// SessionRecord is the persisted form of a session with one peer. State is
// the serialised ratchet session; it is sealed at rest by the store.
type SessionRecord struct {
	ID              SessionID       `json:"id"`
	Peer            Username        `json:"peer"`
	Role            Role            `json:"role"`
	Suite           crypto.SuiteID  `json:"suite"`
	PeerFingerprint Fingerprint     `json:"peer_fingerprint"`
	PeerSigningKey  []byte          `json:"peer_signing_key,omitempty"`
	CreatedUTC      int64           `json:"created_utc"`
	UpdatedUTC      int64           `json:"updated_utc"`
	Initial         *InitialMessage `json:"initial,omitempty"`
	Confirmed       bool            `json:"confirmed"`
	State           []byte          `json:"state"`
}
