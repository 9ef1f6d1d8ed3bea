package types

import "e2ee/internal/crypto"

// Identity holds the long-term key pairs: an agreement key on the suite's
// curve and a signing key for the suite's signature scheme.
type Identity struct {
	Suite      crypto.SuiteID
	Agreement  *crypto.PrivateKey
	Signing    *crypto.SigningKey
	CreatedUTC int64
}

// Public returns the shareable half of the identity.
func (id Identity) Public() IdentityPublic {
	return IdentityPublic{
		Suite:       id.Suite,
		IdentityKey: id.Agreement.PublicKey().Bytes(),
		SigningKey:  id.Signing.Public().Bytes(),
	}
}

// IdentityPublic is the wire form of a peer's identity keys.
type IdentityPublic struct {
	Suite       crypto.SuiteID `json:"suite"`
	IdentityKey []byte         `json:"identity_key"`
	SigningKey  []byte         `json:"signing_key"`
}

// Fingerprint covers both public keys, so a substituted signing key is as
// visible to users as a substituted identity key.
func (p IdentityPublic) Fingerprint(suite *crypto.Suite) Fingerprint {
	b := make([]byte, 0, len(p.IdentityKey)+len(p.SigningKey))
	b = append(b, p.IdentityKey...)
	return Fingerprint(suite.Fingerprint(append(b, p.SigningKey...)))
}
