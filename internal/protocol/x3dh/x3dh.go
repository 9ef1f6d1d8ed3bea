package x3dh

import (
	"github.com/pkg/errors"

	"e2ee/internal/crypto"
	"e2ee/internal/domain"
)

// Info binds the shared key to this protocol.
const Info = "e2ee x3dh v1"

// PreKeys is the responder's view of its prekey storage.
type PreKeys interface {
	LoadSignedPreKey(id domain.SignedPreKeyID) (domain.SignedPreKey, bool, error)
	TakeOneTimePreKey(id domain.OneTimePreKeyID) (domain.OneTimePreKey, bool, error)
}

// Result is the outcome of a successful handshake.
type Result struct {
	// SharedKey is the 32-byte secret that seeds the ratchet root key.
	SharedKey []byte
	// AssociatedData is IK_A.public || IK_B.public.
	AssociatedData []byte
	Suite          *crypto.Suite
	PeerIdentity   domain.IdentityPublic

	// Initiator side.
	Initial        *domain.InitialMessage
	PeerRatchetKey crypto.PublicKey

	// Responder side: the signed prekey pair becomes the first ratchet key.
	RatchetKey *crypto.PrivateKey
}

// Wipe zeroes the shared key.
func (r *Result) Wipe() { crypto.Wipe(r.SharedKey) }

// Initiate runs the initiator half against a responder's bundle.
func Initiate(cfg *Config, id domain.Identity, bundle domain.PreKeyBundle) (*Result, error) {
	suite, err := cfg.Suite(bundle.Suite)
	if err != nil {
		return nil, err
	}
	if id.Suite.Curve != bundle.Suite.Curve {
		return nil, errors.Wrapf(crypto.ErrUnsupportedAlgorithm,
			"identity curve %s, bundle curve %s", id.Suite.Curve, bundle.Suite.Curve)
	}

	signing := crypto.NewVerifyingKey(bundle.Suite.Signature, bundle.SigningKey)
	if !suite.Verify(signing, bundle.SignedPreKey, bundle.SignedPreKeySignature) {
		return nil, domain.ErrSignatureInvalid
	}

	peerIK, err := suite.Agreement.ParsePublicKey(suite.PublicKey(bundle.IdentityKey))
	if err != nil {
		return nil, errors.Wrap(err, "peer identity key")
	}
	peerSPK, err := suite.Agreement.ParsePublicKey(suite.PublicKey(bundle.SignedPreKey))
	if err != nil {
		return nil, errors.Wrap(err, "peer signed prekey")
	}
	var peerOPK *crypto.PublicKey
	if bundle.HasOneTimePreKey() {
		k, err := suite.Agreement.ParsePublicKey(suite.PublicKey(bundle.OneTimePreKey))
		if err != nil {
			return nil, errors.Wrap(err, "peer one-time prekey")
		}
		peerOPK = &k
	}

	eph, err := suite.GenerateKey()
	if err != nil {
		return nil, errors.Wrap(err, "ephemeral key")
	}

	steps := []agreement{
		{id.Agreement, peerSPK}, // DH1
		{eph, peerIK},           // DH2
		{eph, peerSPK},          // DH3
	}
	if peerOPK != nil {
		steps = append(steps, agreement{eph, *peerOPK}) // DH4
	}
	transcript, err := agreeAll(suite, steps)
	if err != nil {
		return nil, err
	}
	sk, err := suite.KDF.Derive(nil, transcript, []byte(Info), domain.KeySize)
	crypto.Wipe(transcript)
	if err != nil {
		return nil, err
	}

	ourIK := id.Agreement.PublicKey().Bytes()
	initial := &domain.InitialMessage{
		Suite:          bundle.Suite,
		IdentityKey:    ourIK,
		SigningKey:     id.Signing.Public().Bytes(),
		EphemeralKey:   eph.PublicKey().Bytes(),
		SignedPreKeyID: bundle.SignedPreKeyID,
	}
	if peerOPK != nil {
		initial.OneTimePreKeyID = bundle.OneTimePreKeyID
		initial.HasOneTimeKey = true
	}

	return &Result{
		SharedKey:      sk,
		AssociatedData: associatedData(ourIK, bundle.IdentityKey),
		Suite:          suite,
		PeerIdentity: domain.IdentityPublic{
			Suite:       bundle.Suite,
			IdentityKey: bundle.IdentityKey,
			SigningKey:  bundle.SigningKey,
		},
		Initial:        initial,
		PeerRatchetKey: peerSPK,
	}, nil
}

// Respond runs the responder half for an initiator's first message. The
// one-time prekey, if named, is taken from prekeys only after every other
// check has passed.
func Respond(cfg *Config, id domain.Identity, prekeys PreKeys, msg domain.InitialMessage) (*Result, error) {
	if msg.Suite != id.Suite {
		return nil, errors.Wrapf(crypto.ErrUnsupportedAlgorithm,
			"initial message suite %s, identity suite %s", msg.Suite, id.Suite)
	}
	suite, err := cfg.Suite(msg.Suite)
	if err != nil {
		return nil, err
	}

	peerIK, err := suite.Agreement.ParsePublicKey(suite.PublicKey(msg.IdentityKey))
	if err != nil {
		return nil, errors.Wrap(err, "initiator identity key")
	}
	peerEK, err := suite.Agreement.ParsePublicKey(suite.PublicKey(msg.EphemeralKey))
	if err != nil {
		return nil, errors.Wrap(err, "initiator ephemeral key")
	}

	spk, ok, err := prekeys.LoadSignedPreKey(msg.SignedPreKeyID)
	if err != nil {
		return nil, errors.Wrap(err, "load signed prekey")
	}
	if !ok {
		return nil, errors.Wrapf(domain.ErrSignedPreKeyNotFound, "id %d", msg.SignedPreKeyID)
	}

	// The mandatory agreements run before anything is consumed.
	transcript, err := agreeAll(suite, []agreement{
		{spk.Key, peerIK},      // DH1
		{id.Agreement, peerEK}, // DH2
		{spk.Key, peerEK},      // DH3
	})
	if err != nil {
		return nil, err
	}
	defer func() { crypto.Wipe(transcript) }()

	if msg.HasOneTimeKey {
		opk, ok, err := prekeys.TakeOneTimePreKey(msg.OneTimePreKeyID)
		if err != nil {
			return nil, errors.Wrap(err, "take one-time prekey")
		}
		if !ok {
			return nil, errors.Wrapf(domain.ErrOneTimePreKeyConsumed, "id %d", msg.OneTimePreKeyID)
		}
		dh4, err := agreeAll(suite, []agreement{{opk.Key, peerEK}})
		if err != nil {
			return nil, err
		}
		transcript = append(transcript, dh4...)
		crypto.Wipe(dh4)
	}

	sk, err := suite.KDF.Derive(nil, transcript, []byte(Info), domain.KeySize)
	if err != nil {
		return nil, err
	}

	ourIK := id.Agreement.PublicKey().Bytes()
	return &Result{
		SharedKey:      sk,
		AssociatedData: associatedData(msg.IdentityKey, ourIK),
		Suite:          suite,
		PeerIdentity: domain.IdentityPublic{
			Suite:       msg.Suite,
			IdentityKey: msg.IdentityKey,
			SigningKey:  msg.SigningKey,
		},
		RatchetKey: spk.Key,
	}, nil
}

type agreement struct {
	priv *crypto.PrivateKey
	pub  crypto.PublicKey
}

// agreeAll concatenates the agreement outputs in order.
func agreeAll(suite *crypto.Suite, steps []agreement) ([]byte, error) {
	// Room for DH4 so a later append does not leave an unwiped copy behind.
	transcript := make([]byte, 0, 4*suite.Agreement.PublicKeySize())
	for _, s := range steps {
		out, err := suite.Agree(s.priv, s.pub)
		if err != nil {
			crypto.Wipe(transcript)
			return nil, err
		}
		transcript = append(transcript, out...)
		crypto.Wipe(out)
	}
	return transcript, nil
}

func associatedData(initiator, responder []byte) []byte {
	ad := make([]byte, 0, len(initiator)+len(responder))
	ad = append(ad, initiator...)
	return append(ad, responder...)
}
