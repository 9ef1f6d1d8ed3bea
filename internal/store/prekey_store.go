package store

import (
	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"

	"e2ee/internal/crypto"
	"e2ee/internal/domain"
)

// Internal record types. Private keys are PKCS #8 DER, which names its curve.
type signedPreKeyRecord struct {
	Key        []byte `cbor:"1,keyasint"`
	Signature  []byte `cbor:"2,keyasint"`
	CreatedUTC int64  `cbor:"3,keyasint"`
}

type oneTimePreKeyRecord struct {
	Key []byte `cbor:"1,keyasint"`
}

// PreKeyStore keeps signed and one-time prekeys in two KeyStorages.
type PreKeyStore struct {
	signed  domain.KeyStorage
	oneTime domain.KeyStorage
}

// NewPreKeyStore returns a PreKeyStore over the given storages.
func NewPreKeyStore(signed, oneTime domain.KeyStorage) *PreKeyStore {
	return &PreKeyStore{signed: signed, oneTime: oneTime}
}

// SaveSignedPreKey stores a signed prekey by id.
func (s *PreKeyStore) SaveSignedPreKey(spk domain.SignedPreKey) error {
	der, err := crypto.MarshalPKCS8(spk.Key)
	if err != nil {
		return errors.Wrap(err, "encode signed prekey")
	}
	defer crypto.Wipe(der)
	b, err := cbor.Marshal(signedPreKeyRecord{Key: der, Signature: spk.Signature, CreatedUTC: spk.CreatedUTC})
	if err != nil {
		return err
	}
	defer crypto.Wipe(b)
	return s.signed.Put(uint32(spk.ID), b)
}

// LoadSignedPreKey retrieves a signed prekey by id.
func (s *PreKeyStore) LoadSignedPreKey(id domain.SignedPreKeyID) (domain.SignedPreKey, bool, error) {
	b, ok, err := s.signed.Get(uint32(id))
	if err != nil || !ok {
		return domain.SignedPreKey{}, false, err
	}
	defer crypto.Wipe(b)
	var rec signedPreKeyRecord
	if err := cbor.Unmarshal(b, &rec); err != nil {
		return domain.SignedPreKey{}, false, errors.Wrapf(err, "decode signed prekey %d", id)
	}
	defer crypto.Wipe(rec.Key)
	k, err := crypto.ParsePKCS8(rec.Key)
	if err != nil {
		return domain.SignedPreKey{}, false, errors.Wrapf(err, "signed prekey %d", id)
	}
	return domain.SignedPreKey{ID: id, Key: k, Signature: rec.Signature, CreatedUTC: rec.CreatedUTC}, true, nil
}

// CurrentSignedPreKey returns the signed prekey with the highest id.
func (s *PreKeyStore) CurrentSignedPreKey() (domain.SignedPreKey, bool, error) {
	ids, err := s.signed.IDs()
	if err != nil || len(ids) == 0 {
		return domain.SignedPreKey{}, false, err
	}
	return s.LoadSignedPreKey(domain.SignedPreKeyID(ids[len(ids)-1]))
}

// SaveOneTimePreKeys stores the provided one-time prekeys.
func (s *PreKeyStore) SaveOneTimePreKeys(keys []domain.OneTimePreKey) error {
	for _, k := range keys {
		der, err := crypto.MarshalPKCS8(k.Key)
		if err != nil {
			return errors.Wrapf(err, "encode one-time prekey %d", k.ID)
		}
		b, err := cbor.Marshal(oneTimePreKeyRecord{Key: der})
		crypto.Wipe(der)
		if err != nil {
			return err
		}
		err = s.oneTime.Put(uint32(k.ID), b)
		crypto.Wipe(b)
		if err != nil {
			return err
		}
	}
	return nil
}

// PeekOneTimePreKey returns the lowest-id one-time prekey without removing
// it.
func (s *PreKeyStore) PeekOneTimePreKey() (domain.OneTimePreKey, bool, error) {
	ids, err := s.oneTime.IDs()
	if err != nil || len(ids) == 0 {
		return domain.OneTimePreKey{}, false, err
	}
	b, ok, err := s.oneTime.Get(ids[0])
	if err != nil || !ok {
		return domain.OneTimePreKey{}, false, err
	}
	return decodeOneTime(domain.OneTimePreKeyID(ids[0]), b)
}

// LoadOneTimePreKey returns the one-time prekey id without removing it.
func (s *PreKeyStore) LoadOneTimePreKey(id domain.OneTimePreKeyID) (domain.OneTimePreKey, bool, error) {
	b, ok, err := s.oneTime.Get(uint32(id))
	if err != nil || !ok {
		return domain.OneTimePreKey{}, false, err
	}
	return decodeOneTime(id, b)
}

// TakeOneTimePreKey atomically removes and returns a one-time prekey.
func (s *PreKeyStore) TakeOneTimePreKey(id domain.OneTimePreKeyID) (domain.OneTimePreKey, bool, error) {
	b, ok, err := s.oneTime.Take(uint32(id))
	if err != nil || !ok {
		return domain.OneTimePreKey{}, false, err
	}
	return decodeOneTime(id, b)
}

// CountOneTimePreKeys reports how many one-time prekeys remain.
func (s *PreKeyStore) CountOneTimePreKeys() (int, error) {
	ids, err := s.oneTime.IDs()
	return len(ids), err
}

// NextOneTimePreKeyID returns one past the highest stored id, starting at 1.
func (s *PreKeyStore) NextOneTimePreKeyID() (domain.OneTimePreKeyID, error) {
	ids, err := s.oneTime.IDs()
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 1, nil
	}
	return domain.OneTimePreKeyID(ids[len(ids)-1] + 1), nil
}

// NextSignedPreKeyID returns one past the highest stored id, starting at 1.
func (s *PreKeyStore) NextSignedPreKeyID() (domain.SignedPreKeyID, error) {
	ids, err := s.signed.IDs()
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 1, nil
	}
	return domain.SignedPreKeyID(ids[len(ids)-1] + 1), nil
}

func decodeOneTime(id domain.OneTimePreKeyID, b []byte) (domain.OneTimePreKey, bool, error) {
	defer crypto.Wipe(b)
	var rec oneTimePreKeyRecord
	if err := cbor.Unmarshal(b, &rec); err != nil {
		return domain.OneTimePreKey{}, false, errors.Wrapf(err, "decode one-time prekey %d", id)
	}
	defer crypto.Wipe(rec.Key)
	k, err := crypto.ParsePKCS8(rec.Key)
	if err != nil {
		return domain.OneTimePreKey{}, false, errors.Wrapf(err, "one-time prekey %d", id)
	}
	return domain.OneTimePreKey{ID: id, Key: k}, true, nil
}

// Compile-time assertion that PreKeyStore implements domain.PreKeyStore.
var _ domain.PreKeyStore = (*PreKeyStore)(nil)
