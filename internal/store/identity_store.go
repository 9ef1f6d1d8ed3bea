package store

import (
	"encoding/json"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"e2ee/internal/crypto"
	"e2ee/internal/domain"
)

const idFilename = "identity.json.enc"

// identityRecord is the sealed plaintext of the identity file.
type identityRecord struct {
	Suite      crypto.SuiteID `json:"suite"`
	Agreement  []byte         `json:"agreement_pkcs8"`
	Signing    []byte         `json:"signing_pkcs8"`
	CreatedUTC int64          `json:"created_utc"`
}

// IdentityFileStore persists the local identity to disk.
type IdentityFileStore struct {
	dir    string
	params KDFParams
	mu     sync.Mutex
}

// NewIdentityFileStore returns an IdentityFileStore rooted at dir.
func NewIdentityFileStore(dir string, params KDFParams) *IdentityFileStore {
	return &IdentityFileStore{dir: dir, params: params}
}

// SaveIdentity writes the encrypted identity to disk.
func (s *IdentityFileStore) SaveIdentity(passphrase string, id domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := identityRecord{Suite: id.Suite, CreatedUTC: id.CreatedUTC}
	var err error
	if rec.Agreement, err = crypto.MarshalPKCS8(id.Agreement); err != nil {
		return errors.Wrap(err, "encode identity agreement key")
	}
	defer crypto.Wipe(rec.Agreement)
	if rec.Signing, err = crypto.MarshalSigningKey(id.Signing); err != nil {
		return errors.Wrap(err, "encode identity signing key")
	}
	defer crypto.Wipe(rec.Signing)

	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	defer crypto.Wipe(raw)
	ct, err := seal(passphrase, raw, idFilename, s.params)
	if err != nil {
		return err
	}
	return writeFile(filepath.Join(s.dir, idFilename), ct, 0o600)
}

// LoadIdentity reads and decrypts the identity.
func (s *IdentityFileStore) LoadIdentity(passphrase string) (domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := readFile(filepath.Join(s.dir, idFilename))
	if err != nil {
		return domain.Identity{}, err
	}
	if b == nil {
		return domain.Identity{}, domain.ErrIdentityNotFound
	}
	pt, err := open(passphrase, b, idFilename)
	if err != nil {
		return domain.Identity{}, err
	}
	defer crypto.Wipe(pt)

	var rec identityRecord
	if err := json.Unmarshal(pt, &rec); err != nil {
		return domain.Identity{}, errors.Wrap(err, "decode identity")
	}
	defer crypto.Wipe(rec.Agreement, rec.Signing)
	ik, err := crypto.ParsePKCS8(rec.Agreement)
	if err != nil {
		return domain.Identity{}, errors.Wrap(err, "identity agreement key")
	}
	if ik.Curve() != rec.Suite.Curve {
		return domain.Identity{}, errors.Wrapf(domain.ErrKeyRejected, "identity key on %s, suite %s", ik.Curve(), rec.Suite)
	}
	sk, err := crypto.ParseSigningKey(rec.Suite.Signature, rec.Signing)
	if err != nil {
		return domain.Identity{}, errors.Wrap(err, "identity signing key")
	}
	return domain.Identity{Suite: rec.Suite, Agreement: ik, Signing: sk, CreatedUTC: rec.CreatedUTC}, nil
}

// Exists reports whether an identity file is present.
func (s *IdentityFileStore) Exists() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := readFile(filepath.Join(s.dir, idFilename))
	return b != nil, err
}

// Compile-time assertion that IdentityFileStore implements domain.IdentityStore.
var _ domain.IdentityStore = (*IdentityFileStore)(nil)
