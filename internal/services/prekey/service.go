package prekey

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"e2ee/internal/crypto"
	"e2ee/internal/domain"
)

// Store is the prekey storage the service needs: the domain store plus id
// allocation.
type Store interface {
	domain.PreKeyStore
	NextSignedPreKeyID() (domain.SignedPreKeyID, error)
	NextOneTimePreKeyID() (domain.OneTimePreKeyID, error)
}

// Service manages prekey pairs and builds the public bundle.
type Service struct {
	ids      domain.IdentityStore
	ps       Store
	provider *crypto.Provider
	logger   *zap.Logger
}

func New(ids domain.IdentityStore, ps Store, p *crypto.Provider, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{ids: ids, ps: ps, provider: p, logger: logger.With(zap.Namespace("prekey"))}
}

// GenerateAndStorePreKeys creates a new signed prekey, which becomes current,
// and count one-time prekeys. Ids continue from the highest stored ones.
func (s *Service) GenerateAndStorePreKeys(
	passphrase string,
	count int,
) (domain.SignedPreKeyID, []domain.OneTimePreKeyID, error) {
	if count < 0 {
		return 0, nil, errors.Errorf("negative one-time prekey count %d", count)
	}
	id, err := s.ids.LoadIdentity(passphrase)
	if err != nil {
		return 0, nil, err
	}
	suite, err := s.provider.Suite(id.Suite)
	if err != nil {
		return 0, nil, err
	}

	// Signed prekey
	spkID, err := s.ps.NextSignedPreKeyID()
	if err != nil {
		return 0, nil, err
	}
	spk, err := suite.GenerateKey()
	if err != nil {
		return 0, nil, err
	}
	sig, err := suite.Sign(id.Signing, spk.PublicKey().Bytes())
	if err != nil {
		return 0, nil, errors.Wrap(err, "sign prekey")
	}
	err = s.ps.SaveSignedPreKey(domain.SignedPreKey{
		ID:         spkID,
		Key:        spk,
		Signature:  sig,
		CreatedUTC: time.Now().UTC().Unix(),
	})
	if err != nil {
		return 0, nil, err
	}

	// One-time prekeys
	next, err := s.ps.NextOneTimePreKeyID()
	if err != nil {
		return 0, nil, err
	}
	keys := make([]domain.OneTimePreKey, 0, count)
	ids := make([]domain.OneTimePreKeyID, 0, count)
	for i := 0; i < count; i++ {
		k, err := suite.GenerateKey()
		if err != nil {
			return 0, nil, err
		}
		keys = append(keys, domain.OneTimePreKey{ID: next, Key: k})
		ids = append(ids, next)
		next++
	}
	if err := s.ps.SaveOneTimePreKeys(keys); err != nil {
		return 0, nil, err
	}

	s.logger.Info("prekeys generated",
		zap.Uint32("signedPreKeyID", uint32(spkID)),
		zap.Int("oneTimePreKeys", count))
	return spkID, ids, nil
}

// LoadPreKeyBundle builds the public bundle from the current signed prekey
// and the oldest unused one-time prekey, if any.
func (s *Service) LoadPreKeyBundle(passphrase string, username domain.Username) (domain.PreKeyBundle, error) {
	id, err := s.ids.LoadIdentity(passphrase)
	if err != nil {
		return domain.PreKeyBundle{}, err
	}

	spk, ok, err := s.ps.CurrentSignedPreKey()
	if err != nil {
		return domain.PreKeyBundle{}, err
	}
	if !ok {
		return domain.PreKeyBundle{}, errors.Wrap(domain.ErrSignedPreKeyNotFound, "no signed prekey generated")
	}

	pub := id.Public()
	b := domain.PreKeyBundle{
		Username:              username,
		Suite:                 id.Suite,
		IdentityKey:           pub.IdentityKey,
		SigningKey:            pub.SigningKey,
		SignedPreKeyID:        spk.ID,
		SignedPreKey:          spk.Key.PublicKey().Bytes(),
		SignedPreKeySignature: spk.Signature,
	}

	otk, ok, err := s.ps.PeekOneTimePreKey()
	if err != nil {
		return domain.PreKeyBundle{}, err
	}
	if ok {
		b.OneTimePreKeyID = otk.ID
		b.OneTimePreKey = otk.Key.PublicKey().Bytes()
	} else {
		s.logger.Warn("no one-time prekeys left, bundle carries signed prekey only")
	}
	return b, nil
}

// Compile-time assertion that Service implements domain.PreKeyService.
var _ domain.PreKeyService = (*Service)(nil)
