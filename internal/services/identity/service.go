package identity

import (
	"fmt"
	"time"
	"unicode"

	"go.uber.org/zap"

	"e2ee/internal/crypto"
	"e2ee/internal/domain"
)

const (
	// minPassphraseLength defines the minimum number of characters required for a passphrase.
	minPassphraseLength = 12
)

var (
	// ErrWeakPassphrase is returned when the passphrase fails the strength policy.
	ErrWeakPassphrase = fmt.Errorf(
		"passphrase is too weak (must be at least %d characters and include upper, lower, "+
			"number, and symbol)",
		minPassphraseLength,
	)
)

// Service manages identity key creation and access using a backing store.
//
// The identity contains:
//   - an agreement key pair on the suite's curve (X3DH).
//   - a signing key pair for the suite's scheme (signs the signed prekey).
type Service struct {
	store    domain.IdentityStore
	provider *crypto.Provider
	logger   *zap.Logger
}

// New returns an identity service backed by the given store.
func New(s domain.IdentityStore, p *crypto.Provider, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: s, provider: p, logger: logger.With(zap.Namespace("identity"))}
}

// GenerateIdentity creates a new identity for suite, saves it encrypted with
// the passphrase, and returns the identity plus its fingerprint.
func (s *Service) GenerateIdentity(
	passphrase string,
	suiteID crypto.SuiteID,
) (domain.Identity, domain.Fingerprint, error) {
	if !isSecurePassphrase(passphrase) {
		return domain.Identity{}, "", ErrWeakPassphrase
	}
	suite, err := s.provider.Suite(suiteID)
	if err != nil {
		return domain.Identity{}, "", err
	}

	agreement, err := suite.GenerateKey()
	if err != nil {
		return domain.Identity{}, "", err
	}
	signing, err := suite.GenerateSigningKey()
	if err != nil {
		return domain.Identity{}, "", err
	}

	id := domain.Identity{
		Suite:      suiteID,
		Agreement:  agreement,
		Signing:    signing,
		CreatedUTC: time.Now().UTC().Unix(),
	}
	if err := s.store.SaveIdentity(passphrase, id); err != nil {
		return domain.Identity{}, "", err
	}
	fp := fingerprint(suite, id)
	s.logger.Info("identity generated", zap.Stringer("suite", suiteID), zap.Stringer("fingerprint", fp))
	return id, fp, nil
}

// LoadIdentity decrypts and returns the local identity.
func (s *Service) LoadIdentity(passphrase string) (domain.Identity, error) {
	return s.store.LoadIdentity(passphrase)
}

// FingerprintIdentity returns a short fingerprint of the local identity and
// signing public keys.
func (s *Service) FingerprintIdentity(passphrase string) (domain.Fingerprint, error) {
	id, err := s.store.LoadIdentity(passphrase)
	if err != nil {
		return "", err
	}
	suite, err := s.provider.Suite(id.Suite)
	if err != nil {
		return "", err
	}
	return fingerprint(suite, id), nil
}

func fingerprint(suite *crypto.Suite, id domain.Identity) domain.Fingerprint {
	return id.Public().Fingerprint(suite)
}

// isSecurePassphrase enforces a basic strength policy.
func isSecurePassphrase(passphrase string) bool {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	if len(passphrase) < minPassphraseLength {
		return false
	}
	for _, r := range passphrase {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSymbol
}

// Compile-time assertion that Service implements domain.IdentityService.
var _ domain.IdentityService = (*Service)(nil)
