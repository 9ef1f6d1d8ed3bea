package identity

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"e2ee/internal/crypto"
	"e2ee/internal/domain"
	"e2ee/internal/store"
)

const testPassphrase = "Tr0ub4dor&3-horse"

func newService(t *testing.T) *Service {
	t.Helper()
	st := store.NewIdentityFileStore(t.TempDir(), store.KDFParams{Algorithm: store.KDFScrypt, N: 1 << 10, R: 8, P: 1})
	return New(st, crypto.NewProvider(), zap.NewNop())
}

func TestGenerateAndLoad(t *testing.T) {
	s := newService(t)

	id, fp, err := s.GenerateIdentity(testPassphrase, crypto.DefaultSuiteID)
	require.NoError(t, err)
	require.NotEmpty(t, fp)
	require.Equal(t, crypto.DefaultSuiteID, id.Suite)

	loaded, err := s.LoadIdentity(testPassphrase)
	require.NoError(t, err)
	require.Equal(t, id.Public(), loaded.Public())

	again, err := s.FingerprintIdentity(testPassphrase)
	require.NoError(t, err)
	require.Equal(t, fp, again)
}

func TestGenerateNISTSuite(t *testing.T) {
	s := newService(t)
	suite := crypto.SuiteID{
		Curve:     crypto.CurveP256,
		Signature: crypto.SignatureECDSAP256SHA256,
		KDF:       crypto.HKDFSHA256,
		Hash:      crypto.HashSHA256,
	}
	id, _, err := s.GenerateIdentity(testPassphrase, suite)
	require.NoError(t, err)
	require.Equal(t, crypto.CurveP256, id.Agreement.Curve())
	require.Equal(t, crypto.SignatureECDSAP256SHA256, id.Signing.Scheme())
}

func TestWeakPassphrase(t *testing.T) {
	s := newService(t)
	for _, pw := range []string{"short", "alllowercaseletters", "NoDigitsOrSymbols", "N0Symb0lsHere1"} {
		_, _, err := s.GenerateIdentity(pw, crypto.DefaultSuiteID)
		require.ErrorIs(t, err, ErrWeakPassphrase, pw)
	}
}

func TestUnsupportedSuite(t *testing.T) {
	s := newService(t)
	suite := crypto.DefaultSuiteID
	suite.Curve = crypto.CurveX448
	_, _, err := s.GenerateIdentity(testPassphrase, suite)
	require.ErrorIs(t, err, domain.ErrUnsupportedCurve)
}

func TestLoadMissingIdentity(t *testing.T) {
	s := newService(t)
	_, err := s.FingerprintIdentity(testPassphrase)
	require.ErrorIs(t, err, domain.ErrIdentityNotFound)
}
