package prekey

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"e2ee/internal/crypto"
	"e2ee/internal/domain"
	"e2ee/internal/services/identity"
	"e2ee/internal/store"
)

const testPassphrase = "Tr0ub4dor&3-horse"

func newService(t *testing.T) (*Service, *store.PreKeyStore, *crypto.Provider) {
	t.Helper()
	p := crypto.NewProvider()
	ids := store.NewIdentityFileStore(t.TempDir(), store.KDFParams{Algorithm: store.KDFScrypt, N: 1 << 10, R: 8, P: 1})
	_, _, err := identity.New(ids, p, zap.NewNop()).GenerateIdentity(testPassphrase, crypto.DefaultSuiteID)
	require.NoError(t, err)
	ps := store.NewPreKeyStore(store.NewMemory(), store.NewMemory())
	return New(ids, ps, p, zap.NewNop()), ps, p
}

func TestGenerateAssignsSequentialIDs(t *testing.T) {
	s, ps, _ := newService(t)

	spk, otks, err := s.GenerateAndStorePreKeys(testPassphrase, 3)
	require.NoError(t, err)
	require.Equal(t, domain.SignedPreKeyID(1), spk)
	require.Equal(t, []domain.OneTimePreKeyID{1, 2, 3}, otks)

	spk, otks, err = s.GenerateAndStorePreKeys(testPassphrase, 2)
	require.NoError(t, err)
	require.Equal(t, domain.SignedPreKeyID(2), spk)
	require.Equal(t, []domain.OneTimePreKeyID{4, 5}, otks)

	n, err := ps.CountOneTimePreKeys()
	require.NoError(t, err)
	require.Equal(t, 5, n)
}

func TestBundleIsSignedAndNamesOldestOneTimeKey(t *testing.T) {
	s, ps, p := newService(t)
	_, _, err := s.GenerateAndStorePreKeys(testPassphrase, 2)
	require.NoError(t, err)
	_, _, err = s.GenerateAndStorePreKeys(testPassphrase, 0)
	require.NoError(t, err)

	b, err := s.LoadPreKeyBundle(testPassphrase, "bob")
	require.NoError(t, err)
	require.Equal(t, domain.Username("bob"), b.Username)
	require.Equal(t, domain.SignedPreKeyID(2), b.SignedPreKeyID)
	require.True(t, b.HasOneTimePreKey())
	require.Equal(t, domain.OneTimePreKeyID(1), b.OneTimePreKeyID)

	suite, err := p.Suite(b.Suite)
	require.NoError(t, err)
	vk := crypto.NewVerifyingKey(b.Suite.Signature, b.SigningKey)
	require.True(t, suite.Verify(vk, b.SignedPreKey, b.SignedPreKeySignature))

	// Once the one-time keys are consumed the bundle carries the signed
	// prekey only.
	for _, id := range []domain.OneTimePreKeyID{1, 2} {
		_, ok, err := ps.TakeOneTimePreKey(id)
		require.NoError(t, err)
		require.True(t, ok)
	}
	b, err = s.LoadPreKeyBundle(testPassphrase, "bob")
	require.NoError(t, err)
	require.False(t, b.HasOneTimePreKey())
	require.Zero(t, b.OneTimePreKeyID)
}

func TestBundleWithoutSignedPreKey(t *testing.T) {
	s, _, _ := newService(t)
	_, err := s.LoadPreKeyBundle(testPassphrase, "bob")
	require.ErrorIs(t, err, domain.ErrSignedPreKeyNotFound)
}

func TestGenerateRejectsNegativeCount(t *testing.T) {
	s, _, _ := newService(t)
	_, _, err := s.GenerateAndStorePreKeys(testPassphrase, -1)
	require.Error(t, err)
}
