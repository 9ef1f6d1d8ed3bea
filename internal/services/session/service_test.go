package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"e2ee/internal/crypto"
	"e2ee/internal/domain"
	"e2ee/internal/protocol/x3dh"
	"e2ee/internal/services/identity"
	"e2ee/internal/services/prekey"
	"e2ee/internal/services/session"
	"e2ee/internal/store"
)

const testPassphrase = "Tr0ub4dor&3-horse"

type peer struct {
	name     domain.Username
	stores   *store.Stores
	prekeys  *prekey.Service
	sessions *session.Service
	identity domain.Fingerprint
}

func newPeer(t *testing.T, name domain.Username) *peer {
	t.Helper()
	p := crypto.NewProvider()
	cfg, err := x3dh.NewConfigBuilder(p).WithRecommendedAlgorithms().Build()
	require.NoError(t, err)
	st, err := store.Open(store.BackendMemory, t.TempDir(), store.KDFParams{Algorithm: store.KDFScrypt, N: 1 << 10, R: 8, P: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	_, fp, err := identity.New(st.Identity, p, zap.NewNop()).GenerateIdentity(testPassphrase, crypto.DefaultSuiteID)
	require.NoError(t, err)
	pk := prekey.New(st.Identity, st.PreKeys, p, zap.NewNop())
	_, _, err = pk.GenerateAndStorePreKeys(testPassphrase, 2)
	require.NoError(t, err)

	return &peer{
		name:     name,
		stores:   st,
		prekeys:  pk,
		sessions: session.New(cfg, st.Identity, st.PreKeys, st.Sessions, session.DefaultOptions(), zap.NewNop()),
		identity: fp,
	}
}

func TestInitiateAndAccept(t *testing.T) {
	ctx := context.Background()
	alice, bob := newPeer(t, "alice"), newPeer(t, "bob")

	bundle, err := bob.prekeys.LoadPreKeyBundle(testPassphrase, bob.name)
	require.NoError(t, err)

	a, err := alice.sessions.InitiateSession(ctx, testPassphrase, bob.name, bundle)
	require.NoError(t, err)
	require.Equal(t, domain.RoleInitiator, a.Role)
	require.False(t, a.Confirmed)
	require.NotNil(t, a.Initial)
	require.True(t, a.Initial.HasOneTimeKey)
	require.Equal(t, bob.identity, a.PeerFingerprint)
	require.NotEmpty(t, a.ID)

	b, err := bob.sessions.AcceptSession(ctx, testPassphrase, alice.name, *a.Initial)
	require.NoError(t, err)
	require.Equal(t, domain.RoleResponder, b.Role)
	require.True(t, b.Confirmed)
	require.Equal(t, alice.identity, b.PeerFingerprint)
	require.NotEqual(t, a.ID, b.ID)

	stored, ok, err := bob.sessions.GetSession(testPassphrase, alice.name)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, b, stored)

	n, err := bob.stores.PreKeys.CountOneTimePreKeys()
	require.NoError(t, err)
	require.Equal(t, 1, n)

	// The same initial message cannot be accepted twice.
	_, err = bob.sessions.AcceptSession(ctx, testPassphrase, alice.name, *a.Initial)
	require.ErrorIs(t, err, domain.ErrOneTimePreKeyConsumed)
}

func TestForgedBundleStoresNothing(t *testing.T) {
	ctx := context.Background()
	alice, bob := newPeer(t, "alice"), newPeer(t, "bob")

	bundle, err := bob.prekeys.LoadPreKeyBundle(testPassphrase, bob.name)
	require.NoError(t, err)
	bundle.SignedPreKeySignature[0] ^= 0xff

	_, err = alice.sessions.InitiateSession(ctx, testPassphrase, bob.name, bundle)
	require.ErrorIs(t, err, domain.ErrSignatureInvalid)

	_, ok, err := alice.sessions.GetSession(testPassphrase, bob.name)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	alice, bob := newPeer(t, "alice"), newPeer(t, "bob")
	bundle, err := bob.prekeys.LoadPreKeyBundle(testPassphrase, bob.name)
	require.NoError(t, err)

	_, err = alice.sessions.InitiateSession(ctx, testPassphrase, bob.name, bundle)
	require.ErrorIs(t, err, context.Canceled)
}

func TestPreparedSessionConsumesOnCommit(t *testing.T) {
	ctx := context.Background()
	alice, bob := newPeer(t, "alice"), newPeer(t, "bob")
	bundle, err := bob.prekeys.LoadPreKeyBundle(testPassphrase, bob.name)
	require.NoError(t, err)
	a, err := alice.sessions.InitiateSession(ctx, testPassphrase, bob.name, bundle)
	require.NoError(t, err)

	first, err := bob.sessions.PrepareSession(ctx, testPassphrase, alice.name, *a.Initial)
	require.NoError(t, err)
	second, err := bob.sessions.PrepareSession(ctx, testPassphrase, alice.name, *a.Initial)
	require.NoError(t, err)

	n, err := bob.stores.PreKeys.CountOneTimePreKeys()
	require.NoError(t, err)
	require.Equal(t, 2, n)
	_, ok, err := bob.sessions.GetSession(testPassphrase, alice.name)
	require.NoError(t, err)
	require.False(t, ok)

	rec, err := bob.sessions.CommitSession(testPassphrase, first)
	require.NoError(t, err)
	require.Equal(t, alice.identity, rec.PeerFingerprint)
	n, err = bob.stores.PreKeys.CountOneTimePreKeys()
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, err = bob.sessions.CommitSession(testPassphrase, second)
	require.ErrorIs(t, err, domain.ErrOneTimePreKeyConsumed)
	stored, _, err := bob.sessions.GetSession(testPassphrase, alice.name)
	require.NoError(t, err)
	require.Equal(t, rec.ID, stored.ID)
}

func TestResignedBundleChangesFingerprint(t *testing.T) {
	ctx := context.Background()
	alice, bob, mallory := newPeer(t, "alice"), newPeer(t, "bob"), newPeer(t, "mallory")

	bundle, err := bob.prekeys.LoadPreKeyBundle(testPassphrase, bob.name)
	require.NoError(t, err)
	id, err := mallory.stores.Identity.LoadIdentity(testPassphrase)
	require.NoError(t, err)
	suite, err := crypto.NewProvider().Suite(bundle.Suite)
	require.NoError(t, err)
	sig, err := suite.Sign(id.Signing, bundle.SignedPreKey)
	require.NoError(t, err)
	bundle.SigningKey = id.Signing.Public().Bytes()
	bundle.SignedPreKeySignature = sig

	// The signature checks out, but the fingerprint no longer matches bob's.
	rec, err := alice.sessions.InitiateSession(ctx, testPassphrase, bob.name, bundle)
	require.NoError(t, err)
	require.NotEqual(t, bob.identity, rec.PeerFingerprint)
	require.Equal(t, bundle.SigningKey, rec.PeerSigningKey)
}
