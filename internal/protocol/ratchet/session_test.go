package ratchet_test

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"e2ee/internal/crypto"
	"e2ee/internal/domain"
	"e2ee/internal/protocol/ratchet"
)

type message struct {
	h  ratchet.Header
	mk domain.MessageKey
}

// newPair simulates a completed handshake and returns both sides.
func newPair(t *testing.T, id crypto.SuiteID, opts ...ratchet.Option) (alice, bob *ratchet.Session, p *crypto.Provider) {
	t.Helper()
	p = crypto.NewProvider()
	suite, err := p.Suite(id)
	require.NoError(t, err)
	sk := bytes.Repeat([]byte{0x42}, 32)
	ad := []byte("alice-ik|bob-ik")

	spk, err := suite.GenerateKey()
	require.NoError(t, err)
	alice, err = ratchet.NewInitiator(suite, sk, ad, spk.PublicKey(), opts...)
	require.NoError(t, err)
	bob, err = ratchet.NewResponder(suite, sk, ad, spk, opts...)
	require.NoError(t, err)
	return alice, bob, p
}

func send(t *testing.T, s *ratchet.Session, n int) []message {
	t.Helper()
	out := make([]message, n)
	for i := range out {
		h, mk, err := s.Encrypt()
		require.NoError(t, err)
		out[i] = message{h, mk}
	}
	return out
}

func receive(t *testing.T, s *ratchet.Session, m message) {
	t.Helper()
	mk, err := s.Decrypt(m.h)
	require.NoError(t, err)
	require.Equal(t, m.mk, mk)
}

func TestRoundTripEverySuite(t *testing.T) {
	for _, id := range []crypto.SuiteID{
		crypto.DefaultSuiteID,
		{Curve: crypto.CurveP256, Signature: crypto.SignatureECDSAP256SHA256, KDF: crypto.HKDFSHA256, Hash: crypto.HashSHA256},
		{Curve: crypto.CurveP384, Signature: crypto.SignatureECDSAP384SHA384, KDF: crypto.HKDFSHA384, Hash: crypto.HashSHA384},
		{Curve: crypto.CurveP521, Signature: crypto.SignatureEd25519, KDF: crypto.HKDFSHA512, Hash: crypto.HashSHA512},
	} {
		t.Run(id.String(), func(t *testing.T) {
			alice, bob, _ := newPair(t, id)
			for round := 0; round < 4; round++ {
				for _, m := range send(t, alice, 3) {
					receive(t, bob, m)
				}
				for _, m := range send(t, bob, 2) {
					receive(t, alice, m)
				}
			}
		})
	}
}

func TestHeaderCounters(t *testing.T) {
	alice, bob, _ := newPair(t, crypto.DefaultSuiteID)
	ms := send(t, alice, 3)
	for i, m := range ms {
		require.Equal(t, uint32(i), m.h.N)
		require.Equal(t, uint32(0), m.h.PN)
		receive(t, bob, m)
	}
	reply := send(t, bob, 1)[0]
	require.Equal(t, uint32(0), reply.h.N)
	require.NotEqual(t, ms[0].h.RatchetKey, reply.h.RatchetKey)
	receive(t, alice, reply)

	next := send(t, alice, 1)[0]
	require.Equal(t, uint32(3), next.h.PN)
	require.Equal(t, uint32(0), next.h.N)
	require.NotEqual(t, ms[0].h.RatchetKey, next.h.RatchetKey)
}

func TestResponderCannotSendFirst(t *testing.T) {
	alice, bob, _ := newPair(t, crypto.DefaultSuiteID)
	require.False(t, bob.CanEncrypt())
	_, _, err := bob.Encrypt()
	require.True(t, errors.Is(err, domain.ErrSendingChainNotReady))

	receive(t, bob, send(t, alice, 1)[0])
	require.True(t, bob.CanEncrypt())
}

func TestAnyPermutationDecryptsOnce(t *testing.T) {
	alice, bob, _ := newPair(t, crypto.DefaultSuiteID)
	ms := send(t, alice, 40)

	rng := rand.New(rand.NewSource(7))
	for _, i := range rng.Perm(len(ms)) {
		receive(t, bob, ms[i])
	}
	for _, m := range ms {
		_, err := bob.Decrypt(m.h)
		require.True(t, errors.Is(err, domain.ErrDuplicateMessage), "N=%d: %v", m.h.N, err)
	}
	require.Empty(t, bob.SkippedKeys())
}

func TestLateMessagesAcrossRatchetSteps(t *testing.T) {
	alice, bob, _ := newPair(t, crypto.DefaultSuiteID)

	first := send(t, alice, 3)
	receive(t, bob, first[1])

	receive(t, alice, send(t, bob, 1)[0])

	second := send(t, alice, 2)
	// The new chain's header carries PN=3, so bob caches first[2] too.
	receive(t, bob, second[1])
	require.Len(t, bob.SkippedKeys(), 3)

	receive(t, bob, first[0])
	receive(t, bob, first[2])
	receive(t, bob, second[0])
	require.Empty(t, bob.SkippedKeys())

	_, err := bob.Decrypt(first[1].h)
	require.True(t, errors.Is(err, domain.ErrDuplicateMessage))
}

func TestCacheBoundExpiresEarliest(t *testing.T) {
	limits := ratchet.Limits{MaxSkippedKeys: 10, MaxSkippedGenerations: 5, MaxSkip: 100}
	alice, bob, _ := newPair(t, crypto.DefaultSuiteID, ratchet.WithLimits(limits))
	ms := send(t, alice, 15)

	// Skipping 0..13 caches 14 keys; the four earliest are evicted.
	receive(t, bob, ms[14])
	require.Len(t, bob.SkippedKeys(), 10)

	for _, m := range ms[:4] {
		_, err := bob.Decrypt(m.h)
		require.True(t, errors.Is(err, domain.ErrMessageKeyExpired), "N=%d: %v", m.h.N, err)
	}
	for _, m := range ms[4:14] {
		receive(t, bob, m)
	}
	_, err := bob.Decrypt(ms[14].h)
	require.True(t, errors.Is(err, domain.ErrDuplicateMessage))

	// The session keeps working after per-message errors.
	receive(t, bob, send(t, alice, 1)[0])
}

func TestGenerationBoundEvictsOldestChain(t *testing.T) {
	limits := ratchet.Limits{MaxSkippedKeys: 100, MaxSkippedGenerations: 2, MaxSkip: 100}
	alice, bob, _ := newPair(t, crypto.DefaultSuiteID, ratchet.WithLimits(limits))

	var lost []message
	for i := 0; i < 3; i++ {
		ms := send(t, alice, 2)
		receive(t, bob, ms[1])
		lost = append(lost, ms[0])
		receive(t, alice, send(t, bob, 1)[0])
	}
	require.Len(t, bob.SkippedKeys(), 2)

	_, err := bob.Decrypt(lost[0].h)
	require.True(t, errors.Is(err, domain.ErrMessageKeyExpired))
	receive(t, bob, lost[1])
	receive(t, bob, lost[2])
}

func TestTooManySkippedLeavesSessionUntouched(t *testing.T) {
	limits := ratchet.Limits{MaxSkippedKeys: 100, MaxSkippedGenerations: 5, MaxSkip: 5}
	alice, bob, _ := newPair(t, crypto.DefaultSuiteID, ratchet.WithLimits(limits))
	ms := send(t, alice, 8)

	// New ratchet key with N=7.
	_, err := bob.Decrypt(ms[7].h)
	require.True(t, errors.Is(err, domain.ErrTooManySkippedMessages))
	require.False(t, bob.CanEncrypt())

	receive(t, bob, ms[0])
	// Current chain: 7 - 1 = 6 > 5.
	_, err = bob.Decrypt(ms[7].h)
	require.True(t, errors.Is(err, domain.ErrTooManySkippedMessages))
	require.Empty(t, bob.SkippedKeys())

	receive(t, bob, ms[6])
	receive(t, bob, ms[7])
}

func TestMalformedRatchetKeyRejected(t *testing.T) {
	alice, bob, _ := newPair(t, crypto.DefaultSuiteID)
	m := send(t, alice, 1)[0]

	bad := m.h
	bad.RatchetKey = []byte{1, 2, 3}
	_, err := bob.Decrypt(bad)
	require.True(t, errors.Is(err, domain.ErrKeyRejected))

	bad.RatchetKey = nil
	_, err = bob.Decrypt(bad)
	require.True(t, errors.Is(err, domain.ErrKeyRejected))

	receive(t, bob, m)
}

func TestSignedPreKeyHeaderIsNotANewChain(t *testing.T) {
	p := crypto.NewProvider()
	suite, err := p.Suite(crypto.DefaultSuiteID)
	require.NoError(t, err)
	sk := bytes.Repeat([]byte{0x07}, 32)
	spk, err := suite.GenerateKey()
	require.NoError(t, err)
	alice, err := ratchet.NewInitiator(suite, sk, []byte("ad"), spk.PublicKey())
	require.NoError(t, err)
	bob, err := ratchet.NewResponder(suite, sk, []byte("ad"), spk)
	require.NoError(t, err)

	receive(t, bob, send(t, alice, 1)[0])
	reply := send(t, bob, 1)[0]

	// A header naming bob's signed prekey must not step alice's ratchet.
	forged := ratchet.Header{RatchetKey: spk.PublicKey().Bytes()}
	_, err = alice.Decrypt(forged)
	require.True(t, errors.Is(err, domain.ErrDuplicateMessage))
	receive(t, alice, reply)
}

func TestUnverifiedRatchetStepIsDiscarded(t *testing.T) {
	alice, bob, p := newPair(t, crypto.DefaultSuiteID)
	receive(t, bob, send(t, alice, 1)[0])
	receive(t, alice, send(t, bob, 1)[0])
	pending := send(t, alice, 2)

	suite, err := p.Suite(crypto.DefaultSuiteID)
	require.NoError(t, err)
	intruder, err := suite.GenerateKey()
	require.NoError(t, err)
	forged := ratchet.Header{RatchetKey: intruder.PublicKey().Bytes(), PN: 1}

	before, err := bob.MarshalBinary()
	require.NoError(t, err)
	rejected := errors.New("bad tag")
	err = bob.DecryptVerified(forged, func(domain.MessageKey) error { return rejected })
	require.True(t, errors.Is(err, rejected))
	after, err := bob.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, before, after)

	for _, m := range pending {
		require.NoError(t, bob.DecryptVerified(m.h, func(mk domain.MessageKey) error {
			require.Equal(t, m.mk, mk)
			return nil
		}))
	}
	receive(t, alice, send(t, bob, 1)[0])
	receive(t, bob, send(t, alice, 1)[0])
}

func TestVerifiedRatchetStepIsKept(t *testing.T) {
	alice, bob, _ := newPair(t, crypto.DefaultSuiteID)
	m := send(t, alice, 1)[0]
	require.False(t, bob.CanEncrypt())
	require.NoError(t, bob.DecryptVerified(m.h, func(mk domain.MessageKey) error {
		require.Equal(t, m.mk, mk)
		return nil
	}))
	require.True(t, bob.CanEncrypt())
	receive(t, alice, send(t, bob, 1)[0])
}

func TestSerializationPreservesSkippedKeys(t *testing.T) {
	alice, bob, p := newPair(t, crypto.DefaultSuiteID)
	ms := send(t, alice, 5)
	receive(t, bob, ms[4])

	data, err := bob.MarshalBinary()
	require.NoError(t, err)
	restored, err := ratchet.Unmarshal(p, data)
	require.NoError(t, err)
	require.Equal(t, bob.SkippedKeys(), restored.SkippedKeys())
	require.Equal(t, bob.AssociatedData(), restored.AssociatedData())
	require.Equal(t, bob.Limits(), restored.Limits())

	for _, m := range ms[:4] {
		receive(t, restored, m)
	}
	for _, m := range send(t, restored, 2) {
		receive(t, alice, m)
	}

	// Marshalling is deterministic.
	again, err := restored.MarshalBinary()
	require.NoError(t, err)
	again2, err := restored.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, again, again2)
}

func TestSerializationOfFreshSessions(t *testing.T) {
	alice, bob, p := newPair(t, crypto.DefaultSuiteID)
	ad, err := alice.MarshalBinary()
	require.NoError(t, err)
	bd, err := bob.MarshalBinary()
	require.NoError(t, err)

	alice, err = ratchet.Unmarshal(p, ad)
	require.NoError(t, err)
	bob, err = ratchet.Unmarshal(p, bd)
	require.NoError(t, err)
	require.False(t, bob.CanEncrypt())

	receive(t, bob, send(t, alice, 1)[0])
	receive(t, alice, send(t, bob, 1)[0])
}

func TestUnmarshalCorruptState(t *testing.T) {
	alice, bob, p := newPair(t, crypto.DefaultSuiteID)
	receive(t, bob, send(t, alice, 3)[2])
	data, err := bob.MarshalBinary()
	require.NoError(t, err)

	corrupt := func(name string, b []byte) {
		t.Helper()
		s, err := ratchet.Unmarshal(p, b)
		require.True(t, errors.Is(err, domain.ErrSessionStateCorrupt), "%s: %v", name, err)
		require.Nil(t, s, name)
	}
	corrupt("empty", nil)
	corrupt("truncated", data[:len(data)/2])
	corrupt("trailing", append(append([]byte(nil), data...), 0x00))

	// Field-level tampering through the generic CBOR form.
	mutate := func(name string, fn func(m map[int]any)) {
		t.Helper()
		var m map[int]any
		require.NoError(t, cbor.Unmarshal(data, &m))
		fn(m)
		b, err := cbor.Marshal(m)
		require.NoError(t, err)
		corrupt(name, b)
	}
	mutate("version", func(m map[int]any) { m[1] = 9 })
	mutate("root key length", func(m map[int]any) { m[5] = []byte{1, 2, 3} })
	mutate("cache missing", func(m map[int]any) { delete(m, 12) })
	mutate("receiving chain without sending chain", func(m map[int]any) { delete(m, 8) })
	mutate("limits", func(m map[int]any) { m[3] = map[int]any{1: 0, 2: 0, 3: 0} })
	mutate("skipped key ahead of receiving chain", func(m map[int]any) {
		recv := m[9].(map[any]any)
		recv[uint64(2)] = 1
	})
	mutate("cache over limit", func(m map[int]any) {
		m[3] = map[int]any{1: 1, 2: 5, 3: 2000}
	})
}
