package crypto_test

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"e2ee/internal/crypto"
)

var allCurves = []crypto.Curve{
	crypto.CurveX25519, crypto.CurveP256, crypto.CurveP384, crypto.CurveP521,
}

func TestAgreementSymmetric(t *testing.T) {
	p := crypto.NewProvider()
	for _, c := range allCurves {
		t.Run(c.String(), func(t *testing.T) {
			a, err := p.Agreement(c)
			require.NoError(t, err)
			alice, err := a.Generate(p.Rand())
			require.NoError(t, err)
			bob, err := a.Generate(p.Rand())
			require.NoError(t, err)

			// Bob only sees Alice's raw bytes.
			alicePub := crypto.UnparsedPublicKey(c, alice.PublicKey().Bytes())
			require.False(t, alicePub.Parsed())
			require.Len(t, alicePub.Bytes(), a.PublicKeySize())

			s1, err := a.Agree(alice, bob.PublicKey())
			require.NoError(t, err)
			s2, err := a.Agree(bob, alicePub)
			require.NoError(t, err)
			require.Equal(t, s1, s2)
		})
	}
}

func TestAgreementRejectsMalformedKey(t *testing.T) {
	p := crypto.NewProvider()
	for _, c := range allCurves {
		a, err := p.Agreement(c)
		require.NoError(t, err)
		priv, err := a.Generate(p.Rand())
		require.NoError(t, err)

		_, err = a.Agree(priv, crypto.UnparsedPublicKey(c, []byte{1, 2, 3}))
		require.True(t, errors.Is(err, crypto.ErrKeyRejected), "%s: %v", c, err)
	}
}

func TestAgreementRejectsLowOrderX25519(t *testing.T) {
	p := crypto.NewProvider()
	a, _ := p.Agreement(crypto.CurveX25519)
	priv, err := a.Generate(p.Rand())
	require.NoError(t, err)

	_, err = a.Agree(priv, crypto.UnparsedPublicKey(crypto.CurveX25519, make([]byte, 32)))
	require.True(t, errors.Is(err, crypto.ErrKeyRejected))
}

func TestAgreementCurveMismatch(t *testing.T) {
	p := crypto.NewProvider()
	x, _ := p.Agreement(crypto.CurveX25519)
	n, _ := p.Agreement(crypto.CurveP256)
	xp, err := x.Generate(p.Rand())
	require.NoError(t, err)
	np, err := n.Generate(p.Rand())
	require.NoError(t, err)

	_, err = x.Agree(xp, np.PublicKey())
	require.True(t, errors.Is(err, crypto.ErrUnsupportedCurve))
	_, err = n.Agree(xp, np.PublicKey())
	require.True(t, errors.Is(err, crypto.ErrUnsupportedCurve))
}

func TestUnsupportedAlgorithms(t *testing.T) {
	p := crypto.NewProvider()
	_, err := p.Agreement(crypto.CurveX448)
	require.True(t, errors.Is(err, crypto.ErrUnsupportedCurve))
	_, err = p.Suite(crypto.SuiteID{Curve: crypto.CurveX25519, Signature: 9, KDF: crypto.HKDFSHA256, Hash: crypto.HashSHA256})
	require.True(t, errors.Is(err, crypto.ErrUnsupportedAlgorithm))
	_, err = crypto.ParseCurve("curve41417")
	require.True(t, errors.Is(err, crypto.ErrUnsupportedAlgorithm))
}

func TestParseNames(t *testing.T) {
	c, err := crypto.ParseCurve("P384")
	require.NoError(t, err)
	require.Equal(t, crypto.CurveP384, c)
	k, err := crypto.ParseKDF("sha512")
	require.NoError(t, err)
	require.Equal(t, crypto.HKDFSHA512, k)
	h, err := crypto.ParseHashFunc("sha3-256")
	require.NoError(t, err)
	require.Equal(t, crypto.HashSHA3_256, h)
	require.Equal(t, uint16(1034), uint16(crypto.CurveX25519))
	require.Equal(t, "curve(9)", crypto.Curve(9).String())
}

func TestSignatures(t *testing.T) {
	p := crypto.NewProvider()
	for _, s := range []crypto.SignatureScheme{
		crypto.SignatureEd25519, crypto.SignatureECDSAP256SHA256, crypto.SignatureECDSAP384SHA384,
	} {
		t.Run(s.String(), func(t *testing.T) {
			sg, err := p.Signer(s)
			require.NoError(t, err)
			key, err := sg.Generate(p.Rand())
			require.NoError(t, err)
			msg := []byte("signed prekey")
			sig, err := sg.Sign(p.Rand(), key, msg)
			require.NoError(t, err)

			pub := crypto.NewVerifyingKey(s, key.Public().Bytes())
			require.True(t, sg.Verify(pub, msg, sig))
			require.False(t, sg.Verify(pub, []byte("other"), sig))
			sig[len(sig)-1] ^= 1
			require.False(t, sg.Verify(pub, msg, sig))

			der, err := crypto.MarshalSigningKey(key)
			require.NoError(t, err)
			back, err := crypto.ParseSigningKey(s, der)
			require.NoError(t, err)
			require.Equal(t, key.Public().Bytes(), back.Public().Bytes())
		})
	}
}

func TestHKDF(t *testing.T) {
	p := crypto.NewProvider()
	k, err := p.KDF(crypto.HKDFSHA256)
	require.NoError(t, err)

	// RFC 5869 test case 3: zero-length salt and info.
	ikm := bytes.Repeat([]byte{0x0b}, 22)
	okm, err := k.Derive(nil, ikm, nil, 42)
	require.NoError(t, err)
	require.Equal(t,
		"8da4e775a563c18f715f802a063c5a31b8a11f5c5ee1879ec3454e5f3c738d2d9d201395faa4b61a96c8",
		hexString(okm))

	_, err = k.Expand(k.Extract(nil, ikm), nil, 255*32)
	require.NoError(t, err)
	_, err = k.Expand(k.Extract(nil, ikm), nil, 255*32+1)
	require.True(t, errors.Is(err, crypto.ErrHKDFLength))
}

func TestHashes(t *testing.T) {
	p := crypto.NewProvider()
	sizes := map[crypto.HashFunc]int{
		crypto.HashSHA224: 28, crypto.HashSHA256: 32, crypto.HashSHA384: 48, crypto.HashSHA512: 64,
		crypto.HashSHA3_224: 28, crypto.HashSHA3_256: 32, crypto.HashSHA3_384: 48, crypto.HashSHA3_512: 64,
	}
	for id, n := range sizes {
		h, err := p.Hash(id)
		require.NoError(t, err)
		require.Len(t, h.Sum([]byte("a"), []byte("b")), n)
		require.Equal(t, h.Sum([]byte("ab")), h.Sum([]byte("a"), []byte("b")))
	}
}

func TestPKIXAndPKCS8(t *testing.T) {
	p := crypto.NewProvider()
	for _, c := range allCurves {
		a, _ := p.Agreement(c)
		priv, err := a.Generate(p.Rand())
		require.NoError(t, err)

		der, err := crypto.MarshalPKIX(priv.PublicKey())
		require.NoError(t, err)
		pub, err := crypto.ParsePKIX(der)
		require.NoError(t, err)
		require.True(t, pub.Equal(priv.PublicKey()), c.String())

		_, err = crypto.MarshalPKIX(crypto.UnparsedPublicKey(c, pub.Bytes()))
		require.True(t, errors.Is(err, crypto.ErrKeyRejected))

		sk, err := crypto.MarshalPKCS8(priv)
		require.NoError(t, err)
		back, err := crypto.ParsePKCS8(sk)
		require.NoError(t, err)
		require.Equal(t, c, back.Curve())
		require.Equal(t, priv.Bytes(), back.Bytes())
	}
}

func TestWipe(t *testing.T) {
	a, b := []byte{1, 2}, []byte{3}
	crypto.Wipe(a, b)
	require.Equal(t, []byte{0, 0}, a)
	require.Equal(t, []byte{0}, b)
}

func TestFingerprint(t *testing.T) {
	fp := crypto.Fingerprint([]byte("k"))
	require.Len(t, fp, 20)
	require.NotEqual(t, fp, crypto.Fingerprint([]byte("j")))
}

func hexString(b []byte) string { return hex.EncodeToString(b) }
