package crypto

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Curve identifies a key agreement algorithm. The numeric values are stable
// and appear in bundles and persisted session state.
type Curve uint16

const (
	CurveP256   Curve = 714
	CurveP384   Curve = 715
	CurveP521   Curve = 716
	CurveX25519 Curve = 1034
	// CurveX448 is recognised but no backend implements it.
	CurveX448 Curve = 1035
)

// SignatureScheme identifies a signature algorithm for identity signing keys.
type SignatureScheme uint16

const (
	SignatureEd25519         SignatureScheme = 1087
	SignatureECDSAP256SHA256 SignatureScheme = 1113
	SignatureECDSAP384SHA384 SignatureScheme = 1114
)

// HashFunc identifies a digest algorithm.
type HashFunc uint16

const (
	HashSHA256   HashFunc = 672
	HashSHA384   HashFunc = 673
	HashSHA512   HashFunc = 674
	HashSHA224   HashFunc = 675
	HashSHA3_224 HashFunc = 1096
	HashSHA3_256 HashFunc = 1097
	HashSHA3_384 HashFunc = 1098
	HashSHA3_512 HashFunc = 1099
)

// KDFAlgorithm identifies an HKDF instantiation.
type KDFAlgorithm uint16

const (
	HKDFSHA256 KDFAlgorithm = 1496
	HKDFSHA384 KDFAlgorithm = 1497
	HKDFSHA512 KDFAlgorithm = 1498
)

var curveNames = map[Curve]string{
	CurveP256:   "p256",
	CurveP384:   "p384",
	CurveP521:   "p521",
	CurveX25519: "x25519",
	CurveX448:   "x448",
}

var signatureNames = map[SignatureScheme]string{
	SignatureEd25519:         "ed25519",
	SignatureECDSAP256SHA256: "ecdsa-p256-sha256",
	SignatureECDSAP384SHA384: "ecdsa-p384-sha384",
}

var hashNames = map[HashFunc]string{
	HashSHA224:   "sha224",
	HashSHA256:   "sha256",
	HashSHA384:   "sha384",
	HashSHA512:   "sha512",
	HashSHA3_224: "sha3-224",
	HashSHA3_256: "sha3-256",
	HashSHA3_384: "sha3-384",
	HashSHA3_512: "sha3-512",
}

var kdfNames = map[KDFAlgorithm]string{
	HKDFSHA256: "hkdf-sha256",
	HKDFSHA384: "hkdf-sha384",
	HKDFSHA512: "hkdf-sha512",
}

func (c Curve) String() string           { return nameOr(curveNames, c, "curve") }
func (s SignatureScheme) String() string { return nameOr(signatureNames, s, "signature") }
func (h HashFunc) String() string        { return nameOr(hashNames, h, "hash") }
func (k KDFAlgorithm) String() string    { return nameOr(kdfNames, k, "kdf") }

// ParseCurve maps a name such as "x25519" or "p256" to its identifier.
func ParseCurve(name string) (Curve, error) {
	return parseName(curveNames, name, "curve")
}

// ParseSignatureScheme maps a name such as "ed25519" to its identifier.
func ParseSignatureScheme(name string) (SignatureScheme, error) {
	return parseName(signatureNames, name, "signature scheme")
}

// ParseHashFunc maps a name such as "sha256" or "sha3-256" to its identifier.
func ParseHashFunc(name string) (HashFunc, error) {
	return parseName(hashNames, name, "hash")
}

// ParseKDF maps a name such as "hkdf-sha256" to its identifier. The bare hash
// name ("sha256") is accepted as well.
func ParseKDF(name string) (KDFAlgorithm, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if !strings.HasPrefix(n, "hkdf-") {
		n = "hkdf-" + n
	}
	return parseName(kdfNames, n, "kdf")
}

type algorithmID interface {
	~uint16
}

func nameOr[K algorithmID](names map[K]string, k K, kind string) string {
	if n, ok := names[k]; ok {
		return n
	}
	return fmt.Sprintf("%s(%d)", kind, uint16(k))
}

func parseName[K algorithmID](names map[K]string, name, kind string) (K, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for k, v := range names {
		if v == n {
			return k, nil
		}
	}
	var zero K
	return zero, errors.Wrapf(ErrUnsupportedAlgorithm, "unknown %s %q", kind, name)
}
