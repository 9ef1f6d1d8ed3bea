package store

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"

	"github.com/pkg/errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	"e2ee/internal/crypto"
)

const (
	// The current supported version of the encrypted blob format stored on disk.
	envelopeFormatVersion = 1
)

var (
	// ErrWrongPassphrase is returned when the passphrase is incorrect or the
	// ciphertext has been modified / corrupted.
	ErrWrongPassphrase = errors.New("wrong passphrase or corrupted record")
)

// Passphrase KDF names.
const (
	KDFScrypt   = "scrypt"
	KDFArgon2id = "argon2id"
)

// KDFParams selects and tunes the passphrase KDF. N, R and P apply to scrypt;
// Time, Memory (KiB) and Threads to argon2id.
type KDFParams struct {
	Algorithm string
	N, R, P   int
	Time      uint32
	Memory    uint32
	Threads   uint8
}

// DefaultKDFParams returns scrypt with N=2^15, r=8, p=1.
func DefaultKDFParams() KDFParams {
	return KDFParams{Algorithm: KDFScrypt, N: 1 << 15, R: 8, P: 1}
}

// Argon2idParams returns argon2id with t=1, m=64 MiB, p=4.
func Argon2idParams() KDFParams {
	return KDFParams{Algorithm: KDFArgon2id, Time: 1, Memory: 64 * 1024, Threads: 4}
}

// blob is the on‑disk JSON structure holding the ciphertext and KDF parameters.
type blob struct {
	V       int    `json:"v"`
	KDF     string `json:"kdf,omitempty"` // empty means scrypt
	Salt    []byte `json:"salt"`
	N       int    `json:"scrypt_N,omitempty"`
	R       int    `json:"scrypt_r,omitempty"`
	P       int    `json:"scrypt_p,omitempty"`
	Time    uint32 `json:"argon_t,omitempty"`
	Memory  uint32 `json:"argon_m,omitempty"`
	Threads uint8  `json:"argon_p,omitempty"`
	Cipher  []byte `json:"cipher"`
}

func (b blob) params() KDFParams {
	alg := b.KDF
	if alg == "" {
		alg = KDFScrypt
	}
	return KDFParams{Algorithm: alg, N: b.N, R: b.R, P: b.P, Time: b.Time, Memory: b.Memory, Threads: b.Threads}
}

// seal derives a key from passphrase and seals raw into a JSON blob. label is
// bound as associated data so a blob cannot be moved between records.
func seal(passphrase string, raw []byte, label string, params KDFParams) ([]byte, error) {
	var salt [16]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return nil, err
	}
	aead, err := newAEAD(passphrase, salt[:], params)
	if err != nil {
		return nil, err
	}
	var nonce [chacha20poly1305.NonceSize]byte // zero nonce; salt‑bound key guarantees uniqueness
	ct := aead.Seal(nil, nonce[:], raw, append(salt[:], label...))

	b := blob{V: envelopeFormatVersion, KDF: params.Algorithm, Salt: salt[:], Cipher: ct}
	switch params.Algorithm {
	case KDFArgon2id:
		b.Time, b.Memory, b.Threads = params.Time, params.Memory, params.Threads
	default:
		b.N, b.R, b.P = params.N, params.R, params.P
	}
	return json.Marshal(b)
}

// open opens the JSON blob using a key derived from passphrase.
func open(passphrase string, b []byte, label string) ([]byte, error) {
	var bl blob
	if err := json.Unmarshal(b, &bl); err != nil {
		return nil, errors.Wrap(err, "decode envelope")
	}
	if bl.V != envelopeFormatVersion {
		return nil, errors.Errorf("unsupported envelope version %d", bl.V)
	}
	aead, err := newAEAD(passphrase, bl.Salt, bl.params())
	if err != nil {
		return nil, err
	}
	var nonce [chacha20poly1305.NonceSize]byte
	pt, err := aead.Open(nil, nonce[:], bl.Cipher, append(bl.Salt, label...))
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return pt, nil
}

func newAEAD(passphrase string, salt []byte, params KDFParams) (cipher.AEAD, error) {
	key, err := deriveKey(passphrase, salt, params)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(key)
	return chacha20poly1305.New(key)
}

func deriveKey(passphrase string, salt []byte, params KDFParams) ([]byte, error) {
	switch params.Algorithm {
	case KDFScrypt:
		key, err := scrypt.Key([]byte(passphrase), salt, params.N, params.R, params.P, chacha20poly1305.KeySize)
		if err != nil {
			return nil, errors.Wrap(err, "scrypt")
		}
		return key, nil
	case KDFArgon2id:
		if params.Time == 0 || params.Memory == 0 || params.Threads == 0 {
			return nil, errors.Errorf("argon2id: invalid parameters t=%d m=%d p=%d",
				params.Time, params.Memory, params.Threads)
		}
		return argon2.IDKey([]byte(passphrase), salt, params.Time, params.Memory, params.Threads, chacha20poly1305.KeySize), nil
	default:
		return nil, errors.Errorf("unknown passphrase kdf %q", params.Algorithm)
	}
}
