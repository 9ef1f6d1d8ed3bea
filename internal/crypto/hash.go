package crypto

import (
	"crypto/sha256"
	"crypto/sha512"
	"hash"

	"golang.org/x/crypto/sha3"
)

// Hash is a digest capability.
type Hash struct {
	id  HashFunc
	new func() hash.Hash
}

func (h Hash) Func() HashFunc { return h.id }
func (h Hash) New() hash.Hash { return h.new() }
func (h Hash) Size() int      { return h.new().Size() }

// Sum hashes the concatenation of parts.
func (h Hash) Sum(parts ...[]byte) []byte {
	d := h.new()
	for _, p := range parts {
		d.Write(p)
	}
	return d.Sum(nil)
}

var builtinHashes = []Hash{
	{HashSHA224, sha256.New224},
	{HashSHA256, sha256.New},
	{HashSHA384, sha512.New384},
	{HashSHA512, sha512.New},
	{HashSHA3_224, sha3.New224},
	{HashSHA3_256, sha3.New256},
	{HashSHA3_384, sha3.New384},
	{HashSHA3_512, sha3.New512},
}
