package ratchet

import (
	"encoding/binary"

	"e2ee/internal/crypto"
	"e2ee/internal/domain"
)

// RootInfo labels the root KDF.
const RootInfo = "e2ee ratchet v1"

var (
	messageKeySeed = []byte{0x01}
	chainKeySeed   = []byte{0x02}
)

// kdfRK derives the next root key and a chain key from the current root key
// and a DH output.
func kdfRK(kdf crypto.KDF, rk domain.RootKey, dh []byte) (domain.RootKey, domain.ChainKey, error) {
	var (
		nextRK domain.RootKey
		ck     domain.ChainKey
	)
	out, err := kdf.Derive(rk[:], dh, []byte(RootInfo), 2*domain.KeySize)
	if err != nil {
		return nextRK, ck, err
	}
	copy(nextRK[:], out[:domain.KeySize])
	copy(ck[:], out[domain.KeySize:])
	crypto.Wipe(out)
	return nextRK, ck, nil
}

// kdfCK derives a message key and the next chain key.
func kdfCK(kdf crypto.KDF, ck domain.ChainKey) (domain.MessageKey, domain.ChainKey) {
	var (
		mk   domain.MessageKey
		next domain.ChainKey
	)
	m := kdf.MAC(ck[:], messageKeySeed)
	c := kdf.MAC(ck[:], chainKeySeed)
	copy(mk[:], m)
	copy(next[:], c)
	crypto.Wipe(m, c)
	return mk, next
}

// chain is a sending or receiving chain: its key and the number of message
// keys derived from it since the last DH-ratchet step.
type chain struct {
	key domain.ChainKey
	n   uint32
}

// next derives the message key for counter c.n and advances the chain.
func (c *chain) next(kdf crypto.KDF) domain.MessageKey {
	mk, next := kdfCK(kdf, c.key)
	crypto.Wipe(c.key[:])
	c.key = next
	c.n++
	return mk
}

// Header accompanies every message: the sender's current ratchet public key,
// the length of its previous sending chain and the message counter.
type Header struct {
	RatchetKey []byte
	PN         uint32
	N          uint32
}

// Bytes returns RatchetKey || PN || N with big-endian counters, for use as
// AEAD associated data.
func (h Header) Bytes() []byte {
	out := make([]byte, 0, len(h.RatchetKey)+8)
	out = append(out, h.RatchetKey...)
	out = binary.BigEndian.AppendUint32(out, h.PN)
	return binary.BigEndian.AppendUint32(out, h.N)
}
