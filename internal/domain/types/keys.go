package types

// KeySize is the length of root, chain and message keys.
const KeySize = 32

// RootKey is the secret fed into every DH-ratchet step.
type RootKey [KeySize]byte

// ChainKey is the secret of a sending or receiving chain.
type ChainKey [KeySize]byte

// MessageKey encrypts exactly one message.
type MessageKey [KeySize]byte

// Slice returns the key as a []byte.
func (k *MessageKey) Slice() []byte { return k[:] }
