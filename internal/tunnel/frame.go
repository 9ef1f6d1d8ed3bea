package tunnel

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"e2ee/internal/protocol/ratchet"
)

// Version is the frame format version.
const Version = 1

const fixedLen = 1 + 2 + 4 + 4

// Frame is a decoded tunnel message.
type Frame struct {
	Header     ratchet.Header
	Ciphertext []byte
}

// MarshalBinary encodes the frame.
func (f Frame) MarshalBinary() ([]byte, error) {
	if len(f.Header.RatchetKey) > math.MaxUint16 {
		return nil, errors.Wrap(ErrMalformedFrame, "ratchet key too long")
	}
	out := make([]byte, 0, fixedLen+len(f.Header.RatchetKey)+len(f.Ciphertext))
	out = append(out, Version)
	out = binary.BigEndian.AppendUint16(out, uint16(len(f.Header.RatchetKey)))
	out = append(out, f.Header.RatchetKey...)
	out = binary.BigEndian.AppendUint32(out, f.Header.PN)
	out = binary.BigEndian.AppendUint32(out, f.Header.N)
	return append(out, f.Ciphertext...), nil
}

// ParseFrame decodes b. The returned frame aliases b.
func ParseFrame(b []byte) (Frame, error) {
	if len(b) < fixedLen {
		return Frame{}, errors.Wrap(ErrMalformedFrame, "short frame")
	}
	if b[0] != Version {
		return Frame{}, errors.Wrapf(ErrMalformedFrame, "version %d", b[0])
	}
	keyLen := int(binary.BigEndian.Uint16(b[1:3]))
	if len(b) < fixedLen+keyLen {
		return Frame{}, errors.Wrap(ErrMalformedFrame, "short frame")
	}
	rest := b[3:]
	f := Frame{Header: ratchet.Header{RatchetKey: rest[:keyLen]}}
	rest = rest[keyLen:]
	f.Header.PN = binary.BigEndian.Uint32(rest[0:4])
	f.Header.N = binary.BigEndian.Uint32(rest[4:8])
	f.Ciphertext = rest[8:]
	return f, nil
}
