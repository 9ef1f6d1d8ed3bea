package tunnel

import (
	"encoding/binary"
	"strings"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20poly1305"

	"e2ee/internal/crypto"
	"e2ee/internal/domain"
	"e2ee/internal/protocol/ratchet"
)

var (
	ErrMalformedFrame = errors.New("tunnel: malformed frame")
	ErrOutOfOrder     = errors.New("tunnel: message out of order")
	ErrAuthentication = errors.New("tunnel: message authentication failed")
)

// Mode selects the delivery policy.
type Mode uint8

const (
	Ordered Mode = iota + 1
	Datagram
)

func (m Mode) String() string {
	switch m {
	case Ordered:
		return "ordered"
	case Datagram:
		return "datagram"
	}
	return "unknown"
}

// ParseMode maps "ordered" or "datagram" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "ordered":
		return Ordered, nil
	case "datagram":
		return Datagram, nil
	}
	return 0, errors.Errorf("tunnel: unknown mode %q", s)
}

// Tunnel wraps a ratchet session.
type Tunnel struct {
	mu      sync.Mutex
	session *ratchet.Session
	mode    Mode
}

// New returns a tunnel over s.
func New(s *ratchet.Session, mode Mode) *Tunnel {
	return &Tunnel{session: s, mode: mode}
}

func (t *Tunnel) Mode() Mode { return t.mode }

// CanSeal reports whether the session has a sending chain yet.
func (t *Tunnel) CanSeal() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session.CanEncrypt()
}

// Seal encrypts plaintext and returns the encoded frame.
func (t *Tunnel) Seal(plaintext []byte) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	h, mk, err := t.session.Encrypt()
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(mk[:])

	aead, err := chacha20poly1305.New(mk[:])
	if err != nil {
		return nil, errors.Wrap(err, "tunnel: aead")
	}
	f := Frame{Header: h}
	f.Ciphertext = aead.Seal(nil, nonce(h), plaintext, t.associatedData(h))
	return f.MarshalBinary()
}

// Open authenticates and decrypts a frame. A key derived for a message on a
// known chain that then fails authentication is not restored. A frame that
// would start a new chain changes nothing unless it authenticates.
func (t *Tunnel) Open(frame []byte) ([]byte, error) {
	f, err := ParseFrame(frame)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.mode == Ordered && !t.session.InOrder(f.Header) {
		return nil, ErrOutOfOrder
	}
	var pt []byte
	err = t.session.DecryptVerified(f.Header, func(mk domain.MessageKey) error {
		aead, err := chacha20poly1305.New(mk[:])
		if err != nil {
			return errors.Wrap(err, "tunnel: aead")
		}
		if pt, err = aead.Open(nil, nonce(f.Header), f.Ciphertext, t.associatedData(f.Header)); err != nil {
			return ErrAuthentication
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pt, nil
}

func (t *Tunnel) associatedData(h ratchet.Header) []byte {
	return append(t.session.AssociatedData(), h.Bytes()...)
}

// nonce places the message counter in the last four bytes. Message keys are
// never reused, so the counter only adds domain separation.
func nonce(h ratchet.Header) []byte {
	n := make([]byte, chacha20poly1305.NonceSize)
	binary.BigEndian.PutUint32(n[chacha20poly1305.NonceSize-4:], h.N)
	return n
}

type exported struct {
	Mode    Mode   `cbor:"1,keyasint"`
	Session []byte `cbor:"2,keyasint"`
}

// Export serialises the tunnel and its session. The output contains secrets.
func (t *Tunnel) Export() ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, err := t.session.MarshalBinary()
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(state)
	return cbor.Marshal(exported{Mode: t.mode, Session: state})
}

// Resume restores a tunnel written by Export.
func Resume(p *crypto.Provider, data []byte) (*Tunnel, error) {
	var e exported
	if err := cbor.Unmarshal(data, &e); err != nil {
		return nil, errors.Wrap(domain.ErrSessionStateCorrupt, err.Error())
	}
	if e.Mode != Ordered && e.Mode != Datagram {
		return nil, errors.Wrapf(domain.ErrSessionStateCorrupt, "mode %d", e.Mode)
	}
	s, err := ratchet.Unmarshal(p, e.Session)
	if err != nil {
		return nil, err
	}
	return New(s, e.Mode), nil
}
