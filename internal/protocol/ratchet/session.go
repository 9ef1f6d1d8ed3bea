package ratchet

import (
	"github.com/pkg/errors"

	"e2ee/internal/crypto"
	"e2ee/internal/domain"
)

// Limits bounds the work and memory a peer can force on a session.
type Limits struct {
	// MaxSkippedKeys caps the number of cached skipped message keys.
	MaxSkippedKeys int
	// MaxSkippedGenerations caps the number of receiving chains that may hold
	// cached keys at once.
	MaxSkippedGenerations int
	// MaxSkip caps the number of keys a single header may force the receiver
	// to derive.
	MaxSkip uint32
}

// DefaultLimits returns 1000 keys, 5 generations and a per-header skip of
// 2000.
func DefaultLimits() Limits {
	return Limits{MaxSkippedKeys: 1000, MaxSkippedGenerations: 5, MaxSkip: 2000}
}

func (l Limits) valid() bool {
	return l.MaxSkippedKeys > 0 && l.MaxSkippedGenerations > 0 && l.MaxSkip > 0
}

// Option configures a new Session.
type Option func(*Session)

// WithLimits overrides DefaultLimits.
func WithLimits(l Limits) Option {
	return func(s *Session) { s.limits = l }
}

// Session is one side of a Double Ratchet conversation. It is not safe for
// concurrent use.
type Session struct {
	suite  *crypto.Suite
	limits Limits
	ad     []byte

	rootKey domain.RootKey
	self    *crypto.PrivateKey
	selfPub []byte
	peer    crypto.PublicKey // zero until known
	send    *chain           // nil until the first DH-ratchet step on a responder
	recv    *chain           // nil until the first message is received
	pn      uint32
	seq     uint32 // DH-ratchet generation
	skipped *skippedKeys
}

// NewInitiator starts a session on the side that ran x3dh.Initiate. peer is
// the responder's signed prekey, which serves as its first ratchet key.
func NewInitiator(suite *crypto.Suite, sk, ad []byte, peer crypto.PublicKey, opts ...Option) (*Session, error) {
	s, err := newSession(suite, sk, ad, opts)
	if err != nil {
		return nil, err
	}
	peer, err = suite.Agreement.ParsePublicKey(peer)
	if err != nil {
		return nil, errors.Wrap(err, "peer ratchet key")
	}
	self, err := suite.GenerateKey()
	if err != nil {
		return nil, errors.Wrap(err, "ratchet key")
	}
	dh, err := suite.Agree(self, peer)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(dh)
	rk, cks, err := kdfRK(suite.KDF, s.rootKey, dh)
	if err != nil {
		return nil, err
	}

	s.rootKey = rk
	s.setSelf(self)
	s.peer = peer
	s.send = &chain{key: cks}
	// The signed prekey is remembered so that a header naming it is never
	// mistaken for a new ratchet key.
	s.skipped.open(s.seq, peer.Bytes())
	return s, nil
}

// NewResponder starts a session on the side that ran x3dh.Respond. self is
// the signed prekey pair the initiator agreed with. The session cannot
// encrypt until it has decrypted the initiator's first message.
func NewResponder(suite *crypto.Suite, sk, ad []byte, self *crypto.PrivateKey, opts ...Option) (*Session, error) {
	s, err := newSession(suite, sk, ad, opts)
	if err != nil {
		return nil, err
	}
	if self == nil || self.Curve() != suite.ID.Curve {
		return nil, domain.ErrUnsupportedCurve
	}
	s.setSelf(self)
	return s, nil
}

func newSession(suite *crypto.Suite, sk, ad []byte, opts []Option) (*Session, error) {
	if len(sk) != domain.KeySize {
		return nil, errors.Wrapf(domain.ErrKeyRejected, "shared key length %d", len(sk))
	}
	s := &Session{suite: suite, limits: DefaultLimits(), ad: append([]byte(nil), ad...)}
	for _, o := range opts {
		o(s)
	}
	if !s.limits.valid() {
		return nil, errors.Errorf("invalid ratchet limits %+v", s.limits)
	}
	copy(s.rootKey[:], sk)
	s.skipped = newSkippedKeys(s.limits)
	return s, nil
}

func (s *Session) setSelf(k *crypto.PrivateKey) {
	s.self = k
	s.selfPub = k.PublicKey().Bytes()
}

// Suite returns the algorithms the session was created with.
func (s *Session) Suite() *crypto.Suite { return s.suite }

// AssociatedData returns the handshake's AD (IK_A || IK_B).
func (s *Session) AssociatedData() []byte { return append([]byte(nil), s.ad...) }

// Limits returns the session's bounds.
func (s *Session) Limits() Limits { return s.limits }

// CanEncrypt reports whether a sending chain exists.
func (s *Session) CanEncrypt() bool { return s.send != nil }

// Encrypt advances the sending chain by one and returns the header and
// message key for the next outgoing message.
func (s *Session) Encrypt() (Header, domain.MessageKey, error) {
	if s.send == nil {
		return Header{}, domain.MessageKey{}, domain.ErrSendingChainNotReady
	}
	h := Header{
		RatchetKey: append([]byte(nil), s.selfPub...),
		PN:         s.pn,
		N:          s.send.n,
	}
	return h, s.send.next(s.suite.KDF), nil
}

// Decrypt returns the message key for h. A header with a new ratchet key
// performs a DH-ratchet step first. Keys derived for skipped counters stay
// cached even if the caller later fails to authenticate the message.
func (s *Session) Decrypt(h Header) (domain.MessageKey, error) {
	if len(h.RatchetKey) == 0 {
		return domain.MessageKey{}, errors.Wrap(domain.ErrKeyRejected, "empty ratchet key")
	}
	if s.isCurrent(h.RatchetKey) {
		if h.N < s.recv.n {
			return s.skipped.take(h.RatchetKey, h.N)
		}
		if h.N-s.recv.n > s.limits.MaxSkip {
			return domain.MessageKey{}, domain.ErrTooManySkippedMessages
		}
		s.skipTo(h.N)
		return s.recv.next(s.suite.KDF), nil
	}
	if s.skipped.lookup(h.RatchetKey) != nil {
		return s.skipped.take(h.RatchetKey, h.N)
	}
	return s.step(h)
}

// DecryptVerified derives the message key for h and hands it to verify.
// A DH-ratchet step the header triggers runs on a copy of the session and is
// kept only when verify succeeds, so an unauthenticated ratchet key cannot
// move the root key. Headers on a known chain behave as in Decrypt.
func (s *Session) DecryptVerified(h Header, verify func(domain.MessageKey) error) error {
	if !s.stepsRatchet(h) {
		mk, err := s.Decrypt(h)
		if err != nil {
			return err
		}
		defer crypto.Wipe(mk[:])
		return verify(mk)
	}

	next := s.clone()
	mk, err := next.step(h)
	if err != nil {
		next.wipe()
		return err
	}
	defer crypto.Wipe(mk[:])
	if err := verify(mk); err != nil {
		next.wipe()
		return err
	}
	s.wipe()
	*s = *next
	return nil
}

// stepsRatchet reports whether h names a ratchet key the session has never
// seen.
func (s *Session) stepsRatchet(h Header) bool {
	return len(h.RatchetKey) > 0 && !s.isCurrent(h.RatchetKey) && s.skipped.lookup(h.RatchetKey) == nil
}

// clone copies every piece of state a DH-ratchet step mutates. Key pairs are
// replaced rather than modified and are shared.
func (s *Session) clone() *Session {
	c := *s
	if s.send != nil {
		send := *s.send
		c.send = &send
	}
	if s.recv != nil {
		recv := *s.recv
		c.recv = &recv
	}
	c.skipped = s.skipped.clone()
	return &c
}

// wipe zeroes the chain and root keys held by s.
func (s *Session) wipe() {
	crypto.Wipe(s.rootKey[:])
	if s.send != nil {
		crypto.Wipe(s.send.key[:])
	}
	if s.recv != nil {
		crypto.Wipe(s.recv.key[:])
	}
}

// InOrder reports whether h is exactly the next message the session
// expects: the next counter of the current receiving chain, or the first
// message of a new chain whose predecessor was fully received.
func (s *Session) InOrder(h Header) bool {
	if s.isCurrent(h.RatchetKey) {
		return h.N == s.recv.n
	}
	if s.skipped.lookup(h.RatchetKey) != nil {
		return false
	}
	var received uint32
	if s.recv != nil {
		received = s.recv.n
	}
	return h.N == 0 && h.PN == received
}

func (s *Session) isCurrent(key []byte) bool {
	return s.recv != nil && s.peer.Equal(crypto.UnparsedPublicKey(s.suite.ID.Curve, key))
}

// step performs a DH-ratchet step for a header carrying a new ratchet key.
// Everything that can fail runs before the session is modified.
func (s *Session) step(h Header) (domain.MessageKey, error) {
	var none domain.MessageKey

	peer, err := s.suite.Agreement.ParsePublicKey(s.suite.PublicKey(h.RatchetKey))
	if err != nil {
		return none, err
	}
	var skip uint64
	if s.recv != nil && h.PN > s.recv.n {
		skip = uint64(h.PN - s.recv.n)
	}
	if skip+uint64(h.N) > uint64(s.limits.MaxSkip) {
		return none, domain.ErrTooManySkippedMessages
	}

	dh1, err := s.suite.Agree(s.self, peer)
	if err != nil {
		return none, err
	}
	defer crypto.Wipe(dh1)
	rk1, ckr, err := kdfRK(s.suite.KDF, s.rootKey, dh1)
	if err != nil {
		return none, err
	}
	next, err := s.suite.GenerateKey()
	if err != nil {
		return none, errors.Wrap(err, "ratchet key")
	}
	dh2, err := s.suite.Agree(next, peer)
	if err != nil {
		return none, err
	}
	defer crypto.Wipe(dh2)
	rk2, cks, err := kdfRK(s.suite.KDF, rk1, dh2)
	crypto.Wipe(rk1[:])
	if err != nil {
		return none, err
	}

	if s.recv != nil {
		s.skipTo(h.PN)
		crypto.Wipe(s.recv.key[:])
	}
	s.pn = 0
	if s.send != nil {
		s.pn = s.send.n
		crypto.Wipe(s.send.key[:])
	}
	crypto.Wipe(s.rootKey[:])
	s.rootKey = rk2
	s.setSelf(next)
	s.peer = peer
	s.recv = &chain{key: ckr}
	s.send = &chain{key: cks}
	s.seq++
	s.skipped.open(s.seq, h.RatchetKey)

	s.skipTo(h.N)
	return s.recv.next(s.suite.KDF), nil
}

// skipTo caches the keys of the receiving chain up to, not including, n.
func (s *Session) skipTo(n uint32) {
	if s.recv.n >= n {
		return
	}
	g := s.skipped.lookup(s.peer.Bytes())
	for s.recv.n < n {
		c := s.recv.n
		s.skipped.put(g, c, s.recv.next(s.suite.KDF))
	}
}
