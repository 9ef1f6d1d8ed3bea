package ratchet

import (
	"sort"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"

	"e2ee/internal/crypto"
	"e2ee/internal/domain"
)

const stateVersion = 1

type sessionState struct {
	Version uint8             `cbor:"1,keyasint"`
	Suite   crypto.SuiteID    `cbor:"2,keyasint"`
	Limits  limitsState       `cbor:"3,keyasint"`
	AD      []byte            `cbor:"4,keyasint"`
	RootKey []byte            `cbor:"5,keyasint"`
	Self    []byte            `cbor:"6,keyasint"`
	Peer    []byte            `cbor:"7,keyasint,omitempty"`
	Send    *chainState       `cbor:"8,keyasint,omitempty"`
	Recv    *chainState       `cbor:"9,keyasint,omitempty"`
	PN      uint32            `cbor:"10,keyasint"`
	Seq     uint32            `cbor:"11,keyasint"`
	Skipped []generationState `cbor:"12,keyasint"`
}

type limitsState struct {
	MaxSkippedKeys        int    `cbor:"1,keyasint"`
	MaxSkippedGenerations int    `cbor:"2,keyasint"`
	MaxSkip               uint32 `cbor:"3,keyasint"`
}

type chainState struct {
	Key []byte `cbor:"1,keyasint"`
	N   uint32 `cbor:"2,keyasint"`
}

type generationState struct {
	Seq       uint32            `cbor:"1,keyasint"`
	Peer      []byte            `cbor:"2,keyasint"`
	Watermark uint32            `cbor:"3,keyasint"`
	Keys      map[uint32][]byte `cbor:"4,keyasint"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	if encMode, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(err)
	}
	if decMode, err = (cbor.DecOptions{DupMapKey: cbor.DupMapKeyEnforcedAPF}).DecMode(); err != nil {
		panic(err)
	}
}

// MarshalBinary encodes the whole session, including cached skipped keys.
// The output contains secrets.
func (s *Session) MarshalBinary() ([]byte, error) {
	st := sessionState{
		Version: stateVersion,
		Suite:   s.suite.ID,
		Limits: limitsState{
			MaxSkippedKeys:        s.limits.MaxSkippedKeys,
			MaxSkippedGenerations: s.limits.MaxSkippedGenerations,
			MaxSkip:               s.limits.MaxSkip,
		},
		AD:      s.ad,
		RootKey: s.rootKey[:],
		Self:    s.self.Bytes(),
		PN:      s.pn,
		Seq:     s.seq,
		Skipped: make([]generationState, 0, len(s.skipped.gens)),
	}
	defer crypto.Wipe(st.Self)
	if !s.peer.IsZero() {
		st.Peer = s.peer.Bytes()
	}
	if s.send != nil {
		st.Send = &chainState{Key: s.send.key[:], N: s.send.n}
	}
	if s.recv != nil {
		st.Recv = &chainState{Key: s.recv.key[:], N: s.recv.n}
	}
	for _, g := range s.skipped.gens {
		gs := generationState{
			Seq:       g.seq,
			Peer:      []byte(g.peer),
			Watermark: g.watermark,
			Keys:      make(map[uint32][]byte, len(g.keys)),
		}
		for n, mk := range g.keys {
			gs.Keys[n] = append([]byte(nil), mk[:]...)
		}
		st.Skipped = append(st.Skipped, gs)
	}
	return encMode.Marshal(st)
}

// Unmarshal restores a session written by MarshalBinary. Any inconsistency
// yields ErrSessionStateCorrupt and no session.
func Unmarshal(p *crypto.Provider, data []byte) (*Session, error) {
	var st sessionState
	if err := decMode.Unmarshal(data, &st); err != nil {
		return nil, errors.Wrap(domain.ErrSessionStateCorrupt, err.Error())
	}
	s, err := st.restore(p)
	if err != nil {
		return nil, errors.Wrap(domain.ErrSessionStateCorrupt, err.Error())
	}
	return s, nil
}

func (st *sessionState) restore(p *crypto.Provider) (*Session, error) {
	if st.Version != stateVersion {
		return nil, errors.Errorf("version %d", st.Version)
	}
	suite, err := p.Suite(st.Suite)
	if err != nil {
		return nil, err
	}
	limits := Limits{
		MaxSkippedKeys:        st.Limits.MaxSkippedKeys,
		MaxSkippedGenerations: st.Limits.MaxSkippedGenerations,
		MaxSkip:               st.Limits.MaxSkip,
	}
	if !limits.valid() {
		return nil, errors.New("limits")
	}
	if len(st.AD) == 0 {
		return nil, errors.New("associated data missing")
	}
	if len(st.RootKey) != domain.KeySize {
		return nil, errors.New("root key length")
	}
	if st.Skipped == nil {
		return nil, errors.New("skipped key cache missing")
	}

	s := &Session{suite: suite, limits: limits, ad: st.AD, pn: st.PN, seq: st.Seq}
	copy(s.rootKey[:], st.RootKey)

	self, err := suite.Agreement.NewPrivateKey(st.Self)
	if err != nil {
		return nil, errors.Wrap(err, "ratchet key")
	}
	s.setSelf(self)
	if len(st.Peer) > 0 {
		if s.peer, err = suite.Agreement.ParsePublicKey(suite.PublicKey(st.Peer)); err != nil {
			return nil, errors.Wrap(err, "peer ratchet key")
		}
	}

	if s.send, err = st.Send.restore(); err != nil {
		return nil, errors.Wrap(err, "sending chain")
	}
	if s.recv, err = st.Recv.restore(); err != nil {
		return nil, errors.Wrap(err, "receiving chain")
	}
	switch {
	case s.send == nil && (s.recv != nil || st.PN != 0):
		return nil, errors.New("receiving chain without sending chain")
	case s.send != nil && s.peer.IsZero():
		return nil, errors.New("sending chain without peer ratchet key")
	}

	s.skipped = newSkippedKeys(limits)
	var prev uint32
	for i, gs := range st.Skipped {
		if i > 0 && gs.Seq <= prev {
			return nil, errors.New("generations out of order")
		}
		if gs.Seq > st.Seq || len(gs.Peer) == 0 {
			return nil, errors.Errorf("generation %d", gs.Seq)
		}
		prev = gs.Seq
		g := &generation{seq: gs.Seq, peer: string(gs.Peer), watermark: gs.Watermark, keys: map[uint32]domain.MessageKey{}}
		for n, k := range gs.Keys {
			if len(k) != domain.KeySize {
				return nil, errors.Errorf("skipped key %d length", n)
			}
			var mk domain.MessageKey
			copy(mk[:], k)
			g.keys[n] = mk
		}
		s.skipped.gens = append(s.skipped.gens, g)
		s.skipped.count += len(g.keys)
	}
	if s.skipped.count > limits.MaxSkippedKeys || s.skipped.liveGenerations() > limits.MaxSkippedGenerations {
		return nil, errors.New("skipped key cache exceeds limits")
	}
	if s.recv != nil && !s.peer.IsZero() {
		g := s.skipped.lookup(s.peer.Bytes())
		if g == nil || g.seq != st.Seq {
			return nil, errors.New("current generation missing from cache")
		}
		for n := range g.keys {
			if n >= s.recv.n {
				return nil, errors.Errorf("skipped key %d not behind receiving chain at %d", n, s.recv.n)
			}
		}
	}
	return s, nil
}

func (c *chainState) restore() (*chain, error) {
	if c == nil {
		return nil, nil
	}
	if len(c.Key) != domain.KeySize {
		return nil, errors.New("chain key length")
	}
	ch := &chain{n: c.N}
	copy(ch.key[:], c.Key)
	return ch, nil
}

// SkippedKeys lists the cached (ratchet key, counter) pairs, oldest first.
// It exists for diagnostics; the keys themselves are not exposed.
func (s *Session) SkippedKeys() []SkippedKey {
	var out []SkippedKey
	for _, g := range s.skipped.gens {
		ns := make([]uint32, 0, len(g.keys))
		for n := range g.keys {
			ns = append(ns, n)
		}
		sort.Slice(ns, func(i, j int) bool { return ns[i] < ns[j] })
		for _, n := range ns {
			out = append(out, SkippedKey{RatchetKey: []byte(g.peer), N: n})
		}
	}
	return out
}

// SkippedKey names one cached message key.
type SkippedKey struct {
	RatchetKey []byte
	N          uint32
}
