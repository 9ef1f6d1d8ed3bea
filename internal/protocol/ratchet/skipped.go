package ratchet

import (
	"e2ee/internal/crypto"
	"e2ee/internal/domain"
)

// historyLimit is how many peer ratchet keys are remembered. A header naming
// a remembered key never triggers a DH-ratchet step.
const historyLimit = 64

// generation holds the skipped keys of one receiving chain.
type generation struct {
	seq  uint32
	peer string
	keys map[uint32]domain.MessageKey
	// watermark is one past the highest evicted counter. A missing key below
	// it expired; a missing key at or above it was already used.
	watermark uint32
}

// skippedKeys is the bounded cache of message keys derived for messages that
// have not arrived yet, ordered oldest generation first.
type skippedKeys struct {
	maxKeys int
	maxGens int
	gens    []*generation
	count   int
}

func newSkippedKeys(l Limits) *skippedKeys {
	return &skippedKeys{maxKeys: l.MaxSkippedKeys, maxGens: l.MaxSkippedGenerations}
}

func (s *skippedKeys) lookup(peer []byte) *generation {
	for i := len(s.gens) - 1; i >= 0; i-- {
		if s.gens[i].peer == string(peer) {
			return s.gens[i]
		}
	}
	return nil
}

// open starts tracking a new peer ratchet key.
func (s *skippedKeys) open(seq uint32, peer []byte) *generation {
	g := &generation{seq: seq, peer: string(peer), keys: map[uint32]domain.MessageKey{}}
	s.gens = append(s.gens, g)
	s.trimHistory()
	return g
}

func (s *skippedKeys) clone() *skippedKeys {
	c := *s
	c.gens = make([]*generation, len(s.gens))
	for i, g := range s.gens {
		cg := *g
		cg.keys = make(map[uint32]domain.MessageKey, len(g.keys))
		for n, mk := range g.keys {
			cg.keys[n] = mk
		}
		c.gens[i] = &cg
	}
	return &c
}

// put caches mk and evicts until both bounds hold.
func (s *skippedKeys) put(g *generation, n uint32, mk domain.MessageKey) {
	g.keys[n] = mk
	s.count++
	for s.count > s.maxKeys {
		s.evictOldestKey()
	}
	for s.liveGenerations() > s.maxGens {
		s.evictOldestGeneration()
	}
}

// take returns and deletes the key for (peer, n).
func (s *skippedKeys) take(peer []byte, n uint32) (domain.MessageKey, error) {
	g := s.lookup(peer)
	if g == nil {
		return domain.MessageKey{}, domain.ErrDuplicateMessage
	}
	mk, ok := g.keys[n]
	if !ok {
		if n < g.watermark {
			return mk, domain.ErrMessageKeyExpired
		}
		return mk, domain.ErrDuplicateMessage
	}
	delete(g.keys, n)
	s.count--
	return mk, nil
}

func (s *skippedKeys) liveGenerations() int {
	n := 0
	for _, g := range s.gens {
		if len(g.keys) > 0 {
			n++
		}
	}
	return n
}

func (s *skippedKeys) evictOldestKey() {
	for _, g := range s.gens {
		if len(g.keys) == 0 {
			continue
		}
		first := true
		var lowest uint32
		for n := range g.keys {
			if first || n < lowest {
				lowest, first = n, false
			}
		}
		s.evict(g, lowest)
		return
	}
}

func (s *skippedKeys) evictOldestGeneration() {
	for _, g := range s.gens {
		if len(g.keys) == 0 {
			continue
		}
		for n := range g.keys {
			s.evict(g, n)
		}
		return
	}
}

func (s *skippedKeys) evict(g *generation, n uint32) {
	mk := g.keys[n]
	crypto.Wipe(mk[:])
	delete(g.keys, n)
	s.count--
	if n+1 > g.watermark {
		g.watermark = n + 1
	}
}

// trimHistory forgets the oldest generations that hold no keys once more
// than historyLimit are remembered.
func (s *skippedKeys) trimHistory() {
	limit := historyLimit
	if s.maxGens+1 > limit {
		limit = s.maxGens + 1
	}
	for len(s.gens) > limit {
		drop := -1
		for i, g := range s.gens {
			if len(g.keys) == 0 {
				drop = i
				break
			}
		}
		if drop < 0 {
			return
		}
		s.gens = append(s.gens[:drop], s.gens[drop+1:]...)
	}
}
