package store

import (
	"encoding/json"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"e2ee/internal/crypto"
	"e2ee/internal/domain"
)

const sessionsFilename = "sessions.json"

// SessionFileStore persists per-peer session records to disk. Each record is
// sealed separately, bound to its peer name.
type SessionFileStore struct {
	dir    string
	params KDFParams
	mu     sync.Mutex
}

// NewSessionFileStore returns a SessionFileStore rooted at dir.
func NewSessionFileStore(dir string, params KDFParams) *SessionFileStore {
	return &SessionFileStore{dir: dir, params: params}
}

func sessionLabel(peer domain.Username) string { return "session:" + peer.String() }

// SaveSession writes a session record for rec.Peer.
func (s *SessionFileStore) SaveSession(passphrase string, rec domain.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	defer crypto.Wipe(raw)
	sealed, err := seal(passphrase, raw, sessionLabel(rec.Peer), s.params)
	if err != nil {
		return err
	}

	path := filepath.Join(s.dir, sessionsFilename)
	sessions := map[domain.Username]json.RawMessage{}
	if err := readJSON(path, &sessions); err != nil {
		return err
	}
	sessions[rec.Peer] = sealed
	return writeJSON(path, sessions, 0o600)
}

// LoadSession retrieves the stored session for peer.
func (s *SessionFileStore) LoadSession(passphrase string, peer domain.Username) (domain.SessionRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, sessionsFilename)
	sessions := map[domain.Username]json.RawMessage{}
	if err := readJSON(path, &sessions); err != nil {
		return domain.SessionRecord{}, false, err
	}
	sealed, ok := sessions[peer]
	if !ok {
		return domain.SessionRecord{}, false, nil
	}
	raw, err := open(passphrase, sealed, sessionLabel(peer))
	if err != nil {
		return domain.SessionRecord{}, false, err
	}
	defer crypto.Wipe(raw)
	var rec domain.SessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.SessionRecord{}, false, errors.Wrapf(err, "decode session %s", peer)
	}
	return rec, true, nil
}

// ListPeers returns the peers with a stored session, sorted.
func (s *SessionFileStore) ListPeers() ([]domain.Username, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := map[domain.Username]json.RawMessage{}
	if err := readJSON(filepath.Join(s.dir, sessionsFilename), &sessions); err != nil {
		return nil, err
	}
	peers := make([]domain.Username, 0, len(sessions))
	for p := range sessions {
		peers = append(peers, p)
	}
	sort.Slice(peers, func(i, j int) bool { return peers[i] < peers[j] })
	return peers, nil
}

// DeleteSession forgets the session with peer. Deleting an unknown peer is
// not an error.
func (s *SessionFileStore) DeleteSession(peer domain.Username) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, sessionsFilename)
	sessions := map[domain.Username]json.RawMessage{}
	if err := readJSON(path, &sessions); err != nil {
		return err
	}
	if _, ok := sessions[peer]; !ok {
		return nil
	}
	delete(sessions, peer)
	return writeJSON(path, sessions, 0o600)
}

// Compile-time assertion that SessionFileStore implements domain.SessionStore.
var _ domain.SessionStore = (*SessionFileStore)(nil)
