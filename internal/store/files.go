package store

import (
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"

	"e2ee/internal/domain"
)

// Files is a KeyStorage kept in a single JSON file. Every operation holds the
// store's mutex and an exclusive lock on a sibling .lock file, so Take stays
// atomic across processes sharing the directory. Mutations rewrite the file
// atomically.
type Files struct {
	path string
	mu   sync.Mutex
	lock *flock.Flock
}

// NewFiles returns a Files store for namespace name under dir.
func NewFiles(dir, name string) *Files {
	path := filepath.Join(dir, name+".json")
	return &Files{path: path, lock: flock.New(path + ".lock")}
}

func (s *Files) locked(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	if err := s.lock.Lock(); err != nil {
		return errors.Wrapf(err, "lock %s", filepath.Base(s.path))
	}
	defer func() { _ = s.lock.Unlock() }()
	return fn()
}

func (s *Files) load() (map[uint32][]byte, error) {
	m := map[uint32][]byte{}
	if err := readJSON(s.path, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Put stores value under id.
func (s *Files) Put(id uint32, value []byte) error {
	return s.locked(func() error {
		m, err := s.load()
		if err != nil {
			return err
		}
		m[id] = value
		return writeJSON(s.path, m, 0o600)
	})
}

// Get returns the value stored under id.
func (s *Files) Get(id uint32) (v []byte, ok bool, err error) {
	err = s.locked(func() error {
		m, err := s.load()
		if err != nil {
			return err
		}
		v, ok = m[id]
		return nil
	})
	return v, ok, err
}

// Take removes and returns the value stored under id. The removal is on disk
// before the value is returned.
func (s *Files) Take(id uint32) (v []byte, ok bool, err error) {
	err = s.locked(func() error {
		m, err := s.load()
		if err != nil {
			return err
		}
		if v, ok = m[id]; !ok {
			return nil
		}
		delete(m, id)
		return writeJSON(s.path, m, 0o600)
	})
	if err != nil {
		return nil, false, err
	}
	return v, ok, nil
}

// IDs lists stored ids in ascending order.
func (s *Files) IDs() (ids []uint32, err error) {
	err = s.locked(func() error {
		m, err := s.load()
		if err != nil {
			return err
		}
		ids = make([]uint32, 0, len(m))
		for id := range m {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		return nil
	})
	return ids, err
}

// Compile-time assertion that Files implements domain.KeyStorage.
var _ domain.KeyStorage = (*Files)(nil)
