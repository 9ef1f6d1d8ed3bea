package store

import (
	"sort"
	"sync"

	"e2ee/internal/domain"
)

// Memory is an in-process KeyStorage.
type Memory struct {
	mu sync.Mutex
	m  map[uint32][]byte
}

// NewMemory returns an empty Memory.
func NewMemory() *Memory {
	return &Memory{m: map[uint32][]byte{}}
}

func (s *Memory) Put(id uint32, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[id] = append([]byte(nil), value...)
	return nil
}

func (s *Memory) Get(id uint32) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[id]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *Memory) Take(id uint32) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[id]
	if !ok {
		return nil, false, nil
	}
	delete(s.m, id)
	return v, true, nil
}

func (s *Memory) IDs() ([]uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uint32, 0, len(s.m))
	for id := range s.m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Compile-time assertion that Memory implements domain.KeyStorage.
var _ domain.KeyStorage = (*Memory)(nil)
