package store

import (
	"io"
	"path/filepath"

	"github.com/pkg/errors"
)

// Backend names a KeyStorage implementation.
type Backend string

const (
	BackendBolt   Backend = "bolt"
	BackendFiles  Backend = "files"
	BackendMemory Backend = "memory"
)

const (
	signedBucket  = "signed_prekeys"
	oneTimeBucket = "one_time_prekeys"
	boltFilename  = "prekeys.db"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenPreKeys opens the prekey storages for backend under dir. The returned
// closer releases the backend and must be called once the store is no longer
// used.
func OpenPreKeys(backend Backend, dir string) (*PreKeyStore, io.Closer, error) {
	switch backend {
	case BackendBolt:
		db, err := OpenBolt(filepath.Join(dir, boltFilename))
		if err != nil {
			return nil, nil, err
		}
		signed, err := NewBolt(db, signedBucket)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		oneTime, err := NewBolt(db, oneTimeBucket)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return NewPreKeyStore(signed, oneTime), db, nil
	case BackendFiles:
		return NewPreKeyStore(NewFiles(dir, signedBucket), NewFiles(dir, oneTimeBucket)), nopCloser{}, nil
	case BackendMemory:
		return NewPreKeyStore(NewMemory(), NewMemory()), nopCloser{}, nil
	default:
		return nil, nil, errors.Errorf("unknown storage backend %q", backend)
	}
}

// Stores bundles everything persisted under one home directory.
type Stores struct {
	Identity *IdentityFileStore
	PreKeys  *PreKeyStore
	Sessions *SessionFileStore
	closer   io.Closer
}

// Open opens all stores rooted at dir.
func Open(backend Backend, dir string, params KDFParams) (*Stores, error) {
	pk, closer, err := OpenPreKeys(backend, dir)
	if err != nil {
		return nil, err
	}
	return &Stores{
		Identity: NewIdentityFileStore(dir, params),
		PreKeys:  pk,
		Sessions: NewSessionFileStore(dir, params),
		closer:   closer,
	}, nil
}

// Close releases the prekey backend.
func (s *Stores) Close() error { return s.closer.Close() }
