package store

import (
	"encoding/binary"
	"time"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"

	"e2ee/internal/domain"
)

// OpenBolt opens (creating if needed) the bolt database at path.
func OpenBolt(path string) (*bolt.DB, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	return db, nil
}

// Bolt is a KeyStorage backed by one bucket of a bolt database. Take runs in
// a single write transaction, which bolt serialises.
type Bolt struct {
	db     *bolt.DB
	bucket []byte
}

// NewBolt returns a Bolt store over bucket name, creating the bucket.
func NewBolt(db *bolt.DB, name string) (*Bolt, error) {
	s := &Bolt{db: db, bucket: []byte(name)}
	create := func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(s.bucket)
		return err
	}
	if err := db.Update(create); err != nil {
		return nil, errors.Wrapf(err, "create bucket %s", name)
	}
	return s, nil
}

// Keys are big-endian so that cursor order is numeric order.
func boltKey(id uint32) []byte {
	var k [4]byte
	binary.BigEndian.PutUint32(k[:], id)
	return k[:]
}

func (s *Bolt) Put(id uint32, value []byte) error {
	put := func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put(boltKey(id), value)
	}
	return s.db.Update(put)
}

func (s *Bolt) Get(id uint32) ([]byte, bool, error) {
	var out []byte
	get := func(tx *bolt.Tx) error {
		// Values are only valid inside the transaction.
		if v := tx.Bucket(s.bucket).Get(boltKey(id)); v != nil {
			out = append([]byte{}, v...)
		}
		return nil
	}
	if err := s.db.View(get); err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}

func (s *Bolt) Take(id uint32) ([]byte, bool, error) {
	var out []byte
	take := func(tx *bolt.Tx) error {
		bucket := tx.Bucket(s.bucket)
		v := bucket.Get(boltKey(id))
		if v == nil {
			return nil
		}
		out = append([]byte{}, v...)
		return bucket.Delete(boltKey(id))
	}
	if err := s.db.Update(take); err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}

func (s *Bolt) IDs() ([]uint32, error) {
	var ids []uint32
	list := func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).ForEach(func(k, _ []byte) error {
			if len(k) != 4 {
				return errors.Errorf("bucket %s: bad key %x", s.bucket, k)
			}
			ids = append(ids, binary.BigEndian.Uint32(k))
			return nil
		})
	}
	if err := s.db.View(list); err != nil {
		return nil, err
	}
	return ids, nil
}

// Compile-time assertion that Bolt implements domain.KeyStorage.
var _ domain.KeyStorage = (*Bolt)(nil)
