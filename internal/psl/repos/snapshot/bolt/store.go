package bolt

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/haukened/rr-psl/internal/psl/repos/snapshot"
)

var (
	bucketSources = []byte("sources")

	keyText    = []byte("text")
	keyLines   = []byte("lines")
	keyVersion = []byte("version")
	keyUpdated = []byte("updated")
)

// boltStore implements snapshot.Store using bbolt. Each source gets a nested
// bucket under "sources" holding the joined text and its metadata.
type boltStore struct {
	db *bbolt.DB
}

// New opens (or creates) a Bolt database at path and ensures buckets exist.
func New(path string) (snapshot.Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSources)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &boltStore{db: db}, nil
}

func (s *boltStore) Close() error { return s.db.Close() }

// Save replaces the snapshot for s.Source in a single transaction.
func (s *boltStore) Save(snap snapshot.Snapshot) (snapshot.Snapshot, error) {
	if snap.Source == "" {
		return snapshot.Snapshot{}, fmt.Errorf("snapshot source must not be empty")
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.Bucket(bucketSources).CreateBucketIfNotExists([]byte(snap.Source))
		if err != nil {
			return err
		}
		snap.Version = getUint64(b, keyVersion) + 1
		if err := b.Put(keyText, []byte(strings.Join(snap.Lines, "\n"))); err != nil {
			return err
		}
		if err := b.Put(keyLines, putUint64(uint64(len(snap.Lines)))); err != nil {
			return err
		}
		if err := b.Put(keyVersion, putUint64(snap.Version)); err != nil {
			return err
		}
		return b.Put(keyUpdated, putUint64(uint64(snap.UpdatedUnix)))
	})
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	return snap, nil
}

func (s *boltStore) Load(source string) (snapshot.Snapshot, error) {
	out := snapshot.Snapshot{Source: source}
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSources).Bucket([]byte(source))
		if b == nil {
			return snapshot.ErrNotFound
		}
		text := b.Get(keyText)
		if text == nil {
			return snapshot.ErrNotFound
		}
		// text is only valid for the life of the transaction; string() copies it.
		out.Lines = strings.Split(string(text), "\n")
		out.Version = getUint64(b, keyVersion)
		out.UpdatedUnix = int64(getUint64(b, keyUpdated))
		return nil
	})
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	return out, nil
}

func (s *boltStore) Stats() snapshot.StoreStats {
	st := snapshot.StoreStats{}
	_ = s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSources).ForEachBucket(func(k []byte) error {
			st.Sources++
			st.TotalLines += getUint64(tx.Bucket(bucketSources).Bucket(k), keyLines)
			return nil
		})
	})
	return st
}

func getUint64(b *bbolt.Bucket, key []byte) uint64 {
	if v := b.Get(key); len(v) == 8 {
		return binary.BigEndian.Uint64(v)
	}
	return 0
}

func putUint64(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

var _ snapshot.Store = (*boltStore)(nil)
