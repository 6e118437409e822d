// Package bolt is a bbolt-backed storage.Store.
package bolt

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/petab-dev/petab/storage"

	bolt "go.etcd.io/bbolt"
)

type Storage struct {
	Debug    bool
	filename string
	db       *bolt.DB
}

func NewStorage(filename string) (*Storage, error) {
	return &Storage{
		filename: filename,
	}, nil
}

func (s *Storage) Open(ctx context.Context) error {
	opts := &bolt.Options{
		Timeout: time.Second,
	}

	db, err := bolt.Open(s.filename, 0644, opts)
	if err != nil {
		return err
	}
	s.db = db
	return nil
}

func (s *Storage) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Storage) logf(format string, args ...interface{}) {
	if s == nil {
		return
	}
	if s.Debug {
		log.Printf("BoltDB "+format, args...)
	}
}

func (s *Storage) Get(ctx context.Context, problem string, key []byte) (*storage.Entry, error) {
	if s == nil {
		return nil, nil
	}
	var entry *storage.Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(problem))
		if b == nil {
			return nil
		}
		bs := b.Get(key)
		if bs == nil {
			return nil
		}
		entry = &storage.Entry{}
		return json.Unmarshal(bs, entry)
	})
	if err != nil {
		return nil, err
	}
	s.logf("Get %s hit=%v", problem, entry != nil)
	return entry, nil
}

func (s *Storage) Put(ctx context.Context, problem string, key []byte, entry *storage.Entry) error {
	if s == nil {
		return nil
	}
	js, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	s.logf("Put %s %d bytes", problem, len(js))
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(problem))
		if err != nil {
			return err
		}
		return b.Put(key, js)
	})
}
