package db

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.etcd.io/bbolt"
)

var sessionBucket = []byte("session")

// BoltStore implements KeyValueRepository on top of a BBolt file.
type BoltStore struct {
	db *bbolt.DB
}

var _ KeyValueRepository = (*BoltStore)(nil)

// NewBoltStore wraps an open BBolt database, creating the session bucket if needed.
func NewBoltStore(db *bbolt.DB) (*BoltStore, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionBucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating session bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// OpenBoltStore opens (or creates) the BBolt file at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	if err := createDBDirectory(path); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	store, err := NewBoltStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info().Str("path", path).Msg("Bolt store opened successfully")
	return store, nil
}

// Close closes the underlying BBolt database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) Get(_ context.Context, key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(sessionBucket).Get([]byte(key))
		if data != nil {
			value, found = string(data), true
		}
		return nil
	})
	return value, found, err
}

func (s *BoltStore) Set(_ context.Context, key, value string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(sessionBucket).Put([]byte(key), []byte(value))
	})
}

func (s *BoltStore) Remove(_ context.Context, key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(sessionBucket).Delete([]byte(key))
	})
}
