// Package localstorage is a small persistent key/value store for client-local settings
// that outlive a session, e.g. the host origin override.
package localstorage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

// KeyServer holds the origin of the host that overrides the configured address.
const KeyServer = "server"

var bucket = []byte("settings")

// ErrNotFound is returned by Get if the key doesn't exist.
var ErrNotFound = errors.New("key not found")

type Storage interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
	Close() error
}

type boltStorage struct {
	db *bbolt.DB
}

// New opens or creates the database file at path.
func New(path string) (Storage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{
		Timeout: time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &boltStorage{db: db}, nil
}

func (s *boltStorage) Get(key string) (string, error) {
	var value string

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucket).Get([]byte(key))
		if data == nil {
			return ErrNotFound
		}

		value = string(data)

		return nil
	})

	return value, err
}

func (s *boltStorage) Set(key, value string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), []byte(value))
	})
}

// Delete removes the key. Deleting a missing key is not an error.
func (s *boltStorage) Delete(key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).Delete([]byte(key))
	})
}

func (s *boltStorage) Close() error {
	return s.db.Close()
}

// ResolveOrigin returns the origin override if one is stored, otherwise the fallback.
func ResolveOrigin(s Storage, fallback string) (string, error) {
	if s == nil {
		return fallback, nil
	}

	origin, err := s.Get(KeyServer)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fallback, nil
		}

		return "", err
	}

	if len(origin) == 0 {
		return fallback, nil
	}

	return origin, nil
}
