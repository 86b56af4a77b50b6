package repositories

import (
	"errors"
	"os"
	"path/filepath"

	"chatkit/src/models"

	"github.com/cockroachdb/pebble"
)

// PebbleRepository stores values in a pebble LSM directory.
type PebbleRepository struct {
	db *pebble.DB
}

func NewPebbleRepository(dir string) (*PebbleRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dir), 0700); err != nil {
		return nil, &models.StorageError{Op: "open", Key: dir, Err: err}
	}
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, &models.StorageError{Op: "open", Key: dir, Err: err}
	}
	return &PebbleRepository{db: db}, nil
}

func (r *PebbleRepository) Get(key string) (string, bool, error) {
	v, closer, err := r.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &models.StorageError{Op: "read", Key: key, Err: err}
	}
	defer closer.Close()
	// v is only valid until closer is closed
	return string(append([]byte(nil), v...)), true, nil
}

func (r *PebbleRepository) Set(key, value string) error {
	if err := r.db.Set([]byte(key), []byte(value), pebble.Sync); err != nil {
		return &models.StorageError{Op: "write", Key: key, Err: err}
	}
	return nil
}

func (r *PebbleRepository) Delete(key string) error {
	if err := r.db.Delete([]byte(key), pebble.Sync); err != nil {
		return &models.StorageError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

func (r *PebbleRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}
