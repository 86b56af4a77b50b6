// Package storage provides the durable key-value store behind chat sessions and
// appearance preferences.
package storage

import (
	"fmt"
	"path/filepath"

	"chatkit/src/config"
	"chatkit/src/models"
	"chatkit/src/services/storage/repositories"
)

// KVStore is a string key-value store. Writes are whole-value overwrites; the
// last writer wins.
type KVStore interface {
	Get(key string) (value string, found bool, err error)
	Set(key, value string) error
	Delete(key string) error
	Close() error
}

// Keys derives the namespaced keys for a storage prefix.
type Keys struct {
	Prefix string
}

// Data is the key of the chat session blob.
func (k Keys) Data() string { return k.Prefix + "-data" }

// Theme is the key of the persisted theme preference.
func (k Keys) Theme() string { return k.Prefix + "-theme" }

// Open creates the store for backend, placing its files under dir.
func Open(backend, dir string) (KVStore, error) {
	switch backend {
	case config.BackendMemory:
		return repositories.NewMemoryRepository(), nil
	case config.BackendFile, "":
		return repositories.NewFileRepository(filepath.Join(dir, "store.json")), nil
	case config.BackendPebble:
		return repositories.NewPebbleRepository(filepath.Join(dir, "pebble"))
	case config.BackendSQLite:
		return repositories.NewSQLiteRepository(filepath.Join(dir, "chatkit.db"))
	default:
		return nil, &models.ValidationError{Problems: []string{fmt.Sprintf("unknown storage backend %q", backend)}}
	}
}
