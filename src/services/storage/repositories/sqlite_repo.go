package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"chatkit/src/models"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteRepository stores values in a preferences table.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, &models.StorageError{Op: "open", Key: path, Err: err}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, &models.StorageError{Op: "open", Key: path, Err: fmt.Errorf("failed to open database: %w", err)}
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS preferences (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`); err != nil {
		db.Close()
		return nil, &models.StorageError{Op: "migrate", Key: path, Err: err}
	}
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Get(key string) (string, bool, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &models.StorageError{Op: "read", Key: key, Err: err}
	}
	return value, true, nil
}

func (r *SQLiteRepository) Set(key, value string) error {
	_, err := r.db.Exec(`
		INSERT INTO preferences (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return &models.StorageError{Op: "write", Key: key, Err: err}
	}
	return nil
}

func (r *SQLiteRepository) Delete(key string) error {
	if _, err := r.db.Exec(`DELETE FROM preferences WHERE key = ?`, key); err != nil {
		return &models.StorageError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
