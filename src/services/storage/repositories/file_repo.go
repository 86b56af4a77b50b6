package repositories

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"chatkit/src/models"
)

// FileRepository stores every key in one JSON object file.
type FileRepository struct {
	mu   sync.Mutex
	file string
}

func NewFileRepository(file string) *FileRepository {
	return &FileRepository{file: file}
}

func (r *FileRepository) readAll() (map[string]string, error) {
	data, err := os.ReadFile(r.file)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	values := map[string]string{}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	return values, nil
}

func (r *FileRepository) saveAll(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(r.file), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(r.file), ".store-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), r.file)
}

func (r *FileRepository) Get(key string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	values, err := r.readAll()
	if err != nil {
		return "", false, &models.StorageError{Op: "read", Key: key, Err: err}
	}
	v, ok := values[key]
	return v, ok, nil
}

func (r *FileRepository) Set(key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	values, err := r.readAll()
	if err != nil {
		// an unreadable file is replaced rather than blocking every write
		values = map[string]string{}
	}
	values[key] = value
	if err := r.saveAll(values); err != nil {
		return &models.StorageError{Op: "write", Key: key, Err: err}
	}
	return nil
}

func (r *FileRepository) Delete(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	values, err := r.readAll()
	if err != nil {
		return &models.StorageError{Op: "delete", Key: key, Err: err}
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	if err := r.saveAll(values); err != nil {
		return &models.StorageError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

func (r *FileRepository) Close() error { return nil }
