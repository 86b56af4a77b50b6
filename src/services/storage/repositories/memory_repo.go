package repositories

import "sync"

// MemoryRepository keeps values for the lifetime of the process.
type MemoryRepository struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{data: make(map[string]string)}
}

func (r *MemoryRepository) Get(key string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.data[key]
	return v, ok, nil
}

func (r *MemoryRepository) Set(key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[key] = value
	return nil
}

func (r *MemoryRepository) Delete(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, key)
	return nil
}

func (r *MemoryRepository) Close() error { return nil }
