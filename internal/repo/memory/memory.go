// Package memory — Backend в памяти процесса. Используется в тестах и как
// хранилище по умолчанию для STORE_DSN=memory.
package memory

import (
	"fmt"
	"sync"

	"FileShelf/internal/repo"
)

// Store хранит пары key/value в map. Если MaxBytes > 0, суммарная длина
// ключей и значений не может его превысить.
type Store struct {
	mu       sync.RWMutex
	data     map[string]string
	used     int64
	maxBytes int64

	// FailWrites заставляет Set отклонять любую запись (имитация недоступного хранилища).
	FailWrites bool
}

var _ repo.Backend = (*Store)(nil)

// New создаёт пустое хранилище.
func New(maxBytes int64) *Store {
	return &Store{data: make(map[string]string), maxBytes: maxBytes}
}

func (s *Store) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites {
		return fmt.Errorf("%w: writes disabled", repo.ErrStorageUnavailable)
	}
	used := s.used
	if old, ok := s.data[key]; ok {
		used -= int64(len(key) + len(old))
	}
	need := int64(len(key) + len(value))
	if s.maxBytes > 0 && used+need > s.maxBytes {
		return fmt.Errorf("%w: need %d bytes, %d of %d in use", repo.ErrStorageUnavailable, need, used, s.maxBytes)
	}
	s.data[key] = value
	s.used = used + need
	return nil
}

func (s *Store) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.data[key]; ok {
		s.used -= int64(len(key) + len(old))
		delete(s.data, key)
	}
	return nil
}

// Used возвращает занятый объём.
func (s *Store) Used() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.used
}
