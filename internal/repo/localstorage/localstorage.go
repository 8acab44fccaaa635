//go:build js && wasm

// Package localstorage — Backend поверх window.localStorage браузера.
package localstorage

import (
	"fmt"
	"syscall/js"

	"FileShelf/internal/repo"
)

// Store обращается к Storage-объекту браузера.
type Store struct {
	storage js.Value
}

var _ repo.Backend = (*Store)(nil)

// New возвращает хранилище поверх globalThis.localStorage.
func New() (*Store, error) {
	ls := js.Global().Get("localStorage")
	if ls.IsUndefined() || ls.IsNull() {
		return nil, fmt.Errorf("%w: localStorage is not available", repo.ErrStorageUnavailable)
	}
	return &Store{storage: ls}, nil
}

func (s *Store) Get(key string) (string, bool, error) {
	v := s.storage.Call("getItem", key)
	if v.IsNull() || v.IsUndefined() {
		return "", false, nil
	}
	return v.String(), true, nil
}

// Set перехватывает QuotaExceededError, который setItem бросает при нехватке места.
func (s *Store) Set(key, value string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", repo.ErrStorageUnavailable, r)
		}
	}()
	s.storage.Call("setItem", key, value)
	return nil
}

func (s *Store) Remove(key string) error {
	s.storage.Call("removeItem", key)
	return nil
}
