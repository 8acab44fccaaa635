// Package fs — файловое key/value хранилище: один файл на ключ в
// пользовательском конфиг-каталоге.
package fs

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"FileShelf/internal/repo"
)

// Store хранит значения в файлах каталога dir.
type Store struct {
	dir string
}

var _ repo.Backend = (*Store)(nil)

// DefaultDir возвращает <UserConfigDir>/FileShelf/kv.
func DefaultDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "FileShelf", "kv"), nil
}

// New создаёт каталог (0700) и возвращает хранилище.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("empty store dir")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

var safeKeyRe = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// keyPath отображает ключ в имя файла. Ключи с небезопасными символами
// кодируются в hex, чтобы не выйти за пределы каталога.
func (s *Store) keyPath(key string) (string, error) {
	if key == "" {
		return "", errors.New("empty key")
	}
	name := key
	if !safeKeyRe.MatchString(key) || key == "." || key == ".." {
		name = "x-" + hex.EncodeToString([]byte(key))
	}
	return filepath.Join(s.dir, name), nil
}

func (s *Store) Get(key string) (string, bool, error) {
	p, err := s.keyPath(key)
	if err != nil {
		return "", false, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(b), true, nil
}

// Set пишет во временный файл и переименовывает его, чтобы читатель не увидел
// наполовину записанное значение.
func (s *Store) Set(key, value string) error {
	p, err := s.keyPath(key)
	if err != nil {
		return err
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, []byte(value), 0o600); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: %v", repo.ErrStorageUnavailable, err)
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: %v", repo.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *Store) Remove(key string) error {
	p, err := s.keyPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %v", repo.ErrStorageUnavailable, err)
	}
	return nil
}
