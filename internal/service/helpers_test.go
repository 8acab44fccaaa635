package service

import (
	"bytes"
	"io"
	"sync"
	"testing"
	"time"

	"FileShelf/internal/codec"
	"FileShelf/internal/model"
	"FileShelf/internal/repo/memory"
)

// fakeClock — управляемые часы для тестов.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 12, 25, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// newTestShelf создаёт полку поверх чистого хранилища в памяти.
func newTestShelf(t *testing.T, limit int64) (*Shelf, *memory.Store, *fakeClock) {
	t.Helper()
	store := memory.New(0)
	clock := newFakeClock()
	s := NewShelf(store, Callbacks{}, Options{
		Quota:   &model.QuotaConfig{LimitBytes: limit},
		PageURL: "https://shelf.example/index.html",
		Now:     clock.Now,
	})
	return s, store, clock
}

// item — элемент загрузки из байтового среза.
func item(name string, data []byte) UploadItem {
	return UploadItem{
		Name: name,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

// record — готовая запись для прямого добавления в репозиторий.
func record(id, name, mime string, data []byte) model.FileRecord {
	return model.FileRecord{
		ID:             id,
		Name:           name,
		MimeType:       mime,
		SizeBytes:      int64(len(data)),
		EncodedContent: codec.Encode(mime, data),
		UploadedAt:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}
