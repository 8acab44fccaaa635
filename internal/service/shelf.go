package service

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"FileShelf/internal/codec"
	"FileShelf/internal/model"
	"FileShelf/internal/repo"

	"go.uber.org/zap"
)

// QuotaDecision: ответ пользователя на нехватку места.
type QuotaDecision struct {
	Abandon       bool
	NewLimitBytes int64
}

// Abandon: отказаться от загрузки.
func Abandon() QuotaDecision { return QuotaDecision{Abandon: true} }

// RaiseLimit: попробовать установить новый лимит.
func RaiseLimit(n int64) QuotaDecision { return QuotaDecision{NewLimitBytes: n} }

// Callbacks: точки взаимодействия с интерфейсом. Любое поле может быть nil:
// тогда нехватка места означает отказ, а импорт чужой копии отклоняется.
type Callbacks struct {
	OnUploadProgress func(current, total int, fileName string)
	OnUploadComplete func(count int)
	OnUploadError    func(fileName string, err error)
	OnQuotaExceeded  func(used, requested, limit int64) QuotaDecision
	OnImportConflict func(foreignOwnerID string) bool
}

// UploadItem: файл, который нужно загрузить. Open вызывается один раз,
// когда до файла доходит очередь.
type UploadItem struct {
	Name     string
	MimeType string // пусто — определить по расширению
	Size     int64  // заявленный размер для предварительной проверки квоты
	Open     func() (io.ReadCloser, error)
}

// Shelf связывает компоненты полки и сериализует обращения к ним.
type Shelf struct {
	mu sync.Mutex

	identities *IdentityStore
	files      *FileRepository
	quota      *QuotaManager
	transfer   *Transfer
	links      *LinkGenerator

	cb     Callbacks
	logger *zap.SugaredLogger
	now    func() time.Time
}

// Options: общие для процесса настройки полки.
type Options struct {
	Quota   *model.QuotaConfig
	PageURL string
	Logger  *zap.SugaredLogger
	Now     func() time.Time
}

// NewShelf собирает полку поверх хранилища.
func NewShelf(b repo.Backend, cb Callbacks, opts Options) *Shelf {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	ids := NewIdentityStore(b, logger, now)
	files := NewFileRepository(b, ids, logger)
	quota := NewQuotaManager(b, files, opts.Quota, logger)
	return &Shelf{
		identities: ids,
		files:      files,
		quota:      quota,
		transfer:   NewTransfer(ids, files, quota, logger, now),
		links:      NewLinkGenerator(files, opts.PageURL),
		cb:         cb,
		logger:     logger,
		now:        now,
	}
}

// SetCallbacks заменяет обработчики интерфейса.
func (s *Shelf) SetCallbacks(cb Callbacks) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cb = cb
}

// Register создаёт пользователя и делает его активным.
func (s *Shelf) Register(displayName, secret string) (*model.UserIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.identities.Register(displayName, secret)
	if err != nil {
		return nil, err
	}
	s.files.Reset()
	return u, nil
}

// Current возвращает активного пользователя (обновляя lastSeenAt) или nil.
func (s *Shelf) Current() *model.UserIdentity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identities.LoadActive()
}

// Logout снимает активного пользователя. Файлы остаются в хранилище.
func (s *Shelf) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.identities.ClearActive(); err != nil {
		return err
	}
	s.files.Reset()
	return nil
}

// List возвращает файлы активного пользователя в порядке добавления.
func (s *Shelf) List() ([]model.FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.files.List()
}

// Refresh забывает рабочую копию и перечитывает коллекцию из хранилища.
func (s *Shelf) Refresh() ([]model.FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files.Reset()
	return s.files.List()
}

// Search фильтрует по имени и типу.
func (s *Shelf) Search(term string) ([]model.FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.files.Search(term)
}

// Usage: занятое место и лимит.
func (s *Shelf) Usage() (Usage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.files.List(); err != nil {
		return Usage{}, err
	}
	return s.quota.Usage()
}

// RequestIncrease меняет общий лимит.
func (s *Shelf) RequestIncrease(newLimit int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.files.List(); err != nil {
		return false, err
	}
	return s.quota.RequestIncrease(newLimit)
}

// Upload загружает файлы по очереди. Суммарный заявленный размер проверяется
// заранее; при нехватке места вызывается OnQuotaExceeded. Ошибка чтения файла
// прерывает пакет, но уже добавленные файлы сохраняются.
func (s *Shelf) Upload(items []UploadItem) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.files.List(); err != nil {
		return 0, err
	}
	var total int64
	for _, it := range items {
		if it.Size < 0 {
			return 0, fmt.Errorf("%w: negative size for %q", ErrValidation, it.Name)
		}
		total += it.Size
	}
	if err := s.negotiate(total); err != nil {
		return 0, err
	}

	added := 0
	for i, it := range items {
		if s.cb.OnUploadProgress != nil {
			s.cb.OnUploadProgress(i+1, len(items), it.Name)
		}
		rec, err := s.readItem(it)
		if err == nil {
			// фактический размер мог отличаться от заявленного
			err = s.quota.Check(rec.SizeBytes)
		}
		if err == nil {
			err = s.files.Add(rec)
		}
		if err != nil {
			if s.cb.OnUploadError != nil {
				s.cb.OnUploadError(it.Name, err)
			}
			s.logger.Warnw("upload aborted", "file", it.Name, "added", added, "error", err)
			if added > 0 {
				if perr := s.files.Persist(); perr != nil {
					return 0, errors.Join(err, perr)
				}
			}
			return added, err
		}
		added++
	}

	if err := s.files.Persist(); err != nil {
		if s.cb.OnUploadError != nil {
			s.cb.OnUploadError("", err)
		}
		return 0, err
	}
	s.logger.Infow("upload finished", "count", added)
	if s.cb.OnUploadComplete != nil {
		s.cb.OnUploadComplete(added)
	}
	return added, nil
}

// negotiate проверяет квоту и при нехватке один раз спрашивает пользователя.
func (s *Shelf) negotiate(requested int64) error {
	err := s.quota.Check(requested)
	var qe *QuotaExceededError
	if !errors.As(err, &qe) {
		return err
	}
	if s.cb.OnQuotaExceeded == nil {
		return qe
	}
	d := s.cb.OnQuotaExceeded(qe.Used, qe.Requested, qe.Limit)
	if d.Abandon {
		return qe
	}
	ok, err := s.quota.RequestIncrease(d.NewLimitBytes)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: rejected limit %d", ErrValidation, d.NewLimitBytes)
	}
	return s.quota.Check(requested)
}

func (s *Shelf) readItem(it UploadItem) (model.FileRecord, error) {
	if it.Open == nil {
		return model.FileRecord{}, fmt.Errorf("read %s: no content", it.Name)
	}
	rc, err := it.Open()
	if err != nil {
		return model.FileRecord{}, fmt.Errorf("read %s: %w", it.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return model.FileRecord{}, fmt.Errorf("read %s: %w", it.Name, err)
	}
	mt := it.MimeType
	if mt == "" {
		mt = codec.DetectMIME(it.Name)
	}
	now := s.now()
	return model.FileRecord{
		ID:             newFileID(now),
		Name:           it.Name,
		MimeType:       mt,
		SizeBytes:      int64(len(data)),
		EncodedContent: codec.Encode(mt, data),
		UploadedAt:     now.UTC(),
		IsLarge:        model.IsLargeSize(int64(len(data))),
	}, nil
}

// Download возвращает запись и её декодированное содержимое.
func (s *Shelf) Download(id string) (*model.FileRecord, codec.Blob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.files.List(); err != nil {
		return nil, codec.Blob{}, err
	}
	rec, err := s.files.Find(id)
	if err != nil {
		return nil, codec.Blob{}, err
	}
	if rec == nil {
		return nil, codec.Blob{}, fmt.Errorf("%w: %s", ErrFileNotFound, id)
	}
	blob, err := codec.Decode(rec.EncodedContent)
	if err != nil {
		return nil, codec.Blob{}, err
	}
	return rec, blob, nil
}

// Delete удаляет файл и сохраняет коллекцию. false: файла не было.
func (s *Shelf) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.files.List(); err != nil {
		return false, err
	}
	removed, err := s.files.Remove(id)
	if err != nil || !removed {
		return removed, err
	}
	if err := s.files.Persist(); err != nil {
		return false, err
	}
	return true, nil
}

// Export возвращает резервную копию файлов активного пользователя.
func (s *Shelf) Export() (*model.ExportDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transfer.Export()
}

// Import разбирает резервную копию и сливает её с активной коллекцией.
func (s *Shelf) Import(data []byte) (int, error) {
	doc, err := ParseDocument(data)
	if err != nil {
		return 0, err
	}
	return s.ImportDocument(doc)
}

// ImportDocument сливает уже разобранный документ.
func (s *Shelf) ImportDocument(doc *model.ExportDocument) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.files.List(); err != nil {
		return 0, err
	}
	return s.transfer.ImportMerge(doc, s.cb.OnImportConflict)
}

// PermanentLink: ссылка на файл (data URI для изображений).
func (s *Shelf) PermanentLink(id string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.files.List(); err != nil {
		return "", false, err
	}
	return s.links.PermanentLink(id)
}

// ResolveShared разбирает параметры open/name входящей ссылки.
func (s *Shelf) ResolveShared(q url.Values) (*SharedLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.files.List(); err != nil {
		return nil, err
	}
	return s.links.ResolveShared(q)
}
