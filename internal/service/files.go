package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"FileShelf/internal/model"
	"FileShelf/internal/repo"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FileRepository — упорядоченная коллекция файлов активного пользователя.
//
// Рабочая копия коллекции держится в памяти только для текущего владельца:
// при смене активного пользователя она перечитывается из хранилища.
// Persist перезаписывает ключ целиком, без блокировок (last write wins).
type FileRepository struct {
	backend    repo.Backend
	identities *IdentityStore
	logger     *zap.SugaredLogger

	owner  string
	files  []model.FileRecord
	loaded bool
}

// NewFileRepository создаёт репозиторий поверх хранилища.
func NewFileRepository(b repo.Backend, identities *IdentityStore, logger *zap.SugaredLogger) *FileRepository {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &FileRepository{backend: b, identities: identities, logger: logger}
}

// load читает коллекцию владельца. Повреждённые данные дают пустую коллекцию.
func (r *FileRepository) load(owner string) error {
	raw, ok, err := r.backend.Get(repo.FilesKey(owner))
	if err != nil {
		return err
	}
	var files []model.FileRecord
	if ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &files); err != nil {
			r.logger.Warnw("malformed file collection treated as empty", "user_id", owner, "error", err)
			files = nil
		}
	}
	r.owner = owner
	r.files = files
	r.loaded = true
	return nil
}

// ensure возвращает id активного владельца и гарантирует, что рабочая копия — его.
func (r *FileRepository) ensure() (string, error) {
	owner, err := r.identities.activeID()
	if err != nil {
		return "", err
	}
	if !r.loaded || r.owner != owner {
		if err := r.load(owner); err != nil {
			return "", err
		}
	}
	return owner, nil
}

// List всегда перечитывает коллекцию из хранилища.
func (r *FileRepository) List() ([]model.FileRecord, error) {
	owner, err := r.identities.activeID()
	if err != nil {
		return nil, err
	}
	if err := r.load(owner); err != nil {
		return nil, err
	}
	return r.snapshot(), nil
}

// Records возвращает рабочую копию без перечитывания (включая ещё не сохранённые записи).
func (r *FileRepository) Records() ([]model.FileRecord, error) {
	if _, err := r.ensure(); err != nil {
		return nil, err
	}
	return r.snapshot(), nil
}

func (r *FileRepository) snapshot() []model.FileRecord {
	out := make([]model.FileRecord, len(r.files))
	copy(out, r.files)
	return out
}

// Search фильтрует коллекцию по подстроке в имени или MIME-типе без учёта регистра.
func (r *FileRepository) Search(term string) ([]model.FileRecord, error) {
	all, err := r.List()
	if err != nil {
		return nil, err
	}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return all, nil
	}
	res := make([]model.FileRecord, 0, len(all))
	for _, f := range all {
		if strings.Contains(strings.ToLower(f.Name), term) || strings.Contains(strings.ToLower(f.MimeType), term) {
			res = append(res, f)
		}
	}
	return res, nil
}

// Add добавляет запись в конец рабочей копии. Квоту не проверяет.
// OwnerID всегда выставляется равным активному пользователю.
func (r *FileRepository) Add(rec model.FileRecord) error {
	owner, err := r.ensure()
	if err != nil {
		return err
	}
	if rec.ID == "" {
		return fmt.Errorf("%w: empty file id", ErrValidation)
	}
	if rec.SizeBytes < 0 {
		return fmt.Errorf("%w: negative size for %q", ErrValidation, rec.Name)
	}
	for _, f := range r.files {
		if f.ID == rec.ID {
			return fmt.Errorf("%w: duplicate file id %q", ErrValidation, rec.ID)
		}
	}
	rec.OwnerID = owner
	rec.IsLarge = model.IsLargeSize(rec.SizeBytes)
	r.files = append(r.files, rec)
	return nil
}

// Remove удаляет первую запись с данным id. Отсутствие записи — не ошибка.
func (r *FileRepository) Remove(id string) (bool, error) {
	if _, err := r.ensure(); err != nil {
		return false, err
	}
	for i, f := range r.files {
		if f.ID == id {
			r.files = append(r.files[:i:i], r.files[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// Find ищет запись по id; nil, если нет.
func (r *FileRepository) Find(id string) (*model.FileRecord, error) {
	if _, err := r.ensure(); err != nil {
		return nil, err
	}
	for _, f := range r.files {
		if f.ID == id {
			rec := f
			return &rec, nil
		}
	}
	return nil, nil
}

// Persist перезаписывает ключ коллекции рабочей копией. При ошибке записи рабочая
// копия сбрасывается, чтобы следующая операция увидела то, что реально сохранено.
func (r *FileRepository) Persist() error {
	owner, err := r.ensure()
	if err != nil {
		return err
	}
	files := r.files
	if files == nil {
		files = []model.FileRecord{}
	}
	b, err := json.Marshal(files)
	if err != nil {
		return err
	}
	if err := r.backend.Set(repo.FilesKey(owner), string(b)); err != nil {
		r.loaded = false
		r.logger.Errorw("persist collection failed", "user_id", owner, "error", err)
		return fmt.Errorf("persist files: %w", err)
	}
	return nil
}

// Reset забывает рабочую копию (используется при выходе пользователя).
func (r *FileRepository) Reset() {
	r.owner = ""
	r.files = nil
	r.loaded = false
}

// newFileID генерирует id вида file_<unix ms>_<9 случайных символов>.
func newFileID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("file_%d_%s", now.UnixMilli(), suffix)
}
