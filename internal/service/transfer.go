package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"FileShelf/internal/codec"
	"FileShelf/internal/model"

	"go.uber.org/zap"
)

// Transfer — экспорт коллекции в переносимый документ и слияние документа обратно.
type Transfer struct {
	identities *IdentityStore
	files      *FileRepository
	quota      *QuotaManager
	logger     *zap.SugaredLogger
	now        func() time.Time
}

// NewTransfer собирает движок импорта/экспорта.
func NewTransfer(identities *IdentityStore, files *FileRepository, quota *QuotaManager, logger *zap.SugaredLogger, now func() time.Time) *Transfer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if now == nil {
		now = time.Now
	}
	return &Transfer{identities: identities, files: files, quota: quota, logger: logger, now: now}
}

// Export возвращает все файлы активного пользователя. Ничего не меняет.
func (t *Transfer) Export() (*model.ExportDocument, error) {
	u, err := t.identities.Active()
	if err != nil {
		return nil, err
	}
	files, err := t.files.List()
	if err != nil {
		return nil, err
	}
	if files == nil {
		files = []model.FileRecord{}
	}
	return &model.ExportDocument{
		OwnerID:       u.UserID,
		DisplayName:   u.DisplayName,
		Files:         files,
		ExportedAt:    t.now().UTC(),
		FormatVersion: model.ExportFormatVersion,
	}, nil
}

// ImportMerge добавляет в активную коллекцию записи документа, которых ещё нет (по id).
//
// Квота проверяется один раз по суммарному фактическому размеру содержимого
// до любых изменений.
// Если документ принадлежит другому пользователю, нужен confirmForeign; nil
// считается отказом. Принятые записи переприсваиваются активному пользователю.
// Ошибка декодирования содержимого прерывает импорт: уже добавленные записи
// сохраняются, остальные пропускаются.
func (t *Transfer) ImportMerge(doc *model.ExportDocument, confirmForeign func(foreignOwnerID string) bool) (int, error) {
	if doc == nil || doc.Files == nil {
		return 0, fmt.Errorf("%w: files must be an array", ErrInvalidFormat)
	}
	u, err := t.identities.Active()
	if err != nil {
		return 0, err
	}
	if doc.OwnerID != "" && doc.OwnerID != u.UserID {
		if confirmForeign == nil || !confirmForeign(doc.OwnerID) {
			return 0, ErrImportDeclined
		}
		t.logger.Infow("importing foreign backup", "from", doc.OwnerID, "to", u.UserID)
	}

	// Размер записи берётся из содержимого, а не из поля size документа.
	// Декодирование идёт до первой ошибки: дальше записи всё равно не добавятся.
	var (
		accepted  []model.FileRecord
		decodeErr error
		incoming  int64
	)
	for _, f := range doc.Files {
		blob, err := codec.Decode(f.EncodedContent)
		if err != nil {
			decodeErr = fmt.Errorf("import %q: %w", f.Name, err)
			break
		}
		actual := int64(len(blob.Data))
		if f.SizeBytes != actual {
			t.logger.Warnw("declared size does not match content", "file", f.Name, "declared", f.SizeBytes, "actual", actual)
		}
		f.SizeBytes = actual
		if f.MimeType == "" {
			f.MimeType = blob.MimeType
		}
		incoming += actual
		accepted = append(accepted, f)
	}
	if err := t.quota.Check(incoming); err != nil {
		return 0, err
	}

	existing, err := t.files.Records()
	if err != nil {
		return 0, err
	}
	seen := make(map[string]struct{}, len(existing)+len(accepted))
	for _, f := range existing {
		seen[f.ID] = struct{}{}
	}

	added := 0
	stamp := t.now().UTC()
	for _, f := range accepted {
		if f.ID == "" {
			f.ID = newFileID(stamp)
		}
		if _, dup := seen[f.ID]; dup {
			continue
		}
		m := stamp
		f.LastModified = &m
		if err := t.files.Add(f); err != nil {
			return added, t.abortImport(added, err)
		}
		seen[f.ID] = struct{}{}
		added++
	}
	if decodeErr != nil {
		return added, t.abortImport(added, decodeErr)
	}

	if err := t.files.Persist(); err != nil {
		return 0, err
	}
	t.logger.Infow("import finished", "user_id", u.UserID, "added", added, "total", len(doc.Files))
	return added, nil
}

// abortImport сохраняет то, что уже было добавлено, и возвращает исходную ошибку.
func (t *Transfer) abortImport(added int, cause error) error {
	if added > 0 {
		if err := t.files.Persist(); err != nil {
			return fmt.Errorf("%w (saving partial import: %v)", cause, err)
		}
	}
	return cause
}

// MarshalDocument сериализует документ с отступами, как браузерная версия.
func MarshalDocument(doc *model.ExportDocument) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// ParseDocument разбирает резервную копию. Неизвестные поля игнорируются;
// отсутствие files или files не-массив — ErrInvalidFormat.
func ParseDocument(data []byte) (*model.ExportDocument, error) {
	var raw model.RawExportDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	files := bytes.TrimSpace(raw.Files)
	if len(files) == 0 || files[0] != '[' {
		return nil, fmt.Errorf("%w: files must be an array", ErrInvalidFormat)
	}
	doc := &model.ExportDocument{
		OwnerID:       raw.OwnerID,
		DisplayName:   raw.DisplayName,
		FormatVersion: raw.FormatVersion,
	}
	if err := json.Unmarshal(files, &doc.Files); err != nil {
		return nil, fmt.Errorf("%w: files: %v", ErrInvalidFormat, err)
	}
	if doc.Files == nil {
		doc.Files = []model.FileRecord{}
	}
	if ts, err := time.Parse(time.RFC3339, raw.ExportedAt); err == nil {
		doc.ExportedAt = ts
	}
	return doc, nil
}

// ExportFileName — имя файла резервной копии: file-backup-YYYY-MM-DD.json.
func ExportFileName(t time.Time) string {
	return "file-backup-" + t.UTC().Format("2006-01-02") + ".json"
}
