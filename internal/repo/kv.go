package repo

import (
	"FileShelf/internal/model"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// InitDB открывает БД по строке подключения: postgres:// — PostgreSQL,
// иначе путь к файлу SQLite (modernc.org/sqlite, без cgo). Выполняет миграции.
func InitDB(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, errors.New("empty database dsn")
	}
	var dial gorm.Dialector
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		dial = postgres.Open(dsn)
	} else {
		if !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o700); err != nil {
				return nil, err
			}
		}
		dial = gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}
	}
	db, err := gorm.Open(dial, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&model.KVEntry{}); err != nil {
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	return db, nil
}

type kvRepo struct {
	db       *gorm.DB
	maxBytes int64
}

// NewKVRepository создаёт Backend поверх таблицы kv_entries.
// maxBytes > 0 ограничивает суммарный размер ключей и значений в байтах (как квота localStorage).
func NewKVRepository(db *gorm.DB, maxBytes int64) Backend {
	return &kvRepo{db: db, maxBytes: maxBytes}
}

func (r *kvRepo) Get(key string) (string, bool, error) {
	var e model.KVEntry
	err := r.db.Where("kv_key = ?", key).Take(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return e.Value, true, nil
}

func (r *kvRepo) Set(key, value string) error {
	need := int64(len(key) + len(value))
	if r.maxBytes > 0 {
		var used int64
		err := r.db.Model(&model.KVEntry{}).
			Where("kv_key <> ?", key).
			Select("COALESCE(SUM(kv_size), 0)").
			Scan(&used).Error
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		if used+need > r.maxBytes {
			return fmt.Errorf("%w: need %d bytes, %d of %d in use", ErrStorageUnavailable, need, used, r.maxBytes)
		}
	}
	e := &model.KVEntry{Key: key, Value: value, Size: need}
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "kv_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"kv_value", "kv_size", "updated_at"}),
	}).Create(e)
	if tx.Error != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, tx.Error)
	}
	return nil
}

func (r *kvRepo) Remove(key string) error {
	if err := r.db.Where("kv_key = ?", key).Delete(&model.KVEntry{}).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}
