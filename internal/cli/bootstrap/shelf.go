package bootstrap

import (
	"fmt"
	"strings"

	"FileShelf/internal/config"
	"FileShelf/internal/model"
	"FileShelf/internal/repo"
	fsrepo "FileShelf/internal/repo/fs"
	"FileShelf/internal/repo/memory"
	"FileShelf/internal/service"

	"go.uber.org/zap"
)

// OpenBackend выбирает хранилище по cfg.StoreDSN и возвращает (backend, cleanup, error).
// cleanup необходимо вызвать после окончания работы, чтобы закрыть соединение с БД.
func OpenBackend(cfg *config.Config) (repo.Backend, func() error, error) {
	noop := func() error { return nil }
	dsn := strings.TrimSpace(cfg.StoreDSN)

	switch {
	case dsn == config.StoreMemory:
		return memory.New(cfg.StoreMaxBytes), noop, nil

	case strings.HasPrefix(dsn, config.StoreFSPrefix):
		dir := strings.TrimPrefix(dsn, config.StoreFSPrefix)
		if dir == "" {
			d, err := fsrepo.DefaultDir()
			if err != nil {
				return nil, nil, fmt.Errorf("store dir: %w", err)
			}
			dir = d
		}
		s, err := fsrepo.New(dir)
		if err != nil {
			return nil, nil, fmt.Errorf("open fs store: %w", err)
		}
		return s, noop, nil
	}

	db, err := repo.InitDB(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open store db: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("open store db: %w", err)
	}
	closed := false
	cleanup := func() error {
		if closed {
			return nil
		}
		closed = true
		return sqlDB.Close()
	}
	return repo.NewKVRepository(db, cfg.StoreMaxBytes), cleanup, nil
}

// QuotaConfig разбирает DEFAULT_LIMIT; некорректное значение заменяется лимитом по умолчанию.
func QuotaConfig(cfg *config.Config, logger *zap.SugaredLogger) *model.QuotaConfig {
	q := &model.QuotaConfig{LimitBytes: model.DefaultLimitBytes}
	if cfg.DefaultLimit == "" {
		return q
	}
	n, err := service.ParseLimit(cfg.DefaultLimit)
	if err != nil {
		logger.Warnw("invalid default limit, using 100 MiB", "value", cfg.DefaultLimit, "error", err)
		return q
	}
	q.LimitBytes = n
	return q
}

// OpenShelf открывает хранилище и собирает поверх него полку.
func OpenShelf(cfg *config.Config, cb service.Callbacks, logger *zap.SugaredLogger) (*service.Shelf, func() error, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	b, cleanup, err := OpenBackend(cfg)
	if err != nil {
		return nil, nil, err
	}
	shelf := service.NewShelf(b, cb, service.Options{
		Quota:   QuotaConfig(cfg, logger),
		PageURL: cfg.PageURL,
		Logger:  logger,
	})
	return shelf, cleanup, nil
}
