package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"FileShelf/internal/model"
	"FileShelf/internal/repo"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// QuotaManager считает занятое место и решает, поместится ли запись.
// Лимит общий для процесса (не делится по пользователям) и хранится под QuotaKey.
type QuotaManager struct {
	backend repo.Backend
	files   *FileRepository
	cfg     *model.QuotaConfig
	logger  *zap.SugaredLogger
}

// Usage — снимок занятого места для отображения.
type Usage struct {
	UsedBytes  int64
	LimitBytes int64
	Percent    float64 // 0..100
}

func (u Usage) String() string {
	return fmt.Sprintf("%s/%s", humanize.IBytes(uint64(u.UsedBytes)), humanize.IBytes(uint64(u.LimitBytes)))
}

// NewQuotaManager загружает сохранённый лимит; если его нет или он повреждён,
// используется cfg.LimitBytes (или model.DefaultLimitBytes).
func NewQuotaManager(b repo.Backend, files *FileRepository, cfg *model.QuotaConfig, logger *zap.SugaredLogger) *QuotaManager {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if cfg == nil {
		cfg = &model.QuotaConfig{}
	}
	if cfg.LimitBytes <= 0 {
		cfg.LimitBytes = model.DefaultLimitBytes
	}
	q := &QuotaManager{backend: b, files: files, cfg: cfg, logger: logger}
	if raw, ok, err := b.Get(repo.QuotaKey); err != nil {
		logger.Warnw("read storage limit", "error", err)
	} else if ok {
		if v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil && v > 0 {
			cfg.LimitBytes = v
		} else {
			logger.Warnw("malformed storage limit ignored", "value", raw)
		}
	}
	return q
}

// Limit возвращает текущий лимит в байтах.
func (q *QuotaManager) Limit() int64 { return q.cfg.LimitBytes }

// UsedBytes — сумма размеров файлов активной коллекции.
func (q *QuotaManager) UsedBytes() (int64, error) {
	files, err := q.files.Records()
	if err != nil {
		return 0, err
	}
	var used int64
	for _, f := range files {
		used += f.SizeBytes
	}
	return used, nil
}

// Fits: used + additional <= limit.
func (q *QuotaManager) Fits(additional int64) (bool, error) {
	used, err := q.UsedBytes()
	if err != nil {
		return false, err
	}
	return used+additional <= q.cfg.LimitBytes, nil
}

// Check возвращает *QuotaExceededError, если additional байт не помещаются.
func (q *QuotaManager) Check(additional int64) error {
	used, err := q.UsedBytes()
	if err != nil {
		return err
	}
	if used+additional > q.cfg.LimitBytes {
		return &QuotaExceededError{Used: used, Requested: additional, Limit: q.cfg.LimitBytes}
	}
	return nil
}

// RequestIncrease устанавливает новый лимит. Отклоняет (false, без изменений)
// неположительные значения и значения меньше уже занятого места.
func (q *QuotaManager) RequestIncrease(newLimit int64) (bool, error) {
	if newLimit <= 0 {
		return false, nil
	}
	used, err := q.UsedBytes()
	if err != nil {
		return false, err
	}
	if newLimit < used {
		return false, nil
	}
	if err := q.backend.Set(repo.QuotaKey, strconv.FormatInt(newLimit, 10)); err != nil {
		return false, fmt.Errorf("save storage limit: %w", err)
	}
	q.logger.Infow("storage limit changed", "from", q.cfg.LimitBytes, "to", newLimit)
	q.cfg.LimitBytes = newLimit
	return true, nil
}

// Usage возвращает занятое место и процент заполнения (не больше 100).
func (q *QuotaManager) Usage() (Usage, error) {
	used, err := q.UsedBytes()
	if err != nil {
		return Usage{}, err
	}
	pct := float64(used) / float64(q.cfg.LimitBytes) * 100
	if pct > 100 {
		pct = 100
	}
	return Usage{UsedBytes: used, LimitBytes: q.cfg.LimitBytes, Percent: pct}, nil
}

const mib = 1 << 20

// ParseLimit разбирает ввод пользователя: число без единиц — мегабайты (MiB),
// иначе размер в формате go-humanize ("150MB", "1 GiB").
func ParseLimit(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty limit", ErrValidation)
	}
	if mb, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(mb) || math.IsInf(mb, 0) || mb <= 0 {
			return 0, fmt.Errorf("%w: limit must be a positive number", ErrValidation)
		}
		if mb > float64(math.MaxInt64/mib) {
			return 0, fmt.Errorf("%w: limit out of range", ErrValidation)
		}
		n := int64(mb * mib)
		if n < 1 {
			return 0, fmt.Errorf("%w: limit is less than one byte", ErrValidation)
		}
		return n, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a size", ErrValidation, s)
	}
	if n == 0 || n > uint64(1<<62) {
		return 0, fmt.Errorf("%w: limit out of range", ErrValidation)
	}
	return int64(n), nil
}
