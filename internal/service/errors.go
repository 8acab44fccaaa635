package service

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
)

var (
	// ErrNoActiveIdentity: операция требует активного пользователя.
	ErrNoActiveIdentity = errors.New("no active identity: register first")
	// ErrValidation: некорректный пользовательский ввод.
	ErrValidation = errors.New("validation error")
	// ErrInvalidFormat: импортируемый документ повреждён или не того формата.
	ErrInvalidFormat = errors.New("invalid format")
	// ErrQuotaExceeded — запись превысит лимит. Конкретная ошибка: *QuotaExceededError.
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrFileNotFound: в активной коллекции нет файла с таким id.
	ErrFileNotFound = errors.New("file not found")
	// ErrImportDeclined: пользователь отказался импортировать чужую копию.
	ErrImportDeclined = errors.New("import of foreign backup declined")
)

// QuotaExceededError описывает нехватку места.
type QuotaExceededError struct {
	Used      int64
	Requested int64
	Limit     int64
}

// Shortfall: сколько байт не хватает.
func (e *QuotaExceededError) Shortfall() int64 {
	return e.Used + e.Requested - e.Limit
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded: short by %s (used %s, requested %s, limit %s)",
		humanize.IBytes(uint64(e.Shortfall())), humanize.IBytes(uint64(e.Used)),
		humanize.IBytes(uint64(e.Requested)), humanize.IBytes(uint64(e.Limit)))
}

// Is позволяет сравнивать через errors.Is(err, ErrQuotaExceeded).
func (e *QuotaExceededError) Is(target error) bool {
	return target == ErrQuotaExceeded
}
