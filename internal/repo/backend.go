package repo

import "errors"

// ErrStorageUnavailable — хранилище отклонило запись (чаще всего из-за исчерпания ёмкости).
var ErrStorageUnavailable = errors.New("storage unavailable")

// Backend — синхронное key/value хранилище строк. Транзакций нет:
// каждая запись полностью перезаписывает значение ключа.
type Backend interface {
	// Get возвращает значение ключа; ok=false, если ключа нет.
	Get(key string) (value string, ok bool, err error)

	// Set сохраняет значение. При отказе по ёмкости возвращает ошибку,
	// совместимую с ErrStorageUnavailable.
	Set(key, value string) error

	// Remove удаляет ключ; отсутствие ключа ошибкой не считается.
	Remove(key string) error
}

// Ключи, под которыми хранится состояние полки.
const (
	ActiveUserKey = "current_user"
	QuotaKey      = "custom_storage_limit"

	filesKeyPrefix = "user_files_"
)

// FilesKey возвращает ключ коллекции файлов пользователя.
func FilesKey(userID string) string {
	return filesKeyPrefix + userID
}
