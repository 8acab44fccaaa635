package model

// DefaultLimitBytes — лимит хранилища по умолчанию (100 MiB).
const DefaultLimitBytes int64 = 100 * 1024 * 1024

// QuotaConfig — общий для процесса лимит суммарного размера файлов.
type QuotaConfig struct {
	LimitBytes int64
}
