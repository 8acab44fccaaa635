package model

import (
	"strings"
	"time"
)

// LargeFileThreshold — порог, после которого файл помечается как большой (20 MiB).
const LargeFileThreshold int64 = 20 * 1024 * 1024

// FileRecord — запись о файле в коллекции пользователя.
type FileRecord struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	MimeType       string     `json:"type"`
	SizeBytes      int64      `json:"size"`
	EncodedContent string     `json:"data"` // data URI: data:<mime>;base64,<payload>
	UploadedAt     time.Time  `json:"uploadTime"`
	OwnerID        string     `json:"userId"`
	IsLarge        bool       `json:"isLargeFile"`
	LastModified   *time.Time `json:"lastModified,omitempty"` // выставляется при импорте
}

// IsImage сообщает, что содержимое можно использовать как источник изображения.
func (f FileRecord) IsImage() bool {
	return strings.HasPrefix(f.MimeType, "image/")
}

// IsPreviewable — картинки и текст открываются в просмотре, остальное скачивается.
func (f FileRecord) IsPreviewable() bool {
	return f.IsImage() || strings.HasPrefix(f.MimeType, "text/")
}

// IsLargeSize проверяет размер относительно LargeFileThreshold.
func IsLargeSize(size int64) bool {
	return size > LargeFileThreshold
}
