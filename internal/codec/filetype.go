package codec

import (
	"mime"
	"path/filepath"
	"strings"
)

// Category — группа типов файлов для отображения.
type Category string

const (
	CategoryImage    Category = "image"
	CategoryVideo    Category = "video"
	CategoryAudio    Category = "audio"
	CategoryDocument Category = "document"
	CategoryArchive  Category = "archive"
	CategoryOther    Category = "other"
)

// fileTypes — таблица расширений по категориям.
var fileTypes = map[Category][]string{
	CategoryImage:    {"jpg", "jpeg", "png", "gif", "bmp", "webp", "svg"},
	CategoryVideo:    {"mp4", "avi", "mov", "wmv", "flv", "mkv"},
	CategoryAudio:    {"mp3", "wav", "ogg"},
	CategoryDocument: {"pdf", "doc", "docx", "xls", "xlsx", "ppt", "pptx", "txt"},
	CategoryArchive:  {"zip", "rar", "7z", "tar", "gz"},
}

// fallbackMIME покрывает расширения, которых может не быть в системной таблице mime.
var fallbackMIME = map[string]string{
	"jpg": "image/jpeg", "jpeg": "image/jpeg", "png": "image/png", "gif": "image/gif",
	"bmp": "image/bmp", "webp": "image/webp", "svg": "image/svg+xml",
	"mp4": "video/mp4", "avi": "video/x-msvideo", "mov": "video/quicktime",
	"wmv": "video/x-ms-wmv", "flv": "video/x-flv", "mkv": "video/x-matroska",
	"mp3": "audio/mpeg", "wav": "audio/wav", "ogg": "audio/ogg",
	"pdf": "application/pdf", "doc": "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"ppt":  "application/vnd.ms-powerpoint",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"txt":  "text/plain",
	"zip":  "application/zip", "rar": "application/vnd.rar", "7z": "application/x-7z-compressed",
	"tar": "application/x-tar", "gz": "application/gzip",
}

func ext(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// CategoryOf определяет категорию по расширению имени файла.
func CategoryOf(name string) Category {
	e := ext(name)
	if e == "" {
		return CategoryOther
	}
	for c, list := range fileTypes {
		for _, x := range list {
			if x == e {
				return c
			}
		}
	}
	return CategoryOther
}

// DetectMIME подбирает MIME-тип по расширению; неизвестное — application/octet-stream.
func DetectMIME(name string) string {
	e := ext(name)
	if e == "" {
		return defaultMIME
	}
	if mt, ok := fallbackMIME[e]; ok {
		return mt
	}
	if mt := mime.TypeByExtension("." + e); mt != "" {
		return mt
	}
	return defaultMIME
}
