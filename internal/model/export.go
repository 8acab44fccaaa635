package model

import (
	"encoding/json"
	"time"
)

// ExportFormatVersion — текущая версия формата резервной копии.
const ExportFormatVersion = "2.0"

// ExportDocument — переносимая резервная копия файлов пользователя.
type ExportDocument struct {
	OwnerID       string       `json:"userId,omitempty"`
	DisplayName   string       `json:"username,omitempty"`
	Files         []FileRecord `json:"files"`
	ExportedAt    time.Time    `json:"exportTime"`
	FormatVersion string       `json:"version"`
}

// RawExportDocument используется при разборе входящей копии: поле files
// разбирается отдельно, чтобы отличить отсутствие массива от пустого массива.
type RawExportDocument struct {
	OwnerID       string          `json:"userId"`
	DisplayName   string          `json:"username"`
	Files         json.RawMessage `json:"files"`
	ExportedAt    string          `json:"exportTime"`
	FormatVersion string          `json:"version"`
}
