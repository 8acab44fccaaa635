package model

import "time"

// KVEntry — gorm-модель строки key/value хранилища.
type KVEntry struct {
	Key   string `gorm:"column:kv_key;primaryKey;size:512"`
	Value string `gorm:"column:kv_value;not null"`
	// Size — длина ключа и значения в байтах, для учёта ёмкости.
	Size int64 `gorm:"column:kv_size;not null;default:0"`

	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName фиксирует имя таблицы.
func (KVEntry) TableName() string { return "kv_entries" }
