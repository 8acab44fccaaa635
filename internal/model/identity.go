package model

import "time"

// UserIdentity — локальная учётная запись пользователя полки.
// JSON-ключи совпадают с форматом, который хранит браузерная версия.
type UserIdentity struct {
	UserID      string    `json:"userId"`
	DisplayName string    `json:"username"`
	HasSecret   bool      `json:"hasPassword"`
	SecretHash  string    `json:"secretHash,omitempty"` // bcrypt; не проверяется
	CreatedAt   time.Time `json:"created"`
	LastSeenAt  time.Time `json:"lastLogin"`
}
