package models

import "time"

// SessionToken — opaque-токен сессии. Временный выдаётся после первого фактора,
// полный — после кода. Отзыв — флаг, строка остаётся в БД.
type SessionToken struct {
	ID          int64     `json:"id"`
	UserID      int       `json:"user_id"`
	Token       string    `json:"token"`
	IsTemporary bool      `json:"is_temporary"`
	IsActive    bool      `json:"-"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}

func (t *SessionToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
