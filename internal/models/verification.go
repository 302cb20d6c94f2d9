package models

import "time"

// Назначения кода. Для каждой пары (user, purpose) активен максимум один код.
const (
	PurposeLogin          = "login"
	PurposeForgotPassword = "forgot_password"
	PurposeRegister       = "register"
	PurposeChangeData     = "change_data"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// VerificationCode — одна отправка кода. Каждый resend — новая строка,
// старые строки не удаляются, только деактивируются.
type VerificationCode struct {
	ID         int64     `json:"id"`
	UserID     int       `json:"user_id"`
	Purpose    string    `json:"purpose"`
	Code       string    `json:"-"` // наружу не отдаём
	Key        string    `json:"key"` // opaque-ручка вместо id
	Channel    string    `json:"channel"`
	Receiver   string    `json:"receiver"` // адрес/номер на момент создания
	TTLSeconds int       `json:"ttl"`
	Attempts   int       `json:"-"`
	IsActive   bool      `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// ExpiresAt — срок считается от created_at, а не хранится отдельно:
// флаг is_active сам по себе истечение не гарантирует.
func (v *VerificationCode) ExpiresAt() time.Time {
	return v.CreatedAt.Add(time.Duration(v.TTLSeconds) * time.Second)
}

func (v *VerificationCode) IsExpired(now time.Time) bool {
	return now.After(v.ExpiresAt())
}
