package repositories

import (
	"database/sql"
	"fmt"

	"kammalabel/internal/models"
)

type TokenRepository interface {
	Create(t *models.SessionToken) error
	GetByToken(token string) (*models.SessionToken, error)
	Deactivate(token string) error
	DeactivateTemporary(userID int) error
	DeactivateAll(userID int) error
}

type tokenRepository struct {
	DB *sql.DB
}

func NewTokenRepository(db *sql.DB) TokenRepository {
	return &tokenRepository{DB: db}
}

func (r *tokenRepository) Create(t *models.SessionToken) error {
	const q = `
		INSERT INTO session_tokens (user_id, token, is_temporary, is_active, expires_at, created_at)
		VALUES ($1, $2, $3, TRUE, $4, $5)
		RETURNING id
	`
	if err := r.DB.QueryRow(q, t.UserID, t.Token, t.IsTemporary, t.ExpiresAt, t.CreatedAt).Scan(&t.ID); err != nil {
		return fmt.Errorf("token create: %w", err)
	}
	t.IsActive = true
	return nil
}

func (r *tokenRepository) GetByToken(token string) (*models.SessionToken, error) {
	const q = `
		SELECT id, user_id, token, is_temporary, is_active, expires_at, created_at
		FROM session_tokens
		WHERE token = $1
	`
	var t models.SessionToken
	if err := r.DB.QueryRow(q, token).Scan(
		&t.ID, &t.UserID, &t.Token, &t.IsTemporary, &t.IsActive, &t.ExpiresAt, &t.CreatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("token get: %w", err)
	}
	return &t, nil
}

func (r *tokenRepository) Deactivate(token string) error {
	if _, err := r.DB.Exec(`UPDATE session_tokens SET is_active = FALSE WHERE token = $1`, token); err != nil {
		return fmt.Errorf("token deactivate: %w", err)
	}
	return nil
}

// DeactivateTemporary — временные токены одноразовые: при выдаче полного гасим все.
func (r *tokenRepository) DeactivateTemporary(userID int) error {
	if _, err := r.DB.Exec(
		`UPDATE session_tokens SET is_active = FALSE WHERE user_id = $1 AND is_temporary AND is_active`, userID,
	); err != nil {
		return fmt.Errorf("token deactivate temporary: %w", err)
	}
	return nil
}

func (r *tokenRepository) DeactivateAll(userID int) error {
	if _, err := r.DB.Exec(
		`UPDATE session_tokens SET is_active = FALSE WHERE user_id = $1 AND is_active`, userID,
	); err != nil {
		return fmt.Errorf("token deactivate all: %w", err)
	}
	return nil
}
