package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"kammalabel/internal/models"
)

type VerificationRepository interface {
	// CreateReplacingActive атомарно гасит прежние активные коды пары
	// (user, purpose) и вставляет новый.
	CreateReplacingActive(v *models.VerificationCode) error
	GetActiveByKey(purpose, key string) (*models.VerificationCode, error)
	// IncrementAttempts — атомарный +1, возвращает новое значение.
	IncrementAttempts(id int64) (int, error)
	Deactivate(id int64) error
	CountRecentSends(userID int, purpose string, since time.Time) (int, error)
}

type verificationRepository struct {
	DB *sql.DB
}

func NewVerificationRepository(db *sql.DB) VerificationRepository {
	return &verificationRepository{DB: db}
}

// Одна транзакция: два конкурентных Generate не оставят два активных кода —
// выигрывает закоммитившийся последним.
func (r *verificationRepository) CreateReplacingActive(v *models.VerificationCode) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("verification create: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`UPDATE verification_codes SET is_active = FALSE WHERE user_id = $1 AND purpose = $2 AND is_active`,
		v.UserID, v.Purpose,
	); err != nil {
		return fmt.Errorf("verification create: deactivate prior: %w", err)
	}

	const q = `
		INSERT INTO verification_codes (user_id, purpose, code, key, channel, receiver, ttl_seconds, attempts, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, TRUE, $8)
		RETURNING id
	`
	if err := tx.QueryRow(q,
		v.UserID, v.Purpose, v.Code, v.Key, v.Channel, v.Receiver, v.TTLSeconds, v.CreatedAt,
	).Scan(&v.ID); err != nil {
		return fmt.Errorf("verification create: insert: %w", err)
	}
	v.IsActive = true
	v.Attempts = 0

	return tx.Commit()
}

func (r *verificationRepository) GetActiveByKey(purpose, key string) (*models.VerificationCode, error) {
	const q = `
		SELECT id, user_id, purpose, code, key, channel, receiver, ttl_seconds, attempts, is_active, created_at
		FROM verification_codes
		WHERE purpose = $1 AND key = $2 AND is_active
	`
	row := r.DB.QueryRow(q, purpose, key)
	var v models.VerificationCode
	if err := row.Scan(
		&v.ID, &v.UserID, &v.Purpose, &v.Code, &v.Key, &v.Channel, &v.Receiver,
		&v.TTLSeconds, &v.Attempts, &v.IsActive, &v.CreatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("verification get active: %w", err)
	}
	return &v, nil
}

func (r *verificationRepository) IncrementAttempts(id int64) (int, error) {
	const q = `
		UPDATE verification_codes
		SET attempts = attempts + 1
		WHERE id = $1
		RETURNING attempts
	`
	var attempts int
	if err := r.DB.QueryRow(q, id).Scan(&attempts); err != nil {
		return 0, fmt.Errorf("verification increment attempts: %w", err)
	}
	return attempts, nil
}

func (r *verificationRepository) Deactivate(id int64) error {
	if _, err := r.DB.Exec(`UPDATE verification_codes SET is_active = FALSE WHERE id = $1`, id); err != nil {
		return fmt.Errorf("verification deactivate: %w", err)
	}
	return nil
}

// CountRecentSends — сколько кодов отправляли за окно (для троттлинга).
func (r *verificationRepository) CountRecentSends(userID int, purpose string, since time.Time) (int, error) {
	const q = `
		SELECT COUNT(*)
		FROM verification_codes
		WHERE user_id = $1 AND purpose = $2 AND created_at >= $3
	`
	var c int
	if err := r.DB.QueryRow(q, userID, purpose, since).Scan(&c); err != nil {
		return 0, fmt.Errorf("verification count recent: %w", err)
	}
	return c, nil
}
