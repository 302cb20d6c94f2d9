package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"kammalabel/internal/models"
)

type UserRepository interface {
	Create(user *models.User) error
	GetByID(id int) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByPhone(phone string) (*models.User, error)
	Update(user *models.User) error
	SetPassword(userID int, passwordHash string) error
	Activate(userID int) error
	MarkEmailVerified(userID int, email string) error
	MarkPhoneVerified(userID int, phone string) error
	EmailTaken(email string, excludeUserID int) (bool, error)
	PhoneTaken(phone string, excludeUserID int) (bool, error)
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

const userColumns = `
	id, first_name, last_name, user_type, email, verified_email,
	phone_number, verified_phone_number, birth_date, password_hash, is_active, created_at`

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var birth sql.NullTime
	err := row.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.UserType, &u.Email, &u.VerifiedEmail,
		&u.Phone, &u.VerifiedPhone, &birth, &u.PasswordHash, &u.IsActive, &u.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if birth.Valid {
		t := birth.Time
		u.BirthDate = &t
	}
	return u, nil
}

func (r *userRepository) Create(user *models.User) error {
	const q = `
		INSERT INTO users (first_name, last_name, user_type, email, verified_email,
			phone_number, verified_phone_number, birth_date, password_hash, is_active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id
	`
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	var birth interface{}
	if user.BirthDate != nil {
		birth = *user.BirthDate
	}
	if err := r.DB.QueryRow(q,
		user.FirstName, user.LastName, user.UserType, user.Email, user.VerifiedEmail,
		user.Phone, user.VerifiedPhone, birth, user.PasswordHash, user.IsActive, user.CreatedAt,
	).Scan(&user.ID); err != nil {
		return fmt.Errorf("user create: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(id int) (*models.User, error) {
	return scanUser(r.DB.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	return scanUser(r.DB.QueryRow(`SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email))
}

func (r *userRepository) GetByPhone(phone string) (*models.User, error) {
	return scanUser(r.DB.QueryRow(`SELECT `+userColumns+` FROM users WHERE phone_number = $1`, phone))
}

func (r *userRepository) Update(user *models.User) error {
	const q = `
		UPDATE users
		SET first_name = $1, last_name = $2, user_type = $3, email = $4, verified_email = $5,
			phone_number = $6, verified_phone_number = $7, birth_date = $8, is_active = $9
		WHERE id = $10
	`
	var birth interface{}
	if user.BirthDate != nil {
		birth = *user.BirthDate
	}
	if _, err := r.DB.Exec(q,
		user.FirstName, user.LastName, user.UserType, user.Email, user.VerifiedEmail,
		user.Phone, user.VerifiedPhone, birth, user.IsActive, user.ID,
	); err != nil {
		return fmt.Errorf("user update: %w", err)
	}
	return nil
}

func (r *userRepository) SetPassword(userID int, passwordHash string) error {
	if _, err := r.DB.Exec(`UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, userID); err != nil {
		return fmt.Errorf("user set password: %w", err)
	}
	return nil
}

func (r *userRepository) Activate(userID int) error {
	if _, err := r.DB.Exec(`UPDATE users SET is_active = TRUE WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("user activate: %w", err)
	}
	return nil
}

// MarkEmailVerified — одновременно фиксируем сам адрес: в change_data туда
// кладётся новое значение из receiver кода.
func (r *userRepository) MarkEmailVerified(userID int, email string) error {
	if _, err := r.DB.Exec(
		`UPDATE users SET email = $1, verified_email = TRUE WHERE id = $2`, email, userID,
	); err != nil {
		return fmt.Errorf("user mark email verified: %w", err)
	}
	return nil
}

func (r *userRepository) MarkPhoneVerified(userID int, phone string) error {
	if _, err := r.DB.Exec(
		`UPDATE users SET phone_number = $1, verified_phone_number = TRUE WHERE id = $2`, phone, userID,
	); err != nil {
		return fmt.Errorf("user mark phone verified: %w", err)
	}
	return nil
}

func (r *userRepository) EmailTaken(email string, excludeUserID int) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1) AND id <> $2)`
	var taken bool
	if err := r.DB.QueryRow(q, email, excludeUserID).Scan(&taken); err != nil {
		return false, fmt.Errorf("user email taken: %w", err)
	}
	return taken, nil
}

func (r *userRepository) PhoneTaken(phone string, excludeUserID int) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM users WHERE phone_number = $1 AND id <> $2)`
	var taken bool
	if err := r.DB.QueryRow(q, phone, excludeUserID).Scan(&taken); err != nil {
		return false, fmt.Errorf("user phone taken: %w", err)
	}
	return taken, nil
}
