package repositories

import (
	"database/sql"
	"fmt"

	"kammalabel/internal/models"
)

type AddressRepository interface {
	Create(a *models.Address) error
	GetByID(id int) (*models.Address, error)
	ListByUser(userID int) ([]*models.Address, error)
	GetDefault(userID int) (*models.Address, error)
	Update(a *models.Address) error
	Delete(id int) error
}

type addressRepository struct {
	DB *sql.DB
}

func NewAddressRepository(db *sql.DB) AddressRepository {
	return &addressRepository{DB: db}
}

const addressColumns = `id, user_id, title, post_code, state, city, latitude, longitude, postal_address, is_default`

// Create — новый адрес по умолчанию становится default, прежний default гасим
// в той же транзакции.
func (r *addressRepository) Create(a *models.Address) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("address create: begin: %w", err)
	}
	defer tx.Rollback()

	if a.IsDefault {
		if _, err := tx.Exec(
			`UPDATE addresses SET is_default = FALSE WHERE user_id = $1 AND is_default`, a.UserID,
		); err != nil {
			return fmt.Errorf("address create: clear default: %w", err)
		}
	}

	const q = `
		INSERT INTO addresses (user_id, title, post_code, state, city, latitude, longitude, postal_address, is_default)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id
	`
	if err := tx.QueryRow(q,
		a.UserID, a.Title, a.PostCode, a.State, a.City, a.Latitude, a.Longitude, a.PostalAddress, a.IsDefault,
	).Scan(&a.ID); err != nil {
		return fmt.Errorf("address create: insert: %w", err)
	}
	return tx.Commit()
}

func scanAddress(sc interface{ Scan(...interface{}) error }) (*models.Address, error) {
	a := &models.Address{}
	if err := sc.Scan(
		&a.ID, &a.UserID, &a.Title, &a.PostCode, &a.State, &a.City,
		&a.Latitude, &a.Longitude, &a.PostalAddress, &a.IsDefault,
	); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *addressRepository) GetByID(id int) (*models.Address, error) {
	a, err := scanAddress(r.DB.QueryRow(`SELECT `+addressColumns+` FROM addresses WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("address get: %w", err)
	}
	return a, nil
}

func (r *addressRepository) ListByUser(userID int) ([]*models.Address, error) {
	rows, err := r.DB.Query(`SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("address list: %w", err)
	}
	defer rows.Close()

	var out []*models.Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("address list scan: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *addressRepository) GetDefault(userID int) (*models.Address, error) {
	a, err := scanAddress(r.DB.QueryRow(
		`SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 AND is_default LIMIT 1`, userID,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("address get default: %w", err)
	}
	return a, nil
}

func (r *addressRepository) Update(a *models.Address) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("address update: begin: %w", err)
	}
	defer tx.Rollback()

	if a.IsDefault {
		if _, err := tx.Exec(
			`UPDATE addresses SET is_default = FALSE WHERE user_id = $1 AND is_default AND id <> $2`, a.UserID, a.ID,
		); err != nil {
			return fmt.Errorf("address update: clear default: %w", err)
		}
	}

	const q = `
		UPDATE addresses
		SET title = $1, post_code = $2, state = $3, city = $4,
			latitude = $5, longitude = $6, postal_address = $7, is_default = $8
		WHERE id = $9 AND user_id = $10
	`
	if _, err := tx.Exec(q,
		a.Title, a.PostCode, a.State, a.City, a.Latitude, a.Longitude, a.PostalAddress, a.IsDefault,
		a.ID, a.UserID,
	); err != nil {
		return fmt.Errorf("address update: %w", err)
	}
	return tx.Commit()
}

func (r *addressRepository) Delete(id int) error {
	if _, err := r.DB.Exec(`DELETE FROM addresses WHERE id = $1`, id); err != nil {
		return fmt.Errorf("address delete: %w", err)
	}
	return nil
}
