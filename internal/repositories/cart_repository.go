package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"kammalabel/internal/models"
)

type CartRepository interface {
	GetOrCreateByUser(userID int) (*models.Cart, error)
	GetOrCreateBySession(sessionID string) (*models.Cart, error)
	GetItems(cartID int64) ([]*models.CartItem, error)
	GetItemByInstance(cartID int64, instanceID int) (*models.CartItem, error)
	InsertItem(item *models.CartItem) error
	UpdateItem(item *models.CartItem) error
	DeleteItem(id int64) error
	Clear(cartID int64) error
	UpdateTotal(cartID int64, total int) error
}

type cartRepository struct {
	DB *sql.DB
}

func NewCartRepository(db *sql.DB) CartRepository {
	return &cartRepository{DB: db}
}

func (r *cartRepository) GetOrCreateByUser(userID int) (*models.Cart, error) {
	c := &models.Cart{}
	err := r.DB.QueryRow(
		`SELECT id, COALESCE(user_id,0), COALESCE(session_id,''), total_amount, created_at
		 FROM carts WHERE user_id = $1`, userID,
	).Scan(&c.ID, &c.UserID, &c.SessionID, &c.TotalAmount, &c.CreatedAt)
	if err == nil {
		return c, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("cart get by user: %w", err)
	}

	c = &models.Cart{UserID: userID, CreatedAt: time.Now()}
	// при гонке двух первых запросов выигрывает существующая строка
	err = r.DB.QueryRow(
		`INSERT INTO carts (user_id, total_amount, created_at) VALUES ($1, 0, $2)
		 ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		 RETURNING id, total_amount, created_at`,
		userID, c.CreatedAt,
	).Scan(&c.ID, &c.TotalAmount, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("cart create for user: %w", err)
	}
	return c, nil
}

func (r *cartRepository) GetOrCreateBySession(sessionID string) (*models.Cart, error) {
	c := &models.Cart{}
	err := r.DB.QueryRow(
		`SELECT id, COALESCE(user_id,0), COALESCE(session_id,''), total_amount, created_at
		 FROM carts WHERE session_id = $1`, sessionID,
	).Scan(&c.ID, &c.UserID, &c.SessionID, &c.TotalAmount, &c.CreatedAt)
	if err == nil {
		return c, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("cart get by session: %w", err)
	}

	c = &models.Cart{SessionID: sessionID, CreatedAt: time.Now()}
	err = r.DB.QueryRow(
		`INSERT INTO carts (session_id, total_amount, created_at) VALUES ($1, 0, $2)
		 ON CONFLICT (session_id) DO UPDATE SET session_id = EXCLUDED.session_id
		 RETURNING id, total_amount, created_at`,
		sessionID, c.CreatedAt,
	).Scan(&c.ID, &c.TotalAmount, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("cart create for session: %w", err)
	}
	return c, nil
}

func (r *cartRepository) GetItems(cartID int64) ([]*models.CartItem, error) {
	rows, err := r.DB.Query(`
		SELECT ci.id, ci.cart_id, ci.product_instance_id, ci.count, ci.total_amount,
			pi.product_id, p.name, p.price, c.name, c.color, s.name
		FROM cart_items ci
		JOIN product_instances pi ON pi.id = ci.product_instance_id
		JOIN products p ON p.id = pi.product_id
		JOIN colors c ON c.id = pi.color_id
		JOIN sizes s ON s.id = pi.size_id
		WHERE ci.cart_id = $1
		ORDER BY ci.id
	`, cartID)
	if err != nil {
		return nil, fmt.Errorf("cart items: %w", err)
	}
	defer rows.Close()

	var out []*models.CartItem
	for rows.Next() {
		item := &models.CartItem{Instance: &models.ProductInstance{
			Product: &models.Product{}, Color: &models.Color{}, Size: &models.Size{},
		}}
		if err := rows.Scan(
			&item.ID, &item.CartID, &item.InstanceID, &item.Count, &item.TotalAmount,
			&item.Instance.ProductID, &item.Instance.Product.Name, &item.Instance.Product.Price,
			&item.Instance.Color.Name, &item.Instance.Color.Hex, &item.Instance.Size.Name,
		); err != nil {
			return nil, fmt.Errorf("cart items scan: %w", err)
		}
		item.Instance.ID = item.InstanceID
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *cartRepository) GetItemByInstance(cartID int64, instanceID int) (*models.CartItem, error) {
	item := &models.CartItem{}
	err := r.DB.QueryRow(
		`SELECT id, cart_id, product_instance_id, count, total_amount
		 FROM cart_items WHERE cart_id = $1 AND product_instance_id = $2`,
		cartID, instanceID,
	).Scan(&item.ID, &item.CartID, &item.InstanceID, &item.Count, &item.TotalAmount)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("cart item get: %w", err)
	}
	return item, nil
}

func (r *cartRepository) InsertItem(item *models.CartItem) error {
	const q = `
		INSERT INTO cart_items (cart_id, product_instance_id, count, total_amount)
		VALUES ($1,$2,$3,$4)
		RETURNING id
	`
	if err := r.DB.QueryRow(q, item.CartID, item.InstanceID, item.Count, item.TotalAmount).Scan(&item.ID); err != nil {
		return fmt.Errorf("cart item insert: %w", err)
	}
	return nil
}

func (r *cartRepository) UpdateItem(item *models.CartItem) error {
	if _, err := r.DB.Exec(
		`UPDATE cart_items SET count = $1, total_amount = $2 WHERE id = $3`,
		item.Count, item.TotalAmount, item.ID,
	); err != nil {
		return fmt.Errorf("cart item update: %w", err)
	}
	return nil
}

func (r *cartRepository) DeleteItem(id int64) error {
	if _, err := r.DB.Exec(`DELETE FROM cart_items WHERE id = $1`, id); err != nil {
		return fmt.Errorf("cart item delete: %w", err)
	}
	return nil
}

func (r *cartRepository) Clear(cartID int64) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("cart clear: begin: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("cart clear: %w", err)
	}
	if _, err := tx.Exec(`UPDATE carts SET total_amount = 0 WHERE id = $1`, cartID); err != nil {
		return fmt.Errorf("cart clear: reset total: %w", err)
	}
	return tx.Commit()
}

func (r *cartRepository) UpdateTotal(cartID int64, total int) error {
	if _, err := r.DB.Exec(`UPDATE carts SET total_amount = $1 WHERE id = $2`, total, cartID); err != nil {
		return fmt.Errorf("cart update total: %w", err)
	}
	return nil
}
