package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"kammalabel/internal/models"
)

type OrderRepository interface {
	// CreateWithItems — заказ и позиции в одной транзакции.
	CreateWithItems(order *models.Order) error
	GetByID(id int64) (*models.Order, error)
	ListByUser(userID int) ([]*models.Order, error)
	UpdateStatus(orderID int64, status int) error
	NextSequence(day time.Time) (int, error)
	StatsByUser(userID int) (count int, total int, err error)

	CreatePayment(p *models.Payment) error
	GetPaymentByOrder(orderID int64) (*models.Payment, error)
	UpdatePaymentStatus(paymentID int64, status int) error
}

type orderRepository struct {
	DB *sql.DB
}

func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{DB: db}
}

func (r *orderRepository) CreateWithItems(order *models.Order) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("order create: begin: %w", err)
	}
	defer tx.Rollback()

	const q = `
		INSERT INTO orders (user_id, order_status, number, total_amount, shipping_address_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id
	`
	if err := tx.QueryRow(q,
		order.UserID, order.Status, order.Number, order.TotalAmount, order.AddressID, order.CreatedAt,
	).Scan(&order.ID); err != nil {
		return fmt.Errorf("order create: insert: %w", err)
	}

	const qi = `
		INSERT INTO order_items (order_id, product_instance_id, count, unit_price, total_amount)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id
	`
	for _, item := range order.Items {
		item.OrderID = order.ID
		if err := tx.QueryRow(qi,
			order.ID, item.InstanceID, item.Count, item.UnitPrice, item.TotalAmount,
		).Scan(&item.ID); err != nil {
			return fmt.Errorf("order create: insert item: %w", err)
		}
	}
	return tx.Commit()
}

func (r *orderRepository) GetByID(id int64) (*models.Order, error) {
	o := &models.Order{}
	err := r.DB.QueryRow(
		`SELECT id, user_id, order_status, number, total_amount, shipping_address_id, created_at
		 FROM orders WHERE id = $1`, id,
	).Scan(&o.ID, &o.UserID, &o.Status, &o.Number, &o.TotalAmount, &o.AddressID, &o.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("order get: %w", err)
	}

	rows, err := r.DB.Query(`
		SELECT oi.id, oi.order_id, oi.product_instance_id, oi.count, oi.unit_price, oi.total_amount,
			p.name, c.name, s.name
		FROM order_items oi
		JOIN product_instances pi ON pi.id = oi.product_instance_id
		JOIN products p ON p.id = pi.product_id
		JOIN colors c ON c.id = pi.color_id
		JOIN sizes s ON s.id = pi.size_id
		WHERE oi.order_id = $1
		ORDER BY oi.id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		item := &models.OrderItem{Instance: &models.ProductInstance{
			Product: &models.Product{}, Color: &models.Color{}, Size: &models.Size{},
		}}
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.InstanceID, &item.Count, &item.UnitPrice, &item.TotalAmount,
			&item.Instance.Product.Name, &item.Instance.Color.Name, &item.Instance.Size.Name,
		); err != nil {
			return nil, fmt.Errorf("order items scan: %w", err)
		}
		item.Instance.ID = item.InstanceID
		o.Items = append(o.Items, item)
	}
	return o, rows.Err()
}

func (r *orderRepository) ListByUser(userID int) ([]*models.Order, error) {
	rows, err := r.DB.Query(
		`SELECT id, user_id, order_status, number, total_amount, shipping_address_id, created_at
		 FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("orders list: %w", err)
	}
	defer rows.Close()

	var out []*models.Order
	for rows.Next() {
		o := &models.Order{}
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.Number, &o.TotalAmount, &o.AddressID, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("orders scan: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *orderRepository) UpdateStatus(orderID int64, status int) error {
	if _, err := r.DB.Exec(`UPDATE orders SET order_status = $1 WHERE id = $2`, status, orderID); err != nil {
		return fmt.Errorf("order update status: %w", err)
	}
	return nil
}

// StatsByUser — число оплаченных заказов и сумма потраченного для дашборда профиля.
func (r *orderRepository) StatsByUser(userID int) (int, int, error) {
	const q = `SELECT COUNT(*), COALESCE(SUM(total_amount), 0)
		FROM orders
		WHERE user_id = $1 AND order_status IN ($2, $3, $4)`
	var count, total int
	if err := r.DB.QueryRow(q, userID, models.OrderPaid, models.OrderShipped, models.OrderCompleted).
		Scan(&count, &total); err != nil {
		return 0, 0, fmt.Errorf("order stats by user: %w", err)
	}
	return count, total, nil
}

// NextSequence — порядковый номер заказа за день для ORD-YYYYMMDD-NNNNNNNN.
func (r *orderRepository) NextSequence(day time.Time) (int, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	var n int
	if err := r.DB.QueryRow(
		`SELECT COUNT(*) + 1 FROM orders WHERE created_at >= $1 AND created_at < $2`,
		start, start.Add(24*time.Hour),
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("order next sequence: %w", err)
	}
	return n, nil
}

func (r *orderRepository) CreatePayment(p *models.Payment) error {
	const q = `
		INSERT INTO payments (user_id, order_id, payment_status, external_id, created_at)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id
	`
	if err := r.DB.QueryRow(q, p.UserID, p.OrderID, p.Status, p.ExternalID, p.CreatedAt).Scan(&p.ID); err != nil {
		return fmt.Errorf("payment create: %w", err)
	}
	return nil
}

func (r *orderRepository) GetPaymentByOrder(orderID int64) (*models.Payment, error) {
	p := &models.Payment{}
	err := r.DB.QueryRow(
		`SELECT id, user_id, order_id, payment_status, external_id, created_at
		 FROM payments WHERE order_id = $1`, orderID,
	).Scan(&p.ID, &p.UserID, &p.OrderID, &p.Status, &p.ExternalID, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("payment get: %w", err)
	}
	return p, nil
}

func (r *orderRepository) UpdatePaymentStatus(paymentID int64, status int) error {
	if _, err := r.DB.Exec(`UPDATE payments SET payment_status = $1 WHERE id = $2`, status, paymentID); err != nil {
		return fmt.Errorf("payment update status: %w", err)
	}
	return nil
}
