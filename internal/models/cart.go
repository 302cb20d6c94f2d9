package models

import "time"

// Cart — корзина. Либо привязана к пользователю (UserID > 0),
// либо к гостевой сессии (SessionID != "").
type Cart struct {
	ID          int64     `json:"id"`
	UserID      int       `json:"user_id,omitempty"`
	SessionID   string    `json:"-"`
	TotalAmount int       `json:"total_amount"`
	CreatedAt   time.Time `json:"created_at"`

	Items []*CartItem `json:"items"`
}

type CartItem struct {
	ID          int64 `json:"id"`
	CartID      int64 `json:"-"`
	InstanceID  int   `json:"product_instance_id"`
	Count       int   `json:"count"`
	TotalAmount int   `json:"total_amount"`

	Instance *ProductInstance `json:"product,omitempty"`
}

// RecalculateTotal — суммы пересчитываются явно при каждой мутации,
// а не в хуке сохранения.
func (c *Cart) RecalculateTotal() {
	total := 0
	for _, item := range c.Items {
		total += item.TotalAmount
	}
	c.TotalAmount = total
}
