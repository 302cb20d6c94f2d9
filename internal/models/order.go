package models

import "time"

const (
	OrderPending   = 1
	OrderPaid      = 2
	OrderShipped   = 3
	OrderCompleted = 4
	OrderCancelled = 5
	OrderFailed    = 6
)

const (
	PaymentNew        = 1
	PaymentFailed     = 2
	PaymentSuccessful = 3
)

type Order struct {
	ID          int64     `json:"id"`
	UserID      int       `json:"user_id"`
	Status      int       `json:"order_status"`
	Number      string    `json:"number"`
	TotalAmount int       `json:"total_amount"`
	AddressID   int       `json:"shipping_address_id"`
	CreatedAt   time.Time `json:"created_at"`

	Items   []*OrderItem `json:"items,omitempty"`
	Address *Address     `json:"address,omitempty"`
}

type OrderItem struct {
	ID          int64 `json:"id"`
	OrderID     int64 `json:"-"`
	InstanceID  int   `json:"product_instance_id"`
	Count       int   `json:"count"`
	UnitPrice   int   `json:"unit_price"` // снапшот цены на момент заказа
	TotalAmount int   `json:"total_amount"`

	Instance *ProductInstance `json:"product,omitempty"`
}

func (o *Order) RecalculateTotal() {
	total := 0
	for _, item := range o.Items {
		total += item.TotalAmount
	}
	o.TotalAmount = total
}

type Payment struct {
	ID         int64     `json:"id"`
	UserID     int       `json:"user_id"`
	OrderID    int64     `json:"order_id"`
	Status     int       `json:"payment_status"`
	ExternalID string    `json:"external_id"`
	CreatedAt  time.Time `json:"created_at"`
}
