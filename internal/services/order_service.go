package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"kammalabel/internal/models"
	"kammalabel/internal/pdf"
	"kammalabel/internal/repositories"
)

var (
	ErrEmptyCart      = errors.New("cart is empty")
	ErrNoAddress      = errors.New("shipping address required")
	ErrOrderNotFound  = errors.New("order not found")
	ErrBadOrderStatus = errors.New("invalid order status for operation")
)

type OrderService interface {
	Checkout(userID int, addressID int) (*models.Order, error)
	ListOrders(userID int) ([]*models.Order, error)
	GetOrder(userID int, orderID int64) (*models.Order, error)
	Cancel(userID int, orderID int64) error
	Pay(userID int, orderID int64) (*models.Payment, error)
	PaymentStatus(userID int, orderID int64) (*models.Payment, error)
	Receipt(userID int, orderID int64) (string, error)
	Dashboard(userID int) (*DashboardSummary, error)
}

// DashboardSummary — сводка профиля: оплаченные заказы и потраченная сумма.
type DashboardSummary struct {
	User        string `json:"user"`
	OrdersCount int    `json:"orders_count"`
	TotalSpent  int    `json:"total_spent"`
}

type orderService struct {
	repo      repositories.OrderRepository
	carts     CartService
	catalog   repositories.CatalogRepository
	addresses repositories.AddressRepository
	users     repositories.UserRepository
	pdfGen    pdf.Generator
	notifier  OrderNotifier // может быть nil

	now func() time.Time
}

func NewOrderService(
	repo repositories.OrderRepository,
	carts CartService,
	catalog repositories.CatalogRepository,
	addresses repositories.AddressRepository,
	users repositories.UserRepository,
	pdfGen pdf.Generator,
	notifier OrderNotifier,
) OrderService {
	return &orderService{
		repo:      repo,
		carts:     carts,
		catalog:   catalog,
		addresses: addresses,
		users:     users,
		pdfGen:    pdfGen,
		notifier:  notifier,
		now:       time.Now,
	}
}

// Checkout — корзина превращается в заказ: цены снапшотятся в позиции,
// корзина очищается. Остатки списываются при оплате, не здесь.
func (s *orderService) Checkout(userID int, addressID int) (*models.Order, error) {
	cart, err := s.carts.GetCart(CartOwner{UserID: userID})
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	var addr *models.Address
	if addressID > 0 {
		addr, err = s.addresses.GetByID(addressID)
		if err != nil {
			return nil, err
		}
		if addr == nil || addr.UserID != userID {
			return nil, ErrNoAddress
		}
	} else {
		addr, err = s.addresses.GetDefault(userID)
		if err != nil {
			return nil, err
		}
		if addr == nil {
			return nil, ErrNoAddress
		}
	}

	now := s.now()
	seq, err := s.repo.NextSequence(now)
	if err != nil {
		return nil, err
	}
	order := &models.Order{
		UserID:    userID,
		Status:    models.OrderPending,
		Number:    fmt.Sprintf("ORD-%s-%08d", now.Format("20060102"), seq),
		AddressID: addr.ID,
		CreatedAt: now,
	}
	for _, item := range cart.Items {
		price := item.Instance.Product.Price
		order.Items = append(order.Items, &models.OrderItem{
			InstanceID:  item.InstanceID,
			Count:       item.Count,
			UnitPrice:   price,
			TotalAmount: price * item.Count,
		})
	}
	order.RecalculateTotal()

	if err := s.repo.CreateWithItems(order); err != nil {
		return nil, err
	}
	if err := s.carts.Clear(CartOwner{UserID: userID}); err != nil {
		// заказ уже создан, корзину не смогли очистить — только лог
		log.Printf("[order][checkout] cart clear failed: user=%d err=%v", userID, err)
	}
	log.Printf("[order][checkout] created %s: user=%d total=%d items=%d",
		order.Number, userID, order.TotalAmount, len(order.Items))
	return order, nil
}

func (s *orderService) ListOrders(userID int) ([]*models.Order, error) {
	return s.repo.ListByUser(userID)
}

func (s *orderService) GetOrder(userID int, orderID int64) (*models.Order, error) {
	o, err := s.repo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if o == nil || o.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (s *orderService) Cancel(userID int, orderID int64) error {
	o, err := s.GetOrder(userID, orderID)
	if err != nil {
		return err
	}
	if o.Status != models.OrderPending {
		return ErrBadOrderStatus
	}
	return s.repo.UpdateStatus(orderID, models.OrderCancelled)
}

// Pay — заглушка платёжного шлюза: платёж сразу успешен, заказ
// переводится в paid, остатки списываются, магазин получает уведомление.
func (s *orderService) Pay(userID int, orderID int64) (*models.Payment, error) {
	o, err := s.GetOrder(userID, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != models.OrderPending {
		return nil, ErrBadOrderStatus
	}

	p, err := s.repo.GetPaymentByOrder(orderID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = &models.Payment{
			UserID:     userID,
			OrderID:    orderID,
			Status:     models.PaymentNew,
			ExternalID: uuid.NewString(),
			CreatedAt:  s.now(),
		}
		if err := s.repo.CreatePayment(p); err != nil {
			return nil, err
		}
	}

	for _, item := range o.Items {
		if err := s.catalog.DecrementStock(item.InstanceID, item.Count); err != nil {
			if uerr := s.repo.UpdatePaymentStatus(p.ID, models.PaymentFailed); uerr != nil {
				log.Printf("[order][pay] mark payment failed: %v", uerr)
			}
			if uerr := s.repo.UpdateStatus(orderID, models.OrderFailed); uerr != nil {
				log.Printf("[order][pay] mark order failed: %v", uerr)
			}
			return nil, err
		}
	}

	if err := s.repo.UpdatePaymentStatus(p.ID, models.PaymentSuccessful); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(orderID, models.OrderPaid); err != nil {
		return nil, err
	}
	p.Status = models.PaymentSuccessful
	o.Status = models.OrderPaid
	log.Printf("[order][pay] ok: order=%s payment=%s", o.Number, p.ExternalID)

	if s.notifier != nil {
		user, uerr := s.users.GetByID(userID)
		if uerr == nil && user != nil {
			if nerr := s.notifier.NotifyOrderPaid(o, user); nerr != nil {
				log.Printf("[order][pay] notify failed: %v", nerr)
			}
		}
	}
	return p, nil
}

func (s *orderService) PaymentStatus(userID int, orderID int64) (*models.Payment, error) {
	if _, err := s.GetOrder(userID, orderID); err != nil {
		return nil, err
	}
	p, err := s.repo.GetPaymentByOrder(orderID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrOrderNotFound
	}
	return p, nil
}

func (s *orderService) Dashboard(userID int) (*DashboardSummary, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrAccountNotFound
	}
	count, total, err := s.repo.StatsByUser(userID)
	if err != nil {
		return nil, err
	}
	return &DashboardSummary{
		User:        user.FullName(),
		OrdersCount: count,
		TotalSpent:  total,
	}, nil
}

// Receipt — PDF-квитанция по оплаченному заказу, возвращает путь к файлу.
func (s *orderService) Receipt(userID int, orderID int64) (string, error) {
	o, err := s.GetOrder(userID, orderID)
	if err != nil {
		return "", err
	}
	if o.Status == models.OrderPending || o.Status == models.OrderCancelled || o.Status == models.OrderFailed {
		return "", ErrBadOrderStatus
	}
	user, err := s.users.GetByID(userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrOrderNotFound
	}
	data := pdf.ReceiptData{
		OrderNumber: o.Number,
		Customer:    user.FullName(),
		Total:       o.TotalAmount,
		CreatedAt:   o.CreatedAt,
	}
	for _, item := range o.Items {
		name := ""
		if item.Instance != nil && item.Instance.Product != nil {
			name = item.Instance.Product.Name
		}
		data.Lines = append(data.Lines, pdf.ReceiptLine{
			Name:   name,
			Count:  item.Count,
			Amount: item.TotalAmount,
		})
	}
	return s.pdfGen.GenerateReceipt(data)
}
