package services

import (
	"errors"
	"fmt"

	"kammalabel/internal/models"
	"kammalabel/internal/repositories"
)

var (
	ErrOutOfStock      = errors.New("not enough stock")
	ErrCartItemMissing = errors.New("cart item not found")
)

// CartOwner — чья корзина: пользователь или гостевая сессия.
type CartOwner struct {
	UserID    int
	SessionID string
}

type CartService interface {
	GetCart(owner CartOwner) (*models.Cart, error)
	AddItem(owner CartOwner, instanceID, count int) (*models.Cart, error)
	UpdateItem(owner CartOwner, instanceID, count int) (*models.Cart, error)
	RemoveItem(owner CartOwner, instanceID int) (*models.Cart, error)
	Clear(owner CartOwner) error
}

type cartService struct {
	repo    repositories.CartRepository
	catalog repositories.CatalogRepository
}

func NewCartService(repo repositories.CartRepository, catalog repositories.CatalogRepository) CartService {
	return &cartService{repo: repo, catalog: catalog}
}

func (s *cartService) cartFor(owner CartOwner) (*models.Cart, error) {
	if owner.UserID > 0 {
		return s.repo.GetOrCreateByUser(owner.UserID)
	}
	if owner.SessionID == "" {
		return nil, fmt.Errorf("cart owner is empty")
	}
	return s.repo.GetOrCreateBySession(owner.SessionID)
}

// recalculate — сумма корзины пересчитывается после каждой мутации и
// сохраняется явно.
func (s *cartService) recalculate(cart *models.Cart) (*models.Cart, error) {
	items, err := s.repo.GetItems(cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Items = items
	cart.RecalculateTotal()
	if err := s.repo.UpdateTotal(cart.ID, cart.TotalAmount); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *cartService) GetCart(owner CartOwner) (*models.Cart, error) {
	cart, err := s.cartFor(owner)
	if err != nil {
		return nil, err
	}
	return s.recalculate(cart)
}

func (s *cartService) AddItem(owner CartOwner, instanceID, count int) (*models.Cart, error) {
	if count <= 0 {
		count = 1
	}
	cart, err := s.cartFor(owner)
	if err != nil {
		return nil, err
	}
	inst, err := s.catalog.GetInstance(instanceID)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, ErrNotFound
	}

	existing, err := s.repo.GetItemByInstance(cart.ID, instanceID)
	if err != nil {
		return nil, err
	}
	newCount := count
	if existing != nil {
		newCount += existing.Count
	}
	if inst.Stock < newCount {
		return nil, ErrOutOfStock
	}

	if existing != nil {
		existing.Count = newCount
		existing.TotalAmount = inst.Product.Price * newCount
		if err := s.repo.UpdateItem(existing); err != nil {
			return nil, err
		}
	} else {
		item := &models.CartItem{
			CartID:      cart.ID,
			InstanceID:  instanceID,
			Count:       count,
			TotalAmount: inst.Product.Price * count,
		}
		if err := s.repo.InsertItem(item); err != nil {
			return nil, err
		}
	}
	return s.recalculate(cart)
}

func (s *cartService) UpdateItem(owner CartOwner, instanceID, count int) (*models.Cart, error) {
	cart, err := s.cartFor(owner)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.GetItemByInstance(cart.ID, instanceID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrCartItemMissing
	}
	if count <= 0 {
		if err := s.repo.DeleteItem(item.ID); err != nil {
			return nil, err
		}
		return s.recalculate(cart)
	}

	inst, err := s.catalog.GetInstance(instanceID)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, ErrNotFound
	}
	if inst.Stock < count {
		return nil, ErrOutOfStock
	}
	item.Count = count
	item.TotalAmount = inst.Product.Price * count
	if err := s.repo.UpdateItem(item); err != nil {
		return nil, err
	}
	return s.recalculate(cart)
}

func (s *cartService) RemoveItem(owner CartOwner, instanceID int) (*models.Cart, error) {
	cart, err := s.cartFor(owner)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.GetItemByInstance(cart.ID, instanceID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrCartItemMissing
	}
	if err := s.repo.DeleteItem(item.ID); err != nil {
		return nil, err
	}
	return s.recalculate(cart)
}

func (s *cartService) Clear(owner CartOwner) error {
	cart, err := s.cartFor(owner)
	if err != nil {
		return err
	}
	return s.repo.Clear(cart.ID)
}
