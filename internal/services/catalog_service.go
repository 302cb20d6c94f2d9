package services

import (
	"errors"

	"kammalabel/internal/models"
	"kammalabel/internal/repositories"
)

var ErrNotFound = errors.New("not found")

type CatalogService interface {
	ListCategories() ([]*models.Category, error)
	GetCategory(id int) (*models.Category, error)
	CategoryFilters(id int) (*models.CategoryFilters, error)
	CategoryProducts(id int, filter models.ProductFilter) ([]*models.Product, error)
	ListProducts(filter models.ProductFilter) ([]*models.Product, error)
	GetProduct(id int) (*models.Product, error)
	Search(query string) ([]*models.Product, error)
}

type catalogService struct {
	repo repositories.CatalogRepository
}

func NewCatalogService(repo repositories.CatalogRepository) CatalogService {
	return &catalogService{repo: repo}
}

func (s *catalogService) ListCategories() ([]*models.Category, error) {
	return s.repo.ListCategories()
}

func (s *catalogService) GetCategory(id int) (*models.Category, error) {
	c, err := s.repo.GetCategory(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound
	}
	return c, nil
}

// CategoryFilters — доступные цвета/материалы категории и разброс цен.
func (s *catalogService) CategoryFilters(id int) (*models.CategoryFilters, error) {
	c, err := s.GetCategory(id)
	if err != nil {
		return nil, err
	}
	colors, err := s.repo.ListColors(c.Colors)
	if err != nil {
		return nil, err
	}
	materials, err := s.repo.ListMaterials(c.Materials)
	if err != nil {
		return nil, err
	}
	pr, err := s.repo.PriceRange(id)
	if err != nil {
		return nil, err
	}
	return &models.CategoryFilters{Colors: colors, Materials: materials, PriceRange: pr}, nil
}

func (s *catalogService) CategoryProducts(id int, filter models.ProductFilter) ([]*models.Product, error) {
	if _, err := s.GetCategory(id); err != nil {
		return nil, err
	}
	filter.CategoryID = id
	return s.repo.ListProducts(filter)
}

func (s *catalogService) ListProducts(filter models.ProductFilter) ([]*models.Product, error) {
	return s.repo.ListProducts(filter)
}

func (s *catalogService) GetProduct(id int) (*models.Product, error) {
	p, err := s.repo.GetProduct(id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *catalogService) Search(query string) ([]*models.Product, error) {
	return s.repo.ListProducts(models.ProductFilter{Search: query})
}
