package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"kammalabel/internal/models"
	"kammalabel/internal/services"
)

type CatalogHandler struct {
	catalog services.CatalogService
}

func NewCatalogHandler(catalog services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// filterFromQuery — ?min_price=&max_price=&colors=1,2&materials=3&in_stock=true&search=
func filterFromQuery(c *gin.Context) models.ProductFilter {
	var f models.ProductFilter
	f.MinPrice, _ = strconv.Atoi(c.Query("min_price"))
	f.MaxPrice, _ = strconv.Atoi(c.Query("max_price"))
	f.Colors = csvInts(c.Query("colors"))
	f.Materials = csvInts(c.Query("materials"))
	f.Search = strings.TrimSpace(c.Query("search"))
	if v := c.Query("in_stock"); v != "" {
		b := v == "true" || v == "1"
		f.HasStock = &b
	}
	return f
}

func csvInts(s string) []int {
	if s == "" {
		return nil
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(part)); err == nil && n > 0 {
			out = append(out, n)
		}
	}
	return out
}

// @Summary      Список категорий
// @Tags         Catalog
// @Produce      json
// @Success      200  {array}  models.Category
// @Router       /catalog/categories [get]
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	list, err := h.catalog.ListCategories()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary      Категория
// @Tags         Catalog
// @Produce      json
// @Param        id   path      int  true  "ID категории"
// @Success      200  {object}  models.Category
// @Failure      404  {object}  map[string]string
// @Router       /catalog/categories/{id} [get]
func (h *CatalogHandler) GetCategory(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		return
	}
	cat, err := h.catalog.GetCategory(id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, cat)
}

// @Summary      Фильтры категории
// @Description  Доступные цвета, материалы и диапазон цен внутри категории
// @Tags         Catalog
// @Produce      json
// @Param        id   path      int  true  "ID категории"
// @Success      200  {object}  models.CategoryFilters
// @Failure      404  {object}  map[string]string
// @Router       /catalog/categories/{id}/filters [get]
func (h *CatalogHandler) CategoryFilters(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		return
	}
	filters, err := h.catalog.CategoryFilters(id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, filters)
}

// @Summary      Товары категории
// @Tags         Catalog
// @Produce      json
// @Param        id         path   int     true   "ID категории"
// @Param        min_price  query  int     false  "Минимальная цена"
// @Param        max_price  query  int     false  "Максимальная цена"
// @Param        colors     query  string  false  "ID цветов через запятую"
// @Param        materials  query  string  false  "ID материалов через запятую"
// @Param        in_stock   query  bool    false  "Только в наличии"
// @Success      200  {array}  models.Product
// @Router       /catalog/categories/{id}/products [get]
func (h *CatalogHandler) CategoryProducts(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		return
	}
	list, err := h.catalog.CategoryProducts(id, filterFromQuery(c))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary      Все товары
// @Tags         Catalog
// @Produce      json
// @Param        search  query  string  false  "Поиск по названию"
// @Success      200  {array}  models.Product
// @Router       /catalog/products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	list, err := h.catalog.ListProducts(filterFromQuery(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary      Товар
// @Description  Карточка товара с вариантами (цвет, размер, остаток) и альбомом
// @Tags         Catalog
// @Produce      json
// @Param        id   path      int  true  "ID товара"
// @Success      200  {object}  models.Product
// @Failure      404  {object}  map[string]string
// @Router       /catalog/products/{id} [get]
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		return
	}
	product, err := h.catalog.GetProduct(id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, product)
}

// @Summary      Поиск товаров
// @Tags         Catalog
// @Produce      json
// @Param        q    query     string  true  "Поисковый запрос"
// @Success      200  {array}   models.Product
// @Router       /catalog/search [get]
func (h *CatalogHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	list, err := h.catalog.Search(q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	c.JSON(http.StatusOK, list)
}
