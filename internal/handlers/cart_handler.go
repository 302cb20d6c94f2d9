package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"kammalabel/internal/middleware"
	"kammalabel/internal/services"
)

type CartHandler struct {
	carts services.CartService
}

func NewCartHandler(carts services.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

// cartOwner — авторизованный пользователь или гостевая сессия из cookie.
func cartOwner(c *gin.Context) (services.CartOwner, bool) {
	if user := middleware.UserFromContext(c); user != nil {
		return services.CartOwner{UserID: user.ID}, true
	}
	if sid := middleware.SessionFromContext(c); sid != "" {
		return services.CartOwner{SessionID: sid}, true
	}
	c.JSON(http.StatusUnauthorized, gin.H{"error": "no cart session"})
	return services.CartOwner{}, false
}

func (h *CartHandler) respond(c *gin.Context, cart interface{}, err error) {
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOutOfStock):
			c.JSON(http.StatusConflict, gin.H{"error": "not enough stock"})
		case errors.Is(err, services.ErrCartItemMissing):
			c.JSON(http.StatusNotFound, gin.H{"error": "item not in cart"})
		case errors.Is(err, services.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cart operation failed"})
		}
		return
	}
	c.JSON(http.StatusOK, cart)
}

// @Summary      Корзина
// @Tags         Cart
// @Produce      json
// @Success      200  {object}  models.Cart
// @Router       /cart [get]
func (h *CartHandler) GetCart(c *gin.Context) {
	owner, ok := cartOwner(c)
	if !ok {
		return
	}
	cart, err := h.carts.GetCart(owner)
	h.respond(c, cart, err)
}

// @Summary      Добавить в корзину
// @Tags         Cart
// @Accept       json
// @Produce      json
// @Param        item  body      object{product_instance_id=int,count=int}  true  "Позиция"
// @Success      200   {object}  models.Cart
// @Failure      409   {object}  map[string]string
// @Router       /cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	owner, ok := cartOwner(c)
	if !ok {
		return
	}
	var req struct {
		InstanceID int `json:"product_instance_id" binding:"required,gt=0"`
		Count      int `json:"count" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cart, err := h.carts.AddItem(owner, req.InstanceID, req.Count)
	h.respond(c, cart, err)
}

// @Summary      Изменить количество
// @Description  count=0 удаляет позицию
// @Tags         Cart
// @Accept       json
// @Produce      json
// @Param        id    path      int                 true  "ID варианта товара"
// @Param        item  body      object{count=int}   true  "Новое количество"
// @Success      200   {object}  models.Cart
// @Router       /cart/items/{id} [put]
func (h *CartHandler) UpdateItem(c *gin.Context) {
	owner, ok := cartOwner(c)
	if !ok {
		return
	}
	id, ok := pathInt(c, "id")
	if !ok {
		return
	}
	var req struct {
		Count int `json:"count" binding:"gte=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cart, err := h.carts.UpdateItem(owner, id, req.Count)
	h.respond(c, cart, err)
}

// @Summary      Убрать из корзины
// @Tags         Cart
// @Produce      json
// @Param        id   path      int  true  "ID варианта товара"
// @Success      200  {object}  models.Cart
// @Router       /cart/items/{id} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	owner, ok := cartOwner(c)
	if !ok {
		return
	}
	id, ok := pathInt(c, "id")
	if !ok {
		return
	}
	cart, err := h.carts.RemoveItem(owner, id)
	h.respond(c, cart, err)
}

// @Summary      Очистить корзину
// @Tags         Cart
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /cart [delete]
func (h *CartHandler) Clear(c *gin.Context) {
	owner, ok := cartOwner(c)
	if !ok {
		return
	}
	if err := h.carts.Clear(owner); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cart operation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}
