package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"kammalabel/internal/middleware"
	"kammalabel/internal/services"
)

type OrderHandler struct {
	orders services.OrderService
}

func NewOrderHandler(orders services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

func orderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": "cart is empty"})
	case errors.Is(err, services.ErrNoAddress):
		c.JSON(http.StatusBadRequest, gin.H{"error": "shipping address required"})
	case errors.Is(err, services.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
	case errors.Is(err, services.ErrBadOrderStatus):
		c.JSON(http.StatusConflict, gin.H{"error": "operation not allowed for current order status"})
	case errors.Is(err, services.ErrOutOfStock):
		c.JSON(http.StatusConflict, gin.H{"error": "not enough stock"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "order operation failed"})
	}
}

// @Summary      Оформить заказ
// @Description  Превращает корзину в заказ. Без shipping_address_id берётся адрес по умолчанию
// @Tags         Orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        checkout  body      object{shipping_address_id=int}  false  "Адрес доставки"
// @Success      201       {object}  models.Order
// @Failure      400       {object}  map[string]string
// @Router       /orders [post]
func (h *OrderHandler) Checkout(c *gin.Context) {
	user := middleware.UserFromContext(c)
	var req struct {
		AddressID int `json:"shipping_address_id"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	order, err := h.orders.Checkout(user.ID, req.AddressID)
	if err != nil {
		orderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// @Summary      Мои заказы
// @Tags         Orders
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  models.Order
// @Router       /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	user := middleware.UserFromContext(c)
	list, err := h.orders.ListOrders(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary      Заказ
// @Tags         Orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "ID заказа"
// @Success      200  {object}  models.Order
// @Failure      404  {object}  map[string]string
// @Router       /orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	user := middleware.UserFromContext(c)
	id, ok := pathInt64(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.GetOrder(user.ID, id)
	if err != nil {
		orderError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// @Summary      Отменить заказ
// @Description  Только для ещё не оплаченных заказов
// @Tags         Orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "ID заказа"
// @Success      200  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	user := middleware.UserFromContext(c)
	id, ok := pathInt64(c, "id")
	if !ok {
		return
	}
	if err := h.orders.Cancel(user.ID, id); err != nil {
		orderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order cancelled"})
}

// @Summary      Оплатить заказ
// @Description  Списывает остатки и переводит заказ в статус paid
// @Tags         Orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "ID заказа"
// @Success      200  {object}  models.Payment
// @Failure      409  {object}  map[string]string
// @Router       /orders/{id}/pay [post]
func (h *OrderHandler) Pay(c *gin.Context) {
	user := middleware.UserFromContext(c)
	id, ok := pathInt64(c, "id")
	if !ok {
		return
	}
	payment, err := h.orders.Pay(user.ID, id)
	if err != nil {
		orderError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

// @Summary      Статус оплаты
// @Tags         Orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "ID заказа"
// @Success      200  {object}  models.Payment
// @Router       /orders/{id}/payment [get]
func (h *OrderHandler) PaymentStatus(c *gin.Context) {
	user := middleware.UserFromContext(c)
	id, ok := pathInt64(c, "id")
	if !ok {
		return
	}
	payment, err := h.orders.PaymentStatus(user.ID, id)
	if err != nil {
		orderError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

// @Summary      Квитанция по заказу
// @Description  Отдаёт PDF-квитанцию оплаченного заказа
// @Tags         Orders
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id   path  int  true  "ID заказа"
// @Success      200  {file}  file
// @Failure      409  {object}  map[string]string
// @Router       /orders/{id}/receipt [get]
func (h *OrderHandler) Receipt(c *gin.Context) {
	user := middleware.UserFromContext(c)
	id, ok := pathInt64(c, "id")
	if !ok {
		return
	}
	path, err := h.orders.Receipt(user.ID, id)
	if err != nil {
		orderError(c, err)
		return
	}
	c.FileAttachment(path, "receipt.pdf")
}
