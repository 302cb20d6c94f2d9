package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kammalabel/internal/middleware"
	"kammalabel/internal/models"
	"kammalabel/internal/repositories"
	"kammalabel/internal/services"
)

type ProfileHandler struct {
	accounts  *services.AccountService
	users     repositories.UserRepository
	addresses repositories.AddressRepository
	orders    services.OrderService
}

func NewProfileHandler(
	accounts *services.AccountService,
	users repositories.UserRepository,
	addresses repositories.AddressRepository,
	orders services.OrderService,
) *ProfileHandler {
	return &ProfileHandler{accounts: accounts, users: users, addresses: addresses, orders: orders}
}

// @Summary      Текущий пользователь
// @Tags         Profile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.User
// @Router       /profile [get]
func (h *ProfileHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.UserFromContext(c))
}

// @Summary      Дашборд профиля
// @Description  Имя пользователя, число оплаченных заказов и потраченная сумма
// @Tags         Profile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  services.DashboardSummary
// @Router       /profile/dashboard [get]
func (h *ProfileHandler) Dashboard(c *gin.Context) {
	user := middleware.UserFromContext(c)
	summary, err := h.orders.Dashboard(user.ID)
	if err != nil {
		log.Printf("[profile][dashboard] user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// @Summary      Обновление профиля
// @Description  Имя, фамилия и дата рождения. Контакты меняются только через коды подтверждения
// @Tags         Profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.User
// @Failure      400  {object}  map[string]string
// @Router       /profile [put]
func (h *ProfileHandler) Update(c *gin.Context) {
	user := middleware.UserFromContext(c)
	var req struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		BirthDate string `json:"birth_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.BirthDate != "" {
		bd, err := time.Parse("2006-01-02", req.BirthDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "birth_date must be YYYY-MM-DD"})
			return
		}
		user.BirthDate = &bd
	}
	if err := h.users.Update(user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// @Summary      Смена пароля
// @Tags         Profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /profile/change-password [post]
func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	user := middleware.UserFromContext(c)
	var req struct {
		OldPassword string `json:"old_password" binding:"required"`
		NewPassword string `json:"new_password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.accounts.ChangePassword(user, req.OldPassword, req.NewPassword); err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "wrong password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "change failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password changed"})
}

// @Summary      Смена email: запрос кода
// @Description  Отправляет код на новый адрес, профиль меняется после подтверждения
// @Tags         Profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  services.CodeDelivery
// @Failure      409  {object}  map[string]string
// @Router       /profile/change-email [post]
func (h *ProfileHandler) ChangeEmailStart(c *gin.Context) {
	user := middleware.UserFromContext(c)
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	info, err := h.accounts.ChangeEmailStart(user, req.Email)
	h.respondChangeStart(c, info, err)
}

// @Summary      Смена телефона: запрос кода
// @Tags         Profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  services.CodeDelivery
// @Failure      409  {object}  map[string]string
// @Router       /profile/change-phone [post]
func (h *ProfileHandler) ChangePhoneStart(c *gin.Context) {
	user := middleware.UserFromContext(c)
	var req struct {
		Phone string `json:"phone_number" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	info, err := h.accounts.ChangePhoneStart(user, req.Phone)
	h.respondChangeStart(c, info, err)
}

func (h *ProfileHandler) respondChangeStart(c *gin.Context, info *services.CodeDelivery, err error) {
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAlreadyVerified):
			c.JSON(http.StatusBadRequest, gin.H{"error": "already verified"})
		case errors.Is(err, services.ErrContactTaken):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrDeliveryFailed):
			c.JSON(http.StatusBadGateway, gin.H{"error": "code delivery failed, try resend", "random_number": info})
		default:
			if verificationStatus(c, err) {
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "request failed"})
		}
		return
	}
	c.JSON(http.StatusOK, info)
}

// @Summary      Смена контакта: подтверждение кода
// @Tags         Profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.User
// @Failure      400  {object}  map[string]string
// @Router       /profile/change-confirm [post]
func (h *ProfileHandler) ChangeDataConfirm(c *gin.Context) {
	user := middleware.UserFromContext(c)
	var req struct {
		Key  string `json:"random_key" binding:"required"`
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := h.accounts.ChangeDataConfirm(user, req.Key, req.Code)
	if err != nil {
		if verificationStatus(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "confirmation failed"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

type addressRequest struct {
	Title         string  `json:"title" binding:"required"`
	PostCode      string  `json:"post_code"`
	State         string  `json:"state"`
	City          string  `json:"city" binding:"required"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	PostalAddress string  `json:"postal_address" binding:"required"`
	IsDefault     bool    `json:"is_default"`
}

// @Summary      Список адресов
// @Tags         Profile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  models.Address
// @Router       /profile/addresses [get]
func (h *ProfileHandler) ListAddresses(c *gin.Context) {
	user := middleware.UserFromContext(c)
	list, err := h.addresses.ListByUser(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary      Добавить адрес
// @Tags         Profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      201  {object}  models.Address
// @Router       /profile/addresses [post]
func (h *ProfileHandler) CreateAddress(c *gin.Context) {
	user := middleware.UserFromContext(c)
	var req addressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	addr := &models.Address{
		UserID:        user.ID,
		Title:         req.Title,
		PostCode:      req.PostCode,
		State:         req.State,
		City:          req.City,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		PostalAddress: req.PostalAddress,
		IsDefault:     req.IsDefault,
	}
	if err := h.addresses.Create(addr); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, addr)
}

// @Summary      Обновить адрес
// @Tags         Profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.Address
// @Failure      404  {object}  map[string]string
// @Router       /profile/addresses/{id} [put]
func (h *ProfileHandler) UpdateAddress(c *gin.Context) {
	user := middleware.UserFromContext(c)
	id, ok := pathInt(c, "id")
	if !ok {
		return
	}
	addr, err := h.addresses.GetByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if addr == nil || addr.UserID != user.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "address not found"})
		return
	}
	var req addressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	addr.Title = req.Title
	addr.PostCode = req.PostCode
	addr.State = req.State
	addr.City = req.City
	addr.Latitude = req.Latitude
	addr.Longitude = req.Longitude
	addr.PostalAddress = req.PostalAddress
	addr.IsDefault = req.IsDefault
	if err := h.addresses.Update(addr); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, addr)
}

// @Summary      Удалить адрес
// @Tags         Profile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /profile/addresses/{id} [delete]
func (h *ProfileHandler) DeleteAddress(c *gin.Context) {
	user := middleware.UserFromContext(c)
	id, ok := pathInt(c, "id")
	if !ok {
		return
	}
	addr, err := h.addresses.GetByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if addr == nil || addr.UserID != user.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "address not found"})
		return
	}
	if err := h.addresses.Delete(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Address deleted"})
}
