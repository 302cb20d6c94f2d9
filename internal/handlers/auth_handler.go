package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kammalabel/internal/middleware"
	"kammalabel/internal/services"
)

type AuthHandler struct {
	accounts *services.AccountService
}

func NewAuthHandler(accounts *services.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// @Summary      Вход: первый шаг
// @Description  Проверяет логин и пароль, отправляет код подтверждения и выдаёт временный токен
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login  body      object{username=string,password=string}  true  "Данные для входа"
// @Success      200    {object}  services.LoginStartResult
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) LoginStart(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[auth][login] bad request: bind json failed: err=%v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.accounts.LoginStart(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
			return
		}
		if errors.Is(err, services.ErrDeliveryFailed) {
			// код создан, отправка не удалась — клиент может дёрнуть resend
			c.JSON(http.StatusBadGateway, gin.H{
				"error":         "code delivery failed, try resend",
				"random_number": res.Delivery,
				"token_info":    res.TempToken,
			})
			return
		}
		if verificationStatus(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary      Вход: второй шаг
// @Description  Принимает код и временный токен, возвращает полный токен сессии
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        verify  body      object{token=string,random_key=string,code=string}  true  "Код подтверждения"
// @Success      200     {object}  models.SessionToken
// @Failure      400     {object}  map[string]string
// @Failure      401     {object}  map[string]string
// @Router       /auth/login/verify [post]
func (h *AuthHandler) LoginVerify(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
		Key   string `json:"random_key" binding:"required"`
		Code  string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	full, err := h.accounts.LoginVerify(req.Token, req.Key, req.Code)
	if err != nil {
		if errors.Is(err, services.ErrTokenInvalid) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		if verificationStatus(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "verification failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":      full.Token,
		"expires_at": full.ExpiresAt,
	})
}

// @Summary      Регистрация: шаг 1
// @Description  Создаёт неактивный аккаунт и выдаёт временный токен
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        register  body      object{first_name=string,last_name=string,email=string,phone_number=string,birth_date=string}  true  "Данные аккаунта"
// @Success      201       {object}  services.RegisterStartResult
// @Failure      400       {object}  map[string]string
// @Failure      409       {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) RegisterStart(c *gin.Context) {
	var req struct {
		FirstName string `json:"first_name" binding:"required"`
		LastName  string `json:"last_name" binding:"required"`
		Email     string `json:"email" binding:"required,email"`
		Phone     string `json:"phone_number" binding:"required"`
		BirthDate string `json:"birth_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := services.RegisterStartInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	}
	if req.BirthDate != "" {
		bd, err := time.Parse("2006-01-02", req.BirthDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "birth_date must be YYYY-MM-DD"})
			return
		}
		in.BirthDate = &bd
	}

	res, err := h.accounts.RegisterStart(in)
	if err != nil {
		if errors.Is(err, services.ErrContactTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}
	c.JSON(http.StatusCreated, res)
}

// @Summary      Регистрация: отправка кода
// @Description  Отправляет код подтверждения на email или телефон регистрирующегося
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        send  body      object{send_code_type=string}  true  "Канал: email или sms"
// @Success      200   {object}  services.CodeDelivery
// @Failure      400   {object}  map[string]string
// @Router       /auth/register/send-code [post]
func (h *AuthHandler) RegisterSendCode(c *gin.Context) {
	user := middleware.UserFromContext(c)
	var req struct {
		Channel string `json:"send_code_type" binding:"required,oneof=email sms"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	info, err := h.accounts.RegisterSendCode(user, req.Channel)
	if err != nil {
		if errors.Is(err, services.ErrDeliveryFailed) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "code delivery failed, try resend", "random_number": info})
			return
		}
		if verificationStatus(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "send failed"})
		return
	}
	c.JSON(http.StatusOK, info)
}

// @Summary      Регистрация: проверка кода
// @Description  Подтверждает контакт по коду из письма или SMS
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        check  body      object{random_key=string,code=string}  true  "Код подтверждения"
// @Success      200    {object}  models.User
// @Failure      400    {object}  map[string]string
// @Router       /auth/register/check-code [post]
func (h *AuthHandler) RegisterCheckCode(c *gin.Context) {
	user := middleware.UserFromContext(c)
	var req struct {
		Key  string `json:"random_key" binding:"required"`
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.accounts.RegisterCheckCode(user, req.Key, req.Code)
	if err != nil {
		if verificationStatus(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "confirmation failed"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// @Summary      Регистрация: установка пароля
// @Description  Завершает регистрацию: сохраняет пароль, активирует аккаунт, выдаёт полный токен
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        password  body      object{password=string}  true  "Пароль"
// @Success      200       {object}  models.SessionToken
// @Failure      400       {object}  map[string]string
// @Router       /auth/register/set-password [post]
func (h *AuthHandler) RegisterSetPassword(c *gin.Context) {
	user := middleware.UserFromContext(c)
	var req struct {
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	full, err := h.accounts.RegisterSetPassword(user, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrCodeNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "confirm email or phone first"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":      full.Token,
		"expires_at": full.ExpiresAt,
	})
}

// @Summary      Восстановление пароля: запрос кода
// @Description  Отправляет код на подтверждённый телефон или email
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        forgot  body      object{username=string}  true  "Email или телефон"
// @Success      200     {object}  services.CodeDelivery
// @Failure      404     {object}  map[string]string
// @Router       /auth/forgot-password [post]
func (h *AuthHandler) ForgotStart(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	info, err := h.accounts.ForgotStart(req.Username)
	if err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
			return
		}
		if errors.Is(err, services.ErrDeliveryFailed) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "code delivery failed, try resend", "random_number": info})
			return
		}
		if verificationStatus(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "request failed"})
		return
	}
	c.JSON(http.StatusOK, info)
}

// @Summary      Восстановление пароля: повторная отправка
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        resend  body      object{random_key=string,send_code_type=string}  true  "Ключ и канал"
// @Success      200     {object}  services.CodeDelivery
// @Failure      429     {object}  map[string]string
// @Router       /auth/forgot-password/resend [post]
func (h *AuthHandler) ForgotResend(c *gin.Context) {
	var req struct {
		Key     string `json:"random_key" binding:"required"`
		Channel string `json:"send_code_type" binding:"omitempty,oneof=email sms"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	info, err := h.accounts.ForgotResend(req.Key, req.Channel)
	if err != nil {
		if errors.Is(err, services.ErrDeliveryFailed) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "code delivery failed, try resend", "random_number": info})
			return
		}
		if verificationStatus(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "resend failed"})
		return
	}
	c.JSON(http.StatusOK, info)
}

// @Summary      Восстановление пароля: смена
// @Description  Проверяет код и устанавливает новый пароль, отзывая все сессии
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        change  body      object{random_key=string,code=string,password=string}  true  "Код и новый пароль"
// @Success      200     {object}  map[string]string
// @Failure      400     {object}  map[string]string
// @Router       /auth/forgot-password/change [post]
func (h *AuthHandler) ForgotChangePassword(c *gin.Context) {
	var req struct {
		Key      string `json:"random_key" binding:"required"`
		Code     string `json:"code" binding:"required"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.accounts.ForgotChangePassword(req.Key, req.Code, req.Password); err != nil {
		if verificationStatus(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "password change failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password changed"})
}

// @Summary      Выход
// @Description  Отзывает текущий токен сессии
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]string
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	token := middleware.TokenFromContext(c)
	if token == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no active session"})
		return
	}
	if err := h.accounts.Logout(token.Token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
