package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"kammalabel/internal/services"
)

func pathInt(c *gin.Context, name string) (int, bool) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil || n <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return n, true
}

func pathInt64(c *gin.Context, name string) (int64, bool) {
	n, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || n <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return n, true
}

// verificationStatus — единое соответствие ошибок кодов подтверждения
// HTTP-статусам, чтобы хендлеры не расходились.
func verificationStatus(c *gin.Context, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, services.ErrCodeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "code not found, request a new one"})
	case errors.Is(err, services.ErrCodeExpired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "code expired, please resend"})
	case errors.Is(err, services.ErrTooManyAttempts):
		c.JSON(http.StatusBadRequest, gin.H{"error": "too many attempts, please resend"})
	case errors.Is(err, services.ErrCodeInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid code"})
	case errors.Is(err, services.ErrResendThrottled):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, try later"})
	case errors.Is(err, services.ErrDeliveryFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": "code delivery failed, try resend"})
	default:
		return false
	}
	return true
}
