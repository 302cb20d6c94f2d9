package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"kammalabel/internal/authz"
	"kammalabel/internal/models"
	"kammalabel/internal/services"
)

const (
	ctxUserKey  = "auth_user"
	ctxTokenKey = "auth_token"
)

func bearerToken(c *gin.Context) string {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// AuthMiddleware проверяет Bearer-токен по базе: отозванный токен
// перестаёт работать сразу, без кэширования.
func AuthMiddleware(tokens *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		user, token, err := tokens.Validate(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		c.Set(ctxUserKey, user)
		c.Set(ctxTokenKey, token)
		c.Next()
	}
}

// OptionalAuth кладёт пользователя в контекст, если токен есть и валиден,
// и молча пропускает дальше, если нет. Для корзины: гость работает по cookie.
func OptionalAuth(tokens *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenStr := bearerToken(c); tokenStr != "" {
			if user, token, err := tokens.Validate(tokenStr); err == nil && !token.IsTemporary {
				c.Set(ctxUserKey, user)
				c.Set(ctxTokenKey, token)
			}
		}
		c.Next()
	}
}

// RequireFullToken не пускает с временным токеном: он годится только
// для завершения регистрации и проверки кода при логине.
func RequireFullToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromContext(c)
		if token == nil || token.IsTemporary {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "full authentication required"})
			return
		}
		c.Next()
	}
}

func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := UserFromContext(c)
		if user == nil || !authz.IsStaff(user.UserType) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

func UserFromContext(c *gin.Context) *models.User {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

func TokenFromContext(c *gin.Context) *models.SessionToken {
	v, ok := c.Get(ctxTokenKey)
	if !ok {
		return nil
	}
	token, _ := v.(*models.SessionToken)
	return token
}
