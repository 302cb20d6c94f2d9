package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	sessionCookie = "cart_session"
	ctxSessionKey = "cart_session_id"
	sessionTTL    = 30 * 24 * time.Hour
)

type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// GuestSession выдаёт гостю подписанную cookie с идентификатором корзины.
// Подпись не даёт подставить чужой session id; у авторизованных
// пользователей корзина привязана к аккаунту и cookie не используется.
func GuestSession(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		if raw, err := c.Cookie(sessionCookie); err == nil && raw != "" {
			claims := &sessionClaims{}
			token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return key, nil
			})
			if err == nil && token.Valid && claims.SessionID != "" {
				c.Set(ctxSessionKey, claims.SessionID)
				c.Next()
				return
			}
			// битая или истёкшая cookie — выдаём новую
		}

		sid := uuid.NewString()
		now := time.Now()
		claims := &sessionClaims{
			SessionID: sid,
			RegisteredClaims: jwt.RegisteredClaims{
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
			},
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session init failed"})
			return
		}
		c.SetCookie(sessionCookie, signed, int(sessionTTL.Seconds()), "/", "", false, true)
		c.Set(ctxSessionKey, sid)
		c.Next()
	}
}

func SessionFromContext(c *gin.Context) string {
	v, ok := c.Get(ctxSessionKey)
	if !ok {
		return ""
	}
	sid, _ := v.(string)
	return sid
}
