package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/cart", GuestSession(secret), func(c *gin.Context) {
		c.String(http.StatusOK, SessionFromContext(c))
	})
	return r
}

func TestGuestSessionIssuesCookie(t *testing.T) {
	r := sessionRouter("test-secret")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	sid := w.Body.String()
	assert.NotEmpty(t, sid)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "cart_session", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	// повторный запрос с cookie возвращает тот же session id
	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req2.AddCookie(cookies[0])
	r.ServeHTTP(w2, req2)
	assert.Equal(t, sid, w2.Body.String())
}

func TestGuestSessionRejectsForgedCookie(t *testing.T) {
	r := sessionRouter("test-secret")

	// cookie, подписанная другим секретом
	forged := sessionRouter("other-secret")
	w := httptest.NewRecorder()
	forged.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cart", nil))
	foreignSID := w.Body.String()
	cookie := w.Result().Cookies()[0]

	w2 := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.AddCookie(cookie)
	r.ServeHTTP(w2, req)

	require.Equal(t, http.StatusOK, w2.Code)
	// подпись не сошлась: выдан новый session id, чужой не принят
	assert.NotEqual(t, foreignSID, w2.Body.String())
	assert.Len(t, w2.Result().Cookies(), 1)
}
