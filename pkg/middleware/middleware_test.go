package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"carenest/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func init() {
	gin.SetMode(gin.TestMode)
}

func authedRouter() *gin.Engine {
	r := gin.New()
	r.GET("/me", JWTAuthMiddleware(testSecret), func(c *gin.Context) {
		session, err := utils.SessionFrom(c)
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, session.UserID.String())
	})
	return r
}

func get(r http.Handler, path, authorization, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuthRejectsMissingOrBadToken(t *testing.T) {
	r := authedRouter()
	expired, err := utils.CreateToken(testSecret, uuid.New(), "owner@example.com", -time.Minute)
	require.NoError(t, err)
	foreign, err := utils.CreateToken([]byte("other-secret"), uuid.New(), "owner@example.com", time.Hour)
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing":      "",
		"not bearer":   "Basic abc",
		"garbage":      "Bearer not-a-jwt",
		"expired":      "Bearer " + expired,
		"wrong secret": "Bearer " + foreign,
	} {
		t.Run(name, func(t *testing.T) {
			w := get(r, "/me", header, "")
			require.Equal(t, http.StatusUnauthorized, w.Code)

			var body utils.APIResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "error", body.Status)
			assert.Equal(t, utils.ErrCodeUnauthenticated, body.Error)
		})
	}
}

func TestJWTAuthSetsSession(t *testing.T) {
	userID := uuid.New()
	token, err := utils.CreateToken(testSecret, userID, "owner@example.com", time.Hour)
	require.NoError(t, err)

	w := get(authedRouter(), "/me", "Bearer "+token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID.String(), w.Body.String())
}

func TestRateLimiterPerClientIP(t *testing.T) {
	r := gin.New()
	r.GET("/promo", NewRateLimiter(3).Middleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, get(r, "/promo", "", "203.0.113.7:4000").Code, "request %d", i)
	}

	w := get(r, "/promo", "", "203.0.113.7:4000")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, get(r, "/promo", "", "198.51.100.2:4000").Code)
}
