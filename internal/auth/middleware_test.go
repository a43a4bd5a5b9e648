package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) (*gin.Engine, *JWTManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jm, err := NewJWTManager(testSecret)
	require.NoError(t, err)

	router := gin.New()
	whoami := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": UserID(c)})
	}
	router.GET("/protected", RequireAuth(jm), whoami)
	router.GET("/optional", OptionalAuth(jm), whoami)
	return router, jm
}

func TestRequireAuth(t *testing.T) {
	router, jm := setupRouter(t)
	token, _, err := jm.GenerateToken(context.Background(), "user-123", "ana@example.com", "Ana", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name       string
		prepare    func(r *http.Request)
		wantStatus int
	}{
		{
			name:       "missing token",
			prepare:    func(r *http.Request) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "bearer header",
			prepare: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+token)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "session cookie",
			prepare: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: CookieName, Value: token})
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "invalid token",
			prepare: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer invalid")
			},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			tt.prepare(req)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.JSONEq(t, `{"user_id":"user-123"}`, w.Body.String())
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	router, jm := setupRouter(t)
	token, _, err := jm.GenerateToken(context.Background(), "user-123", "ana@example.com", "Ana", time.Hour)
	require.NoError(t, err)

	t.Run("anonymous", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/optional", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"user_id":""}`, w.Body.String())
	})

	t.Run("invalid token is ignored", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/optional", nil)
		req.Header.Set("Authorization", "Bearer invalid")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"user_id":""}`, w.Body.String())
	})

	t.Run("authenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/optional", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"user_id":"user-123"}`, w.Body.String())
	})
}
