package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spotsnack/backend/internal/auth"
	"github.com/spotsnack/backend/internal/bridge"
	"github.com/spotsnack/backend/internal/gateway"
	"github.com/spotsnack/backend/internal/users"
	"github.com/spotsnack/backend/tests/helpers"
)

func TestUserStoreIntegration(t *testing.T) {
	db := helpers.NewTestDatabase(t)
	ctx := context.Background()
	user := helpers.NewTestUser()
	defer db.DeleteUser(t, user.Email)

	created, err := db.Store.Create(ctx, user.Name, strings.ToUpper(user.Email), user.Password)
	require.NoError(t, err)
	assert.Equal(t, user.Email, created.Email)
	assert.False(t, created.CreatedAt.IsZero())

	_, err = db.Store.Create(ctx, user.Name, user.Email, user.Password)
	assert.ErrorIs(t, err, users.ErrEmailTaken)

	authenticated, err := db.Store.Authenticate(ctx, user.Email, user.Password)
	require.NoError(t, err)
	assert.Equal(t, created.ID, authenticated.ID)

	_, err = db.Store.Authenticate(ctx, user.Email, "wrong-password")
	assert.ErrorIs(t, err, users.ErrInvalidCredentials)

	fetched, err := db.Store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Name, fetched.Name)
}

func TestAccountFlowIntegration(t *testing.T) {
	db := helpers.NewTestDatabase(t)
	user := helpers.NewTestUser()
	defer db.DeleteUser(t, user.Email)

	jwtManager, err := auth.NewJWTManager("integration-secret")
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	gateway.RegisterRoutes(router, gateway.Routes{
		Handler: gateway.NewHandler(bridge.New(helpers.WriteInterpreter(t, helpers.ChatReplyScript))),
		Auth:    gateway.NewAuthHandler(db.Store, jwtManager, false),
		JWT:     jwtManager,
	})

	payload, err := json.Marshal(user)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(string(payload)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"`+user.Email+`","password":"`+user.Password+`"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, auth.CookieName, cookies[0].Name)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(cookies[0])
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var me struct {
		Success bool `json:"success"`
		User    struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.True(t, me.Success)
	assert.Equal(t, user.Email, me.User.Email)

	// Authenticated chat still runs the interpreter.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookies[0])
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
