package gateway

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spotsnack/backend/internal/auth"
	"github.com/spotsnack/backend/internal/models"
	"github.com/spotsnack/backend/internal/users"
)

// AuthHandler handles account registration and sessions
type AuthHandler struct {
	store         users.Store
	jwtManager    *auth.JWTManager
	secureCookies bool
}

// NewAuthHandler creates a new account handler
func NewAuthHandler(store users.Store, jwtManager *auth.JWTManager, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		store:         store,
		jwtManager:    jwtManager,
		secureCookies: secureCookies,
	}
}

// Register godoc
// @Summary Register
// @Description Create a user account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Account details"
// @Success 201 {object} models.MessageResponse
// @Failure 400 {object} models.MessageResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.MessageResponse{Message: "Invalid request"})
		return
	}

	user, err := h.store.Create(c.Request.Context(), req.Name, req.Email, req.Password)
	if errors.Is(err, users.ErrEmailTaken) {
		c.JSON(http.StatusBadRequest, models.MessageResponse{Message: "Email already exists"})
		return
	}
	if err != nil {
		log.Printf(`{"level":"error","message":"Failed to create user","error":"%v"}`, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	log.Printf(`{"level":"info","message":"User registered","user_id":"%s"}`, user.ID)
	c.JSON(http.StatusCreated, models.MessageResponse{Message: "User created"})
}

// Login godoc
// @Summary User login
// @Description Authenticate user, set the session cookie and return the JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} models.MessageResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.MessageResponse{Message: "Invalid request"})
		return
	}

	user, err := h.store.Authenticate(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, users.ErrInvalidCredentials) {
		log.Printf(`{"level":"warn","message":"Invalid credentials","email":"%s"}`, users.NormalizeEmail(req.Email))
		c.JSON(http.StatusBadRequest, models.MessageResponse{Message: "Invalid credentials"})
		return
	}
	if err != nil {
		log.Printf(`{"level":"error","message":"Failed to authenticate user","error":"%v"}`, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to authenticate"})
		return
	}

	token, expiresAt, err := h.jwtManager.GenerateToken(c.Request.Context(), user.ID, user.Email, user.Name, auth.SessionDuration)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	h.setSessionCookie(c, token, int(auth.SessionDuration.Seconds()))
	c.JSON(http.StatusOK, models.LoginResponse{
		Message:   "Logged in",
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user.ToUserInfo(),
	})
}

// Logout godoc
// @Summary Logout
// @Description Clear the session cookie
// @Tags auth
// @Produce json
// @Success 200 {object} models.MessageResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Logged out"})
}

// Me godoc
// @Summary Current user
// @Description Return the authenticated user
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]string
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.store.GetByID(c.Request.Context(), auth.UserID(c))
	if errors.Is(err, users.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Not authorized"})
		return
	}
	if err != nil {
		log.Printf(`{"level":"error","message":"Failed to load user","error":"%v"}`, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": user.ToUserInfo()})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, value, maxAge, "/", "", h.secureCookies, true)
}
