package auth

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var middlewareTracer = otel.Tracer("auth-middleware")

// CookieName is the httpOnly cookie carrying the session token
const CookieName = "token"

// Gin context keys set by the middleware
const (
	UserIDKey = "user_id"
	EmailKey  = "email"
	ClaimsKey = "claims"
)

// RequireAuth is a Gin middleware that validates the session token
func RequireAuth(jwtManager *JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := middlewareTracer.Start(c.Request.Context(), "auth.require_auth")
		defer span.End()

		token := extractToken(c)
		if token == "" {
			span.SetAttributes(attribute.Bool("auth.token_present", false))
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Not authorized"})
			c.Abort()
			return
		}

		span.SetAttributes(attribute.Bool("auth.token_present", true))

		claims, err := jwtManager.ValidateToken(ctx, token)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.Bool("auth.token_valid", false))
			log.Printf(`{"level":"warn","message":"Invalid token","error":"%v"}`, err)
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Token invalid or expired"})
			c.Abort()
			return
		}

		span.SetAttributes(
			attribute.Bool("auth.token_valid", true),
			attribute.String("user.id", claims.UserID),
		)

		setClaims(c, claims)

		log.Printf(`{"level":"info","message":"User authenticated","user_id":"%s","path":"%s","method":"%s"}`,
			claims.UserID, c.Request.URL.Path, c.Request.Method)

		c.Next()
	}
}

// OptionalAuth is a Gin middleware that validates the session token if present
func OptionalAuth(jwtManager *JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := middlewareTracer.Start(c.Request.Context(), "auth.optional_auth")
		defer span.End()

		token := extractToken(c)
		if token == "" {
			span.SetAttributes(attribute.Bool("auth.authenticated", false))
			c.Next()
			return
		}

		claims, err := jwtManager.ValidateToken(ctx, token)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.Bool("auth.authenticated", false))
			log.Printf(`{"level":"warn","message":"Invalid optional token","error":"%v"}`, err)
			c.Next()
			return
		}

		span.SetAttributes(
			attribute.Bool("auth.authenticated", true),
			attribute.String("user.id", claims.UserID),
		)

		setClaims(c, claims)
		c.Next()
	}
}

// UserID returns the authenticated user id, or "" for anonymous requests
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

func setClaims(c *gin.Context, claims *Claims) {
	c.Set(UserIDKey, claims.UserID)
	c.Set(EmailKey, claims.Email)
	c.Set(ClaimsKey, claims)
}

// extractToken reads "Authorization: Bearer <token>" and falls back to the session cookie
func extractToken(c *gin.Context) string {
	const prefix = "Bearer "
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}

	if cookie, err := c.Cookie(CookieName); err == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}
