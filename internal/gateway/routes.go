package gateway

import (
	"github.com/gin-gonic/gin"

	"github.com/spotsnack/backend/internal/auth"
)

// Routes groups the handlers mounted by RegisterRoutes. Auth and JWT may be nil
// when the service runs without a user database.
type Routes struct {
	Handler *Handler
	Socket  *ChatSocket
	Auth    *AuthHandler
	JWT     *auth.JWTManager
}

// RegisterRoutes mounts the interpreter routes at the root and under /api, plus the account routes
func RegisterRoutes(router *gin.Engine, r Routes) {
	var middleware []gin.HandlerFunc
	if r.JWT != nil {
		middleware = append(middleware, auth.OptionalAuth(r.JWT))
	}

	for _, group := range []*gin.RouterGroup{router.Group("", middleware...), router.Group("/api", middleware...)} {
		group.POST("/chat", r.Handler.Chat)
		group.POST("/vibe", r.Handler.Vibe)
		if r.Socket != nil {
			group.GET("/ws/chat", r.Socket.Stream)
		}
	}

	if r.Auth == nil || r.JWT == nil {
		return
	}

	accounts := router.Group("/auth")
	accounts.POST("/register", r.Auth.Register)
	accounts.POST("/login", r.Auth.Login)
	accounts.POST("/logout", r.Auth.Logout)
	accounts.GET("/me", auth.RequireAuth(r.JWT), r.Auth.Me)
}
