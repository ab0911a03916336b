package auth

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers all auth routes.
func RegisterRoutes(e *echo.Echo, authService *Service) {
	h := &handler{
		authService: authService,
	}
	authMiddleware := NewMiddleware(authService)

	auth := e.Group("/auth")
	auth.POST("/register", h.register)
	auth.POST("/login", h.login)
	auth.GET("/me", h.me, authMiddleware.Authenticate)
}
