package auth

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shishobooks/catalog/pkg/errcodes"
	"github.com/shishobooks/catalog/pkg/models"
)

// Middleware provides authentication middleware.
type Middleware struct {
	authService *Service
}

// NewMiddleware creates a new auth middleware.
func NewMiddleware(authService *Service) *Middleware {
	return &Middleware{
		authService: authService,
	}
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func (m *Middleware) userFromRequest(c echo.Context) (*models.User, error) {
	token := bearerToken(c)
	if token == "" {
		return nil, errcodes.Unauthorized("Authentication required")
	}

	claims, err := m.authService.ValidateToken(token)
	if err != nil {
		return nil, errcodes.Unauthorized("Invalid or expired token")
	}

	// Verify the user still exists
	user, err := m.authService.GetUserByID(c.Request().Context(), claims.UserID)
	if err != nil {
		return nil, errcodes.Unauthorized("User not found")
	}
	return user, nil
}

func setUser(c echo.Context, user *models.User) {
	c.Set("user_id", user.ID)
	c.Set("username", user.Username)
	c.Set("user", user)
}

// Authenticate requires a valid bearer token and returns 401 otherwise.
func (m *Middleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := m.userFromRequest(c)
		if err != nil {
			return err
		}
		setUser(c, user)
		return next(c)
	}
}

// AuthenticateOptional extracts user info if available but doesn't require authentication.
func (m *Middleware) AuthenticateOptional(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if user, err := m.userFromRequest(c); err == nil {
			setUser(c, user)
		}
		return next(c)
	}
}

// RequireUser rejects the request with 403 unless AuthenticateOptional found
// a user. Catalog writes are gated with it.
func (m *Middleware) RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := c.Get("user").(*models.User); !ok {
			return errcodes.Forbidden("Writing to the catalog without authentication")
		}
		return next(c)
	}
}
