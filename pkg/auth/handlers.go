package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/catalog/pkg/models"
)

type handler struct {
	authService *Service
}

func buildMeResponse(user *models.User) MeResponse {
	return MeResponse{
		ID:       user.ID,
		Username: user.Username,
	}
}

// register creates a user account.
func (h *handler) register(c echo.Context) error {
	ctx := c.Request().Context()
	log := logger.FromContext(ctx)

	params := CredentialsPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.authService.Register(ctx, params.Username, params.Password)
	if err != nil {
		return errors.WithStack(err)
	}

	log.Info("registered user", logger.Data{"user_id": user.ID})

	return errors.WithStack(c.JSON(http.StatusCreated, buildMeResponse(user)))
}

// login exchanges credentials for a bearer token.
func (h *handler) login(c echo.Context) error {
	ctx := c.Request().Context()

	params := CredentialsPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.authService.Authenticate(ctx, params.Username, params.Password)
	if err != nil {
		return err
	}

	token, err := h.authService.GenerateToken(user)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, TokenResponse{Token: token}))
}

// me returns the current authenticated user's info.
func (h *handler) me(c echo.Context) error {
	user, ok := c.Get("user").(*models.User)
	if !ok {
		return errors.New("me reached without an authenticated user")
	}
	return errors.WithStack(c.JSON(http.StatusOK, buildMeResponse(user)))
}
