package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"coaching-site-backend/internal/auth"
	"coaching-site-backend/internal/models"
)

type Authenticator interface {
	Register(ctx context.Context, email, password string) (*auth.Admin, error)
	Login(ctx context.Context, email, password string) (*auth.Token, error)
}

type AuthHandler struct {
	auth   Authenticator
	logger *slog.Logger
}

func NewAuthHandler(authenticator Authenticator, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: authenticator, logger: logger}
}

// Register godoc
// @Summary     Register an admin
// @Description Creates an admin account. Only the first admin can register unless REGISTRATION_ENABLED is true.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body     models.CredentialsRequest true "Credentials"
// @Success     201     {object} models.AdminResponse
// @Failure     400     {object} models.ErrorResponse
// @Failure     403     {object} models.ErrorResponse
// @Failure     409     {object} models.ErrorResponse
// @Failure     429     {object} models.ErrorResponse
// @Router      /api/v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.CredentialsRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "email and password are required"})
		return
	}

	admin, err := h.auth.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, models.AdminResponse{
		ID:        admin.ID,
		Email:     admin.Email,
		CreatedAt: admin.CreatedAt,
	})
}

// Login godoc
// @Summary     Log in
// @Description Exchanges admin credentials for a bearer token.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body     models.CredentialsRequest true "Credentials"
// @Success     200     {object} models.TokenResponse
// @Failure     400     {object} models.ErrorResponse
// @Failure     401     {object} models.ErrorResponse
// @Failure     429     {object} models.ErrorResponse
// @Router      /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.CredentialsRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "email and password are required"})
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, models.TokenResponse{
		AccessToken: token.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   token.ExpiresAt,
	})
}
