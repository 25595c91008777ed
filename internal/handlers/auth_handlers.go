package handlers

import (
	"net/http"

	"legalizador/internal/common"
	"legalizador/internal/models"
	"legalizador/internal/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	userService services.UserService
	authService services.AuthService
	logger      *zap.Logger
}

// NewAuthHandlers creates a new auth handlers instance
func NewAuthHandlers(userService services.UserService, authService services.AuthService, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{
		userService: userService,
		authService: authService,
		logger:      logger,
	}
}

// Register handles POST /auth/register
//
//	@Summary	Register an auditor account
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		user	body		models.RegisterRequest	true	"Account"
//	@Success	200		{object}	common.MessageResponse
//	@Failure	400		{object}	common.MessageResponse
//	@Failure	409		{object}	common.MessageResponse
//	@Router		/v1/auth/register [post]
func (h *AuthHandlers) Register(c echo.Context) error {
	var req models.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return common.SendResult(c, http.StatusBadRequest, false, "Datos incompletos")
	}

	if _, err := h.userService.Register(c.Request().Context(), req); err != nil {
		return sendResultError(c, h.logger, err, "Error interno del servidor")
	}
	return common.SendResult(c, http.StatusOK, true, "Usuario registrado correctamente")
}

// Login handles POST /auth/login
//
//	@Summary	Sign in with email and password
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		credentials	body		models.LoginRequest	true	"Credentials"
//	@Success	200			{object}	models.LoginResponse
//	@Failure	401			{object}	common.MessageResponse
//	@Failure	403			{object}	common.MessageResponse
//	@Router		/v1/auth/login [post]
func (h *AuthHandlers) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return sendBadBody(c)
	}

	resp, err := h.userService.Login(c.Request().Context(), req)
	if err != nil {
		return sendError(c, h.logger, err, "Error autenticando usuario")
	}
	return c.JSON(http.StatusOK, resp)
}

// Refresh exchanges a refresh token for a new token pair.
func (h *AuthHandlers) Refresh(c echo.Context) error {
	var req models.RefreshTokenRequest
	if err := c.Bind(&req); err != nil {
		return sendBadBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return sendError(c, h.logger, err, "Error renovando sesión")
	}

	tokens, err := h.authService.RefreshToken(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return sendError(c, h.logger, err, "Error renovando sesión")
	}
	return c.JSON(http.StatusOK, tokens)
}

// Logout revokes the refresh token sent in the body.
func (h *AuthHandlers) Logout(c echo.Context) error {
	var req models.RefreshTokenRequest
	if err := c.Bind(&req); err != nil {
		return sendBadBody(c)
	}
	if err := h.authService.RevokeRefreshToken(c.Request().Context(), req.RefreshToken); err != nil {
		return sendError(c, h.logger, err, "Error cerrando sesión")
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user.
func (h *AuthHandlers) Me(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	user, err := h.userService.Get(ctx, userID)
	if err != nil {
		return sendError(c, h.logger, err, "Error consultando usuario")
	}
	return c.JSON(http.StatusOK, user)
}
