package handlers

import (
	"net/http"

	"legalizador/internal/models"
	"legalizador/internal/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// UserHandlers handles user management for administrators
type UserHandlers struct {
	userService services.UserService
	logger      *zap.Logger
}

// NewUserHandlers creates a new user handlers instance
func NewUserHandlers(userService services.UserService, logger *zap.Logger) *UserHandlers {
	return &UserHandlers{
		userService: userService,
		logger:      logger,
	}
}

// ListUsers handles GET /users
//
//	@Summary	List users with translated role and status
//	@Tags		users
//	@Produce	json
//	@Success	200	{array}	models.UserView
//	@Router		/v1/users [get]
func (h *UserHandlers) ListUsers(c echo.Context) error {
	users, err := h.userService.List(c.Request().Context())
	if err != nil {
		return sendError(c, h.logger, err, "Error consultando usuarios")
	}
	return c.JSON(http.StatusOK, users)
}

// CreateUser handles POST /users
func (h *UserHandlers) CreateUser(c echo.Context) error {
	var req models.CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return sendBadBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return sendError(c, h.logger, err, "Error creando usuario")
	}

	user, err := h.userService.Create(c.Request().Context(), req)
	if err != nil {
		return sendError(c, h.logger, err, "Error creando usuario")
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateUser handles PATCH /users. An empty password keeps the stored one.
func (h *UserHandlers) UpdateUser(c echo.Context) error {
	var req models.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return sendBadBody(c)
	}

	user, err := h.userService.Update(c.Request().Context(), req)
	if err != nil {
		return sendError(c, h.logger, err, "Error actualizando usuario")
	}
	return c.JSON(http.StatusOK, user)
}
