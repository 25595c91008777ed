package handlers

import (
	"net/http"

	"legalizador/internal/common"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// sendError writes a {message} body for err. Domain errors carry their own
// message and status; anything else is logged and answered with fallback.
func sendError(c echo.Context, logger *zap.Logger, err error, fallback string) error {
	status := common.StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error(fallback,
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err))
	}
	return common.SendMessage(c, status, common.PublicMessage(err, fallback))
}

// sendBadBody answers a request whose body could not be decoded.
func sendBadBody(c echo.Context) error {
	return common.SendMessage(c, http.StatusBadRequest, "Cuerpo de la solicitud inválido")
}

func pathID(c echo.Context, name string) (int64, bool) {
	var id int64
	if err := echo.PathParamsBinder(c).Int64(name, &id).BindError(); err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// sendResultError is sendError with a {success:false, message} body.
func sendResultError(c echo.Context, logger *zap.Logger, err error, fallback string) error {
	status := common.StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error(fallback, zap.String("path", c.Path()), zap.Error(err))
	}
	return common.SendResult(c, status, false, common.PublicMessage(err, fallback))
}
