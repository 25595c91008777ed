package handlers

import (
	"errors"
	"mime"
	"net/http"
	"path/filepath"
	"time"

	"legalizador/internal/common"
	"legalizador/internal/models"
	"legalizador/internal/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// UploadHandlers stores invoice and voucher documents.
type UploadHandlers struct {
	storage       services.StorageService
	maxUploadSize int64
	logger        *zap.Logger
	now           func() time.Time
}

func NewUploadHandlers(storage services.StorageService, maxUploadSize int64, logger *zap.Logger) *UploadHandlers {
	return &UploadHandlers{
		storage:       storage,
		maxUploadSize: maxUploadSize,
		logger:        logger,
		now:           time.Now,
	}
}

// Upload handles POST /upload with a multipart "file".
//
//	@Summary	Upload a document
//	@Tags		uploads
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		file	formData	file	true	"Document"
//	@Success	200		{object}	models.UploadResponse
//	@Failure	400		{object}	models.UploadResponse
//	@Router		/v1/upload [post]
func (h *UploadHandlers) Upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.UploadResponse{Success: false, Message: "Archivo no recibido"})
	}
	if h.maxUploadSize > 0 && fh.Size > h.maxUploadSize {
		return c.JSON(http.StatusRequestEntityTooLarge, models.UploadResponse{Success: false, Message: "Archivo demasiado grande"})
	}

	f, err := fh.Open()
	if err != nil {
		h.logger.Error("Failed to open uploaded file", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, models.UploadResponse{Success: false, Message: "Error guardando archivo"})
	}
	defer f.Close()

	name := services.UploadObjectName(fh.Filename, h.now())
	contentType := fh.Header.Get(echo.HeaderContentType)
	if err := h.storage.Put(c.Request().Context(), name, f, fh.Size, contentType); err != nil {
		h.logger.Error("Failed to store upload", zap.String("object", name), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, models.UploadResponse{Success: false, Message: "Error guardando archivo"})
	}

	h.logger.Info("File uploaded", zap.String("object", name), zap.Int64("size", fh.Size))
	return c.JSON(http.StatusOK, models.UploadResponse{Success: true, URL: "/uploads/" + name})
}

// Serve handles GET /uploads/:name. Object storage answers with a redirect
// to a presigned URL; the disk backend streams the file.
func (h *UploadHandlers) Serve(c echo.Context) error {
	name := filepath.Base(c.Param("name"))
	ctx := c.Request().Context()

	url, err := h.storage.PresignedURL(ctx, name)
	if err != nil {
		h.logger.Error("Failed to presign upload", zap.String("object", name), zap.Error(err))
		return common.SendServerError(c, "Error consultando archivo")
	}
	if url != "" {
		return c.Redirect(http.StatusFound, url)
	}

	rc, err := h.storage.Open(ctx, name)
	if err != nil {
		if errors.Is(err, services.ErrObjectNotFound) {
			return common.SendNotFoundError(c, "file")
		}
		h.logger.Error("Failed to open upload", zap.String("object", name), zap.Error(err))
		return common.SendServerError(c, "Error consultando archivo")
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	return c.Stream(http.StatusOK, contentType, rc)
}
