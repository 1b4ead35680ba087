package handlers

import (
	"errors"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"portfolio_backend/internal/assets"
	"portfolio_backend/internal/logger"
	"portfolio_backend/internal/storage"
	"portfolio_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// MediaHandler отдает сохраненные файлы по media URL (для локального хранилища)
type MediaHandler struct {
	*BaseHandler
	store    *assets.Store
	mediaURL string
}

func NewMediaHandler(base *BaseHandler, store *assets.Store, mediaURL string) *MediaHandler {
	return &MediaHandler{
		BaseHandler: base,
		store:       store,
		mediaURL:    mediaURL,
	}
}

// RegisterRoutes - вне /api/v1, по префиксу media_url
func (h *MediaHandler) RegisterRoutes(r gin.IRouter) {
	prefix := "/" + strings.Trim(h.mediaURL, "/")
	r.GET(prefix+"/*path", h.ServeFile)
	r.HEAD(prefix+"/*path", h.ServeFile)
}

func (h *MediaHandler) ServeFile(c *gin.Context) {
	filePath := strings.TrimPrefix(path.Clean(c.Param("path")), "/")
	if filePath == "" || filePath == "." {
		apperrors.HandleError(c, apperrors.ErrNotFound(errors.New("empty media path")))
		return
	}

	reader, size, err := h.store.Open(c.Request.Context(), filePath)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidPath) || errors.Is(err, storage.ErrNotFound) {
			apperrors.HandleError(c, apperrors.ErrNotFound(err))
			return
		}
		logger.CtxWithError(c.Request.Context(), "Failed to open media file", err, "path", filePath)
		apperrors.HandleError(c, apperrors.ErrStorageFailure(err))
		return
	}
	defer reader.Close()

	contentType := mime.TypeByExtension(path.Ext(filePath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.Header("Cache-Control", "public, max-age=86400")
	if c.Request.Method == http.MethodHead {
		c.Header("Content-Type", contentType)
		c.Header("Content-Length", strconv.FormatInt(size, 10))
		c.Status(http.StatusOK)
		return
	}
	c.DataFromReader(http.StatusOK, size, contentType, reader, nil)
}
