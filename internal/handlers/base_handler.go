package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"portfolio_backend/internal/assets"
	"portfolio_backend/internal/auth"
	"portfolio_backend/internal/logger"
	"portfolio_backend/internal/middleware"
	"portfolio_backend/internal/services/dto"
	"portfolio_backend/internal/validator"
	"portfolio_backend/pkg/apperrors"
	"portfolio_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ============================================================================
// 1. Базовая структура обработчика
// ============================================================================

type BaseHandler struct {
	validator *validator.Validator
	jwt       *auth.JWTManager
}

func NewBaseHandler(v *validator.Validator, jwtManager *auth.JWTManager) *BaseHandler {
	return &BaseHandler{
		validator: v,
		jwt:       jwtManager,
	}
}

// RequireAuth - маршрут только для аутентифицированных
func (h *BaseHandler) RequireAuth() gin.HandlerFunc {
	return middleware.AuthMiddleware(h.jwt)
}

// OptionalAuth - маршрут доступен анонимно, токен (если есть) проверяется
func (h *BaseHandler) OptionalAuth() gin.HandlerFunc {
	return middleware.OptionalAuthMiddleware(h.jwt)
}

// ============================================================================
// 2. Извлечение DB и актора
// ============================================================================

// GetDB извлекает *gorm.DB (пул или транзакцию) из gin.Context
// Этот метод ДОЛЖЕН вызываться в каждом хендлере, который обращается к сервисам
func (h *BaseHandler) GetDB(c *gin.Context) *gorm.DB {
	dbKey := string(contextkeys.DBContextKey)

	val, ok := c.Get(dbKey)
	if !ok {
		// Этого никогда не должно случиться, если DBMiddleware настроен
		logger.CtxError(c.Request.Context(), "critical error: db key not found in context", "key", dbKey)
		panic("critical error: DBMiddleware did not set the db key")
	}

	db, ok := val.(*gorm.DB)
	if !ok {
		logger.CtxError(c.Request.Context(), "critical error: db in context is not *gorm.DB", "key", dbKey, "type", fmt.Sprintf("%T", val))
		panic("critical error: db in context has incorrect type")
	}

	return db
}

// Actor - актор запроса (анонимный, если токена не было)
func (h *BaseHandler) Actor(c *gin.Context) auth.Actor {
	return middleware.GetActor(c)
}

// ============================================================================
// 3. Методы привязки и валидации (с контекстным логгированием)
// ============================================================================

func (h *BaseHandler) BindAndValidate_JSON(c *gin.Context, obj interface{}) bool {
	ctx := c.Request.Context()

	if err := c.ShouldBind(obj); err != nil {
		logger.CtxWithError(ctx, "Failed to bind JSON body", err, "path", c.Request.URL.Path)
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid request body: "+err.Error()))
		return false
	}

	return h.validate(c, obj)
}

func (h *BaseHandler) BindAndValidate_Query(c *gin.Context, obj interface{}) bool {
	ctx := c.Request.Context()

	if err := c.ShouldBindQuery(obj); err != nil {
		logger.CtxWithError(ctx, "Failed to bind query params", err, "path", c.Request.URL.Path)
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid query parameters: "+err.Error()))
		return false
	}

	return h.validate(c, obj)
}

func (h *BaseHandler) validate(c *gin.Context, obj interface{}) bool {
	ctx := c.Request.Context()

	if err := h.validator.Validate(obj); err != nil {
		if vErr, ok := err.(*validator.ValidationError); ok {
			logger.CtxWarn(ctx, "Validation failed", "errors", vErr.Errors, "path", c.Request.URL.Path)
			apperrors.HandleError(c, apperrors.ValidationError(vErr.Errors))
		} else {
			logger.CtxWithError(ctx, "Internal validator error", err, "path", c.Request.URL.Path)
			apperrors.HandleError(c, apperrors.InternalError(err))
		}
		return false
	}
	return true
}

// BindUpdateRequest собирает единый запрос обновления из multipart формы:
// скалярные поля через form, файлы, флаги удаления и внешние URL по ключам слотов.
// Возвращенную функцию нужно вызвать после обработки, она закрывает открытые файлы.
func (h *BaseHandler) BindUpdateRequest(c *gin.Context, form dto.FieldSource, spec assets.KindSpec) (*dto.UpdateRequest, func(), bool) {
	noop := func() {}
	if !h.BindAndValidate_JSON(c, form) {
		return nil, noop, false
	}

	req := dto.NewUpdateRequest()
	req.Fields = form.Fields()

	if !isFormRequest(c) {
		return req, noop, true
	}

	var opened []io.Closer
	cleanup := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	for _, slot := range spec.Slots {
		if fh, err := c.FormFile(slot.UploadKey); err == nil {
			f, err := fh.Open()
			if err != nil {
				cleanup()
				h.HandleServiceError(c, apperrors.ErrNotAFile(slot.UploadKey))
				return nil, noop, false
			}
			opened = append(opened, f)
			req.Uploads[slot.Name] = &dto.Upload{Filename: fh.Filename, Size: fh.Size, Content: f}
		} else if _, present := c.GetPostForm(slot.UploadKey); present {
			// Ключ файла передан обычным значением
			req.Uploads[slot.Name] = &dto.Upload{}
		}

		if v, ok := c.GetPostForm(slot.DeleteKey); ok && parseFlag(v) {
			req.Deletes[slot.Name] = true
		}
		if v, ok := c.GetPostForm(slot.URLKey); ok && strings.TrimSpace(v) != "" {
			req.ExternalURLs[slot.Name] = strings.TrimSpace(v)
		}
	}

	return req, cleanup, true
}

func isFormRequest(c *gin.Context) bool {
	ct := c.ContentType()
	return ct == "multipart/form-data" || ct == "application/x-www-form-urlencoded"
}

// parseFlag - флаг удаления принимается только как "true" (без учета регистра)
func parseFlag(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), "true")
}

// ============================================================================
// 4. Обработчики ошибок (с контекстным логгированием)
// ============================================================================

func (h *BaseHandler) HandleServiceError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	var appErr *apperrors.AppError
	if apperrors.As(err, &appErr) {
		logger.CtxWarn(ctx, "Service error",
			"error", appErr.Message,
			"details", appErr.Details,
			"path", c.Request.URL.Path,
		)
		apperrors.HandleError(c, appErr)
	} else {
		logger.CtxWithError(ctx, "Internal server error", err, "path", c.Request.URL.Path)
		apperrors.HandleError(c, apperrors.InternalError(err))
	}
}

// ============================================================================
// 5. Вспомогательные функции
// ============================================================================

func (h *BaseHandler) GetAndAuthorizeUserID(c *gin.Context) (string, bool) {
	ctx := c.Request.Context()

	userID := middleware.GetUserID(c)
	if userID == "" {
		logger.CtxWarn(ctx, "Unauthorized access: userID not found in context",
			"path", c.Request.URL.Path,
			"ip", c.ClientIP(),
		)
		apperrors.HandleError(c, apperrors.NewUnauthorizedError("User not authenticated"))
		return "", false
	}

	return userID, true
}

// respondApplied - ответ обновления/создания: {message, actions, <key>: entity}
func respondApplied(c *gin.Context, status int, key string, entity any, summary *dto.AppliedSummary) {
	c.JSON(status, gin.H{
		"message": summary.Message,
		"actions": summary.Actions,
		key:       entity,
	})
}

func respondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
