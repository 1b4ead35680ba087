package handlers

import (
	"context"
	"net/http"

	"portfolio_backend/internal/assets"
	"portfolio_backend/internal/auth"
	"portfolio_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// slotEntityService - сервис сущности со слотами изображений (проекты, услуги, соцсети)
type slotEntityService[T any] interface {
	Spec() assets.KindSpec
	Get(db *gorm.DB, actor auth.Actor, id string) (*T, error)
	List(db *gorm.DB, actor auth.Actor) ([]T, error)
	Mine(db *gorm.DB, actor auth.Actor) ([]T, error)
	ByUser(db *gorm.DB, actor auth.Actor, userID string) ([]T, error)
	Create(ctx context.Context, db *gorm.DB, actor auth.Actor, req *dto.UpdateRequest) (*T, *dto.AppliedSummary, error)
	Update(ctx context.Context, db *gorm.DB, actor auth.Actor, id string, req *dto.UpdateRequest) (*T, *dto.AppliedSummary, error)
	Delete(ctx context.Context, db *gorm.DB, actor auth.Actor, id string) error
}

// SlotRoutes - пути ресурса
type SlotRoutes struct {
	Base string
	// Mine - сегмент "своих" записей (my-projects); пусто для справочников
	Mine string
}

// SlotEntityHandler - multipart CRUD для сущностей со слотами
type SlotEntityHandler[T any] struct {
	*BaseHandler
	service slotEntityService[T]
	routes  SlotRoutes
	newForm func() dto.FieldSource
}

func NewSlotEntityHandler[T any](base *BaseHandler, service slotEntityService[T], routes SlotRoutes, newForm func() dto.FieldSource) *SlotEntityHandler[T] {
	return &SlotEntityHandler[T]{
		BaseHandler: base,
		service:     service,
		routes:      routes,
		newForm:     newForm,
	}
}

func (h *SlotEntityHandler[T]) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group(h.routes.Base)
	h.registerOn(group)
}

func (h *SlotEntityHandler[T]) registerOn(group *gin.RouterGroup) {
	group.GET("", h.RequireAuth(), h.List)
	if h.routes.Mine != "" {
		group.GET("/"+h.routes.Mine, h.RequireAuth(), h.Mine)
		group.GET("/user/:userId", h.OptionalAuth(), h.ByUser)
	}
	group.GET("/:id", h.OptionalAuth(), h.Get)
	group.POST("", h.RequireAuth(), h.Create)
	group.PUT("/:id", h.RequireAuth(), h.Update)
	group.PATCH("/:id", h.RequireAuth(), h.Update)
	group.DELETE("/:id", h.RequireAuth(), h.Delete)
}

func (h *SlotEntityHandler[T]) List(c *gin.Context) {
	items, err := h.service.List(h.GetDB(c), h.Actor(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(items))
}

func (h *SlotEntityHandler[T]) Mine(c *gin.Context) {
	items, err := h.service.Mine(h.GetDB(c), h.Actor(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(items))
}

func (h *SlotEntityHandler[T]) ByUser(c *gin.Context) {
	items, err := h.service.ByUser(h.GetDB(c), h.Actor(c), c.Param("userId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(items))
}

func (h *SlotEntityHandler[T]) Get(c *gin.Context) {
	entity, err := h.service.Get(h.GetDB(c), h.Actor(c), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity)
}

func (h *SlotEntityHandler[T]) Create(c *gin.Context) {
	req, cleanup, ok := h.BindUpdateRequest(c, h.newForm(), h.service.Spec())
	defer cleanup()
	if !ok {
		return
	}

	entity, summary, err := h.service.Create(c.Request.Context(), h.GetDB(c), h.Actor(c), req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondApplied(c, http.StatusCreated, h.service.Spec().ResponseKey, entity, summary)
}

func (h *SlotEntityHandler[T]) Update(c *gin.Context) {
	req, cleanup, ok := h.BindUpdateRequest(c, h.newForm(), h.service.Spec())
	defer cleanup()
	if !ok {
		return
	}

	entity, summary, err := h.service.Update(c.Request.Context(), h.GetDB(c), h.Actor(c), c.Param("id"), req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondApplied(c, http.StatusOK, h.service.Spec().ResponseKey, entity, summary)
}

func (h *SlotEntityHandler[T]) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), h.GetDB(c), h.Actor(c), c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondNoContent(c)
}

// nonNil - пустой список сериализуется как [], а не null
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
