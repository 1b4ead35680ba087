package handlers

import (
	"context"
	"net/http"

	"portfolio_backend/internal/auth"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// crudService - сервис простой сущности, P - JSON тело create/update
type crudService[T any, P any] interface {
	Get(db *gorm.DB, actor auth.Actor, id string) (*T, error)
	List(db *gorm.DB, actor auth.Actor) ([]T, error)
	Mine(db *gorm.DB, actor auth.Actor) ([]T, error)
	ByUser(db *gorm.DB, actor auth.Actor, userID string) ([]T, error)
	Create(ctx context.Context, db *gorm.DB, actor auth.Actor, payload P) (*T, error)
	Update(ctx context.Context, db *gorm.DB, actor auth.Actor, id string, payload P) (*T, error)
	Delete(ctx context.Context, db *gorm.DB, actor auth.Actor, id string) error
}

// CrudRoutes - пути и ключ ответа ресурса
type CrudRoutes struct {
	Base string
	// Mine - сегмент "своих" записей; пусто для общих справочников
	Mine string
	// Key - ключ сущности в ответе create/update
	Key string
	// Label - имя сущности в сообщениях ("Education")
	Label string
	// PublicCreate - создание без входа (сообщения посетителей)
	PublicCreate bool
}

type CrudHandler[T any, P any] struct {
	*BaseHandler
	service crudService[T, P]
	routes  CrudRoutes
}

func NewCrudHandler[T any, P any](base *BaseHandler, service crudService[T, P], routes CrudRoutes) *CrudHandler[T, P] {
	return &CrudHandler[T, P]{
		BaseHandler: base,
		service:     service,
		routes:      routes,
	}
}

func (h *CrudHandler[T, P]) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group(h.routes.Base)

	group.GET("", h.RequireAuth(), h.List)
	if h.routes.Mine != "" {
		group.GET("/"+h.routes.Mine, h.RequireAuth(), h.Mine)
		group.GET("/user/:userId", h.OptionalAuth(), h.ByUser)
	}
	group.GET("/:id", h.OptionalAuth(), h.Get)

	if h.routes.PublicCreate {
		group.POST("", h.OptionalAuth(), h.Create)
	} else {
		group.POST("", h.RequireAuth(), h.Create)
	}
	group.PUT("/:id", h.RequireAuth(), h.Update)
	group.PATCH("/:id", h.RequireAuth(), h.Update)
	group.DELETE("/:id", h.RequireAuth(), h.Delete)
}

func (h *CrudHandler[T, P]) List(c *gin.Context) {
	items, err := h.service.List(h.GetDB(c), h.Actor(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(items))
}

func (h *CrudHandler[T, P]) Mine(c *gin.Context) {
	items, err := h.service.Mine(h.GetDB(c), h.Actor(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(items))
}

func (h *CrudHandler[T, P]) ByUser(c *gin.Context) {
	items, err := h.service.ByUser(h.GetDB(c), h.Actor(c), c.Param("userId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(items))
}

func (h *CrudHandler[T, P]) Get(c *gin.Context) {
	entity, err := h.service.Get(h.GetDB(c), h.Actor(c), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity)
}

func (h *CrudHandler[T, P]) Create(c *gin.Context) {
	var payload P
	if !h.BindAndValidate_JSON(c, &payload) {
		return
	}

	entity, err := h.service.Create(c.Request.Context(), h.GetDB(c), h.Actor(c), payload)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":    h.routes.Label + " created successfully",
		h.routes.Key: entity,
	})
}

func (h *CrudHandler[T, P]) Update(c *gin.Context) {
	var payload P
	if !h.BindAndValidate_JSON(c, &payload) {
		return
	}

	entity, err := h.service.Update(c.Request.Context(), h.GetDB(c), h.Actor(c), c.Param("id"), payload)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    h.routes.Label + " updated successfully",
		h.routes.Key: entity,
	})
}

func (h *CrudHandler[T, P]) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), h.GetDB(c), h.Actor(c), c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondNoContent(c)
}
