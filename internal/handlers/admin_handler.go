package handlers

import (
	"net/http"

	"portfolio_backend/internal/middleware"
	"portfolio_backend/internal/services"
	"portfolio_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

// AdminHandler - API админ-консоли: пользователи, сообщения, обслуживание файлов
type AdminHandler struct {
	*BaseHandler
	adminService   services.AdminService
	contactService *services.ContactService
}

func NewAdminHandler(base *BaseHandler, adminService services.AdminService, contactService *services.ContactService) *AdminHandler {
	return &AdminHandler{
		BaseHandler:    base,
		adminService:   adminService,
		contactService: contactService,
	}
}

func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/admin")
	admin.Use(h.RequireAuth())
	admin.Use(middleware.StaffMiddleware())
	{
		admin.GET("/users", h.ListUsers)
		admin.POST("/users/actions", h.UserAction)
		admin.DELETE("/users/:id", h.DeleteUser)
		admin.PATCH("/contacts/:id/read", h.MarkContactRead)
		admin.POST("/assets/resync-urls", h.ResyncURLs)
	}
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	var filter dto.UserFilter
	if !h.BindAndValidate_Query(c, &filter) {
		return
	}

	response, err := h.adminService.ListUsers(h.GetDB(c), h.Actor(c), filter)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

func (h *AdminHandler) UserAction(c *gin.Context) {
	var req dto.UserActionRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	result, err := h.adminService.ApplyUserAction(c.Request.Context(), h.GetDB(c), h.Actor(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	if err := h.adminService.DeleteUser(c.Request.Context(), h.GetDB(c), h.Actor(c), c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondNoContent(c)
}

func (h *AdminHandler) MarkContactRead(c *gin.Context) {
	contact, err := h.contactService.MarkRead(c.Request.Context(), h.GetDB(c), h.Actor(c), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Contact marked as read",
		"contact": contact,
	})
}

func (h *AdminHandler) ResyncURLs(c *gin.Context) {
	result, err := h.adminService.ResyncURLs(c.Request.Context(), h.GetDB(c), h.Actor(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
