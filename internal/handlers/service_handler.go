package handlers

import (
	"net/http"

	"portfolio_backend/internal/models"
	"portfolio_backend/internal/services"
	"portfolio_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

// ServiceHandler - услуги пользователей: CRUD со слотом icon, активные услуги, переключение активности
type ServiceHandler struct {
	*SlotEntityHandler[models.Service]
	offeringService *services.OfferingService
}

func NewServiceHandler(base *BaseHandler, offeringService *services.OfferingService) *ServiceHandler {
	return &ServiceHandler{
		SlotEntityHandler: NewSlotEntityHandler[models.Service](base, offeringService,
			SlotRoutes{Base: "/services", Mine: "my-services"},
			func() dto.FieldSource { return &dto.ServiceRequest{} },
		),
		offeringService: offeringService,
	}
}

func (h *ServiceHandler) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/services")
	group.GET("/active", h.OptionalAuth(), h.ListActive)
	group.PATCH("/:id/toggle-active", h.RequireAuth(), h.ToggleActive)
	h.registerOn(group)
}

func (h *ServiceHandler) ListActive(c *gin.Context) {
	var filter dto.ServiceFilter
	if !h.BindAndValidate_Query(c, &filter) {
		return
	}

	items, err := h.offeringService.ListActive(h.GetDB(c), filter)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(items))
}

func (h *ServiceHandler) ToggleActive(c *gin.Context) {
	service, summary, err := h.offeringService.ToggleActive(c.Request.Context(), h.GetDB(c), h.Actor(c), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondApplied(c, http.StatusOK, "service", service, summary)
}
