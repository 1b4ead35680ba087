package handlers

import (
	"net/http"

	"portfolio_backend/internal/assets"
	"portfolio_backend/internal/models"
	"portfolio_backend/internal/services"
	"portfolio_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	*BaseHandler
	profileService services.ProfileService
	spec           assets.KindSpec
}

func NewProfileHandler(base *BaseHandler, profileService services.ProfileService) *ProfileHandler {
	spec, _ := assets.Lookup(models.KindUser)
	return &ProfileHandler{
		BaseHandler:    base,
		profileService: profileService,
		spec:           spec,
	}
}

func (h *ProfileHandler) RegisterRoutes(r *gin.RouterGroup) {
	profile := r.Group("/auth/profile", h.RequireAuth())
	{
		profile.PUT("/update-profile", h.UpdateMyProfile)
		profile.PATCH("/update-profile", h.UpdateMyProfile)
	}

	users := r.Group("/users")
	{
		users.GET("/:id", h.OptionalAuth(), h.GetProfile)
		// staff может менять чужой профиль, проверяет политика доступа
		users.PUT("/:id/profile", h.RequireAuth(), h.UpdateUserProfile)
		users.PATCH("/:id/profile", h.RequireAuth(), h.UpdateUserProfile)
	}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	user, err := h.profileService.GetProfile(h.GetDB(c), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *ProfileHandler) UpdateMyProfile(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	h.update(c, userID)
}

func (h *ProfileHandler) UpdateUserProfile(c *gin.Context) {
	h.update(c, c.Param("id"))
}

func (h *ProfileHandler) update(c *gin.Context, userID string) {
	req, cleanup, ok := h.BindUpdateRequest(c, &dto.UpdateProfileRequest{}, h.spec)
	defer cleanup()
	if !ok {
		return
	}

	user, summary, err := h.profileService.UpdateProfile(c.Request.Context(), h.GetDB(c), h.Actor(c), userID, req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	respondApplied(c, http.StatusOK, h.spec.ResponseKey, user, summary)
}
