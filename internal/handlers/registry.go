package handlers

import (
	"portfolio_backend/internal/models"
	"portfolio_backend/internal/services/dto"
)

// AppHandlers содержит все хэндлеры приложения.
type AppHandlers struct {
	AuthHandler    *AuthHandler
	ProfileHandler *ProfileHandler
	AdminHandler   *AdminHandler
	MediaHandler   *MediaHandler

	ProjectHandler    *SlotEntityHandler[models.Project]
	ServiceHandler    *ServiceHandler
	SocialTypeHandler *SlotEntityHandler[models.SocialType]

	EducationHandler  *CrudHandler[models.Education, dto.EducationPayload]
	ExperienceHandler *CrudHandler[models.Experience, dto.ExperiencePayload]
	SkillHandler      *CrudHandler[models.Skill, dto.SkillPayload]
	SocialHandler     *CrudHandler[models.Social, dto.SocialPayload]
	SettingsHandler   *CrudHandler[models.Settings, dto.SettingsPayload]
	ArticleHandler    *CrudHandler[models.Article, dto.ArticlePayload]
	CategoryHandler   *CrudHandler[models.Category, dto.CategoryPayload]
	ContactHandler    *CrudHandler[models.Contact, dto.ContactPayload]
}
