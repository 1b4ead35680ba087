package services

import (
	"portfolio_backend/internal/email"
)

// ServiceContainer содержит все сервисы приложения.
type ServiceContainer struct {
	AuthService    AuthService
	ProfileService ProfileService
	AdminService   AdminService
	AssetService   AssetUpdateService

	ProjectService    *ProjectService
	OfferingService   *OfferingService
	SocialTypeService *SocialTypeService

	EducationService  *EducationService
	ExperienceService *ExperienceService
	SkillService      *SkillService
	SocialService     *SocialService
	SettingsService   *SettingsService
	ArticleService    *ArticleService
	CategoryService   *CategoryService
	ContactService    *ContactService

	EmailService email.Provider
}
