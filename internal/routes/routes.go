package routes

import (
	"portfolio_backend/internal/handlers"
	"portfolio_backend/internal/logger"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все HTTP маршруты.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers, // <-- Принимаем ГОТОВЫЕ хэндлеры
) {
	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Регистрация HTTP API v1
	api := ginRouter.Group("/api/v1")
	{
		appHandlers.AuthHandler.RegisterRoutes(api)
		appHandlers.ProfileHandler.RegisterRoutes(api)

		appHandlers.ProjectHandler.RegisterRoutes(api)
		appHandlers.ServiceHandler.RegisterRoutes(api)
		appHandlers.SocialTypeHandler.RegisterRoutes(api)

		appHandlers.EducationHandler.RegisterRoutes(api)
		appHandlers.ExperienceHandler.RegisterRoutes(api)
		appHandlers.SkillHandler.RegisterRoutes(api)
		appHandlers.SocialHandler.RegisterRoutes(api)
		appHandlers.SettingsHandler.RegisterRoutes(api)
		appHandlers.ArticleHandler.RegisterRoutes(api)
		appHandlers.CategoryHandler.RegisterRoutes(api)
		appHandlers.ContactHandler.RegisterRoutes(api)

		appHandlers.AdminHandler.RegisterRoutes(api)
	}

	if appHandlers.MediaHandler != nil {
		appHandlers.MediaHandler.RegisterRoutes(ginRouter)
		logger.Info("Media route registered")
	}
}
