package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"portfolio_backend/database"
	"portfolio_backend/internal/assets"
	"portfolio_backend/internal/auth"
	"portfolio_backend/internal/config"
	"portfolio_backend/internal/email"
	"portfolio_backend/internal/handlers"
	"portfolio_backend/internal/imageprocessor"
	"portfolio_backend/internal/lock"
	"portfolio_backend/internal/logger"
	"portfolio_backend/internal/middleware"
	"portfolio_backend/internal/models"
	"portfolio_backend/internal/repositories"
	"portfolio_backend/internal/routes"
	"portfolio_backend/internal/services"
	"portfolio_backend/internal/services/dto"
	"portfolio_backend/internal/storage"
	"portfolio_backend/internal/validator"
	"portfolio_backend/internal/workers"
	"portfolio_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func Run() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Init("development")
		logger.Fatal("Failed to load configuration", "error", err)
	}
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	isProduction := cfg.Server.Env == "production"
	apperrors.SetDebug(!isProduction)
	if isProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info("Connecting to database...", "driver", cfg.Database.Driver)
	gormDB, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := database.AutoMigrate(gormDB); err != nil {
		logger.Fatal("Failed to migrate database", "error", err)
	}

	if err := seedFirstAdmin(gormDB, cfg); err != nil {
		// Если не удалось создать админа (проблемы с БД и т.д.) - не запускаем сервер
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	ginRouter, err := SetupRouter(cfg, gormDB)
	if err != nil {
		logger.Fatal("Failed to set up router", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	workers.NewTokenWorker(gormDB, repositories.NewTokenRepository(), time.Hour).Start(ctx)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting", "address", address)
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

// SetupRouter собирает хранилище, сервисы и хэндлеры и возвращает готовый *gin.Engine
func SetupRouter(cfg *config.Config, gormDB *gorm.DB) (*gin.Engine, error) {
	storageInstance, err := storage.NewStorage(storage.Config{
		Type:      cfg.Storage.Type,
		BasePath:  cfg.Storage.BasePath,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Endpoint:  cfg.Storage.Endpoint,
		UseSSL:    cfg.Storage.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	logger.Info("Storage initialized", "type", cfg.Storage.Type)

	locker, err := newLocker(cfg)
	if err != nil {
		return nil, err
	}

	store := assets.NewStore(storageInstance, cfg.Server.SiteURL, cfg.MediaURL())

	// 1. Инициализируем сервисы
	serviceContainer := initializeServices(cfg, store, locker)

	if cfg.Storage.ResyncOnStart {
		updated, err := serviceContainer.AssetService.ResyncURLs(context.Background(), gormDB)
		if err != nil {
			return nil, fmt.Errorf("failed to resync asset urls: %w", err)
		}
		logger.Info("Asset URLs resynced", "updated", updated)
	}

	// 2. Инициализируем хэндлеры
	appHandlers := initializeHandlers(cfg, serviceContainer, store)

	// 3. Инициализируем Gin
	ginRouter := initializeGinRouter(cfg, gormDB)

	// 4. Делегируем регистрацию маршрутов пакету 'routes'
	routes.RegisterRoutes(ginRouter, appHandlers)

	return ginRouter, nil
}

// newLocker - блокировки слотов: в памяти процесса или в Redis (несколько экземпляров)
func newLocker(cfg *config.Config) (lock.Locker, error) {
	if cfg.Lock.Backend != "redis" {
		return lock.NewKeyedMutex(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr: cfg.Lock.RedisAddr,
		DB:   cfg.Lock.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis unavailable at %s: %w", cfg.Lock.RedisAddr, err)
	}
	logger.Info("Redis lock backend connected", "addr", cfg.Lock.RedisAddr)
	return lock.NewRedisLocker(client, cfg.LockTTL()), nil
}

func newEmailProvider(cfg *config.Config) email.Provider {
	templates := email.NewTemplateManager()
	if !cfg.Email.Enabled {
		logger.Warn("Email sending is disabled, messages are only recorded")
		return email.NewRecordingProvider(templates)
	}

	smtpConfig := email.DefaultConfig()
	smtpConfig.Host = cfg.Email.SMTPHost
	smtpConfig.Port = cfg.Email.SMTPPort
	smtpConfig.Username = cfg.Email.SMTPUsername
	smtpConfig.Password = cfg.Email.SMTPPassword
	smtpConfig.FromEmail = cfg.Email.FromEmail
	smtpConfig.FromName = cfg.Email.FromName

	provider := email.NewSMTPProvider(smtpConfig, templates)
	if err := provider.Validate(); err != nil {
		logger.Warn("SMTP configuration is incomplete", "error", err)
	}
	return provider
}

func initializeServices(cfg *config.Config, store *assets.Store, locker lock.Locker) *services.ServiceContainer {
	emailService := newEmailProvider(cfg)
	customValidator := validator.New()
	policy := auth.NewPolicy()
	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.AccessTTL())

	// --- Инициализация репозиториев ---
	userRepo := repositories.NewUserRepository()
	tokenRepo := repositories.NewTokenRepository()

	// --- Инициализация сервисов ---
	images := imageprocessor.NewValidator(imageprocessor.Options{
		MaxSize:           cfg.Upload.MaxSize,
		AllowedExtensions: cfg.Upload.AllowedExtensions,
		DecodeTimeout:     cfg.DecodeTimeout(),
	})
	assetService := services.NewAssetUpdateService(store, images, locker, customValidator)

	authService := services.NewAuthService(userRepo, tokenRepo, jwtManager, emailService, services.AuthOptions{
		RefreshTTL: cfg.RefreshTTL(),
		ResetURL:   cfg.Email.ResetURL,
	})

	return &services.ServiceContainer{
		AuthService:    authService,
		ProfileService: services.NewProfileService(userRepo, assetService, policy),
		AdminService:   services.NewAdminService(userRepo, assetService),
		AssetService:   assetService,

		ProjectService:    services.NewProjectService(assetService, policy, customValidator),
		OfferingService:   services.NewOfferingService(assetService, policy, customValidator),
		SocialTypeService: services.NewSocialTypeService(assetService, policy, customValidator),

		EducationService:  services.NewEducationService(policy, customValidator),
		ExperienceService: services.NewExperienceService(policy, customValidator),
		SkillService:      services.NewSkillService(policy, customValidator),
		SocialService:     services.NewSocialService(policy, customValidator),
		SettingsService:   services.NewSettingsService(policy, customValidator),
		ArticleService:    services.NewArticleService(policy, customValidator),
		CategoryService:   services.NewCategoryService(policy, customValidator),
		ContactService:    services.NewContactService(policy, customValidator, userRepo, emailService),

		EmailService: emailService,
	}
}

func initializeHandlers(cfg *config.Config, svc *services.ServiceContainer, store *assets.Store) *handlers.AppHandlers {
	customValidator := validator.New()
	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.AccessTTL())
	baseHandler := handlers.NewBaseHandler(customValidator, jwtManager)

	appHandlers := &handlers.AppHandlers{
		AuthHandler:    handlers.NewAuthHandler(baseHandler, svc.AuthService),
		ProfileHandler: handlers.NewProfileHandler(baseHandler, svc.ProfileService),
		AdminHandler:   handlers.NewAdminHandler(baseHandler, svc.AdminService, svc.ContactService),

		ProjectHandler: handlers.NewSlotEntityHandler[models.Project](baseHandler, svc.ProjectService,
			handlers.SlotRoutes{Base: "/projects", Mine: "my-projects"},
			func() dto.FieldSource { return &dto.ProjectRequest{} }),
		ServiceHandler: handlers.NewServiceHandler(baseHandler, svc.OfferingService),
		SocialTypeHandler: handlers.NewSlotEntityHandler[models.SocialType](baseHandler, svc.SocialTypeService,
			handlers.SlotRoutes{Base: "/social-types"},
			func() dto.FieldSource { return &dto.SocialTypeRequest{} }),

		EducationHandler: handlers.NewCrudHandler[models.Education, dto.EducationPayload](baseHandler, svc.EducationService,
			handlers.CrudRoutes{Base: "/educations", Mine: "my-educations", Key: "education", Label: "Education"}),
		ExperienceHandler: handlers.NewCrudHandler[models.Experience, dto.ExperiencePayload](baseHandler, svc.ExperienceService,
			handlers.CrudRoutes{Base: "/experiences", Mine: "my-experiences", Key: "experience", Label: "Experience"}),
		SkillHandler: handlers.NewCrudHandler[models.Skill, dto.SkillPayload](baseHandler, svc.SkillService,
			handlers.CrudRoutes{Base: "/skills", Mine: "my-skills", Key: "skill", Label: "Skill"}),
		SocialHandler: handlers.NewCrudHandler[models.Social, dto.SocialPayload](baseHandler, svc.SocialService,
			handlers.CrudRoutes{Base: "/socials", Mine: "my-socials", Key: "social", Label: "Social link"}),
		SettingsHandler: handlers.NewCrudHandler[models.Settings, dto.SettingsPayload](baseHandler, svc.SettingsService,
			handlers.CrudRoutes{Base: "/settings", Mine: "my-settings", Key: "settings", Label: "Settings"}),
		ArticleHandler: handlers.NewCrudHandler[models.Article, dto.ArticlePayload](baseHandler, svc.ArticleService,
			handlers.CrudRoutes{Base: "/articles", Mine: "my-articles", Key: "article", Label: "Article"}),
		CategoryHandler: handlers.NewCrudHandler[models.Category, dto.CategoryPayload](baseHandler, svc.CategoryService,
			handlers.CrudRoutes{Base: "/categories", Key: "category", Label: "Category"}),
		ContactHandler: handlers.NewCrudHandler[models.Contact, dto.ContactPayload](baseHandler, svc.ContactService,
			handlers.CrudRoutes{Base: "/contacts", Mine: "my-contacts", Key: "contact", Label: "Contact", PublicCreate: true}),
	}

	// Файлы отдает приложение только для локального хранилища с относительным media_url
	if (cfg.Storage.Type == "local" || cfg.Storage.Type == "") && strings.HasPrefix(cfg.MediaURL(), "/") {
		appHandlers.MediaHandler = handlers.NewMediaHandler(baseHandler, store, cfg.MediaURL())
	}

	return appHandlers
}

func initializeGinRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(middleware.DBMiddleware(db))
	router.MaxMultipartMemory = cfg.Upload.MaxSize
	return router
}

// seedFirstAdmin создает суперпользователя из конфигурации, если его еще нет
func seedFirstAdmin(db *gorm.DB, cfg *config.Config) error {
	adminEmail := strings.ToLower(strings.TrimSpace(cfg.Admin.Email))
	adminPassword := cfg.Admin.Password

	if adminEmail == "" || adminPassword == "" {
		logger.Warn("FIRST_ADMIN_EMAIL or FIRST_ADMIN_PASSWORD is not set. Skipping admin seeding.")
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var adminUser models.User
		result := tx.Where("email = ?", adminEmail).First(&adminUser)
		if result.Error == nil {
			logger.Info("Admin user already exists. Skipping creation.", "email", adminEmail)
			return nil
		}
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check for admin user: %w", result.Error)
		}

		logger.Warn("No admin user found with specified email. Creating first admin...", "email", adminEmail)

		hashedPassword, err := auth.HashPassword(adminPassword)
		if err != nil {
			return fmt.Errorf("failed to hash admin password: %w", err)
		}

		newAdmin := &models.User{
			Email:        adminEmail,
			Username:     adminUsername(adminEmail),
			PasswordHash: hashedPassword,
			IsActive:     true,
			IsVerified:   true,
			IsStaff:      true,
			IsSuperuser:  true,
		}
		if err := tx.Create(newAdmin).Error; err != nil {
			return fmt.Errorf("failed to create admin user in database: %w", err)
		}

		logger.Info("Successfully created first admin user", "email", adminEmail)
		return nil
	})
}

func adminUsername(emailAddr string) string {
	name, _, _ := strings.Cut(emailAddr, "@")
	if name == "" {
		return "admin"
	}
	return name
}
