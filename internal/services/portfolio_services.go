package services

import (
	"context"

	"portfolio_backend/internal/auth"
	"portfolio_backend/internal/email"
	"portfolio_backend/internal/logger"
	"portfolio_backend/internal/models"
	"portfolio_backend/internal/repositories"
	"portfolio_backend/internal/services/dto"
	"portfolio_backend/internal/validator"
	"portfolio_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type (
	EducationService  = CrudService[models.Education, *models.Education, dto.EducationPayload]
	ExperienceService = CrudService[models.Experience, *models.Experience, dto.ExperiencePayload]
	SkillService      = CrudService[models.Skill, *models.Skill, dto.SkillPayload]
	SocialService     = CrudService[models.Social, *models.Social, dto.SocialPayload]
	SettingsService   = CrudService[models.Settings, *models.Settings, dto.SettingsPayload]
	ArticleService    = CrudService[models.Article, *models.Article, dto.ArticlePayload]
	CategoryService   = CrudService[models.Category, *models.Category, dto.CategoryPayload]

	ProjectService    = SlotEntityService[models.Project, *models.Project]
	SocialTypeService = SlotEntityService[models.SocialType, *models.SocialType]
)

func NewEducationService(policy auth.Policy, v *validator.Validator) *EducationService {
	return NewCrudService[models.Education, *models.Education, dto.EducationPayload](policy, v,
		CrudOptions[models.Education, *models.Education]{Order: "start_date DESC"})
}

func NewExperienceService(policy auth.Policy, v *validator.Validator) *ExperienceService {
	return NewCrudService[models.Experience, *models.Experience, dto.ExperiencePayload](policy, v,
		CrudOptions[models.Experience, *models.Experience]{Order: "start_date DESC"})
}

func NewSkillService(policy auth.Policy, v *validator.Validator) *SkillService {
	return NewCrudService[models.Skill, *models.Skill, dto.SkillPayload](policy, v,
		CrudOptions[models.Skill, *models.Skill]{Order: "label ASC"})
}

func NewSocialService(policy auth.Policy, v *validator.Validator) *SocialService {
	return NewCrudService[models.Social, *models.Social, dto.SocialPayload](policy, v,
		CrudOptions[models.Social, *models.Social]{
			Preload: []string{"SocialType"},
			BeforeSave: func(db *gorm.DB, s *models.Social) error {
				if s.SocialTypeID == "" {
					return nil // required проверит validateModel
				}
				return mustExist[models.SocialType](db, "social_type_id", s.SocialTypeID, "Social type not found")
			},
		})
}

// NewSettingsService - одна запись на пользователя, повторное создание дает 409
func NewSettingsService(policy auth.Policy, v *validator.Validator) *SettingsService {
	return NewCrudService[models.Settings, *models.Settings, dto.SettingsPayload](policy, v,
		CrudOptions[models.Settings, *models.Settings]{})
}

// NewArticleService - чужие неопубликованные статьи не видны
func NewArticleService(policy auth.Policy, v *validator.Validator) *ArticleService {
	return NewCrudService[models.Article, *models.Article, dto.ArticlePayload](policy, v,
		CrudOptions[models.Article, *models.Article]{
			Preload: []string{"Category"},
			BeforeSave: func(db *gorm.DB, a *models.Article) error {
				if a.CategoryID != nil && *a.CategoryID == "" {
					a.CategoryID = nil
				}
				if a.CategoryID == nil {
					return nil
				}
				return mustExist[models.Category](db, "category_id", *a.CategoryID, "Category not found")
			},
			Visible: func(a *models.Article) bool {
				return a.IsPublished
			},
		})
}

func NewCategoryService(policy auth.Policy, v *validator.Validator) *CategoryService {
	return NewCrudService[models.Category, *models.Category, dto.CategoryPayload](policy, v,
		CrudOptions[models.Category, *models.Category]{Order: "name ASC"})
}

func NewProjectService(assets AssetUpdateService, policy auth.Policy, v *validator.Validator) *ProjectService {
	return NewSlotEntityService[models.Project](assets, policy, v, nil)
}

func NewSocialTypeService(assets AssetUpdateService, policy auth.Policy, v *validator.Validator) *SocialTypeService {
	return NewSlotEntityService[models.SocialType](assets, policy, v, nil)
}

// ContactService - сообщения посетителей. Создание доступно без входа,
// получатель уведомляется письмом.
type ContactService struct {
	*CrudService[models.Contact, *models.Contact, dto.ContactPayload]
}

func NewContactService(policy auth.Policy, v *validator.Validator, userRepo repositories.UserRepository, provider email.Provider) *ContactService {
	opts := CrudOptions[models.Contact, *models.Contact]{
		BeforeSave: func(db *gorm.DB, c *models.Contact) error {
			user, err := userRepo.FindByID(db, c.UserID)
			if err != nil || !user.IsActive {
				return apperrors.ErrFieldValidation(map[string]string{"user_id": "Recipient not found"})
			}
			return nil
		},
		AfterCreate: func(ctx context.Context, db *gorm.DB, c *models.Contact) {
			notifyRecipient(ctx, db, userRepo, provider, c)
		},
	}
	return &ContactService{
		CrudService: NewCrudService[models.Contact, *models.Contact, dto.ContactPayload](policy, v, opts),
	}
}

// Create - получатель обязателен, даже если отправитель вошел в систему
func (s *ContactService) Create(ctx context.Context, db *gorm.DB, actor auth.Actor, payload dto.ContactPayload) (*models.Contact, error) {
	if payload.UserID == nil || *payload.UserID == "" {
		return nil, apperrors.ErrFieldValidation(map[string]string{"user_id": "This field is required"})
	}
	return s.CrudService.Create(ctx, db, actor, payload)
}

// Update не меняет получателя
func (s *ContactService) Update(ctx context.Context, db *gorm.DB, actor auth.Actor, id string, payload dto.ContactPayload) (*models.Contact, error) {
	payload.UserID = nil
	return s.CrudService.Update(ctx, db, actor, id, payload)
}

// MarkRead отмечает сообщение прочитанным (получатель или staff)
func (s *ContactService) MarkRead(ctx context.Context, db *gorm.DB, actor auth.Actor, id string) (*models.Contact, error) {
	contact, err := s.repo.FindByID(db, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if err := s.authorize(actor, contact.UserID, auth.ActionUpdate); err != nil {
		return nil, err
	}
	if contact.Read {
		return contact, nil
	}

	if err := db.WithContext(ctx).Model(contact).UpdateColumn("read", true).Error; err != nil {
		return nil, apperrors.InternalError(err)
	}
	contact.Read = true
	logger.CtxInfo(ctx, "Contact marked as read", "contact_id", id)
	return contact, nil
}

// notifyRecipient - ошибка отправки только логируется, сообщение уже сохранено
func notifyRecipient(ctx context.Context, db *gorm.DB, userRepo repositories.UserRepository, provider email.Provider, c *models.Contact) {
	if provider == nil {
		return
	}
	user, err := userRepo.FindByID(db, c.UserID)
	if err != nil {
		return
	}
	err = provider.SendWithTemplate(email.TemplateNewContact, email.TemplateData{
		"Name":    c.Name,
		"Email":   c.Email,
		"Message": c.Message,
	}, &email.Email{
		To:      []string{user.Email},
		Subject: "New contact message",
	})
	if err != nil {
		logger.CtxWarn(ctx, "Failed to notify contact recipient", "contact_id", c.ID, "error", err)
	}
}
