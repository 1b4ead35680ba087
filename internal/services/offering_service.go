package services

import (
	"context"
	"strings"

	"portfolio_backend/internal/auth"
	"portfolio_backend/internal/logger"
	"portfolio_backend/internal/models"
	"portfolio_backend/internal/services/dto"
	"portfolio_backend/internal/validator"
	"portfolio_backend/pkg/apperrors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OfferingService - услуги пользователя (models.Service): CRUD со слотом icon,
// публичный список активных услуг и переключение активности.
type OfferingService struct {
	*SlotEntityService[models.Service, *models.Service]
}

func NewOfferingService(assets AssetUpdateService, policy auth.Policy, v *validator.Validator) *OfferingService {
	return &OfferingService{
		SlotEntityService: NewSlotEntityService[models.Service](assets, policy, v, map[string]any{
			"is_active": true,
		}),
	}
}

// ListActive - активные услуги всех пользователей, с фильтрами по цене и тегу
func (s *OfferingService) ListActive(db *gorm.DB, filter dto.ServiceFilter) ([]models.Service, error) {
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return nil, apperrors.ErrFieldValidation(map[string]string{"min_price": "must not exceed max_price"})
	}

	query := db.Model(&models.Service{}).Where("is_active = ?", true)
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}

	var items []models.Service
	if err := query.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, apperrors.InternalError(err)
	}
	if filter.Tag == "" {
		return items, nil
	}

	// tags - JSON массив; операторы JSON различаются между postgres, mysql и sqlite,
	// поэтому тег проверяется после выборки
	tagged := items[:0]
	for _, item := range items {
		if hasTag(item.Tags, filter.Tag) {
			tagged = append(tagged, item)
		}
	}
	return tagged, nil
}

func hasTag(raw datatypes.JSON, tag string) bool {
	for _, t := range models.StringList(raw) {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// ToggleActive инвертирует is_active через единый механизм обновления
func (s *OfferingService) ToggleActive(ctx context.Context, db *gorm.DB, actor auth.Actor, id string) (*models.Service, *dto.AppliedSummary, error) {
	current, err := s.repo.FindByID(db, id)
	if err != nil {
		return nil, nil, mapRepoError(err)
	}

	req := dto.NewUpdateRequest()
	req.Fields["is_active"] = !current.IsActive

	service, summary, err := s.Update(ctx, db, actor, id, req)
	if err != nil {
		return nil, nil, err
	}
	logger.CtxInfo(ctx, "Service activity toggled", "service_id", id, "is_active", service.IsActive)
	return service, summary, nil
}
