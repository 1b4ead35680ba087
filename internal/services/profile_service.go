package services

import (
	"context"

	"portfolio_backend/internal/auth"
	"portfolio_backend/internal/models"
	"portfolio_backend/internal/repositories"
	"portfolio_backend/internal/services/dto"

	"gorm.io/gorm"
)

// ProfileService - профиль пользователя: публичное чтение и единое обновление
type ProfileService interface {
	GetProfile(db *gorm.DB, userID string) (*models.User, error)
	// UpdateProfile меняет поля и изображения профиля userID от имени actor
	UpdateProfile(ctx context.Context, db *gorm.DB, actor auth.Actor, userID string, req *dto.UpdateRequest) (*models.User, *dto.AppliedSummary, error)
}

type ProfileServiceImpl struct {
	userRepo repositories.UserRepository
	assets   AssetUpdateService
	policy   auth.Policy
}

func NewProfileService(userRepo repositories.UserRepository, assets AssetUpdateService, policy auth.Policy) ProfileService {
	return &ProfileServiceImpl{
		userRepo: userRepo,
		assets:   assets,
		policy:   policy,
	}
}

func (s *ProfileServiceImpl) GetProfile(db *gorm.DB, userID string) (*models.User, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return user, nil
}

func (s *ProfileServiceImpl) UpdateProfile(ctx context.Context, db *gorm.DB, actor auth.Actor, userID string, req *dto.UpdateRequest) (*models.User, *dto.AppliedSummary, error) {
	// Проверка доступа до загрузки записи: чужой профиль - 403, а не 404
	if err := s.policy.Authorize(actor, auth.Target{
		Kind:    models.KindUser,
		OwnerID: userID,
		Action:  auth.ActionUpdate,
	}); err != nil {
		return nil, nil, err
	}

	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		return nil, nil, mapRepoError(err)
	}

	summary, err := s.assets.Apply(ctx, db, user, req)
	if err != nil {
		return nil, nil, err
	}
	return user, summary, nil
}
