package services

import (
	"context"

	"portfolio_backend/internal/assets"
	"portfolio_backend/internal/auth"
	"portfolio_backend/internal/models"
	"portfolio_backend/internal/repositories"
	"portfolio_backend/internal/services/dto"
	"portfolio_backend/internal/validator"
	"portfolio_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// slotModel - модель со слотами изображений (Project, Service, SocialType)
type slotModel[T any] interface {
	*T
	models.AssetEntity
}

// SlotEntityService - CRUD сущностей со слотами изображений.
// Создание и обновление идут через AssetUpdateService.
type SlotEntityService[T any, PT slotModel[T]] struct {
	kind      models.EntityKind
	repo      *repositories.EntityRepository[T]
	assets    AssetUpdateService
	policy    auth.Policy
	validator *validator.Validator
	// defaults - значения колонок при создании, если поле не передано
	defaults map[string]any
}

func NewSlotEntityService[T any, PT slotModel[T]](
	assets AssetUpdateService,
	policy auth.Policy,
	v *validator.Validator,
	defaults map[string]any,
) *SlotEntityService[T, PT] {
	return &SlotEntityService[T, PT]{
		kind:      PT(new(T)).EntityKind(),
		repo:      repositories.NewEntityRepository[T](),
		assets:    assets,
		policy:    policy,
		validator: v,
		defaults:  defaults,
	}
}

func (s *SlotEntityService[T, PT]) Spec() assets.KindSpec {
	spec, _ := assets.Lookup(s.kind)
	return spec
}

func (s *SlotEntityService[T, PT]) authorize(actor auth.Actor, ownerID string, action auth.Action) error {
	return s.policy.Authorize(actor, auth.Target{Kind: s.kind, OwnerID: ownerID, Action: action})
}

func (s *SlotEntityService[T, PT]) Get(db *gorm.DB, actor auth.Actor, id string) (PT, error) {
	entity, err := s.repo.FindByID(db, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if err := s.authorize(actor, ownerOf(PT(entity)), auth.ActionRetrieve); err != nil {
		return nil, err
	}
	return entity, nil
}

// List - общий справочник целиком; для личных сущностей staff видит все, остальные свои
func (s *SlotEntityService[T, PT]) List(db *gorm.DB, actor auth.Actor) ([]T, error) {
	if err := s.authorize(actor, "", auth.ActionList); err != nil {
		return nil, err
	}
	userID, all := scopeForList(actor)
	if all || !isOwnedKind(s.kind) {
		items, err := s.repo.FindAll(db, "created_at DESC")
		return items, mapRepoError(err)
	}
	items, err := s.repo.FindByOwner(db, userID, "created_at DESC")
	return items, mapRepoError(err)
}

func (s *SlotEntityService[T, PT]) Mine(db *gorm.DB, actor auth.Actor) ([]T, error) {
	if err := s.authorize(actor, actor.ID, auth.ActionMine); err != nil {
		return nil, err
	}
	items, err := s.repo.FindByOwner(db, actor.ID, "created_at DESC")
	return items, mapRepoError(err)
}

func (s *SlotEntityService[T, PT]) ByUser(db *gorm.DB, actor auth.Actor, userID string) ([]T, error) {
	if err := s.authorize(actor, userID, auth.ActionByUser); err != nil {
		return nil, err
	}
	items, err := s.repo.FindByOwner(db, userID, "created_at DESC")
	return items, mapRepoError(err)
}

// Create вставляет запись и применяет загрузки в одной транзакции.
// Ошибка загрузки откатывает и саму запись.
func (s *SlotEntityService[T, PT]) Create(ctx context.Context, db *gorm.DB, actor auth.Actor, req *dto.UpdateRequest) (PT, *dto.AppliedSummary, error) {
	if err := s.authorize(actor, actor.ID, auth.ActionCreate); err != nil {
		return nil, nil, err
	}
	if req == nil {
		req = dto.NewUpdateRequest()
	}

	spec := s.Spec()
	for col := range req.Fields {
		if !spec.AcceptsField(col) {
			return nil, nil, apperrors.ErrFieldValidation(map[string]string{col: "Unknown field"})
		}
	}

	entity := PT(new(T))
	if owned, ok := any(entity).(models.Owned); ok {
		owned.SetOwnerID(actor.ID)
	}

	fields := make(map[string]any, len(s.defaults)+len(req.Fields))
	for k, v := range s.defaults {
		fields[k] = v
	}
	for k, v := range req.Fields {
		fields[k] = v
	}
	if err := assignFields(ctx, db, entity, fields); err != nil {
		return nil, nil, err
	}
	if err := validateModel(s.validator, entity); err != nil {
		return nil, nil, err
	}

	summary := &dto.AppliedSummary{Message: spec.CreatedMessage, Actions: []string{spec.CreatedAction}}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Create(tx, (*T)(entity)); err != nil {
			return mapRepoError(err)
		}
		if !req.HasAssetChanges() {
			return nil
		}

		assetsOnly := &dto.UpdateRequest{
			Uploads:      req.Uploads,
			Deletes:      map[models.SlotName]bool{},
			ExternalURLs: req.ExternalURLs,
		}
		applied, err := s.assets.Apply(ctx, tx, entity, assetsOnly)
		if err != nil {
			return err
		}
		for _, a := range applied.Actions {
			if a != assets.NoChangesAction {
				summary.Actions = append(summary.Actions, a)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return entity, summary, nil
}

func (s *SlotEntityService[T, PT]) Update(ctx context.Context, db *gorm.DB, actor auth.Actor, id string, req *dto.UpdateRequest) (PT, *dto.AppliedSummary, error) {
	entity, err := s.repo.FindByID(db, id)
	if err != nil {
		return nil, nil, mapRepoError(err)
	}
	if err := s.authorize(actor, ownerOf(PT(entity)), auth.ActionUpdate); err != nil {
		return nil, nil, err
	}

	summary, err := s.assets.Apply(ctx, db, PT(entity), req)
	if err != nil {
		return nil, nil, err
	}
	return entity, summary, nil
}

func (s *SlotEntityService[T, PT]) Delete(ctx context.Context, db *gorm.DB, actor auth.Actor, id string) error {
	entity, err := s.repo.FindByID(db, id)
	if err != nil {
		return mapRepoError(err)
	}
	if err := s.authorize(actor, ownerOf(PT(entity)), auth.ActionDelete); err != nil {
		return err
	}
	return s.assets.Destroy(ctx, db, PT(entity))
}

// isOwnedKind - у сущности есть владелец (user_id)
func isOwnedKind(kind models.EntityKind) bool {
	switch kind {
	case models.KindSocialType, models.KindCategory:
		return false
	}
	return true
}
