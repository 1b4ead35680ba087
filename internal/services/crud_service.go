package services

import (
	"context"

	"portfolio_backend/internal/auth"
	"portfolio_backend/internal/logger"
	"portfolio_backend/internal/models"
	"portfolio_backend/internal/repositories"
	"portfolio_backend/internal/services/dto"
	"portfolio_backend/internal/validator"
	"portfolio_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// crudModel - модель без слотов изображений
type crudModel[T any] interface {
	*T
	GetID() string
	EntityKind() models.EntityKind
}

// CrudOptions - особенности конкретного типа сущности
type CrudOptions[T any, PT crudModel[T]] struct {
	Preload []string
	Order   string
	// BeforeSave - проверки связей перед вставкой/сохранением
	BeforeSave func(db *gorm.DB, entity PT) error
	// AfterCreate вызывается после успешной вставки
	AfterCreate func(ctx context.Context, db *gorm.DB, entity PT)
	// Visible - может ли актор, не являющийся владельцем, видеть запись
	Visible func(entity PT) bool
}

// CrudService - list/retrieve/mine/by_user/create/update/delete для простых сущностей.
// P - JSON тело запроса, переносящее переданные поля в модель.
type CrudService[T any, PT crudModel[T], P dto.Payload[T]] struct {
	kind      models.EntityKind
	repo      *repositories.EntityRepository[T]
	policy    auth.Policy
	validator *validator.Validator
	opts      CrudOptions[T, PT]
}

func NewCrudService[T any, PT crudModel[T], P dto.Payload[T]](
	policy auth.Policy,
	v *validator.Validator,
	opts CrudOptions[T, PT],
) *CrudService[T, PT, P] {
	if opts.Order == "" {
		opts.Order = "created_at DESC"
	}
	return &CrudService[T, PT, P]{
		kind:      PT(new(T)).EntityKind(),
		repo:      repositories.NewEntityRepository[T](opts.Preload...),
		policy:    policy,
		validator: v,
		opts:      opts,
	}
}

func (s *CrudService[T, PT, P]) Kind() models.EntityKind {
	return s.kind
}

func (s *CrudService[T, PT, P]) authorize(actor auth.Actor, ownerID string, action auth.Action) error {
	return s.policy.Authorize(actor, auth.Target{Kind: s.kind, OwnerID: ownerID, Action: action})
}

// visibleTo - владелец и staff видят все, остальные по правилу Visible
func (s *CrudService[T, PT, P]) visibleTo(actor auth.Actor, entity PT) bool {
	if s.opts.Visible == nil || actor.IsPrivileged() {
		return true
	}
	if owner := ownerOf(entity); owner != "" && owner == actor.ID {
		return true
	}
	return s.opts.Visible(entity)
}

func (s *CrudService[T, PT, P]) filterVisible(actor auth.Actor, items []T) []T {
	if s.opts.Visible == nil {
		return items
	}
	visible := items[:0]
	for i := range items {
		if s.visibleTo(actor, PT(&items[i])) {
			visible = append(visible, items[i])
		}
	}
	return visible
}

func (s *CrudService[T, PT, P]) Get(db *gorm.DB, actor auth.Actor, id string) (PT, error) {
	entity, err := s.repo.FindByID(db, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if err := s.authorize(actor, ownerOf(PT(entity)), auth.ActionRetrieve); err != nil {
		return nil, err
	}
	if !s.visibleTo(actor, PT(entity)) {
		return nil, apperrors.ErrNotFound(repositories.ErrRecordNotFound)
	}
	return entity, nil
}

func (s *CrudService[T, PT, P]) List(db *gorm.DB, actor auth.Actor) ([]T, error) {
	if err := s.authorize(actor, "", auth.ActionList); err != nil {
		return nil, err
	}
	userID, all := scopeForList(actor)
	if all || !isOwnedKind(s.kind) {
		items, err := s.repo.FindAll(db, s.opts.Order)
		return items, mapRepoError(err)
	}
	items, err := s.repo.FindByOwner(db, userID, s.opts.Order)
	return items, mapRepoError(err)
}

func (s *CrudService[T, PT, P]) Mine(db *gorm.DB, actor auth.Actor) ([]T, error) {
	if err := s.authorize(actor, actor.ID, auth.ActionMine); err != nil {
		return nil, err
	}
	items, err := s.repo.FindByOwner(db, actor.ID, s.opts.Order)
	return items, mapRepoError(err)
}

func (s *CrudService[T, PT, P]) ByUser(db *gorm.DB, actor auth.Actor, userID string) ([]T, error) {
	if err := s.authorize(actor, userID, auth.ActionByUser); err != nil {
		return nil, err
	}
	items, err := s.repo.FindByOwner(db, userID, s.opts.Order)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return s.filterVisible(actor, items), nil
}

func (s *CrudService[T, PT, P]) Create(ctx context.Context, db *gorm.DB, actor auth.Actor, payload P) (PT, error) {
	if err := s.authorize(actor, actor.ID, auth.ActionCreate); err != nil {
		return nil, err
	}

	entity := PT(new(T))
	if owned, ok := any(entity).(models.Owned); ok {
		owned.SetOwnerID(actor.ID)
	}
	if err := s.prepare(db, entity, payload); err != nil {
		return nil, err
	}

	if err := s.repo.Create(db.WithContext(ctx), (*T)(entity)); err != nil {
		return nil, mapRepoError(err)
	}
	logger.CtxInfo(ctx, "Entity created", "kind", s.kind, "id", entity.GetID())

	if s.opts.AfterCreate != nil {
		s.opts.AfterCreate(ctx, db, entity)
	}
	return s.reload(db, entity.GetID())
}

func (s *CrudService[T, PT, P]) Update(ctx context.Context, db *gorm.DB, actor auth.Actor, id string, payload P) (PT, error) {
	entity, err := s.repo.FindByID(db, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if err := s.authorize(actor, ownerOf(PT(entity)), auth.ActionUpdate); err != nil {
		return nil, err
	}
	if err := s.prepare(db, PT(entity), payload); err != nil {
		return nil, err
	}

	if err := s.repo.Save(db.WithContext(ctx), entity); err != nil {
		return nil, mapRepoError(err)
	}
	logger.CtxInfo(ctx, "Entity updated", "kind", s.kind, "id", id)
	return s.reload(db, id)
}

func (s *CrudService[T, PT, P]) Delete(ctx context.Context, db *gorm.DB, actor auth.Actor, id string) error {
	entity, err := s.repo.FindByID(db, id)
	if err != nil {
		return mapRepoError(err)
	}
	if err := s.authorize(actor, ownerOf(PT(entity)), auth.ActionDelete); err != nil {
		return err
	}
	if err := s.repo.Delete(db.WithContext(ctx), entity); err != nil {
		return mapRepoError(err)
	}
	logger.CtxInfo(ctx, "Entity deleted", "kind", s.kind, "id", id)
	return nil
}

// prepare переносит тело запроса в модель и проверяет результат
func (s *CrudService[T, PT, P]) prepare(db *gorm.DB, entity PT, payload P) error {
	if err := s.validator.Validate(payload); err != nil {
		return validationToAppError(err)
	}
	if err := payload.ApplyTo((*T)(entity)); err != nil {
		return apperrors.NewBadRequestError(err.Error())
	}
	if s.opts.BeforeSave != nil {
		if err := s.opts.BeforeSave(db, entity); err != nil {
			return err
		}
	}
	return validateModel(s.validator, entity)
}

// reload перечитывает запись вместе со связями
func (s *CrudService[T, PT, P]) reload(db *gorm.DB, id string) (PT, error) {
	entity, err := s.repo.FindByID(db, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return entity, nil
}

// mustExist - проверка внешнего ключа для BeforeSave
func mustExist[T any](db *gorm.DB, field, id, message string) error {
	exists, err := repositories.NewEntityRepository[T]().Exists(db, id)
	if err != nil {
		return apperrors.InternalError(err)
	}
	if !exists {
		return apperrors.ErrFieldValidation(map[string]string{field: message})
	}
	return nil
}
