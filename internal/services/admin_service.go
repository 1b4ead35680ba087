package services

import (
	"context"
	"slices"

	"portfolio_backend/internal/auth"
	"portfolio_backend/internal/logger"
	"portfolio_backend/internal/models"
	"portfolio_backend/internal/repositories"
	"portfolio_backend/internal/services/dto"
	"portfolio_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// AdminService - модерация пользователей и обслуживание файлов
type AdminService interface {
	ListUsers(db *gorm.DB, actor auth.Actor, filter dto.UserFilter) (*dto.PaginatedResponse, error)
	ApplyUserAction(ctx context.Context, db *gorm.DB, actor auth.Actor, req *dto.UserActionRequest) (*dto.UserActionResult, error)
	DeleteUser(ctx context.Context, db *gorm.DB, actor auth.Actor, userID string) error
	ResyncURLs(ctx context.Context, db *gorm.DB, actor auth.Actor) (*dto.ResyncResult, error)
}

type AdminServiceImpl struct {
	userRepo repositories.UserRepository
	assets   AssetUpdateService
}

func NewAdminService(userRepo repositories.UserRepository, assets AssetUpdateService) AdminService {
	return &AdminServiceImpl{
		userRepo: userRepo,
		assets:   assets,
	}
}

// userActionColumns - действие -> (колонка, значение)
var userActionColumns = map[dto.UserAction]struct {
	column string
	value  bool
}{
	dto.UserActionActivate:   {"is_active", true},
	dto.UserActionDeactivate: {"is_active", false},
	dto.UserActionVerify:     {"is_verified", true},
	dto.UserActionUnverify:   {"is_verified", false},
}

func requireStaff(actor auth.Actor) error {
	if !actor.IsAuthenticated() {
		return apperrors.NewUnauthorizedError("Authentication credentials were not provided")
	}
	if !actor.IsPrivileged() {
		return apperrors.ErrInsufficientPermissions
	}
	return nil
}

func (s *AdminServiceImpl) ListUsers(db *gorm.DB, actor auth.Actor, filter dto.UserFilter) (*dto.PaginatedResponse, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}

	users, total, err := s.userRepo.FindWithFilter(db, repositories.UserFilter{
		Search:     filter.Search,
		IsStaff:    filter.IsStaff,
		IsActive:   filter.IsActive,
		IsVerified: filter.IsVerified,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	page, pageSize := repositories.NormalizePage(filter.Page, filter.PageSize)
	if users == nil {
		users = []models.User{}
	}
	return &dto.PaginatedResponse{
		Items:    users,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// ApplyUserAction - массовая смена is_active / is_verified.
// Деактивировать самого себя нельзя.
func (s *AdminServiceImpl) ApplyUserAction(ctx context.Context, db *gorm.DB, actor auth.Actor, req *dto.UserActionRequest) (*dto.UserActionResult, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}

	change, ok := userActionColumns[req.Action]
	if !ok {
		return nil, apperrors.ErrFieldValidation(map[string]string{"action": "Unknown action"})
	}
	if req.Action == dto.UserActionDeactivate && slices.Contains(req.UserIDs, actor.ID) {
		return nil, apperrors.ErrCannotModifySelf
	}

	affected, err := s.userRepo.SetFlag(db.WithContext(ctx), req.UserIDs, change.column, change.value)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "Admin user action applied",
		"action", req.Action,
		"requested", len(req.UserIDs),
		"affected", affected,
	)
	return &dto.UserActionResult{Action: req.Action, Affected: affected}, nil
}

// DeleteUser удаляет пользователя со всеми его записями в одной транзакции.
// Файлы слотов (профиль, проекты, услуги) удаляются после коммита.
func (s *AdminServiceImpl) DeleteUser(ctx context.Context, db *gorm.DB, actor auth.Actor, userID string) error {
	if err := requireStaff(actor); err != nil {
		return err
	}
	if actor.ID == userID {
		return apperrors.ErrCannotModifySelf
	}

	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		return mapRepoError(err)
	}
	if user.IsSuperuser && !actor.IsSuperuser {
		return apperrors.ErrInsufficientPermissions
	}

	var files []string
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		files = append(files, s.assets.Files(user)...)

		projectFiles, err := ownedFiles[models.Project](tx, s.assets, userID)
		if err != nil {
			return err
		}
		serviceFiles, err := ownedFiles[models.Service](tx, s.assets, userID)
		if err != nil {
			return err
		}
		files = append(files, projectFiles...)
		files = append(files, serviceFiles...)

		owned := append(repositories.OwnedModels(), &models.Project{}, &models.Service{})
		for _, model := range owned {
			if err := tx.Where("user_id = ?", userID).Delete(model).Error; err != nil {
				return err
			}
		}
		return s.userRepo.Delete(tx, userID)
	})
	if err != nil {
		return mapRepoError(err)
	}

	s.assets.RemoveFiles(ctx, files)
	logger.CtxInfo(ctx, "User deleted", "user_id", userID, "files", len(files))
	return nil
}

func (s *AdminServiceImpl) ResyncURLs(ctx context.Context, db *gorm.DB, actor auth.Actor) (*dto.ResyncResult, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	updated, err := s.assets.ResyncURLs(ctx, db)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return &dto.ResyncResult{Updated: updated}, nil
}

// ownedFiles - файлы слотов всех записей пользователя данного типа
func ownedFiles[T any, PT slotModel[T]](db *gorm.DB, svc AssetUpdateService, userID string) ([]string, error) {
	items, err := repositories.NewEntityRepository[T]().FindByOwner(db, userID, "created_at")
	if err != nil {
		return nil, err
	}
	var files []string
	for i := range items {
		files = append(files, svc.Files(PT(&items[i]))...)
	}
	return files, nil
}
