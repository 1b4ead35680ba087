package repositories

import (
	"errors"

	"portfolio_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrRecordNotFound - запись не найдена (общая для всех сущностей)
var ErrRecordNotFound = errors.New("record not found")

// EntityRepository - CRUD для одной модели.
// Как и остальные репозитории, не хранит *gorm.DB: транзакцию передает сервис.
type EntityRepository[T any] struct {
	// preload - связи, загружаемые при чтении
	preload []string
}

func NewEntityRepository[T any](preload ...string) *EntityRepository[T] {
	return &EntityRepository[T]{preload: preload}
}

func (r *EntityRepository[T]) query(db *gorm.DB) *gorm.DB {
	q := db.Model(new(T))
	for _, rel := range r.preload {
		q = q.Preload(rel)
	}
	return q
}

func (r *EntityRepository[T]) Create(db *gorm.DB, entity *T) error {
	return db.Create(entity).Error
}

func (r *EntityRepository[T]) FindByID(db *gorm.DB, id string) (*T, error) {
	entity := new(T)
	if err := r.query(db).First(entity, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return entity, nil
}

func (r *EntityRepository[T]) FindAll(db *gorm.DB, order string) ([]T, error) {
	var items []T
	err := r.query(db).Order(order).Find(&items).Error
	return items, err
}

// FindByOwner - записи пользователя
func (r *EntityRepository[T]) FindByOwner(db *gorm.DB, userID, order string) ([]T, error) {
	var items []T
	err := r.query(db).Where("user_id = ?", userID).Order(order).Find(&items).Error
	return items, err
}

// FindWhere - записи по произвольному условию
func (r *EntityRepository[T]) FindWhere(db *gorm.DB, order string, query any, args ...any) ([]T, error) {
	var items []T
	err := r.query(db).Where(query, args...).Order(order).Find(&items).Error
	return items, err
}

// Save сохраняет все поля записи. Связи (Preload) не сохраняются.
func (r *EntityRepository[T]) Save(db *gorm.DB, entity *T) error {
	return db.Omit("created_at", clause.Associations).Save(entity).Error
}

// Exists - есть ли запись с таким id
func (r *EntityRepository[T]) Exists(db *gorm.DB, id string) (bool, error) {
	var count int64
	err := db.Model(new(T)).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *EntityRepository[T]) Delete(db *gorm.DB, entity *T) error {
	result := db.Delete(entity)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// DeleteByOwner удаляет все записи пользователя
func (r *EntityRepository[T]) DeleteByOwner(db *gorm.DB, userID string) error {
	return db.Where("user_id = ?", userID).Delete(new(T)).Error
}

// OwnedModels - модели, которые удаляются вместе с пользователем (без слотов изображений)
func OwnedModels() []any {
	return []any{
		&models.Education{},
		&models.Experience{},
		&models.Skill{},
		&models.Social{},
		&models.Article{},
		&models.Contact{},
		&models.Settings{},
		&models.RefreshToken{},
		&models.PasswordResetToken{},
	}
}
