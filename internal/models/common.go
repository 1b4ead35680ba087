package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel - общий первичный ключ и временные метки.
// UUID генерируется в приложении, чтобы схема работала на postgres, mysql и sqlite.
type BaseModel struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

func (b *BaseModel) GetID() string {
	return b.ID
}

// EntityKind - тип сущности (используется политикой доступа и таблицей слотов)
type EntityKind string

const (
	KindUser       EntityKind = "user"
	KindEducation  EntityKind = "education"
	KindExperience EntityKind = "experience"
	KindSkill      EntityKind = "skill"
	KindProject    EntityKind = "project"
	KindService    EntityKind = "service"
	KindSocial     EntityKind = "social"
	KindSocialType EntityKind = "social_type"
	KindCategory   EntityKind = "category"
	KindArticle    EntityKind = "article"
	KindContact    EntityKind = "contact"
	KindSettings   EntityKind = "settings"
)

// Owned - сущность, принадлежащая пользователю
type Owned interface {
	GetID() string
	GetOwnerID() string
	SetOwnerID(userID string)
	EntityKind() EntityKind
}

// OwnedBase - внешний ключ владельца
type OwnedBase struct {
	BaseModel
	UserID string `gorm:"type:varchar(36);not null;index" json:"user_id"`
}

func (o *OwnedBase) GetOwnerID() string {
	return o.UserID
}

func (o *OwnedBase) SetOwnerID(userID string) {
	o.UserID = userID
}
