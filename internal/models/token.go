package models

import "time"

type RefreshToken struct {
	BaseModel
	UserID    string    `gorm:"type:varchar(36);not null;index"`
	Token     string    `gorm:"size:128;not null;uniqueIndex"`
	ExpiresAt time.Time `gorm:"not null"`
}

// PasswordResetToken - одноразовый токен сброса пароля, действует 24 часа
type PasswordResetToken struct {
	BaseModel
	UserID    string    `gorm:"type:varchar(36);not null;index"`
	Token     string    `gorm:"size:36;not null;uniqueIndex"`
	ExpiresAt time.Time `gorm:"not null"`
	IsUsed    bool
}

const PasswordResetTTL = 24 * time.Hour

func (t *PasswordResetToken) IsValid(now time.Time) bool {
	return !t.IsUsed && now.Before(t.ExpiresAt)
}

// All возвращает все модели для AutoMigrate
func All() []any {
	return []any{
		&User{},
		&RefreshToken{},
		&PasswordResetToken{},
		&SocialType{},
		&Category{},
		&Education{},
		&Experience{},
		&Skill{},
		&Project{},
		&Service{},
		&Social{},
		&Article{},
		&Contact{},
		&Settings{},
	}
}
