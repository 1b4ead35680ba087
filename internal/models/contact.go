package models

// Contact - сообщение посетителя, адресованное пользователю (UserID - получатель)
type Contact struct {
	OwnedBase
	Name    string `gorm:"size:150;not null" json:"name" validate:"required,max=150"`
	Email   string `gorm:"size:254;not null" json:"email" validate:"required,email"`
	Message string `gorm:"type:text;not null" json:"message" validate:"required"`
	Read    bool   `gorm:"index" json:"read"`
}

func (c *Contact) EntityKind() EntityKind { return KindContact }

// Settings - настройки отображения портфолио, одна запись на пользователя
type Settings struct {
	BaseModel
	UserID string `gorm:"type:varchar(36);not null;uniqueIndex" json:"user_id"`
	Color  string `gorm:"size:20;not null" json:"color" validate:"required,hexcolor"`
}

func (s *Settings) EntityKind() EntityKind { return KindSettings }

func (s *Settings) GetOwnerID() string { return s.UserID }

func (s *Settings) SetOwnerID(userID string) { s.UserID = userID }
