package models

import "time"

type Category struct {
	BaseModel
	Name string `gorm:"size:100;uniqueIndex;not null" json:"name" validate:"required,max=100"`
}

func (c *Category) EntityKind() EntityKind { return KindCategory }

type Article struct {
	OwnedBase
	CategoryID    *string    `gorm:"type:varchar(36);index" json:"category_id"`
	Title         string     `gorm:"size:255;not null" json:"title" validate:"required,max=255"`
	Content       string     `gorm:"type:text" json:"content"`
	CoverageImage string     `gorm:"size:500" json:"coverage_image" validate:"omitempty,url"`
	IsPublished   bool       `gorm:"index" json:"is_published"`
	PublishedAt   *time.Time `json:"published_at"`
	Category      *Category  `gorm:"foreignKey:CategoryID" json:"category,omitempty" validate:"-"`
}

func (a *Article) EntityKind() EntityKind { return KindArticle }
