package dto

import (
	"time"

	"portfolio_backend/internal/models"
)

// Payload - JSON тело create/update для простой сущности.
// ApplyTo переносит переданные (не nil) поля в модель.
type Payload[T any] interface {
	ApplyTo(entity *T) error
}

type EducationPayload struct {
	School      *string `json:"school" validate:"omitempty,max=200"`
	StartDate   *string `json:"start_date" validate:"omitempty,date"`
	EndDate     *string `json:"end_date" validate:"omitempty,date"`
	Description *string `json:"description"`
}

func (p EducationPayload) ApplyTo(e *models.Education) error {
	setString(&e.School, p.School)
	setString(&e.Description, p.Description)
	if err := setDate(&e.StartDate, p.StartDate); err != nil {
		return err
	}
	return setOptionalDate(&e.EndDate, p.EndDate)
}

type ExperiencePayload struct {
	Company     *string `json:"company" validate:"omitempty,max=200"`
	Title       *string `json:"title" validate:"omitempty,max=200"`
	StartDate   *string `json:"start_date" validate:"omitempty,date"`
	EndDate     *string `json:"end_date" validate:"omitempty,date"`
	Description *string `json:"description"`
}

func (p ExperiencePayload) ApplyTo(e *models.Experience) error {
	setString(&e.Company, p.Company)
	setString(&e.Title, p.Title)
	setString(&e.Description, p.Description)
	if err := setDate(&e.StartDate, p.StartDate); err != nil {
		return err
	}
	return setOptionalDate(&e.EndDate, p.EndDate)
}

type SkillPayload struct {
	Label *string `json:"label" validate:"omitempty,max=100"`
}

func (p SkillPayload) ApplyTo(s *models.Skill) error {
	setString(&s.Label, p.Label)
	return nil
}

type SocialPayload struct {
	SocialTypeID *string `json:"social_type_id" validate:"omitempty,uuid"`
	Link         *string `json:"link" validate:"omitempty,url"`
}

func (p SocialPayload) ApplyTo(s *models.Social) error {
	setString(&s.SocialTypeID, p.SocialTypeID)
	setString(&s.Link, p.Link)
	return nil
}

type SettingsPayload struct {
	Color *string `json:"color" validate:"omitempty,hexcolor"`
}

func (p SettingsPayload) ApplyTo(s *models.Settings) error {
	setString(&s.Color, p.Color)
	return nil
}

// ArticlePayload - пустая category_id снимает категорию
type ArticlePayload struct {
	CategoryID    *string `json:"category_id" validate:"omitempty,uuid|len=0"`
	Title         *string `json:"title" validate:"omitempty,max=255"`
	Content       *string `json:"content"`
	CoverageImage *string `json:"coverage_image" validate:"omitempty,url"`
	IsPublished   *bool   `json:"is_published"`
}

func (p ArticlePayload) ApplyTo(a *models.Article) error {
	if p.CategoryID != nil {
		id := *p.CategoryID
		a.CategoryID = &id
	}
	setString(&a.Title, p.Title)
	setString(&a.Content, p.Content)
	setString(&a.CoverageImage, p.CoverageImage)
	if p.IsPublished != nil {
		if *p.IsPublished && !a.IsPublished {
			now := time.Now()
			a.PublishedAt = &now
		}
		if !*p.IsPublished {
			a.PublishedAt = nil
		}
		a.IsPublished = *p.IsPublished
	}
	return nil
}

// ContactPayload - сообщение посетителя. UserID - получатель.
type ContactPayload struct {
	UserID  *string `json:"user_id" validate:"omitempty,uuid"`
	Name    *string `json:"name" validate:"omitempty,max=150"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Message *string `json:"message" validate:"omitempty,max=5000"`
}

func (p ContactPayload) ApplyTo(c *models.Contact) error {
	setString(&c.UserID, p.UserID)
	setString(&c.Name, p.Name)
	setString(&c.Email, p.Email)
	setString(&c.Message, p.Message)
	return nil
}

type CategoryPayload struct {
	Name *string `json:"name" validate:"omitempty,max=100"`
}

func (p CategoryPayload) ApplyTo(c *models.Category) error {
	setString(&c.Name, p.Name)
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDate(dst *time.Time, v *string) error {
	if v == nil {
		return nil
	}
	t, err := time.Parse(time.DateOnly, *v)
	if err != nil {
		return err
	}
	*dst = t
	return nil
}

// setOptionalDate: пустая строка очищает дату
func setOptionalDate(dst **time.Time, v *string) error {
	if v == nil {
		return nil
	}
	if *v == "" {
		*dst = nil
		return nil
	}
	t, err := time.Parse(time.DateOnly, *v)
	if err != nil {
		return err
	}
	*dst = &t
	return nil
}
