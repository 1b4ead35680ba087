package dto

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// ProjectRequest - поля проекта (multipart). Technologies передаются повторяющимся ключом.
type ProjectRequest struct {
	Title        *string  `form:"title" json:"title" validate:"omitempty,min=1,max=200"`
	Description  *string  `form:"description" json:"description"`
	Technologies []string `form:"technologies" json:"technologies" validate:"omitempty,dive,min=1,max=50"`
	DemoURL      *string  `form:"demo_url" json:"demo_url" validate:"omitempty,url"`
	GithubURL    *string  `form:"github_url" json:"github_url" validate:"omitempty,url"`
}

func (r *ProjectRequest) Fields() map[string]any {
	fields := map[string]any{}
	putString(fields, "title", r.Title)
	putString(fields, "description", r.Description)
	putString(fields, "demo_url", r.DemoURL)
	putString(fields, "github_url", r.GithubURL)
	if r.Technologies != nil {
		fields["technologies"] = jsonList(r.Technologies)
	}
	return fields
}

// ServiceRequest - поля услуги (multipart). Tags передаются повторяющимся ключом.
type ServiceRequest struct {
	Title         *string  `form:"title" json:"title" validate:"omitempty,min=1,max=200"`
	Description   *string  `form:"description" json:"description"`
	Price         *float64 `form:"price" json:"price" validate:"omitempty,gte=0"`
	DurationHours *int     `form:"duration_hours" json:"duration_hours" validate:"omitempty,gt=0"`
	IsActive      *bool    `form:"is_active" json:"is_active"`
	Tags          []string `form:"tags" json:"tags" validate:"omitempty,dive,min=1,max=50"`
}

func (r *ServiceRequest) Fields() map[string]any {
	fields := map[string]any{}
	putString(fields, "title", r.Title)
	putString(fields, "description", r.Description)
	if r.Price != nil {
		fields["price"] = *r.Price
	}
	if r.DurationHours != nil {
		fields["duration_hours"] = *r.DurationHours
	}
	if r.IsActive != nil {
		fields["is_active"] = *r.IsActive
	}
	if r.Tags != nil {
		fields["tags"] = jsonList(r.Tags)
	}
	return fields
}

// SocialTypeRequest - поля справочника соцсетей (multipart)
type SocialTypeRequest struct {
	Label *string `form:"label" json:"label" validate:"omitempty,min=1,max=100"`
}

func (r *SocialTypeRequest) Fields() map[string]any {
	fields := map[string]any{}
	putString(fields, "label", r.Label)
	return fields
}

func jsonList(items []string) datatypes.JSON {
	data, _ := json.Marshal(items)
	return datatypes.JSON(data)
}

// ServiceFilter - фильтры списка активных услуг
type ServiceFilter struct {
	MinPrice *float64 `form:"min_price" validate:"omitempty,gte=0"`
	MaxPrice *float64 `form:"max_price" validate:"omitempty,gte=0"`
	Tag      string   `form:"tag" validate:"omitempty,max=50"`
}
