package dto

import (
	"io"

	"portfolio_backend/internal/models"
)

// Upload - загруженный файл для слота
type Upload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// UpdateRequest - единый запрос обновления сущности со слотами.
//
// Если для слота есть и загрузка, и флаг удаления - побеждает загрузка.
// Загрузка также побеждает внешний URL.
type UpdateRequest struct {
	// Fields - скалярные колонки -> новые значения (типы как в модели)
	Fields       map[string]any
	Uploads      map[models.SlotName]*Upload
	Deletes      map[models.SlotName]bool
	ExternalURLs map[models.SlotName]string
}

func NewUpdateRequest() *UpdateRequest {
	return &UpdateRequest{
		Fields:       map[string]any{},
		Uploads:      map[models.SlotName]*Upload{},
		Deletes:      map[models.SlotName]bool{},
		ExternalURLs: map[models.SlotName]string{},
	}
}

func (r *UpdateRequest) HasAssetChanges() bool {
	return len(r.Uploads) > 0 || len(r.Deletes) > 0 || len(r.ExternalURLs) > 0
}

// AppliedSummary - что было применено, в порядке применения
type AppliedSummary struct {
	Message string   `json:"message"`
	Actions []string `json:"actions"`
}

// FieldSource - тело запроса, отдающее переданные скалярные поля
type FieldSource interface {
	Fields() map[string]any
}
