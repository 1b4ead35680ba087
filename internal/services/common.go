package services

import (
	"context"
	"errors"
	"reflect"

	"portfolio_backend/internal/auth"
	"portfolio_backend/internal/repositories"
	"portfolio_backend/internal/validator"
	"portfolio_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// mapRepoError переводит ошибки репозиториев и GORM в AppError
func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, repositories.ErrRecordNotFound),
		errors.Is(err, repositories.ErrUserNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.ErrNotFound(err)
	case errors.Is(err, gorm.ErrDuplicatedKey),
		errors.Is(err, repositories.ErrUserAlreadyExists):
		return apperrors.ErrAlreadyExists(err)
	}
	return apperrors.InternalError(err)
}

// validateModel проверяет итоговое состояние модели по validate-тегам
func validateModel(v *validator.Validator, model any) error {
	if err := v.Validate(model); err != nil {
		return validationToAppError(err)
	}
	return nil
}

func validationToAppError(err error) error {
	var vErr *validator.ValidationError
	if errors.As(err, &vErr) {
		return apperrors.ErrFieldValidation(vErr.Errors)
	}
	return apperrors.InternalError(err)
}

// assignFields записывает значения колонок в поля модели (по схеме GORM)
func assignFields(ctx context.Context, db *gorm.DB, model any, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return err
	}
	rv := reflect.Indirect(reflect.ValueOf(model))
	for col, val := range fields {
		field := stmt.Schema.LookUpField(col)
		if field == nil {
			return apperrors.ErrFieldValidation(map[string]string{col: "Unknown field"})
		}
		if err := field.Set(ctx, rv, val); err != nil {
			return apperrors.ErrFieldValidation(map[string]string{col: "Invalid value"})
		}
	}
	return nil
}

// ownerOf - владелец записи или "" для общих справочников
func ownerOf(entity any) string {
	if o, ok := entity.(interface{ GetOwnerID() string }); ok {
		return o.GetOwnerID()
	}
	return ""
}

// scopeForList - staff видит все записи, остальные только свои
func scopeForList(actor auth.Actor) (userID string, all bool) {
	if actor.IsPrivileged() {
		return "", true
	}
	return actor.ID, false
}
