package apperrors

import (
	"net/http"
)

// =========================================================================
// Фабричные ФУНКЦИИ
// =========================================================================

// ErrNotFound - фабрика для ошибки "не найдено" (404)
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "resource", "Resource not found", http.StatusNotFound)
}

// ErrAlreadyExists - фабрика для ошибки "уже существует" (409)
func ErrAlreadyExists(err error) *AppError {
	return Wrap(err, CodeAlreadyExists, "resource", "Resource already exists", http.StatusConflict)
}

// ErrInvalidOperation - фабрика для невалидных операций (400)
func ErrInvalidOperation(domain, message string) *AppError {
	return New(CodeInvalidOperation, domain, message, http.StatusBadRequest)
}

// --- Uploads & Files ---

// ErrNotAFile - переданный объект не является файлом
func ErrNotAFile(field string) *AppError {
	return New(CodeNotAFile, "upload", "The submitted value is not a valid file", http.StatusBadRequest).
		WithDetails(map[string]string{field: "not a valid file"})
}

// ErrFileTooLarge - файл превышает максимальный размер
func ErrFileTooLarge(field, message string) *AppError {
	return New(CodeFileTooLarge, "upload", message, http.StatusRequestEntityTooLarge).
		WithDetails(map[string]string{field: message})
}

// ErrUnsupportedFormat - расширение не входит в список разрешенных
func ErrUnsupportedFormat(field, message string) *AppError {
	return New(CodeUnsupportedFormat, "upload", message, http.StatusUnsupportedMediaType).
		WithDetails(map[string]string{field: message})
}

// ErrInvalidImage - файл не декодируется как изображение
func ErrInvalidImage(field, message string) *AppError {
	return New(CodeInvalidImage, "upload", message, http.StatusBadRequest).
		WithDetails(map[string]string{field: message})
}

// ErrStorageFailure - ошибка записи/удаления в хранилище. Повтор не выполняется.
func ErrStorageFailure(err error) *AppError {
	return Wrap(err, CodeStorageFailure, "storage", "File storage operation failed", http.StatusInternalServerError)
}

// ErrFieldValidation - ошибки скалярных полей (поле -> сообщение)
func ErrFieldValidation(fields map[string]string) *AppError {
	return ValidationError(fields)
}

// =========================================================================
// Предопределенные ПЕРЕМЕННЫЕ
// =========================================================================

// ErrAuthorizationDenied - актор не владелец и не staff
var ErrAuthorizationDenied = New(
	CodeForbidden,
	"auth",
	"You do not have permission to perform this action",
	http.StatusForbidden,
)

// ErrInsufficientPermissions - не-админ пытается выполнить админ-действие
var ErrInsufficientPermissions = New(
	CodeForbidden,
	"auth",
	"Insufficient permissions",
	http.StatusForbidden,
)

// --- Auth ---

var ErrWeakPassword = New(
	CodeValidationFailed,
	"validation",
	"Password is too weak. Minimum 8 characters required.",
	http.StatusBadRequest,
)

var ErrPasswordMismatch = New(
	CodeValidationFailed,
	"validation",
	"Passwords do not match",
	http.StatusBadRequest,
).WithDetails(map[string]string{"password_confirm": "Passwords do not match"})

var ErrEmailAlreadyExists = New(
	CodeAlreadyExists,
	"auth",
	"Email already in use",
	http.StatusConflict,
)

var ErrUsernameAlreadyExists = New(
	CodeAlreadyExists,
	"auth",
	"Username already in use",
	http.StatusConflict,
)

var ErrInvalidCredentials = New(
	CodeInvalidCredentials,
	"auth",
	"Invalid email or password",
	http.StatusUnauthorized,
)

// ErrInvalidToken - неверный или просроченный токен (refresh, reset)
var ErrInvalidToken = New(
	CodeInvalidToken,
	"auth",
	"Invalid or expired token",
	http.StatusUnauthorized,
)

var ErrUserInactive = New(
	CodeForbidden,
	"auth",
	"This account is inactive",
	http.StatusForbidden,
)

var ErrCannotModifySelf = New(
	CodeForbidden,
	"business_logic",
	"Operation on self is not allowed",
	http.StatusForbidden,
)

// ErrConflict - конкурентное изменение той же записи (409)
func ErrConflict(message string) *AppError {
	return New(CodeConflict, "resource", message, http.StatusConflict)
}
