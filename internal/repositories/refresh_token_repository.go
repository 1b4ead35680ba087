package repositories

import (
	"errors"
	"time"

	"portfolio_backend/internal/models"

	"gorm.io/gorm"
)

var (
	// ErrRefreshTokenNotFound возвращается, когда refresh-токен не найден в БД
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	// ErrResetTokenNotFound - токен сброса пароля не найден
	ErrResetTokenNotFound = errors.New("password reset token not found")
)

// TokenRepository - refresh-токены и токены сброса пароля
type TokenRepository interface {
	CreateRefreshToken(db *gorm.DB, token *models.RefreshToken) error
	FindRefreshToken(db *gorm.DB, tokenString string) (*models.RefreshToken, error)
	// DeleteRefreshToken удаляет токен; ErrRefreshTokenNotFound, если его не было
	DeleteRefreshToken(db *gorm.DB, tokenString string) error
	DeleteUserRefreshTokens(db *gorm.DB, userID string) error
	CleanExpiredRefreshTokens(db *gorm.DB) (int64, error)

	CreateResetToken(db *gorm.DB, token *models.PasswordResetToken) error
	FindResetToken(db *gorm.DB, tokenString string) (*models.PasswordResetToken, error)
	MarkResetTokenUsed(db *gorm.DB, id string) error
	DeleteUserResetTokens(db *gorm.DB, userID string) error
	// CleanResetTokens удаляет просроченные и использованные токены сброса
	CleanResetTokens(db *gorm.DB) (int64, error)
}

type tokenRepository struct{}

func NewTokenRepository() TokenRepository {
	return &tokenRepository{}
}

func (r *tokenRepository) CreateRefreshToken(db *gorm.DB, token *models.RefreshToken) error {
	return db.Create(token).Error
}

func (r *tokenRepository) FindRefreshToken(db *gorm.DB, tokenString string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := db.Where("token = ?", tokenString).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRefreshTokenNotFound
		}
		return nil, err
	}
	return &token, nil
}

func (r *tokenRepository) DeleteRefreshToken(db *gorm.DB, tokenString string) error {
	result := db.Where("token = ?", tokenString).Delete(&models.RefreshToken{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRefreshTokenNotFound
	}
	return nil
}

func (r *tokenRepository) DeleteUserRefreshTokens(db *gorm.DB, userID string) error {
	return db.Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error
}

func (r *tokenRepository) CleanExpiredRefreshTokens(db *gorm.DB) (int64, error) {
	result := db.Where("expires_at < ?", time.Now()).Delete(&models.RefreshToken{})
	return result.RowsAffected, result.Error
}

func (r *tokenRepository) CreateResetToken(db *gorm.DB, token *models.PasswordResetToken) error {
	return db.Create(token).Error
}

func (r *tokenRepository) FindResetToken(db *gorm.DB, tokenString string) (*models.PasswordResetToken, error) {
	var token models.PasswordResetToken
	if err := db.Where("token = ?", tokenString).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResetTokenNotFound
		}
		return nil, err
	}
	return &token, nil
}

func (r *tokenRepository) MarkResetTokenUsed(db *gorm.DB, id string) error {
	return db.Model(&models.PasswordResetToken{}).Where("id = ?", id).Update("is_used", true).Error
}

func (r *tokenRepository) DeleteUserResetTokens(db *gorm.DB, userID string) error {
	return db.Where("user_id = ?", userID).Delete(&models.PasswordResetToken{}).Error
}

func (r *tokenRepository) CleanResetTokens(db *gorm.DB) (int64, error) {
	result := db.Where("expires_at < ? OR is_used = ?", time.Now(), true).Delete(&models.PasswordResetToken{})
	return result.RowsAffected, result.Error
}
