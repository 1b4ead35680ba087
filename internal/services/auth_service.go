package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"portfolio_backend/internal/auth"
	"portfolio_backend/internal/email"
	"portfolio_backend/internal/logger"
	"portfolio_backend/internal/models"
	"portfolio_backend/internal/repositories"
	"portfolio_backend/internal/services/dto"
	"portfolio_backend/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuthService interface {
	Register(ctx context.Context, db *gorm.DB, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, db *gorm.DB, req *dto.LoginRequest) (*dto.AuthResponse, error)
	Refresh(ctx context.Context, db *gorm.DB, refreshToken string) (*dto.TokenPair, error)
	Logout(ctx context.Context, db *gorm.DB, refreshToken string) error
	CurrentUser(db *gorm.DB, userID string) (*models.User, error)
	RequestPasswordReset(ctx context.Context, db *gorm.DB, email string) error
	ConfirmPasswordReset(ctx context.Context, db *gorm.DB, req *dto.PasswordResetConfirmRequest) error
}

// AuthOptions - параметры токенов и ссылок
type AuthOptions struct {
	RefreshTTL time.Duration
	// ResetURL - шаблон ссылки сброса, {token} заменяется на токен
	ResetURL string
}

type AuthServiceImpl struct {
	userRepo      repositories.UserRepository
	tokenRepo     repositories.TokenRepository
	jwt           *auth.JWTManager
	emailProvider email.Provider
	opts          AuthOptions
	now           func() time.Time
}

func NewAuthService(
	userRepo repositories.UserRepository,
	tokenRepo repositories.TokenRepository,
	jwtManager *auth.JWTManager,
	emailProvider email.Provider,
	opts AuthOptions,
) AuthService {
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = 7 * 24 * time.Hour
	}
	return &AuthServiceImpl{
		userRepo:      userRepo,
		tokenRepo:     tokenRepo,
		jwt:           jwtManager,
		emailProvider: emailProvider,
		opts:          opts,
		now:           time.Now,
	}
}

// Register - регистрация нового пользователя, сразу выдает пару токенов
func (s *AuthServiceImpl) Register(ctx context.Context, db *gorm.DB, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if req.Password != req.PasswordConfirm {
		return nil, apperrors.ErrPasswordMismatch
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, apperrors.ErrWeakPassword
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Username:     strings.TrimSpace(req.Username),
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		IsActive:     true,
	}

	var tokens *dto.TokenPair
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := s.userRepo.ExistsByEmail(tx, user.Email)
		if err != nil {
			return apperrors.InternalError(err)
		}
		if exists {
			return apperrors.ErrEmailAlreadyExists
		}

		exists, err = s.userRepo.ExistsByUsername(tx, user.Username)
		if err != nil {
			return apperrors.InternalError(err)
		}
		if exists {
			return apperrors.ErrUsernameAlreadyExists
		}

		if err := s.userRepo.Create(tx, user); err != nil {
			if errors.Is(err, repositories.ErrUserAlreadyExists) {
				return apperrors.ErrEmailAlreadyExists
			}
			return apperrors.InternalError(err)
		}

		tokens, err = s.issueTokens(tx, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.CtxInfo(ctx, "User registered", "user_id", user.ID)
	return &dto.AuthResponse{Tokens: *tokens, User: user}, nil
}

// Login - аутентификация по email и паролю
func (s *AuthServiceImpl) Login(ctx context.Context, db *gorm.DB, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(db, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.InternalError(err)
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		logger.CtxWarn(ctx, "Failed login attempt", "user_id", user.ID)
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperrors.ErrUserInactive
	}

	now := s.now()
	if err := s.userRepo.UpdateLastLogin(db, user.ID, now); err != nil {
		return nil, apperrors.InternalError(err)
	}
	user.LastLogin = &now

	tokens, err := s.issueTokens(db, user)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{Tokens: *tokens, User: user}, nil
}

// Refresh - новый access-токен по refresh-токену, refresh ротируется
func (s *AuthServiceImpl) Refresh(ctx context.Context, db *gorm.DB, refreshToken string) (*dto.TokenPair, error) {
	var tokens *dto.TokenPair

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		token, err := s.tokenRepo.FindRefreshToken(tx, refreshToken)
		if err != nil {
			// Неважно, какая ошибка (не найден или другая) - токен невалиден
			return apperrors.ErrInvalidToken
		}

		if s.now().After(token.ExpiresAt) {
			return apperrors.ErrInvalidToken
		}

		user, err := s.userRepo.FindByID(tx, token.UserID)
		if err != nil {
			return apperrors.ErrInvalidToken
		}
		if !user.IsActive {
			return apperrors.ErrUserInactive
		}

		if err := s.tokenRepo.DeleteRefreshToken(tx, refreshToken); err != nil {
			// Токен уже использован параллельным запросом
			return apperrors.ErrInvalidToken
		}

		tokens, err = s.issueTokens(tx, user)
		return err
	})
	if err != nil {
		// Просроченные токены чистятся вне откатившейся транзакции
		if apperrors.Is(err, apperrors.ErrInvalidToken) {
			_, _ = s.tokenRepo.CleanExpiredRefreshTokens(db)
		}
		return nil, err
	}
	return tokens, nil
}

// Logout удаляет предъявленный refresh-токен
func (s *AuthServiceImpl) Logout(ctx context.Context, db *gorm.DB, refreshToken string) error {
	if err := s.tokenRepo.DeleteRefreshToken(db.WithContext(ctx), refreshToken); err != nil {
		if errors.Is(err, repositories.ErrRefreshTokenNotFound) {
			return apperrors.ErrInvalidToken
		}
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *AuthServiceImpl) CurrentUser(db *gorm.DB, userID string) (*models.User, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return user, nil
}

// RequestPasswordReset отправляет письмо со ссылкой сброса.
// Для неизвестного email ничего не делает, чтобы не раскрывать зарегистрированные адреса.
func (s *AuthServiceImpl) RequestPasswordReset(ctx context.Context, db *gorm.DB, emailAddr string) error {
	user, err := s.userRepo.FindByEmail(db, emailAddr)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			logger.CtxInfo(ctx, "Password reset requested for unknown email")
			return nil
		}
		return apperrors.InternalError(err)
	}
	if !user.IsActive {
		return nil
	}

	token := &models.PasswordResetToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: s.now().Add(models.PasswordResetTTL),
	}
	if err := s.tokenRepo.CreateResetToken(db, token); err != nil {
		return apperrors.InternalError(err)
	}

	link := strings.ReplaceAll(s.opts.ResetURL, "{token}", token.Token)
	err = s.emailProvider.SendWithTemplate(email.TemplatePasswordReset, email.TemplateData{
		"Name":  user.FullName(),
		"Link":  link,
		"Hours": int(models.PasswordResetTTL.Hours()),
	}, &email.Email{
		To:      []string{user.Email},
		Subject: "Password reset",
	})
	if err != nil {
		logger.CtxError(ctx, "Failed to send password reset email", "user_id", user.ID, "error", err)
		return apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "Password reset email sent", "user_id", user.ID)
	return nil
}

// ConfirmPasswordReset меняет пароль по одноразовому токену и завершает все сессии
func (s *AuthServiceImpl) ConfirmPasswordReset(ctx context.Context, db *gorm.DB, req *dto.PasswordResetConfirmRequest) error {
	if req.Password != req.PasswordConfirm {
		return apperrors.ErrPasswordMismatch
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		return apperrors.ErrWeakPassword
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return apperrors.InternalError(err)
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		token, err := s.tokenRepo.FindResetToken(tx, req.Token)
		if err != nil {
			if errors.Is(err, repositories.ErrResetTokenNotFound) {
				return apperrors.ErrInvalidToken
			}
			return apperrors.InternalError(err)
		}
		if !token.IsValid(s.now()) {
			return apperrors.ErrInvalidToken
		}

		if err := s.userRepo.UpdatePassword(tx, token.UserID, hash); err != nil {
			return mapRepoError(err)
		}
		if err := s.tokenRepo.MarkResetTokenUsed(tx, token.ID); err != nil {
			return apperrors.InternalError(err)
		}
		if err := s.tokenRepo.DeleteUserRefreshTokens(tx, token.UserID); err != nil {
			return apperrors.InternalError(err)
		}

		logger.CtxInfo(ctx, "Password reset completed", "user_id", token.UserID)
		return nil
	})
}

func (s *AuthServiceImpl) issueTokens(db *gorm.DB, user *models.User) (*dto.TokenPair, error) {
	access, err := s.jwt.GenerateAccessToken(user.ID, user.IsStaff, user.IsSuperuser)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	refresh, err := generateRandomToken()
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	if err := s.tokenRepo.CreateRefreshToken(db, &models.RefreshToken{
		UserID:    user.ID,
		Token:     refresh,
		ExpiresAt: s.now().Add(s.opts.RefreshTTL),
	}); err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.TokenPair{Access: access, Refresh: refresh}, nil
}

func generateRandomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
