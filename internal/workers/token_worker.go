package workers

import (
	"context"
	"time"

	"portfolio_backend/internal/logger"
	"portfolio_backend/internal/repositories"

	"gorm.io/gorm"
)

// TokenWorker периодически удаляет просроченные refresh-токены
// и использованные или просроченные токены сброса пароля
type TokenWorker struct {
	db       *gorm.DB
	repo     repositories.TokenRepository
	interval time.Duration
}

func NewTokenWorker(db *gorm.DB, repo repositories.TokenRepository, interval time.Duration) *TokenWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &TokenWorker{db: db, repo: repo, interval: interval}
}

// Start запускает фоновую очистку до отмены ctx
func (w *TokenWorker) Start(ctx context.Context) {
	go w.loop(ctx)
}

func (w *TokenWorker) loop(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Token worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce выполняет одну очистку и возвращает число удаленных токенов
func (w *TokenWorker) RunOnce(ctx context.Context) (refresh int64, reset int64) {
	db := w.db.WithContext(ctx)

	refresh, err := w.repo.CleanExpiredRefreshTokens(db)
	if err != nil {
		logger.Error("Error cleaning expired refresh tokens", "error", err)
	}
	reset, err = w.repo.CleanResetTokens(db)
	if err != nil {
		logger.Error("Error cleaning password reset tokens", "error", err)
	}

	if refresh > 0 || reset > 0 {
		logger.Info("Expired tokens removed", "refresh", refresh, "reset", reset)
	}
	return refresh, reset
}
