package workers

import (
	"context"
	"testing"
	"time"

	"portfolio_backend/internal/models"
	"portfolio_backend/internal/repositories"
	"portfolio_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenWorker_RunOnce(t *testing.T) {
	db := helpers.NewTestDB(t)
	user := helpers.CreateUser(t, db, "worker@example.com", "worker", "password123")
	now := time.Now()

	require.NoError(t, db.Create(&models.RefreshToken{UserID: user.ID, Token: "expired", ExpiresAt: now.Add(-time.Hour)}).Error)
	require.NoError(t, db.Create(&models.RefreshToken{UserID: user.ID, Token: "valid", ExpiresAt: now.Add(time.Hour)}).Error)
	require.NoError(t, db.Create(&models.PasswordResetToken{UserID: user.ID, Token: "used", ExpiresAt: now.Add(time.Hour), IsUsed: true}).Error)
	require.NoError(t, db.Create(&models.PasswordResetToken{UserID: user.ID, Token: "old", ExpiresAt: now.Add(-time.Minute)}).Error)
	require.NoError(t, db.Create(&models.PasswordResetToken{UserID: user.ID, Token: "fresh", ExpiresAt: now.Add(time.Hour)}).Error)

	worker := NewTokenWorker(db, repositories.NewTokenRepository(), time.Minute)
	refresh, reset := worker.RunOnce(context.Background())

	assert.Equal(t, int64(1), refresh)
	assert.Equal(t, int64(2), reset)

	var tokens []models.RefreshToken
	require.NoError(t, db.Find(&tokens).Error)
	require.Len(t, tokens, 1)
	assert.Equal(t, "valid", tokens[0].Token)

	var resets []models.PasswordResetToken
	require.NoError(t, db.Find(&resets).Error)
	require.Len(t, resets, 1)
	assert.Equal(t, "fresh", resets[0].Token)
}
