package services

import (
	"context"
	"testing"

	"portfolio_backend/internal/auth"
	"portfolio_backend/internal/models"
	"portfolio_backend/internal/services/dto"
	"portfolio_backend/internal/validator"
	"portfolio_backend/pkg/apperrors"
	"portfolio_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func newOffering(t *testing.T, f *assetFixture, actor auth.Actor, title string, price float64, tags string) *models.Service {
	t.Helper()

	svc := NewOfferingService(f.svc, auth.NewPolicy(), validator.New())
	req := dto.NewUpdateRequest()
	req.Fields["title"] = title
	req.Fields["price"] = price
	req.Fields["duration_hours"] = 2
	req.Fields["tags"] = datatypes.JSON(tags)

	service, summary, err := svc.Create(context.Background(), f.db, actor, req)
	require.NoError(t, err)
	require.NotEmpty(t, summary.Actions)
	return service
}

func titles(items []models.Service) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Title)
	}
	return out
}

func TestOffering_CreateDefaultsToActive(t *testing.T) {
	f := newAssetFixture(t)
	alice := helpers.CreateUser(t, f.db, "alice@test.com", "alice", "password123")

	service := newOffering(t, f, actorOf(alice), "Code review", 50, `["go"]`)
	assert.True(t, service.IsActive)
	assert.Equal(t, alice.ID, service.UserID)
}

func TestOffering_CreateRejectsInvalidFields(t *testing.T) {
	f := newAssetFixture(t)
	alice := helpers.CreateUser(t, f.db, "alice@test.com", "alice", "password123")
	svc := NewOfferingService(f.svc, auth.NewPolicy(), validator.New())

	req := dto.NewUpdateRequest()
	req.Fields["title"] = "Consulting"
	req.Fields["price"] = -1.0
	req.Fields["duration_hours"] = 1
	_, _, err := svc.Create(context.Background(), f.db, actorOf(alice), req)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))

	req = dto.NewUpdateRequest()
	req.Fields["title"] = "Consulting"
	req.Fields["duration_hours"] = 1
	req.Fields["owner"] = "someone"
	_, _, err = svc.Create(context.Background(), f.db, actorOf(alice), req)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))

	var count int64
	require.NoError(t, f.db.Model(&models.Service{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestOffering_CreateWithIcon(t *testing.T) {
	f := newAssetFixture(t)
	alice := helpers.CreateUser(t, f.db, "alice@test.com", "alice", "password123")
	svc := NewOfferingService(f.svc, auth.NewPolicy(), validator.New())

	req := dto.NewUpdateRequest()
	req.Fields["title"] = "Design"
	req.Fields["duration_hours"] = 3
	req.Uploads[models.SlotIcon] = upload(helpers.PNG(t, 4, 4), "icon.png")

	service, summary, err := svc.Create(context.Background(), f.db, actorOf(alice), req)
	require.NoError(t, err)
	assert.Regexp(t, `^services/icons/`, service.Icon.File)
	assert.True(t, f.fileExists(service.Icon.File))
	assert.Len(t, summary.Actions, 2)
}

func TestOffering_ListActiveFilters(t *testing.T) {
	f := newAssetFixture(t)
	svc := NewOfferingService(f.svc, auth.NewPolicy(), validator.New())
	alice := helpers.CreateUser(t, f.db, "alice@test.com", "alice", "password123")
	bob := helpers.CreateUser(t, f.db, "bob@test.com", "bob", "password123")

	newOffering(t, f, actorOf(alice), "Code review", 50, `["Go","Review"]`)
	newOffering(t, f, actorOf(bob), "Architecture", 300, `["go","design"]`)
	hidden := newOffering(t, f, actorOf(bob), "Mentoring", 80, `["go"]`)
	require.NoError(t, f.db.Model(hidden).Update("is_active", false).Error)

	all, err := svc.ListActive(f.db, dto.ServiceFilter{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Code review", "Architecture"}, titles(all))

	maxPrice := 100.0
	cheap, err := svc.ListActive(f.db, dto.ServiceFilter{MaxPrice: &maxPrice})
	require.NoError(t, err)
	assert.Equal(t, []string{"Code review"}, titles(cheap))

	tagged, err := svc.ListActive(f.db, dto.ServiceFilter{Tag: "DESIGN"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Architecture"}, titles(tagged))

	minPrice := 500.0
	_, err = svc.ListActive(f.db, dto.ServiceFilter{MinPrice: &minPrice, MaxPrice: &maxPrice})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
}

func TestOffering_ToggleActive(t *testing.T) {
	f := newAssetFixture(t)
	ctx := context.Background()
	svc := NewOfferingService(f.svc, auth.NewPolicy(), validator.New())
	alice := helpers.CreateUser(t, f.db, "alice@test.com", "alice", "password123")
	bob := helpers.CreateUser(t, f.db, "bob@test.com", "bob", "password123")
	service := newOffering(t, f, actorOf(alice), "Code review", 50, `[]`)

	toggled, _, err := svc.ToggleActive(ctx, f.db, actorOf(alice), service.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	var stored models.Service
	require.NoError(t, f.db.First(&stored, "id = ?", service.ID).Error)
	assert.False(t, stored.IsActive)

	_, _, err = svc.ToggleActive(ctx, f.db, actorOf(bob), service.ID)
	assert.ErrorIs(t, err, apperrors.ErrAuthorizationDenied)

	toggled, _, err = svc.ToggleActive(ctx, f.db, actorOf(alice), service.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsActive)
}
