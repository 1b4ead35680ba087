package services

import (
	"context"
	"testing"

	"portfolio_backend/internal/auth"
	"portfolio_backend/internal/models"
	"portfolio_backend/internal/repositories"
	"portfolio_backend/internal/services/dto"
	"portfolio_backend/internal/validator"
	"portfolio_backend/pkg/apperrors"
	"portfolio_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdmin_RequiresStaff(t *testing.T) {
	f := newAssetFixture(t)
	admin := NewAdminService(repositories.NewUserRepository(), f.svc)
	alice := helpers.CreateUser(t, f.db, "alice@test.com", "alice", "password123")

	_, err := admin.ListUsers(f.db, actorOf(alice), dto.UserFilter{})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientPermissions)

	_, err = admin.ListUsers(f.db, auth.Actor{}, dto.UserFilter{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}

func TestAdmin_ListUsers(t *testing.T) {
	f := newAssetFixture(t)
	admin := NewAdminService(repositories.NewUserRepository(), f.svc)
	staff := helpers.CreateUser(t, f.db, "admin@test.com", "admin", "password123", helpers.Staff)
	helpers.CreateUser(t, f.db, "alice@test.com", "alice", "password123")
	helpers.CreateUser(t, f.db, "bob@test.com", "bob", "password123")

	page, err := admin.ListUsers(f.db, actorOf(staff), dto.UserFilter{Search: "ALI"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)

	users, ok := page.Items.([]models.User)
	require.True(t, ok)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)

	isStaff := true
	page, err = admin.ListUsers(f.db, actorOf(staff), dto.UserFilter{IsStaff: &isStaff, PageSize: 500})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, 100, page.PageSize)
}

func TestAdmin_ApplyUserAction(t *testing.T) {
	f := newAssetFixture(t)
	ctx := context.Background()
	admin := NewAdminService(repositories.NewUserRepository(), f.svc)
	staff := helpers.CreateUser(t, f.db, "admin@test.com", "admin", "password123", helpers.Staff)
	alice := helpers.CreateUser(t, f.db, "alice@test.com", "alice", "password123")
	bob := helpers.CreateUser(t, f.db, "bob@test.com", "bob", "password123")

	result, err := admin.ApplyUserAction(ctx, f.db, actorOf(staff), &dto.UserActionRequest{
		Action:  dto.UserActionDeactivate,
		UserIDs: []string{alice.ID, bob.ID},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, result.Affected)

	var stored models.User
	require.NoError(t, f.db.First(&stored, "id = ?", alice.ID).Error)
	assert.False(t, stored.IsActive)

	_, err = admin.ApplyUserAction(ctx, f.db, actorOf(staff), &dto.UserActionRequest{
		Action:  dto.UserActionDeactivate,
		UserIDs: []string{alice.ID, staff.ID},
	})
	assert.ErrorIs(t, err, apperrors.ErrCannotModifySelf)

	_, err = admin.ApplyUserAction(ctx, f.db, actorOf(staff), &dto.UserActionRequest{
		Action:  "ban",
		UserIDs: []string{alice.ID},
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
}

func TestAdmin_DeleteUserRemovesRecordsAndFiles(t *testing.T) {
	f := newAssetFixture(t)
	ctx := context.Background()
	admin := NewAdminService(repositories.NewUserRepository(), f.svc)
	staff := helpers.CreateUser(t, f.db, "admin@test.com", "admin", "password123", helpers.Staff)
	alice := helpers.CreateUser(t, f.db, "alice@test.com", "alice", "password123")

	req := dto.NewUpdateRequest()
	req.Uploads[models.SlotProfileImage] = upload(helpers.PNG(t, 4, 4), "me.png")
	_, err := f.svc.Apply(ctx, f.db, alice, req)
	require.NoError(t, err)
	profileFile := alice.ProfileImage.File

	projects := NewProjectService(f.svc, auth.NewPolicy(), validator.New())
	projectReq := dto.NewUpdateRequest()
	projectReq.Fields["title"] = "Portfolio site"
	projectReq.Uploads[models.SlotImage] = upload(helpers.PNG(t, 4, 4), "shot.png")
	project, _, err := projects.Create(ctx, f.db, actorOf(alice), projectReq)
	require.NoError(t, err)
	projectFile := project.Image.File

	skills := NewSkillService(auth.NewPolicy(), validator.New())
	_, err = skills.Create(ctx, f.db, actorOf(alice), dto.SkillPayload{Label: str("Go")})
	require.NoError(t, err)

	require.True(t, f.fileExists(profileFile))
	require.True(t, f.fileExists(projectFile))

	require.NoError(t, admin.DeleteUser(ctx, f.db, actorOf(staff), alice.ID))

	assert.False(t, f.fileExists(profileFile))
	assert.False(t, f.fileExists(projectFile))

	count := func(model any, column, value string) int64 {
		var n int64
		require.NoError(t, f.db.Model(model).Where(column+" = ?", value).Count(&n).Error)
		return n
	}
	assert.Zero(t, count(&models.User{}, "id", alice.ID))
	assert.Zero(t, count(&models.Project{}, "id", project.ID))
	assert.Zero(t, count(&models.Skill{}, "user_id", alice.ID))
	assert.EqualValues(t, 1, count(&models.User{}, "id", staff.ID))
}

func TestAdmin_DeleteUserGuards(t *testing.T) {
	f := newAssetFixture(t)
	ctx := context.Background()
	admin := NewAdminService(repositories.NewUserRepository(), f.svc)
	staff := helpers.CreateUser(t, f.db, "admin@test.com", "admin", "password123", helpers.Staff)
	root := helpers.CreateUser(t, f.db, "root@test.com", "root", "password123", func(u *models.User) {
		u.IsStaff = true
		u.IsSuperuser = true
	})

	assert.ErrorIs(t, admin.DeleteUser(ctx, f.db, actorOf(staff), staff.ID), apperrors.ErrCannotModifySelf)
	assert.ErrorIs(t, admin.DeleteUser(ctx, f.db, actorOf(staff), root.ID), apperrors.ErrInsufficientPermissions)

	err := admin.DeleteUser(ctx, f.db, actorOf(staff), "7f0c1d1e-0000-4000-8000-000000000000")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	require.NoError(t, admin.DeleteUser(ctx, f.db, actorOf(root), staff.ID))
}
