package services

import (
	"context"
	"testing"

	"portfolio_backend/internal/auth"
	"portfolio_backend/internal/email"
	"portfolio_backend/internal/models"
	"portfolio_backend/internal/repositories"
	"portfolio_backend/internal/services/dto"
	"portfolio_backend/internal/validator"
	"portfolio_backend/pkg/apperrors"
	"portfolio_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func str(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func actorOf(u *models.User) auth.Actor {
	return auth.Actor{ID: u.ID, IsStaff: u.IsStaff, IsSuperuser: u.IsSuperuser}
}

func TestEducation_CreateAndUpdate(t *testing.T) {
	db := helpers.NewTestDB(t)
	ctx := context.Background()
	svc := NewEducationService(auth.NewPolicy(), validator.New())
	alice := helpers.CreateUser(t, db, "alice@test.com", "alice", "password123")

	created, err := svc.Create(ctx, db, actorOf(alice), dto.EducationPayload{
		School:    str("MIT"),
		StartDate: str("2018-09-01"),
		EndDate:   str("2022-06-30"),
	})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, created.UserID)
	assert.Equal(t, "MIT", created.School)
	require.NotNil(t, created.EndDate)

	// пустая end_date очищает дату, остальные поля не трогаются
	updated, err := svc.Update(ctx, db, actorOf(alice), created.ID, dto.EducationPayload{EndDate: str("")})
	require.NoError(t, err)
	assert.Nil(t, updated.EndDate)
	assert.Equal(t, "MIT", updated.School)

	mine, err := svc.Mine(db, actorOf(alice))
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestEducation_Validation(t *testing.T) {
	db := helpers.NewTestDB(t)
	ctx := context.Background()
	svc := NewEducationService(auth.NewPolicy(), validator.New())
	alice := helpers.CreateUser(t, db, "alice@test.com", "alice", "password123")

	_, err := svc.Create(ctx, db, actorOf(alice), dto.EducationPayload{StartDate: str("2018-09-01")})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed), "school обязателен")

	_, err = svc.Create(ctx, db, actorOf(alice), dto.EducationPayload{
		School:    str("MIT"),
		StartDate: str("2018-09-01"),
		EndDate:   str("2017-01-01"),
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed), "end_date раньше start_date")

	_, err = svc.Create(ctx, db, actorOf(alice), dto.EducationPayload{School: str("MIT"), StartDate: str("01.09.2018")})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
}

func TestEducation_OwnershipRules(t *testing.T) {
	db := helpers.NewTestDB(t)
	ctx := context.Background()
	svc := NewEducationService(auth.NewPolicy(), validator.New())
	alice := helpers.CreateUser(t, db, "alice@test.com", "alice", "password123")
	bob := helpers.CreateUser(t, db, "bob@test.com", "bob", "password123")
	admin := helpers.CreateUser(t, db, "admin@test.com", "admin", "password123", helpers.Staff)

	created, err := svc.Create(ctx, db, actorOf(alice), dto.EducationPayload{School: str("MIT"), StartDate: str("2018-09-01")})
	require.NoError(t, err)

	_, err = svc.Update(ctx, db, actorOf(bob), created.ID, dto.EducationPayload{School: str("Hacked")})
	assert.ErrorIs(t, err, apperrors.ErrAuthorizationDenied)

	_, err = svc.Update(ctx, db, auth.Actor{}, created.ID, dto.EducationPayload{School: str("Hacked")})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	// чтение публичное
	got, err := svc.Get(db, auth.Actor{}, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "MIT", got.School)

	byUser, err := svc.ByUser(db, actorOf(bob), alice.ID)
	require.NoError(t, err)
	assert.Len(t, byUser, 1)

	// list: обычный пользователь видит только свои записи, staff все
	list, err := svc.List(db, actorOf(bob))
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = svc.List(db, actorOf(admin))
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, db, actorOf(admin), created.ID))
	_, err = svc.Get(db, actorOf(alice), created.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestSettings_OnePerUser(t *testing.T) {
	db := helpers.NewTestDB(t)
	ctx := context.Background()
	svc := NewSettingsService(auth.NewPolicy(), validator.New())
	alice := helpers.CreateUser(t, db, "alice@test.com", "alice", "password123")

	_, err := svc.Create(ctx, db, actorOf(alice), dto.SettingsPayload{Color: str("#ff0000")})
	require.NoError(t, err)

	_, err = svc.Create(ctx, db, actorOf(alice), dto.SettingsPayload{Color: str("#00ff00")})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAlreadyExists))

	_, err = svc.Create(ctx, db, actorOf(alice), dto.SettingsPayload{Color: str("red")})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
}

func TestSocial_RequiresExistingSocialType(t *testing.T) {
	db := helpers.NewTestDB(t)
	ctx := context.Background()
	svc := NewSocialService(auth.NewPolicy(), validator.New())
	alice := helpers.CreateUser(t, db, "alice@test.com", "alice", "password123")

	_, err := svc.Create(ctx, db, actorOf(alice), dto.SocialPayload{
		SocialTypeID: str("7f0c1d1e-0000-4000-8000-000000000000"),
		Link:         str("https://github.com/alice"),
	})
	require.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))

	github := &models.SocialType{Label: "GitHub"}
	require.NoError(t, db.Create(github).Error)

	social, err := svc.Create(ctx, db, actorOf(alice), dto.SocialPayload{
		SocialTypeID: str(github.ID),
		Link:         str("https://github.com/alice"),
	})
	require.NoError(t, err)
	require.NotNil(t, social.SocialType)
	assert.Equal(t, "GitHub", social.SocialType.Label)
}

func TestCategory_SharedKindIsStaffManaged(t *testing.T) {
	db := helpers.NewTestDB(t)
	ctx := context.Background()
	svc := NewCategoryService(auth.NewPolicy(), validator.New())
	alice := helpers.CreateUser(t, db, "alice@test.com", "alice", "password123")
	admin := helpers.CreateUser(t, db, "admin@test.com", "admin", "password123", helpers.Staff)

	_, err := svc.Create(ctx, db, actorOf(alice), dto.CategoryPayload{Name: str("Go")})
	assert.ErrorIs(t, err, apperrors.ErrAuthorizationDenied)

	_, err = svc.Create(ctx, db, actorOf(admin), dto.CategoryPayload{Name: str("Go")})
	require.NoError(t, err)
	_, err = svc.Create(ctx, db, actorOf(admin), dto.CategoryPayload{Name: str("Databases")})
	require.NoError(t, err)

	// справочник виден любому вошедшему пользователю целиком
	list, err := svc.List(db, actorOf(alice))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Databases", list[0].Name)

	_, err = svc.List(db, auth.Actor{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}

func TestArticle_UnpublishedHiddenFromOthers(t *testing.T) {
	db := helpers.NewTestDB(t)
	ctx := context.Background()
	svc := NewArticleService(auth.NewPolicy(), validator.New())
	alice := helpers.CreateUser(t, db, "alice@test.com", "alice", "password123")
	bob := helpers.CreateUser(t, db, "bob@test.com", "bob", "password123")

	category := &models.Category{Name: "Go"}
	require.NoError(t, db.Create(category).Error)

	draft, err := svc.Create(ctx, db, actorOf(alice), dto.ArticlePayload{
		Title:      str("Generics in practice"),
		CategoryID: str(category.ID),
	})
	require.NoError(t, err)
	assert.False(t, draft.IsPublished)
	assert.Nil(t, draft.PublishedAt)
	require.NotNil(t, draft.Category)
	assert.Equal(t, "Go", draft.Category.Name)

	_, err = svc.Get(db, actorOf(bob), draft.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	items, err := svc.ByUser(db, actorOf(bob), alice.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	own, err := svc.Get(db, actorOf(alice), draft.ID)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, own.ID)

	published, err := svc.Update(ctx, db, actorOf(alice), draft.ID, dto.ArticlePayload{IsPublished: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, published.IsPublished)
	assert.NotNil(t, published.PublishedAt)

	items, err = svc.ByUser(db, auth.Actor{}, alice.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestArticle_UnknownCategory(t *testing.T) {
	db := helpers.NewTestDB(t)
	svc := NewArticleService(auth.NewPolicy(), validator.New())
	alice := helpers.CreateUser(t, db, "alice@test.com", "alice", "password123")

	_, err := svc.Create(context.Background(), db, actorOf(alice), dto.ArticlePayload{
		Title:      str("Orphan"),
		CategoryID: str("7f0c1d1e-0000-4000-8000-000000000000"),
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))

	// пустая категория сбрасывается в NULL
	article, err := svc.Create(context.Background(), db, actorOf(alice), dto.ArticlePayload{
		Title:      str("No category"),
		CategoryID: str(""),
	})
	require.NoError(t, err)
	assert.Nil(t, article.CategoryID)
}

func newContactService(t *testing.T) (*ContactService, *email.RecordingProvider) {
	t.Helper()
	mailer := email.NewRecordingProvider(email.NewTemplateManager())
	svc := NewContactService(auth.NewPolicy(), validator.New(), repositories.NewUserRepository(), mailer)
	return svc, mailer
}

func contactPayload(recipient string) dto.ContactPayload {
	return dto.ContactPayload{
		UserID:  str(recipient),
		Name:    str("Visitor"),
		Email:   str("visitor@example.com"),
		Message: str("Hi! Let's work together."),
	}
}

func TestContact_AnonymousCreateNotifiesRecipient(t *testing.T) {
	db := helpers.NewTestDB(t)
	ctx := context.Background()
	svc, mailer := newContactService(t)
	alice := helpers.CreateUser(t, db, "alice@test.com", "alice", "password123")

	contact, err := svc.Create(ctx, db, auth.Actor{}, contactPayload(alice.ID))
	require.NoError(t, err)
	assert.Equal(t, alice.ID, contact.UserID)
	assert.False(t, contact.Read)

	sent := mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"alice@test.com"}, sent[0].To)
	assert.Contains(t, sent[0].HTMLBody, "Let&#39;s work together.")
}

func TestContact_RecipientRequired(t *testing.T) {
	db := helpers.NewTestDB(t)
	ctx := context.Background()
	svc, mailer := newContactService(t)
	inactive := helpers.CreateUser(t, db, "gone@test.com", "gone", "password123", func(u *models.User) {
		u.IsActive = false
	})

	payload := contactPayload("")
	_, err := svc.Create(ctx, db, auth.Actor{}, payload)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))

	_, err = svc.Create(ctx, db, auth.Actor{}, contactPayload(inactive.ID))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))

	assert.Empty(t, mailer.Sent())
}

func TestContact_ReadAccessAndMarkRead(t *testing.T) {
	db := helpers.NewTestDB(t)
	ctx := context.Background()
	svc, _ := newContactService(t)
	alice := helpers.CreateUser(t, db, "alice@test.com", "alice", "password123")
	bob := helpers.CreateUser(t, db, "bob@test.com", "bob", "password123")

	contact, err := svc.Create(ctx, db, actorOf(bob), contactPayload(alice.ID))
	require.NoError(t, err)

	_, err = svc.Get(db, actorOf(bob), contact.ID)
	assert.ErrorIs(t, err, apperrors.ErrAuthorizationDenied, "отправитель не видит сообщение")

	_, err = svc.Get(db, auth.Actor{}, contact.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	_, err = svc.MarkRead(ctx, db, actorOf(bob), contact.ID)
	assert.ErrorIs(t, err, apperrors.ErrAuthorizationDenied)

	read, err := svc.MarkRead(ctx, db, actorOf(alice), contact.ID)
	require.NoError(t, err)
	assert.True(t, read.Read)

	// получатель не меняется при обновлении
	other := helpers.CreateUser(t, db, "carol@test.com", "carol", "password123")
	updated, err := svc.Update(ctx, db, actorOf(alice), contact.ID, dto.ContactPayload{UserID: str(other.ID)})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, updated.UserID)
	assert.True(t, updated.Read)
}
