package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"portfolio_backend/internal/assets"
	"portfolio_backend/internal/imageprocessor"
	"portfolio_backend/internal/lock"
	"portfolio_backend/internal/models"
	"portfolio_backend/internal/services/dto"
	"portfolio_backend/internal/storage"
	"portfolio_backend/internal/validator"
	"portfolio_backend/pkg/apperrors"
	"portfolio_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const testSiteURL = "http://testserver"

// flakyStorage - локальное хранилище, которое умеет падать на записи или удалении
type flakyStorage struct {
	storage.Storage

	mu          sync.Mutex
	saves       int
	failSaveAt  int // номер вызова Save (с 1), который вернет ошибку; 0 - никогда
	failDeletes bool
}

func (f *flakyStorage) Save(ctx context.Context, path string, r io.Reader, contentType string) error {
	f.mu.Lock()
	f.saves++
	n := f.saves
	f.mu.Unlock()
	if f.failSaveAt > 0 && n == f.failSaveAt {
		return errors.New("disk full")
	}
	return f.Storage.Save(ctx, path, r, contentType)
}

func (f *flakyStorage) Delete(ctx context.Context, path string) error {
	if f.failDeletes {
		return errors.New("permission denied")
	}
	return f.Storage.Delete(ctx, path)
}

type assetFixture struct {
	db      *gorm.DB
	dir     string
	backend *flakyStorage
	store   *assets.Store
	svc     AssetUpdateService
}

func newAssetFixture(t *testing.T) *assetFixture {
	t.Helper()

	dir := t.TempDir()
	local, err := storage.NewLocalStorage(storage.Config{Type: "local", BasePath: dir})
	require.NoError(t, err)

	backend := &flakyStorage{Storage: local}
	store := assets.NewStore(backend, testSiteURL, "/media/")
	svc := NewAssetUpdateService(
		store,
		imageprocessor.NewValidator(imageprocessor.Options{}),
		lock.NewKeyedMutex(),
		validator.New(),
	)

	return &assetFixture{
		db:      helpers.NewTestDB(t),
		dir:     dir,
		backend: backend,
		store:   store,
		svc:     svc,
	}
}

func (f *assetFixture) fileExists(p string) bool {
	_, err := os.Stat(filepath.Join(f.dir, filepath.FromSlash(p)))
	return err == nil
}

func upload(data []byte, name string) *dto.Upload {
	return &dto.Upload{Filename: name, Size: int64(len(data)), Content: bytes.NewReader(data)}
}

func TestApply_ProfileImageUpload(t *testing.T) {
	f := newAssetFixture(t)
	user := helpers.CreateUser(t, f.db, "alice@test.com", "alice", "password123")

	req := dto.NewUpdateRequest()
	req.Uploads[models.SlotProfileImage] = upload(helpers.PNG(t, 4, 4), "me.png")

	summary, err := f.svc.Apply(context.Background(), f.db, user, req)
	require.NoError(t, err)

	assert.Equal(t, "Profile updated successfully", summary.Message)
	assert.Equal(t, []string{"Profile image updated"}, summary.Actions)

	require.NotEmpty(t, user.ProfileImage.File)
	assert.Regexp(t, `^users/profiles/profile_[a-f0-9-]+_[a-f0-9]{8}\.png$`, user.ProfileImage.File)
	require.NotNil(t, user.ProfileImage.URL)
	assert.Equal(t, testSiteURL+"/media/"+user.ProfileImage.File, *user.ProfileImage.URL)
	assert.True(t, f.fileExists(user.ProfileImage.File))

	var stored models.User
	require.NoError(t, f.db.First(&stored, "id = ?", user.ID).Error)
	assert.Equal(t, user.ProfileImage.File, stored.ProfileImage.File)
	assert.Equal(t, *user.ProfileImage.URL, *stored.ProfileImage.URL)
}

func TestApply_ReplaceRemovesOldFileAfterCommit(t *testing.T) {
	f := newAssetFixture(t)
	user := helpers.CreateUser(t, f.db, "bob@test.com", "bob", "password123")

	first := dto.NewUpdateRequest()
	first.Uploads[models.SlotBanner] = upload(helpers.PNG(t, 4, 4), "banner.png")
	_, err := f.svc.Apply(context.Background(), f.db, user, first)
	require.NoError(t, err)
	oldFile := user.Banner.File

	second := dto.NewUpdateRequest()
	second.Uploads[models.SlotBanner] = upload(helpers.JPEG(t, 4, 4), "banner.jpg")
	summary, err := f.svc.Apply(context.Background(), f.db, user, second)
	require.NoError(t, err)

	assert.Equal(t, []string{"Banner updated"}, summary.Actions)
	assert.NotEqual(t, oldFile, user.Banner.File)
	assert.True(t, f.fileExists(user.Banner.File))
	assert.False(t, f.fileExists(oldFile), "старый файл должен быть удален")
}

func TestApply_DeleteBanner(t *testing.T) {
	f := newAssetFixture(t)
	user := helpers.CreateUser(t, f.db, "carol@test.com", "carol", "password123")

	req := dto.NewUpdateRequest()
	req.Uploads[models.SlotBanner] = upload(helpers.PNG(t, 4, 4), "banner.png")
	_, err := f.svc.Apply(context.Background(), f.db, user, req)
	require.NoError(t, err)
	file := user.Banner.File

	del := dto.NewUpdateRequest()
	del.Deletes[models.SlotBanner] = true
	summary, err := f.svc.Apply(context.Background(), f.db, user, del)
	require.NoError(t, err)

	assert.Equal(t, []string{"Banner deleted"}, summary.Actions)
	assert.Empty(t, user.Banner.File)
	assert.Nil(t, user.Banner.URL)
	assert.False(t, f.fileExists(file))

	// Повторное удаление пустого слота ничего не меняет
	summary, err = f.svc.Apply(context.Background(), f.db, user, del)
	require.NoError(t, err)
	assert.Equal(t, []string{assets.NoChangesAction}, summary.Actions)
}

func TestApply_UploadWinsOverDelete(t *testing.T) {
	f := newAssetFixture(t)
	user := helpers.CreateUser(t, f.db, "dave@test.com", "dave", "password123")

	req := dto.NewUpdateRequest()
	req.Uploads[models.SlotProfileImage] = upload(helpers.PNG(t, 4, 4), "me.png")
	req.Deletes[models.SlotProfileImage] = true

	summary, err := f.svc.Apply(context.Background(), f.db, user, req)
	require.NoError(t, err)
	assert.Equal(t, []string{"Profile image updated"}, summary.Actions)
	assert.NotEmpty(t, user.ProfileImage.File)
}

func TestApply_ActionsOrder(t *testing.T) {
	f := newAssetFixture(t)
	user := helpers.CreateUser(t, f.db, "erin@test.com", "erin", "password123")

	seed := dto.NewUpdateRequest()
	seed.Uploads[models.SlotBanner] = upload(helpers.PNG(t, 4, 4), "banner.png")
	_, err := f.svc.Apply(context.Background(), f.db, user, seed)
	require.NoError(t, err)

	req := dto.NewUpdateRequest()
	req.Fields["first_name"] = "Erin"
	req.Fields["city"] = "Almaty"
	req.Uploads[models.SlotProfileImage] = upload(helpers.PNG(t, 4, 4), "me.png")
	req.Deletes[models.SlotBanner] = true

	summary, err := f.svc.Apply(context.Background(), f.db, user, req)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Profile image updated",
		"Banner deleted",
		"Personal information updated",
	}, summary.Actions)
	assert.Equal(t, "Erin", user.FirstName)
	assert.Equal(t, "Almaty", user.City)
}

func TestApply_UnchangedFieldsReportNoChanges(t *testing.T) {
	f := newAssetFixture(t)
	user := helpers.CreateUser(t, f.db, "frank@test.com", "frank", "password123", func(u *models.User) {
		u.FirstName = "Frank"
	})

	req := dto.NewUpdateRequest()
	req.Fields["first_name"] = "Frank"

	summary, err := f.svc.Apply(context.Background(), f.db, user, req)
	require.NoError(t, err)
	assert.Equal(t, []string{assets.NoChangesAction}, summary.Actions)
}

func TestApply_UnknownFieldRejected(t *testing.T) {
	f := newAssetFixture(t)
	user := helpers.CreateUser(t, f.db, "gina@test.com", "gina", "password123")

	req := dto.NewUpdateRequest()
	req.Fields["is_staff"] = true

	_, err := f.svc.Apply(context.Background(), f.db, user, req)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))

	var stored models.User
	require.NoError(t, f.db.First(&stored, "id = ?", user.ID).Error)
	assert.False(t, stored.IsStaff)
}

func TestApply_InvalidSecondUploadWritesNothing(t *testing.T) {
	f := newAssetFixture(t)
	user := helpers.CreateUser(t, f.db, "hank@test.com", "hank", "password123")

	req := dto.NewUpdateRequest()
	req.Fields["bio"] = "changed"
	req.Uploads[models.SlotProfileImage] = upload(helpers.PNG(t, 4, 4), "me.png")
	req.Uploads[models.SlotBanner] = upload([]byte("definitely not an image"), "banner.png")

	_, err := f.svc.Apply(context.Background(), f.db, user, req)
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInvalidImage, appErr.Code)
	assert.Equal(t, map[string]string{"banner_file": "The uploaded file is not a valid image"}, appErr.Details)

	var stored models.User
	require.NoError(t, f.db.First(&stored, "id = ?", user.ID).Error)
	assert.Empty(t, stored.Bio)
	assert.Empty(t, stored.ProfileImage.File)

	entries, _ := os.ReadDir(filepath.Join(f.dir, "users", "profiles"))
	assert.Empty(t, entries)
}

func TestApply_StorageFailureRollsBack(t *testing.T) {
	f := newAssetFixture(t)
	user := helpers.CreateUser(t, f.db, "ivan@test.com", "ivan", "password123")
	f.backend.failSaveAt = 2

	req := dto.NewUpdateRequest()
	req.Fields["bio"] = "changed"
	req.Uploads[models.SlotProfileImage] = upload(helpers.PNG(t, 4, 4), "me.png")
	req.Uploads[models.SlotBanner] = upload(helpers.PNG(t, 4, 4), "banner.png")

	_, err := f.svc.Apply(context.Background(), f.db, user, req)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeStorageFailure))

	var stored models.User
	require.NoError(t, f.db.First(&stored, "id = ?", user.ID).Error)
	assert.Empty(t, stored.Bio)
	assert.Empty(t, stored.ProfileImage.File)
	assert.Empty(t, stored.Banner.File)

	// Первый файл записан, но после отката удален
	entries, _ := os.ReadDir(filepath.Join(f.dir, "users", "profiles"))
	assert.Empty(t, entries)
}

func TestApply_OldFileRemovalFailureKeepsNewReference(t *testing.T) {
	f := newAssetFixture(t)
	user := helpers.CreateUser(t, f.db, "jane@test.com", "jane", "password123")

	first := dto.NewUpdateRequest()
	first.Uploads[models.SlotProfileImage] = upload(helpers.PNG(t, 4, 4), "a.png")
	_, err := f.svc.Apply(context.Background(), f.db, user, first)
	require.NoError(t, err)
	oldFile := user.ProfileImage.File

	f.backend.failDeletes = true

	second := dto.NewUpdateRequest()
	second.Uploads[models.SlotProfileImage] = upload(helpers.PNG(t, 4, 4), "b.png")
	_, err = f.svc.Apply(context.Background(), f.db, user, second)
	require.NoError(t, err)

	var stored models.User
	require.NoError(t, f.db.First(&stored, "id = ?", user.ID).Error)
	assert.NotEqual(t, oldFile, stored.ProfileImage.File)
	assert.True(t, f.fileExists(stored.ProfileImage.File))
	assert.True(t, f.fileExists(oldFile), "старый файл остается, если удаление не удалось")
}

func TestApply_ExternalURL(t *testing.T) {
	f := newAssetFixture(t)
	user := helpers.CreateUser(t, f.db, "kate@test.com", "kate", "password123")

	req := dto.NewUpdateRequest()
	req.ExternalURLs[models.SlotProfileImage] = "https://cdn.example.com/kate.png"
	summary, err := f.svc.Apply(context.Background(), f.db, user, req)
	require.NoError(t, err)

	assert.Equal(t, []string{"Profile image updated"}, summary.Actions)
	assert.True(t, user.ProfileImage.External)
	assert.Empty(t, user.ProfileImage.File)
	require.NotNil(t, user.ProfileImage.URL)
	assert.Equal(t, "https://cdn.example.com/kate.png", *user.ProfileImage.URL)

	bad := dto.NewUpdateRequest()
	bad.ExternalURLs[models.SlotProfileImage] = "not a url"
	_, err = f.svc.Apply(context.Background(), f.db, user, bad)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
}

func TestApply_DuplicateUsername(t *testing.T) {
	f := newAssetFixture(t)
	helpers.CreateUser(t, f.db, "leo@test.com", "leo", "password123")
	user := helpers.CreateUser(t, f.db, "mia@test.com", "mia", "password123")

	req := dto.NewUpdateRequest()
	req.Fields["username"] = "leo"
	_, err := f.svc.Apply(context.Background(), f.db, user, req)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAlreadyExists))
}

func TestApply_ConcurrentUploadsSameSlot(t *testing.T) {
	f := newAssetFixture(t)
	user := helpers.CreateUser(t, f.db, "nick@test.com", "nick", "password123")
	data := helpers.PNG(t, 4, 4)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			target := &models.User{}
			target.ID = user.ID
			req := dto.NewUpdateRequest()
			req.Uploads[models.SlotProfileImage] = upload(data, "me.png")
			_, err := f.svc.Apply(context.Background(), f.db, target, req)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var stored models.User
	require.NoError(t, f.db.First(&stored, "id = ?", user.ID).Error)
	entries, err := os.ReadDir(filepath.Join(f.dir, "users", "profiles"))
	require.NoError(t, err)
	require.Len(t, entries, 1, "должен остаться только последний файл")
	assert.Equal(t, "users/profiles/"+entries[0].Name(), stored.ProfileImage.File)
}

func TestApply_ProjectImage(t *testing.T) {
	f := newAssetFixture(t)
	owner := helpers.CreateUser(t, f.db, "olga@test.com", "olga", "password123")
	project := &models.Project{Title: "Site"}
	project.UserID = owner.ID
	require.NoError(t, f.db.Create(project).Error)

	req := dto.NewUpdateRequest()
	req.Fields["title"] = "New site"
	req.Uploads[models.SlotImage] = upload(helpers.PNG(t, 4, 4), "shot.PNG")
	summary, err := f.svc.Apply(context.Background(), f.db, project, req)
	require.NoError(t, err)

	assert.Equal(t, []string{"Project image updated", "Project information updated"}, summary.Actions)
	assert.Equal(t, "New site", project.Title)
	assert.Regexp(t, `^projects/images/project_`, project.Image.File)

	// У проекта нет слота banner
	bad := dto.NewUpdateRequest()
	bad.Deletes[models.SlotBanner] = true
	_, err = f.svc.Apply(context.Background(), f.db, project, bad)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
}

func TestApply_JSONFieldComparedByContent(t *testing.T) {
	f := newAssetFixture(t)
	owner := helpers.CreateUser(t, f.db, "pavel@test.com", "pavel", "password123")
	// jsonb в postgres возвращает массив с пробелами после запятых
	project := &models.Project{Title: "Site", Technologies: datatypes.JSON(`[ "Go",  "SQL" ]`)}
	project.UserID = owner.ID
	require.NoError(t, f.db.Create(project).Error)

	req := dto.NewUpdateRequest()
	req.Fields["technologies"] = datatypes.JSON(`["Go","SQL"]`)
	summary, err := f.svc.Apply(context.Background(), f.db, project, req)
	require.NoError(t, err)
	assert.Equal(t, []string{assets.NoChangesAction}, summary.Actions)

	req = dto.NewUpdateRequest()
	req.Fields["technologies"] = datatypes.JSON(`["SQL","Go"]`)
	summary, err = f.svc.Apply(context.Background(), f.db, project, req)
	require.NoError(t, err)
	assert.Equal(t, []string{"Project information updated"}, summary.Actions)
}

func TestDestroy_RemovesFiles(t *testing.T) {
	f := newAssetFixture(t)
	st := &models.SocialType{Label: "GitHub"}
	require.NoError(t, f.db.Create(st).Error)

	req := dto.NewUpdateRequest()
	req.Uploads[models.SlotLogo] = upload(helpers.PNG(t, 4, 4), "gh.png")
	_, err := f.svc.Apply(context.Background(), f.db, st, req)
	require.NoError(t, err)
	file := st.Logo.File
	require.True(t, f.fileExists(file))
	assert.Equal(t, []string{file}, f.svc.Files(st))

	require.NoError(t, f.svc.Destroy(context.Background(), f.db, st))
	assert.False(t, f.fileExists(file))
	assert.True(t, st.Logo.IsEmpty())
	assert.Nil(t, st.Logo.URL)

	var count int64
	f.db.Model(&models.SocialType{}).Count(&count)
	assert.Zero(t, count)
}

func TestResyncURLs(t *testing.T) {
	f := newAssetFixture(t)
	user := helpers.CreateUser(t, f.db, "quinn@test.com", "quinn", "password123")

	req := dto.NewUpdateRequest()
	req.Uploads[models.SlotProfileImage] = upload(helpers.PNG(t, 4, 4), "me.png")
	_, err := f.svc.Apply(context.Background(), f.db, user, req)
	require.NoError(t, err)

	// Смена домена: URL в БД устарели
	moved := assets.NewStore(f.backend, "https://portfolio.example.com", "/media/")
	svc := NewAssetUpdateService(moved, imageprocessor.NewValidator(imageprocessor.Options{}), lock.NewKeyedMutex(), validator.New())

	n, err := svc.ResyncURLs(context.Background(), f.db)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var stored models.User
	require.NoError(t, f.db.First(&stored, "id = ?", user.ID).Error)
	require.NotNil(t, stored.ProfileImage.URL)
	assert.Equal(t, "https://portfolio.example.com/media/"+stored.ProfileImage.File, *stored.ProfileImage.URL)

	n, err = svc.ResyncURLs(context.Background(), f.db)
	require.NoError(t, err)
	assert.Zero(t, n)
}
