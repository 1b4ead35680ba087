package assets

import "portfolio_backend/internal/models"

// SlotSpec описывает один слот изображения: ключи формы, каталог хранения,
// префикс колонок и тексты действий.
type SlotSpec struct {
	Name models.SlotName
	// UploadKey - multipart поле с файлом
	UploadKey string
	// DeleteKey - флаг удаления ("true")
	DeleteKey string
	// URLKey - внешний URL вместо загрузки
	URLKey string
	// Prefix - префикс имени файла
	Prefix string
	// Dir - каталог в хранилище
	Dir string
	// Column - префикс колонок встроенного models.Asset
	Column string

	UpdatedAction string
	DeletedAction string
}

// KindSpec - описание сущности для оркестратора обновлений
type KindSpec struct {
	Kind  models.EntityKind
	Slots []SlotSpec
	// Fields - скалярные колонки, которые можно менять через единый эндпоинт
	Fields []string
	// FieldsAction - текст действия, если изменилось хотя бы одно скалярное поле
	FieldsAction string
	// Message - текст ответа при успешном обновлении
	Message string
	// ResponseKey - ключ сущности в JSON ответе
	ResponseKey string

	CreatedAction  string
	CreatedMessage string
}

// NoChangesAction - единственное действие, если ничего не изменилось
const NoChangesAction = "No changes"

var kinds = map[models.EntityKind]KindSpec{
	models.KindUser: {
		Kind: models.KindUser,
		Slots: []SlotSpec{
			{
				Name:          models.SlotProfileImage,
				UploadKey:     "profile_image_file",
				DeleteKey:     "delete_profile_image",
				URLKey:        "profile_image_url",
				Prefix:        "profile",
				Dir:           "users/profiles",
				Column:        "profile_image_",
				UpdatedAction: "Profile image updated",
				DeletedAction: "Profile image deleted",
			},
			{
				Name:          models.SlotBanner,
				UploadKey:     "banner_file",
				DeleteKey:     "delete_banner",
				URLKey:        "banner_url",
				Prefix:        "banner",
				Dir:           "users/banners",
				Column:        "banner_",
				UpdatedAction: "Banner updated",
				DeletedAction: "Banner deleted",
			},
		},
		Fields: []string{
			"first_name", "last_name", "username", "bio",
			"country", "city", "postal_code", "street", "house_number", "phone_number",
		},
		FieldsAction: "Personal information updated",
		Message:      "Profile updated successfully",
		ResponseKey:  "user",
	},
	models.KindProject: {
		Kind: models.KindProject,
		Slots: []SlotSpec{
			{
				Name:          models.SlotImage,
				UploadKey:     "image_file",
				DeleteKey:     "delete_image",
				URLKey:        "image_url",
				Prefix:        "project",
				Dir:           "projects/images",
				Column:        "image_",
				UpdatedAction: "Project image updated",
				DeletedAction: "Project image deleted",
			},
		},
		Fields:         []string{"title", "description", "technologies", "demo_url", "github_url"},
		FieldsAction:   "Project information updated",
		Message:        "Project updated successfully",
		CreatedAction:  "Project created",
		CreatedMessage: "Project created successfully",
		ResponseKey:    "project",
	},
	models.KindService: {
		Kind: models.KindService,
		Slots: []SlotSpec{
			{
				Name:          models.SlotIcon,
				UploadKey:     "icon_file",
				DeleteKey:     "delete_icon",
				URLKey:        "icon_url",
				Prefix:        "service",
				Dir:           "services/icons",
				Column:        "icon_",
				UpdatedAction: "Service icon updated",
				DeletedAction: "Service icon deleted",
			},
		},
		Fields:         []string{"title", "description", "price", "duration_hours", "is_active", "tags"},
		FieldsAction:   "Service information updated",
		Message:        "Service updated successfully",
		CreatedAction:  "Service created",
		CreatedMessage: "Service created successfully",
		ResponseKey:    "service",
	},
	models.KindSocialType: {
		Kind: models.KindSocialType,
		Slots: []SlotSpec{
			{
				Name:          models.SlotLogo,
				UploadKey:     "logo_file",
				DeleteKey:     "delete_logo",
				URLKey:        "logo_url",
				Prefix:        "social_type",
				Dir:           "social_types/logos",
				Column:        "logo_",
				UpdatedAction: "Logo updated",
				DeletedAction: "Logo deleted",
			},
		},
		Fields:         []string{"label"},
		FieldsAction:   "Social type information updated",
		Message:        "Social type updated successfully",
		CreatedAction:  "Social type created",
		CreatedMessage: "Social type created successfully",
		ResponseKey:    "social_type",
	},
}

// Lookup возвращает описание сущности со слотами
func Lookup(kind models.EntityKind) (KindSpec, bool) {
	spec, ok := kinds[kind]
	return spec, ok
}

// Kinds возвращает все сущности со слотами (для пересчета URL)
func Kinds() []KindSpec {
	order := []models.EntityKind{models.KindUser, models.KindProject, models.KindService, models.KindSocialType}
	out := make([]KindSpec, 0, len(order))
	for _, k := range order {
		out = append(out, kinds[k])
	}
	return out
}

func (k KindSpec) Slot(name models.SlotName) (SlotSpec, bool) {
	for _, s := range k.Slots {
		if s.Name == name {
			return s, true
		}
	}
	return SlotSpec{}, false
}

func (k KindSpec) AcceptsField(column string) bool {
	for _, f := range k.Fields {
		if f == column {
			return true
		}
	}
	return false
}
