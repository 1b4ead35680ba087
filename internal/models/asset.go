package models

// SlotName - имя слота изображения внутри сущности
type SlotName string

const (
	SlotProfileImage SlotName = "profile_image"
	SlotBanner       SlotName = "banner"
	SlotImage        SlotName = "image"
	SlotIcon         SlotName = "icon"
	SlotLogo         SlotName = "logo"
)

// Asset - слот изображения. Встраивается в сущность с префиксом колонок.
//
// File - относительный путь в хранилище (пусто, если файла нет).
// URL - производный публичный URL, либо внешний URL, если External.
type Asset struct {
	File     string  `gorm:"column:file;size:255" json:"file,omitempty"`
	URL      *string `gorm:"column:url;size:500" json:"url"`
	External bool    `gorm:"column:external" json:"external,omitempty"`
}

// Ref - сохраненный путь для ответа (nil, если файла нет)
func (a Asset) Ref() *string {
	if a.File == "" {
		return nil
	}
	f := a.File
	return &f
}

// IsEmpty - в слоте нет ни файла, ни внешнего URL
func (a Asset) IsEmpty() bool {
	return a.File == "" && !a.External
}

// Columns возвращает значения колонок слота для единого UPDATE
func (a Asset) Columns(prefix string) map[string]any {
	return map[string]any{
		prefix + "file":     a.File,
		prefix + "url":      a.URL,
		prefix + "external": a.External,
	}
}

// AssetEntity - сущность с одним или несколькими слотами изображений
type AssetEntity interface {
	GetID() string
	EntityKind() EntityKind
	// OwnerKey - идентификатор владельца, используемый в именах файлов
	OwnerKey() string
	// AssetSlot возвращает указатель на слот или nil, если у сущности нет такого слота
	AssetSlot(name SlotName) *Asset
}
