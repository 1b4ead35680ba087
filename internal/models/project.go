package models

import (
	"encoding/json"
	"strings"

	"gorm.io/datatypes"
)

type Project struct {
	OwnedBase
	Title        string         `gorm:"size:200;not null" json:"title" validate:"required,max=200"`
	Description  string         `gorm:"type:text" json:"description"`
	Image        Asset          `gorm:"embedded;embeddedPrefix:image_" json:"-"`
	Technologies datatypes.JSON `json:"technologies"`
	DemoURL      string         `gorm:"size:500" json:"demo_url" validate:"omitempty,url"`
	GithubURL    string         `gorm:"size:500" json:"github_url" validate:"omitempty,url"`
}

func (p *Project) EntityKind() EntityKind { return KindProject }

func (p *Project) OwnerKey() string { return p.UserID }

func (p *Project) AssetSlot(name SlotName) *Asset {
	if name == SlotImage {
		return &p.Image
	}
	return nil
}

// TechnologiesString - технологии через запятую
func (p *Project) TechnologiesString() string {
	return strings.Join(StringList(p.Technologies), ", ")
}

func (p Project) MarshalJSON() ([]byte, error) {
	type alias Project
	return json.Marshal(struct {
		alias
		ImageRef           *string `json:"image"`
		ImageURL           *string `json:"image_url"`
		ImageExternal      bool    `json:"image_external"`
		TechnologiesString string  `json:"technologies_string"`
	}{
		alias:              alias(p),
		ImageRef:           p.Image.Ref(),
		ImageURL:           p.Image.URL,
		ImageExternal:      p.Image.External,
		TechnologiesString: p.TechnologiesString(),
	})
}

// StringList декодирует JSON массив строк; некорректное значение дает пустой список
func StringList(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}
