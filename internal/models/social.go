package models

import "encoding/json"

// SocialType - общий справочник социальных сетей (управляется staff)
type SocialType struct {
	BaseModel
	Label string `gorm:"size:100;uniqueIndex;not null" json:"label" validate:"required,max=100"`
	Logo  Asset  `gorm:"embedded;embeddedPrefix:logo_" json:"-"`
}

func (s *SocialType) EntityKind() EntityKind { return KindSocialType }

// OwnerKey - у справочника нет владельца, в имени файла используется его id
func (s *SocialType) OwnerKey() string { return s.ID }

func (s *SocialType) AssetSlot(name SlotName) *Asset {
	if name == SlotLogo {
		return &s.Logo
	}
	return nil
}

func (s SocialType) MarshalJSON() ([]byte, error) {
	type alias SocialType
	return json.Marshal(struct {
		alias
		LogoRef      *string `json:"logo"`
		LogoURL      *string `json:"logo_url"`
		LogoExternal bool    `json:"logo_external"`
	}{
		alias:        alias(s),
		LogoRef:      s.Logo.Ref(),
		LogoURL:      s.Logo.URL,
		LogoExternal: s.Logo.External,
	})
}

type Social struct {
	OwnedBase
	SocialTypeID string      `gorm:"type:varchar(36);not null;index" json:"social_type_id" validate:"required"`
	Link         string      `gorm:"size:500;not null" json:"link" validate:"required,url"`
	SocialType   *SocialType `gorm:"foreignKey:SocialTypeID" json:"social_type,omitempty" validate:"-"`
}

func (s *Social) EntityKind() EntityKind { return KindSocial }
