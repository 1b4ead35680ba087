package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/datatypes"
)

type Service struct {
	OwnedBase
	Title         string         `gorm:"size:200;not null" json:"title" validate:"required,max=200"`
	Description   string         `gorm:"type:text" json:"description"`
	Icon          Asset          `gorm:"embedded;embeddedPrefix:icon_" json:"-"`
	Price         float64        `gorm:"type:decimal(10,2);not null" json:"price" validate:"gte=0"`
	DurationHours int            `gorm:"not null" json:"duration_hours" validate:"gt=0"`
	IsActive      bool           `gorm:"index" json:"is_active"`
	Tags          datatypes.JSON `json:"tags"`
}

func (s *Service) EntityKind() EntityKind { return KindService }

func (s *Service) OwnerKey() string { return s.UserID }

func (s *Service) AssetSlot(name SlotName) *Asset {
	if name == SlotIcon {
		return &s.Icon
	}
	return nil
}

func (s *Service) TagsString() string {
	return strings.Join(StringList(s.Tags), ", ")
}

// PriceDisplay - цена с валютой; нулевая цена - по запросу
func (s *Service) PriceDisplay() string {
	if s.Price == 0 {
		return "Price on request"
	}
	return fmt.Sprintf("%.2f€", s.Price)
}

// DurationDisplay - "1 hour", "5 hours", "2 days", "1 day and 3 hours"
func (s *Service) DurationDisplay() string {
	h := s.DurationHours
	switch {
	case h <= 0:
		return "Duration not specified"
	case h < 24:
		return plural(h, "hour")
	case h%24 == 0:
		return plural(h/24, "day")
	default:
		return plural(h/24, "day") + " and " + plural(h%24, "hour")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func (s Service) MarshalJSON() ([]byte, error) {
	type alias Service
	return json.Marshal(struct {
		alias
		IconRef         *string `json:"icon"`
		IconURL         *string `json:"icon_url"`
		IconExternal    bool    `json:"icon_external"`
		TagsString      string  `json:"tags_string"`
		PriceDisplay    string  `json:"price_display"`
		DurationDisplay string  `json:"duration_display"`
	}{
		alias:           alias(s),
		IconRef:         s.Icon.Ref(),
		IconURL:         s.Icon.URL,
		IconExternal:    s.Icon.External,
		TagsString:      s.TagsString(),
		PriceDisplay:    s.PriceDisplay(),
		DurationDisplay: s.DurationDisplay(),
	})
}
