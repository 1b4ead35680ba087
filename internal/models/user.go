package models

import (
	"encoding/json"
	"strings"
	"time"
)

type User struct {
	BaseModel
	Email        string `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Username     string `gorm:"size:150;uniqueIndex;not null" json:"username"`
	PasswordHash string `gorm:"not null" json:"-"`
	FirstName    string `gorm:"size:150" json:"first_name"`
	LastName     string `gorm:"size:150" json:"last_name"`
	Bio          string `gorm:"type:text" json:"bio"`

	// Слоты сериализуются плоско в MarshalJSON
	ProfileImage Asset `gorm:"embedded;embeddedPrefix:profile_image_" json:"-"`
	Banner       Asset `gorm:"embedded;embeddedPrefix:banner_" json:"-"`

	Country     string `gorm:"size:100" json:"country"`
	City        string `gorm:"size:100" json:"city"`
	PostalCode  string `gorm:"size:20" json:"postal_code"`
	Street      string `gorm:"size:255" json:"street"`
	HouseNumber string `gorm:"size:20" json:"house_number"`
	PhoneNumber string `gorm:"size:30" json:"phone_number"`

	IsVerified  bool       `json:"is_verified"`
	IsActive    bool       `json:"is_active"`
	IsStaff     bool       `json:"is_staff"`
	IsSuperuser bool       `json:"is_superuser"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
}

func (u *User) EntityKind() EntityKind { return KindUser }

func (u *User) OwnerKey() string { return u.ID }

func (u *User) GetOwnerID() string { return u.ID }

// SetOwnerID - пользователь всегда владеет собой
func (u *User) SetOwnerID(string) {}

func (u *User) AssetSlot(name SlotName) *Asset {
	switch name {
	case SlotProfileImage:
		return &u.ProfileImage
	case SlotBanner:
		return &u.Banner
	}
	return nil
}

// IsPrivileged - staff или superuser
func (u *User) IsPrivileged() bool {
	return u.IsStaff || u.IsSuperuser
}

// FullName - имя и фамилия, либо username, если оба пусты
func (u *User) FullName() string {
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	return u.Username
}

// FullAddress собирает непустые части в порядке: дом, улица, индекс, город, страна
func (u *User) FullAddress() string {
	var parts []string
	for _, part := range []string{u.HouseNumber, u.Street, u.PostalCode, u.City, u.Country} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ", ")
}

func (u User) MarshalJSON() ([]byte, error) {
	type alias User
	return json.Marshal(struct {
		alias
		ProfileImageRef      *string `json:"profile_image"`
		ProfileImageURL      *string `json:"profile_image_url"`
		ProfileImageExternal bool    `json:"profile_image_external"`
		BannerRef            *string `json:"banner"`
		BannerURL            *string `json:"banner_url"`
		BannerExternal       bool    `json:"banner_external"`
		FullName             string  `json:"full_name"`
		FullAddress          string  `json:"full_address"`
	}{
		alias:                alias(u),
		ProfileImageRef:      u.ProfileImage.Ref(),
		ProfileImageURL:      u.ProfileImage.URL,
		ProfileImageExternal: u.ProfileImage.External,
		BannerRef:            u.Banner.Ref(),
		BannerURL:            u.Banner.URL,
		BannerExternal:       u.Banner.External,
		FullName:             u.FullName(),
		FullAddress:          u.FullAddress(),
	})
}
