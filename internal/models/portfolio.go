package models

import "time"

type Education struct {
	OwnedBase
	School      string     `gorm:"size:200;not null" json:"school" validate:"required,max=200"`
	StartDate   time.Time  `gorm:"not null" json:"start_date" validate:"required"`
	EndDate     *time.Time `json:"end_date" validate:"omitempty,gtefield=StartDate"`
	Description string     `gorm:"type:text" json:"description"`
}

func (e *Education) EntityKind() EntityKind { return KindEducation }

type Experience struct {
	OwnedBase
	Company     string     `gorm:"size:200;not null" json:"company" validate:"required,max=200"`
	Title       string     `gorm:"size:200;not null" json:"title" validate:"required,max=200"`
	StartDate   time.Time  `gorm:"not null" json:"start_date" validate:"required"`
	EndDate     *time.Time `json:"end_date" validate:"omitempty,gtefield=StartDate"`
	Description string     `gorm:"type:text" json:"description"`
}

func (e *Experience) EntityKind() EntityKind { return KindExperience }

type Skill struct {
	OwnedBase
	Label string `gorm:"size:100;not null" json:"label" validate:"required,max=100"`
}

func (s *Skill) EntityKind() EntityKind { return KindSkill }
