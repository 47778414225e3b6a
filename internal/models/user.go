package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleClient     Role = "client"
	RoleFreelancer Role = "freelancer"
	RoleAdmin      Role = "admin"
)

type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

// internal/models/user.go
type User struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	// nil until assigned; postgres allows many NULLs under a unique index
	Handle *string `gorm:"type:varchar(20);uniqueIndex" json:"handle"`
	Name   string  `gorm:"not null" json:"name"`
	Email  string  `gorm:"uniqueIndex;not null" json:"email"`

	Password     string `gorm:"not null" json:"-"`
	Role         Role   `gorm:"type:varchar(20);not null;index" json:"role"`
	Profession   string `gorm:"type:varchar(120)" json:"profession"`
	ProfileImage string `gorm:"type:text" json:"profile_image"`

	Points   int  `gorm:"not null;default:0" json:"points"`
	Tier     Tier `gorm:"type:varchar(20);not null;default:'bronze'" json:"tier"`
	IsActive bool `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) HandleString() string {
	if u.Handle == nil {
		return ""
	}
	return *u.Handle
}
