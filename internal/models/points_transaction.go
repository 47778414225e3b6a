package models

import (
	"time"

	"github.com/google/uuid"
)

type PointsTransaction struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	Amount      int        `gorm:"not null" json:"amount"`
	Reason      string     `gorm:"type:text" json:"reason"`
	ReferenceID *uuid.UUID `gorm:"type:uuid;index" json:"reference_id,omitempty"` // booking id
	CreatedAt   time.Time  `json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}
