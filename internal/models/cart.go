package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type CartItem struct {
	SubmissionID uuid.UUID `json:"submission_id"`
	ServiceID    uuid.UUID `json:"service_id"`
	ServiceName  string    `json:"service_name"`
	Level        string    `json:"level"`
	Price        string    `json:"price"`
	AddedAt      time.Time `json:"added_at"`
}

type WishlistItem struct {
	SubmissionID uuid.UUID `json:"submission_id"`
	AddedAt      time.Time `json:"added_at"`
}

// Cart holds a user's cart and wishlist as one document.
type Cart struct {
	ID       uuid.UUID                         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID   uuid.UUID                         `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Items    datatypes.JSONSlice[CartItem]     `json:"items"`
	Wishlist datatypes.JSONSlice[WishlistItem] `json:"wishlist"`
	Version  int64                             `gorm:"not null;default:1" json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
