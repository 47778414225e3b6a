// internal/models/booking.go
package models

import (
	"crypto/rand"
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingPendingPayment BookingStatus = "pending_payment" // waiting for checkout
	BookingPaid           BookingStatus = "paid"            // gateway confirmed
	BookingCompleted      BookingStatus = "completed"       // freelancer delivered
	BookingCancelled      BookingStatus = "cancelled"
)

type Booking struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code         string    `gorm:"unique;size:10" json:"code"` // e.g. L9POKTVJ
	ClientID     uuid.UUID `gorm:"type:uuid;index" json:"client_id"`
	FreelancerID uuid.UUID `gorm:"type:uuid;index" json:"freelancer_id"`
	SubmissionID uuid.UUID `gorm:"type:uuid;index" json:"submission_id"`

	ServiceID   uuid.UUID `gorm:"type:uuid" json:"service_id"`
	ServiceName string    `json:"service_name"`
	Level       string    `json:"level"`
	Amount      int64     `json:"amount"`

	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	Note        string     `gorm:"type:text" json:"note"`

	Status BookingStatus `gorm:"type:varchar(20);default:'pending_payment';index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Client     *User `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Freelancer *User `gorm:"foreignKey:FreelancerID" json:"freelancer,omitempty"`
}

// GenerateBookingCode returns a random 8 character upper-case code.
func GenerateBookingCode() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = letters[int(b[i])%len(letters)]
	}
	return string(b)
}
