// internal/models/portfolio.go
package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type PortfolioStatus string

const (
	PortfolioPending  PortfolioStatus = "pending"
	PortfolioApproved PortfolioStatus = "approved"
	PortfolioRejected PortfolioStatus = "rejected"
)

func (s PortfolioStatus) Valid() bool {
	switch s {
	case PortfolioPending, PortfolioApproved, PortfolioRejected:
		return true
	}
	return false
}

type Pricing struct {
	Level     string `json:"level"`
	Price     string `json:"price"` // free text, e.g. "150000" or "Rp 150.000"
	TimeFrame string `json:"time_frame"`
}

type Video struct {
	ID        uuid.UUID `json:"id"`
	URL       string    `json:"url"`
	Thumbnail string    `json:"thumbnail"`
	CreatedAt time.Time `json:"created_at"`
}

type Service struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Pricing     []Pricing `json:"pricing"`
	Videos      []Video   `json:"videos"`
}

// Slugify lower-cases name and joins its words with "-".
// "Logo Design", "logo  design" and " LOGO design" all map to "logo-design".
func Slugify(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

// FindService returns the index of the service matching key: a service id
// first, then the first service whose slug equals the slug of key. -1 when
// nothing matches.
func FindService(services []Service, key string) int {
	key = strings.TrimSpace(key)
	if id, err := uuid.Parse(key); err == nil {
		for i, svc := range services {
			if svc.ID == id {
				return i
			}
		}
	}
	slug := Slugify(key)
	if slug == "" {
		return -1
	}
	for i, svc := range services {
		if svc.Slug == slug || Slugify(svc.Name) == slug {
			return i
		}
	}
	return -1
}

func (s Service) clone() Service {
	out := s
	out.Pricing = append([]Pricing{}, s.Pricing...)
	out.Videos = append([]Video{}, s.Videos...)
	return out
}

type PortfolioSubmission struct {
	ID     uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID *uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"user_id"` // nil for anonymous submissions

	Name       string `gorm:"type:varchar(120)" json:"name"`
	Email      string `gorm:"type:varchar(150);index" json:"email"`
	Profession string `gorm:"type:varchar(120)" json:"profession"`
	// superseded by Profession, only read by the headline migration
	LegacyHeadline string `gorm:"column:headline;type:varchar(120)" json:"-"`

	About         string `gorm:"type:text" json:"about"`
	PortfolioLink string `gorm:"type:text" json:"portfolio_link"`
	ResumePath    string `gorm:"type:text" json:"resume_path"`
	ProfileImage  string `gorm:"type:text" json:"profile_image"`
	CoverImage    string `gorm:"type:text" json:"cover_image"`

	Status   PortfolioStatus             `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Services datatypes.JSONSlice[Service] `json:"services"`

	Version int64 `gorm:"not null;default:1" json:"version"`

	SubmittedDate time.Time `gorm:"index" json:"submitted_date"`
	UpdatedDate   time.Time `json:"updated_date"`
	CreatedAt     time.Time `json:"created_at"`
}

// Clone returns a deep copy, embedded arrays included.
func (p *PortfolioSubmission) Clone() *PortfolioSubmission {
	out := *p
	if p.UserID != nil {
		id := *p.UserID
		out.UserID = &id
	}
	out.Services = make(datatypes.JSONSlice[Service], 0, len(p.Services))
	for _, s := range p.Services {
		out.Services = append(out.Services, s.clone())
	}
	return &out
}

func (p *PortfolioSubmission) IsOwnedBy(userID uuid.UUID) bool {
	return p.UserID != nil && *p.UserID == userID
}

// MarshalJSON never emits null arrays and exposes "headline" as an alias of profession.
func (p PortfolioSubmission) MarshalJSON() ([]byte, error) {
	type alias PortfolioSubmission

	services := make([]Service, 0, len(p.Services))
	for _, s := range p.Services {
		services = append(services, s.clone())
	}

	return json.Marshal(struct {
		alias
		Headline string    `json:"headline"`
		Services []Service `json:"services"`
	}{
		alias:    alias(p),
		Headline: p.Profession,
		Services: services,
	})
}
