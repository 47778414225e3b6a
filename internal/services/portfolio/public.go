package portfolio

import (
	"context"

	"github.com/google/uuid"

	"github.com/gigfolio/gigfolio_be/internal/apperrors"
	"github.com/gigfolio/gigfolio_be/internal/models"
)

type PublicOwner struct {
	ID           uuid.UUID   `json:"id"`
	Handle       string      `json:"handle"`
	Name         string      `json:"name"`
	Profession   string      `json:"profession"`
	Tier         models.Tier `json:"tier"`
	ProfileImage string      `json:"profile_image"`
}

type PortfolioWithUser struct {
	Portfolio models.PortfolioSubmission `json:"portfolio"`
	User      *PublicOwner               `json:"user"`
}

// ListApproved returns approved submissions only, newest-first.
func (s *Service) ListApproved(ctx context.Context) ([]models.PortfolioSubmission, error) {
	items, err := s.store.List(ctx, ListFilter{Status: models.PortfolioApproved})
	if err != nil {
		return nil, apperrors.Internal(err, "failed to list portfolios")
	}
	return items, nil
}

func (s *Service) ListApprovedWithUsers(ctx context.Context) ([]PortfolioWithUser, error) {
	items, err := s.ListApproved(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, p := range items {
		if p.UserID != nil {
			ids = append(ids, *p.UserID)
		}
	}
	users, err := s.store.UsersByID(ctx, ids)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to load portfolio owners")
	}

	out := make([]PortfolioWithUser, 0, len(items))
	for _, p := range items {
		row := PortfolioWithUser{Portfolio: p}
		if p.UserID != nil {
			if u, ok := users[*p.UserID]; ok {
				row.User = &PublicOwner{
					ID:           u.ID,
					Handle:       u.HandleString(),
					Name:         u.Name,
					Profession:   u.Profession,
					Tier:         u.Tier,
					ProfileImage: u.ProfileImage,
				}
			}
		}
		out = append(out, row)
	}
	return out, nil
}
