package portfolio

import (
	"context"

	"github.com/google/uuid"

	"github.com/gigfolio/gigfolio_be/internal/apperrors"
	"github.com/gigfolio/gigfolio_be/internal/logger"
	"github.com/gigfolio/gigfolio_be/internal/models"
)

// ListSubmissions returns every submission newest-first for the admin panel.
// Submissions without a profile image show their owner's current one.
func (s *Service) ListSubmissions(ctx context.Context) ([]models.PortfolioSubmission, error) {
	items, err := s.store.List(ctx, ListFilter{})
	if err != nil {
		return nil, apperrors.Internal(err, "failed to list portfolio submissions")
	}

	var owners []uuid.UUID
	for _, p := range items {
		if p.ProfileImage == "" && p.UserID != nil {
			owners = append(owners, *p.UserID)
		}
	}
	users, err := s.store.UsersByID(ctx, owners)
	if err != nil {
		logger.Warn("failed to load submission owners", "error", err)
		users = nil
	}

	for i := range items {
		p := &items[i]
		if p.Services == nil {
			p.Services = []models.Service{}
		}
		if p.ProfileImage == "" && p.UserID != nil {
			if u, ok := users[*p.UserID]; ok {
				p.ProfileImage = u.ProfileImage
			}
		}
	}
	return items, nil
}

// SetStatus is the only place a submission changes moderation status.
// Approving makes it visible in the public listings.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status models.PortfolioStatus) (*models.PortfolioSubmission, error) {
	if !status.Valid() {
		return nil, apperrors.Validation("invalid status").
			WithDetails(map[string]string{"status": "must be one of pending, approved, rejected"})
	}

	var replaced string
	p, err := s.mutate(ctx, s.byID(id), func(p *models.PortfolioSubmission, _ bool) error {
		replaced = s.syncOwnerImage(ctx, p)
		p.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}
	if replaced != "" {
		s.discard(ctx, p.UserID, []string{replaced})
	}

	logger.Info("portfolio status changed", "submission_id", p.ID, "status", p.Status)
	if p.UserID != nil && s.notifier != nil {
		s.notifier.PortfolioStatusChanged(ctx, *p.UserID, p)
	}
	return p, nil
}

// syncOwnerImage copies the owner's latest profile image onto p and returns
// the image it displaced, if any. Failures are logged and never block
// moderation.
func (s *Service) syncOwnerImage(ctx context.Context, p *models.PortfolioSubmission) string {
	if p.UserID == nil {
		return ""
	}
	users, err := s.store.UsersByID(ctx, []uuid.UUID{*p.UserID})
	if err != nil {
		logger.Warn("failed to sync owner profile image", "submission_id", p.ID, "error", err)
		return ""
	}
	u, ok := users[*p.UserID]
	if !ok || u.ProfileImage == "" || u.ProfileImage == p.ProfileImage {
		return ""
	}
	old := p.ProfileImage
	p.ProfileImage = u.ProfileImage
	return old
}
