package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gigfolio/gigfolio_be/internal/apperrors"
	"github.com/gigfolio/gigfolio_be/internal/models"
)

type PointsService struct {
	ledger Ledger
}

func NewPointsService(ledger Ledger) *PointsService {
	return &PointsService{ledger: ledger}
}

// AwardPoints adds points to a user, recomputes their tier and writes a
// ledger entry. Pass a ledger bound to the transaction that caused the award.
func AwardPoints(ctx context.Context, l Ledger, userID uuid.UUID, amount int, reason string, referenceID *uuid.UUID) error {
	if amount <= 0 {
		return errors.New("points to award must be greater than zero")
	}

	u, err := l.AddPoints(ctx, userID, amount)
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("user not found for id %s", userID)
	}
	if err != nil {
		return err
	}
	if tier := TierFor(u.Points); tier != u.Tier {
		if err := l.Update(ctx, userID, map[string]any{"tier": tier}); err != nil {
			return err
		}
	}

	return l.AddEntry(ctx, &models.PointsTransaction{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      amount,
		Reason:      reason,
		ReferenceID: referenceID,
	})
}

// History lists a user's ledger, newest first.
func (s *PointsService) History(ctx context.Context, userID uuid.UUID, limit int) ([]models.PointsTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	out, err := s.ledger.History(ctx, userID, limit)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to load points history")
	}
	return out, nil
}
