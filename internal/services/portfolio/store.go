package portfolio

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/gigfolio/gigfolio_be/internal/models"
)

var (
	ErrNotFound = errors.New("portfolio: not found")
	// ErrVersionConflict means another writer changed the document since it
	// was loaded, or created the owner's document first.
	ErrVersionConflict = errors.New("portfolio: version conflict")
)

type ListFilter struct {
	Status models.PortfolioStatus // empty = any
}

// Store persists one submission document per owner (anonymous submissions
// have no owner). Update is a compare-and-swap on Version.
type Store interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.PortfolioSubmission, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID) (*models.PortfolioSubmission, error)
	// List returns submissions newest-first by submitted date.
	List(ctx context.Context, f ListFilter) ([]models.PortfolioSubmission, error)
	ListWithLegacyHeadline(ctx context.Context) ([]models.PortfolioSubmission, error)

	Create(ctx context.Context, p *models.PortfolioSubmission) error
	// Update writes p only if the stored version equals p.Version, then
	// increments p.Version.
	Update(ctx context.Context, p *models.PortfolioSubmission) error

	UsersByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error)
}
