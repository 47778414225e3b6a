package portfolio

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigfolio/gigfolio_be/internal/models"
)

type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) FindByID(ctx context.Context, id uuid.UUID) (*models.PortfolioSubmission, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *GormStore) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*models.PortfolioSubmission, error) {
	return s.first(ctx, "user_id = ?", ownerID)
}

func (s *GormStore) first(ctx context.Context, query string, args ...any) (*models.PortfolioSubmission, error) {
	var p models.PortfolioSubmission
	err := s.DB.WithContext(ctx).Where(query, args...).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *GormStore) List(ctx context.Context, f ListFilter) ([]models.PortfolioSubmission, error) {
	q := s.DB.WithContext(ctx).Order("submitted_date DESC")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var out []models.PortfolioSubmission
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GormStore) ListWithLegacyHeadline(ctx context.Context) ([]models.PortfolioSubmission, error) {
	var out []models.PortfolioSubmission
	err := s.DB.WithContext(ctx).
		Where("headline IS NOT NULL AND headline <> ''").
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

func (s *GormStore) Create(ctx context.Context, p *models.PortfolioSubmission) error {
	if p.Version == 0 {
		p.Version = 1
	}
	err := s.DB.WithContext(ctx).Create(p).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// the owner's document was created by a concurrent request
		return ErrVersionConflict
	}
	return err
}

func (s *GormStore) Update(ctx context.Context, p *models.PortfolioSubmission) error {
	prev := p.Version
	p.Version = prev + 1

	res := s.DB.WithContext(ctx).
		Model(p).
		Where("version = ?", prev).
		Select("*").
		Omit("id", "created_at").
		Updates(p)
	if res.Error != nil {
		p.Version = prev
		return res.Error
	}
	if res.RowsAffected == 0 {
		p.Version = prev
		return ErrVersionConflict
	}
	return nil
}

func (s *GormStore) UsersByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error) {
	out := make(map[uuid.UUID]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var users []models.User
	if err := s.DB.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}
