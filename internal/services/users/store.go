package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigfolio/gigfolio_be/internal/models"
)

var (
	ErrNotFound = errors.New("users: not found")
	// ErrDuplicate is a unique index violation on email or handle.
	ErrDuplicate = errors.New("users: duplicate key")
)

// Store persists accounts.
type Store interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) error
	// AssignHandle writes handle, together with fields, only while the user
	// has no handle. False means another writer assigned one first.
	AssignHandle(ctx context.Context, id uuid.UUID, handle string, fields map[string]any) (bool, error)
	// ImageInUse reports whether a portfolio submission still shows ref.
	ImageInUse(ctx context.Context, ref string) (bool, error)
	// EachUser calls fn for every user in batches.
	EachUser(ctx context.Context, fn func(u *models.User)) error
}

// Ledger is the points side of the store. Bind it to the transaction that
// causes the award.
type Ledger interface {
	// AddPoints increments the balance and returns the stored user.
	AddPoints(ctx context.Context, userID uuid.UUID, amount int) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) error
	AddEntry(ctx context.Context, e *models.PointsTransaction) error
	History(ctx context.Context, userID uuid.UUID, limit int) ([]models.PointsTransaction, error)
}

type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *GormStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.first(ctx, "email = ?", email)
}

func (s *GormStore) first(ctx context.Context, query string, args ...any) (*models.User, error) {
	var u models.User
	err := s.DB.WithContext(ctx).Where(query, args...).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *GormStore) Create(ctx context.Context, u *models.User) error {
	err := s.DB.WithContext(ctx).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

func (s *GormStore) Update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	return s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields).Error
}

func (s *GormStore) AssignHandle(ctx context.Context, id uuid.UUID, handle string, fields map[string]any) (bool, error) {
	set := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		set[k] = v
	}
	set["handle"] = handle

	res := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND handle IS NULL", id).
		Updates(set)
	if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return false, ErrDuplicate
	}
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) ImageInUse(ctx context.Context, ref string) (bool, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&models.PortfolioSubmission{}).
		Where("profile_image = ? OR cover_image = ?", ref, ref).
		Count(&n).Error
	return n > 0, err
}

func (s *GormStore) EachUser(ctx context.Context, fn func(u *models.User)) error {
	var batch []models.User
	return s.DB.WithContext(ctx).
		FindInBatches(&batch, 200, func(_ *gorm.DB, _ int) error {
			for i := range batch {
				fn(&batch[i])
			}
			return nil
		}).Error
}

func (s *GormStore) AddPoints(ctx context.Context, userID uuid.UUID, amount int) (*models.User, error) {
	res := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("points", gorm.Expr("points + ?", amount))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.FindByID(ctx, userID)
}

func (s *GormStore) AddEntry(ctx context.Context, e *models.PointsTransaction) error {
	return s.DB.WithContext(ctx).Create(e).Error
}

func (s *GormStore) History(ctx context.Context, userID uuid.UUID, limit int) ([]models.PointsTransaction, error) {
	var out []models.PointsTransaction
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
