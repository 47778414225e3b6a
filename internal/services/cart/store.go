package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigfolio/gigfolio_be/internal/models"
)

var (
	ErrNotFound        = errors.New("cart: not found")
	ErrVersionConflict = errors.New("cart: version conflict")
)

// Store keeps one cart document per user. Update is a compare-and-swap on
// Version.
type Store interface {
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	Create(ctx context.Context, c *models.Cart) error
	Update(ctx context.Context, c *models.Cart) error
}

type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var c models.Cart
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *GormStore) Create(ctx context.Context, c *models.Cart) error {
	if c.Version == 0 {
		c.Version = 1
	}
	err := s.DB.WithContext(ctx).Create(c).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrVersionConflict
	}
	return err
}

func (s *GormStore) Update(ctx context.Context, c *models.Cart) error {
	prev := c.Version
	c.Version = prev + 1

	res := s.DB.WithContext(ctx).
		Model(c).
		Where("version = ?", prev).
		Select("items", "wishlist", "version", "updated_at").
		Updates(c)
	if res.Error != nil {
		c.Version = prev
		return res.Error
	}
	if res.RowsAffected == 0 {
		c.Version = prev
		return ErrVersionConflict
	}
	return nil
}
