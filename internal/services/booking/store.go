package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigfolio/gigfolio_be/internal/models"
	"github.com/gigfolio/gigfolio_be/internal/services/users"
)

var (
	ErrNotFound = errors.New("booking: not found")
	// ErrDuplicate means the generated booking code is taken.
	ErrDuplicate = errors.New("booking: duplicate code")
)

// Store persists bookings and their payment transactions.
type Store interface {
	Create(ctx context.Context, b *models.Booking) error
	// FindByID loads a booking with both parties.
	FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	// ListForUser returns bookings where userID is either party, newest first.
	ListForUser(ctx context.Context, userID uuid.UUID, status string) ([]models.Booking, error)
	// Transition writes to only while the stored status still equals from.
	Transition(ctx context.Context, id uuid.UUID, from, to models.BookingStatus) (bool, error)

	// OpenTransaction returns the newest unpaid transaction of a booking.
	OpenTransaction(ctx context.Context, bookingID uuid.UUID) (*models.Transaction, error)
	CountTransactions(ctx context.Context, bookingID uuid.UUID) (int64, error)
	CreateTransaction(ctx context.Context, t *models.Transaction) error
	// FindTransaction matches the gateway reference or the merchant ref.
	FindTransaction(ctx context.Context, reference, merchantRef string) (*models.Transaction, error)
	SaveTransaction(ctx context.Context, t *models.Transaction) error

	AwardPoints(ctx context.Context, userID uuid.UUID, amount int, reason string, referenceID *uuid.UUID) error
	// InTx runs fn against a store bound to one database transaction.
	InTx(ctx context.Context, fn func(tx Store) error) error
}

type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) Create(ctx context.Context, b *models.Booking) error {
	err := s.DB.WithContext(ctx).Create(b).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

func (s *GormStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var b models.Booking
	err := s.DB.WithContext(ctx).Preload("Client").Preload("Freelancer").First(&b, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *GormStore) ListForUser(ctx context.Context, userID uuid.UUID, status string) ([]models.Booking, error) {
	q := s.DB.WithContext(ctx).
		Preload("Client").Preload("Freelancer").
		Where("client_id = ? OR freelancer_id = ?", userID, userID).
		Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var out []models.Booking
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GormStore) Transition(ctx context.Context, id uuid.UUID, from, to models.BookingStatus) (bool, error) {
	res := s.DB.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": time.Now()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) OpenTransaction(ctx context.Context, bookingID uuid.UUID) (*models.Transaction, error) {
	var t models.Transaction
	err := s.DB.WithContext(ctx).
		Where("booking_id = ? AND status = ?", bookingID, models.TransactionStatusUnpaid).
		Order("created_at DESC").
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *GormStore) CountTransactions(ctx context.Context, bookingID uuid.UUID) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&models.Transaction{}).Where("booking_id = ?", bookingID).Count(&n).Error
	return n, err
}

func (s *GormStore) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	return s.DB.WithContext(ctx).Create(t).Error
}

func (s *GormStore) FindTransaction(ctx context.Context, reference, merchantRef string) (*models.Transaction, error) {
	var t models.Transaction
	err := s.DB.WithContext(ctx).
		Where("reference = ?", reference).
		Or("merchant_ref = ?", merchantRef).
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *GormStore) SaveTransaction(ctx context.Context, t *models.Transaction) error {
	return s.DB.WithContext(ctx).Save(t).Error
}

func (s *GormStore) AwardPoints(ctx context.Context, userID uuid.UUID, amount int, reason string, referenceID *uuid.UUID) error {
	return users.AwardPoints(ctx, users.NewGormStore(s.DB), userID, amount, reason, referenceID)
}

func (s *GormStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{DB: tx})
	})
}
