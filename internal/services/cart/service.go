package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/gigfolio/gigfolio_be/internal/apperrors"
	"github.com/gigfolio/gigfolio_be/internal/logger"
	"github.com/gigfolio/gigfolio_be/internal/models"
	"github.com/gigfolio/gigfolio_be/internal/services/booking"
	"github.com/gigfolio/gigfolio_be/internal/services/portfolio"
)

const maxAttempts = 3

type PortfolioReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.PortfolioSubmission, error)
}

type BookingCreator interface {
	Create(ctx context.Context, clientID uuid.UUID, in booking.CreateInput) (*models.Booking, error)
}

type Service struct {
	store      Store
	portfolios PortfolioReader
	bookings   BookingCreator
	now        func() time.Time
}

func NewService(store Store, portfolios PortfolioReader, bookings BookingCreator) *Service {
	return &Service{store: store, portfolios: portfolios, bookings: bookings, now: time.Now}
}

// Get returns the user's cart, an empty one when none was saved yet.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	c, err := s.store.FindByUser(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return emptyCart(userID), nil
	}
	if err != nil {
		return nil, apperrors.Internal(err, "failed to load cart")
	}
	normalize(c)
	return c, nil
}

type AddItemInput struct {
	SubmissionID uuid.UUID `json:"submission_id"`
	ServiceKey   string    `json:"service_id"`
	Level        string    `json:"level"`
}

// AddItem puts a service tier in the cart. A service already in the cart is
// replaced, so each service appears once.
func (s *Service) AddItem(ctx context.Context, userID uuid.UUID, in AddItemInput) (*models.Cart, error) {
	p, err := s.approvedPortfolio(ctx, in.SubmissionID)
	if err != nil {
		return nil, err
	}
	if p.IsOwnedBy(userID) {
		return nil, apperrors.Validation("you cannot add your own service")
	}
	i := models.FindService(p.Services, in.ServiceKey)
	if i < 0 {
		return nil, apperrors.NotFound("service not found")
	}
	svc := p.Services[i]
	tier, ok := booking.SelectPricing(svc.Pricing, in.Level)
	if !ok {
		return nil, apperrors.Validation("pricing level not found")
	}

	item := models.CartItem{
		SubmissionID: p.ID,
		ServiceID:    svc.ID,
		ServiceName:  svc.Name,
		Level:        tier.Level,
		Price:        tier.Price,
		AddedAt:      s.now(),
	}
	return s.mutate(ctx, userID, func(c *models.Cart) error {
		c.Items = append(filterItems(c.Items, func(it models.CartItem) bool { return it.ServiceID != svc.ID }), item)
		return nil
	})
}

func (s *Service) RemoveItem(ctx context.Context, userID, serviceID uuid.UUID) (*models.Cart, error) {
	return s.mutate(ctx, userID, func(c *models.Cart) error {
		kept := filterItems(c.Items, func(it models.CartItem) bool { return it.ServiceID != serviceID })
		if len(kept) == len(c.Items) {
			return apperrors.NotFound("item not in cart")
		}
		c.Items = kept
		return nil
	})
}

// AddWishlist is idempotent.
func (s *Service) AddWishlist(ctx context.Context, userID, submissionID uuid.UUID) (*models.Cart, error) {
	if _, err := s.approvedPortfolio(ctx, submissionID); err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, func(c *models.Cart) error {
		for _, w := range c.Wishlist {
			if w.SubmissionID == submissionID {
				return nil
			}
		}
		c.Wishlist = append(c.Wishlist, models.WishlistItem{SubmissionID: submissionID, AddedAt: s.now()})
		return nil
	})
}

func (s *Service) RemoveWishlist(ctx context.Context, userID, submissionID uuid.UUID) (*models.Cart, error) {
	return s.mutate(ctx, userID, func(c *models.Cart) error {
		kept := make(datatypes.JSONSlice[models.WishlistItem], 0, len(c.Wishlist))
		for _, w := range c.Wishlist {
			if w.SubmissionID != submissionID {
				kept = append(kept, w)
			}
		}
		if len(kept) == len(c.Wishlist) {
			return apperrors.NotFound("portfolio not in wishlist")
		}
		c.Wishlist = kept
		return nil
	})
}

type CheckoutInput struct {
	ScheduledAt *time.Time `json:"scheduled_at"`
	Note        string     `json:"note"`
}

type FailedItem struct {
	ServiceID uuid.UUID `json:"service_id"`
	Reason    string    `json:"reason"`
}

type CheckoutResult struct {
	Bookings []models.Booking `json:"bookings"`
	Failed   []FailedItem     `json:"failed"`
}

// Checkout creates one booking per cart item. Booked items leave the cart,
// items that could not be booked stay with the reason.
func (s *Service) Checkout(ctx context.Context, userID uuid.UUID, in CheckoutInput) (*CheckoutResult, error) {
	c, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(c.Items) == 0 {
		return nil, apperrors.Validation("cart is empty")
	}

	res := &CheckoutResult{Bookings: []models.Booking{}, Failed: []FailedItem{}}
	booked := map[uuid.UUID]bool{}
	for _, it := range c.Items {
		b, err := s.bookings.Create(ctx, userID, booking.CreateInput{
			SubmissionID: it.SubmissionID,
			ServiceKey:   it.ServiceID.String(),
			Level:        it.Level,
			ScheduledAt:  in.ScheduledAt,
			Note:         in.Note,
		})
		if err != nil {
			var ae *apperrors.AppError
			reason := "could not be booked"
			if errors.As(err, &ae) && ae.Kind != apperrors.KindInternal {
				reason = ae.Message
			}
			res.Failed = append(res.Failed, FailedItem{ServiceID: it.ServiceID, Reason: reason})
			logger.Warn("cart item checkout failed", "user_id", userID, "service_id", it.ServiceID, "error", err)
			continue
		}
		res.Bookings = append(res.Bookings, *b)
		booked[it.ServiceID] = true
	}

	if len(booked) > 0 {
		_, err := s.mutate(ctx, userID, func(c *models.Cart) error {
			c.Items = filterItems(c.Items, func(it models.CartItem) bool { return !booked[it.ServiceID] })
			return nil
		})
		if err != nil {
			// bookings exist already; a stale cart is only cosmetic
			logger.Warn("failed to clear booked cart items", "user_id", userID, "error", err)
		}
	}
	return res, nil
}

func (s *Service) approvedPortfolio(ctx context.Context, id uuid.UUID) (*models.PortfolioSubmission, error) {
	p, err := s.portfolios.FindByID(ctx, id)
	if errors.Is(err, portfolio.ErrNotFound) {
		return nil, apperrors.NotFound("portfolio not found")
	}
	if err != nil {
		return nil, apperrors.Internal(err, "failed to load portfolio")
	}
	if p.Status != models.PortfolioApproved {
		return nil, apperrors.Validation("portfolio is not available")
	}
	return p, nil
}

func (s *Service) mutate(ctx context.Context, userID uuid.UUID, apply func(c *models.Cart) error) (*models.Cart, error) {
	for attempt := 1; ; attempt++ {
		c, err := s.store.FindByUser(ctx, userID)
		isNew := errors.Is(err, ErrNotFound)
		if isNew {
			c = emptyCart(userID)
		} else if err != nil {
			return nil, apperrors.Internal(err, "failed to load cart")
		}
		normalize(c)

		if err := apply(c); err != nil {
			return nil, err
		}
		c.UpdatedAt = s.now()

		if isNew {
			err = s.store.Create(ctx, c)
		} else {
			err = s.store.Update(ctx, c)
		}
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return nil, apperrors.Internal(err, "failed to save cart")
		}
		if attempt == maxAttempts {
			return nil, apperrors.Conflict("cart was modified concurrently, please retry")
		}
	}
}

func emptyCart(userID uuid.UUID) *models.Cart {
	return &models.Cart{
		ID:       uuid.New(),
		UserID:   userID,
		Items:    datatypes.JSONSlice[models.CartItem]{},
		Wishlist: datatypes.JSONSlice[models.WishlistItem]{},
		Version:  1,
	}
}

func normalize(c *models.Cart) {
	if c.Items == nil {
		c.Items = datatypes.JSONSlice[models.CartItem]{}
	}
	if c.Wishlist == nil {
		c.Wishlist = datatypes.JSONSlice[models.WishlistItem]{}
	}
}

func filterItems(items []models.CartItem, keep func(models.CartItem) bool) datatypes.JSONSlice[models.CartItem] {
	out := make(datatypes.JSONSlice[models.CartItem], 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}
