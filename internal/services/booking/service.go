package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gigfolio/gigfolio_be/internal/apperrors"
	"github.com/gigfolio/gigfolio_be/internal/logger"
	"github.com/gigfolio/gigfolio_be/internal/models"
	"github.com/gigfolio/gigfolio_be/internal/services/portfolio"
	"github.com/gigfolio/gigfolio_be/internal/services/tripay"
)

const codeAttempts = 3

type PortfolioReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.PortfolioSubmission, error)
}

type Gateway interface {
	GetPaymentChannels(ctx context.Context) ([]tripay.PaymentChannel, error)
	CreateTransaction(ctx context.Context, in tripay.Checkout) (*tripay.TransactionResponse, error)
	ValidateSignature(incomingSig string, body []byte) bool
}

type Notifier interface {
	BookingChanged(ctx context.Context, b *models.Booking)
}

type Service struct {
	store      Store
	Portfolios PortfolioReader
	Gateway    Gateway
	Notifier   Notifier
}

func NewService(store Store, portfolios PortfolioReader, gateway Gateway, notifier Notifier) *Service {
	return &Service{store: store, Portfolios: portfolios, Gateway: gateway, Notifier: notifier}
}

type CreateInput struct {
	SubmissionID uuid.UUID  `json:"submission_id"`
	ServiceKey   string     `json:"service_id"` // service id or slug
	Level        string     `json:"level"`
	ScheduledAt  *time.Time `json:"scheduled_at"`
	Note         string     `json:"note"`
}

// Create books one pricing tier of an approved portfolio's service.
func (s *Service) Create(ctx context.Context, clientID uuid.UUID, in CreateInput) (*models.Booking, error) {
	p, err := s.Portfolios.FindByID(ctx, in.SubmissionID)
	if errors.Is(err, portfolio.ErrNotFound) {
		return nil, apperrors.NotFound("portfolio not found")
	}
	if err != nil {
		return nil, apperrors.Internal(err, "failed to load portfolio")
	}
	if p.Status != models.PortfolioApproved || p.UserID == nil {
		return nil, apperrors.Validation("portfolio is not available for booking")
	}
	if *p.UserID == clientID {
		return nil, apperrors.Validation("you cannot book your own service")
	}

	i := models.FindService(p.Services, in.ServiceKey)
	if i < 0 {
		return nil, apperrors.NotFound("service not found")
	}
	svc := p.Services[i]

	tier, ok := SelectPricing(svc.Pricing, in.Level)
	if !ok {
		return nil, apperrors.Validation("pricing level not found")
	}
	amount, err := ParsePrice(tier.Price)
	if err != nil || amount <= 0 {
		return nil, apperrors.Validation("service has no payable price for this level")
	}

	b := &models.Booking{
		ClientID:     clientID,
		FreelancerID: *p.UserID,
		SubmissionID: p.ID,
		ServiceID:    svc.ID,
		ServiceName:  svc.Name,
		Level:        tier.Level,
		Amount:       amount,
		ScheduledAt:  in.ScheduledAt,
		Note:         strings.TrimSpace(in.Note),
		Status:       models.BookingPendingPayment,
	}

	for attempt := 0; ; attempt++ {
		b.ID = uuid.New()
		b.Code = models.GenerateBookingCode()
		err = s.store.Create(ctx, b)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrDuplicate) || attempt == codeAttempts-1 {
			return nil, apperrors.Internal(err, "failed to create booking")
		}
	}

	logger.Info("booking created", "booking_id", b.ID, "code", b.Code, "amount", b.Amount)
	return b, nil
}

// List returns bookings where userID is the client or the freelancer.
func (s *Service) List(ctx context.Context, userID uuid.UUID, status string) ([]models.Booking, error) {
	out, err := s.store.ListForUser(ctx, userID, status)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to list bookings")
	}
	return out, nil
}

// Get loads a booking visible to userID. Admins see every booking.
func (s *Service) Get(ctx context.Context, userID uuid.UUID, isAdmin bool, id uuid.UUID) (*models.Booking, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && b.ClientID != userID && b.FreelancerID != userID {
		return nil, apperrors.Forbidden("not your booking")
	}
	return b, nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	b, err := s.store.FindByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperrors.NotFound("booking not found")
	}
	if err != nil {
		return nil, apperrors.Internal(err, "failed to load booking")
	}
	return b, nil
}

// UpdateStatus applies a client or freelancer driven transition.
func (s *Service) UpdateStatus(ctx context.Context, userID uuid.UUID, id uuid.UUID, to models.BookingStatus) (*models.Booking, error) {
	b, err := s.Get(ctx, userID, false, id)
	if err != nil {
		return nil, err
	}

	actor := ActorClient
	if b.FreelancerID == userID {
		actor = ActorFreelancer
	}
	if !CanTransition(b.Status, to, actor) {
		return nil, apperrors.Validation("booking cannot move from " + string(b.Status) + " to " + string(to))
	}

	ok, err := transition(ctx, s.store, b, to)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to update booking")
	}
	if !ok {
		return nil, apperrors.Conflict("booking status changed, reload and retry")
	}

	if s.Notifier != nil {
		s.Notifier.BookingChanged(ctx, b)
	}
	return b, nil
}

// transition writes to only while the stored status still equals b.Status.
func transition(ctx context.Context, st Store, b *models.Booking, to models.BookingStatus) (bool, error) {
	ok, err := st.Transition(ctx, b.ID, b.Status, to)
	if err != nil || !ok {
		return false, err
	}
	b.Status = to
	return true, nil
}
