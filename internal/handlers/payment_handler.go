package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/gigfolio/gigfolio_be/internal/apperrors"
	"github.com/gigfolio/gigfolio_be/internal/services/booking"
	"github.com/gigfolio/gigfolio_be/internal/services/tripay"
)

type PaymentService interface {
	Channels(ctx context.Context) ([]tripay.PaymentChannel, error)
	Checkout(ctx context.Context, clientID, bookingID uuid.UUID, method string) (*booking.CheckoutResult, error)
	HandleCallback(ctx context.Context, signature string, body []byte) error
}

type PaymentHandler struct {
	Payments PaymentService
}

func NewPaymentHandler(payments PaymentService) *PaymentHandler {
	return &PaymentHandler{Payments: payments}
}

type CreatePaymentRequest struct {
	BookingID     uuid.UUID `json:"booking_id"`
	PaymentMethod string    `json:"payment_method"`
}

// GetChannels lists only the channels the merchant has enabled.
func (h *PaymentHandler) GetChannels(c *fiber.Ctx) error {
	channels, err := h.Payments.Channels(c.UserContext())
	if err != nil {
		return err
	}
	active := make([]tripay.PaymentChannel, 0, len(channels))
	for _, ch := range channels {
		if ch.Active {
			active = append(active, ch)
		}
	}
	return ok(c, "", active)
}

func (h *PaymentHandler) CreatePayment(c *fiber.Ctx) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	var req CreatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.Validation("invalid body")
	}
	if req.BookingID == uuid.Nil {
		return apperrors.Validation("booking_id is required")
	}

	res, err := h.Payments.Checkout(c.UserContext(), uid, req.BookingID, req.PaymentMethod)
	if err != nil {
		return err
	}
	return ok(c, "payment created", res)
}

// Callback receives tripay notifications; the body is verified as raw bytes.
func (h *PaymentHandler) Callback(c *fiber.Ctx) error {
	sig := c.Get("X-Callback-Signature")
	if err := h.Payments.HandleCallback(c.UserContext(), sig, c.Body()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}
