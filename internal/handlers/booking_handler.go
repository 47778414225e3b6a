package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/gigfolio/gigfolio_be/internal/apperrors"
	"github.com/gigfolio/gigfolio_be/internal/middleware"
	"github.com/gigfolio/gigfolio_be/internal/models"
	"github.com/gigfolio/gigfolio_be/internal/services/booking"
)

type BookingService interface {
	Create(ctx context.Context, clientID uuid.UUID, in booking.CreateInput) (*models.Booking, error)
	List(ctx context.Context, userID uuid.UUID, status string) ([]models.Booking, error)
	Get(ctx context.Context, userID uuid.UUID, isAdmin bool, id uuid.UUID) (*models.Booking, error)
	UpdateStatus(ctx context.Context, userID uuid.UUID, id uuid.UUID, to models.BookingStatus) (*models.Booking, error)
}

type BookingHandler struct {
	Bookings BookingService
}

func NewBookingHandler(bookings BookingService) *BookingHandler {
	return &BookingHandler{Bookings: bookings}
}

func (h *BookingHandler) List(c *fiber.Ctx) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	items, err := h.Bookings.List(c.UserContext(), uid, c.Query("status"))
	if err != nil {
		return err
	}
	return ok(c, "", items)
}

func (h *BookingHandler) Create(c *fiber.Ctx) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	var req booking.CreateInput
	if err := c.BodyParser(&req); err != nil {
		return apperrors.Validation("invalid body")
	}
	b, err := h.Bookings.Create(c.UserContext(), uid, req)
	if err != nil {
		return err
	}
	return created(c, "booking created", b)
}

func (h *BookingHandler) Get(c *fiber.Ctx) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	b, err := h.Bookings.Get(c.UserContext(), uid, middleware.Role(c) == string(models.RoleAdmin), id)
	if err != nil {
		return err
	}
	return ok(c, "", b)
}

type bookingStatusReq struct {
	Status string `json:"status"`
}

func (h *BookingHandler) UpdateStatus(c *fiber.Ctx) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var req bookingStatusReq
	if err := c.BodyParser(&req); err != nil || req.Status == "" {
		return apperrors.Validation("status is required")
	}
	b, err := h.Bookings.UpdateStatus(c.UserContext(), uid, id, models.BookingStatus(req.Status))
	if err != nil {
		return err
	}
	return ok(c, "booking updated", b)
}
