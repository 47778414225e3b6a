package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/gigfolio/gigfolio_be/internal/apperrors"
	"github.com/gigfolio/gigfolio_be/internal/models"
	"github.com/gigfolio/gigfolio_be/internal/services/cart"
)

type CartService interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, userID uuid.UUID, in cart.AddItemInput) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID, serviceID uuid.UUID) (*models.Cart, error)
	AddWishlist(ctx context.Context, userID, submissionID uuid.UUID) (*models.Cart, error)
	RemoveWishlist(ctx context.Context, userID, submissionID uuid.UUID) (*models.Cart, error)
	Checkout(ctx context.Context, userID uuid.UUID, in cart.CheckoutInput) (*cart.CheckoutResult, error)
}

type CartHandler struct {
	Carts CartService
}

func NewCartHandler(carts CartService) *CartHandler {
	return &CartHandler{Carts: carts}
}

func (h *CartHandler) Get(c *fiber.Ctx) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	ct, err := h.Carts.Get(c.UserContext(), uid)
	if err != nil {
		return err
	}
	return ok(c, "", ct)
}

func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	var req cart.AddItemInput
	if err := c.BodyParser(&req); err != nil {
		return apperrors.Validation("invalid body")
	}
	ct, err := h.Carts.AddItem(c.UserContext(), uid, req)
	if err != nil {
		return err
	}
	return ok(c, "added to cart", ct)
}

func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	serviceID, err := paramUUID(c, "serviceId")
	if err != nil {
		return err
	}
	ct, err := h.Carts.RemoveItem(c.UserContext(), uid, serviceID)
	if err != nil {
		return err
	}
	return ok(c, "removed from cart", ct)
}

func (h *CartHandler) Checkout(c *fiber.Ctx) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	var req cart.CheckoutInput
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.Validation("invalid body")
		}
	}
	res, err := h.Carts.Checkout(c.UserContext(), uid, req)
	if err != nil {
		return err
	}
	return created(c, "checkout finished", res)
}

func (h *CartHandler) Wishlist(c *fiber.Ctx) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	ct, err := h.Carts.Get(c.UserContext(), uid)
	if err != nil {
		return err
	}
	return ok(c, "", ct.Wishlist)
}

type wishlistReq struct {
	SubmissionID uuid.UUID `json:"submission_id"`
}

func (h *CartHandler) AddWishlist(c *fiber.Ctx) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	var req wishlistReq
	if err := c.BodyParser(&req); err != nil || req.SubmissionID == uuid.Nil {
		return apperrors.Validation("submission_id is required")
	}
	ct, err := h.Carts.AddWishlist(c.UserContext(), uid, req.SubmissionID)
	if err != nil {
		return err
	}
	return ok(c, "added to wishlist", ct.Wishlist)
}

func (h *CartHandler) RemoveWishlist(c *fiber.Ctx) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "submissionId")
	if err != nil {
		return err
	}
	ct, err := h.Carts.RemoveWishlist(c.UserContext(), uid, id)
	if err != nil {
		return err
	}
	return ok(c, "removed from wishlist", ct.Wishlist)
}
