package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/gigfolio/gigfolio_be/internal/apperrors"
	"github.com/gigfolio/gigfolio_be/internal/models"
	"github.com/gigfolio/gigfolio_be/internal/services/portfolio"
	"github.com/gigfolio/gigfolio_be/internal/services/users"
)

type Moderator interface {
	ListSubmissions(ctx context.Context) ([]models.PortfolioSubmission, error)
	SetStatus(ctx context.Context, id uuid.UUID, status models.PortfolioStatus) (*models.PortfolioSubmission, error)
	MigrateHeadlines(ctx context.Context) (portfolio.MigrationResult, error)
}

type UserBackfiller interface {
	BackfillHandles(ctx context.Context) (users.BackfillResult, error)
}

type AdminHandler struct {
	Portfolios Moderator
	Users      UserBackfiller
}

func NewAdminHandler(portfolios Moderator, users UserBackfiller) *AdminHandler {
	return &AdminHandler{Portfolios: portfolios, Users: users}
}

func (h *AdminHandler) ListSubmissions(c *fiber.Ctx) error {
	items, err := h.Portfolios.ListSubmissions(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, "", items)
}

type setStatusReq struct {
	Status string `json:"status"`
}

func (h *AdminHandler) SetStatus(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var req setStatusReq
	if err := c.BodyParser(&req); err != nil {
		return apperrors.Validation("invalid body")
	}

	p, err := h.Portfolios.SetStatus(c.UserContext(), id, models.PortfolioStatus(req.Status))
	if err != nil {
		return err
	}
	return ok(c, "status updated", p)
}

func (h *AdminHandler) MigrateHeadlines(c *fiber.Ctx) error {
	res, err := h.Portfolios.MigrateHeadlines(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, "migration finished", res)
}

func (h *AdminHandler) BackfillHandles(c *fiber.Ctx) error {
	res, err := h.Users.BackfillHandles(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, "backfill finished", res)
}
