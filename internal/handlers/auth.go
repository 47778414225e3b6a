package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/gigfolio/gigfolio_be/internal/apperrors"
	"github.com/gigfolio/gigfolio_be/internal/models"
	"github.com/gigfolio/gigfolio_be/internal/services/users"
	"github.com/gigfolio/gigfolio_be/internal/utils"
)

type Accounts interface {
	Register(ctx context.Context, in users.RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, in users.ProfileInput) (*models.User, error)
}

type PointsHistory interface {
	History(ctx context.Context, userID uuid.UUID, limit int) ([]models.PointsTransaction, error)
}

type AuthHandler struct {
	Users         Accounts
	Points        PointsHistory
	Files         Uploader
	JWTSecret     string
	Expires       int
	SecureCookie  bool
	MaxImageWidth int
}

func (h *AuthHandler) setSession(c *fiber.Ctx, u *models.User) error {
	token, err := utils.SignJWT(h.JWTSecret, u.ID.String(), string(u.Role), h.Expires)
	if err != nil {
		return apperrors.Internal(err, "failed to create token")
	}
	c.Cookie(&fiber.Cookie{
		Name:     utils.TokenCookie,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   h.SecureCookie,
		SameSite: "Lax",
		MaxAge:   h.Expires * 60,
	})
	return nil
}

func userView(u *models.User) fiber.Map {
	return fiber.Map{
		"id":            u.ID,
		"handle":        u.Handle,
		"name":          u.Name,
		"email":         u.Email,
		"role":          u.Role,
		"profession":    u.Profession,
		"profile_image": u.ProfileImage,
		"points":        u.Points,
		"tier":          u.Tier,
	}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req users.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return apperrors.Validation("invalid body")
	}

	u, err := h.Users.Register(c.UserContext(), req)
	if err != nil {
		return err
	}
	if err := h.setSession(c, u); err != nil {
		return err
	}
	return created(c, "registration successful", fiber.Map{"user": userView(u)})
}

type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginReq
	if err := c.BodyParser(&req); err != nil {
		return apperrors.Validation("invalid body")
	}

	u, err := h.Users.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	if err := h.setSession(c, u); err != nil {
		return err
	}
	return ok(c, "login successful", fiber.Map{"user": userView(u)})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     utils.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   h.SecureCookie,
		SameSite: "Lax",
	})
	return ok(c, "logout successful", nil)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	u, err := h.Users.Get(c.UserContext(), uid)
	if err != nil {
		return err
	}
	return ok(c, "", userView(u))
}

// UpdateMe accepts multipart (name, profession, profileImage) or JSON.
func (h *AuthHandler) UpdateMe(c *fiber.Ctx) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}

	var in users.ProfileInput
	if form, err := c.MultipartForm(); err == nil {
		if v, found := form.Value["name"]; found && len(v) > 0 {
			in.Name = &v[0]
		}
		if v, found := form.Value["profession"]; found && len(v) > 0 {
			in.Profession = &v[0]
		}
	} else if err := c.BodyParser(&in); err != nil {
		return apperrors.Validation("invalid body")
	}

	up := &uploads{files: h.Files}
	if h.Files != nil {
		if in.ProfileImage, err = up.image(c, "profileImage", "profile", h.MaxImageWidth); err != nil {
			return err
		}
	}

	u, err := h.Users.UpdateProfile(c.UserContext(), uid, in)
	if err != nil {
		up.discard(c.UserContext())
		return err
	}
	return ok(c, "profile updated", userView(u))
}

func (h *AuthHandler) MyPoints(c *fiber.Ctx) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	limit := c.QueryInt("limit", 50)
	history, err := h.Points.History(c.UserContext(), uid, limit)
	if err != nil {
		return err
	}
	return ok(c, "", history)
}
