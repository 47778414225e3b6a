package handlers

import (
	"context"
	"encoding/json"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/gigfolio/gigfolio_be/internal/apperrors"
	"github.com/gigfolio/gigfolio_be/internal/logger"
	"github.com/gigfolio/gigfolio_be/internal/models"
	"github.com/gigfolio/gigfolio_be/internal/services/portfolio"
	"github.com/gigfolio/gigfolio_be/internal/storage"
)

type PortfolioService interface {
	SubmitOrUpdate(ctx context.Context, in portfolio.SubmitInput) (*models.PortfolioSubmission, error)
	AddService(ctx context.Context, ownerID *uuid.UUID, in portfolio.ServiceInput) (uuid.UUID, error)
	AddVideo(ctx context.Context, ownerID *uuid.UUID, serviceKey, url, thumbnail string) (*models.Video, error)
	RemoveVideo(ctx context.Context, ownerID *uuid.UUID, serviceKey string, videoID uuid.UUID) error
	Status(ctx context.Context, ownerID uuid.UUID) (*models.PortfolioStatus, error)
	GetByOwner(ctx context.Context, ownerID uuid.UUID) (*models.PortfolioSubmission, error)
	ListApproved(ctx context.Context) ([]models.PortfolioSubmission, error)
	ListApprovedWithUsers(ctx context.Context) ([]portfolio.PortfolioWithUser, error)
}

type Uploader interface {
	SaveFile(ctx context.Context, fh *multipart.FileHeader, folder string, exts []string, maxSize int64) (string, error)
	SaveImage(ctx context.Context, fh *multipart.FileHeader, folder string, maxWidth int) (string, error)
	Delete(ctx context.Context, ref string) error
}

type PortfolioHandler struct {
	Portfolios    PortfolioService
	Files         Uploader
	MaxImageWidth int
}

func NewPortfolioHandler(portfolios PortfolioService, files Uploader, maxImageWidth int) *PortfolioHandler {
	return &PortfolioHandler{Portfolios: portfolios, Files: files, MaxImageWidth: maxImageWidth}
}

// uploads tracks files stored during one request so they can be removed
// when the request fails.
type uploads struct {
	files Uploader
	refs  []string
}

func (u *uploads) image(c *fiber.Ctx, field, folder string, maxWidth int) (string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return "", nil
	}
	ref, err := u.files.SaveImage(c.UserContext(), fh, folder, maxWidth)
	if err != nil {
		return "", err
	}
	u.refs = append(u.refs, ref)
	return ref, nil
}

func (u *uploads) file(c *fiber.Ctx, field, folder string, exts []string, maxSize int64) (string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return "", nil
	}
	ref, err := u.files.SaveFile(c.UserContext(), fh, folder, exts, maxSize)
	if err != nil {
		return "", err
	}
	u.refs = append(u.refs, ref)
	return ref, nil
}

func (u *uploads) discard(ctx context.Context) {
	for _, ref := range u.refs {
		if err := u.files.Delete(ctx, ref); err != nil {
			logger.Warn("failed to discard upload", "ref", ref, "error", err)
		}
	}
}

// Submit handles POST /portfolio (multipart).
func (h *PortfolioHandler) Submit(c *fiber.Ctx) error {
	owner, err := ownerID(c, c.FormValue("userId"))
	if err != nil {
		return err
	}

	in := portfolio.SubmitInput{
		OwnerID:       owner,
		Name:          c.FormValue("name"),
		Email:         c.FormValue("email"),
		Profession:    c.FormValue("profession"),
		Headline:      c.FormValue("headline"),
		About:         c.FormValue("about"),
		PortfolioLink: c.FormValue("portfolioLink"),
		ResumePath:    c.FormValue("resumePath"),
	}
	in.IsNewSubmission, _ = strconv.ParseBool(c.FormValue("isNewSubmission"))

	if raw := strings.TrimSpace(c.FormValue("service")); raw != "" {
		var svc portfolio.ServiceInput
		if err := json.Unmarshal([]byte(raw), &svc); err != nil {
			return apperrors.Validation("service must be valid JSON")
		}
		in.Service = &svc
	}

	up := &uploads{files: h.Files}
	if in.ProfileImage, err = up.image(c, "profileImage", "profile", h.MaxImageWidth); err != nil {
		up.discard(c.UserContext())
		return err
	}
	if in.CoverImage, err = up.image(c, "coverImage", "cover", h.MaxImageWidth); err != nil {
		up.discard(c.UserContext())
		return err
	}
	resume, err := up.file(c, "resume", "resumes", storage.DocExts, storage.MaxDocSize)
	if err != nil {
		up.discard(c.UserContext())
		return err
	}
	if resume != "" {
		in.ResumePath = resume
	}

	p, err := h.Portfolios.SubmitOrUpdate(c.UserContext(), in)
	if err != nil {
		up.discard(c.UserContext())
		return err
	}
	return created(c, "portfolio submitted", p)
}

func (h *PortfolioHandler) GetByOwner(c *fiber.Ctx) error {
	owner, err := paramUUID(c, "ownerId")
	if err != nil {
		return err
	}
	p, err := h.Portfolios.GetByOwner(c.UserContext(), owner)
	if err != nil {
		return err
	}
	return ok(c, "", p)
}

func (h *PortfolioHandler) Status(c *fiber.Ctx) error {
	owner, err := paramUUID(c, "ownerId")
	if err != nil {
		return err
	}
	st, err := h.Portfolios.Status(c.UserContext(), owner)
	if err != nil {
		return err
	}
	return ok(c, "", fiber.Map{"status": st})
}

func (h *PortfolioHandler) ListApproved(c *fiber.Ctx) error {
	items, err := h.Portfolios.ListApproved(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, "", items)
}

func (h *PortfolioHandler) ListApprovedWithUsers(c *fiber.Ctx) error {
	items, err := h.Portfolios.ListApprovedWithUsers(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, "", items)
}

type addServiceReq struct {
	UserID      string           `json:"userId"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Pricing     []models.Pricing `json:"pricing"`
}

func (h *PortfolioHandler) AddService(c *fiber.Ctx) error {
	var req addServiceReq
	if err := c.BodyParser(&req); err != nil {
		return apperrors.Validation("invalid body")
	}
	owner, err := ownerID(c, req.UserID)
	if err != nil {
		return err
	}

	id, err := h.Portfolios.AddService(c.UserContext(), owner, portfolio.ServiceInput{
		Name:        req.Name,
		Description: req.Description,
		Pricing:     req.Pricing,
	})
	if err != nil {
		return err
	}
	return created(c, "service added", fiber.Map{"serviceId": id})
}

// AddVideo handles POST /add-video (multipart, file field "video").
func (h *PortfolioHandler) AddVideo(c *fiber.Ctx) error {
	owner, err := ownerID(c, c.FormValue("userId"))
	if err != nil {
		return err
	}
	if owner == nil {
		return apperrors.Validation("userId is required")
	}
	key := c.FormValue("serviceId")
	if key == "" {
		key = c.FormValue("serviceName")
	}

	fh, err := c.FormFile("video")
	if err != nil {
		return apperrors.Validation("video file is required")
	}

	up := &uploads{files: h.Files}
	ref, err := up.files.SaveFile(c.UserContext(), fh, "videos", storage.VideoExts, storage.MaxVideoSize)
	if err != nil {
		return err
	}
	up.refs = append(up.refs, ref)

	thumb := c.FormValue("thumbnail")
	if t, err := up.image(c, "thumbnailFile", "thumbnails", h.MaxImageWidth); err != nil {
		up.discard(c.UserContext())
		return err
	} else if t != "" {
		thumb = t
	}

	video, err := h.Portfolios.AddVideo(c.UserContext(), owner, key, ref, thumb)
	if err != nil {
		up.discard(c.UserContext())
		return err
	}
	return created(c, "video added", video)
}

type removeVideoReq struct {
	UserID      string `json:"userId"`
	ServiceID   string `json:"serviceId"`
	ServiceName string `json:"serviceName"`
	VideoID     string `json:"videoId"`
}

func (h *PortfolioHandler) RemoveVideo(c *fiber.Ctx) error {
	var req removeVideoReq
	if err := c.BodyParser(&req); err != nil {
		return apperrors.Validation("invalid body")
	}
	owner, err := ownerID(c, req.UserID)
	if err != nil {
		return err
	}
	videoID, err := uuid.Parse(req.VideoID)
	if err != nil {
		return apperrors.Validation("invalid videoId")
	}
	key := req.ServiceID
	if key == "" {
		key = req.ServiceName
	}

	if err := h.Portfolios.RemoveVideo(c.UserContext(), owner, key, videoID); err != nil {
		return err
	}
	return ok(c, "video removed", nil)
}
