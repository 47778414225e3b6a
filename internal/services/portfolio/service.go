package portfolio

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/gigfolio/gigfolio_be/internal/apperrors"
	"github.com/gigfolio/gigfolio_be/internal/logger"
	"github.com/gigfolio/gigfolio_be/internal/models"
	"github.com/gigfolio/gigfolio_be/internal/validator"
)

// maxAttempts bounds the reload-and-reapply loop after a version conflict.
const maxAttempts = 3

// FileRemover deletes stored uploads. Implementations ignore references they
// do not manage (placeholders, external URLs).
type FileRemover interface {
	Delete(ctx context.Context, ref string) error
}

// Notifier tells an owner their submission changed status.
type Notifier interface {
	PortfolioStatusChanged(ctx context.Context, ownerID uuid.UUID, p *models.PortfolioSubmission)
}

type Service struct {
	store    Store
	files    FileRemover
	notifier Notifier
	now      func() time.Time
}

func NewService(store Store, files FileRemover, notifier Notifier) *Service {
	return &Service{store: store, files: files, notifier: notifier, now: time.Now}
}

type ServiceInput struct {
	Name        string           `json:"name" validate:"notblank"`
	Description string           `json:"description"`
	Pricing     []models.Pricing `json:"pricing"`
}

type SubmitInput struct {
	OwnerID *uuid.UUID

	Name          string
	Email         string
	Profession    string
	Headline      string // legacy clients send this instead of profession
	About         string
	PortfolioLink string
	ResumePath    string
	ProfileImage  string
	CoverImage    string

	Service         *ServiceInput
	IsNewSubmission bool
}

// SubmitOrUpdate upserts the owner's submission. Without an owner a new
// document is always created. A new submission always returns to pending,
// so editing an approved portfolio hides it until it is re-approved.
func (s *Service) SubmitOrUpdate(ctx context.Context, in SubmitInput) (*models.PortfolioSubmission, error) {
	if in.Service != nil {
		if err := validator.Struct(in.Service); err != nil {
			return nil, err
		}
	}

	var replaced []string
	apply := func(p *models.PortfolioSubmission, created bool) error {
		replaced = replaced[:0]
		if in.ProfileImage != "" && p.ProfileImage != "" && p.ProfileImage != in.ProfileImage {
			replaced = append(replaced, p.ProfileImage)
		}
		if in.CoverImage != "" && p.CoverImage != "" && p.CoverImage != in.CoverImage {
			replaced = append(replaced, p.CoverImage)
		}
		if resume := strings.TrimSpace(in.ResumePath); resume != "" && p.ResumePath != "" && p.ResumePath != resume {
			replaced = append(replaced, p.ResumePath)
		}

		mergeFields(p, in)

		if in.Service != nil {
			// appended even if a service with the same name exists
			p.Services = append(p.Services, newService(*in.Service))
		}
		if in.IsNewSubmission || created {
			p.Status = models.PortfolioPending
			p.SubmittedDate = s.now()
		}
		return nil
	}

	var (
		p   *models.PortfolioSubmission
		err error
	)
	if in.OwnerID == nil {
		p = s.newSubmission(nil)
		if err := apply(p, true); err != nil {
			return nil, err
		}
		p.UpdatedDate = s.now()
		if err := s.store.Create(ctx, p); err != nil {
			return nil, apperrors.Internal(err, "failed to save portfolio")
		}
	} else {
		p, err = s.mutate(ctx, s.byOwner(*in.OwnerID, true), apply)
		if err != nil {
			return nil, err
		}
	}

	s.discard(ctx, p.UserID, replaced)
	return p, nil
}

// discard removes files a submission no longer shows. The owner's current
// account image is kept since moderation copies it onto the submission.
func (s *Service) discard(ctx context.Context, ownerID *uuid.UUID, refs []string) {
	if len(refs) == 0 {
		return
	}
	var ownerImage string
	if ownerID != nil {
		users, err := s.store.UsersByID(ctx, []uuid.UUID{*ownerID})
		if err != nil {
			logger.Warn("owner lookup failed, keeping replaced files", "user_id", *ownerID, "error", err)
			return
		}
		ownerImage = users[*ownerID].ProfileImage
	}
	for _, ref := range refs {
		if ref == ownerImage {
			continue
		}
		s.removeFile(ctx, ref)
	}
}

func mergeFields(p *models.PortfolioSubmission, in SubmitInput) {
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&p.Name, in.Name)
	set(&p.Email, strings.ToLower(in.Email))
	profession := in.Profession
	if strings.TrimSpace(profession) == "" {
		profession = in.Headline
	}
	set(&p.Profession, profession)
	set(&p.About, in.About)
	set(&p.PortfolioLink, in.PortfolioLink)
	set(&p.ResumePath, in.ResumePath)
	set(&p.ProfileImage, in.ProfileImage)
	set(&p.CoverImage, in.CoverImage)
}

// AddService appends a service to the owner's portfolio, creating a pending
// portfolio when the owner has none, and returns the new service id.
func (s *Service) AddService(ctx context.Context, ownerID *uuid.UUID, in ServiceInput) (uuid.UUID, error) {
	if ownerID == nil {
		return uuid.Nil, apperrors.Validation("userId is required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return uuid.Nil, apperrors.Validation("service name is required")
	}

	svc := newService(in)
	_, err := s.mutate(ctx, s.byOwner(*ownerID, true), func(p *models.PortfolioSubmission, _ bool) error {
		p.Services = append(p.Services, svc)
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return svc.ID, nil
}

// AddVideo appends a video to the service matched by serviceKey.
func (s *Service) AddVideo(ctx context.Context, ownerID *uuid.UUID, serviceKey, url, thumbnail string) (*models.Video, error) {
	if ownerID == nil {
		return nil, apperrors.Validation("userId is required")
	}
	if strings.TrimSpace(serviceKey) == "" {
		return nil, apperrors.Validation("serviceName is required")
	}
	if url == "" {
		return nil, apperrors.Validation("video file is required")
	}

	video := models.Video{ID: uuid.New(), URL: url, Thumbnail: thumbnail, CreatedAt: s.now()}
	_, err := s.mutate(ctx, s.byOwner(*ownerID, false), func(p *models.PortfolioSubmission, _ bool) error {
		i := models.FindService(p.Services, serviceKey)
		if i < 0 {
			return apperrors.NotFound("service not found")
		}
		p.Services[i].Videos = append(p.Services[i].Videos, video)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &video, nil
}

// RemoveVideo deletes a video from a service and then, best-effort, its
// file and thumbnail.
func (s *Service) RemoveVideo(ctx context.Context, ownerID *uuid.UUID, serviceKey string, videoID uuid.UUID) error {
	if ownerID == nil {
		return apperrors.Validation("userId is required")
	}

	var removed models.Video
	_, err := s.mutate(ctx, s.byOwner(*ownerID, false), func(p *models.PortfolioSubmission, _ bool) error {
		i := models.FindService(p.Services, serviceKey)
		if i < 0 {
			return apperrors.NotFound("service not found")
		}
		videos := p.Services[i].Videos
		for j, v := range videos {
			if v.ID == videoID {
				removed = v
				p.Services[i].Videos = append(videos[:j:j], videos[j+1:]...)
				return nil
			}
		}
		return apperrors.NotFound("video not found")
	})
	if err != nil {
		return err
	}

	s.removeFile(ctx, removed.URL)
	s.removeFile(ctx, removed.Thumbnail)
	return nil
}

func (s *Service) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*models.PortfolioSubmission, error) {
	p, err := s.store.FindByOwner(ctx, ownerID)
	if errors.Is(err, ErrNotFound) {
		return nil, apperrors.NotFound("portfolio not found")
	}
	if err != nil {
		return nil, apperrors.Internal(err, "failed to load portfolio")
	}
	return p, nil
}

// Status returns the owner's submission status, nil when there is none.
func (s *Service) Status(ctx context.Context, ownerID uuid.UUID) (*models.PortfolioStatus, error) {
	p, err := s.store.FindByOwner(ctx, ownerID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Internal(err, "failed to load portfolio")
	}
	st := p.Status
	return &st, nil
}

func newService(in ServiceInput) models.Service {
	name := strings.TrimSpace(in.Name)
	pricing := append([]models.Pricing{}, in.Pricing...)
	return models.Service{
		ID:          uuid.New(),
		Name:        name,
		Slug:        models.Slugify(name),
		Description: strings.TrimSpace(in.Description),
		Pricing:     pricing,
		Videos:      []models.Video{},
	}
}

func (s *Service) newSubmission(ownerID *uuid.UUID) *models.PortfolioSubmission {
	now := s.now()
	return &models.PortfolioSubmission{
		ID:            uuid.New(),
		UserID:        ownerID,
		Status:        models.PortfolioPending,
		Services:      datatypes.JSONSlice[models.Service]{},
		SubmittedDate: now,
		UpdatedDate:   now,
		Version:       1,
	}
}

func (s *Service) removeFile(ctx context.Context, ref string) {
	if s.files == nil || ref == "" {
		return
	}
	if err := s.files.Delete(ctx, ref); err != nil {
		logger.Warn("failed to delete stored file", "ref", ref, "error", err)
	}
}

// load returns the document to mutate; isNew means it must be created.
type load func(ctx context.Context) (p *models.PortfolioSubmission, isNew bool, err error)

func (s *Service) byOwner(ownerID uuid.UUID, createIfMissing bool) load {
	return func(ctx context.Context) (*models.PortfolioSubmission, bool, error) {
		p, err := s.store.FindByOwner(ctx, ownerID)
		switch {
		case err == nil:
			return p, false, nil
		case !errors.Is(err, ErrNotFound):
			return nil, false, apperrors.Internal(err, "failed to load portfolio")
		case !createIfMissing:
			return nil, false, apperrors.NotFound("portfolio not found")
		}
		owner := ownerID
		return s.newSubmission(&owner), true, nil
	}
}

func (s *Service) byID(id uuid.UUID) load {
	return func(ctx context.Context) (*models.PortfolioSubmission, bool, error) {
		p, err := s.store.FindByID(ctx, id)
		if errors.Is(err, ErrNotFound) {
			return nil, false, apperrors.NotFound("portfolio submission not found")
		}
		if err != nil {
			return nil, false, apperrors.Internal(err, "failed to load portfolio")
		}
		return p, false, nil
	}
}

// mutate runs load -> apply -> conditional write, reloading and re-applying
// on version conflicts. apply may run more than once.
func (s *Service) mutate(ctx context.Context, ld load, apply func(p *models.PortfolioSubmission, isNew bool) error) (*models.PortfolioSubmission, error) {
	for attempt := 1; ; attempt++ {
		p, isNew, err := ld(ctx)
		if err != nil {
			return nil, err
		}
		if err := apply(p, isNew); err != nil {
			return nil, err
		}
		p.UpdatedDate = s.now()

		if isNew {
			err = s.store.Create(ctx, p)
		} else {
			err = s.store.Update(ctx, p)
		}
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return nil, apperrors.Internal(err, "failed to save portfolio")
		}
		if attempt == maxAttempts {
			return nil, apperrors.Conflict("portfolio was modified concurrently, please retry")
		}
		logger.Warn("portfolio write conflict, retrying", "submission_id", p.ID, "attempt", attempt)
	}
}
