package users

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/gigfolio/gigfolio_be/internal/apperrors"
	"github.com/gigfolio/gigfolio_be/internal/logger"
	"github.com/gigfolio/gigfolio_be/internal/models"
	"github.com/gigfolio/gigfolio_be/internal/utils"
	"github.com/gigfolio/gigfolio_be/internal/validator"
)

const handleAttempts = 5

type FileRemover interface {
	Delete(ctx context.Context, ref string) error
}

type Service struct {
	store        Store
	HandlePrefix string
	Files        FileRemover
}

func NewService(store Store, handlePrefix string, files FileRemover) *Service {
	return &Service{store: store, HandlePrefix: handlePrefix, Files: files}
}

type RegisterInput struct {
	Name     string `json:"name" validate:"notblank"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	// admin accounts are never created from the public endpoint
	Role string `json:"role" validate:"omitempty,oneof=client freelancer"`
}

// Register creates an account with a fresh handle and zero points.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Password = strings.TrimSpace(in.Password)
	if err := validator.Struct(in); err != nil {
		return nil, err
	}

	exists, err := s.emailTaken(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.Conflict("email already registered").
			WithDetails(map[string]string{"email": "is already registered"})
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to process password")
	}

	role := models.RoleClient
	if in.Role == string(models.RoleFreelancer) {
		role = models.RoleFreelancer
	}
	u := &models.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: hash,
		Role:     role,
		Tier:     models.TierBronze,
		IsActive: true,
	}
	if err := s.create(ctx, u); err != nil {
		return nil, err
	}
	logger.Info("user registered", "user_id", u.ID, "handle", u.HandleString())
	return u, nil
}

// create inserts u with a generated handle, retrying on handle collisions.
func (s *Service) create(ctx context.Context, u *models.User) error {
	for i := 0; i < handleAttempts; i++ {
		h := GenerateHandle(s.HandlePrefix)
		u.Handle = &h

		err := s.store.Create(ctx, u)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrDuplicate) {
			return apperrors.Internal(err, "failed to create account")
		}
		if taken, _ := s.emailTaken(ctx, u.Email); taken {
			return apperrors.Conflict("email already registered")
		}
	}
	return apperrors.Internal(errors.New("handle space exhausted"), "failed to create account")
}

func (s *Service) emailTaken(ctx context.Context, email string) (bool, error) {
	_, err := s.store.FindByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.Internal(err, "failed to check email")
	}
	return true, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, apperrors.Validation("email and password are required")
	}

	u, err := s.store.FindByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, apperrors.Unauthorized("invalid email or password")
	}
	if err != nil {
		return nil, apperrors.Internal(err, "failed to load account")
	}
	if !utils.CheckPassword(u.Password, strings.TrimSpace(password)) {
		return nil, apperrors.Unauthorized("invalid email or password")
	}
	if !u.IsActive {
		return nil, apperrors.Forbidden("account is inactive")
	}

	s.repair(ctx, u)
	return u, nil
}

// Get loads a user and lazily repairs a missing handle or stale tier.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.store.FindByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperrors.NotFound("user not found")
	}
	if err != nil {
		return nil, apperrors.Internal(err, "failed to load user")
	}
	s.repair(ctx, u)
	return u, nil
}

type ProfileInput struct {
	Name         *string `json:"name"`
	Profession   *string `json:"profession"`
	ProfileImage string  `json:"-"`
}

// UpdateProfile edits the mutable profile fields. A replaced profile image
// is removed from disk afterwards unless a portfolio still shows it.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, in ProfileInput) (*models.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperrors.Validation("name is required")
		}
		updates["name"] = name
	}
	if in.Profession != nil {
		updates["profession"] = strings.TrimSpace(*in.Profession)
	}
	oldImage := u.ProfileImage
	if in.ProfileImage != "" {
		updates["profile_image"] = in.ProfileImage
	}
	if len(updates) == 0 {
		return u, nil
	}

	if err := s.store.Update(ctx, u.ID, updates); err != nil {
		return nil, apperrors.Internal(err, "failed to update profile")
	}
	if v, ok := updates["name"].(string); ok {
		u.Name = v
	}
	if v, ok := updates["profession"].(string); ok {
		u.Profession = v
	}
	if in.ProfileImage != "" {
		u.ProfileImage = in.ProfileImage
	}

	if in.ProfileImage != "" && oldImage != "" && oldImage != in.ProfileImage {
		s.releaseImage(ctx, id, oldImage)
	}
	return u, nil
}

// releaseImage deletes a replaced profile image. Portfolio moderation copies
// the account image onto the submission, so a file still shown there stays.
func (s *Service) releaseImage(ctx context.Context, userID uuid.UUID, ref string) {
	if s.Files == nil {
		return
	}
	inUse, err := s.store.ImageInUse(ctx, ref)
	if err != nil {
		logger.Warn("failed to check image references, keeping file", "user_id", userID, "ref", ref, "error", err)
		return
	}
	if inUse {
		logger.Debug("old profile image still shown by a portfolio", "user_id", userID, "ref", ref)
		return
	}
	if err := s.Files.Delete(ctx, ref); err != nil {
		logger.Warn("failed to delete old profile image", "user_id", userID, "ref", ref, "error", err)
	}
}

// GoogleSignIn finds the account for a verified Google email or creates a
// client account for it.
func (s *Service) GoogleSignIn(ctx context.Context, email, name, picture string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if email == "" {
		return nil, apperrors.Validation("email not provided by google")
	}

	existing, err := s.store.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if name != "" && existing.Name != name {
			if err := s.store.Update(ctx, existing.ID, map[string]any{"name": name}); err != nil {
				logger.Warn("failed to sync google name", "user_id", existing.ID, "error", err)
			} else {
				existing.Name = name
			}
		}
		s.repair(ctx, existing)
		return existing, nil
	case !errors.Is(err, ErrNotFound):
		return nil, apperrors.Internal(err, "failed to load account")
	}

	// password is never used, the account signs in through google
	hash, err := utils.HashPassword(randomSecret(24))
	if err != nil {
		return nil, apperrors.Internal(err, "failed to process password")
	}
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	u := models.User{
		Name:         name,
		Email:        email,
		Password:     hash,
		Role:         models.RoleClient,
		ProfileImage: picture,
		Tier:         models.TierBronze,
		IsActive:     true,
	}
	if err := s.create(ctx, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

type BackfillResult struct {
	Scanned         int `json:"scanned"`
	HandlesAssigned int `json:"handles_assigned"`
	TiersFixed      int `json:"tiers_fixed"`
	Failed          int `json:"failed"`
}

// BackfillHandles walks every user sequentially, one save per user, giving
// missing handles and fixing tiers that drifted from the point total.
func (s *Service) BackfillHandles(ctx context.Context) (BackfillResult, error) {
	var res BackfillResult
	err := s.store.EachUser(ctx, func(u *models.User) {
		res.Scanned++
		r, err := s.fix(ctx, u)
		if err != nil {
			res.Failed++
			logger.Warn("user backfill failed", "user_id", u.ID, "error", err)
			return
		}
		if r.handle {
			res.HandlesAssigned++
		}
		if r.tier {
			res.TiersFixed++
		}
	})
	if err != nil {
		return res, apperrors.Internal(err, "failed to backfill users")
	}

	logger.Info("user backfill done", "scanned", res.Scanned, "handles", res.HandlesAssigned, "tiers", res.TiersFixed, "failed", res.Failed)
	return res, nil
}

func (s *Service) repair(ctx context.Context, u *models.User) {
	if _, err := s.fix(ctx, u); err != nil {
		logger.Warn("failed to repair user", "user_id", u.ID, "error", err)
	}
}

type fixed struct {
	handle bool
	tier   bool
}

// fix gives u a handle when it has none and realigns its tier with its
// points, in a single write.
func (s *Service) fix(ctx context.Context, u *models.User) (fixed, error) {
	var r fixed
	fields := map[string]any{}
	want := TierFor(u.Points)
	if u.Tier != want {
		fields["tier"] = want
	}

	if u.Handle == nil {
		assigned, err := s.assignHandle(ctx, u, fields)
		if err != nil {
			return r, err
		}
		if assigned {
			r.handle = true
			r.tier = len(fields) > 0
			u.Tier = want
			return r, nil
		}
	}
	if len(fields) == 0 {
		return r, nil
	}
	if err := s.store.Update(ctx, u.ID, fields); err != nil {
		return r, err
	}
	u.Tier = want
	r.tier = true
	return r, nil
}

// assignHandle sets a handle only while the row still has none, so
// concurrent repairs keep whichever handle was written first. fields are
// written along with the handle.
func (s *Service) assignHandle(ctx context.Context, u *models.User, fields map[string]any) (bool, error) {
	for i := 0; i < handleAttempts; i++ {
		h := GenerateHandle(s.HandlePrefix)
		ok, err := s.store.AssignHandle(ctx, u.ID, h, fields)
		if errors.Is(err, ErrDuplicate) {
			continue
		}
		if err != nil {
			return false, err
		}
		if !ok {
			cur, err := s.store.FindByID(ctx, u.ID)
			if err != nil {
				return false, err
			}
			u.Handle = cur.Handle
			return false, nil
		}
		u.Handle = &h
		return true, nil
	}
	return false, errors.New("no free handle after retries")
}

func randomSecret(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
