package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"socialnet/internal/model"
	"socialnet/internal/repository"
)

// UserService handles accounts, credentials and profiles.
type UserService struct {
	users   repository.UserRepository
	graph   repository.GraphRepository
	media   MediaStore
	cleanup MediaCleaner

	defaultImageURL string
	bcryptCost      int
	log             *zap.Logger
}

func NewUserService(
	users repository.UserRepository,
	graph repository.GraphRepository,
	media MediaStore,
	cleanup MediaCleaner,
	defaultImageURL string,
	log *zap.Logger,
) *UserService {
	return &UserService{
		users:           users,
		graph:           graph,
		media:           media,
		cleanup:         cleanup,
		defaultImageURL: defaultImageURL,
		bcryptCost:      bcrypt.DefaultCost,
		log:             log,
	}
}

// Register creates an account. When an image is supplied and cannot be stored, no account is created.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, model.ErrEmailExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		UserName:     strings.TrimSpace(req.UserName),
		Email:        email,
		PasswordHash: string(hashedPassword),
		Gender:       req.Gender,
		Description:  req.Description,
		City:         req.City,
		Country:      req.Country,
	}

	if req.Image != nil {
		uploaded, err := s.media.Ingest(ctx, model.ImageKindAvatar, req.Image)
		if err != nil {
			return nil, err
		}
		user.ProfileImage = &uploaded.URL
		user.ProfileImageKey = &uploaded.Key
	} else if s.defaultImageURL != "" {
		user.ProfileImage = lo.ToPtr(s.defaultImageURL)
	}

	if err := s.users.Create(ctx, user); err != nil {
		enqueueCleanup(s.cleanup, reasonUploadAbandoned, lo.FromPtr(user.ProfileImageKey))
		if errors.Is(err, model.ErrEmailExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info("user registered", zap.Int64("user_id", user.ID))
	return user, nil
}

// Login authenticates by email and password.
func (s *UserService) Login(ctx context.Context, req *model.LoginRequest) (*model.User, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			// Don't reveal whether the email exists
			return nil, model.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	return user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, userID int64, req *model.ChangePasswordRequest) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return model.ErrInvalidCurrentPassword
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.users.UpdatePassword(ctx, userID, string(hashedPassword))
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

// GetProfile loads the public profile. The block list is only included for the owner.
func (s *UserService) GetProfile(ctx context.Context, viewer model.Identity, id int64) (*model.Profile, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var followers, following, blocked []model.UserSummary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		followers, err = s.graph.Followers(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		following, err = s.graph.Following(gctx, id)
		return err
	})
	if viewer.UserID == id {
		g.Go(func() error {
			var err error
			blocked, err = s.graph.Blocked(gctx, id)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	profile := &model.Profile{
		ID:           user.ID,
		UserName:     user.UserName,
		Email:        user.Email,
		IsAdmin:      user.IsAdmin,
		Gender:       user.Gender,
		Description:  user.Description,
		City:         user.City,
		Country:      user.Country,
		ProfileImage: user.ProfileImage,
		Followers:    followers,
		Following:    following,
		CreatedAt:    user.CreatedAt,
	}
	if viewer.UserID == id {
		profile.BlockList = lo.Map(blocked, func(u model.UserSummary, _ int) int64 { return u.ID })
	}

	return profile, nil
}

// UpdateProfile applies a partial update. Email, password and the admin flag are not reachable from here.
func (s *UserService) UpdateProfile(ctx context.Context, actor model.Identity, targetID int64, req *model.UpdateProfileRequest) (*model.User, error) {
	if actor.UserID != targetID {
		return nil, model.ErrNotProfileOwner
	}

	current, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if req.IsEmpty() {
		return current, nil
	}

	changes := model.ProfileChanges{
		UserName:    trimmedPtr(req.UserName),
		Gender:      req.Gender,
		Description: req.Description,
		City:        req.City,
		Country:     req.Country,
	}

	if req.Image != nil {
		uploaded, err := s.media.Ingest(ctx, model.ImageKindAvatar, req.Image)
		if err != nil {
			return nil, err
		}
		changes.ProfileImage = &uploaded.URL
		changes.ProfileImageKey = &uploaded.Key
	}

	updated, err := s.users.UpdateProfile(ctx, targetID, changes)
	if err != nil {
		enqueueCleanup(s.cleanup, reasonUploadAbandoned, lo.FromPtr(changes.ProfileImageKey))
		return nil, err
	}

	if changes.ProfileImageKey != nil {
		enqueueCleanup(s.cleanup, reasonImageReplaced, s.objectKey(current.ProfileImageKey, current.ProfileImage))
	}

	return updated, nil
}

// Delete removes a non-admin account and everything attached to it, then schedules its media for deletion.
func (s *UserService) Delete(ctx context.Context, actor model.Identity, targetID int64) error {
	if !actor.CanModify(targetID) {
		return model.ErrCannotDeleteUser
	}

	deleted, err := s.users.DeleteCascade(ctx, targetID)
	if err != nil {
		return err
	}

	keys := append([]string{s.objectKey(deleted.ProfileImageKey, deleted.ProfileImage)}, deleted.PostImageKeys...)
	enqueueCleanup(s.cleanup, reasonUserDeleted, keys...)

	s.log.Info("user deleted",
		zap.Int64("user_id", targetID),
		zap.Int64("actor_id", actor.UserID),
		zap.Int("media_keys", len(lo.Compact(keys))))
	return nil
}

// objectKey prefers the stored key and falls back to parsing the public URL.
func (s *UserService) objectKey(key, url *string) string {
	if k := lo.FromPtr(key); k != "" {
		return k
	}
	if url == nil || *url == s.defaultImageURL {
		return ""
	}
	return s.media.KeyFromURL(*url)
}

func trimmedPtr(v *string) *string {
	if v == nil {
		return nil
	}
	return lo.ToPtr(strings.TrimSpace(*v))
}
