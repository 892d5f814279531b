// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/blog-api/internal/auth"
	"github.com/carterperez-dev/blog-api/internal/core"
	"github.com/carterperez-dev/blog-api/internal/media"
	"github.com/carterperez-dev/blog-api/internal/middleware"
	"github.com/carterperez-dev/blog-api/internal/policy"
)

var ErrSelfDelete = errors.New("administrators cannot delete their own account")

type Service struct {
	repo   Repository
	store  media.Store
	hasher *core.Hasher
}

func NewService(repo Repository, store media.Store, hasher *core.Hasher) *Service {
	return &Service{
		repo:   repo,
		store:  store,
		hasher: hasher,
	}
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByEmail(ctx, auth.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) EmailExists(
	ctx context.Context,
	email string,
) (bool, error) {
	return s.repo.ExistsByEmail(ctx, auth.NormalizeEmail(email))
}

// Create stores the optional profile image first so the record never points
// at a missing object. The image is removed again if the insert fails.
func (s *Service) Create(
	ctx context.Context,
	u auth.NewUser,
) (*auth.UserInfo, error) {
	user := &User{
		ID:           s.repo.NewID(),
		Email:        auth.NormalizeEmail(u.Email),
		PasswordHash: u.PasswordHash,
		Name:         u.Name,
		Role:         u.Role,
		Contact:      u.Contact,
	}

	if !ValidRole(user.Role) {
		return nil, fmt.Errorf(
			"create user: invalid role %q: %w",
			user.Role,
			core.ErrInvalidInput,
		)
	}

	if u.Image != nil {
		key, err := s.putImage(ctx, user.ID, u.Image)
		if err != nil {
			return nil, err
		}
		user.ProfileImageKey = &key
	}

	if err := s.repo.Create(ctx, user); err != nil {
		s.removeImage(ctx, user.ProfileImageKey)
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) IncrementTokenVersion(
	ctx context.Context,
	userID string,
) error {
	return s.repo.IncrementTokenVersion(ctx, userID)
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

// ResolveIdentity loads the caller's current record for the auth
// middleware. Role comes from storage, not from the token.
func (s *Service) ResolveIdentity(
	ctx context.Context,
	userID string,
) (*middleware.Identity, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &middleware.Identity{
		UserID:       user.ID,
		Email:        user.Email,
		Name:         user.Name,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
	}, nil
}

func (s *Service) GetMe(
	ctx context.Context,
	userID string,
) (*auth.UserResponse, error) {
	if userID == "" {
		return nil, fmt.Errorf("get me: %w", core.ErrUnauthorized)
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := ToUserResponse(user)
	return &resp, nil
}

func (s *Service) UpdateMe(
	ctx context.Context,
	userID string,
	req UpdateProfileRequest,
) (*auth.UserResponse, error) {
	if userID == "" {
		return nil, fmt.Errorf("update me: %w", core.ErrUnauthorized)
	}

	if req.Empty() {
		return nil, fmt.Errorf("update me: %w", core.ErrNoFields)
	}

	return s.applyUpdate(ctx, userID, AdminUpdateRequest{
		Name:     req.Name,
		Password: req.Password,
		Contact:  req.Contact,
		Image:    req.Image,
	})
}

func (s *Service) ListUsers(ctx context.Context) (*UserListResponse, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	return &UserListResponse{
		Users: ToUserResponseList(users),
		Total: len(users),
	}, nil
}

func (s *Service) AdminUpdateUser(
	ctx context.Context,
	caller policy.Subject,
	id string,
	req AdminUpdateRequest,
) (_ *auth.UserResponse, err error) {
	ctx, span := core.StartSpan(ctx, "user.admin_update", targetAttrs(caller, id)...)
	defer func() { core.EndSpan(span, err) }()

	if err := policy.Authorize(caller, policy.UserUpdate, id); err != nil {
		return nil, err
	}

	if req.Empty() {
		return nil, fmt.Errorf("update user: %w", core.ErrNoFields)
	}

	if req.Role != nil && !ValidRole(*req.Role) {
		return nil, fmt.Errorf(
			"update user: invalid role %q: %w",
			*req.Role,
			core.ErrInvalidInput,
		)
	}

	return s.applyUpdate(ctx, id, req)
}

// applyUpdate writes the supplied fields. A password or role change bumps
// the token version in the same write so tokens minted before the change
// stop working.
func (s *Service) applyUpdate(
	ctx context.Context,
	id string,
	req AdminUpdateRequest,
) (*auth.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	revoke := false

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = auth.NormalizeEmail(*req.Email)
	}
	if req.Contact != nil {
		user.Contact = *req.Contact
	}
	if req.Role != nil && *req.Role != user.Role {
		user.Role = *req.Role
		revoke = true
	}
	if req.Password != nil {
		hash, hashErr := s.hasher.Hash(*req.Password)
		if hashErr != nil {
			return nil, fmt.Errorf("hash password: %w", hashErr)
		}
		user.PasswordHash = hash
		revoke = true
	}

	oldImage := user.ProfileImageKey
	if req.Image != nil {
		key, putErr := s.putImage(ctx, user.ID, req.Image)
		if putErr != nil {
			return nil, putErr
		}
		user.ProfileImageKey = &key
	}

	if err := s.repo.Update(ctx, user, revoke); err != nil {
		if req.Image != nil {
			s.removeImage(ctx, user.ProfileImageKey)
		}
		return nil, err
	}

	if req.Image != nil {
		s.removeImage(ctx, oldImage)
	}

	resp := ToUserResponse(user)
	return &resp, nil
}

func (s *Service) AdminDeleteUser(
	ctx context.Context,
	caller policy.Subject,
	id string,
) (err error) {
	ctx, span := core.StartSpan(ctx, "user.admin_delete", targetAttrs(caller, id)...)
	defer func() { core.EndSpan(span, err) }()

	if err := policy.Authorize(caller, policy.UserDelete, id); err != nil {
		return err
	}

	if caller.UserID == id {
		return fmt.Errorf("delete user: %w: %w", ErrSelfDelete, core.ErrForbidden)
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.removeImage(ctx, user.ProfileImageKey)
	return nil
}

func (s *Service) OpenProfileImage(
	ctx context.Context,
	id string,
) (*media.Object, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !user.HasProfileImage() {
		return nil, fmt.Errorf("profile image: %w", core.ErrNotFound)
	}

	return s.store.Get(ctx, *user.ProfileImageKey)
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

func (s *Service) putImage(
	ctx context.Context,
	userID string,
	upload *media.Upload,
) (string, error) {
	key := media.NewKey(media.KindProfile, userID)
	if err := s.store.Put(ctx, key, upload); err != nil {
		return "", fmt.Errorf("store profile image: %w", err)
	}
	return key, nil
}

func (s *Service) removeImage(ctx context.Context, key *string) {
	if key == nil || *key == "" {
		return
	}
	if err := s.store.Delete(ctx, *key); err != nil {
		slog.Warn("profile image cleanup failed", "key", *key, "error", err)
	}
}

func targetAttrs(caller policy.Subject, targetID string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("caller.id", caller.UserID),
		attribute.String("target.id", targetID),
	}
}

var (
	_ auth.UserProvider           = (*Service)(nil)
	_ middleware.IdentityResolver = (*Service)(nil)
)
