// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/blog-api/internal/core"
	"github.com/carterperez-dev/blog-api/internal/media"
	"github.com/carterperez-dev/blog-api/internal/middleware"
	"github.com/carterperez-dev/blog-api/internal/policy"
)

var (
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", core.ErrUnauthorized)
	ErrEmailExists        = fmt.Errorf("email already exists: %w", core.ErrDuplicateKey)
	ErrAdminSignup        = fmt.Errorf("admin accounts cannot self-register: %w", core.ErrForbidden)
)

type UserInfo struct {
	ID              string
	Email           string
	Name            string
	PasswordHash    string
	Role            string
	Contact         string
	HasProfileImage bool
	TokenVersion    int
	CreatedAt       time.Time
}

type NewUser struct {
	Email        string
	PasswordHash string
	Name         string
	Role         string
	Contact      string
	Image        *media.Upload
}

type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u NewUser) (*UserInfo, error)
	IncrementTokenVersion(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

type Service struct {
	jwt          *JWTManager
	hasher       *core.Hasher
	userProvider UserProvider
	denylist     Denylist
}

func NewService(
	jwt *JWTManager,
	hasher *core.Hasher,
	userProvider UserProvider,
	denylist Denylist,
) *Service {
	return &Service{
		jwt:          jwt,
		hasher:       hasher,
		userProvider: userProvider,
		denylist:     denylist,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) Signup(
	ctx context.Context,
	req SignupRequest,
) (_ *UserResponse, err error) {
	ctx, span := core.StartSpan(ctx, "auth.signup")
	defer func() { core.EndSpan(span, err) }()

	if req.Role != "" && req.Role != policy.RoleUser {
		return nil, fmt.Errorf("signup: %w", ErrAdminSignup)
	}

	user, err := s.createUser(ctx, NewUser{
		Email:   req.Email,
		Name:    req.Name,
		Role:    policy.RoleUser,
		Contact: req.Contact,
		Image:   req.Image,
	}, req.Password)
	if err != nil {
		return nil, err
	}

	resp := ToUserResponse(user)
	return &resp, nil
}

// ProvisionAdmin is the only path that creates administrators. The caller
// must already be an admin, or be a trusted process such as the bootstrap.
func (s *Service) ProvisionAdmin(
	ctx context.Context,
	caller policy.Subject,
	req ProvisionAdminRequest,
) (*UserResponse, error) {
	if err := policy.Authorize(caller, policy.UserProvision, ""); err != nil {
		return nil, err
	}

	return s.provisionAdmin(ctx, req)
}

// EnsureAdmin seeds an administrator from trusted configuration. It is a
// no-op when the email is already registered.
func (s *Service) EnsureAdmin(
	ctx context.Context,
	req ProvisionAdminRequest,
) (bool, error) {
	exists, err := s.userProvider.EmailExists(ctx, NormalizeEmail(req.Email))
	if err != nil {
		return false, fmt.Errorf("check admin email: %w", err)
	}
	if exists {
		return false, nil
	}

	if _, err := s.provisionAdmin(ctx, req); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

func (s *Service) provisionAdmin(
	ctx context.Context,
	req ProvisionAdminRequest,
) (*UserResponse, error) {
	user, err := s.createUser(ctx, NewUser{
		Email:   req.Email,
		Name:    req.Name,
		Role:    policy.RoleAdmin,
		Contact: req.Contact,
	}, req.Password)
	if err != nil {
		return nil, err
	}

	slog.Info("administrator provisioned", "user_id", user.ID)

	resp := ToUserResponse(user)
	return &resp, nil
}

func (s *Service) createUser(
	ctx context.Context,
	u NewUser,
	password string,
) (*UserInfo, error) {
	u.Email = NormalizeEmail(u.Email)

	exists, err := s.userProvider.EmailExists(ctx, u.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, ErrEmailExists
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = passwordHash

	user, err := s.userProvider.Create(ctx, u)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
) (_ *LoginResponse, err error) {
	ctx, span := core.StartSpan(ctx, "auth.login")
	defer func() { core.EndSpan(span, err) }()

	user, err := s.userProvider.GetByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
			_, _, _ = s.hasher.VerifyTimingSafe(req.Password, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, newHash, err := s.hasher.VerifyTimingSafe(
		req.Password,
		&user.PasswordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return nil, ErrInvalidCredentials
	}

	if newHash != "" {
		if err := s.userProvider.UpdatePassword(ctx, user.ID, newHash); err != nil {
			slog.Warn("password rehash failed", "user_id", user.ID, "error", err)
		}
	}

	issued, err := s.jwt.Issue(user.ID, user.Role, user.TokenVersion)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	span.SetAttributes(
		attribute.String("user.id", user.ID),
		attribute.String("user.role", user.Role),
	)

	return &LoginResponse{
		AccessToken: issued.Token,
		TokenType:   "Bearer",
		ExpiresIn:   int(issued.ExpiresAt.Sub(issued.IssuedAt) / time.Second),
		ExpiresAt:   issued.ExpiresAt,
		Role:        user.Role,
		UserID:      user.ID,
		User:        ToUserResponse(user),
	}, nil
}

// Logout revokes the presented token only.
func (s *Service) Logout(
	ctx context.Context,
	claims *middleware.AccessTokenClaims,
) error {
	if claims == nil {
		return fmt.Errorf("logout: %w", core.ErrUnauthorized)
	}

	if err := s.denylist.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	return nil
}

// LogoutAll invalidates every token issued to the user so far.
func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	if err := s.userProvider.IncrementTokenVersion(ctx, userID); err != nil {
		return fmt.Errorf("increment token version: %w", err)
	}

	return nil
}

// VerifyAccessToken validates the token and consults the denylist. A
// denylist outage fails closed.
func (s *Service) VerifyAccessToken(
	ctx context.Context,
	token string,
) (*middleware.AccessTokenClaims, error) {
	claims, err := s.jwt.Validate(token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.denylist.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	if revoked {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	return claims, nil
}

var _ middleware.TokenVerifier = (*Service)(nil)
