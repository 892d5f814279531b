// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/carterperez-dev/blog-api/internal/core"
	"github.com/carterperez-dev/blog-api/internal/policy"
)

const (
	IdentityKey contextKey = "identity"
	ClaimsKey   contextKey = "jwt_claims"
)

type TokenVerifier interface {
	VerifyAccessToken(
		ctx context.Context,
		token string,
	) (*AccessTokenClaims, error)
}

type AccessTokenClaims struct {
	UserID       string
	Role         string
	TokenID      string
	TokenVersion int
	ExpiresAt    time.Time
}

// Identity is the caller as the user record describes them right now, not
// as the token remembered them.
type Identity struct {
	UserID       string
	Email        string
	Name         string
	Role         string
	TokenVersion int
}

type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, userID string) (*Identity, error)
}

func Authenticator(
	verifier TokenVerifier,
	resolver IdentityResolver,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)

			if token == "" {
				core.JSONError(
					w,
					core.UnauthorizedError("missing authorization token"),
				)
				return
			}

			ctx, err := authenticate(r.Context(), verifier, resolver, token)
			if err != nil {
				handleAuthError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches an identity when a usable token is present and lets
// the request through as anonymous otherwise.
func OptionalAuth(
	verifier TokenVerifier,
	resolver IdentityResolver,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)

			if token != "" {
				ctx, err := authenticate(r.Context(), verifier, resolver, token)
				if err == nil {
					r = r.WithContext(ctx)
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func authenticate(
	ctx context.Context,
	verifier TokenVerifier,
	resolver IdentityResolver,
	token string,
) (context.Context, error) {
	claims, err := verifier.VerifyAccessToken(ctx, token)
	if err != nil {
		return nil, err
	}

	identity, err := resolver.ResolveIdentity(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	if claims.TokenVersion < identity.TokenVersion {
		return nil, core.ErrTokenRevoked
	}

	ctx = context.WithValue(ctx, IdentityKey, identity)
	ctx = context.WithValue(ctx, ClaimsKey, claims)

	return ctx, nil
}

func RequireRole(roles ...string) func(http.Handler) http.Handler {
	roleSet := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userRole := GetUserRole(r.Context())

			if userRole == "" {
				core.JSONError(
					w,
					core.UnauthorizedError("authentication required"),
				)
				return
			}

			if _, ok := roleSet[userRole]; !ok {
				core.JSONError(
					w,
					core.ForbiddenError("insufficient permissions"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(policy.RoleAdmin)(next)
}

func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func handleAuthError(w http.ResponseWriter, err error) {
	if core.IsAppError(err) {
		core.JSONError(w, err)
		return
	}

	switch {
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "user")
	case errors.Is(err, core.ErrTokenExpired):
		core.JSONError(w, core.TokenExpiredError())
	case errors.Is(err, core.ErrTokenRevoked):
		core.JSONError(w, core.TokenRevokedError())
	case errors.Is(err, core.ErrTokenInvalid):
		core.JSONError(w, core.TokenInvalidError())
	default:
		core.InternalServerError(w, err)
	}
}

func GetIdentity(ctx context.Context) *Identity {
	if identity, ok := ctx.Value(IdentityKey).(*Identity); ok {
		return identity
	}
	return nil
}

func GetUserID(ctx context.Context) string {
	if identity := GetIdentity(ctx); identity != nil {
		return identity.UserID
	}
	return ""
}

func GetUserRole(ctx context.Context) string {
	if identity := GetIdentity(ctx); identity != nil {
		return identity.Role
	}
	return ""
}

func GetClaims(ctx context.Context) *AccessTokenClaims {
	if claims, ok := ctx.Value(ClaimsKey).(*AccessTokenClaims); ok {
		return claims
	}
	return nil
}

// GetSubject returns the caller for policy checks; anonymous when no
// identity is attached.
func GetSubject(ctx context.Context) policy.Subject {
	identity := GetIdentity(ctx)
	if identity == nil {
		return policy.Subject{}
	}
	return policy.Subject{UserID: identity.UserID, Role: identity.Role}
}

func IsAuthenticated(ctx context.Context) bool {
	return GetUserID(ctx) != ""
}

func IsAdmin(ctx context.Context) bool {
	return GetUserRole(ctx) == policy.RoleAdmin
}
