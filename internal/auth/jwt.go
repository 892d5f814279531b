// AngelaMos | 2026
// jwt.go

package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/blog-api/internal/config"
	"github.com/carterperez-dev/blog-api/internal/core"
	"github.com/carterperez-dev/blog-api/internal/middleware"
)

const (
	minSecretLength = 32
	tokenTypeAccess = "access"
)

// JWTManager issues and validates HS256 access tokens. Tokens are checked by
// signature and wall-clock expiry only; revocation lives in Service.
type JWTManager struct {
	key    jwk.Key
	config config.JWTConfig
	now    func() time.Time
}

func NewJWTManager(cfg config.JWTConfig) (*JWTManager, error) {
	if len(cfg.Secret) < minSecretLength {
		return nil, fmt.Errorf(
			"jwt secret must be at least %d bytes: %w",
			minSecretLength,
			core.ErrInvalidInput,
		)
	}

	key, err := jwk.Import([]byte(cfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("import secret: %w", err)
	}

	if setErr := key.Set(jwk.AlgorithmKey, jwa.HS256()); setErr != nil {
		return nil, fmt.Errorf("set algorithm: %w", setErr)
	}

	if setErr := key.Set(jwk.KeyIDKey, secretKeyID(cfg.Secret)); setErr != nil {
		return nil, fmt.Errorf("set key id: %w", setErr)
	}

	return &JWTManager{
		key:    key,
		config: cfg,
		now:    time.Now,
	}, nil
}

// secretKeyID is stable across restarts and does not reveal the secret.
func secretKeyID(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:4])
}

type IssuedToken struct {
	Token     string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func (m *JWTManager) Issue(
	userID, role string,
	tokenVersion int,
) (*IssuedToken, error) {
	now := m.now().Truncate(time.Second)
	expiresAt := now.Add(m.config.AccessTokenExpire)
	tokenID := uuid.New().String()

	token, err := jwt.NewBuilder().
		JwtID(tokenID).
		Issuer(m.config.Issuer).
		Audience([]string{m.config.Audience}).
		Subject(userID).
		IssuedAt(now).
		Expiration(expiresAt).
		Claim("user_id", userID).
		Claim("role", role).
		Claim("token_version", tokenVersion).
		Claim("type", tokenTypeAccess).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), m.key))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &IssuedToken{
		Token:     string(signed),
		TokenID:   tokenID,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	}, nil
}

// Validate accepts a token up to and including its exp instant.
func (m *JWTManager) Validate(
	tokenString string,
) (*middleware.AccessTokenClaims, error) {
	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.HS256(), m.key),
		jwt.WithValidate(false),
	)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
	}

	expiresAt, ok := token.Expiration()
	if !ok {
		return nil, fmt.Errorf("verify token: missing exp: %w", core.ErrTokenInvalid)
	}
	if m.now().After(expiresAt) {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenExpired)
	}

	if issuer, ok := token.Issuer(); !ok || issuer != m.config.Issuer {
		return nil, fmt.Errorf("verify token: bad issuer: %w", core.ErrTokenInvalid)
	}

	if audience, ok := token.Audience(); !ok ||
		!slices.Contains(audience, m.config.Audience) {
		return nil, fmt.Errorf("verify token: bad audience: %w", core.ErrTokenInvalid)
	}

	var tokenType string
	if err := token.Get("type", &tokenType); err != nil ||
		tokenType != tokenTypeAccess {
		return nil, fmt.Errorf(
			"verify token: invalid token type: %w",
			core.ErrTokenInvalid,
		)
	}

	var userID string
	if err := token.Get("user_id", &userID); err != nil || userID == "" {
		return nil, fmt.Errorf(
			"verify token: missing user_id claim: %w",
			core.ErrTokenInvalid,
		)
	}

	var role string
	if err := token.Get("role", &role); err != nil {
		return nil, fmt.Errorf(
			"verify token: missing role claim: %w",
			core.ErrTokenInvalid,
		)
	}

	var versionFloat float64
	if err := token.Get("token_version", &versionFloat); err != nil {
		return nil, fmt.Errorf(
			"verify token: missing token_version claim: %w",
			core.ErrTokenInvalid,
		)
	}

	tokenID, ok := token.JwtID()
	if !ok || tokenID == "" {
		return nil, fmt.Errorf("verify token: missing jti: %w", core.ErrTokenInvalid)
	}

	return &middleware.AccessTokenClaims{
		UserID:       userID,
		Role:         role,
		TokenID:      tokenID,
		TokenVersion: int(versionFloat),
		ExpiresAt:    expiresAt,
	}, nil
}

func (m *JWTManager) TTL() time.Duration {
	return m.config.AccessTokenExpire
}
