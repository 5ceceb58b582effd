package auth

import (
	"errors"
	"fmt"
	"time"

	"workspace-platform/internal/config"
	"workspace-platform/internal/rbac"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken covers every reason a token cannot be trusted: bad
// signature, expiry, wrong type, missing claims.
var ErrInvalidToken = errors.New("auth: invalid token")

type Manager struct {
	secret     []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewManager(cfg config.AuthConfig) (*Manager, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, errors.New("token TTLs must be positive")
	}

	return &Manager{
		secret:     []byte(cfg.JWTSecret),
		issuer:     cfg.JWTIssuer,
		audience:   cfg.JWTAudience,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
	}, nil
}

type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

/* ===================== ISSUE TOKENS ===================== */

// IssuePair signs an access/refresh pair. The access token names its
// refresh token so logging out can end both.
func (m *Manager) IssuePair(now time.Time, p rbac.Principal) (TokenPair, error) {
	refreshID := uuid.NewString()

	accessExp := now.Add(m.accessTTL)
	access, err := m.issue(now, Claims{
		UserID:    p.ID,
		TenantID:  p.TenantID,
		Role:      string(p.Role),
		RefreshID: refreshID,
		TokenType: TokenTypeAccess,
	}, accessExp)
	if err != nil {
		return TokenPair{}, err
	}

	// refresh tokens DO NOT carry role
	refreshExp := now.Add(m.refreshTTL)
	refresh, err := m.issue(now, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ID: refreshID},
		UserID:           p.ID,
		TenantID:         p.TenantID,
		TokenType:        TokenTypeRefresh,
	}, refreshExp)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp.UTC(),
		RefreshExpiresAt: refreshExp.UTC(),
	}, nil
}

// RefreshExpiry is when a refresh token issued at issuedAt stops verifying.
func (m *Manager) RefreshExpiry(issuedAt time.Time) time.Time {
	return issuedAt.Add(m.refreshTTL)
}

/* ===================== VERIFY TOKEN ===================== */

func (m *Manager) Verify(tokenString string, expected TokenType, now time.Time) (Claims, error) {
	var claims Claims

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(30 * time.Second), // clock skew tolerance
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	if m.audience != "" {
		opts = append(opts, jwt.WithAudience(m.audience))
	}

	_, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	// Custom claims validation
	if claims.TokenType != expected {
		return Claims{}, fmt.Errorf("%w: token_type mismatch", ErrInvalidToken)
	}
	if claims.UserID == "" {
		return Claims{}, fmt.Errorf("%w: user_id missing", ErrInvalidToken)
	}
	if claims.ID == "" {
		return Claims{}, fmt.Errorf("%w: jti missing", ErrInvalidToken)
	}

	// Role is required ONLY for access tokens
	if expected == TokenTypeAccess {
		if _, err := rbac.ParseRole(claims.Role); err != nil {
			return Claims{}, fmt.Errorf("%w: role missing in access token", ErrInvalidToken)
		}
	}

	return claims, nil
}

/* ===================== INTERNAL ISSUE ===================== */

func (m *Manager) issue(now time.Time, c Claims, expiresAt time.Time) (string, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    m.issuer,
		Subject:   c.UserID,
		Audience:  audienceOrNil(m.audience),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		ID:        c.ID,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return t.SignedString(m.secret)
}

func audienceOrNil(aud string) jwt.ClaimStrings {
	if aud == "" {
		return nil
	}
	return jwt.ClaimStrings{aud}
}
