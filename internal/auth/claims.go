package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the only supported JWT claims shape for this service.
// Claims are a hint, not an authority: the resolver reloads the account on
// every request, so role and active changes apply before the token expires.
// TenantID is empty for super_admin tokens. RefreshID is set on access
// tokens only.
type Claims struct {
	jwt.RegisteredClaims

	UserID    string    `json:"user_id"`
	TenantID  string    `json:"tenant_id,omitempty"`
	Role      string    `json:"role,omitempty"`
	RefreshID string    `json:"rid,omitempty"`
	TokenType TokenType `json:"token_type"`
}
