package auth

import (
	"context"
	"time"
)

// Session is the token a request was authenticated with. For access
// tokens it also names the refresh token issued alongside; logout revokes
// both.
type Session struct {
	TokenID   string
	ExpiresAt time.Time

	RefreshID        string
	RefreshExpiresAt time.Time
}

type ctxKey int

const ctxSession ctxKey = iota

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxSession, s)
}

func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxSession).(Session)
	if !ok || s.TokenID == "" {
		return Session{}, false
	}
	return s, true
}
