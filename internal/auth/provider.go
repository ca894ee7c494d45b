// Package auth is the boundary to the external identity provider. The rest
// of the application only ever sees a stable user id.
package auth

import (
	"context"
	"errors"
	"strings"
)

// ErrUnauthenticated is returned when a token does not resolve to a user.
var ErrUnauthenticated = errors.New("unauthenticated")

// Provider resolves a bearer token to a stable user identifier.
type Provider interface {
	UserIDForToken(ctx context.Context, token string) (string, error)
}

// StaticProvider maps fixed tokens to user ids. It backs local development
// and tests; production deployments sit behind a real identity provider.
type StaticProvider struct {
	tokens map[string]string
}

// NewStaticProvider parses a "token:userID,token:userID" spec, the format
// used by the AUTH_TOKENS environment variable.
func NewStaticProvider(spec string) (*StaticProvider, error) {
	tokens := make(map[string]string)
	for _, pair := range strings.Split(spec, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		token, userID, ok := strings.Cut(pair, ":")
		if !ok || token == "" || userID == "" {
			return nil, errors.New("auth: malformed token spec, want token:userID pairs")
		}
		tokens[token] = userID
	}
	return &StaticProvider{tokens: tokens}, nil
}

func (p *StaticProvider) UserIDForToken(ctx context.Context, token string) (string, error) {
	userID, ok := p.tokens[token]
	if !ok {
		return "", ErrUnauthenticated
	}
	return userID, nil
}

type contextKey string

const userIDKey contextKey = "userID"

// WithUserID stores the authenticated user id on the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID returns the authenticated user id, or "" if the request never
// passed the auth middleware.
func UserID(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}
