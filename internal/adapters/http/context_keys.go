package http

import "context"

// contextKey is a typed key for request-scoped values.
type contextKey string

const (
	claimsContextKey = contextKey("claims")
	userIDContextKey = contextKey("userID")
)

// UserID returns the authenticated subject from the request context, or ""
// for unauthenticated requests.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDContextKey).(string)
	return id
}
