package auth

import "context"

type contextKey int

const (
	// UserIDContextKey holds the authenticated user id.
	UserIDContextKey contextKey = iota
	userClaimsContextKey
)

// SetUserClaimsInContext stores the caller's claims in ctx.
func SetUserClaimsInContext(ctx context.Context, claims *UserClaims) context.Context {
	ctx = context.WithValue(ctx, userClaimsContextKey, claims)
	return context.WithValue(ctx, UserIDContextKey, claims.UserID)
}

// GetUserClaims returns the caller's claims, or nil for anonymous requests.
func GetUserClaims(ctx context.Context) *UserClaims {
	claims, _ := ctx.Value(userClaimsContextKey).(*UserClaims)
	return claims
}

// GetUserID returns the caller's user id, or "" for anonymous requests.
func GetUserID(ctx context.Context) string {
	id, _ := ctx.Value(UserIDContextKey).(string)
	return id
}
