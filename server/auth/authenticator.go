// Package auth verifies the session tokens issued by the identity provider.
//
// Tokens are HS256 JWTs whose subject is the user id. An optional "role" claim
// carries the user's role (admin or user); a missing role means "user".
package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"

	bearerPrefix = "Bearer "
)

var (
	// ErrMissingToken is returned when the Authorization header carries no bearer token.
	ErrMissingToken = errors.New("missing bearer token")

	// ErrInvalidToken is returned when the token fails verification.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrNotConfigured is returned when no signing secret is set.
	ErrNotConfigured = errors.New("authentication is not configured")
)

// ClaimsMessage is the JWT payload of a session token.
type ClaimsMessage struct {
	Role  string `json:"role,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// UserClaims is the identity attached to an authenticated request.
type UserClaims struct {
	UserID string
	Email  string
	Role   string
}

// IsAdmin reports whether the user holds the admin role.
func (c *UserClaims) IsAdmin() bool {
	return c != nil && c.Role == RoleAdmin
}

// Authenticator verifies session tokens.
type Authenticator struct {
	secret []byte
	now    func() time.Time
}

// NewAuthenticator creates an Authenticator for the given HS256 secret.
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret), now: time.Now}
}

// Configured reports whether tokens can be verified at all.
func (a *Authenticator) Configured() bool {
	return len(a.secret) > 0
}

// Authenticate verifies the Authorization header value and returns the caller's claims.
func (a *Authenticator) Authenticate(authHeader string) (*UserClaims, error) {
	if !a.Configured() {
		return nil, ErrNotConfigured
	}

	token := ExtractBearerToken(authHeader)
	if token == "" {
		return nil, ErrMissingToken
	}

	claims := &ClaimsMessage{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(_ *jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !parsed.Valid {
		return nil, errors.Wrap(ErrInvalidToken, errString(err))
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return nil, errors.Wrap(ErrInvalidToken, "token has no subject")
	}

	role := claims.Role
	if role != RoleAdmin {
		role = RoleUser
	}
	return &UserClaims{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   role,
	}, nil
}

// GenerateToken signs a session token. The identity provider issues tokens in
// production; this is used by tests and local tooling.
func GenerateToken(secret, userID, role string, expiresAt time.Time) (string, error) {
	claims := &ClaimsMessage{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token")
	}
	return token, nil
}

// ExtractBearerToken returns the token from an "Authorization: Bearer <token>" value.
func ExtractBearerToken(authHeader string) string {
	if len(authHeader) < len(bearerPrefix) || !strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(authHeader[len(bearerPrefix):])
}

func errString(err error) string {
	if err == nil {
		return "token is not valid"
	}
	return err.Error()
}
