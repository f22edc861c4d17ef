package middleware

import (
	"context"
	"strings"

	"fanclub/pkg/apperr"
	"fanclub/pkg/jwt"
	"fanclub/pkg/respond"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserIDKey   = "user_id"
	ContextUserRoleKey = "user_role"
	ContextTokenKey    = "session_token"
)

// RevocationChecker reports tokens that were logged out before they expired.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

type authOptions struct {
	cookieName string
	revoked    RevocationChecker
}

type AuthOption func(*authOptions)

// WithSessionCookie also accepts the token from the named cookie.
func WithSessionCookie(name string) AuthOption {
	return func(o *authOptions) { o.cookieName = name }
}

func WithRevocation(checker RevocationChecker) AuthOption {
	return func(o *authOptions) { o.revoked = checker }
}

// AuthMiddleware requires a valid session from the Authorization bearer header
// or, when configured, the session cookie.
func AuthMiddleware(jwtService *jwt.Service, opts ...AuthOption) gin.HandlerFunc {
	o := buildOptions(opts)
	return func(c *gin.Context) {
		token, err := extractToken(c, o.cookieName)
		if err != nil {
			respond.Error(c, err)
			return
		}
		if err := authenticate(c, jwtService, o, token); err != nil {
			respond.Error(c, err)
			return
		}
		c.Next()
	}
}

// OptionalAuth identifies the viewer when a valid session is present and
// otherwise lets the request through as anonymous.
func OptionalAuth(jwtService *jwt.Service, opts ...AuthOption) gin.HandlerFunc {
	o := buildOptions(opts)
	return func(c *gin.Context) {
		token, err := extractToken(c, o.cookieName)
		if err == nil {
			_ = authenticate(c, jwtService, o, token)
		}
		c.Next()
	}
}

// RequireRole must run after AuthMiddleware.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextUserRoleKey) != role {
			respond.Error(c, apperr.Forbidden("only %ss can do this", role))
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user, or "" for anonymous requests.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserIDKey)
}

func buildOptions(opts []AuthOption) authOptions {
	var o authOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func extractToken(c *gin.Context, cookieName string) (string, error) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", apperr.AuthRequired("invalid authorization format")
		}
		return parts[1], nil
	}
	if cookieName != "" {
		if token, err := c.Cookie(cookieName); err == nil && token != "" {
			return token, nil
		}
	}
	return "", apperr.AuthRequired("login required")
}

func authenticate(c *gin.Context, jwtService *jwt.Service, o authOptions, token string) error {
	claims, err := jwtService.ValidateToken(token)
	if err != nil {
		return apperr.AuthRequired("invalid or expired session")
	}
	if o.revoked != nil {
		revoked, err := o.revoked.IsRevoked(c.Request.Context(), token)
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "failed to check session")
		}
		if revoked {
			return apperr.AuthRequired("session has been logged out")
		}
	}
	c.Set(ContextUserIDKey, claims.UserID)
	c.Set(ContextUserRoleKey, claims.Role)
	c.Set(ContextTokenKey, token)
	return nil
}
