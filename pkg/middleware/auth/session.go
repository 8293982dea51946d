package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopfront/pkg/logging"
	"github.com/Skotchmaster/shopfront/pkg/tokens"
)

const (
	CtxUserID = "user_id"
	CtxClaims = "claims"

	bearerPrefix = "Bearer "
)

type Verifier interface {
	Verify(ctx context.Context, token string) (*tokens.Claims, error)
}

// SessionAuth validates "Authorization: Bearer <token>" headers. Requests
// without a bearer token are rejected before the verifier is consulted.
type SessionAuth struct {
	verifier Verifier
	timeout  time.Duration
	mw       echo.MiddlewareFunc
}

func NewSessionAuth(v Verifier, timeout time.Duration) *SessionAuth {
	m := &SessionAuth{verifier: v, timeout: timeout}
	m.mw = echojwt.WithConfig(echojwt.Config{
		ContextKey:     CtxClaims,
		TokenLookup:    "header:" + echo.HeaderAuthorization + ":" + bearerPrefix,
		ParseTokenFunc: m.parse,
		SuccessHandler: func(c echo.Context) {
			if claims, ok := c.Get(CtxClaims).(*tokens.Claims); ok {
				c.Set(CtxUserID, claims.Subject)
			}
		},
		ErrorHandler: m.reject,
	})
	return m
}

func (m *SessionAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.mw(next)
}

func (m *SessionAuth) parse(c echo.Context, auth string) (any, error) {
	ctx := c.Request().Context()
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	return m.verifier.Verify(ctx, auth)
}

func (m *SessionAuth) reject(c echo.Context, err error) error {
	l := logging.FromContext(c.Request().Context()).With("mw", "require_auth")

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		l.Error("auth_failed", "status", 504, "reason", "session lookup timed out")
		return echo.NewHTTPError(http.StatusGatewayTimeout, "request timed out")
	case errors.Is(err, tokens.ErrSessionLookup):
		l.Error("auth_failed", "status", 500, "reason", "session lookup failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	l.Warn("auth_failed", "status", 401, "reason", reason(err))
	return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
}

func reason(err error) string {
	switch {
	case errors.Is(err, tokens.ErrTokenExpired):
		return "expired"
	case errors.Is(err, tokens.ErrWrongTokenType):
		return "wrong token type"
	case errors.Is(err, tokens.ErrTokenRevoked):
		return "revoked"
	case errors.Is(err, tokens.ErrInvalidToken):
		return "invalid token"
	}
	return "missing bearer token"
}

// RequireSelf lets the request through only when the path parameter equals
// the authenticated subject. It must run after RequireAuth.
func RequireSelf(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, ok := UserID(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
			}
			if !SameID(c.Param(param), userID) {
				logging.FromContext(c.Request().Context()).Warn("access_denied", "status", 403, "reason", "not the owner")
				return echo.NewHTTPError(http.StatusForbidden, "access denied")
			}
			return next(c)
		}
	}
}

// SameID compares two identity ids. UUIDs are compared by value, so case and
// brace or URN forms do not matter; anything else must match exactly.
func SameID(a, b string) bool {
	ua, errA := uuid.Parse(a)
	ub, errB := uuid.Parse(b)
	if errA == nil && errB == nil {
		return ua == ub
	}
	return a == b
}

func UserID(c echo.Context) (string, bool) {
	s, ok := c.Get(CtxUserID).(string)
	return s, ok && s != ""
}

func ClaimsFrom(c echo.Context) (*tokens.Claims, bool) {
	claims, ok := c.Get(CtxClaims).(*tokens.Claims)
	return claims, ok && claims != nil
}

// ExtractBearer returns the token of a "Bearer <token>" header value. The
// scheme is matched case-insensitively.
func ExtractBearer(header string) (string, bool) {
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	return token, token != ""
}
