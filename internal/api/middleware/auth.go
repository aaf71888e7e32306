package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/taskforge/backoffice/internal/api/metrics"
	"github.com/taskforge/backoffice/internal/auth"
)

// Context keys populated by Auth for downstream handlers.
const (
	CtxUserID = "user_id"
	CtxName   = "user_name"
	CtxEmail  = "user_email"
	CtxRole   = "role"
)

// Auth is the authentication gate. Per request it walks
// public-check → token extraction → verification → role recognition, and on
// success attaches the verified identity to the context.
//
// Routes in publicRoutes, given as "METHOD /path" pairs, are admitted with no
// token work at all, even when an Authorization header is present. The match
// includes the method: "POST /api/users" exempts registration without opening
// the admin-only GET on the same path. All token-verification failures
// collapse into one opaque 401 so probing cannot tell a forged signature from
// an expired token; the distinct kind still reaches logs and metrics.
//
// The gate is claims-based and stateless: it never re-reads the credential
// store, so a just-blocked user's live token stays valid until expiry. That
// staleness window is the accepted price for a store-free hot path; blocking
// bites at the next login or refresh.
func Auth(codec *auth.Codec, log zerolog.Logger, publicRoutes ...string) echo.MiddlewareFunc {
	public := make(map[string]struct{}, len(publicRoutes))
	for _, r := range publicRoutes {
		public[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := public[c.Request().Method+" "+c.Request().URL.Path]; ok {
				return next(c)
			}

			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return reject(c, log, auth.ErrMissingToken, "missing authorization header")
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
				return reject(c, log, auth.ErrMissingToken, "invalid authorization header")
			}

			ident, err := codec.Verify(parts[1])
			if err != nil {
				return reject(c, log, err, "invalid or expired token")
			}

			role, err := ident.ParsedRole()
			if err != nil {
				return reject(c, log, err, "invalid user role")
			}

			c.Set(CtxUserID, ident.UserID)
			c.Set(CtxName, ident.Name)
			c.Set(CtxEmail, ident.Email)
			c.Set(CtxRole, string(role))

			return next(c)
		}
	}
}

// reject logs and counts the specific rejection, then surfaces the opaque
// message to the caller.
func reject(c echo.Context, log zerolog.Logger, cause error, msg string) error {
	reason := rejectionReason(cause)
	metrics.GateRejectionsTotal.WithLabelValues(reason).Inc()
	log.Debug().
		Str("reason", reason).
		Str("method", c.Request().Method).
		Str("path", c.Request().URL.Path).
		Msg("request rejected by gate")
	return echo.NewHTTPError(http.StatusUnauthorized, msg)
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return "missing_token"
	case errors.Is(err, auth.ErrTokenMalformed):
		return "token_malformed"
	case errors.Is(err, auth.ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, auth.ErrTokenInvalid):
		return "token_invalid"
	case errors.Is(err, auth.ErrInvalidRole):
		return "invalid_role"
	case errors.Is(err, auth.ErrRoleNotPermitted):
		return "role_not_permitted"
	}
	return "unknown"
}
