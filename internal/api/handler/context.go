package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apimw "github.com/taskforge/backoffice/internal/api/middleware"
)

// ctxClaims extracts the identity injected by the Auth middleware and
// fast-fails before any service call: a non-empty user id and role prove the
// gate ran on this route.
func ctxClaims(c echo.Context) (userID, role string, err error) {
	userID, _ = c.Get(apimw.CtxUserID).(string)
	role, _ = c.Get(apimw.CtxRole).(string)
	if userID == "" || role == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return userID, role, nil
}
