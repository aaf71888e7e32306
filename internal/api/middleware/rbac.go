package middleware

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskforge/backoffice/internal/api/metrics"
	"github.com/taskforge/backoffice/internal/core/domain"
)

// RBAC enforces the route's permitted-role set. It runs after Auth, which has
// already recognised the role, so the only question left is membership. The
// 403 message names the caller's role for operator diagnostics; it carries no
// identifier, so it cannot be used to enumerate accounts.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(CtxRole).(string)
			if _, ok := allowed[domain.Role(role)]; !ok {
				metrics.GateRejectionsTotal.WithLabelValues("role_not_permitted").Inc()
				msg := "access forbidden"
				if role != "" {
					msg = fmt.Sprintf("%s cannot access this resource", role)
				}
				return c.JSON(http.StatusForbidden, map[string]string{"error": msg})
			}
			return next(c)
		}
	}
}
