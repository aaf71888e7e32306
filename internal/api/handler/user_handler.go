package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskforge/backoffice/internal/api/metrics"
	"github.com/taskforge/backoffice/internal/core/domain"
	"github.com/taskforge/backoffice/internal/core/ports"
)

type UserHandler struct {
	users ports.UserService
}

func NewUserHandler(users ports.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type authResponse struct {
	User   *domain.User `json:"user"`
	Tokens *tokenPair   `json:"tokens,omitempty"`
}

// Register creates a new user account.
//
// @Summary      Register a new user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/users [post]
func (h *UserHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	role := domain.Role("")
	if req.Role != "" {
		parsed, err := domain.ParseRole(req.Role)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid role"})
		}
		role = parsed
	}

	user, err := h.users.Register(c.Request().Context(), req.Name, req.Email, req.Password, role)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserExists):
			return c.JSON(http.StatusConflict, map[string]string{"error": "user already exists"})
		case errors.Is(err, domain.ErrInvalidCredentials):
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid registration details"})
		}
		return err
	}

	metrics.UsersRegisteredTotal.WithLabelValues(string(user.Role)).Inc()
	return c.JSON(http.StatusCreated, authResponse{User: user})
}

// Login authenticates a user and returns an access/refresh token pair.
//
// Unknown email and wrong password deliberately produce the same response, so
// the endpoint cannot be used to enumerate accounts.
//
// @Summary      Login
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      401   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /api/users/login [post]
func (h *UserHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	result, err := h.users.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		switch {
		case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrInvalidCredentials):
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		case errors.Is(err, domain.ErrUserBlocked):
			return c.JSON(http.StatusForbidden, map[string]string{"error": "user is blocked"})
		case errors.Is(err, domain.ErrStoreUnavailable):
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "temporarily unavailable, retry later"})
		}
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, authResponse{
		User:   result.User,
		Tokens: &tokenPair{AccessToken: result.AccessToken, RefreshToken: result.RefreshToken},
	})
}

// Refresh exchanges a refresh token for a new pair. The store is re-read
// here, so a block applied after issuance takes effect.
//
// @Summary      Refresh the token pair
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  true  "Refresh token"
// @Success      200   {object}  authResponse
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /api/users/refresh [post]
func (h *UserHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	result, err := h.users.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserBlocked):
			return c.JSON(http.StatusForbidden, map[string]string{"error": "user is blocked"})
		case errors.Is(err, domain.ErrUserNotFound):
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid or expired token"})
		case errors.Is(err, domain.ErrStoreUnavailable):
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "temporarily unavailable, retry later"})
		}
		// Covers every token verification failure without leaking the kind.
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid or expired token"})
	}

	return c.JSON(http.StatusOK, authResponse{
		User:   result.User,
		Tokens: &tokenPair{AccessToken: result.AccessToken, RefreshToken: result.RefreshToken},
	})
}

// UpdatePassword sets a new password for the account with the given email.
//
// @Summary      Create or update a password
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      passwordRequest  true  "Email and new password"
// @Success      200   {object}  authResponse
// @Failure      404   {object}  map[string]string
// @Router       /api/users/password [post]
func (h *UserHandler) UpdatePassword(c echo.Context) error {
	var req passwordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	user, err := h.users.UpdatePassword(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authResponse{User: user})
}

// BlockUnblock flips the blocked flag on a user account.
//
// @Summary      Block or unblock a user
// @Tags         users
// @Param        id    path      string        true  "User ID"
// @Param        body  body      blockRequest  true  "Block flag"
// @Success      200   {object}  authResponse
// @Failure      404   {object}  map[string]string
// @Router       /api/users/{id}/block [patch]
func (h *UserHandler) BlockUnblock(c echo.Context) error {
	var req blockRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid block status"})
	}

	actor, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	user, err := h.users.SetBlocked(c.Request().Context(), actor, c.Param("id"), *req.Block)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authResponse{User: user})
}

// Registered lists users created inside a date range.
//
// @Summary      List users registered in a date range
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      registeredRangeRequest  true  "Date range"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Router       /api/users/registered [post]
func (h *UserHandler) Registered(c echo.Context) error {
	var req registeredRangeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid start_date"})
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid end_date"})
	}

	users, err := h.users.RegisteredBetween(c.Request().Context(), start, end)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"registered_users": users, "count": len(users)})
}

// ActiveSessions reports active accounts and live sessions.
//
// @Summary      Report active accounts and live sessions
// @Tags         users
// @Produce      json
// @Success      200  {object}  ports.ActiveSessionReport
// @Router       /api/users/active-session [get]
func (h *UserHandler) ActiveSessions(c echo.Context) error {
	report, err := h.users.ActiveSessions(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}

// CompleteProfile marks the profile onboarding step done.
func (h *UserHandler) CompleteProfile(c echo.Context) error {
	return h.completeStep(c, domain.StepProfile)
}

// CompleteQualification marks the qualification onboarding step done.
func (h *UserHandler) CompleteQualification(c echo.Context) error {
	return h.completeStep(c, domain.StepQualification)
}

// CompleteKYC marks the KYC onboarding step done.
func (h *UserHandler) CompleteKYC(c echo.Context) error {
	return h.completeStep(c, domain.StepKYC)
}

func (h *UserHandler) completeStep(c echo.Context, step domain.OnboardingStep) error {
	user, err := h.users.CompleteOnboardingStep(c.Request().Context(), c.Param("id"), step)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authResponse{User: user})
}

func (h *UserHandler) GetByID(c echo.Context) error {
	user, err := h.users.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authResponse{User: user})
}

func (h *UserHandler) List(c echo.Context) error {
	users, err := h.users.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"users": users})
}

// parseDate accepts RFC 3339 timestamps or bare dates.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
