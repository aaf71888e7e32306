package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	apimw "github.com/taskforge/backoffice/internal/api/middleware"
	"github.com/taskforge/backoffice/internal/core/domain"
	"github.com/taskforge/backoffice/internal/core/ports"
)

type stubUserService struct {
	registerFn       func(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error)
	loginFn          func(ctx context.Context, email, password string) (*ports.LoginResult, error)
	refreshFn        func(ctx context.Context, token string) (*ports.LoginResult, error)
	updatePasswordFn func(ctx context.Context, email, password string) (*domain.User, error)
	setBlockedFn     func(ctx context.Context, actorID, userID string, blocked bool) (*domain.User, error)
}

func (s *stubUserService) Register(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error) {
	return s.registerFn(ctx, name, email, password, role)
}

func (s *stubUserService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubUserService) Refresh(ctx context.Context, token string) (*ports.LoginResult, error) {
	return s.refreshFn(ctx, token)
}

func (s *stubUserService) UpdatePassword(ctx context.Context, email, password string) (*domain.User, error) {
	return s.updatePasswordFn(ctx, email, password)
}

func (s *stubUserService) SetBlocked(ctx context.Context, actorID, userID string, blocked bool) (*domain.User, error) {
	return s.setBlockedFn(ctx, actorID, userID, blocked)
}

func (s *stubUserService) CompleteOnboardingStep(_ context.Context, userID string, step domain.OnboardingStep) (*domain.User, error) {
	u := &domain.User{ID: userID}
	switch step {
	case domain.StepProfile:
		u.ProfileCompleted = true
	case domain.StepQualification:
		u.QualificationCompleted = true
	case domain.StepKYC:
		u.KYCCompleted = true
	}
	return u, nil
}

func (s *stubUserService) GetByID(_ context.Context, userID string) (*domain.User, error) {
	return &domain.User{ID: userID}, nil
}

func (s *stubUserService) List(_ context.Context) ([]*domain.User, error) {
	return nil, nil
}

func (s *stubUserService) RegisteredBetween(_ context.Context, _, _ time.Time) ([]*domain.User, error) {
	return nil, nil
}

func (s *stubUserService) ActiveSessions(_ context.Context) (*ports.ActiveSessionReport, error) {
	return &ports.ActiveSessionReport{ActiveUsers: 2, LiveSessions: 1}, nil
}

func newJSONContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestUserHandler_Register_Success(t *testing.T) {
	stub := &stubUserService{
		registerFn: func(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error) {
			if name != "Alice" || email != "alice@example.com" || role != domain.RoleUser {
				t.Fatalf("unexpected args: %s %s %s", name, email, role)
			}
			return &domain.User{ID: "u1", Name: name, Email: email, Role: role, Active: true}, nil
		},
	}
	h := NewUserHandler(stub)

	c, rec := newJSONContext(t, http.MethodPost, "/api/users",
		`{"name":"Alice","email":"alice@example.com","password":"longenough","role":"USER"}`)

	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	user, ok := resp["user"].(map[string]any)
	if !ok || user["email"] != "alice@example.com" {
		t.Fatalf("unexpected user payload: %+v", resp)
	}
}

func TestUserHandler_Register_ValidationFailures(t *testing.T) {
	stub := &stubUserService{
		registerFn: func(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewUserHandler(stub)

	for _, body := range []string{
		"not-json",
		`{"name":"A","email":"not-an-email","password":"longenough"}`,
		`{"name":"A","email":"a@example.com","password":"short"}`,
		`{"name":"A","email":"a@example.com","password":"longenough","role":"ROOT"}`,
	} {
		c, rec := newJSONContext(t, http.MethodPost, "/api/users", body)
		_ = h.Register(c)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestUserHandler_Register_Duplicate(t *testing.T) {
	stub := &stubUserService{
		registerFn: func(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error) {
			return nil, domain.ErrUserExists
		},
	}
	h := NewUserHandler(stub)

	c, rec := newJSONContext(t, http.MethodPost, "/api/users",
		`{"name":"Bob","email":"bob@example.com","password":"longenough"}`)
	_ = h.Register(c)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestUserHandler_Login_Success(t *testing.T) {
	stub := &stubUserService{
		loginFn: func(ctx context.Context, email, password string) (*ports.LoginResult, error) {
			return &ports.LoginResult{
				User:         &domain.User{ID: "u1", Email: email, Role: domain.RoleAdmin},
				AccessToken:  "access123",
				RefreshToken: "refresh456",
			}, nil
		},
	}
	h := NewUserHandler(stub)

	c, rec := newJSONContext(t, http.MethodPost, "/api/users/login",
		`{"email":"alice@example.com","password":"secret"}`)

	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	tokens, ok := resp["tokens"].(map[string]any)
	if !ok || tokens["access_token"] != "access123" || tokens["refresh_token"] != "refresh456" {
		t.Fatalf("unexpected tokens payload: %+v", resp)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("response must not mention the credential: %s", rec.Body.String())
	}
}

func TestUserHandler_Login_UniformFailureMessage(t *testing.T) {
	// Unknown identifier and wrong secret must be externally identical.
	var bodies []string
	for _, serviceErr := range []error{domain.ErrUserNotFound, domain.ErrInvalidCredentials} {
		err := serviceErr
		stub := &stubUserService{
			loginFn: func(ctx context.Context, email, password string) (*ports.LoginResult, error) {
				return nil, err
			},
		}
		h := NewUserHandler(stub)

		c, rec := newJSONContext(t, http.MethodPost, "/api/users/login",
			`{"email":"x@example.com","password":"pw"}`)
		_ = h.Login(c)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		bodies = append(bodies, rec.Body.String())
	}
	if bodies[0] != bodies[1] {
		t.Fatalf("login failures leak which condition occurred: %v", bodies)
	}
}

func TestUserHandler_Login_Blocked(t *testing.T) {
	stub := &stubUserService{
		loginFn: func(ctx context.Context, email, password string) (*ports.LoginResult, error) {
			return nil, domain.ErrUserBlocked
		},
	}
	h := NewUserHandler(stub)

	c, rec := newJSONContext(t, http.MethodPost, "/api/users/login",
		`{"email":"x@example.com","password":"pw"}`)
	_ = h.Login(c)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestUserHandler_Login_StoreUnavailable(t *testing.T) {
	stub := &stubUserService{
		loginFn: func(ctx context.Context, email, password string) (*ports.LoginResult, error) {
			return nil, domain.ErrStoreUnavailable
		},
	}
	h := NewUserHandler(stub)

	c, rec := newJSONContext(t, http.MethodPost, "/api/users/login",
		`{"email":"x@example.com","password":"pw"}`)
	_ = h.Login(c)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestUserHandler_Refresh_OpaqueTokenFailure(t *testing.T) {
	stub := &stubUserService{
		refreshFn: func(ctx context.Context, token string) (*ports.LoginResult, error) {
			return nil, domain.ErrUserNotFound
		},
	}
	h := NewUserHandler(stub)

	c, rec := newJSONContext(t, http.MethodPost, "/api/users/refresh",
		`{"refresh_token":"sometoken"}`)
	_ = h.Refresh(c)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "not found") {
		t.Fatalf("refresh must not reveal whether the account exists: %s", rec.Body.String())
	}
}

func TestUserHandler_BlockUnblock(t *testing.T) {
	stub := &stubUserService{
		setBlockedFn: func(ctx context.Context, actorID, userID string, blocked bool) (*domain.User, error) {
			if actorID != "admin1" || userID != "u2" || !blocked {
				t.Fatalf("unexpected args: %s %s %v", actorID, userID, blocked)
			}
			return &domain.User{ID: userID, Blocked: blocked}, nil
		},
	}
	h := NewUserHandler(stub)

	c, rec := newJSONContext(t, http.MethodPatch, "/api/users/u2/block", `{"block":true}`)
	c.SetParamNames("id")
	c.SetParamValues("u2")
	c.Set(apimw.CtxUserID, "admin1")
	c.Set(apimw.CtxRole, "ADMIN")

	if err := h.BlockUnblock(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestUserHandler_BlockUnblock_MissingFlag(t *testing.T) {
	stub := &stubUserService{
		setBlockedFn: func(ctx context.Context, actorID, userID string, blocked bool) (*domain.User, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewUserHandler(stub)

	c, rec := newJSONContext(t, http.MethodPatch, "/api/users/u2/block", `{}`)
	c.SetParamNames("id")
	c.SetParamValues("u2")
	c.Set(apimw.CtxUserID, "admin1")
	c.Set(apimw.CtxRole, "ADMIN")

	_ = h.BlockUnblock(c)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUserHandler_CompleteStep(t *testing.T) {
	h := NewUserHandler(&stubUserService{})

	c, rec := newJSONContext(t, http.MethodPut, "/api/users/u1/complete-kyc", ``)
	c.SetParamNames("id")
	c.SetParamValues("u1")

	if err := h.CompleteKYC(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"kyc_completed":true`) {
		t.Fatalf("expected kyc flag in response: %s", rec.Body.String())
	}
}
