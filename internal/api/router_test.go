package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/taskforge/backoffice/internal/auth"
	"github.com/taskforge/backoffice/internal/core/domain"
	"github.com/taskforge/backoffice/internal/core/ports"
)

// The echoprometheus middleware registers its collectors with the default
// registry, so the router under test is built exactly once.
var (
	routerOnce  sync.Once
	routerUnder *echo.Echo
	routerCodec *auth.Codec
)

type fixedUserService struct{}

func (fixedUserService) Register(_ context.Context, name, email, _ string, role domain.Role) (*domain.User, error) {
	if role == "" {
		role = domain.RoleUser
	}
	return &domain.User{ID: "u1", Name: name, Email: email, Role: role, Active: true}, nil
}

func (fixedUserService) Login(_ context.Context, email, _ string) (*ports.LoginResult, error) {
	return &ports.LoginResult{
		User:         &domain.User{ID: "u1", Email: email, Role: domain.RoleUser},
		AccessToken:  "access",
		RefreshToken: "refresh",
	}, nil
}

func (fixedUserService) Refresh(_ context.Context, _ string) (*ports.LoginResult, error) {
	return &ports.LoginResult{User: &domain.User{ID: "u1"}, AccessToken: "a", RefreshToken: "r"}, nil
}

func (fixedUserService) UpdatePassword(_ context.Context, email, _ string) (*domain.User, error) {
	return &domain.User{ID: "u1", Email: email}, nil
}

func (fixedUserService) SetBlocked(_ context.Context, _, userID string, blocked bool) (*domain.User, error) {
	return &domain.User{ID: userID, Blocked: blocked}, nil
}

func (fixedUserService) CompleteOnboardingStep(_ context.Context, userID string, _ domain.OnboardingStep) (*domain.User, error) {
	return &domain.User{ID: userID}, nil
}

func (fixedUserService) GetByID(_ context.Context, userID string) (*domain.User, error) {
	return &domain.User{ID: userID}, nil
}

func (fixedUserService) List(_ context.Context) ([]*domain.User, error) {
	return []*domain.User{}, nil
}

func (fixedUserService) RegisteredBetween(_ context.Context, _, _ time.Time) ([]*domain.User, error) {
	return []*domain.User{}, nil
}

func (fixedUserService) ActiveSessions(_ context.Context) (*ports.ActiveSessionReport, error) {
	return &ports.ActiveSessionReport{}, nil
}

type fixedTaskService struct{}

func (fixedTaskService) Create(_ context.Context, _ string, in ports.CreateTaskInput) (*domain.Task, error) {
	return &domain.Task{ID: "t1", Title: in.Title, AssignedTo: in.AssignedTo, Status: domain.TaskTodo}, nil
}

func (fixedTaskService) GetByID(_ context.Context, id string) (*domain.Task, error) {
	return &domain.Task{ID: id}, nil
}

func (fixedTaskService) TasksForUser(_ context.Context, _ string) ([]*domain.Task, error) {
	return []*domain.Task{}, nil
}

func (fixedTaskService) UpdateStatus(_ context.Context, _, id, status string) (*domain.Task, error) {
	return &domain.Task{ID: id, Status: domain.TaskStatus(status)}, nil
}

func testRouter(t *testing.T) (*echo.Echo, *auth.Codec) {
	t.Helper()
	routerOnce.Do(func() {
		codec, err := auth.NewCodec("router-test-secret")
		if err != nil {
			t.Fatalf("NewCodec: %v", err)
		}
		routerCodec = codec
		routerUnder = NewRouter(RouterConfig{
			Users:  fixedUserService{},
			Tasks:  fixedTaskService{},
			Codec:  codec,
			Logger: zerolog.Nop(),
		})
	})
	if routerUnder == nil {
		t.Fatal("router not built")
	}
	return routerUnder, routerCodec
}

func bearer(t *testing.T, codec *auth.Codec, role string) string {
	t.Helper()
	token, err := codec.Issue(auth.Identity{UserID: "u1", Name: "alice", Email: "alice@example.com", Role: role}, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return "Bearer " + token
}

func doRequest(e *echo.Echo, method, target, body, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// The list route shares its path with the public registration POST; the
// exemption must not leak across methods.
func TestRouter_UserListPolicy(t *testing.T) {
	e, codec := testRouter(t)

	rec := doRequest(e, http.MethodGet, "/api/users", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no header: expected 401, got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = doRequest(e, http.MethodGet, "/api/users", "", bearer(t, codec, "USER"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("USER token: expected 403, got %d (%s)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "USER") {
		t.Fatalf("403 should name the caller's role: %s", rec.Body.String())
	}

	rec = doRequest(e, http.MethodGet, "/api/users", "", bearer(t, codec, "ADMIN"))
	if rec.Code != http.StatusOK {
		t.Fatalf("ADMIN token: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestRouter_RegistrationStaysPublic(t *testing.T) {
	e, _ := testRouter(t)
	body := `{"name":"Alice","email":"alice@example.com","password":"longenough"}`

	rec := doRequest(e, http.MethodPost, "/api/users", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 without a token, got %d (%s)", rec.Code, rec.Body.String())
	}

	// A garbage header on the public POST is ignored outright.
	rec = doRequest(e, http.MethodPost, "/api/users", body, "Bearer not-a-token")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 despite the header, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestRouter_LoginAndRefreshArePublic(t *testing.T) {
	e, _ := testRouter(t)

	rec := doRequest(e, http.MethodPost, "/api/users/login",
		`{"email":"alice@example.com","password":"secret"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = doRequest(e, http.MethodPost, "/api/users/refresh",
		`{"refresh_token":"sometoken"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestRouter_AdminOnlyRoutes(t *testing.T) {
	e, codec := testRouter(t)

	adminRoutes := []struct {
		method, target, body string
	}{
		{http.MethodGet, "/api/users/active-session", ""},
		{http.MethodPost, "/api/users/registered", `{"start_date":"2026-01-01","end_date":"2026-02-01"}`},
		{http.MethodGet, "/api/users/u2", ""},
		{http.MethodPatch, "/api/users/u2/block", `{"block":true}`},
		{http.MethodPost, "/api/tasks", `{"title":"t","description":"d","assigned_to":"u2"}`},
	}

	for _, r := range adminRoutes {
		rec := doRequest(e, r.method, r.target, r.body, bearer(t, codec, "USER"))
		if rec.Code != http.StatusForbidden {
			t.Fatalf("%s %s with USER: expected 403, got %d (%s)", r.method, r.target, rec.Code, rec.Body.String())
		}

		rec = doRequest(e, r.method, r.target, r.body, bearer(t, codec, "ADMIN"))
		if rec.Code >= http.StatusBadRequest {
			t.Fatalf("%s %s with ADMIN: expected success, got %d (%s)", r.method, r.target, rec.Code, rec.Body.String())
		}
	}
}

func TestRouter_SharedRoutesAdmitBothRoles(t *testing.T) {
	e, codec := testRouter(t)

	for _, role := range []string{"USER", "ADMIN"} {
		rec := doRequest(e, http.MethodGet, "/api/tasks/my-tasks", "", bearer(t, codec, role))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d (%s)", role, rec.Code, rec.Body.String())
		}
	}

	rec := doRequest(e, http.MethodGet, "/api/tasks/my-tasks", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no header: expected 401, got %d (%s)", rec.Code, rec.Body.String())
	}
}
