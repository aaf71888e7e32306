package ports

import (
	"context"
	"time"

	"github.com/taskforge/backoffice/internal/core/domain"
)

// LoginResult is what a successful credential check yields: the sanitized
// identity plus a stateless access/refresh token pair.
type LoginResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}

// ActiveSessionReport pairs the store's view of active accounts with the
// tracker's view of live sessions.
type ActiveSessionReport struct {
	ActiveUsers  int64 `json:"active_users"`
	LiveSessions int64 `json:"live_sessions"`
}

type UserService interface {
	Register(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*LoginResult, error)
	UpdatePassword(ctx context.Context, email, password string) (*domain.User, error)
	SetBlocked(ctx context.Context, actorID, userID string, blocked bool) (*domain.User, error)
	CompleteOnboardingStep(ctx context.Context, userID string, step domain.OnboardingStep) (*domain.User, error)
	GetByID(ctx context.Context, userID string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	RegisteredBetween(ctx context.Context, start, end time.Time) ([]*domain.User, error)
	ActiveSessions(ctx context.Context) (*ActiveSessionReport, error)
}
