package ports

import (
	"context"
	"time"

	"github.com/taskforge/backoffice/internal/core/domain"
)

// UserRepository is the credential store adapter: the sole owner of user
// persistence. The auth core only ever reads from it.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindAll(ctx context.Context) ([]*domain.User, error)
	FindRegisteredBetween(ctx context.Context, start, end time.Time) ([]*domain.User, error)
	UpdatePassword(ctx context.Context, email, passwordHash string) (*domain.User, error)
	SetBlocked(ctx context.Context, id string, blocked bool) (*domain.User, error)
	CompleteOnboardingStep(ctx context.Context, id string, step domain.OnboardingStep) (*domain.User, error)
	CountActive(ctx context.Context) (int64, error)
}
