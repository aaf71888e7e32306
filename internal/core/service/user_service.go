package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskforge/backoffice/internal/auth"
	"github.com/taskforge/backoffice/internal/core/domain"
	"github.com/taskforge/backoffice/internal/core/ports"
)

const (
	defaultAccessTTL    = 15 * time.Minute
	defaultRefreshTTL   = 7 * 24 * time.Hour
	defaultStoreTimeout = 5 * time.Second
)

// UserServiceConfig carries the token TTLs and the credential-store lookup
// timeout. Zero values fall back to defaults.
type UserServiceConfig struct {
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	StoreTimeout    time.Duration
}

// UserService implements account management and the session issuance flow.
// It holds no mutable state of its own; the repository owns persistence.
type UserService struct {
	repo     ports.UserRepository
	hasher   *auth.Hasher
	codec    *auth.Codec
	sessions ports.SessionTracker
	audit    ports.AuditRecorder
	logger   zerolog.Logger

	accessTTL    time.Duration
	refreshTTL   time.Duration
	storeTimeout time.Duration
}

func NewUserService(
	repo ports.UserRepository,
	hasher *auth.Hasher,
	codec *auth.Codec,
	sessions ports.SessionTracker,
	audit ports.AuditRecorder,
	logger zerolog.Logger,
	cfg UserServiceConfig,
) *UserService {
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = defaultAccessTTL
	}
	if cfg.RefreshTokenTTL <= 0 {
		cfg.RefreshTokenTTL = defaultRefreshTTL
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = defaultStoreTimeout
	}
	return &UserService{
		repo:         repo,
		hasher:       hasher,
		codec:        codec,
		sessions:     sessions,
		audit:        audit,
		logger:       logger,
		accessTTL:    cfg.AccessTokenTTL,
		refreshTTL:   cfg.RefreshTokenTTL,
		storeTimeout: cfg.StoreTimeout,
	}
}

// Register creates a new account with a hashed credential. An empty role
// defaults to USER, matching the registration form.
func (s *UserService) Register(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error) {
	if name == "" || email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if role == "" {
		role = domain.RoleUser
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", created.ID).Str("role", string(created.Role)).Msg("user registered")
	s.audit.Record(domain.AuditEntry{ActorID: created.ID, Action: domain.AuditUserRegistered, TargetID: created.ID, OccurredAt: now})

	return created.Sanitized(), nil
}

// Login is the session issuance flow: credential check, hash stripped from
// the projection, then an access/refresh pair signed by the codec. Tokens are
// self-contained; nothing is persisted beyond the session-tracker entry.
func (s *UserService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.Blocked {
		return nil, domain.ErrUserBlocked
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	result, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Track(ctx, user.ID, s.accessTTL); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("session tracking failed")
	}
	s.audit.Record(domain.AuditEntry{ActorID: user.ID, Action: domain.AuditUserLoggedIn, TargetID: user.ID, OccurredAt: time.Now().UTC()})

	return result, nil
}

// Refresh verifies a refresh token and issues a new pair. Unlike the request
// gate, it re-reads the store, so a block applied since issuance takes effect
// here.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*ports.LoginResult, error) {
	ident, err := s.codec.Verify(refreshToken)
	if err != nil {
		return nil, err
	}
	if _, err := ident.ParsedRole(); err != nil {
		return nil, err
	}

	user, err := s.findByID(ctx, ident.UserID)
	if err != nil {
		return nil, err
	}
	if user.Blocked {
		return nil, domain.ErrUserBlocked
	}

	result, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Track(ctx, user.ID, s.accessTTL); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("session tracking failed")
	}
	s.audit.Record(domain.AuditEntry{ActorID: user.ID, Action: domain.AuditSessionRefreshed, TargetID: user.ID, OccurredAt: time.Now().UTC()})

	return result, nil
}

// UpdatePassword rehashes and stores a new credential for the account.
func (s *UserService) UpdatePassword(ctx context.Context, email, password string) (*domain.User, error) {
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdatePassword(ctx, email, hash)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", updated.ID).Msg("password updated")
	s.audit.Record(domain.AuditEntry{ActorID: updated.ID, Action: domain.AuditPasswordUpdated, TargetID: updated.ID, OccurredAt: time.Now().UTC()})

	return updated.Sanitized(), nil
}

// SetBlocked flips the blocked flag. Live access tokens stay valid until
// expiry; the block bites at the next login or refresh.
func (s *UserService) SetBlocked(ctx context.Context, actorID, userID string, blocked bool) (*domain.User, error) {
	updated, err := s.repo.SetBlocked(ctx, userID, blocked)
	if err != nil {
		return nil, err
	}

	action := domain.AuditUserUnblocked
	if blocked {
		action = domain.AuditUserBlocked
	}
	s.logger.Info().Str("user_id", userID).Bool("blocked", blocked).Str("actor_id", actorID).Msg("user block state changed")
	s.audit.Record(domain.AuditEntry{ActorID: actorID, Action: action, TargetID: userID, OccurredAt: time.Now().UTC()})

	return updated.Sanitized(), nil
}

// CompleteOnboardingStep marks one of the onboarding steps done.
func (s *UserService) CompleteOnboardingStep(ctx context.Context, userID string, step domain.OnboardingStep) (*domain.User, error) {
	switch step {
	case domain.StepProfile, domain.StepQualification, domain.StepKYC:
	default:
		return nil, domain.ErrUnknownOnboardingStep
	}

	updated, err := s.repo.CompleteOnboardingStep(ctx, userID, step)
	if err != nil {
		return nil, err
	}
	return updated.Sanitized(), nil
}

func (s *UserService) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}

func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return sanitizeAll(users), nil
}

func (s *UserService) RegisteredBetween(ctx context.Context, start, end time.Time) ([]*domain.User, error) {
	users, err := s.repo.FindRegisteredBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return sanitizeAll(users), nil
}

// ActiveSessions reports active accounts (store) alongside live sessions
// (tracker). A tracker outage degrades the report instead of failing it.
func (s *UserService) ActiveSessions(ctx context.Context) (*ports.ActiveSessionReport, error) {
	active, err := s.repo.CountActive(ctx)
	if err != nil {
		return nil, err
	}

	live, err := s.sessions.Count(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("session count unavailable")
		live = 0
	}

	return &ports.ActiveSessionReport{ActiveUsers: active, LiveSessions: live}, nil
}

func (s *UserService) issuePair(user *domain.User) (*ports.LoginResult, error) {
	ident := auth.Identity{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   string(user.Role),
	}

	access, err := s.codec.Issue(ident, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.codec.Issue(ident, s.refreshTTL)
	if err != nil {
		return nil, err
	}

	return &ports.LoginResult{
		User:         user.Sanitized(),
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// findByEmail bounds the store lookup so a slow store surfaces as
// StoreUnavailable instead of stalling the request. A caller-side
// cancellation is passed through untouched.
func (s *UserService) findByEmail(ctx context.Context, email string) (*domain.User, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	user, err := s.repo.FindByEmail(lookupCtx, email)
	if err != nil {
		return nil, s.mapStoreErr(ctx, err)
	}
	return user, nil
}

func (s *UserService) findByID(ctx context.Context, id string) (*domain.User, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	user, err := s.repo.FindByID(lookupCtx, id)
	if err != nil {
		return nil, s.mapStoreErr(ctx, err)
	}
	return user, nil
}

func (s *UserService) mapStoreErr(parent context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil {
		return domain.ErrStoreUnavailable
	}
	return err
}

func sanitizeAll(users []*domain.User) []*domain.User {
	out := make([]*domain.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Sanitized())
	}
	return out
}
