package domain

import (
	"errors"
	"time"
)

// Role is the closed set of roles the platform recognises. Anything else is
// rejected at the boundary; no downstream casing fix-ups.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

var ErrUnknownRole = errors.New("unknown role")

// ParseRole converts a raw string into a Role, rejecting values outside the
// enumeration. Token claims and registration payloads both pass through here.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAdmin:
		return Role(s), nil
	}
	return "", ErrUnknownRole
}

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserBlocked        = errors.New("user is blocked")
	ErrStoreUnavailable   = errors.New("credential store unavailable")
)

// User models an account in the back office. PasswordHash never crosses the
// JSON boundary; services additionally blank it before issuing tokens or
// returning projections.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
	Active       bool   `json:"active"`
	Blocked      bool   `json:"blocked"`

	ProfileCompleted       bool `json:"profile_completed"`
	QualificationCompleted bool `json:"qualification_completed"`
	KYCCompleted           bool `json:"kyc_completed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OnboardingStep identifies one of the three account-completion steps.
type OnboardingStep string

const (
	StepProfile       OnboardingStep = "profile"
	StepQualification OnboardingStep = "qualification"
	StepKYC           OnboardingStep = "kyc"
)

var ErrUnknownOnboardingStep = errors.New("unknown onboarding step")

// Sanitized returns a copy of the user with the credential hash stripped.
// Call it before a user leaves the service layer.
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.PasswordHash = ""
	return &clone
}
