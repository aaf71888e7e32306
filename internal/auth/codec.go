package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taskforge/backoffice/internal/core/domain"
)

// Identity is the claim set carried inside a token: who the caller is and
// what they may do. Role is kept as a raw string here; the gate decides
// whether it belongs to the closed enumeration.
type Identity struct {
	UserID string
	Name   string
	Email  string
	Role   string
}

type tokenClaims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Codec signs and verifies HS256 tokens with a process-wide secret. It is
// pure computation: no I/O, no mutable state, safe for concurrent use.
type Codec struct {
	secret []byte
}

// NewCodec builds a Codec. An empty secret is a fatal misconfiguration, not
// a request-time condition, so it fails here and the process should not start.
func NewCodec(secret string) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("auth: signing secret is not configured")
	}
	return &Codec{secret: []byte(secret)}, nil
}

// Issue serializes the identity into a signed token valid for ttl.
func (c *Codec) Issue(ident Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Name:  ident.Name,
		Email: ident.Email,
		Role:  ident.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ident.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token string, returning the embedded
// identity. Failures map to exactly one of ErrTokenMalformed,
// ErrTokenExpired, or ErrTokenInvalid.
func (c *Codec) Verify(token string) (*Identity, error) {
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return c.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		default:
			return nil, ErrTokenInvalid
		}
	}
	if !parsed.Valid {
		return nil, ErrTokenInvalid
	}

	return &Identity{
		UserID: claims.Subject,
		Name:   claims.Name,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}

// ParsedRole validates the role claim against the closed enumeration. A token
// carrying an unrecognized role is untrusted even when its signature checks
// out.
func (i *Identity) ParsedRole() (domain.Role, error) {
	role, err := domain.ParseRole(i.Role)
	if err != nil {
		return "", ErrInvalidRole
	}
	return role, nil
}
