package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/taskforge/backoffice/internal/core/domain"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	codec, err := NewCodec("test-secret")
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return codec
}

func TestNewCodec_EmptySecret(t *testing.T) {
	if _, err := NewCodec(""); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	codec := newTestCodec(t)

	ident := Identity{UserID: "u1", Name: "Alice", Email: "alice@example.com", Role: "USER"}
	token, err := codec.Issue(ident, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if token == "" {
		t.Fatalf("expected non-empty token")
	}

	got, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if *got != ident {
		t.Fatalf("claims changed in round-trip: got %+v, want %+v", *got, ident)
	}
}

func TestCodec_Verify_TamperedSignature(t *testing.T) {
	codec := newTestCodec(t)

	token, err := codec.Issue(Identity{UserID: "u1", Role: "USER"}, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Flip the last signature byte.
	tampered := token[:len(token)-1]
	if strings.HasSuffix(token, "A") {
		tampered += "B"
	} else {
		tampered += "A"
	}

	if _, err := codec.Verify(tampered); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestCodec_Verify_WrongSecret(t *testing.T) {
	codec := newTestCodec(t)
	other, err := NewCodec("other-secret")
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	token, err := other.Issue(Identity{UserID: "u1", Role: "USER"}, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := codec.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestCodec_Verify_Expired(t *testing.T) {
	codec := newTestCodec(t)

	token, err := codec.Issue(Identity{UserID: "u1", Role: "USER"}, -time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := codec.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestCodec_Verify_ExpiresAfterTTL(t *testing.T) {
	codec := newTestCodec(t)

	token, err := codec.Issue(Identity{UserID: "u1", Role: "USER"}, time.Second)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := codec.Verify(token); err != nil {
		t.Fatalf("token should verify before expiry: %v", err)
	}

	time.Sleep(1500 * time.Millisecond)

	if _, err := codec.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired after TTL, got %v", err)
	}
}

func TestCodec_Verify_Malformed(t *testing.T) {
	codec := newTestCodec(t)

	for _, raw := range []string{"not-a-token", "a.b", ""} {
		if _, err := codec.Verify(raw); !errors.Is(err, ErrTokenMalformed) {
			t.Fatalf("expected ErrTokenMalformed for %q, got %v", raw, err)
		}
	}
}

func TestIdentity_ParsedRole(t *testing.T) {
	ident := Identity{UserID: "u1", Role: "ADMIN"}
	role, err := ident.ParsedRole()
	if err != nil {
		t.Fatalf("ParsedRole: %v", err)
	}
	if role != domain.RoleAdmin {
		t.Fatalf("expected ADMIN, got %s", role)
	}

	// A signed token with a role outside the enumeration stays untrusted.
	ident.Role = "SUPERUSER"
	if _, err := ident.ParsedRole(); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}

	ident.Role = ""
	if _, err := ident.ParsedRole(); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole for empty role, got %v", err)
	}
}
