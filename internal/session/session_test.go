package session

import (
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return tok
}

func TestFromToken(t *testing.T) {
	tests := []struct {
		name     string
		claims   jwt.MapClaims
		expected Session
		err      error
	}{
		{
			name:     "mongo style id",
			claims:   jwt.MapClaims{"_id": "64d33173fd7ff3fa0924a109", "role": "superAdmin"},
			expected: Session{UserID: "64d33173fd7ff3fa0924a109", Role: "superAdmin"},
		},
		{
			name:     "user_id claim",
			claims:   jwt.MapClaims{"user_id": "u1", "role": "user"},
			expected: Session{UserID: "u1", Role: "user"},
		},
		{
			name:     "subject fallback",
			claims:   jwt.MapClaims{"sub": "u2"},
			expected: Session{UserID: "u2"},
		},
		{
			name:   "no identity",
			claims: jwt.MapClaims{"role": "user"},
			err:    ErrNoIdentity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromToken(signed(t, tt.claims))
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("FromToken() error = %v, want %v", err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("FromToken() failed: %v", err)
			}
			if got != tt.expected {
				t.Errorf("FromToken() = %+v, want %+v", got, tt.expected)
			}
		})
	}
}

func TestResolvePrefersExplicitValues(t *testing.T) {
	tok := signed(t, jwt.MapClaims{"_id": "from-token", "role": "user"})

	s, err := Resolve("explicit", "", tok)
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if s.UserID != "explicit" || s.Role != "user" {
		t.Errorf("Resolve() = %+v, want explicit id with token role", s)
	}

	s, err = Resolve("u", "superAdmin", "not-a-token")
	if err != nil {
		t.Fatalf("Resolve() with explicit values should ignore the token: %v", err)
	}
	if !s.IsSuperAdmin() {
		t.Errorf("expected super admin session, got %+v", s)
	}

	if _, err := Resolve("", "", "garbage"); err == nil {
		t.Error("expected error for unparsable token without explicit id")
	}
}
