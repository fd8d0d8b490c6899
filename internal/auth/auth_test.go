package auth

import (
	"errors"
	"testing"
	"time"
)

func TestLoginAndVerify(t *testing.T) {
	hash, err := HashPassword("chalk")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	iss := NewIssuer("secret", hash, time.Hour)

	if _, _, err := iss.Login("wrong"); !errors.Is(err, ErrBadPassword) {
		t.Errorf("Login(wrong) = %v, want ErrBadPassword", err)
	}

	token, exp, err := iss.Login("chalk")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Errorf("token already expired: %v", exp)
	}
	claims, err := iss.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Role != RoleOperator {
		t.Errorf("role = %q, want %q", claims.Role, RoleOperator)
	}
}

func TestVerifyRejects(t *testing.T) {
	iss := NewIssuer("secret", "", time.Hour)
	other := NewIssuer("other-secret", "", time.Hour)
	expired := NewIssuer("secret", "", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	good, _, _ := other.Issue(RoleOperator)
	old, _, _ := expired.Issue(RoleOperator)
	viewer, _, _ := iss.Issue("viewer")

	for name, token := range map[string]string{
		"wrong key":  good,
		"expired":    old,
		"wrong role": viewer,
		"garbage":    "not.a.token",
	} {
		if _, err := iss.Verify(token); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("%s: Verify = %v, want ErrUnauthorized", name, err)
		}
	}
}

func TestLoginWithoutHash(t *testing.T) {
	iss := NewIssuer("secret", "", time.Hour)
	if _, _, err := iss.Login(""); !errors.Is(err, ErrBadPassword) {
		t.Errorf("Login with no configured hash = %v, want ErrBadPassword", err)
	}
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"Bearer abc":   "abc",
		"bearer  xyz ": "xyz",
		"Basic abc":    "",
		"Bearer":       "",
		"":             "",
	}
	for in, want := range tests {
		if got := BearerToken(in); got != want {
			t.Errorf("BearerToken(%q) = %q, want %q", in, got, want)
		}
	}
}
