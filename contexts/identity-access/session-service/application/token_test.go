package application

import (
	"testing"
	"time"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

func newIssuer(now time.Time) (*fixedClock, TokenIssuer) {
	clock := &fixedClock{now: now}
	return clock, TokenIssuer{Secret: []byte("test-session-secret"), Clock: clock}
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	_, issuer := newIssuer(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	token, err := issuer.Issue("user-1", "ana@example.com", "recruiter", "org-1", time.Hour)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.Subject != "user-1" || claims.Email != "ana@example.com" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.Role != "recruiter" || claims.OrganizationID != "org-1" {
		t.Fatalf("unexpected scope claims %+v", claims)
	}
	if !claims.ExpiresAt.Equal(claims.IssuedAt.Add(time.Hour)) {
		t.Fatalf("expected expiry one hour after issue, got %v / %v", claims.IssuedAt, claims.ExpiresAt)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	clock, issuer := newIssuer(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	token, err := issuer.Issue("user-1", "ana@example.com", "recruiter", "org-1", time.Minute)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	clock.now = clock.now.Add(2 * time.Minute)
	if _, err := issuer.Verify(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	_, issuer := newIssuer(now)
	forged := TokenIssuer{Secret: []byte("other-secret"), Clock: &fixedClock{now: now}}

	token, err := forged.Issue("user-1", "ana@example.com", "recruiter", "org-1", time.Hour)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := issuer.Verify(token); err == nil {
		t.Fatal("expected signature mismatch to be rejected")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	_, issuer := newIssuer(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := issuer.Verify(token); err == nil {
			t.Fatalf("expected %q to be rejected", token)
		}
	}
}

func TestIssueWithoutOrgOmitsOrgClaim(t *testing.T) {
	_, issuer := newIssuer(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	token, err := issuer.Issue("user-1", "ana@example.com", "candidate", "", time.Hour)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.OrganizationID != "" {
		t.Fatalf("expected empty org, got %q", claims.OrganizationID)
	}
}
