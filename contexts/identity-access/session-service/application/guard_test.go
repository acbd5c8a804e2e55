package application

import (
	"testing"
	"time"

	domainerrors "hireloop/contexts/identity-access/session-service/domain/errors"
)

func TestRequireSessionExtractsBearer(t *testing.T) {
	_, issuer := newIssuer(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	guard := Guard{Tokens: issuer}

	token, err := issuer.Issue("user-1", "ana@example.com", "recruiter", "org-1", time.Hour)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	claims, err := guard.RequireSession("Bearer " + token)
	if err != nil {
		t.Fatalf("require session failed: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}
}

func TestRequireSessionRejectsMissingOrMalformedHeader(t *testing.T) {
	_, issuer := newIssuer(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	guard := Guard{Tokens: issuer}

	for _, header := range []string{"", "Basic abc", "Bearer", "token-without-scheme"} {
		if _, err := guard.RequireSession(header); err != domainerrors.ErrUnauthenticated {
			t.Fatalf("expected ErrUnauthenticated for %q, got %v", header, err)
		}
	}
}

func TestContextRequiresOrganization(t *testing.T) {
	_, err := Context(Claims{Subject: "user-1", Role: "candidate"})
	if err != domainerrors.ErrForbidden {
		t.Fatalf("expected ErrForbidden without org, got %v", err)
	}

	ctx, err := Context(Claims{Subject: "user-1", Role: "recruiter", OrganizationID: "org-1"})
	if err != nil {
		t.Fatalf("context failed: %v", err)
	}
	if ctx.OrganizationID != "org-1" || ctx.UserID != "user-1" || ctx.Role != "recruiter" {
		t.Fatalf("unexpected context %+v", ctx)
	}
}

func TestRequireRole(t *testing.T) {
	ctx := TenantContext{OrganizationID: "org-1", UserID: "user-1", Role: "interviewer"}

	if err := ctx.RequireRole("recruiter", "interviewer"); err != nil {
		t.Fatalf("expected allowed role, got %v", err)
	}
	if err := ctx.RequireRole("admin"); err != domainerrors.ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCanAccessHidesCrossTenantResources(t *testing.T) {
	ctx := TenantContext{OrganizationID: "org-a", UserID: "user-1", Role: "recruiter"}

	if err := ctx.CanAccess("org-a"); err != nil {
		t.Fatalf("same-tenant access failed: %v", err)
	}
	// Cross-tenant probes must not learn the resource exists.
	if err := ctx.CanAccess("org-b"); err != domainerrors.ErrResourceNotFound {
		t.Fatalf("expected ErrResourceNotFound, got %v", err)
	}
}
