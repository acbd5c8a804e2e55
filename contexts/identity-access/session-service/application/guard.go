package application

import (
	"strings"

	domainerrors "hireloop/contexts/identity-access/session-service/domain/errors"
)

// TenantContext is the per-request authorization scope derived from verified
// claims. Never persisted.
type TenantContext struct {
	OrganizationID string
	UserID         string
	Role           string
}

// Guard turns bearer credentials into tenant-scoped authorization decisions.
// Stateless and reentrant: no shared mutable state, any goroutine may call it.
type Guard struct {
	Tokens TokenIssuer
}

// RequireSession extracts and verifies the bearer credential of a request.
func (g Guard) RequireSession(authorization string) (Claims, error) {
	token, ok := strings.CutPrefix(authorization, "Bearer ")
	if !ok {
		return Claims{}, domainerrors.ErrUnauthenticated
	}
	return g.Tokens.Verify(token)
}

// Context derives the tenant scope for a tenant-scoped operation. Claims
// without an organization fail closed.
func Context(claims Claims) (TenantContext, error) {
	if claims.OrganizationID == "" {
		return TenantContext{}, domainerrors.ErrForbidden
	}
	return TenantContext{
		OrganizationID: claims.OrganizationID,
		UserID:         claims.Subject,
		Role:           claims.Role,
	}, nil
}

// RequireRole fails when the context role is not in the allowed set.
func (c TenantContext) RequireRole(allowed ...string) error {
	for _, role := range allowed {
		if c.Role == role {
			return nil
		}
	}
	return domainerrors.ErrForbidden
}

// CanAccess is the tenant isolation check. A mismatch reports
// ErrResourceNotFound rather than ErrForbidden so out-of-tenant resources do
// not reveal their existence through a 403.
func (c TenantContext) CanAccess(resourceOrgID string) error {
	if c.OrganizationID != resourceOrgID {
		return domainerrors.ErrResourceNotFound
	}
	return nil
}

// IsAdmin reports whether the context carries the tenant admin role.
func (c TenantContext) IsAdmin() bool {
	return c.Role == "admin"
}
