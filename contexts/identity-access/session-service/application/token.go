package application

import (
	"strings"
	"time"

	domainerrors "hireloop/contexts/identity-access/session-service/domain/errors"
	"hireloop/contexts/identity-access/session-service/ports"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the verified identity facts carried by a session token.
// Immutable once issued: signed at login/registration, verified per request,
// discarded after expiry.
type Claims struct {
	Subject        string
	Email          string
	Role           string
	OrganizationID string
	IssuedAt       time.Time
	ExpiresAt      time.Time
}

type sessionClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	OrgID string `json:"org_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies session tokens. Pure function of secret and
// clock; safe for concurrent use.
type TokenIssuer struct {
	Secret []byte
	Clock  ports.Clock
}

func (i TokenIssuer) now() time.Time {
	if i.Clock != nil {
		return i.Clock.Now()
	}
	return time.Now()
}

// Issue embeds signed claims for subject with expiry = now + ttl.
func (i TokenIssuer) Issue(subject string, email string, role string, orgID string, ttl time.Duration) (string, error) {
	now := i.now()
	claims := sessionClaims{
		Email: email,
		Role:  role,
		OrgID: orgID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.Secret)
}

// Verify checks signature and expiry. Any failure mode (missing, malformed,
// forged, wrong algorithm, expired) collapses to ErrUnauthenticated; business
// checks live in the guard, not here.
func (i TokenIssuer) Verify(token string) (Claims, error) {
	if strings.TrimSpace(token) == "" {
		return Claims{}, domainerrors.ErrUnauthenticated
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)

	var parsed sessionClaims
	_, err := parser.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return i.Secret, nil
	})
	if err != nil {
		return Claims{}, domainerrors.ErrUnauthenticated
	}

	claims := Claims{
		Subject:        parsed.Subject,
		Email:          parsed.Email,
		Role:           parsed.Role,
		OrganizationID: parsed.OrgID,
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time
	}
	if parsed.ExpiresAt != nil {
		claims.ExpiresAt = parsed.ExpiresAt.Time
	}
	return claims, nil
}
