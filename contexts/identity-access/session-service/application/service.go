package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	domainerrors "hireloop/contexts/identity-access/session-service/domain/errors"
	"hireloop/contexts/identity-access/session-service/ports"
)

const minPasswordLength = 12

var allowedRoles = map[string]struct{}{
	"admin":          {},
	"recruiter":      {},
	"hiring_manager": {},
	"interviewer":    {},
	"candidate":      {},
}

// Service handles register/login/profile for the identity surface.
// It is the producer of session tokens; all other endpoints only verify them.
type Service struct {
	Users           ports.UserRepository
	Tokens          TokenIssuer
	Clock           ports.Clock
	IDGenerator     ports.IDGenerator
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Logger          *slog.Logger
}

type RegisterCommand struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
}

type LoginCommand struct {
	Email    string
	Password string
}

// TokenPair is the issued credential set returned by register and login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Profile is the authenticated-user projection behind GET /me.
type Profile struct {
	UserID         string    `json:"user_id"`
	Email          string    `json:"email"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Role           string    `json:"role"`
	OrganizationID string    `json:"organization_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (s Service) Register(ctx context.Context, cmd RegisterCommand) (TokenPair, error) {
	logger := ResolveLogger(s.Logger)

	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	if !strings.Contains(email, "@") {
		return TokenPair{}, domainerrors.ErrInvalidEmail
	}
	if len(cmd.Password) < minPasswordLength {
		return TokenPair{}, domainerrors.ErrWeakPassword
	}
	if _, ok := allowedRoles[cmd.Role]; !ok {
		return TokenPair{}, domainerrors.ErrInvalidRole
	}

	hash, err := HashPassword(cmd.Password)
	if err != nil {
		return TokenPair{}, err
	}

	userID, err := s.IDGenerator.NewID(ctx)
	if err != nil {
		return TokenPair{}, err
	}

	now := s.Clock.Now().UTC()
	user := ports.User{
		UserID:       userID,
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(cmd.FirstName),
		LastName:     strings.TrimSpace(cmd.LastName),
		Role:         cmd.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Users.CreateUser(ctx, user); err != nil {
		return TokenPair{}, err
	}

	logger.Info("user registered",
		"event", "identity_user_registered",
		"module", "identity-access/session-service",
		"layer", "application",
		"user_id", userID,
		"role", cmd.Role,
	)
	return s.issuePair(user)
}

func (s Service) Login(ctx context.Context, cmd LoginCommand) (TokenPair, error) {
	logger := ResolveLogger(s.Logger)

	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	user, err := s.Users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domainerrors.ErrUserNotFound) {
			return TokenPair{}, domainerrors.ErrInvalidCredentials
		}
		return TokenPair{}, err
	}
	if err := VerifyPassword(user.PasswordHash, cmd.Password); err != nil {
		logger.Info("login rejected",
			"event", "identity_login_rejected",
			"module", "identity-access/session-service",
			"layer", "application",
			"user_id", user.UserID,
		)
		return TokenPair{}, domainerrors.ErrInvalidCredentials
	}

	logger.Info("login succeeded",
		"event", "identity_login_succeeded",
		"module", "identity-access/session-service",
		"layer", "application",
		"user_id", user.UserID,
	)
	return s.issuePair(user)
}

func (s Service) Me(ctx context.Context, claims Claims) (Profile, error) {
	user, err := s.Users.GetUserByID(ctx, claims.Subject)
	if err != nil {
		return Profile{}, err
	}
	return Profile{
		UserID:         user.UserID,
		Email:          user.Email,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		Role:           user.Role,
		OrganizationID: user.OrganizationID,
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	}, nil
}

func (s Service) issuePair(user ports.User) (TokenPair, error) {
	access, err := s.Tokens.Issue(user.UserID, user.Email, user.Role, user.OrganizationID, s.AccessTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.Tokens.Issue(user.UserID, user.Email, user.Role, user.OrganizationID, s.RefreshTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.AccessTokenTTL.Seconds()),
	}, nil
}
