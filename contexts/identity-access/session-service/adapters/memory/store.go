package memory

import (
	"context"
	"sync"
	"time"

	domainerrors "hireloop/contexts/identity-access/session-service/domain/errors"
	"hireloop/contexts/identity-access/session-service/ports"

	"github.com/google/uuid"
)

// Store is an in-memory adapter implementing the identity ports.
// It is intended for tests and local development wiring.
type Store struct {
	mu      sync.RWMutex
	users   map[string]ports.User
	byEmail map[string]string
}

func NewStore() *Store {
	return &Store{
		users:   make(map[string]ports.User),
		byEmail: make(map[string]string),
	}
}

func (s *Store) CreateUser(_ context.Context, user ports.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[user.Email]; exists {
		return domainerrors.ErrEmailTaken
	}
	s.users[user.UserID] = user
	s.byEmail[user.Email] = user.UserID
	return nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (ports.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID, ok := s.byEmail[email]
	if !ok {
		return ports.User{}, domainerrors.ErrUserNotFound
	}
	return s.users[userID], nil
}

func (s *Store) GetUserByID(_ context.Context, userID string) (ports.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return ports.User{}, domainerrors.ErrUserNotFound
	}
	return user, nil
}

// SetOrganization assigns tenant membership directly; organization onboarding
// flows live outside this service.
func (s *Store) SetOrganization(userID string, orgID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return
	}
	user.OrganizationID = orgID
	s.users[userID] = user
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
