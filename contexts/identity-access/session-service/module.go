package session

import (
	"log/slog"
	"time"

	httpadapter "hireloop/contexts/identity-access/session-service/adapters/http"
	"hireloop/contexts/identity-access/session-service/adapters/memory"
	"hireloop/contexts/identity-access/session-service/application"
	"hireloop/contexts/identity-access/session-service/ports"
)

// Module is the session-service composition root exposed to runtime wiring.
// Guard is shared with every other HTTP surface that authenticates requests.
type Module struct {
	Handler httpadapter.Handler
	Guard   application.Guard
	Store   *memory.Store
}

// Dependencies captures all runtime ports/config required by NewModule.
type Dependencies struct {
	Users           ports.UserRepository
	Clock           ports.Clock
	IDGenerator     ports.IDGenerator
	SessionSecret   []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Logger          *slog.Logger
}

// NewModule wires the identity service and the authorization guard.
func NewModule(deps Dependencies) Module {
	tokens := application.TokenIssuer{
		Secret: deps.SessionSecret,
		Clock:  deps.Clock,
	}
	service := application.Service{
		Users:           deps.Users,
		Tokens:          tokens,
		Clock:           deps.Clock,
		IDGenerator:     deps.IDGenerator,
		AccessTokenTTL:  deps.AccessTokenTTL,
		RefreshTokenTTL: deps.RefreshTokenTTL,
		Logger:          deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{Service: service, Logger: deps.Logger},
		Guard:   application.Guard{Tokens: tokens},
	}
}

// NewInMemoryModule builds a development/testing module with in-memory adapters.
func NewInMemoryModule(secret []byte, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Users:           store,
		Clock:           store,
		IDGenerator:     store,
		SessionSecret:   secret,
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		Logger:          logger,
	})
	module.Store = store
	return module
}
