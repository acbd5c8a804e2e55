package scheduling

import (
	"log/slog"
	"time"

	httpadapter "hireloop/contexts/scheduling/meeting-service/adapters/http"
	"hireloop/contexts/scheduling/meeting-service/adapters/memory"
	"hireloop/contexts/scheduling/meeting-service/application"
	"hireloop/contexts/scheduling/meeting-service/application/commands"
	"hireloop/contexts/scheduling/meeting-service/application/consumers"
	"hireloop/contexts/scheduling/meeting-service/application/queries"
	"hireloop/contexts/scheduling/meeting-service/application/workers"
	"hireloop/contexts/scheduling/meeting-service/ports"
	"hireloop/internal/shared/idempotency"
)

// Module is the meeting-service composition root exposed to runtime wiring.
type Module struct {
	Handler httpadapter.Handler
	Relay   workers.OutboxRelay
	Store   *memory.Store
}

// Dependencies captures all runtime ports/config required by NewModule.
type Dependencies struct {
	Meetings      ports.MeetingRepository
	Outbox        ports.OutboxRepository
	WebhookLedger idempotency.Store
	Verifier      ports.SignatureVerifier
	Publisher     ports.EventPublisher
	Clock         ports.Clock
	IDGenerator   ports.IDGenerator
	PollInterval  time.Duration
	Logger        *slog.Logger
}

// NewModule wires commands, queries, the webhook reconciler, and the outbox
// relay worker.
func NewModule(deps Dependencies) Module {
	handler := httpadapter.Handler{
		CreateMeeting: commands.CreateMeetingUseCase{
			Meetings: deps.Meetings, Clock: deps.Clock, IDGen: deps.IDGenerator, Logger: deps.Logger,
		},
		AcceptMeeting: commands.AcceptMeetingUseCase{
			Meetings: deps.Meetings, Clock: deps.Clock, IDGen: deps.IDGenerator, Logger: deps.Logger,
		},
		DenyMeeting: commands.DenyMeetingUseCase{
			Meetings: deps.Meetings, Clock: deps.Clock, IDGen: deps.IDGenerator, Logger: deps.Logger,
		},
		Reschedule: commands.RescheduleMeetingUseCase{
			Meetings: deps.Meetings, Clock: deps.Clock, IDGen: deps.IDGenerator, Logger: deps.Logger,
		},
		EndMeeting: commands.EndMeetingUseCase{
			Meetings: deps.Meetings, Clock: deps.Clock, IDGen: deps.IDGenerator, Logger: deps.Logger,
		},
		IssueJoinToken: commands.IssueJoinTokenUseCase{
			Meetings: deps.Meetings, Clock: deps.Clock, IDGen: deps.IDGenerator, Logger: deps.Logger,
		},
		GetMeeting:    queries.GetMeetingUseCase{Meetings: deps.Meetings},
		ListMeetings:  queries.ListMeetingsUseCase{Meetings: deps.Meetings},
		InterviewRoom: queries.InterviewRoomUseCase{Meetings: deps.Meetings, Clock: deps.Clock},
		Webhook: consumers.WebhookReconciler{
			Meetings: deps.Meetings,
			Ledger:   deps.WebhookLedger,
			Verifier: deps.Verifier,
			Clock:    deps.Clock,
			IDGen:    deps.IDGenerator,
			Logger:   deps.Logger,
		},
		Logger: deps.Logger,
	}

	return Module{
		Handler: handler,
		Relay: workers.OutboxRelay{
			Outbox:       deps.Outbox,
			Publisher:    deps.Publisher,
			Clock:        deps.Clock,
			PollInterval: deps.PollInterval,
			Logger:       deps.Logger,
		},
	}
}

// NewInMemoryModule builds a development/testing module with in-memory
// adapters and an HMAC webhook verifier.
func NewInMemoryModule(webhookSecret []byte, publisher ports.EventPublisher, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Meetings:      store,
		Outbox:        store,
		WebhookLedger: idempotency.NewMemoryStore(),
		Verifier:      application.HMACSignatureVerifier{Secret: webhookSecret},
		Publisher:     publisher,
		Clock:         store,
		IDGenerator:   store,
		PollInterval:  time.Second,
		Logger:        logger,
	})
	module.Store = store
	return module
}
