package consumers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "hireloop/contexts/scheduling/meeting-service/application"
	"hireloop/contexts/scheduling/meeting-service/domain/entities"
	domainerrors "hireloop/contexts/scheduling/meeting-service/domain/errors"
	"hireloop/contexts/scheduling/meeting-service/ports"
	"hireloop/internal/shared/idempotency"
)

const (
	webhookLedgerPrefix = "video_webhook:"
	webhookLedgerTTL    = 7 * 24 * time.Hour
)

// ProviderEvent is the normalized shape of a provider callback.
type ProviderEvent struct {
	EventID             string
	EventType           string
	RoomName            string
	ParticipantIdentity string
}

type webhookPayload struct {
	ID    string `json:"id"`
	Event string `json:"event"`
	Room  struct {
		Name string `json:"name"`
	} `json:"room"`
	Participant struct {
		Identity string `json:"identity"`
	} `json:"participant"`
}

type Result struct {
	Processed bool
}

// WebhookReconciler absorbs at-least-once provider delivery and maps events
// onto meeting transitions exactly once. The durable ledger reservation is the
// decision point: a redelivery that loses the reservation race is acknowledged
// without reprocessing.
type WebhookReconciler struct {
	Meetings ports.MeetingRepository
	Ledger   idempotency.Store
	Verifier ports.SignatureVerifier
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

func (r WebhookReconciler) Handle(ctx context.Context, rawBody []byte, signature string, correlationID string) (Result, error) {
	logger := application.ResolveLogger(r.Logger)

	if r.Verifier == nil {
		return Result{}, domainerrors.ErrInvalidSignature
	}
	if err := r.Verifier.Verify(rawBody, signature); err != nil {
		return Result{}, err
	}

	event, err := parseProviderEvent(rawBody)
	if err != nil {
		return Result{}, err
	}

	now := r.Clock.Now().UTC()
	ledgerKey := webhookLedgerPrefix + event.EventID
	already, err := idempotency.Reserve(ctx, r.Ledger, ledgerKey,
		idempotency.Fingerprint(rawBody), now, webhookLedgerTTL)
	if err != nil {
		if errors.Is(err, idempotency.ErrConflict) {
			// Same event id with a different payload; treat as a duplicate and
			// keep the first delivery's outcome.
			logger.Warn("webhook event id reused with different payload",
				"event", "webhook_duplicate_mismatch",
				"module", "scheduling/meeting-service",
				"layer", "application",
				"provider_event_id", event.EventID,
			)
			return Result{Processed: false}, nil
		}
		return Result{}, err
	}
	if already {
		logger.Info("duplicate webhook event skipped",
			"event", "webhook_duplicate",
			"module", "scheduling/meeting-service",
			"layer", "application",
			"provider_event_id", event.EventID,
		)
		return Result{Processed: false}, nil
	}

	if event.RoomName == "" {
		logger.Warn("webhook event has no room name",
			"event", "webhook_room_missing",
			"module", "scheduling/meeting-service",
			"layer", "application",
			"provider_event_id", event.EventID,
		)
		return Result{Processed: false}, nil
	}

	result, err := r.reconcile(ctx, event, correlationID, now, logger)
	if err != nil {
		// The claim must not outlive a failed reconciliation: the provider will
		// redeliver on our error response, and an orphaned claim would absorb
		// that redelivery as a duplicate, losing the transition for good.
		r.releaseClaim(ctx, ledgerKey, logger)
		return Result{}, err
	}
	return result, nil
}

func (r WebhookReconciler) reconcile(
	ctx context.Context,
	event ProviderEvent,
	correlationID string,
	now time.Time,
	logger *slog.Logger,
) (Result, error) {
	meeting, err := r.Meetings.GetMeetingByRoomName(ctx, event.RoomName)
	if err != nil {
		if errors.Is(err, domainerrors.ErrMeetingNotFound) {
			// The provider cannot act on a 4xx/5xx distinction for a room we
			// will never recognize; acknowledge and log instead of retrying.
			logger.Warn("webhook room name does not match a meeting",
				"event", "webhook_room_unknown",
				"module", "scheduling/meeting-service",
				"layer", "application",
				"provider_event_id", event.EventID,
				"room_name", event.RoomName,
			)
			return Result{Processed: false}, nil
		}
		return Result{}, err
	}

	if err := r.applyMapping(ctx, meeting, event, correlationID, now, logger); err != nil {
		return Result{}, err
	}

	eventID, err := r.IDGen.NewID(ctx)
	if err != nil {
		return Result{}, err
	}
	if err := r.Meetings.AppendEvent(ctx, entities.MeetingEvent{
		EventID:        eventID,
		MeetingID:      meeting.MeetingID,
		OrganizationID: meeting.OrganizationID,
		ActorID:        event.ParticipantIdentity,
		EventType:      entities.EventWebhookReconciled,
		CorrelationID:  correlationID,
		Payload: map[string]any{
			"provider_event_id": event.EventID,
			"event_type":        event.EventType,
		},
		CreatedAt: now,
	}); err != nil {
		return Result{}, err
	}

	logger.Info("webhook event reconciled",
		"event", "webhook_reconciled",
		"module", "scheduling/meeting-service",
		"layer", "application",
		"provider_event_id", event.EventID,
		"event_type", event.EventType,
		"meeting_id", meeting.MeetingID,
	)
	return Result{Processed: true}, nil
}

func (r WebhookReconciler) releaseClaim(ctx context.Context, ledgerKey string, logger *slog.Logger) {
	if err := r.Ledger.Delete(ctx, ledgerKey); err != nil {
		logger.Error("webhook ledger claim release failed",
			"event", "webhook_claim_release_failed",
			"module", "scheduling/meeting-service",
			"layer", "application",
			"ledger_key", ledgerKey,
			"error", err.Error(),
		)
	}
}

func (r WebhookReconciler) applyMapping(
	ctx context.Context,
	meeting entities.Meeting,
	event ProviderEvent,
	correlationID string,
	now time.Time,
	logger *slog.Logger,
) error {
	switch event.EventType {
	case "participant_joined":
		if event.ParticipantIdentity != "" {
			if err := r.Meetings.UpdateAttendance(ctx, meeting.MeetingID, event.ParticipantIdentity, entities.AttendanceJoined, now); err != nil {
				return err
			}
		}
		if meeting.Status == entities.MeetingStatusCompleted || meeting.Status == entities.MeetingStatusAccepted || meeting.IsTerminal() {
			return nil
		}
		eventID, err := r.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		_, err = r.Meetings.StartMeeting(ctx, meeting.MeetingID, entities.MeetingEvent{
			EventID:        eventID,
			MeetingID:      meeting.MeetingID,
			OrganizationID: meeting.OrganizationID,
			ActorID:        event.ParticipantIdentity,
			EventType:      entities.EventMeetingStarted,
			CorrelationID:  correlationID,
			Payload:        map[string]any{"provider_event_id": event.EventID},
			CreatedAt:      now,
		})
		return err

	case "participant_left":
		if event.ParticipantIdentity == "" {
			return nil
		}
		if err := r.Meetings.UpdateAttendance(ctx, meeting.MeetingID, event.ParticipantIdentity, entities.AttendanceLeft, now); err != nil {
			return err
		}
		eventID, err := r.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		return r.Meetings.AppendEvent(ctx, entities.MeetingEvent{
			EventID:        eventID,
			MeetingID:      meeting.MeetingID,
			OrganizationID: meeting.OrganizationID,
			ActorID:        event.ParticipantIdentity,
			EventType:      entities.EventParticipantLeft,
			CorrelationID:  correlationID,
			Payload:        map[string]any{"provider_event_id": event.EventID},
			CreatedAt:      now,
		})

	case "room_finished":
		eventID, err := r.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		err = r.Meetings.EndMeeting(ctx, meeting.MeetingID, now, entities.MeetingEvent{
			EventID:        eventID,
			MeetingID:      meeting.MeetingID,
			OrganizationID: meeting.OrganizationID,
			EventType:      entities.EventMeetingEnded,
			CorrelationID:  correlationID,
			Payload:        map[string]any{"provider_event_id": event.EventID},
			CreatedAt:      now,
		})
		if errors.Is(err, domainerrors.ErrInvalidTransition) {
			logger.Info("room finished for already-terminal meeting",
				"event", "webhook_end_noop",
				"module", "scheduling/meeting-service",
				"layer", "application",
				"meeting_id", meeting.MeetingID,
			)
			return nil
		}
		return err

	default:
		logger.Info("unknown webhook event type acknowledged",
			"event", "webhook_type_unknown",
			"module", "scheduling/meeting-service",
			"layer", "application",
			"provider_event_id", event.EventID,
			"event_type", event.EventType,
		)
		return nil
	}
}

func parseProviderEvent(rawBody []byte) (ProviderEvent, error) {
	var payload webhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return ProviderEvent{}, domainerrors.ErrInvalidWebhookPayload
	}
	eventID := strings.TrimSpace(payload.ID)
	if eventID == "" {
		return ProviderEvent{}, domainerrors.ErrInvalidWebhookPayload
	}
	eventType := strings.ToLower(strings.TrimSpace(payload.Event))
	if eventType == "" {
		eventType = "unknown"
	}
	return ProviderEvent{
		EventID:             eventID,
		EventType:           eventType,
		RoomName:            strings.TrimSpace(payload.Room.Name),
		ParticipantIdentity: strings.TrimSpace(payload.Participant.Identity),
	}, nil
}
