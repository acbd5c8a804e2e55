package commands

import (
	"context"
	"log/slog"
	"strings"

	application "hireloop/contexts/scheduling/meeting-service/application"
	"hireloop/contexts/scheduling/meeting-service/domain/entities"
	domainerrors "hireloop/contexts/scheduling/meeting-service/domain/errors"
	"hireloop/contexts/scheduling/meeting-service/ports"
)

type DenyMeetingCommand struct {
	Actor         application.Actor
	MeetingID     string
	Reason        string
	CorrelationID string
}

type DenyMeetingUseCase struct {
	Meetings ports.MeetingRepository
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

func (uc DenyMeetingUseCase) Execute(ctx context.Context, cmd DenyMeetingCommand) (entities.Meeting, error) {
	logger := application.ResolveLogger(uc.Logger)

	meeting, err := loadScopedMeeting(ctx, uc.Meetings, cmd.Actor, cmd.MeetingID)
	if err != nil {
		return entities.Meeting{}, err
	}
	if _, err := requireParticipant(ctx, uc.Meetings, cmd.Actor, meeting.MeetingID); err != nil {
		return entities.Meeting{}, err
	}
	if meeting.Status != entities.MeetingStatusPending {
		return entities.Meeting{}, domainerrors.ErrInvalidTransition
	}

	now := uc.Clock.Now().UTC()
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Meeting{}, err
	}
	reason := strings.TrimSpace(cmd.Reason)
	event := entities.MeetingEvent{
		EventID:        eventID,
		MeetingID:      meeting.MeetingID,
		OrganizationID: meeting.OrganizationID,
		ActorID:        cmd.Actor.UserID,
		EventType:      entities.EventMeetingDenied,
		CorrelationID:  cmd.CorrelationID,
		Payload:        map[string]any{"reason": reason},
		CreatedAt:      now,
	}

	if err := uc.Meetings.DenyMeeting(ctx, meeting.MeetingID, reason, event); err != nil {
		return entities.Meeting{}, err
	}

	logger.Info("meeting denied",
		"event", "meeting_denied",
		"module", "scheduling/meeting-service",
		"layer", "application",
		"meeting_id", meeting.MeetingID,
	)
	return uc.Meetings.GetMeeting(ctx, meeting.MeetingID)
}
