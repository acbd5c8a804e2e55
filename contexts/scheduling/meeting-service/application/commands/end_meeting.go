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

type EndMeetingCommand struct {
	Actor         application.Actor
	MeetingID     string
	Reason        string
	CorrelationID string
}

type EndMeetingUseCase struct {
	Meetings ports.MeetingRepository
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

func (uc EndMeetingUseCase) Execute(ctx context.Context, cmd EndMeetingCommand) (entities.Meeting, error) {
	logger := application.ResolveLogger(uc.Logger)

	meeting, err := loadScopedMeeting(ctx, uc.Meetings, cmd.Actor, cmd.MeetingID)
	if err != nil {
		return entities.Meeting{}, err
	}

	participants, err := uc.Meetings.ListParticipants(ctx, meeting.MeetingID)
	if err != nil {
		return entities.Meeting{}, err
	}
	participant, isParticipant := findParticipant(participants, cmd.Actor.UserID)
	canEnd := cmd.Actor.IsAdmin() || (isParticipant && entities.CanEndMeeting(participant.Role))
	if !canEnd {
		return entities.Meeting{}, domainerrors.ErrForbidden
	}
	if meeting.IsTerminal() {
		return entities.Meeting{}, domainerrors.ErrInvalidTransition
	}

	now := uc.Clock.Now().UTC()
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Meeting{}, err
	}
	event := entities.MeetingEvent{
		EventID:        eventID,
		MeetingID:      meeting.MeetingID,
		OrganizationID: meeting.OrganizationID,
		ActorID:        cmd.Actor.UserID,
		EventType:      entities.EventMeetingEnded,
		CorrelationID:  cmd.CorrelationID,
		Payload:        map[string]any{"reason": strings.TrimSpace(cmd.Reason)},
		CreatedAt:      now,
	}

	if err := uc.Meetings.EndMeeting(ctx, meeting.MeetingID, now, event); err != nil {
		return entities.Meeting{}, err
	}

	logger.Info("meeting ended",
		"event", "meeting_ended",
		"module", "scheduling/meeting-service",
		"layer", "application",
		"meeting_id", meeting.MeetingID,
		"actor_id", cmd.Actor.UserID,
	)
	return uc.Meetings.GetMeeting(ctx, meeting.MeetingID)
}
