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

type RescheduleMeetingCommand struct {
	Actor         application.Actor
	MeetingID     string
	NewSlots      []entities.Slot
	Reason        string
	CorrelationID string
}

type RescheduleMeetingUseCase struct {
	Meetings ports.MeetingRepository
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

func (uc RescheduleMeetingUseCase) Execute(ctx context.Context, cmd RescheduleMeetingCommand) (entities.Meeting, error) {
	logger := application.ResolveLogger(uc.Logger)

	meeting, err := loadScopedMeeting(ctx, uc.Meetings, cmd.Actor, cmd.MeetingID)
	if err != nil {
		return entities.Meeting{}, err
	}
	if _, err := requireParticipant(ctx, uc.Meetings, cmd.Actor, meeting.MeetingID); err != nil {
		return entities.Meeting{}, err
	}
	if meeting.IsTerminal() {
		return entities.Meeting{}, domainerrors.ErrInvalidTransition
	}
	if !entities.AllSlotsValid(cmd.NewSlots) {
		return entities.Meeting{}, domainerrors.ErrInvalidMeetingInput
	}

	// A reschedule of an already-rescheduled meeting is the counter-proposal
	// that re-enters the pending proposal phase.
	toStatus := entities.MeetingStatusRescheduled
	if meeting.Status == entities.MeetingStatusRescheduled {
		toStatus = entities.MeetingStatusPending
	}

	now := uc.Clock.Now().UTC()
	recordID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Meeting{}, err
	}
	reason := strings.TrimSpace(cmd.Reason)
	record := entities.RescheduleRecord{
		RecordID:      recordID,
		MeetingID:     meeting.MeetingID,
		RescheduledBy: cmd.Actor.UserID,
		Reason:        reason,
		ProposedSlots: append([]entities.Slot(nil), cmd.NewSlots...),
		CreatedAt:     now,
	}

	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Meeting{}, err
	}
	event := entities.MeetingEvent{
		EventID:        eventID,
		MeetingID:      meeting.MeetingID,
		OrganizationID: meeting.OrganizationID,
		ActorID:        cmd.Actor.UserID,
		EventType:      entities.EventMeetingRescheduled,
		CorrelationID:  cmd.CorrelationID,
		Payload: map[string]any{
			"reason":     reason,
			"slot_count": len(cmd.NewSlots),
			"to_status":  string(toStatus),
		},
		CreatedAt: now,
	}

	if err := uc.Meetings.RescheduleMeeting(ctx, meeting.MeetingID, toStatus, cmd.NewSlots, record, event); err != nil {
		return entities.Meeting{}, err
	}

	logger.Info("meeting rescheduled",
		"event", "meeting_rescheduled",
		"module", "scheduling/meeting-service",
		"layer", "application",
		"meeting_id", meeting.MeetingID,
		"to_status", string(toStatus),
	)
	return uc.Meetings.GetMeeting(ctx, meeting.MeetingID)
}
