package commands

import (
	"context"
	"log/slog"

	application "hireloop/contexts/scheduling/meeting-service/application"
	"hireloop/contexts/scheduling/meeting-service/domain/entities"
	domainerrors "hireloop/contexts/scheduling/meeting-service/domain/errors"
	"hireloop/contexts/scheduling/meeting-service/ports"
)

type AcceptMeetingCommand struct {
	Actor         application.Actor
	MeetingID     string
	Slot          entities.Slot
	CorrelationID string
}

type AcceptMeetingUseCase struct {
	Meetings ports.MeetingRepository
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

func (uc AcceptMeetingUseCase) Execute(ctx context.Context, cmd AcceptMeetingCommand) (entities.Meeting, error) {
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
	if !cmd.Slot.Valid() || !meeting.HasProposedSlot(cmd.Slot) {
		return entities.Meeting{}, domainerrors.ErrSlotNotProposed
	}

	now := uc.Clock.Now().UTC()
	participants, err := uc.Meetings.ListParticipants(ctx, meeting.MeetingID)
	if err != nil {
		return entities.Meeting{}, err
	}

	// Three reminders per participant, anchored on the confirmed slot start.
	reminders := make([]entities.ReminderJob, 0, len(participants)*3)
	for _, participant := range participants {
		for _, offset := range entities.ReminderPlan() {
			jobID, err := uc.IDGen.NewID(ctx)
			if err != nil {
				return entities.Meeting{}, err
			}
			reminders = append(reminders, entities.ReminderJob{
				JobID:          jobID,
				MeetingID:      meeting.MeetingID,
				OrganizationID: meeting.OrganizationID,
				UserID:         participant.UserID,
				RemindAt:       cmd.Slot.StartsAt.UTC().Add(-offset.Before),
				Type:           offset.Type,
				Status:         entities.ReminderStatusScheduled,
				CreatedAt:      now,
				UpdatedAt:      now,
			})
		}
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
		EventType:      entities.EventMeetingAccepted,
		CorrelationID:  cmd.CorrelationID,
		Payload: map[string]any{
			"slot_starts_at": cmd.Slot.StartsAt.UTC(),
			"slot_ends_at":   cmd.Slot.EndsAt.UTC(),
		},
		CreatedAt: now,
	}

	if err := uc.Meetings.AcceptMeeting(ctx, meeting.MeetingID, cmd.Slot, reminders, event); err != nil {
		return entities.Meeting{}, err
	}

	logger.Info("meeting accepted",
		"event", "meeting_accepted",
		"module", "scheduling/meeting-service",
		"layer", "application",
		"meeting_id", meeting.MeetingID,
		"reminders_scheduled", len(reminders),
	)
	return uc.Meetings.GetMeeting(ctx, meeting.MeetingID)
}
