package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "hireloop/contexts/scheduling/meeting-service/application"
	"hireloop/contexts/scheduling/meeting-service/domain/entities"
	domainerrors "hireloop/contexts/scheduling/meeting-service/domain/errors"
	"hireloop/contexts/scheduling/meeting-service/ports"
)

type ParticipantSpec struct {
	UserID string
	Role   entities.ParticipantRole
}

type CreateMeetingCommand struct {
	Actor              application.Actor
	Title              string
	Description        string
	MeetingType        string
	Timezone           string
	DurationMinutes    int
	ProposedSlots      []entities.Slot
	Participants       []ParticipantSpec
	JoinWindowOpensAt  *time.Time
	JoinWindowClosesAt *time.Time
	CorrelationID      string
}

type CreateMeetingUseCase struct {
	Meetings ports.MeetingRepository
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

func (uc CreateMeetingUseCase) Execute(ctx context.Context, cmd CreateMeetingCommand) (entities.Meeting, error) {
	logger := application.ResolveLogger(uc.Logger)

	now := uc.Clock.Now().UTC()
	meetingID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Meeting{}, err
	}

	meeting := entities.Meeting{
		MeetingID:          meetingID,
		OrganizationID:     cmd.Actor.OrganizationID,
		RequesterID:        cmd.Actor.UserID,
		Title:              strings.TrimSpace(cmd.Title),
		Description:        strings.TrimSpace(cmd.Description),
		Status:             entities.MeetingStatusPending,
		MeetingType:        strings.TrimSpace(cmd.MeetingType),
		Timezone:           strings.TrimSpace(cmd.Timezone),
		DurationMinutes:    cmd.DurationMinutes,
		ProposedSlots:      append([]entities.Slot(nil), cmd.ProposedSlots...),
		JoinWindowOpensAt:  cmd.JoinWindowOpensAt,
		JoinWindowClosesAt: cmd.JoinWindowClosesAt,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if !meeting.ValidateBasics() {
		return entities.Meeting{}, domainerrors.ErrInvalidMeetingInput
	}

	participants, err := uc.buildParticipants(ctx, cmd, meetingID, now)
	if err != nil {
		return entities.Meeting{}, err
	}

	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Meeting{}, err
	}
	event := entities.MeetingEvent{
		EventID:        eventID,
		MeetingID:      meetingID,
		OrganizationID: meeting.OrganizationID,
		ActorID:        cmd.Actor.UserID,
		EventType:      entities.EventMeetingRequested,
		CorrelationID:  cmd.CorrelationID,
		Payload: map[string]any{
			"meeting_type":      meeting.MeetingType,
			"participant_count": len(participants),
		},
		CreatedAt: now,
	}

	if err := uc.Meetings.CreateMeeting(ctx, meeting, participants, event); err != nil {
		return entities.Meeting{}, err
	}

	logger.Info("meeting requested",
		"event", "meeting_requested",
		"module", "scheduling/meeting-service",
		"layer", "application",
		"meeting_id", meetingID,
		"organization_id", meeting.OrganizationID,
		"participants", len(participants),
	)
	return meeting, nil
}

func (uc CreateMeetingUseCase) buildParticipants(
	ctx context.Context,
	cmd CreateMeetingCommand,
	meetingID string,
	now time.Time,
) ([]entities.Participant, error) {
	specs := append([]ParticipantSpec(nil), cmd.Participants...)

	requesterListed := false
	for _, spec := range specs {
		if spec.UserID == cmd.Actor.UserID {
			requesterListed = true
		}
	}
	if !requesterListed {
		specs = append(specs, ParticipantSpec{UserID: cmd.Actor.UserID, Role: entities.ParticipantRoleHost})
	}

	seen := make(map[string]struct{}, len(specs))
	participants := make([]entities.Participant, 0, len(specs))
	for _, spec := range specs {
		userID := strings.TrimSpace(spec.UserID)
		if userID == "" || !entities.IsSupportedParticipantRole(spec.Role) {
			return nil, domainerrors.ErrInvalidMeetingInput
		}
		if _, dup := seen[userID]; dup {
			return nil, domainerrors.ErrInvalidMeetingInput
		}
		seen[userID] = struct{}{}

		participantID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return nil, err
		}
		participants = append(participants, entities.Participant{
			ParticipantID: participantID,
			MeetingID:     meetingID,
			UserID:        userID,
			Role:          spec.Role,
			Attendance:    entities.AttendanceInvited,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}
	return participants, nil
}
