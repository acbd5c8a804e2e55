package queries

import (
	"context"

	application "hireloop/contexts/scheduling/meeting-service/application"
	"hireloop/contexts/scheduling/meeting-service/domain/entities"
	domainerrors "hireloop/contexts/scheduling/meeting-service/domain/errors"
	"hireloop/contexts/scheduling/meeting-service/ports"
)

type InterviewRoomQuery struct {
	Actor     application.Actor
	MeetingID string
}

type RoomPermissions struct {
	CanJoin bool
	CanEnd  bool
}

// InterviewRoom is the read-only bootstrap projection clients use to render
// the room UI; it never mutates state.
type InterviewRoom struct {
	Meeting     entities.Meeting
	Participant entities.Participant
	Permissions RoomPermissions
}

type InterviewRoomUseCase struct {
	Meetings ports.MeetingRepository
	Clock    ports.Clock
}

func (uc InterviewRoomUseCase) Execute(ctx context.Context, query InterviewRoomQuery) (InterviewRoom, error) {
	meeting, err := uc.Meetings.GetMeeting(ctx, query.MeetingID)
	if err != nil {
		return InterviewRoom{}, err
	}
	if meeting.OrganizationID != query.Actor.OrganizationID {
		return InterviewRoom{}, domainerrors.ErrMeetingNotFound
	}

	participants, err := uc.Meetings.ListParticipants(ctx, meeting.MeetingID)
	if err != nil {
		return InterviewRoom{}, err
	}
	var participant entities.Participant
	found := false
	for _, candidate := range participants {
		if candidate.UserID == query.Actor.UserID {
			participant = candidate
			found = true
			break
		}
	}
	if !found {
		return InterviewRoom{}, domainerrors.ErrMeetingNotFound
	}

	now := uc.Clock.Now().UTC()
	return InterviewRoom{
		Meeting:     meeting,
		Participant: participant,
		Permissions: RoomPermissions{
			CanJoin: meeting.Joinable() && meeting.JoinWindowOpen(now),
			CanEnd:  !meeting.IsTerminal() && entities.CanEndMeeting(participant.Role),
		},
	}, nil
}
