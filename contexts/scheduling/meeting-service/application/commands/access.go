package commands

import (
	"context"

	application "hireloop/contexts/scheduling/meeting-service/application"
	"hireloop/contexts/scheduling/meeting-service/domain/entities"
	domainerrors "hireloop/contexts/scheduling/meeting-service/domain/errors"
	"hireloop/contexts/scheduling/meeting-service/ports"
)

// loadScopedMeeting fetches a meeting and applies the tenant check first.
// Cross-tenant callers see the same error as a true miss.
func loadScopedMeeting(
	ctx context.Context,
	meetings ports.MeetingRepository,
	actor application.Actor,
	meetingID string,
) (entities.Meeting, error) {
	meeting, err := meetings.GetMeeting(ctx, meetingID)
	if err != nil {
		return entities.Meeting{}, err
	}
	if meeting.OrganizationID != actor.OrganizationID {
		return entities.Meeting{}, domainerrors.ErrMeetingNotFound
	}
	return meeting, nil
}

func findParticipant(participants []entities.Participant, userID string) (entities.Participant, bool) {
	for _, participant := range participants {
		if participant.UserID == userID {
			return participant, true
		}
	}
	return entities.Participant{}, false
}

// requireParticipant enforces the role/participant check that follows the
// tenant check. Tenant admins pass without a participant row.
func requireParticipant(
	ctx context.Context,
	meetings ports.MeetingRepository,
	actor application.Actor,
	meetingID string,
) (entities.Participant, error) {
	participants, err := meetings.ListParticipants(ctx, meetingID)
	if err != nil {
		return entities.Participant{}, err
	}
	participant, ok := findParticipant(participants, actor.UserID)
	if ok {
		return participant, nil
	}
	if actor.IsAdmin() {
		return entities.Participant{}, nil
	}
	return entities.Participant{}, domainerrors.ErrForbidden
}
