package queries

import (
	"context"

	application "hireloop/contexts/scheduling/meeting-service/application"
	"hireloop/contexts/scheduling/meeting-service/domain/entities"
	domainerrors "hireloop/contexts/scheduling/meeting-service/domain/errors"
	"hireloop/contexts/scheduling/meeting-service/ports"
)

type GetMeetingQuery struct {
	Actor     application.Actor
	MeetingID string
}

type GetMeetingUseCase struct {
	Meetings ports.MeetingRepository
}

func (uc GetMeetingUseCase) Execute(ctx context.Context, query GetMeetingQuery) (entities.Meeting, error) {
	meeting, err := uc.Meetings.GetMeeting(ctx, query.MeetingID)
	if err != nil {
		return entities.Meeting{}, err
	}
	if meeting.OrganizationID != query.Actor.OrganizationID {
		return entities.Meeting{}, domainerrors.ErrMeetingNotFound
	}
	return meeting, nil
}
