package queries

import (
	"context"

	application "hireloop/contexts/scheduling/meeting-service/application"
	"hireloop/contexts/scheduling/meeting-service/domain/entities"
	"hireloop/contexts/scheduling/meeting-service/ports"
)

const (
	defaultPerPage = 25
	maxPerPage     = 100
)

type ListMeetingsQuery struct {
	Actor   application.Actor
	Status  entities.MeetingStatus
	Page    int
	PerPage int
}

type ListMeetingsUseCase struct {
	Meetings ports.MeetingRepository
}

func (uc ListMeetingsUseCase) Execute(ctx context.Context, query ListMeetingsQuery) ([]entities.Meeting, error) {
	page := query.Page
	if page < 1 {
		page = 1
	}
	perPage := query.PerPage
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	return uc.Meetings.ListMeetings(ctx, ports.MeetingFilter{
		OrganizationID: query.Actor.OrganizationID,
		Status:         query.Status,
		Page:           page,
		PerPage:        perPage,
	})
}
