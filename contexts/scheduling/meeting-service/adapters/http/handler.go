package httpadapter

import (
	"context"
	"log/slog"

	application "hireloop/contexts/scheduling/meeting-service/application"
	"hireloop/contexts/scheduling/meeting-service/application/commands"
	"hireloop/contexts/scheduling/meeting-service/application/consumers"
	"hireloop/contexts/scheduling/meeting-service/application/queries"
	"hireloop/contexts/scheduling/meeting-service/domain/entities"
	httptransport "hireloop/contexts/scheduling/meeting-service/transport/http"
)

// Handler maps HTTP DTOs to scheduling application calls.
type Handler struct {
	CreateMeeting  commands.CreateMeetingUseCase
	AcceptMeeting  commands.AcceptMeetingUseCase
	DenyMeeting    commands.DenyMeetingUseCase
	Reschedule     commands.RescheduleMeetingUseCase
	EndMeeting     commands.EndMeetingUseCase
	IssueJoinToken commands.IssueJoinTokenUseCase
	GetMeeting     queries.GetMeetingUseCase
	ListMeetings   queries.ListMeetingsUseCase
	InterviewRoom  queries.InterviewRoomUseCase
	Webhook        consumers.WebhookReconciler
	Logger         *slog.Logger
}

func (h Handler) CreateMeetingHandler(ctx context.Context, actor application.Actor, correlationID string, request httptransport.CreateMeetingRequest) (httptransport.MeetingResponse, error) {
	participants := make([]commands.ParticipantSpec, 0, len(request.Participants))
	for _, spec := range request.Participants {
		participants = append(participants, commands.ParticipantSpec{
			UserID: spec.UserID,
			Role:   entities.ParticipantRole(spec.Role),
		})
	}

	meeting, err := h.CreateMeeting.Execute(ctx, commands.CreateMeetingCommand{
		Actor:              actor,
		Title:              request.Title,
		Description:        request.Description,
		MeetingType:        request.MeetingType,
		Timezone:           request.Timezone,
		DurationMinutes:    request.DurationMinutes,
		ProposedSlots:      slotsFromDTO(request.ProposedSlots),
		Participants:       participants,
		JoinWindowOpensAt:  request.JoinWindowOpensAt,
		JoinWindowClosesAt: request.JoinWindowClosesAt,
		CorrelationID:      correlationID,
	})
	if err != nil {
		return httptransport.MeetingResponse{}, err
	}
	return meetingResponse(meeting), nil
}

func (h Handler) AcceptMeetingHandler(ctx context.Context, actor application.Actor, correlationID string, meetingID string, request httptransport.AcceptMeetingRequest) (httptransport.MeetingResponse, error) {
	meeting, err := h.AcceptMeeting.Execute(ctx, commands.AcceptMeetingCommand{
		Actor:     actor,
		MeetingID: meetingID,
		Slot: entities.Slot{
			StartsAt: request.SelectedSlot.Start,
			EndsAt:   request.SelectedSlot.End,
		},
		CorrelationID: correlationID,
	})
	if err != nil {
		return httptransport.MeetingResponse{}, err
	}
	return meetingResponse(meeting), nil
}

func (h Handler) DenyMeetingHandler(ctx context.Context, actor application.Actor, correlationID string, meetingID string, request httptransport.DenyMeetingRequest) (httptransport.MeetingResponse, error) {
	meeting, err := h.DenyMeeting.Execute(ctx, commands.DenyMeetingCommand{
		Actor:         actor,
		MeetingID:     meetingID,
		Reason:        request.Reason,
		CorrelationID: correlationID,
	})
	if err != nil {
		return httptransport.MeetingResponse{}, err
	}
	return meetingResponse(meeting), nil
}

func (h Handler) RescheduleMeetingHandler(ctx context.Context, actor application.Actor, correlationID string, meetingID string, request httptransport.RescheduleMeetingRequest) (httptransport.MeetingResponse, error) {
	meeting, err := h.Reschedule.Execute(ctx, commands.RescheduleMeetingCommand{
		Actor:         actor,
		MeetingID:     meetingID,
		NewSlots:      slotsFromDTO(request.ProposedSlots),
		Reason:        request.Reason,
		CorrelationID: correlationID,
	})
	if err != nil {
		return httptransport.MeetingResponse{}, err
	}
	return meetingResponse(meeting), nil
}

func (h Handler) EndMeetingHandler(ctx context.Context, actor application.Actor, correlationID string, meetingID string, request httptransport.EndMeetingRequest) (httptransport.MeetingResponse, error) {
	meeting, err := h.EndMeeting.Execute(ctx, commands.EndMeetingCommand{
		Actor:         actor,
		MeetingID:     meetingID,
		Reason:        request.Reason,
		CorrelationID: correlationID,
	})
	if err != nil {
		return httptransport.MeetingResponse{}, err
	}
	return meetingResponse(meeting), nil
}

func (h Handler) VideoTokenHandler(ctx context.Context, actor application.Actor, correlationID string, meetingID string) (httptransport.VideoTokenResponse, error) {
	issued, err := h.IssueJoinToken.Execute(ctx, commands.IssueJoinTokenCommand{
		Actor:         actor,
		MeetingID:     meetingID,
		CorrelationID: correlationID,
	})
	if err != nil {
		return httptransport.VideoTokenResponse{}, err
	}
	return httptransport.VideoTokenResponse{
		MeetingID: issued.MeetingID,
		RoomName:  issued.RoomName,
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt,
		Participant: httptransport.TokenParticipantDTO{
			UserID: issued.UserID,
			Role:   string(issued.Role),
		},
	}, nil
}

func (h Handler) GetMeetingHandler(ctx context.Context, actor application.Actor, meetingID string) (httptransport.MeetingResponse, error) {
	meeting, err := h.GetMeeting.Execute(ctx, queries.GetMeetingQuery{Actor: actor, MeetingID: meetingID})
	if err != nil {
		return httptransport.MeetingResponse{}, err
	}
	return meetingResponse(meeting), nil
}

func (h Handler) ListMeetingsHandler(ctx context.Context, actor application.Actor, status string, page int, perPage int) (httptransport.ListMeetingsResponse, error) {
	meetings, err := h.ListMeetings.Execute(ctx, queries.ListMeetingsQuery{
		Actor:   actor,
		Status:  entities.MeetingStatus(status),
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		return httptransport.ListMeetingsResponse{}, err
	}

	data := make([]httptransport.MeetingResponse, 0, len(meetings))
	for _, meeting := range meetings {
		data = append(data, meetingResponse(meeting))
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 25
	}
	if perPage > 100 {
		perPage = 100
	}
	return httptransport.ListMeetingsResponse{Data: data, Page: page, PerPage: perPage}, nil
}

func (h Handler) InterviewRoomHandler(ctx context.Context, actor application.Actor, meetingID string) (httptransport.InterviewRoomResponse, error) {
	room, err := h.InterviewRoom.Execute(ctx, queries.InterviewRoomQuery{Actor: actor, MeetingID: meetingID})
	if err != nil {
		return httptransport.InterviewRoomResponse{}, err
	}
	return httptransport.InterviewRoomResponse{
		Meeting: meetingResponse(room.Meeting),
		Participant: httptransport.RoomParticipantDTO{
			UserID:     room.Participant.UserID,
			Role:       string(room.Participant.Role),
			Attendance: string(room.Participant.Attendance),
		},
		Permissions: httptransport.RoomPermissionsDTO{
			CanJoin: room.Permissions.CanJoin,
			CanEnd:  room.Permissions.CanEnd,
		},
	}, nil
}

func (h Handler) WebhookHandler(ctx context.Context, rawBody []byte, signature string, correlationID string) (httptransport.WebhookAckResponse, error) {
	result, err := h.Webhook.Handle(ctx, rawBody, signature, correlationID)
	if err != nil {
		return httptransport.WebhookAckResponse{}, err
	}
	return httptransport.WebhookAckResponse{Processed: result.Processed}, nil
}

func slotsFromDTO(slots []httptransport.SlotDTO) []entities.Slot {
	converted := make([]entities.Slot, 0, len(slots))
	for _, slot := range slots {
		converted = append(converted, entities.Slot{StartsAt: slot.Start, EndsAt: slot.End})
	}
	return converted
}

func meetingResponse(meeting entities.Meeting) httptransport.MeetingResponse {
	slots := make([]httptransport.SlotDTO, 0, len(meeting.ProposedSlots))
	for _, slot := range meeting.ProposedSlots {
		slots = append(slots, httptransport.SlotDTO{Start: slot.StartsAt, End: slot.EndsAt})
	}
	response := httptransport.MeetingResponse{
		MeetingID:          meeting.MeetingID,
		OrganizationID:     meeting.OrganizationID,
		RequesterID:        meeting.RequesterID,
		Title:              meeting.Title,
		Description:        meeting.Description,
		Status:             string(meeting.Status),
		MeetingType:        meeting.MeetingType,
		Timezone:           meeting.Timezone,
		DurationMinutes:    meeting.DurationMinutes,
		ProposedSlots:      slots,
		ProviderRoomName:   meeting.ProviderRoomName,
		JoinWindowOpensAt:  meeting.JoinWindowOpensAt,
		JoinWindowClosesAt: meeting.JoinWindowClosesAt,
		EndedAt:            meeting.EndedAt,
		CreatedAt:          meeting.CreatedAt,
		UpdatedAt:          meeting.UpdatedAt,
	}
	if meeting.ConfirmedSlot != nil {
		response.ConfirmedSlot = &httptransport.SlotDTO{
			Start: meeting.ConfirmedSlot.StartsAt,
			End:   meeting.ConfirmedSlot.EndsAt,
		}
	}
	return response
}
