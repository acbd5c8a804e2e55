package httptransport

import "time"

type SlotDTO struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type ParticipantSpecDTO struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type CreateMeetingRequest struct {
	Title              string               `json:"title"`
	Description        string               `json:"description,omitempty"`
	MeetingType        string               `json:"meeting_type"`
	Timezone           string               `json:"timezone"`
	DurationMinutes    int                  `json:"duration_minutes"`
	ProposedSlots      []SlotDTO            `json:"proposed_slots"`
	Participants       []ParticipantSpecDTO `json:"participants"`
	JoinWindowOpensAt  *time.Time           `json:"join_window_opens_at,omitempty"`
	JoinWindowClosesAt *time.Time           `json:"join_window_closes_at,omitempty"`
}

type AcceptMeetingRequest struct {
	SelectedSlot SlotDTO `json:"selected_slot"`
}

type DenyMeetingRequest struct {
	Reason string `json:"reason,omitempty"`
}

type RescheduleMeetingRequest struct {
	Reason        string    `json:"reason,omitempty"`
	ProposedSlots []SlotDTO `json:"proposed_slots"`
}

type EndMeetingRequest struct {
	Reason string `json:"reason,omitempty"`
}

type MeetingResponse struct {
	MeetingID          string     `json:"meeting_id"`
	OrganizationID     string     `json:"organization_id"`
	RequesterID        string     `json:"requester_id"`
	Title              string     `json:"title"`
	Description        string     `json:"description,omitempty"`
	Status             string     `json:"status"`
	MeetingType        string     `json:"meeting_type"`
	Timezone           string     `json:"timezone"`
	DurationMinutes    int        `json:"duration_minutes"`
	ProposedSlots      []SlotDTO  `json:"proposed_slots"`
	ConfirmedSlot      *SlotDTO   `json:"confirmed_slot,omitempty"`
	ProviderRoomName   string     `json:"provider_room_name,omitempty"`
	JoinWindowOpensAt  *time.Time `json:"join_window_opens_at,omitempty"`
	JoinWindowClosesAt *time.Time `json:"join_window_closes_at,omitempty"`
	EndedAt            *time.Time `json:"ended_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type ListMeetingsResponse struct {
	Data    []MeetingResponse `json:"data"`
	Page    int               `json:"page"`
	PerPage int               `json:"per_page"`
}

type TokenParticipantDTO struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type VideoTokenResponse struct {
	MeetingID   string              `json:"meeting_id"`
	RoomName    string              `json:"room_name"`
	Token       string              `json:"token"`
	ExpiresAt   string              `json:"expires_at"`
	Participant TokenParticipantDTO `json:"participant"`
}

type RoomParticipantDTO struct {
	UserID     string `json:"user_id"`
	Role       string `json:"role"`
	Attendance string `json:"attendance_status"`
}

type RoomPermissionsDTO struct {
	CanJoin bool `json:"can_join"`
	CanEnd  bool `json:"can_end"`
}

type InterviewRoomResponse struct {
	Meeting     MeetingResponse    `json:"meeting"`
	Participant RoomParticipantDTO `json:"participant"`
	Permissions RoomPermissionsDTO `json:"permissions"`
}

type WebhookAckResponse struct {
	Processed bool `json:"processed"`
}
