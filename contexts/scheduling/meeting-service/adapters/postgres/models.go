package postgresadapter

import (
	"encoding/json"
	"strings"
	"time"

	"hireloop/contexts/scheduling/meeting-service/domain/entities"
)

type slotJSON struct {
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

func slotsToJSON(slots []entities.Slot) ([]byte, error) {
	rows := make([]slotJSON, 0, len(slots))
	for _, slot := range slots {
		rows = append(rows, slotJSON{StartsAt: slot.StartsAt.UTC(), EndsAt: slot.EndsAt.UTC()})
	}
	return json.Marshal(rows)
}

func slotsFromJSON(raw []byte) ([]entities.Slot, error) {
	if len(raw) == 0 {
		return []entities.Slot{}, nil
	}
	var rows []slotJSON
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}
	slots := make([]entities.Slot, 0, len(rows))
	for _, row := range rows {
		slots = append(slots, entities.Slot{StartsAt: row.StartsAt.UTC(), EndsAt: row.EndsAt.UTC()})
	}
	return slots, nil
}

type meetingModel struct {
	MeetingID          string     `gorm:"column:meeting_id;primaryKey"`
	OrganizationID     string     `gorm:"column:organization_id"`
	RequesterID        string     `gorm:"column:requester_id"`
	Title              string     `gorm:"column:title"`
	Description        string     `gorm:"column:description"`
	Status             string     `gorm:"column:status"`
	MeetingType        string     `gorm:"column:meeting_type"`
	Timezone           string     `gorm:"column:timezone"`
	DurationMinutes    int        `gorm:"column:duration_minutes"`
	ProposedSlots      []byte     `gorm:"column:proposed_slots;type:jsonb"`
	ConfirmedSlotStart *time.Time `gorm:"column:confirmed_slot_start"`
	ConfirmedSlotEnd   *time.Time `gorm:"column:confirmed_slot_end"`
	DenyReason         string     `gorm:"column:deny_reason"`
	ProviderRoomName   *string    `gorm:"column:provider_room_name"`
	JoinWindowOpensAt  *time.Time `gorm:"column:join_window_opens_at"`
	JoinWindowClosesAt *time.Time `gorm:"column:join_window_closes_at"`
	EndedAt            *time.Time `gorm:"column:ended_at"`
	CreatedAt          time.Time  `gorm:"column:created_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at"`
}

func (meetingModel) TableName() string {
	return "meeting_requests"
}

func meetingModelFromEntity(item entities.Meeting) (meetingModel, error) {
	slots, err := slotsToJSON(item.ProposedSlots)
	if err != nil {
		return meetingModel{}, err
	}
	row := meetingModel{
		MeetingID:          strings.TrimSpace(item.MeetingID),
		OrganizationID:     strings.TrimSpace(item.OrganizationID),
		RequesterID:        strings.TrimSpace(item.RequesterID),
		Title:              strings.TrimSpace(item.Title),
		Description:        strings.TrimSpace(item.Description),
		Status:             string(item.Status),
		MeetingType:        strings.TrimSpace(item.MeetingType),
		Timezone:           strings.TrimSpace(item.Timezone),
		DurationMinutes:    item.DurationMinutes,
		ProposedSlots:      slots,
		DenyReason:         strings.TrimSpace(item.DenyReason),
		JoinWindowOpensAt:  normalizeOptionalTime(item.JoinWindowOpensAt),
		JoinWindowClosesAt: normalizeOptionalTime(item.JoinWindowClosesAt),
		EndedAt:            normalizeOptionalTime(item.EndedAt),
		CreatedAt:          item.CreatedAt.UTC(),
		UpdatedAt:          item.UpdatedAt.UTC(),
	}
	if item.ProviderRoomName != "" {
		name := item.ProviderRoomName
		row.ProviderRoomName = &name
	}
	if item.ConfirmedSlot != nil {
		start := item.ConfirmedSlot.StartsAt.UTC()
		end := item.ConfirmedSlot.EndsAt.UTC()
		row.ConfirmedSlotStart = &start
		row.ConfirmedSlotEnd = &end
	}
	return row, nil
}

func (m meetingModel) toEntity() (entities.Meeting, error) {
	slots, err := slotsFromJSON(m.ProposedSlots)
	if err != nil {
		return entities.Meeting{}, err
	}
	item := entities.Meeting{
		MeetingID:          m.MeetingID,
		OrganizationID:     m.OrganizationID,
		RequesterID:        m.RequesterID,
		Title:              m.Title,
		Description:        m.Description,
		Status:             entities.MeetingStatus(m.Status),
		MeetingType:        m.MeetingType,
		Timezone:           m.Timezone,
		DurationMinutes:    m.DurationMinutes,
		ProposedSlots:      slots,
		DenyReason:         m.DenyReason,
		JoinWindowOpensAt:  normalizeOptionalTime(m.JoinWindowOpensAt),
		JoinWindowClosesAt: normalizeOptionalTime(m.JoinWindowClosesAt),
		EndedAt:            normalizeOptionalTime(m.EndedAt),
		CreatedAt:          m.CreatedAt.UTC(),
		UpdatedAt:          m.UpdatedAt.UTC(),
	}
	if m.ProviderRoomName != nil {
		item.ProviderRoomName = *m.ProviderRoomName
	}
	if m.ConfirmedSlotStart != nil && m.ConfirmedSlotEnd != nil {
		item.ConfirmedSlot = &entities.Slot{
			StartsAt: m.ConfirmedSlotStart.UTC(),
			EndsAt:   m.ConfirmedSlotEnd.UTC(),
		}
	}
	return item, nil
}

type participantModel struct {
	ParticipantID string     `gorm:"column:participant_id;primaryKey"`
	MeetingID     string     `gorm:"column:meeting_id"`
	UserID        string     `gorm:"column:user_id"`
	Role          string     `gorm:"column:role"`
	Attendance    string     `gorm:"column:attendance_status"`
	JoinedAt      *time.Time `gorm:"column:joined_at"`
	LeftAt        *time.Time `gorm:"column:left_at"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

func (participantModel) TableName() string {
	return "meeting_participants"
}

func participantModelFromEntity(item entities.Participant) participantModel {
	return participantModel{
		ParticipantID: strings.TrimSpace(item.ParticipantID),
		MeetingID:     strings.TrimSpace(item.MeetingID),
		UserID:        strings.TrimSpace(item.UserID),
		Role:          string(item.Role),
		Attendance:    string(item.Attendance),
		JoinedAt:      normalizeOptionalTime(item.JoinedAt),
		LeftAt:        normalizeOptionalTime(item.LeftAt),
		CreatedAt:     item.CreatedAt.UTC(),
		UpdatedAt:     item.UpdatedAt.UTC(),
	}
}

func (m participantModel) toEntity() entities.Participant {
	return entities.Participant{
		ParticipantID: m.ParticipantID,
		MeetingID:     m.MeetingID,
		UserID:        m.UserID,
		Role:          entities.ParticipantRole(m.Role),
		Attendance:    entities.AttendanceStatus(m.Attendance),
		JoinedAt:      normalizeOptionalTime(m.JoinedAt),
		LeftAt:        normalizeOptionalTime(m.LeftAt),
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

type meetingEventModel struct {
	EventID        string    `gorm:"column:event_id;primaryKey"`
	MeetingID      string    `gorm:"column:meeting_id"`
	OrganizationID string    `gorm:"column:organization_id"`
	ActorID        string    `gorm:"column:actor_id"`
	EventType      string    `gorm:"column:event_type"`
	CorrelationID  string    `gorm:"column:correlation_id"`
	Payload        []byte    `gorm:"column:payload;type:jsonb"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

func (meetingEventModel) TableName() string {
	return "meeting_events"
}

func meetingEventModelFromEntity(item entities.MeetingEvent) (meetingEventModel, error) {
	payload := item.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return meetingEventModel{}, err
	}
	return meetingEventModel{
		EventID:        strings.TrimSpace(item.EventID),
		MeetingID:      strings.TrimSpace(item.MeetingID),
		OrganizationID: strings.TrimSpace(item.OrganizationID),
		ActorID:        strings.TrimSpace(item.ActorID),
		EventType:      string(item.EventType),
		CorrelationID:  strings.TrimSpace(item.CorrelationID),
		Payload:        raw,
		CreatedAt:      item.CreatedAt.UTC(),
	}, nil
}

func (m meetingEventModel) toEntity() entities.MeetingEvent {
	payload := map[string]any{}
	if len(m.Payload) > 0 {
		_ = json.Unmarshal(m.Payload, &payload)
	}
	return entities.MeetingEvent{
		EventID:        m.EventID,
		MeetingID:      m.MeetingID,
		OrganizationID: m.OrganizationID,
		ActorID:        m.ActorID,
		EventType:      entities.MeetingEventType(m.EventType),
		CorrelationID:  m.CorrelationID,
		Payload:        payload,
		CreatedAt:      m.CreatedAt.UTC(),
	}
}

type rescheduleModel struct {
	RecordID      string    `gorm:"column:record_id;primaryKey"`
	MeetingID     string    `gorm:"column:meeting_id"`
	RescheduledBy string    `gorm:"column:rescheduled_by"`
	Reason        string    `gorm:"column:reason"`
	ProposedSlots []byte    `gorm:"column:new_proposed_slots;type:jsonb"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

func (rescheduleModel) TableName() string {
	return "meeting_reschedule_events"
}

type reminderModel struct {
	JobID          string    `gorm:"column:job_id;primaryKey"`
	MeetingID      string    `gorm:"column:meeting_id"`
	OrganizationID string    `gorm:"column:organization_id"`
	UserID         string    `gorm:"column:user_id"`
	RemindAt       time.Time `gorm:"column:remind_at"`
	Type           string    `gorm:"column:reminder_type"`
	Status         string    `gorm:"column:status"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (reminderModel) TableName() string {
	return "reminder_jobs"
}

func reminderModelFromEntity(item entities.ReminderJob) reminderModel {
	return reminderModel{
		JobID:          strings.TrimSpace(item.JobID),
		MeetingID:      strings.TrimSpace(item.MeetingID),
		OrganizationID: strings.TrimSpace(item.OrganizationID),
		UserID:         strings.TrimSpace(item.UserID),
		RemindAt:       item.RemindAt.UTC(),
		Type:           string(item.Type),
		Status:         string(item.Status),
		CreatedAt:      item.CreatedAt.UTC(),
		UpdatedAt:      item.UpdatedAt.UTC(),
	}
}

func (m reminderModel) toEntity() entities.ReminderJob {
	return entities.ReminderJob{
		JobID:          m.JobID,
		MeetingID:      m.MeetingID,
		OrganizationID: m.OrganizationID,
		UserID:         m.UserID,
		RemindAt:       m.RemindAt.UTC(),
		Type:           entities.ReminderType(m.Type),
		Status:         entities.ReminderStatus(m.Status),
		CreatedAt:      m.CreatedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
	}
}

type roomTokenModel struct {
	TokenID   string    `gorm:"column:token_id;primaryKey"`
	MeetingID string    `gorm:"column:meeting_id"`
	UserID    string    `gorm:"column:user_id"`
	Token     string    `gorm:"column:token"`
	ExpiresAt time.Time `gorm:"column:expires_at"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (roomTokenModel) TableName() string {
	return "meeting_room_tokens"
}

type outboxModel struct {
	OutboxID    string     `gorm:"column:outbox_id;primaryKey"`
	EventType   string     `gorm:"column:event_type"`
	Payload     []byte     `gorm:"column:payload;type:jsonb"`
	Status      string     `gorm:"column:status"`
	RetryCount  int        `gorm:"column:retry_count"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	PublishedAt *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "meeting_outbox"
}

type eventLedgerModel struct {
	Key         string    `gorm:"column:key;primaryKey"`
	Fingerprint string    `gorm:"column:fingerprint"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}

func (eventLedgerModel) TableName() string {
	return "meeting_event_dedup"
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}
