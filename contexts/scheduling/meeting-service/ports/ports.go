package ports

import (
	"context"
	"time"

	"hireloop/contexts/scheduling/meeting-service/domain/entities"
	"hireloop/internal/shared/events"
	"hireloop/internal/shared/outbox"
)

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type MeetingFilter struct {
	OrganizationID string
	Status         entities.MeetingStatus
	Page           int
	PerPage        int
}

// MeetingRepository is the durable store behind the lifecycle. Transition
// methods re-check the current status under row-level mutual exclusion and
// return ErrInvalidTransition to race losers; each successful transition
// appends its audit event and an outbox row atomically with the update.
type MeetingRepository interface {
	CreateMeeting(ctx context.Context, meeting entities.Meeting, participants []entities.Participant, event entities.MeetingEvent) error
	GetMeeting(ctx context.Context, meetingID string) (entities.Meeting, error)
	GetMeetingByRoomName(ctx context.Context, roomName string) (entities.Meeting, error)
	ListMeetings(ctx context.Context, filter MeetingFilter) ([]entities.Meeting, error)
	ListParticipants(ctx context.Context, meetingID string) ([]entities.Participant, error)

	AcceptMeeting(ctx context.Context, meetingID string, slot entities.Slot, reminders []entities.ReminderJob, event entities.MeetingEvent) error
	DenyMeeting(ctx context.Context, meetingID string, reason string, event entities.MeetingEvent) error
	RescheduleMeeting(ctx context.Context, meetingID string, toStatus entities.MeetingStatus, slots []entities.Slot, record entities.RescheduleRecord, event entities.MeetingEvent) error
	EndMeeting(ctx context.Context, meetingID string, endedAt time.Time, event entities.MeetingEvent) error
	// StartMeeting moves a joinable meeting to accepted on first webhook join;
	// reports whether a transition was applied.
	StartMeeting(ctx context.Context, meetingID string, event entities.MeetingEvent) (bool, error)

	// AssignRoomName sets the provider room name once and returns the stored
	// value, which may differ from the proposal when another caller won.
	AssignRoomName(ctx context.Context, meetingID string, roomName string) (string, error)
	UpdateAttendance(ctx context.Context, meetingID string, userID string, attendance entities.AttendanceStatus, at time.Time) error
	SaveRoomToken(ctx context.Context, token entities.RoomToken) error

	AppendEvent(ctx context.Context, event entities.MeetingEvent) error
	ListEvents(ctx context.Context, meetingID string) ([]entities.MeetingEvent, error)
	ListReminders(ctx context.Context, meetingID string) ([]entities.ReminderJob, error)
}

// OutboxRepository drains the meeting-event outbox for the relay worker.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]outbox.Message, error)
	MarkOutboxPublished(ctx context.Context, messageID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, envelope events.Envelope) error
}

// SignatureVerifier gates webhook intake; it is a required dependency of the
// reconciler, never optional.
type SignatureVerifier interface {
	Verify(body []byte, signature string) error
}
