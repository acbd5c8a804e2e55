package entities

import "time"

type MeetingEventType string

const (
	EventMeetingRequested   MeetingEventType = "meeting_requested"
	EventMeetingAccepted    MeetingEventType = "meeting_accepted"
	EventMeetingDenied      MeetingEventType = "meeting_denied"
	EventMeetingRescheduled MeetingEventType = "meeting_rescheduled"
	EventMeetingStarted     MeetingEventType = "meeting_started"
	EventMeetingEnded       MeetingEventType = "meeting_ended"
	EventTokenIssued        MeetingEventType = "token_issued"
	EventParticipantLeft    MeetingEventType = "participant_left"
	EventWebhookReconciled  MeetingEventType = "webhook_reconciled"
)

// MeetingEvent is the append-only audit/correlation log. ActorID is empty for
// system-originated entries (webhook reconciliation).
type MeetingEvent struct {
	EventID        string
	MeetingID      string
	OrganizationID string
	ActorID        string
	EventType      MeetingEventType
	CorrelationID  string
	Payload        map[string]any
	CreatedAt      time.Time
}

// RescheduleRecord is kept apart from the generic status-event log so the new
// proposal set and reason survive as first-class data.
type RescheduleRecord struct {
	RecordID      string
	MeetingID     string
	RescheduledBy string
	Reason        string
	ProposedSlots []Slot
	CreatedAt     time.Time
}
