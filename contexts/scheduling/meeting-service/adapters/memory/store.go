package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"hireloop/contexts/scheduling/meeting-service/domain/entities"
	domainerrors "hireloop/contexts/scheduling/meeting-service/domain/errors"
	"hireloop/contexts/scheduling/meeting-service/ports"
	"hireloop/internal/shared/events"
	"hireloop/internal/shared/outbox"

	"github.com/google/uuid"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

// Store is an in-memory adapter implementing the meeting ports. A single
// mutex stands in for the row-level locking the postgres adapter uses, so
// racing transitions resolve to one winner here too.
type Store struct {
	mu           sync.Mutex
	meetings     map[string]entities.Meeting
	byRoomName   map[string]string
	participants map[string][]entities.Participant
	meetingLog   map[string][]entities.MeetingEvent
	reminders    map[string][]entities.ReminderJob
	reschedules  map[string][]entities.RescheduleRecord
	tokens       map[string][]entities.RoomToken
	outboxRows   []outbox.Message
}

func NewStore() *Store {
	return &Store{
		meetings:     make(map[string]entities.Meeting),
		byRoomName:   make(map[string]string),
		participants: make(map[string][]entities.Participant),
		meetingLog:   make(map[string][]entities.MeetingEvent),
		reminders:    make(map[string][]entities.ReminderJob),
		reschedules:  make(map[string][]entities.RescheduleRecord),
		tokens:       make(map[string][]entities.RoomToken),
	}
}

func (s *Store) CreateMeeting(_ context.Context, meeting entities.Meeting, participants []entities.Participant, event entities.MeetingEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.meetings[meeting.MeetingID]; exists {
		return domainerrors.ErrInvalidMeetingInput
	}
	s.meetings[meeting.MeetingID] = meeting
	s.participants[meeting.MeetingID] = append([]entities.Participant(nil), participants...)
	s.appendEventLocked(event)
	return nil
}

func (s *Store) GetMeeting(_ context.Context, meetingID string) (entities.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getMeetingLocked(meetingID)
}

func (s *Store) GetMeetingByRoomName(_ context.Context, roomName string) (entities.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meetingID, ok := s.byRoomName[roomName]
	if !ok {
		return entities.Meeting{}, domainerrors.ErrMeetingNotFound
	}
	return s.getMeetingLocked(meetingID)
}

func (s *Store) ListMeetings(_ context.Context, filter ports.MeetingFilter) ([]entities.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]entities.Meeting, 0)
	for _, meeting := range s.meetings {
		if meeting.OrganizationID != filter.OrganizationID {
			continue
		}
		if filter.Status != "" && meeting.Status != filter.Status {
			continue
		}
		matched = append(matched, meeting)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	page := filter.Page
	if page < 1 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage < 1 {
		perPage = 25
	}
	start := (page - 1) * perPage
	if start >= len(matched) {
		return []entities.Meeting{}, nil
	}
	end := start + perPage
	if end > len(matched) {
		end = len(matched)
	}
	return append([]entities.Meeting(nil), matched[start:end]...), nil
}

func (s *Store) ListParticipants(_ context.Context, meetingID string) ([]entities.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entities.Participant(nil), s.participants[meetingID]...), nil
}

func (s *Store) AcceptMeeting(_ context.Context, meetingID string, slot entities.Slot, reminders []entities.ReminderJob, event entities.MeetingEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meeting, err := s.getMeetingLocked(meetingID)
	if err != nil {
		return err
	}
	if meeting.Status != entities.MeetingStatusPending {
		return domainerrors.ErrInvalidTransition
	}

	confirmed := slot
	meeting.Status = entities.MeetingStatusAccepted
	meeting.ConfirmedSlot = &confirmed
	meeting.UpdatedAt = event.CreatedAt
	s.meetings[meetingID] = meeting
	s.reminders[meetingID] = append(s.reminders[meetingID], reminders...)
	s.appendEventLocked(event)
	return nil
}

func (s *Store) DenyMeeting(_ context.Context, meetingID string, reason string, event entities.MeetingEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meeting, err := s.getMeetingLocked(meetingID)
	if err != nil {
		return err
	}
	if meeting.Status != entities.MeetingStatusPending {
		return domainerrors.ErrInvalidTransition
	}

	meeting.Status = entities.MeetingStatusDenied
	meeting.DenyReason = reason
	meeting.UpdatedAt = event.CreatedAt
	s.meetings[meetingID] = meeting
	s.appendEventLocked(event)
	return nil
}

func (s *Store) RescheduleMeeting(_ context.Context, meetingID string, toStatus entities.MeetingStatus, slots []entities.Slot, record entities.RescheduleRecord, event entities.MeetingEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meeting, err := s.getMeetingLocked(meetingID)
	if err != nil {
		return err
	}
	if meeting.IsTerminal() {
		return domainerrors.ErrInvalidTransition
	}

	meeting.Status = toStatus
	meeting.ProposedSlots = append([]entities.Slot(nil), slots...)
	meeting.ConfirmedSlot = nil
	meeting.UpdatedAt = event.CreatedAt
	s.meetings[meetingID] = meeting
	s.cancelRemindersLocked(meetingID, event.CreatedAt)
	s.reschedules[meetingID] = append(s.reschedules[meetingID], record)
	s.appendEventLocked(event)
	return nil
}

func (s *Store) EndMeeting(_ context.Context, meetingID string, endedAt time.Time, event entities.MeetingEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meeting, err := s.getMeetingLocked(meetingID)
	if err != nil {
		return err
	}
	if meeting.IsTerminal() {
		return domainerrors.ErrInvalidTransition
	}

	ended := endedAt.UTC()
	meeting.Status = entities.MeetingStatusCompleted
	meeting.EndedAt = &ended
	meeting.UpdatedAt = ended
	s.meetings[meetingID] = meeting
	s.cancelRemindersLocked(meetingID, ended)
	s.appendEventLocked(event)
	return nil
}

func (s *Store) StartMeeting(_ context.Context, meetingID string, event entities.MeetingEvent) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meeting, err := s.getMeetingLocked(meetingID)
	if err != nil {
		return false, err
	}
	if meeting.Status != entities.MeetingStatusPending && meeting.Status != entities.MeetingStatusRescheduled {
		return false, nil
	}

	meeting.Status = entities.MeetingStatusAccepted
	meeting.UpdatedAt = event.CreatedAt
	s.meetings[meetingID] = meeting
	s.appendEventLocked(event)
	return true, nil
}

func (s *Store) AssignRoomName(_ context.Context, meetingID string, roomName string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meeting, err := s.getMeetingLocked(meetingID)
	if err != nil {
		return "", err
	}
	if meeting.ProviderRoomName != "" {
		return meeting.ProviderRoomName, nil
	}

	meeting.ProviderRoomName = roomName
	s.meetings[meetingID] = meeting
	s.byRoomName[roomName] = meetingID
	return roomName, nil
}

func (s *Store) UpdateAttendance(_ context.Context, meetingID string, userID string, attendance entities.AttendanceStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.participants[meetingID]
	for i, participant := range rows {
		if participant.UserID != userID {
			continue
		}
		timestamp := at.UTC()
		participant.Attendance = attendance
		switch attendance {
		case entities.AttendanceJoined:
			participant.JoinedAt = &timestamp
		case entities.AttendanceLeft:
			participant.LeftAt = &timestamp
		}
		participant.UpdatedAt = timestamp
		rows[i] = participant
		s.participants[meetingID] = rows
		return nil
	}
	return nil
}

func (s *Store) SaveRoomToken(_ context.Context, token entities.RoomToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token.MeetingID] = append(s.tokens[token.MeetingID], token)
	return nil
}

func (s *Store) AppendEvent(_ context.Context, event entities.MeetingEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendEventLocked(event)
	return nil
}

func (s *Store) ListEvents(_ context.Context, meetingID string) ([]entities.MeetingEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entities.MeetingEvent(nil), s.meetingLog[meetingID]...), nil
}

func (s *Store) ListReminders(_ context.Context, meetingID string) ([]entities.ReminderJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entities.ReminderJob(nil), s.reminders[meetingID]...), nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]outbox.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 100
	}
	pending := make([]outbox.Message, 0, limit)
	for _, row := range s.outboxRows {
		if row.Status != outboxStatusPending {
			continue
		}
		pending = append(pending, row)
		if len(pending) == limit {
			break
		}
	}
	return pending, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, messageID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, row := range s.outboxRows {
		if row.ID == messageID {
			row.Status = outboxStatusPublished
			s.outboxRows[i] = row
			return nil
		}
	}
	return nil
}

// ListRoomTokens exposes persisted tokens for assertions in tests.
func (s *Store) ListRoomTokens(meetingID string) []entities.RoomToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entities.RoomToken(nil), s.tokens[meetingID]...)
}

// ListReschedules exposes the reschedule records for assertions in tests.
func (s *Store) ListReschedules(meetingID string) []entities.RescheduleRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entities.RescheduleRecord(nil), s.reschedules[meetingID]...)
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) getMeetingLocked(meetingID string) (entities.Meeting, error) {
	meeting, ok := s.meetings[meetingID]
	if !ok {
		return entities.Meeting{}, domainerrors.ErrMeetingNotFound
	}
	return meeting, nil
}

func (s *Store) cancelRemindersLocked(meetingID string, at time.Time) {
	rows := s.reminders[meetingID]
	for i, job := range rows {
		if job.Status == entities.ReminderStatusScheduled {
			job.Status = entities.ReminderStatusCancelled
			job.UpdatedAt = at.UTC()
			rows[i] = job
		}
	}
	s.reminders[meetingID] = rows
}

func (s *Store) appendEventLocked(event entities.MeetingEvent) {
	s.meetingLog[event.MeetingID] = append(s.meetingLog[event.MeetingID], event)

	payload, err := json.Marshal(events.Envelope{
		EventID:        event.EventID,
		EventType:      string(event.EventType),
		SourceService:  "meeting-service",
		OccurredAtUTC:  event.CreatedAt.UTC(),
		CorrelationID:  event.CorrelationID,
		EntityType:     "meeting",
		EntityID:       event.MeetingID,
		PayloadVersion: 1,
		Payload:        event.Payload,
	})
	if err != nil {
		return
	}
	s.outboxRows = append(s.outboxRows, outbox.Message{
		ID:        event.EventID,
		EventType: string(event.EventType),
		Payload:   payload,
		Status:    outboxStatusPending,
	})
}
