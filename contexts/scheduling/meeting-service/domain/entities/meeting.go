package entities

import (
	"fmt"
	"strings"
	"time"
)

type MeetingStatus string

const (
	MeetingStatusPending     MeetingStatus = "pending"
	MeetingStatusAccepted    MeetingStatus = "accepted"
	MeetingStatusDenied      MeetingStatus = "denied"
	MeetingStatusRescheduled MeetingStatus = "rescheduled"
	MeetingStatusCompleted   MeetingStatus = "completed"
	MeetingStatusCancelled   MeetingStatus = "cancelled"
)

// Slot is one proposed (or confirmed) meeting time range.
type Slot struct {
	StartsAt time.Time
	EndsAt   time.Time
}

func (s Slot) Valid() bool {
	return !s.StartsAt.IsZero() && s.EndsAt.After(s.StartsAt)
}

// Meeting is the scheduling aggregate. Status only moves through the
// transitions the commands encode; the provider room name is assigned once on
// first token issuance and is immutable afterwards, because webhook events use
// it to locate the meeting.
type Meeting struct {
	MeetingID          string
	OrganizationID     string
	RequesterID        string
	Title              string
	Description        string
	Status             MeetingStatus
	MeetingType        string
	Timezone           string
	DurationMinutes    int
	ProposedSlots      []Slot
	ConfirmedSlot      *Slot
	DenyReason         string
	ProviderRoomName   string
	JoinWindowOpensAt  *time.Time
	JoinWindowClosesAt *time.Time
	EndedAt            *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsTerminal reports whether no further transition may leave this status.
func (m Meeting) IsTerminal() bool {
	switch m.Status {
	case MeetingStatusDenied, MeetingStatusCompleted, MeetingStatusCancelled:
		return true
	default:
		return false
	}
}

// Joinable reports whether the state machine allows entering the video room.
func (m Meeting) Joinable() bool {
	return m.Status == MeetingStatusPending || m.Status == MeetingStatusAccepted
}

// JoinWindowOpen checks the configured window; an unconfigured window never
// blocks a join.
func (m Meeting) JoinWindowOpen(now time.Time) bool {
	now = now.UTC()
	if m.JoinWindowOpensAt != nil && now.Before(m.JoinWindowOpensAt.UTC()) {
		return false
	}
	if m.JoinWindowClosesAt != nil && now.After(m.JoinWindowClosesAt.UTC()) {
		return false
	}
	return true
}

// HasProposedSlot reports whether slot matches one of the proposed ranges.
func (m Meeting) HasProposedSlot(slot Slot) bool {
	for _, candidate := range m.ProposedSlots {
		if candidate.StartsAt.Equal(slot.StartsAt) && candidate.EndsAt.Equal(slot.EndsAt) {
			return true
		}
	}
	return false
}

func (m Meeting) ValidateBasics() bool {
	return strings.TrimSpace(m.Title) != "" &&
		strings.TrimSpace(m.MeetingType) != "" &&
		strings.TrimSpace(m.Timezone) != "" &&
		m.DurationMinutes >= 15 &&
		m.DurationMinutes <= 480 &&
		len(m.ProposedSlots) > 0 &&
		AllSlotsValid(m.ProposedSlots)
}

func AllSlotsValid(slots []Slot) bool {
	for _, slot := range slots {
		if !slot.Valid() {
			return false
		}
	}
	return len(slots) > 0
}

// RoomNameFor derives the canonical provider room name. The format is the
// join key external webhooks use, so it must never change for a meeting.
func RoomNameFor(organizationID string, meetingID string) string {
	return fmt.Sprintf("t_%s_m_%s", organizationID, meetingID)
}

func IsSupportedStatus(value MeetingStatus) bool {
	switch value {
	case MeetingStatusPending, MeetingStatusAccepted, MeetingStatusDenied,
		MeetingStatusRescheduled, MeetingStatusCompleted, MeetingStatusCancelled:
		return true
	default:
		return false
	}
}
