package entities

import "time"

type ReminderType string
type ReminderStatus string

const (
	ReminderTMinus24h ReminderType = "t_minus_24h"
	ReminderTMinus1h  ReminderType = "t_minus_1h"
	ReminderTMinus10m ReminderType = "t_minus_10m"

	ReminderStatusScheduled ReminderStatus = "scheduled"
	ReminderStatusCancelled ReminderStatus = "cancelled"
	ReminderStatusSent      ReminderStatus = "sent"
)

// ReminderJob rows are the contract with the downstream dispatcher; this
// service only schedules and cancels them.
type ReminderJob struct {
	JobID          string
	MeetingID      string
	OrganizationID string
	UserID         string
	RemindAt       time.Time
	Type           ReminderType
	Status         ReminderStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type ReminderOffset struct {
	Type   ReminderType
	Before time.Duration
}

// ReminderPlan lists the fan-out offsets applied per participant when a
// meeting is accepted, relative to the confirmed slot start.
func ReminderPlan() []ReminderOffset {
	return []ReminderOffset{
		{Type: ReminderTMinus24h, Before: 24 * time.Hour},
		{Type: ReminderTMinus1h, Before: time.Hour},
		{Type: ReminderTMinus10m, Before: 10 * time.Minute},
	}
}
