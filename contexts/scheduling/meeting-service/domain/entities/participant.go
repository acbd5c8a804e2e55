package entities

import "time"

type ParticipantRole string
type AttendanceStatus string

const (
	ParticipantRoleHost          ParticipantRole = "host"
	ParticipantRoleInterviewer   ParticipantRole = "interviewer"
	ParticipantRoleRecruiter     ParticipantRole = "recruiter"
	ParticipantRoleHiringManager ParticipantRole = "hiring_manager"
	ParticipantRoleCandidate     ParticipantRole = "candidate"

	AttendanceInvited AttendanceStatus = "invited"
	AttendanceJoined  AttendanceStatus = "joined"
	AttendanceLeft    AttendanceStatus = "left"
)

// Participant attendance is mutated only by webhook-driven join/leave events.
type Participant struct {
	ParticipantID string
	MeetingID     string
	UserID        string
	Role          ParticipantRole
	Attendance    AttendanceStatus
	JoinedAt      *time.Time
	LeftAt        *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func IsSupportedParticipantRole(value ParticipantRole) bool {
	switch value {
	case ParticipantRoleHost, ParticipantRoleInterviewer, ParticipantRoleRecruiter,
		ParticipantRoleHiringManager, ParticipantRoleCandidate:
		return true
	default:
		return false
	}
}

// CanEndMeeting reports whether a participant role may terminate the meeting.
func CanEndMeeting(role ParticipantRole) bool {
	switch role {
	case ParticipantRoleHost, ParticipantRoleInterviewer, ParticipantRoleRecruiter:
		return true
	default:
		return false
	}
}
