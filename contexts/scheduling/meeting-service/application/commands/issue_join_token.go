package commands

import (
	"context"
	"log/slog"
	"time"

	application "hireloop/contexts/scheduling/meeting-service/application"
	"hireloop/contexts/scheduling/meeting-service/domain/entities"
	domainerrors "hireloop/contexts/scheduling/meeting-service/domain/errors"
	"hireloop/contexts/scheduling/meeting-service/ports"
)

type IssueJoinTokenCommand struct {
	Actor         application.Actor
	MeetingID     string
	CorrelationID string
}

// IssuedToken is what the client exchanges with the video provider. The room
// name is stable across calls; the token itself is fresh every time.
type IssuedToken struct {
	MeetingID string
	UserID    string
	Role      entities.ParticipantRole
	RoomName  string
	Token     string
	ExpiresAt string
}

type IssueJoinTokenUseCase struct {
	Meetings ports.MeetingRepository
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

func (uc IssueJoinTokenUseCase) Execute(ctx context.Context, cmd IssueJoinTokenCommand) (IssuedToken, error) {
	logger := application.ResolveLogger(uc.Logger)

	meeting, err := loadScopedMeeting(ctx, uc.Meetings, cmd.Actor, cmd.MeetingID)
	if err != nil {
		return IssuedToken{}, err
	}
	participant, err := requireParticipant(ctx, uc.Meetings, cmd.Actor, meeting.MeetingID)
	if err != nil {
		return IssuedToken{}, err
	}
	if !meeting.Joinable() {
		return IssuedToken{}, domainerrors.ErrNotJoinable
	}

	now := uc.Clock.Now().UTC()
	if !meeting.JoinWindowOpen(now) {
		return IssuedToken{}, domainerrors.ErrJoinWindowClosed
	}

	// First issuance assigns the immutable room name; later calls get the
	// stored value back.
	roomName := meeting.ProviderRoomName
	if roomName == "" {
		roomName, err = uc.Meetings.AssignRoomName(ctx, meeting.MeetingID,
			entities.RoomNameFor(meeting.OrganizationID, meeting.MeetingID))
		if err != nil {
			return IssuedToken{}, err
		}
	}

	tokenID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return IssuedToken{}, err
	}
	tokenValueID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return IssuedToken{}, err
	}
	token := entities.RoomToken{
		TokenID:   tokenID,
		MeetingID: meeting.MeetingID,
		UserID:    cmd.Actor.UserID,
		Token:     entities.RoomTokenValue(tokenValueID),
		ExpiresAt: now.Add(entities.RoomTokenTTL),
		CreatedAt: now,
	}
	if err := uc.Meetings.SaveRoomToken(ctx, token); err != nil {
		return IssuedToken{}, err
	}

	role := participant.Role
	if role == "" {
		role = entities.ParticipantRole(cmd.Actor.Role)
	}

	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return IssuedToken{}, err
	}
	expiresAt := token.ExpiresAt.Format(time.RFC3339)
	if err := uc.Meetings.AppendEvent(ctx, entities.MeetingEvent{
		EventID:        eventID,
		MeetingID:      meeting.MeetingID,
		OrganizationID: meeting.OrganizationID,
		ActorID:        cmd.Actor.UserID,
		EventType:      entities.EventTokenIssued,
		CorrelationID:  cmd.CorrelationID,
		Payload: map[string]any{
			"room_name":   roomName,
			"role":        string(role),
			"expires_at":  expiresAt,
			"ttl_seconds": int(entities.RoomTokenTTL.Seconds()),
		},
		CreatedAt: now,
	}); err != nil {
		return IssuedToken{}, err
	}

	logger.Info("join token issued",
		"event", "meeting_token_issued",
		"module", "scheduling/meeting-service",
		"layer", "application",
		"meeting_id", meeting.MeetingID,
		"user_id", cmd.Actor.UserID,
		"room_name", roomName,
	)
	return IssuedToken{
		MeetingID: meeting.MeetingID,
		UserID:    cmd.Actor.UserID,
		Role:      role,
		RoomName:  roomName,
		Token:     token.Token,
		ExpiresAt: expiresAt,
	}, nil
}
