package commands_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"hireloop/contexts/scheduling/meeting-service/application/commands"
	"hireloop/contexts/scheduling/meeting-service/domain/entities"
	domainerrors "hireloop/contexts/scheduling/meeting-service/domain/errors"
)

func TestIssueJoinTokenAssignsStableRoomName(t *testing.T) {
	f := newFixture(t)
	meeting := f.createMeeting(t)

	first, err := f.issueToken.Execute(context.Background(), commands.IssueJoinTokenCommand{
		Actor: hostActor, MeetingID: meeting.MeetingID, CorrelationID: "corr-1",
	})
	if err != nil {
		t.Fatalf("first issuance: %v", err)
	}

	wantRoom := entities.RoomNameFor(meeting.OrganizationID, meeting.MeetingID)
	if first.RoomName != wantRoom {
		t.Fatalf("room name = %q, want %q", first.RoomName, wantRoom)
	}
	if !strings.HasPrefix(first.Token, "vrt_") {
		t.Fatalf("token %q should carry the vrt_ prefix", first.Token)
	}
	expiresAt, err := time.Parse(time.RFC3339, first.ExpiresAt)
	if err != nil {
		t.Fatalf("expires_at not RFC3339: %v", err)
	}
	if got := expiresAt.Sub(f.clock.Now()); got != entities.RoomTokenTTL {
		t.Fatalf("token ttl = %s, want %s", got, entities.RoomTokenTTL)
	}

	second, err := f.issueToken.Execute(context.Background(), commands.IssueJoinTokenCommand{
		Actor: candidateActor, MeetingID: meeting.MeetingID, CorrelationID: "corr-2",
	})
	if err != nil {
		t.Fatalf("second issuance: %v", err)
	}
	if second.RoomName != first.RoomName {
		t.Fatalf("room name changed across issuances: %q vs %q", first.RoomName, second.RoomName)
	}
	if second.Token == first.Token {
		t.Fatal("each issuance must mint a fresh token")
	}
	if second.Role != entities.ParticipantRoleCandidate {
		t.Fatalf("role = %s, want candidate", second.Role)
	}

	tokens := f.store.ListRoomTokens(meeting.MeetingID)
	if len(tokens) != 2 {
		t.Fatalf("persisted tokens = %d, want 2", len(tokens))
	}

	stored, err := f.store.GetMeetingByRoomName(context.Background(), wantRoom)
	if err != nil || stored.MeetingID != meeting.MeetingID {
		t.Fatalf("room name lookup failed: %v", err)
	}
}

func TestIssueJoinTokenOutsideWindow(t *testing.T) {
	f := newFixture(t)

	opens := f.clock.Now().Add(time.Hour)
	closes := f.clock.Now().Add(2 * time.Hour)
	meeting, err := f.create.Execute(context.Background(), commands.CreateMeetingCommand{
		Actor:              hostActor,
		Title:              "Backend screen",
		MeetingType:        "technical_interview",
		Timezone:           "Europe/Berlin",
		DurationMinutes:    60,
		ProposedSlots:      proposedSlots(f.clock),
		JoinWindowOpensAt:  &opens,
		JoinWindowClosesAt: &closes,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.issueToken.Execute(context.Background(), commands.IssueJoinTokenCommand{
		Actor: hostActor, MeetingID: meeting.MeetingID,
	}); !errors.Is(err, domainerrors.ErrJoinWindowClosed) {
		t.Fatalf("before window err = %v, want ErrJoinWindowClosed", err)
	}
	if tokens := f.store.ListRoomTokens(meeting.MeetingID); len(tokens) != 0 {
		t.Fatalf("no token may be persisted on a rejected issuance, got %d", len(tokens))
	}

	f.clock.Advance(90 * time.Minute)
	if _, err := f.issueToken.Execute(context.Background(), commands.IssueJoinTokenCommand{
		Actor: hostActor, MeetingID: meeting.MeetingID,
	}); err != nil {
		t.Fatalf("inside window: %v", err)
	}

	f.clock.Advance(time.Hour)
	if _, err := f.issueToken.Execute(context.Background(), commands.IssueJoinTokenCommand{
		Actor: hostActor, MeetingID: meeting.MeetingID,
	}); !errors.Is(err, domainerrors.ErrJoinWindowClosed) {
		t.Fatalf("after window err = %v, want ErrJoinWindowClosed", err)
	}
}

func TestIssueJoinTokenRequiresJoinableStatus(t *testing.T) {
	f := newFixture(t)
	meeting := f.createMeeting(t)

	if _, err := f.deny.Execute(context.Background(), commands.DenyMeetingCommand{
		Actor: candidateActor, MeetingID: meeting.MeetingID,
	}); err != nil {
		t.Fatalf("deny: %v", err)
	}

	if _, err := f.issueToken.Execute(context.Background(), commands.IssueJoinTokenCommand{
		Actor: hostActor, MeetingID: meeting.MeetingID,
	}); !errors.Is(err, domainerrors.ErrNotJoinable) {
		t.Fatalf("err = %v, want ErrNotJoinable", err)
	}
}

func TestIssueJoinTokenNonParticipant(t *testing.T) {
	f := newFixture(t)
	meeting := f.createMeeting(t)

	if _, err := f.issueToken.Execute(context.Background(), commands.IssueJoinTokenCommand{
		Actor: outsiderActor, MeetingID: meeting.MeetingID,
	}); !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}
