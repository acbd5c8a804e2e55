package commands_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"hireloop/contexts/scheduling/meeting-service/adapters/memory"
	application "hireloop/contexts/scheduling/meeting-service/application"
	"hireloop/contexts/scheduling/meeting-service/application/commands"
	"hireloop/contexts/scheduling/meeting-service/domain/entities"
	domainerrors "hireloop/contexts/scheduling/meeting-service/domain/errors"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

func (c *fixedClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fixture struct {
	store      *memory.Store
	clock      *fixedClock
	create     commands.CreateMeetingUseCase
	accept     commands.AcceptMeetingUseCase
	deny       commands.DenyMeetingUseCase
	reschedule commands.RescheduleMeetingUseCase
	end        commands.EndMeetingUseCase
	issueToken commands.IssueJoinTokenUseCase
}

var (
	hostActor      = application.Actor{OrganizationID: "org-1", UserID: "user-host", Role: "recruiter"}
	candidateActor = application.Actor{OrganizationID: "org-1", UserID: "user-cand", Role: "candidate"}
	foreignActor   = application.Actor{OrganizationID: "org-2", UserID: "user-host", Role: "recruiter"}
	outsiderActor  = application.Actor{OrganizationID: "org-1", UserID: "user-outside", Role: "recruiter"}
)

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.NewStore()
	clock := &fixedClock{now: time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)}
	return fixture{
		store:      store,
		clock:      clock,
		create:     commands.CreateMeetingUseCase{Meetings: store, Clock: clock, IDGen: store},
		accept:     commands.AcceptMeetingUseCase{Meetings: store, Clock: clock, IDGen: store},
		deny:       commands.DenyMeetingUseCase{Meetings: store, Clock: clock, IDGen: store},
		reschedule: commands.RescheduleMeetingUseCase{Meetings: store, Clock: clock, IDGen: store},
		end:        commands.EndMeetingUseCase{Meetings: store, Clock: clock, IDGen: store},
		issueToken: commands.IssueJoinTokenUseCase{Meetings: store, Clock: clock, IDGen: store},
	}
}

func proposedSlots(clock *fixedClock) []entities.Slot {
	start := clock.Now().Add(48 * time.Hour)
	return []entities.Slot{
		{StartsAt: start, EndsAt: start.Add(time.Hour)},
		{StartsAt: start.Add(24 * time.Hour), EndsAt: start.Add(25 * time.Hour)},
	}
}

func (f fixture) createMeeting(t *testing.T) entities.Meeting {
	t.Helper()
	meeting, err := f.create.Execute(context.Background(), commands.CreateMeetingCommand{
		Actor:           hostActor,
		Title:           "Backend screen",
		MeetingType:     "technical_interview",
		Timezone:        "Europe/Berlin",
		DurationMinutes: 60,
		ProposedSlots:   proposedSlots(f.clock),
		Participants: []commands.ParticipantSpec{
			{UserID: candidateActor.UserID, Role: entities.ParticipantRoleCandidate},
		},
		CorrelationID: "corr-create",
	})
	if err != nil {
		t.Fatalf("create meeting: %v", err)
	}
	return meeting
}

func TestCreateMeetingAddsRequesterAsHost(t *testing.T) {
	f := newFixture(t)
	meeting := f.createMeeting(t)

	if meeting.Status != entities.MeetingStatusPending {
		t.Fatalf("status = %s, want pending", meeting.Status)
	}
	participants, err := f.store.ListParticipants(context.Background(), meeting.MeetingID)
	if err != nil {
		t.Fatalf("list participants: %v", err)
	}
	if len(participants) != 2 {
		t.Fatalf("expected requester plus candidate, got %d participants", len(participants))
	}
	roles := map[string]entities.ParticipantRole{}
	for _, p := range participants {
		roles[p.UserID] = p.Role
		if p.Attendance != entities.AttendanceInvited {
			t.Errorf("participant %s attendance = %s, want invited", p.UserID, p.Attendance)
		}
	}
	if roles[hostActor.UserID] != entities.ParticipantRoleHost {
		t.Errorf("requester role = %s, want host", roles[hostActor.UserID])
	}

	log, err := f.store.ListEvents(context.Background(), meeting.MeetingID)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(log) != 1 || log[0].EventType != entities.EventMeetingRequested {
		t.Fatalf("expected single meeting_requested event, got %+v", log)
	}
}

func TestCreateMeetingValidation(t *testing.T) {
	f := newFixture(t)
	base := commands.CreateMeetingCommand{
		Actor:           hostActor,
		Title:           "Backend screen",
		MeetingType:     "technical_interview",
		Timezone:        "Europe/Berlin",
		DurationMinutes: 60,
		ProposedSlots:   proposedSlots(f.clock),
	}

	cases := map[string]func(*commands.CreateMeetingCommand){
		"empty title":    func(c *commands.CreateMeetingCommand) { c.Title = "  " },
		"short duration": func(c *commands.CreateMeetingCommand) { c.DurationMinutes = 5 },
		"no slots":       func(c *commands.CreateMeetingCommand) { c.ProposedSlots = nil },
		"inverted slot": func(c *commands.CreateMeetingCommand) {
			c.ProposedSlots = []entities.Slot{{StartsAt: f.clock.Now(), EndsAt: f.clock.Now().Add(-time.Hour)}}
		},
		"duplicate participant": func(c *commands.CreateMeetingCommand) {
			c.Participants = []commands.ParticipantSpec{
				{UserID: "user-cand", Role: entities.ParticipantRoleCandidate},
				{UserID: "user-cand", Role: entities.ParticipantRoleCandidate},
			}
		},
		"unknown role": func(c *commands.CreateMeetingCommand) {
			c.Participants = []commands.ParticipantSpec{{UserID: "user-cand", Role: "observer"}}
		},
	}
	for name, mutate := range cases {
		cmd := base
		cmd.ProposedSlots = append([]entities.Slot(nil), base.ProposedSlots...)
		mutate(&cmd)
		if _, err := f.create.Execute(context.Background(), cmd); !errors.Is(err, domainerrors.ErrInvalidMeetingInput) {
			t.Errorf("%s: err = %v, want ErrInvalidMeetingInput", name, err)
		}
	}
}

func TestAcceptMeetingSchedulesRemindersPerParticipant(t *testing.T) {
	f := newFixture(t)
	meeting := f.createMeeting(t)
	slot := meeting.ProposedSlots[0]

	accepted, err := f.accept.Execute(context.Background(), commands.AcceptMeetingCommand{
		Actor:     candidateActor,
		MeetingID: meeting.MeetingID,
		Slot:      slot,
	})
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != entities.MeetingStatusAccepted {
		t.Fatalf("status = %s, want accepted", accepted.Status)
	}
	if accepted.ConfirmedSlot == nil || !accepted.ConfirmedSlot.StartsAt.Equal(slot.StartsAt) {
		t.Fatalf("confirmed slot not set: %+v", accepted.ConfirmedSlot)
	}

	reminders, err := f.store.ListReminders(context.Background(), meeting.MeetingID)
	if err != nil {
		t.Fatalf("list reminders: %v", err)
	}
	if len(reminders) != 6 {
		t.Fatalf("expected 3 reminders x 2 participants, got %d", len(reminders))
	}
	wantRemindAt := map[entities.ReminderType]time.Time{
		entities.ReminderTMinus24h: slot.StartsAt.Add(-24 * time.Hour),
		entities.ReminderTMinus1h:  slot.StartsAt.Add(-time.Hour),
		entities.ReminderTMinus10m: slot.StartsAt.Add(-10 * time.Minute),
	}
	perUser := map[string]int{}
	for _, job := range reminders {
		perUser[job.UserID]++
		if job.Status != entities.ReminderStatusScheduled {
			t.Errorf("reminder %s status = %s, want scheduled", job.JobID, job.Status)
		}
		if !job.RemindAt.Equal(wantRemindAt[job.Type]) {
			t.Errorf("reminder %s remind_at = %s, want %s", job.Type, job.RemindAt, wantRemindAt[job.Type])
		}
	}
	if perUser[hostActor.UserID] != 3 || perUser[candidateActor.UserID] != 3 {
		t.Fatalf("reminders not fanned out per participant: %+v", perUser)
	}
}

func TestAcceptMeetingRejectsUnproposedSlot(t *testing.T) {
	f := newFixture(t)
	meeting := f.createMeeting(t)

	slot := meeting.ProposedSlots[0]
	slot.StartsAt = slot.StartsAt.Add(time.Minute)
	if _, err := f.accept.Execute(context.Background(), commands.AcceptMeetingCommand{
		Actor:     candidateActor,
		MeetingID: meeting.MeetingID,
		Slot:      slot,
	}); !errors.Is(err, domainerrors.ErrSlotNotProposed) {
		t.Fatalf("err = %v, want ErrSlotNotProposed", err)
	}
}

func TestPendingOnlyTransitions(t *testing.T) {
	f := newFixture(t)
	meeting := f.createMeeting(t)
	slot := meeting.ProposedSlots[0]

	if _, err := f.accept.Execute(context.Background(), commands.AcceptMeetingCommand{
		Actor: candidateActor, MeetingID: meeting.MeetingID, Slot: slot,
	}); err != nil {
		t.Fatalf("accept: %v", err)
	}

	if _, err := f.accept.Execute(context.Background(), commands.AcceptMeetingCommand{
		Actor: candidateActor, MeetingID: meeting.MeetingID, Slot: slot,
	}); !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("second accept err = %v, want ErrInvalidTransition", err)
	}
	if _, err := f.deny.Execute(context.Background(), commands.DenyMeetingCommand{
		Actor: candidateActor, MeetingID: meeting.MeetingID, Reason: "too late",
	}); !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("deny after accept err = %v, want ErrInvalidTransition", err)
	}
}

func TestDenyMeeting(t *testing.T) {
	f := newFixture(t)
	meeting := f.createMeeting(t)

	denied, err := f.deny.Execute(context.Background(), commands.DenyMeetingCommand{
		Actor:     candidateActor,
		MeetingID: meeting.MeetingID,
		Reason:    "  no availability this week ",
	})
	if err != nil {
		t.Fatalf("deny: %v", err)
	}
	if denied.Status != entities.MeetingStatusDenied {
		t.Fatalf("status = %s, want denied", denied.Status)
	}
	if denied.DenyReason != "no availability this week" {
		t.Fatalf("deny reason = %q", denied.DenyReason)
	}
}

func TestCrossTenantMeetingsHideAsNotFound(t *testing.T) {
	f := newFixture(t)
	meeting := f.createMeeting(t)

	checks := map[string]error{}
	_, checks["accept"] = f.accept.Execute(context.Background(), commands.AcceptMeetingCommand{
		Actor: foreignActor, MeetingID: meeting.MeetingID, Slot: meeting.ProposedSlots[0],
	})
	_, checks["deny"] = f.deny.Execute(context.Background(), commands.DenyMeetingCommand{
		Actor: foreignActor, MeetingID: meeting.MeetingID,
	})
	_, checks["reschedule"] = f.reschedule.Execute(context.Background(), commands.RescheduleMeetingCommand{
		Actor: foreignActor, MeetingID: meeting.MeetingID, NewSlots: proposedSlots(f.clock),
	})
	_, checks["end"] = f.end.Execute(context.Background(), commands.EndMeetingCommand{
		Actor: foreignActor, MeetingID: meeting.MeetingID,
	})
	_, checks["token"] = f.issueToken.Execute(context.Background(), commands.IssueJoinTokenCommand{
		Actor: foreignActor, MeetingID: meeting.MeetingID,
	})
	for op, err := range checks {
		if !errors.Is(err, domainerrors.ErrMeetingNotFound) {
			t.Errorf("%s across tenants: err = %v, want ErrMeetingNotFound", op, err)
		}
		if errors.Is(err, domainerrors.ErrForbidden) {
			t.Errorf("%s across tenants must not leak ErrForbidden", op)
		}
	}
}

func TestSameTenantNonParticipantIsForbidden(t *testing.T) {
	f := newFixture(t)
	meeting := f.createMeeting(t)

	if _, err := f.accept.Execute(context.Background(), commands.AcceptMeetingCommand{
		Actor: outsiderActor, MeetingID: meeting.MeetingID, Slot: meeting.ProposedSlots[0],
	}); !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestRescheduleCancelsRemindersAndRecordsProposal(t *testing.T) {
	f := newFixture(t)
	meeting := f.createMeeting(t)
	slot := meeting.ProposedSlots[0]

	if _, err := f.accept.Execute(context.Background(), commands.AcceptMeetingCommand{
		Actor: candidateActor, MeetingID: meeting.MeetingID, Slot: slot,
	}); err != nil {
		t.Fatalf("accept: %v", err)
	}

	newStart := slot.StartsAt.Add(72 * time.Hour)
	newSlots := []entities.Slot{{StartsAt: newStart, EndsAt: newStart.Add(time.Hour)}}
	rescheduled, err := f.reschedule.Execute(context.Background(), commands.RescheduleMeetingCommand{
		Actor:     hostActor,
		MeetingID: meeting.MeetingID,
		NewSlots:  newSlots,
		Reason:    "panel conflict",
	})
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if rescheduled.Status != entities.MeetingStatusRescheduled {
		t.Fatalf("status = %s, want rescheduled", rescheduled.Status)
	}
	if rescheduled.ConfirmedSlot != nil {
		t.Fatal("confirmed slot should be cleared on reschedule")
	}
	if len(rescheduled.ProposedSlots) != 1 || !rescheduled.ProposedSlots[0].StartsAt.Equal(newStart) {
		t.Fatalf("proposed slots not replaced: %+v", rescheduled.ProposedSlots)
	}

	reminders, err := f.store.ListReminders(context.Background(), meeting.MeetingID)
	if err != nil {
		t.Fatalf("list reminders: %v", err)
	}
	if len(reminders) != 6 {
		t.Fatalf("expected the 6 accepted reminders to remain, got %d", len(reminders))
	}
	for _, job := range reminders {
		if job.Status != entities.ReminderStatusCancelled {
			t.Errorf("reminder %s status = %s, want cancelled", job.JobID, job.Status)
		}
	}

	records := f.store.ListReschedules(meeting.MeetingID)
	if len(records) != 1 {
		t.Fatalf("expected one reschedule record, got %d", len(records))
	}
	if records[0].RescheduledBy != hostActor.UserID || records[0].Reason != "panel conflict" {
		t.Fatalf("unexpected reschedule record: %+v", records[0])
	}
}

func TestRescheduleCounterProposalReentersPending(t *testing.T) {
	f := newFixture(t)
	meeting := f.createMeeting(t)

	first, err := f.reschedule.Execute(context.Background(), commands.RescheduleMeetingCommand{
		Actor: hostActor, MeetingID: meeting.MeetingID, NewSlots: proposedSlots(f.clock),
	})
	if err != nil {
		t.Fatalf("first reschedule: %v", err)
	}
	if first.Status != entities.MeetingStatusRescheduled {
		t.Fatalf("status after first reschedule = %s, want rescheduled", first.Status)
	}

	second, err := f.reschedule.Execute(context.Background(), commands.RescheduleMeetingCommand{
		Actor: candidateActor, MeetingID: meeting.MeetingID, NewSlots: proposedSlots(f.clock),
	})
	if err != nil {
		t.Fatalf("counter-proposal: %v", err)
	}
	if second.Status != entities.MeetingStatusPending {
		t.Fatalf("status after counter-proposal = %s, want pending", second.Status)
	}
	if len(f.store.ListReschedules(meeting.MeetingID)) != 2 {
		t.Fatal("each reschedule should append its own record")
	}
}

func TestEndMeetingRequiresAuthorizedRole(t *testing.T) {
	f := newFixture(t)
	meeting := f.createMeeting(t)

	if _, err := f.end.Execute(context.Background(), commands.EndMeetingCommand{
		Actor: candidateActor, MeetingID: meeting.MeetingID,
	}); !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("candidate end err = %v, want ErrForbidden", err)
	}

	ended, err := f.end.Execute(context.Background(), commands.EndMeetingCommand{
		Actor: hostActor, MeetingID: meeting.MeetingID, Reason: "wrapped up early",
	})
	if err != nil {
		t.Fatalf("host end: %v", err)
	}
	if ended.Status != entities.MeetingStatusCompleted {
		t.Fatalf("status = %s, want completed", ended.Status)
	}
	if ended.EndedAt == nil || !ended.EndedAt.Equal(f.clock.Now()) {
		t.Fatalf("ended_at = %v, want clock time", ended.EndedAt)
	}
}

func TestEndMeetingAdminWithoutParticipantRow(t *testing.T) {
	f := newFixture(t)
	meeting := f.createMeeting(t)

	admin := application.Actor{OrganizationID: "org-1", UserID: "user-admin", Role: "admin"}
	ended, err := f.end.Execute(context.Background(), commands.EndMeetingCommand{
		Actor: admin, MeetingID: meeting.MeetingID,
	})
	if err != nil {
		t.Fatalf("admin end: %v", err)
	}
	if ended.Status != entities.MeetingStatusCompleted {
		t.Fatalf("status = %s, want completed", ended.Status)
	}
}

func TestConcurrentEndHasOneWinner(t *testing.T) {
	f := newFixture(t)
	meeting := f.createMeeting(t)

	const racers = 8
	results := make(chan error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.end.Execute(context.Background(), commands.EndMeetingCommand{
				Actor: hostActor, MeetingID: meeting.MeetingID,
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	winners, losers := 0, 0
	for err := range results {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, domainerrors.ErrInvalidTransition):
			losers++
		default:
			t.Fatalf("unexpected race outcome: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("winners = %d, want exactly 1", winners)
	}
	if losers != racers-1 {
		t.Fatalf("losers = %d, want %d", losers, racers-1)
	}

	log, err := f.store.ListEvents(context.Background(), meeting.MeetingID)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	endedEvents := 0
	for _, event := range log {
		if event.EventType == entities.EventMeetingEnded {
			endedEvents++
		}
	}
	if endedEvents != 1 {
		t.Fatalf("meeting_ended events = %d, want 1", endedEvents)
	}
}
