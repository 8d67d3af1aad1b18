package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"astrowheel/internal/orientation"
	"astrowheel/internal/store"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()
	client, err := New(ctx, "sqlite://"+filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	t.Cleanup(func() { client.Close(ctx) })
	if err := client.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensuring schema: %v", err)
	}
	return client
}

func testProgram() orientation.Program {
	return orientation.Program{
		BaseFrame: orientation.DefaultViewFrame(),
		Rules: []orientation.OrientationRule{{
			ID:      "sun-crosses-asc",
			Trigger: orientation.PlanetCrossesAngle{Planet: "Sun", Angle: orientation.AngleASC},
			Effect:  orientation.Rotate{Delta: 30},
		}},
	}
}

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	state := orientation.NewRuntimeState()
	state.AppliedRuleIDs["sun-crosses-asc"] = true
	state.PreviousHousePositions["object:Sun"] = 12
	state.PreviousLongitudes["object:Sun"] = 359.5
	state.ActiveFrames[""] = orientation.DefaultViewFrame().Rotated(30)
	state.Ticks = 4

	session := &store.Session{ID: "chart-1", Program: testProgram(), State: *state}
	if err := client.SaveSession(ctx, session); err != nil {
		t.Fatalf("saving session: %v", err)
	}
	if session.UpdatedAt.IsZero() {
		t.Fatalf("expected UpdatedAt to be stamped")
	}

	got, err := client.GetSession(ctx, "chart-1")
	if err != nil {
		t.Fatalf("loading session: %v", err)
	}
	if got.State.Ticks != 4 || !got.State.Applied("sun-crosses-asc") {
		t.Fatalf("unexpected state: %+v", got.State)
	}
	if got.State.PreviousHousePositions["object:Sun"] != 12 || got.State.PreviousLongitudes["object:Sun"] != 359.5 {
		t.Fatalf("previous positions not restored: %+v", got.State)
	}
	if orientation.FrameKey(got.State.ActiveFrames[""]) != orientation.FrameKey(state.ActiveFrames[""]) {
		t.Fatalf("active frame not restored")
	}
	if len(got.Program.Rules) != 1 || got.Program.Rules[0].Trigger.TriggerKind() != "planetCrossesAngle" {
		t.Fatalf("program not restored: %+v", got.Program)
	}
	if !got.UpdatedAt.Equal(session.UpdatedAt) {
		t.Fatalf("updated_at mismatch: %v vs %v", got.UpdatedAt, session.UpdatedAt)
	}
}

func TestSaveSessionOverwrites(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	first := &store.Session{ID: "chart-1", Program: testProgram(), UpdatedAt: time.Unix(100, 0)}
	if err := client.SaveSession(ctx, first); err != nil {
		t.Fatalf("saving session: %v", err)
	}
	second := &store.Session{ID: "chart-1", Program: orientation.Program{BaseFrame: orientation.DefaultViewFrame()}, UpdatedAt: time.Unix(200, 0)}
	second.State.Ticks = 9
	if err := client.SaveSession(ctx, second); err != nil {
		t.Fatalf("saving session: %v", err)
	}

	sessions, err := client.ListSessions(ctx)
	if err != nil {
		t.Fatalf("listing sessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	if sessions[0].Ticks != 9 || sessions[0].Rules != 0 || sessions[0].UpdatedAt.Unix() != 200 {
		t.Fatalf("unexpected summary: %+v", sessions[0])
	}
}

func TestGetSessionNotFound(t *testing.T) {
	client := newTestClient(t)

	_, err := client.GetSession(context.Background(), "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveSessionRequiresID(t *testing.T) {
	client := newTestClient(t)

	if err := client.SaveSession(context.Background(), &store.Session{ID: "  "}); err == nil {
		t.Fatalf("expected error for blank id")
	}
}

func TestTransitionsCascadeOnDelete(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	if err := client.SaveSession(ctx, &store.Session{ID: "chart-1", Program: testProgram()}); err != nil {
		t.Fatalf("saving session: %v", err)
	}
	from := orientation.DefaultViewFrame()
	transitions := []orientation.Transition{
		{RuleID: "a", From: from, To: from.Rotated(30)},
		{RuleID: "b", Wheel: "outer", From: from, To: from.Mirrored(), AnimationMs: 250},
	}
	if err := client.AppendTransitions(ctx, "chart-1", 3, transitions); err != nil {
		t.Fatalf("appending transitions: %v", err)
	}
	if err := client.AppendTransitions(ctx, "chart-1", 1, transitions[:1]); err != nil {
		t.Fatalf("appending transitions: %v", err)
	}

	records, err := client.ListTransitions(ctx, "chart-1")
	if err != nil {
		t.Fatalf("listing transitions: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 transitions, got %d", len(records))
	}
	if records[0].Tick != 1 || records[1].Tick != 3 || records[2].Transition.Wheel != "outer" {
		t.Fatalf("transitions out of order: %+v", records)
	}
	if records[2].Transition.AnimationMs != 250 || !records[2].Transition.To.AngularFlip {
		t.Fatalf("transition payload not restored: %+v", records[2].Transition)
	}

	deleted, err := client.DeleteSession(ctx, "chart-1")
	if err != nil || !deleted {
		t.Fatalf("expected delete to succeed, got %v, %v", deleted, err)
	}
	records, err = client.ListTransitions(ctx, "chart-1")
	if err != nil {
		t.Fatalf("listing transitions: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected transitions to be removed with the session, got %d", len(records))
	}

	deleted, err = client.DeleteSession(ctx, "chart-1")
	if err != nil || deleted {
		t.Fatalf("expected second delete to report false, got %v, %v", deleted, err)
	}
}
