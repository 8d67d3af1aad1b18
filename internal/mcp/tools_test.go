package mcp

import (
	"context"
	"errors"
	"math"
	"strconv"
	"testing"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"astrowheel/internal/metrics"
	"astrowheel/internal/store"
	"astrowheel/internal/store/memory"
	"astrowheel/internal/wheel"
)

const legacyWheel = `{"name": "Legacy", "version": "1.0.0", "rings": [{"slug": "signs", "type": "signs", "label": "Signs", "orderIndex": 0, "radiusInner": 0.8, "radiusOuter": 1, "dataSource": {"kind": "static_zodiac"}}]}`

type failingStore struct {
	*memory.Client
	saveErr error
}

func (f *failingStore) SaveSession(ctx context.Context, s *store.Session) error {
	return f.saveErr
}

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	server, err := NewServer(opts, "test")
	if err != nil {
		t.Fatalf("creating server: %v", err)
	}
	return server
}

// equalHouseSnapshot has fixed 30 degree houses from 0 and a moving ascendant.
func equalHouseSnapshot(asc float64) SnapshotInput {
	houses := make(map[string]float64, 12)
	for house := 1; house <= 12; house++ {
		houses[strconv.Itoa(house)] = float64((house - 1) * 30)
	}
	return SnapshotInput{Houses: houses, Angles: map[string]float64{"ASC": asc, "MC": 270}}
}

func TestListWheels(t *testing.T) {
	server := newTestServer(t, Options{})

	_, output, err := server.handleListWheels(context.Background(), nil, ListWheelsInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(output.Wheels) != 3 {
		t.Fatalf("expected 3 built-in wheels, got %+v", output.Wheels)
	}
	for _, w := range output.Wheels {
		if !w.Builtin || w.Rings == 0 {
			t.Fatalf("unexpected summary: %+v", w)
		}
	}
}

func TestGetWheel(t *testing.T) {
	server := newTestServer(t, Options{})

	_, output, err := server.handleGetWheel(context.Background(), nil, GetWheelInput{Name: "standard natal wheel"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Definition["name"] != wheel.StandardNatalWheel || !output.Builtin {
		t.Fatalf("unexpected wheel output: %+v", output)
	}
	if rings, ok := output.Definition["rings"].([]any); !ok || len(rings) == 0 {
		t.Fatalf("expected rings in definition, got %T", output.Definition["rings"])
	}

	if _, _, err := server.handleGetWheel(context.Background(), nil, GetWheelInput{Name: "Missing"}); err == nil {
		t.Fatalf("expected error for unknown wheel")
	}
}

func TestValidateWheel(t *testing.T) {
	reg := wheel.NewRegistry()
	server := newTestServer(t, Options{Registry: reg})

	t.Run("invalid json", func(t *testing.T) {
		_, output, err := server.handleValidateWheel(context.Background(), nil, ValidateWheelInput{Definition: "{"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if output.Valid || len(output.Errors) == 0 {
			t.Fatalf("expected invalid result, got %+v", output)
		}
	})

	t.Run("migrate and register", func(t *testing.T) {
		_, output, err := server.handleValidateWheel(context.Background(), nil, ValidateWheelInput{
			Definition: legacyWheel,
			Migrate:    true,
			Register:   true,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !output.Valid || !output.Registered || output.Version != wheel.CurrentVersion {
			t.Fatalf("unexpected output: %+v", output)
		}
		if len(output.Migrations) != 2 {
			t.Fatalf("expected 2 migration steps, got %v", output.Migrations)
		}
		def, ok := reg.Get("legacy")
		if !ok || def.Version != wheel.CurrentVersion {
			t.Fatalf("expected migrated definition in registry, got %+v", def)
		}
	})
}

func TestComposePreset(t *testing.T) {
	server := newTestServer(t, Options{})

	_, output, err := server.handleComposePreset(context.Background(), nil, ComposePresetInput{Name: "classic natal"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Wheel != wheel.StandardNatalWheel || output.Orientation != "asc-left" {
		t.Fatalf("unexpected compose output: %+v", output)
	}
	if _, ok := output.Program["baseFrame"]; !ok {
		t.Fatalf("expected program with baseFrame, got %+v", output.Program)
	}

	if _, _, err := server.handleComposePreset(context.Background(), nil, ComposePresetInput{Name: "nope"}); err == nil {
		t.Fatalf("expected error for unknown preset")
	}
}

func TestWorldToScreenAndBack(t *testing.T) {
	server := newTestServer(t, Options{})
	snap := SnapshotInput{Revision: "r1", Angles: map[string]float64{"ASC": 95}}

	_, toScreen, err := server.handleWorldToScreen(context.Background(), nil, WorldToScreenInput{
		Preset:     "asc-left",
		Snapshot:   snap,
		Longitudes: []float64{95, 185},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toScreen.Anchor != 95 || math.Abs(toScreen.Screen[0]-180) > 1e-9 || math.Abs(toScreen.Screen[1]-90) > 1e-9 {
		t.Fatalf("unexpected projection: %+v", toScreen)
	}

	_, toWorld, err := server.handleScreenToWorld(context.Background(), nil, ScreenToWorldInput{
		Snapshot: snap,
		Angles:   toScreen.Screen,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(toWorld.World[0]-95) > 1e-9 || math.Abs(toWorld.World[1]-185) > 1e-9 {
		t.Fatalf("round trip failed: %+v", toWorld)
	}
}

func TestWorldToScreenReusedRevision(t *testing.T) {
	server := newTestServer(t, Options{})

	project := func(asc float64) WorldToScreenOutput {
		t.Helper()
		_, output, err := server.handleWorldToScreen(context.Background(), nil, WorldToScreenInput{
			Preset:     "asc-left",
			Snapshot:   SnapshotInput{Revision: "chart", Angles: map[string]float64{"ASC": asc}},
			Longitudes: []float64{100},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return output
	}

	first := project(95)
	second := project(100)
	if second.Anchor != 100 || math.Abs(second.Screen[0]-180) > 1e-9 {
		t.Fatalf("stale anchor for changed snapshot: first %+v, second %+v", first, second)
	}
	if again := project(95); again.Anchor != 95 {
		t.Fatalf("expected anchor 95, got %+v", again)
	}
	if n := server.projector.Len(); n != 2 {
		t.Fatalf("expected 2 cached frames, got %d", n)
	}
}

func TestWorldToScreenExplicitFrame(t *testing.T) {
	server := newTestServer(t, Options{})

	frame := map[string]any{"worldZero": 0, "screenZero": 0, "angularFlip": true}
	_, output, err := server.handleWorldToScreen(context.Background(), nil, WorldToScreenInput{
		Frame:      frame,
		Snapshot:   SnapshotInput{Objects: map[string]float64{"Sun": 185}},
		Longitudes: []float64{10},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(output.Screen[0]-350) > 1e-9 {
		t.Fatalf("expected mirrored zero-point projection 350, got %v", output.Screen)
	}
}

func TestWorldToScreenMissingAnchor(t *testing.T) {
	server := newTestServer(t, Options{})

	_, _, err := server.handleWorldToScreen(context.Background(), nil, WorldToScreenInput{
		Preset:     "asc-left",
		Snapshot:   SnapshotInput{Objects: map[string]float64{"Sun": 10}},
		Longitudes: []float64{10},
	})
	if err == nil {
		t.Fatalf("expected error when the anchor is missing")
	}
}

func TestEvaluateOrientation(t *testing.T) {
	db := memory.New()
	server := newTestServer(t, Options{Store: db})
	ctx := context.Background()

	program := map[string]any{
		"rules": []any{map[string]any{
			"id":      "next-house",
			"trigger": map[string]any{"kind": "ascLeavesHouse", "house": 1},
			"effect":  map[string]any{"kind": "rotate", "delta": 30},
		}},
	}

	if _, _, err := server.handleEvaluateOrientation(ctx, nil, EvaluateOrientationInput{
		SessionID: "chart",
		Snapshot:  equalHouseSnapshot(10),
	}); err == nil {
		t.Fatalf("expected error for a new session without a program")
	}

	_, first, err := server.handleEvaluateOrientation(ctx, nil, EvaluateOrientationInput{
		SessionID: "chart",
		Program:   program,
		Snapshot:  equalHouseSnapshot(10),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Tick != 1 {
		t.Fatalf("expected tick 1, got %d", first.Tick)
	}
	if _, ok := first.Outcome["transitions"]; ok {
		t.Fatalf("nothing should fire on the first tick: %+v", first.Outcome)
	}

	_, second, err := server.handleEvaluateOrientation(ctx, nil, EvaluateOrientationInput{
		SessionID: "chart",
		Snapshot:  equalHouseSnapshot(35),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	transitions, ok := second.Outcome["transitions"].([]any)
	if second.Tick != 2 || !ok || len(transitions) != 1 {
		t.Fatalf("expected one transition on tick 2, got %+v", second)
	}

	records, err := db.ListTransitions(ctx, "chart")
	if err != nil {
		t.Fatalf("listing transitions: %v", err)
	}
	if len(records) != 1 || records[0].Tick != 2 || records[0].Transition.RuleID != "next-house" {
		t.Fatalf("unexpected stored transitions: %+v", records)
	}

	session, err := db.GetSession(ctx, "chart")
	if err != nil {
		t.Fatalf("loading session: %v", err)
	}
	if !session.State.Applied("next-house") {
		t.Fatalf("expected applied rule to be persisted")
	}
}

func TestEvaluateOrientationSaveError(t *testing.T) {
	boom := errors.New("disk full")
	server := newTestServer(t, Options{Store: &failingStore{Client: memory.New(), saveErr: boom}})

	_, _, err := server.handleEvaluateOrientation(context.Background(), nil, EvaluateOrientationInput{
		SessionID: "chart",
		Preset:    "mc-top",
		Snapshot:  equalHouseSnapshot(10),
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected save error, got %v", err)
	}
}

func TestResetSession(t *testing.T) {
	db := memory.New()
	server := newTestServer(t, Options{Store: db})
	ctx := context.Background()

	if _, _, err := server.handleEvaluateOrientation(ctx, nil, EvaluateOrientationInput{
		SessionID: "chart",
		Preset:    "asc-left",
		Snapshot:  equalHouseSnapshot(10),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, output, err := server.handleResetSession(ctx, nil, ResetSessionInput{SessionID: "chart"})
	if err != nil || !output.Reset {
		t.Fatalf("expected reset, got %+v, %v", output, err)
	}
	session, err := db.GetSession(ctx, "chart")
	if err != nil {
		t.Fatalf("loading session: %v", err)
	}
	if session.State.Ticks != 0 {
		t.Fatalf("expected ticks cleared, got %d", session.State.Ticks)
	}

	_, output, err = server.handleResetSession(ctx, nil, ResetSessionInput{SessionID: "chart", Forget: true})
	if err != nil || !output.Reset {
		t.Fatalf("expected delete, got %+v, %v", output, err)
	}
	if _, err := db.GetSession(ctx, "chart"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected session to be gone, got %v", err)
	}

	_, _, err = server.handleListSessions(ctx, nil, ListSessionsInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestToolCallsAreCounted(t *testing.T) {
	recorder, err := metrics.New()
	if err != nil {
		t.Fatalf("creating recorder: %v", err)
	}
	server := newTestServer(t, Options{Recorder: recorder})
	ctx := context.Background()

	serverTransport, clientTransport := sdk.NewInMemoryTransports()
	if _, err := server.mcp.Connect(ctx, serverTransport, nil); err != nil {
		t.Fatalf("connecting server: %v", err)
	}
	client := sdk.NewClient(&sdk.Implementation{Name: "test", Version: "test"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("connecting client: %v", err)
	}
	defer session.Close()

	res, err := session.CallTool(ctx, &sdk.CallToolParams{Name: "list_wheels", Arguments: map[string]any{}})
	if err != nil {
		t.Fatalf("calling tool: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool returned an error: %+v", res.Content)
	}

	count, err := testutil.GatherAndCount(recorder.Registry(), "astrowheel_tool_calls_total")
	if err != nil {
		t.Fatalf("gathering metrics: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one tool-call series, got %d", count)
	}
}
