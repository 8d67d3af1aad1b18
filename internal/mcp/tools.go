package mcp

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"astrowheel/internal/orientation"
	"astrowheel/internal/snapshot"
	"astrowheel/internal/store"
	"astrowheel/internal/style"
	"astrowheel/internal/wheel"
)

type SnapshotInput struct {
	Revision string             `json:"revision,omitempty" jsonschema:"caller-chosen identity; enables frame caching"`
	Objects  map[string]float64 `json:"objects,omitempty" jsonschema:"object longitudes keyed by id, e.g. Sun"`
	Houses   map[string]float64 `json:"houses,omitempty" jsonschema:"house cusp longitudes keyed by house number 1-12"`
	Angles   map[string]float64 `json:"angles,omitempty" jsonschema:"angle longitudes keyed by ASC, MC, DESC or IC"`
}

type ListWheelsInput struct{}

type GetWheelInput struct {
	Name string `json:"name" jsonschema:"wheel name, matched ignoring case"`
}

type ValidateWheelInput struct {
	Definition string `json:"definition" jsonschema:"wheel definition as JSON text"`
	Migrate    bool   `json:"migrate,omitempty" jsonschema:"upgrade older versions before validating"`
	Register   bool   `json:"register,omitempty" jsonschema:"add the definition to the registry when valid"`
}

type ComposePresetInput struct {
	Name string `json:"name" jsonschema:"preset name"`
}

type WorldToScreenInput struct {
	Preset     string         `json:"preset,omitempty" jsonschema:"orientation preset name, default asc-left"`
	Frame      map[string]any `json:"frame,omitempty" jsonschema:"explicit view frame; takes precedence over preset"`
	Snapshot   SnapshotInput  `json:"snapshot"`
	Longitudes []float64      `json:"longitudes" jsonschema:"ecliptic longitudes in degrees"`
}

type ScreenToWorldInput struct {
	Preset   string         `json:"preset,omitempty" jsonschema:"orientation preset name, default asc-left"`
	Frame    map[string]any `json:"frame,omitempty" jsonschema:"explicit view frame; takes precedence over preset"`
	Snapshot SnapshotInput  `json:"snapshot"`
	Angles   []float64      `json:"angles" jsonschema:"screen angles in degrees"`
}

type EvaluateOrientationInput struct {
	SessionID string         `json:"session_id" jsonschema:"session to evaluate; created on first use"`
	Program   map[string]any `json:"program,omitempty" jsonschema:"orientation program; replaces the stored one when given"`
	Preset    string         `json:"preset,omitempty" jsonschema:"start the session from an orientation preset instead of a program"`
	Snapshot  SnapshotInput  `json:"snapshot"`
}

type ResetSessionInput struct {
	SessionID string `json:"session_id"`
	Forget    bool   `json:"forget,omitempty" jsonschema:"delete the session and its history instead of resetting its state"`
}

type ListSessionsInput struct{}

type WheelSummaryOutput struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Builtin bool   `json:"builtin"`
	Rings   int    `json:"rings"`
}

type ListWheelsOutput struct {
	Wheels []WheelSummaryOutput `json:"wheels"`
}

type GetWheelOutput struct {
	Builtin    bool           `json:"builtin"`
	Definition map[string]any `json:"definition"`
}

type ValidateWheelOutput struct {
	Valid      bool               `json:"valid"`
	Name       string             `json:"name,omitempty"`
	Version    string             `json:"version,omitempty"`
	Errors     []wheel.FieldError `json:"errors,omitempty"`
	Migrations []string           `json:"migrations,omitempty"`
	Registered bool               `json:"registered,omitempty"`
}

type ComposePresetOutput struct {
	Name        string             `json:"name"`
	Wheel       string             `json:"wheel"`
	Orientation string             `json:"orientation"`
	Program     map[string]any     `json:"program"`
	Visual      style.VisualConfig `json:"visual"`
	Glyphs      style.GlyphConfig  `json:"glyphs"`
}

type WorldToScreenOutput struct {
	Anchor float64   `json:"anchor"`
	Screen []float64 `json:"screen"`
}

type ScreenToWorldOutput struct {
	Anchor float64   `json:"anchor"`
	World  []float64 `json:"world"`
}

type EvaluateOrientationOutput struct {
	SessionID string         `json:"session_id"`
	Tick      int            `json:"tick"`
	Outcome   map[string]any `json:"outcome"`
}

type ResetSessionOutput struct {
	SessionID string `json:"session_id"`
	Reset     bool   `json:"reset"`
}

type SessionSummaryOutput struct {
	ID        string `json:"id"`
	Ticks     int    `json:"ticks"`
	Rules     int    `json:"rules"`
	UpdatedAt string `json:"updated_at"`
}

type ListSessionsOutput struct {
	Sessions []SessionSummaryOutput `json:"sessions"`
}

func (s *Server) registerTools() {
	addTool(s, &sdk.Tool{
		Name:        "list_wheels",
		Description: "List wheel definitions visible in the registry",
	}, s.handleListWheels)

	addTool(s, &sdk.Tool{
		Name:        "get_wheel",
		Description: "Return a wheel definition in its JSON form",
	}, s.handleGetWheel)

	addTool(s, &sdk.Tool{
		Name:        "validate_wheel",
		Description: "Validate a wheel definition, optionally migrating and registering it",
	}, s.handleValidateWheel)

	addTool(s, &sdk.Tool{
		Name:        "compose_preset",
		Description: "Resolve a preset into its wheel, orientation program and styling",
	}, s.handleComposePreset)

	addTool(s, &sdk.Tool{
		Name:        "world_to_screen",
		Description: "Convert ecliptic longitudes to screen angles under a view frame",
	}, s.handleWorldToScreen)

	addTool(s, &sdk.Tool{
		Name:        "screen_to_world",
		Description: "Convert screen angles back to ecliptic longitudes under a view frame",
	}, s.handleScreenToWorld)

	addTool(s, &sdk.Tool{
		Name:        "evaluate_orientation",
		Description: "Run one tick of a session's orientation program against a chart snapshot",
	}, s.handleEvaluateOrientation)

	addTool(s, &sdk.Tool{
		Name:        "reset_session",
		Description: "Clear a session's runtime state, or delete the session",
	}, s.handleResetSession)

	addTool(s, &sdk.Tool{
		Name:        "list_sessions",
		Description: "List stored evaluation sessions",
	}, s.handleListSessions)
}

func (s *Server) handleListWheels(ctx context.Context, req *sdk.CallToolRequest, input ListWheelsInput) (*sdk.CallToolResult, ListWheelsOutput, error) {
	names := s.registry.Names()
	out := make([]WheelSummaryOutput, 0, len(names))
	for _, name := range names {
		def, ok := s.registry.Get(name)
		if !ok {
			continue
		}
		out = append(out, WheelSummaryOutput{
			Name:    def.Name,
			Version: def.Version,
			Builtin: s.registry.IsBuiltin(name),
			Rings:   len(def.Rings),
		})
	}
	return nil, ListWheelsOutput{Wheels: out}, nil
}

func (s *Server) handleGetWheel(ctx context.Context, req *sdk.CallToolRequest, input GetWheelInput) (*sdk.CallToolResult, GetWheelOutput, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, GetWheelOutput{}, fmt.Errorf("name is required")
	}
	def, ok := s.registry.Get(input.Name)
	if !ok {
		return nil, GetWheelOutput{}, fmt.Errorf("wheel %q not found", input.Name)
	}
	m, err := toMap(def)
	if err != nil {
		return nil, GetWheelOutput{}, err
	}
	return nil, GetWheelOutput{Builtin: s.registry.IsBuiltin(input.Name), Definition: m}, nil
}

func (s *Server) handleValidateWheel(ctx context.Context, req *sdk.CallToolRequest, input ValidateWheelInput) (*sdk.CallToolResult, ValidateWheelOutput, error) {
	if strings.TrimSpace(input.Definition) == "" {
		return nil, ValidateWheelOutput{}, fmt.Errorf("definition is required")
	}
	def, res := wheel.ParseJSON([]byte(input.Definition))
	if !res.Valid {
		return nil, ValidateWheelOutput{Errors: res.Errors}, nil
	}

	out := ValidateWheelOutput{Valid: true, Name: def.Name, Version: def.Version}
	latest := s.migrator.Latest()
	if input.Migrate && latest != "" && wheel.CompareVersions(def.Version, latest) < 0 {
		m := s.migrator.Migrate(def, latest)
		out.Migrations = m.Applied
		if !m.Success {
			out.Valid = false
			for _, msg := range m.Errors {
				out.Errors = append(out.Errors, wheel.FieldError{Field: "version", Message: msg})
			}
			return nil, out, nil
		}
		def = m.Definition
		out.Version = def.Version
		if res := wheel.Validate(def); !res.Valid {
			out.Valid = false
			out.Errors = res.Errors
			return nil, out, nil
		}
	}

	if input.Register {
		if err := s.registry.Register(def); err != nil {
			return nil, ValidateWheelOutput{}, err
		}
		out.Registered = true
	}
	return nil, out, nil
}

func (s *Server) handleComposePreset(ctx context.Context, req *sdk.CallToolRequest, input ComposePresetInput) (*sdk.CallToolResult, ComposePresetOutput, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ComposePresetOutput{}, fmt.Errorf("name is required")
	}
	resolved, err := s.presets.Compose(s.registry, input.Name)
	if err != nil {
		return nil, ComposePresetOutput{}, err
	}
	program, err := toMap(resolved.Program)
	if err != nil {
		return nil, ComposePresetOutput{}, err
	}
	return nil, ComposePresetOutput{
		Name:        resolved.Name,
		Wheel:       resolved.Wheel.Name,
		Orientation: resolved.Orientation.Name,
		Program:     program,
		Visual:      resolved.Visual,
		Glyphs:      resolved.Glyphs,
	}, nil
}

func (s *Server) handleWorldToScreen(ctx context.Context, req *sdk.CallToolRequest, input WorldToScreenInput) (*sdk.CallToolResult, WorldToScreenOutput, error) {
	bound, err := s.bind(input.Preset, input.Frame, input.Snapshot)
	if err != nil {
		return nil, WorldToScreenOutput{}, err
	}
	screen := make([]float64, 0, len(input.Longitudes))
	for _, lon := range input.Longitudes {
		screen = append(screen, bound.WorldToScreen(lon))
	}
	return nil, WorldToScreenOutput{Anchor: bound.AnchorLongitude, Screen: screen}, nil
}

func (s *Server) handleScreenToWorld(ctx context.Context, req *sdk.CallToolRequest, input ScreenToWorldInput) (*sdk.CallToolResult, ScreenToWorldOutput, error) {
	bound, err := s.bind(input.Preset, input.Frame, input.Snapshot)
	if err != nil {
		return nil, ScreenToWorldOutput{}, err
	}
	world := make([]float64, 0, len(input.Angles))
	for _, a := range input.Angles {
		world = append(world, bound.ScreenToWorld(a))
	}
	return nil, ScreenToWorldOutput{Anchor: bound.AnchorLongitude, World: world}, nil
}

func (s *Server) handleEvaluateOrientation(ctx context.Context, req *sdk.CallToolRequest, input EvaluateOrientationInput) (*sdk.CallToolResult, EvaluateOrientationOutput, error) {
	if err := store.ValidateID(input.SessionID); err != nil {
		return nil, EvaluateOrientationOutput{}, err
	}
	snap, err := input.Snapshot.chartSnapshot()
	if err != nil {
		return nil, EvaluateOrientationOutput{}, err
	}
	program, err := programFrom(input.Program, input.Preset)
	if err != nil {
		return nil, EvaluateOrientationOutput{}, err
	}

	unlock := s.lockSession(input.SessionID)
	defer unlock()

	session, err := s.db.GetSession(ctx, input.SessionID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if program == nil {
			return nil, EvaluateOrientationOutput{}, fmt.Errorf("session %q is new: program or preset is required", input.SessionID)
		}
		session = &store.Session{ID: input.SessionID}
	case err != nil:
		return nil, EvaluateOrientationOutput{}, err
	}
	if program != nil {
		session.Program = *program
	}

	engine, err := orientation.NewEngine(session.Program, s.engineOptions()...)
	if err != nil {
		return nil, EvaluateOrientationOutput{}, err
	}
	outcome := engine.Evaluate(&session.State, snap)
	session.Program = engine.Program()
	session.UpdatedAt = time.Now().UTC()

	if err := s.db.SaveSession(ctx, session); err != nil {
		return nil, EvaluateOrientationOutput{}, err
	}
	if err := s.db.AppendTransitions(ctx, session.ID, session.State.Ticks, outcome.Transitions); err != nil {
		return nil, EvaluateOrientationOutput{}, err
	}

	m, err := toMap(outcome)
	if err != nil {
		return nil, EvaluateOrientationOutput{}, err
	}
	return nil, EvaluateOrientationOutput{SessionID: session.ID, Tick: session.State.Ticks, Outcome: m}, nil
}

func (s *Server) handleResetSession(ctx context.Context, req *sdk.CallToolRequest, input ResetSessionInput) (*sdk.CallToolResult, ResetSessionOutput, error) {
	if err := store.ValidateID(input.SessionID); err != nil {
		return nil, ResetSessionOutput{}, err
	}
	unlock := s.lockSession(input.SessionID)
	defer unlock()

	if input.Forget {
		deleted, err := s.db.DeleteSession(ctx, input.SessionID)
		if err != nil {
			return nil, ResetSessionOutput{}, err
		}
		return nil, ResetSessionOutput{SessionID: input.SessionID, Reset: deleted}, nil
	}

	session, err := s.db.GetSession(ctx, input.SessionID)
	if err != nil {
		return nil, ResetSessionOutput{}, err
	}
	session.State.Reset()
	session.UpdatedAt = time.Now().UTC()
	if err := s.db.SaveSession(ctx, session); err != nil {
		return nil, ResetSessionOutput{}, err
	}
	return nil, ResetSessionOutput{SessionID: input.SessionID, Reset: true}, nil
}

func (s *Server) handleListSessions(ctx context.Context, req *sdk.CallToolRequest, input ListSessionsInput) (*sdk.CallToolResult, ListSessionsOutput, error) {
	sessions, err := s.db.ListSessions(ctx)
	if err != nil {
		return nil, ListSessionsOutput{}, err
	}
	out := make([]SessionSummaryOutput, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, SessionSummaryOutput{
			ID:        sess.ID,
			Ticks:     sess.Ticks,
			Rules:     sess.Rules,
			UpdatedAt: sess.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	return nil, ListSessionsOutput{Sessions: out}, nil
}

// bind resolves the requested frame against the snapshot through the shared
// projector cache. Clients choose revisions freely, so the cache key also
// covers the snapshot's content.
func (s *Server) bind(presetName string, frame map[string]any, in SnapshotInput) (orientation.BoundFrame, error) {
	f, err := frameFrom(presetName, frame)
	if err != nil {
		return orientation.BoundFrame{}, err
	}
	snap, err := in.chartSnapshot()
	if err != nil {
		return orientation.BoundFrame{}, err
	}
	if snap.Revision != "" {
		revision, err := contentRevision(snap)
		if err != nil {
			return orientation.BoundFrame{}, err
		}
		snap.Revision = revision
	}
	bound, ok := s.projector.Bind(f, snap)
	if !ok {
		return orientation.BoundFrame{}, fmt.Errorf("frame anchor is not present in the snapshot")
	}
	return bound, nil
}

func (in SnapshotInput) chartSnapshot() (*orientation.ChartSnapshot, error) {
	var houses map[int]float64
	if len(in.Houses) > 0 {
		houses = make(map[int]float64, len(in.Houses))
		for key, lon := range in.Houses {
			n, err := strconv.Atoi(strings.TrimSpace(key))
			if err != nil {
				return nil, fmt.Errorf("house key %q is not a number", key)
			}
			houses[n] = lon
		}
	}
	snap, err := snapshot.Build(in.Revision, in.Objects, houses, in.Angles)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return snap, nil
}

// contentRevision suffixes the snapshot's revision with a digest of its
// longitudes.
func contentRevision(snap *orientation.ChartSnapshot) (string, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}
	sum := sha256.Sum256(data)
	return snap.Revision + "#" + hex.EncodeToString(sum[:8]), nil
}

func frameFrom(presetName string, frame map[string]any) (orientation.ViewFrame, error) {
	if frame != nil {
		data, err := json.Marshal(frame)
		if err != nil {
			return orientation.ViewFrame{}, fmt.Errorf("encoding frame: %w", err)
		}
		var f orientation.ViewFrame
		if err := json.Unmarshal(data, &f); err != nil {
			return orientation.ViewFrame{}, fmt.Errorf("parsing frame: %w", err)
		}
		if err := f.Validate(); err != nil {
			return orientation.ViewFrame{}, fmt.Errorf("invalid frame: %w", err)
		}
		return f, nil
	}
	if strings.TrimSpace(presetName) == "" {
		presetName = "asc-left"
	}
	p, ok := orientation.LookupPreset(presetName)
	if !ok {
		return orientation.ViewFrame{}, fmt.Errorf("unknown orientation preset %q", presetName)
	}
	return p.Frame, nil
}

// programFrom returns nil when neither a program nor a preset was given.
func programFrom(program map[string]any, presetName string) (*orientation.Program, error) {
	if program != nil {
		data, err := json.Marshal(program)
		if err != nil {
			return nil, fmt.Errorf("encoding program: %w", err)
		}
		return orientation.ParseProgram(data)
	}
	if strings.TrimSpace(presetName) == "" {
		return nil, nil
	}
	p, ok := orientation.LookupPreset(presetName)
	if !ok {
		return nil, fmt.Errorf("unknown orientation preset %q", presetName)
	}
	prog := orientation.ProgramFromPreset(p)
	return &prog, nil
}

func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding output: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("encoding output: %w", err)
	}
	return m, nil
}
