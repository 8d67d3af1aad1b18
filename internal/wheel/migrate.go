package wheel

import (
	"fmt"
	"sort"
)

// CurrentVersion is the definition format version the built-ins use and
// DefaultMigrator migrates to.
const CurrentVersion = "1.2.0"

// MigrationStep upgrades a definition from one version to the next. Apply
// receives a private copy and may modify it freely.
type MigrationStep struct {
	From  string
	To    string
	Apply func(def *Definition) error
}

// MigrationResult reports the outcome of Migrate. On failure Definition is nil
// and Applied lists the steps that ran before the failure.
type MigrationResult struct {
	Success    bool        `json:"success"`
	Errors     []string    `json:"errors,omitempty"`
	Applied    []string    `json:"applied,omitempty"`
	Definition *Definition `json:"definition,omitempty"`
}

// Migrator holds a chain of migration steps keyed by their source version.
type Migrator struct {
	steps map[string]MigrationStep
}

func NewMigrator() *Migrator {
	return &Migrator{steps: make(map[string]MigrationStep)}
}

// DefaultMigrator knows every step up to CurrentVersion.
func DefaultMigrator() *Migrator {
	m := NewMigrator()
	for _, step := range defaultSteps() {
		if err := m.Register(step); err != nil {
			panic(err)
		}
	}
	return m
}

// Register adds a step. Steps must move forward and at most one step may
// start at a given version.
func (m *Migrator) Register(step MigrationStep) error {
	if !ValidVersion(step.From) || !ValidVersion(step.To) {
		return fmt.Errorf("migration %s -> %s: versions must be MAJOR.MINOR.PATCH", step.From, step.To)
	}
	if CompareVersions(step.From, step.To) >= 0 {
		return fmt.Errorf("migration %s -> %s does not move forward", step.From, step.To)
	}
	if step.Apply == nil {
		return fmt.Errorf("migration %s -> %s has no apply function", step.From, step.To)
	}
	if existing, ok := m.steps[step.From]; ok {
		return fmt.Errorf("migration from %s already registered (to %s)", step.From, existing.To)
	}
	m.steps[step.From] = step
	return nil
}

// Latest is the highest version any registered step reaches, or "" when no
// steps are registered.
func (m *Migrator) Latest() string {
	latest := ""
	for _, step := range m.steps {
		if latest == "" || CompareVersions(step.To, latest) > 0 {
			latest = step.To
		}
	}
	return latest
}

// Steps lists the registered steps in version order.
func (m *Migrator) Steps() []MigrationStep {
	steps := make([]MigrationStep, 0, len(m.steps))
	for _, step := range m.steps {
		steps = append(steps, step)
	}
	sort.Slice(steps, func(i, j int) bool {
		return CompareVersions(steps[i].From, steps[j].From) < 0
	})
	return steps
}

// Migrate walks def forward to target one step at a time. def is not modified.
// Moving backwards, a missing step, a step that would pass target, or a step
// that errors all end in an unsuccessful result.
func (m *Migrator) Migrate(def *Definition, target string) MigrationResult {
	fail := func(applied []string, format string, args ...any) MigrationResult {
		return MigrationResult{Errors: []string{fmt.Sprintf(format, args...)}, Applied: applied}
	}
	if def == nil {
		return fail(nil, "definition is required")
	}
	if !ValidVersion(def.Version) {
		return fail(nil, "definition %q has invalid version %q", def.Name, def.Version)
	}
	if !ValidVersion(target) {
		return fail(nil, "invalid target version %q", target)
	}
	if CompareVersions(target, def.Version) < 0 {
		return fail(nil, "cannot migrate %q backwards from %s to %s", def.Name, def.Version, target)
	}

	out := def.Clone()
	var applied []string
	for CompareVersions(out.Version, target) < 0 {
		step, ok := m.steps[out.Version]
		if !ok {
			return fail(applied, "no migration registered from %s (target %s)", out.Version, target)
		}
		if CompareVersions(step.To, target) > 0 {
			return fail(applied, "migration %s -> %s passes target %s", step.From, step.To, target)
		}
		if err := step.Apply(out); err != nil {
			return fail(applied, "migration %s -> %s: %v", step.From, step.To, err)
		}
		out.Version = step.To
		applied = append(applied, step.From+" -> "+step.To)
	}
	return MigrationResult{Success: true, Applied: applied, Definition: out}
}

// defaultSteps is the history of the definition format.
func defaultSteps() []MigrationStep {
	return []MigrationStep{
		{
			// 1.1.0 renamed the "zodiac" ring type to "signs".
			From: "1.0.0",
			To:   "1.1.0",
			Apply: func(def *Definition) error {
				for i := range def.Rings {
					if def.Rings[i].Type == "zodiac" {
						def.Rings[i].Type = "signs"
					}
				}
				return nil
			},
		},
		{
			// 1.2.0 requires dense order indices starting at zero.
			From: "1.1.0",
			To:   "1.2.0",
			Apply: func(def *Definition) error {
				sortRings(def.Rings)
				for i := range def.Rings {
					def.Rings[i].OrderIndex = i
				}
				return nil
			},
		},
	}
}
