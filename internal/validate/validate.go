// Package validate checks wheel definition files in bulk and reports every
// problem instead of stopping at the first.
package validate

import (
	"context"
	"fmt"
	"os"
	"strings"

	"astrowheel/internal/ingest"
	"astrowheel/internal/wheel"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeInvalidJSON     = "invalid_json"
	codeInvalidField    = "invalid_field"
	codeDuplicateName   = "duplicate_name"
	codeShadowsBuiltin  = "shadows_builtin"
	codeOutdatedVersion = "outdated_version"
	codeMigrationFailed = "migration_failed"
	codeUnreadable      = "unreadable_file"
)

type Issue struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Field    string   `json:"field,omitempty"`
	Wheel    string   `json:"wheel,omitempty"`
	FilePath string   `json:"filePath,omitempty"`
}

type Report struct {
	Files  int     `json:"files"`
	Issues []Issue `json:"issues"`
}

// HasErrors reports whether any issue has error severity.
func (r *Report) HasErrors() bool {
	return r.Count(SeverityError) > 0
}

func (r *Report) Count(severity Severity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			n++
		}
	}
	return n
}

// Run validates every *.json file under paths. When migrator is set, files
// older than its latest version are reported and a trial migration is run.
func Run(ctx context.Context, paths, exclude []string, migrator *wheel.Migrator) (*Report, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("at least one path is required")
	}
	files, err := ingest.Walk(paths, exclude)
	if err != nil {
		return nil, fmt.Errorf("walking wheel files: %w", err)
	}

	builtins := make(map[string]struct{})
	for _, def := range wheel.Builtins() {
		builtins[wheel.NormalizeName(def.Name)] = struct{}{}
	}

	issues := make([]Issue, 0)
	seen := make(map[string]string)
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     codeUnreadable,
				Message:  err.Error(),
				FilePath: path,
			})
			continue
		}

		def, res := wheel.ParseJSON(data)
		if !res.Valid {
			issues = append(issues, issuesFromResult(res, path)...)
			continue
		}

		key := wheel.NormalizeName(def.Name)
		if first, dup := seen[key]; dup {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     codeDuplicateName,
				Message:  fmt.Sprintf("wheel name already used in %s", first),
				Field:    "name",
				Wheel:    def.Name,
				FilePath: path,
			})
		} else {
			seen[key] = path
		}
		if _, ok := builtins[key]; ok {
			issues = append(issues, Issue{
				Severity: SeverityWarn,
				Code:     codeShadowsBuiltin,
				Message:  "wheel replaces the built-in definition of the same name",
				Field:    "name",
				Wheel:    def.Name,
				FilePath: path,
			})
		}

		if migrator != nil {
			issues = append(issues, checkVersion(def, path, migrator)...)
		}
	}

	return &Report{Files: len(files), Issues: issues}, nil
}

func issuesFromResult(res wheel.ValidationResult, path string) []Issue {
	issues := make([]Issue, 0, len(res.Errors))
	for _, e := range res.Errors {
		code := codeInvalidField
		if e.Field == "" && strings.HasPrefix(e.Message, "invalid JSON") {
			code = codeInvalidJSON
		}
		issues = append(issues, Issue{
			Severity: SeverityError,
			Code:     code,
			Message:  e.Message,
			Field:    e.Field,
			FilePath: path,
		})
	}
	return issues
}

func checkVersion(def *wheel.Definition, path string, migrator *wheel.Migrator) []Issue {
	latest := migrator.Latest()
	if latest == "" || wheel.CompareVersions(def.Version, latest) >= 0 {
		return nil
	}
	issues := []Issue{{
		Severity: SeverityWarn,
		Code:     codeOutdatedVersion,
		Message:  fmt.Sprintf("version %s is older than %s", def.Version, latest),
		Field:    "version",
		Wheel:    def.Name,
		FilePath: path,
	}}
	res := migrator.Migrate(def, latest)
	if res.Success {
		return issues
	}
	for _, msg := range res.Errors {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Code:     codeMigrationFailed,
			Message:  msg,
			Field:    "version",
			Wheel:    def.Name,
			FilePath: path,
		})
	}
	return issues
}
