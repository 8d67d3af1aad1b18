package wheel

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"

	"astrowheel/internal/style"
)

// FieldError is one validation problem. Field is a path such as
// "rings[0].radiusInner"; it is empty for problems with the document as a
// whole.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// ValidationResult lists every problem found in a definition.
type ValidationResult struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors,omitempty"`
}

// Err joins the problems into one error, or returns nil when valid.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	errs := make([]error, 0, len(r.Errors))
	for _, e := range r.Errors {
		errs = append(errs, e)
	}
	return errors.Join(errs...)
}

func result(errs []FieldError) ValidationResult {
	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// The document form keeps every required field as a pointer so that an
// absent field and a zero value can be told apart.
type definitionDoc struct {
	Name        *string                `json:"name"`
	Version     *string                `json:"version"`
	Description string                 `json:"description"`
	Rings       []ringDoc              `json:"rings"`
	Visual      *style.VisualOverrides `json:"visual"`
	Glyphs      *style.GlyphOverrides  `json:"glyphs"`
}

type ringDoc struct {
	Slug        *string     `json:"slug"`
	Type        *string     `json:"type"`
	Label       *string     `json:"label"`
	OrderIndex  *int        `json:"orderIndex"`
	RadiusInner *float64    `json:"radiusInner"`
	RadiusOuter *float64    `json:"radiusOuter"`
	DataSource  *sourceWire `json:"dataSource"`
}

// ParseJSON decodes and validates a wheel definition. The definition is nil
// unless the result is valid.
func ParseJSON(data []byte) (*Definition, ValidationResult) {
	var doc definitionDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, result([]FieldError{{Message: fmt.Sprintf("invalid JSON: %v", err)}})
	}

	var errs []FieldError
	// Rings and top-level fields with structural problems are left out of the
	// value checks so each problem is reported once.
	skip := make(map[string]bool)
	missing := func(field string) {
		errs = append(errs, FieldError{Field: field, Message: "is required"})
		skip[field] = true
	}

	def := &Definition{
		Description: doc.Description,
		Visual:      doc.Visual,
		Glyphs:      doc.Glyphs,
	}
	if doc.Name == nil {
		missing("name")
	} else {
		def.Name = *doc.Name
	}
	if doc.Version == nil {
		missing("version")
	} else {
		def.Version = *doc.Version
	}
	if doc.Rings == nil {
		missing("rings")
	}

	for i, rd := range doc.Rings {
		path := fmt.Sprintf("rings[%d]", i)
		before := len(errs)
		var ring Ring
		if rd.Slug == nil {
			missing(path + ".slug")
		} else {
			ring.Slug = *rd.Slug
		}
		if rd.Type == nil {
			missing(path + ".type")
		} else {
			ring.Type = *rd.Type
		}
		if rd.Label == nil {
			missing(path + ".label")
		} else {
			ring.Label = *rd.Label
		}
		if rd.OrderIndex == nil {
			missing(path + ".orderIndex")
		} else {
			ring.OrderIndex = *rd.OrderIndex
		}
		if rd.RadiusInner == nil {
			missing(path + ".radiusInner")
		} else {
			ring.RadiusInner = *rd.RadiusInner
		}
		if rd.RadiusOuter == nil {
			missing(path + ".radiusOuter")
		} else {
			ring.RadiusOuter = *rd.RadiusOuter
		}
		if rd.DataSource == nil {
			missing(path + ".dataSource.kind")
		} else {
			src, srcErrs := rd.DataSource.source(path + ".dataSource")
			errs = append(errs, srcErrs...)
			ring.DataSource = src
		}
		if len(errs) > before {
			skip[path] = true
		}
		def.Rings = append(def.Rings, ring)
	}

	for _, e := range Validate(def).Errors {
		if skip[e.Field] || skip[ringPath(e.Field)] {
			continue
		}
		errs = append(errs, e)
	}
	if len(errs) > 0 {
		return nil, result(errs)
	}
	sortRings(def.Rings)
	return def, result(nil)
}

// ringPath returns the "rings[i]" prefix of a field path, or "".
func ringPath(field string) string {
	if !strings.HasPrefix(field, "rings[") {
		return ""
	}
	if end := strings.IndexByte(field, ']'); end > 0 {
		return field[:end+1]
	}
	return ""
}

// Validate checks the values of a definition built in code or decoded by
// ParseJSON. Field paths index rings in their current order.
func Validate(def *Definition) ValidationResult {
	if def == nil {
		return result([]FieldError{{Message: "definition is required"}})
	}
	var errs []FieldError
	add := func(field, format string, args ...any) {
		errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(def.Name) == "" {
		add("name", "must not be blank")
	}
	if !ValidVersion(def.Version) {
		add("version", "%q is not a semantic version (MAJOR.MINOR.PATCH)", def.Version)
	}
	if len(def.Rings) == 0 {
		add("rings", "at least one ring is required")
	}

	slugs := make(map[string]int, len(def.Rings))
	for i, ring := range def.Rings {
		path := fmt.Sprintf("rings[%d]", i)
		if strings.TrimSpace(ring.Slug) == "" {
			add(path+".slug", "must not be blank")
		} else if first, dup := slugs[ring.Slug]; dup {
			add(path+".slug", "duplicates rings[%d].slug %q", first, ring.Slug)
		} else {
			slugs[ring.Slug] = i
		}
		if strings.TrimSpace(ring.Type) == "" {
			add(path+".type", "must not be blank")
		}
		if strings.TrimSpace(ring.Label) == "" {
			add(path+".label", "must not be blank")
		}
		if ring.OrderIndex < 0 {
			add(path+".orderIndex", "must not be negative")
		}
		if ring.RadiusInner < 0 || ring.RadiusInner > 1 {
			add(path+".radiusInner", "must be within [0, 1], got %g", ring.RadiusInner)
		} else if ring.RadiusInner >= ring.RadiusOuter {
			add(path+".radiusInner", "must be less than radiusOuter (%g >= %g)", ring.RadiusInner, ring.RadiusOuter)
		}
		if ring.RadiusOuter < 0 || ring.RadiusOuter > 1 {
			add(path+".radiusOuter", "must be within [0, 1], got %g", ring.RadiusOuter)
		}
		if ring.DataSource == nil {
			add(path+".dataSource.kind", "is required")
		} else if w, err := toSourceWire(ring.DataSource); err != nil {
			add(path+".dataSource.kind", "%v", err)
		} else if _, srcErrs := w.source(path + ".dataSource"); len(srcErrs) > 0 {
			errs = append(errs, srcErrs...)
		}
	}
	return result(errs)
}

// ValidVersion reports whether v is a full MAJOR.MINOR.PATCH version, with an
// optional pre-release suffix. A leading "v" is not accepted.
func ValidVersion(v string) bool {
	if strings.HasPrefix(v, "v") {
		return false
	}
	sv := "v" + v
	return semver.IsValid(sv) && semver.Canonical(sv) == sv
}

// CompareVersions orders two versions accepted by ValidVersion.
func CompareVersions(a, b string) int {
	return semver.Compare("v"+a, "v"+b)
}
