// Package snapshot reads chart snapshots from YAML or JSON files.
package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"astrowheel/internal/angle"
	"astrowheel/internal/orientation"
)

var (
	ErrNoObjects    = errors.New("snapshot has no objects, houses or angles")
	ErrInvalidYAML  = errors.New("invalid YAML in snapshot")
	ErrHouseRange   = errors.New("house number out of range 1..12")
	ErrUnknownAngle = errors.New("unknown angle")
)

type document struct {
	Revision string             `yaml:"revision"`
	Objects  map[string]float64 `yaml:"objects"`
	Houses   map[int]float64    `yaml:"houses"`
	Angles   map[string]float64 `yaml:"angles"`
}

func ParseFile(path string) (*orientation.ChartSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	snap, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}

// Parse reads a single snapshot document. Longitudes are normalized to
// [0, 360) and angle names are matched ignoring case.
func Parse(content []byte) (*orientation.ChartSnapshot, error) {
	var doc document
	if err := yaml.Unmarshal(trim(content), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return doc.snapshot()
}

// ParseSequence reads a stream of "---" separated snapshots, one per tick.
// Documents without a revision are numbered from 1 in stream order.
func ParseSequence(content []byte) ([]*orientation.ChartSnapshot, error) {
	dec := yaml.NewDecoder(bytes.NewReader(trim(content)))
	var snaps []*orientation.ChartSnapshot
	for i := 0; ; i++ {
		var doc document
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("document %d: %w: %v", i+1, ErrInvalidYAML, err)
		}
		if doc.Revision == "" {
			doc.Revision = strconv.Itoa(i + 1)
		}
		snap, err := doc.snapshot()
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i+1, err)
		}
		snaps = append(snaps, snap)
	}
	if len(snaps) == 0 {
		return nil, ErrNoObjects
	}
	return snaps, nil
}

func ParseSequenceFile(path string) ([]*orientation.ChartSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	snaps, err := ParseSequence(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snaps, nil
}

// Build validates and normalizes a snapshot supplied as plain maps, applying
// the same rules as Parse.
func Build(revision string, objects map[string]float64, houses map[int]float64, angles map[string]float64) (*orientation.ChartSnapshot, error) {
	return document{Revision: revision, Objects: objects, Houses: houses, Angles: angles}.snapshot()
}

func trim(content []byte) []byte {
	return bytes.TrimLeft(content, "\ufeff")
}

func (d document) snapshot() (*orientation.ChartSnapshot, error) {
	if len(d.Objects) == 0 && len(d.Houses) == 0 && len(d.Angles) == 0 {
		return nil, ErrNoObjects
	}

	snap := &orientation.ChartSnapshot{Revision: d.Revision}
	if len(d.Objects) > 0 {
		snap.Objects = make(map[orientation.ObjectID]float64, len(d.Objects))
		for id, lon := range d.Objects {
			snap.Objects[orientation.ObjectID(id)] = angle.Normalize(lon)
		}
	}
	if len(d.Houses) > 0 {
		snap.Houses = make(map[int]float64, len(d.Houses))
		for house, lon := range d.Houses {
			if house < 1 || house > 12 {
				return nil, fmt.Errorf("%w: %d", ErrHouseRange, house)
			}
			snap.Houses[house] = angle.Normalize(lon)
		}
	}
	if len(d.Angles) > 0 {
		snap.Angles = make(map[orientation.AngleType]float64, len(d.Angles))
		for name, lon := range d.Angles {
			t := orientation.AngleType(strings.ToUpper(strings.TrimSpace(name)))
			if !t.Valid() {
				return nil, fmt.Errorf("%w: %q", ErrUnknownAngle, name)
			}
			snap.Angles[t] = angle.Normalize(lon)
		}
	}
	return snap, nil
}
