// Package ingest loads directories of wheel definition files into a registry.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"astrowheel/internal/wheel"
)

// Registrar is the part of wheel.Registry ingest writes to.
type Registrar interface {
	Register(def *wheel.Definition) error
	Unregister(name string) bool
}

var _ Registrar = (*wheel.Registry)(nil)

type Result struct {
	Registered   int
	Removed      int
	FilesSkipped int
	Errors       []error
}

type Options struct {
	// Full re-parses every file even when its content hash is unchanged.
	Full bool
}

type ingested struct {
	hash string
	name string
}

// Ingester remembers what it registered from each file, so later runs skip
// unchanged files and unregister wheels whose files disappeared. An Ingester
// belongs to one registry.
type Ingester struct {
	reg   Registrar
	files *lru.Cache[string, ingested]
}

// New returns an ingester that remembers up to cacheSize files.
func New(reg Registrar, cacheSize int) (*Ingester, error) {
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	files, err := lru.New[string, ingested](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating ingest cache: %w", err)
	}
	return &Ingester{reg: reg, files: files}, nil
}

// Run walks paths for *.json files and registers every valid definition.
// Problems with individual files are collected in Result.Errors; only a walk
// failure or cancellation stops the run.
func (in *Ingester) Run(ctx context.Context, paths, exclude []string, options Options) (*Result, error) {
	files, err := Walk(paths, exclude)
	if err != nil {
		return nil, fmt.Errorf("walking wheel files: %w", err)
	}

	result := &Result{}
	seenNames := make(map[string]string)
	present := make(map[string]struct{}, len(files))

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		present[path] = struct{}{}

		data, err := os.ReadFile(path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("reading %s: %w", path, err))
			continue
		}
		hash := computeHash(data)
		if prev, ok := in.files.Get(path); ok && !options.Full && prev.hash == hash {
			seenNames[wheel.NormalizeName(prev.name)] = path
			result.FilesSkipped++
			continue
		}

		def, res := wheel.ParseJSON(data)
		if !res.Valid {
			result.Errors = append(result.Errors, fmt.Errorf("parsing %s: %w", path, res.Err()))
			continue
		}

		key := wheel.NormalizeName(def.Name)
		if other, dup := seenNames[key]; dup {
			result.Errors = append(result.Errors, fmt.Errorf("%s: wheel %q already defined in %s", path, def.Name, other))
			continue
		}

		if prev, ok := in.files.Get(path); ok && wheel.NormalizeName(prev.name) != key {
			in.reg.Unregister(prev.name)
		}
		if err := in.reg.Register(def); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("registering %s: %w", path, err))
			continue
		}
		seenNames[key] = path
		in.files.Add(path, ingested{hash: hash, name: def.Name})
		result.Registered++
	}

	for _, path := range in.files.Keys() {
		if _, ok := present[path]; ok {
			continue
		}
		prev, _ := in.files.Peek(path)
		in.files.Remove(path)
		if _, stillDefined := seenNames[wheel.NormalizeName(prev.name)]; stillDefined {
			continue
		}
		if in.reg.Unregister(prev.name) {
			result.Removed++
		}
	}

	return result, nil
}

// Walk lists the *.json files under roots, skipping excluded paths.
func Walk(roots []string, excludes []string) ([]string, error) {
	excluded := make([]string, 0, len(excludes))
	for _, path := range excludes {
		if path == "" {
			continue
		}
		excluded = append(excluded, filepath.Clean(path))
	}

	var files []string
	for _, root := range roots {
		if root == "" {
			continue
		}
		root = filepath.Clean(root)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && isExcluded(path, excluded) {
				return filepath.SkipDir
			}
			if d.IsDir() {
				return nil
			}
			if !strings.HasSuffix(strings.ToLower(d.Name()), ".json") {
				return nil
			}
			if isExcluded(path, excluded) {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

// isExcluded matches path against exclusions given either as a path prefix or
// as a filepath.Match pattern on the path or its base name.
func isExcluded(path string, excludes []string) bool {
	clean := filepath.Clean(path)
	base := filepath.Base(clean)
	for _, exclude := range excludes {
		if exclude == clean || strings.HasPrefix(clean, exclude+string(os.PathSeparator)) {
			return true
		}
		if ok, _ := filepath.Match(exclude, clean); ok {
			return true
		}
		if ok, _ := filepath.Match(exclude, base); ok {
			return true
		}
	}
	return false
}

func computeHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
