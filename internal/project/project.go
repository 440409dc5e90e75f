// Package project ties the aiken.toml manifest to the on-disk layout of
// a smart-contract project: lib/ and validators/ sources, the build/
// tree and the generated blueprint.
package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"aiken/internal/config"
)

// ErrNotFound is returned when no aiken.toml exists in the directory or
// any of its parents.
var ErrNotFound = errors.New("project: no aiken.toml found in this directory or any parent")

// SourceKind distinguishes library modules from validator modules.
type SourceKind int

const (
	KindLib SourceKind = iota
	KindValidator
)

// Source is one .ak module on disk.
type Source struct {
	// Name is the module name, derived from the path relative to its
	// source root: lib/foo/bar.ak -> "foo/bar".
	Name string
	Path string
	Kind SourceKind
}

// Project is an opened project rooted at Root.
type Project struct {
	Root   string
	Config *config.Config
}

// Open locates the project containing dir by walking up until an
// aiken.toml is found, then parses the manifest.
func Open(dir string) (*Project, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("project: resolve %s: %w", dir, err)
	}
	for {
		manifest := filepath.Join(abs, config.Filename)
		if _, err := os.Stat(manifest); err == nil {
			cfg, err := config.LoadFromPath(manifest)
			if err != nil {
				return nil, err
			}
			return &Project{Root: abs, Config: cfg}, nil
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return nil, ErrNotFound
		}
		abs = parent
	}
}

// ManifestPath returns the path of the project's aiken.toml.
func (p *Project) ManifestPath() string {
	return filepath.Join(p.Root, config.Filename)
}

// LibDir returns the library source root.
func (p *Project) LibDir() string { return filepath.Join(p.Root, "lib") }

// ValidatorsDir returns the validator source root.
func (p *Project) ValidatorsDir() string { return filepath.Join(p.Root, "validators") }

// BuildDir returns the build output root.
func (p *Project) BuildDir() string { return filepath.Join(p.Root, "build") }

// PackagesDir returns where fetched dependencies unpack.
func (p *Project) PackagesDir() string { return filepath.Join(p.BuildDir(), "packages") }

// DocsDir returns the default documentation output directory.
func (p *Project) DocsDir() string { return filepath.Join(p.BuildDir(), "docs") }

// BlueprintPath returns the path of the generated plutus.json.
func (p *Project) BlueprintPath() string { return filepath.Join(p.Root, "plutus.json") }

// Sources enumerates every .ak module under lib/ and validators/,
// sorted by module name. A missing source root is not an error; new
// projects may start with only one of the two.
func (p *Project) Sources() ([]Source, error) {
	var sources []Source
	roots := []struct {
		dir  string
		kind SourceKind
	}{
		{p.LibDir(), KindLib},
		{p.ValidatorsDir(), KindValidator},
	}
	for _, root := range roots {
		found, err := collect(root.dir, root.kind)
		if err != nil {
			return nil, err
		}
		sources = append(sources, found...)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].Name < sources[j].Name })
	return sources, nil
}

// DuplicateModules returns module names that appear more than once
// across lib/ and validators/.
func DuplicateModules(sources []Source) []string {
	seen := make(map[string]int)
	for _, s := range sources {
		seen[s.Name]++
	}
	var dups []string
	for name, n := range seen {
		if n > 1 {
			dups = append(dups, name)
		}
	}
	sort.Strings(dups)
	return dups
}

func collect(dir string, kind SourceKind) ([]Source, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}
	var sources []Source
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".ak") {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.ToSlash(rel), ".ak")
		sources = append(sources, Source{Name: name, Path: path, Kind: kind})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("project: walk %s: %w", dir, err)
	}
	return sources, nil
}
