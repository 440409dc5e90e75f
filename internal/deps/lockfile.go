package deps

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"

	"aiken/internal/config"
)

// LockFilename is the lockfile name inside build/packages.
const LockFilename = "packages.toml"

// Lockfile records what is currently unpacked under build/packages,
// giving reproducible dependency state and the ETags used to skip
// unchanged downloads.
type Lockfile struct {
	Packages []LockedPackage `toml:"packages"`
}

// LockedPackage is one [[packages]] entry.
type LockedPackage struct {
	Name    string          `toml:"name"`
	Version string          `toml:"version"`
	Source  config.Platform `toml:"source"`
	ETag    string          `toml:"etag,omitempty"`
}

// LoadLockfile reads the lockfile inside dir; a missing file yields an
// empty lockfile.
func LoadLockfile(dir string) (*Lockfile, error) {
	path := filepath.Join(dir, LockFilename)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Lockfile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("deps: read %s: %w", path, err)
	}
	var lf Lockfile
	if err := toml.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("deps: parse %s: %w", path, err)
	}
	return &lf, nil
}

// Save writes the lockfile into dir with entries sorted by name.
func (lf *Lockfile) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("deps: create %s: %w", dir, err)
	}
	sort.Slice(lf.Packages, func(i, j int) bool { return lf.Packages[i].Name < lf.Packages[j].Name })

	var buf bytes.Buffer
	buf.WriteString("# This file is generated; do not edit it by hand.\n")
	if err := toml.NewEncoder(&buf).Encode(lf); err != nil {
		return fmt.Errorf("deps: encode lockfile: %w", err)
	}
	path := filepath.Join(dir, LockFilename)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("deps: write %s: %w", path, err)
	}
	return nil
}

// Find returns the locked entry for a package name, if present.
func (lf *Lockfile) Find(name string) *LockedPackage {
	for i := range lf.Packages {
		if lf.Packages[i].Name == name {
			return &lf.Packages[i]
		}
	}
	return nil
}

// Put inserts or replaces a locked entry.
func (lf *Lockfile) Put(p LockedPackage) {
	if existing := lf.Find(p.Name); existing != nil {
		*existing = p
		return
	}
	lf.Packages = append(lf.Packages, p)
}
