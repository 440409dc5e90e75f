package deps

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/sync/errgroup"

	"aiken/internal/config"
)

// maxParallelDownloads bounds concurrent forge requests.
const maxParallelDownloads = 4

// Resolver fetches the transitive dependency closure of a manifest into
// a packages directory, breadth-first over the fetched packages' own
// manifests.
type Resolver struct {
	client *Client
}

// NewResolver creates a resolver downloading through client.
func NewResolver(client *Client) *Resolver {
	return &Resolver{client: client}
}

// Sync brings packagesDir in line with rootDeps and returns the new
// lockfile (already saved) plus human-readable warnings for version
// conflicts. Packages already unpacked at the locked version are
// revalidated with a conditional request and skipped on 304.
func (r *Resolver) Sync(ctx context.Context, packagesDir string, rootDeps []config.Dependency) (*Lockfile, []string, error) {
	previous, err := LoadLockfile(packagesDir)
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(packagesDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("deps: create %s: %w", packagesDir, err)
	}

	next := &Lockfile{}
	var warnings []string
	chosen := make(map[string]config.Dependency)
	fetched := make(map[string]bool) // name@version pairs already fetched

	frontier := make([]config.Dependency, 0, len(rootDeps))
	for _, d := range rootDeps {
		frontier = pushDep(frontier, chosen, d, &warnings)
	}

	for len(frontier) > 0 {
		type result struct {
			dep    config.Dependency
			locked LockedPackage
			childs []config.Dependency
		}
		results := make([]result, len(frontier))

		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(maxParallelDownloads)
		for i, dep := range frontier {
			g.Go(func() error {
				locked, err := r.fetchOne(gctx, packagesDir, previous, dep)
				if err != nil {
					return err
				}
				childs, err := readPackageDeps(packagesDir, dep)
				if err != nil {
					return err
				}
				mu.Lock()
				results[i] = result{dep: dep, locked: locked, childs: childs}
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, warnings, err
		}

		frontier = frontier[:0]
		for _, res := range results {
			fetched[res.dep.Name+"@"+res.dep.Version] = true
			next.Put(res.locked)
			for _, child := range res.childs {
				if fetched[child.Name+"@"+child.Version] {
					continue
				}
				frontier = pushDep(frontier, chosen, child, &warnings)
			}
		}
	}

	if err := next.Save(packagesDir); err != nil {
		return nil, warnings, err
	}
	return next, warnings, nil
}

// pushDep records dep as the chosen version of its package, or resolves
// the conflict when another version is already chosen: the higher
// semantic version wins, otherwise first wins.
func pushDep(frontier []config.Dependency, chosen map[string]config.Dependency, dep config.Dependency, warnings *[]string) []config.Dependency {
	current, ok := chosen[dep.Name]
	if !ok {
		chosen[dep.Name] = dep
		return append(frontier, dep)
	}
	if current.Version == dep.Version {
		return frontier
	}
	have, errHave := semver.NewVersion(current.Version)
	want, errWant := semver.NewVersion(dep.Version)
	if errHave == nil && errWant == nil && want.GreaterThan(have) {
		*warnings = append(*warnings, fmt.Sprintf("%s: using %s over %s", dep.Name, dep.Version, current.Version))
		chosen[dep.Name] = dep
		// The losing version may still sit in the current frontier; it
		// must not be fetched into the same directory.
		for i := range frontier {
			if frontier[i].Name == dep.Name {
				frontier[i] = dep
				return frontier
			}
		}
		return append(frontier, dep)
	}
	*warnings = append(*warnings, fmt.Sprintf("%s: using %s, ignoring %s", dep.Name, current.Version, dep.Version))
	return frontier
}

func (r *Resolver) fetchOne(ctx context.Context, packagesDir string, previous *Lockfile, dep config.Dependency) (LockedPackage, error) {
	name, err := config.ParseName(dep.Name)
	if err != nil {
		return LockedPackage{}, err
	}
	dir := filepath.Join(packagesDir, name.DirName())

	etag := ""
	if locked := previous.Find(dep.Name); locked != nil && locked.Version == dep.Version {
		if _, statErr := os.Stat(dir); statErr == nil {
			etag = locked.ETag
		}
	}

	data, newETag, notModified, err := r.client.Download(ctx, dep, etag)
	if err != nil {
		return LockedPackage{}, err
	}
	if !notModified {
		if err := Unpack(data, dir); err != nil {
			return LockedPackage{}, fmt.Errorf("deps: unpack %s: %w", dep.Name, err)
		}
	}
	return LockedPackage{Name: dep.Name, Version: dep.Version, Source: dep.Source, ETag: newETag}, nil
}

// readPackageDeps parses a fetched package's own manifest for its
// transitive dependencies.
func readPackageDeps(packagesDir string, dep config.Dependency) ([]config.Dependency, error) {
	name, err := config.ParseName(dep.Name)
	if err != nil {
		return nil, err
	}
	manifest := filepath.Join(packagesDir, name.DirName(), config.Filename)
	if _, err := os.Stat(manifest); os.IsNotExist(err) {
		return nil, fmt.Errorf("deps: package %s@%s contains no %s", dep.Name, dep.Version, config.Filename)
	}
	cfg, err := config.LoadFromPath(manifest)
	if err != nil {
		return nil, fmt.Errorf("deps: manifest of %s: %w", dep.Name, err)
	}
	return cfg.Dependencies, nil
}
