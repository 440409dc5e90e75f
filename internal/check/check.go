// Package check runs the static half of `aiken check`: manifest
// validation, layout checks, module scanning and import resolution,
// plus test evaluation through the codegen backend when one is
// configured.
package check

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"aiken/internal/codegen"
	"aiken/internal/config"
	"aiken/internal/logging"
	"aiken/internal/project"
	"aiken/internal/syntax"
)

// Diagnostic is one finding against the project.
type Diagnostic struct {
	File     string
	Line     int // 0 when the finding is not positional
	Severity config.Severity
	Message  string
}

func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("%s:%d: %s: %s", d.File, d.Line, d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.File, d.Severity, d.Message)
}

// Result is the outcome of one check run.
type Result struct {
	Diagnostics  []Diagnostic
	Modules      []*syntax.Module
	Tests        []codegen.TestResult
	TestsSkipped bool // no backend configured
}

// Failed reports whether the run should exit non-zero: any
// error-severity diagnostic or any failed test.
func (r *Result) Failed() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == config.SeverityError {
			return true
		}
	}
	for _, t := range r.Tests {
		if !t.Passed {
			return true
		}
	}
	return false
}

// Run checks the project. Static diagnostics never abort the run; only
// infrastructure failures (unreadable directories) surface as errors.
func Run(ctx context.Context, p *project.Project, backend codegen.Backend) (*Result, error) {
	logger := logging.New("check")
	res := &Result{}

	manifest := p.ManifestPath()
	for _, problem := range p.Config.Validate() {
		res.Diagnostics = append(res.Diagnostics, Diagnostic{
			File:     manifest,
			Severity: problem.Severity,
			Message:  fmt.Sprintf("%s: %s", problem.Field, problem.Message),
		})
	}

	sources, err := p.Sources()
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		res.Diagnostics = append(res.Diagnostics, Diagnostic{
			File:     p.Root,
			Severity: config.SeverityWarning,
			Message:  "project has no .ak modules under lib/ or validators/",
		})
	}
	for _, dup := range project.DuplicateModules(sources) {
		res.Diagnostics = append(res.Diagnostics, Diagnostic{
			File:     p.Root,
			Severity: config.SeverityError,
			Message:  fmt.Sprintf("module %q is defined more than once", dup),
		})
	}

	for _, src := range sources {
		mod, problems, err := syntax.ScanFile(src.Name, src.Path)
		if err != nil {
			return nil, err
		}
		for _, problem := range problems {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				File:     src.Path,
				Line:     problem.Line,
				Severity: config.SeverityError,
				Message:  problem.Message,
			})
		}
		if src.Kind == project.KindLib && len(mod.Validators) > 0 {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				File:     src.Path,
				Line:     mod.Validators[0].Line,
				Severity: config.SeverityError,
				Message:  "validators must live under validators/, not lib/",
			})
		}
		res.Modules = append(res.Modules, mod)
	}

	known, err := knownModules(p, res.Modules)
	if err != nil {
		return nil, err
	}
	for _, mod := range res.Modules {
		for _, imp := range mod.Imports {
			if !known[imp.Module] {
				res.Diagnostics = append(res.Diagnostics, Diagnostic{
					File:     mod.File,
					Line:     imp.Line,
					Severity: config.SeverityWarning,
					Message:  fmt.Sprintf("cannot resolve import %q; is its package listed in %s?", imp.Module, config.Filename),
				})
			}
		}
	}

	runTests(ctx, backend, res)

	sort.SliceStable(res.Diagnostics, func(i, j int) bool {
		if res.Diagnostics[i].File != res.Diagnostics[j].File {
			return res.Diagnostics[i].File < res.Diagnostics[j].File
		}
		return res.Diagnostics[i].Line < res.Diagnostics[j].Line
	})

	logger.InfoContext(ctx, "check complete",
		"modules", len(res.Modules),
		"diagnostics", len(res.Diagnostics),
		"tests", len(res.Tests),
	)
	return res, nil
}

func runTests(ctx context.Context, backend codegen.Backend, res *Result) {
	for _, mod := range res.Modules {
		if len(mod.Tests) == 0 {
			continue
		}
		results, err := backend.RunTests(ctx, mod)
		if errors.Is(err, codegen.ErrNoBackend) {
			res.TestsSkipped = true
			return
		}
		if err != nil {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				File:     mod.File,
				Severity: config.SeverityError,
				Message:  err.Error(),
			})
			continue
		}
		res.Tests = append(res.Tests, results...)
	}
}

// knownModules builds the set of importable module names: the project's
// own modules plus every module shipped by a fetched package.
func knownModules(p *project.Project, mods []*syntax.Module) (map[string]bool, error) {
	known := make(map[string]bool)
	for _, m := range mods {
		known[m.Name] = true
	}

	packagesDir := p.PackagesDir()
	entries, err := os.ReadDir(packagesDir)
	if os.IsNotExist(err) {
		return known, nil
	}
	if err != nil {
		return nil, fmt.Errorf("check: read %s: %w", packagesDir, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		libDir := filepath.Join(packagesDir, e.Name(), "lib")
		if _, err := os.Stat(libDir); err != nil {
			continue
		}
		err := filepath.WalkDir(libDir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), ".ak") {
				return nil
			}
			rel, err := filepath.Rel(libDir, path)
			if err != nil {
				return err
			}
			known[strings.TrimSuffix(filepath.ToSlash(rel), ".ak")] = true
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("check: walk %s: %w", libDir, err)
		}
	}
	return known, nil
}
