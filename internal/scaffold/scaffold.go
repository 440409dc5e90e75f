// Package scaffold creates new projects: manifest, README, sample
// sources and a CI workflow.
package scaffold

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/Masterminds/semver/v3"

	"aiken/internal/config"
	"aiken/internal/logging"
)

//go:embed templates/*
var templates embed.FS

// Params feeds the project templates.
type Params struct {
	Name        config.PackageName
	Description string
	ToolVersion string
}

// Create scaffolds a project under dir/<repo>. The target directory must
// not already contain files.
func Create(dir string, p Params) (string, error) {
	logger := logging.New("scaffold")

	target := filepath.Join(dir, p.Name.Repo)
	if entries, err := os.ReadDir(target); err == nil && len(entries) > 0 {
		return "", fmt.Errorf("scaffold: %s already exists and is not empty", target)
	}
	for _, sub := range []string{"lib", "validators", filepath.Join(".github", "workflows")} {
		if err := os.MkdirAll(filepath.Join(target, sub), 0o755); err != nil {
			return "", fmt.Errorf("scaffold: create %s: %w", sub, err)
		}
	}

	// Dev builds carry a non-semver version; a compiler constraint the
	// validator would reject must not end up in a fresh manifest.
	compiler := p.ToolVersion
	if _, err := semver.NewConstraint(compiler); err != nil {
		compiler = ""
	}

	cfg := &config.Config{
		Name:        p.Name.String(),
		Version:     "0.0.0",
		Compiler:    compiler,
		Licences:    []string{"Apache-2.0"},
		Description: p.Description,
		Repository: &config.Repository{
			Platform: config.GitHub,
			User:     p.Name.Owner,
			Project:  p.Name.Repo,
		},
		Dependencies: []config.Dependency{{
			Name:    "aiken-lang/stdlib",
			Version: "v2",
			Source:  config.GitHub,
		}},
	}
	if cfg.Description == "" {
		cfg.Description = fmt.Sprintf("Aiken contracts for project '%s'", p.Name)
	}
	if err := cfg.Save(filepath.Join(target, config.Filename)); err != nil {
		return "", err
	}

	files := map[string]string{
		"templates/README.md.tmpl":      "README.md",
		"templates/gitignore.tmpl":      ".gitignore",
		"templates/placeholder.ak.tmpl": filepath.Join("validators", "placeholder.ak"),
		"templates/lib.ak.tmpl":         filepath.Join("lib", p.Name.Repo+".ak"),
	}
	for src, dst := range files {
		if err := renderTemplate(src, filepath.Join(target, dst), p); err != nil {
			return "", err
		}
	}

	workflow, err := ciWorkflow()
	if err != nil {
		return "", err
	}
	wfPath := filepath.Join(target, ".github", "workflows", "continuous-integration.yml")
	if err := os.WriteFile(wfPath, workflow, 0o644); err != nil {
		return "", fmt.Errorf("scaffold: write workflow: %w", err)
	}

	logger.Info("project created", "name", p.Name.String(), "dir", target)
	return target, nil
}

func renderTemplate(src, dst string, p Params) error {
	raw, err := templates.ReadFile(src)
	if err != nil {
		return fmt.Errorf("scaffold: read template %s: %w", src, err)
	}
	tmpl, err := template.New(filepath.Base(src)).Parse(string(raw))
	if err != nil {
		return fmt.Errorf("scaffold: parse template %s: %w", src, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, p); err != nil {
		return fmt.Errorf("scaffold: render %s: %w", src, err)
	}
	if err := os.WriteFile(dst, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("scaffold: write %s: %w", dst, err)
	}
	return nil
}
