// Package docs renders HTML documentation for a project's modules from
// their scanned declaration surface.
package docs

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"aiken/internal/logging"
	"aiken/internal/project"
	"aiken/internal/syntax"
)

//go:embed templates/* assets/*
var content embed.FS

// SearchEntry is one row of the generated search.json lexical index.
type SearchEntry struct {
	Module string `json:"module"`
	Kind   string `json:"kind"` // module, fn, validator, type, const
	Name   string `json:"name"`
	Doc    string `json:"doc,omitempty"`
}

type indexData struct {
	Title   string
	Version string
	Modules []indexModule
}

type indexModule struct {
	Name string
	Href string
	Doc  string
}

type moduleData struct {
	Title   string
	Version string
	Module  *syntax.Module
	// Depth-relative prefix back to the docs root, for asset links.
	RootPrefix string
}

// Generate writes the documentation tree into outDir: an index page, one
// page per module, the stylesheet and the search index.
func Generate(p *project.Project, mods []*syntax.Module, outDir string) error {
	logger := logging.New("docs")

	tmpl, err := template.New("docs").Funcs(template.FuncMap{
		"signature": Signature,
	}).ParseFS(content, "templates/*.html.tmpl")
	if err != nil {
		return fmt.Errorf("docs: parse templates: %w", err)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("docs: create %s: %w", outDir, err)
	}

	css, err := content.ReadFile("assets/style.css")
	if err != nil {
		return fmt.Errorf("docs: read stylesheet: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "style.css"), css, 0o644); err != nil {
		return fmt.Errorf("docs: write stylesheet: %w", err)
	}

	idx := indexData{Title: p.Config.Name, Version: p.Config.Version}
	var search []SearchEntry

	for _, mod := range mods {
		doc := ""
		if len(mod.Docs) > 0 {
			doc = mod.Docs[0]
		}
		idx.Modules = append(idx.Modules, indexModule{
			Name: mod.Name,
			Href: mod.Name + ".html",
			Doc:  doc,
		})
		search = append(search, collectSearch(mod)...)

		page := filepath.Join(outDir, filepath.FromSlash(mod.Name)+".html")
		if err := os.MkdirAll(filepath.Dir(page), 0o755); err != nil {
			return fmt.Errorf("docs: create dir for %s: %w", page, err)
		}
		data := moduleData{
			Title:      p.Config.Name,
			Version:    p.Config.Version,
			Module:     mod,
			RootPrefix: rootPrefix(mod.Name),
		}
		if err := renderTo(tmpl, "module.html.tmpl", page, data); err != nil {
			return err
		}
	}

	if err := renderTo(tmpl, "index.html.tmpl", filepath.Join(outDir, "index.html"), idx); err != nil {
		return err
	}

	searchJSON, err := json.MarshalIndent(search, "", "  ")
	if err != nil {
		return fmt.Errorf("docs: marshal search index: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "search.json"), searchJSON, 0o644); err != nil {
		return fmt.Errorf("docs: write search index: %w", err)
	}

	logger.Info("documentation generated", "modules", len(mods), "out", outDir)
	return nil
}

func renderTo(tmpl *template.Template, name, path string, data any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("docs: create %s: %w", path, err)
	}
	defer f.Close()
	if err := tmpl.ExecuteTemplate(f, name, data); err != nil {
		return fmt.Errorf("docs: render %s: %w", path, err)
	}
	return nil
}

// rootPrefix returns "../" repeated once per directory level of a
// module name, so nested pages can link the shared stylesheet.
func rootPrefix(moduleName string) string {
	return strings.Repeat("../", strings.Count(moduleName, "/"))
}

func collectSearch(mod *syntax.Module) []SearchEntry {
	first := func(docs []string) string {
		if len(docs) > 0 {
			return docs[0]
		}
		return ""
	}
	entries := []SearchEntry{{Module: mod.Name, Kind: "module", Name: mod.Name, Doc: first(mod.Docs)}}
	for _, f := range mod.Functions {
		if !f.Public {
			continue
		}
		entries = append(entries, SearchEntry{Module: mod.Name, Kind: "fn", Name: f.Name, Doc: first(f.Docs)})
	}
	for _, v := range mod.Validators {
		entries = append(entries, SearchEntry{Module: mod.Name, Kind: "validator", Name: v.Name, Doc: first(v.Docs)})
	}
	for _, t := range mod.Types {
		if !t.Public {
			continue
		}
		entries = append(entries, SearchEntry{Module: mod.Name, Kind: "type", Name: t.Name, Doc: first(t.Docs)})
	}
	for _, c := range mod.Constants {
		if !c.Public {
			continue
		}
		entries = append(entries, SearchEntry{Module: mod.Name, Kind: "const", Name: c.Name, Doc: first(c.Docs)})
	}
	return entries
}

// Signature renders a function's signature for display.
func Signature(f syntax.Function) string {
	var sb strings.Builder
	if f.Public {
		sb.WriteString("pub ")
	}
	sb.WriteString("fn ")
	sb.WriteString(f.Name)
	sb.WriteByte('(')
	for i, p := range f.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		if p.Label != "" {
			sb.WriteString(p.Label)
			sb.WriteByte(' ')
		}
		sb.WriteString(p.Name)
		if p.Type != "" {
			sb.WriteString(": ")
			sb.WriteString(p.Type)
		}
	}
	sb.WriteByte(')')
	if f.Return != "" {
		sb.WriteString(" -> ")
		sb.WriteString(f.Return)
	}
	return sb.String()
}
