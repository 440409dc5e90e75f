package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"aiken/internal/docs"
	"aiken/internal/syntax"
)

var docsFlags struct {
	output string
}

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Generate HTML documentation for the project",
	RunE:  runDocs,
}

func init() {
	docsCmd.Flags().StringVarP(&docsFlags.output, "output", "o", "", "Output directory (default build/docs)")
}

func runDocs(cmd *cobra.Command, _ []string) error {
	p, err := openProject()
	if err != nil {
		return err
	}
	sources, err := p.Sources()
	if err != nil {
		return err
	}

	var mods []*syntax.Module
	for _, src := range sources {
		mod, _, err := syntax.ScanFile(src.Name, src.Path)
		if err != nil {
			return err
		}
		mods = append(mods, mod)
	}

	outDir := docsFlags.output
	if outDir == "" {
		outDir = p.DocsDir()
	}
	if err := docs.Generate(p, mods, outDir); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Documentation for %d module(s) written to %s\n", len(mods), outDir)
	return nil
}
