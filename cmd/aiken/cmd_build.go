package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"aiken/internal/blueprint"
	"aiken/internal/check"
	"aiken/internal/codegen"
	"aiken/internal/deps"
	"aiken/internal/format"
	"aiken/internal/logging"
)

var buildFlags struct {
	skipDeps bool
	parallel int
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the project and write plutus.json",
	RunE:  runBuild,
}

func init() {
	f := buildCmd.Flags()
	f.BoolVar(&buildFlags.skipDeps, "skip-deps", false, "Skip dependency download")
	f.IntVar(&buildFlags.parallel, "parallel", 4, "Validators compiled concurrently")
}

func runBuild(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	p, err := openProject()
	if err != nil {
		return err
	}

	if !buildFlags.skipDeps && len(p.Config.Dependencies) > 0 {
		client := deps.NewClient(deps.WithLogger(logging.New("deps")))
		_, warnings, err := deps.NewResolver(client).Sync(ctx, p.PackagesDir(), p.Config.Dependencies)
		if err != nil {
			return err
		}
		for _, w := range warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
		}
	}

	backend := selectBackend()
	res, err := check.Run(ctx, p, codegen.NopBackend{})
	if err != nil {
		return err
	}
	if res.Failed() {
		fmt.Fprint(out, res.Summary(format.Terminal))
		return fmt.Errorf("build aborted: project has errors")
	}

	var jobs []codegen.CompileJob
	for _, mod := range res.Modules {
		for _, v := range mod.Validators {
			jobs = append(jobs, codegen.CompileJob{Module: mod, Validator: v})
		}
	}
	codes, err := codegen.CompileAll(ctx, backend, jobs, buildFlags.parallel)
	if errors.Is(err, codegen.ErrNoBackend) {
		return fmt.Errorf("build needs a codegen backend; set AIKEN_CODEGEN or pass --codegen")
	}
	if err != nil {
		return err
	}

	compiled := make([]blueprint.CompiledValidator, len(jobs))
	for i, job := range jobs {
		compiled[i] = blueprint.CompiledValidator{
			Module:    job.Module.Name,
			Validator: job.Validator,
			Code:      codes[i],
		}
	}
	bp, err := blueprint.Assemble(p.Config, version, compiled)
	if err != nil {
		return err
	}
	if err := bp.Save(p.BlueprintPath()); err != nil {
		return err
	}

	fmt.Fprintf(out, "Compiled %d validator(s) into %s\n", len(compiled), p.BlueprintPath())
	return nil
}
