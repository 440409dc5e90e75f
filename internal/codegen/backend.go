// Package codegen is the boundary to the compiler proper. Everything
// expression-level (type checking, UPLC code generation, test
// evaluation) happens behind the Backend interface; the toolchain only
// orchestrates it.
package codegen

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"aiken/internal/syntax"
)

// ErrNoBackend is returned by NopBackend: the project has no codegen
// backend configured (see the AIKEN_CODEGEN environment variable and the
// --codegen flag).
var ErrNoBackend = errors.New("codegen: no backend configured")

// TestResult is one executed test.
type TestResult struct {
	Module string `json:"module"`
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Output string `json:"output,omitempty"`
}

// Backend compiles validators and evaluates tests.
type Backend interface {
	// CompileValidator returns the CBOR-wrapped flat-encoded program
	// for one validator block.
	CompileValidator(ctx context.Context, mod *syntax.Module, v syntax.Validator) ([]byte, error)
	// RunTests evaluates every test in the module.
	RunTests(ctx context.Context, mod *syntax.Module) ([]TestResult, error)
}

// NopBackend fails every operation with ErrNoBackend.
type NopBackend struct{}

func (NopBackend) CompileValidator(context.Context, *syntax.Module, syntax.Validator) ([]byte, error) {
	return nil, ErrNoBackend
}

func (NopBackend) RunTests(context.Context, *syntax.Module) ([]TestResult, error) {
	return nil, ErrNoBackend
}

// Select returns the backend for a --codegen/AIKEN_CODEGEN value: an
// executable command line, or the NopBackend when empty or blank.
func Select(command string) Backend {
	if strings.TrimSpace(command) == "" {
		return NopBackend{}
	}
	return NewExecBackend(command)
}

// CompileJob is one validator to compile.
type CompileJob struct {
	Module    *syntax.Module
	Validator syntax.Validator
}

// CompileAll compiles every job through the backend, a bounded number
// in flight at once. Results align with jobs by index.
func CompileAll(ctx context.Context, b Backend, jobs []CompileJob, parallel int) ([][]byte, error) {
	if parallel < 1 {
		parallel = 1
	}
	out := make([][]byte, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, job := range jobs {
		g.Go(func() error {
			code, err := b.CompileValidator(gctx, job.Module, job.Validator)
			if err != nil {
				return err
			}
			out[i] = code
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
