package codegen

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"

	"aiken/internal/syntax"
)

// fakeBackend writes a shell script acting as the compiler executable.
// It ignores its stdin and prints the canned JSON response.
func fakeBackend(t *testing.T, response string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script backend")
	}
	path := filepath.Join(t.TempDir(), "backend.sh")
	script := "#!/bin/sh\ncat >/dev/null\nprintf '%s' '" + response + "'\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSelect(t *testing.T) {
	if _, ok := Select("").(NopBackend); !ok {
		t.Error("empty command should select NopBackend")
	}
	// A blank AIKEN_CODEGEN value has no command to run.
	if _, ok := Select("   ").(NopBackend); !ok {
		t.Error("whitespace-only command should select NopBackend")
	}
	if _, ok := Select("uplc-backend --strict").(*ExecBackend); !ok {
		t.Error("non-empty command should select ExecBackend")
	}
}

func TestNopBackend(t *testing.T) {
	var b NopBackend
	if _, err := b.CompileValidator(context.Background(), &syntax.Module{}, syntax.Validator{}); !errors.Is(err, ErrNoBackend) {
		t.Errorf("CompileValidator = %v, want ErrNoBackend", err)
	}
	if _, err := b.RunTests(context.Background(), &syntax.Module{}); !errors.Is(err, ErrNoBackend) {
		t.Errorf("RunTests = %v, want ErrNoBackend", err)
	}
}

func TestExecBackendCompile(t *testing.T) {
	cmd := fakeBackend(t, `{"code":"46010000200101"}`)
	b := NewExecBackend(cmd)

	mod := &syntax.Module{Name: "escrow", File: "validators/escrow.ak"}
	v := syntax.Validator{Name: "lock", Handlers: []syntax.Handler{{Name: "spend"}}}
	code, err := b.CompileValidator(context.Background(), mod, v)
	if err != nil {
		t.Fatalf("CompileValidator: %v", err)
	}
	want := []byte{0x46, 0x01, 0x00, 0x00, 0x20, 0x01, 0x01}
	if diff := cmp.Diff(want, code); diff != "" {
		t.Errorf("code mismatch (-want +got):\n%s", diff)
	}
}

func TestExecBackendCompileErrors(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{name: "reported error", response: `{"error":"type mismatch in lock"}`},
		{name: "non-hex code", response: `{"code":"zz"}`},
		{name: "empty code", response: `{}`},
		{name: "garbage output", response: `not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewExecBackend(fakeBackend(t, tt.response))
			_, err := b.CompileValidator(context.Background(), &syntax.Module{Name: "m"}, syntax.Validator{})
			if err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestExecBackendRunTests(t *testing.T) {
	cmd := fakeBackend(t, `{"tests":[{"name":"holds","passed":true},{"module":"other","name":"fails","passed":false}]}`)
	b := NewExecBackend(cmd)

	results, err := b.RunTests(context.Background(), &syntax.Module{Name: "escrow"})
	if err != nil {
		t.Fatalf("RunTests: %v", err)
	}
	want := []TestResult{
		// The module defaults to the requested one when the backend
		// leaves it blank.
		{Module: "escrow", Name: "holds", Passed: true},
		{Module: "other", Name: "fails", Passed: false},
	}
	if diff := cmp.Diff(want, results); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestExecBackendMissingExecutable(t *testing.T) {
	b := NewExecBackend(filepath.Join(t.TempDir(), "nope"))
	if _, err := b.RunTests(context.Background(), &syntax.Module{Name: "m"}); err == nil {
		t.Fatal("expected error for missing executable")
	}
}

func TestCompileAll(t *testing.T) {
	cmd := fakeBackend(t, `{"code":"46010000200101"}`)
	b := NewExecBackend(cmd)

	mod := &syntax.Module{Name: "escrow", File: "validators/escrow.ak"}
	jobs := []CompileJob{
		{Module: mod, Validator: syntax.Validator{Name: "lock"}},
		{Module: mod, Validator: syntax.Validator{Name: "cancel"}},
		{Module: mod, Validator: syntax.Validator{Name: "refund"}},
	}
	codes, err := CompileAll(context.Background(), b, jobs, 2)
	if err != nil {
		t.Fatalf("CompileAll: %v", err)
	}
	if len(codes) != len(jobs) {
		t.Fatalf("codes = %d, want %d", len(codes), len(jobs))
	}
	for i, code := range codes {
		if len(code) == 0 {
			t.Errorf("job %d produced no code", i)
		}
	}
}

func TestCompileAllNoBackend(t *testing.T) {
	jobs := []CompileJob{{Module: &syntax.Module{Name: "m"}, Validator: syntax.Validator{}}}
	if _, err := CompileAll(context.Background(), NopBackend{}, jobs, 1); !errors.Is(err, ErrNoBackend) {
		t.Errorf("CompileAll = %v, want ErrNoBackend", err)
	}
}
