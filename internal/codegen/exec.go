package codegen

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"aiken/internal/logging"
	"aiken/internal/syntax"
)

// ExecBackend drives an external compiler executable. Each operation
// writes one JSON request on the child's stdin and reads one JSON
// response from its stdout; stderr is captured into errors.
type ExecBackend struct {
	command string
	args    []string
}

// NewExecBackend parses a command line such as "uplc-backend --strict"
// into a backend.
func NewExecBackend(commandLine string) *ExecBackend {
	fields := strings.Fields(commandLine)
	b := &ExecBackend{command: fields[0]}
	if len(fields) > 1 {
		b.args = fields[1:]
	}
	return b
}

type execRequest struct {
	Op        string   `json:"op"` // "compile" or "test"
	File      string   `json:"file"`
	Module    string   `json:"module"`
	Validator string   `json:"validator,omitempty"`
	Handlers  []string `json:"handlers,omitempty"`
}

type execResponse struct {
	Code  string       `json:"code,omitempty"` // hex, CBOR-wrapped flat program
	Tests []TestResult `json:"tests,omitempty"`
	Error string       `json:"error,omitempty"`
}

func (b *ExecBackend) CompileValidator(ctx context.Context, mod *syntax.Module, v syntax.Validator) ([]byte, error) {
	req := execRequest{Op: "compile", File: mod.File, Module: mod.Name, Validator: v.Name}
	for _, h := range v.Handlers {
		req.Handlers = append(req.Handlers, h.Name)
	}
	resp, err := b.run(ctx, req)
	if err != nil {
		return nil, err
	}
	code, err := hex.DecodeString(resp.Code)
	if err != nil {
		return nil, fmt.Errorf("codegen: backend returned non-hex code for %s: %w", mod.Name, err)
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("codegen: backend returned no code for validator %q in %s", v.Name, mod.Name)
	}
	return code, nil
}

func (b *ExecBackend) RunTests(ctx context.Context, mod *syntax.Module) ([]TestResult, error) {
	resp, err := b.run(ctx, execRequest{Op: "test", File: mod.File, Module: mod.Name})
	if err != nil {
		return nil, err
	}
	for i := range resp.Tests {
		if resp.Tests[i].Module == "" {
			resp.Tests[i].Module = mod.Name
		}
	}
	return resp.Tests, nil
}

func (b *ExecBackend) run(ctx context.Context, req execRequest) (*execResponse, error) {
	logger := logging.New("codegen")

	input, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("codegen: marshal request: %w", err)
	}

	cmd := exec.CommandContext(ctx, b.command, b.args...)
	cmd.Stdin = bytes.NewReader(input)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.DebugContext(ctx, "invoking backend", "command", b.command, "op", req.Op, "module", req.Module)

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return nil, fmt.Errorf("codegen: %s %s: %w: %s", b.command, req.Op, err, detail)
		}
		return nil, fmt.Errorf("codegen: %s %s: %w", b.command, req.Op, err)
	}

	var resp execResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("codegen: parse backend response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("codegen: backend: %s", resp.Error)
	}
	return &resp, nil
}
