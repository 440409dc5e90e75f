// Package mcp exposes the toolchain to MCP clients: project checking,
// module listing and blueprint queries over a stdio transport.
package mcp

import (
	"context"
	"encoding/hex"
	"fmt"

	"aiken/internal/blueprint"
	"aiken/internal/check"
	"aiken/internal/codegen"
	"aiken/internal/logging"
	"aiken/internal/project"
	"aiken/internal/syntax"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP SDK server around one project root.
type Server struct {
	MCPServer   *sdkmcp.Server
	ProjectRoot string
	Backend     codegen.Backend
}

// NewServer creates an MCP server rooted at dir with the project tools
// registered. Run it with s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{}).
func NewServer(dir string, version string, backend codegen.Backend) *Server {
	s := &Server{ProjectRoot: dir, Backend: backend}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "aiken", Version: version},
		nil,
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "check_project",
		Description: "Type-check the project: validate aiken.toml, scan modules, resolve imports and run tests when a codegen backend is configured.",
	}, s.handleCheckProject)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_modules",
		Description: "List the project's .ak modules with their declaration counts.",
	}, s.handleListModules)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "blueprint_info",
		Description: "Summarize plutus.json: preamble, validators, hashes and the address each validator locks to on the configured network.",
	}, s.handleBlueprintInfo)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "apply_parameter",
		Description: "Apply a CBOR-encoded Plutus data parameter to a validator and return the new compiled code and hash. Writes plutus.json back only when write=true.",
	}, s.handleApplyParameter)
}

// --- Tool input/output types ---

type checkProjectInput struct{}

type checkProjectOutput struct {
	Diagnostics  []string `json:"diagnostics"`
	Modules      int      `json:"modules"`
	TestsPassed  int      `json:"tests_passed"`
	TestsFailed  int      `json:"tests_failed"`
	TestsSkipped bool     `json:"tests_skipped,omitempty"`
	Failed       bool     `json:"failed"`
}

type listModulesInput struct{}

type moduleInfo struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Functions  int    `json:"functions"`
	Validators int    `json:"validators"`
	Tests      int    `json:"tests"`
}

type listModulesOutput struct {
	Modules []moduleInfo `json:"modules"`
}

type blueprintInfoInput struct{}

type validatorInfo struct {
	Title      string `json:"title"`
	Hash       string `json:"hash,omitempty"`
	Parameters int    `json:"parameters"`
	Address    string `json:"address,omitempty"`
}

type blueprintInfoOutput struct {
	Title         string          `json:"title"`
	Version       string          `json:"version"`
	PlutusVersion string          `json:"plutus_version"`
	Network       string          `json:"network"`
	Validators    []validatorInfo `json:"validators"`
}

type applyParameterInput struct {
	Validator string `json:"validator,omitempty" jsonschema:"validator title; may be omitted when the blueprint has exactly one"`
	DataHex   string `json:"data_hex" jsonschema:"CBOR-encoded Plutus data, hex"`
	Write     bool   `json:"write,omitempty" jsonschema:"write the updated blueprint back to plutus.json"`
}

type applyParameterOutput struct {
	Title               string `json:"title"`
	CompiledCode        string `json:"compiled_code"`
	Hash                string `json:"hash"`
	RemainingParameters int    `json:"remaining_parameters"`
}

// --- Tool handlers ---

func (s *Server) handleCheckProject(ctx context.Context, _ *sdkmcp.CallToolRequest, _ checkProjectInput) (*sdkmcp.CallToolResult, checkProjectOutput, error) {
	p, err := project.Open(s.ProjectRoot)
	if err != nil {
		return nil, checkProjectOutput{}, err
	}
	res, err := check.Run(ctx, p, s.Backend)
	if err != nil {
		return nil, checkProjectOutput{}, fmt.Errorf("check_project: %w", err)
	}
	out := checkProjectOutput{
		Modules:      len(res.Modules),
		TestsSkipped: res.TestsSkipped,
		Failed:       res.Failed(),
	}
	for _, d := range res.Diagnostics {
		out.Diagnostics = append(out.Diagnostics, d.String())
	}
	for _, t := range res.Tests {
		if t.Passed {
			out.TestsPassed++
		} else {
			out.TestsFailed++
		}
	}
	logging.New("mcp").InfoContext(ctx, "check_project served",
		"diagnostics", len(out.Diagnostics), "failed", out.Failed)
	return nil, out, nil
}

func (s *Server) handleListModules(ctx context.Context, _ *sdkmcp.CallToolRequest, _ listModulesInput) (*sdkmcp.CallToolResult, listModulesOutput, error) {
	p, err := project.Open(s.ProjectRoot)
	if err != nil {
		return nil, listModulesOutput{}, err
	}
	sources, err := p.Sources()
	if err != nil {
		return nil, listModulesOutput{}, err
	}
	out := listModulesOutput{Modules: []moduleInfo{}}
	for _, src := range sources {
		mod, _, err := syntax.ScanFile(src.Name, src.Path)
		if err != nil {
			return nil, listModulesOutput{}, err
		}
		kind := "lib"
		if src.Kind == project.KindValidator {
			kind = "validator"
		}
		out.Modules = append(out.Modules, moduleInfo{
			Name:       mod.Name,
			Kind:       kind,
			Functions:  len(mod.Functions),
			Validators: len(mod.Validators),
			Tests:      len(mod.Tests),
		})
	}
	return nil, out, nil
}

func (s *Server) handleBlueprintInfo(ctx context.Context, _ *sdkmcp.CallToolRequest, _ blueprintInfoInput) (*sdkmcp.CallToolResult, blueprintInfoOutput, error) {
	p, err := project.Open(s.ProjectRoot)
	if err != nil {
		return nil, blueprintInfoOutput{}, err
	}
	bp, err := blueprint.LoadFromPath(p.BlueprintPath())
	if err != nil {
		return nil, blueprintInfoOutput{}, err
	}
	network := p.Config.NetworkID()
	out := blueprintInfoOutput{
		Title:         bp.Preamble.Title,
		Version:       bp.Preamble.Version,
		PlutusVersion: bp.Preamble.PlutusVersion,
		Network:       network,
	}
	for _, v := range bp.Validators {
		info := validatorInfo{Title: v.Title, Hash: v.Hash, Parameters: len(v.Parameters)}
		// Addresses only make sense once every parameter is applied.
		if v.Hash != "" && len(v.Parameters) == 0 {
			if digest, err := hex.DecodeString(v.Hash); err == nil {
				if addr, err := blueprint.Address(network, digest); err == nil {
					info.Address = addr
				}
			}
		}
		out.Validators = append(out.Validators, info)
	}
	return nil, out, nil
}

func (s *Server) handleApplyParameter(ctx context.Context, _ *sdkmcp.CallToolRequest, input applyParameterInput) (*sdkmcp.CallToolResult, applyParameterOutput, error) {
	if input.DataHex == "" {
		return nil, applyParameterOutput{}, fmt.Errorf("data_hex is required")
	}
	data, err := hex.DecodeString(input.DataHex)
	if err != nil {
		return nil, applyParameterOutput{}, fmt.Errorf("data_hex is not hex: %w", err)
	}

	p, err := project.Open(s.ProjectRoot)
	if err != nil {
		return nil, applyParameterOutput{}, err
	}
	bp, err := blueprint.LoadFromPath(p.BlueprintPath())
	if err != nil {
		return nil, applyParameterOutput{}, err
	}
	v, err := bp.Find(input.Validator)
	if err != nil {
		return nil, applyParameterOutput{}, err
	}
	if err := bp.ApplyParameter(v, data); err != nil {
		return nil, applyParameterOutput{}, err
	}
	if input.Write {
		if err := bp.Save(p.BlueprintPath()); err != nil {
			return nil, applyParameterOutput{}, err
		}
	}
	logging.New("mcp").InfoContext(ctx, "parameter applied",
		"validator", v.Title, "written", input.Write)
	return nil, applyParameterOutput{
		Title:               v.Title,
		CompiledCode:        v.CompiledCode,
		Hash:                v.Hash,
		RemainingParameters: len(v.Parameters),
	}, nil
}
